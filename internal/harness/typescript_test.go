package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codegraph/internal/ir"
)

const tsSample = `import { Base } from "./base";

export interface Labeled {
  label(): string;
}

export class Widget extends Base implements Labeled {
  name: string;

  constructor(name: string) {
    super();
    this.name = name;
  }

  label(): string {
    return format(this.name);
  }
}

function helper() {
  return 1;
}
`

func TestTypeScriptHarnessEmitsModuleAndTypes(t *testing.T) {
	res, err := NewTypeScriptHarness().Parse(context.Background(), "widget.ts", []byte(tsSample), "abc123")
	require.NoError(t, err)

	var names []string
	for _, s := range res.Symbols {
		names = append(names, s.Name)
	}
	assert.Contains(t, names, "Widget")
	assert.Contains(t, names, "Labeled")
	assert.Contains(t, names, "label")
	assert.Contains(t, names, "helper")
}

func TestTypeScriptHarnessExportedIsPublic(t *testing.T) {
	res, err := NewTypeScriptHarness().Parse(context.Background(), "widget.ts", []byte(tsSample), "abc123")
	require.NoError(t, err)

	for _, s := range res.Symbols {
		switch s.Name {
		case "Widget", "Labeled":
			assert.Equal(t, "public", s.Visibility, s.Name)
		case "helper":
			assert.Equal(t, "private", s.Visibility, s.Name)
		}
	}
}

func TestTypeScriptHarnessExtendsAndImplementsEdges(t *testing.T) {
	res, err := NewTypeScriptHarness().Parse(context.Background(), "widget.ts", []byte(tsSample), "abc123")
	require.NoError(t, err)

	var extends, implements bool
	for _, e := range res.Edges {
		if e.Type == ir.EdgeExtends && e.Dst == "Base" {
			extends = true
		}
		if e.Type == ir.EdgeImplements && e.Dst == "Labeled" {
			implements = true
		}
	}
	assert.True(t, extends)
	assert.True(t, implements)
}

func TestTypeScriptHarnessDispatchesJavaScriptByExtension(t *testing.T) {
	res, err := NewTypeScriptHarness().Parse(context.Background(), "plain.js", []byte("function f() { return 1; }\n"), "abc123")
	require.NoError(t, err)

	require.NotEmpty(t, res.Symbols)
	found := false
	for _, s := range res.Symbols {
		if s.Name == "f" {
			found = true
			assert.Equal(t, ir.LangJavaScript, s.Lang)
		}
	}
	assert.True(t, found)
}

func TestTypeScriptHarnessImportEdge(t *testing.T) {
	res, err := NewTypeScriptHarness().Parse(context.Background(), "widget.ts", []byte(tsSample), "abc123")
	require.NoError(t, err)

	found := false
	for _, e := range res.Edges {
		if e.Type == ir.EdgeImports && e.FileDst == "./base" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestTypeScriptHarnessInterfaceMembersProduceContainsEdges(t *testing.T) {
	res, err := NewTypeScriptHarness().Parse(context.Background(), "widget.ts", []byte(tsSample), "abc123")
	require.NoError(t, err)

	var labeledID string
	var memberIDs []string
	for _, s := range res.Symbols {
		if s.Name == "Labeled" && s.Kind == ir.KindInterface {
			labeledID = s.ID
		}
		if s.Kind == ir.KindMethod && s.Name == "label" {
			memberIDs = append(memberIDs, s.ID)
		}
	}
	require.NotEmpty(t, labeledID, "Labeled interface symbol should be emitted")
	require.NotEmpty(t, memberIDs, "interface method signature should be emitted")

	found := false
	for _, e := range res.Edges {
		if e.Type == ir.EdgeContains && e.Src == labeledID {
			for _, mid := range memberIDs {
				if e.Dst == mid {
					found = true
				}
			}
		}
	}
	assert.True(t, found, "Labeled should Contain its label() method signature")
}

const tsEnumSample = `export enum Color {
  Red,
  Green = "green",
  Blue,
}
`

func TestTypeScriptHarnessEnumMembersAreEnumMembers(t *testing.T) {
	res, err := NewTypeScriptHarness().Parse(context.Background(), "color.ts", []byte(tsEnumSample), "abc123")
	require.NoError(t, err)

	var colorID string
	var variants []string
	for _, s := range res.Symbols {
		if s.Name == "Color" && s.Kind == ir.KindEnum {
			colorID = s.ID
		}
		if s.Kind == ir.KindEnumMember {
			variants = append(variants, s.Name)
		}
	}
	require.NotEmpty(t, colorID, "Color enum symbol should be emitted")
	assert.ElementsMatch(t, []string{"Red", "Green", "Blue"}, variants)

	found := false
	for _, e := range res.Edges {
		if e.Type == ir.EdgeContains && e.Src == colorID {
			for _, s := range res.Symbols {
				if s.Kind == ir.KindEnumMember && s.Name == "Red" && e.Dst == s.ID {
					found = true
				}
			}
		}
	}
	assert.True(t, found, "Color should Contain its Red variant")
}
