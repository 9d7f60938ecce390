package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codegraph/internal/ir"
)

const goSample = `package sample

import "fmt"

type Widget struct {
	Name string
	id   int
}

func (w *Widget) Label() string {
	return fmt.Sprintf("widget:%s", w.Name)
}

func NewWidget(name string) *Widget {
	w := &Widget{Name: name}
	return w
}

const MaxWidgets = 10
`

func TestGoHarnessEmitsPackageAndSymbols(t *testing.T) {
	res, err := NewGoHarness().Parse(context.Background(), "sample.go", []byte(goSample), "deadbeef")
	require.NoError(t, err)

	var names []string
	for _, s := range res.Symbols {
		names = append(names, s.Name)
	}
	assert.Contains(t, names, "sample")
	assert.Contains(t, names, "Widget")
	assert.Contains(t, names, "Label")
	assert.Contains(t, names, "NewWidget")
	assert.Contains(t, names, "MaxWidgets")
}

func TestGoHarnessAssignsVisibilityByCase(t *testing.T) {
	res, err := NewGoHarness().Parse(context.Background(), "sample.go", []byte(goSample), "deadbeef")
	require.NoError(t, err)

	for _, s := range res.Symbols {
		switch s.Name {
		case "Widget", "Label", "NewWidget", "MaxWidgets":
			assert.Equal(t, "public", s.Visibility, s.Name)
		case "id":
			assert.Equal(t, "private", s.Visibility, s.Name)
		}
	}
}

func TestGoHarnessMethodFQNIsReceiverQualified(t *testing.T) {
	res, err := NewGoHarness().Parse(context.Background(), "sample.go", []byte(goSample), "deadbeef")
	require.NoError(t, err)

	found := false
	for _, s := range res.Symbols {
		if s.Name == "Label" {
			found = true
			assert.Equal(t, "sample.Widget.Label", s.FQN)
		}
	}
	assert.True(t, found)
}

func TestGoHarnessEmitsImportEdge(t *testing.T) {
	res, err := NewGoHarness().Parse(context.Background(), "sample.go", []byte(goSample), "deadbeef")
	require.NoError(t, err)

	found := false
	for _, e := range res.Edges {
		if e.Type == ir.EdgeImports && e.FileDst == "fmt" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestGoHarnessEveryDefinitionHasOccurrence(t *testing.T) {
	res, err := NewGoHarness().Parse(context.Background(), "sample.go", []byte(goSample), "deadbeef")
	require.NoError(t, err)

	defs := map[string]int{}
	for _, o := range res.Occurrences {
		if o.Role == ir.RoleDefinition {
			defs[o.SymbolID]++
		}
	}
	for _, s := range res.Symbols {
		assert.Equal(t, 1, defs[s.ID], "symbol %s should have exactly one definition occurrence", s.Name)
	}
}

func TestGoHarnessToleratesMalformedInput(t *testing.T) {
	res, err := NewGoHarness().Parse(context.Background(), "broken.go", []byte("package x\nfunc ("), "deadbeef")
	require.NoError(t, err)
	assert.NotNil(t, res)
}

const goInterfaceSample = `package sample

type Greeter interface {
	Greet(name string) string
	Close() error
}
`

func TestGoHarnessInterfaceMethodsProduceContainsEdges(t *testing.T) {
	res, err := NewGoHarness().Parse(context.Background(), "sample.go", []byte(goInterfaceSample), "deadbeef")
	require.NoError(t, err)

	var ifaceID, greetID string
	for _, s := range res.Symbols {
		switch s.Name {
		case "Greeter":
			ifaceID = s.ID
			assert.Equal(t, ir.KindInterface, s.Kind)
		case "Greet":
			greetID = s.ID
			assert.Equal(t, ir.KindMethod, s.Kind)
		}
	}
	require.NotEmpty(t, ifaceID, "interface symbol should be emitted")
	require.NotEmpty(t, greetID, "interface method symbol should be emitted")

	var found bool
	for _, e := range res.Edges {
		if e.Type == ir.EdgeContains && e.Src == ifaceID && e.Dst == greetID {
			found = true
		}
	}
	assert.True(t, found, "interface should Contain its methods")
}

func TestGoHarnessIDsAreStableAcrossReparse(t *testing.T) {
	a, err := NewGoHarness().Parse(context.Background(), "sample.go", []byte(goSample), "deadbeef")
	require.NoError(t, err)
	b, err := NewGoHarness().Parse(context.Background(), "sample.go", []byte(goSample), "deadbeef")
	require.NoError(t, err)

	require.Equal(t, len(a.Symbols), len(b.Symbols))
	for i := range a.Symbols {
		assert.Equal(t, a.Symbols[i].ID, b.Symbols[i].ID)
	}
}
