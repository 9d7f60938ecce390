package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codegraph/internal/ir"
)

const rustSample = `pub struct Point {
    pub x: i32,
    y: i32,
}

pub trait Shape {
    fn area(&self) -> f64;
}

impl Shape for Point {
    fn area(&self) -> f64 {
        0.0
    }
}

pub enum Color {
    Red,
    Green,
    Blue,
}

pub fn origin() -> Point {
    Point { x: 0, y: 0 }
}

const LIMIT: i32 = 100;
`

func TestRustHarnessEmitsStructTraitEnumAndFunction(t *testing.T) {
	res, err := NewRustHarness().Parse(context.Background(), "geo.rs", []byte(rustSample), "f00d")
	require.NoError(t, err)

	var names []string
	for _, s := range res.Symbols {
		names = append(names, s.Name)
	}
	assert.Contains(t, names, "Point")
	assert.Contains(t, names, "Shape")
	assert.Contains(t, names, "Color")
	assert.Contains(t, names, "origin")
	assert.Contains(t, names, "LIMIT")
}

func TestRustHarnessVisibilityFromPubKeyword(t *testing.T) {
	res, err := NewRustHarness().Parse(context.Background(), "geo.rs", []byte(rustSample), "f00d")
	require.NoError(t, err)

	for _, s := range res.Symbols {
		switch s.Name {
		case "x", "Point":
			assert.Equal(t, "public", s.Visibility, s.Name)
		case "y":
			assert.Equal(t, "private", s.Visibility, s.Name)
		}
	}
}

func TestRustHarnessEnumVariantsAreEnumMembers(t *testing.T) {
	res, err := NewRustHarness().Parse(context.Background(), "geo.rs", []byte(rustSample), "f00d")
	require.NoError(t, err)

	var variants []string
	for _, s := range res.Symbols {
		if s.Kind == ir.KindEnumMember {
			variants = append(variants, s.Name)
		}
	}
	assert.ElementsMatch(t, []string{"Red", "Green", "Blue"}, variants)
}

func TestRustHarnessImplTraitForTypeProducesImplementsEdge(t *testing.T) {
	res, err := NewRustHarness().Parse(context.Background(), "geo.rs", []byte(rustSample), "f00d")
	require.NoError(t, err)

	found := false
	for _, e := range res.Edges {
		if e.Type == ir.EdgeImplements && e.Dst == "Shape" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestRustHarnessImplMethodsContainedByRealType(t *testing.T) {
	res, err := NewRustHarness().Parse(context.Background(), "geo.rs", []byte(rustSample), "f00d")
	require.NoError(t, err)

	var pointID, areaID string
	for _, s := range res.Symbols {
		switch {
		case s.Name == "Point" && s.Kind == ir.KindStruct:
			pointID = s.ID
		case s.Name == "area":
			areaID = s.ID
		}
	}
	require.NotEmpty(t, pointID, "Point struct symbol should be emitted")
	require.NotEmpty(t, areaID, "area method symbol should be emitted")

	found := false
	for _, e := range res.Edges {
		if e.Type == ir.EdgeContains && e.Src == pointID && e.Dst == areaID {
			found = true
		}
	}
	assert.True(t, found, "Point should Contain its impl method area, not a dangling impl-block id")
}
