package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codegraph/internal/ir"
)

const cppSample = `#include <memory>
#include "widget.h"

namespace geo {

class Shape {
public:
    Shape();
    virtual double area() = 0;

private:
    int sides_;
};

class Circle : public Shape {
public:
    double area() override {
        return 3.14;
    }
};

}

int main() {
    return 0;
}
`

func TestCppHarnessEmitsNamespaceAndClasses(t *testing.T) {
	res, err := NewCppHarness().Parse(context.Background(), "shape.cpp", []byte(cppSample), "beef")
	require.NoError(t, err)

	var names []string
	for _, s := range res.Symbols {
		names = append(names, s.Name)
	}
	assert.Contains(t, names, "geo")
	assert.Contains(t, names, "Shape")
	assert.Contains(t, names, "Circle")
	assert.Contains(t, names, "main")
}

func TestCppHarnessAccessSpecifiersControlVisibility(t *testing.T) {
	res, err := NewCppHarness().Parse(context.Background(), "shape.cpp", []byte(cppSample), "beef")
	require.NoError(t, err)

	for _, s := range res.Symbols {
		if s.Name == "sides_" {
			assert.Equal(t, "private", s.Visibility)
		}
		if s.Name == "area" && s.FQN == "geo::Shape::area" {
			assert.Equal(t, "public", s.Visibility)
		}
	}
}

func TestCppHarnessInheritanceEdge(t *testing.T) {
	res, err := NewCppHarness().Parse(context.Background(), "shape.cpp", []byte(cppSample), "beef")
	require.NoError(t, err)

	found := false
	for _, e := range res.Edges {
		if e.Type == ir.EdgeExtends && e.Dst == "Shape" {
			found = true
			assert.NotEmpty(t, e.Meta["base_clause"])
		}
	}
	assert.True(t, found)
}

func TestCppHarnessIncludesAreFileImports(t *testing.T) {
	res, err := NewCppHarness().Parse(context.Background(), "shape.cpp", []byte(cppSample), "beef")
	require.NoError(t, err)

	var dsts []string
	for _, e := range res.Edges {
		if e.Type == ir.EdgeImports {
			dsts = append(dsts, e.FileDst)
		}
	}
	assert.Contains(t, dsts, "memory")
	assert.Contains(t, dsts, "widget.h")
}

func TestCppHarnessCSourceTaggedAsLangC(t *testing.T) {
	res, err := NewCppHarness().Parse(context.Background(), "util.c", []byte("int add(int a, int b) { return a + b; }\n"), "beef")
	require.NoError(t, err)

	found := false
	for _, s := range res.Symbols {
		if s.Name == "add" {
			found = true
			assert.Equal(t, ir.LangC, s.Lang)
		}
	}
	assert.True(t, found)
}

func TestCppHarnessToleratesMalformedInput(t *testing.T) {
	res, err := NewCppHarness().Parse(context.Background(), "broken.cpp", []byte("class {{{ int"), "beef")
	require.NoError(t, err)
	assert.NotNil(t, res)
}
