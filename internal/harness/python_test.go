package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codegraph/internal/ir"
)

const pySample = `import os
from . import utils

class Animal:
    sound = "generic"

    def __init__(self, name):
        self.name = name

    def speak(self):
        return os.path.join(self.name, utils.noise())

class Dog(Animal):
    def speak(self):
        return super().speak()

def _helper():
    pass
`

func TestPythonHarnessEmitsModuleClassesAndFunctions(t *testing.T) {
	res, err := NewPythonHarness().Parse(context.Background(), "animals.py", []byte(pySample), "c0ffee")
	require.NoError(t, err)

	var names []string
	for _, s := range res.Symbols {
		names = append(names, s.Name)
	}
	assert.Contains(t, names, "animals")
	assert.Contains(t, names, "Animal")
	assert.Contains(t, names, "Dog")
	assert.Contains(t, names, "speak")
	assert.Contains(t, names, "_helper")
}

func TestPythonHarnessClassBodyAssignmentIsField(t *testing.T) {
	res, err := NewPythonHarness().Parse(context.Background(), "animals.py", []byte(pySample), "c0ffee")
	require.NoError(t, err)

	found := false
	for _, s := range res.Symbols {
		if s.Name == "sound" {
			found = true
			assert.Equal(t, ir.KindField, s.Kind)
		}
	}
	assert.True(t, found)
}

func TestPythonHarnessLeadingUnderscoreIsPrivate(t *testing.T) {
	res, err := NewPythonHarness().Parse(context.Background(), "animals.py", []byte(pySample), "c0ffee")
	require.NoError(t, err)

	for _, s := range res.Symbols {
		if s.Name == "_helper" {
			assert.Equal(t, "private", s.Visibility)
		}
	}
}

func TestPythonHarnessInheritanceEdge(t *testing.T) {
	res, err := NewPythonHarness().Parse(context.Background(), "animals.py", []byte(pySample), "c0ffee")
	require.NoError(t, err)

	found := false
	for _, e := range res.Edges {
		if e.Type == ir.EdgeExtends && e.Dst == "Animal" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestPythonHarnessImportEdges(t *testing.T) {
	res, err := NewPythonHarness().Parse(context.Background(), "animals.py", []byte(pySample), "c0ffee")
	require.NoError(t, err)

	var dsts []string
	for _, e := range res.Edges {
		if e.Type == ir.EdgeImports {
			dsts = append(dsts, e.FileDst)
		}
	}
	assert.Contains(t, dsts, "os.py")
}

func TestPythonHarnessToleratesSyntaxError(t *testing.T) {
	res, err := NewPythonHarness().Parse(context.Background(), "broken.py", []byte("def f(:\n  pass"), "c0ffee")
	require.NoError(t, err)
	assert.NotNil(t, res)
}
