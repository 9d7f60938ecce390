package langreg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codegraph/internal/ir"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestGoStrategyDetectsGoMod(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "go.mod", "module example")
	writeFile(t, root, "main.go", "package main")

	s := GoStrategy()
	assert.True(t, s.CanHandle(root))
	assert.Equal(t, ir.LangGo, s.Language())
}

func TestPythonStrategyDetectsMarkerWithoutSourceFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "pyproject.toml", "[project]\nname = \"x\"")

	s := PythonStrategy()
	assert.True(t, s.CanHandle(root))
}

func TestStrategyReportsFalseWhenAbsent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main")
	writeFile(t, root, "go.mod", "module x")

	assert.False(t, RustStrategy().CanHandle(root))
	assert.False(t, JavaStrategy().CanHandle(root))
}

func TestRegistryDetectLanguagesFindsAllPresent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "go.mod", "module x")
	writeFile(t, root, "main.go", "package main")
	writeFile(t, root, "package.json", "{}")
	writeFile(t, root, "app.ts", "export {}")

	detected := NewRegistry().DetectLanguages(root)

	var langs []ir.Language
	for _, s := range detected {
		langs = append(langs, s.Language())
	}
	assert.Contains(t, langs, ir.LangGo)
	assert.Contains(t, langs, ir.LangTypeScript)
	assert.NotContains(t, langs, ir.LangRust)
}

func TestRegistryGetStrategy(t *testing.T) {
	reg := NewRegistry()

	s, ok := reg.GetStrategy(ir.LangJava)
	require.True(t, ok)
	assert.Equal(t, "Java", s.Name())

	_, ok = reg.GetStrategy(ir.Language("nonexistent"))
	assert.False(t, ok)
}

func TestRegistryStrategyForFile(t *testing.T) {
	reg := NewRegistry()

	s, ok := reg.StrategyForFile("src/main.rs")
	require.True(t, ok)
	assert.Equal(t, ir.LangRust, s.Language())

	_, ok = reg.StrategyForFile("README.md")
	assert.False(t, ok)
}

func TestRegistryListStrategiesReturnsAllSix(t *testing.T) {
	assert.Len(t, NewRegistry().ListStrategies(), 6)
}
