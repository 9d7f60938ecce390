// Package langreg detects which languages are present in a repository and
// dispatches to the right syntactic harness and semantic indexer for each (C3).
package langreg

import (
	"os"
	"path/filepath"
	"strings"

	"codegraph/internal/ir"
)

// Strategy is implemented once per supported language. It knows how to recognize
// the language's files in a project tree, and carries the metadata the engine needs
// to invoke the right harness and semantic indexer for it.
type Strategy interface {
	// Language returns the IR language this strategy handles.
	Language() ir.Language

	// Name is the human-readable language name, for logging and CLI output.
	Name() string

	// DetectFiles returns candidate marker/source paths under root that indicate
	// this language is present. An empty result means CanHandle is false.
	DetectFiles(root string) []string

	// CanHandle reports whether this strategy's language is present in root.
	CanHandle(root string) bool

	// Extensions lists the file extensions this strategy's harness parses.
	Extensions() []string

	// IndexerCommand is the default SCIP indexer binary name for this language.
	IndexerCommand() string
}

type baseStrategy struct {
	lang       ir.Language
	name       string
	exts       []string
	markers    []string
	indexerCmd string
}

func (b baseStrategy) Language() ir.Language  { return b.lang }
func (b baseStrategy) Name() string           { return b.name }
func (b baseStrategy) Extensions() []string   { return b.exts }
func (b baseStrategy) IndexerCommand() string { return b.indexerCmd }

func (b baseStrategy) DetectFiles(root string) []string {
	var found []string

	entries, err := os.ReadDir(root)
	if err == nil {
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			ext := strings.ToLower(filepath.Ext(entry.Name()))
			for _, want := range b.exts {
				if ext == want {
					found = append(found, filepath.Join(root, entry.Name()))
					break
				}
			}
		}
	}

	for _, marker := range b.markers {
		p := filepath.Join(root, marker)
		if _, err := os.Stat(p); err == nil {
			found = append(found, p)
		}
	}

	return found
}

func (b baseStrategy) CanHandle(root string) bool {
	return len(b.DetectFiles(root)) > 0
}

// TypeScriptStrategy handles TypeScript and JavaScript projects.
func TypeScriptStrategy() Strategy {
	return baseStrategy{
		lang:       ir.LangTypeScript,
		name:       "TypeScript/JavaScript",
		exts:       []string{".ts", ".tsx", ".js", ".jsx", ".mjs"},
		markers:    []string{"package.json", "tsconfig.json"},
		indexerCmd: "scip-typescript",
	}
}

// PythonStrategy handles Python projects.
func PythonStrategy() Strategy {
	return baseStrategy{
		lang:       ir.LangPython,
		name:       "Python",
		exts:       []string{".py", ".pyi"},
		markers:    []string{"setup.py", "pyproject.toml", "requirements.txt", "__init__.py"},
		indexerCmd: "scip-python",
	}
}

// GoStrategy handles Go projects.
func GoStrategy() Strategy {
	return baseStrategy{
		lang:       ir.LangGo,
		name:       "Go",
		exts:       []string{".go"},
		markers:    []string{"go.mod"},
		indexerCmd: "scip-go",
	}
}

// RustStrategy handles Rust projects.
func RustStrategy() Strategy {
	return baseStrategy{
		lang:       ir.LangRust,
		name:       "Rust",
		exts:       []string{".rs"},
		markers:    []string{"Cargo.toml"},
		indexerCmd: "rust-analyzer",
	}
}

// JavaStrategy handles Java projects.
func JavaStrategy() Strategy {
	return baseStrategy{
		lang:       ir.LangJava,
		name:       "Java",
		exts:       []string{".java"},
		markers:    []string{"pom.xml", "build.gradle", "build.gradle.kts"},
		indexerCmd: "scip-java",
	}
}

// CppStrategy handles C and C++ projects.
func CppStrategy() Strategy {
	return baseStrategy{
		lang:       ir.LangCpp,
		name:       "C/C++",
		exts:       []string{".c", ".h", ".cc", ".cpp", ".cxx", ".hpp", ".hxx"},
		markers:    []string{"CMakeLists.txt", "Makefile", "makefile", "configure.ac", "meson.build"},
		indexerCmd: "scip-clang",
	}
}

// Registry holds every supported language strategy and dispatches by language or
// by scanning a project root.
type Registry struct {
	strategies []Strategy
}

// NewRegistry builds a Registry with the default set of strategies, in the fixed
// priority order TypeScript, Python, Go, Rust, Java, C/C++.
func NewRegistry() *Registry {
	return &Registry{
		strategies: []Strategy{
			TypeScriptStrategy(),
			PythonStrategy(),
			GoStrategy(),
			RustStrategy(),
			JavaStrategy(),
			CppStrategy(),
		},
	}
}

// DetectLanguages returns every strategy whose language is present under root.
func (r *Registry) DetectLanguages(root string) []Strategy {
	var detected []Strategy
	for _, s := range r.strategies {
		if s.CanHandle(root) {
			detected = append(detected, s)
		}
	}
	return detected
}

// GetStrategy returns the strategy registered for lang, if any.
func (r *Registry) GetStrategy(lang ir.Language) (Strategy, bool) {
	for _, s := range r.strategies {
		if s.Language() == lang {
			return s, true
		}
	}
	return nil, false
}

// ListStrategies returns every registered strategy, regardless of whether its
// language is present in any particular project.
func (r *Registry) ListStrategies() []Strategy {
	out := make([]Strategy, len(r.strategies))
	copy(out, r.strategies)
	return out
}

// StrategyForFile returns the strategy whose Extensions include path's extension.
func (r *Registry) StrategyForFile(path string) (Strategy, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range r.strategies {
		for _, want := range s.Extensions() {
			if ext == want {
				return s, true
			}
		}
	}
	return nil, false
}
