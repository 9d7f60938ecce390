package harness

import "codegraph/internal/ir"

// Registry resolves the harness for a detected language. Harness values are
// stateless and safe to share; each Parse call allocates a fresh *sitter.Parser,
// so one Registry can be used concurrently across the worker pool.
type Registry struct {
	byLang map[ir.Language]Harness
}

// NewRegistry builds the registry over all six supported harnesses.
func NewRegistry() *Registry {
	r := &Registry{byLang: make(map[ir.Language]Harness)}
	for _, h := range []Harness{
		NewGoHarness(),
		NewPythonHarness(),
		NewTypeScriptHarness(),
		NewRustHarness(),
		NewJavaHarness(),
		NewCppHarness(),
	} {
		r.byLang[h.Language()] = h
	}
	// The TypeScript harness also handles plain JavaScript files; register it
	// under both languages so dispatch-by-detected-language finds it.
	r.byLang[ir.LangJavaScript] = r.byLang[ir.LangTypeScript]
	r.byLang[ir.LangC] = r.byLang[ir.LangCpp]
	return r
}

// ForLanguage returns the harness registered for lang, if any.
func (r *Registry) ForLanguage(lang ir.Language) (Harness, bool) {
	h, ok := r.byLang[lang]
	return h, ok
}
