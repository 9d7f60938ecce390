package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"codegraph/internal/ir"
)

func TestRegistryResolvesAllLanguages(t *testing.T) {
	r := NewRegistry()
	for _, lang := range []ir.Language{
		ir.LangGo, ir.LangPython, ir.LangTypeScript, ir.LangJavaScript,
		ir.LangRust, ir.LangJava, ir.LangCpp, ir.LangC,
	} {
		h, ok := r.ForLanguage(lang)
		assert.True(t, ok, lang)
		if ok {
			assert.NotNil(t, h)
		}
	}
}

func TestRegistryUnknownLanguageMisses(t *testing.T) {
	r := NewRegistry()
	_, ok := r.ForLanguage(ir.LangUnknown)
	assert.False(t, ok)
}
