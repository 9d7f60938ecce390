package clierr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeverityClassification(t *testing.T) {
	assert.Equal(t, SeverityFatal, SeverityOf(StoreOpenFailed))
	assert.Equal(t, SeverityPerFile, SeverityOf(ParserFailure))
	assert.Equal(t, SeverityPerLanguage, SeverityOf(IndexerMissing))
	assert.Equal(t, SeveritySilent, SeverityOf(DuplicateUpsert))
}

func TestIsFatal(t *testing.T) {
	fatal := New(StoreOpenFailed, "cannot open store", errors.New("disk error"))
	recoverable := New(ParserFailure, "bad syntax", nil)

	assert.True(t, IsFatal(fatal))
	assert.False(t, IsFatal(recoverable))
	assert.False(t, IsFatal(errors.New("plain error")))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := New(IndexerFailed, "scip-go crashed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "scip-go crashed")
}
