package scip

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codegraph/internal/clierr"
)

func TestRunIndexerMissingBinaryReturnsIndexerMissing(t *testing.T) {
	root := t.TempDir()
	cfg := IndexerConfig{Command: "definitely-not-a-real-indexer-binary", Output: "index.scip"}

	_, err := RunIndexer(context.Background(), "go", root, cfg, time.Second)

	var ce *clierr.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, clierr.IndexerMissing, ce.Code)
}

func TestDefaultIndexersCoverAllLanguages(t *testing.T) {
	for _, lang := range []string{"go", "python", "typescript", "java", "rust"} {
		_, ok := DefaultIndexers[lang]
		assert.True(t, ok, "missing default indexer config for %s", lang)
	}
}
