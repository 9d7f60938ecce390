package scip

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codegraph/internal/clierr"
)

func TestLoadIndexMissingFileReturnsIndexerMissing(t *testing.T) {
	_, err := LoadIndex(filepath.Join(t.TempDir(), "index.scip"))

	var ce *clierr.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, clierr.IndexerMissing, ce.Code)
}

func TestIndexPathResolvesRelativeToRepoRoot(t *testing.T) {
	got := IndexPath("/repo", ".scip/index.scip")
	assert.Equal(t, filepath.Join("/repo", ".scip/index.scip"), got)
}

func TestIndexPathKeepsAbsolutePaths(t *testing.T) {
	got := IndexPath("/repo", "/abs/index.scip")
	assert.Equal(t, "/abs/index.scip", got)
}

func TestLooksLikeJSON(t *testing.T) {
	assert.True(t, looksLikeJSON([]byte(`  {"metadata": {}}`)))
	assert.False(t, looksLikeJSON([]byte{0x0a, 0x01, 0x02}))
}

func TestExtractCommitFromToolInfoArgs(t *testing.T) {
	info := &ToolInfo{Arguments: []string{"--commit=abc123def456"}}
	assert.Equal(t, "abc123def456", extractCommitFromToolInfo(info))
}

func TestExtractCommitFromToolInfoVersionFallback(t *testing.T) {
	info := &ToolInfo{Version: "abc123d"}
	assert.Equal(t, "abc123d", extractCommitFromToolInfo(info))
}

func TestExtractCommitFromToolInfoNoneFound(t *testing.T) {
	info := &ToolInfo{Version: "not-a-hash!"}
	assert.Equal(t, "", extractCommitFromToolInfo(info))
}
