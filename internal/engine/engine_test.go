package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codegraph/internal/store"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

const sampleGoFile = `package sample

func Greet(name string) string {
	return "hello " + name
}
`

func newGoRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "go.mod", "module sample\n\ngo 1.24\n")
	writeFile(t, root, "main.go", sampleGoFile)
	return root
}

func TestScanEmptyRepositoryCreatesStoreWithNoRows(t *testing.T) {
	root := t.TempDir()
	e := New()

	summary, err := e.Scan(context.Background(), Options{RepoRoot: root, CommitSHA: "c1"})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.FilesTotal)
	assert.FileExists(t, filepath.Join(root, ".codegraph", "graph.db"))

	db, err := store.Open(root, nil)
	require.NoError(t, err)
	defer db.Close()

	found, err := db.SearchSymbols("", 10)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestScanFullRepositoryProducesSymbols(t *testing.T) {
	root := newGoRepo(t)
	e := New()

	summary, err := e.Scan(context.Background(), Options{RepoRoot: root, CommitSHA: "c1"})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.FilesTotal)
	assert.Greater(t, summary.Symbols, 0)

	db, err := store.Open(root, nil)
	require.NoError(t, err)
	defer db.Close()

	sym, ok, err := db.FindSymbolByFQN("sample.Greet")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Greet", sym.Name)
}

func TestScanNoWriteSkipsStore(t *testing.T) {
	root := newGoRepo(t)
	e := New()

	summary, err := e.Scan(context.Background(), Options{RepoRoot: root, NoWrite: true})
	require.NoError(t, err)
	assert.Greater(t, summary.Symbols, 0)
	assert.NoFileExists(t, filepath.Join(root, ".codegraph", "graph.db"))
}

func TestScanRejectsEmptyCommitShaWithoutNoWrite(t *testing.T) {
	root := newGoRepo(t)
	e := New()

	_, err := e.Scan(context.Background(), Options{RepoRoot: root})
	assert.Error(t, err)
}

func TestIncrementalScanReportsNoChangesOnRerun(t *testing.T) {
	root := newGoRepo(t)
	e := New()

	_, err := e.Scan(context.Background(), Options{RepoRoot: root, CommitSHA: "c1"})
	require.NoError(t, err)

	summary, err := e.Scan(context.Background(), Options{RepoRoot: root, CommitSHA: "c2", Incremental: true})
	require.NoError(t, err)
	assert.True(t, summary.Unchanged)
}

func TestIncrementalScanOnlyReparsesChangedFile(t *testing.T) {
	root := newGoRepo(t)
	writeFile(t, root, "other.go", "package sample\n\nfunc Other() {}\n")
	e := New()

	_, err := e.Scan(context.Background(), Options{RepoRoot: root, CommitSHA: "c1"})
	require.NoError(t, err)

	writeFile(t, root, "other.go", "package sample\n\nfunc OtherChanged() {}\n")

	summary, err := e.Scan(context.Background(), Options{RepoRoot: root, CommitSHA: "c2", Incremental: true})
	require.NoError(t, err)
	assert.False(t, summary.Unchanged)
	assert.Equal(t, 1, summary.FilesIndexed)
	assert.Equal(t, 1, summary.FilesUnchanged)
}

func TestIncrementalScanInheritsUnchangedFileSymbols(t *testing.T) {
	root := newGoRepo(t)
	writeFile(t, root, "other.go", "package sample\n\nfunc Other() {}\n")
	e := New()

	_, err := e.Scan(context.Background(), Options{RepoRoot: root, CommitSHA: "c1"})
	require.NoError(t, err)

	writeFile(t, root, "other.go", "package sample\n\nfunc OtherChanged() {}\n")

	summary, err := e.Scan(context.Background(), Options{RepoRoot: root, CommitSHA: "c2", Incremental: true})
	require.NoError(t, err)
	require.False(t, summary.Unchanged)

	db, err := store.Open(root, nil)
	require.NoError(t, err)
	defer db.Close()

	c2, err := db.GetOrCreateCommit("c2")
	require.NoError(t, err)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM symbols WHERE commit_id = ? AND file_path = ?`, c2, "main.go").Scan(&count))
	assert.Equal(t, 2, count, "unchanged main.go's package and Greet symbols should be carried forward into commit c2")
}

func TestScanSkipsSemanticPassUnderNoWrite(t *testing.T) {
	root := newGoRepo(t)
	e := New()

	summary, err := e.Scan(context.Background(), Options{RepoRoot: root, NoWrite: true, Semantic: true})
	require.NoError(t, err)
	assert.Empty(t, summary.SemanticLanguages)
}

func TestScanUnsupportedIndexerLanguageIsSkippedNotFatal(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "CMakeLists.txt", "project(sample)\n")
	writeFile(t, root, "main.cpp", "int main() { return 0; }\n")
	e := New()

	summary, err := e.Scan(context.Background(), Options{RepoRoot: root, CommitSHA: "c1", Semantic: true})
	require.NoError(t, err)
	assert.NotContains(t, summary.SemanticLanguages, "cpp")
}

func TestResolveSyntacticEdgesRunsOnScannedCommit(t *testing.T) {
	root := newGoRepo(t)
	e := New()

	_, err := e.Scan(context.Background(), Options{RepoRoot: root, CommitSHA: "c1"})
	require.NoError(t, err)

	db, err := store.Open(root, nil)
	require.NoError(t, err)
	defer db.Close()

	commitID, err := db.GetOrCreateCommit("c1")
	require.NoError(t, err)

	upgraded, err := db.ResolveSyntacticEdges(commitID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, upgraded, 0)
}
