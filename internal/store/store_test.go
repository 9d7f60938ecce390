package store

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codegraph/internal/ir"
	"codegraph/internal/logging"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir(), logging.Noop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenCreatesStoreDirectoryAndFile(t *testing.T) {
	root := t.TempDir()
	db, err := Open(root, logging.Noop())
	require.NoError(t, err)
	defer db.Close()

	assert.FileExists(t, filepath.Join(root, storeDir, dbFile))
}

func TestOpenIsIdempotentAcrossReopen(t *testing.T) {
	root := t.TempDir()

	db1, err := Open(root, logging.Noop())
	require.NoError(t, err)
	commitID, err := db1.GetOrCreateCommit("abc123")
	require.NoError(t, err)
	require.NoError(t, db1.Close())

	db2, err := Open(root, logging.Noop())
	require.NoError(t, err)
	defer db2.Close()

	again, err := db2.GetOrCreateCommit("abc123")
	require.NoError(t, err)
	assert.Equal(t, commitID, again)
}

func TestGetOrCreateCommitRejectsEmptySHA(t *testing.T) {
	db := openTestDB(t)
	_, err := db.GetOrCreateCommit("")
	assert.Error(t, err)
}

func TestGetOrCreateCommitIsIdempotent(t *testing.T) {
	db := openTestDB(t)

	id1, err := db.GetOrCreateCommit("deadbeef")
	require.NoError(t, err)
	id2, err := db.GetOrCreateCommit("deadbeef")
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
}

func TestInsertAndFindSymbolByFQN(t *testing.T) {
	db := openTestDB(t)
	commitID, err := db.GetOrCreateCommit("commit1")
	require.NoError(t, err)

	sym := ir.Symbol{
		ID:         "repo://commit1/main.go/#sym(go:main.Greet:abcd)",
		Lang:       ir.LangGo,
		Kind:       ir.KindFunction,
		Name:       "Greet",
		FQN:        "main.Greet",
		FilePath:   "main.go",
		Visibility: "public",
		SigHash:    "abcd",
	}

	require.NoError(t, db.WithTx(func(tx *sql.Tx) error {
		return InsertSymbol(tx, commitID, sym)
	}))

	found, ok, err := db.FindSymbolByFQN("main.Greet")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sym.ID, found.ID)
	assert.Equal(t, ir.KindFunction, found.Kind)
}

func TestFindSymbolByFQNMissReturnsFalse(t *testing.T) {
	db := openTestDB(t)
	_, ok, err := db.FindSymbolByFQN("does.not.Exist")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSearchSymbolsSubstringMatch(t *testing.T) {
	db := openTestDB(t)
	commitID, err := db.GetOrCreateCommit("commit1")
	require.NoError(t, err)

	symbols := []ir.Symbol{
		{ID: "s1", Lang: ir.LangGo, Kind: ir.KindFunction, Name: "ParseConfig", FQN: "main.ParseConfig", FilePath: "a.go", SigHash: "h1"},
		{ID: "s2", Lang: ir.LangGo, Kind: ir.KindFunction, Name: "ParseArgs", FQN: "main.ParseArgs", FilePath: "b.go", SigHash: "h2"},
		{ID: "s3", Lang: ir.LangGo, Kind: ir.KindFunction, Name: "Render", FQN: "main.Render", FilePath: "c.go", SigHash: "h3"},
	}

	require.NoError(t, db.WithTx(func(tx *sql.Tx) error {
		for _, s := range symbols {
			if err := InsertSymbol(tx, commitID, s); err != nil {
				return err
			}
		}
		return nil
	}))

	found, err := db.SearchSymbols("Parse", 10)
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestInsertFileUpsertIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	commitID, err := db.GetOrCreateCommit("commit1")
	require.NoError(t, err)

	rec := ir.FileRecord{Path: "main.go", Hash: "hash1", Size: 100}

	require.NoError(t, db.WithTx(func(tx *sql.Tx) error { return InsertFile(tx, commitID, rec) }))
	require.NoError(t, db.WithTx(func(tx *sql.Tx) error { return InsertFile(tx, commitID, rec) }))

	hash, ok, err := db.GetFileHash("commit1", "main.go")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hash1", hash)
}

func TestGetFileHashMissingReturnsFalse(t *testing.T) {
	db := openTestDB(t)
	_, err := db.GetOrCreateCommit("commit1")
	require.NoError(t, err)

	_, ok, err := db.GetFileHash("commit1", "missing.go")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInsertEdgeUpsertByCompositeKey(t *testing.T) {
	db := openTestDB(t)
	commitID, err := db.GetOrCreateCommit("commit1")
	require.NoError(t, err)

	edge := ir.Edge{
		Type:       ir.EdgeCalls,
		Src:        "sym-a",
		Dst:        "sym-b",
		Resolution: ir.ResolutionSyntactic,
	}

	require.NoError(t, db.WithTx(func(tx *sql.Tx) error { return InsertEdge(tx, commitID, edge) }))

	edge.Resolution = ir.ResolutionSemantic
	edge.Meta = map[string]any{"resolved_by": "scip"}
	require.NoError(t, db.WithTx(func(tx *sql.Tx) error { return InsertEdge(tx, commitID, edge) }))

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM edges WHERE commit_id = ?`, commitID).Scan(&count))
	assert.Equal(t, 1, count)

	var resolution string
	require.NoError(t, db.QueryRow(`SELECT resolution FROM edges WHERE commit_id = ?`, commitID).Scan(&resolution))
	assert.Equal(t, string(ir.ResolutionSemantic), resolution)
}

func TestInsertOccurrenceAndBuildGraph(t *testing.T) {
	db := openTestDB(t)
	commitID, err := db.GetOrCreateCommit("commit1")
	require.NoError(t, err)

	occ := ir.Occurrence{FilePath: "main.go", SymbolID: "sym-a", Role: ir.RoleDefinition}
	require.NoError(t, db.WithTx(func(tx *sql.Tx) error { return InsertOccurrence(tx, commitID, occ) }))

	edge := ir.Edge{Type: ir.EdgeCalls, Src: "sym-a", Dst: "sym-b", Resolution: ir.ResolutionSyntactic}
	require.NoError(t, db.WithTx(func(tx *sql.Tx) error { return InsertEdge(tx, commitID, edge) }))

	g, err := db.BuildGraph("commit1")
	require.NoError(t, err)
	assert.Equal(t, 1, g.EdgeCount)
	assert.Equal(t, 2, g.NodeCount)
	assert.Contains(t, g.Adjacency["sym-a"], "sym-b")
}

func TestCopyForwardFileCarriesSymbolsEdgesOccurrences(t *testing.T) {
	db := openTestDB(t)
	parentID, err := db.GetOrCreateCommit("commit1")
	require.NoError(t, err)
	newID, err := db.GetOrCreateCommit("commit2")
	require.NoError(t, err)

	sym := ir.Symbol{ID: "s1", Lang: ir.LangGo, Kind: ir.KindFunction, Name: "Greet", FQN: "main.Greet", FilePath: "main.go", SigHash: "h1"}
	edge := ir.Edge{Type: ir.EdgeCalls, Src: "s1", Dst: "other.Func", Resolution: ir.ResolutionSyntactic}
	occ := ir.Occurrence{FilePath: "main.go", SymbolID: "s1", Role: ir.RoleDefinition}

	require.NoError(t, db.WithTx(func(tx *sql.Tx) error {
		if err := InsertSymbol(tx, parentID, sym); err != nil {
			return err
		}
		if err := InsertEdge(tx, parentID, edge); err != nil {
			return err
		}
		return InsertOccurrence(tx, parentID, occ)
	}))

	require.NoError(t, db.WithTx(func(tx *sql.Tx) error {
		return CopyForwardFile(tx, parentID, newID, "main.go")
	}))

	var symCount int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM symbols WHERE commit_id = ? AND file_path = ?`, newID, "main.go").Scan(&symCount))
	assert.Equal(t, 1, symCount)

	var edgeCount int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM edges WHERE commit_id = ? AND src = 's1' AND dst = 'other.Func'`, newID).Scan(&edgeCount))
	assert.Equal(t, 1, edgeCount)

	var occCount int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM occurrences WHERE commit_id = ? AND file_path = ?`, newID, "main.go").Scan(&occCount))
	assert.Equal(t, 1, occCount)
}

func TestSchemaMismatchOnFutureVersion(t *testing.T) {
	root := t.TempDir()
	db, err := Open(root, logging.Noop())
	require.NoError(t, err)

	_, execErr := db.Exec(`
		INSERT INTO meta (key, value) VALUES ('schema_version', '999')
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`)
	require.NoError(t, execErr)
	require.NoError(t, db.Close())

	_, err = Open(root, logging.Noop())
	assert.Error(t, err)
}
