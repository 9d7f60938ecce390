// Package store implements the commit-keyed embedded datastore (C6): a single
// SQLite file under .codegraph/graph.db holding commits, files, symbols, edges and
// occurrences, plus the lookup/search/change-detection queries the resolution
// engine and CLI need.
package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"codegraph/internal/clierr"
	"codegraph/internal/logging"
)

// storeDir and dbFile name the on-disk layout per spec.md §6: ".codegraph/graph.db".
const (
	storeDir = ".codegraph"
	dbFile   = "graph.db"
)

// DB wraps the connection to one repo's graph database.
type DB struct {
	conn   *sql.DB
	logger *logging.Logger
	dbPath string
}

// pragmaStatements holds every pragma Open applies, one per line: WAL for
// concurrent readers during a scan, NORMAL sync since graph.db is rebuildable
// from source, a 5s busy timeout so CLI invocations don't collide, and a
// larger page cache/mmap window since a full repo graph for SCIP.Index can
// sit in the tens of megabytes.
const pragmaStatements = `
	PRAGMA journal_mode = WAL;
	PRAGMA synchronous = NORMAL;
	PRAGMA foreign_keys = ON;
	PRAGMA busy_timeout = 5000;
	PRAGMA cache_size = -64000;
	PRAGMA temp_store = MEMORY;
	PRAGMA mmap_size = 268435456;
`

// Open creates or opens the graph database under repoRoot/.codegraph/graph.db,
// applying pragmas and running schema initialization/migration as needed.
func Open(repoRoot string, logger *logging.Logger) (*DB, error) {
	if logger == nil {
		logger = logging.Noop()
	}

	dir := filepath.Join(repoRoot, storeDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, clierr.New(clierr.StoreOpenFailed, "cannot create store directory", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	existed := fileExists(dbPath)

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, clierr.New(clierr.StoreOpenFailed, "cannot open database", err)
	}
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn, logger: logger, dbPath: dbPath}

	for _, stmt := range strings.Split(strings.TrimSpace(pragmaStatements), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := conn.Exec(stmt); err != nil {
			conn.Close()
			return nil, clierr.New(clierr.StoreOpenFailed, "pragma failed: "+stmt, err)
		}
	}

	if existed {
		if err := db.runMigrations(); err != nil {
			conn.Close()
			return nil, err
		}
	} else {
		if err := db.initializeSchema(); err != nil {
			conn.Close()
			return nil, err
		}
	}

	return db, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn exposes the raw *sql.DB for callers that need it directly (e.g. tests).
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// BeginTx starts a new transaction.
func (db *DB) BeginTx() (*sql.Tx, error) {
	return db.conn.Begin()
}

// WithTx runs fn within a transaction, rolling back on error or panic and
// committing on success.
func (db *DB) WithTx(fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx()
	if err != nil {
		return clierr.New(clierr.StoreOpenFailed, "cannot begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Error("rollback failed", map[string]interface{}{"error": rbErr.Error()})
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return clierr.New(clierr.CommitWriteConflict, "commit failed", err)
	}
	return nil
}

// Exec runs a statement outside an explicit transaction.
func (db *DB) Exec(query string, args ...any) (sql.Result, error) {
	return db.conn.Exec(query, args...)
}

// Query runs a query outside an explicit transaction.
func (db *DB) Query(query string, args ...any) (*sql.Rows, error) {
	return db.conn.Query(query, args...)
}

// QueryRow runs a single-row query outside an explicit transaction.
func (db *DB) QueryRow(query string, args ...any) *sql.Row {
	return db.conn.QueryRow(query, args...)
}
