package store

import (
	"database/sql"
	"fmt"

	"codegraph/internal/clierr"
)

// Schema version history:
// v1: commits, files, symbols, edges, occurrences, meta.
const currentSchemaVersion = 1

// initializeSchema creates all tables for a freshly created database file.
func (db *DB) initializeSchema() error {
	return db.WithTx(func(tx *sql.Tx) error {
		if err := createMetaTable(tx); err != nil {
			return err
		}
		if err := createCommitsTable(tx); err != nil {
			return err
		}
		if err := createFilesTable(tx); err != nil {
			return err
		}
		if err := createSymbolsTable(tx); err != nil {
			return err
		}
		if err := createEdgesTable(tx); err != nil {
			return err
		}
		if err := createOccurrencesTable(tx); err != nil {
			return err
		}
		if err := setSchemaVersion(tx, currentSchemaVersion); err != nil {
			return err
		}

		db.logger.Info("graph database schema initialized", map[string]interface{}{
			"version": currentSchemaVersion,
		})
		return nil
	})
}

// runMigrations checks the stored schema version against currentSchemaVersion.
// There are no migrations defined yet; an older version is upgraded in place by
// initializeSchema (idempotent, CREATE TABLE IF NOT EXISTS), a newer version is
// a fatal, explicit error per spec.md §6.
func (db *DB) runMigrations() error {
	version, err := db.getSchemaVersion()
	if err != nil {
		return err
	}

	if version == currentSchemaVersion {
		db.logger.Debug("graph database schema up to date", map[string]interface{}{"version": version})
		return nil
	}

	if version > currentSchemaVersion {
		return clierr.New(clierr.SchemaMismatch, fmt.Sprintf(
			"database schema version %d is newer than supported version %d; upgrade codegraph",
			version, currentSchemaVersion), nil)
	}

	db.logger.Info("upgrading graph database schema", map[string]interface{}{
		"from_version": version,
		"to_version":   currentSchemaVersion,
	})
	return db.initializeSchema()
}

func (db *DB) getSchemaVersion() (int, error) {
	var tableName string
	err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='meta'`).Scan(&tableName)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, clierr.New(clierr.StoreOpenFailed, "cannot inspect schema", err)
	}

	var value string
	err = db.QueryRow(`SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&value)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, clierr.New(clierr.StoreOpenFailed, "cannot read schema version", err)
	}

	var version int
	if _, err := fmt.Sscanf(value, "%d", &version); err != nil {
		return 0, clierr.New(clierr.SchemaMismatch, "corrupt schema_version value: "+value, err)
	}
	return version, nil
}

func setSchemaVersion(tx *sql.Tx, version int) error {
	_, err := tx.Exec(`
		INSERT INTO meta (key, value) VALUES ('schema_version', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, fmt.Sprintf("%d", version))
	return err
}

func createMetaTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create meta table: %w", err)
	}
	return nil
}

func createCommitsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS commits (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sha TEXT NOT NULL UNIQUE,
			created_at TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create commits table: %w", err)
	}
	return nil
}

func createFilesTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS files (
			commit_id INTEGER NOT NULL REFERENCES commits(id) ON DELETE CASCADE,
			path TEXT NOT NULL,
			content_hash TEXT NOT NULL,
			size INTEGER NOT NULL,
			PRIMARY KEY (commit_id, path)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create files table: %w", err)
	}

	if _, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_files_path ON files(path)`); err != nil {
		return fmt.Errorf("failed to create files index: %w", err)
	}
	return nil
}

func createSymbolsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS symbols (
			commit_id INTEGER NOT NULL REFERENCES commits(id) ON DELETE CASCADE,
			id TEXT NOT NULL,
			lang TEXT NOT NULL,
			lang_version TEXT,
			kind TEXT NOT NULL,
			name TEXT NOT NULL,
			fqn TEXT NOT NULL,
			signature TEXT,
			file_path TEXT NOT NULL,
			start_line INTEGER NOT NULL,
			start_col INTEGER NOT NULL,
			end_line INTEGER NOT NULL,
			end_col INTEGER NOT NULL,
			visibility TEXT,
			doc TEXT,
			sig_hash TEXT NOT NULL,
			PRIMARY KEY (commit_id, id)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create symbols table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_symbols_fqn ON symbols(fqn)",
		"CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name)",
		"CREATE INDEX IF NOT EXISTS idx_symbols_commit ON symbols(commit_id)",
	}
	for _, idx := range indexes {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("failed to create symbols index: %w", err)
		}
	}
	return nil
}

func createEdgesTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS edges (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			commit_id INTEGER NOT NULL REFERENCES commits(id) ON DELETE CASCADE,
			edge_type TEXT NOT NULL,
			src TEXT NOT NULL DEFAULT '',
			dst TEXT NOT NULL DEFAULT '',
			file_src TEXT NOT NULL DEFAULT '',
			file_dst TEXT NOT NULL DEFAULT '',
			resolution TEXT NOT NULL,
			meta_json TEXT NOT NULL DEFAULT '{}',
			provenance_json TEXT NOT NULL DEFAULT '{}',
			UNIQUE(commit_id, edge_type, src, dst, file_src, file_dst)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create edges table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_edges_commit_src ON edges(commit_id, src)",
		"CREATE INDEX IF NOT EXISTS idx_edges_commit_dst ON edges(commit_id, dst)",
	}
	for _, idx := range indexes {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("failed to create edges index: %w", err)
		}
	}
	return nil
}

func createOccurrencesTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS occurrences (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			commit_id INTEGER NOT NULL REFERENCES commits(id) ON DELETE CASCADE,
			file_path TEXT NOT NULL,
			symbol_id TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL,
			start_line INTEGER NOT NULL,
			start_col INTEGER NOT NULL,
			end_line INTEGER NOT NULL,
			end_col INTEGER NOT NULL,
			token TEXT NOT NULL DEFAULT ''
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create occurrences table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_occurrences_commit_file ON occurrences(commit_id, file_path)",
		"CREATE INDEX IF NOT EXISTS idx_occurrences_symbol ON occurrences(symbol_id)",
	}
	for _, idx := range indexes {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("failed to create occurrences index: %w", err)
		}
	}
	return nil
}
