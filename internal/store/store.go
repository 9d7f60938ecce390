package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"codegraph/internal/clierr"
	"codegraph/internal/ir"
)

// GetOrCreateCommit returns the row id for sha, creating it if absent. An empty
// sha is rejected: every write must be attributed to a real commit (DESIGN.md
// Open Question #3 — the original's literal "0" placeholder is not reproduced).
func (db *DB) GetOrCreateCommit(sha string) (int64, error) {
	if sha == "" {
		return 0, clierr.New(clierr.StoreOpenFailed, "commit sha must not be empty", nil)
	}

	var id int64
	err := db.QueryRow(`SELECT id FROM commits WHERE sha = ?`, sha).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, clierr.New(clierr.StoreOpenFailed, "lookup commit failed", err)
	}

	res, err := db.Exec(`INSERT INTO commits (sha, created_at) VALUES (?, ?)`, sha, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, clierr.New(clierr.CommitWriteConflict, "insert commit failed", err)
	}
	return res.LastInsertId()
}

// CommitID returns the row id for an existing commit sha without creating one,
// and whether it was found.
func (db *DB) CommitID(sha string) (int64, bool, error) {
	var id int64
	err := db.QueryRow(`SELECT id FROM commits WHERE sha = ?`, sha).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// InsertFile upserts one file's content-hash snapshot under commitID.
func InsertFile(tx *sql.Tx, commitID int64, rec ir.FileRecord) error {
	_, err := tx.Exec(`
		INSERT INTO files (commit_id, path, content_hash, size) VALUES (?, ?, ?, ?)
		ON CONFLICT(commit_id, path) DO UPDATE SET content_hash = excluded.content_hash, size = excluded.size
	`, commitID, rec.Path, rec.Hash, rec.Size)
	return err
}

// InsertSymbol upserts one symbol row under commitID.
func InsertSymbol(tx *sql.Tx, commitID int64, s ir.Symbol) error {
	var langVersion any
	if s.LangVersion != nil {
		langVersion = string(*s.LangVersion)
	}

	_, err := tx.Exec(`
		INSERT INTO symbols (
			commit_id, id, lang, lang_version, kind, name, fqn, signature, file_path,
			start_line, start_col, end_line, end_col, visibility, doc, sig_hash
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(commit_id, id) DO UPDATE SET
			lang = excluded.lang, lang_version = excluded.lang_version, kind = excluded.kind,
			name = excluded.name, fqn = excluded.fqn, signature = excluded.signature,
			file_path = excluded.file_path, start_line = excluded.start_line,
			start_col = excluded.start_col, end_line = excluded.end_line, end_col = excluded.end_col,
			visibility = excluded.visibility, doc = excluded.doc, sig_hash = excluded.sig_hash
	`,
		commitID, s.ID, string(s.Lang), langVersion, string(s.Kind), s.Name, s.FQN, s.Signature, s.FilePath,
		s.Span.StartLine, s.Span.StartCol, s.Span.EndLine, s.Span.EndCol, s.Visibility, s.Doc, s.SigHash,
	)
	return err
}

// InsertEdge upserts one edge row under commitID, idempotent by
// (commit, edge_type, src, dst, file_src, file_dst) per spec.md §4.7.
func InsertEdge(tx *sql.Tx, commitID int64, e ir.Edge) error {
	metaJSON, err := json.Marshal(nonNilMap(e.Meta))
	if err != nil {
		return err
	}
	provJSON, err := json.Marshal(nonNilStringMap(e.Provenance))
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
		INSERT INTO edges (commit_id, edge_type, src, dst, file_src, file_dst, resolution, meta_json, provenance_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(commit_id, edge_type, src, dst, file_src, file_dst) DO UPDATE SET
			resolution = excluded.resolution, meta_json = excluded.meta_json, provenance_json = excluded.provenance_json
	`, commitID, string(e.Type), e.Src, e.Dst, e.FileSrc, e.FileDst, string(e.Resolution), string(metaJSON), string(provJSON))
	return err
}

// InsertOccurrence inserts one occurrence row under commitID. Occurrences have no
// natural unique key beyond their identity, so re-running a scan on unchanged
// content relies on callers only inserting occurrences for files that changed.
func InsertOccurrence(tx *sql.Tx, commitID int64, o ir.Occurrence) error {
	_, err := tx.Exec(`
		INSERT INTO occurrences (commit_id, file_path, symbol_id, role, start_line, start_col, end_line, end_col, token)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, commitID, o.FilePath, o.SymbolID, string(o.Role), o.Span.StartLine, o.Span.StartCol, o.Span.EndLine, o.Span.EndCol, o.Token)
	return err
}

// CopyForwardFile carries path's symbols, occurrences, and self-owned edges
// forward from parentCommitID into newCommitID. It implements the §4.6
// inheritance rule for a file left unchanged by a scan: a file that was not
// reparsed still owns the same symbols/edges/occurrences it owned under its
// parent commit, so those rows must exist under the new commit too rather than
// silently disappearing. An edge is "owned" by path when it is file-level
// (file_src = path) or its src symbol was recorded under path; edges owned by
// other files (including ones pointing at this file) are carried forward by
// their own owning file's call to this function.
func CopyForwardFile(tx *sql.Tx, parentCommitID, newCommitID int64, path string) error {
	if _, err := tx.Exec(`
		INSERT INTO symbols (commit_id, id, lang, lang_version, kind, name, fqn, signature, file_path,
			start_line, start_col, end_line, end_col, visibility, doc, sig_hash)
		SELECT ?, id, lang, lang_version, kind, name, fqn, signature, file_path,
			start_line, start_col, end_line, end_col, visibility, doc, sig_hash
		FROM symbols WHERE commit_id = ? AND file_path = ?
		ON CONFLICT(commit_id, id) DO NOTHING
	`, newCommitID, parentCommitID, path); err != nil {
		return err
	}

	if _, err := tx.Exec(`
		INSERT INTO edges (commit_id, edge_type, src, dst, file_src, file_dst, resolution, meta_json, provenance_json)
		SELECT ?, edge_type, src, dst, file_src, file_dst, resolution, meta_json, provenance_json
		FROM edges
		WHERE commit_id = ? AND (
			file_src = ? OR
			src IN (SELECT id FROM symbols WHERE commit_id = ? AND file_path = ?)
		)
		ON CONFLICT(commit_id, edge_type, src, dst, file_src, file_dst) DO NOTHING
	`, newCommitID, parentCommitID, path, parentCommitID, path); err != nil {
		return err
	}

	_, err := tx.Exec(`
		INSERT INTO occurrences (commit_id, file_path, symbol_id, role, start_line, start_col, end_line, end_col, token)
		SELECT ?, file_path, symbol_id, role, start_line, start_col, end_line, end_col, token
		FROM occurrences WHERE commit_id = ? AND file_path = ?
	`, newCommitID, parentCommitID, path)
	return err
}

func nonNilMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func nonNilStringMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

// GetFileHash returns the content hash recorded for path under the commit
// identified by commitSHA, and whether a row was found at all.
func (db *DB) GetFileHash(commitSHA, path string) (string, bool, error) {
	var hash string
	err := db.QueryRow(`
		SELECT f.content_hash FROM files f
		JOIN commits c ON c.id = f.commit_id
		WHERE c.sha = ? AND f.path = ?
	`, commitSHA, path).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return hash, true, nil
}

// FindSymbolByFQN returns the symbol with the given fully-qualified name from the
// most recent commit it was recorded under, or ok=false if none matches.
func (db *DB) FindSymbolByFQN(fqn string) (*ir.Symbol, bool, error) {
	row := db.QueryRow(`
		SELECT s.id, s.lang, s.lang_version, s.kind, s.name, s.fqn, s.signature, s.file_path,
		       s.start_line, s.start_col, s.end_line, s.end_col, s.visibility, s.doc, s.sig_hash
		FROM symbols s
		JOIN commits c ON c.id = s.commit_id
		WHERE s.fqn = ?
		ORDER BY c.id DESC
		LIMIT 1
	`, fqn)

	sym, err := scanSymbol(row)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return sym, true, nil
}

// SearchSymbols returns up to limit symbols whose name contains substring (name
// prefix or substring match), preferring the most recent commit each appears in.
func (db *DB) SearchSymbols(substring string, limit int) ([]ir.Symbol, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.Query(`
		SELECT s.id, s.lang, s.lang_version, s.kind, s.name, s.fqn, s.signature, s.file_path,
		       s.start_line, s.start_col, s.end_line, s.end_col, s.visibility, s.doc, s.sig_hash
		FROM symbols s
		JOIN commits c ON c.id = s.commit_id
		WHERE s.name LIKE ? ESCAPE '\'
		ORDER BY (s.name LIKE ? ESCAPE '\') DESC, c.id DESC
		LIMIT ?
	`, "%"+escapeLike(substring)+"%", escapeLike(substring)+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ir.Symbol
	for rows.Next() {
		sym, err := scanSymbolRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sym)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	r := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '%' || c == '_' || c == '\\' {
			r = append(r, '\\')
		}
		r = append(r, c)
	}
	return string(r)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSymbol(row *sql.Row) (*ir.Symbol, error) {
	return scanSymbolRows(row)
}

func scanSymbolRows(sc rowScanner) (*ir.Symbol, error) {
	var s ir.Symbol
	var lang, kind, visibility string
	var langVersion sql.NullString

	err := sc.Scan(
		&s.ID, &lang, &langVersion, &kind, &s.Name, &s.FQN, &s.Signature, &s.FilePath,
		&s.Span.StartLine, &s.Span.StartCol, &s.Span.EndLine, &s.Span.EndCol, &visibility, &s.Doc, &s.SigHash,
	)
	if err != nil {
		return nil, err
	}

	s.Lang = ir.Language(lang)
	s.Kind = ir.SymbolKind(kind)
	s.Visibility = visibility
	if langVersion.Valid && langVersion.String != "" {
		v := ir.Version(langVersion.String)
		s.LangVersion = &v
	}
	return &s, nil
}

// LatestCommitSHA returns the sha of the most recently created commit row, if
// any. The resolution engine uses this to find the parent commit for
// incremental change detection when the caller does not name one explicitly.
func (db *DB) LatestCommitSHA() (string, bool, error) {
	var sha string
	err := db.QueryRow(`SELECT sha FROM commits ORDER BY id DESC LIMIT 1`).Scan(&sha)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return sha, true, nil
}

// ResolveSyntacticEdges implements the §4.7 resolution upgrade pass: every edge
// recorded under commitID with resolution=syntactic and a non-empty textual dst
// is looked up by FQN; a hit rewrites dst to the matched symbol's ID, flips
// resolution to semantic, and tags meta["resolved_by"]="scip". Misses are left
// untouched. Returns the number of edges upgraded.
func (db *DB) ResolveSyntacticEdges(commitID int64) (int, error) {
	rows, err := db.Query(`
		SELECT id, dst FROM edges WHERE commit_id = ? AND resolution = ? AND dst != ''
	`, commitID, string(ir.ResolutionSyntactic))
	if err != nil {
		return 0, err
	}

	type pending struct {
		id  int64
		dst string
	}
	var candidates []pending
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.id, &p.dst); err != nil {
			rows.Close()
			return 0, err
		}
		candidates = append(candidates, p)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}
	rows.Close()

	// Look every candidate up before opening the transaction: the pool holds a
	// single connection, which the transaction would otherwise keep busy.
	type hit struct {
		id    int64
		symID string
	}
	var hits []hit
	for _, p := range candidates {
		sym, ok, err := db.FindSymbolByFQN(p.dst)
		if err != nil {
			return 0, err
		}
		if ok {
			hits = append(hits, hit{id: p.id, symID: sym.ID})
		}
	}

	upgraded := 0
	err = db.WithTx(func(tx *sql.Tx) error {
		for _, h := range hits {
			metaJSON, err := json.Marshal(map[string]any{"resolved_by": "scip"})
			if err != nil {
				return err
			}

			_, err = tx.Exec(`
				UPDATE edges SET dst = ?, resolution = ?, meta_json = ? WHERE id = ?
			`, h.symID, string(ir.ResolutionSemantic), string(metaJSON), h.id)
			if err != nil {
				return err
			}
			upgraded++
		}
		return nil
	})
	return upgraded, err
}

// Graph is an in-memory adjacency summary produced by BuildGraph.
type Graph struct {
	NodeCount int
	EdgeCount int
	Adjacency map[string][]string // src symbol/file id -> dst ids, for symbol/file-level edges
}

// BuildGraph loads every edge recorded for commitSHA and assembles an in-memory
// adjacency summary with node/edge counts (spec.md §4.6).
func (db *DB) BuildGraph(commitSHA string) (*Graph, error) {
	rows, err := db.Query(`
		SELECT e.src, e.dst, e.file_src, e.file_dst
		FROM edges e
		JOIN commits c ON c.id = e.commit_id
		WHERE c.sha = ?
	`, commitSHA)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	g := &Graph{Adjacency: map[string][]string{}}
	nodes := map[string]struct{}{}

	for rows.Next() {
		var src, dst, fileSrc, fileDst string
		if err := rows.Scan(&src, &dst, &fileSrc, &fileDst); err != nil {
			return nil, err
		}

		from, to := src, dst
		if from == "" && to == "" {
			from, to = fileSrc, fileDst
		}
		if from == "" || to == "" {
			continue
		}

		g.Adjacency[from] = append(g.Adjacency[from], to)
		nodes[from] = struct{}{}
		nodes[to] = struct{}{}
		g.EdgeCount++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	g.NodeCount = len(nodes)
	return g, nil
}
