// Package engine implements the resolution engine (C7): the scan driver that
// walks a repository, dispatches each file to its syntactic harness, persists the
// result under a commit, optionally runs the semantic SCIP pass, and finally
// upgrades resolvable syntactic edges to semantic ones.
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"codegraph/internal/clierr"
	"codegraph/internal/harness"
	"codegraph/internal/ir"
	"codegraph/internal/langreg"
	"codegraph/internal/logging"
	"codegraph/internal/metrics"
	"codegraph/internal/store"
	"codegraph/internal/walker"
)

// Options configures one scan pass.
type Options struct {
	RepoRoot string
	// CommitSHA identifies the commit this scan's writes are attributed to.
	// Required unless NoWrite is set.
	CommitSHA string

	NoWrite     bool // compute and report counts, but never touch the store
	Semantic    bool // run the semantic SCIP pass (C5) for each detected language
	Incremental bool // skip files unchanged since the parent commit

	WorkerCount    int           // bounded parser pool size, defaults to 8
	IndexerTimeout time.Duration // per-language SCIP indexer wall clock, defaults to 2m

	Logger *logging.Logger
}

func (o *Options) setDefaults() {
	if o.WorkerCount <= 0 {
		o.WorkerCount = 8
	}
	if o.IndexerTimeout <= 0 {
		o.IndexerTimeout = 2 * time.Minute
	}
	if o.Logger == nil {
		o.Logger = logging.Noop()
	}
}

// Summary reports what one scan did, for the CLI's stdout lines and exit code.
type Summary struct {
	FilesTotal        int
	FilesIndexed      int
	FilesUnchanged    int
	Symbols           int
	Edges             int
	Occurrences       int
	SemanticLanguages []string
	EdgesResolved     int
	Unchanged         bool // true when an incremental scan found nothing to do
	Metrics           metrics.PerformanceMetrics
}

// fileMeta is one file's content hash and size, independent of whether any
// harness parses it successfully — every walked file gets a files row. The
// walker only yields files with a source extension, so manifests such as go.mod
// and docs such as README are not tracked.
type fileMeta struct {
	hash string
	size int64
}

// fileResult is one harness's output for one file, kept paired with its path so
// results can be persisted in stable, path-sorted order after the worker pool
// joins (§5 ordering guarantee).
type fileResult struct {
	path string
	res  harness.Result
	lang ir.Language
}

// Engine runs scans against one repository's store.
type Engine struct {
	langs     *langreg.Registry
	harnesses *harness.Registry
}

// New builds an Engine with the default language and harness registries.
func New() *Engine {
	return &Engine{
		langs:     langreg.NewRegistry(),
		harnesses: harness.NewRegistry(),
	}
}

// Scan runs one full resolve_project pass (spec.md §4.7 protocol, steps 1-6).
func (e *Engine) Scan(ctx context.Context, opts Options) (*Summary, error) {
	opts.setDefaults()
	log := opts.Logger

	if !opts.NoWrite && opts.CommitSHA == "" {
		return nil, clierr.New(clierr.StoreOpenFailed, "commit sha is required unless --no-write is set", nil)
	}

	collector := metrics.New()
	defer collector.SampleMemory()

	var db *store.DB
	var commitID int64
	if !opts.NoWrite {
		var err error
		db, err = store.Open(opts.RepoRoot, log)
		if err != nil {
			return nil, err
		}
		defer db.Close()

		commitID, err = db.GetOrCreateCommit(opts.CommitSHA)
		if err != nil {
			return nil, err
		}
	}

	detected := e.langs.DetectLanguages(opts.RepoRoot)
	names := make([]string, len(detected))
	for i, s := range detected {
		names[i] = s.Name()
	}
	log.Info("detected languages", map[string]interface{}{"languages": names})

	collector.StartPhase("walk")
	files, err := walker.New(opts.RepoRoot).Walk()
	collector.EndPhase("walk")
	if err != nil {
		return nil, clierr.New(clierr.StoreOpenFailed, "failed to walk repository", err)
	}

	summary := &Summary{FilesTotal: len(files)}
	if len(files) == 0 {
		log.Info("repository has 0 files", nil)
		summary.Metrics = collector.Finalize()
		return summary, nil
	}

	hashes, err := hashAllFiles(opts.RepoRoot, files)
	if err != nil {
		return nil, err
	}

	parentSHA, parentCommitID, changedOnly, err := e.resolveParent(db, opts)
	if err != nil {
		return nil, err
	}

	toProcess, unchanged, err := e.diffChangedFiles(db, parentSHA, changedOnly, files, hashes)
	if err != nil {
		return nil, err
	}
	summary.FilesUnchanged = len(unchanged)

	if changedOnly && len(toProcess) == 0 {
		log.Info("repository unchanged since last scan", nil)
		summary.Unchanged = true
		summary.Metrics = collector.Finalize()
		return summary, nil
	}

	collector.StartPhase("parse")
	results, err := e.parseFiles(ctx, opts, toProcess)
	collector.EndPhase("parse")
	if err != nil {
		return nil, err
	}

	perLangCounts := map[string]struct{ files, symbols, edges, occurrences int }{}
	for _, r := range results {
		c := perLangCounts[string(r.lang)]
		c.files++
		c.symbols += len(r.res.Symbols)
		c.edges += len(r.res.Edges)
		c.occurrences += len(r.res.Occurrences)
		perLangCounts[string(r.lang)] = c

		summary.Symbols += len(r.res.Symbols)
		summary.Edges += len(r.res.Edges)
		summary.Occurrences += len(r.res.Occurrences)
	}
	for lang, c := range perLangCounts {
		collector.RecordFileCount(lang, c.files)
		collector.RecordSymbolCount(lang, c.symbols)
		collector.RecordEdgeCount(lang, c.edges)
		collector.RecordOccurrenceCount(lang, c.occurrences)
	}
	summary.FilesIndexed = len(results)

	if !opts.NoWrite {
		collector.StartPhase("persist")
		if err := persistResults(db, commitID, parentCommitID, files, hashes, results, unchanged); err != nil {
			collector.EndPhase("persist")
			return nil, err
		}
		collector.EndPhase("persist")
	}

	if opts.Semantic && opts.NoWrite {
		log.Warn("semantic pass requires a store; skipping under --no-write", nil)
	} else if opts.Semantic {
		collector.StartPhase("semantic")
		semanticLangs, err := e.runSemanticPass(ctx, opts, db, commitID, detected)
		collector.EndPhase("semantic")
		if err != nil {
			return nil, err
		}
		summary.SemanticLanguages = semanticLangs
	}

	if !opts.NoWrite {
		collector.StartPhase("resolve")
		upgraded, err := db.ResolveSyntacticEdges(commitID)
		collector.EndPhase("resolve")
		if err != nil {
			return nil, err
		}
		summary.EdgesResolved = upgraded
	}

	summary.Metrics = collector.Finalize()
	metrics.LogSummary(log, summary.Metrics)
	return summary, nil
}

// resolveParent picks the commit to diff changed files against. An explicit
// --incremental run diffs against the most recently recorded commit; a full scan
// (or the very first scan of a repository) treats every file as changed.
func (e *Engine) resolveParent(db *store.DB, opts Options) (parentSHA string, parentCommitID int64, incremental bool, err error) {
	if !opts.Incremental || opts.NoWrite || db == nil {
		return "", 0, false, nil
	}
	sha, ok, err := db.LatestCommitSHA()
	if err != nil {
		return "", 0, false, err
	}
	if !ok || sha == opts.CommitSHA {
		// First-ever scan, or re-running the same commit: nothing to diff against.
		return "", 0, false, nil
	}
	commitID, ok, err := db.CommitID(sha)
	if err != nil {
		return "", 0, false, err
	}
	if !ok {
		return "", 0, false, nil
	}
	return sha, commitID, true, nil
}

// hashAllFiles computes each walked file's content hash and size, independent of
// language or harness support. Every file gets a files row (§4.6), so incremental
// diffing is correct even for files no harness parses.
func hashAllFiles(repoRoot string, files []string) (map[string]fileMeta, error) {
	out := make(map[string]fileMeta, len(files))
	for _, rel := range files {
		full := filepath.Join(repoRoot, rel)
		info, err := os.Stat(full)
		if err != nil {
			return nil, err
		}
		hash, err := walker.HashFile(full)
		if err != nil {
			return nil, err
		}
		out[rel] = fileMeta{hash: hash, size: info.Size()}
	}
	return out, nil
}

// diffChangedFiles splits files into those that need (re)parsing and those whose
// content hash is unchanged since parentSHA (§4.6 change detection). When
// changedOnly is false every file is returned for processing.
func (e *Engine) diffChangedFiles(db *store.DB, parentSHA string, changedOnly bool, files []string, hashes map[string]fileMeta) (toProcess, unchanged []string, err error) {
	if !changedOnly {
		return files, nil, nil
	}

	for _, rel := range files {
		stored, ok, lookupErr := db.GetFileHash(parentSHA, rel)
		if lookupErr != nil {
			return nil, nil, lookupErr
		}
		if ok && stored == hashes[rel].hash {
			unchanged = append(unchanged, rel)
			continue
		}
		toProcess = append(toProcess, rel)
	}
	return toProcess, unchanged, nil
}

// parseFiles dispatches each path to its language harness through a bounded
// worker pool, preserving the input's path-sorted order in the returned slice so
// that persistence happens deterministically (§5).
func (e *Engine) parseFiles(ctx context.Context, opts Options, paths []string) ([]fileResult, error) {
	out := make([]fileResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.WorkerCount)

	for i, rel := range paths {
		i, rel := i, rel
		g.Go(func() error {
			full := filepath.Join(opts.RepoRoot, rel)
			content, err := readFile(full)
			if err != nil {
				opts.Logger.Warn("failed to read file", map[string]interface{}{"path": rel, "error": err.Error()})
				return nil
			}

			strategy, ok := e.langs.StrategyForFile(rel)
			if !ok {
				return nil
			}
			h, ok := e.harnesses.ForLanguage(strategy.Language())
			if !ok {
				return nil
			}

			res, err := h.Parse(gctx, rel, content, opts.CommitSHA)
			if err != nil {
				// Recoverable per-file (§7): log and emit nothing for this file.
				opts.Logger.Warn("parser failure", map[string]interface{}{
					"path": rel, "error": clierr.New(clierr.ParserFailure, "harness failed", err).Error(),
				})
				return nil
			}

			out[i] = fileResult{path: rel, res: res, lang: strategy.Language()}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Files that failed to read/parse leave a zero-value fileResult (empty path);
	// drop them rather than persisting an empty row.
	compact := out[:0]
	for _, r := range out {
		if r.path != "" {
			compact = append(compact, r)
		}
	}
	sort.Slice(compact, func(i, j int) bool { return compact[i].path < compact[j].path })
	return compact, nil
}

func readFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// persistResults writes one files row per walked path (§4.6: every file in the
// tree is tracked, whether or not a harness parsed it), the harness output for
// each reparsed file, and — per §4.6's inheritance rule — a copy of each
// unchanged file's prior symbols/edges/occurrences carried forward from
// parentCommitID, all inside one commit transaction. parentCommitID is 0 (and
// unchanged is empty) on a full scan, where there is nothing to carry forward.
func persistResults(db *store.DB, commitID, parentCommitID int64, files []string, hashes map[string]fileMeta, results []fileResult, unchanged []string) error {
	return db.WithTx(func(tx *sql.Tx) error {
		for _, path := range files {
			meta := hashes[path]
			rec := ir.FileRecord{CommitID: commitID, Path: path, Hash: meta.hash, Size: meta.size}
			if err := store.InsertFile(tx, commitID, rec); err != nil {
				return fmt.Errorf("insert file %s: %w", path, err)
			}
		}

		for _, r := range results {
			for _, s := range r.res.Symbols {
				if err := store.InsertSymbol(tx, commitID, s); err != nil {
					return fmt.Errorf("insert symbol %s: %w", s.ID, err)
				}
			}
			for _, ed := range r.res.Edges {
				if err := store.InsertEdge(tx, commitID, ed); err != nil {
					return fmt.Errorf("insert edge: %w", err)
				}
			}
			for _, occ := range r.res.Occurrences {
				if err := store.InsertOccurrence(tx, commitID, occ); err != nil {
					return fmt.Errorf("insert occurrence: %w", err)
				}
			}
		}

		if parentCommitID != 0 {
			for _, path := range unchanged {
				if err := store.CopyForwardFile(tx, parentCommitID, commitID, path); err != nil {
					return fmt.Errorf("copy forward %s: %w", path, err)
				}
			}
		}
		return nil
	})
}
