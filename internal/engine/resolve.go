package engine

import (
	"context"
	"database/sql"

	"codegraph/internal/clierr"
	"codegraph/internal/langreg"
	"codegraph/internal/scip"
	"codegraph/internal/store"
)

// runSemanticPass runs the optional semantic SCIP ingestion (§4.5) for every
// detected language, persisting the result under commitID. A language with no
// configured indexer, an indexer missing from PATH, a timeout, or a crash is
// logged and skipped (§4.7 step 5 per-language failure isolation); only the
// languages that actually produced semantic data are returned.
func (e *Engine) runSemanticPass(ctx context.Context, opts Options, db *store.DB, commitID int64, detected []langreg.Strategy) ([]string, error) {
	var succeeded []string

	for _, strategy := range detected {
		lang := string(strategy.Language())

		cfg, ok := scip.DefaultIndexers[lang]
		if !ok {
			opts.Logger.Info("no semantic indexer configured for language", map[string]interface{}{"language": lang})
			continue
		}

		indexPath, err := scip.RunIndexer(ctx, lang, opts.RepoRoot, cfg, opts.IndexerTimeout)
		if err != nil {
			logIndexerSkip(opts, lang, err)
			continue
		}

		index, err := scip.LoadIndex(indexPath)
		if err != nil {
			logIndexerSkip(opts, lang, err)
			continue
		}

		symCount, edgeCount, occCount, err := persistSemanticIndex(db, commitID, index, cfg.Command)
		if err != nil {
			return nil, err
		}

		opts.Logger.Info("ingested semantic index", map[string]interface{}{
			"language":    lang,
			"symbols":     symCount,
			"edges":       edgeCount,
			"occurrences": occCount,
		})
		succeeded = append(succeeded, lang)
	}

	return succeeded, nil
}

// logIndexerSkip records a per-language semantic failure without aborting the
// scan. Severity is always SeverityPerLanguage for errors RunIndexer/LoadIndex
// produce; a fatal clierr code here would indicate a programming error upstream.
func logIndexerSkip(opts Options, lang string, err error) {
	opts.Logger.Warn("skipping semantic pass for language", map[string]interface{}{
		"language": lang,
		"error":    err.Error(),
	})
}

func persistSemanticIndex(db *store.DB, commitID int64, index *scip.Index, indexerName string) (symCount, edgeCount, occCount int, err error) {
	indexerVersion := ""
	if index.Metadata != nil && index.Metadata.ToolInfo != nil {
		indexerVersion = index.Metadata.ToolInfo.Version
	}

	for _, doc := range index.Documents {
		symbols, edges, occurrences := scip.MapDocument(doc, indexerName, indexerVersion)
		symCount += len(symbols)
		edgeCount += len(edges)
		occCount += len(occurrences)

		err = db.WithTx(func(tx *sql.Tx) error {
			for _, s := range symbols {
				if err := store.InsertSymbol(tx, commitID, s); err != nil {
					return err
				}
			}
			for _, e := range edges {
				if err := store.InsertEdge(tx, commitID, e); err != nil {
					return err
				}
			}
			for _, o := range occurrences {
				if err := store.InsertOccurrence(tx, commitID, o); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return 0, 0, 0, clierr.New(clierr.IndexerFailed, "failed to persist semantic index data", err)
		}
	}
	return symCount, edgeCount, occCount, nil
}
