package scip

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"

	"codegraph/internal/clierr"
)

// IndexerConfig is the command used to invoke one language's SCIP indexer.
type IndexerConfig struct {
	Command string
	Args    []string
	// Output is the index file name the indexer is expected to produce, relative to
	// the project root (most scip-* tools default to "index.scip").
	Output string
}

// DefaultIndexers is the built-in command table for each supported language, per
// spec.md §6 ("codegraph scan --semantic" invocation surface).
var DefaultIndexers = map[string]IndexerConfig{
	"go":         {Command: "scip-go", Args: nil, Output: "index.scip"},
	"python":     {Command: "scip-python", Args: []string{"index", "."}, Output: "index.scip"},
	"typescript": {Command: "scip-typescript", Args: []string{"index"}, Output: "index.scip"},
	"java":       {Command: "scip-java", Args: []string{"index"}, Output: "index.scip"},
	"rust":       {Command: "rust-analyzer", Args: []string{"scip", "."}, Output: "index.scip"},
}

// RunIndexer invokes the SCIP indexer for language in projectRoot and returns the
// path to the produced index file. If the indexer binary is not on PATH, it returns
// an IndexerMissing error the caller should treat as "no semantic data for this
// language" rather than a scan-aborting failure, per spec.md §4.5.
func RunIndexer(ctx context.Context, language, projectRoot string, cfg IndexerConfig, timeout time.Duration) (string, error) {
	if _, err := exec.LookPath(cfg.Command); err != nil {
		return "", clierr.New(clierr.IndexerMissing, fmt.Sprintf("%s indexer %q not found on PATH", language, cfg.Command), err)
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, cfg.Command, cfg.Args...)
	cmd.Dir = projectRoot

	if err := cmd.Run(); err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return "", clierr.New(clierr.IndexerTimeout, fmt.Sprintf("%s indexer timed out after %s", language, timeout), err)
		}
		return "", clierr.New(clierr.IndexerFailed, fmt.Sprintf("%s indexer exited with an error", language), err)
	}

	return filepath.Join(projectRoot, cfg.Output), nil
}
