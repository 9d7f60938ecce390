package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"codegraph/internal/config"
	"codegraph/internal/engine"
)

var (
	scanCommitSHA   string
	scanNoWrite     bool
	scanSemantic    bool
	scanIncremental bool
	scanWorkers     int
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "walk the repository, parse every file, and persist the resulting graph",
	Long: `scan walks the repository tree, dispatches each file to its language harness,
and writes the resulting symbols, edges, and occurrences under the given commit.
With --semantic it also runs each detected language's SCIP indexer and upgrades
matching syntactic edges to semantic ones. With --no-write it computes and
reports counts without touching the store.`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanCommitSHA, "commit", "", "commit sha this scan's writes are attributed to (required unless --no-write)")
	scanCmd.Flags().BoolVar(&scanNoWrite, "no-write", false, "compute and report counts without touching the store")
	scanCmd.Flags().BoolVar(&scanSemantic, "semantic", false, "run the semantic SCIP pass for each detected language")
	scanCmd.Flags().BoolVar(&scanIncremental, "incremental", false, "skip files unchanged since the most recently scanned commit")
	scanCmd.Flags().IntVar(&scanWorkers, "workers", 0, "bounded parser pool size (0 = default)")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	repoRoot := mustGetRepoRoot()
	logger := newLogger()
	ctx := newContext()

	cfg, err := config.LoadConfig(repoRoot)
	if err != nil {
		logger.Warn("failed to load config, using defaults", map[string]interface{}{"error": err.Error()})
		cfg = config.DefaultConfig()
	}

	workers := scanWorkers
	if workers <= 0 {
		workers = cfg.Worker.Count
	}

	bar := newScanProgressBar()
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-time.After(120 * time.Millisecond):
				_ = bar.Add(1)
			}
		}
	}()

	summary, scanErr := engine.New().Scan(ctx, engine.Options{
		RepoRoot:       repoRoot,
		CommitSHA:      scanCommitSHA,
		NoWrite:        scanNoWrite,
		Semantic:       scanSemantic,
		Incremental:    scanIncremental,
		WorkerCount:    workers,
		IndexerTimeout: time.Duration(cfg.Indexers.TimeoutMs) * time.Millisecond,
		Logger:         logger,
	})
	close(done)
	_ = bar.Finish()

	if scanErr != nil {
		return scanErr
	}

	resp := newScanResponse(repoRoot, scanCommitSHA, summary)
	output, err := FormatResponse(resp, OutputFormat(formatFlag))
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, output)
	return nil
}

// newScanProgressBar returns a spinner-style bar; scans don't know their total
// file count until the walk phase completes, so progress is indeterminate.
func newScanProgressBar() *progressbar.ProgressBar {
	if quietFlag || OutputFormat(formatFlag) == FormatJSON || !isatty.IsTerminal(os.Stderr.Fd()) {
		return progressbar.NewOptions64(-1, progressbar.OptionSetWriter(nullWriter{}))
	}
	return progressbar.NewOptions64(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(color.CyanString("scanning")),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
}

type nullWriter struct{}

func (nullWriter) Write(p []byte) (int, error) { return len(p), nil }
