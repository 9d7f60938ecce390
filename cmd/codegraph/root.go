package main

import (
	"github.com/spf13/cobra"
)

const version = "0.1.0"

var (
	repoFlag    string
	formatFlag  string
	verboseFlag bool
	quietFlag   bool
)

var rootCmd = &cobra.Command{
	Use:   "codegraph",
	Short: "codegraph - cross-language code graph builder",
	Long: `codegraph walks a repository, parses each file with a per-language syntactic
harness, optionally layers in semantic SCIP indexes, and persists the resulting
symbols, edges, and occurrences to a commit-keyed SQLite graph.`,
	Version: version,
}

func init() {
	rootCmd.SetVersionTemplate("codegraph version {{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&repoFlag, "repo", "", "repository root (defaults to the current directory)")
	rootCmd.PersistentFlags().StringVar(&formatFlag, "format", "human", "output format (human, json)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "suppress informational logging")
}
