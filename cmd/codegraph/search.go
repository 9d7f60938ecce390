package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"codegraph/internal/store"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "search symbols by name or fully-qualified name substring",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", 20, "maximum number of results")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	repoRoot := mustGetRepoRoot()
	logger := newLogger()

	db, err := store.Open(repoRoot, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	query := args[0]
	symbols, err := db.SearchSymbols(query, searchLimit)
	if err != nil {
		return err
	}

	resp := &SearchResponseCLI{
		Query:        query,
		TotalMatches: len(symbols),
		Symbols:      symbols,
	}

	output, err := FormatResponse(resp, OutputFormat(formatFlag))
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, output)
	return nil
}
