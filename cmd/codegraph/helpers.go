package main

import (
	"context"
	"fmt"
	"os"

	"codegraph/internal/logging"
)

// mustGetRepoRoot resolves the repository root from --repo, falling back to the
// current working directory, or exits on failure.
func mustGetRepoRoot() string {
	if repoFlag != "" {
		return repoFlag
	}
	wd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return wd
}

// newLogger builds a logger that respects -v/-q. Logs always go to stderr to
// keep stdout clean for command output.
func newLogger() *logging.Logger {
	level := logging.InfoLevel
	switch {
	case verboseFlag:
		level = logging.DebugLevel
	case quietFlag:
		level = logging.ErrorLevel
	}

	format := logging.HumanFormat
	if OutputFormat(formatFlag) == FormatJSON {
		format = logging.JSONFormat
	}

	return logging.New(logging.Config{Format: format, Level: level, Output: os.Stderr})
}

func newContext() context.Context {
	return context.Background()
}
