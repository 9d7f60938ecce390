package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"codegraph/internal/engine"
	"codegraph/internal/ir"
)

// OutputFormat is the CLI's stdout rendering mode.
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
)

// ScanResponseCLI is the JSON/human-renderable shape of a scan command's result.
type ScanResponseCLI struct {
	RepoRoot          string   `json:"repoRoot"`
	CommitSHA         string   `json:"commitSha,omitempty"`
	Unchanged         bool     `json:"unchanged"`
	FilesTotal        int      `json:"filesTotal"`
	FilesIndexed      int      `json:"filesIndexed"`
	FilesUnchanged    int      `json:"filesUnchanged"`
	Symbols           int      `json:"symbols"`
	Edges             int      `json:"edges"`
	Occurrences       int      `json:"occurrences"`
	SemanticLanguages []string `json:"semanticLanguages,omitempty"`
	EdgesResolved     int      `json:"edgesResolved"`
	DurationMs        int64    `json:"durationMs"`
}

func newScanResponse(repoRoot, commitSHA string, s *engine.Summary) *ScanResponseCLI {
	return &ScanResponseCLI{
		RepoRoot:          repoRoot,
		CommitSHA:         commitSHA,
		Unchanged:         s.Unchanged,
		FilesTotal:        s.FilesTotal,
		FilesIndexed:      s.FilesIndexed,
		FilesUnchanged:    s.FilesUnchanged,
		Symbols:           s.Symbols,
		Edges:             s.Edges,
		Occurrences:       s.Occurrences,
		SemanticLanguages: s.SemanticLanguages,
		EdgesResolved:     s.EdgesResolved,
		DurationMs:        s.Metrics.TotalDuration.Milliseconds(),
	}
}

// SearchResponseCLI is the JSON/human-renderable shape of a search command's result.
type SearchResponseCLI struct {
	Query        string      `json:"query"`
	TotalMatches int         `json:"totalMatches"`
	Symbols      []ir.Symbol `json:"symbols"`
}

// FormatResponse renders resp in the requested format.
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *ScanResponseCLI:
		return formatScanHuman(v), nil
	case *SearchResponseCLI:
		return formatSearchHuman(v), nil
	default:
		json, err := formatJSON(resp)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(human format not available, showing JSON)\n\n%s", json), nil
	}
}

func formatScanHuman(resp *ScanResponseCLI) string {
	var b strings.Builder

	fmt.Fprintf(&b, "codegraph scan: %s\n", resp.RepoRoot)
	b.WriteString(strings.Repeat("-", 50) + "\n")

	if resp.Unchanged {
		b.WriteString("no changes since the last scan\n")
		return b.String()
	}

	fmt.Fprintf(&b, "files:       %d total, %d indexed, %d unchanged\n", resp.FilesTotal, resp.FilesIndexed, resp.FilesUnchanged)
	fmt.Fprintf(&b, "symbols:     %d\n", resp.Symbols)
	fmt.Fprintf(&b, "edges:       %d (%d resolved to semantic)\n", resp.Edges, resp.EdgesResolved)
	fmt.Fprintf(&b, "occurrences: %d\n", resp.Occurrences)
	if len(resp.SemanticLanguages) > 0 {
		fmt.Fprintf(&b, "semantic:    %s\n", strings.Join(resp.SemanticLanguages, ", "))
	}
	fmt.Fprintf(&b, "duration:    %dms\n", resp.DurationMs)
	return b.String()
}

func formatSearchHuman(resp *SearchResponseCLI) string {
	var b strings.Builder

	fmt.Fprintf(&b, "search results for %q\n", resp.Query)
	b.WriteString(strings.Repeat("-", 50) + "\n")
	fmt.Fprintf(&b, "found %d match(es)\n\n", resp.TotalMatches)

	for i, sym := range resp.Symbols {
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, sym.FQN, sym.Kind)
		fmt.Fprintf(&b, "   %s:%d\n", sym.FilePath, sym.Span.StartLine)
	}
	return b.String()
}
