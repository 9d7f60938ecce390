package main

import (
	"strings"
	"testing"

	"codegraph/internal/ir"
)

func TestFormatResponseJSON(t *testing.T) {
	resp := &ScanResponseCLI{RepoRoot: "/tmp/repo", Symbols: 3}

	result, err := FormatResponse(resp, FormatJSON)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result, `"symbols": 3`) {
		t.Error("JSON output missing expected field")
	}
}

func TestFormatResponseUnsupportedFormat(t *testing.T) {
	resp := &ScanResponseCLI{}

	_, err := FormatResponse(resp, "xml")
	if err == nil {
		t.Fatal("expected error for unsupported format")
	}
	if !strings.Contains(err.Error(), "unsupported format") {
		t.Errorf("error should mention unsupported format, got: %v", err)
	}
}

func TestFormatScanHumanUnchanged(t *testing.T) {
	resp := &ScanResponseCLI{RepoRoot: "/tmp/repo", Unchanged: true}

	out, err := FormatResponse(resp, FormatHuman)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "no changes since the last scan") {
		t.Errorf("expected unchanged message, got: %q", out)
	}
}

func TestFormatSearchHumanListsSymbols(t *testing.T) {
	resp := &SearchResponseCLI{Query: "Greet", TotalMatches: 1}
	resp.Symbols = append(resp.Symbols, ir.Symbol{FQN: "sample.Greet", Name: "Greet", Kind: ir.KindFunction, FilePath: "main.go"})

	out, err := FormatResponse(resp, FormatHuman)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "sample.Greet") {
		t.Errorf("expected symbol FQN in output, got: %q", out)
	}
}
