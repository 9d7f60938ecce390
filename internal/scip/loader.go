package scip

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	scippb "github.com/sourcegraph/scip/bindings/go/scip"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"codegraph/internal/clierr"
)

// Index is a loaded, IR-shaped view of a SCIP index.
type Index struct {
	Metadata      *Metadata
	Documents     []*Document
	Symbols       map[string]*SymbolInformation
	LoadedAt      time.Time
	IndexedCommit string
}

// LoadIndex loads a SCIP index from path, accepting either the binary protobuf wire
// format or its JSON rendering (detected from the file's leading byte), per spec.md §6.
func LoadIndex(path string) (*Index, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, clierr.New(clierr.IndexerMissing, fmt.Sprintf("SCIP index not found at %s", path), err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, clierr.New(clierr.IndexerFailed, fmt.Sprintf("failed to read SCIP index from %s", path), err)
	}

	var pbIndex scippb.Index
	if looksLikeJSON(data) {
		if err := protojson.Unmarshal(data, &pbIndex); err != nil {
			return nil, clierr.New(clierr.MalformedSCIP, fmt.Sprintf("failed to parse JSON SCIP index from %s", path), err)
		}
	} else if err := proto.Unmarshal(data, &pbIndex); err != nil {
		return nil, clierr.New(clierr.MalformedSCIP, fmt.Sprintf("failed to parse protobuf SCIP index from %s", path), err)
	}

	index := &Index{
		Metadata:  convertMetadata(pbIndex.Metadata),
		Documents: convertDocuments(pbIndex.Documents),
		Symbols:   make(map[string]*SymbolInformation),
		LoadedAt:  time.Now(),
	}

	for _, doc := range index.Documents {
		for _, sym := range doc.Symbols {
			index.Symbols[sym.Symbol] = sym
		}
	}

	if index.Metadata != nil && index.Metadata.ToolInfo != nil {
		index.IndexedCommit = extractCommitFromToolInfo(index.Metadata.ToolInfo)
	}

	return index, nil
}

func looksLikeJSON(data []byte) bool {
	trimmed := strings.TrimSpace(string(data))
	return strings.HasPrefix(trimmed, "{")
}

// GetDocument returns the document for relativePath, or nil if absent.
func (i *Index) GetDocument(relativePath string) *Document {
	for _, doc := range i.Documents {
		if doc.RelativePath == relativePath {
			return doc
		}
	}
	return nil
}

// GetSymbol looks up symbol information by SCIP symbol string.
func (i *Index) GetSymbol(symbolID string) *SymbolInformation {
	return i.Symbols[symbolID]
}

func convertMetadata(meta *scippb.Metadata) *Metadata {
	if meta == nil {
		return nil
	}

	var toolInfo *ToolInfo
	if meta.ToolInfo != nil {
		toolInfo = &ToolInfo{
			Name:      meta.ToolInfo.Name,
			Version:   meta.ToolInfo.Version,
			Arguments: meta.ToolInfo.Arguments,
		}
	}

	return &Metadata{
		Version:              fmt.Sprintf("%d", meta.Version),
		ToolInfo:             toolInfo,
		ProjectRoot:          meta.ProjectRoot,
		TextDocumentEncoding: meta.TextDocumentEncoding.String(),
	}
}

func convertDocuments(docs []*scippb.Document) []*Document {
	result := make([]*Document, len(docs))
	for i, doc := range docs {
		result[i] = convertDocument(doc)
	}
	return result
}

func convertDocument(doc *scippb.Document) *Document {
	occurrences := make([]*Occurrence, len(doc.Occurrences))
	for i, occ := range doc.Occurrences {
		occurrences[i] = convertOccurrence(occ)
	}

	symbols := make([]*SymbolInformation, len(doc.Symbols))
	for i, sym := range doc.Symbols {
		symbols[i] = convertSymbolInformation(sym)
	}

	return &Document{
		RelativePath: doc.RelativePath,
		Language:     doc.Language,
		Occurrences:  occurrences,
		Symbols:      symbols,
	}
}

func convertOccurrence(occ *scippb.Occurrence) *Occurrence {
	return &Occurrence{
		Range:          occ.Range,
		Symbol:         occ.Symbol,
		SymbolRoles:    occ.SymbolRoles,
		SyntaxKind:     int32(occ.SyntaxKind),
		EnclosingRange: occ.EnclosingRange,
	}
}

func convertSymbolInformation(sym *scippb.SymbolInformation) *SymbolInformation {
	relationships := make([]*Relationship, len(sym.Relationships))
	for i, rel := range sym.Relationships {
		relationships[i] = &Relationship{
			Symbol:           rel.Symbol,
			IsReference:      rel.IsReference,
			IsImplementation: rel.IsImplementation,
			IsTypeDefinition: rel.IsTypeDefinition,
			IsDefinition:     rel.IsDefinition,
		}
	}

	return &SymbolInformation{
		Symbol:          sym.Symbol,
		Documentation:   sym.Documentation,
		Relationships:   relationships,
		Kind:            int32(sym.Kind),
		DisplayName:     sym.DisplayName,
		EnclosingSymbol: sym.EnclosingSymbol,
	}
}

// extractCommitFromToolInfo best-effort recovers the indexed git commit from the
// indexer's recorded invocation arguments.
func extractCommitFromToolInfo(toolInfo *ToolInfo) string {
	for i, arg := range toolInfo.Arguments {
		switch {
		case strings.HasPrefix(arg, "--commit="):
			return strings.TrimPrefix(arg, "--commit=")
		case strings.HasPrefix(arg, "--git-commit="):
			return strings.TrimPrefix(arg, "--git-commit=")
		case arg == "-c" && i+1 < len(toolInfo.Arguments):
			return toolInfo.Arguments[i+1]
		}
	}
	if toolInfo.Version != "" && looksLikeCommitHash(toolInfo.Version) {
		return toolInfo.Version
	}
	return ""
}

func looksLikeCommitHash(s string) bool {
	if len(s) < 7 || len(s) > 40 {
		return false
	}
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}

// IndexPath resolves configPath relative to repoRoot unless it is already absolute.
func IndexPath(repoRoot, configPath string) string {
	if filepath.IsAbs(configPath) {
		return configPath
	}
	return filepath.Join(repoRoot, configPath)
}
