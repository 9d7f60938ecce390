// Package scip loads SCIP semantic indexes (protobuf or JSON), parses SCIP symbol
// identifiers, and maps documents into the IR (C5).
package scip

// SymbolKind mirrors SCIP's coarse symbol classification, independent of ir.SymbolKind
// (which is what a Document ultimately gets mapped to).
type SymbolKind string

const (
	KindClass     SymbolKind = "class"
	KindInterface SymbolKind = "interface"
	KindFunction  SymbolKind = "function"
	KindMethod    SymbolKind = "method"
	KindProperty  SymbolKind = "property"
	KindVariable  SymbolKind = "variable"
	KindConstant  SymbolKind = "constant"
	KindType      SymbolKind = "type"
	KindPackage   SymbolKind = "package"
	KindModule    SymbolKind = "module"
	KindField     SymbolKind = "field"
	KindNamespace SymbolKind = "namespace"
	KindUnknown   SymbolKind = "unknown"
)

// Location is a position in source code, using SCIP's 0-indexed line/column scheme.
type Location struct {
	FileID      string
	StartLine   int
	StartColumn int
	EndLine     int
	EndColumn   int
}

// Metadata is a SCIP index's top-level metadata block.
type Metadata struct {
	Version              string
	ToolInfo             *ToolInfo
	ProjectRoot          string
	TextDocumentEncoding string
}

// ToolInfo describes the indexer that produced a SCIP index.
type ToolInfo struct {
	Name      string
	Version   string
	Arguments []string
}

// Document is one source file's worth of SCIP data.
type Document struct {
	RelativePath string
	Language     string
	Occurrences  []*Occurrence
	Symbols      []*SymbolInformation
}

// Occurrence is a single occurrence of a symbol within a Document.
type Occurrence struct {
	Range          []int32
	Symbol         string
	SymbolRoles    int32
	SyntaxKind     int32
	EnclosingRange []int32
}

// SymbolInformation is the definition-site record for one SCIP symbol.
type SymbolInformation struct {
	Symbol          string
	Documentation   []string
	Relationships   []*Relationship
	Kind            int32
	DisplayName     string
	EnclosingSymbol string
}

// Relationship links one symbol to another (implements, type-definition, reference).
type Relationship struct {
	Symbol           string
	IsReference      bool
	IsImplementation bool
	IsTypeDefinition bool
	IsDefinition     bool
}

// SCIP symbol_roles bitmask values, per the SCIP protocol.
const (
	SymbolRoleDefinition        int32 = 1
	SymbolRoleImport            int32 = 2
	SymbolRoleWriteAccess       int32 = 4
	SymbolRoleReadAccess        int32 = 8
	SymbolRoleGenerated         int32 = 16
	SymbolRoleTest              int32 = 32
	SymbolRoleForwardDefinition int32 = 64
)
