// Package ir defines the language-neutral intermediate representation shared by
// every syntactic harness and the SCIP mapper: symbols, edges, occurrences, and the
// stable ID scheme that addresses them within a commit.
package ir

// Language is a closed enumeration over the source languages the graph understands.
type Language string

const (
	LangTypeScript Language = "typescript"
	LangJavaScript Language = "javascript"
	LangPython     Language = "python"
	LangGo         Language = "go"
	LangRust       Language = "rust"
	LangJava       Language = "java"
	LangC          Language = "c"
	LangCpp        Language = "cpp"
	LangUnknown    Language = "unknown"
)

// SymbolKind is a closed enumeration over the kinds of entity a Symbol can name.
type SymbolKind string

const (
	KindFunction    SymbolKind = "function"
	KindMethod      SymbolKind = "method"
	KindClass       SymbolKind = "class"
	KindInterface   SymbolKind = "interface"
	KindVariable    SymbolKind = "variable"
	KindType        SymbolKind = "type"
	KindModule      SymbolKind = "module"
	KindPackage     SymbolKind = "package"
	KindNamespace   SymbolKind = "namespace"
	KindEnum        SymbolKind = "enum"
	KindEnumMember  SymbolKind = "enum_member"
	KindStruct      SymbolKind = "struct"
	KindTrait       SymbolKind = "trait"
	KindConstant    SymbolKind = "constant"
	KindField       SymbolKind = "field"
	KindProperty    SymbolKind = "property"
	KindTypeAlias   SymbolKind = "type_alias"
	KindTypedef     SymbolKind = "typedef"
	KindUnion       SymbolKind = "union"
)

// EdgeType is a closed enumeration over the typed relationships between symbols
// (or, for Imports, between files).
type EdgeType string

const (
	EdgeContains   EdgeType = "contains"
	EdgeDeclares   EdgeType = "declares"
	EdgeCalls      EdgeType = "calls"
	EdgeImports    EdgeType = "imports"
	EdgeExtends    EdgeType = "extends"
	EdgeImplements EdgeType = "implements"
	EdgeOverrides  EdgeType = "overrides"
	EdgeReturns    EdgeType = "returns"
	EdgeReads      EdgeType = "reads"
	EdgeWrites     EdgeType = "writes"
)

// Resolution distinguishes an edge whose destination is a bare textual name
// (Syntactic) from one bound to a concrete symbol ID (Semantic).
type Resolution string

const (
	ResolutionSyntactic Resolution = "syntactic"
	ResolutionSemantic  Resolution = "semantic"
)

// OccurrenceRole is a closed enumeration over the role a textual span plays.
type OccurrenceRole string

const (
	RoleDefinition OccurrenceRole = "definition"
	RoleReference  OccurrenceRole = "reference"
	RoleRead       OccurrenceRole = "read"
	RoleWrite      OccurrenceRole = "write"
	RoleCall       OccurrenceRole = "call"
	RoleExtend     OccurrenceRole = "extend"
	RoleImplement  OccurrenceRole = "implement"
)

// Span is a half-open 0-based line/column rectangle.
type Span struct {
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// Symbol is one program entity: a function, type, variable, etc.
type Symbol struct {
	ID          string
	Lang        Language
	LangVersion *Version
	Kind        SymbolKind
	Name        string
	FQN         string
	Signature   string
	FilePath    string
	Span        Span
	Visibility  string
	Doc         string
	SigHash     string
}

// Edge is a typed relationship. Either (Src, Dst) are symbol IDs, or
// (FileSrc, FileDst) are file paths — never a mix (invariant 4).
type Edge struct {
	Type       EdgeType
	Src        string
	Dst        string
	FileSrc    string
	FileDst    string
	Resolution Resolution
	Meta       map[string]any
	Provenance map[string]string
}

// IsFileLevel reports whether this edge addresses files rather than symbols.
func (e Edge) IsFileLevel() bool {
	return e.FileSrc != "" || e.FileDst != ""
}

// Occurrence is a textual span, optionally bound to a symbol.
type Occurrence struct {
	FilePath string
	SymbolID string // empty means "unresolved textual reference"
	Role     OccurrenceRole
	Span     Span
	Token    string
}

// FileRecord is one file's content-hash snapshot under a given commit.
type FileRecord struct {
	CommitID int64
	Path     string
	Hash     string
	Size     int64
}
