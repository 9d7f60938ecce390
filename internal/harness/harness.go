// Package harness implements the syntactic tree-sitter harnesses (C4): one
// stateless transformer per language turning (file path, source bytes, commit SHA)
// into symbols, edges, and occurrences.
package harness

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"

	"codegraph/internal/ir"
)

// Harness parses one file's source into the IR. Implementations hold no state,
// and each Parse call allocates its own *sitter.Parser, so a single Harness value
// can be shared across goroutines.
type Harness interface {
	Language() ir.Language
	Parse(ctx context.Context, filePath string, source []byte, commitSHA string) (Result, error)
}

// Result is one file's harness output.
type Result struct {
	Symbols     []ir.Symbol
	Edges       []ir.Edge
	Occurrences []ir.Occurrence
}

func (r *Result) addSymbol(s ir.Symbol) { r.Symbols = append(r.Symbols, s) }
func (r *Result) addEdge(e ir.Edge)     { r.Edges = append(r.Edges, e) }
func (r *Result) addOccurrence(o ir.Occurrence) {
	r.Occurrences = append(r.Occurrences, o)
}

// spanOf converts a tree-sitter node's point range into an ir.Span.
func spanOf(n *sitter.Node) ir.Span {
	start, end := n.StartPoint(), n.EndPoint()
	return ir.Span{
		StartLine: int(start.Row),
		StartCol:  int(start.Column),
		EndLine:   int(end.Row),
		EndCol:    int(end.Column),
	}
}

func textOf(n *sitter.Node, source []byte) string {
	if n == nil {
		return ""
	}
	return n.Content(source)
}

// definitionOccurrence emits the Definition occurrence required for every symbol
// (universal contract item 7), anchored at nameNode's span when present, else the
// whole definition node.
func definitionOccurrence(filePath, symbolID string, nameNode, fallback *sitter.Node, source []byte) ir.Occurrence {
	n := nameNode
	if n == nil {
		n = fallback
	}
	return ir.Occurrence{
		FilePath: filePath,
		SymbolID: symbolID,
		Role:     ir.RoleDefinition,
		Span:     spanOf(n),
		Token:    textOf(n, source),
	}
}

// findNodes recursively collects every descendant of n whose Type() is in kinds.
// It does not descend past a match site's own children when stopAtMatch is true,
// which keeps nested-definition handling (e.g. a Go function literal inside a
// function body) under the caller's control rather than flattening everything in
// one pass.
func findNodes(n *sitter.Node, kinds map[string]bool, stopAtMatch bool) []*sitter.Node {
	var out []*sitter.Node
	var walk func(*sitter.Node)
	walk = func(node *sitter.Node) {
		if node == nil {
			return
		}
		matched := kinds[node.Type()]
		if matched {
			out = append(out, node)
			if stopAtMatch {
				return
			}
		}
		for i := 0; i < int(node.ChildCount()); i++ {
			walk(node.Child(i))
		}
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		walk(n.Child(i))
	}
	return out
}

// childByFieldNameText returns the text of n's child in the named field, or "".
func childByFieldNameText(n *sitter.Node, field string, source []byte) string {
	c := n.ChildByFieldName(field)
	if c == nil {
		return ""
	}
	return textOf(c, source)
}

func isExported(name string) bool {
	return name != "" && name[0] >= 'A' && name[0] <= 'Z'
}

func isPythonPrivate(name string) bool {
	return len(name) > 0 && name[0] == '_'
}

func makeID(commitSHA, filePath string, lang ir.Language, fqn string, declText string) string {
	return ir.GenerateID(commitSHA, filePath, lang, fqn, ir.SigHash(declText))
}

func parseTree(ctx context.Context, lang *sitter.Language, source []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(lang)
	return parser.ParseCtx(ctx, nil, source)
}
