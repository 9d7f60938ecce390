package harness

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"codegraph/internal/clierr"
	"codegraph/internal/ir"
)

// TypeScriptHarness parses TypeScript, TSX, and JavaScript source. The registry
// (C3) groups all five extensions (.ts, .tsx, .js, .jsx, .mjs) under one strategy (§4.3's table); the harness
// dispatches to the matching tree-sitter grammar per file and tags emitted symbols
// with the concrete language (TypeScript vs. JavaScript) by extension.
type TypeScriptHarness struct{}

func NewTypeScriptHarness() *TypeScriptHarness { return &TypeScriptHarness{} }

func (h *TypeScriptHarness) Language() ir.Language { return ir.LangTypeScript }

func grammarFor(filePath string) (*sitter.Language, ir.Language) {
	switch {
	case strings.HasSuffix(filePath, ".tsx"):
		return tsx.GetLanguage(), ir.LangTypeScript
	case strings.HasSuffix(filePath, ".ts"):
		return typescript.GetLanguage(), ir.LangTypeScript
	default:
		return javascript.GetLanguage(), ir.LangJavaScript
	}
}

func (h *TypeScriptHarness) Parse(ctx context.Context, filePath string, source []byte, commitSHA string) (Result, error) {
	var res Result

	grammar, lang := grammarFor(filePath)
	tree, err := parseTree(ctx, grammar, source)
	if err != nil {
		return res, clierr.New(clierr.ParserFailure, "typescript/javascript parse failed: "+filePath, err)
	}
	root := tree.RootNode()
	if root == nil {
		return res, nil
	}

	moduleFQN := filePath
	moduleID := makeID(commitSHA, filePath, lang, moduleFQN, moduleFQN)
	res.addSymbol(ir.Symbol{
		ID: moduleID, Lang: lang, Kind: ir.KindModule, Name: filePath, FQN: moduleFQN,
		FilePath: filePath, Span: spanOf(root), Visibility: "public", SigHash: ir.SigHash(moduleFQN),
	})
	res.addOccurrence(ir.Occurrence{FilePath: filePath, SymbolID: moduleID, Role: ir.RoleDefinition, Span: spanOf(root), Token: filePath})

	h.emitImports(&res, root, filePath, source)

	for i := 0; i < int(root.NamedChildCount()); i++ {
		h.walkTop(&res, root.NamedChild(i), moduleID, moduleFQN, filePath, lang, source, commitSHA)
	}

	return res, nil
}

func (h *TypeScriptHarness) emitImports(res *Result, root *sitter.Node, filePath string, source []byte) {
	for _, imp := range findNodes(root, map[string]bool{"import_statement": true}, true) {
		src := imp.ChildByFieldName("source")
		mod := strings.Trim(textOf(src, source), `"'`)
		if mod == "" {
			continue
		}
		res.addEdge(ir.Edge{Type: ir.EdgeImports, FileSrc: filePath, FileDst: mod, Resolution: ir.ResolutionSyntactic})
	}
}

// exportedAndInner strips an `export`/`export default` wrapper, reporting whether
// the declaration was exported (§4.4.2: exported ⇒ public, else private).
func exportedAndInner(n *sitter.Node) (*sitter.Node, bool) {
	if n.Type() != "export_statement" {
		return n, false
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() != "export_clause" {
			return c, true
		}
	}
	return nil, true
}

func (h *TypeScriptHarness) walkTop(res *Result, stmt *sitter.Node, containerID, containerFQN, filePath string, lang ir.Language, source []byte, commitSHA string) {
	node, exported := exportedAndInner(stmt)
	if node == nil {
		return
	}
	vis := "private"
	if exported {
		vis = "public"
	}

	switch node.Type() {
	case "class_declaration", "abstract_class_declaration":
		h.emitClass(res, node, containerID, containerFQN, filePath, lang, vis, source, commitSHA)
	case "interface_declaration":
		name := childByFieldNameText(node, "name", source)
		if name == "" {
			return
		}
		h.emitSimple(res, node, ir.KindInterface, name, containerID, containerFQN, filePath, lang, vis, source, commitSHA)
	case "enum_declaration":
		name := childByFieldNameText(node, "name", source)
		if name == "" {
			return
		}
		h.emitSimple(res, node, ir.KindEnum, name, containerID, containerFQN, filePath, lang, vis, source, commitSHA)
	case "type_alias_declaration":
		name := childByFieldNameText(node, "name", source)
		if name == "" {
			return
		}
		h.emitSimple(res, node, ir.KindTypeAlias, name, containerID, containerFQN, filePath, lang, vis, source, commitSHA)
	case "function_declaration", "generator_function_declaration":
		name := childByFieldNameText(node, "name", source)
		if name == "" {
			return
		}
		fqn := containerFQN + "#" + name
		id := makeID(commitSHA, filePath, lang, fqn, textOf(node, source))
		res.addSymbol(ir.Symbol{
			ID: id, Lang: lang, Kind: ir.KindFunction, Name: name, FQN: fqn,
			FilePath: filePath, Span: spanOf(node), Visibility: vis, SigHash: ir.SigHash(textOf(node, source)),
		})
		res.addEdge(ir.Edge{Type: ir.EdgeContains, Src: containerID, Dst: id, Resolution: ir.ResolutionSyntactic})
		res.addOccurrence(definitionOccurrence(filePath, id, node.ChildByFieldName("name"), node, source))
		h.emitCalls(res, node, id, filePath, source)
	}
}

func (h *TypeScriptHarness) emitSimple(res *Result, node *sitter.Node, kind ir.SymbolKind, name, containerID, containerFQN, filePath string, lang ir.Language, vis string, source []byte, commitSHA string) {
	fqn := containerFQN + "#" + name
	id := makeID(commitSHA, filePath, lang, fqn, textOf(node, source))
	res.addSymbol(ir.Symbol{
		ID: id, Lang: lang, Kind: kind, Name: name, FQN: fqn,
		FilePath: filePath, Span: spanOf(node), Visibility: vis, SigHash: ir.SigHash(textOf(node, source)),
	})
	res.addEdge(ir.Edge{Type: ir.EdgeContains, Src: containerID, Dst: id, Resolution: ir.ResolutionSyntactic})
	res.addOccurrence(definitionOccurrence(filePath, id, node.ChildByFieldName("name"), node, source))

	body := node.ChildByFieldName("body")
	if body == nil {
		return
	}
	switch kind {
	case ir.KindInterface:
		h.emitInterfaceMembers(res, body, id, fqn, filePath, lang, source, commitSHA)
	case ir.KindEnum:
		h.emitEnumMembers(res, body, id, fqn, filePath, lang, source, commitSHA)
	}
}

// emitInterfaceMembers walks an interface_body's property_signature/method_signature
// children, the same member shapes emitClass walks for a class body, so that a TS/JS
// interface's members get Contains edges instead of vanishing.
func (h *TypeScriptHarness) emitInterfaceMembers(res *Result, body *sitter.Node, containerID, containerFQN, filePath string, lang ir.Language, source []byte, commitSHA string) {
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		var kind ir.SymbolKind
		switch member.Type() {
		case "method_signature":
			kind = ir.KindMethod
		case "property_signature":
			kind = ir.KindProperty
		default:
			continue
		}
		mname := childByFieldNameText(member, "name", source)
		if mname == "" {
			continue
		}
		mfqn := containerFQN + "." + mname
		mid := makeID(commitSHA, filePath, lang, mfqn, textOf(member, source))
		res.addSymbol(ir.Symbol{
			ID: mid, Lang: lang, Kind: kind, Name: mname, FQN: mfqn,
			FilePath: filePath, Span: spanOf(member), Visibility: "public", SigHash: ir.SigHash(textOf(member, source)),
		})
		res.addEdge(ir.Edge{Type: ir.EdgeContains, Src: containerID, Dst: mid, Resolution: ir.ResolutionSyntactic})
		res.addOccurrence(definitionOccurrence(filePath, mid, member.ChildByFieldName("name"), member, source))
	}
}

// emitEnumMembers walks an enum_body's members, plain identifiers and
// `name = value` enum_assignment nodes alike, emitting ir.KindEnumMember symbols.
func (h *TypeScriptHarness) emitEnumMembers(res *Result, body *sitter.Node, containerID, containerFQN, filePath string, lang ir.Language, source []byte, commitSHA string) {
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		nameNode := member
		if member.Type() == "enum_assignment" {
			if n := member.ChildByFieldName("name"); n != nil {
				nameNode = n
			} else if member.NamedChildCount() > 0 {
				nameNode = member.NamedChild(0)
			}
		}
		mname := textOf(nameNode, source)
		if mname == "" {
			continue
		}
		mfqn := containerFQN + "::" + mname
		mid := makeID(commitSHA, filePath, lang, mfqn, textOf(member, source))
		res.addSymbol(ir.Symbol{
			ID: mid, Lang: lang, Kind: ir.KindEnumMember, Name: mname, FQN: mfqn,
			FilePath: filePath, Span: spanOf(member), Visibility: "public", SigHash: ir.SigHash(textOf(member, source)),
		})
		res.addEdge(ir.Edge{Type: ir.EdgeContains, Src: containerID, Dst: mid, Resolution: ir.ResolutionSyntactic})
		res.addOccurrence(definitionOccurrence(filePath, mid, nameNode, member, source))
	}
}

func (h *TypeScriptHarness) emitClass(res *Result, node *sitter.Node, containerID, containerFQN, filePath string, lang ir.Language, vis string, source []byte, commitSHA string) {
	name := childByFieldNameText(node, "name", source)
	if name == "" {
		return
	}
	fqn := containerFQN + "#" + name
	id := makeID(commitSHA, filePath, lang, fqn, textOf(node, source))
	res.addSymbol(ir.Symbol{
		ID: id, Lang: lang, Kind: ir.KindClass, Name: name, FQN: fqn,
		FilePath: filePath, Span: spanOf(node), Visibility: vis, SigHash: ir.SigHash(textOf(node, source)),
	})
	res.addEdge(ir.Edge{Type: ir.EdgeContains, Src: containerID, Dst: id, Resolution: ir.ResolutionSyntactic})
	res.addOccurrence(definitionOccurrence(filePath, id, node.ChildByFieldName("name"), node, source))

	if heritage := node.ChildByFieldName("heritage"); heritage != nil {
		for i := 0; i < int(heritage.NamedChildCount()); i++ {
			clause := heritage.NamedChild(i)
			edgeType := ir.EdgeExtends
			if clause.Type() == "implements_clause" {
				edgeType = ir.EdgeImplements
			}
			for _, t := range findNodes(clause, map[string]bool{"type_identifier": true, "identifier": true}, true) {
				baseName := textOf(t, source)
				if baseName == "" {
					continue
				}
				role := ir.RoleExtend
				if edgeType == ir.EdgeImplements {
					role = ir.RoleImplement
				}
				res.addEdge(ir.Edge{Type: edgeType, Src: id, Dst: baseName, Resolution: ir.ResolutionSyntactic})
				res.addOccurrence(ir.Occurrence{FilePath: filePath, Role: role, Span: spanOf(t), Token: baseName})
			}
		}
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		switch member.Type() {
		case "method_definition":
			mname := childByFieldNameText(member, "name", source)
			if mname == "" {
				continue
			}
			mfqn := fqn + "." + mname
			mid := makeID(commitSHA, filePath, lang, mfqn, textOf(member, source))
			mvis := "public"
			if strings.Contains(textOf(member, source), "private ") {
				mvis = "private"
			}
			res.addSymbol(ir.Symbol{
				ID: mid, Lang: lang, Kind: ir.KindMethod, Name: mname, FQN: mfqn,
				FilePath: filePath, Span: spanOf(member), Visibility: mvis, SigHash: ir.SigHash(textOf(member, source)),
			})
			res.addEdge(ir.Edge{Type: ir.EdgeContains, Src: id, Dst: mid, Resolution: ir.ResolutionSyntactic})
			res.addOccurrence(definitionOccurrence(filePath, mid, member.ChildByFieldName("name"), member, source))
			h.emitCalls(res, member, mid, filePath, source)
		case "public_field_definition", "field_definition":
			pname := childByFieldNameText(member, "property", source)
			if pname == "" {
				pname = childByFieldNameText(member, "name", source)
			}
			if pname == "" {
				continue
			}
			pfqn := fqn + "." + pname
			pid := makeID(commitSHA, filePath, lang, pfqn, textOf(member, source))
			pvis := "public"
			if strings.Contains(textOf(member, source), "private ") {
				pvis = "private"
			}
			res.addSymbol(ir.Symbol{
				ID: pid, Lang: lang, Kind: ir.KindProperty, Name: pname, FQN: pfqn,
				FilePath: filePath, Span: spanOf(member), Visibility: pvis, SigHash: ir.SigHash(textOf(member, source)),
			})
			res.addEdge(ir.Edge{Type: ir.EdgeContains, Src: id, Dst: pid, Resolution: ir.ResolutionSyntactic})
		}
	}
}

func (h *TypeScriptHarness) emitCalls(res *Result, fn *sitter.Node, enclosingID, filePath string, source []byte) {
	for _, call := range findNodes(fn, map[string]bool{"call_expression": true}, false) {
		fnExpr := call.ChildByFieldName("function")
		if fnExpr == nil {
			continue
		}
		name := textOf(fnExpr, source)
		if fnExpr.Type() == "member_expression" {
			if prop := fnExpr.ChildByFieldName("property"); prop != nil {
				name = textOf(prop, source)
			}
		}
		if name == "" {
			continue
		}
		res.addEdge(ir.Edge{Type: ir.EdgeCalls, Src: enclosingID, Dst: name, Resolution: ir.ResolutionSyntactic})
		res.addOccurrence(ir.Occurrence{FilePath: filePath, Role: ir.RoleCall, Span: spanOf(fnExpr), Token: name})
	}
}
