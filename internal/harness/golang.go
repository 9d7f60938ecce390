package harness

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"codegraph/internal/clierr"
	"codegraph/internal/ir"
)

// GoHarness parses Go source using the tree-sitter Go grammar.
type GoHarness struct{}

func NewGoHarness() *GoHarness { return &GoHarness{} }

func (h *GoHarness) Language() ir.Language { return ir.LangGo }

func (h *GoHarness) Parse(ctx context.Context, filePath string, source []byte, commitSHA string) (Result, error) {
	var res Result

	tree, err := parseTree(ctx, golang.GetLanguage(), source)
	if err != nil {
		return res, clierr.New(clierr.ParserFailure, "go parse failed: "+filePath, err)
	}
	root := tree.RootNode()
	if root == nil {
		return res, nil
	}

	pkgName := "main"
	var pkgNameNode *sitter.Node
	if pc := findNodes(root, map[string]bool{"package_clause": true}, true); len(pc) > 0 {
		if id := pc[0].NamedChild(0); id != nil {
			pkgName = textOf(id, source)
			pkgNameNode = id
		}
	}

	pkgFQN := pkgName
	pkgID := makeID(commitSHA, filePath, ir.LangGo, pkgFQN, pkgName)
	res.addSymbol(ir.Symbol{
		ID: pkgID, Lang: ir.LangGo, Kind: ir.KindPackage, Name: pkgName, FQN: pkgFQN,
		FilePath: filePath, Span: spanOf(root), Visibility: "public", SigHash: ir.SigHash(pkgName),
	})
	res.addOccurrence(definitionOccurrence(filePath, pkgID, pkgNameNode, root, source))

	for _, imp := range findNodes(root, map[string]bool{"import_spec": true}, true) {
		pathNode := imp.ChildByFieldName("path")
		raw := strings.Trim(textOf(pathNode, source), `"`)
		if raw == "" {
			continue
		}
		res.addEdge(ir.Edge{
			Type: ir.EdgeImports, FileSrc: filePath, FileDst: raw, Resolution: ir.ResolutionSyntactic,
		})
	}

	for _, fn := range findNodes(root, map[string]bool{"function_declaration": true}, true) {
		name := childByFieldNameText(fn, "name", source)
		if name == "" {
			continue
		}
		fqn := pkgFQN + "." + name
		id := makeID(commitSHA, filePath, ir.LangGo, fqn, textOf(fn, source))
		vis := "private"
		if isExported(name) {
			vis = "public"
		}
		res.addSymbol(ir.Symbol{
			ID: id, Lang: ir.LangGo, Kind: ir.KindFunction, Name: name, FQN: fqn,
			FilePath: filePath, Span: spanOf(fn), Visibility: vis, SigHash: ir.SigHash(textOf(fn, source)),
		})
		res.addEdge(ir.Edge{Type: ir.EdgeContains, Src: pkgID, Dst: id, Resolution: ir.ResolutionSyntactic})
		res.addOccurrence(definitionOccurrence(filePath, id, fn.ChildByFieldName("name"), fn, source))
		h.emitCalls(&res, fn, id, filePath, source)
	}

	for _, md := range findNodes(root, map[string]bool{"method_declaration": true}, true) {
		name := childByFieldNameText(md, "name", source)
		if name == "" {
			continue
		}
		recvType := receiverTypeName(md, source)
		fqn := pkgFQN + "." + recvType + "." + name
		id := makeID(commitSHA, filePath, ir.LangGo, fqn, textOf(md, source))
		vis := "private"
		if isExported(name) {
			vis = "public"
		}
		res.addSymbol(ir.Symbol{
			ID: id, Lang: ir.LangGo, Kind: ir.KindMethod, Name: name, FQN: fqn,
			FilePath: filePath, Span: spanOf(md), Visibility: vis, SigHash: ir.SigHash(textOf(md, source)),
		})
		res.addEdge(ir.Edge{Type: ir.EdgeContains, Src: pkgID, Dst: id, Resolution: ir.ResolutionSyntactic})
		res.addOccurrence(definitionOccurrence(filePath, id, md.ChildByFieldName("name"), md, source))
		h.emitCalls(&res, md, id, filePath, source)
	}

	for _, td := range findNodes(root, map[string]bool{"type_spec": true}, true) {
		name := childByFieldNameText(td, "name", source)
		if name == "" {
			continue
		}
		fqn := pkgFQN + "." + name
		id := makeID(commitSHA, filePath, ir.LangGo, fqn, textOf(td, source))
		vis := "private"
		if isExported(name) {
			vis = "public"
		}
		kind := ir.KindTypeAlias
		if underlying := td.ChildByFieldName("type"); underlying != nil {
			switch underlying.Type() {
			case "struct_type":
				kind = ir.KindStruct
			case "interface_type":
				kind = ir.KindInterface
			}
		}
		res.addSymbol(ir.Symbol{
			ID: id, Lang: ir.LangGo, Kind: kind, Name: name, FQN: fqn,
			FilePath: filePath, Span: spanOf(td), Visibility: vis, SigHash: ir.SigHash(textOf(td, source)),
		})
		res.addEdge(ir.Edge{Type: ir.EdgeContains, Src: pkgID, Dst: id, Resolution: ir.ResolutionSyntactic})
		res.addOccurrence(definitionOccurrence(filePath, id, td.ChildByFieldName("name"), td, source))

		if underlying := td.ChildByFieldName("type"); underlying != nil {
			// Struct fields are field_declaration nodes; interface methods are
			// method_spec nodes. Both attach to the container via Contains.
			for _, member := range findNodes(underlying, map[string]bool{"field_declaration": true, "method_spec": true}, true) {
				mname := childByFieldNameText(member, "name", source)
				if mname == "" {
					continue
				}
				mkind := ir.KindField
				if member.Type() == "method_spec" {
					mkind = ir.KindMethod
				}
				mfqn := fqn + "." + mname
				mid := makeID(commitSHA, filePath, ir.LangGo, mfqn, textOf(member, source))
				mvis := "private"
				if isExported(mname) {
					mvis = "public"
				}
				res.addSymbol(ir.Symbol{
					ID: mid, Lang: ir.LangGo, Kind: mkind, Name: mname, FQN: mfqn,
					FilePath: filePath, Span: spanOf(member), Visibility: mvis, SigHash: ir.SigHash(textOf(member, source)),
				})
				res.addEdge(ir.Edge{Type: ir.EdgeContains, Src: id, Dst: mid, Resolution: ir.ResolutionSyntactic})
				res.addOccurrence(definitionOccurrence(filePath, mid, member.ChildByFieldName("name"), member, source))
			}
		}
	}

	for _, cs := range findNodes(root, map[string]bool{"const_spec": true}, true) {
		name := childByFieldNameText(cs, "name", source)
		if name == "" {
			continue
		}
		fqn := pkgFQN + "." + name
		id := makeID(commitSHA, filePath, ir.LangGo, fqn, textOf(cs, source))
		vis := "private"
		if isExported(name) {
			vis = "public"
		}
		res.addSymbol(ir.Symbol{
			ID: id, Lang: ir.LangGo, Kind: ir.KindConstant, Name: name, FQN: fqn,
			FilePath: filePath, Span: spanOf(cs), Visibility: vis, SigHash: ir.SigHash(textOf(cs, source)),
		})
		res.addEdge(ir.Edge{Type: ir.EdgeContains, Src: pkgID, Dst: id, Resolution: ir.ResolutionSyntactic})
		res.addOccurrence(definitionOccurrence(filePath, id, cs.ChildByFieldName("name"), cs, source))
	}

	return res, nil
}

// receiverTypeName extracts "Type" from a method's receiver clause, unwrapping a
// pointer receiver (*Type).
func receiverTypeName(md *sitter.Node, source []byte) string {
	recv := md.ChildByFieldName("receiver")
	if recv == nil {
		return ""
	}
	for i := 0; i < int(recv.NamedChildCount()); i++ {
		param := recv.NamedChild(i)
		t := param.ChildByFieldName("type")
		if t == nil {
			continue
		}
		if t.Type() == "pointer_type" {
			t = t.NamedChild(0)
		}
		if t != nil {
			return textOf(t, source)
		}
	}
	return ""
}

func (h *GoHarness) emitCalls(res *Result, fn *sitter.Node, enclosingID, filePath string, source []byte) {
	for _, call := range findNodes(fn, map[string]bool{"call_expression": true}, false) {
		fnExpr := call.ChildByFieldName("function")
		if fnExpr == nil {
			continue
		}
		name := textOf(fnExpr, source)
		if sel := fnExpr; sel.Type() == "selector_expression" {
			if field := sel.ChildByFieldName("field"); field != nil {
				name = textOf(field, source)
			}
		}
		if name == "" {
			continue
		}
		res.addEdge(ir.Edge{Type: ir.EdgeCalls, Src: enclosingID, Dst: name, Resolution: ir.ResolutionSyntactic})
		res.addOccurrence(ir.Occurrence{
			FilePath: filePath, Role: ir.RoleCall, Span: spanOf(fnExpr), Token: name,
		})
	}
}
