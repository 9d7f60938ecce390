package harness

import (
	"context"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"codegraph/internal/clierr"
	"codegraph/internal/ir"
)

// PythonHarness parses Python source using the tree-sitter Python grammar.
type PythonHarness struct{}

func NewPythonHarness() *PythonHarness { return &PythonHarness{} }

func (h *PythonHarness) Language() ir.Language { return ir.LangPython }

func (h *PythonHarness) Parse(ctx context.Context, filePath string, source []byte, commitSHA string) (Result, error) {
	var res Result

	tree, err := parseTree(ctx, python.GetLanguage(), source)
	if err != nil {
		return res, clierr.New(clierr.ParserFailure, "python parse failed: "+filePath, err)
	}
	root := tree.RootNode()
	if root == nil {
		return res, nil
	}

	moduleName := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	moduleID := makeID(commitSHA, filePath, ir.LangPython, moduleName, moduleName)
	res.addSymbol(ir.Symbol{
		ID: moduleID, Lang: ir.LangPython, Kind: ir.KindModule, Name: moduleName, FQN: moduleName,
		FilePath: filePath, Span: spanOf(root), Visibility: "public", SigHash: ir.SigHash(moduleName),
	})
	res.addOccurrence(ir.Occurrence{FilePath: filePath, SymbolID: moduleID, Role: ir.RoleDefinition, Span: spanOf(root), Token: moduleName})

	h.emitImports(&res, root, filePath, source)

	for i := 0; i < int(root.NamedChildCount()); i++ {
		h.walkStatement(&res, root.NamedChild(i), moduleID, moduleName, filePath, source, commitSHA)
	}

	return res, nil
}

func (h *PythonHarness) emitImports(res *Result, root *sitter.Node, filePath string, source []byte) {
	for _, imp := range findNodes(root, map[string]bool{"import_statement": true}, true) {
		for _, name := range findNodes(imp, map[string]bool{"dotted_name": true, "aliased_import": true}, true) {
			mod := textOf(name, source)
			if mod == "" {
				continue
			}
			res.addEdge(ir.Edge{Type: ir.EdgeImports, FileSrc: filePath, FileDst: mod + ".py", Resolution: ir.ResolutionSyntactic})
		}
	}
	for _, imp := range findNodes(root, map[string]bool{"import_from_statement": true}, true) {
		mod := childByFieldNameText(imp, "module_name", source)
		dots := ""
		for i := 0; i < int(imp.ChildCount()); i++ {
			c := imp.Child(i)
			if c.Type() == "import_prefix" {
				dots = textOf(c, source)
				break
			}
		}
		dst := dots + strings.ReplaceAll(mod, ".", "/") + ".py"
		if mod == "" && dots == "" {
			continue
		}
		res.addEdge(ir.Edge{Type: ir.EdgeImports, FileSrc: filePath, FileDst: dst, Resolution: ir.ResolutionSyntactic})
	}
}

// unwrapDecorated peels a decorated_definition down to the underlying definition,
// recording decorator names into meta.
func unwrapDecorated(n *sitter.Node, source []byte) (*sitter.Node, []string) {
	if n.Type() != "decorated_definition" {
		return n, nil
	}
	var decorators []string
	var def *sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() == "decorator" {
			decorators = append(decorators, strings.TrimPrefix(textOf(c, source), "@"))
		} else {
			def = c
		}
	}
	return def, decorators
}

func (h *PythonHarness) walkStatement(res *Result, stmt *sitter.Node, containerID, containerFQN, filePath string, source []byte, commitSHA string) {
	node, decorators := unwrapDecorated(stmt, source)
	if node == nil {
		return
	}

	switch node.Type() {
	case "function_definition":
		name := childByFieldNameText(node, "name", source)
		if name == "" {
			return
		}
		fqn := containerFQN + "." + name
		id := makeID(commitSHA, filePath, ir.LangPython, fqn, textOf(node, source))
		kind := ir.KindFunction
		vis := "public"
		if isPythonPrivate(name) {
			vis = "private"
		}
		meta := map[string]any{}
		if len(decorators) > 0 {
			meta["decorators"] = decorators
			kind = classifyDecoratedFunction(decorators, kind)
		}
		res.addSymbol(ir.Symbol{
			ID: id, Lang: ir.LangPython, Kind: kind, Name: name, FQN: fqn,
			FilePath: filePath, Span: spanOf(node), Visibility: vis, SigHash: ir.SigHash(textOf(node, source)),
		})
		res.addEdge(ir.Edge{Type: ir.EdgeContains, Src: containerID, Dst: id, Resolution: ir.ResolutionSyntactic, Meta: meta})
		res.addOccurrence(definitionOccurrence(filePath, id, node.ChildByFieldName("name"), node, source))
		h.emitCalls(res, node, id, filePath, source)

		if body := node.ChildByFieldName("body"); body != nil {
			for i := 0; i < int(body.NamedChildCount()); i++ {
				h.walkStatement(res, body.NamedChild(i), id, fqn, filePath, source, commitSHA)
			}
		}

	case "class_definition":
		name := childByFieldNameText(node, "name", source)
		if name == "" {
			return
		}
		fqn := containerFQN + "." + name
		id := makeID(commitSHA, filePath, ir.LangPython, fqn, textOf(node, source))
		vis := "public"
		if isPythonPrivate(name) {
			vis = "private"
		}
		meta := map[string]any{}
		if len(decorators) > 0 {
			meta["decorators"] = decorators
		}
		res.addSymbol(ir.Symbol{
			ID: id, Lang: ir.LangPython, Kind: ir.KindClass, Name: name, FQN: fqn,
			FilePath: filePath, Span: spanOf(node), Visibility: vis, SigHash: ir.SigHash(textOf(node, source)),
		})
		res.addEdge(ir.Edge{Type: ir.EdgeContains, Src: containerID, Dst: id, Resolution: ir.ResolutionSyntactic, Meta: meta})
		res.addOccurrence(definitionOccurrence(filePath, id, node.ChildByFieldName("name"), node, source))

		if bases := node.ChildByFieldName("superclasses"); bases != nil {
			for _, arg := range findNodes(bases, map[string]bool{"identifier": true}, true) {
				baseName := textOf(arg, source)
				if baseName == "" || baseName == "object" {
					continue
				}
				res.addEdge(ir.Edge{Type: ir.EdgeExtends, Src: id, Dst: baseName, Resolution: ir.ResolutionSyntactic})
				res.addOccurrence(ir.Occurrence{FilePath: filePath, Role: ir.RoleExtend, Span: spanOf(arg), Token: baseName})
			}
		}

		if body := node.ChildByFieldName("body"); body != nil {
			for i := 0; i < int(body.NamedChildCount()); i++ {
				child := body.NamedChild(i)
				inner, _ := unwrapDecorated(child, source)
				if inner != nil && inner.Type() == "expression_statement" {
					h.emitClassFields(res, inner, id, fqn, filePath, source, commitSHA)
					continue
				}
				h.walkStatement(res, child, id, fqn, filePath, source, commitSHA)
			}
		}
	}
}

func classifyDecoratedFunction(decorators []string, fallback ir.SymbolKind) ir.SymbolKind {
	for _, d := range decorators {
		if d == "property" || strings.HasSuffix(d, ".setter") || strings.HasSuffix(d, ".getter") {
			return ir.KindProperty
		}
	}
	return fallback
}

// emitClassFields turns a bare `name = value` or `name: Type = value` statement in
// a class body into a Field symbol (§4.4.2, "class-body assignments create Field
// symbols").
func (h *PythonHarness) emitClassFields(res *Result, exprStmt *sitter.Node, classID, classFQN, filePath string, source []byte, commitSHA string) {
	assign := exprStmt.NamedChild(0)
	if assign == nil || (assign.Type() != "assignment" && assign.Type() != "augmented_assignment") {
		return
	}
	left := assign.ChildByFieldName("left")
	if left == nil || left.Type() != "identifier" {
		return
	}
	name := textOf(left, source)
	if name == "" {
		return
	}
	fqn := classFQN + "." + name
	id := makeID(commitSHA, filePath, ir.LangPython, fqn, textOf(assign, source))
	vis := "public"
	if isPythonPrivate(name) {
		vis = "private"
	}
	res.addSymbol(ir.Symbol{
		ID: id, Lang: ir.LangPython, Kind: ir.KindField, Name: name, FQN: fqn,
		FilePath: filePath, Span: spanOf(assign), Visibility: vis, SigHash: ir.SigHash(textOf(assign, source)),
	})
	res.addEdge(ir.Edge{Type: ir.EdgeContains, Src: classID, Dst: id, Resolution: ir.ResolutionSyntactic})
	res.addOccurrence(definitionOccurrence(filePath, id, left, assign, source))
}

func (h *PythonHarness) emitCalls(res *Result, fn *sitter.Node, enclosingID, filePath string, source []byte) {
	for _, call := range findNodes(fn, map[string]bool{"call": true}, false) {
		fnExpr := call.ChildByFieldName("function")
		if fnExpr == nil {
			continue
		}
		name := textOf(fnExpr, source)
		if fnExpr.Type() == "attribute" {
			if attr := fnExpr.ChildByFieldName("attribute"); attr != nil {
				name = textOf(attr, source)
			}
		}
		if name == "" {
			continue
		}
		res.addEdge(ir.Edge{Type: ir.EdgeCalls, Src: enclosingID, Dst: name, Resolution: ir.ResolutionSyntactic})
		res.addOccurrence(ir.Occurrence{FilePath: filePath, Role: ir.RoleCall, Span: spanOf(fnExpr), Token: name})
	}
}
