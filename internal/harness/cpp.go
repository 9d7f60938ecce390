package harness

import (
	"context"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/cpp"

	"codegraph/internal/clierr"
	"codegraph/internal/ir"
)

// CppHarness parses C and C++ source using the tree-sitter C++ grammar, which is a
// superset of the C grammar sufficient for both extensions.
type CppHarness struct{}

func NewCppHarness() *CppHarness { return &CppHarness{} }

func (h *CppHarness) Language() ir.Language { return ir.LangCpp }

func (h *CppHarness) Parse(ctx context.Context, filePath string, source []byte, commitSHA string) (Result, error) {
	var res Result

	tree, err := parseTree(ctx, cpp.GetLanguage(), source)
	if err != nil {
		return res, clierr.New(clierr.ParserFailure, "c/c++ parse failed: "+filePath, err)
	}
	root := tree.RootNode()
	if root == nil {
		return res, nil
	}

	lang := ir.LangCpp
	ext := filepath.Ext(filePath)
	if ext == ".c" || ext == ".h" {
		lang = ir.LangC
	}

	fileFQN := filePath
	fileID := makeID(commitSHA, filePath, lang, fileFQN, fileFQN)
	res.addSymbol(ir.Symbol{
		ID: fileID, Lang: lang, Kind: ir.KindModule, Name: filepath.Base(filePath), FQN: fileFQN,
		FilePath: filePath, Span: spanOf(root), Visibility: "public", SigHash: ir.SigHash(fileFQN),
	})
	res.addOccurrence(ir.Occurrence{FilePath: filePath, SymbolID: fileID, Role: ir.RoleDefinition, Span: spanOf(root), Token: filepath.Base(filePath)})

	detection := detectCppVersion(string(source), ext)
	var version *ir.Version
	if detection.Confidence >= ir.MinConfidence {
		v := detection.Version
		version = &v
	}

	for _, inc := range findNodes(root, map[string]bool{"preproc_include": true}, true) {
		pathNode := inc.NamedChild(0)
		if pathNode == nil {
			continue
		}
		header := strings.Trim(textOf(pathNode, source), `"<>`)
		if header == "" {
			continue
		}
		res.addEdge(ir.Edge{Type: ir.EdgeImports, FileSrc: filePath, FileDst: header, Resolution: ir.ResolutionSyntactic})
	}

	for i := 0; i < int(root.NamedChildCount()); i++ {
		h.walkTopLevel(&res, root.NamedChild(i), fileID, "", filePath, lang, source, commitSHA, version)
	}

	return res, nil
}

func joinNS(container, name string) string {
	if container == "" {
		return name
	}
	return container + "::" + name
}

func (h *CppHarness) walkTopLevel(res *Result, node *sitter.Node, containerID, containerFQN, filePath string, lang ir.Language, source []byte, commitSHA string, version *ir.Version) {
	switch node.Type() {
	case "namespace_definition":
		var segments []string
		for i := 0; i < int(node.NamedChildCount()); i++ {
			c := node.NamedChild(i)
			if c.Type() == "namespace_identifier" || c.Type() == "identifier" {
				segments = append(segments, textOf(c, source))
			}
		}
		name := strings.Join(segments, "::")
		if name == "" {
			name = "(anonymous)"
		}
		fqn := joinNS(containerFQN, name)
		id := makeID(commitSHA, filePath, lang, fqn, textOf(node, source))
		res.addSymbol(ir.Symbol{
			ID: id, Lang: lang, Kind: ir.KindNamespace, Name: name, FQN: fqn,
			FilePath: filePath, Span: spanOf(node), Visibility: "public", SigHash: ir.SigHash(textOf(node, source)),
		})
		res.addEdge(ir.Edge{Type: ir.EdgeContains, Src: containerID, Dst: id, Resolution: ir.ResolutionSyntactic})
		res.addOccurrence(definitionOccurrence(filePath, id, nil, node, source))
		if body := node.ChildByFieldName("body"); body != nil {
			for i := 0; i < int(body.NamedChildCount()); i++ {
				h.walkTopLevel(res, body.NamedChild(i), id, fqn, filePath, lang, source, commitSHA, version)
			}
		}

	case "class_specifier", "struct_specifier", "union_specifier":
		h.emitRecord(res, node, containerID, containerFQN, filePath, lang, source, commitSHA, version)

	case "enum_specifier":
		h.emitEnum(res, node, containerID, containerFQN, filePath, lang, source, commitSHA)

	case "function_definition":
		h.emitFunction(res, node, containerID, containerFQN, filePath, lang, source, commitSHA, version)

	case "type_definition":
		name := ""
		if d := node.ChildByFieldName("declarator"); d != nil {
			name = textOf(d, source)
		}
		if name == "" {
			return
		}
		fqn := joinNS(containerFQN, name)
		id := makeID(commitSHA, filePath, lang, fqn, textOf(node, source))
		res.addSymbol(ir.Symbol{
			ID: id, Lang: lang, Kind: ir.KindTypedef, Name: name, FQN: fqn,
			FilePath: filePath, Span: spanOf(node), Visibility: "public", SigHash: ir.SigHash(textOf(node, source)),
		})
		res.addEdge(ir.Edge{Type: ir.EdgeContains, Src: containerID, Dst: id, Resolution: ir.ResolutionSyntactic})
		res.addOccurrence(definitionOccurrence(filePath, id, node.ChildByFieldName("declarator"), node, source))

	case "alias_declaration":
		name := childByFieldNameText(node, "name", source)
		if name == "" {
			return
		}
		fqn := joinNS(containerFQN, name)
		id := makeID(commitSHA, filePath, lang, fqn, textOf(node, source))
		res.addSymbol(ir.Symbol{
			ID: id, Lang: lang, Kind: ir.KindTypeAlias, Name: name, FQN: fqn,
			FilePath: filePath, Span: spanOf(node), Visibility: "public", SigHash: ir.SigHash(textOf(node, source)),
		})
		res.addEdge(ir.Edge{Type: ir.EdgeContains, Src: containerID, Dst: id, Resolution: ir.ResolutionSyntactic})
		res.addOccurrence(definitionOccurrence(filePath, id, node.ChildByFieldName("name"), node, source))

	case "declaration":
		// Might wrap a class/struct forward decl with no body; nothing to emit.
	}
}

func (h *CppHarness) emitRecord(res *Result, node *sitter.Node, containerID, containerFQN, filePath string, lang ir.Language, source []byte, commitSHA string, version *ir.Version) {
	name := childByFieldNameText(node, "name", source)
	if name == "" {
		return // anonymous union/struct: elided per universal contract item 1
	}
	kind := ir.KindClass
	defaultAccess := "private"
	switch node.Type() {
	case "struct_specifier":
		kind = ir.KindStruct
		defaultAccess = "public"
	case "union_specifier":
		kind = ir.KindUnion
		defaultAccess = "public"
	}
	fqn := joinNS(containerFQN, name)
	id := makeID(commitSHA, filePath, lang, fqn, textOf(node, source))
	res.addSymbol(ir.Symbol{
		ID: id, Lang: lang, Kind: kind, Name: name, FQN: fqn,
		FilePath: filePath, Span: spanOf(node), Visibility: "public", LangVersion: version,
		SigHash: ir.SigHash(textOf(node, source)),
	})
	res.addEdge(ir.Edge{Type: ir.EdgeContains, Src: containerID, Dst: id, Resolution: ir.ResolutionSyntactic})
	res.addOccurrence(definitionOccurrence(filePath, id, node.ChildByFieldName("name"), node, source))

	if base := node.ChildByFieldName("base_class_clause"); base != nil {
		qualifiers := textOf(base, source)
		for _, t := range findNodes(base, map[string]bool{"type_identifier": true, "qualified_identifier": true}, true) {
			baseName := textOf(t, source)
			if baseName == "" {
				continue
			}
			res.addEdge(ir.Edge{
				Type: ir.EdgeExtends, Src: id, Dst: baseName, Resolution: ir.ResolutionSyntactic,
				Meta: map[string]any{"base_clause": qualifiers},
			})
			res.addOccurrence(ir.Occurrence{FilePath: filePath, Role: ir.RoleExtend, Span: spanOf(t), Token: baseName})
		}
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return
	}
	access := defaultAccess
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		switch member.Type() {
		case "access_specifier":
			access = textOf(member, source)
		case "function_definition":
			h.emitMethod(res, member, id, fqn, filePath, lang, source, commitSHA, access, version)
		case "field_declaration":
			h.emitFieldOrMethodDecl(res, member, id, fqn, filePath, lang, source, commitSHA, access)
		case "class_specifier", "struct_specifier", "union_specifier", "enum_specifier":
			h.walkTopLevel(res, member, id, fqn, filePath, lang, source, commitSHA, version)
		}
	}
}

func (h *CppHarness) emitEnum(res *Result, node *sitter.Node, containerID, containerFQN, filePath string, lang ir.Language, source []byte, commitSHA string) {
	name := childByFieldNameText(node, "name", source)
	if name == "" {
		return
	}
	fqn := joinNS(containerFQN, name)
	id := makeID(commitSHA, filePath, lang, fqn, textOf(node, source))
	res.addSymbol(ir.Symbol{
		ID: id, Lang: lang, Kind: ir.KindEnum, Name: name, FQN: fqn,
		FilePath: filePath, Span: spanOf(node), Visibility: "public", SigHash: ir.SigHash(textOf(node, source)),
	})
	res.addEdge(ir.Edge{Type: ir.EdgeContains, Src: containerID, Dst: id, Resolution: ir.ResolutionSyntactic})
	res.addOccurrence(definitionOccurrence(filePath, id, node.ChildByFieldName("name"), node, source))

	if body := node.ChildByFieldName("body"); body != nil {
		for _, enumerator := range findNodes(body, map[string]bool{"enumerator": true}, true) {
			ename := childByFieldNameText(enumerator, "name", source)
			if ename == "" {
				continue
			}
			efqn := fqn + "::" + ename
			eid := makeID(commitSHA, filePath, lang, efqn, textOf(enumerator, source))
			res.addSymbol(ir.Symbol{
				ID: eid, Lang: lang, Kind: ir.KindEnumMember, Name: ename, FQN: efqn,
				FilePath: filePath, Span: spanOf(enumerator), Visibility: "public", SigHash: ir.SigHash(textOf(enumerator, source)),
			})
			res.addEdge(ir.Edge{Type: ir.EdgeContains, Src: id, Dst: eid, Resolution: ir.ResolutionSyntactic})
			res.addOccurrence(definitionOccurrence(filePath, eid, enumerator.ChildByFieldName("name"), enumerator, source))
		}
	}
}

// functionDeclaratorName walks down a (possibly nested, e.g. pointer-returning)
// declarator to find the function_declarator and its name, which may be a plain
// identifier, a field_identifier (method), or an operator_name (operator+ etc.).
func functionDeclaratorName(n *sitter.Node, source []byte) (string, *sitter.Node) {
	if n == nil {
		return "", nil
	}
	if n.Type() == "function_declarator" {
		d := n.ChildByFieldName("declarator")
		if d != nil {
			switch d.Type() {
			case "identifier", "field_identifier", "operator_name", "qualified_identifier", "destructor_name":
				return textOf(d, source), d
			}
		}
		return "", nil
	}
	return functionDeclaratorName(n.ChildByFieldName("declarator"), source)
}

func (h *CppHarness) emitFunction(res *Result, node *sitter.Node, containerID, containerFQN, filePath string, lang ir.Language, source []byte, commitSHA string, version *ir.Version) {
	name, nameNode := functionDeclaratorName(node.ChildByFieldName("declarator"), source)
	if name == "" {
		return
	}
	fqn := joinNS(containerFQN, name)
	id := makeID(commitSHA, filePath, lang, fqn, textOf(node, source))
	res.addSymbol(ir.Symbol{
		ID: id, Lang: lang, Kind: ir.KindFunction, Name: name, FQN: fqn,
		FilePath: filePath, Span: spanOf(node), Visibility: "public", LangVersion: version,
		SigHash: ir.SigHash(textOf(node, source)),
	})
	res.addEdge(ir.Edge{Type: ir.EdgeContains, Src: containerID, Dst: id, Resolution: ir.ResolutionSyntactic})
	res.addOccurrence(definitionOccurrence(filePath, id, nameNode, node, source))
	h.emitCalls(res, node, id, filePath, source)
}

func (h *CppHarness) emitMethod(res *Result, node *sitter.Node, classID, classFQN, filePath string, lang ir.Language, source []byte, commitSHA string, access string, version *ir.Version) {
	name, nameNode := functionDeclaratorName(node.ChildByFieldName("declarator"), source)
	if name == "" {
		return
	}
	fqn := classFQN + "::" + name
	id := makeID(commitSHA, filePath, lang, fqn, textOf(node, source))
	res.addSymbol(ir.Symbol{
		ID: id, Lang: lang, Kind: ir.KindMethod, Name: name, FQN: fqn,
		FilePath: filePath, Span: spanOf(node), Visibility: access, LangVersion: version,
		SigHash: ir.SigHash(textOf(node, source)),
	})
	res.addEdge(ir.Edge{Type: ir.EdgeContains, Src: classID, Dst: id, Resolution: ir.ResolutionSyntactic})
	res.addOccurrence(definitionOccurrence(filePath, id, nameNode, node, source))
	h.emitCalls(res, node, id, filePath, source)
}

// emitFieldOrMethodDecl handles a field_declaration: either a data member or an
// in-class method prototype (declared, defined out-of-line or inline elsewhere).
func (h *CppHarness) emitFieldOrMethodDecl(res *Result, node *sitter.Node, classID, classFQN, filePath string, lang ir.Language, source []byte, commitSHA string, access string) {
	decl := node.ChildByFieldName("declarator")
	if name, nameNode := functionDeclaratorName(decl, source); name != "" {
		fqn := classFQN + "::" + name
		id := makeID(commitSHA, filePath, lang, fqn, textOf(node, source))
		res.addSymbol(ir.Symbol{
			ID: id, Lang: lang, Kind: ir.KindMethod, Name: name, FQN: fqn,
			FilePath: filePath, Span: spanOf(node), Visibility: access, SigHash: ir.SigHash(textOf(node, source)),
		})
		res.addEdge(ir.Edge{Type: ir.EdgeContains, Src: classID, Dst: id, Resolution: ir.ResolutionSyntactic})
		res.addOccurrence(definitionOccurrence(filePath, id, nameNode, node, source))
		return
	}

	name := fieldDeclaratorName(decl, source)
	if name == "" {
		return
	}
	fqn := classFQN + "." + name
	id := makeID(commitSHA, filePath, lang, fqn, textOf(node, source))
	res.addSymbol(ir.Symbol{
		ID: id, Lang: lang, Kind: ir.KindField, Name: name, FQN: fqn,
		FilePath: filePath, Span: spanOf(node), Visibility: access, SigHash: ir.SigHash(textOf(node, source)),
	})
	res.addEdge(ir.Edge{Type: ir.EdgeContains, Src: classID, Dst: id, Resolution: ir.ResolutionSyntactic})
	res.addOccurrence(definitionOccurrence(filePath, id, decl, node, source))
}

func fieldDeclaratorName(n *sitter.Node, source []byte) string {
	if n == nil {
		return ""
	}
	if n.Type() == "field_identifier" {
		return textOf(n, source)
	}
	return fieldDeclaratorName(n.ChildByFieldName("declarator"), source)
}

func (h *CppHarness) emitCalls(res *Result, fn *sitter.Node, enclosingID, filePath string, source []byte) {
	for _, call := range findNodes(fn, map[string]bool{"call_expression": true}, false) {
		fnExpr := call.ChildByFieldName("function")
		if fnExpr == nil {
			continue
		}
		name := textOf(fnExpr, source)
		if fnExpr.Type() == "field_expression" {
			if field := fnExpr.ChildByFieldName("field"); field != nil {
				name = textOf(field, source)
			}
		}
		if name == "" {
			continue
		}
		res.addEdge(ir.Edge{Type: ir.EdgeCalls, Src: enclosingID, Dst: name, Resolution: ir.ResolutionSyntactic})
		res.addOccurrence(ir.Occurrence{FilePath: filePath, Role: ir.RoleCall, Span: spanOf(fnExpr), Token: name})
	}
}
