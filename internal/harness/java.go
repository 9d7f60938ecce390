package harness

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"codegraph/internal/clierr"
	"codegraph/internal/ir"
)

// JavaHarness parses Java source using the tree-sitter Java grammar.
type JavaHarness struct{}

func NewJavaHarness() *JavaHarness { return &JavaHarness{} }

func (h *JavaHarness) Language() ir.Language { return ir.LangJava }

var javaTypeKinds = map[string]ir.SymbolKind{
	"class_declaration":           ir.KindClass,
	"interface_declaration":       ir.KindInterface,
	"enum_declaration":            ir.KindEnum,
	"record_declaration":          ir.KindStruct,
	"annotation_type_declaration": ir.KindType,
}

func (h *JavaHarness) Parse(ctx context.Context, filePath string, source []byte, commitSHA string) (Result, error) {
	var res Result

	tree, err := parseTree(ctx, java.GetLanguage(), source)
	if err != nil {
		return res, clierr.New(clierr.ParserFailure, "java parse failed: "+filePath, err)
	}
	root := tree.RootNode()
	if root == nil {
		return res, nil
	}

	pkgName := ""
	if pd := findNodes(root, map[string]bool{"package_declaration": true}, true); len(pd) > 0 {
		for i := 0; i < int(pd[0].NamedChildCount()); i++ {
			c := pd[0].NamedChild(i)
			if c.Type() == "scoped_identifier" || c.Type() == "identifier" {
				pkgName = textOf(c, source)
			}
		}
	}

	pkgID := makeID(commitSHA, filePath, ir.LangJava, pkgName, pkgName)
	res.addSymbol(ir.Symbol{
		ID: pkgID, Lang: ir.LangJava, Kind: ir.KindPackage, Name: pkgName, FQN: pkgName,
		FilePath: filePath, Span: spanOf(root), Visibility: "public", SigHash: ir.SigHash(pkgName),
	})
	res.addOccurrence(ir.Occurrence{FilePath: filePath, SymbolID: pkgID, Role: ir.RoleDefinition, Span: spanOf(root), Token: pkgName})

	detection := detectJavaVersion(string(source))
	var version *ir.Version
	if detection.Confidence >= ir.MinConfidence {
		v := detection.Version
		version = &v
	}

	for i := 0; i < int(root.NamedChildCount()); i++ {
		h.walkType(&res, root.NamedChild(i), pkgID, pkgName, filePath, source, commitSHA, version)
	}

	return res, nil
}

func javaVisibility(mods *sitter.Node, source []byte) string {
	if mods == nil {
		return "package-private"
	}
	text := textOf(mods, source)
	switch {
	case strings.Contains(text, "public"):
		return "public"
	case strings.Contains(text, "protected"):
		return "protected"
	case strings.Contains(text, "private"):
		return "private"
	}
	return "package-private"
}

func javaModifierFlags(mods *sitter.Node, source []byte) map[string]any {
	if mods == nil {
		return nil
	}
	text := textOf(mods, source)
	meta := map[string]any{}
	for _, flag := range []string{"sealed", "non-sealed", "final", "static", "abstract"} {
		if strings.Contains(text, flag) {
			meta[flag] = true
		}
	}
	var annotations []string
	for _, a := range findNodes(mods, map[string]bool{"annotation": true, "marker_annotation": true}, true) {
		annotations = append(annotations, strings.TrimPrefix(textOf(a, source), "@"))
	}
	if len(annotations) > 0 {
		meta["annotations"] = annotations
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}

func (h *JavaHarness) walkType(res *Result, node *sitter.Node, containerID, containerFQN, filePath string, source []byte, commitSHA string, version *ir.Version) {
	kind, ok := javaTypeKinds[node.Type()]
	if !ok {
		return
	}
	name := childByFieldNameText(node, "name", source)
	if name == "" {
		return
	}
	mods := node.ChildByFieldName("modifiers")
	fqn := name
	if containerFQN != "" {
		fqn = containerFQN + "." + name
	}
	id := makeID(commitSHA, filePath, ir.LangJava, fqn, textOf(node, source))
	sym := ir.Symbol{
		ID: id, Lang: ir.LangJava, Kind: kind, Name: name, FQN: fqn,
		FilePath: filePath, Span: spanOf(node), Visibility: javaVisibility(mods, source),
		SigHash: ir.SigHash(textOf(node, source)), LangVersion: version,
	}
	res.addSymbol(sym)
	res.addEdge(ir.Edge{Type: ir.EdgeContains, Src: containerID, Dst: id, Resolution: ir.ResolutionSyntactic, Meta: javaModifierFlags(mods, source)})
	res.addOccurrence(definitionOccurrence(filePath, id, node.ChildByFieldName("name"), node, source))

	if sc := node.ChildByFieldName("superclass"); sc != nil {
		baseName := extractJavaTypeName(sc, source)
		if baseName != "" {
			res.addEdge(ir.Edge{Type: ir.EdgeExtends, Src: id, Dst: baseName, Resolution: ir.ResolutionSyntactic})
			res.addOccurrence(ir.Occurrence{FilePath: filePath, Role: ir.RoleExtend, Span: spanOf(sc), Token: baseName})
		}
	}
	if ifaces := node.ChildByFieldName("interfaces"); ifaces != nil {
		for _, t := range findNodes(ifaces, map[string]bool{"type_identifier": true, "generic_type": true}, true) {
			baseName := textOf(t, source)
			if baseName == "" {
				continue
			}
			res.addEdge(ir.Edge{Type: ir.EdgeImplements, Src: id, Dst: baseName, Resolution: ir.ResolutionSyntactic})
			res.addOccurrence(ir.Occurrence{FilePath: filePath, Role: ir.RoleImplement, Span: spanOf(t), Token: baseName})
		}
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		switch {
		case javaTypeKinds[member.Type()] != "":
			h.walkType(res, member, id, fqn, filePath, source, commitSHA, version) // nested/inner class: Contains edge
		case member.Type() == "method_declaration" || member.Type() == "constructor_declaration":
			h.emitMethod(res, member, id, fqn, filePath, source, commitSHA, version)
		case member.Type() == "field_declaration":
			h.emitFields(res, member, id, fqn, filePath, source, commitSHA)
		}
	}
}

func extractJavaTypeName(n *sitter.Node, source []byte) string {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() == "type_identifier" || c.Type() == "generic_type" || c.Type() == "scoped_type_identifier" {
			return textOf(c, source)
		}
	}
	return textOf(n, source)
}

func (h *JavaHarness) emitMethod(res *Result, node *sitter.Node, classID, classFQN, filePath string, source []byte, commitSHA string, version *ir.Version) {
	name := childByFieldNameText(node, "name", source)
	if name == "" {
		return
	}
	fqn := classFQN + "." + name
	id := makeID(commitSHA, filePath, ir.LangJava, fqn, textOf(node, source))
	mods := node.ChildByFieldName("modifiers")
	res.addSymbol(ir.Symbol{
		ID: id, Lang: ir.LangJava, Kind: ir.KindMethod, Name: name, FQN: fqn,
		FilePath: filePath, Span: spanOf(node), Visibility: javaVisibility(mods, source),
		SigHash: ir.SigHash(textOf(node, source)), LangVersion: version,
	})
	res.addEdge(ir.Edge{Type: ir.EdgeContains, Src: classID, Dst: id, Resolution: ir.ResolutionSyntactic, Meta: javaModifierFlags(mods, source)})
	res.addOccurrence(definitionOccurrence(filePath, id, node.ChildByFieldName("name"), node, source))
	h.emitCalls(res, node, id, filePath, source)
}

func (h *JavaHarness) emitFields(res *Result, node *sitter.Node, classID, classFQN, filePath string, source []byte, commitSHA string) {
	mods := node.ChildByFieldName("modifiers")
	vis := javaVisibility(mods, source)
	for _, decl := range findNodes(node, map[string]bool{"variable_declarator": true}, true) {
		name := childByFieldNameText(decl, "name", source)
		if name == "" {
			continue
		}
		fqn := classFQN + "." + name
		id := makeID(commitSHA, filePath, ir.LangJava, fqn, textOf(node, source))
		res.addSymbol(ir.Symbol{
			ID: id, Lang: ir.LangJava, Kind: ir.KindField, Name: name, FQN: fqn,
			FilePath: filePath, Span: spanOf(decl), Visibility: vis, SigHash: ir.SigHash(textOf(decl, source)),
		})
		res.addEdge(ir.Edge{Type: ir.EdgeContains, Src: classID, Dst: id, Resolution: ir.ResolutionSyntactic})
		res.addOccurrence(definitionOccurrence(filePath, id, decl.ChildByFieldName("name"), decl, source))
	}
}

func (h *JavaHarness) emitCalls(res *Result, fn *sitter.Node, enclosingID, filePath string, source []byte) {
	for _, call := range findNodes(fn, map[string]bool{"method_invocation": true}, false) {
		nameNode := call.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		name := textOf(nameNode, source)
		if name == "" {
			continue
		}
		res.addEdge(ir.Edge{Type: ir.EdgeCalls, Src: enclosingID, Dst: name, Resolution: ir.ResolutionSyntactic})
		res.addOccurrence(ir.Occurrence{FilePath: filePath, Role: ir.RoleCall, Span: spanOf(nameNode), Token: name})
	}
}
