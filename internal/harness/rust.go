package harness

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"

	"codegraph/internal/clierr"
	"codegraph/internal/ir"
)

// RustHarness parses Rust source using the tree-sitter Rust grammar.
type RustHarness struct{}

func NewRustHarness() *RustHarness { return &RustHarness{} }

func (h *RustHarness) Language() ir.Language { return ir.LangRust }

func (h *RustHarness) Parse(ctx context.Context, filePath string, source []byte, commitSHA string) (Result, error) {
	var res Result

	tree, err := parseTree(ctx, rust.GetLanguage(), source)
	if err != nil {
		return res, clierr.New(clierr.ParserFailure, "rust parse failed: "+filePath, err)
	}
	root := tree.RootNode()
	if root == nil {
		return res, nil
	}

	crateFQN := "crate"
	crateID := makeID(commitSHA, filePath, ir.LangRust, crateFQN, filePath)
	res.addSymbol(ir.Symbol{
		ID: crateID, Lang: ir.LangRust, Kind: ir.KindModule, Name: crateFQN, FQN: crateFQN,
		FilePath: filePath, Span: spanOf(root), Visibility: "public", SigHash: ir.SigHash(filePath),
	})
	res.addOccurrence(ir.Occurrence{FilePath: filePath, SymbolID: crateID, Role: ir.RoleDefinition, Span: spanOf(root), Token: crateFQN})

	typeIDs := map[string]string{}
	collectRustTypeIDs(root, crateFQN, filePath, commitSHA, source, typeIDs)

	h.walkItems(&res, root, crateID, crateFQN, filePath, source, commitSHA, typeIDs)
	return res, nil
}

// collectRustTypeIDs pre-scans every struct/enum/trait/mod in the file so that
// `impl Trait for Type` (processed in file order, which may precede Type's own
// definition) can look up Type's real symbol ID instead of guessing one — the ID
// scheme is content-addressed by declaration text, so a synthesized guess would
// not match the ID walkItems actually assigns the symbol.
func collectRustTypeIDs(scope *sitter.Node, containerFQN, filePath, commitSHA string, source []byte, out map[string]string) {
	for i := 0; i < int(scope.NamedChildCount()); i++ {
		item := scope.NamedChild(i)
		switch item.Type() {
		case "mod_item":
			name := childByFieldNameText(item, "name", source)
			if name == "" {
				continue
			}
			fqn := containerFQN + "::" + name
			out[fqn] = makeID(commitSHA, filePath, ir.LangRust, fqn, textOf(item, source))
			if body := item.ChildByFieldName("body"); body != nil {
				collectRustTypeIDs(body, fqn, filePath, commitSHA, source, out)
			}
		case "struct_item", "enum_item", "trait_item":
			name := childByFieldNameText(item, "name", source)
			if name == "" {
				continue
			}
			fqn := containerFQN + "::" + name
			out[fqn] = makeID(commitSHA, filePath, ir.LangRust, fqn, textOf(item, source))
		}
	}
}

func rustVisibility(n *sitter.Node, source []byte) string {
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == "visibility_modifier" {
			return "public"
		}
	}
	return "private"
}

func (h *RustHarness) walkItems(res *Result, scope *sitter.Node, containerID, containerFQN, filePath string, source []byte, commitSHA string, typeIDs map[string]string) {
	for i := 0; i < int(scope.NamedChildCount()); i++ {
		item := scope.NamedChild(i)
		switch item.Type() {
		case "mod_item":
			name := childByFieldNameText(item, "name", source)
			if name == "" {
				continue
			}
			fqn := containerFQN + "::" + name
			id := makeID(commitSHA, filePath, ir.LangRust, fqn, textOf(item, source))
			res.addSymbol(ir.Symbol{
				ID: id, Lang: ir.LangRust, Kind: ir.KindModule, Name: name, FQN: fqn,
				FilePath: filePath, Span: spanOf(item), Visibility: rustVisibility(item, source), SigHash: ir.SigHash(textOf(item, source)),
			})
			res.addEdge(ir.Edge{Type: ir.EdgeContains, Src: containerID, Dst: id, Resolution: ir.ResolutionSyntactic})
			res.addOccurrence(definitionOccurrence(filePath, id, item.ChildByFieldName("name"), item, source))
			if body := item.ChildByFieldName("body"); body != nil {
				h.walkItems(res, body, id, fqn, filePath, source, commitSHA, typeIDs)
			}

		case "struct_item":
			name := childByFieldNameText(item, "name", source)
			if name == "" {
				continue
			}
			fqn := containerFQN + "::" + name
			id := makeID(commitSHA, filePath, ir.LangRust, fqn, textOf(item, source))
			res.addSymbol(ir.Symbol{
				ID: id, Lang: ir.LangRust, Kind: ir.KindStruct, Name: name, FQN: fqn,
				FilePath: filePath, Span: spanOf(item), Visibility: rustVisibility(item, source), SigHash: ir.SigHash(textOf(item, source)),
			})
			res.addEdge(ir.Edge{Type: ir.EdgeContains, Src: containerID, Dst: id, Resolution: ir.ResolutionSyntactic})
			res.addOccurrence(definitionOccurrence(filePath, id, item.ChildByFieldName("name"), item, source))
			if body := item.ChildByFieldName("body"); body != nil {
				for _, fld := range findNodes(body, map[string]bool{"field_declaration": true}, true) {
					fname := childByFieldNameText(fld, "name", source)
					if fname == "" {
						continue
					}
					ffqn := fqn + "." + fname
					fid := makeID(commitSHA, filePath, ir.LangRust, ffqn, textOf(fld, source))
					res.addSymbol(ir.Symbol{
						ID: fid, Lang: ir.LangRust, Kind: ir.KindField, Name: fname, FQN: ffqn,
						FilePath: filePath, Span: spanOf(fld), Visibility: rustVisibility(fld, source), SigHash: ir.SigHash(textOf(fld, source)),
					})
					res.addEdge(ir.Edge{Type: ir.EdgeContains, Src: id, Dst: fid, Resolution: ir.ResolutionSyntactic})
					res.addOccurrence(definitionOccurrence(filePath, fid, fld.ChildByFieldName("name"), fld, source))
				}
			}

		case "enum_item":
			name := childByFieldNameText(item, "name", source)
			if name == "" {
				continue
			}
			fqn := containerFQN + "::" + name
			id := makeID(commitSHA, filePath, ir.LangRust, fqn, textOf(item, source))
			res.addSymbol(ir.Symbol{
				ID: id, Lang: ir.LangRust, Kind: ir.KindEnum, Name: name, FQN: fqn,
				FilePath: filePath, Span: spanOf(item), Visibility: rustVisibility(item, source), SigHash: ir.SigHash(textOf(item, source)),
			})
			res.addEdge(ir.Edge{Type: ir.EdgeContains, Src: containerID, Dst: id, Resolution: ir.ResolutionSyntactic})
			res.addOccurrence(definitionOccurrence(filePath, id, item.ChildByFieldName("name"), item, source))
			for _, variant := range findNodes(item, map[string]bool{"enum_variant": true}, true) {
				vname := childByFieldNameText(variant, "name", source)
				if vname == "" {
					continue
				}
				vfqn := fqn + "::" + vname
				vid := makeID(commitSHA, filePath, ir.LangRust, vfqn, textOf(variant, source))
				res.addSymbol(ir.Symbol{
					ID: vid, Lang: ir.LangRust, Kind: ir.KindEnumMember, Name: vname, FQN: vfqn,
					FilePath: filePath, Span: spanOf(variant), Visibility: "public", SigHash: ir.SigHash(textOf(variant, source)),
				})
				res.addEdge(ir.Edge{Type: ir.EdgeContains, Src: id, Dst: vid, Resolution: ir.ResolutionSyntactic})
				res.addOccurrence(definitionOccurrence(filePath, vid, variant.ChildByFieldName("name"), variant, source))
			}

		case "trait_item":
			name := childByFieldNameText(item, "name", source)
			if name == "" {
				continue
			}
			fqn := containerFQN + "::" + name
			id := makeID(commitSHA, filePath, ir.LangRust, fqn, textOf(item, source))
			res.addSymbol(ir.Symbol{
				ID: id, Lang: ir.LangRust, Kind: ir.KindTrait, Name: name, FQN: fqn,
				FilePath: filePath, Span: spanOf(item), Visibility: rustVisibility(item, source), SigHash: ir.SigHash(textOf(item, source)),
			})
			res.addEdge(ir.Edge{Type: ir.EdgeContains, Src: containerID, Dst: id, Resolution: ir.ResolutionSyntactic})
			res.addOccurrence(definitionOccurrence(filePath, id, item.ChildByFieldName("name"), item, source))
			if body := item.ChildByFieldName("body"); body != nil {
				h.emitFunctions(res, body, id, fqn, filePath, source, commitSHA)
			}

		case "impl_item":
			typeNode := item.ChildByFieldName("type")
			traitNode := item.ChildByFieldName("trait")
			typeName := textOf(typeNode, source)
			if typeName == "" {
				continue
			}
			// The impl block itself has no symbol of its own; methods attach to
			// the struct/enum/trait it implements, resolved via typeIDs the same
			// way the Implements edge below resolves its Src.
			srcID, known := typeIDs[containerFQN+"::"+typeName]
			if !known {
				srcID = makeID(commitSHA, filePath, ir.LangRust, containerFQN+"::"+typeName, typeName)
			}
			if traitNode != nil {
				res.addEdge(ir.Edge{
					Type: ir.EdgeImplements, Src: srcID,
					Dst: textOf(traitNode, source), Resolution: ir.ResolutionSyntactic,
				})
				res.addOccurrence(ir.Occurrence{FilePath: filePath, Role: ir.RoleImplement, Span: spanOf(traitNode), Token: textOf(traitNode, source)})
			}
			if body := item.ChildByFieldName("body"); body != nil {
				h.emitMethods(res, body, srcID, containerFQN+"::"+typeName, filePath, source, commitSHA)
			}

		case "function_item":
			h.emitOneFunction(res, item, containerID, containerFQN, filePath, source, commitSHA)

		case "const_item":
			name := childByFieldNameText(item, "name", source)
			if name == "" {
				continue
			}
			fqn := containerFQN + "::" + name
			id := makeID(commitSHA, filePath, ir.LangRust, fqn, textOf(item, source))
			res.addSymbol(ir.Symbol{
				ID: id, Lang: ir.LangRust, Kind: ir.KindConstant, Name: name, FQN: fqn,
				FilePath: filePath, Span: spanOf(item), Visibility: rustVisibility(item, source), SigHash: ir.SigHash(textOf(item, source)),
			})
			res.addEdge(ir.Edge{Type: ir.EdgeContains, Src: containerID, Dst: id, Resolution: ir.ResolutionSyntactic})
			res.addOccurrence(definitionOccurrence(filePath, id, item.ChildByFieldName("name"), item, source))

		case "type_item":
			name := childByFieldNameText(item, "name", source)
			if name == "" {
				continue
			}
			fqn := containerFQN + "::" + name
			id := makeID(commitSHA, filePath, ir.LangRust, fqn, textOf(item, source))
			res.addSymbol(ir.Symbol{
				ID: id, Lang: ir.LangRust, Kind: ir.KindTypeAlias, Name: name, FQN: fqn,
				FilePath: filePath, Span: spanOf(item), Visibility: rustVisibility(item, source), SigHash: ir.SigHash(textOf(item, source)),
			})
			res.addEdge(ir.Edge{Type: ir.EdgeContains, Src: containerID, Dst: id, Resolution: ir.ResolutionSyntactic})
			res.addOccurrence(definitionOccurrence(filePath, id, item.ChildByFieldName("name"), item, source))
		}
	}
}

func (h *RustHarness) emitFunctions(res *Result, body *sitter.Node, containerID, containerFQN, filePath string, source []byte, commitSHA string) {
	for _, fn := range findNodes(body, map[string]bool{"function_item": true, "function_signature_item": true}, true) {
		h.emitOneFunction(res, fn, containerID, containerFQN, filePath, source, commitSHA)
	}
}

func (h *RustHarness) emitMethods(res *Result, body *sitter.Node, typeID, typeFQN, filePath string, source []byte, commitSHA string) {
	for _, fn := range findNodes(body, map[string]bool{"function_item": true}, true) {
		name := childByFieldNameText(fn, "name", source)
		if name == "" {
			continue
		}
		fqn := typeFQN + "." + name
		id := makeID(commitSHA, filePath, ir.LangRust, fqn, textOf(fn, source))
		res.addSymbol(ir.Symbol{
			ID: id, Lang: ir.LangRust, Kind: ir.KindMethod, Name: name, FQN: fqn,
			FilePath: filePath, Span: spanOf(fn), Visibility: rustVisibility(fn, source), SigHash: ir.SigHash(textOf(fn, source)),
		})
		res.addEdge(ir.Edge{Type: ir.EdgeContains, Src: typeID, Dst: id, Resolution: ir.ResolutionSyntactic})
		res.addOccurrence(definitionOccurrence(filePath, id, fn.ChildByFieldName("name"), fn, source))
		h.emitCalls(res, fn, id, filePath, source)
	}
}

func (h *RustHarness) emitOneFunction(res *Result, fn *sitter.Node, containerID, containerFQN, filePath string, source []byte, commitSHA string) {
	name := childByFieldNameText(fn, "name", source)
	if name == "" {
		return
	}
	fqn := containerFQN + "::" + name
	id := makeID(commitSHA, filePath, ir.LangRust, fqn, textOf(fn, source))
	res.addSymbol(ir.Symbol{
		ID: id, Lang: ir.LangRust, Kind: ir.KindFunction, Name: name, FQN: fqn,
		FilePath: filePath, Span: spanOf(fn), Visibility: rustVisibility(fn, source), SigHash: ir.SigHash(textOf(fn, source)),
	})
	res.addEdge(ir.Edge{Type: ir.EdgeContains, Src: containerID, Dst: id, Resolution: ir.ResolutionSyntactic})
	res.addOccurrence(definitionOccurrence(filePath, id, fn.ChildByFieldName("name"), fn, source))
	h.emitCalls(res, fn, id, filePath, source)
}

func (h *RustHarness) emitCalls(res *Result, fn *sitter.Node, enclosingID, filePath string, source []byte) {
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
