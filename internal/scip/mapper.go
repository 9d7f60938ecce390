package scip

import (
	"fmt"
	"strings"

	"codegraph/internal/ir"
)

// MapDocument translates one SCIP Document into IR symbols, edges, and occurrences,
// per spec.md §4.5's translation table. indexerName/indexerVersion stamp provenance
// on every semantic edge.
func MapDocument(doc *Document, indexerName, indexerVersion string) ([]ir.Symbol, []ir.Edge, []ir.Occurrence) {
	var symbols []ir.Symbol
	var edges []ir.Edge
	var occurrences []ir.Occurrence

	provenance := map[string]string{"source": fmt.Sprintf("%s@%s", indexerName, indexerVersion)}

	for _, sym := range doc.Symbols {
		ident, err := ParseIdentifier(sym.Symbol)
		if err != nil {
			continue
		}

		symbol := ir.Symbol{
			ID:       sym.Symbol,
			Lang:     languageFromSCIP(doc.Language),
			Kind:     mapSymbolKind(ident),
			Name:     ident.SimpleName(),
			FQN:      ident.QualifiedName(),
			FilePath: doc.RelativePath,
			Doc:      strings.Join(sym.Documentation, "\n"),
			SigHash:  ir.SigHash(sym.Symbol),
		}
		symbols = append(symbols, symbol)

		for _, rel := range sym.Relationships {
			edgeType, ok := edgeTypeFromRelationship(rel)
			if !ok {
				continue
			}
			edges = append(edges, ir.Edge{
				Type:       edgeType,
				Src:        sym.Symbol,
				Dst:        rel.Symbol,
				Resolution: ir.ResolutionSemantic,
				Provenance: provenance,
			})
		}
	}

	for _, occ := range doc.Occurrences {
		span, ok := normalizeRange(occ.Range)
		if !ok {
			continue
		}

		occurrences = append(occurrences, ir.Occurrence{
			FilePath: doc.RelativePath,
			SymbolID: occ.Symbol,
			Role:     roleFromSymbolRoles(occ.SymbolRoles),
			Span:     span,
			Token:    symbolSimpleNameOrEmpty(occ.Symbol),
		})
	}

	return symbols, edges, occurrences
}

func languageFromSCIP(lang string) ir.Language {
	switch strings.ToLower(lang) {
	case "typescript", "javascript":
		return ir.LangTypeScript
	case "python":
		return ir.LangPython
	case "go":
		return ir.LangGo
	case "rust":
		return ir.LangRust
	case "java":
		return ir.LangJava
	case "c":
		return ir.LangC
	case "cpp", "c++":
		return ir.LangCpp
	default:
		return ir.LangUnknown
	}
}

// mapSymbolKind applies the descriptor-suffix table from spec.md §4.5.
func mapSymbolKind(ident *Identifier) ir.SymbolKind {
	switch ident.ExtractSymbolKind() {
	case KindClass:
		return ir.KindClass
	case KindFunction, KindMethod:
		return ir.KindFunction
	case KindType:
		return ir.KindType
	case KindNamespace:
		return ir.KindNamespace
	case KindConstant:
		return ir.KindConstant
	default:
		return ir.KindField
	}
}

// edgeTypeFromRelationship maps a SCIP relationship flag to an EdgeType, per
// spec.md §4.5 ("is_implementation -> Implements, is_type_definition -> Extends,
// is_reference -> Reads").
func edgeTypeFromRelationship(rel *Relationship) (ir.EdgeType, bool) {
	switch {
	case rel.IsImplementation:
		return ir.EdgeImplements, true
	case rel.IsTypeDefinition:
		return ir.EdgeExtends, true
	case rel.IsReference:
		return ir.EdgeReads, true
	default:
		return "", false
	}
}

// roleFromSymbolRoles maps SCIP's symbol_roles bitmask to an OccurrenceRole.
func roleFromSymbolRoles(roles int32) ir.OccurrenceRole {
	switch {
	case roles&SymbolRoleDefinition != 0:
		return ir.RoleDefinition
	case roles&SymbolRoleWriteAccess != 0:
		return ir.RoleWrite
	case roles&SymbolRoleReadAccess != 0:
		return ir.RoleRead
	default:
		return ir.RoleReference
	}
}

// normalizeRange handles both SCIP range encodings: a 3-element
// [start_line, start_col, end_col] (single line) or a 4-element
// [start_line, start_col, end_line, end_col] (spanning lines).
func normalizeRange(r []int32) (ir.Span, bool) {
	switch len(r) {
	case 3:
		return ir.Span{
			StartLine: int(r[0]),
			StartCol:  int(r[1]),
			EndLine:   int(r[0]),
			EndCol:    int(r[2]),
		}, true
	case 4:
		return ir.Span{
			StartLine: int(r[0]),
			StartCol:  int(r[1]),
			EndLine:   int(r[2]),
			EndCol:    int(r[3]),
		}, true
	default:
		return ir.Span{}, false
	}
}

func symbolSimpleNameOrEmpty(symbol string) string {
	ident, err := ParseIdentifier(symbol)
	if err != nil {
		return ""
	}
	return ident.SimpleName()
}
