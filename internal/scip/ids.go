package scip

import (
	"fmt"
	"strings"
)

// Identifier is a parsed SCIP symbol identifier:
// <scheme> <manager> <package> [<version>] <descriptor>
//
// Examples:
//
//	scip-typescript npm @types/node 18.0.0 process.
//	scip-go gomod codegraph v0.0.0-abc123 `codegraph/internal/ir`/Symbol#
type Identifier struct {
	Scheme     string
	Manager    string
	Package    string
	Descriptor string
	Raw        string
}

// ParseIdentifier parses a raw SCIP symbol string.
func ParseIdentifier(id string) (*Identifier, error) {
	if id == "" {
		return nil, fmt.Errorf("empty SCIP identifier")
	}

	parts := strings.SplitN(id, " ", 5)
	if len(parts) < 4 {
		return nil, fmt.Errorf("invalid SCIP identifier format: %s", id)
	}

	result := &Identifier{
		Scheme:  parts[0],
		Manager: parts[1],
		Package: parts[2],
		Raw:     id,
	}

	if len(parts) == 4 {
		result.Descriptor = parts[3]
	} else {
		result.Descriptor = parts[4]
	}

	return result, nil
}

// Language extracts the language name from the scheme, e.g. "scip-go" -> "go".
func (s *Identifier) Language() string {
	if strings.HasPrefix(s.Scheme, "scip-") {
		return s.Scheme[len("scip-"):]
	}
	return s.Scheme
}

// SimpleName extracts the unqualified symbol name from the descriptor.
func (s *Identifier) SimpleName() string {
	descriptor := s.Descriptor
	descriptor = strings.TrimSuffix(descriptor, ".")
	descriptor = strings.TrimSuffix(descriptor, "#")

	if strings.Contains(descriptor, "`") {
		lastBacktick := strings.LastIndex(descriptor, "`")
		if lastBacktick != -1 && lastBacktick < len(descriptor)-1 {
			remainder := descriptor[lastBacktick+1:]
			if idx := strings.LastIndex(remainder, "/"); idx != -1 {
				name := remainder[idx+1:]
				return strings.TrimSuffix(name, "()")
			}
		}
	}

	if idx := strings.LastIndex(descriptor, "/"); idx != -1 {
		name := descriptor[idx+1:]
		return strings.TrimSuffix(name, "()")
	}

	parts := strings.Split(descriptor, ".")
	if len(parts) == 0 {
		return descriptor
	}
	name := parts[len(parts)-1]
	return strings.TrimSuffix(name, "()")
}

// ContainerName extracts the enclosing path from the descriptor.
func (s *Identifier) ContainerName() string {
	descriptor := strings.TrimSuffix(s.Descriptor, ".")
	parts := strings.Split(descriptor, ".")
	if len(parts) <= 1 {
		return ""
	}
	return strings.Join(parts[:len(parts)-1], ".")
}

// QualifiedName joins the package and descriptor into one human-readable FQN.
func (s *Identifier) QualifiedName() string {
	return fmt.Sprintf("%s.%s", s.Package, s.Descriptor)
}

// IsLocal reports whether this symbol has no external package (a file-local symbol).
func (s *Identifier) IsLocal() bool {
	return s.Package == "" || s.Package == "."
}

// ExtractSymbolKind infers a coarse kind from the descriptor's trailing suffix, per
// spec.md §4.5's descriptor-suffix table (# class, . field, () method, : type, / namespace).
func (s *Identifier) ExtractSymbolKind() SymbolKind {
	descriptor := s.Descriptor
	if descriptor == "" {
		return KindUnknown
	}

	switch {
	case strings.Contains(descriptor, "("):
		return KindFunction
	case strings.HasSuffix(descriptor, "#"):
		return KindClass
	case strings.HasSuffix(descriptor, ":"):
		return KindType
	case strings.HasSuffix(descriptor, "/"):
		return KindNamespace
	}

	simpleName := s.SimpleName()
	if simpleName == strings.ToUpper(simpleName) && len(simpleName) > 1 {
		return KindConstant
	}
	return KindField
}

// IsMethodDescriptor reports whether descriptor denotes a method/function.
func IsMethodDescriptor(descriptor string) bool {
	return strings.Contains(descriptor, "(") && strings.Contains(descriptor, ")")
}

// IsTypeDescriptor reports whether descriptor denotes a type/class.
func IsTypeDescriptor(descriptor string) bool {
	return strings.HasSuffix(descriptor, "#")
}

// IsValidIdentifier reports whether id is at least structurally a SCIP symbol.
func IsValidIdentifier(id string) bool {
	if id == "" {
		return false
	}
	if !strings.HasPrefix(id, "scip-") && !strings.HasPrefix(id, "local") {
		return false
	}
	parts := strings.SplitN(id, " ", 4)
	return len(parts) >= 4
}
