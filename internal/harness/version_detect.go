package harness

import (
	"strings"

	"codegraph/internal/ir"
)

// detectCppVersion ports the original cpp_harness's heuristic source-feature scan:
// later checks are progressively older language features, and the first match wins.
// Grounded on version_detector.rs's from_source/from_extension ordering.
func detectCppVersion(content, ext string) ir.Detection {
	switch {
	case strings.Contains(content, "co_await") || strings.Contains(content, "co_yield") || strings.Contains(content, "co_return"):
		return ir.NewDetection(ir.VersionCpp20, 0.95, "found coroutine keywords")
	case strings.Contains(content, "concept ") || strings.Contains(content, "requires "):
		return ir.NewDetection(ir.VersionCpp20, 0.9, "found concepts")
	case strings.Contains(content, "<=>"):
		return ir.NewDetection(ir.VersionCpp20, 0.9, "found spaceship operator")
	case strings.Contains(content, "import ") && !strings.Contains(content, "#import"):
		return ir.NewDetection(ir.VersionCpp20, 0.85, "found module import")
	case strings.Contains(content, "if constexpr"):
		return ir.NewDetection(ir.VersionCpp17, 0.9, "found if constexpr")
	case strings.Contains(content, "[[nodiscard]]") || strings.Contains(content, "[[maybe_unused]]"):
		return ir.NewDetection(ir.VersionCpp17, 0.8, "found C++17 attributes")
	case strings.Contains(content, "std::optional") || strings.Contains(content, "std::variant") || strings.Contains(content, "std::any"):
		return ir.NewDetection(ir.VersionCpp17, 0.8, "found C++17 stdlib types")
	case strings.Contains(content, "auto ") && strings.Contains(content, "return") && strings.Contains(content, "->"):
		return ir.NewDetection(ir.VersionCpp14, 0.7, "found auto return type")
	case strings.Contains(content, "nullptr"):
		return ir.NewDetection(ir.VersionCpp11, 0.8, "found nullptr")
	case strings.Contains(content, "override") || strings.Contains(content, "final"):
		return ir.NewDetection(ir.VersionCpp11, 0.8, "found override/final")
	case strings.Contains(content, "auto ") && !strings.Contains(content, "auto*"):
		return ir.NewDetection(ir.VersionCpp11, 0.7, "found auto keyword")
	case strings.Contains(content, "= delete") || strings.Contains(content, "= default"):
		return ir.NewDetection(ir.VersionCpp11, 0.8, "found deleted/defaulted functions")
	case strings.Contains(content, "constexpr"):
		return ir.NewDetection(ir.VersionCpp11, 0.8, "found constexpr")
	case strings.Contains(content, "std::unique_ptr") || strings.Contains(content, "std::shared_ptr"):
		return ir.NewDetection(ir.VersionCpp11, 0.8, "found smart pointers")
	case strings.Contains(content, "_Static_assert"):
		return ir.NewDetection(ir.VersionC11, 0.7, "found _Static_assert")
	case strings.Contains(content, "_Alignas") || strings.Contains(content, "_Alignof"):
		return ir.NewDetection(ir.VersionC11, 0.7, "found C11 alignment")
	case strings.Contains(content, "restrict"):
		return ir.NewDetection(ir.VersionC99, 0.6, "found restrict keyword")
	case strings.Contains(content, "class ") || strings.Contains(content, "namespace ") || strings.Contains(content, "template<"):
		return ir.NewDetection(ir.VersionCpp98, 0.6, "found basic C++ features")
	case strings.Contains(content, "#include <iostream>") || strings.Contains(content, "std::"):
		return ir.NewDetection(ir.VersionCpp98, 0.4, "found C++ stdlib usage")
	}

	switch ext {
	case ".c", ".h":
		return ir.NewDetection(ir.VersionC11, 0.3, "default C version from extension")
	case ".cpp", ".cxx", ".cc", ".hpp", ".hxx":
		return ir.NewDetection(ir.VersionCpp17, 0.4, "default C++ version from extension")
	}
	return ir.NewDetection(ir.VersionC89, 0.3, "no modern features detected")
}

// detectJavaVersion ports java_harness's version_detector.rs source-feature scan.
func detectJavaVersion(content string) ir.Detection {
	switch {
	case strings.Contains(content, "Thread.startVirtualThread") || strings.Contains(content, "virtual Thread"):
		return ir.NewDetection(ir.VersionJava21, 0.9, "found virtual threads")
	case strings.Contains(content, "sealed ") || strings.Contains(content, "permits "):
		return ir.NewDetection(ir.VersionJava17, 0.9, "found sealed classes")
	case strings.Contains(content, "case ") && strings.Contains(content, "->") && !strings.Contains(content, "switch"):
		return ir.NewDetection(ir.VersionJava17, 0.8, "found pattern matching in switch")
	case strings.Contains(content, `"""`):
		return ir.NewDetection(ir.VersionJava17, 0.8, "found text blocks")
	case strings.Contains(content, "var ") && !strings.Contains(content, "var["):
		return ir.NewDetection(ir.VersionJava11, 0.8, "found var keyword")
	case strings.Contains(content, "HttpClient.newHttpClient"):
		return ir.NewDetection(ir.VersionJava11, 0.8, "found new HTTP client")
	case strings.Contains(content, "->") && (strings.Contains(content, "(") || strings.Contains(content, "::")):
		return ir.NewDetection(ir.VersionJava8, 0.7, "found lambda expressions")
	case strings.Contains(content, "stream()") || strings.Contains(content, "Stream<"):
		return ir.NewDetection(ir.VersionJava8, 0.7, "found streams")
	case strings.Contains(content, "Optional<") || strings.Contains(content, "Optional."):
		return ir.NewDetection(ir.VersionJava8, 0.7, "found Optional")
	case strings.Contains(content, "@FunctionalInterface"):
		return ir.NewDetection(ir.VersionJava8, 0.8, "found @FunctionalInterface")
	}
	return ir.NewDetection(ir.VersionJava8, 0.4, "default Java version")
}
