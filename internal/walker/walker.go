// Package walker enumerates indexable files under a repo root (C2), honoring
// hidden-directory rules, gitignore patterns, and a vendor-directory denylist, and
// provides the deterministic content hash used for change detection.
package walker

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultExtensions is the set of file extensions considered indexable.
var DefaultExtensions = map[string]bool{
	".ts": true, ".tsx": true, ".js": true, ".jsx": true, ".mjs": true,
	".py": true, ".pyi": true,
	".go": true,
	".rs": true,
	".java": true,
	".c": true, ".h": true, ".cc": true, ".cpp": true, ".cxx": true, ".hpp": true, ".hxx": true,
}

// vendorDenylist is skipped regardless of ignore rules.
var vendorDenylist = []string{"node_modules", "vendor", ".next", "dist", "build"}

// Walker enumerates files under Root whose extension is in Extensions.
type Walker struct {
	Root       string
	Extensions map[string]bool
}

// New creates a Walker rooted at root, using DefaultExtensions.
func New(root string) *Walker {
	return &Walker{Root: root, Extensions: DefaultExtensions}
}

// Walk returns the ordered (path-sorted) list of indexable files under Root.
// I/O errors reading individual entries are skipped; a failure to open the root is
// fatal and returned as an error.
func (w *Walker) Walk() ([]string, error) {
	if _, err := os.Stat(w.Root); err != nil {
		return nil, err
	}

	ignore := loadIgnoreRules(w.Root)

	var files []string
	err := filepath.Walk(w.Root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // per-entry I/O errors are logged upstream and skipped
		}

		rel, relErr := filepath.Rel(w.Root, path)
		if relErr != nil {
			return nil
		}
		if rel == "." {
			return nil
		}

		if info.IsDir() {
			name := info.Name()
			if name != "." && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			if isVendorPath(rel) {
				return filepath.SkipDir
			}
			if ignore.matchesDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if isVendorPath(rel) {
			return nil
		}
		if ignore.matches(rel) {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if !w.Extensions[ext] {
			return nil
		}

		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

func isVendorPath(relPath string) bool {
	parts := strings.Split(filepath.ToSlash(relPath), "/")
	for _, part := range parts {
		for _, v := range vendorDenylist {
			if part == v {
				return true
			}
		}
	}
	return false
}

// HashBytes computes a deterministic content hash: SHA-256 over the raw bytes.
// It is stable across platforms and differs for any single-byte change.
func HashBytes(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// HashFile reads path and returns HashBytes of its contents.
func HashFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return HashBytes(content), nil
}

// ignoreRules is a minimal glob-based matcher for gitignore-style patterns, combining
// repo-level .gitignore, a global gitignore, and .git/info/exclude, per §4.2. The pack
// carries no dedicated gitignore-matching library, so this is a small hand-rolled
// matcher in the teacher's own filepath-walk idiom (see DESIGN.md).
type ignoreRules struct {
	patterns []string
}

func loadIgnoreRules(root string) *ignoreRules {
	r := &ignoreRules{}
	r.loadFile(filepath.Join(root, ".gitignore"))
	r.loadFile(filepath.Join(root, ".git", "info", "exclude"))
	if home, err := os.UserHomeDir(); err == nil {
		r.loadFile(filepath.Join(home, ".gitignore_global"))
	}
	return r
}

func (r *ignoreRules) loadFile(path string) {
	f, err := os.Open(path)
	if err != nil {
		return // absent ignore files are not an error; walker tolerates non-repo roots
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		r.patterns = append(r.patterns, line)
	}
}

func (r *ignoreRules) matches(relPath string) bool {
	return r.matchAny(relPath, false)
}

func (r *ignoreRules) matchesDir(relPath string) bool {
	return r.matchAny(relPath, true)
}

func (r *ignoreRules) matchAny(relPath string, isDir bool) bool {
	slashPath := filepath.ToSlash(relPath)
	base := filepath.Base(relPath)

	for _, pattern := range r.patterns {
		p := pattern
		dirOnly := strings.HasSuffix(p, "/")
		p = strings.TrimSuffix(p, "/")
		if dirOnly && !isDir {
			continue
		}

		if ok, _ := filepath.Match(p, base); ok {
			return true
		}
		if ok, _ := filepath.Match(p, slashPath); ok {
			return true
		}
		if strings.Contains(p, "/") {
			continue
		}
		// Bare basename patterns (e.g. "*.log") also match nested paths.
		for _, segment := range strings.Split(slashPath, "/") {
			if ok, _ := filepath.Match(p, segment); ok {
				return true
			}
		}
	}
	return false
}
