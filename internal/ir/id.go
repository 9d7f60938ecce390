package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// SigHash computes a short stable hash over a symbol's declaration text (or, lacking
// one, its name). It is a pure function of its input (invariant 6).
func SigHash(declarationText string) string {
	sum := sha256.Sum256([]byte(declarationText))
	return hex.EncodeToString(sum[:])[:12]
}

// GenerateID builds the stable, content-addressed symbol ID:
//
//	repo://{commit_sha}/{file_path}/#sym({lang_lower}:{fqn}:{sig_hash})
//
// The scheme guarantees uniqueness within (commit, file, language, fqn, signature)
// and idempotence: re-parsing unchanged content produces identical IDs.
func GenerateID(commitSHA, filePath string, lang Language, fqn, sigHash string) string {
	cleanPath := strings.TrimPrefix(filePath, "/")
	return fmt.Sprintf("repo://%s/%s/#sym(%s:%s:%s)", commitSHA, cleanPath, strings.ToLower(string(lang)), fqn, sigHash)
}
