// Package clierr provides the closed error taxonomy described in spec.md §7: fatal
// errors abort a scan, recoverable-per-file and recoverable-per-language errors are
// logged and the scan continues.
package clierr

import "fmt"

// Code is a stable, closed enumeration of failure kinds.
type Code string

const (
	// Fatal errors abort the scan and yield a non-zero CLI exit code.
	StoreOpenFailed     Code = "STORE_OPEN_FAILED"
	SchemaMismatch      Code = "SCHEMA_MISMATCH"
	CommitWriteConflict Code = "COMMIT_WRITE_CONFLICT"
	DiskFull            Code = "DISK_FULL"

	// Recoverable-per-file: logged as a warning, harness returns zero symbols.
	ParserFailure Code = "PARSER_FAILURE"

	// Recoverable-per-language: the semantic pass is skipped for that language.
	IndexerMissing   Code = "INDEXER_MISSING"
	IndexerTimeout   Code = "INDEXER_TIMEOUT"
	IndexerFailed    Code = "INDEXER_FAILED"
	MalformedSCIP    Code = "MALFORMED_SCIP"

	// Silent: logged at debug only, never surfaced.
	DuplicateUpsert Code = "DUPLICATE_UPSERT"
	FQNLookupMiss   Code = "FQN_LOOKUP_MISS"
)

// Severity classifies a Code's propagation policy.
type Severity int

const (
	SeverityFatal Severity = iota
	SeverityPerFile
	SeverityPerLanguage
	SeveritySilent
)

var severities = map[Code]Severity{
	StoreOpenFailed:     SeverityFatal,
	SchemaMismatch:      SeverityFatal,
	CommitWriteConflict: SeverityFatal,
	DiskFull:            SeverityFatal,
	ParserFailure:       SeverityPerFile,
	IndexerMissing:      SeverityPerLanguage,
	IndexerTimeout:      SeverityPerLanguage,
	IndexerFailed:       SeverityPerLanguage,
	MalformedSCIP:       SeverityPerLanguage,
	DuplicateUpsert:     SeveritySilent,
	FQNLookupMiss:       SeveritySilent,
}

// SeverityOf returns the propagation policy for a Code.
func SeverityOf(c Code) Severity {
	if sev, ok := severities[c]; ok {
		return sev
	}
	return SeverityFatal
}

// Error is a taxonomy-tagged error.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New constructs a taxonomy error.
func New(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// IsFatal reports whether an error's Code should abort the scan.
func IsFatal(err error) bool {
	var ce *Error
	if e, ok := err.(*Error); ok {
		ce = e
	} else {
		return false
	}
	return SeverityOf(ce.Code) == SeverityFatal
}
