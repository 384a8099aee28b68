package diag

import "fmt"

// Diagnostic codes. Machine-readable identifiers so callers can branch
// on a condition without parsing messages.
const (
	CodeEmptySourceSet    = "empty_source_set"
	CodeFileNotIndexed    = "file_not_indexed"
	CodeDuplicateName     = "duplicate_name"
	CodeStarTargetMissing = "star_target_missing"
	CodeRepeatedName      = "repeated_name"
)

// Diagnostic is one structured, non-fatal finding produced during a run.
// Diagnostics are returned to callers through the Context rather than
// written to stderr so the rendering policy stays in one place.
type Diagnostic struct {
	// Severity is the diagnostic level.
	Severity Severity
	// Code is a machine-readable identifier (e.g. "file_not_indexed").
	Code string
	// Message is the human-readable description.
	Message string
	// Path is the file path the diagnostic refers to (optional).
	Path string
	// Line is the 1-based source line (0 when not applicable).
	Line int
}

// String renders the diagnostic in "severity path:line code: message" form.
func (d Diagnostic) String() string {
	loc := d.Path
	if d.Line > 0 {
		loc = fmt.Sprintf("%s:%d", d.Path, d.Line)
	}
	if loc == "" {
		return fmt.Sprintf("%s %s: %s", d.Severity, d.Code, d.Message)
	}
	return fmt.Sprintf("%s %s %s: %s", d.Severity, loc, d.Code, d.Message)
}
