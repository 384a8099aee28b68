// Package diag accumulates structured diagnostics for one analysis run.
//
// A Context is created at the start of a run and passed by pointer
// through every extraction call, never stored in a package variable, so
// two runs in the same process cannot observe each other's findings.
// Diagnostics are advisory: they never abort a run by themselves. The
// caller inspects the Context after completion and decides.
package diag

import "fmt"

// Context is the per-run diagnostics sink.
type Context struct {
	items []Diagnostic
}

// NewContext returns an empty diagnostics sink for one run.
func NewContext() *Context {
	return &Context{}
}

// Add appends a diagnostic, preserving insertion order.
func (c *Context) Add(d Diagnostic) {
	c.items = append(c.items, d)
}

// Infof records an informational diagnostic.
func (c *Context) Infof(code, path, format string, args ...any) {
	c.Add(Diagnostic{Severity: SevInfo, Code: code, Path: path, Message: fmt.Sprintf(format, args...)})
}

// Warnf records a warning diagnostic.
func (c *Context) Warnf(code, path, format string, args ...any) {
	c.Add(Diagnostic{Severity: SevWarning, Code: code, Path: path, Message: fmt.Sprintf(format, args...)})
}

// Errorf records an error-severity diagnostic.
func (c *Context) Errorf(code, path, format string, args ...any) {
	c.Add(Diagnostic{Severity: SevError, Code: code, Path: path, Message: fmt.Sprintf(format, args...)})
}

// Items returns the diagnostics in insertion order.
// Do not modify the returned slice; it aliases the internal array.
func (c *Context) Items() []Diagnostic {
	return c.items
}

// Len returns the number of recorded diagnostics.
func (c *Context) Len() int {
	return len(c.items)
}

// HasWarnings reports whether any diagnostic is warning severity or above.
func (c *Context) HasWarnings() bool {
	for i := range c.items {
		if c.items[i].Severity >= SevWarning {
			return true
		}
	}
	return false
}

// HasErrors reports whether any diagnostic is error severity.
func (c *Context) HasErrors() bool {
	for i := range c.items {
		if c.items[i].Severity >= SevError {
			return true
		}
	}
	return false
}

// OK reports whether the run produced no error-severity diagnostics.
func (c *Context) OK() bool {
	return !c.HasErrors()
}

// Merge appends all diagnostics from other, preserving both orders.
// Used at the join point after parallel per-file extraction.
func (c *Context) Merge(other *Context) {
	if other == nil {
		return
	}
	c.items = append(c.items, other.items...)
}
