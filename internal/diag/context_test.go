package diag

import (
	"testing"
)

func TestContextStartsEmpty(t *testing.T) {
	t.Parallel()
	c := NewContext()

	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
	if c.HasWarnings() {
		t.Error("HasWarnings = true for empty context")
	}
	if c.HasErrors() {
		t.Error("HasErrors = true for empty context")
	}
	if !c.OK() {
		t.Error("OK = false for empty context")
	}
}

func TestContextPreservesOrder(t *testing.T) {
	t.Parallel()
	c := NewContext()

	c.Infof(CodeEmptySourceSet, "", "no sources")
	c.Warnf(CodeRepeatedName, "src/a.ts", "name %q repeated", "parse")
	c.Errorf(CodeDuplicateName, "src/b.ts", "duplicate %q", "Button")

	items := c.Items()
	if len(items) != 3 {
		t.Fatalf("Len = %d, want 3", len(items))
	}
	if items[0].Severity != SevInfo || items[0].Code != CodeEmptySourceSet {
		t.Errorf("items[0] = %+v", items[0])
	}
	if items[1].Severity != SevWarning || items[1].Message != `name "parse" repeated` {
		t.Errorf("items[1] = %+v", items[1])
	}
	if items[2].Severity != SevError || items[2].Path != "src/b.ts" {
		t.Errorf("items[2] = %+v", items[2])
	}
}

func TestContextSeverityFlags(t *testing.T) {
	t.Parallel()

	c := NewContext()
	c.Infof(CodeEmptySourceSet, "", "nothing to do")
	if c.HasWarnings() || c.HasErrors() {
		t.Error("info alone should not set warning/error flags")
	}

	c.Warnf(CodeStarTargetMissing, "src/index.ts", "missing target")
	if !c.HasWarnings() {
		t.Error("HasWarnings = false after Warnf")
	}
	if c.HasErrors() {
		t.Error("HasErrors = true without errors")
	}
	if !c.OK() {
		t.Error("OK = false without errors")
	}

	c.Errorf(CodeDuplicateName, "src/x.ts", "duplicate")
	if !c.HasErrors() {
		t.Error("HasErrors = false after Errorf")
	}
	if c.OK() {
		t.Error("OK = true after Errorf")
	}
}

func TestContextMerge(t *testing.T) {
	t.Parallel()

	a := NewContext()
	a.Warnf(CodeRepeatedName, "src/a.ts", "first")

	b := NewContext()
	b.Errorf(CodeDuplicateName, "src/b.ts", "second")
	b.Infof(CodeEmptySourceSet, "", "third")

	a.Merge(b)
	a.Merge(nil)

	items := a.Items()
	if len(items) != 3 {
		t.Fatalf("Len = %d, want 3", len(items))
	}
	if items[0].Message != "first" || items[1].Message != "second" || items[2].Message != "third" {
		t.Errorf("merge order wrong: %+v", items)
	}
	if !a.HasErrors() {
		t.Error("HasErrors = false after merging an error")
	}
}

func TestDiagnosticString(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		d    Diagnostic
		want string
	}{
		{
			name: "path and line",
			d:    Diagnostic{Severity: SevWarning, Code: CodeRepeatedName, Message: "repeated", Path: "src/a.ts", Line: 12},
			want: "warning src/a.ts:12 repeated_name: repeated",
		},
		{
			name: "path only",
			d:    Diagnostic{Severity: SevError, Code: CodeDuplicateName, Message: "dup", Path: "src/b.ts"},
			want: "error src/b.ts duplicate_name: dup",
		},
		{
			name: "no location",
			d:    Diagnostic{Severity: SevInfo, Code: CodeEmptySourceSet, Message: "empty"},
			want: "info empty_source_set: empty",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.d.String(); got != tc.want {
				t.Errorf("String() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSeverityString(t *testing.T) {
	t.Parallel()

	if SevInfo.String() != "info" {
		t.Errorf("SevInfo = %q", SevInfo.String())
	}
	if SevWarning.String() != "warning" {
		t.Errorf("SevWarning = %q", SevWarning.String())
	}
	if SevError.String() != "error" {
		t.Errorf("SevError = %q", SevError.String())
	}
}
