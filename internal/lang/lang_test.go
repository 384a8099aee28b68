package lang

import (
	"testing"
)

func TestForExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ext  string
		want string
	}{
		{".ts", "typescript"},
		{".js", "typescript"},
		{".svelte", "svelte"},
		{".py", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			t.Parallel()
			l := ForExtension(tt.ext)
			got := ""
			if l != nil {
				got = l.Name
			}
			if got != tt.want {
				t.Errorf("ForExtension(%q) = %q, want %q", tt.ext, got, tt.want)
			}
		})
	}
}

func TestKindForPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want Kind
	}{
		{"src/lib/format.ts", KindModule},
		{"src/lib/Button.svelte", KindComponent},
		{"src/lib/legacy.js", KindModule},
		{"README.md", KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			if got := KindForPath(tt.path); got != tt.want {
				t.Errorf("KindForPath(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestLanguagesRegistered(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"typescript", "svelte"} {
		l, ok := Languages[name]
		if !ok {
			t.Fatalf("%s language not registered", name)
		}
		if l.GetLanguage() == nil {
			t.Errorf("%s language is nil", name)
		}
		if l.NewParser() == nil {
			t.Errorf("%s NewParser returned nil", name)
		}
	}
}

func TestExtensions(t *testing.T) {
	t.Parallel()

	exts := Extensions()
	want := []string{".js", ".svelte", ".ts"}
	if len(exts) != len(want) {
		t.Fatalf("Extensions() = %v, want %v", exts, want)
	}
	for i := range want {
		if exts[i] != want[i] {
			t.Errorf("Extensions()[%d] = %q, want %q", i, exts[i], want[i])
		}
	}
}

func TestKindString(t *testing.T) {
	t.Parallel()

	if KindModule.String() != "module" {
		t.Errorf("KindModule = %q", KindModule.String())
	}
	if KindComponent.String() != "component" {
		t.Errorf("KindComponent = %q", KindComponent.String())
	}
	if KindUnknown.String() != "unknown" {
		t.Errorf("KindUnknown = %q", KindUnknown.String())
	}
}

func TestCollapseWhitespace(t *testing.T) {
	t.Parallel()

	got := CollapseWhitespace("  export   function\n\tformat()  ")
	if got != "export function format()" {
		t.Errorf("CollapseWhitespace = %q", got)
	}
}
