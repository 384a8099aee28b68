package source

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func testOptions() *Options {
	return NewOptions("/repo", []string{"src/lib"}, nil, []string{"*.test.ts", "*.stories.svelte"})
}

func TestMatches(t *testing.T) {
	t.Parallel()
	o := testOptions()

	tests := []struct {
		path string
		want bool
	}{
		{"/repo/src/lib/format.ts", true},
		{"/repo/src/lib/Button.svelte", true},
		{"/repo/src/lib/components/Icon.svelte", true},
		{"/repo/src/lib/format.test.ts", false},
		{"/repo/src/lib/stories/Icon.stories.svelte", false},
		{"/repo/src/lib/readme.md", false},
		{"/repo/test/fixtures/src/lib/copy.ts", false},
		{"/elsewhere/src/lib/format.ts", false},
		{"/repo/mysrc/lib/format.ts", false},
		{"/repo/src/format.ts", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			if got := o.Matches(tt.path); got != tt.want {
				t.Errorf("Matches(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestMatchesWithoutRoot(t *testing.T) {
	t.Parallel()
	o := NewOptions("", []string{"src/lib"}, nil, nil)

	if !o.Matches("/any/project/src/lib/a.ts") {
		t.Error("rootless options should accept any project prefix")
	}
	if o.Matches("/any/project/srcx/lib/a.ts") {
		t.Error("marker must start a path component")
	}
}

func TestExtractPath(t *testing.T) {
	t.Parallel()
	o := testOptions()

	tests := []struct {
		path string
		want string
	}{
		{"/repo/src/lib/format.ts", "format.ts"},
		{"/repo/src/lib/components/Button.svelte", "components/Button.svelte"},
		{"/repo/other/file.ts", "/repo/other/file.ts"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			if got := o.ExtractPath(tt.path); got != tt.want {
				t.Errorf("ExtractPath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestExtractPathReconstructs(t *testing.T) {
	t.Parallel()
	o := testOptions()

	orig := "/repo/src/lib/components/Button.svelte"
	rel := o.ExtractPath(orig)
	if got := o.Root + "/src/lib/" + rel; got != orig {
		t.Errorf("reconstructed %q, want %q", got, orig)
	}
}

func TestCollectSortsByRelativePath(t *testing.T) {
	t.Parallel()
	o := testOptions()

	files := []File{
		{Path: "/repo/src/lib/zz.ts"},
		{Path: "/repo/src/lib/components/Button.svelte"},
		{Path: "/repo/src/lib/aa.ts"},
		{Path: "/repo/src/lib/skip.test.ts"},
		{Path: "/repo/README.md"},
	}
	got := Collect(files, o, nil)

	want := []string{
		"/repo/src/lib/aa.ts",
		"/repo/src/lib/components/Button.svelte",
		"/repo/src/lib/zz.ts",
	}
	if len(got) != len(want) {
		t.Fatalf("Collect returned %d files, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i].Path != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i].Path, want[i])
		}
	}
}

func TestCollectEmptyWarns(t *testing.T) {
	t.Parallel()
	o := testOptions()

	var buf bytes.Buffer
	logger := log.New(&buf)

	got := Collect([]File{{Path: "/repo/README.md"}}, o, logger)
	if len(got) != 0 {
		t.Fatalf("Collect = %+v, want empty", got)
	}
	if !strings.Contains(buf.String(), "no source files matched") {
		t.Errorf("missing warning, log output: %q", buf.String())
	}
}

func TestWalk(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src/lib/format.ts"), "export const x = 1;\n")
	writeFile(t, filepath.Join(root, "src/lib/components/Button.svelte"), "<script></script>\n")
	writeFile(t, filepath.Join(root, "src/lib/format.test.ts"), "test\n")
	writeFile(t, filepath.Join(root, "src/lib/ignored.ts"), "export const y = 2;\n")
	writeFile(t, filepath.Join(root, "node_modules/pkg/src/lib/evil.ts"), "nope\n")
	writeFile(t, filepath.Join(root, "test/fixtures/src/lib/copy.ts"), "nope\n")
	writeFile(t, filepath.Join(root, "README.md"), "docs\n")
	writeFile(t, filepath.Join(root, ".gitignore"), "ignored.ts\n")

	o := NewOptions(root, []string{"src/lib"}, nil, []string{"*.test.ts"})
	files, err := Walk(root, o)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}

	var rels []string
	for _, f := range files {
		rels = append(rels, o.ExtractPath(f.Path))
	}
	want := []string{"components/Button.svelte", "format.ts"}
	if len(rels) != len(want) {
		t.Fatalf("Walk returned %v, want %v", rels, want)
	}
	for i := range want {
		if rels[i] != want[i] {
			t.Errorf("rels[%d] = %q, want %q", i, rels[i], want[i])
		}
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
