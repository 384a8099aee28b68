package depgraph

import (
	"reflect"
	"testing"

	"github.com/fuzdev/libmap/internal/source"
)

func file(path, content string) source.File {
	return source.File{Path: path, Content: []byte(content)}
}

func TestBuildModuleEdges(t *testing.T) {
	t.Parallel()

	deps, dependents, err := Build([]source.File{
		file("/repo/src/lib/index.ts", `import { format } from './utils';
export { parse } from './codec.js';
import { writable } from 'svelte/store';
`),
		file("/repo/src/lib/utils.ts", "export function format() {}\n"),
		file("/repo/src/lib/codec.ts", "export function parse() {}\n"),
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	want := []string{"/repo/src/lib/codec.ts", "/repo/src/lib/utils.ts"}
	if !reflect.DeepEqual(deps["/repo/src/lib/index.ts"], want) {
		t.Errorf("deps = %v, want %v", deps["/repo/src/lib/index.ts"], want)
	}
	if got := dependents["/repo/src/lib/utils.ts"]; !reflect.DeepEqual(got, []string{"/repo/src/lib/index.ts"}) {
		t.Errorf("dependents = %v", got)
	}
	if _, ok := deps["/repo/src/lib/utils.ts"]; ok {
		t.Error("leaf module must have no dependency entry")
	}
}

func TestBuildComponentEdges(t *testing.T) {
	t.Parallel()

	deps, dependents, err := Build([]source.File{
		file("/repo/src/lib/Button.svelte", `<script lang="ts">
	import { format } from '../utils';
	export let label: string;
</script>
<button>{format(label)}</button>
`),
		file("/repo/src/utils.ts", "export function format(v: string) { return v; }\n"),
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if got := deps["/repo/src/lib/Button.svelte"]; !reflect.DeepEqual(got, []string{"/repo/src/utils.ts"}) {
		t.Errorf("deps = %v", got)
	}
	if got := dependents["/repo/src/utils.ts"]; !reflect.DeepEqual(got, []string{"/repo/src/lib/Button.svelte"}) {
		t.Errorf("dependents = %v", got)
	}
}

func TestBuildResolvesIndexFiles(t *testing.T) {
	t.Parallel()

	deps, _, err := Build([]source.File{
		file("/repo/src/lib/entry.ts", "export * from './components';\n"),
		file("/repo/src/lib/components/index.ts", "export const x = 1;\n"),
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := []string{"/repo/src/lib/components/index.ts"}
	if !reflect.DeepEqual(deps["/repo/src/lib/entry.ts"], want) {
		t.Errorf("deps = %v, want %v", deps["/repo/src/lib/entry.ts"], want)
	}
}

func TestBuildDeduplicatesEdges(t *testing.T) {
	t.Parallel()

	deps, _, err := Build([]source.File{
		file("/repo/src/lib/a.ts", "import { x } from './b';\nimport { y } from './b';\nexport * from './b';\n"),
		file("/repo/src/lib/b.ts", "export const x = 1;\nexport const y = 2;\n"),
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := deps["/repo/src/lib/a.ts"]; !reflect.DeepEqual(got, []string{"/repo/src/lib/b.ts"}) {
		t.Errorf("deps = %v, want a single deduplicated edge", got)
	}
}

func TestBuildIgnoresSelfAndUnresolvable(t *testing.T) {
	t.Parallel()

	deps, dependents, err := Build([]source.File{
		file("/repo/src/lib/a.ts", "import { a } from './a';\nimport { gone } from './gone';\n"),
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(deps) != 0 || len(dependents) != 0 {
		t.Errorf("deps = %v, dependents = %v, want empty", deps, dependents)
	}
}

func TestBuildSkipsBrokenFile(t *testing.T) {
	t.Parallel()

	deps, _, err := Build([]source.File{
		file("/repo/src/lib/broken.ts", "import { from\n"),
		file("/repo/src/lib/ok.ts", "import './broken';\nexport const k = 1;\n"),
	})
	if err != nil {
		t.Fatalf("broken file must not fail the graph: %v", err)
	}
	if got := deps["/repo/src/lib/ok.ts"]; !reflect.DeepEqual(got, []string{"/repo/src/lib/broken.ts"}) {
		t.Errorf("deps = %v", got)
	}
}
