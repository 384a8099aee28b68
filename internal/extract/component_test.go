package extract

import (
	"errors"
	"testing"

	"github.com/fuzdev/libmap/internal/diag"
	"github.com/fuzdev/libmap/internal/model"
	"github.com/fuzdev/libmap/internal/source"
)

const buttonComponent = `<script lang="ts">
	/**
	 * A clickable button.
	 */
	export let label: string;
	export let kind: "primary" | "ghost" = "primary";
	export let disabled: boolean | undefined;
	let clicks = 0;
</script>

<button class={kind} {disabled} on:click={() => clicks++}>
	{label}
</button>

<style>
	button { cursor: pointer; }
</style>
`

func TestComponentDeclaration(t *testing.T) {
	t.Parallel()

	m, _ := analyzeFile(t, "components/Button.svelte", buttonComponent)
	if m.Path != "components/Button.svelte" {
		t.Errorf("path = %q", m.Path)
	}
	d := singleDecl(t, m)
	if d.Name != "Button" {
		t.Errorf("name = %q, want Button", d.Name)
	}
	if d.Kind != model.Component {
		t.Errorf("kind = %q, want component", d.Kind)
	}
	if d.SourceLine != 1 {
		t.Errorf("line = %d, want 1", d.SourceLine)
	}
	if m.Comment != "A clickable button." {
		t.Errorf("module comment = %q", m.Comment)
	}
	if d.Comment != "" {
		t.Errorf("declaration comment = %q, want empty", d.Comment)
	}
}

func TestComponentProps(t *testing.T) {
	t.Parallel()

	m, _ := analyzeFile(t, "Button.svelte", buttonComponent)
	d := singleDecl(t, m)
	if len(d.Props) != 3 {
		t.Fatalf("props = %+v", d.Props)
	}

	label := d.Props[0]
	if label.Name != "label" || label.Type != "string" {
		t.Errorf("label = %+v", label)
	}
	if label.Optional {
		t.Error("label must be required")
	}

	kind := d.Props[1]
	if kind.Type != `"primary" | "ghost"` {
		t.Errorf("kind type = %q", kind.Type)
	}
	if kind.Default != `"primary"` {
		t.Errorf("kind default = %q", kind.Default)
	}
	if !kind.Optional {
		t.Error("defaulted prop must be optional")
	}

	disabled := d.Props[2]
	if disabled.Default != "" {
		t.Errorf("disabled default = %q, want empty", disabled.Default)
	}
	if !disabled.Optional {
		t.Error("undefined union member must imply optional")
	}
}

func TestDefaultDoesNotImplyOptionalWhenDisabled(t *testing.T) {
	t.Parallel()

	o := NewOptions(source.NewOptions("/repo", []string{"src/lib"}, nil, nil))
	o.DefaultImpliesOptional = false
	sf := source.File{Path: "/repo/src/lib/Badge.svelte", Content: []byte(`<script lang="ts">
	export let tone: string = "neutral";
</script>
<span>{tone}</span>
`)}
	prog, err := Load([]source.File{sf})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	m, err := Analyze(sf, prog, o, diag.NewContext(), nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	p := singleDecl(t, m).Props[0]
	if p.Default != `"neutral"` {
		t.Errorf("default = %q", p.Default)
	}
	if p.Optional {
		t.Error("optional must stay false when defaults do not imply it")
	}
}

func TestModuleScriptIgnoredForProps(t *testing.T) {
	t.Parallel()

	m, _ := analyzeFile(t, "Icon.svelte", `<script context="module" lang="ts">
	export const registry = new Map();
</script>

<script lang="ts">
	export let name: string;
</script>

<svg>{name}</svg>
`)
	d := singleDecl(t, m)
	if len(d.Props) != 1 {
		t.Fatalf("props = %+v", d.Props)
	}
	if d.Props[0].Name != "name" {
		t.Errorf("prop = %+v", d.Props[0])
	}
}

func TestBareModuleScriptIgnoredForProps(t *testing.T) {
	t.Parallel()

	m, _ := analyzeFile(t, "Badge.svelte", `<script module lang="ts">
	export const variants = ["info", "warn"];
</script>

<script lang="ts">
	export let label: string;
</script>

<span>{label}</span>
`)
	d := singleDecl(t, m)
	if len(d.Props) != 1 {
		t.Fatalf("props = %+v", d.Props)
	}
	if d.Props[0].Name != "label" {
		t.Errorf("prop = %+v", d.Props[0])
	}
}

func TestComponentWithoutScript(t *testing.T) {
	t.Parallel()

	m, _ := analyzeFile(t, "Rule.svelte", "<hr />\n")
	d := singleDecl(t, m)
	if d.Name != "Rule" || d.Kind != model.Component {
		t.Errorf("declaration = %+v", d)
	}
	if len(d.Props) != 0 {
		t.Errorf("props = %+v, want none", d.Props)
	}
}

func TestNonExportedLetIsNotAProp(t *testing.T) {
	t.Parallel()

	m, _ := analyzeFile(t, "Counter.svelte", `<script lang="ts">
	export let start: number = 0;
	let count = start;
</script>
<span>{count}</span>
`)
	d := singleDecl(t, m)
	if len(d.Props) != 1 || d.Props[0].Name != "start" {
		t.Errorf("props = %+v", d.Props)
	}
}

func TestUnterminatedExpressionIsFatal(t *testing.T) {
	t.Parallel()

	_, _, err := tryAnalyzeFile(t, "Broken.svelte", `<script lang="ts">
	export let label: string;
</script>

<span>{label</span>
`)
	if err == nil {
		t.Fatal("expected a parse error")
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error type = %T", err)
	}
	if pe.Path != "Broken.svelte" {
		t.Errorf("path = %q", pe.Path)
	}
	if pe.Line != 5 {
		t.Errorf("line = %d, want 5", pe.Line)
	}
}

func TestScriptSyntaxErrorIsFatal(t *testing.T) {
	t.Parallel()

	_, _, err := tryAnalyzeFile(t, "Broken.svelte", `<script lang="ts">
	export let label: = string;
</script>
<span>{label}</span>
`)
	if err == nil {
		t.Fatal("expected a parse error")
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error type = %T", err)
	}
}

func TestUnterminatedScriptIsFatal(t *testing.T) {
	t.Parallel()

	_, _, err := tryAnalyzeFile(t, "Broken.svelte", "<script lang=\"ts\">\n\texport let x: number;\n<span>{x}</span>\n")
	if err == nil {
		t.Fatal("expected a parse error")
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error type = %T", err)
	}
}

func TestRepeatedPropKeepsFirst(t *testing.T) {
	t.Parallel()

	o := NewOptions(source.NewOptions("/repo", []string{"src/lib"}, nil, nil))
	sf := source.File{Path: "/repo/src/lib/Dup.svelte", Content: []byte(`<script lang="ts">
	export let size: string = "md";
	export let size: string = "lg";
</script>
<i>{size}</i>
`)}
	prog, err := Load([]source.File{sf})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	dc := diag.NewContext()
	m, err := Analyze(sf, prog, o, dc, nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	d := singleDecl(t, m)
	if len(d.Props) != 1 {
		t.Fatalf("props = %+v", d.Props)
	}
	if d.Props[0].Default != `"md"` {
		t.Errorf("default = %q, want first occurrence kept", d.Props[0].Default)
	}
	if !dc.HasWarnings() {
		t.Error("expected a repeated_name warning")
	}
}

func TestTemplateExpressionsAreNotErrors(t *testing.T) {
	t.Parallel()

	// Svelte attribute expressions are not valid HTML; only genuinely
	// unterminated constructs may fail the file.
	m, _ := analyzeFile(t, "List.svelte", `<script lang="ts">
	export let items: string[] = [];
</script>

{#each items as item (item)}
	<li on:click={() => select(item)}>{item}</li>
{/each}
`)
	if len(m.Declarations) != 1 {
		t.Fatalf("declarations = %+v", m.Declarations)
	}
}
