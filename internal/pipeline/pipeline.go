// Package pipeline orchestrates one full analysis run: source
// discovery, import-graph construction, parallel per-file extraction,
// cross-module linking, assembly, and artifact generation. Each run
// derives the complete model from scratch; nothing is cached between
// runs, which is what keeps the output deterministic.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/fuzdev/libmap/internal/assemble"
	"github.com/fuzdev/libmap/internal/config"
	"github.com/fuzdev/libmap/internal/depgraph"
	"github.com/fuzdev/libmap/internal/diag"
	"github.com/fuzdev/libmap/internal/extract"
	"github.com/fuzdev/libmap/internal/link"
	"github.com/fuzdev/libmap/internal/model"
	"github.com/fuzdev/libmap/internal/source"
)

// Result bundles everything one run produces. Advisory diagnostics are
// in Context; a non-nil Result always carries a complete, valid model.
// Files is the collected input snapshot, content included, so callers
// can fingerprint exactly what the model was derived from.
type Result struct {
	Model     *model.LibraryModel
	Artifacts assemble.Artifacts
	Context   *diag.Context
	Files     []source.File
}

// Run executes one full analysis under the given configuration.
// Structural extraction failures abort the whole run: a library
// description with silently-missing entries is worse than a hard
// failure. Advisory conditions never abort; callers inspect Context.
func Run(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Result, error) {
	dc := diag.NewContext()
	o := extract.NewOptions(cfg.SourceOptions())
	o.DefaultImpliesOptional = cfg.DefaultImpliesOptional

	walked, err := source.Walk(cfg.Root, o.Source)
	if err != nil {
		return nil, fmt.Errorf("discovering source files: %w", err)
	}
	files := source.Collect(walked, o.Source, logger)
	if len(files) == 0 {
		dc.Warnf(diag.CodeEmptySourceSet, "", "no source files matched; the library is empty")
	}

	// One content snapshot feeds both the import graph and the program
	// index, so a file changing mid-run cannot split the analysis.
	for i := range files {
		if files[i].Content != nil {
			continue
		}
		b, err := os.ReadFile(filepath.FromSlash(files[i].Path))
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", files[i].Path, err)
		}
		files[i].Content = b
	}

	deps, dependents, err := depgraph.Build(files)
	if err != nil {
		return nil, err
	}
	for i := range files {
		files[i].Deps = deps[files[i].Path]
		files[i].Dependents = dependents[files[i].Path]
	}

	prog, err := extract.Load(files)
	if err != nil {
		return nil, err
	}

	modules, err := analyzeAll(ctx, files, prog, o, dc, logger, cfg.JobCount())
	if err != nil {
		return nil, err
	}

	also := link.Link(modules, dc)

	meta, err := cfg.Meta()
	if err != nil {
		return nil, err
	}
	lib := assemble.Assemble(meta, modules, also)
	for _, d := range lib.Duplicates {
		dc.Warnf(diag.CodeDuplicateName, "", "name %q declared in %s", d.Name, strings.Join(d.Modules, ", "))
	}

	art, err := assemble.Generate(meta, lib)
	if err != nil {
		return nil, err
	}
	if logger != nil {
		logger.Info("library model assembled",
			"modules", len(lib.Modules), "diagnostics", dc.Len())
	}
	return &Result{Model: lib, Artifacts: art, Context: dc, Files: files}, nil
}

// analyzeAll extracts every file concurrently. Results and per-file
// diagnostic contexts are indexed by position, so no worker shares
// mutable state; the join barrier merges diagnostics in file order,
// keeping the run deterministic regardless of scheduling.
func analyzeAll(ctx context.Context, files []source.File, prog *extract.Program, o *extract.Options, dc *diag.Context, logger *log.Logger, jobs int) ([]*model.Module, error) {
	if len(files) == 0 {
		return nil, nil
	}

	results := make([]*model.Module, len(files))
	contexts := make([]*diag.Context, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))
	for i := range files {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			fdc := diag.NewContext()
			m, err := extract.Analyze(files[i], prog, o, fdc, logger)
			if err != nil {
				return err
			}
			results[i], contexts[i] = m, fdc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	modules := make([]*model.Module, 0, len(files))
	for i := range results {
		dc.Merge(contexts[i])
		if results[i] != nil {
			modules = append(modules, results[i])
		}
	}
	return modules, nil
}
