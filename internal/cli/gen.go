package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fuzdev/libmap/internal/assemble"
	"github.com/fuzdev/libmap/internal/cache"
	"github.com/fuzdev/libmap/internal/config"
	"github.com/fuzdev/libmap/internal/link"
	"github.com/fuzdev/libmap/internal/pipeline"
	"github.com/fuzdev/libmap/internal/source"
)

func (a *app) genCommand() *cobra.Command {
	var strict, force bool
	cmd := &cobra.Command{
		Use:   "gen [dir]",
		Short: "Generate library.json and the typed wrapper",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(argDir(args))
			if err != nil {
				return err
			}
			return a.generate(cmd.Context(), cfg, strict, force)
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "fail when duplicate names exist across modules")
	cmd.Flags().BoolVar(&force, "force", false, "regenerate even when the output is up to date")
	return cmd
}

func (a *app) generate(ctx context.Context, cfg *config.Config, strict, force bool) error {
	if !force && a.upToDate(cfg) {
		a.logger.Info("library model up to date", "path", cfg.OutPath(assemble.JSONName))
		return nil
	}

	res, err := pipeline.Run(ctx, cfg, a.logger)
	if err != nil {
		return err
	}
	if strict {
		if err := link.FailOnDuplicates(res.Model); err != nil {
			return err
		}
	}
	if err := a.writeArtifacts(cfg, res); err != nil {
		return err
	}
	a.writeManifest(cfg, res)
	a.logger.Info("wrote library model",
		"path", cfg.OutPath(assemble.JSONName), "modules", len(res.Model.Modules))
	return nil
}

// upToDate reports whether the recorded manifest still matches the current
// inputs. Any failure along the way simply forces a fresh run.
func (a *app) upToDate(cfg *config.Config) bool {
	m, err := cache.Load(cfg.OutPath(cache.ManifestName))
	if err != nil || m == nil {
		return false
	}
	meta, err := cfg.Meta()
	if err != nil {
		return false
	}
	o := cfg.SourceOptions()
	walked, err := source.Walk(cfg.Root, o)
	if err != nil {
		return false
	}
	files := source.Collect(walked, o, nil)
	return m.Fresh(meta.Name, meta.Version, files, o, cfg.OutPath(assemble.JSONName))
}

func (a *app) writeArtifacts(cfg *config.Config, res *pipeline.Result) error {
	jsonPath := cfg.OutPath(assemble.JSONName)
	if err := os.WriteFile(jsonPath, res.Artifacts.LibraryJSON, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", jsonPath, err)
	}
	if !cfg.EmitWrapper {
		return nil
	}
	wrapperPath := cfg.OutPath(assemble.WrapperName)
	if err := os.WriteFile(wrapperPath, res.Artifacts.WrapperTS, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", wrapperPath, err)
	}
	return nil
}

// writeManifest records the freshness manifest. The manifest is advisory, so
// failures only warn.
func (a *app) writeManifest(cfg *config.Config, res *pipeline.Result) {
	m, err := cache.Snapshot(res.Model.Name, res.Model.Version,
		res.Files, cfg.SourceOptions(), res.Artifacts.LibraryJSON)
	if err == nil {
		err = m.Write(cfg.OutPath(cache.ManifestName))
	}
	if err != nil {
		a.logger.Warn("recording freshness manifest failed", "error", err)
	}
}
