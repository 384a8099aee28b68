package cli

import (
	"context"
	"os/signal"
	"path"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fuzdev/libmap/internal/assemble"
	"github.com/fuzdev/libmap/internal/cache"
	"github.com/fuzdev/libmap/internal/config"
	"github.com/fuzdev/libmap/internal/lang"
	"github.com/fuzdev/libmap/internal/pipeline"
	"github.com/fuzdev/libmap/internal/watch"
)

func (a *app) watchCommand() *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Regenerate the library model whenever sources change",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := argDir(args)
			cfg, err := a.loadConfig(dir)
			if err != nil {
				return err
			}
			return a.watchLoop(cmd.Context(), dir, cfg, debounce)
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", 0, "quiet period before regenerating (default 300ms)")
	return cmd
}

// watchLoop regenerates on change until interrupted. Analysis failures are
// logged and watching continues: the next save gets another chance. The
// configuration is re-resolved on every refresh so manifest and package.json
// edits take effect without a restart.
func (a *app) watchLoop(ctx context.Context, dir string, cfg *config.Config, debounce time.Duration) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session := watch.NewSession(a.logger)
	refresh := func(ctx context.Context, changed []string) error {
		if len(changed) > 0 {
			a.logger.Debug("sources changed", "files", len(changed))
		}
		current, err := a.loadConfig(dir)
		if err != nil {
			a.logger.Error("configuration invalid; keeping last model", "error", err)
			return nil
		}
		res, err := pipeline.Run(ctx, current, a.logger)
		if err != nil {
			a.logger.Error("regeneration failed", "error", err)
			return nil
		}
		if !session.Publish(res.Artifacts.LibraryJSON) {
			return nil
		}
		if err := a.writeArtifacts(current, res); err != nil {
			return err
		}
		a.writeManifest(current, res)
		a.logger.Info("library model updated", "modules", len(res.Model.Modules))
		return nil
	}

	if err := refresh(ctx, nil); err != nil {
		return err
	}

	runner, err := watch.New(watch.Config{
		Dir:      filepath.FromSlash(cfg.Root),
		Patterns: watchPatterns(cfg),
		Ignore:   artifactIgnores(cfg),
		Debounce: debounce,
		OnChange: refresh,
		Logger:   a.logger,
	})
	if err != nil {
		return err
	}
	a.logger.Info("watching for changes", "root", cfg.Root)
	return runner.Run(ctx)
}

// watchPatterns selects the files whose changes matter: library sources
// anywhere in the tree plus the two files that feed configuration and
// package identity.
func watchPatterns(cfg *config.Config) []string {
	exts := cfg.Extensions
	if len(exts) == 0 {
		exts = lang.Extensions()
	}
	pats := make([]string, 0, len(exts)+2)
	for _, ext := range exts {
		pats = append(pats, "**/*"+ext)
	}
	return append(pats, config.ManifestName, "package.json")
}

// artifactIgnores excludes the generated files from the watch; without this
// every refresh would observe its own output.
func artifactIgnores(cfg *config.Config) []string {
	var pats []string
	for _, name := range []string{assemble.JSONName, assemble.WrapperName, cache.ManifestName} {
		rel := path.Clean(path.Join(cfg.OutDir, name))
		if !strings.HasPrefix(rel, "..") && !path.IsAbs(rel) {
			pats = append(pats, rel)
		}
	}
	return pats
}
