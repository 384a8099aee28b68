// Package cli wires the libmap command tree: gen, check, watch, init, and
// version. All commands share the persistent flags and a single logger; the
// root package main delegates here.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/fuzdev/libmap/internal/config"
)

// Main runs the CLI and returns the process exit code.
func Main() int {
	a := newApp(os.Stdout, os.Stderr)
	if err := a.root().Execute(); err != nil {
		fmt.Fprintf(a.stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// app carries the persistent flag state and the writers every command
// renders to. Tests construct it around buffers.
type app struct {
	configPath string
	verbose    bool
	quiet      bool
	jobs       int

	logger *log.Logger
	stdout io.Writer
	stderr io.Writer
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr}
}

func (a *app) root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "libmap",
		Short:         "Generate a typed metadata model of a TypeScript/Svelte library",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `libmap scans a component library's source tree, extracts every exported
declaration with its documentation, resolves re-export chains, and emits a
deterministic library.json plus a typed TypeScript wrapper.`,
		PersistentPreRun: func(*cobra.Command, []string) {
			a.logger = a.buildLogger()
		},
	}
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "explicit path to libmap.toml (skips discovery)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	pf.BoolVarP(&a.quiet, "quiet", "q", false, "log warnings and errors only")
	pf.IntVar(&a.jobs, "jobs", 0, "parallel analysis workers (0 uses every CPU)")

	cmd.AddCommand(
		a.genCommand(),
		a.checkCommand(),
		a.watchCommand(),
		a.initCommand(),
		a.versionCommand(),
	)
	return cmd
}

func (a *app) buildLogger() *log.Logger {
	logger := log.NewWithOptions(a.stderr, log.Options{Prefix: "libmap"})
	switch {
	case a.verbose:
		logger.SetLevel(log.DebugLevel)
	case a.quiet:
		logger.SetLevel(log.WarnLevel)
	}
	return logger
}

// loadConfig resolves the effective configuration: an explicit --config path
// wins, otherwise the manifest is discovered upward from dir, otherwise
// defaults rooted at dir apply. The --jobs flag overrides the manifest.
func (a *app) loadConfig(dir string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.Load(a.configPath)
	} else {
		abs, absErr := filepath.Abs(dir)
		if absErr != nil {
			return nil, fmt.Errorf("resolving %s: %w", dir, absErr)
		}
		cfg, err = config.LoadOrDefault(abs)
	}
	if err != nil {
		return nil, err
	}
	if a.jobs > 0 {
		cfg.Jobs = a.jobs
	}
	return cfg, nil
}

// argDir interprets the optional positional directory argument.
func argDir(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}
