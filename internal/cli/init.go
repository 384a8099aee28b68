package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fuzdev/libmap/internal/config"
)

func (a *app) initCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a starter libmap.toml",
		Long: `init writes a commented libmap.toml into the target directory. Every key
is optional and ships commented out, so the starter manifest behaves exactly
like having no manifest at all until keys are uncommented.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeStarterManifest(argDir(args), force, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing libmap.toml")
	return cmd
}

// starterManifest returns the manifest template. A pure function so tests
// can validate the content without touching the filesystem.
func starterManifest() string {
	return `# libmap configuration. Every key is optional; the commented values show
# the defaults.

# Directories scanned for library sources, relative to this file.
#source_dirs = ["src/lib"]

# File extensions included in the scan.
#extensions = [".ts", ".svelte"]

# gitignore-style patterns excluded from the scan.
#exclude = ["**/*.test.ts"]

# Treat component props with a default value as optional.
#default_implies_optional = true

# Emit the typed library.ts wrapper next to library.json.
#emit_wrapper = true

# Directory receiving generated artifacts, relative to this file.
#out_dir = "."

# Parallel analysis workers; 0 uses every CPU.
#jobs = 0

# Package identity overrides; package.json is consulted first.
#[package]
#name = "@acme/ui"
#version = "1.0.0"
`
}

func writeStarterManifest(dir string, force bool, out io.Writer) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", abs, err)
	}

	path := filepath.Join(abs, config.ManifestName)
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	if err := os.WriteFile(path, []byte(starterManifest()), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Fprintf(out, "wrote %s\n", path)
	return nil
}
