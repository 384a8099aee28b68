// Package config loads the libmap.toml project manifest and the
// analyzed package's identity. The manifest is optional: a standard
// layout works with the built-in defaults.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/BurntSushi/toml"

	"github.com/fuzdev/libmap/internal/source"
)

// ManifestName is the project manifest file searched for upward from
// the working directory.
const ManifestName = "libmap.toml"

// ErrNoManifest reports that no manifest exists between the start
// directory and the filesystem root.
var ErrNoManifest = errors.New("no " + ManifestName + " manifest found")

//go:embed schema.cue
var schemaSource string

// Config is the resolved project configuration.
type Config struct {
	// Root is the project root: the manifest's directory, or the start
	// directory when running without a manifest. Never read from TOML.
	Root string `toml:"-"`

	SourceDirs []string `toml:"source_dirs"`
	Extensions []string `toml:"extensions"`
	Exclude    []string `toml:"exclude"`

	DefaultImpliesOptional bool   `toml:"default_implies_optional"`
	EmitWrapper            bool   `toml:"emit_wrapper"`
	OutDir                 string `toml:"out_dir"`
	Jobs                   int    `toml:"jobs"`

	Package PackageOverride `toml:"package"`
}

// PackageOverride replaces package.json identity fields when set.
type PackageOverride struct {
	Name        string `toml:"name"`
	Version     string `toml:"version"`
	Description string `toml:"description"`
	Homepage    string `toml:"homepage"`
}

// Default returns the configuration used when no manifest exists.
func Default(root string) *Config {
	return &Config{
		Root:                   filepath.ToSlash(root),
		DefaultImpliesOptional: true,
		EmitWrapper:            true,
		OutDir:                 ".",
	}
}

// Find walks upward from startDir looking for the manifest. It returns
// ErrNoManifest when the search exhausts the tree.
func Find(startDir string) (string, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoManifest
		}
		dir = parent
	}
}

// Load reads and validates one manifest. The project root becomes the
// manifest's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	// Shape errors are caught against the schema first so they carry
	// configuration paths instead of decoder internals.
	var raw map[string]any
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	if err := validate(raw); err != nil {
		return nil, fmt.Errorf("%s: invalid configuration: %w", path, err)
	}

	cfg := Default(filepath.ToSlash(filepath.Dir(path)))
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault finds and loads the manifest governing startDir, or
// returns the defaults rooted there when none exists.
func LoadOrDefault(startDir string) (*Config, error) {
	path, err := Find(startDir)
	if errors.Is(err, ErrNoManifest) {
		abs, err := filepath.Abs(startDir)
		if err != nil {
			return nil, fmt.Errorf("resolving start directory: %w", err)
		}
		return Default(abs), nil
	}
	if err != nil {
		return nil, err
	}
	return Load(path)
}

// validate unifies the decoded document with the embedded schema, which
// rejects unknown keys and ill-typed values with their paths.
func validate(raw map[string]any) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("internal error: compiling config schema: %w", err)
	}
	root := schema.LookupPath(cue.ParsePath("#Config"))
	if err := root.Err(); err != nil {
		return fmt.Errorf("internal error: schema definition #Config not found: %w", err)
	}
	doc := ctx.Encode(raw)
	if err := doc.Err(); err != nil {
		return err
	}
	return root.Unify(doc).Validate(cue.Concrete(true))
}

// SourceOptions builds the source filter for this configuration.
func (c *Config) SourceOptions() *source.Options {
	return source.NewOptions(c.Root, c.SourceDirs, c.Extensions, c.Exclude)
}

// JobCount returns the configured extraction parallelism, defaulting to
// the CPU count.
func (c *Config) JobCount() int {
	if c.Jobs > 0 {
		return c.Jobs
	}
	return runtime.NumCPU()
}

// OutPath locates an artifact inside the configured output directory.
func (c *Config) OutPath(name string) string {
	return filepath.Join(filepath.FromSlash(c.Root), filepath.FromSlash(c.OutDir), name)
}
