package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/fuzdev/libmap/internal/model"
)

// packageJSON carries the identity fields of the analyzed package's
// own manifest. Everything else in the file is ignored.
type packageJSON struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Homepage    string `json:"homepage"`
}

// Meta resolves the package identity merged into the library model:
// package.json fields where present, replaced by [package] overrides
// from the manifest. A package with neither falls back to the root
// directory name and version 0.0.0. A package.json that exists but
// cannot be parsed is an error, not a fallback.
func (c *Config) Meta() (model.PackageMeta, error) {
	meta := model.PackageMeta{Name: path.Base(c.Root), Version: "0.0.0"}

	p := filepath.Join(filepath.FromSlash(c.Root), "package.json")
	data, err := os.ReadFile(p)
	switch {
	case err == nil:
		var pj packageJSON
		if err := json.Unmarshal(data, &pj); err != nil {
			return model.PackageMeta{}, fmt.Errorf("parsing %s: %w", p, err)
		}
		apply(&meta, pj.Name, pj.Version, pj.Description, pj.Homepage)
	case !errors.Is(err, os.ErrNotExist):
		return model.PackageMeta{}, fmt.Errorf("reading %s: %w", p, err)
	}

	apply(&meta, c.Package.Name, c.Package.Version, c.Package.Description, c.Package.Homepage)
	return meta, nil
}

func apply(meta *model.PackageMeta, name, version, description, homepage string) {
	if name != "" {
		meta.Name = name
	}
	if version != "" {
		meta.Version = version
	}
	if description != "" {
		meta.Description = description
	}
	if homepage != "" {
		meta.Homepage = homepage
	}
}
