package extract

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fuzdev/libmap/internal/lang"
	"github.com/fuzdev/libmap/internal/source"
)

// Program is the index resolving each in-scope file identity to its
// loadable source. It is built once per run and read-only afterwards,
// so concurrent extraction needs no locking.
type Program struct {
	entries map[string]*Entry
}

// Entry is one indexed file.
type Entry struct {
	Path   string
	Lang   *lang.Language
	Source []byte
}

// Load reads and indexes every file in the analysis set. Pre-supplied
// content is kept as is; everything else is read from disk. A file that
// cannot be read fails the load rather than silently shrinking the set.
func Load(files []source.File) (*Program, error) {
	p := &Program{entries: make(map[string]*Entry, len(files))}
	for _, f := range files {
		l := lang.ForPath(f.Path)
		if l == nil {
			continue
		}
		src := f.Content
		if src == nil {
			b, err := os.ReadFile(filepath.FromSlash(f.Path))
			if err != nil {
				return nil, fmt.Errorf("loading %s: %w", f.Path, err)
			}
			src = b
		}
		p.entries[f.Path] = &Entry{Path: f.Path, Lang: l, Source: src}
	}
	return p, nil
}

// Entry returns the indexed file for an identity, or nil.
func (p *Program) Entry(path string) *Entry {
	return p.entries[path]
}

// Len returns the number of indexed files.
func (p *Program) Len() int {
	return len(p.entries)
}
