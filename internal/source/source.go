// Package source decides which files belong to the analysis set and
// computes root-relative module paths.
package source

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/fuzdev/libmap/internal/lang"
)

// File is one file under analysis. Identity is the absolute slash-form
// path. Content, Deps and Dependents are optional and supplied by the
// caller; the analysis pipeline never computes dependency edges itself.
type File struct {
	Path       string
	Content    []byte
	Deps       []string
	Dependents []string
}

// Options configures the source filter. Build with NewOptions; treat as
// immutable afterwards.
type Options struct {
	// Root is the absolute project root. When set, the source-dir marker
	// must sit directly under it; "" disables the check.
	Root string
	// SourceDirs are marker segments such as "src/lib/". A file is in
	// scope only when the first occurrence of a marker in its path is the
	// configured one, which rejects vendored copies of the source tree.
	SourceDirs []string
	// Extensions is the allowed extension list.
	Extensions []string
	// Exclude holds gitignore-style patterns applied to the path relative
	// to the marker.
	Exclude []string

	excluder *ignore.GitIgnore
}

// DefaultSourceDirs is used when the configuration names none.
var DefaultSourceDirs = []string{"src/lib/"}

// NewOptions normalizes the inputs and compiles the exclusion matcher.
func NewOptions(root string, dirs, exts, exclude []string) *Options {
	o := &Options{
		Root:       strings.TrimSuffix(filepath.ToSlash(root), "/"),
		Extensions: exts,
		Exclude:    exclude,
	}
	if len(dirs) == 0 {
		dirs = DefaultSourceDirs
	}
	for _, d := range dirs {
		d = strings.Trim(filepath.ToSlash(d), "/")
		d = strings.TrimPrefix(d, "./")
		if d == "" {
			continue
		}
		o.SourceDirs = append(o.SourceDirs, d+"/")
	}
	if len(o.Extensions) == 0 {
		o.Extensions = lang.Extensions()
	}
	if len(exclude) > 0 {
		o.excluder = ignore.CompileIgnoreLines(exclude...)
	}
	return o
}

// Matches reports whether path belongs to the analysis set: it sits under
// a configured source directory (first-occurrence rule), its extension is
// allowed, and no exclusion pattern matches its relative path.
func (o *Options) Matches(path string) bool {
	p := filepath.ToSlash(path)
	idx, seg := o.markerIndex(p)
	if idx < 0 {
		return false
	}
	if o.Root != "" && p[:idx] != o.Root+"/" {
		return false
	}
	ext := filepath.Ext(p)
	found := false
	for _, e := range o.Extensions {
		if e == ext {
			found = true
			break
		}
	}
	if !found {
		return false
	}
	if o.excluder != nil && o.excluder.MatchesPath(p[idx+len(seg):]) {
		return false
	}
	return true
}

// ExtractPath strips everything up through and including the first
// source-dir marker. A path without the marker is returned unchanged;
// that is a defensive fallback, not an error.
func (o *Options) ExtractPath(path string) string {
	p := filepath.ToSlash(path)
	if idx, seg := o.markerIndex(p); idx >= 0 {
		return p[idx+len(seg):]
	}
	return path
}

// markerIndex returns the earliest component-aligned occurrence of any
// configured source dir in p, with the matching segment, or (-1, "").
func (o *Options) markerIndex(p string) (int, string) {
	best, seg := -1, ""
	for _, d := range o.SourceDirs {
		i := indexSegment(p, d)
		if i >= 0 && (best < 0 || i < best) {
			best, seg = i, d
		}
	}
	return best, seg
}

// indexSegment returns the first occurrence of marker in p that starts a
// path component, or -1.
func indexSegment(p, marker string) int {
	off := 0
	for {
		i := strings.Index(p[off:], marker)
		if i < 0 {
			return -1
		}
		i += off
		if i == 0 || p[i-1] == '/' {
			return i
		}
		off = i + 1
	}
}

// Collect filters files through the source filter and sorts the survivors
// by their root-relative path for deterministic downstream ordering. An
// empty result is valid; it logs a warning, never an error.
func Collect(files []File, o *Options, logger *log.Logger) []File {
	matched := make([]File, 0, len(files))
	for _, f := range files {
		if o.Matches(f.Path) {
			matched = append(matched, f)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return o.ExtractPath(matched[i].Path) < o.ExtractPath(matched[j].Path)
	})
	if len(matched) == 0 && logger != nil {
		logger.Warn("no source files matched", "root", o.Root, "source_dirs", o.SourceDirs)
	}
	return matched
}

var skipDirs = map[string]struct{}{
	"node_modules": {},
	".git":         {},
	".hg":          {},
	".svn":         {},
	"dist":         {},
	"build":        {},
	"coverage":     {},
	".svelte-kit":  {},
}

// Walk discovers candidate files under root, honoring the project's
// .gitignore when present, and keeps those the filter accepts. Content is
// left nil; loading happens when a file is first parsed.
func Walk(root string, o *Options) ([]File, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	gi := loadGitignore(abs)

	var results []File
	err = filepath.WalkDir(abs, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}

		name := d.Name()

		if d.IsDir() {
			if path == abs {
				return nil
			}
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") {
			return nil
		}

		// Skip symlinks
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		rel, err := filepath.Rel(abs, path)
		if err != nil {
			return nil
		}
		if gi != nil && gi.MatchesPath(rel) {
			return nil
		}

		if lang.ForExtension(filepath.Ext(name)) == nil {
			return nil
		}
		if !o.Matches(path) {
			return nil
		}

		results = append(results, File{Path: filepath.ToSlash(path)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func loadGitignore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return gi
}
