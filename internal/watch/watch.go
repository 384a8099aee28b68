// Package watch drives dev-mode regeneration. A Runner monitors the project
// tree with fsnotify, filters events through doublestar globs, and fires a
// debounced callback with the coalesced set of changed paths. A Session
// tracks the last published library.json bytes so unchanged runs are
// suppressed instead of rewriting identical artifacts.
package watch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// debounceDefault is the quiet period after the last event before a refresh
// fires. Editors commonly write a temp file and rename it over the original;
// the window folds that burst into one run.
const debounceDefault = 300 * time.Millisecond

// alwaysIgnore excludes trees and files that generate high-frequency noise
// no library scan cares about.
var alwaysIgnore = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/*.swp",
	"**/*~",
	"**/.DS_Store",
}

// Config parameterizes a Runner.
type Config struct {
	// Dir is the root of the watched tree, typically the project root.
	Dir string
	// Patterns select which changed files trigger a refresh. Empty means
	// every non-ignored file does.
	Patterns []string
	// Ignore adds project-specific exclusions on top of the built-in set.
	// Generated artifacts must be listed here when they live inside the
	// watched tree, otherwise each refresh would observe its own output.
	Ignore []string
	// Debounce overrides the default quiet period when positive.
	Debounce time.Duration
	// OnChange runs after the debounce window with the sorted set of
	// changed paths, relative to Dir.
	OnChange func(ctx context.Context, changed []string) error
	Logger   *log.Logger
}

// Runner owns one fsnotify watch over a project tree. Run may be called
// once.
type Runner struct {
	cfg      Config
	fsw      *fsnotify.Watcher
	ignore   []string
	debounce time.Duration
	dir      string
	logger   *log.Logger
	started  atomic.Bool
}

// New validates the configuration, opens the fsnotify watcher, and registers
// every non-ignored directory under cfg.Dir.
func New(cfg Config) (*Runner, error) {
	dir, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("resolving watch root: %w", err)
	}
	if err := validateGlobs(append(append([]string{}, cfg.Patterns...), cfg.Ignore...)); err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("starting file watcher: %w", err)
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = debounceDefault
	}

	r := &Runner{
		cfg:      cfg,
		fsw:      fsw,
		ignore:   append(append([]string{}, alwaysIgnore...), cfg.Ignore...),
		debounce: debounce,
		dir:      dir,
		logger:   cfg.Logger,
	}
	if err := r.addTree(); err != nil {
		fsw.Close()
		return nil, err
	}
	return r, nil
}

// Run processes events until ctx is cancelled, which reports nil. Events
// inside one debounce window coalesce into a single OnChange call; a window
// that closes while a previous call is still running reschedules itself so
// the pending set is never dropped.
func (r *Runner) Run(ctx context.Context) error {
	if !r.started.CompareAndSwap(false, true) {
		return errors.New("watch runner already started")
	}
	defer r.fsw.Close()

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		busy    atomic.Bool
	)

	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !busy.CompareAndSwap(false, true) {
			// A refresh is still running; retry after another window.
			mu.Lock()
			if timer != nil {
				timer.Reset(r.debounce)
			}
			mu.Unlock()
			if r.logger != nil {
				r.logger.Debug("refresh still running; deferring")
			}
			return
		}
		defer busy.Store(false)

		mu.Lock()
		if len(pending) == 0 {
			mu.Unlock()
			return
		}
		changed := make([]string, 0, len(pending))
		for p := range pending {
			changed = append(changed, p)
		}
		clear(pending)
		mu.Unlock()
		sort.Strings(changed)

		if r.cfg.OnChange == nil {
			return
		}
		if err := r.cfg.OnChange(ctx, changed); err != nil && r.logger != nil {
			r.logger.Error("refresh failed", "error", err)
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-r.fsw.Events:
			if !ok {
				return errors.New("watch event channel closed")
			}
			rel, err := filepath.Rel(r.dir, evt.Name)
			if err != nil {
				rel = evt.Name
			}
			if r.ignored(rel) {
				continue
			}
			// Directories created after startup must join the watch before
			// pattern filtering: a bare directory name never matches a file
			// glob, but changes inside it must still be seen.
			if evt.Has(fsnotify.Create) {
				r.addCreated(evt.Name)
			}
			if !r.matches(rel) {
				continue
			}

			mu.Lock()
			pending[filepath.ToSlash(rel)] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(r.debounce, fire)
			} else {
				timer.Reset(r.debounce)
			}
			mu.Unlock()

		case err, ok := <-r.fsw.Errors:
			if !ok {
				return errors.New("watch error channel closed")
			}
			if r.logger != nil {
				r.logger.Warn("file watcher error", "error", err)
			}
		}
	}
}

// addTree registers every directory under the root, skipping ignored
// subtrees entirely so the watcher never descends into them.
func (r *Runner) addTree() error {
	return filepath.WalkDir(r.dir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			if r.logger != nil {
				r.logger.Warn("skipping unreadable path", "path", path, "error", walkErr)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(r.dir, path)
		if err != nil {
			return nil
		}
		if rel != "." && (r.ignored(rel) || r.ignored(rel+"/")) {
			return filepath.SkipDir
		}
		if err := r.fsw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

func (r *Runner) addCreated(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	rel, err := filepath.Rel(r.dir, path)
	if err != nil || r.ignored(rel) || r.ignored(rel+"/") {
		return
	}
	if err := r.fsw.Add(path); err != nil && r.logger != nil {
		r.logger.Warn("watching new directory failed", "path", path, "error", err)
	}
}

func (r *Runner) ignored(rel string) bool {
	return matchAny(r.ignore, filepath.ToSlash(rel))
}

func (r *Runner) matches(rel string) bool {
	if len(r.cfg.Patterns) == 0 {
		return true
	}
	return matchAny(r.cfg.Patterns, filepath.ToSlash(rel))
}

func matchAny(patterns []string, rel string) bool {
	for _, pat := range patterns {
		if ok, err := doublestar.Match(pat, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// validateGlobs rejects malformed patterns at construction time; a bad glob
// would otherwise silently match nothing.
func validateGlobs(patterns []string) error {
	for _, pat := range patterns {
		if _, err := doublestar.Match(pat, ""); err != nil {
			return fmt.Errorf("invalid watch pattern %q: %w", pat, err)
		}
	}
	return nil
}

// Session decides whether a refresh produced new output. The first Publish
// always reports true; afterwards byte-identical library.json bytes are
// suppressed so downstream consumers only hear about real model changes.
type Session struct {
	logger *log.Logger
	prev   []byte
}

func NewSession(logger *log.Logger) *Session {
	return &Session{logger: logger}
}

// Publish records data as the latest output and reports whether it differs
// from the previously published bytes.
func (s *Session) Publish(data []byte) bool {
	if s.prev != nil && bytes.Equal(s.prev, data) {
		if s.logger != nil {
			s.logger.Debug("library model unchanged; skipping rewrite")
		}
		return false
	}
	s.prev = append([]byte(nil), data...)
	return true
}
