// Package watch regenerates output whenever the repository's refs move.
// It watches the git directory (HEAD, packed-refs, refs/heads, refs/tags
// and refs/remotes) with fsnotify and funnels bursts of events through a
// debouncer, so a fetch or a rebase causes one regeneration.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ariel-frischer/gitchangelog/internal/debounce"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when Options.Debounce is zero.
const DefaultDebounce = 500 * time.Millisecond

// debugLogger is a function that logs debug messages when debug mode is enabled.
var debugLogger func(format string, args ...any)

// SetDebugLogger configures the debug logger for the watcher.
// Pass nil to disable debug logging.
func SetDebugLogger(logger func(format string, args ...any)) {
	debugLogger = logger
}

func logDebug(format string, args ...any) {
	if debugLogger != nil {
		debugLogger(format, args...)
	}
}

// Options configures a Watcher.
type Options struct {
	// GitDir is the repository's .git directory.
	GitDir   string
	Debounce time.Duration
	// OnChange runs after a quiet period following ref changes. Runs never
	// overlap; a change during a run schedules another one.
	OnChange func(ctx context.Context) error
	// OnError receives OnChange failures and watcher errors. Optional.
	OnError func(err error)
}

// Watcher drives OnChange from filesystem events.
type Watcher struct {
	opts Options

	runMu sync.Mutex
	ctx   context.Context
}

// New validates opts and returns a Watcher.
func New(opts Options) (*Watcher, error) {
	if opts.GitDir == "" {
		return nil, errors.New("watch: git directory is required")
	}
	if opts.OnChange == nil {
		return nil, errors.New("watch: OnChange is required")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	return &Watcher{opts: opts}, nil
}

// Run watches until ctx is cancelled. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer fsw.Close()

	paths := WatchPaths(w.opts.GitDir)
	if len(paths) == 0 {
		return fmt.Errorf("watch: nothing to watch under %s", w.opts.GitDir)
	}
	for _, path := range paths {
		logDebug("[watch] adding %s", path)
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
	}

	w.ctx = ctx
	d := debounce.New(w.opts.Debounce, w.regenerate)
	defer d.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !Relevant(ev) {
				continue
			}
			logDebug("[watch] %s %s", ev.Op, ev.Name)
			// New ref namespaces (e.g. a first remote) need their own watch.
			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = fsw.Add(ev.Name)
				}
			}
			d.Trigger()
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.report(fmt.Errorf("fsnotify: %w", err))
		}
	}
}

func (w *Watcher) regenerate() {
	w.runMu.Lock()
	defer w.runMu.Unlock()
	if w.ctx.Err() != nil {
		return
	}
	logDebug("[watch] regenerating")
	if err := w.opts.OnChange(w.ctx); err != nil {
		w.report(err)
	}
}

func (w *Watcher) report(err error) {
	if w.opts.OnError != nil {
		w.opts.OnError(err)
	}
}

// WatchPaths lists the existing directories to watch under gitDir, sorted.
// fsnotify is not recursive, so every ref directory is listed on its own.
func WatchPaths(gitDir string) []string {
	if gitDir == "" {
		return nil
	}
	if info, err := os.Stat(gitDir); err != nil || !info.IsDir() {
		return nil
	}

	unique := map[string]struct{}{gitDir: {}}
	for _, sub := range []string{"refs/heads", "refs/tags", "refs/remotes"} {
		root := filepath.Join(gitDir, filepath.FromSlash(sub))
		_ = filepath.WalkDir(root, func(path string, entry os.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if entry.IsDir() {
				unique[path] = struct{}{}
			}
			return nil
		})
	}

	paths := make([]string, 0, len(unique))
	for p := range unique {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Relevant reports whether ev can move a ref. Lock files written by git
// during updates and objects are ignored.
func Relevant(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return !shouldIgnoreWatchPath(ev.Name)
}

func shouldIgnoreWatchPath(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".lock" || ext == ".ipc" {
		return true
	}
	base := filepath.Base(name)
	switch base {
	case "index", "COMMIT_EDITMSG", "FETCH_HEAD", "ORIG_HEAD", "logs", "objects":
		return true
	}
	return false
}
