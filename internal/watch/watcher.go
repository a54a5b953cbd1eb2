// Package watch drives incremental rebuilds from filesystem activity: a
// recursive watcher feeds a coordinator that debounces change bursts into
// single generations.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/sitegen/internal/metrics"
)

// Event is one observed content change.
type Event struct {
	Path string
	Op   string
}

// Watcher recursively watches a content tree and forwards relevant events.
// New subdirectories are added to the watch as they appear.
type Watcher struct {
	root     string
	exclude  map[string]struct{}
	watcher  *fsnotify.Watcher
	events   chan Event
	logger   *slog.Logger
	recorder metrics.Recorder
}

// NewWatcher sets up a recursive watch over root. Excluded directories,
// hidden directories, and underscore-prefixed directories are not watched.
func NewWatcher(root string, exclude []string, logger *slog.Logger, recorder metrics.Recorder) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("resolve watch root: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}

	w := &Watcher{
		root:     absRoot,
		exclude:  map[string]struct{}{},
		watcher:  fsw,
		events:   make(chan Event, 64),
		logger:   logger,
		recorder: recorder,
	}
	for _, dir := range exclude {
		if abs, err := filepath.Abs(dir); err == nil {
			w.exclude[abs] = struct{}{}
		}
	}

	if err := w.addRecursive(absRoot); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Events is the stream of filtered content changes.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Run forwards events until the context ends. It closes the event channel on
// return.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.events)
	defer func() { _ = w.watcher.Close() }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	path := event.Name
	if w.ignored(path) {
		return
	}

	// A freshly created directory must join the watch before files land
	// inside it.
	if event.Op.Has(fsnotify.Create) {
		if fi, err := os.Stat(path); err == nil && fi.IsDir() {
			if err := w.addRecursive(path); err != nil {
				w.logger.Warn("could not watch new directory", "path", path, "error", err)
			}
		}
	}

	w.recorder.IncWatchEvents(1)
	select {
	case w.events <- Event{Path: path, Op: event.Op.String()}:
	case <-ctx.Done():
	}
}

func (w *Watcher) ignored(path string) bool {
	for dir := range w.exclude {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") || strings.HasPrefix(base, "_")
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// The tree can change underneath the walk.
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.ignored(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}
