// Package watch re-runs a callback when Python files under a directory
// change.
package watch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"

	"github.com/panbanda/pyreview/pkg/config"
	"github.com/panbanda/pyreview/pkg/parser"
)

// DefaultDebounce is how long a file must stay quiet before its callback runs.
const DefaultDebounce = 500 * time.Millisecond

// Callback handles one changed file.
type Callback func(ctx context.Context, path string)

// Watcher monitors files for changes and triggers analysis.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	config    *config.Config
	debounce  time.Duration
	path      string
	callback  Callback
	logger    *slog.Logger

	mu      sync.Mutex
	pending map[string]time.Time
	// seen holds the content fingerprint of each file as of its last
	// callback. A write that leaves the content unchanged (such as a
	// formatter rewriting an already formatted file) is ignored.
	seen map[string]uint64
	// running marks files whose callback has not returned yet.
	running map[string]bool
}

// NewWatcher creates a new file watcher.
func NewWatcher(path string, cfg *config.Config, debounce time.Duration) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	return &Watcher{
		fsWatcher: fsWatcher,
		config:    cfg,
		debounce:  debounce,
		path:      path,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		pending:   make(map[string]time.Time),
		seen:      make(map[string]uint64),
		running:   make(map[string]bool),
	}, nil
}

// SetCallback sets the function to call when a file changes.
func (w *Watcher) SetCallback(cb Callback) {
	w.callback = cb
}

// SetLogger sets the logger for watch errors and skipped events.
func (w *Watcher) SetLogger(l *slog.Logger) {
	w.logger = l
}

// Start adds every non-excluded directory under the root and blocks,
// dispatching changes until ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addTree(w.path); err != nil {
		return err
	}

	go w.processDebounced(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch error", "error", err)
		}
	}
}

func (w *Watcher) excludedDir(name string) bool {
	for _, excluded := range w.config.Exclude.Dirs {
		if name == excluded {
			return true
		}
	}
	return false
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // Skip unreadable entries
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.excludedDir(d.Name()) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

// handleEvent processes a filesystem event.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}

	path := event.Name

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if !w.excludedDir(filepath.Base(path)) {
				if err := w.addTree(path); err != nil {
					w.logger.Warn("cannot watch new directory", "dir", path, "error", err)
				}
			}
			return
		}
	}

	if w.config.ShouldExclude(path) || !parser.IsPython(path) {
		return
	}

	w.mu.Lock()
	w.pending[path] = time.Now()
	w.mu.Unlock()
}

// processDebounced processes pending changes after debounce period.
func (w *Watcher) processDebounced(ctx context.Context) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processPending(ctx)
		}
	}
}

// processPending dispatches files that have been stable for the debounce
// period. A file whose callback is still running stays pending.
func (w *Watcher) processPending(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	for path, lastMod := range w.pending {
		if now.Sub(lastMod) < w.debounce || w.running[path] {
			continue
		}
		delete(w.pending, path)

		sum, err := fingerprint(path)
		if err != nil {
			// Removed or renamed before we got to it
			continue
		}
		if prev, ok := w.seen[path]; ok && prev == sum {
			w.logger.Debug("content unchanged, skipping", "file", path)
			continue
		}
		if w.callback != nil {
			w.running[path] = true
			go w.runCallback(ctx, path)
		}
	}
}

// runCallback executes the callback and records the file's content
// afterwards, so edits the callback itself makes are not reported again.
func (w *Watcher) runCallback(ctx context.Context, path string) {
	w.callback(ctx, path)

	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.running, path)
	if sum, err := fingerprint(path); err == nil {
		w.seen[path] = sum
	}
}

func fingerprint(path string) (uint64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return xxhash.Sum64(data), nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.fsWatcher.Close()
}

// WatchedDirs returns the directories being watched.
func (w *Watcher) WatchedDirs() []string {
	return w.fsWatcher.WatchList()
}
