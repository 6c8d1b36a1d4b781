package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const DefaultDebounce = 300 * time.Millisecond

// Handler regenerates the documentation for one changed source file
type Handler func(path string) error

// Watcher regenerates documentation when annotated sources change
type Watcher struct {
	dir      string
	accept   func(path string) bool
	handle   Handler
	debounce time.Duration

	watcher *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// NewWatcher watches dir for changes to files accepted by accept
func NewWatcher(dir string, accept func(string) bool, handle Handler, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to resolve sources path: %w", err)
	}

	if err := fw.Add(absDir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", absDir, err)
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		dir:      absDir,
		accept:   accept,
		handle:   handle,
		debounce: debounce,
		watcher:  fw,
		pending:  make(map[string]*time.Timer),
	}, nil
}

// Run blocks until ctx is cancelled or the underlying watcher fails
func (w *Watcher) Run(ctx context.Context) error {
	slog.Info("watching annotated sources", "dir", w.dir)
	defer w.close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.accept(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				slog.Debug("source change detected", "file", event.Name, "op", event.Op.String())
				w.schedule(event.Name)
			} else if event.Op&fsnotify.Remove == fsnotify.Remove {
				slog.Warn("source removed, generated page left in place", "file", event.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("watcher error", "error", err)
		}
	}
}

// schedule runs the handler for path once no new event arrived within the
// debounce window
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		if err := w.handle(path); err != nil {
			slog.Error("failed to regenerate documentation", "file", path, "error", err)
			return
		}
		slog.Info("regenerated documentation", "file", path)
	})
}

func (w *Watcher) close() {
	w.mu.Lock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()

	if err := w.watcher.Close(); err != nil {
		slog.Error("error closing file watcher", "error", err)
	}
}
