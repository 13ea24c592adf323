package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/penwyp/go-timeline-mapper/internal/util"
)

// Watcher re-triggers a pipeline pass whenever a watched input directory
// changes. Bursts of filesystem events within the cooldown window collapse
// into a single run; the debounce timestamp is owned by the watcher, never
// ambient.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	paths     []string
	cooldown  time.Duration
	onChange  func(context.Context)

	mu      sync.Mutex
	lastRun time.Time
}

// New sets up recursive watches on the given paths, creating missing
// directories first so the watches can attach.
func New(paths []string, cooldown time.Duration, onChange func(context.Context)) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsWatcher: fsWatcher,
		paths:     paths,
		cooldown:  cooldown,
		onChange:  onChange,
	}

	for _, path := range paths {
		if err := os.MkdirAll(path, 0755); err != nil {
			fsWatcher.Close()
			return nil, err
		}
		if err := w.addPath(path); err != nil {
			fsWatcher.Close()
			return nil, err
		}
	}

	return w, nil
}

func (w *Watcher) addPath(path string) error {
	return filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			return w.fsWatcher.Add(p)
		}
		return nil
	})
}

// shouldRun applies the cooldown. The timestamp advances only when a run is
// admitted, so a steady stream of events still runs once per window.
func (w *Watcher) shouldRun(now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if now.Sub(w.lastRun) < w.cooldown {
		return false
	}
	w.lastRun = now
	return true
}

// Run blocks processing filesystem events until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	util.LogInfo("Watching for changes:")
	for _, p := range w.paths {
		util.LogInfof(" - %s", p)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			// New subdirectories need their own watch.
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.addPath(event.Name)
				}
			}
			if !w.shouldRun(time.Now()) {
				continue
			}
			util.LogInfof("Change detected (%s), updating...", event.Name)
			w.onChange(ctx)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			util.LogError("File monitoring error: " + err.Error())
		}
	}
}

// Close releases the underlying filesystem watches.
func (w *Watcher) Close() error {
	return w.fsWatcher.Close()
}
