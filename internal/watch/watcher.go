// Package watch keeps a Python environment in sync with its requirements
// manifest. It watches the manifest's directory through fsnotify, debounces
// rapid saves per path, and triggers a dependency reinstall once a change
// settles. Install failures are logged and never stop the watch.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"automationhub/internal/logging"
)

// SyncFunc reinstalls dependencies after a settled manifest change.
type SyncFunc func(ctx context.Context) error

// Watcher monitors one requirements manifest.
type Watcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	manifest    string // absolute path of the watched manifest
	dir         string // directory added to fsnotify
	syncFn      SyncFunc
	debounceMap map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool

	stats Stats
}

// Stats tracks watcher activity for the stop summary and tests.
type Stats struct {
	EventsSeen      int
	InstallsRun     int
	InstallFailures int
	Errors          int
	LastEventTime   time.Time
	LastEventOp     string
}

// New builds a watcher over the given manifest path. The manifest's
// directory is watched rather than the file itself: editors that save via
// rename replace the inode, and a file watch would go stale after the
// first save.
func New(manifest string, syncFn SyncFunc) (*Watcher, error) {
	abs, err := filepath.Abs(manifest)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:     fsw,
		manifest:    abs,
		dir:         filepath.Dir(abs),
		syncFn:      syncFn,
		debounceMap: make(map[string]time.Time),
		debounceDur: 500 * time.Millisecond, // Debounce rapid saves
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Manifest returns the absolute path being watched.
func (w *Watcher) Manifest() string { return w.manifest }

// Start begins watching. Non-blocking; the event loop runs in a goroutine.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(w.dir); err != nil {
		// The directory may appear later (e.g. fresh checkout). Keep the
		// loop alive so a restart is not needed once it does.
		logging.WatchWarn("Initial watch on %s failed: %v", w.dir, err)
	} else {
		logging.Watch("Watching %s for changes to %s", w.dir, filepath.Base(w.manifest))
	}

	go w.run(ctx)
	return nil
}

// Stop shuts the event loop down and logs the activity summary.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		logging.Get(logging.CategoryWatch).Error("Error closing watcher: %v", err)
	}

	s := w.GetStats()
	logging.Watch("Watcher stopped: %d events, %d installs (%d failed)",
		s.EventsSeen, s.InstallsRun, s.InstallFailures)
}

// run is the event loop.
func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	debounceTicker := time.NewTicker(100 * time.Millisecond)
	defer debounceTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Watch("Watcher context cancelled")
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Get(logging.CategoryWatch).Error("Watch error: %v", err)
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-debounceTicker.C:
			w.processSettled(ctx)
		}
	}
}

// handleEvent records a manifest event for debounced processing.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.manifest {
		return
	}

	var op string
	switch {
	case event.Op&fsnotify.Create != 0:
		op = "create"
	case event.Op&fsnotify.Write != 0:
		op = "write"
	case event.Op&fsnotify.Rename != 0:
		op = "rename"
	case event.Op&fsnotify.Remove != 0:
		// A removed manifest has nothing to install from.
		logging.WatchDebug("Manifest removed, ignoring until it reappears")
		return
	default:
		return // chmod etc.
	}

	logging.WatchDebug("Manifest %s event", op)

	w.mu.Lock()
	w.stats.EventsSeen++
	w.stats.LastEventTime = time.Now()
	w.stats.LastEventOp = op
	w.debounceMap[event.Name] = time.Now()
	w.mu.Unlock()
}

// processSettled runs the sync hook for events past the debounce window.
func (w *Watcher) processSettled(ctx context.Context) {
	w.mu.Lock()
	now := time.Now()
	var settled []string
	for path, eventTime := range w.debounceMap {
		if now.Sub(eventTime) >= w.debounceDur {
			settled = append(settled, path)
			delete(w.debounceMap, path)
		}
	}
	w.mu.Unlock()

	for range settled {
		w.runSync(ctx)
	}
}

// runSync reinstalls dependencies once. Failures never stop the watch.
func (w *Watcher) runSync(ctx context.Context) {
	if _, err := os.Stat(w.manifest); err != nil {
		logging.WatchDebug("Manifest gone before sync, skipping: %v", err)
		return
	}

	logging.Watch("Manifest changed, syncing dependencies")
	w.mu.Lock()
	w.stats.InstallsRun++
	w.mu.Unlock()

	if err := w.syncFn(ctx); err != nil {
		logging.WatchWarn("Dependency sync failed: %v", err)
		w.mu.Lock()
		w.stats.InstallFailures++
		w.mu.Unlock()
	}
}

// GetStats returns a snapshot of watcher activity.
func (w *Watcher) GetStats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// IsWatching reports whether the event loop is running.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}
