// Package watcher triggers index reloads when the on-disk snapshot
// changes. The ingestion pipeline writes a fresh index file; watching
// it means a running assistant picks the new corpus up without a
// restart.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/keeva-labs/keeva/internal/logger"
)

// DefaultDebounce coalesces the burst of writes SQLite makes while the
// ingestion pipeline is still mid-rewrite.
const DefaultDebounce = 2 * time.Second

// Watcher observes one index file and invokes a reload callback after
// writes settle.
type Watcher struct {
	path     string
	debounce time.Duration
	reload   func(context.Context) error
}

// New creates a watcher for the given index file. The reload callback
// runs after changes settle for the debounce interval.
func New(path string, debounce time.Duration, reload func(context.Context) error) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		path:     path,
		debounce: debounce,
		reload:   reload,
	}
}

// Run watches until the context is cancelled. The parent directory is
// watched rather than the file itself: ingestion may replace the file
// wholesale, which drops a file-level watch.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	logger.Debug("Watching %s for index changes", dir)

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timerC = nil
			timer = nil
			logger.Info("Index file changed, reloading")
			if err := w.reload(ctx); err != nil {
				logger.Warn("Index reload failed: %v", err)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}
