package projector

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/othala/internal/checksum"
	"github.com/starford/othala/internal/registry"
	"github.com/starford/othala/internal/storage"
)

// EventCallback is called after a watcher-driven resync.
type EventCallback func()

// Watch starts an fsnotify watcher on the store document's directory and
// processes change events until ctx is cancelled. When the document changes
// on disk with contents the store did not write itself, the store is
// reloaded, the registry resynced, and cb (if non-nil) invoked.
//
// Atomic writes land as rename events on the parent directory, so the whole
// directory is watched and events are filtered down to the document path.
// Events are debounced because a single save produces several of them.
func Watch(ctx context.Context, reg registry.EntityRegistry, store *storage.File, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir := filepath.Dir(store.Path())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := w.Add(dir); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("document", store.Path()))

	var debounce *time.Timer
	var debounceCh <-chan time.Time

	schedule := func() {
		if debounce == nil {
			debounce = time.NewTimer(200 * time.Millisecond)
			debounceCh = debounce.C
		} else {
			debounce.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-debounceCh:
			reloadAndResync(reg, store, logger, cb)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Name != store.Path() {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) != 0 {
				schedule()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reloadAndResync reloads the document and replays the projection, unless
// the on-disk contents match what the store last wrote (a self-write).
func reloadAndResync(reg registry.EntityRegistry, store *storage.File, logger *slog.Logger, cb EventCallback) {
	data, err := os.ReadFile(store.Path())
	if err == nil && checksum.Sum(data) == store.Checksum() {
		return
	}

	if err := store.Reload(); err != nil {
		logger.Warn("watcher: reload failed", slog.String("error", err.Error()))
		return
	}
	if err := Resync(reg, store, logger); err != nil {
		logger.Warn("watcher: resync failed", slog.String("error", err.Error()))
		return
	}
	logger.Info("watcher: resynced after external change")
	if cb != nil {
		cb()
	}
}
