package store

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Reloadable is a store that can refresh itself from its backing file.
type Reloadable interface {
	Reload() (bool, error)
	Path() string
}

// Watch runs an fsnotify watcher on dataDir until ctx is cancelled,
// reloading any registered store whose file is written out-of-band (manual
// edits, external tooling). Reloads are debounced, and stores skip events
// caused by their own persists via the checksum gate in Reload. cb (if
// non-nil) is called with the file basename after each effective reload.
func Watch(ctx context.Context, dataDir string, logger *slog.Logger, stores []Reloadable, cb func(file string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	byName := make(map[string]Reloadable, len(stores))
	for _, s := range stores {
		byName[filepath.Base(s.Path())] = s
	}

	if err := w.Add(dataDir); err != nil {
		return err
	}
	logger.Info("watcher: started", slog.String("dir", dataDir))

	// Debounce bursts of events (editors write several times per save).
	pending := make(map[string]Reloadable)
	var flushTimer *time.Timer
	var flushCh <-chan time.Time

	scheduleFlush := func() {
		if flushTimer == nil {
			flushTimer = time.NewTimer(200 * time.Millisecond)
			flushCh = flushTimer.C
		} else {
			flushTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if flushTimer != nil {
				flushTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-flushCh:
			for name, s := range pending {
				delete(pending, name)
				changed, err := s.Reload()
				if err != nil {
					logger.Warn("watcher: reload failed",
						slog.String("file", name),
						slog.String("error", err.Error()))
					continue
				}
				if !changed {
					continue
				}
				logger.Info("watcher: collection reloaded", slog.String("file", name))
				if cb != nil {
					cb(name)
				}
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			name := filepath.Base(ev.Name)
			s, known := byName[name]
			if !known {
				continue
			}
			pending[name] = s
			scheduleFlush()

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher: error", slog.String("error", err.Error()))
		}
	}
}
