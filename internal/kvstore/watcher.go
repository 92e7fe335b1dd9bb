package kvstore

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// EventCallback is called for every external change to a store entry.
// kind is "changed" or "removed"; key is the entry key with the namespace
// prefix stripped.
type EventCallback func(kind, key string)

// Watch starts an fsnotify watcher on a FileMedium's root and reports
// entry changes until ctx is cancelled. It is observability only: the
// store is single-writer, so nothing is reloaded or merged.
func Watch(ctx context.Context, medium *FileMedium, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(medium.Root()); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", medium.Root()))

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			key, ok := DecodeFilename(filepath.Base(ev.Name))
			if !ok || !strings.HasPrefix(key, Prefix) {
				// Temp files from atomic writes, or foreign files.
				continue
			}
			if key == secretKey {
				continue
			}
			short := strings.TrimPrefix(key, Prefix)

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				logger.Debug("watcher: entry changed", slog.String("key", short))
				if cb != nil {
					cb("changed", short)
				}
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				logger.Debug("watcher: entry removed", slog.String("key", short))
				if cb != nil {
					cb("removed", short)
				}
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
