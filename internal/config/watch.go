package config

import (
	"context"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// WatchForChanges watches path for on-disk changes and logs an advisory
// notice when it changes. Unlike the teacher's reloader, it never
// mutates a running policy — msaada's policy is immutable once
// constructed (invariant 5), so a config edit only takes effect on
// restart. The watcher stops when ctx is done.
func WatchForChanges(ctx context.Context, logger *slog.Logger, path string) error {
	if path == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					logger.Warn("config file changed on disk; restart msaada to apply", "file", path)
				}
			case watchErr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Error("config watcher error", "error", watchErr)
			}
		}
	}()

	return nil
}
