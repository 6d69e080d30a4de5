package config

import (
	"context"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// WatchDir watches dir for create/write/remove/rename events and invokes
// onChange with the changed path. Blocks until ctx is cancelled. Nothing
// in this repository calls it; prompt sections are compiled into
// internal/prompt and are not reloaded at run time.
func WatchDir(ctx context.Context, dir string, onChange func(path string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				onChange(event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("config watch error", "dir", dir, "error", err)
		}
	}
}
