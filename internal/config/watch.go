package config

import (
	"context"

	"github.com/fsnotify/fsnotify"
	"github.com/pfrederiksen/rota-merge/internal/logger"
)

// Watch monitors path for changes and calls onChange with the newly loaded
// Config each time the file is written. It runs until ctx is cancelled.
//
// If a reload fails (e.g., invalid YAML), the error is logged and the
// previous config remains active.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	logger.Info("Watching config for changes", logger.Fields{"path": path})

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Editors often save via rename, so Create counts too.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			cfg, err := Load(path)
			if err != nil {
				logger.Error("Config reload failed, keeping previous config", logger.Fields{"path": path}, err)
				continue
			}

			logger.Info("Config reloaded", logger.Fields{
				"path":    path,
				"sources": len(cfg.Sources),
			})
			onChange(cfg)

			// Re-add the file in case an atomic save replaced the inode.
			_ = watcher.Add(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("Config watcher error", logger.Fields{"path": path}, err)
		}
	}
}
