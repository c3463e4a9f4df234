package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// watchDebounce coalesces editor write bursts into one reload.
const watchDebounce = 300 * time.Millisecond

// Watch monitors the config file's directory and invokes onChange with
// the freshly loaded config after each change settles. Watching the
// directory rather than the file survives rename-based atomic saves.
// Blocks until the context is cancelled.
func Watch(ctx context.Context, logger *zap.Logger, path string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}

	timer := time.NewTimer(watchDebounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(watchDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Config watcher error", zap.Error(err))
		case <-timer.C:
			cfg, err := LoadPath(path)
			if err != nil {
				logger.Warn("Ignoring unparseable config change", zap.Error(err))
				continue
			}
			logger.Info("Config reloaded", zap.String("path", path))
			onChange(cfg)
		}
	}
}
