package components

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const reloadDebounce = 100 * time.Millisecond

// WatchFile reloads registry from path whenever the file changes, layering
// the file's entries for the registry's network over base. The parent
// directory is watched so editors that replace the file are picked up. A file
// that fails to parse is logged and the previous entries stay in place.
// WatchFile blocks until ctx is done.
func WatchFile(ctx context.Context, registry *Registry, base Entries, path string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("components: create watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("components: resolve %s: %w", path, err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("components: watch %s: %w", filepath.Dir(abs), err)
	}

	reload := func() {
		loaded, err := LoadFile(abs)
		if err != nil {
			logger.Warn("component registry reload failed", zap.String("path", abs), zap.Error(err))
			return
		}
		registry.Replace(Merge(base, loaded[registry.Network()]))
		logger.Info("component registry reloaded",
			zap.String("path", abs),
			zap.String("network", string(registry.Network())),
		)
	}

	timer := time.NewTimer(reloadDebounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			timer.Reset(reloadDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("component registry watcher error", zap.Error(err))
		case <-timer.C:
			reload()
		}
	}
}
