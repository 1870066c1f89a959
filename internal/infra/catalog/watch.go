package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"guardiangw/internal/domain"
)

const defaultReloadDebounce = 200 * time.Millisecond

// Watch reloads the config file whenever it changes and hands every valid
// result to onChange. Invalid edits are logged and skipped. The watch stops
// when ctx is done.
func (l *Loader) Watch(ctx context.Context, path string, onChange func(domain.GatewayConfig)) error {
	if path == "" {
		return fmt.Errorf("config path is required")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	// Watch the directory so editors that replace the file are seen.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch config dir: %w", err)
	}
	go l.runWatcher(ctx, watcher, path, onChange)
	return nil
}

func (l *Loader) runWatcher(ctx context.Context, watcher *fsnotify.Watcher, path string, onChange func(domain.GatewayConfig)) {
	defer watcher.Close()

	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			l.logger.Warn("config watcher error", zap.Error(err))
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !shouldReload(event, path) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(defaultReloadDebounce)
				continue
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(defaultReloadDebounce)
		case <-timerChan(timer):
			timer = nil
			cfg, err := l.Load(ctx, path)
			if err != nil {
				l.logger.Warn("config reload failed", zap.String("path", path), zap.Error(err))
				continue
			}
			l.logger.Info("config reloaded", zap.String("path", path), zap.Int("backends", len(cfg.Backends)))
			onChange(cfg)
		}
	}
}

func shouldReload(event fsnotify.Event, path string) bool {
	if event.Name == "" {
		return false
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	return filepath.Clean(event.Name) == filepath.Clean(path)
}

func timerChan(timer *time.Timer) <-chan time.Time {
	if timer == nil {
		return nil
	}
	return timer.C
}
