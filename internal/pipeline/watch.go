package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/kisanseva/pagetrans/internal/logger"
)

// DefaultWatchDelay is how long the input must stay quiet before a rerun.
const DefaultWatchDelay = 300 * time.Millisecond

// WatchPageTranslation translates cfg.InputPath once, then again after
// every change to it, until ctx is done. Runs never overlap and each one
// overwrites cfg.OutputPath. onResult, if set, receives every run's outcome.
func WatchPageTranslation(ctx context.Context, cfg Config, delay time.Duration, onResult func(TranslationResult, error)) error {
	if delay <= 0 {
		delay = DefaultWatchDelay
	}
	absIn, err := filepath.Abs(cfg.InputPath)
	if err != nil {
		return fmt.Errorf("failed to resolve input path: %w", err)
	}
	cfg.Overwrite = true

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors often replace the file instead of
	// writing it in place.
	dir := filepath.Dir(absIn)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	run := func() {
		res, err := RunPageTranslation(ctx, cfg)
		if err != nil && ctx.Err() == nil {
			logger.Error("Watch run failed", "path", cfg.InputPath, "error", err)
		}
		if onResult != nil {
			onResult(res, err)
		}
	}

	// trigger holds at most one pending run; changes during a run collapse
	// into a single rerun.
	trigger := make(chan struct{}, 1)
	var (
		mu       sync.Mutex
		debounce *time.Timer
	)
	schedule := func() {
		mu.Lock()
		defer mu.Unlock()
		if debounce != nil {
			debounce.Stop()
		}
		debounce = time.AfterFunc(delay, func() {
			select {
			case trigger <- struct{}{}:
			default:
			}
		})
	}
	defer func() {
		mu.Lock()
		if debounce != nil {
			debounce.Stop()
		}
		mu.Unlock()
	}()

	logger.Info("Watching page for changes", "path", cfg.InputPath)
	run()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-trigger:
			if ctx.Err() != nil {
				return nil
			}
			logger.Info("Page changed, translating again", "path", cfg.InputPath)
			run()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != absIn {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			schedule()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error", "error", err)
		}
	}
}
