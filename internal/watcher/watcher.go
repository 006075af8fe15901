package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/semaphore"

	"github.com/thedavidhackett/draft-two/internal/logger"
)

type implWatcher struct {
	cfg     Config
	exts    map[string]bool
	handler EventHandler
	logger  logger.Logger
	watcher *fsnotify.Watcher
	sem     *semaphore.Weighted
	wg      sync.WaitGroup

	mu   sync.Mutex
	seen map[string]bool
}

// Start begins monitoring the inbox for new media files and blocks until ctx
// is cancelled or the watcher is closed. In-flight handlers are awaited.
func (w *implWatcher) Start(ctx context.Context) error {
	defer w.wg.Wait()

	w.logger.Info(ctx, "File watcher started (max concurrent: %d). Monitoring: %s", w.cfg.MaxConcurrent, w.cfg.Dir)
	w.logger.Info(ctx, "Supported formats: %s", strings.Join(w.cfg.Extensions, ", "))

	if w.cfg.ProcessExisting {
		if err := w.dispatchExisting(ctx); err != nil {
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "Waiting for ongoing processing to complete...")
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}

			// Only process CREATE events
			if !event.Has(fsnotify.Create) {
				continue
			}
			if !w.isMediaFile(event.Name) {
				w.logger.Debug(ctx, "Ignoring unsupported file: %s", event.Name)
				continue
			}
			w.logger.Info(ctx, "New media detected: %s", event.Name)
			if err := w.dispatch(ctx, event.Name); err != nil {
				return err
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error(ctx, "Watcher error: %v", err)
		}
	}
}

// Stop closes the file watcher
func (w *implWatcher) Stop() error {
	return w.watcher.Close()
}

func (w *implWatcher) dispatchExisting(ctx context.Context) error {
	entries, err := os.ReadDir(w.cfg.Dir)
	if err != nil {
		return fmt.Errorf("read inbox: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !w.isMediaFile(entry.Name()) {
			continue
		}
		path := filepath.Join(w.cfg.Dir, entry.Name())
		w.logger.Info(ctx, "Found pending media: %s", path)
		if err := w.dispatch(ctx, path); err != nil {
			return err
		}
	}
	return nil
}

// dispatch blocks until a slot is free, then handles path in the background.
// A path already being handled is skipped.
func (w *implWatcher) dispatch(ctx context.Context, path string) error {
	if !w.claim(path) {
		w.logger.Debug(ctx, "Already processing: %s", path)
		return nil
	}

	if err := w.sem.Acquire(ctx, 1); err != nil {
		w.release(path)
		return err
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer w.sem.Release(1)
		defer w.release(path)

		if w.cfg.SettleDelay > 0 {
			select {
			case <-time.After(w.cfg.SettleDelay):
			case <-ctx.Done():
				return
			}
		}

		if err := w.handler(ctx, path); err != nil {
			w.logger.Error(ctx, "Failed to process %s: %v", path, err)
		}
	}()
	return nil
}

func (w *implWatcher) claim(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.seen[path] {
		return false
	}
	w.seen[path] = true
	return true
}

func (w *implWatcher) release(path string) {
	w.mu.Lock()
	delete(w.seen, path)
	w.mu.Unlock()
}

func (w *implWatcher) isMediaFile(path string) bool {
	return w.exts[strings.ToLower(filepath.Ext(path))]
}
