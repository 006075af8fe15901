package watcher

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/semaphore"

	"github.com/thedavidhackett/draft-two/internal/logger"
)

type Config struct {
	Dir string
	// Extensions are matched case-insensitively, with the leading dot.
	Extensions    []string
	MaxConcurrent int
	// SettleDelay is waited after a create event before the file is handed
	// to the handler.
	SettleDelay time.Duration
	// ProcessExisting also handles files already in Dir when Start is called.
	ProcessExisting bool
}

// New creates a new Watcher instance with concurrency control
func New(cfg Config, handler EventHandler, log logger.Logger) (Watcher, error) {
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("create inbox: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	if err := watcher.Add(cfg.Dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}

	// Default to 2 concurrent if not specified
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 2
	}

	exts := make(map[string]bool, len(cfg.Extensions))
	for _, ext := range cfg.Extensions {
		exts[strings.ToLower(ext)] = true
	}

	return &implWatcher{
		cfg:     cfg,
		exts:    exts,
		handler: handler,
		logger:  log,
		watcher: watcher,
		sem:     semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		seen:    make(map[string]bool),
	}, nil
}
