package watcher

import "context"

// Watcher monitors an inbox folder and hands every new media file to an
// EventHandler.
type Watcher interface {
	// Start blocks until ctx is cancelled, then waits for running handlers.
	Start(ctx context.Context) error
	Stop() error
}

// EventHandler processes one inbox file. Errors are logged; the watcher
// keeps running.
type EventHandler func(ctx context.Context, filePath string) error
