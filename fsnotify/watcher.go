// Package fsnotify mirrors on-disk file edits into the session, so saves
// made outside the editor surface as foreign changes.
package fsnotify

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/fsnotify/fsnotify"
)

// Handler receives the full new content of a watched file after it
// changed on disk.
type Handler func(path, content string)

// Watcher watches files on disk and reports rewrites to a handler.
type Watcher struct {
	w       *fsnotify.Watcher
	handler Handler
	log     *slog.Logger
}

// New creates a watcher delivering changes to handler.
func New(handler Handler, log *slog.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Watcher{w: w, handler: handler, log: log}, nil
}

// Add starts watching a file.
func (w *Watcher) Add(path string) error {
	if err := w.w.Add(path); err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}
	return nil
}

// Run delivers events until ctx is cancelled. Unreadable files are logged
// and skipped; watch errors are logged and do not stop the loop.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.w.Events:
			if !ok {
				return nil
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
				continue
			}
			content, err := os.ReadFile(ev.Name)
			if err != nil {
				w.log.Warn("skipping unreadable file", "path", ev.Name, "err", err)
				continue
			}
			w.handler(ev.Name, string(content))
		case err, ok := <-w.w.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "err", err)
		}
	}
}

// Close stops the watcher and releases its resources.
func (w *Watcher) Close() error {
	return w.w.Close()
}
