// Package memory provides an in-memory buffer implementation.
package memory

import (
	"sync"

	"github.com/fwojciec/redline"
)

// Compile-time interface verification.
var _ redline.Buffer = (*Buffer)(nil)

// Buffer holds document texts in memory and notifies listeners of writes.
// Notifications are skipped while the write-suppression flag is set for a
// URI, so engine-initiated writes never masquerade as foreign edits.
type Buffer struct {
	mu         sync.Mutex
	files      map[string]string
	suppressed map[string]bool
	listeners  []func(redline.Change)
}

// NewBuffer creates an empty buffer store.
func NewBuffer() *Buffer {
	return &Buffer{
		files:      make(map[string]string),
		suppressed: make(map[string]bool),
	}
}

// Open registers a document with its initial text. Opening an existing
// URI replaces its text without notifying listeners.
func (b *Buffer) Open(uri, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.files[uri] = text
}

// Read returns the full current text of the document.
func (b *Buffer) Read(uri string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	text, ok := b.files[uri]
	if !ok {
		return "", redline.Errorf(redline.ENOTFOUND, "no document %q", uri)
	}
	return text, nil
}

// Write replaces the lines in r with text and notifies listeners unless
// writes are suppressed for the URI. Listeners run synchronously on the
// writer's goroutine.
func (b *Buffer) Write(uri string, r redline.LineRange, text string) error {
	b.mu.Lock()
	cur, ok := b.files[uri]
	if !ok {
		b.mu.Unlock()
		return redline.Errorf(redline.EWRITE, "no document %q", uri)
	}
	b.files[uri] = redline.SpliceLines(cur, r, text)
	notify := !b.suppressed[uri]
	listeners := b.listeners
	b.mu.Unlock()

	if notify {
		ch := redline.Change{URI: uri, Range: r, NewLines: redline.LineCount(text)}
		for _, fn := range listeners {
			fn(ch)
		}
	}
	return nil
}

// SetWriteSuppressed raises or clears the write-suppression flag.
func (b *Buffer) SetWriteSuppressed(uri string, suppressed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if suppressed {
		b.suppressed[uri] = true
	} else {
		delete(b.suppressed, uri)
	}
}

// Suppressed reports the current suppression flag for a URI.
func (b *Buffer) Suppressed(uri string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.suppressed[uri]
}

// OnChange registers a listener for foreign (non-suppressed) writes.
func (b *Buffer) OnChange(fn func(redline.Change)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, fn)
}
