// Package mock provides function-field mocks of the redline interfaces.
package mock

import (
	"context"

	"github.com/fwojciec/redline"
)

// Compile-time interface verification.
var (
	_ redline.Differ   = (*Differ)(nil)
	_ redline.Buffer   = (*Buffer)(nil)
	_ redline.Proposer = (*Proposer)(nil)
	_ redline.Viewer   = (*Viewer)(nil)
)

// Differ implements redline.Differ for testing.
type Differ struct {
	DiffLinesFn func(ctx context.Context, original, modified string) ([]redline.LineEdit, error)
}

func (m *Differ) DiffLines(ctx context.Context, original, modified string) ([]redline.LineEdit, error) {
	return m.DiffLinesFn(ctx, original, modified)
}

// Buffer implements redline.Buffer for testing.
type Buffer struct {
	ReadFn               func(uri string) (string, error)
	WriteFn              func(uri string, r redline.LineRange, text string) error
	SetWriteSuppressedFn func(uri string, suppressed bool)
}

func (m *Buffer) Read(uri string) (string, error) {
	return m.ReadFn(uri)
}

func (m *Buffer) Write(uri string, r redline.LineRange, text string) error {
	return m.WriteFn(uri, r, text)
}

func (m *Buffer) SetWriteSuppressed(uri string, suppressed bool) {
	if m.SetWriteSuppressedFn != nil {
		m.SetWriteSuppressedFn(uri, suppressed)
	}
}

// Viewer implements redline.Viewer for testing.
type Viewer struct {
	ReviewFn func(ctx context.Context, uri string) error
}

func (m *Viewer) Review(ctx context.Context, uri string) error {
	return m.ReviewFn(ctx, uri)
}

// Proposer implements redline.Proposer for testing.
type Proposer struct {
	ProposeFn func(ctx context.Context, path, content, instruction string, fn func(string) error) error
}

func (m *Proposer) Propose(ctx context.Context, path, content, instruction string, fn func(string) error) error {
	return m.ProposeFn(ctx, path, content, instruction, fn)
}
