package bubbletea

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/redline"
)

// Compile-time interface verification.
var _ redline.Viewer = (*Viewer)(nil)

// Viewer runs the review UI as a full-screen bubbletea program.
type Viewer struct {
	Resolver  Resolver
	Tokenizer redline.Tokenizer

	// Language maps a URI to a tokenizer language. Optional.
	Language func(uri string) string
}

// Review blocks until the user finishes reviewing uri or ctx is
// cancelled. Exiting with all diffs resolved is a clean return; pending
// diffs simply stay pending.
func (v *Viewer) Review(ctx context.Context, uri string) error {
	var opts []ModelOption
	if v.Tokenizer != nil && v.Language != nil {
		if lang := v.Language(uri); lang != "" {
			opts = append(opts, WithTokenizer(v.Tokenizer, lang))
		}
	}
	model := NewModel(v.Resolver, uri, opts...)

	p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("running review for %s: %w", uri, err)
	}
	if m, ok := final.(Model); ok && m.Err() != nil {
		return m.Err()
	}
	return nil
}
