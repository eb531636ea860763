// Package godiff implements the line-diff adapter on sergi/go-diff.
package godiff

import (
	"context"
	"unicode/utf8"

	"github.com/fwojciec/redline"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Compile-time interface verification.
var _ redline.Differ = (*Differ)(nil)

// Differ computes line-level edits with a Myers diff over rune-encoded
// lines. Encoding each distinct line as one rune keeps the diff at line
// granularity and fast on large files.
type Differ struct{}

// New creates a new line differ.
func New() *Differ {
	return &Differ{}
}

// DiffLines returns the ordered line-range edits that turn original into
// modified. Identical texts yield no edits and no error.
func (d *Differ) DiffLines(ctx context.Context, original, modified string) ([]redline.LineEdit, error) {
	if original == modified {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dmp := diffmatchpatch.New()
	rOld, rNew, _ := dmp.DiffLinesToRunes(original, modified)
	diffs := dmp.DiffMainRunes(rOld, rNew, false)
	diffs = dmp.DiffCleanupMerge(diffs)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Each rune stands for one line; walk the diff accumulating adjacent
	// deletions and insertions into a single edit per hunk.
	var edits []redline.LineEdit
	origLine, modLine := 1, 1
	dels, ins := 0, 0
	flush := func() {
		if dels == 0 && ins == 0 {
			return
		}
		edits = append(edits, redline.LineEdit{
			Original: redline.Range(origLine, origLine+dels),
			Modified: redline.Range(modLine, modLine+ins),
		})
		origLine += dels
		modLine += ins
		dels, ins = 0, 0
	}
	for _, df := range diffs {
		n := utf8.RuneCountInString(df.Text)
		switch df.Type {
		case diffmatchpatch.DiffEqual:
			flush()
			origLine += n
			modLine += n
		case diffmatchpatch.DiffDelete:
			dels += n
		case diffmatchpatch.DiffInsert:
			ins += n
		}
	}
	flush()

	return edits, nil
}
