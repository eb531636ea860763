package redline

import "context"

// LineEdit maps a range of original lines to the range of modified lines
// that replaced them. Either side may be empty: an insertion has an empty
// Original, a deletion an empty Modified. Coordinates are local to the
// respective input text.
type LineEdit struct {
	Original LineRange
	Modified LineRange
}

// Differ computes ordered line-level edits between two complete text
// snapshots. Implementations may suspend (e.g. a worker round trip), so
// callers must not assume the buffer is unchanged when the call resolves.
type Differ interface {
	DiffLines(ctx context.Context, original, modified string) ([]LineEdit, error)
}
