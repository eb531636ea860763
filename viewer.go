package redline

import "context"

// Viewer drives an interactive review of the pending diffs for one file
// and blocks until the user exits.
type Viewer interface {
	Review(ctx context.Context, uri string) error
}
