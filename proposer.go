package redline

import "context"

// Proposer streams a rewritten version of a file. fn is called with the
// modified text accumulated so far; returning an error from fn cancels
// the proposal.
type Proposer interface {
	Propose(ctx context.Context, path, content, instruction string, fn func(modifiedSoFar string) error) error
}
