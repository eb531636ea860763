package engine

import (
	"github.com/fwojciec/redline"
)

// AcceptDiff makes one proposed hunk permanent: the modified code stays
// in the buffer and the area baseline advances past it.
func (e *Engine) AcceptDiff(diffID string) error {
	return e.resolveOne(diffID, e.acceptLocked)
}

// RejectDiff discards one proposed hunk, writing the original code back
// over it.
func (e *Engine) RejectDiff(diffID string) error {
	return e.resolveOne(diffID, e.rejectLocked)
}

// resolveOne runs a single-diff resolution under the file lock with write
// suppression raised. A failed resolution leaves no snapshot behind, so
// undo history only ever records completed operations.
func (e *Engine) resolveOne(diffID string, resolve func(*fileState, *redline.Diff) error) error {
	uri, ok := e.diffOwner(diffID)
	if !ok {
		return redline.Errorf(redline.ENOTFOUND, "diff %q", diffID)
	}
	fs := e.state(uri)
	fs.mu.Lock()
	defer fs.mu.Unlock()

	d := fs.findDiff(diffID)
	if d == nil {
		return redline.Errorf(redline.ENOTFOUND, "diff %q", diffID)
	}

	e.pushUndoLocked(fs)
	e.buf.SetWriteSuppressed(uri, true)
	defer e.buf.SetWriteSuppressed(uri, false)

	if err := resolve(fs, d); err != nil {
		e.popUndoLocked(fs)
		return err
	}
	return nil
}

// AcceptFile accepts every unresolved diff for a URI in buffer order.
// Resolution continues past individual failures; the result reports each
// one so the caller can surface partial success.
func (e *Engine) AcceptFile(uri string) (redline.BulkResult, error) {
	return e.resolveFile(uri, e.acceptLocked)
}

// RejectFile rejects every unresolved diff for a URI in buffer order.
func (e *Engine) RejectFile(uri string) (redline.BulkResult, error) {
	return e.resolveFile(uri, e.rejectLocked)
}

func (e *Engine) resolveFile(uri string, resolve func(*fileState, *redline.Diff) error) (redline.BulkResult, error) {
	fs := e.state(uri)
	fs.mu.Lock()
	defer fs.mu.Unlock()

	var pending []*redline.Diff
	for _, area := range fs.sortedAreas() {
		pending = append(pending, sortedUnresolved(area)...)
	}
	if len(pending) == 0 {
		return redline.BulkResult{}, nil
	}

	e.pushUndoLocked(fs)
	e.buf.SetWriteSuppressed(uri, true)
	defer e.buf.SetWriteSuppressed(uri, false)

	var res redline.BulkResult
	for _, d := range pending {
		res.Total++
		if err := resolve(fs, d); err != nil {
			res.Failures = append(res.Failures, redline.BulkFailure{DiffID: d.ID, Err: err})
			continue
		}
		res.Applied++
	}
	if res.Applied == 0 {
		// Nothing changed, so the snapshot would undo to an identical state.
		e.popUndoLocked(fs)
	}
	return res, nil
}
