package engine

import (
	"github.com/fwojciec/redline"
)

// captureLocked snapshots the buffer text and every diff area for the
// file. Caller holds fs.mu. Returns nil when the buffer is unreadable;
// a mutation that cannot be undone is better than one that undoes to a
// corrupt state.
func (e *Engine) captureLocked(fs *fileState) *redline.Snapshot {
	text, err := e.buf.Read(fs.uri)
	if err != nil {
		e.log.Warn("skipping history snapshot, buffer unreadable", "uri", fs.uri, "err", err)
		return nil
	}
	snap := &redline.Snapshot{BufferText: text}
	for _, area := range fs.sortedAreas() {
		snap.Areas = append(snap.Areas, area.Clone())
	}
	return snap
}

// pushUndoLocked records the current state on the undo stack and clears
// the redo stack. Caller holds fs.mu.
func (e *Engine) pushUndoLocked(fs *fileState) {
	snap := e.captureLocked(fs)
	if snap == nil {
		return
	}
	fs.undo = append(fs.undo, snap)
	if len(fs.undo) > e.historyLimit {
		fs.undo = fs.undo[len(fs.undo)-e.historyLimit:]
	}
	fs.redo = nil
}

// popUndoLocked discards the most recent undo snapshot, for operations
// that pushed one and then failed without mutating anything.
func (e *Engine) popUndoLocked(fs *fileState) {
	if n := len(fs.undo); n > 0 {
		fs.undo = fs.undo[:n-1]
	}
}

// restoreLocked replaces the buffer text and diff areas with a snapshot's
// contents. Caller holds fs.mu and has raised write suppression.
func (e *Engine) restoreLocked(fs *fileState, snap *redline.Snapshot) error {
	cur, err := e.buf.Read(fs.uri)
	if err != nil {
		return redline.WrapErr(redline.ENOTFOUND, err, "reading buffer for %q", fs.uri)
	}
	whole := redline.Range(1, redline.LineCount(cur)+1)
	if err := e.buf.Write(fs.uri, whole, snap.BufferText); err != nil {
		return redline.WrapErr(redline.EWRITE, err, "restoring buffer for %q", fs.uri)
	}

	for _, area := range fs.areas {
		e.unindexArea(area)
	}
	fs.areas = make(map[string]*redline.DiffArea, len(snap.Areas))
	for _, area := range snap.Areas {
		clone := area.Clone()
		fs.areas[clone.ID] = clone
		e.indexArea(clone)
	}
	e.emit(redline.AreaEvent{URI: fs.uri, Reason: redline.AreaRestored})
	return nil
}

// Undo reverts the most recent engine mutation for a URI, restoring the
// buffer text and diff areas together. Returns false when there is
// nothing to undo.
func (e *Engine) Undo(uri string) (bool, error) {
	return e.stepHistory(uri, func(fs *fileState) (*redline.Snapshot, *[]*redline.Snapshot, *[]*redline.Snapshot) {
		return pop(&fs.undo), &fs.undo, &fs.redo
	})
}

// Redo re-applies the most recently undone mutation for a URI. The redo
// stack is cleared by any new mutation, so redo never replays onto a
// diverged state.
func (e *Engine) Redo(uri string) (bool, error) {
	return e.stepHistory(uri, func(fs *fileState) (*redline.Snapshot, *[]*redline.Snapshot, *[]*redline.Snapshot) {
		return pop(&fs.redo), &fs.redo, &fs.undo
	})
}

// stepHistory moves one snapshot between the two history stacks: the
// current state is captured onto the opposite stack, then the popped
// snapshot restored.
func (e *Engine) stepHistory(uri string, take func(*fileState) (*redline.Snapshot, *[]*redline.Snapshot, *[]*redline.Snapshot)) (bool, error) {
	fs := e.state(uri)
	fs.mu.Lock()
	defer fs.mu.Unlock()

	snap, from, to := take(fs)
	if snap == nil {
		return false, nil
	}

	cur := e.captureLocked(fs)

	e.buf.SetWriteSuppressed(uri, true)
	defer e.buf.SetWriteSuppressed(uri, false)

	if err := e.restoreLocked(fs, snap); err != nil {
		// Put the snapshot back so the caller can retry.
		*from = append(*from, snap)
		return false, err
	}
	if cur != nil {
		*to = append(*to, cur)
	}
	return true, nil
}

func pop(stack *[]*redline.Snapshot) *redline.Snapshot {
	n := len(*stack)
	if n == 0 {
		return nil
	}
	snap := (*stack)[n-1]
	*stack = (*stack)[:n-1]
	return snap
}
