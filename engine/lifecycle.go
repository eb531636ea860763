package engine

import (
	"github.com/fwojciec/redline"
)

// acceptLocked resolves one diff as accepted. Caller holds fs.mu, has
// raised write suppression and pushed an undo snapshot.
//
// The baseline advances only by splicing the accepted code in at the
// diff's baseline position; it is never re-read from the live buffer.
// That keeps an accepted change in one diff from corrupting the
// comparison baseline of its siblings.
func (e *Engine) acceptLocked(fs *fileState, d *redline.Diff) error {
	if d.State.Resolved() {
		return redline.Errorf(redline.ERESOLVED, "diff %s is already %s", d.ID, d.State)
	}
	area := fs.areas[d.AreaID]
	if area == nil {
		return redline.Errorf(redline.ENOTFOUND, "area %s for diff %s", d.AreaID, d.ID)
	}

	if err := e.buf.Write(area.URI, d.Modified, d.ModifiedCode); err != nil {
		// State is not advanced, so a retry is safe.
		return redline.WrapErr(redline.EWRITE, err, "writing accepted hunk %s at %s", d.ID, d.Modified)
	}

	modLines := redline.LineCount(d.ModifiedCode)
	baseDelta := modLines - d.Original.Len()
	bufDelta := modLines - d.Modified.Len()

	area.Baseline = redline.SpliceLines(area.Baseline, d.Original, d.ModifiedCode)
	area.BaseRange.End += baseDelta
	d.State = redline.Accepted

	// Later siblings reference baseline positions past the splice point.
	for _, sib := range area.Diffs {
		if sib.ID == d.ID || sib.State.Resolved() {
			continue
		}
		if sib.Original.Start >= d.Original.End {
			sib.Original = sib.Original.Shift(baseDelta)
		}
	}
	e.shiftBelowLocked(fs, area, d.Modified.End, bufDelta)
	d.Modified = redline.Range(d.Modified.Start, d.Modified.Start+modLines)

	e.settleAreaLocked(fs, area, redline.AreaUpdated)
	return nil
}

// rejectLocked resolves one diff as rejected: the original code is written
// back over the hunk and the diff is dropped. The baseline is not touched.
func (e *Engine) rejectLocked(fs *fileState, d *redline.Diff) error {
	if d.State.Resolved() {
		return redline.Errorf(redline.ERESOLVED, "diff %s is already %s", d.ID, d.State)
	}
	area := fs.areas[d.AreaID]
	if area == nil {
		return redline.Errorf(redline.ENOTFOUND, "area %s for diff %s", d.AreaID, d.ID)
	}

	if err := e.buf.Write(area.URI, d.Modified, d.OriginalCode); err != nil {
		return redline.WrapErr(redline.EWRITE, err, "reverting hunk %s at %s", d.ID, d.Modified)
	}

	bufDelta := redline.LineCount(d.OriginalCode) - d.Modified.Len()
	d.State = redline.Rejected

	// A rejected diff carries no further information once reverted.
	delete(area.Diffs, d.ID)
	e.unindexDiff(d.ID)

	e.shiftBelowLocked(fs, area, d.Modified.End, bufDelta)

	e.settleAreaLocked(fs, area, redline.AreaUpdated)
	return nil
}

// shiftBelowLocked moves everything at or below fromLine by delta buffer
// lines: later diffs in the source area, the source area's end, and every
// area that starts further down. Caller holds fs.mu.
func (e *Engine) shiftBelowLocked(fs *fileState, source *redline.DiffArea, fromLine, delta int) {
	if delta == 0 {
		return
	}
	for _, d := range source.Diffs {
		if !d.State.Resolved() && d.Modified.Start >= fromLine {
			d.Modified = d.Modified.Shift(delta)
		}
	}
	source.EndLine += delta
	for _, area := range fs.areas {
		if area.ID == source.ID || area.StartLine < fromLine {
			continue
		}
		area.StartLine += delta
		area.EndLine += delta
		for _, d := range area.Diffs {
			d.Modified = d.Modified.Shift(delta)
		}
	}
}

// settleAreaLocked deletes the area once no unresolved diffs remain (an
// empty area is never kept, except transiently while a streaming
// transaction is still open), emitting the appropriate event.
func (e *Engine) settleAreaLocked(fs *fileState, area *redline.DiffArea, reason redline.EventReason) {
	if area.Unresolved() == 0 && !fs.streamingInto(area.ID) {
		e.deleteAreaLocked(fs, area)
		return
	}
	e.emit(redline.AreaEvent{URI: area.URI, AreaID: area.ID, Reason: reason})
}

// streamingInto reports whether an open streaming transaction is bound to
// the area. Caller holds fs.mu.
func (fs *fileState) streamingInto(areaID string) bool {
	for _, txn := range fs.txns {
		if txn.AreaID == areaID && txn.Streaming {
			return true
		}
	}
	return false
}

// deleteAreaLocked removes an area, its diffs and its bound transactions.
// Caller holds fs.mu.
func (e *Engine) deleteAreaLocked(fs *fileState, area *redline.DiffArea) {
	delete(fs.areas, area.ID)
	e.unindexArea(area)
	for id, txn := range fs.txns {
		if txn.AreaID == area.ID {
			fs.removeTxn(e, id)
		}
	}
	e.emit(redline.AreaEvent{URI: area.URI, AreaID: area.ID, Reason: redline.AreaDeleted})
}
