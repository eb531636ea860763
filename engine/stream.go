package engine

import (
	"context"

	"github.com/fwojciec/redline"
)

// UpdateStreaming reconciles a streaming transaction with the text
// received so far. The partial text is written into the transaction's
// area window through the suppressed write path, the window re-diffed
// against the unchanged baseline, and the resulting diff set merged into
// the area in place. Diffs whose baseline range is unchanged keep their
// identity across updates, so review state tracked by a UI survives the
// stream.
func (e *Engine) UpdateStreaming(ctx context.Context, txnID, modifiedSoFar string) (redline.StreamDelta, error) {
	uri, ok := e.txnOwner(txnID)
	if !ok {
		return redline.StreamDelta{}, redline.Errorf(redline.ENOTFOUND, "transaction %q", txnID)
	}
	fs := e.state(uri)
	fs.mu.Lock()
	defer fs.mu.Unlock()

	txn, ok := fs.txns[txnID]
	if !ok {
		return redline.StreamDelta{}, redline.Errorf(redline.ENOTFOUND, "transaction %q", txnID)
	}
	if !txn.Streaming {
		return redline.StreamDelta{}, redline.Errorf(redline.ERESOLVED, "transaction %s is finalized", txnID)
	}
	area := fs.areas[txn.AreaID]
	if area == nil {
		return redline.StreamDelta{}, redline.Errorf(redline.ENOTFOUND, "area %q for transaction %s", txn.AreaID, txnID)
	}

	bounds := area.Bounds()
	e.buf.SetWriteSuppressed(uri, true)
	err := e.buf.Write(uri, bounds, modifiedSoFar)
	e.buf.SetWriteSuppressed(uri, false)
	if err != nil {
		return redline.StreamDelta{}, redline.WrapErr(redline.EWRITE, err, "writing stream window at %s", bounds)
	}
	e.shiftBelowLocked(fs, area, bounds.End, redline.LineCount(modifiedSoFar)-bounds.Len())

	baseWin := redline.SliceLines(area.Baseline, area.BaseRange)
	edits, ok := e.computeEdits(ctx, baseWin, modifiedSoFar)
	if !ok {
		// The window text is already in place; the previous diff set
		// stands until the next update succeeds.
		return redline.StreamDelta{}, nil
	}
	local := make([]redline.LineEdit, len(edits))
	for i, ed := range edits {
		local[i] = redline.LineEdit{
			Original: ed.Original.Shift(area.BaseRange.Start - 1),
			Modified: ed.Modified,
		}
	}
	cands := e.materialize(area.ID, area.StartLine, local, area.Baseline, modifiedSoFar, redline.Streaming)
	delta := e.mergeDiffsLocked(area, cands)
	if !delta.Empty() {
		e.emit(redline.AreaEvent{URI: uri, AreaID: area.ID, Reason: redline.AreaStreamed})
	}
	return delta, nil
}

// mergeDiffsLocked reconciles an area's unresolved diffs with a freshly
// computed candidate set. Identity is the baseline range: a candidate
// covering the same original lines as an existing diff updates it in
// place, anything else is added, and unmatched survivors are removed.
// Caller holds fs.mu.
func (e *Engine) mergeDiffsLocked(area *redline.DiffArea, cands []*redline.Diff) redline.StreamDelta {
	var delta redline.StreamDelta

	prev := make(map[redline.LineRange]*redline.Diff, len(area.Diffs))
	for _, d := range area.Diffs {
		if !d.State.Resolved() {
			prev[d.Original] = d
		}
	}

	for _, c := range cands {
		d, ok := prev[c.Original]
		if !ok {
			area.Diffs[c.ID] = c
			e.indexDiff(c.ID, area.URI)
			delta.New = append(delta.New, c.Clone())
			continue
		}
		delete(prev, c.Original)
		changed := d.Modified != c.Modified || d.ModifiedCode != c.ModifiedCode
		d.Modified = c.Modified
		d.ModifiedCode = c.ModifiedCode
		d.State = c.State
		if changed {
			delta.Updated = append(delta.Updated, d.Clone())
		}
	}

	for _, d := range prev {
		delete(area.Diffs, d.ID)
		e.unindexDiff(d.ID)
		delta.Removed = append(delta.Removed, d.Clone())
	}
	return delta
}
