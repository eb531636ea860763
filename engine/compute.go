package engine

import (
	"context"
	"time"

	"github.com/fwojciec/redline"
)

// computeEdits calls the line-diff adapter under the configured timeout.
// Adapter failure is recovered locally: the agent's text is not lost, so
// a failed computation yields no edits and a warning instead of an error.
// The second return is false only on adapter failure, letting streaming
// callers keep their previous diff set.
func (e *Engine) computeEdits(ctx context.Context, original, modified string) ([]redline.LineEdit, bool) {
	ctx, cancel := context.WithTimeout(ctx, e.adapterTimeout)
	defer cancel()
	edits, err := e.differ.DiffLines(ctx, original, modified)
	if err != nil {
		e.log.Warn("line-diff adapter failed, yielding no diffs",
			"err", redline.WrapErr(redline.EADAPTER, err, "computing line edits"))
		return nil, false
	}
	return edits, true
}

// materialize turns adapter edits into Diff records. Original ranges stay
// in baseline coordinates; Modified ranges are rebased onto the buffer at
// startLine.
func (e *Engine) materialize(areaID string, startLine int, edits []redline.LineEdit, baseline, window string, state redline.DiffState) []*redline.Diff {
	diffs := make([]*redline.Diff, 0, len(edits))
	for _, ed := range edits {
		diffs = append(diffs, &redline.Diff{
			ID:           e.nextID("d"),
			AreaID:       areaID,
			Original:     ed.Original,
			Modified:     ed.Modified.Shift(startLine - 1),
			OriginalCode: redline.SliceLines(baseline, ed.Original),
			ModifiedCode: redline.SliceLines(window, ed.Modified),
			State:        state,
		})
	}
	return diffs
}

// ComputeDiffs diffs two complete snapshots of a file and registers the
// result as one DiffArea spanning the affected region. The live buffer is
// not touched. Identical texts register nothing and return empty results.
// A new area overlapping an existing one for the same URI is reconciled
// into the existing area instead of being registered alongside it.
func (e *Engine) ComputeDiffs(ctx context.Context, uri, original, modified string) (*redline.DiffArea, []*redline.Diff, error) {
	fs := e.state(uri)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	area, err := e.computeLocked(ctx, fs, original, modified, false)
	if err != nil || area == nil {
		return nil, nil, err
	}
	clone := area.Clone()
	diffs := make([]*redline.Diff, 0, len(clone.Diffs))
	for _, d := range sortedUnresolved(clone) {
		diffs = append(diffs, d)
	}
	return clone, diffs, nil
}

// computeLocked computes and registers a diff area. Caller holds fs.mu.
// Returns nil when there is nothing to track and streaming is false.
//
// The area is cut tight around the edited region, so foreign edits in
// untouched parts of the file shift it wholesale instead of being
// re-derived into spurious diffs. A streaming area with no edits yet
// spans the whole file, since the stream rewrites it from the top.
func (e *Engine) computeLocked(ctx context.Context, fs *fileState, original, modified string, streaming bool) (*redline.DiffArea, error) {
	edits, _ := e.computeEdits(ctx, original, modified)
	if len(edits) == 0 && !streaming {
		return nil, nil
	}

	// Tight bounds over the edits, in both coordinate spaces. Streaming
	// areas keep whole-file bounds because each stream update rewrites
	// the window from the top.
	origFirst, bufFirst := 1, 1
	origLast, bufLast := redline.LineCount(original)+1, redline.LineCount(modified)+1
	if len(edits) > 0 && !streaming {
		origFirst, bufFirst = edits[0].Original.Start, edits[0].Modified.Start
		origLast, bufLast = edits[0].Original.End, edits[0].Modified.End
		for _, ed := range edits[1:] {
			origFirst = min(origFirst, ed.Original.Start)
			bufFirst = min(bufFirst, ed.Modified.Start)
			origLast = max(origLast, ed.Original.End)
			bufLast = max(bufLast, ed.Modified.End)
		}
	}
	bounds := redline.Range(bufFirst, bufLast)

	for _, existing := range fs.sortedAreas() {
		if existing.Bounds().Overlaps(bounds) {
			// Merge rather than create a second area: the existing
			// baseline is kept and its diff set re-derived against the
			// new modified text.
			e.refreshAreaLocked(ctx, fs, existing, redline.SliceLines(modified, existing.Bounds()))
			return existing, nil
		}
	}

	state := redline.Pending
	if streaming {
		state = redline.Streaming
	}
	area := &redline.DiffArea{
		ID:        e.nextID("a"),
		URI:       fs.uri,
		Baseline:  original,
		BaseRange: redline.Range(origFirst, origLast),
		StartLine: bounds.Start,
		EndLine:   bounds.End,
		CreatedAt: time.Now(),
		Diffs:     make(map[string]*redline.Diff),
	}
	// The adapter's edit ranges are absolute in both texts and stay that
	// way: Original indexes the baseline, Modified the buffer.
	for _, d := range e.materialize(area.ID, 1, edits, original, modified, state) {
		area.Diffs[d.ID] = d
	}
	fs.areas[area.ID] = area
	e.indexArea(area)
	e.emit(redline.AreaEvent{URI: fs.uri, AreaID: area.ID, Reason: redline.AreaCreated})
	return area, nil
}

// PreviewDiffs computes diffs between two snapshots without registering
// any state, for inspection by callers that only want to look.
func (e *Engine) PreviewDiffs(ctx context.Context, original, modified string) []*redline.Diff {
	edits, _ := e.computeEdits(ctx, original, modified)
	return e.materialize("", 1, edits, original, modified, redline.Pending)
}

// CreateTransaction opens an edit transaction for a file: the supplied
// original is diffed against the buffer's current content and the result
// tracked as the transaction's diff area. A streaming transaction may
// start with an empty area that grows through UpdateStreaming.
func (e *Engine) CreateTransaction(ctx context.Context, uri, original string, source redline.Source, streaming bool) (*redline.Transaction, error) {
	fs := e.state(uri)
	fs.mu.Lock()
	defer fs.mu.Unlock()

	modified, err := e.buf.Read(uri)
	if err != nil {
		return nil, redline.WrapErr(redline.ENOTFOUND, err, "reading buffer for %q", uri)
	}

	area, err := e.computeLocked(ctx, fs, original, modified, streaming)
	if err != nil {
		return nil, err
	}

	txn := &redline.Transaction{
		ID:        e.nextID("t"),
		URI:       uri,
		Source:    source,
		Streaming: streaming,
	}
	if area == nil {
		// Nothing to review; the transaction is born terminated.
		return txn, nil
	}
	txn.AreaID = area.ID
	fs.txns[txn.ID] = txn
	e.indexTxn(txn.ID, uri)
	return txn, nil
}

// FinalizeTransaction clears the streaming super-state of a transaction:
// its diffs revert to Pending and an empty streaming area is deleted.
func (e *Engine) FinalizeTransaction(txnID string) error {
	uri, ok := e.txnOwner(txnID)
	if !ok {
		return redline.Errorf(redline.ENOTFOUND, "transaction %q", txnID)
	}
	fs := e.state(uri)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	txn, ok := fs.txns[txnID]
	if !ok {
		return redline.Errorf(redline.ENOTFOUND, "transaction %q", txnID)
	}
	txn.Streaming = false
	area := fs.areas[txn.AreaID]
	if area == nil {
		return nil
	}
	for _, d := range area.Diffs {
		if d.State == redline.Streaming {
			d.State = redline.Pending
		}
	}
	if len(area.Diffs) == 0 {
		e.deleteAreaLocked(fs, area)
		return nil
	}
	e.emit(redline.AreaEvent{URI: uri, AreaID: area.ID, Reason: redline.AreaUpdated})
	return nil
}

// AbandonTransaction rejects every unresolved diff in the transaction's
// area and deletes it, restoring the buffer to the pre-proposal text.
func (e *Engine) AbandonTransaction(txnID string) (redline.BulkResult, error) {
	uri, ok := e.txnOwner(txnID)
	if !ok {
		return redline.BulkResult{}, redline.Errorf(redline.ENOTFOUND, "transaction %q", txnID)
	}
	fs := e.state(uri)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	txn, ok := fs.txns[txnID]
	if !ok {
		return redline.BulkResult{}, redline.Errorf(redline.ENOTFOUND, "transaction %q", txnID)
	}
	area := fs.areas[txn.AreaID]
	if area == nil {
		fs.removeTxn(e, txnID)
		return redline.BulkResult{}, nil
	}

	e.pushUndoLocked(fs)
	e.buf.SetWriteSuppressed(uri, true)
	defer e.buf.SetWriteSuppressed(uri, false)

	var res redline.BulkResult
	for _, d := range sortedUnresolved(area) {
		res.Total++
		if err := e.rejectLocked(fs, d); err != nil {
			res.Failures = append(res.Failures, redline.BulkFailure{DiffID: d.ID, Err: err})
			continue
		}
		res.Applied++
	}
	if res.Applied == 0 {
		// Nothing changed, so the snapshot would undo to an identical state.
		e.popUndoLocked(fs)
	}
	if a := fs.areas[txn.AreaID]; a != nil {
		// Some diffs failed to revert; the area stays so they remain
		// actionable.
		e.emit(redline.AreaEvent{URI: uri, AreaID: a.ID, Reason: redline.AreaUpdated})
	}
	return res, nil
}

// removeTxn drops a transaction record. Caller holds fs.mu.
func (fs *fileState) removeTxn(e *Engine, txnID string) {
	delete(fs.txns, txnID)
	e.unindexTxn(txnID)
}
