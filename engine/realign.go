package engine

import (
	"context"

	"github.com/fwojciec/redline"
)

// Realign reconciles every diff area on a file with a foreign buffer edit.
// It is intended as a buffer change listener; engine writes are suppressed
// at the source and never arrive here.
//
// Areas strictly below the edit are untouched, areas strictly above it
// shift wholesale by the edit's line delta, and any area the edit touches
// has its bounds stretched over the edit and its diff set re-derived from
// the unchanged baseline.
func (e *Engine) Realign(ch redline.Change) {
	fs := e.state(ch.URI)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if len(fs.areas) == 0 {
		return
	}

	text, err := e.buf.Read(ch.URI)
	if err != nil {
		e.log.Warn("realign cannot read buffer", "uri", ch.URI, "err", err)
		return
	}

	delta := ch.Delta()
	for _, area := range fs.sortedAreas() {
		switch {
		case ch.Range.Start >= area.EndLine:
			// Edit below the area; nothing moves.
		case ch.Range.End <= area.StartLine:
			area.StartLine += delta
			area.EndLine += delta
			for _, d := range area.Diffs {
				d.Modified = d.Modified.Shift(delta)
			}
			e.emit(redline.AreaEvent{URI: ch.URI, AreaID: area.ID, Reason: redline.AreaUpdated})
		default:
			e.stretchAreaLocked(fs, area, ch, delta, text)
		}
	}
}

// stretchAreaLocked grows an area's bounds over an overlapping edit and
// re-derives its diffs against the new buffer window. An area squeezed to
// nothing is dropped.
func (e *Engine) stretchAreaLocked(fs *fileState, area *redline.DiffArea, ch redline.Change, delta int, text string) {
	start := max(min(area.StartLine, ch.Range.Start), 1)
	end := max(area.EndLine, ch.Range.End) + delta
	if end <= start {
		e.log.Warn("foreign edit pushed area out of bounds, dropping",
			"uri", area.URI, "area", area.ID, "err", redline.Errorf(redline.EBOUNDS, "area collapsed at line %d", start))
		e.deleteAreaLocked(fs, area)
		return
	}

	// The baseline window widens in step: lines pulled into the area at
	// either end are common context, adjacent 1:1 in both texts.
	base := area.BaseRange
	base.Start = max(base.Start-(area.StartLine-start), 1)
	base.End = min(base.End+max(ch.Range.End-area.EndLine, 0), redline.LineCount(area.Baseline)+1)
	area.BaseRange = base

	area.StartLine, area.EndLine = start, end
	window := redline.SliceLines(text, area.Bounds())
	e.refreshAreaLocked(context.Background(), fs, area, window)
}

// refreshAreaLocked re-derives an area's diff set by comparing its
// baseline against the given buffer window, preserving diff identities
// where the baseline range matches. Adapter failure keeps the previous
// set. Caller holds fs.mu.
func (e *Engine) refreshAreaLocked(ctx context.Context, fs *fileState, area *redline.DiffArea, window string) {
	baseWin := redline.SliceLines(area.Baseline, area.BaseRange)
	edits, ok := e.computeEdits(ctx, baseWin, window)
	if !ok {
		return
	}
	state := redline.Pending
	if fs.streamingInto(area.ID) {
		state = redline.Streaming
	}
	// Rebase the adapter's window-relative original ranges onto the
	// baseline; the modified side is rebased by materialize.
	local := make([]redline.LineEdit, len(edits))
	for i, ed := range edits {
		local[i] = redline.LineEdit{
			Original: ed.Original.Shift(area.BaseRange.Start - 1),
			Modified: ed.Modified,
		}
	}
	cands := e.materialize(area.ID, area.StartLine, local, area.Baseline, window, state)
	e.mergeDiffsLocked(area, cands)
	if area.Unresolved() == 0 && !fs.streamingInto(area.ID) {
		e.deleteAreaLocked(fs, area)
		return
	}
	e.emit(redline.AreaEvent{URI: area.URI, AreaID: area.ID, Reason: redline.AreaUpdated})
}
