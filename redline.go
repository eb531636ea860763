// Package redline provides domain types for tracking, reviewing and
// resolving line-level edits proposed by an automated agent.
//
// The model separates three states that are easy to conflate: what the
// agent proposed (the diffs), what has been durably accepted (the region
// baseline), and what the user independently changed (the live buffer).
package redline

import "time"

// DiffState is the lifecycle state of a single diff.
type DiffState int

// Diff lifecycle states.
const (
	Pending DiffState = iota
	Streaming
	Accepted
	Rejected
)

// String returns the lowercase name of the state.
func (s DiffState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Streaming:
		return "streaming"
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Resolved reports whether the diff can no longer be accepted or rejected.
func (s DiffState) Resolved() bool {
	return s == Accepted || s == Rejected
}

// Diff is one contiguous change hunk. Original is the range of replaced
// lines in the owning area's baseline; Modified is the range of replacement
// lines in live buffer coordinates. Either range is empty for a pure
// insertion (Original) or a pure deletion (Modified).
type Diff struct {
	ID           string
	AreaID       string
	Original     LineRange
	Modified     LineRange
	OriginalCode string
	ModifiedCode string
	State        DiffState
}

// Clone returns a deep copy of the diff.
func (d *Diff) Clone() *Diff {
	c := *d
	return &c
}

// DiffArea is a tracked file region with its own accepted-so-far baseline
// and a set of diffs. Bounds are live buffer coordinates and move as the
// buffer is edited around the area. Baseline is the full original text
// the area was computed from, advanced hunk by hunk as diffs are
// accepted; BaseRange is the baseline window that corresponds to
// [StartLine, EndLine) in the buffer.
type DiffArea struct {
	ID        string
	URI       string
	Diffs     map[string]*Diff
	Baseline  string
	BaseRange LineRange
	StartLine int // first covered buffer line, 1-based
	EndLine   int // one past the last covered buffer line
	CreatedAt time.Time
}

// Clone returns a deep copy of the area, including its diffs.
func (a *DiffArea) Clone() *DiffArea {
	c := *a
	c.Diffs = make(map[string]*Diff, len(a.Diffs))
	for id, d := range a.Diffs {
		c.Diffs[id] = d.Clone()
	}
	return &c
}

// Bounds returns the area's buffer range.
func (a *DiffArea) Bounds() LineRange {
	return LineRange{Start: a.StartLine, End: a.EndLine}
}

// Unresolved returns the number of diffs still awaiting a decision.
func (a *DiffArea) Unresolved() int {
	n := 0
	for _, d := range a.Diffs {
		if !d.State.Resolved() {
			n++
		}
	}
	return n
}

// Source identifies who initiated a transaction.
type Source string

// Transaction sources.
const (
	SourceAgent Source = "agent"
	SourceTool  Source = "tool"
	SourceUser  Source = "user"
)

// Transaction is the agent-facing handle for one edit request, bound to
// one diff area for one file.
type Transaction struct {
	ID        string
	URI       string
	AreaID    string
	Source    Source
	Streaming bool
}

// Snapshot captures buffer text and every diff area for a file as one
// unit, so undo and redo can never desynchronize diffs from text.
type Snapshot struct {
	BufferText string
	Areas      []*DiffArea
}

// Change describes one buffer edit: the replaced line range and the number
// of lines that replaced it.
type Change struct {
	URI      string
	Range    LineRange
	NewLines int
}

// Delta returns the net line count change of the edit.
func (c Change) Delta() int {
	return c.NewLines - c.Range.Len()
}

// EventReason classifies an area event.
type EventReason string

// Area event reasons.
const (
	AreaCreated  EventReason = "created"
	AreaUpdated  EventReason = "updated"
	AreaStreamed EventReason = "streamed"
	AreaDeleted  EventReason = "deleted"
	AreaRestored EventReason = "restored"
)

// AreaEvent signals that a diff area changed. External collaborators (the
// review UI, mostly) subscribe to these; the engine never calls into
// rendering code directly.
type AreaEvent struct {
	URI    string
	AreaID string
	Reason EventReason
}

// AreaSummary describes one diff area for pre-flight inspection.
type AreaSummary struct {
	AreaID    string
	URI       string
	StartLine int
	EndLine   int
	Pending   int
	Accepted  int
	CreatedAt time.Time
}

// StreamDelta reports the outcome of one streaming reconciliation as a
// minimal set of UI updates. It never drives persistence.
type StreamDelta struct {
	New     []*Diff
	Updated []*Diff
	Removed []*Diff
}

// Empty reports whether the reconciliation changed nothing.
func (d StreamDelta) Empty() bool {
	return len(d.New) == 0 && len(d.Updated) == 0 && len(d.Removed) == 0
}

// BulkFailure records one diff that could not be resolved during a bulk
// accept or reject.
type BulkFailure struct {
	DiffID string
	Err    error
}

// BulkResult summarizes a bulk accept or reject. Each diff's outcome is
// independent; a failure leaves that diff pending and does not halt the
// remaining diffs.
type BulkResult struct {
	Total    int
	Applied  int
	Failures []BulkFailure
}

// Ok reports whether every diff was applied.
func (r BulkResult) Ok() bool {
	return len(r.Failures) == 0
}
