package redline

import "fmt"

// LineRange is a half-open range of 1-based line numbers [Start, End).
// An empty range (Start == End) marks a position between lines.
type LineRange struct {
	Start int
	End   int
}

// Range constructs a LineRange.
func Range(start, end int) LineRange {
	return LineRange{Start: start, End: end}
}

// Len returns the number of lines in the range.
func (r LineRange) Len() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start
}

// Empty reports whether the range covers no lines.
func (r LineRange) Empty() bool {
	return r.End <= r.Start
}

// Valid reports whether the range has positive coordinates and is not
// inverted.
func (r LineRange) Valid() bool {
	return r.Start >= 1 && r.End >= r.Start
}

// Shift returns the range moved by delta lines.
func (r LineRange) Shift(delta int) LineRange {
	return LineRange{Start: r.Start + delta, End: r.End + delta}
}

// Contains reports whether line falls inside the range.
func (r LineRange) Contains(line int) bool {
	return line >= r.Start && line < r.End
}

// Overlaps reports whether the two ranges share at least one line.
func (r LineRange) Overlaps(o LineRange) bool {
	return o.Start < r.End && o.End > r.Start
}

// String renders the range in interval notation, e.g. "[2,5)".
func (r LineRange) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}
