package redline

import "strings"

// SplitLines splits text into lines, each keeping its trailing newline.
// A final line without a trailing newline is still included. Empty text
// yields no lines.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	var lines []string
	for {
		i := strings.IndexByte(text, '\n')
		if i < 0 {
			return append(lines, text)
		}
		lines = append(lines, text[:i+1])
		text = text[i+1:]
		if text == "" {
			return lines
		}
	}
}

// LineCount returns the number of lines in text.
func LineCount(text string) int {
	return len(SplitLines(text))
}

// SliceLines returns the text of the lines in r, byte-exact including
// newlines. Lines beyond the end of text are ignored.
func SliceLines(text string, r LineRange) string {
	if r.Empty() {
		return ""
	}
	lines := SplitLines(text)
	start := r.Start - 1
	end := r.End - 1
	if start < 0 {
		start = 0
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start >= end {
		return ""
	}
	return strings.Join(lines[start:end], "")
}

// SpliceLines replaces the lines in r with repl and returns the result.
// An empty r inserts repl before line r.Start.
func SpliceLines(text string, r LineRange, repl string) string {
	lines := SplitLines(text)
	start := r.Start - 1
	end := r.End - 1
	if start < 0 {
		start = 0
	}
	if start > len(lines) {
		start = len(lines)
	}
	if end < start {
		end = start
	}
	if end > len(lines) {
		end = len(lines)
	}
	var b strings.Builder
	for _, l := range lines[:start] {
		b.WriteString(l)
	}
	b.WriteString(repl)
	for _, l := range lines[end:] {
		b.WriteString(l)
	}
	return b.String()
}
