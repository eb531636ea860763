package bubbletea

import "github.com/charmbracelet/lipgloss"

// tabWidth is the standard terminal tab stop interval.
const tabWidth = 8

// DisplayWidth calculates the display width of a string, expanding tabs
// to the next 8-column boundary. lipgloss.Width reports 0 for tabs, which
// misaligns gutters on indented code.
func DisplayWidth(s string) int {
	col := 0
	for _, r := range s {
		if r == '\t' {
			col = ((col / tabWidth) + 1) * tabWidth
			continue
		}
		col += lipgloss.Width(string(r))
	}
	return col
}

// ExpandTabs rewrites tabs as spaces up to the next tab stop, so styled
// segments keep their alignment when concatenated.
func ExpandTabs(s string) string {
	var out []rune
	col := 0
	for _, r := range s {
		if r == '\t' {
			next := ((col / tabWidth) + 1) * tabWidth
			for col < next {
				out = append(out, ' ')
				col++
			}
			continue
		}
		out = append(out, r)
		col += lipgloss.Width(string(r))
	}
	return string(out)
}
