// Package bubbletea implements the interactive diff review UI.
package bubbletea

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/redline"
)

// Resolver is the engine surface the review model drives.
type Resolver interface {
	Diffs(uri string) []*redline.Diff
	AcceptDiff(diffID string) error
	RejectDiff(diffID string) error
	AcceptFile(uri string) (redline.BulkResult, error)
	RejectFile(uri string) (redline.BulkResult, error)
}

// Model is the bubbletea model for reviewing one file's pending diffs.
type Model struct {
	resolver  Resolver
	tokenizer redline.Tokenizer
	language  string
	uri       string
	renderer  *lipgloss.Renderer

	diffs    []*redline.Diff
	cursor   int
	viewport viewport.Model
	ready    bool
	err      error

	styles styles
}

type styles struct {
	header   lipgloss.Style
	selected lipgloss.Style
	hunk     lipgloss.Style
	removed  lipgloss.Style
	added    lipgloss.Style
	gutter   lipgloss.Style
	help     lipgloss.Style
	errLine  lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		header:   r.NewStyle().Bold(true).Padding(0, 1),
		selected: r.NewStyle().Border(lipgloss.ThickBorder(), false, false, false, true).BorderForeground(lipgloss.Color("#61afef")).PaddingLeft(1),
		hunk:     r.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).PaddingLeft(1),
		removed:  r.NewStyle().Foreground(lipgloss.Color("#e06c75")),
		added:    r.NewStyle().Foreground(lipgloss.Color("#98c379")),
		gutter:   r.NewStyle().Foreground(lipgloss.Color("#5c6370")),
		help:     r.NewStyle().Foreground(lipgloss.Color("#5c6370")).Padding(0, 1),
		errLine:  r.NewStyle().Foreground(lipgloss.Color("#e5c07b")).Padding(0, 1),
	}
}

// ModelOption configures a Model.
type ModelOption func(*Model)

// WithTokenizer enables syntax highlighting for the given language.
func WithTokenizer(tok redline.Tokenizer, language string) ModelOption {
	return func(m *Model) {
		m.tokenizer = tok
		m.language = language
	}
}

// WithRenderer sets the lipgloss renderer, mainly for tests.
func WithRenderer(r *lipgloss.Renderer) ModelOption {
	return func(m *Model) {
		m.renderer = r
		m.styles = newStyles(r)
	}
}

// NewModel creates a review model over the resolver's diffs for uri.
func NewModel(resolver Resolver, uri string, opts ...ModelOption) Model {
	m := Model{
		resolver: resolver,
		uri:      uri,
		renderer: lipgloss.DefaultRenderer(),
	}
	m.styles = newStyles(m.renderer)
	for _, opt := range opts {
		opt(&m)
	}
	m.diffs = resolver.Diffs(uri)
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		headerHeight := 2
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight
		}
		m.viewport.SetContent(m.renderDiffs())
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "j", "down":
			if m.cursor < len(m.diffs)-1 {
				m.cursor++
			}
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
		case "a":
			m.resolveCurrent(m.resolver.AcceptDiff)
		case "r":
			m.resolveCurrent(m.resolver.RejectDiff)
		case "A":
			m.resolveAll(m.resolver.AcceptFile)
		case "R":
			m.resolveAll(m.resolver.RejectFile)
		default:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		if len(m.diffs) == 0 {
			return m, tea.Quit
		}
		if m.ready {
			m.viewport.SetContent(m.renderDiffs())
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) resolveCurrent(resolve func(string) error) {
	if len(m.diffs) == 0 {
		return
	}
	m.err = resolve(m.diffs[m.cursor].ID)
	m.reload()
}

func (m *Model) resolveAll(resolve func(string) (redline.BulkResult, error)) {
	res, err := resolve(m.uri)
	switch {
	case err != nil:
		m.err = err
	case !res.Ok():
		m.err = fmt.Errorf("%d of %d hunks failed", len(res.Failures), res.Total)
	default:
		m.err = nil
	}
	m.reload()
}

func (m *Model) reload() {
	m.diffs = m.resolver.Diffs(m.uri)
	if m.cursor >= len(m.diffs) && m.cursor > 0 {
		m.cursor = len(m.diffs) - 1
	}
}

// View implements tea.Model.
func (m Model) View() string {
	header := m.styles.header.Render(fmt.Sprintf("redline %s — %d pending", m.uri, len(m.diffs)))
	if m.err != nil {
		header = lipgloss.JoinVertical(lipgloss.Left, header, m.styles.errLine.Render(m.err.Error()))
	}
	help := m.styles.help.Render("a accept · r reject · A/R all · j/k move · q quit")

	body := m.renderDiffs()
	if m.ready {
		body = m.viewport.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body, help)
}

// Err returns the last resolution error shown to the user.
func (m Model) Err() error {
	return m.err
}

// Pending returns the number of diffs still displayed.
func (m Model) Pending() int {
	return len(m.diffs)
}

func (m Model) renderDiffs() string {
	if len(m.diffs) == 0 {
		return m.styles.help.Render("no pending diffs")
	}
	blocks := make([]string, 0, len(m.diffs))
	for i, d := range m.diffs {
		block := m.renderHunk(d)
		if i == m.cursor {
			block = m.styles.selected.Render(block)
		} else {
			block = m.styles.hunk.Render(block)
		}
		blocks = append(blocks, block)
	}
	return strings.Join(blocks, "\n\n")
}

func (m Model) renderHunk(d *redline.Diff) string {
	var lines []string
	title := m.styles.gutter.Render(fmt.Sprintf("@@ %s -> %s", d.Original, d.Modified))
	if d.State == redline.Streaming {
		title += m.styles.gutter.Render(" (streaming)")
	}
	lines = append(lines, title)
	for _, l := range redline.SplitLines(d.OriginalCode) {
		lines = append(lines, m.styles.removed.Render("- "+m.highlight(strings.TrimSuffix(l, "\n"))))
	}
	for _, l := range redline.SplitLines(d.ModifiedCode) {
		lines = append(lines, m.styles.added.Render("+ "+m.highlight(strings.TrimSuffix(l, "\n"))))
	}
	return strings.Join(lines, "\n")
}

// highlight runs the tokenizer over one line when configured. Styling
// whole lines keeps add/remove colors dominant, so tokens only contribute
// bold weight here.
func (m Model) highlight(line string) string {
	line = ExpandTabs(line)
	if m.tokenizer == nil || m.language == "" {
		return line
	}
	tokens := m.tokenizer.Tokenize(m.language, line)
	if tokens == nil {
		return line
	}
	var sb strings.Builder
	for _, tok := range tokens {
		if tok.Style.Bold {
			sb.WriteString(m.renderer.NewStyle().Bold(true).Render(tok.Text))
			continue
		}
		sb.WriteString(tok.Text)
	}
	return sb.String()
}
