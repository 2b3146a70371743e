package viewer

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/roach88/marginalia/internal/interaction"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7aa2f7")).
			Padding(0, 1)

	titleNoteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Padding(0, 1)

	statusRightStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("244")).
				Padding(0, 1)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Padding(0, 1)

	toolbarStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7aa2f7")).
			Padding(0, 1)

	toolbarKeyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff9632"))

	popoverStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#ffd54f")).
			Padding(0, 1)

	popoverTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#ffd54f"))

	popoverMetaStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("244"))

	helpStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7aa2f7")).
			Padding(1, 2)
)

// toolbarButtons defines the toolbar in paint order. Hit zones are
// derived from the same labels, so clicks and painting agree.
var toolbarButtons = []struct {
	label  string
	action interaction.ToolbarAction
}{
	{"reassign", interaction.ActionReassign},
	{"memo", interaction.ActionAddMemo},
	{"delete", interaction.ActionDelete},
}

// toolbarFrame is the border plus padding offset of the content row
// inside the toolbar box, in cells.
const toolbarFrame = 2

func (m *model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "loading..."
	}

	view := m.titleBar() + "\n" +
		m.viewport.View() + "\n" +
		m.statusLine() + "\n" +
		m.hintLine()

	if pos, box, ok := m.toolbarBox(); ok {
		view = overlay(view, box, pos.X, pos.Y)
	}
	if pos, box, ok := m.popoverBox(); ok {
		view = overlay(view, box, pos.X, pos.Y)
	}
	if m.showHelp {
		box := m.helpBox()
		x := (m.width - lipgloss.Width(box)) / 2
		y := (m.height - lipgloss.Height(box)) / 2
		view = overlay(view, box, x, y)
	}
	return view
}

func (m *model) titleBar() string {
	note := filepath.Base(m.path)
	if m.layout != nil {
		note += " · " + m.layout.Mode.String()
	}
	if m.watcher != nil {
		note += " · watching"
	}
	bar := titleStyle.Render("marginalia") + titleNoteStyle.Render(note)
	return ansi.Truncate(bar, m.width, "")
}

func (m *model) statusLine() string {
	if m.searching {
		return ansi.Truncate(m.search.View(), m.width, "")
	}

	left := statusStyle.Render(m.status)

	var parts []string
	if q := m.ws.Query(); q != "" {
		total := m.ws.MatchCount()
		if total == 0 {
			parts = append(parts, fmt.Sprintf("%q no matches", q))
		} else {
			parts = append(parts, fmt.Sprintf("%q %d/%d", q, m.ws.CurrentMatch()+1, total))
		}
	}
	if !m.ws.Snapshot().View.ShowCodeColors {
		parts = append(parts, "colors off")
	}
	if m.layout != nil && len(m.layout.Unanchored) > 0 {
		parts = append(parts, fmt.Sprintf("%d unanchored", len(m.layout.Unanchored)))
	}
	right := statusRightStyle.Render(strings.Join(parts, " · "))

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return ansi.Truncate(left+" "+right, m.width, "")
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m *model) hintLine() string {
	hints := "/ search · n/N match · c colors · ? help · q quit"
	return ansi.Truncate(hintStyle.Render(hints), m.width, "")
}

// toolbarBox positions and renders the toolbar for the marker whose
// toolbar is showing. ok is false when the controller is idle or the
// marker scrolled out of the content area.
func (m *model) toolbarBox() (interaction.Point, string, bool) {
	ref, ok := m.ctrl.Toolbar()
	if !ok {
		return interaction.Point{}, "", false
	}
	anchor, ok := markerRect(m.out, ref.ID, m.viewport.YOffset, contentTop, m.viewport.Height)
	if !ok {
		return interaction.Point{}, "", false
	}

	var b strings.Builder
	for i, btn := range toolbarButtons {
		if i > 0 {
			b.WriteString(" · ")
		}
		b.WriteString(toolbarKeyStyle.Render(btn.label[:1]))
		b.WriteString(btn.label[1:])
	}
	box := toolbarStyle.Render(b.String())
	size := interaction.Size{W: lipgloss.Width(box), H: lipgloss.Height(box)}
	pos := interaction.PlacePopover(anchor, size, interaction.Size{W: m.width, H: m.height})
	return pos, box, true
}

// toolbarHit resolves a cell against the toolbar overlay. inside is
// true anywhere on the box; onButton narrows to a labeled zone.
func (m *model) toolbarHit(x, y int) (action interaction.ToolbarAction, onButton, inside bool) {
	pos, box, ok := m.toolbarBox()
	if !ok {
		return 0, false, false
	}
	w, h := lipgloss.Width(box), lipgloss.Height(box)
	if x < pos.X || x >= pos.X+w || y < pos.Y || y >= pos.Y+h {
		return 0, false, false
	}
	if y != pos.Y+1 {
		return 0, false, true
	}

	col := toolbarFrame
	rel := x - pos.X
	for _, btn := range toolbarButtons {
		if rel >= col && rel < col+len(btn.label) {
			return btn.action, true, true
		}
		col += len(btn.label) + 3
	}
	return 0, false, true
}

// popoverBox renders the open memo near its icon. An icon scrolled
// out of view keeps the popover open but unpainted until it returns.
func (m *model) popoverBox() (interaction.Point, string, bool) {
	if m.popover == nil {
		return interaction.Point{}, "", false
	}
	anchor, ok := markerRect(m.out, m.popover.ID, m.viewport.YOffset, contentTop, m.viewport.Height)
	if !ok {
		return interaction.Point{}, "", false
	}

	title := m.popover.Title
	if title == "" {
		title = m.popover.ID
	}
	lines := []string{popoverTitleStyle.Render(title)}
	meta := m.popover.Author
	if !m.popover.Created.IsZero() {
		if meta != "" {
			meta += " · "
		}
		meta += m.popover.Created.Format("2006-01-02")
	}
	if meta != "" {
		lines = append(lines, popoverMetaStyle.Render(meta))
	}
	if m.popover.Content != "" {
		lines = append(lines, m.popover.Content)
	}

	w := 40
	if max := m.width - 4; w > max {
		w = max
	}
	box := popoverStyle.Width(w).Render(strings.Join(lines, "\n"))
	size := interaction.Size{W: lipgloss.Width(box), H: lipgloss.Height(box)}
	pos := interaction.PlacePopover(anchor, size, interaction.Size{W: m.width, H: m.height})
	return pos, box, true
}

func (m *model) popoverContains(x, y int) bool {
	pos, box, ok := m.popoverBox()
	if !ok {
		return false
	}
	return x >= pos.X && x < pos.X+lipgloss.Width(box) &&
		y >= pos.Y && y < pos.Y+lipgloss.Height(box)
}

func (m *model) helpBox() string {
	rows := []string{
		"/          search",
		"n / N      next / previous match",
		"c          toggle code colors",
		"r m d      toolbar: reassign, memo, delete",
		"g / G      top / bottom",
		"esc        dismiss popover or toolbar",
		"q          quit",
		"",
		"hover a chip for its toolbar",
		"click a chip or icon to select it",
		"ctrl-click a turn header to seek",
	}
	return helpStyle.Render(strings.Join(rows, "\n"))
}

// formatSeconds renders a timestamp the way headers are written.
func formatSeconds(s int) string {
	if s < 0 {
		return "?"
	}
	if h := s / 3600; h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, s%3600/60, s%60)
	}
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}
