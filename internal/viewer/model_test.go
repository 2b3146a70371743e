package viewer

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/marginalia/internal/annotation"
	"github.com/roach88/marginalia/internal/bundle"
	"github.com/roach88/marginalia/internal/interaction"
)

const codedBundle = `
document:
  text: "The cat sat on the mat."
codebook:
  cd-trust: {name: Trust, color: "#e64a19"}
code_spans:
  - {id: cs-1, code: cd-trust, start: 4, end: 7}
view:
  show_code_colors: true
`

const memoBundle = `
document:
  text: "The cat sat on the mat."
memos:
  - {id: m1, title: Check this, content: Re-listen to the tape., start: 4, end: 4}
view:
  show_code_colors: true
`

const transcriptBundle = `
document:
  text: "[00:01:15] Alice: Hello there.\n[00:02:30] Bob: Hi."
view:
  show_code_colors: true
`

func newTestModel(t *testing.T, src string) *model {
	t.Helper()
	b, err := bundle.Parse([]byte(src))
	require.NoError(t, err)
	m := newModel("study.yaml", b, nil)
	m.resize(tea.WindowSizeMsg{Width: 80, Height: 24})
	return m
}

// drainIntents applies everything the controller emitted, standing in
// for the intent listener command the running program re-arms.
func drainIntents(m *model) {
	for {
		select {
		case in := <-m.intents:
			m.applyIntent(in)
		default:
			return
		}
	}
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func leftPress(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
}

func hoverMotion(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionMotion, Button: tea.MouseButtonNone}
}

func TestNewModel_RendersDocument(t *testing.T) {
	m := newTestModel(t, codedBundle)

	require.NotNil(t, m.layout)
	assert.Len(t, m.layout.Fragments, 3)
	assert.Equal(t, "The ▎Trustcat sat on the mat.", ansi.Strip(m.out.Text))
}

func TestResize_SizesViewport(t *testing.T) {
	m := newTestModel(t, codedBundle)

	assert.True(t, m.ready)
	assert.Equal(t, 80, m.viewport.Width)
	assert.Equal(t, 21, m.viewport.Height)

	m.resize(tea.WindowSizeMsg{Width: 100, Height: 30})
	assert.Equal(t, 100, m.viewport.Width)
	assert.Equal(t, 27, m.viewport.Height)
}

func TestClickChip_TogglesActiveCode(t *testing.T) {
	m := newTestModel(t, codedBundle)

	// The chip occupies cells [4,10) on the first content row.
	m.Update(leftPress(5, 1))
	drainIntents(m)
	assert.Equal(t, "cs-1", m.ws.Snapshot().View.ActiveCode)

	m.Update(leftPress(5, 1))
	drainIntents(m)
	assert.Equal(t, "", m.ws.Snapshot().View.ActiveCode)
}

func TestHoverChip_ShowsToolbar(t *testing.T) {
	m := newTestModel(t, codedBundle)

	m.Update(hoverMotion(5, 1))
	assert.Equal(t, interaction.StateHovering, m.ctrl.State())

	_, box, ok := m.toolbarBox()
	require.True(t, ok)
	plain := ansi.Strip(box)
	assert.Contains(t, plain, "reassign")
	assert.Contains(t, plain, "memo")
	assert.Contains(t, plain, "delete")
}

func TestLeaveChip_LingersThenRepaints(t *testing.T) {
	m := newTestModel(t, codedBundle)

	m.Update(hoverMotion(5, 1))
	_, cmd := m.Update(hoverMotion(1, 1))

	assert.Equal(t, interaction.StateLingering, m.ctrl.State())
	require.NotNil(t, cmd, "leaving must schedule a repaint past the hide timer")
}

func TestToolbarHit_Zones(t *testing.T) {
	m := newTestModel(t, codedBundle)
	m.Update(hoverMotion(5, 1))

	pos, box, ok := m.toolbarBox()
	require.True(t, ok)

	row := pos.Y + 1
	action, on, inside := m.toolbarHit(pos.X+toolbarFrame, row)
	assert.True(t, on)
	assert.True(t, inside)
	assert.Equal(t, interaction.ActionReassign, action)

	// The separator between buttons is inside the box but dead.
	_, on, inside = m.toolbarHit(pos.X+toolbarFrame+9, row)
	assert.False(t, on)
	assert.True(t, inside)

	// The border row is inside but has no buttons.
	_, on, inside = m.toolbarHit(pos.X+toolbarFrame, pos.Y)
	assert.False(t, on)
	assert.True(t, inside)

	_, _, inside = m.toolbarHit(pos.X+lipgloss.Width(box), row)
	assert.False(t, inside)
}

func TestToolbarClick_DeletesSpan(t *testing.T) {
	m := newTestModel(t, codedBundle)
	m.Update(hoverMotion(5, 1))

	pos, box, ok := m.toolbarBox()
	require.True(t, ok)

	deleteX := -1
	for x := pos.X; x < pos.X+lipgloss.Width(box); x++ {
		if a, on, _ := m.toolbarHit(x, pos.Y+1); on && a == interaction.ActionDelete {
			deleteX = x
			break
		}
	}
	require.NotEqual(t, -1, deleteX)

	m.Update(leftPress(deleteX, pos.Y+1))
	drainIntents(m)

	assert.Empty(t, m.ws.Snapshot().Input.Codes)
	assert.Contains(t, m.status, "deleted cs-1")
	assert.Equal(t, interaction.StateIdle, m.ctrl.State())
}

func TestToolbarKey_AddsMemo(t *testing.T) {
	m := newTestModel(t, codedBundle)
	m.Update(hoverMotion(5, 1))

	m.Update(keyMsg("m"))
	drainIntents(m)

	memos := m.ws.Snapshot().Input.Memos
	require.Len(t, memos, 1)
	assert.Equal(t, annotation.NewSpan(4, 7), memos[0].Span)
	assert.Equal(t, "memo added", m.status)
}

func TestToolbarKey_WithoutToolbarDoesNothing(t *testing.T) {
	m := newTestModel(t, codedBundle)

	m.Update(keyMsg("d"))
	drainIntents(m)

	assert.Len(t, m.ws.Snapshot().Input.Codes, 1)
}

func TestHeaderClick_SeeksWithModifier(t *testing.T) {
	m := newTestModel(t, transcriptBundle)

	msg := leftPress(3, 1)
	msg.Ctrl = true
	m.Update(msg)
	drainIntents(m)
	assert.Equal(t, "seek 1:15", m.status)

	// Without the modifier nothing seeks.
	m.status = ""
	m.Update(leftPress(3, 1))
	drainIntents(m)
	assert.Equal(t, "", m.status)
}

func TestSearchFlow(t *testing.T) {
	m := newTestModel(t, codedBundle)

	m.Update(keyMsg("/"))
	assert.True(t, m.searching)

	m.search.SetValue("at")
	m.Update(keyMsg("enter"))

	assert.False(t, m.searching)
	assert.Equal(t, 3, m.ws.MatchCount())
	assert.Equal(t, "3 matches", m.status)
	assert.Equal(t, 0, m.ws.CurrentMatch())

	m.Update(keyMsg("n"))
	assert.Equal(t, 1, m.ws.CurrentMatch())
	m.Update(keyMsg("N"))
	assert.Equal(t, 0, m.ws.CurrentMatch())
}

func TestSearchEsc_Cancels(t *testing.T) {
	m := newTestModel(t, codedBundle)

	m.Update(keyMsg("/"))
	m.search.SetValue("cat")
	m.Update(keyMsg("esc"))

	assert.False(t, m.searching)
	assert.Equal(t, "", m.ws.Query())
}

func TestToggleColors(t *testing.T) {
	m := newTestModel(t, codedBundle)

	m.Update(keyMsg("c"))
	assert.False(t, m.ws.Snapshot().View.ShowCodeColors)
	assert.Equal(t, "code colors off", m.status)

	m.Update(keyMsg("c"))
	assert.True(t, m.ws.Snapshot().View.ShowCodeColors)
	assert.Equal(t, "code colors on", m.status)
}

func TestMemoClick_OpensPopover(t *testing.T) {
	m := newTestModel(t, memoBundle)

	// The icon is a single cell at column 4.
	m.Update(leftPress(4, 1))
	drainIntents(m)

	require.NotNil(t, m.popover)
	assert.Equal(t, "m1", m.popover.ID)
	assert.Equal(t, "m1", m.ws.Snapshot().View.ActiveMemo)

	_, box, ok := m.popoverBox()
	require.True(t, ok)
	plain := ansi.Strip(box)
	assert.Contains(t, plain, "Check this")
	assert.Contains(t, plain, "Re-listen")
}

func TestMemoClickAgain_ClosesPopover(t *testing.T) {
	m := newTestModel(t, memoBundle)

	m.Update(leftPress(4, 1))
	drainIntents(m)
	require.NotNil(t, m.popover)

	m.Update(leftPress(4, 1))
	drainIntents(m)

	assert.Nil(t, m.popover)
	assert.Equal(t, "", m.ws.Snapshot().View.ActiveMemo)
}

func TestClickOutsidePopover_Closes(t *testing.T) {
	m := newTestModel(t, memoBundle)

	m.Update(leftPress(4, 1))
	drainIntents(m)
	require.NotNil(t, m.popover)

	m.Update(leftPress(0, 1))
	assert.Nil(t, m.popover)
}

func TestClickInsidePopover_Stays(t *testing.T) {
	m := newTestModel(t, memoBundle)

	m.Update(leftPress(4, 1))
	drainIntents(m)
	require.NotNil(t, m.popover)

	pos, _, ok := m.popoverBox()
	require.True(t, ok)
	m.Update(leftPress(pos.X+2, pos.Y+1))
	assert.NotNil(t, m.popover)
}

func TestEsc_ClosesPopoverThenToolbar(t *testing.T) {
	m := newTestModel(t, memoBundle)

	m.Update(leftPress(4, 1))
	drainIntents(m)
	require.NotNil(t, m.popover)

	m.Update(keyMsg("esc"))
	assert.Nil(t, m.popover)

	m.Update(hoverMotion(4, 1))
	require.Equal(t, interaction.StateHovering, m.ctrl.State())
	m.Update(keyMsg("esc"))
	assert.Equal(t, interaction.StateIdle, m.ctrl.State())
	assert.Nil(t, m.hovered)
}

func TestDragSelection_TracksController(t *testing.T) {
	m := newTestModel(t, codedBundle)

	m.Update(leftPress(1, 1))
	assert.True(t, m.mouseDown)

	m.Update(tea.MouseMsg{X: 2, Y: 1, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	assert.True(t, m.selecting)
	assert.True(t, m.ctrl.Selecting())

	m.Update(tea.MouseMsg{X: 3, Y: 1, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	assert.False(t, m.selecting)
	assert.False(t, m.ctrl.Selecting())
}

func TestReload_SwapsDocument(t *testing.T) {
	m := newTestModel(t, codedBundle)
	m.popover = &annotation.Memo{ID: "stale"}

	b2, err := bundle.Parse([]byte(strings.Replace(codedBundle, "cat", "dog", 1)))
	require.NoError(t, err)

	m.reload(reloadMsg{bundle: b2})

	assert.Contains(t, ansi.Strip(m.out.Text), "dog")
	assert.Equal(t, "reloaded", m.status)
	assert.Nil(t, m.popover)
	assert.Equal(t, interaction.StateIdle, m.ctrl.State())
}

func TestReload_FailureKeepsDocument(t *testing.T) {
	m := newTestModel(t, codedBundle)

	m.reload(reloadMsg{err: errors.New("yaml exploded")})

	assert.Contains(t, m.status, "reload failed")
	assert.Contains(t, ansi.Strip(m.out.Text), "cat")
}

func TestQuit(t *testing.T) {
	m := newTestModel(t, codedBundle)

	next, cmd := m.Update(keyMsg("ctrl+c"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.True(t, next.(*model).quitting)
	assert.Equal(t, "", next.(*model).View())
}

func TestView_Composition(t *testing.T) {
	m := newTestModel(t, codedBundle)

	view := ansi.Strip(m.View())
	assert.Contains(t, view, "marginalia")
	assert.Contains(t, view, "study.yaml")
	assert.Contains(t, view, "plain")
	assert.Contains(t, view, "Trust")
	assert.Contains(t, view, "q quit")
}

func TestView_NotReady(t *testing.T) {
	b, err := bundle.Parse([]byte(codedBundle))
	require.NoError(t, err)
	m := newModel("study.yaml", b, nil)

	assert.Equal(t, "loading...", m.View())
}

func TestView_HelpOverlay(t *testing.T) {
	m := newTestModel(t, codedBundle)

	m.Update(keyMsg("?"))
	assert.Contains(t, ansi.Strip(m.View()), "toolbar: reassign")

	m.Update(keyMsg("?"))
	assert.NotContains(t, ansi.Strip(m.View()), "toolbar: reassign")
}

func TestStatusLine_MatchIndicator(t *testing.T) {
	m := newTestModel(t, codedBundle)

	m.Update(keyMsg("/"))
	m.search.SetValue("at")
	m.Update(keyMsg("enter"))
	m.status = ""

	assert.Contains(t, ansi.Strip(m.statusLine()), `"at" 1/3`)
}

func TestStatusLine_UnanchoredCount(t *testing.T) {
	m := newTestModel(t, `
document:
  text: "The cat sat on the mat."
memos:
  - {id: m2, title: Floating, start: -1, end: -1}
view:
  show_code_colors: true
`)
	assert.Contains(t, ansi.Strip(m.statusLine()), "1 unanchored")
}

func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0:00"},
		{75, "1:15"},
		{150, "2:30"},
		{3675, "1:01:15"},
		{-1, "?"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatSeconds(tt.in))
	}
}
