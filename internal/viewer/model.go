package viewer

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/roach88/marginalia/internal/annotation"
	"github.com/roach88/marginalia/internal/bundle"
	"github.com/roach88/marginalia/internal/engine"
	"github.com/roach88/marginalia/internal/interaction"
	"github.com/roach88/marginalia/internal/render"
	"github.com/roach88/marginalia/internal/search"
	"github.com/roach88/marginalia/internal/workspace"
)

// contentTop is the first content row; row zero is the title bar.
const contentTop = 1

// footerHeight covers the status line and the key hint line.
const footerHeight = 2

// Messages crossing goroutine boundaries into the update loop.
type (
	// intentMsg delivers one controller intent.
	intentMsg struct{ intent interaction.Intent }

	// bundleChangedMsg reports the watched bundle file changing.
	bundleChangedMsg struct{}

	// reloadMsg carries a re-read bundle, or the load failure.
	reloadMsg struct {
		bundle *bundle.Bundle
		err    error
	}

	// repaintMsg forces a frame after the toolbar hide timer fires,
	// which otherwise changes controller state without any input.
	repaintMsg struct{}
)

// model is the bubbletea model for the annotated document view. It
// owns a live workspace and re-renders through the engine whenever an
// intent or a reload lands.
type model struct {
	path string

	ws       *workspace.Workspace
	eng      *engine.Engine
	renderer *render.TerminalRenderer
	ctrl     *interaction.Controller
	intents  chan interaction.Intent
	watcher  *watcher

	layout *engine.Layout
	out    *render.Output

	viewport viewport.Model
	search   textinput.Model

	width  int
	height int
	ready  bool

	searching bool
	showHelp  bool
	mouseDown bool
	selecting bool
	hovered   *interaction.MarkerRef
	popover   *annotation.Memo

	status   string
	quitting bool
}

func newModel(path string, b *bundle.Bundle, w *watcher) *model {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "search"
	ti.CharLimit = 256

	m := &model{
		path:     path,
		ws:       workspace.FromBundle(b),
		eng:      engine.New(),
		renderer: render.NewTerminal(render.WithLipgloss(lipgloss.DefaultRenderer())),
		intents:  make(chan interaction.Intent, 32),
		watcher:  w,
		search:   ti,
	}
	m.ctrl = interaction.New(func(in interaction.Intent) { m.intents <- in })
	m.refresh()
	return m
}

// refresh re-renders the document from the workspace state. A render
// failure keeps the previous layout on screen and lands in the status
// line.
func (m *model) refresh() {
	snap := m.ws.Snapshot()
	layout, err := m.eng.Render(snap.Text, snap.Codebook, snap.Input, snap.View)
	if err != nil {
		m.status = fmt.Sprintf("render failed: %v", err)
		return
	}
	m.layout = layout
	m.out = m.renderer.Render(layout)
	if m.ready {
		m.viewport.SetContent(m.out.Text)
	}
}

func (m *model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.listenIntents()}
	if m.watcher != nil {
		cmds = append(cmds, m.listenWatch())
	}
	return tea.Batch(cmds...)
}

// listenIntents relays the next controller intent into the update
// loop. Emission happens on whichever goroutine dispatched the event,
// so intents cross through a channel rather than mutating the model.
func (m *model) listenIntents() tea.Cmd {
	return func() tea.Msg { return intentMsg{<-m.intents} }
}

func (m *model) listenWatch() tea.Cmd {
	ch := m.watcher.Changes()
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return bundleChangedMsg{}
	}
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case intentMsg:
		m.applyIntent(msg.intent)
		return m, m.listenIntents()

	case bundleChangedMsg:
		path := m.path
		load := func() tea.Msg {
			b, err := bundle.Load(path)
			return reloadMsg{bundle: b, err: err}
		}
		return m, tea.Batch(load, m.listenWatch())

	case reloadMsg:
		m.reload(msg)
		return m, nil

	case repaintMsg:
		return m, nil
	}

	var cmds []tea.Cmd
	if m.searching {
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		cmds = append(cmds, cmd)
	}
	if m.ready {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m *model) resize(msg tea.WindowSizeMsg) {
	m.width, m.height = msg.Width, msg.Height
	vpHeight := msg.Height - contentTop - footerHeight
	if vpHeight < 1 {
		vpHeight = 1
	}
	if !m.ready {
		m.viewport = viewport.New(msg.Width, vpHeight)
		m.ready = true
		if m.out != nil {
			m.viewport.SetContent(m.out.Text)
		}
		return
	}
	m.viewport.Width = msg.Width
	m.viewport.Height = vpHeight
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		return m.handleSearchKey(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m.finish()

	case "?":
		m.showHelp = !m.showHelp
		return m, nil

	case "esc":
		switch {
		case m.showHelp:
			m.showHelp = false
		case m.popover != nil:
			m.popover = nil
		default:
			m.hovered = nil
			return m, m.dispatch(interaction.Reset())
		}
		return m, nil

	case "/":
		m.searching = true
		m.search.SetValue("")
		return m, m.search.Focus()

	case "n":
		if m.ws.MatchCount() > 0 {
			m.ws.NextMatch()
			m.refresh()
			m.scrollToMatch()
		}
		return m, nil

	case "N":
		if m.ws.MatchCount() > 0 {
			m.ws.PrevMatch()
			m.refresh()
			m.scrollToMatch()
		}
		return m, nil

	case "c":
		if m.ws.ToggleCodeColors() {
			m.status = "code colors on"
		} else {
			m.status = "code colors off"
		}
		m.refresh()
		return m, nil

	case "g", "home":
		if m.ready {
			m.viewport.GotoTop()
		}
		return m, nil

	case "G", "end":
		if m.ready {
			m.viewport.GotoBottom()
		}
		return m, nil

	case "r", "m", "d":
		return m, m.toolbarKey(msg.String())
	}

	if m.ready {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m.finish()

	case "enter":
		m.searching = false
		m.search.Blur()
		query := m.search.Value()
		m.ws.SetQuery(query, search.Options{})
		m.refresh()
		if query == "" {
			m.status = "search cleared"
		} else {
			m.status = fmt.Sprintf("%d matches", m.ws.MatchCount())
			m.scrollToMatch()
		}
		return m, nil

	case "esc":
		m.searching = false
		m.search.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

// toolbarKey maps r, m, and d onto the showing toolbar. The keys do
// nothing while no toolbar is up; stale actions the controller drops
// on its own.
func (m *model) toolbarKey(key string) tea.Cmd {
	ref, ok := m.ctrl.Toolbar()
	if !ok {
		return nil
	}
	action := interaction.ActionReassign
	switch key {
	case "m":
		action = interaction.ActionAddMemo
	case "d":
		action = interaction.ActionDelete
	}
	return m.dispatch(interaction.ToolbarClick(ref, action))
}

func (m *model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if !m.ready || m.showHelp {
		return m, nil
	}

	switch {
	case msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case msg.Action == tea.MouseActionMotion && msg.Button == tea.MouseButtonNone:
		return m, m.pointerMoved(msg.X, msg.Y)

	case msg.Action == tea.MouseActionMotion && msg.Button == tea.MouseButtonLeft:
		if m.mouseDown && !m.selecting {
			m.selecting = true
			return m, m.dispatch(interaction.SelectionChanged(true))
		}
		return m, nil

	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		return m, m.press(msg)

	case msg.Action == tea.MouseActionRelease:
		m.mouseDown = false
		if m.selecting {
			m.selecting = false
			return m, m.dispatch(interaction.SelectionChanged(false))
		}
		return m, nil
	}
	return m, nil
}

// pointerMoved drives hover state. Motion over the toolbar counts as
// hovering its marker, so mousing from a chip onto its toolbar does
// not lose the toolbar to the hide timer.
func (m *model) pointerMoved(x, y int) tea.Cmd {
	if _, _, inside := m.toolbarHit(x, y); inside {
		ref, ok := m.ctrl.Toolbar()
		if !ok {
			return nil
		}
		m.hovered = &ref
		return m.dispatch(interaction.PointerEnter(ref))
	}

	h := m.hitAt(x, y)
	if h.marker != nil {
		ref := markerRef(*h.marker)
		if m.hovered != nil && m.hovered.ID == ref.ID {
			return nil
		}
		var cmds []tea.Cmd
		if m.hovered != nil {
			cmds = append(cmds, m.dispatch(interaction.PointerLeave(*m.hovered)))
		}
		m.hovered = &ref
		cmds = append(cmds, m.dispatch(interaction.PointerEnter(ref)))
		return tea.Batch(cmds...)
	}

	if m.hovered != nil {
		old := *m.hovered
		m.hovered = nil
		return m.dispatch(interaction.PointerLeave(old))
	}
	return nil
}

// press routes a left click by surface: popover, toolbar, marker,
// header, then plain text.
func (m *model) press(msg tea.MouseMsg) tea.Cmd {
	if m.popover != nil {
		if m.popoverContains(msg.X, msg.Y) {
			return nil
		}
		m.popover = nil
	}

	if action, onButton, inside := m.toolbarHit(msg.X, msg.Y); inside {
		if !onButton {
			return nil
		}
		ref, ok := m.ctrl.Toolbar()
		if !ok {
			return nil
		}
		return m.dispatch(interaction.ToolbarClick(ref, action))
	}

	h := m.hitAt(msg.X, msg.Y)
	switch {
	case h.marker != nil:
		ref := markerRef(*h.marker)
		return m.dispatch(interaction.MarkerClick(ref, h.anchor, msg.Ctrl))

	case h.block != nil:
		return m.dispatch(interaction.HeaderClick(h.block.Seconds, msg.Ctrl))

	case h.offset >= 0:
		m.mouseDown = true
	}
	return nil
}

func (m *model) hitAt(x, y int) hit {
	return hitTest(m.out, m.layout, m.viewport.YOffset, contentTop, m.viewport.Height, x, y)
}

// dispatch feeds the controller. When the toolbar comes out lingering
// a repaint is scheduled past the hide timer, since the timer changes
// controller state without producing any terminal input.
func (m *model) dispatch(ev interaction.Event) tea.Cmd {
	m.ctrl.Dispatch(ev)
	if m.ctrl.State() == interaction.StateLingering {
		return tea.Tick(interaction.DefaultToolbarLinger+20*time.Millisecond,
			func(time.Time) tea.Msg { return repaintMsg{} })
	}
	return nil
}

// applyIntent realizes one controller intent against the workspace
// and the popover. Intents the viewer cannot realize in place, seek
// and reassign, surface on the status line for the host to pick up.
func (m *model) applyIntent(in interaction.Intent) {
	switch in.Type {
	case interaction.IntentSeek:
		m.status = "seek " + formatSeconds(in.Seconds)
		return

	case interaction.IntentOpenMemo:
		if memo, ok := m.findMemo(in.ID); ok {
			m.popover = &memo
		}
		return

	case interaction.IntentToggleMemo:
		if !in.Active && m.popover != nil && m.popover.ID == in.ID {
			m.popover = nil
		}
	}

	if err := m.ws.ApplyIntent(in); err != nil {
		m.status = err.Error()
		return
	}
	m.refresh()

	switch in.Type {
	case interaction.IntentDeleteSpan:
		m.status = fmt.Sprintf("deleted %s", in.ID)
		m.hovered = nil
	case interaction.IntentCreateMemo:
		m.status = "memo added"
	case interaction.IntentReassignCode:
		m.status = fmt.Sprintf("reassign %s", in.ID)
	}
}

func (m *model) findMemo(id string) (annotation.Memo, bool) {
	for _, memo := range m.ws.Snapshot().Input.Memos {
		if memo.ID == id {
			return memo, true
		}
	}
	return annotation.Memo{}, false
}

// scrollToMatch centers the viewport on the current match.
func (m *model) scrollToMatch() {
	if !m.ready || m.layout == nil {
		return
	}
	idx := m.ws.CurrentMatch()
	if idx < 0 || idx >= len(m.layout.Matches) {
		return
	}
	line := lineOf(m.out, m.layout.Matches[idx].Span.Start)
	if line < 0 {
		return
	}
	target := line - m.viewport.Height/2
	if target < 0 {
		target = 0
	}
	m.viewport.SetYOffset(target)
}

// reload swaps in a re-read bundle. Transient interaction state is
// reset; a failed read keeps the current document on screen.
func (m *model) reload(msg reloadMsg) {
	if msg.err != nil {
		m.status = fmt.Sprintf("reload failed: %v", msg.err)
		return
	}
	m.ws.Reload(msg.bundle)
	m.ctrl.Dispatch(interaction.Reset())
	m.hovered = nil
	m.popover = nil
	m.selecting = false
	m.mouseDown = false
	m.refresh()
	m.status = "reloaded"
}

func (m *model) finish() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.ctrl.Close()
	if m.watcher != nil {
		m.watcher.Close()
	}
	return m, tea.Quit
}
