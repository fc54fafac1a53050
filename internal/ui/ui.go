// Package ui renders the panel: the state selector, the raw-state
// label, and the debug area. All selection state is read back from the
// reconcile session; the radio highlight is never mutated directly.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/SaltyPakoda/computer-eyes/internal/config"
	"github.com/SaltyPakoda/computer-eyes/internal/model"
	"github.com/SaltyPakoda/computer-eyes/internal/prefs"
	"github.com/SaltyPakoda/computer-eyes/internal/reconcile"
	"github.com/SaltyPakoda/computer-eyes/internal/rig"
)

type rigEventMsg rig.Event

type rigStreamClosedMsg struct{}

type resubscribeMsg struct{}

type tickMsg time.Time

type Model struct {
	cfg     config.Config
	session *reconcile.Session
	store   *prefs.Store

	states    []model.FaceState
	cursor    int
	width     int
	height    int
	spin      spinner.Model
	debug     viewport.Model
	bgMode    prefs.BackgroundMode
	bgColor   string
	theme     theme
	panicText string
	quitting  bool
}

func New(cfg config.Config, session *reconcile.Session, store *prefs.Store) Model {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	mode, color := store.Background(context.Background())
	m := Model{
		cfg:     cfg,
		session: session,
		store:   store,
		states:  model.AllStates(),
		spin:    sp,
		debug:   viewport.New(60, 4),
		bgMode:  mode,
		bgColor: color,
	}
	m.theme = newTheme(mode, color)
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitEvent(m.session), tickEvery(m.cfg.TickInterval), m.spin.Tick)
}

func waitEvent(s *reconcile.Session) tea.Cmd {
	ch := s.Events()
	return func() tea.Msg {
		if ch == nil {
			return rigStreamClosedMsg{}
		}
		ev, ok := <-ch
		if !ok {
			return rigStreamClosedMsg{}
		}
		return rigEventMsg(ev)
	}
}

func tickEvery(interval time.Duration) tea.Cmd {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (out tea.Model, cmd tea.Cmd) {
	// Page-level fallback: anything that escapes a handler renders as
	// a diagnostic instead of killing the panel.
	defer func() {
		if r := recover(); r != nil {
			m.panicText = fmt.Sprintf("unhandled failure: %v", r)
			out = m
			cmd = nil
		}
	}()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.session.Resize(msg.Width, msg.Height)
		if w := msg.Width - 4; w > 20 {
			m.debug.Width = w
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case rigEventMsg:
		m.session.HandleEvent(rig.Event(msg), time.Now())
		return m, waitEvent(m.session)

	case rigStreamClosedMsg:
		if m.quitting {
			return m, nil
		}
		// The instance was replaced (crash recovery); resubscribe
		// shortly so a dead stream cannot spin the loop.
		return m, tea.Tick(250*time.Millisecond, func(time.Time) tea.Msg {
			return resubscribeMsg{}
		})

	case resubscribeMsg:
		return m, waitEvent(m.session)

	case tickMsg:
		m.session.Tick(time.Time(msg))
		return m, tickEvery(m.cfg.TickInterval)

	case spinner.TickMsg:
		var c tea.Cmd
		m.spin, c = m.spin.Update(msg)
		return m, c
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		m.session.Close()
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.states)-1 {
			m.cursor++
		}
	case "enter", " ":
		m.session.Request(m.states[m.cursor].Title(), time.Now())
	case "b":
		return m.cycleBackground(), nil
	}
	return m, nil
}

func (m Model) cycleBackground() Model {
	modes := prefs.Modes()
	next := modes[0]
	for i, mode := range modes {
		if mode == m.bgMode {
			next = modes[(i+1)%len(modes)]
			break
		}
	}
	m.bgMode = next
	m.theme = newTheme(m.bgMode, m.bgColor)
	// Best-effort persistence and rig pass-through; neither failure is
	// worth blocking the toggle.
	_ = m.store.SetBackground(context.Background(), m.bgMode, m.bgColor)
	_ = m.session.SetBackground("#" + m.bgColor)
	return m
}

func (m Model) View() (out string) {
	// Same fallback as Update: rendering failures become the diagnostic
	// panel, never a blank or dead page.
	defer func() {
		if r := recover(); r != nil {
			out = m.theme.errPanel.Render(fmt.Sprintf("unhandled failure: %v", r))
		}
	}()

	if m.panicText != "" {
		return m.theme.errPanel.Render(m.panicText)
	}
	snap := m.session.Snapshot()
	var b strings.Builder

	b.WriteString(m.theme.header.Render("computer eyes"))
	b.WriteString("\n\n")

	for i, st := range m.states {
		mark := "( )"
		if st == snap.Display {
			mark = "(*)"
		}
		line := fmt.Sprintf("%s %s", mark, st.Title())
		if i == m.cursor {
			line = m.theme.selected.Render("> " + line)
		} else {
			line = m.theme.option.Render("  " + line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if snap.Loaded {
		b.WriteString(m.theme.status.Render("state: " + snap.RawLabel))
	} else {
		b.WriteString(m.theme.status.Render(m.spin.View() + " loading animation…"))
	}
	b.WriteString("\n")

	if snap.Notice != "" {
		b.WriteString(m.theme.muted.Render(snap.Notice))
		b.WriteString("\n")
	}

	if diag := m.diagnostic(snap); diag != "" {
		m.debug.SetContent(diag)
		b.WriteString(m.theme.errPanel.Render(m.debug.View()))
		b.WriteString("\n")
	}

	b.WriteString(m.theme.muted.Render("↑/↓ move · enter select · b background · q quit"))
	return m.theme.root.Render(b.String())
}

// diagnostic is the debug panel text: the most recent surfaced error,
// or empty when clear.
func (m Model) diagnostic(snap reconcile.Snapshot) string {
	return snap.ErrText
}

type theme struct {
	root     lipgloss.Style
	header   lipgloss.Style
	option   lipgloss.Style
	selected lipgloss.Style
	status   lipgloss.Style
	errPanel lipgloss.Style
	muted    lipgloss.Style
}

func newTheme(mode prefs.BackgroundMode, color string) theme {
	accent := lipgloss.Color("#01cdfe")
	warn := lipgloss.Color("#ff71ce")
	text := lipgloss.Color("#f3f3ff")
	muted := lipgloss.Color("#9ca3d8")

	root := lipgloss.NewStyle().Padding(1, 2)
	switch mode {
	case prefs.BackgroundSolid:
		root = root.Background(lipgloss.Color("#" + color))
	case prefs.BackgroundDark:
		root = root.Background(lipgloss.Color("#0a0a12"))
	}

	return theme{
		root:     root,
		header:   lipgloss.NewStyle().Foreground(accent).Bold(true),
		option:   lipgloss.NewStyle().Foreground(text),
		selected: lipgloss.NewStyle().Foreground(accent).Bold(true),
		status:   lipgloss.NewStyle().Foreground(text),
		errPanel: lipgloss.NewStyle().Foreground(warn).BorderStyle(lipgloss.RoundedBorder()).BorderForeground(warn).Padding(0, 1),
		muted:    lipgloss.NewStyle().Foreground(muted),
	}
}
