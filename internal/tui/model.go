// Package tui is the terminal front end: a browsable tree of the active and
// inactive shortcuts and an interactive quiz screen.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jask/shortcutquiz/internal/quiz"
	"github.com/jask/shortcutquiz/internal/service"
	"github.com/jask/shortcutquiz/internal/shortcuts"
	"github.com/jask/shortcutquiz/internal/tree"
)

// releaseDelay is how long after the last key press the held keys are
// considered released. Terminals report presses only, and key repeat starts
// later than this on common setups.
const releaseDelay = 500 * time.Millisecond

type Services struct {
	Shortcuts *service.ShortcutService
	Reload    *service.ReloadService
}

type Options struct {
	// StartQuiz opens the quiz right away and quits when it is left.
	StartQuiz     bool
	MaxWrongTries int
	Sort          tree.SortOrder
}

type screen int

const (
	screenTree screen = iota
	screenQuiz
)

// ---------------------------------------------------------------------------
// Messages
// ---------------------------------------------------------------------------

type tableLoadedMsg struct {
	table shortcuts.Table
	err   error
}

type actionDoneMsg struct {
	status string
	err    error
}

type reloadDoneMsg struct {
	res service.ReloadResult
	err error
}

type quizStartedMsg struct {
	session *quiz.Session
	sink    *quiz.Sink
	events  *eventBuffer
	err     error
}

type quizRestartedMsg struct {
	err error
}

type answerRecordedMsg struct {
	command string
	err     error
}

type releaseMsg struct {
	seq int
}

// eventBuffer collects session events. The observer may run on the command
// goroutine that starts or restarts the session.
type eventBuffer struct {
	mu     sync.Mutex
	events []quiz.Event
}

func (b *eventBuffer) add(e quiz.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *eventBuffer) drain() []quiz.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.events
	b.events = nil
	return out
}

type model struct {
	ctx  context.Context
	svc  Services
	opts Options
	keys *KeyRegistry
	help help.Model

	width  int
	height int
	screen screen

	// tree screen
	table    shortcuts.Table
	view     tree.View
	sort     tree.SortOrder
	expanded map[string]bool
	cursor   int
	offset   int

	// quiz screen
	session      *quiz.Session
	sink         *quiz.Sink
	events       *eventBuffer
	menu         bool
	answerCursor int
	keyOverrides map[string]bool
	starOverride *bool
	keySeq       int
	lastKey      quiz.KeyEvent
	releaseAfter time.Duration

	// pending counts answers not yet written; quitting waits for them.
	pending  int
	quitting bool

	status    string
	statusErr bool
}

func newModel(ctx context.Context, svc Services, opts Options) model {
	return model{
		ctx:          ctx,
		svc:          svc,
		opts:         opts,
		keys:         NewKeyRegistry(),
		help:         newHelp(),
		sort:         opts.Sort,
		expanded:     make(map[string]bool),
		keyOverrides: make(map[string]bool),
		releaseAfter: releaseDelay,
		status:       "Loading shortcuts...",
	}
}

// Run starts the terminal UI and blocks until it exits.
func Run(ctx context.Context, svc Services, opts Options) error {
	p := tea.NewProgram(newModel(ctx, svc, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m model) Init() tea.Cmd {
	if m.opts.StartQuiz {
		return tea.Batch(m.loadTableCmd(), m.startQuizCmd())
	}
	return m.loadTableCmd()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ensureCursorVisible()
		return m, nil
	case tableLoadedMsg:
		if msg.err != nil {
			m.setError(fmt.Sprintf("Load failed: %v", msg.err))
			return m, nil
		}
		m.table = msg.table
		if m.status == "Loading shortcuts..." {
			m.status = ""
		}
		m.clampCursor()
		return m, nil
	case actionDoneMsg:
		if msg.err != nil {
			m.setError(msg.err.Error())
			return m, m.loadTableCmd()
		}
		m.setStatus(msg.status)
		return m, m.loadTableCmd()
	case reloadDoneMsg:
		if msg.err != nil {
			m.setError(fmt.Sprintf("Reload failed: %v", msg.err))
			return m, nil
		}
		status := fmt.Sprintf("Reloaded %d commands.", msg.res.Commands)
		if n := len(msg.res.Warnings); n > 0 {
			status += fmt.Sprintf(" %d warnings, first: %s", n, msg.res.Warnings[0])
		}
		m.setStatus(status)
		return m, m.loadTableCmd()
	case quizStartedMsg:
		return m.handleQuizStarted(msg)
	case quizRestartedMsg:
		if msg.err != nil {
			m.setError(fmt.Sprintf("Restart failed: %v", msg.err))
		}
		cmd := m.drainEvents()
		return m, cmd
	case quizKeyToggledMsg:
		if msg.err != nil {
			m.setError(msg.err.Error())
			return m, nil
		}
		m.keyOverrides[msg.binding] = msg.enabled
		if msg.enabled {
			m.setStatus(fmt.Sprintf("Enabled %s.", msg.binding))
		} else {
			m.setStatus(fmt.Sprintf("Disabled %s.", msg.binding))
		}
		return m, nil
	case quizStarredMsg:
		if msg.err != nil {
			m.setError(msg.err.Error())
			return m, nil
		}
		enabled := msg.enabled
		m.starOverride = &enabled
		return m, nil
	case answerRecordedMsg:
		m.pending--
		if msg.err != nil {
			m.setError(fmt.Sprintf("Could not record answer for %s: %v", msg.command, msg.err))
		}
		if m.quitting && m.pending <= 0 {
			return m, tea.Quit
		}
		return m, nil
	case releaseMsg:
		if msg.seq == m.keySeq && m.sink != nil {
			_ = m.sink.KeyUp(m.lastKey)
			_ = m.sink.ReleaseAll()
		}
		return m, nil
	case tea.KeyMsg:
		if m.screen == screenQuiz {
			return m.updateQuiz(msg)
		}
		return m.updateTree(msg)
	}
	return m, nil
}

func (m model) View() string {
	var body string
	var bindings []key.Binding
	switch m.screen {
	case screenQuiz:
		body = m.quizView()
		bindings = m.keys.HelpBindings(m.quizScope())
	default:
		body = m.treeView()
		bindings = m.keys.HelpBindings(scopeTree)
	}
	return m.placeWithFooter(m.renderHeader()+"\n"+body, m.renderStatus(), m.renderFooter(bindings))
}

func (m *model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *model) setError(s string) {
	m.status = s
	m.statusErr = true
}

// ---------------------------------------------------------------------------
// Commands
// ---------------------------------------------------------------------------

func (m model) loadTableCmd() tea.Cmd {
	ctx, svc := m.ctx, m.svc.Shortcuts
	return func() tea.Msg {
		t, err := svc.Table(ctx)
		return tableLoadedMsg{table: t, err: err}
	}
}

func (m model) reloadCmd() tea.Cmd {
	ctx, svc := m.ctx, m.svc.Reload
	return func() tea.Msg {
		if svc == nil {
			return reloadDoneMsg{err: errors.New("reload is not available")}
		}
		res, err := svc.Reload(ctx)
		return reloadDoneMsg{res: res, err: err}
	}
}

func (m model) starCmd(command string, enabled bool) tea.Cmd {
	ctx, svc := m.ctx, m.svc.Shortcuts
	return func() tea.Msg {
		if err := svc.Star(ctx, command, enabled); err != nil {
			return actionDoneMsg{err: err}
		}
		if enabled {
			return actionDoneMsg{status: fmt.Sprintf("Starred %s.", command)}
		}
		return actionDoneMsg{status: fmt.Sprintf("Unstarred %s.", command)}
	}
}

func (m model) toggleKeyCmd(command, binding string, enabled bool) tea.Cmd {
	ctx, svc := m.ctx, m.svc.Shortcuts
	return func() tea.Msg {
		if err := svc.SetKeybindingEnabled(ctx, command, binding, enabled); err != nil {
			return actionDoneMsg{err: err}
		}
		if enabled {
			return actionDoneMsg{status: fmt.Sprintf("Enabled %s for %s.", binding, command)}
		}
		return actionDoneMsg{status: fmt.Sprintf("Disabled %s for %s.", binding, command)}
	}
}

func (m model) recordAnswerCmd(command string, correct bool) tea.Cmd {
	ctx, svc := m.ctx, m.svc.Shortcuts
	return func() tea.Msg {
		return answerRecordedMsg{command: command, err: svc.RecordAnswer(ctx, command, correct)}
	}
}

func releaseCmd(after time.Duration, seq int) tea.Cmd {
	return tea.Tick(after, func(time.Time) tea.Msg { return releaseMsg{seq: seq} })
}

// ---------------------------------------------------------------------------
// Chrome
// ---------------------------------------------------------------------------

func (m model) renderHeader() string {
	name := headerAppStyle.Render("shortcutquiz")
	tabs := []struct {
		label  string
		active bool
	}{
		{"Active", m.screen == screenTree && m.view == tree.ViewActive},
		{"Inactive", m.screen == screenTree && m.view == tree.ViewInactive},
		{"Quiz", m.screen == screenQuiz},
	}
	parts := make([]string, 0, len(tabs))
	for _, t := range tabs {
		if t.active {
			parts = append(parts, activeTabStyle.Render(t.label))
		} else {
			parts = append(parts, inactiveTabStyle.Render(t.label))
		}
	}
	line := name + "  " + strings.Join(parts, " ")
	if m.width <= 0 {
		return headerBarStyle.Render(line)
	}
	return headerBarStyle.Width(m.width).Render(line)
}

func (m model) renderFooter(bindings []key.Binding) string {
	content := m.help.ShortHelpView(bindings)
	if m.width == 0 {
		return footerStyle.Render(content)
	}
	return footerStyle.Width(m.width).Render(content)
}

func (m model) renderStatus() string {
	st := statusBarStyle
	if m.statusErr {
		st = statusErrStyle
	}
	flat := strings.ReplaceAll(m.status, "\n", " ")
	if m.width == 0 {
		return st.Render(flat)
	}
	return st.Width(m.width).Render(flat)
}

func (m model) placeWithFooter(body, statusLine, footer string) string {
	if m.height == 0 {
		return body + "\n\n" + statusLine + "\n" + footer
	}
	contentHeight := m.height - 2
	if contentHeight < 1 {
		contentHeight = 1
	}
	if lipgloss.Height(body) >= contentHeight {
		return body + "\n" + statusLine + "\n" + footer
	}
	main := lipgloss.Place(m.width, contentHeight, lipgloss.Left, lipgloss.Top, body)
	return main + "\n" + statusLine + "\n" + footer
}

// bodyHeight is the number of rows left for screen content below the header.
func (m model) bodyHeight() int {
	if m.height == 0 {
		return 0
	}
	h := m.height - 3
	if h < 1 {
		h = 1
	}
	return h
}
