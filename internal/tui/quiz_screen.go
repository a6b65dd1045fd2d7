package tui

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jask/shortcutquiz/internal/quiz"
)

type quizKeyToggledMsg struct {
	binding string
	enabled bool
	err     error
}

type quizStarredMsg struct {
	enabled bool
	err     error
}

func (m model) startQuizCmd() tea.Cmd {
	ctx, svc := m.ctx, m.svc.Shortcuts
	maxWrong := m.opts.MaxWrongTries
	if maxWrong == 0 {
		maxWrong = svc.Settings.MaxWrongTries
	}
	buf := &eventBuffer{}
	return func() tea.Msg {
		s := quiz.NewSession(quiz.Options{
			Questions:     svc.Questions,
			MaxWrongTries: maxWrong,
			Observer:      buf.add,
		})
		sink, err := s.Start(ctx)
		if err != nil {
			s.Dispose()
			return quizStartedMsg{err: err}
		}
		return quizStartedMsg{session: s, sink: sink, events: buf}
	}
}

func (m model) restartCmd() tea.Cmd {
	ctx, sink := m.ctx, m.sink
	return func() tea.Msg {
		return quizRestartedMsg{err: sink.Restart(ctx)}
	}
}

func (m model) quizToggleCmd(command, binding string, enabled bool) tea.Cmd {
	ctx, svc := m.ctx, m.svc.Shortcuts
	return func() tea.Msg {
		return quizKeyToggledMsg{binding: binding, enabled: enabled, err: svc.SetKeybindingEnabled(ctx, command, binding, enabled)}
	}
}

func (m model) quizStarCmd(command string, enabled bool) tea.Cmd {
	ctx, svc := m.ctx, m.svc.Shortcuts
	return func() tea.Msg {
		return quizStarredMsg{enabled: enabled, err: svc.Star(ctx, command, enabled)}
	}
}

func (m model) handleQuizStarted(msg quizStartedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if errors.Is(msg.err, quiz.ErrNoQuestions) {
			m.setError("Nothing to quiz: star some shortcuts first.")
		} else {
			m.setError(fmt.Sprintf("Quiz failed to start: %v", msg.err))
		}
		m.opts.StartQuiz = false
		return m, nil
	}
	if m.session != nil {
		m.session.Dispose()
	}
	m.session, m.sink, m.events = msg.session, msg.sink, msg.events
	m.screen = screenQuiz
	m.menu = false
	m.resetQuestionState()
	m.setStatus("")
	cmd := m.drainEvents()
	return m, cmd
}

func (m *model) resetQuestionState() {
	m.answerCursor = 0
	m.keyOverrides = make(map[string]bool)
	m.starOverride = nil
}

// drainEvents turns buffered session events into commands: every answer is
// recorded in the store.
func (m *model) drainEvents() tea.Cmd {
	if m.events == nil {
		return nil
	}
	var cmds []tea.Cmd
	for _, e := range m.events.drain() {
		switch e := e.(type) {
		case quiz.EventAnswered:
			m.pending++
			cmds = append(cmds, m.recordAnswerCmd(e.Command, e.Correct))
		case quiz.EventStateChanged:
			m.menu = false
			m.resetQuestionState()
		}
	}
	return tea.Batch(cmds...)
}

func (m model) leaveQuiz() (tea.Model, tea.Cmd) {
	if m.session != nil {
		m.session.Dispose()
	}
	m.session, m.sink, m.events = nil, nil, nil
	m.screen = screenTree
	m.menu = false
	if m.opts.StartQuiz {
		if m.pending > 0 {
			m.quitting = true
			return m, nil
		}
		return m, tea.Quit
	}
	return m, m.loadTableCmd()
}

func (m model) quizScope() string {
	if m.session == nil {
		return scopeQuizInput
	}
	switch m.session.View().State {
	case quiz.StateRevealed:
		return scopeQuizRevealed
	case quiz.StateComplete:
		return scopeQuizComplete
	}
	if m.menu {
		return scopeQuizMenu
	}
	return scopeQuizInput
}

func (m model) updateQuiz(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.sink == nil {
		return m, nil
	}
	name := msg.String()
	v := m.session.View()
	switch v.State {
	case quiz.StateAwaitingInput:
		if m.menu {
			return m.updateQuizMenu(name)
		}
		if m.keys.Is(name, scopeQuizInput, actionMenu) {
			m.menu = true
			return m, nil
		}
		return m.answerKey(msg)
	case quiz.StateRevealed:
		return m.updateRevealed(name, v)
	case quiz.StateComplete:
		b := m.keys.Lookup(name, scopeQuizComplete)
		if b == nil {
			return m, nil
		}
		switch b.Action {
		case actionRestart:
			return m, m.restartCmd()
		case actionBack, actionQuit:
			return m.leaveQuiz()
		}
	default:
		if m.keys.Is(name, scopeGlobal, actionQuit) {
			return m.leaveQuiz()
		}
	}
	return m, nil
}

// answerKey feeds a key press to the session. Since terminals never report
// releases, a release is synthesized once no key has arrived for a while.
func (m model) answerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ev, ok := keyEventFor(msg)
	if !ok {
		return m, nil
	}
	m.keySeq++
	m.lastKey = ev
	if err := m.sink.KeyDown(ev); err != nil {
		m.setError(err.Error())
	}
	cmd := m.drainEvents()
	return m, tea.Batch(cmd, releaseCmd(m.releaseAfter, m.keySeq))
}

func (m model) updateQuizMenu(name string) (tea.Model, tea.Cmd) {
	b := m.keys.Lookup(name, scopeQuizMenu)
	if b == nil {
		return m, nil
	}
	var err error
	switch b.Action {
	case actionReveal:
		err = m.sink.Reveal()
	case actionPrevious:
		err = m.sink.Previous()
	case actionRestart:
		m.menu = false
		return m, m.restartCmd()
	case actionBack:
	case actionQuit:
		return m.leaveQuiz()
	}
	m.menu = false
	if err != nil {
		m.setError(err.Error())
	}
	cmd := m.drainEvents()
	return m, cmd
}

func (m model) updateRevealed(name string, v quiz.View) (tea.Model, tea.Cmd) {
	b := m.keys.Lookup(name, scopeQuizRevealed)
	if b == nil || v.Question == nil {
		return m, nil
	}
	q := v.Question
	var err error
	switch b.Action {
	case actionNext:
		err = m.sink.Next()
	case actionPrevious:
		err = m.sink.Previous()
	case actionUp:
		if m.answerCursor > 0 {
			m.answerCursor--
		}
	case actionDown:
		if m.answerCursor < len(q.Answers)-1 {
			m.answerCursor++
		}
	case actionToggle:
		if m.answerCursor >= len(q.Answers) {
			break
		}
		a := q.Answers[m.answerCursor]
		if !a.DisablingPossible {
			m.setError(fmt.Sprintf("%s is the only keybinding of %s.", a.Binding, q.Command))
			break
		}
		return m, m.quizToggleCmd(q.Command, a.Binding, !m.answerEnabled(a))
	case actionStar:
		return m, m.quizStarCmd(q.Command, !m.questionStarred(q))
	case actionRestart:
		return m, m.restartCmd()
	case actionBack, actionQuit:
		return m.leaveQuiz()
	}
	if err != nil {
		m.setError(err.Error())
	}
	cmd := m.drainEvents()
	return m, cmd
}

func (m model) answerEnabled(a quiz.Answer) bool {
	if on, ok := m.keyOverrides[a.Binding]; ok {
		return on
	}
	return a.Enabled
}

func (m model) questionStarred(q *quiz.Question) bool {
	if m.starOverride != nil {
		return *m.starOverride
	}
	return q.Enabled
}

// ---------------------------------------------------------------------------
// Rendering
// ---------------------------------------------------------------------------

func stepLabel(s quiz.Step) string {
	parts := append([]string(nil), s.ModifierDisplay...)
	base := s.Display
	if base == "" {
		base = s.Key
	}
	return strings.Join(append(parts, base), "+")
}

func stepsLabel(steps []quiz.Step) string {
	labels := make([]string, len(steps))
	for i, s := range steps {
		labels[i] = stepLabel(s)
	}
	return strings.Join(labels, " ")
}

func (m model) quizView() string {
	if m.session == nil {
		return mutedStyle.Render("Loading questions...")
	}
	v := m.session.View()
	switch v.State {
	case quiz.StateLoading:
		return mutedStyle.Render("Loading questions...")
	case quiz.StateComplete:
		return titleStyle.Render("Quiz complete") + "\n\n" +
			questionStyle.Render(fmt.Sprintf("%d of %d correct", v.Correct, v.Total))
	}
	q := v.Question
	if q == nil {
		return ""
	}

	lines := []string{
		titleStyle.Render(fmt.Sprintf("Question %d of %d", v.Index+1, v.Total)) + "  " +
			mutedStyle.Render(fmt.Sprintf("%d correct", v.Correct)),
		"",
		questionStyle.Render(q.Title),
		commandStyle.Render(q.Command),
		"",
	}
	if v.State == quiz.StateRevealed {
		return strings.Join(append(lines, m.revealedView(v)...), "\n")
	}

	if fb := feedbackView(v); fb != "" {
		lines = append(lines, fb)
	}
	if len(v.Pressed) > 0 {
		held := make([]string, len(v.Pressed))
		for i, p := range v.Pressed {
			held[i] = p.Key
		}
		lines = append(lines, heldStyle.Render("holding "+strings.Join(held, " ")))
	}
	if m.menu {
		lines = append(lines, "", menuStyle.Render("r reveal  p previous  R restart  q leave  esc keep answering"))
	} else {
		lines = append(lines, "", mutedStyle.Render("Press the shortcut. esc opens the menu."))
	}
	return strings.Join(lines, "\n")
}

func feedbackView(v quiz.View) string {
	switch v.Feedback {
	case quiz.FeedbackProgress:
		best := -1
		for i, c := range v.Cursors {
			if best < 0 || c > v.Cursors[best] {
				best = i
			}
		}
		if best < 0 {
			return ""
		}
		steps := v.Question.Alternatives[best].Steps[:v.Cursors[best]]
		caps := make([]string, 0, len(steps)+1)
		for _, s := range steps {
			caps = append(caps, doneKeycapStyle.Render(stepLabel(s)))
		}
		caps = append(caps, progressStyle.Render(" keep going"))
		return lipgloss.JoinHorizontal(lipgloss.Center, caps...)
	case quiz.FeedbackIncorrect:
		msg := "Wrong key"
		if v.MaxWrongTries > 0 {
			msg += fmt.Sprintf(" (%d of %d)", v.WrongTries, v.MaxWrongTries)
		}
		return wrongStyle.Render(msg)
	}
	return ""
}

func (m model) revealedView(v quiz.View) []string {
	q := v.Question
	var lines []string
	if v.Feedback == quiz.FeedbackCorrect {
		lines = append(lines, correctStyle.Render("Correct!"))
	} else {
		lines = append(lines, wrongStyle.Render("Not this time."))
	}
	lines = append(lines, "")

	matched := ""
	if v.Matched >= 0 && v.Matched < len(q.Alternatives) {
		matched = q.Alternatives[v.Matched].Binding
	}
	for i, a := range q.Answers {
		marker := "  "
		if i == m.answerCursor {
			marker = cursorStyle.Render("> ")
		}
		box := "[=]"
		switch {
		case !a.DisablingPossible:
			box = treeStyle().Locked.Render(box)
		case m.answerEnabled(a):
			box = treeStyle().On.Render("[x]")
		default:
			box = treeStyle().Off.Render("[ ]")
		}
		label := questionStyle.Render(stepsLabel(a.Steps))
		if a.Binding == matched {
			label = correctStyle.Render(stepsLabel(a.Steps))
		}
		line := marker + box + " " + label
		if len(a.Conditions) > 0 {
			line += mutedStyle.Render("  when " + strings.Join(a.Conditions, ", "))
		}
		lines = append(lines, line)
	}

	star := "not in the quiz pool (s to star)"
	if m.questionStarred(q) {
		star = "in the quiz pool (s to unstar)"
	}
	lines = append(lines, "", mutedStyle.Render("Command is "+star))

	if len(q.Related) > 0 {
		lines = append(lines, "", titleStyle.Render("Related shortcuts"))
		for _, r := range q.Related {
			bindings := make([]string, 0, len(r.Answers))
			for _, a := range r.Answers {
				bindings = append(bindings, stepsLabel(a.Steps))
			}
			lines = append(lines, "  "+questionStyle.Render(r.Title)+"  "+strings.Join(bindings, mutedStyle.Render(" or ")))
		}
	}
	return lines
}
