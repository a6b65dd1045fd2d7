package quiz

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) observe(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) answers() []EventAnswered {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []EventAnswered
	for _, e := range r.events {
		if a, ok := e.(EventAnswered); ok {
			out = append(out, a)
		}
	}
	return out
}

func question(command string, bindings ...string) Question {
	q := Question{Command: command, Title: command, Enabled: true}
	for _, b := range bindings {
		steps := BuildSteps(b, nil, LayoutEN)
		q.Alternatives = append(q.Alternatives, Alternative{Binding: b, Steps: steps})
		q.Answers = append(q.Answers, Answer{Binding: b, Enabled: true, Steps: steps})
	}
	return q
}

func fixed(qs ...Question) QuestionSource {
	return func(context.Context) ([]Question, error) { return qs, nil }
}

func start(t *testing.T, maxWrong int, qs ...Question) (*Session, *Sink, *recorder) {
	t.Helper()
	rec := &recorder{}
	s := NewSession(Options{Questions: fixed(qs...), MaxWrongTries: maxWrong, Observer: rec.observe})
	sink, err := s.Start(context.Background())
	require.NoError(t, err)
	require.Equal(t, StateAwaitingInput, s.View().State)
	return s, sink, rec
}

func ctrl(key string) KeyEvent {
	return KeyEvent{Key: key, Code: "key" + key, Ctrl: true}
}

func TestChordSequenceWithRelease(t *testing.T) {
	t.Parallel()

	s, sink, rec := start(t, 10, question("workbench.action.openGlobalKeybindings", "ctrl+k ctrl+s"))

	require.NoError(t, sink.KeyDown(KeyEvent{Key: "Control", Code: "ControlLeft", Ctrl: true}))
	require.NoError(t, sink.KeyDown(ctrl("k")))
	require.Equal(t, []int{1}, s.View().Cursors)
	require.Equal(t, FeedbackProgress, s.View().Feedback)
	require.NoError(t, sink.KeyUp(ctrl("k")))
	require.NoError(t, sink.KeyDown(ctrl("s")))

	v := s.View()
	require.Equal(t, StateRevealed, v.State)
	require.Equal(t, 0, v.Matched)
	require.Equal(t, 1, v.Correct)
	require.Equal(t, []EventAnswered{{Command: "workbench.action.openGlobalKeybindings", Correct: true}}, rec.answers())
}

func TestAlternativesRaceIndependently(t *testing.T) {
	t.Parallel()

	s, sink, rec := start(t, 10, question("x", "ctrl+k", "ctrl+j"))

	require.NoError(t, sink.KeyDown(ctrl("j")))
	v := s.View()
	require.Equal(t, StateRevealed, v.State)
	require.Equal(t, 1, v.Matched)
	require.Equal(t, []int{0, 1}, v.Cursors)
	require.Equal(t, []EventAnswered{{Command: "x", Correct: true}}, rec.answers())
}

func TestPartialProgressOnOneAlternative(t *testing.T) {
	t.Parallel()

	s, sink, _ := start(t, 10, question("x", "ctrl+k ctrl+s", "ctrl+shift+s"))

	require.NoError(t, sink.KeyDown(ctrl("k")))
	require.Equal(t, []int{1, 0}, s.View().Cursors)

	require.NoError(t, sink.KeyDown(KeyEvent{Key: "S", Code: "KeyS", Ctrl: true, Shift: true}))
	v := s.View()
	require.Equal(t, StateRevealed, v.State)
	require.Equal(t, 1, v.Matched)
}

func TestExactModifiers(t *testing.T) {
	t.Parallel()

	s, sink, _ := start(t, 10, question("x", "ctrl+k"))

	require.NoError(t, sink.KeyDown(KeyEvent{Key: "k", Code: "KeyK", Ctrl: true, Shift: true}))
	require.Equal(t, StateAwaitingInput, s.View().State)
	require.Equal(t, 1, s.View().WrongTries)

	require.NoError(t, sink.KeyDown(KeyEvent{Key: "k", Code: "KeyK"}))
	require.Equal(t, 2, s.View().WrongTries)
}

func TestWrongTryCeiling(t *testing.T) {
	t.Parallel()

	s, sink, rec := start(t, 3, question("x", "ctrl+k"))

	require.NoError(t, sink.KeyDown(ctrl("a")))
	require.NoError(t, sink.KeyDown(ctrl("b")))
	require.Equal(t, StateAwaitingInput, s.View().State)
	require.NoError(t, sink.KeyDown(ctrl("c")))

	v := s.View()
	require.Equal(t, StateRevealed, v.State)
	require.Equal(t, 3, v.WrongTries)
	require.Equal(t, 0, v.Correct)
	require.Equal(t, -1, v.Matched)
	require.Equal(t, []EventAnswered{{Command: "x", Correct: false}}, rec.answers())
}

func TestHeldKeyNotCountedTwice(t *testing.T) {
	t.Parallel()

	s, sink, _ := start(t, 3, question("x", "ctrl+k"))

	for i := 0; i < 5; i++ {
		require.NoError(t, sink.KeyDown(ctrl("a")))
	}
	require.Equal(t, 1, s.View().WrongTries)
	require.Equal(t, StateAwaitingInput, s.View().State)

	// releasing the key lets the same mistake count again
	require.NoError(t, sink.KeyUp(ctrl("a")))
	require.NoError(t, sink.KeyDown(ctrl("a")))
	require.Equal(t, 2, s.View().WrongTries)
}

func TestModifierOnlyIgnored(t *testing.T) {
	t.Parallel()

	s, sink, _ := start(t, 1, question("x", "ctrl+k"))

	require.NoError(t, sink.KeyDown(KeyEvent{Key: "Shift", Code: "ShiftLeft", Shift: true}))
	require.NoError(t, sink.KeyDown(KeyEvent{Key: "Meta", Code: "MetaLeft", Meta: true}))
	v := s.View()
	require.Equal(t, StateAwaitingInput, v.State)
	require.Zero(t, v.WrongTries)
	require.Len(t, v.Pressed, 2)
	require.True(t, v.Pressed[0].Active("shift"))

	require.NoError(t, sink.ReleaseAll())
	require.Empty(t, s.View().Pressed)
}

func TestUnlimitedWrongTries(t *testing.T) {
	t.Parallel()

	s, sink, _ := start(t, 0, question("x", "ctrl+k"))
	for _, k := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "l", "m"} {
		require.NoError(t, sink.KeyDown(ctrl(k)))
	}
	require.Equal(t, StateAwaitingInput, s.View().State)
	require.Equal(t, 12, s.View().WrongTries)
}

func TestMatchByCode(t *testing.T) {
	t.Parallel()

	s, sink, _ := start(t, 10, question("x", "ctrl+shift+1", "alt+up"))

	// shift+1 produces "!" but the physical code still matches
	require.NoError(t, sink.KeyDown(KeyEvent{Key: "!", Code: "Digit1", Ctrl: true, Shift: true}))
	require.Equal(t, StateAwaitingInput, s.View().State)

	qs := []Question{{
		Command: "y",
		Alternatives: []Alternative{{Binding: "ctrl+shift+1", Steps: BuildSteps("ctrl+shift+1", KeyMappings{"1": {KeyCode: "Digit1"}}, LayoutEN)}},
	}}
	s2 := NewSession(Options{Questions: fixed(qs...), MaxWrongTries: 3})
	sink2, err := s2.Start(context.Background())
	require.NoError(t, err)
	require.NoError(t, sink2.KeyDown(KeyEvent{Key: "!", Code: "Digit1", Ctrl: true, Shift: true}))
	require.Equal(t, StateRevealed, s2.View().State)
}

func TestAltLetterMatchesByCode(t *testing.T) {
	t.Parallel()

	s, sink, _ := start(t, 10, question("x", "alt+f"))
	// option+f on a mac produces "ƒ"
	require.NoError(t, sink.KeyDown(KeyEvent{Key: "ƒ", Code: "KeyF", Alt: true}))
	require.Equal(t, StateRevealed, s.View().State)
}

func TestRevealAndNavigation(t *testing.T) {
	t.Parallel()

	s, sink, rec := start(t, 10, question("one", "ctrl+1"), question("two", "ctrl+2"))

	require.NoError(t, sink.Next())
	require.Equal(t, 0, s.View().Index, "next needs a revealed answer")

	require.NoError(t, sink.Reveal())
	require.Equal(t, StateRevealed, s.View().State)
	require.NoError(t, sink.Reveal())
	require.Len(t, rec.answers(), 1, "reveal only scores once")

	require.NoError(t, sink.KeyDown(KeyEvent{Key: "Enter", Code: "Enter", Ctrl: true}))
	v := s.View()
	require.Equal(t, StateAwaitingInput, v.State)
	require.Equal(t, 1, v.Index)
	require.Equal(t, "two", v.Question.Command)

	require.NoError(t, sink.KeyDown(ctrl("9")))
	require.Equal(t, 1, s.View().WrongTries)
	require.NoError(t, sink.Previous())
	v = s.View()
	require.Equal(t, 0, v.Index)
	require.Zero(t, v.WrongTries)
	require.NoError(t, sink.Previous())
	require.Equal(t, 0, s.View().Index)

	require.NoError(t, sink.Reveal())
	require.NoError(t, sink.Next())
	require.NoError(t, sink.KeyDown(KeyEvent{Key: "2", Code: "Digit2", Ctrl: true}))
	require.Equal(t, StateRevealed, s.View().State)
	require.NoError(t, sink.Next())
	require.Equal(t, StateComplete, s.View().State)
	require.Equal(t, 1, s.View().Correct)
}

func TestRestartReselects(t *testing.T) {
	t.Parallel()

	calls := 0
	src := func(context.Context) ([]Question, error) {
		calls++
		if calls == 1 {
			return []Question{question("first", "ctrl+1")}, nil
		}
		return []Question{question("second", "ctrl+2")}, nil
	}
	s := NewSession(Options{Questions: src, MaxWrongTries: 10})
	sink, err := s.Start(context.Background())
	require.NoError(t, err)
	require.NoError(t, sink.KeyDown(KeyEvent{Key: "1", Code: "Digit1", Ctrl: true}))
	require.NoError(t, sink.Next())
	require.Equal(t, StateComplete, s.View().State)
	require.Equal(t, 1, s.View().Correct)

	require.NoError(t, sink.Restart(context.Background()))
	v := s.View()
	require.Equal(t, StateAwaitingInput, v.State)
	require.Equal(t, 0, v.Correct)
	require.Equal(t, "second", v.Question.Command)
	require.Equal(t, 2, calls)
}

func TestRestartFailureKeepsQuestions(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	calls := 0
	src := func(context.Context) ([]Question, error) {
		calls++
		if calls > 1 {
			return nil, boom
		}
		return []Question{question("only", "ctrl+1")}, nil
	}
	s := NewSession(Options{Questions: src})
	sink, err := s.Start(context.Background())
	require.NoError(t, err)
	require.ErrorIs(t, sink.Restart(context.Background()), boom)
	require.Equal(t, StateAwaitingInput, s.View().State)
	require.Equal(t, "only", s.View().Question.Command)
}

func TestStartWithoutQuestions(t *testing.T) {
	t.Parallel()

	s := NewSession(Options{Questions: fixed(Question{Command: "nothing"})})
	_, err := s.Start(context.Background())
	require.ErrorIs(t, err, ErrNoQuestions)
	require.Equal(t, StateLoading, s.View().State)
}

func TestDispose(t *testing.T) {
	t.Parallel()

	s, sink, _ := start(t, 10, question("x", "ctrl+k"))
	again, err := s.Start(context.Background())
	require.NoError(t, err)
	require.Same(t, sink, again)

	s.Dispose()
	require.ErrorIs(t, sink.KeyDown(ctrl("k")), ErrDisposed)
	require.ErrorIs(t, sink.Next(), ErrDisposed)
	require.ErrorIs(t, sink.Restart(context.Background()), ErrDisposed)
	_, err = s.Start(context.Background())
	require.ErrorIs(t, err, ErrDisposed)
	require.Equal(t, StateAwaitingInput, s.View().State)
}

func TestStateChangeEvents(t *testing.T) {
	t.Parallel()

	_, sink, rec := start(t, 10, question("x", "ctrl+k"))
	require.NoError(t, sink.KeyDown(ctrl("k")))
	require.NoError(t, sink.Next())

	var changes []EventStateChanged
	for _, e := range rec.events {
		if c, ok := e.(EventStateChanged); ok {
			changes = append(changes, c)
		}
	}
	require.Equal(t, []EventStateChanged{
		{From: StateLoading, To: StateAwaitingInput, Index: 0},
		{From: StateAwaitingInput, To: StateRevealed, Index: 0},
		{From: StateRevealed, To: StateComplete, Index: 0},
	}, changes)
}
