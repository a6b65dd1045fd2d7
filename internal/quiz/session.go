package quiz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	ErrDisposed    = errors.New("quiz session disposed")
	ErrNoQuestions = errors.New("no questions to ask")
)

type State int

const (
	StateLoading State = iota
	StateAwaitingInput
	StateRevealed
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAwaitingInput:
		return "awaiting_input"
	case StateRevealed:
		return "revealed"
	case StateComplete:
		return "complete"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// KeyEvent is one physical key transition. Key is the produced character or
// key name, Code the physical key ("keya", "digit1", "arrowup").
type KeyEvent struct {
	Key   string
	Code  string
	Ctrl  bool
	Shift bool
	Alt   bool
	Meta  bool
}

var modifierKeys = map[string]bool{"control": true, "shift": true, "alt": true, "meta": true}

// normalized lower-cases the event. A letter code whose key is not a letter
// (alt on some layouts) is reduced to the letter, and numpad keys only match
// by code.
func (e KeyEvent) normalized() KeyEvent {
	e.Key = strings.ToLower(e.Key)
	e.Code = strings.ToLower(e.Code)
	if strings.HasPrefix(e.Code, "key") && !containsLetter(e.Key) {
		e.Code = strings.TrimPrefix(e.Code, "key")
	}
	if strings.HasPrefix(e.Code, "numpad") {
		e.Key = ""
	}
	return e
}

func containsLetter(s string) bool {
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			return true
		}
	}
	return false
}

func (e KeyEvent) modifierOnly() bool {
	return modifierKeys[e.Key]
}

func (e KeyEvent) fingerprint() string {
	return fmt.Sprintf("%s|%s|%t%t%t%t", e.Key, e.Code, e.Ctrl, e.Shift, e.Alt, e.Meta)
}

// PressedKey is a key currently held down.
type PressedKey struct {
	Key  string
	Code string
}

// Active reports whether the held key shows as key (a key name or code).
func (p PressedKey) Active(key string) bool {
	return key != "" && (p.Key == key || p.Code == key)
}

// Event is emitted to the session observer.
type Event interface{ isEvent() }

// EventAnswered is the scoring event: +1 when Correct, -1 otherwise.
type EventAnswered struct {
	Command string
	Correct bool
}

// EventProgress reports that at least one alternative advanced.
type EventProgress struct {
	Cursors []int
}

// EventIncorrect reports a rejected key. Repeated is set for a held-down
// key that was not counted again.
type EventIncorrect struct {
	WrongTries int
	Repeated   bool
}

type EventStateChanged struct {
	From, To State
	Index    int
}

func (EventAnswered) isEvent()     {}
func (EventProgress) isEvent()     {}
func (EventIncorrect) isEvent()    {}
func (EventStateChanged) isEvent() {}

// Feedback is the last match outcome of the current question.
type Feedback int

const (
	FeedbackNone Feedback = iota
	FeedbackProgress
	FeedbackIncorrect
	FeedbackCorrect
)

// QuestionSource produces a fresh question set; it is called on Start and on
// every Restart.
type QuestionSource func(ctx context.Context) ([]Question, error)

type Options struct {
	Questions QuestionSource
	// MaxWrongTries force-reveals after that many counted wrong keys; zero or
	// less means no ceiling.
	MaxWrongTries int
	Observer      func(Event)
}

// View is a copy of the session state for rendering.
type View struct {
	State         State
	Index         int
	Total         int
	Question      *Question
	Cursors       []int
	WrongTries    int
	MaxWrongTries int
	Correct       int
	// Matched is the index of the alternative that completed, or -1.
	Matched  int
	Feedback Feedback
	Pressed  []PressedKey
}

// Session is one quiz run. Input arrives through the Sink returned by Start;
// the session stops accepting input after Dispose.
type Session struct {
	opts Options

	mu           sync.Mutex
	state        State
	questions    []Question
	index        int
	cursors      []int
	wrongTries   int
	lastRejected string
	matched      int
	correct      int
	feedback     Feedback
	pressed      []PressedKey
	sink         *Sink
	disposed     bool
}

func NewSession(opts Options) *Session {
	return &Session{opts: opts, state: StateLoading, matched: -1}
}

// Sink is the input side of a started session.
type Sink struct {
	s *Session
}

// Start loads the question set and moves to the first question. Calling it
// again returns the same sink.
func (s *Session) Start(ctx context.Context) (*Sink, error) {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return nil, ErrDisposed
	}
	if s.sink != nil {
		sink := s.sink
		s.mu.Unlock()
		return sink, nil
	}
	s.mu.Unlock()

	qs, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	var events []Event
	if s.disposed {
		s.mu.Unlock()
		return nil, ErrDisposed
	}
	s.questions = qs
	s.correct = 0
	s.sink = &Sink{s: s}
	events = s.enterQuestion(0, events)
	sink := s.sink
	s.mu.Unlock()
	s.emit(events)
	return sink, nil
}

func (s *Session) load(ctx context.Context) ([]Question, error) {
	if s.opts.Questions == nil {
		return nil, ErrNoQuestions
	}
	qs, err := s.opts.Questions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	var usable []Question
	for _, q := range qs {
		if len(q.Alternatives) > 0 {
			usable = append(usable, q)
		}
	}
	if len(usable) == 0 {
		return nil, ErrNoQuestions
	}
	return usable, nil
}

// Dispose ends the session. Further sink calls return ErrDisposed.
func (s *Session) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disposed = true
	s.pressed = nil
}

// View returns a snapshot of the current state.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{
		State:         s.state,
		Index:         s.index,
		Total:         len(s.questions),
		Cursors:       append([]int(nil), s.cursors...),
		WrongTries:    s.wrongTries,
		MaxWrongTries: s.opts.MaxWrongTries,
		Correct:       s.correct,
		Matched:       s.matched,
		Feedback:      s.feedback,
		Pressed:       append([]PressedKey(nil), s.pressed...),
	}
	if s.index < len(s.questions) {
		q := s.questions[s.index]
		v.Question = &q
	}
	return v
}

func (s *Session) emit(events []Event) {
	if s.opts.Observer == nil {
		return
	}
	for _, e := range events {
		s.opts.Observer(e)
	}
}

func (s *Session) setState(to State, events []Event) []Event {
	if s.state == to {
		return events
	}
	from := s.state
	s.state = to
	return append(events, EventStateChanged{From: from, To: to, Index: s.index})
}

// enterQuestion resets per-question progress and awaits input on question i.
func (s *Session) enterQuestion(i int, events []Event) []Event {
	s.index = i
	s.cursors = make([]int, len(s.questions[i].Alternatives))
	s.wrongTries = 0
	s.lastRejected = ""
	s.matched = -1
	s.feedback = FeedbackNone
	if s.state == StateAwaitingInput {
		// moving between questions without leaving the state still notifies
		return append(events, EventStateChanged{From: StateAwaitingInput, To: StateAwaitingInput, Index: i})
	}
	return s.setState(StateAwaitingInput, events)
}

func (s *Session) reveal(correct bool, events []Event) []Event {
	q := s.questions[s.index]
	if correct {
		s.correct++
		s.feedback = FeedbackCorrect
	}
	events = s.setState(StateRevealed, events)
	return append(events, EventAnswered{Command: q.Command, Correct: correct})
}

func (s *Session) press(e KeyEvent) {
	for _, p := range s.pressed {
		if p.Key == e.Key && p.Code == e.Code {
			return
		}
	}
	s.pressed = append(s.pressed, PressedKey{Key: e.Key, Code: e.Code})
}

// run executes fn under the session lock and emits what it produced.
func (k *Sink) run(fn func(s *Session, events []Event) ([]Event, error)) error {
	s := k.s
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	events, err := fn(s, nil)
	s.mu.Unlock()
	s.emit(events)
	return err
}

// KeyDown feeds a key press.
func (k *Sink) KeyDown(e KeyEvent) error {
	e = e.normalized()
	return k.run(func(s *Session, events []Event) ([]Event, error) {
		s.press(e)
		switch s.state {
		case StateRevealed:
			if e.Key == "enter" && e.Ctrl && !e.Shift && !e.Alt && !e.Meta {
				return s.next(events), nil
			}
			return events, nil
		case StateAwaitingInput:
		default:
			return events, nil
		}
		if e.modifierOnly() {
			return events, nil
		}
		return s.match(e, events), nil
	})
}

func (s *Session) match(e KeyEvent, events []Event) []Event {
	alts := s.questions[s.index].Alternatives
	advanced := false
	for i, alt := range alts {
		if alt.Steps[s.cursors[i]].matches(e) {
			s.cursors[i]++
			advanced = true
		} else {
			s.cursors[i] = 0
		}
	}

	if advanced {
		s.lastRejected = ""
		for i, alt := range alts {
			if s.cursors[i] >= len(alt.Steps) {
				s.matched = i
				return s.reveal(true, events)
			}
		}
		s.feedback = FeedbackProgress
		return append(events, EventProgress{Cursors: append([]int(nil), s.cursors...)})
	}

	s.feedback = FeedbackIncorrect
	fp := e.fingerprint()
	if fp == s.lastRejected {
		return append(events, EventIncorrect{WrongTries: s.wrongTries, Repeated: true})
	}
	s.lastRejected = fp
	s.wrongTries++
	events = append(events, EventIncorrect{WrongTries: s.wrongTries})
	if s.opts.MaxWrongTries > 0 && s.wrongTries >= s.opts.MaxWrongTries {
		return s.reveal(false, events)
	}
	return events
}

// KeyUp feeds a key release. Releasing the last rejected key lets the same
// wrong key count again.
func (k *Sink) KeyUp(e KeyEvent) error {
	e = e.normalized()
	return k.run(func(s *Session, events []Event) ([]Event, error) {
		for i, p := range s.pressed {
			if p.Key == e.Key && p.Code == e.Code {
				s.pressed = append(s.pressed[:i], s.pressed[i+1:]...)
				break
			}
		}
		if s.lastRejected != "" && strings.HasPrefix(s.lastRejected, e.Key+"|"+e.Code+"|") {
			s.lastRejected = ""
		}
		return events, nil
	})
}

// ReleaseAll clears the held-key set, for hosts that never see key releases.
func (k *Sink) ReleaseAll() error {
	return k.run(func(s *Session, events []Event) ([]Event, error) {
		s.pressed = nil
		return events, nil
	})
}

// Reveal gives up on the current question.
func (k *Sink) Reveal() error {
	return k.run(func(s *Session, events []Event) ([]Event, error) {
		if s.state != StateAwaitingInput {
			return events, nil
		}
		return s.reveal(false, events), nil
	})
}

// Next advances from a revealed question, completing the quiz after the last.
func (k *Sink) Next() error {
	return k.run(func(s *Session, events []Event) ([]Event, error) {
		if s.state != StateRevealed {
			return events, nil
		}
		return s.next(events), nil
	})
}

func (s *Session) next(events []Event) []Event {
	if s.index+1 >= len(s.questions) {
		return s.setState(StateComplete, events)
	}
	return s.enterQuestion(s.index+1, events)
}

// Previous returns to the previous question; a no-op on the first.
func (k *Sink) Previous() error {
	return k.run(func(s *Session, events []Event) ([]Event, error) {
		if s.state != StateAwaitingInput && s.state != StateRevealed {
			return events, nil
		}
		if s.index == 0 {
			return events, nil
		}
		return s.enterQuestion(s.index-1, events), nil
	})
}

// Restart selects a fresh question set and starts over with the correct
// count reset.
func (k *Sink) Restart(ctx context.Context) error {
	s := k.s
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	events := s.setState(StateLoading, nil)
	s.mu.Unlock()
	s.emit(events)

	qs, err := s.load(ctx)

	return k.run(func(s *Session, events []Event) ([]Event, error) {
		if err != nil {
			// keep the old set so the session stays usable
			if len(s.questions) == 0 {
				return events, err
			}
			s.correct = 0
			return s.enterQuestion(0, events), err
		}
		s.questions = qs
		s.correct = 0
		return s.enterQuestion(0, events), nil
	})
}
