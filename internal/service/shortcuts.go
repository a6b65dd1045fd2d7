package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/agnivade/levenshtein"
	"go.uber.org/zap"

	"github.com/jask/shortcutquiz/internal/database/repository"
	"github.com/jask/shortcutquiz/internal/quiz"
	"github.com/jask/shortcutquiz/internal/shortcuts"
)

// QuizSettings is what a quiz run is built from.
type QuizSettings struct {
	Questions     int
	Policy        quiz.Policy
	MaxWrongTries int
	Layout        string
	KeyMappings   quiz.KeyMappings
	Debug         bool
}

// AnswerLog records quiz answers.
type AnswerLog interface {
	Insert(ctx context.Context, a repository.Answer) (repository.Answer, error)
}

// ShortcutService applies user actions to the stored table.
type ShortcutService struct {
	Store    *shortcuts.Store
	Answers  AnswerLog
	Settings QuizSettings
	Log      *zap.Logger
	Now      func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewShortcutService(store *shortcuts.Store, answers AnswerLog, settings QuizSettings, log *zap.Logger) *ShortcutService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ShortcutService{
		Store:    store,
		Answers:  answers,
		Settings: settings,
		Log:      log,
		Now:      time.Now,
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// Seed makes question selection deterministic.
func (s *ShortcutService) Seed(a, b uint64) {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	s.rng = rand.New(rand.NewPCG(a, b))
}

// Star adds a command to (or removes it from) the quiz pool.
func (s *ShortcutService) Star(ctx context.Context, command string, enabled bool) error {
	return s.update(ctx, command, func(t shortcuts.Table) error {
		return t.SetEnabled(command, enabled)
	})
}

// SetKeybindingEnabled toggles one keybinding of a command.
func (s *ShortcutService) SetKeybindingEnabled(ctx context.Context, command, key string, enabled bool) error {
	return s.update(ctx, command, func(t shortcuts.Table) error {
		return t.SetKeybindingEnabled(command, key, enabled)
	})
}

// RecordAnswer moves the learning state of command by one and logs the answer.
func (s *ShortcutService) RecordAnswer(ctx context.Context, command string, correct bool) error {
	delta := -1
	if correct {
		delta = 1
	}
	if err := s.update(ctx, command, func(t shortcuts.Table) error {
		return t.AdjustScore(command, delta)
	}); err != nil {
		return err
	}
	if s.Answers == nil {
		return nil
	}
	if _, err := s.Answers.Insert(ctx, repository.Answer{Command: command, Correct: correct, AnsweredAt: s.now()}); err != nil {
		return fmt.Errorf("log answer: %w", err)
	}
	return nil
}

func (s *ShortcutService) update(ctx context.Context, command string, fn func(shortcuts.Table) error) error {
	var hint error
	err := s.Store.Update(ctx, func(t shortcuts.Table) (shortcuts.Table, error) {
		if err := fn(t); err != nil {
			if errors.Is(err, shortcuts.ErrUnknownCommand) {
				hint = s.unknownHint(t, command)
			}
			return nil, err
		}
		return t, nil
	})
	if hint != nil {
		return fmt.Errorf("%w (%v)", err, hint)
	}
	return err
}

func (s *ShortcutService) unknownHint(t shortcuts.Table, command string) error {
	if head, ok := t.HeadOf(command); ok {
		return fmt.Errorf("grouped under %s", head)
	}
	if sug := suggest(t, command); len(sug) > 0 {
		return fmt.Errorf("did you mean %s?", strings.Join(sug, ", "))
	}
	return errors.New("no similar command")
}

// Suggest returns up to three known commands spelled close to command.
func (s *ShortcutService) Suggest(ctx context.Context, command string) ([]string, error) {
	t, err := s.Store.Table(ctx)
	if err != nil {
		return nil, err
	}
	return suggest(t, command), nil
}

func suggest(t shortcuts.Table, command string) []string {
	type candidate struct {
		name string
		dist int
	}
	limit := len(command) / 3
	if limit < 2 {
		limit = 2
	}
	var cands []candidate
	consider := func(name string) {
		d := levenshtein.ComputeDistance(strings.ToLower(command), strings.ToLower(name))
		if d <= limit {
			cands = append(cands, candidate{name, d})
		}
	}
	for c, sc := range t {
		consider(c)
		for rc := range sc.RelatedShortcuts {
			consider(rc)
		}
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].dist != cands[j].dist {
			return cands[i].dist < cands[j].dist
		}
		return cands[i].name < cands[j].name
	})
	var out []string
	for i := 0; i < len(cands) && i < 3; i++ {
		out = append(out, cands[i].name)
	}
	return out
}

// Questions selects and builds a fresh question set. It serves as the quiz
// session's question source.
func (s *ShortcutService) Questions(ctx context.Context) ([]quiz.Question, error) {
	t, err := s.Store.Table(ctx)
	if err != nil {
		return nil, err
	}
	cmds := s.selectCommands(t)
	return quiz.BuildQuestions(t, cmds, s.Settings.KeyMappings, s.Settings.Layout), nil
}

// StartMessage builds the session start message for a fresh selection.
func (s *ShortcutService) StartMessage(ctx context.Context) (quiz.SetShortcuts, error) {
	t, err := s.Store.Table(ctx)
	if err != nil {
		return quiz.SetShortcuts{}, err
	}
	msg := quiz.NewSetShortcuts(t, s.selectCommands(t), s.Settings.KeyMappings, s.Settings.Layout, s.Settings.MaxWrongTries)
	msg.Debug = s.Settings.Debug
	return msg, nil
}

func (s *ShortcutService) selectCommands(t shortcuts.Table) []string {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	policy := s.Settings.Policy
	if policy == "" {
		policy = quiz.PolicyLowestScore
	}
	return quiz.SelectCommands(t, s.Settings.Questions, policy, s.rng)
}

// HandleMessage applies a message from the quiz front end and returns the
// replies to send back.
func (s *ShortcutService) HandleMessage(ctx context.Context, m quiz.Message) ([]quiz.Message, error) {
	switch m := m.(type) {
	case quiz.Ready:
		start, err := s.StartMessage(ctx)
		if err != nil {
			return nil, err
		}
		return []quiz.Message{start}, nil
	case quiz.ShortcutAnswer:
		return nil, s.RecordAnswer(ctx, m.Command, m.Correct)
	case quiz.UpdateKeybinding:
		if m.Key == "" {
			return nil, s.Star(ctx, m.Command, m.Enable)
		}
		return nil, s.SetKeybindingEnabled(ctx, m.Command, m.Key, m.Enable)
	case quiz.OpenPlayground:
		return []quiz.Message{quiz.PlaygroundOpened{}}, nil
	case quiz.ClosePlayground:
		return []quiz.Message{quiz.PlaygroundClosed{}}, nil
	case quiz.Quit, quiz.PlaygroundOpened, quiz.PlaygroundClosed:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %s not accepted here", quiz.ErrUnknownMessage, m.Kind())
	}
}

func (s *ShortcutService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// Table returns the committed shortcut table.
func (s *ShortcutService) Table(ctx context.Context) (shortcuts.Table, error) {
	return s.Store.Table(ctx)
}
