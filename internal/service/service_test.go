package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap/zaptest"

	"github.com/jask/shortcutquiz/internal/database"
	"github.com/jask/shortcutquiz/internal/database/repository"
	"github.com/jask/shortcutquiz/internal/quiz"
	"github.com/jask/shortcutquiz/internal/shortcuts"
	"github.com/jask/shortcutquiz/internal/sources"
)

const testDefaults = `[
  {"command": "a.copy", "key": "ctrl+c"},
  {"command": "a.copy", "key": "ctrl+insert"},
  {"command": "a.paste", "key": "ctrl+v"},
  {"command": "a.cut", "key": "ctrl+x"}
]`

const testRules = `{"a.copy": {"relatedShortcuts": ["a.cut"]}}`

type harness struct {
	db        *sql.DB
	kv        *repository.KVRepo
	answers   *repository.AnswerRepo
	store     *shortcuts.Store
	reload    *ReloadService
	shortcuts *ShortcutService
	userFile  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	require.NoError(t, database.RunMigrations(dbPath))
	db, err := database.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	h := &harness{
		db:       db,
		kv:       repository.NewKVRepo(db),
		answers:  repository.NewAnswerRepo(db),
		userFile: filepath.Join(dir, "keybindings.json"),
	}
	h.store = shortcuts.NewStore(h.kv)
	log := zaptest.NewLogger(t)
	h.reload = &ReloadService{
		Store: h.store,
		Sources: []sources.Source{
			sources.DefaultSource{Data: []byte(testDefaults)},
			sources.ExtensionSource{Dir: filepath.Join(dir, "extensions")},
			sources.UserSource{Path: h.userFile},
		},
		Rules: func(context.Context) ([]shortcuts.PreselectionRule, error) {
			return sources.ParseRulesJSON([]byte(testRules))
		},
		Log: log,
	}
	h.shortcuts = NewShortcutService(h.store, h.answers, QuizSettings{
		Questions:     10,
		Policy:        quiz.PolicyLowestScore,
		MaxWrongTries: 3,
		Layout:        quiz.LayoutEN,
	}, log)
	h.shortcuts.Seed(1, 2)
	h.writeUser(t, "[]")
	return h
}

func (h *harness) writeUser(t *testing.T, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(h.userFile, []byte(content), 0o644))
}

func (h *harness) table(t *testing.T) shortcuts.Table {
	t.Helper()
	tbl, err := h.store.Table(context.Background())
	require.NoError(t, err)
	return tbl
}

func TestReloadLayersSources(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.writeUser(t, `[
  // move paste
  {"command": "-a.paste", "key": "ctrl+v"},
  {"command": "a.paste", "key": "shift+insert"},
]`)

	res, err := h.reload.Reload(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, res.Commands)
	require.Zero(t, res.Skipped)
	require.Empty(t, res.Warnings)
	require.Len(t, res.Sources, 3)
	require.Equal(t, 1, res.Sources[2].Removed)

	tbl := h.table(t)
	require.ElementsMatch(t, []string{"a.copy", "a.paste"}, tbl.Commands())
	require.True(t, tbl["a.copy"].Enabled)
	require.Contains(t, tbl["a.copy"].RelatedShortcuts, "a.cut")
	require.Equal(t, []string{"shift+insert"}, tbl["a.paste"].Keybindings.Keys())
	require.False(t, tbl["a.paste"].Enabled)

	rules, err := h.store.Rules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 1, "rules are cached in the store")
}

func TestReloadKeepsUserState(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	_, err := h.reload.Reload(ctx)
	require.NoError(t, err)
	require.NoError(t, h.shortcuts.Star(ctx, "a.paste", true))
	require.NoError(t, h.shortcuts.SetKeybindingEnabled(ctx, "a.copy", "Ctrl+C", false))
	require.NoError(t, h.shortcuts.RecordAnswer(ctx, "a.copy", true))

	_, err = h.reload.Reload(ctx)
	require.NoError(t, err)
	tbl := h.table(t)
	require.True(t, tbl["a.paste"].Enabled)
	require.False(t, tbl["a.copy"].Keybindings["ctrl+c"].Enabled)
	require.True(t, tbl["a.copy"].Keybindings["ctrl+insert"].Enabled)
	require.Equal(t, 1, tbl["a.copy"].LearningState)

	_, err = h.reload.ResetAndReload(ctx)
	require.NoError(t, err)
	tbl = h.table(t)
	require.False(t, tbl["a.paste"].Enabled)
	require.True(t, tbl["a.copy"].Keybindings["ctrl+c"].Enabled)
	require.Zero(t, tbl["a.copy"].LearningState)
}

func TestReloadFailureKeepsTable(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	_, err := h.reload.Reload(ctx)
	require.NoError(t, err)
	before := h.table(t)

	h.writeUser(t, `{"command": "a.paste"}`)
	_, err = h.reload.Reload(ctx)
	require.ErrorIs(t, err, sources.ErrMalformedSource)
	require.Equal(t, before.Commands(), h.table(t).Commands())
}

func TestReloadFailureKeepsCachedRules(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	_, err := h.reload.Reload(ctx)
	require.NoError(t, err)

	h.reload.Rules = func(context.Context) ([]shortcuts.PreselectionRule, error) {
		return []shortcuts.PreselectionRule{{MainCommand: "a.paste"}}, nil
	}
	h.writeUser(t, `{"command": "a.paste"}`)
	_, err = h.reload.Reload(ctx)
	require.ErrorIs(t, err, sources.ErrMalformedSource)

	rules, err := h.store.Rules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	require.Equal(t, "a.copy", rules[0].MainCommand)
}

func TestReloadFallsBackToCachedRules(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	_, err := h.reload.Reload(ctx)
	require.NoError(t, err)

	h.reload.Rules = func(context.Context) ([]shortcuts.PreselectionRule, error) {
		return nil, errors.New("rules file gone")
	}
	res, err := h.reload.Reload(ctx)
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	require.Contains(t, res.Warnings[0], "using cached rules")
	require.Contains(t, h.table(t)["a.copy"].RelatedShortcuts, "a.cut")
}

func TestReloadMissingUserFileWarns(t *testing.T) {
	h := newHarness(t)
	h.reload.Sources = append(h.reload.Sources, sources.UserSource{Path: filepath.Join(t.TempDir(), "nope.json")})

	res, err := h.reload.Reload(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	require.Contains(t, res.Warnings[0], "nope.json")
	require.Equal(t, 2, res.Commands)
}

func TestStarUnknownCommandSuggests(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	_, err := h.reload.Reload(ctx)
	require.NoError(t, err)

	err = h.shortcuts.Star(ctx, "a.cpy", true)
	require.ErrorIs(t, err, shortcuts.ErrUnknownCommand)
	require.ErrorContains(t, err, "did you mean a.copy")

	err = h.shortcuts.Star(ctx, "a.cut", true)
	require.ErrorIs(t, err, shortcuts.ErrUnknownCommand)
	require.ErrorContains(t, err, "grouped under a.copy")

	sug, err := h.shortcuts.Suggest(ctx, "a.past")
	require.NoError(t, err)
	require.Equal(t, "a.paste", sug[0])
}

func TestSetKeybindingEnabledKeepsOne(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	_, err := h.reload.Reload(ctx)
	require.NoError(t, err)

	require.NoError(t, h.shortcuts.SetKeybindingEnabled(ctx, "a.copy", "ctrl+c", false))
	err = h.shortcuts.SetKeybindingEnabled(ctx, "a.copy", "ctrl+insert", false)
	require.ErrorIs(t, err, shortcuts.ErrLastEnabledKeybinding)
	require.True(t, h.table(t)["a.copy"].Keybindings["ctrl+insert"].Enabled)
}

func TestRecordAnswerLogsHistory(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	_, err := h.reload.Reload(ctx)
	require.NoError(t, err)
	at := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	h.shortcuts.Now = func() time.Time { return at }

	require.NoError(t, h.shortcuts.RecordAnswer(ctx, "a.copy", false))
	require.NoError(t, h.shortcuts.RecordAnswer(ctx, "a.copy", false))
	require.NoError(t, h.shortcuts.RecordAnswer(ctx, "a.copy", true))
	require.Equal(t, -1, h.table(t)["a.copy"].LearningState)

	list, err := h.answers.ListByCommand(ctx, "a.copy")
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.True(t, list[0].AnsweredAt.Equal(at))

	require.ErrorIs(t, h.shortcuts.RecordAnswer(ctx, "a.nope", true), shortcuts.ErrUnknownCommand)
	list, err = h.answers.ListByCommand(ctx, "a.nope")
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestHandleMessage(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	_, err := h.reload.Reload(ctx)
	require.NoError(t, err)
	require.NoError(t, h.shortcuts.Star(ctx, "a.paste", true))

	replies, err := h.shortcuts.HandleMessage(ctx, quiz.Ready{})
	require.NoError(t, err)
	require.Len(t, replies, 1)
	start, ok := replies[0].(quiz.SetShortcuts)
	require.True(t, ok)
	require.Len(t, start.Shortcuts, 2)
	require.Equal(t, 3, start.MaxWrongTries)

	_, err = h.shortcuts.HandleMessage(ctx, quiz.ShortcutAnswer{Command: "a.paste", Correct: true})
	require.NoError(t, err)
	_, err = h.shortcuts.HandleMessage(ctx, quiz.UpdateKeybinding{Command: "a.copy", Key: "ctrl+insert", Enable: false})
	require.NoError(t, err)
	_, err = h.shortcuts.HandleMessage(ctx, quiz.UpdateKeybinding{Command: "a.paste", Enable: false})
	require.NoError(t, err)

	tbl := h.table(t)
	require.Equal(t, 1, tbl["a.paste"].LearningState)
	require.False(t, tbl["a.paste"].Enabled)
	require.False(t, tbl["a.copy"].Keybindings["ctrl+insert"].Enabled)

	replies, err = h.shortcuts.HandleMessage(ctx, quiz.OpenPlayground{})
	require.NoError(t, err)
	require.Equal(t, []quiz.Message{quiz.PlaygroundOpened{}}, replies)

	_, err = h.shortcuts.HandleMessage(ctx, quiz.SetShortcuts{})
	require.ErrorIs(t, err, quiz.ErrUnknownMessage)
}

func TestQuestionsFeedSession(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	_, err := h.reload.Reload(ctx)
	require.NoError(t, err)

	qs, err := h.shortcuts.Questions(ctx)
	require.NoError(t, err)
	require.Len(t, qs, 1)
	require.Equal(t, "a.copy", qs[0].Command)
	require.Len(t, qs[0].Related, 1)
}

func TestScheduler(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	s := &SchedulerService{Store: h.store, Interval: time.Hour}
	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)

	due, err := s.Due(ctx, now)
	require.NoError(t, err)
	require.True(t, due)

	require.NoError(t, s.MarkShown(ctx, now))
	due, err = s.Due(ctx, now.Add(30*time.Minute))
	require.NoError(t, err)
	require.False(t, due)
	due, err = s.Due(ctx, now.Add(time.Hour))
	require.NoError(t, err)
	require.True(t, due)
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	_, err := h.reload.Reload(ctx)
	require.NoError(t, err)
	require.NoError(t, h.store.SetLastShown(ctx, time.UnixMilli(1700000000000)))
	exp := &ExportService{KV: h.kv}

	var buf bytes.Buffer
	require.NoError(t, exp.Export(ctx, &buf, "json"))
	doc := gjson.ParseBytes(buf.Bytes())
	require.True(t, doc.Get("shortcuts.a\\.copy.enabled").Bool())
	require.EqualValues(t, 1700000000000, doc.Get("lastShownTimestamp").Int())
	require.Equal(t, "a.copy", doc.Get("preselectionRules.0.mainCommand").String())

	buf.Reset()
	require.NoError(t, exp.Export(ctx, &buf, "yaml"))
	require.Contains(t, buf.String(), "shortcuts:")
	require.Contains(t, buf.String(), "a.copy:")

	require.Error(t, exp.Export(ctx, &buf, "xml"))
}

func TestMaintenanceReset(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	_, err := h.reload.Reload(ctx)
	require.NoError(t, err)
	require.NoError(t, h.shortcuts.RecordAnswer(ctx, "a.copy", true))

	m := &MaintenanceService{DB: h.db}
	require.NoError(t, m.Reset(ctx))
	require.Empty(t, h.table(t))
	stats, err := h.answers.Stats(ctx)
	require.NoError(t, err)
	require.Empty(t, stats)
}
