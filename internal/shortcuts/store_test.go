package shortcuts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func seededStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(NewMemoryKV())
	err := s.Update(context.Background(), func(Table) (Table, error) {
		return Table{"a.b": {
			Title:       "B",
			Keybindings: Keybindings{"ctrl+1": {Enabled: true}},
			Origins:     []string{"default"},
		}}, nil
	})
	require.NoError(t, err)
	return s
}

func TestStoreEmpty(t *testing.T) {
	t.Parallel()

	s := NewStore(NewMemoryKV())
	table, err := s.Table(context.Background())
	require.NoError(t, err)
	require.Empty(t, table)

	rules, err := s.Rules(context.Background())
	require.NoError(t, err)
	require.Nil(t, rules)

	last, err := s.LastShown(context.Background())
	require.NoError(t, err)
	require.True(t, last.IsZero())
}

func TestStoreUpdateFailureKeepsTable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := seededStore(t)
	before, err := s.Table(ctx)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.Update(ctx, func(tbl Table) (Table, error) {
		delete(tbl, "a.b")
		return tbl, boom
	})
	require.ErrorIs(t, err, boom)

	err = s.Update(ctx, func(tbl Table) (Table, error) {
		tbl["a.b"].Keybindings = nil
		panic("half-built table")
	})
	require.ErrorContains(t, err, "panicked")

	after, err := s.Table(ctx)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestStoreUpdateMutation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := seededStore(t)
	require.NoError(t, s.Update(ctx, func(tbl Table) (Table, error) {
		return tbl, tbl.AdjustScore("a.b", 1)
	}))

	table, err := s.Table(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, table["a.b"].LearningState)
	require.Nil(t, table["a.b"].Keybindings["ctrl+1"].Conditions)
}

func TestStoreRulesAndLastShown(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewStore(NewMemoryKV())
	rules := []PreselectionRule{{MainCommand: "a", RelatedCommands: []string{"b"}, PreferredConditions: []string{"editorFocus"}}}
	require.NoError(t, s.SetRules(ctx, rules))
	got, err := s.Rules(ctx)
	require.NoError(t, err)
	require.Equal(t, rules, got)

	now := time.UnixMilli(1_700_000_000_123)
	require.NoError(t, s.SetLastShown(ctx, now))
	last, err := s.LastShown(ctx)
	require.NoError(t, err)
	require.True(t, now.Equal(last))
}

func TestSetKeybindingEnabled(t *testing.T) {
	t.Parallel()

	table := Table{
		"x.y": {
			Keybindings: Keybindings{
				"ctrl+a": {Enabled: true, DisablingPossible: true, Conditions: []string{"editorFocus"}},
				"ctrl+b": {Enabled: true, DisablingPossible: true, Conditions: []string{"terminalFocus"}},
			},
		},
		"solo": {Keybindings: Keybindings{"ctrl+s": {Enabled: true}}},
	}

	require.NoError(t, table.SetKeybindingEnabled("x.y", "CTRL+A", false))
	require.ErrorIs(t, table.SetKeybindingEnabled("x.y", "ctrl+b", false), ErrLastEnabledKeybinding)
	require.NoError(t, table.SetKeybindingEnabled("x.y", "ctrl+a", true))
	require.ErrorIs(t, table.SetKeybindingEnabled("solo", "ctrl+s", false), ErrNotDisableable)
	require.ErrorIs(t, table.SetKeybindingEnabled("x.y", "ctrl+z", true), ErrUnknownKeybinding)
	require.ErrorIs(t, table.SetKeybindingEnabled("nope", "ctrl+a", true), ErrUnknownCommand)
	require.ErrorIs(t, table.SetEnabled("nope", true), ErrUnknownCommand)
	require.ErrorIs(t, table.AdjustScore("nope", 1), ErrUnknownCommand)
}
