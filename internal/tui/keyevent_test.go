package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/jask/shortcutquiz/internal/quiz"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestKeyEventFor(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		msg  tea.KeyMsg
		want quiz.KeyEvent
	}{
		{"letter", runes("a"), quiz.KeyEvent{Key: "a", Code: "KeyA"}},
		{"upper letter", runes("A"), quiz.KeyEvent{Key: "a", Code: "KeyA", Shift: true}},
		{"digit", runes("7"), quiz.KeyEvent{Key: "7", Code: "Digit7"}},
		{"shifted symbol", runes("?"), quiz.KeyEvent{Key: "?", Code: "Slash", Shift: true}},
		{"punctuation", runes("["), quiz.KeyEvent{Key: "[", Code: "BracketLeft"}},
		{"alt letter", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x"), Alt: true}, quiz.KeyEvent{Key: "x", Code: "KeyX", Alt: true}},
		{"ctrl letter", tea.KeyMsg{Type: tea.KeyCtrlS}, quiz.KeyEvent{Key: "s", Code: "KeyS", Ctrl: true}},
		{"ctrl backslash", tea.KeyMsg{Type: tea.KeyCtrlBackslash}, quiz.KeyEvent{Key: "\\", Code: "Backslash", Ctrl: true}},
		{"ctrl space", tea.KeyMsg{Type: tea.KeyCtrlAt}, quiz.KeyEvent{Key: " ", Code: "Space", Ctrl: true}},
		{"space", tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}, quiz.KeyEvent{Key: " ", Code: "Space"}},
		{"arrow", tea.KeyMsg{Type: tea.KeyUp}, quiz.KeyEvent{Key: "ArrowUp", Code: "ArrowUp"}},
		{"ctrl shift arrow", tea.KeyMsg{Type: tea.KeyCtrlShiftDown}, quiz.KeyEvent{Key: "ArrowDown", Code: "ArrowDown", Ctrl: true, Shift: true}},
		{"shift tab", tea.KeyMsg{Type: tea.KeyShiftTab}, quiz.KeyEvent{Key: "Tab", Code: "Tab", Shift: true}},
		{"function key", tea.KeyMsg{Type: tea.KeyF5}, quiz.KeyEvent{Key: "F5", Code: "F5"}},
		{"page down", tea.KeyMsg{Type: tea.KeyPgDown}, quiz.KeyEvent{Key: "PageDown", Code: "PageDown"}},
		{"escape", tea.KeyMsg{Type: tea.KeyEsc}, quiz.KeyEvent{Key: "Escape", Code: "Escape"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := keyEventFor(tc.msg)
			require.True(t, ok)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestKeyEventForRejectsPaste(t *testing.T) {
	t.Parallel()

	_, ok := keyEventFor(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hello"), Paste: true})
	require.False(t, ok)
	_, ok = keyEventFor(runes("ab"))
	require.False(t, ok)
}
