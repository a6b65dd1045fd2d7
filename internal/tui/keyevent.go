package tui

import (
	"strings"
	"unicode"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/shortcutquiz/internal/quiz"
)

// punctuationCodes maps a US layout character to its physical key and
// whether shift produces it.
var punctuationCodes = map[rune]struct {
	code  string
	shift bool
}{
	'`': {"Backquote", false}, '~': {"Backquote", true},
	'-': {"Minus", false}, '_': {"Minus", true},
	'=': {"Equal", false}, '+': {"Equal", true},
	'[': {"BracketLeft", false}, '{': {"BracketLeft", true},
	']': {"BracketRight", false}, '}': {"BracketRight", true},
	'\\': {"Backslash", false}, '|': {"Backslash", true},
	';': {"Semicolon", false}, ':': {"Semicolon", true},
	'\'': {"Quote", false}, '"': {"Quote", true},
	',': {"Comma", false}, '<': {"Comma", true},
	'.': {"Period", false}, '>': {"Period", true},
	'/': {"Slash", false}, '?': {"Slash", true},
	'!': {"Digit1", true}, '@': {"Digit2", true}, '#': {"Digit3", true},
	'$': {"Digit4", true}, '%': {"Digit5", true}, '^': {"Digit6", true},
	'&': {"Digit7", true}, '*': {"Digit8", true}, '(': {"Digit9", true},
	')': {"Digit0", true},
}

// namedKeys maps terminal key names to the key and code a keyboard event
// carries for them.
var namedKeys = map[string][2]string{
	"up":        {"ArrowUp", "ArrowUp"},
	"down":      {"ArrowDown", "ArrowDown"},
	"left":      {"ArrowLeft", "ArrowLeft"},
	"right":     {"ArrowRight", "ArrowRight"},
	"enter":     {"Enter", "Enter"},
	"tab":       {"Tab", "Tab"},
	"esc":       {"Escape", "Escape"},
	"backspace": {"Backspace", "Backspace"},
	"delete":    {"Delete", "Delete"},
	"insert":    {"Insert", "Insert"},
	"home":      {"Home", "Home"},
	"end":       {"End", "End"},
	"pgup":      {"PageUp", "PageUp"},
	"pgdown":    {"PageDown", "PageDown"},
	" ":         {" ", "Space"},
	"@":         {" ", "Space"}, // ctrl+@ is what terminals send for ctrl+space
}

// keyEventFor converts a terminal key press into the keyboard event the quiz
// matches against. It reports false for input that has no key equivalent,
// such as pasted text.
func keyEventFor(msg tea.KeyMsg) (quiz.KeyEvent, bool) {
	if msg.Paste {
		return quiz.KeyEvent{}, false
	}
	ev := quiz.KeyEvent{Alt: msg.Alt}
	switch msg.Type {
	case tea.KeyRunes:
		if len(msg.Runes) != 1 {
			return quiz.KeyEvent{}, false
		}
		return withRune(ev, msg.Runes[0]), true
	case tea.KeySpace:
		ev.Key, ev.Code = " ", "Space"
		return ev, true
	}

	name := msg.String()
	if msg.Alt {
		name = strings.TrimPrefix(name, "alt+")
	}
	tokens := strings.Split(name, "+")
	base := tokens[len(tokens)-1]
	if base == "" && len(tokens) > 1 {
		base = "+"
		tokens = tokens[:len(tokens)-1]
	}
	for _, mod := range tokens[:len(tokens)-1] {
		switch mod {
		case "ctrl":
			ev.Ctrl = true
		case "shift":
			ev.Shift = true
		case "alt":
			ev.Alt = true
		}
	}

	if kc, ok := namedKeys[base]; ok {
		ev.Key, ev.Code = kc[0], kc[1]
		return ev, true
	}
	if len(base) > 1 && base[0] == 'f' && isDigits(base[1:]) {
		ev.Key = strings.ToUpper(base)
		ev.Code = ev.Key
		return ev, true
	}
	if r := []rune(base); len(r) == 1 {
		shift := ev.Shift
		ev = withRune(ev, r[0])
		ev.Shift = ev.Shift || shift
		return ev, true
	}
	return quiz.KeyEvent{}, false
}

func withRune(ev quiz.KeyEvent, r rune) quiz.KeyEvent {
	switch {
	case unicode.IsLetter(r) && r < unicode.MaxASCII:
		if unicode.IsUpper(r) {
			ev.Shift = true
		}
		lower := unicode.ToLower(r)
		ev.Key = string(lower)
		ev.Code = "Key" + string(unicode.ToUpper(r))
	case r >= '0' && r <= '9':
		ev.Key = string(r)
		ev.Code = "Digit" + string(r)
	default:
		ev.Key = string(r)
		if p, ok := punctuationCodes[r]; ok {
			ev.Code = p.code
			ev.Shift = ev.Shift || p.shift
		}
	}
	return ev
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return s != ""
}
