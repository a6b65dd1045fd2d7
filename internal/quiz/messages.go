package quiz

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/jask/shortcutquiz/internal/shortcuts"
)

var ErrUnknownMessage = errors.New("unknown message")

// Message kinds, carried in the "command" field.
const (
	KindSetShortcuts     = "setShortcuts"
	KindShortcutAnswer   = "shortcutAnswer"
	KindUpdateKeybinding = "updateKeybinding"
	KindReady            = "ready"
	KindQuit             = "quit"
	KindOpenPlayground   = "openPlayground"
	KindClosePlayground  = "closePlayground"
	KindPlaygroundOpened = "playgroundOpened"
	KindPlaygroundClosed = "playgroundClosed"
)

// Message is one value exchanged between the quiz core and its front end.
type Message interface {
	Kind() string
}

type WireKeybinding struct {
	Key               string   `json:"key"`
	Enabled           bool     `json:"enabled"`
	DisablingPossible bool     `json:"disablingPossible"`
	Conditions        []string `json:"conditions,omitempty"`
}

type WireRelated struct {
	Title   string           `json:"title"`
	Keys    []WireKeybinding `json:"keys"`
	Command string           `json:"command"`
}

type WireShortcut struct {
	Title            string           `json:"title"`
	Keys             []WireKeybinding `json:"keys"`
	Command          string           `json:"command"`
	Enabled          bool             `json:"enabled"`
	RelatedShortcuts []WireRelated    `json:"relatedShortcuts"`
}

// SetShortcuts starts a session on the front end.
type SetShortcuts struct {
	Shortcuts      []WireShortcut `json:"shortcuts"`
	KeyMappings    KeyMappings    `json:"keyMappings"`
	KeyboardLayout string         `json:"configKeyboardLanguage"`
	MaxWrongTries  int            `json:"maxWrongTries"`
	Debug          bool           `json:"debug,omitempty"`
}

// ShortcutAnswer scores a command: +1 when Correct, -1 otherwise.
type ShortcutAnswer struct {
	Command string `json:"shortcutCommand"`
	Correct bool   `json:"correct"`
}

// UpdateKeybinding toggles a command, or one of its keybindings when Key is set.
type UpdateKeybinding struct {
	Command string `json:"shortcutCommand"`
	Key     string `json:"key,omitempty"`
	Enable  bool   `json:"enable"`
}

type (
	Ready            struct{}
	Quit             struct{}
	OpenPlayground   struct{}
	ClosePlayground  struct{}
	PlaygroundOpened struct{}
	PlaygroundClosed struct{}
)

func (SetShortcuts) Kind() string     { return KindSetShortcuts }
func (ShortcutAnswer) Kind() string   { return KindShortcutAnswer }
func (UpdateKeybinding) Kind() string { return KindUpdateKeybinding }
func (Ready) Kind() string            { return KindReady }
func (Quit) Kind() string             { return KindQuit }
func (OpenPlayground) Kind() string   { return KindOpenPlayground }
func (ClosePlayground) Kind() string  { return KindClosePlayground }
func (PlaygroundOpened) Kind() string { return KindPlaygroundOpened }
func (PlaygroundClosed) Kind() string { return KindPlaygroundClosed }

// EncodeMessage renders m as a JSON object with its kind in "command".
func EncodeMessage(m Message) ([]byte, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", m.Kind(), err)
	}
	out, err := sjson.SetBytes(body, "command", m.Kind())
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", m.Kind(), err)
	}
	return out, nil
}

// DecodeMessage parses a JSON message by its "command" field.
func DecodeMessage(b []byte) (Message, error) {
	if !gjson.ValidBytes(b) {
		return nil, fmt.Errorf("decode message: invalid JSON")
	}
	kind := gjson.GetBytes(b, "command").String()
	var m Message
	switch kind {
	case KindSetShortcuts:
		var v SetShortcuts
		if err := json.Unmarshal(b, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		m = v
	case KindShortcutAnswer:
		var v ShortcutAnswer
		if err := json.Unmarshal(b, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		m = v
	case KindUpdateKeybinding:
		var v UpdateKeybinding
		if err := json.Unmarshal(b, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		m = v
	case KindReady:
		m = Ready{}
	case KindQuit:
		m = Quit{}
	case KindOpenPlayground:
		m = OpenPlayground{}
	case KindClosePlayground:
		m = ClosePlayground{}
	case KindPlaygroundOpened:
		m = PlaygroundOpened{}
	case KindPlaygroundClosed:
		m = PlaygroundClosed{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, kind)
	}
	return m, nil
}

func wireKeybindings(kbs shortcuts.Keybindings) []WireKeybinding {
	out := make([]WireKeybinding, 0, len(kbs))
	for _, key := range kbs.Keys() {
		kb := kbs[key]
		out = append(out, WireKeybinding{
			Key:               key,
			Enabled:           kb.Enabled,
			DisablingPossible: kb.DisablingPossible,
			Conditions:        kb.Conditions,
		})
	}
	return out
}

// NewSetShortcuts builds the session start message for the selected commands.
func NewSetShortcuts(table shortcuts.Table, commands []string, km KeyMappings, layout string, maxWrongTries int) SetShortcuts {
	msg := SetShortcuts{
		Shortcuts:      make([]WireShortcut, 0, len(commands)),
		KeyMappings:    km,
		KeyboardLayout: layout,
		MaxWrongTries:  maxWrongTries,
	}
	for _, c := range commands {
		s, ok := table[c]
		if !ok {
			continue
		}
		ws := WireShortcut{
			Title:            s.Title,
			Keys:             wireKeybindings(s.Keybindings),
			Command:          c,
			Enabled:          s.Enabled,
			RelatedShortcuts: []WireRelated{},
		}
		for _, rc := range s.RelatedCommands() {
			r := s.RelatedShortcuts[rc]
			ws.RelatedShortcuts = append(ws.RelatedShortcuts, WireRelated{
				Title:   r.Title,
				Keys:    wireKeybindings(r.Keybindings),
				Command: rc,
			})
		}
		msg.Shortcuts = append(msg.Shortcuts, ws)
	}
	return msg
}
