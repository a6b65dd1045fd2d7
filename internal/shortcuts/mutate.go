package shortcuts

import (
	"errors"
	"fmt"

	"github.com/jask/shortcutquiz/internal/keys"
)

var ErrNotDisableable = errors.New("keybinding cannot be disabled")

// SetEnabled stars or unstars a top-level command.
func (t Table) SetEnabled(command string, enabled bool) error {
	s, ok := t[command]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, command)
	}
	s.Enabled = enabled
	return nil
}

// SetKeybindingEnabled toggles one keybinding of a top-level command. key may
// be given in any spelling; it is normalized before lookup. Disabling is
// refused for bindings that are not toggleable and for the last enabled one.
func (t Table) SetKeybindingEnabled(command, key string, enabled bool) error {
	s, ok := t[command]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, command)
	}
	norm := keys.Normalize(key)
	kb, ok := s.Keybindings[norm]
	if !ok {
		return fmt.Errorf("%w: %s %q", ErrUnknownKeybinding, command, key)
	}
	if enabled || !kb.Enabled {
		kb.Enabled = enabled
		return nil
	}
	if !kb.DisablingPossible {
		return fmt.Errorf("%w: %s %q", ErrNotDisableable, command, norm)
	}
	if s.EnabledCount() <= 1 {
		return fmt.Errorf("%w: %s %q", ErrLastEnabledKeybinding, command, norm)
	}
	kb.Enabled = false
	return nil
}

// AdjustScore adds delta to a top-level command's learning state.
func (t Table) AdjustScore(command string, delta int) error {
	s, ok := t[command]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, command)
	}
	s.LearningState += delta
	return nil
}
