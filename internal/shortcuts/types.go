// Package shortcuts holds the shortcut table data model, the store that
// persists it, and the LoadManager that rebuilds it from layered sources.
package shortcuts

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrUnknownCommand        = errors.New("unknown command")
	ErrUnknownKeybinding     = errors.New("unknown keybinding")
	ErrLastEnabledKeybinding = errors.New("cannot disable the last enabled keybinding")
)

// RemovalPrefix marks an import record that unbinds instead of binds.
const RemovalPrefix = "-"

// ImportRecord is one binding line produced by a source.
type ImportRecord struct {
	Command string `json:"command"`
	Key     string `json:"key"`
	When    string `json:"when,omitempty"`
	Title   string `json:"title,omitempty"`
	Origin  string `json:"origin,omitempty"`
}

func (r ImportRecord) IsRemoval() bool {
	return strings.HasPrefix(r.Command, RemovalPrefix)
}

// Target returns the command with any removal prefix stripped.
func (r ImportRecord) Target() string {
	return strings.TrimPrefix(r.Command, RemovalPrefix)
}

// Keybinding is the state of one normalized chord sequence of a command.
// Nil Conditions means the binding is unconditional.
type Keybinding struct {
	Enabled           bool     `json:"enabled"`
	DisablingPossible bool     `json:"disablingPossible"`
	Conditions        []string `json:"conditions,omitempty"`
}

func (k *Keybinding) Unconditional() bool {
	return len(k.Conditions) == 0
}

func (k *Keybinding) HasCondition(when string) bool {
	for _, c := range k.Conditions {
		if c == when {
			return true
		}
	}
	return false
}

// conditionSignature identifies a keybinding's condition set independent of order.
func (k *Keybinding) conditionSignature() string {
	if k.Unconditional() {
		return ""
	}
	cs := append([]string(nil), k.Conditions...)
	sort.Strings(cs)
	return strings.Join(cs, "\x00")
}

func (k *Keybinding) clone() *Keybinding {
	c := *k
	if k.Conditions != nil {
		c.Conditions = append([]string(nil), k.Conditions...)
	}
	return &c
}

// Keybindings maps a normalized chord sequence to its state.
type Keybindings map[string]*Keybinding

// Keys returns the chord sequences in sorted order.
func (kb Keybindings) Keys() []string {
	out := make([]string, 0, len(kb))
	for k := range kb {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// EnabledKeys returns the enabled chord sequences in sorted order.
func (kb Keybindings) EnabledKeys() []string {
	var out []string
	for _, k := range kb.Keys() {
		if kb[k].Enabled {
			out = append(out, k)
		}
	}
	return out
}

func (kb Keybindings) clone() Keybindings {
	out := make(Keybindings, len(kb))
	for k, v := range kb {
		out[k] = v.clone()
	}
	return out
}

// RelatedShortcut is a command folded under a group head. It cannot carry
// relations of its own.
type RelatedShortcut struct {
	Title       string      `json:"title"`
	Keybindings Keybindings `json:"keybindings"`
	Origins     []string    `json:"origins"`
}

// Shortcut is one command of the table. A Shortcut with RelatedShortcuts is a
// group head.
type Shortcut struct {
	Title            string                      `json:"title"`
	Keybindings      Keybindings                 `json:"keybindings"`
	Origins          []string                    `json:"origins"`
	Enabled          bool                        `json:"enabled"`
	LearningState    int                         `json:"learningState"`
	RelatedShortcuts map[string]*RelatedShortcut `json:"relatedShortcuts,omitempty"`

	titleDerived bool
}

// IsGroupHead reports whether other commands are folded under s.
func (s *Shortcut) IsGroupHead() bool {
	return len(s.RelatedShortcuts) > 0
}

// RelatedCommands returns the folded commands in sorted order.
func (s *Shortcut) RelatedCommands() []string {
	out := make([]string, 0, len(s.RelatedShortcuts))
	for c := range s.RelatedShortcuts {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// EnabledCount returns how many of the command's own keybindings are enabled.
func (s *Shortcut) EnabledCount() int {
	n := 0
	for _, kb := range s.Keybindings {
		if kb.Enabled {
			n++
		}
	}
	return n
}

func (s *Shortcut) addOrigin(origin string) {
	if origin == "" {
		return
	}
	s.Origins = addOrigin(s.Origins, origin)
}

func addOrigin(origins []string, origin string) []string {
	for _, o := range origins {
		if o == origin {
			return origins
		}
	}
	return append(origins, origin)
}

func (s *Shortcut) withoutRelations() *RelatedShortcut {
	return &RelatedShortcut{
		Title:       s.Title,
		Keybindings: s.Keybindings,
		Origins:     s.Origins,
	}
}

// Clone returns a deep copy of s.
func (s *Shortcut) Clone() *Shortcut {
	c := *s
	c.Keybindings = s.Keybindings.clone()
	c.Origins = append([]string(nil), s.Origins...)
	if s.RelatedShortcuts != nil {
		c.RelatedShortcuts = make(map[string]*RelatedShortcut, len(s.RelatedShortcuts))
		for cmd, r := range s.RelatedShortcuts {
			c.RelatedShortcuts[cmd] = &RelatedShortcut{
				Title:       r.Title,
				Keybindings: r.Keybindings.clone(),
				Origins:     append([]string(nil), r.Origins...),
			}
		}
	}
	return &c
}

// Table is the canonical shortcut table keyed by command.
type Table map[string]*Shortcut

// Commands returns the top-level commands in sorted order.
func (t Table) Commands() []string {
	out := make([]string, 0, len(t))
	for c := range t {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Clone returns a deep copy of t.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for c, s := range t {
		out[c] = s.Clone()
	}
	return out
}

// HeadOf returns the group head that holds command as a related shortcut.
func (t Table) HeadOf(command string) (string, bool) {
	for head, s := range t {
		if _, ok := s.RelatedShortcuts[command]; ok {
			return head, true
		}
	}
	return "", false
}

// PreselectionRule folds RelatedCommands under MainCommand. When
// PreferredConditions is set, only the main command's conditioned keybindings
// matching one of them start enabled.
type PreselectionRule struct {
	MainCommand         string   `json:"mainCommand" toml:"main_command"`
	RelatedCommands     []string `json:"relatedCommands,omitempty" toml:"related_commands"`
	PreferredConditions []string `json:"preferredConditions,omitempty" toml:"preferred_conditions"`
}
