package keys

import "strings"

// Canonical modifier names carried by a parsed Chord.
const (
	ModCtrl  = "ctrl"
	ModShift = "shift"
	ModAlt   = "alt"
	ModMeta  = "meta"
)

// modifierOrder is the display and comparison order of canonical modifiers.
var modifierOrder = []string{ModCtrl, ModShift, ModAlt, ModMeta}

// modifierAliases folds platform spellings onto the canonical names.
var modifierAliases = map[string]string{
	"ctrl":    ModCtrl,
	"control": ModCtrl,
	"shift":   ModShift,
	"alt":     ModAlt,
	"option":  ModAlt,
	"meta":    ModMeta,
	"cmd":     ModMeta,
	"command": ModMeta,
	"win":     ModMeta,
	"super":   ModMeta,
}

// CanonicalModifier returns the canonical modifier name for token and whether
// token names a modifier at all.
func CanonicalModifier(token string) (string, bool) {
	m, ok := modifierAliases[strings.ToLower(strings.TrimSpace(token))]
	return m, ok
}

// Chord is one simultaneous key press: a set of modifiers plus a base key.
type Chord struct {
	// Modifiers holds canonical names in ctrl, shift, alt, meta order.
	Modifiers []string
	// Key is the lower-cased base key as written in the binding, e.g. "k", "enter".
	Key string
}

// Has reports whether the chord requires the canonical modifier mod.
func (c Chord) Has(mod string) bool {
	for _, m := range c.Modifiers {
		if m == mod {
			return true
		}
	}
	return false
}

// String renders the chord in normalized binding notation.
func (c Chord) String() string {
	parts := make([]string, 0, len(c.Modifiers)+1)
	parts = append(parts, c.Modifiers...)
	if c.Key != "" {
		parts = append(parts, c.Key)
	}
	return Normalize(strings.Join(parts, "+"))
}

// ParseChord splits a single chord into modifiers and base key. The last
// non-modifier token is the base key; a chord made only of modifiers has an
// empty Key.
func ParseChord(chord string) Chord {
	var c Chord
	seen := make(map[string]bool, 4)
	for _, tok := range splitChord(strings.TrimSpace(chord)) {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok == "" {
			continue
		}
		if mod, ok := modifierAliases[tok]; ok {
			seen[mod] = true
			continue
		}
		c.Key = tok
	}
	for _, m := range modifierOrder {
		if seen[m] {
			c.Modifiers = append(c.Modifiers, m)
		}
	}
	return c
}

// ParseSequence splits a chord sequence into its chords, in press order.
func ParseSequence(seq string) []Chord {
	fields := strings.Fields(seq)
	out := make([]Chord, 0, len(fields))
	for _, f := range fields {
		out = append(out, ParseChord(f))
	}
	return out
}
