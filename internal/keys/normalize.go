// Package keys canonicalizes keybinding strings such as "shift+ctrl+K ctrl+S"
// into an order- and case-independent form and splits them into chords.
package keys

import (
	"sort"
	"strings"
)

// modifierTokens are the tokens that sort ahead of the base key within a chord.
var modifierTokens = map[string]bool{
	"ctrl":  true,
	"shift": true,
	"alt":   true,
	"cmd":   true,
	"meta":  true,
	"win":   true,
}

// IsModifier reports whether token (already lower-cased) is one of the
// modifier tokens used in keybinding definitions.
func IsModifier(token string) bool {
	return modifierTokens[token]
}

// Normalize returns the canonical form of a chord sequence. Chords keep their
// order; tokens inside each chord are trimmed, lower-cased and sorted with
// modifiers first. Degenerate input (including "") is accepted and returned in
// its canonical form; callers validate emptiness.
func Normalize(raw string) string {
	chords := strings.Fields(raw)
	for i, chord := range chords {
		chords[i] = normalizeChord(chord)
	}
	return strings.Join(chords, " ")
}

func normalizeChord(chord string) string {
	tokens := splitChord(chord)
	for i, t := range tokens {
		tokens[i] = strings.ToLower(strings.TrimSpace(t))
	}
	sort.SliceStable(tokens, func(i, j int) bool {
		a, b := tokens[i], tokens[j]
		am, bm := IsModifier(a), IsModifier(b)
		if am != bm {
			return am
		}
		// the plus key goes last so the joined chord splits back the same way
		if (a == "+") != (b == "+") {
			return b == "+"
		}
		return a < b
	})
	return strings.Join(tokens, "+")
}

// splitChord splits on "+" and keeps a trailing "+" as the plus key itself,
// so "ctrl++" yields ["ctrl", "+"].
func splitChord(chord string) []string {
	if chord == "+" {
		return []string{"+"}
	}
	plusKey := strings.HasSuffix(chord, "++")
	if plusKey {
		chord = strings.TrimSuffix(chord, "++")
	}
	tokens := strings.Split(chord, "+")
	if plusKey {
		tokens = append(tokens, "+")
	}
	return tokens
}
