package quiz

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Keyboard layouts a display glyph can be rendered for.
const (
	LayoutEN = "en"
	LayoutDE = "de"
)

type DisplayKeys struct {
	EN string `json:"en"`
	DE string `json:"de"`
}

// For returns the glyph for layout, falling back to the English one.
func (d DisplayKeys) For(layout string) string {
	if layout == LayoutDE && d.DE != "" {
		return d.DE
	}
	return d.EN
}

// KeyMapping ties a binding key name to the key code an input event carries
// for it, and to the glyphs shown to the user.
type KeyMapping struct {
	KeyCode     string      `json:"keyCode"`
	DisplayKeys DisplayKeys `json:"displayKeys"`
}

type KeyMappings map[string]KeyMapping

func ParseKeyMappings(b []byte) (KeyMappings, error) {
	var km KeyMappings
	if err := json.Unmarshal(b, &km); err != nil {
		return nil, fmt.Errorf("decode key mappings: %w", err)
	}
	return km, nil
}

// LoadKeyMappings reads path, or parses fallback when path is empty.
func LoadKeyMappings(path string, fallback []byte) (KeyMappings, error) {
	if path == "" {
		return ParseKeyMappings(fallback)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key mappings: %w", err)
	}
	return ParseKeyMappings(b)
}

// Translate returns the lower-cased key or code an event must carry to match
// the binding key name.
func (km KeyMappings) Translate(key string) string {
	key = strings.ToLower(key)
	if m, ok := km[key]; ok && m.KeyCode != "" {
		return strings.ToLower(m.KeyCode)
	}
	return key
}

// Display returns the glyph for a binding key name.
func (km KeyMappings) Display(key, layout string) string {
	if m, ok := km[strings.ToLower(key)]; ok {
		if g := m.DisplayKeys.For(layout); g != "" {
			return g
		}
	}
	if len(key) == 1 {
		return strings.ToUpper(key)
	}
	return key
}
