package shortcuts

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// TitleTranslator supplies human titles for commands that arrive without one.
type TitleTranslator interface {
	Translate(command string) (string, bool)
}

// TitleMap is a TitleTranslator backed by a command -> title map.
type TitleMap map[string]string

func (m TitleMap) Translate(command string) (string, bool) {
	t, ok := m[command]
	t = strings.TrimSpace(t)
	return t, ok && t != ""
}

// DeriveTitle builds a title from the last dot-separated segment of a command,
// e.g. "workbench.action.closeActiveEditor" becomes "Close Active Editor".
func DeriveTitle(command string) string {
	seg := command
	if i := strings.LastIndex(command, "."); i >= 0 {
		seg = command[i+1:]
	}
	if seg == "" {
		seg = command
	}
	var b strings.Builder
	for _, r := range seg {
		if unicode.IsUpper(r) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	title := strings.TrimSpace(b.String())
	if title == "" {
		return command
	}
	r, size := utf8.DecodeRuneInString(title)
	return string(unicode.ToUpper(r)) + title[size:]
}

// resolveTitle returns the title for a new shortcut and whether it was derived
// mechanically rather than supplied.
func resolveTitle(command, explicit string, tr TitleTranslator) (string, bool) {
	if t := strings.TrimSpace(explicit); t != "" {
		return t, false
	}
	if tr != nil {
		if t, ok := tr.Translate(command); ok {
			return t, false
		}
	}
	return DeriveTitle(command), true
}
