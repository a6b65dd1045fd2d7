// Package sources reads the layered binding inputs: the default bindings,
// extension manifests, the user's keybindings file, preselection rules and
// title translations.
package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/jask/shortcutquiz/internal/shortcuts"
)

var (
	// ErrSourceUnavailable marks a source that could not be read and was
	// treated as empty.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrMalformedSource marks a source whose content has an unexpected shape.
	ErrMalformedSource = errors.New("malformed source")
)

// Origin tags attached to records.
const (
	OriginDefault = "default"
	OriginUser    = "user"
)

// Result is what one source produced. Warnings are non-fatal problems; the
// records are still usable.
type Result struct {
	Records  []shortcuts.ImportRecord
	Warnings []error
}

type Source interface {
	Name() string
	Load(ctx context.Context) (Result, error)
}

// rawRecord is the on-disk shape shared by the default and user files.
type rawRecord struct {
	Command string `json:"command"`
	Key     string `json:"key"`
	When    string `json:"when,omitempty"`
	Title   string `json:"title,omitempty"`
}

func decodeRecords(data []byte, origin string) ([]shortcuts.ImportRecord, error) {
	var raw []rawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSource, err)
	}
	out := make([]shortcuts.ImportRecord, 0, len(raw))
	for _, r := range raw {
		rec := shortcuts.ImportRecord{Command: r.Command, Key: r.Key, When: r.When, Title: r.Title}
		if !rec.IsRemoval() {
			rec.Origin = origin
		}
		out = append(out, rec)
	}
	return out, nil
}

// DefaultSource reads the built-in binding list, either from Path or, when
// Path is empty, from Data.
type DefaultSource struct {
	Path string
	Data []byte
}

func (s DefaultSource) Name() string { return OriginDefault }

func (s DefaultSource) Load(ctx context.Context) (Result, error) {
	data := s.Data
	if s.Path != "" {
		b, err := os.ReadFile(s.Path)
		if err != nil {
			return Result{}, fmt.Errorf("read default bindings: %w", err)
		}
		data = b
	}
	recs, err := decodeRecords(data, OriginDefault)
	if err != nil {
		return Result{}, fmt.Errorf("default bindings: %w", err)
	}
	return Result{Records: recs}, nil
}

// UserSource reads the user's keybindings.json. The file may carry comments
// and trailing commas. A missing or unreadable file yields an empty result
// with a warning.
type UserSource struct {
	Path string
}

func (s UserSource) Name() string { return OriginUser }

func (s UserSource) Load(ctx context.Context) (Result, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return Result{Warnings: []error{fmt.Errorf("%w: keybindings file %s: %v", ErrSourceUnavailable, s.Path, err)}}, nil
	}
	if data, err = StripJSONC(data); err != nil {
		return Result{}, fmt.Errorf("keybindings file %s: %w", s.Path, err)
	}
	if isBlank(data) {
		return Result{}, nil
	}
	recs, err := decodeRecords(data, OriginUser)
	if err != nil {
		return Result{}, fmt.Errorf("keybindings file %s: %w", s.Path, err)
	}
	return Result{Records: recs}, nil
}

func isBlank(b []byte) bool {
	for _, c := range b {
		switch c {
		case ' ', '\t', '\n', '\r':
		default:
			return false
		}
	}
	return true
}

// LoadTitles reads a JSON object mapping command to title. An empty path
// yields no translations.
func LoadTitles(path string) (shortcuts.TitleMap, error) {
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read titles: %w", err)
	}
	if b, err = StripJSONC(b); err != nil {
		return nil, fmt.Errorf("titles %s: %w", path, err)
	}
	var m shortcuts.TitleMap
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("titles %s: %w: %v", path, ErrMalformedSource, err)
	}
	return m, nil
}
