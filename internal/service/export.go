package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jask/shortcutquiz/internal/database/repository"
)

// ExportService dumps every stored value for inspection or backup.
type ExportService struct {
	KV *repository.KVRepo
}

// Export writes all store keys to w as "json" or "yaml". JSON values are
// embedded as documents, anything else as strings.
func (s *ExportService) Export(ctx context.Context, w io.Writer, format string) error {
	entries, err := s.KV.All(ctx)
	if err != nil {
		return fmt.Errorf("read store: %w", err)
	}
	doc := make(map[string]any, len(entries))
	for _, e := range entries {
		dec := json.NewDecoder(bytes.NewReader(e.Value))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil || dec.More() {
			v = string(e.Value)
		}
		doc[e.Key] = v
	}

	switch format {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown export format %q", format)
}
