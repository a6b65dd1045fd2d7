package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
)

// parseTimestamp reads a timestamp that lost its column type, as aggregate
// results do.
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSuffix(s, "Z")
	for _, layout := range sqlite3.SQLiteTimestampFormats {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("parse timestamp %q", s)
}
