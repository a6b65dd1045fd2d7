package database

import (
	"context"
	"database/sql"
	"fmt"
)

// SeedDefaults stores each default value whose key is still missing.
// It is idempotent and safe to run on every startup.
func SeedDefaults(ctx context.Context, db *sql.DB, defaults map[string][]byte) error {
	return WithTx(db, func(tx *sql.Tx) error {
		for key, value := range defaults {
			if _, err := tx.ExecContext(ctx, `
			INSERT INTO kv(key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO NOTHING;
			`, key, value, Now()); err != nil {
				return fmt.Errorf("seed %s: %w", key, err)
			}
		}
		return nil
	})
}
