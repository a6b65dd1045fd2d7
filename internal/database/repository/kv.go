package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// KVRepo persists opaque values by string key. It backs the shortcut store.
type KVRepo struct {
	db *sql.DB
}

func NewKVRepo(db *sql.DB) *KVRepo { return &KVRepo{db: db} }

// Get returns the value stored at key and whether it exists.
func (r *KVRepo) Get(ctx context.Context, key string) ([]byte, bool, error) {
	row := r.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key)
	var v []byte
	if err := row.Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return v, true, nil
}

func (r *KVRepo) Set(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO kv(key, value, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET
	 value=excluded.value,
	 updated_at=excluded.updated_at;
	`, key, value, time.Now().UTC().Truncate(time.Second))
	return err
}

func (r *KVRepo) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	return err
}

func (r *KVRepo) Keys(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key FROM kv ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// All returns every entry ordered by key.
func (r *KVRepo) All(ctx context.Context) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value, updated_at FROM kv ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Key, &e.Value, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
