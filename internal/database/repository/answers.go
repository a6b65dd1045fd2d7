package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

// AnswerRepo keeps the quiz answer history.
type AnswerRepo struct {
	db *sql.DB
}

func NewAnswerRepo(db *sql.DB) *AnswerRepo { return &AnswerRepo{db: db} }

// Insert stores a; an empty ID is filled with a new UUID.
func (r *AnswerRepo) Insert(ctx context.Context, a Answer) (Answer, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO answers(id, command, correct, answered_at) VALUES (?, ?, ?, ?);
	`, a.ID, a.Command, a.Correct, a.AnsweredAt.UTC())
	return a, err
}

func (r *AnswerRepo) ListByCommand(ctx context.Context, command string) ([]Answer, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, command, correct, answered_at FROM answers
	WHERE command = ? ORDER BY answered_at, id`, command)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Answer
	for rows.Next() {
		var a Answer
		if err := rows.Scan(&a.ID, &a.Command, &a.Correct, &a.AnsweredAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Stats returns per-command answer counts ordered by command.
func (r *AnswerRepo) Stats(ctx context.Context) ([]AnswerStats, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT command,
	 SUM(CASE WHEN correct THEN 1 ELSE 0 END),
	 SUM(CASE WHEN correct THEN 0 ELSE 1 END),
	 MAX(answered_at)
	FROM answers GROUP BY command ORDER BY command`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AnswerStats
	for rows.Next() {
		var s AnswerStats
		var last string
		if err := rows.Scan(&s.Command, &s.Correct, &s.Wrong, &last); err != nil {
			return nil, err
		}
		t, err := parseTimestamp(last)
		if err != nil {
			return nil, err
		}
		s.LastAnswer = t
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *AnswerRepo) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM answers`)
	return err
}
