package repository

import "time"

// Entry represents a kv row.
type Entry struct {
	Key       string
	Value     []byte
	UpdatedAt time.Time
}

// Answer represents one recorded quiz answer.
type Answer struct {
	ID         string
	Command    string
	Correct    bool
	AnsweredAt time.Time
}

// AnswerStats aggregates the answers of one command.
type AnswerStats struct {
	Command    string
	Correct    int
	Wrong      int
	LastAnswer time.Time
}
