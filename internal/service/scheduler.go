package service

import (
	"context"
	"time"

	"github.com/jask/shortcutquiz/internal/shortcuts"
)

// SchedulerService decides when a quiz is due again.
type SchedulerService struct {
	Store    *shortcuts.Store
	Interval time.Duration
}

// Due reports whether at least Interval has passed since the last shown
// quiz. A quiz that was never shown is due.
func (s *SchedulerService) Due(ctx context.Context, now time.Time) (bool, error) {
	last, err := s.Store.LastShown(ctx)
	if err != nil {
		return false, err
	}
	if last.IsZero() {
		return true, nil
	}
	return now.Sub(last) >= s.Interval, nil
}

func (s *SchedulerService) MarkShown(ctx context.Context, now time.Time) error {
	return s.Store.SetLastShown(ctx, now)
}
