package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidRange is returned before any query when the start date is
	// after the end date, or only one bound is set.
	ErrInvalidRange = errors.New("invalid date range")

	// ErrNoDate is returned when a marking batch carries no date.
	ErrNoDate = errors.New("date required")
)

// Service validates marking batches and report filters before touching the
// repository.
type Service struct {
	repo *Repository
}

// NewService creates a service backed by a repository.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Mark applies an attendance batch for one date. Every entry must carry a
// valid status; an empty batch is a no-op.
func (s *Service) Mark(ctx context.Context, date time.Time, statusByStudent map[int64]Status) error {
	if date.IsZero() {
		return ErrNoDate
	}
	for id, st := range statusByStudent {
		if !st.Valid() {
			return fmt.Errorf("student %d: invalid status %q", id, st)
		}
	}
	if len(statusByStudent) == 0 {
		return nil
	}
	if err := s.repo.MarkForDate(ctx, date, statusByStudent); err != nil {
		return err
	}
	marksRecorded.Add(float64(len(statusByStudent)))
	return nil
}

// Table returns the flat denormalized table for the filter.
func (s *Service) Table(ctx context.Context, f Filter) ([]Row, error) {
	if err := validateFilter(f); err != nil {
		return nil, err
	}
	return s.repo.FlatTable(ctx, f)
}

func validateFilter(f Filter) error {
	if f.Start.IsZero() != f.End.IsZero() {
		return ErrInvalidRange
	}
	if !f.Start.IsZero() && f.Start.After(f.End) {
		return ErrInvalidRange
	}
	return nil
}
