package memory

import (
	"context"
	"sort"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/attendance"
)

type breakIntervalRepository struct {
	s *Store
}

func cloneBreak(b attendance.BreakInterval) attendance.BreakInterval {
	b.BreakEnd = cloneTime(b.BreakEnd)
	if b.DurationHours != nil {
		d := *b.DurationHours
		b.DurationHours = &d
	}
	return b
}

// Create implements attendance.BreakIntervalRepository.
func (r *breakIntervalRepository) Create(ctx context.Context, interval attendance.BreakInterval) (attendance.BreakInterval, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if interval.BreakEnd == nil {
		for _, b := range r.s.breaks {
			if b.TimeEntryID == interval.TimeEntryID && b.IsOpen() {
				return attendance.BreakInterval{}, attendance.ErrBreakAlreadyOpen
			}
		}
	}

	r.s.nextBreakID++
	now := r.s.Now()
	interval.ID = r.s.nextBreakID
	interval.CreatedAt = now
	interval.UpdatedAt = now
	r.s.breaks[interval.ID] = cloneBreak(interval)
	return interval, nil
}

// GetOpenByTimeEntry implements attendance.BreakIntervalRepository.
func (r *breakIntervalRepository) GetOpenByTimeEntry(ctx context.Context, timeEntryID int64) (*attendance.BreakInterval, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, b := range r.s.breaks {
		if b.TimeEntryID == timeEntryID && b.IsOpen() {
			found := cloneBreak(b)
			return &found, nil
		}
	}
	return nil, nil
}

// Update implements attendance.BreakIntervalRepository.
func (r *breakIntervalRepository) Update(ctx context.Context, interval attendance.BreakInterval) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.breaks[interval.ID]
	if !ok {
		return attendance.ErrNoOpenBreak
	}

	interval.TimeEntryID = existing.TimeEntryID
	interval.CreatedAt = existing.CreatedAt
	interval.UpdatedAt = r.s.Now()
	r.s.breaks[interval.ID] = cloneBreak(interval)
	return nil
}

// ListByTimeEntry implements attendance.BreakIntervalRepository.
func (r *breakIntervalRepository) ListByTimeEntry(ctx context.Context, timeEntryID int64) ([]attendance.BreakInterval, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var intervals []attendance.BreakInterval
	for _, b := range r.s.breaks {
		if b.TimeEntryID == timeEntryID {
			intervals = append(intervals, cloneBreak(b))
		}
	}

	sort.Slice(intervals, func(i, j int) bool {
		if !intervals[i].BreakStart.Equal(intervals[j].BreakStart) {
			return intervals[i].BreakStart.Before(intervals[j].BreakStart)
		}
		return intervals[i].ID < intervals[j].ID
	})

	return intervals, nil
}

// CountByTimeEntry implements attendance.BreakIntervalRepository.
func (r *breakIntervalRepository) CountByTimeEntry(ctx context.Context, timeEntryID int64) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	count := 0
	for _, b := range r.s.breaks {
		if b.TimeEntryID == timeEntryID {
			count++
		}
	}
	return count, nil
}
