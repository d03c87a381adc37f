package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/attendance"
)

type timeEntryRepository struct {
	s *Store
}

func cloneEntry(e attendance.TimeEntry) attendance.TimeEntry {
	e.ClockIn = cloneTime(e.ClockIn)
	e.ClockOut = cloneTime(e.ClockOut)
	return e
}

// Create implements attendance.TimeEntryRepository.
func (r *timeEntryRepository) Create(ctx context.Context, entry attendance.TimeEntry) (attendance.TimeEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, e := range r.s.entries {
		if e.WorkerID == entry.WorkerID && e.CompanyID == entry.CompanyID && e.Date.Equal(entry.Date) {
			return attendance.TimeEntry{}, attendance.ErrDuplicateTimeEntry
		}
	}

	r.s.nextEntryID++
	now := r.s.Now()
	entry.ID = r.s.nextEntryID
	entry.CreatedAt = now
	entry.UpdatedAt = now
	r.s.entries[entry.ID] = cloneEntry(entry)
	return entry, nil
}

// GetByID implements attendance.TimeEntryRepository.
func (r *timeEntryRepository) GetByID(ctx context.Context, id int64) (attendance.TimeEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	e, ok := r.s.entries[id]
	if !ok {
		return attendance.TimeEntry{}, attendance.ErrTimeEntryNotFound
	}
	return cloneEntry(e), nil
}

// GetByIDForUpdate implements attendance.TimeEntryRepository.
func (r *timeEntryRepository) GetByIDForUpdate(ctx context.Context, id int64) (attendance.TimeEntry, error) {
	return r.GetByID(ctx, id)
}

// GetByWorkerAndDate implements attendance.TimeEntryRepository.
func (r *timeEntryRepository) GetByWorkerAndDate(ctx context.Context, workerID, companyID int64, date time.Time) (*attendance.TimeEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, e := range r.s.entries {
		if e.WorkerID == workerID && e.CompanyID == companyID && e.Date.Equal(date) {
			found := cloneEntry(e)
			return &found, nil
		}
	}
	return nil, nil
}

// GetTodayForWorker implements attendance.TimeEntryRepository.
func (r *timeEntryRepository) GetTodayForWorker(ctx context.Context, workerID int64, date time.Time) (*attendance.TimeEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var candidates []attendance.TimeEntry
	for _, e := range r.s.entries {
		if e.WorkerID == workerID && e.Date.Equal(date) {
			candidates = append(candidates, e)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if aOpen, bOpen := a.ClockOut == nil, b.ClockOut == nil; aOpen != bOpen {
			return aOpen
		}
		if a.ClockIn != nil && b.ClockIn != nil && !a.ClockIn.Equal(*b.ClockIn) {
			return a.ClockIn.After(*b.ClockIn)
		}
		return a.ID > b.ID
	})

	found := cloneEntry(candidates[0])
	return &found, nil
}

// LockWorkerDay implements attendance.TimeEntryRepository. The transactor
// already serialises every unit of work.
func (r *timeEntryRepository) LockWorkerDay(ctx context.Context, workerID, companyID int64, date time.Time) error {
	return nil
}

// Update implements attendance.TimeEntryRepository.
func (r *timeEntryRepository) Update(ctx context.Context, entry attendance.TimeEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.entries[entry.ID]
	if !ok {
		return attendance.ErrTimeEntryNotFound
	}

	entry.WorkerID = existing.WorkerID
	entry.CompanyID = existing.CompanyID
	entry.Date = existing.Date
	entry.CreatedAt = existing.CreatedAt
	entry.UpdatedAt = r.s.Now()
	r.s.entries[entry.ID] = cloneEntry(entry)
	return nil
}

// List implements attendance.TimeEntryRepository.
func (r *timeEntryRepository) List(ctx context.Context, filter attendance.TimeEntryFilter) ([]attendance.TimeEntry, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []attendance.TimeEntry
	for _, e := range r.s.entries {
		if filter.WorkerID != nil && e.WorkerID != *filter.WorkerID {
			continue
		}
		if filter.CompanyID != nil && e.CompanyID != *filter.CompanyID {
			continue
		}
		day := e.Date.Format("2006-01-02")
		if filter.StartDate != nil && *filter.StartDate != "" && day < *filter.StartDate {
			continue
		}
		if filter.EndDate != nil && *filter.EndDate != "" && day > *filter.EndDate {
			continue
		}
		matched = append(matched, cloneEntry(e))
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return a.ID > b.ID
	})

	return page(matched, filter.Page, filter.Limit), int64(len(matched)), nil
}

// ListUnclosedBefore implements attendance.TimeEntryRepository.
func (r *timeEntryRepository) ListUnclosedBefore(ctx context.Context, date time.Time) ([]attendance.TimeEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var entries []attendance.TimeEntry
	for _, e := range r.s.entries {
		if e.ClockOut == nil && e.Date.Before(date) {
			entries = append(entries, cloneEntry(e))
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.Before(entries[j].Date)
		}
		return entries[i].ID < entries[j].ID
	})

	return entries, nil
}
