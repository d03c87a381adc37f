// Package memory holds in-process implementations of the attendance
// repositories. A Store keeps every table in maps guarded by one mutex and
// its Transactor serialises units of work, rolling back on error.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/company"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/database"
)

type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	companies map[int64]company.Company
	entries   map[int64]attendance.TimeEntry
	breaks    map[int64]attendance.BreakInterval
	requests  map[int64]attendance.ChangeRequest

	nextCompanyID int64
	nextEntryID   int64
	nextBreakID   int64
	nextRequestID int64

	// Now stamps created_at/updated_at
	Now func() time.Time
}

func NewStore() *Store {
	return &Store{
		companies: make(map[int64]company.Company),
		entries:   make(map[int64]attendance.TimeEntry),
		breaks:    make(map[int64]attendance.BreakInterval),
		requests:  make(map[int64]attendance.ChangeRequest),
		Now:       time.Now,
	}
}

// AddCompany registers a company for the directory and returns it with its id.
func (s *Store) AddCompany(name string, defaultBreakHours float64) company.Company {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextCompanyID++
	c := company.Company{ID: s.nextCompanyID, Name: name, DefaultBreakHours: defaultBreakHours}
	s.companies[c.ID] = c
	return c
}

func (s *Store) Companies() company.Directory { return &companyDirectory{s: s} }

func (s *Store) TimeEntries() attendance.TimeEntryRepository { return &timeEntryRepository{s: s} }

func (s *Store) BreakIntervals() attendance.BreakIntervalRepository {
	return &breakIntervalRepository{s: s}
}

func (s *Store) ChangeRequests() attendance.ChangeRequestRepository {
	return &changeRequestRepository{s: s}
}

func (s *Store) Transactor() database.Transactor { return &transactor{s: s} }

type snapshot struct {
	entries  map[int64]attendance.TimeEntry
	breaks   map[int64]attendance.BreakInterval
	requests map[int64]attendance.ChangeRequest
	ids      [3]int64
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := snapshot{
		entries:  make(map[int64]attendance.TimeEntry, len(s.entries)),
		breaks:   make(map[int64]attendance.BreakInterval, len(s.breaks)),
		requests: make(map[int64]attendance.ChangeRequest, len(s.requests)),
		ids:      [3]int64{s.nextEntryID, s.nextBreakID, s.nextRequestID},
	}
	for k, v := range s.entries {
		snap.entries[k] = v
	}
	for k, v := range s.breaks {
		snap.breaks[k] = v
	}
	for k, v := range s.requests {
		snap.requests[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = snap.entries
	s.breaks = snap.breaks
	s.requests = snap.requests
	s.nextEntryID, s.nextBreakID, s.nextRequestID = snap.ids[0], snap.ids[1], snap.ids[2]
}

type txKey struct{}

type transactor struct {
	s *Store
}

// WithinTransaction implements database.Transactor.
func (t *transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	t.s.txMu.Lock()
	defer t.s.txMu.Unlock()

	snap := t.s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		t.s.restore(snap)
		return err
	}
	return nil
}

type companyDirectory struct {
	s *Store
}

// FindByName implements company.Directory.
func (d *companyDirectory) FindByName(ctx context.Context, name string) (company.Company, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()

	name = strings.TrimSpace(name)
	for _, c := range d.s.companies {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return company.Company{}, company.ErrCompanyNotFound
}

// page slices items for a 1-based page of size limit
func page[T any](items []T, pageNum, limit int) []T {
	if limit <= 0 {
		limit = 20
	}
	if pageNum <= 0 {
		pageNum = 1
	}
	start := (pageNum - 1) * limit
	if start >= len(items) {
		return nil
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
