package attendance

import (
	"context"
	"time"
)

// TimeEntryRepository defines data access methods for time entries.
// Dates passed in are calendar days at UTC midnight (see DateOf).
type TimeEntryRepository interface {
	// Create inserts a new time entry. Returns ErrDuplicateTimeEntry when the
	// (worker, company, date) triple already exists.
	Create(ctx context.Context, entry TimeEntry) (TimeEntry, error)

	// GetByID returns ErrTimeEntryNotFound when absent
	GetByID(ctx context.Context, id int64) (TimeEntry, error)

	// GetByIDForUpdate is GetByID holding a row lock until the surrounding transaction ends
	GetByIDForUpdate(ctx context.Context, id int64) (TimeEntry, error)

	// GetByWorkerAndDate returns nil, nil when the worker has no entry that day
	GetByWorkerAndDate(ctx context.Context, workerID, companyID int64, date time.Time) (*TimeEntry, error)

	// GetTodayForWorker picks the worker's entry for date across companies,
	// preferring an open one, then the most recent clock-in. Returns nil, nil when none.
	GetTodayForWorker(ctx context.Context, workerID int64, date time.Time) (*TimeEntry, error)

	// LockWorkerDay serialises find-or-create for one (worker, company, date) inside a transaction
	LockWorkerDay(ctx context.Context, workerID, companyID int64, date time.Time) error

	Update(ctx context.Context, entry TimeEntry) error

	List(ctx context.Context, filter TimeEntryFilter) ([]TimeEntry, int64, error)

	// ListUnclosedBefore returns entries dated before date that have no clock-out
	ListUnclosedBefore(ctx context.Context, date time.Time) ([]TimeEntry, error)
}

// BreakIntervalRepository defines data access methods for break intervals.
type BreakIntervalRepository interface {
	// Create returns ErrBreakAlreadyOpen when the entry already has an open break
	Create(ctx context.Context, interval BreakInterval) (BreakInterval, error)

	// GetOpenByTimeEntry returns nil, nil when no break is open
	GetOpenByTimeEntry(ctx context.Context, timeEntryID int64) (*BreakInterval, error)

	Update(ctx context.Context, interval BreakInterval) error

	ListByTimeEntry(ctx context.Context, timeEntryID int64) ([]BreakInterval, error)

	CountByTimeEntry(ctx context.Context, timeEntryID int64) (int, error)
}

// ChangeRequestRepository defines data access methods for change requests.
type ChangeRequestRepository interface {
	Create(ctx context.Context, request ChangeRequest) (ChangeRequest, error)

	// GetByID returns ErrChangeRequestNotFound when absent
	GetByID(ctx context.Context, id int64) (ChangeRequest, error)

	GetByIDForUpdate(ctx context.Context, id int64) (ChangeRequest, error)

	Update(ctx context.Context, request ChangeRequest) error

	Delete(ctx context.Context, id int64) error

	List(ctx context.Context, filter ChangeRequestFilter) ([]ChangeRequest, int64, error)
}
