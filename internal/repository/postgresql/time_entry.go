package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const timeEntryColumns = `
	id, worker_id, company_id, date, clock_in, clock_out,
	worked_hours, break_hours, latitude, longitude, address, site_id,
	created_at, updated_at`

type timeEntryRepository struct {
	db *database.DB
}

func NewTimeEntryRepository(db *database.DB) attendance.TimeEntryRepository {
	return &timeEntryRepository{db: db}
}

func scanTimeEntry(row pgx.Row) (attendance.TimeEntry, error) {
	var e attendance.TimeEntry
	err := row.Scan(
		&e.ID, &e.WorkerID, &e.CompanyID, &e.Date, &e.ClockIn, &e.ClockOut,
		&e.WorkedHours, &e.BreakHours, &e.Latitude, &e.Longitude, &e.Address, &e.SiteID,
		&e.CreatedAt, &e.UpdatedAt,
	)
	return e, err
}

// Create implements attendance.TimeEntryRepository.
func (r *timeEntryRepository) Create(ctx context.Context, entry attendance.TimeEntry) (attendance.TimeEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO time_entries (
			worker_id, company_id, date, clock_in, clock_out,
			worked_hours, break_hours, latitude, longitude, address, site_id
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		) RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		entry.WorkerID,
		entry.CompanyID,
		entry.Date,
		entry.ClockIn,
		entry.ClockOut,
		entry.WorkedHours,
		entry.BreakHours,
		entry.Latitude,
		entry.Longitude,
		entry.Address,
		entry.SiteID,
	).Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err, "time_entries_worker_company_date_key") {
			return attendance.TimeEntry{}, attendance.ErrDuplicateTimeEntry
		}
		return attendance.TimeEntry{}, fmt.Errorf("failed to create time entry: %w", err)
	}

	return entry, nil
}

// GetByID implements attendance.TimeEntryRepository.
func (r *timeEntryRepository) GetByID(ctx context.Context, id int64) (attendance.TimeEntry, error) {
	return r.getByID(ctx, id, false)
}

// GetByIDForUpdate implements attendance.TimeEntryRepository.
func (r *timeEntryRepository) GetByIDForUpdate(ctx context.Context, id int64) (attendance.TimeEntry, error) {
	return r.getByID(ctx, id, true)
}

func (r *timeEntryRepository) getByID(ctx context.Context, id int64, forUpdate bool) (attendance.TimeEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + timeEntryColumns + ` FROM time_entries WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	entry, err := scanTimeEntry(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.TimeEntry{}, attendance.ErrTimeEntryNotFound
		}
		return attendance.TimeEntry{}, fmt.Errorf("failed to get time entry by ID: %w", err)
	}

	return entry, nil
}

// GetByWorkerAndDate implements attendance.TimeEntryRepository.
func (r *timeEntryRepository) GetByWorkerAndDate(ctx context.Context, workerID, companyID int64, date time.Time) (*attendance.TimeEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + timeEntryColumns + `
		FROM time_entries
		WHERE worker_id = $1
		  AND company_id = $2
		  AND date = $3
		LIMIT 1
	`

	entry, err := scanTimeEntry(q.QueryRow(ctx, query, workerID, companyID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get time entry by worker and date: %w", err)
	}

	return &entry, nil
}

// GetTodayForWorker implements attendance.TimeEntryRepository.
func (r *timeEntryRepository) GetTodayForWorker(ctx context.Context, workerID int64, date time.Time) (*attendance.TimeEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + timeEntryColumns + `
		FROM time_entries
		WHERE worker_id = $1
		  AND date = $2
		ORDER BY (clock_out IS NULL) DESC, clock_in DESC NULLS LAST, id DESC
		LIMIT 1
	`

	entry, err := scanTimeEntry(q.QueryRow(ctx, query, workerID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get today's time entry: %w", err)
	}

	return &entry, nil
}

// LockWorkerDay implements attendance.TimeEntryRepository.
// The advisory lock is released when the surrounding transaction ends.
func (r *timeEntryRepository) LockWorkerDay(ctx context.Context, workerID, companyID int64, date time.Time) error {
	q := GetQuerier(ctx, r.db)

	key := fmt.Sprintf("time_entry:%d:%d:%s", workerID, companyID, date.Format("2006-01-02"))
	if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
		return fmt.Errorf("failed to lock worker day: %w", err)
	}

	return nil
}

// Update implements attendance.TimeEntryRepository.
func (r *timeEntryRepository) Update(ctx context.Context, entry attendance.TimeEntry) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE time_entries SET
			clock_in = $1,
			clock_out = $2,
			worked_hours = $3,
			break_hours = $4,
			latitude = $5,
			longitude = $6,
			address = $7,
			site_id = $8,
			updated_at = NOW()
		WHERE id = $9
	`

	tag, err := q.Exec(ctx, query,
		entry.ClockIn,
		entry.ClockOut,
		entry.WorkedHours,
		entry.BreakHours,
		entry.Latitude,
		entry.Longitude,
		entry.Address,
		entry.SiteID,
		entry.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update time entry: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return attendance.ErrTimeEntryNotFound
	}

	return nil
}

// List implements attendance.TimeEntryRepository.
func (r *timeEntryRepository) List(ctx context.Context, filter attendance.TimeEntryFilter) ([]attendance.TimeEntry, int64, error) {
	q := GetQuerier(ctx, r.db)

	// Build WHERE clause
	baseWhere := "1 = 1"
	args := []interface{}{}
	argIdx := 1

	if filter.WorkerID != nil {
		baseWhere += fmt.Sprintf(" AND worker_id = $%d", argIdx)
		args = append(args, *filter.WorkerID)
		argIdx++
	}

	if filter.CompanyID != nil {
		baseWhere += fmt.Sprintf(" AND company_id = $%d", argIdx)
		args = append(args, *filter.CompanyID)
		argIdx++
	}

	// Date range filters
	if filter.StartDate != nil && *filter.StartDate != "" {
		baseWhere += fmt.Sprintf(" AND date >= $%d", argIdx)
		args = append(args, *filter.StartDate)
		argIdx++
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		baseWhere += fmt.Sprintf(" AND date <= $%d", argIdx)
		args = append(args, *filter.EndDate)
		argIdx++
	}

	// Count total
	countQuery := "SELECT COUNT(*) FROM time_entries WHERE " + baseWhere
	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count time entries: %w", err)
	}

	selectQuery := fmt.Sprintf(`
		SELECT %s
		FROM time_entries
		WHERE %s
		ORDER BY date DESC, clock_in DESC NULLS LAST, id DESC
		LIMIT $%d OFFSET $%d
	`, timeEntryColumns, baseWhere, argIdx, argIdx+1)

	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}
	page := filter.Page
	if page == 0 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query time entries: %w", err)
	}
	defer rows.Close()

	var entries []attendance.TimeEntry
	for rows.Next() {
		entry, err := scanTimeEntry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan time entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate time entries: %w", err)
	}

	return entries, total, nil
}

// ListUnclosedBefore implements attendance.TimeEntryRepository.
func (r *timeEntryRepository) ListUnclosedBefore(ctx context.Context, date time.Time) ([]attendance.TimeEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + timeEntryColumns + `
		FROM time_entries
		WHERE clock_out IS NULL
		  AND date < $1
		ORDER BY date ASC, id ASC
	`

	rows, err := q.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query unclosed time entries: %w", err)
	}
	defer rows.Close()

	var entries []attendance.TimeEntry
	for rows.Next() {
		entry, err := scanTimeEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan time entry: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
