package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const breakIntervalColumns = `
	id, time_entry_id, break_start, break_end, duration_hours, created_at, updated_at`

type breakIntervalRepository struct {
	db *database.DB
}

func NewBreakIntervalRepository(db *database.DB) attendance.BreakIntervalRepository {
	return &breakIntervalRepository{db: db}
}

func scanBreakInterval(row pgx.Row) (attendance.BreakInterval, error) {
	var b attendance.BreakInterval
	err := row.Scan(&b.ID, &b.TimeEntryID, &b.BreakStart, &b.BreakEnd, &b.DurationHours, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

// Create implements attendance.BreakIntervalRepository.
func (r *breakIntervalRepository) Create(ctx context.Context, interval attendance.BreakInterval) (attendance.BreakInterval, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO break_intervals (time_entry_id, break_start, break_end, duration_hours)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		interval.TimeEntryID,
		interval.BreakStart,
		interval.BreakEnd,
		interval.DurationHours,
	).Scan(&interval.ID, &interval.CreatedAt, &interval.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "break_intervals_one_open_per_entry") {
			return attendance.BreakInterval{}, attendance.ErrBreakAlreadyOpen
		}
		return attendance.BreakInterval{}, fmt.Errorf("failed to create break interval: %w", err)
	}

	return interval, nil
}

// GetOpenByTimeEntry implements attendance.BreakIntervalRepository.
func (r *breakIntervalRepository) GetOpenByTimeEntry(ctx context.Context, timeEntryID int64) (*attendance.BreakInterval, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + breakIntervalColumns + `
		FROM break_intervals
		WHERE time_entry_id = $1
		  AND break_end IS NULL
		ORDER BY break_start DESC
		LIMIT 1
	`

	interval, err := scanBreakInterval(q.QueryRow(ctx, query, timeEntryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get open break interval: %w", err)
	}

	return &interval, nil
}

// Update implements attendance.BreakIntervalRepository.
func (r *breakIntervalRepository) Update(ctx context.Context, interval attendance.BreakInterval) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE break_intervals SET
			break_start = $1,
			break_end = $2,
			duration_hours = $3,
			updated_at = NOW()
		WHERE id = $4
	`

	tag, err := q.Exec(ctx, query, interval.BreakStart, interval.BreakEnd, interval.DurationHours, interval.ID)
	if err != nil {
		return fmt.Errorf("failed to update break interval: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrNoOpenBreak
	}

	return nil
}

// ListByTimeEntry implements attendance.BreakIntervalRepository.
func (r *breakIntervalRepository) ListByTimeEntry(ctx context.Context, timeEntryID int64) ([]attendance.BreakInterval, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + breakIntervalColumns + `
		FROM break_intervals
		WHERE time_entry_id = $1
		ORDER BY break_start ASC, id ASC
	`

	rows, err := q.Query(ctx, query, timeEntryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query break intervals: %w", err)
	}
	defer rows.Close()

	var intervals []attendance.BreakInterval
	for rows.Next() {
		interval, err := scanBreakInterval(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan break interval: %w", err)
		}
		intervals = append(intervals, interval)
	}

	return intervals, rows.Err()
}

// CountByTimeEntry implements attendance.BreakIntervalRepository.
func (r *breakIntervalRepository) CountByTimeEntry(ctx context.Context, timeEntryID int64) (int, error) {
	q := GetQuerier(ctx, r.db)

	var count int
	err := q.QueryRow(ctx, `SELECT COUNT(*) FROM break_intervals WHERE time_entry_id = $1`, timeEntryID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count break intervals: %w", err)
	}

	return count, nil
}
