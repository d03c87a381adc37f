package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const changeRequestColumns = `
	id, worker_id, time_entry_id, new_clock_in, new_clock_out, reason, status, created_at, updated_at`

type changeRequestRepository struct {
	db *database.DB
}

func NewChangeRequestRepository(db *database.DB) attendance.ChangeRequestRepository {
	return &changeRequestRepository{db: db}
}

func scanChangeRequest(row pgx.Row) (attendance.ChangeRequest, error) {
	var c attendance.ChangeRequest
	err := row.Scan(
		&c.ID, &c.WorkerID, &c.TimeEntryID, &c.NewClockIn, &c.NewClockOut,
		&c.Reason, &c.Status, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

// Create implements attendance.ChangeRequestRepository.
func (r *changeRequestRepository) Create(ctx context.Context, request attendance.ChangeRequest) (attendance.ChangeRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO change_requests (worker_id, time_entry_id, new_clock_in, new_clock_out, reason, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		request.WorkerID,
		request.TimeEntryID,
		request.NewClockIn,
		request.NewClockOut,
		request.Reason,
		request.Status,
	).Scan(&request.ID, &request.CreatedAt, &request.UpdatedAt)
	if err != nil {
		return attendance.ChangeRequest{}, fmt.Errorf("failed to create change request: %w", err)
	}

	return request, nil
}

// GetByID implements attendance.ChangeRequestRepository.
func (r *changeRequestRepository) GetByID(ctx context.Context, id int64) (attendance.ChangeRequest, error) {
	return r.getByID(ctx, id, false)
}

// GetByIDForUpdate implements attendance.ChangeRequestRepository.
func (r *changeRequestRepository) GetByIDForUpdate(ctx context.Context, id int64) (attendance.ChangeRequest, error) {
	return r.getByID(ctx, id, true)
}

func (r *changeRequestRepository) getByID(ctx context.Context, id int64, forUpdate bool) (attendance.ChangeRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + changeRequestColumns + ` FROM change_requests WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	request, err := scanChangeRequest(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.ChangeRequest{}, attendance.ErrChangeRequestNotFound
		}
		return attendance.ChangeRequest{}, fmt.Errorf("failed to get change request by ID: %w", err)
	}

	return request, nil
}

// Update implements attendance.ChangeRequestRepository.
func (r *changeRequestRepository) Update(ctx context.Context, request attendance.ChangeRequest) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE change_requests SET
			new_clock_in = $1,
			new_clock_out = $2,
			reason = $3,
			status = $4,
			updated_at = NOW()
		WHERE id = $5
	`

	tag, err := q.Exec(ctx, query, request.NewClockIn, request.NewClockOut, request.Reason, request.Status, request.ID)
	if err != nil {
		return fmt.Errorf("failed to update change request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrChangeRequestNotFound
	}

	return nil
}

// Delete implements attendance.ChangeRequestRepository.
func (r *changeRequestRepository) Delete(ctx context.Context, id int64) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM change_requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete change request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrChangeRequestNotFound
	}

	return nil
}

// List implements attendance.ChangeRequestRepository.
func (r *changeRequestRepository) List(ctx context.Context, filter attendance.ChangeRequestFilter) ([]attendance.ChangeRequest, int64, error) {
	q := GetQuerier(ctx, r.db)

	baseWhere := "1 = 1"
	args := []interface{}{}
	argIdx := 1

	if filter.WorkerID != nil {
		baseWhere += fmt.Sprintf(" AND worker_id = $%d", argIdx)
		args = append(args, *filter.WorkerID)
		argIdx++
	}

	if filter.TimeEntryID != nil {
		baseWhere += fmt.Sprintf(" AND time_entry_id = $%d", argIdx)
		args = append(args, *filter.TimeEntryID)
		argIdx++
	}

	if filter.Status != nil && *filter.Status != "" {
		baseWhere += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}

	countQuery := "SELECT COUNT(*) FROM change_requests WHERE " + baseWhere
	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count change requests: %w", err)
	}

	selectQuery := fmt.Sprintf(`
		SELECT %s
		FROM change_requests
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, changeRequestColumns, baseWhere, argIdx, argIdx+1)

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
		return nil, 0, fmt.Errorf("failed to query change requests: %w", err)
	}
	defer rows.Close()

	var requests []attendance.ChangeRequest
	for rows.Next() {
		request, err := scanChangeRequest(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan change request: %w", err)
		}
		requests = append(requests, request)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate change requests: %w", err)
	}

	return requests, total, nil
}
