package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/validator"
)

type ChangeRequestServiceImpl struct {
	tx       database.Transactor
	entries  attendance.TimeEntryRepository
	requests attendance.ChangeRequestRepository
	clock    Clock
}

func NewChangeRequestService(
	tx database.Transactor,
	timeEntryRepo attendance.TimeEntryRepository,
	changeRequestRepo attendance.ChangeRequestRepository,
	clock Clock,
) attendance.ChangeRequestService {
	return &ChangeRequestServiceImpl{
		tx:       tx,
		entries:  timeEntryRepo,
		requests: changeRequestRepo,
		clock:    clock,
	}
}

// CreateRequest implements attendance.ChangeRequestService.
func (s *ChangeRequestServiceImpl) CreateRequest(ctx context.Context, req attendance.CreateChangeRequestRequest) (attendance.ChangeRequestResponse, error) {
	loc := s.clock.location()
	if err := req.Validate(loc); err != nil {
		return attendance.ChangeRequestResponse{}, err
	}

	if _, err := s.entries.GetByID(ctx, req.TimeEntryID); err != nil {
		if errors.Is(err, attendance.ErrTimeEntryNotFound) {
			return attendance.ChangeRequestResponse{}, err
		}
		return attendance.ChangeRequestResponse{}, fmt.Errorf("failed to get time entry: %w", err)
	}

	newClockIn, newClockOut := req.ProposedTimes(loc)
	created, err := s.requests.Create(ctx, attendance.ChangeRequest{
		WorkerID:    req.WorkerID,
		TimeEntryID: req.TimeEntryID,
		NewClockIn:  newClockIn,
		NewClockOut: newClockOut,
		Reason:      strings.TrimSpace(req.Reason),
		Status:      attendance.ChangeRequestStatusPending,
	})
	if err != nil {
		if errors.Is(err, attendance.ErrTimeEntryNotFound) {
			return attendance.ChangeRequestResponse{}, err
		}
		return attendance.ChangeRequestResponse{}, fmt.Errorf("failed to create change request: %w", err)
	}

	metrics.RecordChangeRequest("created")
	slog.Info("Change request created", "change_request_id", created.ID, "time_entry_id", created.TimeEntryID)

	return mapChangeRequestToResponse(created, loc), nil
}

// lockPending loads the request with a row lock and refuses anything already decided.
func (s *ChangeRequestServiceImpl) lockPending(ctx context.Context, id int64) (attendance.ChangeRequest, error) {
	request, err := s.requests.GetByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, attendance.ErrChangeRequestNotFound) {
			return attendance.ChangeRequest{}, err
		}
		return attendance.ChangeRequest{}, fmt.Errorf("failed to get change request: %w", err)
	}
	if !request.IsPending() {
		return attendance.ChangeRequest{}, attendance.ErrChangeRequestAlreadyProcessed
	}
	return request, nil
}

// ApproveRequest implements attendance.ChangeRequestService.
func (s *ChangeRequestServiceImpl) ApproveRequest(ctx context.Context, id int64) (attendance.ChangeRequestResponse, error) {
	loc := s.clock.location()

	var approved attendance.ChangeRequest
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		request, err := s.lockPending(ctx, id)
		if err != nil {
			return err
		}

		entry, err := s.entries.GetByIDForUpdate(ctx, request.TimeEntryID)
		if err != nil {
			if errors.Is(err, attendance.ErrTimeEntryNotFound) {
				return err
			}
			return fmt.Errorf("failed to get time entry: %w", err)
		}

		// Only the time of day of a proposal is kept; the entry's own date wins.
		if request.NewClockIn != nil {
			clockIn := attendance.AtTimeOfDay(entry.Date, *request.NewClockIn, loc)
			entry.ClockIn = &clockIn
		}
		if request.NewClockOut != nil {
			clockOut := attendance.AtTimeOfDay(entry.Date, *request.NewClockOut, loc)
			entry.ClockOut = &clockOut
		}
		if entry.ClockOut != nil && (entry.ClockIn == nil || entry.ClockOut.Before(*entry.ClockIn)) {
			return validator.ValidationErrors{{
				Field:   "novaHoraSaida",
				Message: "novaHoraSaida must not be earlier than horaEntrada",
			}}
		}
		entry.RecomputeWorkedHours()

		if err := s.entries.Update(ctx, entry); err != nil {
			return fmt.Errorf("failed to apply change request: %w", err)
		}

		request.Status = attendance.ChangeRequestStatusApproved
		if err := s.requests.Update(ctx, request); err != nil {
			return fmt.Errorf("failed to approve change request: %w", err)
		}

		approved, err = s.requests.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return attendance.ChangeRequestResponse{}, err
	}

	metrics.RecordChangeRequest("approved")
	slog.Info("Change request approved", "change_request_id", approved.ID, "time_entry_id", approved.TimeEntryID)

	return mapChangeRequestToResponse(approved, loc), nil
}

// RejectRequest implements attendance.ChangeRequestService.
func (s *ChangeRequestServiceImpl) RejectRequest(ctx context.Context, id int64) (attendance.ChangeRequestResponse, error) {
	var rejected attendance.ChangeRequest
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		request, err := s.lockPending(ctx, id)
		if err != nil {
			return err
		}

		request.Status = attendance.ChangeRequestStatusRejected
		if err := s.requests.Update(ctx, request); err != nil {
			return fmt.Errorf("failed to reject change request: %w", err)
		}

		rejected, err = s.requests.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return attendance.ChangeRequestResponse{}, err
	}

	metrics.RecordChangeRequest("rejected")
	slog.Info("Change request rejected", "change_request_id", rejected.ID, "time_entry_id", rejected.TimeEntryID)

	return mapChangeRequestToResponse(rejected, s.clock.location()), nil
}

// GetRequest implements attendance.ChangeRequestService.
func (s *ChangeRequestServiceImpl) GetRequest(ctx context.Context, id int64) (attendance.ChangeRequestResponse, error) {
	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, attendance.ErrChangeRequestNotFound) {
			return attendance.ChangeRequestResponse{}, err
		}
		return attendance.ChangeRequestResponse{}, fmt.Errorf("failed to get change request: %w", err)
	}

	return mapChangeRequestToResponse(request, s.clock.location()), nil
}

// ListForWorker implements attendance.ChangeRequestService.
func (s *ChangeRequestServiceImpl) ListForWorker(ctx context.Context, workerID int64, filter attendance.ChangeRequestFilter) (attendance.ListChangeRequestResponse, error) {
	filter.WorkerID = &workerID
	return s.list(ctx, filter)
}

// ListAll implements attendance.ChangeRequestService.
func (s *ChangeRequestServiceImpl) ListAll(ctx context.Context, filter attendance.ChangeRequestFilter) (attendance.ListChangeRequestResponse, error) {
	return s.list(ctx, filter)
}

func (s *ChangeRequestServiceImpl) list(ctx context.Context, filter attendance.ChangeRequestFilter) (attendance.ListChangeRequestResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListChangeRequestResponse{}, err
	}

	requests, total, err := s.requests.List(ctx, filter)
	if err != nil {
		return attendance.ListChangeRequestResponse{}, fmt.Errorf("failed to list change requests: %w", err)
	}

	responses := make([]attendance.ChangeRequestResponse, 0, len(requests))
	for _, r := range requests {
		responses = append(responses, mapChangeRequestToResponse(r, s.clock.location()))
	}

	totalPages, showing := paginate(total, filter.Page, filter.Limit)

	return attendance.ListChangeRequestResponse{
		TotalCount:     total,
		Page:           filter.Page,
		Limit:          filter.Limit,
		TotalPages:     totalPages,
		Showing:        showing,
		ChangeRequests: responses,
	}, nil
}

// UpdateRequest implements attendance.ChangeRequestService.
// An empty proposed time clears that proposal; at least one must remain.
func (s *ChangeRequestServiceImpl) UpdateRequest(ctx context.Context, req attendance.UpdateChangeRequestRequest) (attendance.ChangeRequestResponse, error) {
	loc := s.clock.location()
	if err := req.Validate(loc); err != nil {
		return attendance.ChangeRequestResponse{}, err
	}

	newClockIn, newClockOut := req.ProposedTimes(loc)

	var updated attendance.ChangeRequest
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		request, err := s.lockPending(ctx, req.ID)
		if err != nil {
			return err
		}

		if req.NewClockIn != nil {
			request.NewClockIn = newClockIn
		}
		if req.NewClockOut != nil {
			request.NewClockOut = newClockOut
		}
		if req.Reason != nil {
			request.Reason = strings.TrimSpace(*req.Reason)
		}

		if request.NewClockIn == nil && request.NewClockOut == nil {
			return validator.ValidationErrors{{
				Field:   "novaHoraEntrada",
				Message: "fill in at least one of novaHoraEntrada or novaHoraSaida",
			}}
		}

		if err := s.requests.Update(ctx, request); err != nil {
			return fmt.Errorf("failed to update change request: %w", err)
		}

		updated, err = s.requests.GetByID(ctx, req.ID)
		return err
	})
	if err != nil {
		return attendance.ChangeRequestResponse{}, err
	}

	metrics.RecordChangeRequest("updated")
	slog.Info("Change request updated", "change_request_id", updated.ID)

	return mapChangeRequestToResponse(updated, loc), nil
}

// DeleteRequest implements attendance.ChangeRequestService.
func (s *ChangeRequestServiceImpl) DeleteRequest(ctx context.Context, id int64) error {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.lockPending(ctx, id); err != nil {
			return err
		}
		return s.requests.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	metrics.RecordChangeRequest("deleted")
	slog.Info("Change request deleted", "change_request_id", id)

	return nil
}
