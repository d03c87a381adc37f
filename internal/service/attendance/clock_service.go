package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/company"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/validator"
)

type ClockServiceImpl struct {
	tx        database.Transactor
	companies company.Directory
	entries   attendance.TimeEntryRepository
	breaks    attendance.BreakIntervalRepository
	clock     Clock
}

func NewClockService(
	tx database.Transactor,
	companies company.Directory,
	timeEntryRepo attendance.TimeEntryRepository,
	breakRepo attendance.BreakIntervalRepository,
	clock Clock,
) attendance.ClockService {
	return &ClockServiceImpl{
		tx:        tx,
		companies: companies,
		entries:   timeEntryRepo,
		breaks:    breakRepo,
		clock:     clock,
	}
}

// ClockAction implements attendance.ClockService.
func (s *ClockServiceImpl) ClockAction(ctx context.Context, req attendance.ClockActionRequest) (attendance.ClockActionResult, error) {
	if err := req.Validate(); err != nil {
		return attendance.ClockActionResult{}, err
	}

	comp, err := s.companies.FindByName(ctx, req.Company)
	if err != nil {
		if errors.Is(err, company.ErrCompanyNotFound) {
			return attendance.ClockActionResult{}, err
		}
		return attendance.ClockActionResult{}, fmt.Errorf("failed to resolve company: %w", err)
	}

	now := s.clock.now()
	today := attendance.DateOf(now, s.clock.location())

	var result attendance.ClockActionResult
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.entries.LockWorkerDay(ctx, req.WorkerID, comp.ID, today); err != nil {
			return err
		}

		existing, err := s.entries.GetByWorkerAndDate(ctx, req.WorkerID, comp.ID, today)
		if err != nil {
			return fmt.Errorf("failed to get today's time entry: %w", err)
		}

		if existing == nil {
			clockIn := now
			entry := attendance.TimeEntry{
				WorkerID:   req.WorkerID,
				CompanyID:  comp.ID,
				Date:       today,
				ClockIn:    &clockIn,
				BreakHours: attendance.RoundHours(comp.DefaultBreakHours),
				Latitude:   req.Latitude,
				Longitude:  req.Longitude,
				Address:    req.Address,
				SiteID:     req.SiteID,
			}

			created, err := s.entries.Create(ctx, entry)
			if err != nil {
				if errors.Is(err, attendance.ErrDuplicateTimeEntry) {
					return err
				}
				return fmt.Errorf("failed to create time entry: %w", err)
			}

			result = attendance.ClockActionResult{
				Action: attendance.ClockActionEntry,
				Entry:  mapTimeEntryToResponse(created, s.clock.location()),
			}
			return nil
		}

		if existing.ClockOut != nil {
			return attendance.ErrAlreadyClockedOut
		}

		clockOut := now
		existing.ClockOut = &clockOut
		applyLocation(existing, req)
		existing.RecomputeWorkedHours()

		if existing.BreakHours == 0 && comp.DefaultBreakHours > 0 {
			recorded, err := s.breaks.CountByTimeEntry(ctx, existing.ID)
			if err != nil {
				return fmt.Errorf("failed to count breaks: %w", err)
			}
			if recorded == 0 {
				existing.BreakHours = attendance.RoundHours(comp.DefaultBreakHours)
			}
		}

		if err := s.entries.Update(ctx, *existing); err != nil {
			return fmt.Errorf("failed to update time entry: %w", err)
		}

		updated, err := s.entries.GetByID(ctx, existing.ID)
		if err != nil {
			return fmt.Errorf("failed to reload time entry: %w", err)
		}

		result = attendance.ClockActionResult{
			Action: attendance.ClockActionExit,
			Entry:  mapTimeEntryToResponse(updated, s.clock.location()),
		}
		return nil
	})
	if err != nil {
		return attendance.ClockActionResult{}, err
	}

	metrics.RecordClockAction(string(result.Action), string(req.Source))
	slog.Info("Time entry registered",
		"action", result.Action,
		"time_entry_id", result.Entry.ID,
		"worker_id", req.WorkerID,
		"company_id", comp.ID,
		"source", req.Source,
	)

	return result, nil
}

func applyLocation(entry *attendance.TimeEntry, req attendance.ClockActionRequest) {
	if req.Latitude != nil {
		entry.Latitude = req.Latitude
	}
	if req.Longitude != nil {
		entry.Longitude = req.Longitude
	}
	if req.Address != nil {
		entry.Address = req.Address
	}
	if req.SiteID != nil {
		entry.SiteID = req.SiteID
	}
}

// EditEntry implements attendance.ClockService.
func (s *ClockServiceImpl) EditEntry(ctx context.Context, req attendance.EditEntryRequest) (attendance.TimeEntryResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.TimeEntryResponse{}, err
	}

	loc := s.clock.location()

	var updated attendance.TimeEntry
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		entry, err := s.entries.GetByIDForUpdate(ctx, req.ID)
		if err != nil {
			if errors.Is(err, attendance.ErrTimeEntryNotFound) {
				return err
			}
			return fmt.Errorf("failed to get time entry: %w", err)
		}

		var errs validator.ValidationErrors
		if !validator.IsEmptyPtr(req.ClockIn) {
			t, ok := parseEntryTime(*req.ClockIn, entry.Date, loc)
			if !ok {
				errs = append(errs, validator.ValidationError{
					Field:   "horaEntrada",
					Message: "horaEntrada must be a date-time or HH:MM[:SS]",
				})
			} else {
				entry.ClockIn = &t
			}
		}
		if !validator.IsEmptyPtr(req.ClockOut) {
			t, ok := parseEntryTime(*req.ClockOut, entry.Date, loc)
			if !ok {
				errs = append(errs, validator.ValidationError{
					Field:   "horaSaida",
					Message: "horaSaida must be a date-time or HH:MM[:SS]",
				})
			} else {
				entry.ClockOut = &t
			}
		}
		if len(errs) > 0 {
			return errs
		}

		if entry.ClockOut != nil && entry.ClockIn == nil {
			return validator.ValidationErrors{{
				Field:   "horaSaida",
				Message: "horaSaida cannot be set before horaEntrada",
			}}
		}
		if entry.ClockOut != nil && entry.ClockOut.Before(*entry.ClockIn) {
			return validator.ValidationErrors{{
				Field:   "horaSaida",
				Message: "horaSaida must not be earlier than horaEntrada",
			}}
		}

		entry.RecomputeWorkedHours()

		if err := s.entries.Update(ctx, entry); err != nil {
			return fmt.Errorf("failed to update time entry: %w", err)
		}

		updated, err = s.entries.GetByID(ctx, entry.ID)
		if err != nil {
			return fmt.Errorf("failed to reload time entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return attendance.TimeEntryResponse{}, err
	}

	slog.Info("Time entry edited", "time_entry_id", updated.ID, "worked_hours", updated.WorkedHours)

	return mapTimeEntryToResponse(updated, loc), nil
}

// parseEntryTime accepts a full date-time, or a bare clock time placed on day.
func parseEntryTime(value string, day time.Time, loc *time.Location) (time.Time, bool) {
	if t, ok := validator.ParseDateTimeIn(value, loc); ok {
		return t, true
	}
	c, ok := validator.ParseClockTime(value)
	if !ok {
		return time.Time{}, false
	}
	return time.Date(day.Year(), day.Month(), day.Day(), c.Hour(), c.Minute(), c.Second(), 0, loc), true
}

// GetEntry implements attendance.ClockService.
func (s *ClockServiceImpl) GetEntry(ctx context.Context, id int64) (attendance.TimeEntryResponse, error) {
	entry, err := s.entries.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, attendance.ErrTimeEntryNotFound) {
			return attendance.TimeEntryResponse{}, err
		}
		return attendance.TimeEntryResponse{}, fmt.Errorf("failed to get time entry: %w", err)
	}

	return mapTimeEntryToResponse(entry, s.clock.location()), nil
}

// GetToday implements attendance.ClockService.
func (s *ClockServiceImpl) GetToday(ctx context.Context, workerID int64) (attendance.TimeEntryResponse, error) {
	entry, err := s.entries.GetTodayForWorker(ctx, workerID, s.clock.today())
	if err != nil {
		return attendance.TimeEntryResponse{}, fmt.Errorf("failed to get today's time entry: %w", err)
	}
	if entry == nil {
		return attendance.TimeEntryResponse{}, attendance.ErrNoTimeEntryToday
	}

	return mapTimeEntryToResponse(*entry, s.clock.location()), nil
}

// ListEntries implements attendance.ClockService.
func (s *ClockServiceImpl) ListEntries(ctx context.Context, filter attendance.TimeEntryFilter) (attendance.ListTimeEntryResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListTimeEntryResponse{}, err
	}

	entries, total, err := s.entries.List(ctx, filter)
	if err != nil {
		return attendance.ListTimeEntryResponse{}, fmt.Errorf("failed to list time entries: %w", err)
	}

	// Map to response
	responses := make([]attendance.TimeEntryResponse, 0, len(entries))
	for _, e := range entries {
		responses = append(responses, mapTimeEntryToResponse(e, s.clock.location()))
	}

	totalPages, showing := paginate(total, filter.Page, filter.Limit)

	return attendance.ListTimeEntryResponse{
		TotalCount:  total,
		Page:        filter.Page,
		Limit:       filter.Limit,
		TotalPages:  totalPages,
		Showing:     showing,
		TimeEntries: responses,
	}, nil
}
