package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/metrics"
)

type BreakServiceImpl struct {
	tx      database.Transactor
	entries attendance.TimeEntryRepository
	breaks  attendance.BreakIntervalRepository
	clock   Clock
}

func NewBreakService(
	tx database.Transactor,
	timeEntryRepo attendance.TimeEntryRepository,
	breakRepo attendance.BreakIntervalRepository,
	clock Clock,
) attendance.BreakService {
	return &BreakServiceImpl{
		tx:      tx,
		entries: timeEntryRepo,
		breaks:  breakRepo,
		clock:   clock,
	}
}

// lockTodayEntry finds the worker's entry for today and locks its row.
func (s *BreakServiceImpl) lockTodayEntry(ctx context.Context, workerID int64) (attendance.TimeEntry, error) {
	today, err := s.entries.GetTodayForWorker(ctx, workerID, s.clock.today())
	if err != nil {
		return attendance.TimeEntry{}, fmt.Errorf("failed to get today's time entry: %w", err)
	}
	if today == nil {
		return attendance.TimeEntry{}, attendance.ErrNoTimeEntryToday
	}

	entry, err := s.entries.GetByIDForUpdate(ctx, today.ID)
	if err != nil {
		return attendance.TimeEntry{}, fmt.Errorf("failed to lock time entry: %w", err)
	}
	return entry, nil
}

// StartBreak implements attendance.BreakService.
func (s *BreakServiceImpl) StartBreak(ctx context.Context, workerID int64) (attendance.BreakIntervalResponse, error) {
	now := s.clock.now()

	var created attendance.BreakInterval
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		entry, err := s.lockTodayEntry(ctx, workerID)
		if err != nil {
			return err
		}
		if entry.IsClosed() {
			return attendance.ErrTimeEntryClosed
		}

		open, err := s.breaks.GetOpenByTimeEntry(ctx, entry.ID)
		if err != nil {
			return fmt.Errorf("failed to get open break: %w", err)
		}
		if open != nil {
			return attendance.ErrBreakAlreadyOpen
		}

		created, err = s.breaks.Create(ctx, attendance.BreakInterval{
			TimeEntryID: entry.ID,
			BreakStart:  now,
		})
		if err != nil {
			if errors.Is(err, attendance.ErrBreakAlreadyOpen) {
				return err
			}
			return fmt.Errorf("failed to create break: %w", err)
		}
		return nil
	})
	if err != nil {
		return attendance.BreakIntervalResponse{}, err
	}

	metrics.RecordBreakStarted()
	slog.Info("Break started", "break_id", created.ID, "time_entry_id", created.TimeEntryID, "worker_id", workerID)

	return mapBreakToResponse(created, s.clock.location()), nil
}

// EndBreak implements attendance.BreakService.
func (s *BreakServiceImpl) EndBreak(ctx context.Context, workerID int64) (attendance.BreakIntervalResponse, error) {
	now := s.clock.now()

	var closed attendance.BreakInterval
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		entry, open, err := s.findOpenBreak(ctx, workerID)
		if err != nil {
			return err
		}

		// A break left open past clock-out ends at clock-out.
		end := now
		if entry.ClockOut != nil && entry.ClockOut.Before(end) {
			end = *entry.ClockOut
		}
		if end.Before(open.BreakStart) {
			return attendance.ErrInvalidBreakTimes
		}
		duration := attendance.HoursBetween(open.BreakStart, end)

		open.BreakEnd = &end
		open.DurationHours = &duration
		if err := s.breaks.Update(ctx, *open); err != nil {
			return fmt.Errorf("failed to close break: %w", err)
		}

		entry.BreakHours = attendance.RoundHours(entry.BreakHours + duration)
		if err := s.entries.Update(ctx, entry); err != nil {
			return fmt.Errorf("failed to update break hours: %w", err)
		}

		closed = *open
		return nil
	})
	if err != nil {
		return attendance.BreakIntervalResponse{}, err
	}

	metrics.RecordBreakEnded(*closed.DurationHours)
	slog.Info("Break ended",
		"break_id", closed.ID,
		"time_entry_id", closed.TimeEntryID,
		"worker_id", workerID,
		"duration_hours", *closed.DurationHours,
	)

	return mapBreakToResponse(closed, s.clock.location()), nil
}

// findOpenBreak locks today's entry and returns its open break. A break
// started before midnight is still found on the previous day's entry.
func (s *BreakServiceImpl) findOpenBreak(ctx context.Context, workerID int64) (attendance.TimeEntry, *attendance.BreakInterval, error) {
	entry, err := s.lockTodayEntry(ctx, workerID)
	if err != nil && !errors.Is(err, attendance.ErrNoTimeEntryToday) {
		return attendance.TimeEntry{}, nil, err
	}
	todayMissing := err != nil

	if !todayMissing {
		open, err := s.breaks.GetOpenByTimeEntry(ctx, entry.ID)
		if err != nil {
			return attendance.TimeEntry{}, nil, fmt.Errorf("failed to get open break: %w", err)
		}
		if open != nil {
			return entry, open, nil
		}
	}

	prev, err := s.entries.GetTodayForWorker(ctx, workerID, s.clock.today().AddDate(0, 0, -1))
	if err != nil {
		return attendance.TimeEntry{}, nil, fmt.Errorf("failed to get previous time entry: %w", err)
	}
	if prev != nil {
		open, err := s.breaks.GetOpenByTimeEntry(ctx, prev.ID)
		if err != nil {
			return attendance.TimeEntry{}, nil, fmt.Errorf("failed to get open break: %w", err)
		}
		if open != nil {
			locked, err := s.entries.GetByIDForUpdate(ctx, prev.ID)
			if err != nil {
				return attendance.TimeEntry{}, nil, fmt.Errorf("failed to lock time entry: %w", err)
			}
			return locked, open, nil
		}
	}

	if todayMissing {
		return attendance.TimeEntry{}, nil, attendance.ErrNoTimeEntryToday
	}
	return attendance.TimeEntry{}, nil, attendance.ErrNoOpenBreak
}

// GetBreakState implements attendance.BreakService.
func (s *BreakServiceImpl) GetBreakState(ctx context.Context, workerID int64) (attendance.BreakStateResponse, error) {
	entry, err := s.entries.GetTodayForWorker(ctx, workerID, s.clock.today())
	if err != nil {
		return attendance.BreakStateResponse{}, fmt.Errorf("failed to get today's time entry: %w", err)
	}
	if entry == nil {
		return attendance.BreakStateResponse{}, nil
	}

	state := attendance.BreakStateResponse{
		TimeEntryID: &entry.ID,
		ClockedIn:   entry.ClockIn != nil,
		ClockedOut:  entry.ClockOut != nil,
	}

	open, err := s.breaks.GetOpenByTimeEntry(ctx, entry.ID)
	if err != nil {
		return attendance.BreakStateResponse{}, fmt.Errorf("failed to get open break: %w", err)
	}
	if open != nil {
		state.OpenBreak = true
		state.BreakStart = clockPtrToString(&open.BreakStart, s.clock.location())
	}

	return state, nil
}

// ListBreaks implements attendance.BreakService.
func (s *BreakServiceImpl) ListBreaks(ctx context.Context, timeEntryID int64) ([]attendance.BreakIntervalResponse, error) {
	if _, err := s.entries.GetByID(ctx, timeEntryID); err != nil {
		if errors.Is(err, attendance.ErrTimeEntryNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get time entry: %w", err)
	}

	intervals, err := s.breaks.ListByTimeEntry(ctx, timeEntryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list breaks: %w", err)
	}

	responses := make([]attendance.BreakIntervalResponse, 0, len(intervals))
	for _, b := range intervals {
		responses = append(responses, mapBreakToResponse(b, s.clock.location()))
	}
	return responses, nil
}
