package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/metrics"
)

// Pruner drops idle per-client state, returning how many items were removed.
type Pruner interface {
	Cleanup(maxIdle time.Duration) int
}

// MaintenanceJobs holds the housekeeping tasks for the time registration core.
type MaintenanceJobs struct {
	entries  attendance.TimeEntryRepository
	limiter  Pruner
	now      func() time.Time
	location *time.Location
	maxIdle  time.Duration
}

func NewMaintenanceJobs(entries attendance.TimeEntryRepository, limiter Pruner, now func() time.Time, loc *time.Location) *MaintenanceJobs {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &MaintenanceJobs{
		entries:  entries,
		limiter:  limiter,
		now:      now,
		location: loc,
		maxIdle:  10 * time.Minute,
	}
}

func (j *MaintenanceJobs) RegisterJobs(scheduler *Scheduler, unclosedInterval time.Duration) {
	scheduler.AddJob("report_unclosed_time_entries", unclosedInterval, j.ReportUnclosedTimeEntries)
	if j.limiter != nil {
		scheduler.AddJob("prune_rate_limiters", j.maxIdle, j.PruneRateLimiters)
	}
}

// ReportUnclosedTimeEntries flags entries from past days that never got a
// clock-out. Entries are reported, not closed.
func (j *MaintenanceJobs) ReportUnclosedTimeEntries(ctx context.Context) error {
	today := attendance.DateOf(j.now(), j.location)

	entries, err := j.entries.ListUnclosedBefore(ctx, today)
	if err != nil {
		return fmt.Errorf("failed to list unclosed time entries: %w", err)
	}

	for _, entry := range entries {
		slog.Warn("Time entry left open",
			"time_entry_id", entry.ID,
			"worker_id", entry.WorkerID,
			"company_id", entry.CompanyID,
			"date", entry.Date.Format("2006-01-02"),
		)
	}
	metrics.SetUnclosedTimeEntries(len(entries))

	if len(entries) > 0 {
		slog.Info("Cron: unclosed time entries reported", "count", len(entries))
	}
	return nil
}

func (j *MaintenanceJobs) PruneRateLimiters(ctx context.Context) error {
	removed := j.limiter.Cleanup(j.maxIdle)
	if removed > 0 {
		slog.Debug("Cron: pruned idle rate limiters", "removed", removed)
	}
	return nil
}
