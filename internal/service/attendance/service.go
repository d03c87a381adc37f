package attendance

import (
	"fmt"
	"math"
	"time"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/attendance"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = time.RFC3339
	clockLayout     = "15:04:05"
)

// Clock supplies the current instant and the timezone that defines the worker's day.
type Clock struct {
	Now      func() time.Time
	Location *time.Location
}

func (c Clock) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

func (c Clock) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

func (c Clock) today() time.Time {
	return attendance.DateOf(c.now(), c.location())
}

// timePtrToString safely converts a *time.Time to a string in loc.
func timePtrToString(t *time.Time, loc *time.Location) *string {
	if t == nil {
		return nil
	}
	format := t.In(loc).Format(timestampLayout)
	return &format
}

func clockPtrToString(t *time.Time, loc *time.Location) *string {
	if t == nil {
		return nil
	}
	format := t.In(loc).Format(clockLayout)
	return &format
}

func mapTimeEntryToResponse(e attendance.TimeEntry, loc *time.Location) attendance.TimeEntryResponse {
	return attendance.TimeEntryResponse{
		ID:          e.ID,
		WorkerID:    e.WorkerID,
		CompanyID:   e.CompanyID,
		Date:        e.Date.Format(dateLayout),
		ClockIn:     timePtrToString(e.ClockIn, loc),
		ClockOut:    timePtrToString(e.ClockOut, loc),
		WorkedHours: e.WorkedHours,
		BreakHours:  e.BreakHours,
		Latitude:    e.Latitude,
		Longitude:   e.Longitude,
		Address:     e.Address,
		SiteID:      e.SiteID,
		CreatedAt:   e.CreatedAt.In(loc).Format(timestampLayout),
		UpdatedAt:   e.UpdatedAt.In(loc).Format(timestampLayout),
	}
}

func mapBreakToResponse(b attendance.BreakInterval, loc *time.Location) attendance.BreakIntervalResponse {
	return attendance.BreakIntervalResponse{
		ID:            b.ID,
		TimeEntryID:   b.TimeEntryID,
		BreakStart:    b.BreakStart.In(loc).Format(clockLayout),
		BreakEnd:      clockPtrToString(b.BreakEnd, loc),
		DurationHours: b.DurationHours,
		StartedAt:     b.BreakStart.In(loc).Format(timestampLayout),
		EndedAt:       timePtrToString(b.BreakEnd, loc),
	}
}

func mapChangeRequestToResponse(c attendance.ChangeRequest, loc *time.Location) attendance.ChangeRequestResponse {
	return attendance.ChangeRequestResponse{
		ID:          c.ID,
		WorkerID:    c.WorkerID,
		TimeEntryID: c.TimeEntryID,
		NewClockIn:  timePtrToString(c.NewClockIn, loc),
		NewClockOut: timePtrToString(c.NewClockOut, loc),
		Reason:      c.Reason,
		Status:      string(c.Status),
		CreatedAt:   c.CreatedAt.In(loc).Format(timestampLayout),
		UpdatedAt:   c.UpdatedAt.In(loc).Format(timestampLayout),
	}
}

// paginate returns the page count and the "x-y of n" label for a listing
func paginate(total int64, page, limit int) (int, string) {
	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	start := (page-1)*limit + 1
	if int64(start) > total {
		return totalPages, fmt.Sprintf("0 of %d", total)
	}
	showing := fmt.Sprintf("%d-%d of %d", start, min(page*limit, int(total)), total)
	return totalPages, showing
}
