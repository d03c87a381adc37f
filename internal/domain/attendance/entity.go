package attendance

import (
	"math"
	"time"
)

// TimeEntry is one worker's clock-in/out record for one company on one calendar day.
type TimeEntry struct {
	ID        int64
	WorkerID  int64
	CompanyID int64

	// Date is the worker's local calendar day, stored at UTC midnight.
	Date time.Time

	// Absolute instants
	ClockIn  *time.Time
	ClockOut *time.Time

	WorkedHours float64
	BreakHours  float64

	Latitude  *float64
	Longitude *float64
	Address   *string
	SiteID    *int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsOpen reports whether the worker has clocked in but not out.
func (t TimeEntry) IsOpen() bool {
	return t.ClockIn != nil && t.ClockOut == nil
}

func (t TimeEntry) IsClosed() bool {
	return t.ClockIn != nil && t.ClockOut != nil
}

// RecomputeWorkedHours keeps WorkedHours in line with the clock pair.
func (t *TimeEntry) RecomputeWorkedHours() {
	if t.ClockIn != nil && t.ClockOut != nil {
		t.WorkedHours = HoursBetween(*t.ClockIn, *t.ClockOut)
	}
}

// BreakInterval is one pause within a TimeEntry.
type BreakInterval struct {
	ID            int64
	TimeEntryID   int64
	BreakStart    time.Time
	BreakEnd      *time.Time
	DurationHours *float64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (b BreakInterval) IsOpen() bool {
	return b.BreakEnd == nil
}

type ChangeRequestStatus string

const (
	ChangeRequestStatusPending  ChangeRequestStatus = "pendente"
	ChangeRequestStatusApproved ChangeRequestStatus = "aprovado"
	ChangeRequestStatusRejected ChangeRequestStatus = "rejeitado"
)

func (s ChangeRequestStatus) IsValid() bool {
	switch s {
	case ChangeRequestStatusPending, ChangeRequestStatusApproved, ChangeRequestStatusRejected:
		return true
	}
	return false
}

// ChangeRequest asks an approver to correct a TimeEntry's clock times.
type ChangeRequest struct {
	ID int64

	// WorkerID is nil once the requesting worker has been removed.
	WorkerID    *int64
	TimeEntryID int64
	NewClockIn  *time.Time
	NewClockOut *time.Time
	Reason      string
	Status      ChangeRequestStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (c ChangeRequest) IsPending() bool {
	return c.Status == ChangeRequestStatusPending
}

// HoursBetween returns (to - from) in hours rounded to 2 decimals.
func HoursBetween(from, to time.Time) float64 {
	return RoundHours(to.Sub(from).Hours())
}

func RoundHours(h float64) float64 {
	return math.Round(h*100) / 100
}

// DateOf returns the calendar day of t in loc, normalised to UTC midnight.
func DateOf(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// AtTimeOfDay places the hour and minute of clock on day, read in loc.
// Seconds and sub-seconds are dropped.
func AtTimeOfDay(day time.Time, clock time.Time, loc *time.Location) time.Time {
	c := clock.In(loc)
	return time.Date(day.Year(), day.Month(), day.Day(), c.Hour(), c.Minute(), 0, 0, loc)
}
