package attendance

import "errors"

// Attendance domain errors
var (
	// Time entry errors
	ErrTimeEntryNotFound  = errors.New("time entry not found")
	ErrNoTimeEntryToday   = errors.New("no time entry for today")
	ErrAlreadyClockedOut  = errors.New("already clocked in and out today")
	ErrDuplicateTimeEntry = errors.New("a time entry already exists for this worker, company and day")
	ErrTimeEntryClosed    = errors.New("time entry is already closed")

	// Break errors
	ErrBreakAlreadyOpen  = errors.New("break already open")
	ErrNoOpenBreak       = errors.New("no open break to end")
	ErrInvalidBreakTimes = errors.New("break times could not be resolved")

	// Change request errors
	ErrChangeRequestNotFound         = errors.New("change request not found")
	ErrChangeRequestAlreadyProcessed = errors.New("change request has already been approved or rejected")
)
