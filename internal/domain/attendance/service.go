package attendance

import (
	"context"
)

// ClockService is the time registration engine.
type ClockService interface {
	// ClockAction opens today's entry on the first call and closes it on the second.
	// Manual, QR and on-behalf registrations all go through here.
	ClockAction(ctx context.Context, req ClockActionRequest) (ClockActionResult, error)

	// EditEntry is a direct administrative override, no approval involved
	EditEntry(ctx context.Context, req EditEntryRequest) (TimeEntryResponse, error)

	GetEntry(ctx context.Context, id int64) (TimeEntryResponse, error)

	// GetToday returns ErrNoTimeEntryToday when the worker has not clocked in today
	GetToday(ctx context.Context, workerID int64) (TimeEntryResponse, error)

	ListEntries(ctx context.Context, filter TimeEntryFilter) (ListTimeEntryResponse, error)
}

// BreakService is the break engine. It always operates on the worker's entry for today.
type BreakService interface {
	StartBreak(ctx context.Context, workerID int64) (BreakIntervalResponse, error)
	EndBreak(ctx context.Context, workerID int64) (BreakIntervalResponse, error)
	GetBreakState(ctx context.Context, workerID int64) (BreakStateResponse, error)
	ListBreaks(ctx context.Context, timeEntryID int64) ([]BreakIntervalResponse, error)
}

// ChangeRequestService is the change request engine.
type ChangeRequestService interface {
	CreateRequest(ctx context.Context, req CreateChangeRequestRequest) (ChangeRequestResponse, error)

	// ApproveRequest applies the proposed times to the time entry. Only pending requests qualify.
	ApproveRequest(ctx context.Context, id int64) (ChangeRequestResponse, error)

	// RejectRequest changes the status only
	RejectRequest(ctx context.Context, id int64) (ChangeRequestResponse, error)

	GetRequest(ctx context.Context, id int64) (ChangeRequestResponse, error)
	ListForWorker(ctx context.Context, workerID int64, filter ChangeRequestFilter) (ListChangeRequestResponse, error)
	ListAll(ctx context.Context, filter ChangeRequestFilter) (ListChangeRequestResponse, error)
	UpdateRequest(ctx context.Context, req UpdateChangeRequestRequest) (ChangeRequestResponse, error)
	DeleteRequest(ctx context.Context, id int64) error
}
