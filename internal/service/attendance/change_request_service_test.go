package attendance

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validReason = "forgot to clock in at the gate"

// openClosedEntry registers an 08:00-17:00 day for worker 7 on 2024-01-05.
func openClosedEntry(t *testing.T, env *testEnv) attendance.TimeEntryResponse {
	t.Helper()
	ctx := context.Background()
	env.store.AddCompany("Acme", 1.0)

	_, err := env.clocks.ClockAction(ctx, clockReq(7, "Acme"))
	require.NoError(t, err)
	env.clock.Set(17, 0)
	exit, err := env.clocks.ClockAction(ctx, clockReq(7, "Acme"))
	require.NoError(t, err)
	return exit.Entry
}

func workerPtr(id int64) *int64 { return &id }

// ===== CREATE TESTS =====

func TestChangeRequestService_CreateRequest_Pending(t *testing.T) {
	env := newTestEnv(t)
	entry := openClosedEntry(t, env)

	created, err := env.requests.CreateRequest(context.Background(), attendance.CreateChangeRequestRequest{
		WorkerID:    workerPtr(7),
		TimeEntryID: entry.ID,
		NewClockIn:  strPtr("2024-01-05T07:00:00"),
		Reason:      validReason,
	})
	require.NoError(t, err)

	assert.Equal(t, "pendente", created.Status)
	assert.Equal(t, entry.ID, created.TimeEntryID)
	assert.Equal(t, int64(7), *created.WorkerID)
	require.NotNil(t, created.NewClockIn)
	assert.Equal(t, "2024-01-05T07:00:00+01:00", *created.NewClockIn)
	assert.Nil(t, created.NewClockOut)
}

func TestChangeRequestService_CreateRequest_Validation(t *testing.T) {
	env := newTestEnv(t)
	entry := openClosedEntry(t, env)

	tests := []struct {
		name  string
		req   attendance.CreateChangeRequestRequest
		field string
	}{
		{
			name:  "no proposed times",
			req:   attendance.CreateChangeRequestRequest{TimeEntryID: entry.ID, Reason: validReason},
			field: "novaHoraEntrada",
		},
		{
			name:  "reason too short",
			req:   attendance.CreateChangeRequestRequest{TimeEntryID: entry.ID, NewClockOut: strPtr("2024-01-05T18:00"), Reason: "too short"},
			field: "motivo",
		},
		{
			name:  "reason too long",
			req:   attendance.CreateChangeRequestRequest{TimeEntryID: entry.ID, NewClockOut: strPtr("2024-01-05T18:00"), Reason: strings.Repeat("a", 256)},
			field: "motivo",
		},
		{
			name:  "unparseable time",
			req:   attendance.CreateChangeRequestRequest{TimeEntryID: entry.ID, NewClockOut: strPtr("quarter past five"), Reason: validReason},
			field: "novaHoraSaida",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.requests.CreateRequest(context.Background(), tt.req)

			var verrs validator.ValidationErrors
			require.True(t, errors.As(err, &verrs))
			assert.Contains(t, verrs.ToMap(), tt.field)
		})
	}
}

func TestChangeRequestService_CreateRequest_UnknownEntry(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.requests.CreateRequest(context.Background(), attendance.CreateChangeRequestRequest{
		TimeEntryID: 99,
		NewClockIn:  strPtr("2024-01-05T07:00"),
		Reason:      validReason,
	})
	assert.ErrorIs(t, err, attendance.ErrTimeEntryNotFound)
}

// ===== APPROVAL TESTS =====

func TestChangeRequestService_ApproveRequest_KeepsEntryDate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	entry := openClosedEntry(t, env)

	created, err := env.requests.CreateRequest(ctx, attendance.CreateChangeRequestRequest{
		WorkerID:    workerPtr(7),
		TimeEntryID: entry.ID,
		NewClockIn:  strPtr("2024-01-01T07:00:00"),
		Reason:      validReason,
	})
	require.NoError(t, err)

	// Act
	approved, err := env.requests.ApproveRequest(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "aprovado", approved.Status)

	updated, err := env.clocks.GetEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-05T07:00:00+01:00", *updated.ClockIn)
	assert.Equal(t, "2024-01-05T17:00:00+01:00", *updated.ClockOut)
	assert.Equal(t, 10.0, updated.WorkedHours)
	assert.Equal(t, entry.BreakHours, updated.BreakHours)
}

func TestChangeRequestService_ApproveRequest_DropsSeconds(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	entry := openClosedEntry(t, env)

	created, err := env.requests.CreateRequest(ctx, attendance.CreateChangeRequestRequest{
		TimeEntryID: entry.ID,
		NewClockOut: strPtr("2024-01-05T18:20:45"),
		Reason:      validReason,
	})
	require.NoError(t, err)

	_, err = env.requests.ApproveRequest(ctx, created.ID)
	require.NoError(t, err)

	updated, err := env.clocks.GetEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-05T18:20:00+01:00", *updated.ClockOut)
	assert.Equal(t, 10.33, updated.WorkedHours)
}

func TestChangeRequestService_ApproveRequest_Twice(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	entry := openClosedEntry(t, env)

	created, err := env.requests.CreateRequest(ctx, attendance.CreateChangeRequestRequest{
		TimeEntryID: entry.ID,
		NewClockIn:  strPtr("2024-01-05T07:00"),
		Reason:      validReason,
	})
	require.NoError(t, err)

	_, err = env.requests.ApproveRequest(ctx, created.ID)
	require.NoError(t, err)

	// Move the entry after approval; a second approval must not touch it again
	_, err = env.clocks.EditEntry(ctx, attendance.EditEntryRequest{ID: entry.ID, ClockIn: strPtr("09:00")})
	require.NoError(t, err)

	_, err = env.requests.ApproveRequest(ctx, created.ID)
	assert.ErrorIs(t, err, attendance.ErrChangeRequestAlreadyProcessed)

	_, err = env.requests.RejectRequest(ctx, created.ID)
	assert.ErrorIs(t, err, attendance.ErrChangeRequestAlreadyProcessed)

	current, err := env.clocks.GetEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-05T09:00:00+01:00", *current.ClockIn)
	assert.Equal(t, 8.0, current.WorkedHours)
}

func TestChangeRequestService_ApproveRequest_NotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.requests.ApproveRequest(context.Background(), 5)
	assert.ErrorIs(t, err, attendance.ErrChangeRequestNotFound)
}

func TestChangeRequestService_ApproveRequest_ClockOutBeforeClockIn(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	entry := openClosedEntry(t, env)

	created, err := env.requests.CreateRequest(ctx, attendance.CreateChangeRequestRequest{
		TimeEntryID: entry.ID,
		NewClockOut: strPtr("2024-01-05T06:00:00"),
		Reason:      validReason,
	})
	require.NoError(t, err)

	// Act
	_, err = env.requests.ApproveRequest(ctx, created.ID)

	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Contains(t, verrs.ToMap(), "novaHoraSaida")

	current, err := env.clocks.GetEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-05T17:00:00+01:00", *current.ClockOut)
	assert.Equal(t, 9.0, current.WorkedHours)

	pending, err := env.requests.GetRequest(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "pendente", pending.Status)
}

// ===== REJECTION TESTS =====

func TestChangeRequestService_RejectRequest_LeavesEntryUntouched(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	entry := openClosedEntry(t, env)

	created, err := env.requests.CreateRequest(ctx, attendance.CreateChangeRequestRequest{
		TimeEntryID: entry.ID,
		NewClockIn:  strPtr("2024-01-05T06:00"),
		NewClockOut: strPtr("2024-01-05T20:00"),
		Reason:      validReason,
	})
	require.NoError(t, err)

	before, err := env.store.TimeEntries().GetByID(ctx, entry.ID)
	require.NoError(t, err)

	env.clock.Set(18, 0)
	rejected, err := env.requests.RejectRequest(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "rejeitado", rejected.Status)

	after, err := env.store.TimeEntries().GetByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	_, err = env.requests.ApproveRequest(ctx, created.ID)
	assert.ErrorIs(t, err, attendance.ErrChangeRequestAlreadyProcessed)
}

// ===== CRUD TESTS =====

func TestChangeRequestService_UpdateRequest(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	entry := openClosedEntry(t, env)

	created, err := env.requests.CreateRequest(ctx, attendance.CreateChangeRequestRequest{
		TimeEntryID: entry.ID,
		NewClockIn:  strPtr("2024-01-05T07:00"),
		Reason:      validReason,
	})
	require.NoError(t, err)

	// Act: swap the proposal from clock-in to clock-out
	updated, err := env.requests.UpdateRequest(ctx, attendance.UpdateChangeRequestRequest{
		ID:          created.ID,
		NewClockIn:  strPtr(""),
		NewClockOut: strPtr("2024-01-05T18:00"),
		Reason:      strPtr("left later than registered"),
	})
	require.NoError(t, err)

	assert.Nil(t, updated.NewClockIn)
	assert.Equal(t, "2024-01-05T18:00:00+01:00", *updated.NewClockOut)
	assert.Equal(t, "left later than registered", updated.Reason)
	assert.Equal(t, "pendente", updated.Status)

	// Clearing the last proposal is refused
	_, err = env.requests.UpdateRequest(ctx, attendance.UpdateChangeRequestRequest{ID: created.ID, NewClockOut: strPtr("")})
	var verrs validator.ValidationErrors
	assert.True(t, errors.As(err, &verrs))
}

func TestChangeRequestService_UpdateAndDelete_OnlyWhilePending(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	entry := openClosedEntry(t, env)

	created, err := env.requests.CreateRequest(ctx, attendance.CreateChangeRequestRequest{
		TimeEntryID: entry.ID,
		NewClockIn:  strPtr("2024-01-05T07:00"),
		Reason:      validReason,
	})
	require.NoError(t, err)
	_, err = env.requests.RejectRequest(ctx, created.ID)
	require.NoError(t, err)

	_, err = env.requests.UpdateRequest(ctx, attendance.UpdateChangeRequestRequest{ID: created.ID, Reason: strPtr(validReason + " again")})
	assert.ErrorIs(t, err, attendance.ErrChangeRequestAlreadyProcessed)

	err = env.requests.DeleteRequest(ctx, created.ID)
	assert.ErrorIs(t, err, attendance.ErrChangeRequestAlreadyProcessed)
}

func TestChangeRequestService_DeleteRequest(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	entry := openClosedEntry(t, env)

	created, err := env.requests.CreateRequest(ctx, attendance.CreateChangeRequestRequest{
		TimeEntryID: entry.ID,
		NewClockIn:  strPtr("2024-01-05T07:00"),
		Reason:      validReason,
	})
	require.NoError(t, err)

	require.NoError(t, env.requests.DeleteRequest(ctx, created.ID))

	_, err = env.requests.GetRequest(ctx, created.ID)
	assert.ErrorIs(t, err, attendance.ErrChangeRequestNotFound)
}

func TestChangeRequestService_Lists(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	entry := openClosedEntry(t, env)

	for _, worker := range []int64{7, 7, 8} {
		_, err := env.requests.CreateRequest(ctx, attendance.CreateChangeRequestRequest{
			WorkerID:    workerPtr(worker),
			TimeEntryID: entry.ID,
			NewClockIn:  strPtr("2024-01-05T07:00"),
			Reason:      validReason,
		})
		require.NoError(t, err)
	}

	mine, err := env.requests.ListForWorker(ctx, 7, attendance.ChangeRequestFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), mine.TotalCount)
	assert.Len(t, mine.ChangeRequests, 2)

	_, err = env.requests.RejectRequest(ctx, mine.ChangeRequests[0].ID)
	require.NoError(t, err)

	pending := "pendente"
	all, err := env.requests.ListAll(ctx, attendance.ChangeRequestFilter{Status: &pending})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.TotalCount)
	assert.Equal(t, "1-2 of 2", all.Showing)

	bad := "archived"
	_, err = env.requests.ListAll(ctx, attendance.ChangeRequestFilter{Status: &bad})
	var verrs validator.ValidationErrors
	assert.True(t, errors.As(err, &verrs))
}
