package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/company"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/validator"
	"github.com/google/uuid"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrMissingWorkerID):
		Unauthorized(w, "Invalid or expired token")
	case errors.Is(err, auth.ErrTokenExpired):
		Unauthorized(w, "Token expired")
	case errors.Is(err, auth.ErrAdminPrivilegeRequired):
		Forbidden(w, "Admin privilege required")
	case errors.Is(err, auth.ErrRateLimited):
		TooManyRequests(w, "Too many requests, try again shortly")

	// Company directory
	case errors.Is(err, company.ErrCompanyNotFound):
		NotFound(w, "Company not found")

	// Time entry errors
	case errors.Is(err, attendance.ErrTimeEntryNotFound):
		NotFound(w, "Time entry not found")
	case errors.Is(err, attendance.ErrNoTimeEntryToday):
		NotFound(w, "No time entry for today")
	case errors.Is(err, attendance.ErrAlreadyClockedOut):
		Conflict(w, "Already clocked in and out today")
	case errors.Is(err, attendance.ErrDuplicateTimeEntry):
		Conflict(w, "A time entry already exists for today")
	case errors.Is(err, attendance.ErrTimeEntryClosed):
		Conflict(w, "Time entry is already closed")

	// Break errors
	case errors.Is(err, attendance.ErrBreakAlreadyOpen):
		Conflict(w, "Break already open")
	case errors.Is(err, attendance.ErrNoOpenBreak):
		Conflict(w, "No open break to end")
	case errors.Is(err, attendance.ErrInvalidBreakTimes):
		InternalServerError(w, "Break times could not be resolved", nil)

	// Change request errors
	case errors.Is(err, attendance.ErrChangeRequestNotFound):
		NotFound(w, "Change request not found")
	case errors.Is(err, attendance.ErrChangeRequestAlreadyProcessed):
		Conflict(w, "Change request already processed")

	// Default
	default:
		errorID := uuid.NewString()
		slog.Error("Unhandled error", "error_id", errorID, "error", err)
		InternalServerError(w, "An unexpected error occurred", map[string]string{"error_id": errorID})
	}
}
