package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/company"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleError_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", validator.ValidationErrors{{Field: "motivo", Message: "too short"}}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"company not found", company.ErrCompanyNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"no entry today", attendance.ErrNoTimeEntryToday, http.StatusNotFound, "NOT_FOUND"},
		{"wrapped not found", fmt.Errorf("lookup: %w", attendance.ErrTimeEntryNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"double clock-out", attendance.ErrAlreadyClockedOut, http.StatusConflict, "CONFLICT"},
		{"break open", attendance.ErrBreakAlreadyOpen, http.StatusConflict, "CONFLICT"},
		{"no open break", attendance.ErrNoOpenBreak, http.StatusConflict, "CONFLICT"},
		{"processed", attendance.ErrChangeRequestAlreadyProcessed, http.StatusConflict, "CONFLICT"},
		{"break times", attendance.ErrInvalidBreakTimes, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
		{"token", auth.ErrInvalidToken, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"admin", auth.ErrAdminPrivilegeRequired, http.StatusForbidden, "FORBIDDEN"},
		{"rate limited", auth.ErrRateLimited, http.StatusTooManyRequests, "TOO_MANY_REQUESTS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			// Act
			HandleError(w, tt.err)

			assert.Equal(t, tt.status, w.Code)
			var resp Response
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestHandleError_ValidationDetails(t *testing.T) {
	w := httptest.NewRecorder()

	HandleError(w, validator.ValidationErrors{{Field: "empresa", Message: "empresa is required"}})

	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "empresa is required", resp.Error.Details["empresa"])
}

func TestHandleError_UnknownErrorCarriesID(t *testing.T) {
	w := httptest.NewRecorder()

	HandleError(w, errors.New("connection reset"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.NotEmpty(t, resp.Error.Details["error_id"])
	assert.NotContains(t, resp.Error.Message, "connection reset")
}

func TestFile(t *testing.T) {
	w := httptest.NewRecorder()

	File(w, "text/csv", "registos.csv", []byte("a,b\n"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="registos.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "4", w.Header().Get("Content-Length"))
	assert.Equal(t, "a,b\n", w.Body.String())
}
