package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/report"
	"github.com/cmlabs-hris/workforce-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/workforce-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/validator"
)

type AttendanceHandler interface {
	RegisterClock(w http.ResponseWriter, r *http.Request)
	ReadQR(w http.ResponseWriter, r *http.Request)
	RegisterForOther(w http.ResponseWriter, r *http.Request)
	Edit(w http.ResponseWriter, r *http.Request)
	GetBreakState(w http.ResponseWriter, r *http.Request)
	GetToday(w http.ResponseWriter, r *http.Request)
	ListMine(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Export(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	clockService  attendance.ClockService
	breakService  attendance.BreakService
	reportService report.ReportService
}

func NewAttendanceHandler(clockService attendance.ClockService, breakService attendance.BreakService, reportService report.ReportService) AttendanceHandler {
	return &attendanceHandlerImpl{
		clockService:  clockService,
		breakService:  breakService,
		reportService: reportService,
	}
}

// RegisterClock implements AttendanceHandler.
func (h *attendanceHandlerImpl) RegisterClock(w http.ResponseWriter, r *http.Request) {
	workerID, err := middleware.WorkerIDFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req attendance.ClockActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Debug("Failed to decode clock request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.WorkerID = workerID
	req.Source = attendance.ClockSourceButton

	h.clock(w, r, req)
}

// ReadQR implements AttendanceHandler.
func (h *attendanceHandlerImpl) ReadQR(w http.ResponseWriter, r *http.Request) {
	workerID, err := middleware.WorkerIDFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var qr attendance.QRClockRequest
	if err := json.NewDecoder(r.Body).Decode(&qr); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	req, err := qr.ToClockAction(workerID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	h.clock(w, r, req)
}

// RegisterForOther implements AttendanceHandler. The body names the worker.
func (h *attendanceHandlerImpl) RegisterForOther(w http.ResponseWriter, r *http.Request) {
	var req attendance.ClockActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.Source = attendance.ClockSourceOnBehalf

	h.clock(w, r, req)
}

func (h *attendanceHandlerImpl) clock(w http.ResponseWriter, r *http.Request, req attendance.ClockActionRequest) {
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.clockService.ClockAction(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if result.Action == attendance.ClockActionEntry {
		response.Created(w, "Entrada registada", result)
		return
	}
	response.SuccessWithMessage(w, "Saída registada", result)
}

// Edit implements AttendanceHandler. Workers may only edit their own entries.
func (h *attendanceHandlerImpl) Edit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "registoId")
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if !h.canAccessEntry(w, r, id) {
		return
	}

	var req attendance.EditEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ID = id

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.clockService.EditEntry(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Registo atualizado", result)
}

// GetBreakState implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetBreakState(w http.ResponseWriter, r *http.Request) {
	workerID, err := middleware.WorkerIDFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	state, err := h.breakService.GetBreakState(r.Context(), workerID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, state)
}

// GetToday implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetToday(w http.ResponseWriter, r *http.Request) {
	workerID, err := middleware.WorkerIDFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	entry, err := h.clockService.GetToday(r.Context(), workerID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, entry)
}

// ListMine implements AttendanceHandler.
func (h *attendanceHandlerImpl) ListMine(w http.ResponseWriter, r *http.Request) {
	workerID, err := middleware.WorkerIDFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	filter, err := timeEntryFilterFromQuery(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	filter.WorkerID = &workerID

	h.list(w, r, filter)
}

// List implements AttendanceHandler.
func (h *attendanceHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter, err := timeEntryFilterFromQuery(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	h.list(w, r, filter)
}

func (h *attendanceHandlerImpl) list(w http.ResponseWriter, r *http.Request, filter attendance.TimeEntryFilter) {
	if err := filter.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	results, err := h.clockService.ListEntries(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

// Get implements AttendanceHandler.
func (h *attendanceHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "registoId")
	if err != nil {
		response.HandleError(w, err)
		return
	}

	entry, err := h.clockService.GetEntry(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if !ownsOrAdmin(w, r, entry.WorkerID) {
		return
	}

	response.Success(w, entry)
}

// Export implements AttendanceHandler.
func (h *attendanceHandlerImpl) Export(w http.ResponseWriter, r *http.Request) {
	filter, err := timeEntryFilterFromQuery(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	sheet, err := h.reportService.ExportTimesheet(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.File(w, report.TimesheetContentType, sheet.FileName, sheet.Content)
}

func (h *attendanceHandlerImpl) canAccessEntry(w http.ResponseWriter, r *http.Request, id int64) bool {
	if middleware.IsAdmin(r.Context()) {
		return true
	}

	entry, err := h.clockService.GetEntry(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return false
	}

	return ownsOrAdmin(w, r, entry.WorkerID)
}

// ownsOrAdmin writes a 403 and returns false when the caller neither is an
// admin nor the given worker.
func ownsOrAdmin(w http.ResponseWriter, r *http.Request, ownerID int64) bool {
	if middleware.IsAdmin(r.Context()) {
		return true
	}

	workerID, err := middleware.WorkerIDFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return false
	}

	if workerID != ownerID {
		response.Forbidden(w, "You can only access your own records")
		return false
	}
	return true
}

func timeEntryFilterFromQuery(r *http.Request) (attendance.TimeEntryFilter, error) {
	var errs validator.ValidationErrors

	filter := attendance.TimeEntryFilter{
		WorkerID:  queryInt64(r, "user_id", &errs),
		CompanyID: queryInt64(r, "empresa_id", &errs),
		StartDate: queryString(r, "start_date"),
		EndDate:   queryString(r, "end_date"),
	}
	filter.Page, filter.Limit = pagination(r, &errs)

	if len(errs) > 0 {
		return filter, errs
	}
	return filter, nil
}
