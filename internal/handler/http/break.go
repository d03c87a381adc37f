package http

import (
	"net/http"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/workforce-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/workforce-backend-go/internal/handler/http/response"
)

type BreakHandler interface {
	Start(w http.ResponseWriter, r *http.Request)
	End(w http.ResponseWriter, r *http.Request)
	ListByEntry(w http.ResponseWriter, r *http.Request)
}

type breakHandlerImpl struct {
	breakService attendance.BreakService
	clockService attendance.ClockService
}

func NewBreakHandler(breakService attendance.BreakService, clockService attendance.ClockService) BreakHandler {
	return &breakHandlerImpl{
		breakService: breakService,
		clockService: clockService,
	}
}

// Start implements BreakHandler.
func (h *breakHandlerImpl) Start(w http.ResponseWriter, r *http.Request) {
	workerID, err := middleware.WorkerIDFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	interval, err := h.breakService.StartBreak(r.Context(), workerID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Intervalo iniciado", interval)
}

// End implements BreakHandler.
func (h *breakHandlerImpl) End(w http.ResponseWriter, r *http.Request) {
	workerID, err := middleware.WorkerIDFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	interval, err := h.breakService.EndBreak(r.Context(), workerID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Intervalo finalizado", interval)
}

// ListByEntry implements BreakHandler.
func (h *breakHandlerImpl) ListByEntry(w http.ResponseWriter, r *http.Request) {
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

	breaks, err := h.breakService.ListBreaks(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, breaks)
}
