package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/workforce-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/workforce-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/validator"
)

type ChangeRequestHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	ListMine(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
}

type changeRequestHandlerImpl struct {
	changeRequestService attendance.ChangeRequestService
	clockService         attendance.ClockService
}

func NewChangeRequestHandler(changeRequestService attendance.ChangeRequestService, clockService attendance.ClockService) ChangeRequestHandler {
	return &changeRequestHandlerImpl{
		changeRequestService: changeRequestService,
		clockService:         clockService,
	}
}

// Create implements ChangeRequestHandler. Workers file requests for their own
// entries; admins may file on behalf of the entry's worker.
func (h *changeRequestHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	workerID, err := middleware.WorkerIDFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req attendance.CreateChangeRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if !middleware.IsAdmin(r.Context()) {
		req.WorkerID = &workerID
	}

	// A request is always filed for the worker who owns the entry.
	if req.TimeEntryID > 0 {
		entry, err := h.clockService.GetEntry(r.Context(), req.TimeEntryID)
		if err != nil {
			response.HandleError(w, err)
			return
		}
		if !ownsOrAdmin(w, r, entry.WorkerID) {
			return
		}
		if req.WorkerID == nil {
			ownerID := entry.WorkerID
			req.WorkerID = &ownerID
		} else if *req.WorkerID != entry.WorkerID {
			response.HandleError(w, validator.ValidationErrors{{
				Field:   "user_id",
				Message: "user_id must match the worker of registo_ponto_id",
			}})
			return
		}
	}
	if req.WorkerID == nil {
		req.WorkerID = &workerID
	}

	result, err := h.changeRequestService.CreateRequest(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Pedido de alteração criado", result)
}

// Approve implements ChangeRequestHandler.
func (h *changeRequestHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.changeRequestService.ApproveRequest(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Pedido aprovado", result)
}

// Reject implements ChangeRequestHandler.
func (h *changeRequestHandlerImpl) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.changeRequestService.RejectRequest(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Pedido rejeitado", result)
}

// Get implements ChangeRequestHandler.
func (h *changeRequestHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	req, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	response.Success(w, req)
}

// ListMine implements ChangeRequestHandler.
func (h *changeRequestHandlerImpl) ListMine(w http.ResponseWriter, r *http.Request) {
	workerID, err := middleware.WorkerIDFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	filter, err := changeRequestFilterFromQuery(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	results, err := h.changeRequestService.ListForWorker(r.Context(), workerID, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

// List implements ChangeRequestHandler.
func (h *changeRequestHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter, err := changeRequestFilterFromQuery(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	results, err := h.changeRequestService.ListAll(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

// Update implements ChangeRequestHandler.
func (h *changeRequestHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	var req attendance.UpdateChangeRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ID = existing.ID

	result, err := h.changeRequestService.UpdateRequest(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Pedido atualizado", result)
}

// Delete implements ChangeRequestHandler.
func (h *changeRequestHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	if err := h.changeRequestService.DeleteRequest(r.Context(), existing.ID); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Pedido eliminado", nil)
}

func (h *changeRequestHandlerImpl) loadOwned(w http.ResponseWriter, r *http.Request) (attendance.ChangeRequestResponse, bool) {
	id, err := pathID(r, "id")
	if err != nil {
		response.HandleError(w, err)
		return attendance.ChangeRequestResponse{}, false
	}

	req, err := h.changeRequestService.GetRequest(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return attendance.ChangeRequestResponse{}, false
	}

	var owner int64
	if req.WorkerID != nil {
		owner = *req.WorkerID
	}
	if !ownsOrAdmin(w, r, owner) {
		return attendance.ChangeRequestResponse{}, false
	}

	return req, true
}

func changeRequestFilterFromQuery(r *http.Request) (attendance.ChangeRequestFilter, error) {
	var errs validator.ValidationErrors

	filter := attendance.ChangeRequestFilter{
		WorkerID:    queryInt64(r, "user_id", &errs),
		TimeEntryID: queryInt64(r, "registo_ponto_id", &errs),
		Status:      queryString(r, "estado"),
	}
	filter.Page, filter.Limit = pagination(r, &errs)

	if len(errs) > 0 {
		return filter, errs
	}
	return filter, nil
}
