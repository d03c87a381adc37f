package memory

import (
	"context"
	"sort"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/attendance"
)

type changeRequestRepository struct {
	s *Store
}

func cloneRequest(c attendance.ChangeRequest) attendance.ChangeRequest {
	c.NewClockIn = cloneTime(c.NewClockIn)
	c.NewClockOut = cloneTime(c.NewClockOut)
	if c.WorkerID != nil {
		id := *c.WorkerID
		c.WorkerID = &id
	}
	return c
}

// Create implements attendance.ChangeRequestRepository.
func (r *changeRequestRepository) Create(ctx context.Context, request attendance.ChangeRequest) (attendance.ChangeRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.entries[request.TimeEntryID]; !ok {
		return attendance.ChangeRequest{}, attendance.ErrTimeEntryNotFound
	}

	r.s.nextRequestID++
	now := r.s.Now()
	request.ID = r.s.nextRequestID
	request.CreatedAt = now
	request.UpdatedAt = now
	r.s.requests[request.ID] = cloneRequest(request)
	return request, nil
}

// GetByID implements attendance.ChangeRequestRepository.
func (r *changeRequestRepository) GetByID(ctx context.Context, id int64) (attendance.ChangeRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.requests[id]
	if !ok {
		return attendance.ChangeRequest{}, attendance.ErrChangeRequestNotFound
	}
	return cloneRequest(c), nil
}

// GetByIDForUpdate implements attendance.ChangeRequestRepository.
func (r *changeRequestRepository) GetByIDForUpdate(ctx context.Context, id int64) (attendance.ChangeRequest, error) {
	return r.GetByID(ctx, id)
}

// Update implements attendance.ChangeRequestRepository.
func (r *changeRequestRepository) Update(ctx context.Context, request attendance.ChangeRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.requests[request.ID]
	if !ok {
		return attendance.ErrChangeRequestNotFound
	}

	request.WorkerID = existing.WorkerID
	request.TimeEntryID = existing.TimeEntryID
	request.CreatedAt = existing.CreatedAt
	request.UpdatedAt = r.s.Now()
	r.s.requests[request.ID] = cloneRequest(request)
	return nil
}

// Delete implements attendance.ChangeRequestRepository.
func (r *changeRequestRepository) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.requests[id]; !ok {
		return attendance.ErrChangeRequestNotFound
	}
	delete(r.s.requests, id)
	return nil
}

// List implements attendance.ChangeRequestRepository.
func (r *changeRequestRepository) List(ctx context.Context, filter attendance.ChangeRequestFilter) ([]attendance.ChangeRequest, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []attendance.ChangeRequest
	for _, c := range r.s.requests {
		if filter.WorkerID != nil && (c.WorkerID == nil || *c.WorkerID != *filter.WorkerID) {
			continue
		}
		if filter.TimeEntryID != nil && c.TimeEntryID != *filter.TimeEntryID {
			continue
		}
		if filter.Status != nil && *filter.Status != "" && string(c.Status) != *filter.Status {
			continue
		}
		matched = append(matched, cloneRequest(c))
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	return page(matched, filter.Page, filter.Limit), int64(len(matched)), nil
}
