package attendance

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/validator"
)

// ========================================
// TIME ENTRY DTOs
// ========================================

type ClockAction string

const (
	ClockActionEntry ClockAction = "entrada"
	ClockActionExit  ClockAction = "saida"
)

// ClockSource records what triggered a clock action. It never changes the outcome.
type ClockSource string

const (
	ClockSourceButton   ClockSource = "button"
	ClockSourceQRCode   ClockSource = "qr_code"
	ClockSourceOnBehalf ClockSource = "on_behalf"
)

type ClockActionRequest struct {
	WorkerID  int64       `json:"user_id"`
	Company   string      `json:"empresa"`
	Latitude  *float64    `json:"latitude,omitempty"`
	Longitude *float64    `json:"longitude,omitempty"`
	Address   *string     `json:"endereco,omitempty"`
	SiteID    *int64      `json:"obra_id,omitempty"`
	Source    ClockSource `json:"-"`
}

func (r *ClockActionRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.WorkerID <= 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "user_id",
			Message: "user_id is required",
		})
	}

	if validator.IsEmpty(r.Company) {
		errs = append(errs, validator.ValidationError{
			Field:   "empresa",
			Message: "empresa is required",
		})
	}

	if r.Latitude != nil && !validator.IsValidLatitude(*r.Latitude) {
		errs = append(errs, validator.ValidationError{
			Field:   "latitude",
			Message: "latitude must be between -90 and 90",
		})
	}

	if r.Longitude != nil && !validator.IsValidLongitude(*r.Longitude) {
		errs = append(errs, validator.ValidationError{
			Field:   "longitude",
			Message: "longitude must be between -180 and 180",
		})
	}

	if r.Address != nil && len(*r.Address) > 255 {
		errs = append(errs, validator.ValidationError{
			Field:   "endereco",
			Message: "endereco must not exceed 255 characters",
		})
	}

	if r.SiteID != nil && *r.SiteID <= 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "obra_id",
			Message: "obra_id must be a positive number",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// QRClockRequest is a clock action whose company comes from a scanned code.
type QRClockRequest struct {
	QRCode    string   `json:"qr_code"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Address   *string  `json:"endereco,omitempty"`
	SiteID    *int64   `json:"obra_id,omitempty"`
}

type qrPayload struct {
	Company string `json:"empresa"`
	SiteID  *int64 `json:"obra_id,omitempty"`
}

// ToClockAction decodes the QR payload: either {"empresa": "...", "obra_id": n}
// or the bare company name.
func (r *QRClockRequest) ToClockAction(workerID int64) (ClockActionRequest, error) {
	code := strings.TrimSpace(r.QRCode)
	if code == "" {
		return ClockActionRequest{}, validator.ValidationErrors{{
			Field:   "qr_code",
			Message: "qr_code is required",
		}}
	}

	req := ClockActionRequest{
		WorkerID:  workerID,
		Company:   code,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Address:   r.Address,
		SiteID:    r.SiteID,
		Source:    ClockSourceQRCode,
	}

	if strings.HasPrefix(code, "{") {
		var payload qrPayload
		if err := json.Unmarshal([]byte(code), &payload); err != nil || validator.IsEmpty(payload.Company) {
			return ClockActionRequest{}, validator.ValidationErrors{{
				Field:   "qr_code",
				Message: "qr_code is not a valid company code",
			}}
		}
		req.Company = strings.TrimSpace(payload.Company)
		if req.SiteID == nil {
			req.SiteID = payload.SiteID
		}
	}

	return req, nil
}

type ClockActionResult struct {
	Action ClockAction       `json:"acao"`
	Entry  TimeEntryResponse `json:"registo"`
}

type TimeEntryResponse struct {
	ID          int64    `json:"id"`
	WorkerID    int64    `json:"user_id"`
	CompanyID   int64    `json:"empresa_id"`
	Date        string   `json:"data"`
	ClockIn     *string  `json:"hora_entrada"`
	ClockOut    *string  `json:"hora_saida"`
	WorkedHours float64  `json:"total_horas"`
	BreakHours  float64  `json:"total_intervalo"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	Address     *string  `json:"endereco,omitempty"`
	SiteID      *int64   `json:"obra_id,omitempty"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

// EditEntryRequest is an administrative override of a time entry's clock times.
// Values are full date-times or bare HH:MM[:SS] applied to the entry's date.
type EditEntryRequest struct {
	ID       int64   `json:"-"`
	ClockIn  *string `json:"horaEntrada,omitempty"`
	ClockOut *string `json:"horaSaida,omitempty"`
}

func (r *EditEntryRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmptyPtr(r.ClockIn) && validator.IsEmptyPtr(r.ClockOut) {
		errs = append(errs, validator.ValidationError{
			Field:   "horaEntrada",
			Message: "fill in at least one of horaEntrada or horaSaida",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type TimeEntryFilter struct {
	WorkerID  *int64  `json:"user_id,omitempty"`
	CompanyID *int64  `json:"empresa_id,omitempty"`
	StartDate *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate   *string `json:"end_date,omitempty"`   // YYYY-MM-DD

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *TimeEntryFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1 // Default page
	}

	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 20 // Default limit
	}
	if f.Limit > 1000 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 1000",
		})
	}

	var start, end time.Time
	var hasStart, hasEnd bool
	if f.StartDate != nil && *f.StartDate != "" {
		if start, hasStart = validator.IsValidDate(*f.StartDate); !hasStart {
			errs = append(errs, validator.ValidationError{
				Field:   "start_date",
				Message: "start_date must be in YYYY-MM-DD format",
			})
		}
	}

	if f.EndDate != nil && *f.EndDate != "" {
		if end, hasEnd = validator.IsValidDate(*f.EndDate); !hasEnd {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must be in YYYY-MM-DD format",
			})
		}
	}

	if hasStart && hasEnd && end.Before(start) {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must not be before start_date",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ListTimeEntryResponse struct {
	TotalCount  int64               `json:"total_count"`
	Page        int                 `json:"page"`
	Limit       int                 `json:"limit"`
	TotalPages  int                 `json:"total_pages"`
	Showing     string              `json:"showing"`
	TimeEntries []TimeEntryResponse `json:"registos"`
}

// ========================================
// BREAK DTOs
// ========================================

type BreakIntervalResponse struct {
	ID            int64    `json:"id"`
	TimeEntryID   int64    `json:"registo_ponto_id"`
	BreakStart    string   `json:"hora_inicio"` // HH:MM:SS
	BreakEnd      *string  `json:"hora_fim"`    // HH:MM:SS
	DurationHours *float64 `json:"duracao"`
	StartedAt     string   `json:"inicio"`
	EndedAt       *string  `json:"fim,omitempty"`
}

type BreakStateResponse struct {
	OpenBreak   bool    `json:"intervaloAberto"`
	BreakStart  *string `json:"horaInicioIntervalo"`
	TimeEntryID *int64  `json:"registo_ponto_id,omitempty"`
	ClockedIn   bool    `json:"entradaRegistada"`
	ClockedOut  bool    `json:"saidaRegistada"`
}

// ========================================
// CHANGE REQUEST DTOs
// ========================================

const (
	ReasonMinLength = 10
	ReasonMaxLength = 255
)

type CreateChangeRequestRequest struct {
	WorkerID    *int64  `json:"user_id,omitempty"`
	TimeEntryID int64   `json:"registo_ponto_id"`
	NewClockIn  *string `json:"novaHoraEntrada,omitempty"`
	NewClockOut *string `json:"novaHoraSaida,omitempty"`
	Reason      string  `json:"motivo"`
}

// Validate checks required fields and that any proposed time parses in loc.
func (r *CreateChangeRequestRequest) Validate(loc *time.Location) error {
	var errs validator.ValidationErrors

	if r.TimeEntryID <= 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "registo_ponto_id",
			Message: "registo_ponto_id is required",
		})
	}

	if validator.IsEmptyPtr(r.NewClockIn) && validator.IsEmptyPtr(r.NewClockOut) {
		errs = append(errs, validator.ValidationError{
			Field:   "novaHoraEntrada",
			Message: "fill in at least one of novaHoraEntrada or novaHoraSaida",
		})
	}

	errs = append(errs, validateProposedTime("novaHoraEntrada", r.NewClockIn, loc)...)
	errs = append(errs, validateProposedTime("novaHoraSaida", r.NewClockOut, loc)...)
	errs = append(errs, validateReason(r.Reason)...)

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ProposedTimes returns the parsed proposals. Call after Validate.
func (r *CreateChangeRequestRequest) ProposedTimes(loc *time.Location) (clockIn, clockOut *time.Time) {
	return parseProposedTime(r.NewClockIn, loc), parseProposedTime(r.NewClockOut, loc)
}

type UpdateChangeRequestRequest struct {
	ID          int64   `json:"-"`
	NewClockIn  *string `json:"novaHoraEntrada,omitempty"`
	NewClockOut *string `json:"novaHoraSaida,omitempty"`
	Reason      *string `json:"motivo,omitempty"`
}

func (r *UpdateChangeRequestRequest) Validate(loc *time.Location) error {
	var errs validator.ValidationErrors

	if r.NewClockIn == nil && r.NewClockOut == nil && r.Reason == nil {
		errs = append(errs, validator.ValidationError{
			Field:   "motivo",
			Message: "nothing to update",
		})
	}

	errs = append(errs, validateProposedTime("novaHoraEntrada", r.NewClockIn, loc)...)
	errs = append(errs, validateProposedTime("novaHoraSaida", r.NewClockOut, loc)...)
	if r.Reason != nil {
		errs = append(errs, validateReason(*r.Reason)...)
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

func (r *UpdateChangeRequestRequest) ProposedTimes(loc *time.Location) (clockIn, clockOut *time.Time) {
	return parseProposedTime(r.NewClockIn, loc), parseProposedTime(r.NewClockOut, loc)
}

func validateReason(reason string) validator.ValidationErrors {
	if !validator.IsLengthBetween(strings.TrimSpace(reason), ReasonMinLength, ReasonMaxLength) {
		return validator.ValidationErrors{{
			Field:   "motivo",
			Message: "motivo must be between 10 and 255 characters",
		}}
	}
	return nil
}

func validateProposedTime(field string, value *string, loc *time.Location) validator.ValidationErrors {
	if validator.IsEmptyPtr(value) {
		return nil
	}
	if _, ok := validator.ParseDateTimeIn(*value, loc); !ok {
		return validator.ValidationErrors{{
			Field:   field,
			Message: field + " must be a valid date-time (YYYY-MM-DDTHH:MM[:SS])",
		}}
	}
	return nil
}

func parseProposedTime(value *string, loc *time.Location) *time.Time {
	if validator.IsEmptyPtr(value) {
		return nil
	}
	t, ok := validator.ParseDateTimeIn(*value, loc)
	if !ok {
		return nil
	}
	return &t
}

type ChangeRequestFilter struct {
	WorkerID    *int64  `json:"user_id,omitempty"`
	TimeEntryID *int64  `json:"registo_ponto_id,omitempty"`
	Status      *string `json:"estado,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *ChangeRequestFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1
	}

	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	if f.Status != nil && !ChangeRequestStatus(*f.Status).IsValid() {
		errs = append(errs, validator.ValidationError{
			Field:   "estado",
			Message: "estado must be one of: pendente, aprovado, rejeitado",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ChangeRequestResponse struct {
	ID          int64   `json:"id"`
	WorkerID    *int64  `json:"user_id"`
	TimeEntryID int64   `json:"registo_ponto_id"`
	NewClockIn  *string `json:"novaHoraEntrada"`
	NewClockOut *string `json:"novaHoraSaida"`
	Reason      string  `json:"motivo"`
	Status      string  `json:"estado"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

type ListChangeRequestResponse struct {
	TotalCount     int64                   `json:"total_count"`
	Page           int                     `json:"page"`
	Limit          int                     `json:"limit"`
	TotalPages     int                     `json:"total_pages"`
	Showing        string                  `json:"showing"`
	ChangeRequests []ChangeRequestResponse `json:"pedidos"`
}
