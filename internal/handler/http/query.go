package http

import (
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

// pathID reads a positive integer URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, validator.ValidationErrors{{
			Field:   name,
			Message: name + " must be a positive number",
		}}
	}
	return id, nil
}

// queryInt64 returns nil when the parameter is absent.
func queryInt64(r *http.Request, name string, errs *validator.ValidationErrors) *int64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		*errs = append(*errs, validator.ValidationError{
			Field:   name,
			Message: name + " must be a positive number",
		})
		return nil
	}
	return &v
}

func queryString(r *http.Request, name string) *string {
	if v := r.URL.Query().Get(name); v != "" {
		return &v
	}
	return nil
}

// pagination reads page and limit, leaving zero for the DTO defaults.
func pagination(r *http.Request, errs *validator.ValidationErrors) (page, limit int) {
	parse := func(name string) int {
		raw := r.URL.Query().Get(name)
		if raw == "" {
			return 0
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			*errs = append(*errs, validator.ValidationError{
				Field:   name,
				Message: name + " must be a number",
			})
			return 0
		}
		return v
	}
	return parse("page"), parse("limit")
}
