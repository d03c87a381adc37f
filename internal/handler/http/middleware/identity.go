package middleware

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/auth"
	"github.com/go-chi/jwtauth/v5"
)

// WorkerIDFromContext reads the user_id claim. Tokens may carry it as a JSON
// number or a numeric string.
func WorkerIDFromContext(ctx context.Context) (int64, error) {
	token, claims, err := jwtauth.FromContext(ctx)
	if err != nil || token == nil {
		return 0, auth.ErrInvalidToken
	}

	var id int64
	switch v := claims["user_id"].(type) {
	case float64:
		id = int64(v)
	case int64:
		id = v
	case int:
		id = int64(v)
	case json.Number:
		id, err = v.Int64()
	case string:
		id, err = strconv.ParseInt(v, 10, 64)
	default:
		return 0, auth.ErrMissingWorkerID
	}
	if err != nil || id <= 0 {
		return 0, auth.ErrMissingWorkerID
	}

	return id, nil
}

func IsAdmin(ctx context.Context) bool {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return false
	}
	admin, ok := claims["is_admin"].(bool)
	return ok && admin
}
