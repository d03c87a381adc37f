package auth

import "errors"

var (
	ErrInvalidToken           = errors.New("invalid or expired token")
	ErrTokenExpired           = errors.New("token has expired")
	ErrMissingWorkerID        = errors.New("token does not carry a user id")
	ErrAdminPrivilegeRequired = errors.New("admin privilege required")
	ErrRateLimited            = errors.New("too many requests")
)
