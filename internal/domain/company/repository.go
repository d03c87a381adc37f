package company

import "context"

// Directory resolves a company by its display name.
// Implementations return ErrCompanyNotFound when no company matches.
type Directory interface {
	FindByName(ctx context.Context, name string) (Company, error)
}
