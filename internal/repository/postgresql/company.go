package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/company"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type companyDirectory struct {
	db *database.DB
}

func NewCompanyDirectory(db *database.DB) company.Directory {
	return &companyDirectory{db: db}
}

// FindByName implements company.Directory. Matching ignores case and surrounding spaces.
func (c *companyDirectory) FindByName(ctx context.Context, name string) (company.Company, error) {
	q := GetQuerier(ctx, c.db)

	query := `
		SELECT id, name, default_break_hours
		FROM companies
		WHERE LOWER(name) = LOWER($1)
		LIMIT 1
	`

	var comp company.Company
	err := q.QueryRow(ctx, query, strings.TrimSpace(name)).Scan(&comp.ID, &comp.Name, &comp.DefaultBreakHours)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return company.Company{}, company.ErrCompanyNotFound
		}
		return company.Company{}, fmt.Errorf("failed to find company by name %q: %w", name, err)
	}

	return comp, nil
}
