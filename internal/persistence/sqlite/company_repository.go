package sqlite

import (
	"context"
	"fmt"

	"github.com/example/onrope-scheduler/internal/persistence"
)

// CompanyRepository implements persistence.CompanyRepository using SQLite
type CompanyRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
	retry  *RetryHelper
}

// NewCompanyRepository creates a new SQLite company repository
func NewCompanyRepository(pool *ConnectionPool) *CompanyRepository {
	return &CompanyRepository{
		pool:   pool,
		mapper: NewErrorMapper(),
		retry:  NewRetryHelper(DefaultRetryConfig()),
	}
}

// UpsertCompany inserts the company or updates its name and timezone
func (r *CompanyRepository) UpsertCompany(ctx context.Context, company persistence.Company) error {
	if company.ID == "" {
		return persistence.ErrConstraintViolation
	}

	const query = `
		INSERT INTO companies (id, name, timezone, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			timezone = excluded.timezone,
			updated_at = excluded.updated_at`

	return r.retry.WithRetry(ctx, func() error {
		_, err := r.pool.db.ExecContext(ctx, query,
			company.ID,
			company.Name,
			company.Timezone,
			formatTime(company.CreatedAt),
			formatTime(company.UpdatedAt),
		)
		return err
	})
}

// GetCompany retrieves a company by ID
func (r *CompanyRepository) GetCompany(ctx context.Context, id string) (persistence.Company, error) {
	if id == "" {
		return persistence.Company{}, persistence.ErrNotFound
	}

	var (
		company              persistence.Company
		createdAt, updatedAt string
	)
	err := r.pool.db.QueryRowContext(ctx,
		`SELECT id, name, timezone, created_at, updated_at FROM companies WHERE id = ?`, id,
	).Scan(&company.ID, &company.Name, &company.Timezone, &createdAt, &updatedAt)
	if err != nil {
		return persistence.Company{}, r.mapper.MapError(err)
	}

	if company.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Company{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if company.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Company{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return company, nil
}
