package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/onrope-scheduler/internal/persistence"
)

// ProjectRepository implements persistence.ProjectRepository using SQLite
type ProjectRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
	retry  *RetryHelper
}

// NewProjectRepository creates a new SQLite project repository
func NewProjectRepository(pool *ConnectionPool) *ProjectRepository {
	return &ProjectRepository{
		pool:   pool,
		mapper: NewErrorMapper(),
		retry:  NewRetryHelper(DefaultRetryConfig()),
	}
}

const projectColumns = `id, company_id, title, timezone, created_at, updated_at`

// CreateProject inserts a new project
func (r *ProjectRepository) CreateProject(ctx context.Context, project persistence.Project) error {
	if project.ID == "" || project.CompanyID == "" {
		return persistence.ErrConstraintViolation
	}

	return r.retry.WithRetry(ctx, func() error {
		_, err := r.pool.db.ExecContext(ctx,
			`INSERT INTO projects (`+projectColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
			project.ID,
			project.CompanyID,
			project.Title,
			project.Timezone,
			formatTime(project.CreatedAt),
			formatTime(project.UpdatedAt),
		)
		return err
	})
}

// GetProject retrieves a project by ID
func (r *ProjectRepository) GetProject(ctx context.Context, id string) (persistence.Project, error) {
	if id == "" {
		return persistence.Project{}, persistence.ErrNotFound
	}
	row := r.pool.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	project, err := scanProject(row)
	if err != nil {
		return persistence.Project{}, r.mapper.MapError(err)
	}
	return project, nil
}

// ListProjects returns the company's projects ordered by title
func (r *ProjectRepository) ListProjects(ctx context.Context, companyID string) ([]persistence.Project, error) {
	rows, err := r.pool.db.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE company_id = ? ORDER BY title ASC, id ASC`, companyID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var projects []persistence.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return projects, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (persistence.Project, error) {
	var (
		project              persistence.Project
		createdAt, updatedAt string
	)
	if err := row.Scan(&project.ID, &project.CompanyID, &project.Title, &project.Timezone, &createdAt, &updatedAt); err != nil {
		return persistence.Project{}, err
	}

	var err error
	if project.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Project{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if project.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Project{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return project, nil
}

var _ rowScanner = (*sql.Row)(nil)
