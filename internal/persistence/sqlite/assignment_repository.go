package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/example/onrope-scheduler/internal/persistence"
)

// AssignmentRepository implements persistence.AssignmentRepository using SQLite.
// Dates are stored as YYYY-MM-DD TEXT, so string comparison in SQL is chronological.
type AssignmentRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
	retry  *RetryHelper
}

// NewAssignmentRepository creates a new SQLite assignment repository
func NewAssignmentRepository(pool *ConnectionPool) *AssignmentRepository {
	return &AssignmentRepository{
		pool:   pool,
		mapper: NewErrorMapper(),
		retry:  NewRetryHelper(DefaultRetryConfig()),
	}
}

const assignmentColumns = `id, company_id, project_id, employee_id, start_date, end_date, created_by, created_at, updated_at`

// CreateAssignments inserts every assignment in a single transaction
func (r *AssignmentRepository) CreateAssignments(ctx context.Context, assignments []persistence.Assignment) error {
	if len(assignments) == 0 {
		return nil
	}
	for _, assignment := range assignments {
		if err := validateAssignment(assignment); err != nil {
			return err
		}
	}

	return r.retry.WithRetry(ctx, func() error {
		return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			stmt, err := tx.PrepareContext(ctx, `INSERT INTO assignments (`+assignmentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
			if err != nil {
				return err
			}
			defer stmt.Close()

			for _, assignment := range assignments {
				_, err := stmt.ExecContext(ctx,
					assignment.ID,
					assignment.CompanyID,
					assignment.ProjectID,
					assignment.EmployeeID,
					assignment.StartDate,
					assignment.EndDate,
					assignment.CreatedBy,
					formatTime(assignment.CreatedAt),
					formatTime(assignment.UpdatedAt),
				)
				if err != nil {
					return err
				}
			}
			return nil
		})
	})
}

// UpdateAssignment moves an assignment to new dates or another project.
// The owning company and employee never change.
func (r *AssignmentRepository) UpdateAssignment(ctx context.Context, assignment persistence.Assignment) error {
	if err := validateAssignment(assignment); err != nil {
		return err
	}

	return r.retry.WithRetry(ctx, func() error {
		result, err := r.pool.db.ExecContext(ctx, `
			UPDATE assignments
			SET project_id = ?, start_date = ?, end_date = ?, updated_at = ?
			WHERE id = ?`,
			assignment.ProjectID,
			assignment.StartDate,
			assignment.EndDate,
			formatTime(assignment.UpdatedAt),
			assignment.ID,
		)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}
		return nil
	})
}

// GetAssignment retrieves an assignment by ID
func (r *AssignmentRepository) GetAssignment(ctx context.Context, id string) (persistence.Assignment, error) {
	if id == "" {
		return persistence.Assignment{}, persistence.ErrNotFound
	}
	row := r.pool.db.QueryRowContext(ctx, `SELECT `+assignmentColumns+` FROM assignments WHERE id = ?`, id)
	assignment, err := scanAssignment(row)
	if err != nil {
		return persistence.Assignment{}, r.mapper.MapError(err)
	}
	return assignment, nil
}

// ListAssignments lists assignments matching the filter ordered by start date
func (r *AssignmentRepository) ListAssignments(ctx context.Context, filter persistence.AssignmentFilter) ([]persistence.Assignment, error) {
	query, args := buildAssignmentListQuery(filter)

	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var assignments []persistence.Assignment
	for rows.Next() {
		assignment, err := scanAssignment(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		assignments = append(assignments, assignment)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return assignments, nil
}

// DeleteAssignment removes an assignment
func (r *AssignmentRepository) DeleteAssignment(ctx context.Context, id string) error {
	return r.retry.WithRetry(ctx, func() error {
		result, err := r.pool.db.ExecContext(ctx, `DELETE FROM assignments WHERE id = ?`, id)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}
		return nil
	})
}

func buildAssignmentListQuery(filter persistence.AssignmentFilter) (string, []any) {
	var (
		conditions []string
		args       []any
	)

	if filter.CompanyID != "" {
		conditions = append(conditions, "company_id = ?")
		args = append(args, filter.CompanyID)
	}
	if filter.ProjectID != "" {
		conditions = append(conditions, "project_id = ?")
		args = append(args, filter.ProjectID)
	}
	if len(filter.EmployeeIDs) > 0 {
		conditions = append(conditions, "employee_id IN ("+placeholders(len(filter.EmployeeIDs))+")")
		for _, id := range filter.EmployeeIDs {
			args = append(args, id)
		}
	}
	// Inclusive overlap with the window.
	if !filter.To.IsZero() {
		conditions = append(conditions, "start_date <= ?")
		args = append(args, filter.To.String())
	}
	if !filter.From.IsZero() {
		conditions = append(conditions, "end_date >= ?")
		args = append(args, filter.From.String())
	}

	query := `SELECT ` + assignmentColumns + ` FROM assignments`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY start_date ASC, id ASC"
	return query, args
}

func scanAssignment(row rowScanner) (persistence.Assignment, error) {
	var (
		assignment           persistence.Assignment
		createdAt, updatedAt string
	)
	err := row.Scan(
		&assignment.ID,
		&assignment.CompanyID,
		&assignment.ProjectID,
		&assignment.EmployeeID,
		&assignment.StartDate,
		&assignment.EndDate,
		&assignment.CreatedBy,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Assignment{}, err
	}

	if assignment.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Assignment{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if assignment.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Assignment{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return assignment, nil
}

func validateAssignment(assignment persistence.Assignment) error {
	if assignment.ID == "" || assignment.CompanyID == "" || assignment.ProjectID == "" || assignment.EmployeeID == "" {
		return persistence.ErrConstraintViolation
	}
	if err := assignment.Dates().Validate(); err != nil {
		return fmt.Errorf("%w: %v", persistence.ErrConstraintViolation, err)
	}
	return nil
}
