package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/example/onrope-scheduler/internal/persistence"
)

const assignmentColumns = `id, company_id, project_id, employee_id, start_date::text, end_date::text, created_by, created_at, updated_at`

// CreateAssignments inserts the batch in one transaction.
func (s *Store) CreateAssignments(ctx context.Context, assignments []persistence.Assignment) error {
	if len(assignments) == 0 {
		return nil
	}
	for _, a := range assignments {
		if err := validateAssignment(a); err != nil {
			return err
		}
	}

	return withTx(ctx, s.pool, func(ctx context.Context) error {
		batch := &pgx.Batch{}
		for _, a := range assignments {
			batch.Queue(`
INSERT INTO assignments (id, company_id, project_id, employee_id, start_date, end_date, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5::date, $6::date, $7, $8, $9)`,
				a.ID, a.CompanyID, a.ProjectID, a.EmployeeID,
				a.StartDate.String(), a.EndDate.String(), a.CreatedBy,
				a.CreatedAt.UTC(), a.UpdatedAt.UTC())
		}

		results := txFromContext(ctx).SendBatch(ctx, batch)
		for range assignments {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return mapError("create assignments", err)
			}
		}
		return mapError("create assignments", results.Close())
	})
}

func (s *Store) UpdateAssignment(ctx context.Context, assignment persistence.Assignment) error {
	if err := validateAssignment(assignment); err != nil {
		return err
	}
	tag, err := s.exec(ctx, `
UPDATE assignments
SET project_id = $1, start_date = $2::date, end_date = $3::date, updated_at = $4
WHERE id = $5`,
		assignment.ProjectID, assignment.StartDate.String(), assignment.EndDate.String(),
		assignment.UpdatedAt.UTC(), assignment.ID)
	if err != nil {
		return mapError("update assignment", err)
	}
	if tag.RowsAffected() == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func (s *Store) GetAssignment(ctx context.Context, id string) (persistence.Assignment, error) {
	a, err := scanAssignment(s.queryRow(ctx, `SELECT `+assignmentColumns+` FROM assignments WHERE id = $1`, id))
	if err != nil {
		return persistence.Assignment{}, mapError("get assignment", err)
	}
	return a, nil
}

func (s *Store) ListAssignments(ctx context.Context, filter persistence.AssignmentFilter) ([]persistence.Assignment, error) {
	query, args := buildAssignmentListQuery(filter)
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, mapError("list assignments", err)
	}
	defer rows.Close()

	var assignments []persistence.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, mapError("scan assignment", err)
		}
		assignments = append(assignments, a)
	}
	return assignments, mapError("list assignments", rows.Err())
}

func (s *Store) DeleteAssignment(ctx context.Context, id string) error {
	tag, err := s.exec(ctx, `DELETE FROM assignments WHERE id = $1`, id)
	if err != nil {
		return mapError("delete assignment", err)
	}
	if tag.RowsAffected() == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func buildAssignmentListQuery(filter persistence.AssignmentFilter) (string, []any) {
	var (
		conditions []string
		args       []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.CompanyID != "" {
		conditions = append(conditions, "company_id = "+arg(filter.CompanyID))
	}
	if filter.ProjectID != "" {
		conditions = append(conditions, "project_id = "+arg(filter.ProjectID))
	}
	if len(filter.EmployeeIDs) > 0 {
		conditions = append(conditions, "employee_id = ANY("+arg(filter.EmployeeIDs)+"::text[])")
	}
	switch {
	case !filter.From.IsZero() && !filter.To.IsZero():
		conditions = append(conditions, fmt.Sprintf(
			"daterange(start_date, end_date, '[]') && daterange(%s::date, %s::date, '[]')",
			arg(filter.From.String()), arg(filter.To.String())))
	case !filter.To.IsZero():
		conditions = append(conditions, "start_date <= "+arg(filter.To.String())+"::date")
	case !filter.From.IsZero():
		conditions = append(conditions, "end_date >= "+arg(filter.From.String())+"::date")
	}

	query := `SELECT ` + assignmentColumns + ` FROM assignments`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY start_date ASC, id ASC"
	return query, args
}

func scanAssignment(row pgx.Row) (persistence.Assignment, error) {
	var a persistence.Assignment
	err := row.Scan(
		&a.ID, &a.CompanyID, &a.ProjectID, &a.EmployeeID,
		&a.StartDate, &a.EndDate, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt,
	)
	return a, err
}

func validateAssignment(a persistence.Assignment) error {
	if a.ID == "" || a.CompanyID == "" || a.ProjectID == "" || a.EmployeeID == "" {
		return persistence.ErrConstraintViolation
	}
	if err := a.Dates().Validate(); err != nil {
		return fmt.Errorf("%w: %v", persistence.ErrConstraintViolation, err)
	}
	return nil
}
