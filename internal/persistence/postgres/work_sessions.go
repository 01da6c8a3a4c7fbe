package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/example/onrope-scheduler/internal/persistence"
)

const workSessionColumns = `id, company_id, project_id, employee_id, work_date::text, started_at, ended_at, created_at, updated_at`

func (s *Store) CreateWorkSession(ctx context.Context, session persistence.WorkSession) error {
	if session.ID == "" || session.CompanyID == "" || session.ProjectID == "" || session.EmployeeID == "" || session.WorkDate.IsZero() {
		return persistence.ErrConstraintViolation
	}

	var endedAt *time.Time
	if session.EndedAt != nil {
		t := session.EndedAt.UTC()
		endedAt = &t
	}
	_, err := s.exec(ctx, `
INSERT INTO work_sessions (id, company_id, project_id, employee_id, work_date, started_at, ended_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5::date, $6, $7, $8, $9)`,
		session.ID, session.CompanyID, session.ProjectID, session.EmployeeID,
		session.WorkDate.String(), session.StartedAt.UTC(), endedAt,
		session.CreatedAt.UTC(), session.UpdatedAt.UTC())
	return mapError("create work session", err)
}

func (s *Store) GetWorkSession(ctx context.Context, id string) (persistence.WorkSession, error) {
	session, err := scanWorkSession(s.queryRow(ctx,
		`SELECT `+workSessionColumns+` FROM work_sessions WHERE id = $1`, id))
	if err != nil {
		return persistence.WorkSession{}, mapError("get work session", err)
	}
	return session, nil
}

func (s *Store) FindOpenWorkSession(ctx context.Context, employeeID string) (persistence.WorkSession, error) {
	session, err := scanWorkSession(s.queryRow(ctx,
		`SELECT `+workSessionColumns+` FROM work_sessions WHERE employee_id = $1 AND ended_at IS NULL`, employeeID))
	if err != nil {
		return persistence.WorkSession{}, mapError("find open work session", err)
	}
	return session, nil
}

// EndWorkSession closes an open session. Ending a closed session is a constraint violation.
func (s *Store) EndWorkSession(ctx context.Context, id string, endedAt time.Time) error {
	return withTx(ctx, s.pool, func(ctx context.Context) error {
		var ended *time.Time
		err := s.queryRow(ctx, `SELECT ended_at FROM work_sessions WHERE id = $1 FOR UPDATE`, id).Scan(&ended)
		if err != nil {
			return mapError("end work session", err)
		}
		if ended != nil {
			return fmt.Errorf("%w: session %s already ended", persistence.ErrConstraintViolation, id)
		}
		_, err = s.exec(ctx,
			`UPDATE work_sessions SET ended_at = $1, updated_at = $1 WHERE id = $2`,
			endedAt.UTC(), id)
		return mapError("end work session", err)
	})
}

func (s *Store) ListWorkSessions(ctx context.Context, filter persistence.WorkSessionFilter) ([]persistence.WorkSession, error) {
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
	if filter.EmployeeID != "" {
		conditions = append(conditions, "employee_id = "+arg(filter.EmployeeID))
	}
	if !filter.StartedFrom.IsZero() {
		conditions = append(conditions, "started_at >= "+arg(filter.StartedFrom.UTC()))
	}
	if !filter.StartedTo.IsZero() {
		conditions = append(conditions, "started_at <= "+arg(filter.StartedTo.UTC()))
	}

	query := `SELECT ` + workSessionColumns + ` FROM work_sessions`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY started_at ASC, id ASC"

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, mapError("list work sessions", err)
	}
	defer rows.Close()

	var sessions []persistence.WorkSession
	for rows.Next() {
		session, err := scanWorkSession(rows)
		if err != nil {
			return nil, mapError("scan work session", err)
		}
		sessions = append(sessions, session)
	}
	return sessions, mapError("list work sessions", rows.Err())
}

func scanWorkSession(row pgx.Row) (persistence.WorkSession, error) {
	var session persistence.WorkSession
	err := row.Scan(
		&session.ID, &session.CompanyID, &session.ProjectID, &session.EmployeeID,
		&session.WorkDate, &session.StartedAt, &session.EndedAt,
		&session.CreatedAt, &session.UpdatedAt,
	)
	return session, err
}
