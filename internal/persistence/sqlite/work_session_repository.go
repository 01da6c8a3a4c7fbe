package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/onrope-scheduler/internal/persistence"
)

// WorkSessionRepository implements persistence.WorkSessionRepository using SQLite
type WorkSessionRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
	retry  *RetryHelper
}

// NewWorkSessionRepository creates a new SQLite work session repository
func NewWorkSessionRepository(pool *ConnectionPool) *WorkSessionRepository {
	return &WorkSessionRepository{
		pool:   pool,
		mapper: NewErrorMapper(),
		retry:  NewRetryHelper(DefaultRetryConfig()),
	}
}

const workSessionColumns = `id, company_id, project_id, employee_id, work_date, started_at, ended_at, created_at, updated_at`

// CreateWorkSession inserts a session. A second open session for the same
// employee is rejected with persistence.ErrDuplicate.
func (r *WorkSessionRepository) CreateWorkSession(ctx context.Context, session persistence.WorkSession) error {
	if session.ID == "" || session.CompanyID == "" || session.ProjectID == "" || session.EmployeeID == "" || session.WorkDate.IsZero() {
		return persistence.ErrConstraintViolation
	}

	return r.retry.WithRetry(ctx, func() error {
		_, err := r.pool.db.ExecContext(ctx,
			`INSERT INTO work_sessions (`+workSessionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			session.ID,
			session.CompanyID,
			session.ProjectID,
			session.EmployeeID,
			session.WorkDate,
			formatTime(session.StartedAt),
			nullableTime(session.EndedAt),
			formatTime(session.CreatedAt),
			formatTime(session.UpdatedAt),
		)
		return err
	})
}

// GetWorkSession retrieves a session by ID
func (r *WorkSessionRepository) GetWorkSession(ctx context.Context, id string) (persistence.WorkSession, error) {
	if id == "" {
		return persistence.WorkSession{}, persistence.ErrNotFound
	}
	row := r.pool.db.QueryRowContext(ctx, `SELECT `+workSessionColumns+` FROM work_sessions WHERE id = ?`, id)
	session, err := scanWorkSession(row)
	if err != nil {
		return persistence.WorkSession{}, r.mapper.MapError(err)
	}
	return session, nil
}

// FindOpenWorkSession returns the employee's session that has not ended
func (r *WorkSessionRepository) FindOpenWorkSession(ctx context.Context, employeeID string) (persistence.WorkSession, error) {
	row := r.pool.db.QueryRowContext(ctx,
		`SELECT `+workSessionColumns+` FROM work_sessions WHERE employee_id = ? AND ended_at IS NULL`, employeeID)
	session, err := scanWorkSession(row)
	if err != nil {
		return persistence.WorkSession{}, r.mapper.MapError(err)
	}
	return session, nil
}

// EndWorkSession sets ended_at on an open session
func (r *WorkSessionRepository) EndWorkSession(ctx context.Context, id string, endedAt time.Time) error {
	return r.retry.WithRetry(ctx, func() error {
		return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			var ended sql.NullString
			if err := tx.QueryRowContext(ctx, `SELECT ended_at FROM work_sessions WHERE id = ?`, id).Scan(&ended); err != nil {
				return err
			}
			if ended.Valid {
				return fmt.Errorf("%w: session %s already ended", persistence.ErrConstraintViolation, id)
			}
			_, err := tx.ExecContext(ctx,
				`UPDATE work_sessions SET ended_at = ?, updated_at = ? WHERE id = ?`,
				formatTime(endedAt), formatTime(endedAt), id)
			return err
		})
	})
}

// ListWorkSessions lists sessions matching the filter ordered by start
func (r *WorkSessionRepository) ListWorkSessions(ctx context.Context, filter persistence.WorkSessionFilter) ([]persistence.WorkSession, error) {
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
	if filter.EmployeeID != "" {
		conditions = append(conditions, "employee_id = ?")
		args = append(args, filter.EmployeeID)
	}
	if !filter.StartedFrom.IsZero() {
		conditions = append(conditions, "started_at >= ?")
		args = append(args, formatTime(filter.StartedFrom))
	}
	if !filter.StartedTo.IsZero() {
		conditions = append(conditions, "started_at <= ?")
		args = append(args, formatTime(filter.StartedTo))
	}

	query := `SELECT ` + workSessionColumns + ` FROM work_sessions`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY started_at ASC, id ASC"

	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var sessions []persistence.WorkSession
	for rows.Next() {
		session, err := scanWorkSession(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return sessions, nil
}

func scanWorkSession(row rowScanner) (persistence.WorkSession, error) {
	var (
		session                         persistence.WorkSession
		startedAt, createdAt, updatedAt string
		endedAt                         sql.NullString
	)
	err := row.Scan(
		&session.ID,
		&session.CompanyID,
		&session.ProjectID,
		&session.EmployeeID,
		&session.WorkDate,
		&startedAt,
		&endedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.WorkSession{}, err
	}

	if session.StartedAt, err = parseTime(startedAt); err != nil {
		return persistence.WorkSession{}, err
	}
	if session.EndedAt, err = parseNullableTime(endedAt); err != nil {
		return persistence.WorkSession{}, err
	}
	if session.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.WorkSession{}, err
	}
	if session.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.WorkSession{}, err
	}
	return session, nil
}
