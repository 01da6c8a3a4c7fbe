package sqlite

import (
	"context"
	"fmt"

	"github.com/example/onrope-scheduler/internal/persistence"
)

// EmployeeRepository implements persistence.EmployeeRepository using SQLite
type EmployeeRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
	retry  *RetryHelper
}

// NewEmployeeRepository creates a new SQLite employee repository
func NewEmployeeRepository(pool *ConnectionPool) *EmployeeRepository {
	return &EmployeeRepository{
		pool:   pool,
		mapper: NewErrorMapper(),
		retry:  NewRetryHelper(DefaultRetryConfig()),
	}
}

const employeeColumns = `id, company_id, name, emergency_contact, created_at, updated_at`

// CreateEmployee inserts a new employee. EmergencyContact is stored as given.
func (r *EmployeeRepository) CreateEmployee(ctx context.Context, employee persistence.Employee) error {
	if employee.ID == "" || employee.CompanyID == "" {
		return persistence.ErrConstraintViolation
	}

	return r.retry.WithRetry(ctx, func() error {
		_, err := r.pool.db.ExecContext(ctx,
			`INSERT INTO employees (`+employeeColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
			employee.ID,
			employee.CompanyID,
			employee.Name,
			employee.EmergencyContact,
			formatTime(employee.CreatedAt),
			formatTime(employee.UpdatedAt),
		)
		return err
	})
}

// GetEmployee retrieves an employee by ID
func (r *EmployeeRepository) GetEmployee(ctx context.Context, id string) (persistence.Employee, error) {
	if id == "" {
		return persistence.Employee{}, persistence.ErrNotFound
	}
	row := r.pool.db.QueryRowContext(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = ?`, id)
	employee, err := scanEmployee(row)
	if err != nil {
		return persistence.Employee{}, r.mapper.MapError(err)
	}
	return employee, nil
}

// ListEmployees returns the company's employees ordered by name
func (r *EmployeeRepository) ListEmployees(ctx context.Context, companyID string) ([]persistence.Employee, error) {
	rows, err := r.pool.db.QueryContext(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE company_id = ? ORDER BY name ASC, id ASC`, companyID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var employees []persistence.Employee
	for rows.Next() {
		employee, err := scanEmployee(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		employees = append(employees, employee)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return employees, nil
}

func scanEmployee(row rowScanner) (persistence.Employee, error) {
	var (
		employee             persistence.Employee
		createdAt, updatedAt string
	)
	if err := row.Scan(&employee.ID, &employee.CompanyID, &employee.Name, &employee.EmergencyContact, &createdAt, &updatedAt); err != nil {
		return persistence.Employee{}, err
	}

	var err error
	if employee.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Employee{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if employee.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Employee{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return employee, nil
}
