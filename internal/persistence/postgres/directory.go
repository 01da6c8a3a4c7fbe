package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/example/onrope-scheduler/internal/persistence"
)

func (s *Store) UpsertCompany(ctx context.Context, company persistence.Company) error {
	if company.ID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := s.exec(ctx, `
INSERT INTO companies (id, name, timezone, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	timezone = EXCLUDED.timezone,
	updated_at = EXCLUDED.updated_at`,
		company.ID, company.Name, company.Timezone, company.CreatedAt.UTC(), company.UpdatedAt.UTC())
	return mapError("upsert company", err)
}

func (s *Store) GetCompany(ctx context.Context, id string) (persistence.Company, error) {
	var c persistence.Company
	err := s.queryRow(ctx,
		`SELECT id, name, timezone, created_at, updated_at FROM companies WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.Timezone, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return persistence.Company{}, mapError("get company", err)
	}
	return c, nil
}

func (s *Store) CreateProject(ctx context.Context, project persistence.Project) error {
	if project.ID == "" || project.CompanyID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := s.exec(ctx, `
INSERT INTO projects (id, company_id, title, timezone, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)`,
		project.ID, project.CompanyID, project.Title, project.Timezone,
		project.CreatedAt.UTC(), project.UpdatedAt.UTC())
	return mapError("create project", err)
}

const projectColumns = `id, company_id, title, timezone, created_at, updated_at`

func (s *Store) GetProject(ctx context.Context, id string) (persistence.Project, error) {
	p, err := scanProject(s.queryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
	if err != nil {
		return persistence.Project{}, mapError("get project", err)
	}
	return p, nil
}

func (s *Store) ListProjects(ctx context.Context, companyID string) ([]persistence.Project, error) {
	rows, err := s.query(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE company_id = $1 ORDER BY title, id`, companyID)
	if err != nil {
		return nil, mapError("list projects", err)
	}
	defer rows.Close()

	var projects []persistence.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, mapError("scan project", err)
		}
		projects = append(projects, p)
	}
	return projects, mapError("list projects", rows.Err())
}

func scanProject(row pgx.Row) (persistence.Project, error) {
	var p persistence.Project
	err := row.Scan(&p.ID, &p.CompanyID, &p.Title, &p.Timezone, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (s *Store) CreateEmployee(ctx context.Context, employee persistence.Employee) error {
	if employee.ID == "" || employee.CompanyID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := s.exec(ctx, `
INSERT INTO employees (id, company_id, name, emergency_contact, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)`,
		employee.ID, employee.CompanyID, employee.Name, employee.EmergencyContact,
		employee.CreatedAt.UTC(), employee.UpdatedAt.UTC())
	return mapError("create employee", err)
}

const employeeColumns = `id, company_id, name, emergency_contact, created_at, updated_at`

func (s *Store) GetEmployee(ctx context.Context, id string) (persistence.Employee, error) {
	e, err := scanEmployee(s.queryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id))
	if err != nil {
		return persistence.Employee{}, mapError("get employee", err)
	}
	return e, nil
}

func (s *Store) ListEmployees(ctx context.Context, companyID string) ([]persistence.Employee, error) {
	rows, err := s.query(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE company_id = $1 ORDER BY name, id`, companyID)
	if err != nil {
		return nil, mapError("list employees", err)
	}
	defer rows.Close()

	var employees []persistence.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, mapError("scan employee", err)
		}
		employees = append(employees, e)
	}
	return employees, mapError("list employees", rows.Err())
}

func scanEmployee(row pgx.Row) (persistence.Employee, error) {
	var e persistence.Employee
	err := row.Scan(&e.ID, &e.CompanyID, &e.Name, &e.EmergencyContact, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}
