package persistence

import (
	"context"
	"time"

	"github.com/example/onrope-scheduler/internal/dateonly"
)

// CompanyRepository stores tenants.
type CompanyRepository interface {
	UpsertCompany(ctx context.Context, company Company) error
	GetCompany(ctx context.Context, id string) (Company, error)
}

// ProjectRepository exposes CRUD operations for projects.
type ProjectRepository interface {
	CreateProject(ctx context.Context, project Project) error
	GetProject(ctx context.Context, id string) (Project, error)
	ListProjects(ctx context.Context, companyID string) ([]Project, error)
}

// EmployeeRepository exposes CRUD operations for employees.
type EmployeeRepository interface {
	CreateEmployee(ctx context.Context, employee Employee) error
	GetEmployee(ctx context.Context, id string) (Employee, error)
	ListEmployees(ctx context.Context, companyID string) ([]Employee, error)
}

// AssignmentFilter narrows assignment queries. Zero dates leave that side of the
// window open. The window matches assignments that overlap [From, To].
type AssignmentFilter struct {
	CompanyID   string
	ProjectID   string
	EmployeeIDs []string
	From        dateonly.Date
	To          dateonly.Date
}

// AssignmentRepository stores employee assignments.
type AssignmentRepository interface {
	// CreateAssignments inserts all assignments or none of them.
	CreateAssignments(ctx context.Context, assignments []Assignment) error
	UpdateAssignment(ctx context.Context, assignment Assignment) error
	GetAssignment(ctx context.Context, id string) (Assignment, error)
	ListAssignments(ctx context.Context, filter AssignmentFilter) ([]Assignment, error)
	DeleteAssignment(ctx context.Context, id string) error
}

// WorkSessionFilter narrows work session queries to sessions started within
// [StartedFrom, StartedTo]. Zero instants leave that side open.
type WorkSessionFilter struct {
	CompanyID   string
	ProjectID   string
	EmployeeID  string
	StartedFrom time.Time
	StartedTo   time.Time
}

// WorkSessionRepository stores attendance records.
type WorkSessionRepository interface {
	CreateWorkSession(ctx context.Context, session WorkSession) error
	GetWorkSession(ctx context.Context, id string) (WorkSession, error)
	// FindOpenWorkSession returns the employee's session without an end, or ErrNotFound.
	FindOpenWorkSession(ctx context.Context, employeeID string) (WorkSession, error)
	EndWorkSession(ctx context.Context, id string, endedAt time.Time) error
	ListWorkSessions(ctx context.Context, filter WorkSessionFilter) ([]WorkSession, error)
}

// Store bundles every repository behind one backend.
type Store interface {
	CompanyRepository
	ProjectRepository
	EmployeeRepository
	AssignmentRepository
	WorkSessionRepository

	Ping(ctx context.Context) error
	Close() error
}
