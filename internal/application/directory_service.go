package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/onrope-scheduler/internal/persistence"
	"github.com/example/onrope-scheduler/internal/timezone"
)

// DirectoryStore captures the persistence interactions needed by DirectoryService.
type DirectoryStore interface {
	persistence.CompanyRepository
	persistence.ProjectRepository
	persistence.EmployeeRepository
}

// FieldCipher seals sensitive employee fields at rest.
type FieldCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(value string) (string, error)
}

// DirectoryService manages companies, projects, and employees.
type DirectoryService struct {
	store       DirectoryStore
	cipher      FieldCipher
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewDirectoryService wires dependencies for directory operations.
func NewDirectoryService(store DirectoryStore, cipher FieldCipher, idGenerator func() string, now func() time.Time, logger *slog.Logger) *DirectoryService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &DirectoryService{
		store:       store,
		cipher:      cipher,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// GetCompany returns the caller's company.
func (s *DirectoryService) GetCompany(ctx context.Context, principal Principal) (persistence.Company, error) {
	if err := requirePrincipal(principal); err != nil {
		return persistence.Company{}, err
	}
	company, err := s.store.GetCompany(ctx, principal.CompanyID)
	if err != nil {
		return persistence.Company{}, mapRepoError(err)
	}
	return company, nil
}

// UpsertCompany creates or updates the caller's company. Only the company role may do so.
func (s *DirectoryService) UpsertCompany(ctx context.Context, params UpsertCompanyParams) (persistence.Company, error) {
	principal := params.Principal
	logger := serviceLogger(ctx, s.logger, "directory", "upsert_company", "company_id", principal.CompanyID)

	if err := requirePrincipal(principal); err != nil {
		return persistence.Company{}, err
	}
	if principal.Role != RoleCompany {
		return persistence.Company{}, ErrForbidden
	}

	vErr := &ValidationError{}
	name := strings.TrimSpace(params.Name)
	if name == "" {
		vErr.add("name", "name is required")
	}
	validateTimezoneField(params.Timezone, vErr)
	if vErr.HasErrors() {
		return persistence.Company{}, vErr
	}

	now := s.now()
	company := persistence.Company{
		ID:        principal.CompanyID,
		Name:      name,
		Timezone:  strings.TrimSpace(params.Timezone),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if existing, err := s.store.GetCompany(ctx, principal.CompanyID); err == nil {
		company.CreatedAt = existing.CreatedAt
	} else if !isNotFoundError(err) {
		return persistence.Company{}, err
	}

	if err := s.store.UpsertCompany(ctx, company); err != nil {
		logger.Error("company upsert failed", "error_kind", ErrorKind(err), "error", err)
		return persistence.Company{}, mapRepoError(err)
	}
	logger.Info("company saved")
	return company, nil
}

// CreateProject registers a project under the caller's company.
func (s *DirectoryService) CreateProject(ctx context.Context, params CreateProjectParams) (persistence.Project, error) {
	principal := params.Principal
	if err := requireManager(principal); err != nil {
		return persistence.Project{}, err
	}

	vErr := &ValidationError{}
	title := strings.TrimSpace(params.Title)
	if title == "" {
		vErr.add("title", "title is required")
	}
	validateTimezoneField(params.Timezone, vErr)
	if vErr.HasErrors() {
		return persistence.Project{}, vErr
	}

	now := s.now()
	project := persistence.Project{
		ID:        s.idGenerator(),
		CompanyID: principal.CompanyID,
		Title:     title,
		Timezone:  strings.TrimSpace(params.Timezone),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateProject(ctx, project); err != nil {
		return persistence.Project{}, mapRepoError(err)
	}
	serviceLogger(ctx, s.logger, "directory", "create_project", "project_id", project.ID).Info("project created")
	return project, nil
}

// GetProject returns a project of the caller's company.
func (s *DirectoryService) GetProject(ctx context.Context, principal Principal, id string) (persistence.Project, error) {
	if err := requirePrincipal(principal); err != nil {
		return persistence.Project{}, err
	}
	project, err := s.store.GetProject(ctx, id)
	if err != nil {
		return persistence.Project{}, mapRepoError(err)
	}
	if err := sameCompany(principal, project.CompanyID); err != nil {
		return persistence.Project{}, err
	}
	return project, nil
}

// ListProjects returns the caller's projects ordered by title.
func (s *DirectoryService) ListProjects(ctx context.Context, principal Principal) ([]persistence.Project, error) {
	if err := requirePrincipal(principal); err != nil {
		return nil, err
	}
	projects, err := s.store.ListProjects(ctx, principal.CompanyID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return projects, nil
}

// CreateEmployee registers an employee. The emergency contact is encrypted before storage
// and returned in plaintext.
func (s *DirectoryService) CreateEmployee(ctx context.Context, params CreateEmployeeParams) (persistence.Employee, error) {
	principal := params.Principal
	if err := requireManager(principal); err != nil {
		return persistence.Employee{}, err
	}

	name := strings.TrimSpace(params.Name)
	if name == "" {
		return persistence.Employee{}, newValidationError("name", "name is required")
	}

	contact := strings.TrimSpace(params.EmergencyContact)
	sealed, err := s.cipher.Encrypt(contact)
	if err != nil {
		return persistence.Employee{}, fmt.Errorf("encrypt emergency contact: %w", err)
	}

	now := s.now()
	employee := persistence.Employee{
		ID:               s.idGenerator(),
		CompanyID:        principal.CompanyID,
		Name:             name,
		EmergencyContact: sealed,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.CreateEmployee(ctx, employee); err != nil {
		return persistence.Employee{}, mapRepoError(err)
	}
	serviceLogger(ctx, s.logger, "directory", "create_employee", "employee_id", employee.ID).Info("employee created")

	employee.EmergencyContact = contact
	return employee, nil
}

// GetEmployee returns an employee with the emergency contact decrypted for managers
// and for the employee themself. Other callers receive it blank.
func (s *DirectoryService) GetEmployee(ctx context.Context, principal Principal, id string) (persistence.Employee, error) {
	if err := requirePrincipal(principal); err != nil {
		return persistence.Employee{}, err
	}
	employee, err := s.store.GetEmployee(ctx, id)
	if err != nil {
		return persistence.Employee{}, mapRepoError(err)
	}
	if err := sameCompany(principal, employee.CompanyID); err != nil {
		return persistence.Employee{}, err
	}

	if !principal.Role.CanManageSchedule() && principal.EmployeeID != employee.ID {
		employee.EmergencyContact = ""
		return employee, nil
	}
	contact, err := s.cipher.Decrypt(employee.EmergencyContact)
	if err != nil {
		serviceLogger(ctx, s.logger, "directory", "get_employee", "employee_id", id).
			Error("emergency contact could not be decrypted", "error", err)
		return persistence.Employee{}, fmt.Errorf("decrypt emergency contact: %w", err)
	}
	employee.EmergencyContact = contact
	return employee, nil
}

// ListEmployees returns the caller's employees ordered by name without emergency contacts.
func (s *DirectoryService) ListEmployees(ctx context.Context, principal Principal) ([]persistence.Employee, error) {
	if err := requirePrincipal(principal); err != nil {
		return nil, err
	}
	employees, err := s.store.ListEmployees(ctx, principal.CompanyID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	for i := range employees {
		employees[i].EmergencyContact = ""
	}
	return employees, nil
}

func validateTimezoneField(tz string, vErr *ValidationError) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return
	}
	if err := timezone.Validate(tz); err != nil {
		vErr.add("timezone", "timezone must be an IANA zone name")
	}
}
