package testfixtures

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/onrope-scheduler/internal/application"
	"github.com/example/onrope-scheduler/internal/dateonly"
	"github.com/example/onrope-scheduler/internal/persistence"
	"github.com/example/onrope-scheduler/internal/scheduler"
)

var (
	companyCounter    uint64
	projectCounter    uint64
	employeeCounter   uint64
	assignmentCounter uint64
	sessionCounter    uint64
)

// 09:00 in Vancouver.
var referenceTime = time.Date(2024, time.June, 1, 16, 0, 0, 0, time.UTC)

// ReferenceTime returns the baseline instant used by fixtures and NewClock.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- Company fixtures -----------------------------

type CompanyFixture struct {
	ID        string
	Name      string
	Timezone  string
	CreatedAt time.Time
}

type CompanyOption func(*CompanyFixture)

// NewCompanyFixture returns a company in America/Vancouver unless overridden.
func NewCompanyFixture(opts ...CompanyOption) CompanyFixture {
	idx := atomic.AddUint64(&companyCounter, 1)
	fixture := CompanyFixture{
		ID:        fmt.Sprintf("co-%03d", idx),
		Name:      fmt.Sprintf("Rope Co %03d", idx),
		Timezone:  "America/Vancouver",
		CreatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithCompanyID(id string) CompanyOption {
	return func(f *CompanyFixture) { f.ID = id }
}

// WithCompanyTimezone sets the tenant default zone. Empty leaves it unset.
func WithCompanyTimezone(tz string) CompanyOption {
	return func(f *CompanyFixture) { f.Timezone = tz }
}

func (f CompanyFixture) Persistence() persistence.Company {
	return persistence.Company{
		ID:        f.ID,
		Name:      f.Name,
		Timezone:  f.Timezone,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.CreatedAt,
	}
}

// ----------------------------- Project fixtures -----------------------------

type ProjectFixture struct {
	ID        string
	CompanyID string
	Title     string
	Timezone  string
	CreatedAt time.Time
}

type ProjectOption func(*ProjectFixture)

// NewProjectFixture returns a project without its own timezone.
func NewProjectFixture(companyID string, opts ...ProjectOption) ProjectFixture {
	idx := atomic.AddUint64(&projectCounter, 1)
	fixture := ProjectFixture{
		ID:        fmt.Sprintf("prj-%03d", idx),
		CompanyID: companyID,
		Title:     fmt.Sprintf("Project %03d", idx),
		CreatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithProjectID(id string) ProjectOption {
	return func(f *ProjectFixture) { f.ID = id }
}

func WithProjectTitle(title string) ProjectOption {
	return func(f *ProjectFixture) { f.Title = title }
}

func WithProjectTimezone(tz string) ProjectOption {
	return func(f *ProjectFixture) { f.Timezone = tz }
}

func (f ProjectFixture) Persistence() persistence.Project {
	return persistence.Project{
		ID:        f.ID,
		CompanyID: f.CompanyID,
		Title:     f.Title,
		Timezone:  f.Timezone,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.CreatedAt,
	}
}

// ----------------------------- Employee fixtures -----------------------------

type EmployeeFixture struct {
	ID               string
	CompanyID        string
	Name             string
	EmergencyContact string
	CreatedAt        time.Time
}

type EmployeeOption func(*EmployeeFixture)

func NewEmployeeFixture(companyID string, opts ...EmployeeOption) EmployeeFixture {
	idx := atomic.AddUint64(&employeeCounter, 1)
	fixture := EmployeeFixture{
		ID:        fmt.Sprintf("emp-%03d", idx),
		CompanyID: companyID,
		Name:      fmt.Sprintf("Tech %03d", idx),
		CreatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithEmployeeID(id string) EmployeeOption {
	return func(f *EmployeeFixture) { f.ID = id }
}

func WithEmployeeName(name string) EmployeeOption {
	return func(f *EmployeeFixture) { f.Name = name }
}

// WithEmergencyContact stores the value as given; callers seal it first when
// the test reads it back through DirectoryService.
func WithEmergencyContact(contact string) EmployeeOption {
	return func(f *EmployeeFixture) { f.EmergencyContact = contact }
}

func (f EmployeeFixture) Persistence() persistence.Employee {
	return persistence.Employee{
		ID:               f.ID,
		CompanyID:        f.CompanyID,
		Name:             f.Name,
		EmergencyContact: f.EmergencyContact,
		CreatedAt:        f.CreatedAt,
		UpdatedAt:        f.CreatedAt,
	}
}

// ----------------------------- Assignment fixtures -----------------------------

type AssignmentFixture struct {
	ID         string
	CompanyID  string
	ProjectID  string
	EmployeeID string
	StartDate  dateonly.Date
	EndDate    dateonly.Date
	CreatedBy  string
	CreatedAt  time.Time
}

type AssignmentOption func(*AssignmentFixture)

// NewAssignmentFixture books the employee on the project for the reference day.
func NewAssignmentFixture(companyID, projectID, employeeID string, opts ...AssignmentOption) AssignmentFixture {
	idx := atomic.AddUint64(&assignmentCounter, 1)
	day := dateonly.FromTime(referenceTime)
	fixture := AssignmentFixture{
		ID:         fmt.Sprintf("asg-%03d", idx),
		CompanyID:  companyID,
		ProjectID:  projectID,
		EmployeeID: employeeID,
		StartDate:  day,
		EndDate:    day,
		CreatedBy:  "user-fixture",
		CreatedAt:  referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithAssignmentID(id string) AssignmentOption {
	return func(f *AssignmentFixture) { f.ID = id }
}

// WithAssignmentDates sets the inclusive range from YYYY-MM-DD strings.
func WithAssignmentDates(start, end string) AssignmentOption {
	return func(f *AssignmentFixture) {
		f.StartDate = dateonly.MustParse(start)
		f.EndDate = dateonly.MustParse(end)
	}
}

func (f AssignmentFixture) Persistence() persistence.Assignment {
	return persistence.Assignment{
		ID:         f.ID,
		CompanyID:  f.CompanyID,
		ProjectID:  f.ProjectID,
		EmployeeID: f.EmployeeID,
		StartDate:  f.StartDate,
		EndDate:    f.EndDate,
		CreatedBy:  f.CreatedBy,
		CreatedAt:  f.CreatedAt,
		UpdatedAt:  f.CreatedAt,
	}
}

// Scheduler returns the fixture as an existing assignment for the conflict detector.
func (f AssignmentFixture) Scheduler() scheduler.Assignment {
	return scheduler.Assignment{
		ID:         f.ID,
		EmployeeID: f.EmployeeID,
		JobID:      f.ProjectID,
		Dates:      dateonly.Range{Start: f.StartDate, End: f.EndDate},
	}
}

// Input returns the fixture as an AssignEmployees request body.
func (f AssignmentFixture) Input() application.AssignmentInput {
	return application.AssignmentInput{
		ProjectID:   f.ProjectID,
		EmployeeIDs: []string{f.EmployeeID},
		StartDate:   f.StartDate.String(),
		EndDate:     f.EndDate.String(),
	}
}

// ----------------------------- Work session fixtures -----------------------------

type WorkSessionFixture struct {
	ID         string
	CompanyID  string
	ProjectID  string
	EmployeeID string
	WorkDate   dateonly.Date
	StartedAt  time.Time
	EndedAt    *time.Time
}

type WorkSessionOption func(*WorkSessionFixture)

// NewWorkSessionFixture returns an open session started at the reference time.
func NewWorkSessionFixture(companyID, projectID, employeeID string, opts ...WorkSessionOption) WorkSessionFixture {
	idx := atomic.AddUint64(&sessionCounter, 1)
	fixture := WorkSessionFixture{
		ID:         fmt.Sprintf("ws-%03d", idx),
		CompanyID:  companyID,
		ProjectID:  projectID,
		EmployeeID: employeeID,
		WorkDate:   dateonly.FromTime(referenceTime),
		StartedAt:  referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithWorkSessionID(id string) WorkSessionOption {
	return func(f *WorkSessionFixture) { f.ID = id }
}

// WithWorkSessionSpan sets the start and the work date. A zero end leaves the session open.
func WithWorkSessionSpan(workDate string, started, ended time.Time) WorkSessionOption {
	return func(f *WorkSessionFixture) {
		f.WorkDate = dateonly.MustParse(workDate)
		f.StartedAt = started
		if ended.IsZero() {
			f.EndedAt = nil
			return
		}
		end := ended
		f.EndedAt = &end
	}
}

func (f WorkSessionFixture) Persistence() persistence.WorkSession {
	session := persistence.WorkSession{
		ID:         f.ID,
		CompanyID:  f.CompanyID,
		ProjectID:  f.ProjectID,
		EmployeeID: f.EmployeeID,
		WorkDate:   f.WorkDate,
		StartedAt:  f.StartedAt,
		CreatedAt:  f.StartedAt,
		UpdatedAt:  f.StartedAt,
	}
	if f.EndedAt != nil {
		end := *f.EndedAt
		session.EndedAt = &end
		session.UpdatedAt = end
	}
	return session
}

// ----------------------------- Seeding -----------------------------

// Tenant is a seeded company with its projects and crew.
type Tenant struct {
	Company   CompanyFixture
	Projects  []ProjectFixture
	Employees []EmployeeFixture
}

// Seed writes the tenant to store, company first.
func (t Tenant) Seed(ctx context.Context, store persistence.Store) error {
	if err := store.UpsertCompany(ctx, t.Company.Persistence()); err != nil {
		return fmt.Errorf("seed company %s: %w", t.Company.ID, err)
	}
	for _, p := range t.Projects {
		if err := store.CreateProject(ctx, p.Persistence()); err != nil {
			return fmt.Errorf("seed project %s: %w", p.ID, err)
		}
	}
	for _, e := range t.Employees {
		if err := store.CreateEmployee(ctx, e.Persistence()); err != nil {
			return fmt.Errorf("seed employee %s: %w", e.ID, err)
		}
	}
	return nil
}

// Manager returns an operations manager principal for the tenant.
func (t Tenant) Manager() application.Principal {
	return application.Principal{UserID: "user-mgr-" + t.Company.ID, CompanyID: t.Company.ID, Role: application.RoleOperationsManager}
}

// Technician returns a rope access technician principal bound to the employee.
func (t Tenant) Technician(employeeID string) application.Principal {
	return application.Principal{UserID: "user-" + employeeID, CompanyID: t.Company.ID, EmployeeID: employeeID, Role: application.RoleRopeAccessTech}
}
