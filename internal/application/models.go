package application

import (
	"time"

	"github.com/example/onrope-scheduler/internal/dateonly"
	"github.com/example/onrope-scheduler/internal/persistence"
	"github.com/example/onrope-scheduler/internal/timezone"
)

// Role is the principal's role inside its company.
type Role string

const (
	RoleCompany           Role = "company"
	RoleOperationsManager Role = "operations_manager"
	RoleSupervisor        Role = "supervisor"
	RoleRopeAccessTech    Role = "rope_access_tech"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleCompany, RoleOperationsManager, RoleSupervisor, RoleRopeAccessTech:
		return true
	}
	return false
}

// CanManageSchedule reports whether the role may write directory and scheduling data.
func (r Role) CanManageSchedule() bool {
	return r.Valid() && r != RoleRopeAccessTech
}

// Principal represents the authenticated caller invoking a service method.
type Principal struct {
	UserID     string
	CompanyID  string
	EmployeeID string
	Role       Role
}

// ConflictWarning describes an existing assignment that double books a candidate employee.
type ConflictWarning struct {
	AssignmentID string
	Type         string
	EmployeeID   string
	EmployeeName string
	JobID        string
	JobTitle     string
	Overlap      dateonly.Range
}

// UpsertCompanyParams wraps the data required to create or rename the caller's company.
type UpsertCompanyParams struct {
	Principal Principal
	Name      string
	Timezone  string
}

// CreateProjectParams wraps the data required to create a project.
type CreateProjectParams struct {
	Principal Principal
	Title     string
	Timezone  string
}

// CreateEmployeeParams wraps the data required to create an employee.
type CreateEmployeeParams struct {
	Principal        Principal
	Name             string
	EmergencyContact string
}

// AssignmentInput carries caller supplied dates as received on the wire.
type AssignmentInput struct {
	ProjectID        string
	EmployeeIDs      []string
	StartDate        string
	EndDate          string
	ConfirmConflicts bool
}

// CheckConflictsParams wraps a dry run. AssignmentID excludes the assignment being moved.
type CheckConflictsParams struct {
	Principal    Principal
	AssignmentID string
	Input        AssignmentInput
}

// AssignEmployeesParams wraps the data required to book employees on a project.
type AssignEmployeesParams struct {
	Principal Principal
	Input     AssignmentInput
}

// RescheduleAssignmentParams wraps the data required to move an assignment.
// An empty ProjectID keeps the current project.
type RescheduleAssignmentParams struct {
	Principal        Principal
	AssignmentID     string
	ProjectID        string
	StartDate        string
	EndDate          string
	ConfirmConflicts bool
}

// ListAssignmentsParams filters assignment listings. Empty dates leave the window open.
type ListAssignmentsParams struct {
	Principal   Principal
	ProjectID   string
	EmployeeIDs []string
	From        string
	To          string
}

// AssignResult is the outcome of a successful booking. Conflicts is set when the
// caller confirmed known conflicts.
type AssignResult struct {
	Assignments []persistence.Assignment
	Conflicts   []ConflictWarning
}

// ClockInParams wraps the data required to start a work session.
// EmployeeID defaults to the principal's employee.
type ClockInParams struct {
	Principal  Principal
	ProjectID  string
	EmployeeID string
}

// ClockOutParams wraps the data required to end a work session.
type ClockOutParams struct {
	Principal Principal
	SessionID string
}

// EmployeeAttendance sums one employee's worked time inside a project day.
type EmployeeAttendance struct {
	EmployeeID string
	Worked     time.Duration
	Open       bool
}

// DailyAttendance reports the sessions started on one project day.
type DailyAttendance struct {
	Bounds    timezone.Bounds
	Sessions  []persistence.WorkSession
	Employees []EmployeeAttendance
}
