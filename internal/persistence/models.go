package persistence

import (
	"time"

	"github.com/example/onrope-scheduler/internal/dateonly"
)

// Company is a tenant. Timezone is optional and feeds the day-boundary fallback.
type Company struct {
	ID        string
	Name      string
	Timezone  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Project is a job site that employees are assigned to.
type Project struct {
	ID        string
	CompanyID string
	Title     string
	Timezone  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Employee is a member of a company's crew. EmergencyContact holds ciphertext at rest.
type Employee struct {
	ID               string
	CompanyID        string
	Name             string
	EmergencyContact string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Assignment books one employee on one project for an inclusive range of dates.
type Assignment struct {
	ID         string
	CompanyID  string
	ProjectID  string
	EmployeeID string
	StartDate  dateonly.Date
	EndDate    dateonly.Date
	CreatedBy  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Dates returns the assignment's inclusive date range.
func (a Assignment) Dates() dateonly.Range {
	return dateonly.Range{Start: a.StartDate, End: a.EndDate}
}

// WorkSession is one clock-in/clock-out pair. WorkDate is the start instant bucketed
// into the project's calendar day.
type WorkSession struct {
	ID         string
	CompanyID  string
	ProjectID  string
	EmployeeID string
	WorkDate   dateonly.Date
	StartedAt  time.Time
	EndedAt    *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Open reports whether the session has not been clocked out yet.
func (s WorkSession) Open() bool {
	return s.EndedAt == nil
}
