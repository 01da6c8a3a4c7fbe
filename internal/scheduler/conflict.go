package scheduler

import (
	"errors"
	"fmt"
	"sort"

	"github.com/example/onrope-scheduler/internal/dateonly"
)

// ErrInvalidRange is returned when an assignment or candidate ends before it starts.
var ErrInvalidRange = errors.New("scheduler: invalid date range")

// Assignment is the read-only projection of a persisted assignment used for conflict checks.
type Assignment struct {
	ID           string
	EmployeeID   string
	EmployeeName string
	JobID        string
	JobTitle     string
	Dates        dateonly.Range
}

// Candidate is a proposed assignment of one or more employees to a job.
// AssignmentID is set when the candidate reschedules an existing record.
type Candidate struct {
	AssignmentID string
	EmployeeIDs  []string
	JobID        string
	Dates        dateonly.Range
}

// ConflictType describes the type of conflict detected between assignments.
type ConflictType string

const (
	// ConflictTypeEmployee indicates an employee is booked on two jobs for the same day.
	ConflictTypeEmployee ConflictType = "employee"
)

// Conflict details an overlapping assignment that callers can present to users.
type Conflict struct {
	WithAssignmentID string
	Type             ConflictType
	EmployeeID       string
	EmployeeName     string
	JobID            string
	JobTitle         string
	Overlap          dateonly.Range
}

// DetectConflicts identifies existing assignments that overlap the candidate for any of its
// employees. Ranges are inclusive, so sharing a single calendar day is a conflict. The
// assignment being rescheduled is excluded by identity.
func DetectConflicts(existing []Assignment, candidate Candidate) ([]Conflict, error) {
	if err := candidate.Dates.Validate(); err != nil {
		return nil, fmt.Errorf("%w: candidate %s: %v", ErrInvalidRange, candidate.Dates, err)
	}

	byEmployee := make(map[string][]Assignment)
	for _, assignment := range existing {
		if err := assignment.Dates.Validate(); err != nil {
			return nil, fmt.Errorf("%w: assignment %s: %v", ErrInvalidRange, assignment.ID, err)
		}
		if candidate.AssignmentID != "" && assignment.ID == candidate.AssignmentID {
			continue
		}
		byEmployee[assignment.EmployeeID] = append(byEmployee[assignment.EmployeeID], assignment)
	}

	var conflicts []Conflict
	seen := make(map[string]struct{}, len(candidate.EmployeeIDs))
	for _, employeeID := range candidate.EmployeeIDs {
		if _, dup := seen[employeeID]; dup {
			continue
		}
		seen[employeeID] = struct{}{}

		matches := byEmployee[employeeID]
		sort.SliceStable(matches, func(i, j int) bool {
			if c := matches[i].Dates.Start.Compare(matches[j].Dates.Start); c != 0 {
				return c < 0
			}
			return matches[i].ID < matches[j].ID
		})

		for _, assignment := range matches {
			overlap, ok := candidate.Dates.Intersect(assignment.Dates)
			if !ok {
				continue
			}
			conflicts = append(conflicts, Conflict{
				WithAssignmentID: assignment.ID,
				Type:             ConflictTypeEmployee,
				EmployeeID:       employeeID,
				EmployeeName:     assignment.EmployeeName,
				JobID:            assignment.JobID,
				JobTitle:         assignment.JobTitle,
				Overlap:          overlap,
			})
		}
	}
	return conflicts, nil
}

// HasConflicts reports whether DetectConflicts would return at least one conflict.
func HasConflicts(existing []Assignment, candidate Candidate) (bool, error) {
	conflicts, err := DetectConflicts(existing, candidate)
	if err != nil {
		return false, err
	}
	return len(conflicts) > 0, nil
}
