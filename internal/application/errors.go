package application

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUnauthorized is returned when no principal accompanies the request.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrForbidden is returned when the principal's role does not allow the operation.
	ErrForbidden = errors.New("application: forbidden")
	// ErrNotFound is returned when the requested resource does not exist in the caller's company.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a record with the same identity exists.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrConflictsUnconfirmed is matched by a ConflictError the caller may override.
	ErrConflictsUnconfirmed = errors.New("application: schedule conflicts require confirmation")
	// ErrDoubleBooking is matched by a ConflictError raised while double booking is enforced.
	ErrDoubleBooking = errors.New("application: double booking is not allowed")
	// ErrScheduleValidation is returned when the date or conflict check itself failed.
	ErrScheduleValidation = errors.New("application: could not validate schedule")
	// ErrOpenWorkSession is returned when an employee clocks in twice.
	ErrOpenWorkSession = errors.New("application: employee already has an open work session")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	if len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}

func newValidationError(field, message string) *ValidationError {
	v := &ValidationError{}
	v.add(field, message)
	return v
}

// ConflictError reports double bookings found while writing assignments.
// Enforced is set when the write is rejected regardless of confirmation.
type ConflictError struct {
	Conflicts []ConflictWarning
	Enforced  bool
}

func (e *ConflictError) Error() string {
	if e == nil {
		return ""
	}
	if e.Enforced {
		return fmt.Sprintf("double booking rejected: %d conflict(s)", len(e.Conflicts))
	}
	return fmt.Sprintf("%d schedule conflict(s) require confirmation", len(e.Conflicts))
}

// Is matches ErrDoubleBooking or ErrConflictsUnconfirmed depending on Enforced.
func (e *ConflictError) Is(target error) bool {
	if e == nil {
		return false
	}
	if e.Enforced {
		return target == ErrDoubleBooking
	}
	return target == ErrConflictsUnconfirmed
}
