package application

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	t.Parallel()

	var err *ValidationError
	if err.Error() != "" {
		t.Fatalf("expected empty string for nil error, got %q", err.Error())
	}

	empty := &ValidationError{}
	if got := empty.Error(); got != "validation failed" {
		t.Fatalf("expected generic message for empty error, got %q", got)
	}

	withFields := &ValidationError{FieldErrors: map[string]string{"end_date": "bad", "start_date": "bad"}}
	if got := withFields.Error(); got != "validation failed: end_date, start_date" {
		t.Fatalf("expected sorted field names, got %q", got)
	}
}

func TestValidationError_HasErrors(t *testing.T) {
	t.Parallel()

	if (&ValidationError{}).HasErrors() {
		t.Fatalf("expected HasErrors to report false for empty error")
	}
	if !(&ValidationError{FieldErrors: map[string]string{"field": "bad"}}).HasErrors() {
		t.Fatalf("expected HasErrors to report true when fields are present")
	}
}

func TestValidationError_AddAndMerge(t *testing.T) {
	t.Parallel()

	base := &ValidationError{}
	base.add("first", "value")
	if got := base.FieldErrors["first"]; got != "value" {
		t.Fatalf("expected add to populate map, got %q", got)
	}

	base.merge(newValidationError("second", "another"))
	if got := base.FieldErrors["second"]; got != "another" {
		t.Fatalf("expected merge to copy field, got %q", got)
	}

	base.merge(nil)
	if len(base.FieldErrors) != 2 {
		t.Fatalf("expected merge with nil to leave fields unchanged")
	}
}

func TestConflictError_Is(t *testing.T) {
	t.Parallel()

	advisory := fmt.Errorf("assign: %w", &ConflictError{Conflicts: []ConflictWarning{{AssignmentID: "a-1"}}})
	if !errors.Is(advisory, ErrConflictsUnconfirmed) {
		t.Fatalf("expected advisory conflict to match ErrConflictsUnconfirmed")
	}
	if errors.Is(advisory, ErrDoubleBooking) {
		t.Fatalf("advisory conflict must not match ErrDoubleBooking")
	}

	enforced := &ConflictError{Enforced: true}
	if !errors.Is(enforced, ErrDoubleBooking) || errors.Is(enforced, ErrConflictsUnconfirmed) {
		t.Fatalf("enforced conflict matched the wrong sentinel")
	}

	var cErr *ConflictError
	if !errors.As(advisory, &cErr) || len(cErr.Conflicts) != 1 {
		t.Fatalf("expected errors.As to expose the conflicts")
	}
}
