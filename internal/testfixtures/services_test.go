package testfixtures

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/onrope-scheduler/internal/application"
)

func seededTenant() Tenant {
	company := NewCompanyFixture()
	return Tenant{
		Company: company,
		Projects: []ProjectFixture{
			NewProjectFixture(company.ID, WithProjectTitle("Tower X")),
			NewProjectFixture(company.ID, WithProjectTitle("Bridge Y"), WithProjectTimezone("America/Toronto")),
		},
		Employees: []EmployeeFixture{
			NewEmployeeFixture(company.ID, WithEmployeeName("Ana")),
			NewEmployeeFixture(company.ID, WithEmployeeName("Ben")),
		},
	}
}

func TestServiceFactoryConflictFlowOnSQLite(t *testing.T) {
	ctx := context.Background()
	harness := NewSQLiteHarness(t)
	tenant := seededTenant()
	harness.Seed(t, tenant)

	svc := NewServiceFactory(WithIDGenerator(NewIDGenerator("asg"))).Build(t, harness.Store)
	manager := tenant.Manager()
	tower, bridge := tenant.Projects[0], tenant.Projects[1]
	ana := tenant.Employees[0]

	first, err := svc.Assignments.AssignEmployees(ctx, application.AssignEmployeesParams{
		Principal: manager,
		Input: application.AssignmentInput{
			ProjectID:   tower.ID,
			EmployeeIDs: []string{ana.ID},
			StartDate:   "2024-06-01",
			EndDate:     "2024-06-05",
		},
	})
	if err != nil {
		t.Fatalf("first assignment: %v", err)
	}
	if len(first.Assignments) != 1 || first.Assignments[0].ID != "asg-1" {
		t.Fatalf("unexpected assignments %+v", first.Assignments)
	}

	input := application.AssignmentInput{
		ProjectID:   bridge.ID,
		EmployeeIDs: []string{ana.ID},
		StartDate:   "2024-06-05",
		EndDate:     "2024-06-07",
	}
	_, err = svc.Assignments.AssignEmployees(ctx, application.AssignEmployeesParams{Principal: manager, Input: input})
	var cErr *application.ConflictError
	if !errors.As(err, &cErr) || len(cErr.Conflicts) != 1 {
		t.Fatalf("expected one conflict, got %v", err)
	}
	if got := cErr.Conflicts[0]; got.AssignmentID != "asg-1" || got.JobTitle != "Tower X" || got.Overlap.String() != "2024-06-05..2024-06-05" {
		t.Fatalf("unexpected conflict %+v", got)
	}

	input.ConfirmConflicts = true
	second, err := svc.Assignments.AssignEmployees(ctx, application.AssignEmployeesParams{Principal: manager, Input: input})
	if err != nil {
		t.Fatalf("confirmed assignment: %v", err)
	}
	if len(second.Conflicts) != 1 {
		t.Fatalf("expected the acknowledged conflict to be reported, got %+v", second.Conflicts)
	}
}

func TestServiceFactoryAttendanceUsesProjectZone(t *testing.T) {
	ctx := context.Background()
	harness := NewSQLiteHarness(t)
	tenant := seededTenant()
	harness.Seed(t, tenant)

	clock := NewClock(time.Time{})
	svc := NewServiceFactory(WithClock(clock)).Build(t, harness.Store)
	ana := tenant.Employees[0]

	// 23:30 in Vancouver is already the next day in UTC.
	clock.SetLocal("America/Vancouver", 2024, time.March, 10, 23, 30)
	session, err := svc.Attendance.ClockIn(ctx, application.ClockInParams{
		Principal:  tenant.Technician(ana.ID),
		ProjectID:  tenant.Projects[0].ID,
		EmployeeID: ana.ID,
	})
	if err != nil {
		t.Fatalf("clock in: %v", err)
	}
	if session.WorkDate.String() != "2024-03-10" {
		t.Fatalf("expected work date 2024-03-10, got %s", session.WorkDate)
	}

	clock.Advance(time.Hour)
	if _, err := svc.Attendance.ClockOut(ctx, application.ClockOutParams{Principal: tenant.Technician(ana.ID), SessionID: session.ID}); err != nil {
		t.Fatalf("clock out: %v", err)
	}

	report, err := svc.Attendance.DailyAttendance(ctx, tenant.Manager(), tenant.Projects[0].ID, "2024-03-10")
	if err != nil {
		t.Fatalf("daily attendance: %v", err)
	}
	if len(report.Employees) != 1 || report.Employees[0].Worked != 30*time.Minute {
		t.Fatalf("expected the session clipped at midnight, got %+v", report.Employees)
	}
}
