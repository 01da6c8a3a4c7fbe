package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"testing"
	"time"

	"github.com/example/onrope-scheduler/internal/application"
	"github.com/example/onrope-scheduler/internal/dateonly"
	"github.com/example/onrope-scheduler/internal/persistence"
	"github.com/example/onrope-scheduler/internal/timezone"
)

func sampleWarning() application.ConflictWarning {
	return application.ConflictWarning{
		AssignmentID: "asg-1",
		Type:         "double_booking",
		EmployeeID:   "emp-a",
		EmployeeName: "Ana",
		JobID:        "prj-bridge",
		JobTitle:     "Bridge Y",
		Overlap:      dateonly.Range{Start: dateonly.MustParse("2024-06-03"), End: dateonly.MustParse("2024-06-04")},
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t)
	if rec := doRequest(router, http.MethodGet, "/healthz", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	failing := NewRouter(RouterConfig{
		JWTSecret: testSecret,
		Health:    func(context.Context) error { return errors.New("database unreachable") },
	})
	if rec := doRequest(failing, http.MethodGet, "/healthz", "", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestCreateAssignmentConflictPayload(t *testing.T) {
	t.Parallel()

	router, svc := newTestRouter(t)
	svc.assignments.err = &application.ConflictError{Conflicts: []application.ConflictWarning{sampleWarning()}}

	body := `{"project_id":"prj-tower","employee_ids":["emp-a"],"start_date":"2024-06-01","end_date":"2024-06-05"}`
	rec := doRequest(router, http.MethodPost, "/assignments", managerToken(t), body)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}

	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["error_code"] != "SCHEDULE_CONFLICT" || payload["requires_confirmation"] != true {
		t.Fatalf("unexpected payload %v", payload)
	}
	conflicts, ok := payload["conflicts"].([]any)
	if !ok || len(conflicts) != 1 {
		t.Fatalf("expected one conflict, got %v", payload["conflicts"])
	}
	want := map[string]any{
		"assignment_id": "asg-1",
		"type":          "double_booking",
		"employee_id":   "emp-a",
		"employee_name": "Ana",
		"job_id":        "prj-bridge",
		"job_title":     "Bridge Y",
		"overlap_start": "2024-06-03",
		"overlap_end":   "2024-06-04",
	}
	if !reflect.DeepEqual(conflicts[0], want) {
		t.Fatalf("unexpected conflict %v", conflicts[0])
	}

	got := svc.assignments.lastAssign.Input
	if got.ProjectID != "prj-tower" || got.StartDate != "2024-06-01" || got.EndDate != "2024-06-05" || got.ConfirmConflicts {
		t.Fatalf("unexpected input %+v", got)
	}
}

func TestCreateAssignmentProceedAnyway(t *testing.T) {
	t.Parallel()

	router, svc := newTestRouter(t)
	svc.assignments.warnings = []application.ConflictWarning{sampleWarning()}
	svc.assignments.created = []persistence.Assignment{{
		ID:         "asg-9",
		ProjectID:  "prj-tower",
		EmployeeID: "emp-a",
		StartDate:  dateonly.MustParse("2024-06-01"),
		EndDate:    dateonly.MustParse("2024-06-05"),
	}}

	body := `{"project_id":"prj-tower","employee_ids":["emp-a"],"start_date":"2024-06-01","end_date":"2024-06-05","confirm_conflicts":true}`
	rec := doRequest(router, http.MethodPost, "/assignments", managerToken(t), body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if !svc.assignments.lastAssign.Input.ConfirmConflicts {
		t.Fatal("expected confirmation to reach the service")
	}

	var resp assignResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Assignments) != 1 || resp.Assignments[0].StartDate.String() != "2024-06-01" {
		t.Fatalf("unexpected assignments %+v", resp.Assignments)
	}
	if len(resp.Conflicts) != 1 || resp.Conflicts[0].AssignmentID != "asg-1" {
		t.Fatalf("expected the acknowledged conflict in the response, got %+v", resp.Conflicts)
	}
}

func TestCreateAssignmentEnforcedDoubleBooking(t *testing.T) {
	t.Parallel()

	router, svc := newTestRouter(t)
	svc.assignments.err = &application.ConflictError{Conflicts: []application.ConflictWarning{sampleWarning()}, Enforced: true}

	rec := doRequest(router, http.MethodPost, "/assignments", managerToken(t), `{"confirm_conflicts":true}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	var resp conflictResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ErrorCode != "DOUBLE_BOOKING" || resp.RequiresConfirmation {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestServiceErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{name: "validation", err: &application.ValidationError{FieldErrors: map[string]string{"start_date": "start_date is required"}}, wantCode: http.StatusUnprocessableEntity, wantErr: "VALIDATION_FAILED"},
		{name: "forbidden", err: application.ErrForbidden, wantCode: http.StatusForbidden, wantErr: "AUTH_FORBIDDEN"},
		{name: "not found", err: application.ErrNotFound, wantCode: http.StatusNotFound, wantErr: "NOT_FOUND"},
		{name: "schedule validation", err: fmt.Errorf("%w: boom", application.ErrScheduleValidation), wantCode: http.StatusInternalServerError, wantErr: "SCHEDULE_VALIDATION_FAILED"},
		{name: "unexpected", err: errors.New("boom"), wantCode: http.StatusInternalServerError, wantErr: "INTERNAL"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			router, svc := newTestRouter(t)
			svc.assignments.err = tc.err

			rec := doRequest(router, http.MethodPost, "/assignments/conflicts", managerToken(t), `{"project_id":"prj-tower"}`)
			if rec.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d", tc.wantCode, rec.Code)
			}
			var resp errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.ErrorCode != tc.wantErr {
				t.Fatalf("expected %s, got %s", tc.wantErr, resp.ErrorCode)
			}
		})
	}
}

func TestFrenchLocalisation(t *testing.T) {
	t.Parallel()

	router, svc := newTestRouter(t)
	svc.assignments.err = &application.ValidationError{FieldErrors: map[string]string{
		"end_date":     "end_date must not be before start_date",
		"employee_ids": "unknown employee ids: emp-z",
	}}

	rec := doRequest(router, http.MethodPost, "/assignments", managerToken(t), `{}`, "Accept-Language", "fr-CA,fr;q=0.9,en;q=0.5")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Message != "Certains champs sont invalides." {
		t.Fatalf("unexpected message %q", resp.Message)
	}
	if resp.Errors["end_date"] != "La date de fin ne peut pas précéder la date de début." {
		t.Fatalf("unexpected end_date message %q", resp.Errors["end_date"])
	}
	if resp.Errors["employee_ids"] != "Identifiants d'employés inconnus : emp-z" {
		t.Fatalf("unexpected employee_ids message %q", resp.Errors["employee_ids"])
	}
}

func TestInvalidJSONBody(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t)
	for _, target := range []string{"/assignments", "/projects", "/employees", "/work-sessions"} {
		rec := doRequest(router, http.MethodPost, target, managerToken(t), `{"project_id":`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, rec.Code)
		}
	}
}

func TestCheckConflicts(t *testing.T) {
	t.Parallel()

	router, svc := newTestRouter(t)
	body := `{"assignment_id":"asg-7","project_id":"prj-tower","employee_ids":["emp-a","emp-b"],"start_date":"2024-06-01","end_date":"2024-06-01"}`

	rec := doRequest(router, http.MethodPost, "/assignments/conflicts", managerToken(t), body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp conflictCheckResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.HasConflicts || resp.Conflicts == nil {
		t.Fatalf("expected an empty conflict list, got %+v", resp)
	}
	if svc.assignments.lastCheck.AssignmentID != "asg-7" || len(svc.assignments.lastCheck.Input.EmployeeIDs) != 2 {
		t.Fatalf("unexpected params %+v", svc.assignments.lastCheck)
	}

	svc.assignments.warnings = []application.ConflictWarning{sampleWarning()}
	rec = doRequest(router, http.MethodPost, "/assignments/conflicts", managerToken(t), body)
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.HasConflicts || len(resp.Conflicts) != 1 {
		t.Fatalf("expected one conflict, got %+v", resp)
	}
}

func TestListAssignmentsQuery(t *testing.T) {
	t.Parallel()

	router, svc := newTestRouter(t)
	rec := doRequest(router, http.MethodGet, "/assignments?project_id=prj-tower&employee_id=emp-a,emp-b&employee_id=emp-c&from=2024-06-01&to=2024-06-30", managerToken(t), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	got := svc.assignments.lastList
	if got.ProjectID != "prj-tower" || got.From != "2024-06-01" || got.To != "2024-06-30" {
		t.Fatalf("unexpected params %+v", got)
	}
	if want := []string{"emp-a", "emp-b", "emp-c"}; !reflect.DeepEqual(got.EmployeeIDs, want) {
		t.Fatalf("expected %v, got %v", want, got.EmployeeIDs)
	}
}

func TestRescheduleAndDelete(t *testing.T) {
	t.Parallel()

	router, svc := newTestRouter(t)
	rec := doRequest(router, http.MethodPut, "/assignments/asg-3", managerToken(t), `{"start_date":"2024-07-01","end_date":"2024-07-02"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.assignments.lastMove.AssignmentID != "asg-3" || svc.assignments.lastMove.StartDate != "2024-07-01" {
		t.Fatalf("unexpected params %+v", svc.assignments.lastMove)
	}

	rec = doRequest(router, http.MethodDelete, "/assignments/asg-3", managerToken(t), "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if svc.assignments.deletedID != "asg-3" {
		t.Fatalf("unexpected deleted id %q", svc.assignments.deletedID)
	}
}

func TestDayBounds(t *testing.T) {
	t.Parallel()

	router, svc := newTestRouter(t)
	svc.attendance.bounds = timezone.Bounds{
		Timezone: "America/Vancouver",
		Date:     dateonly.MustParse("2024-03-10"),
		StartUTC: time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC),
		EndUTC:   time.Date(2024, 3, 11, 6, 59, 59, 999_000_000, time.UTC),
	}

	rec := doRequest(router, http.MethodGet, "/projects/prj-tower/day-bounds?at=2024-03-10T12:00:00-07:00", managerToken(t), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if want := time.Date(2024, 3, 10, 19, 0, 0, 0, time.UTC); !svc.attendance.lastReference.Equal(want) {
		t.Fatalf("expected reference %v, got %v", want, svc.attendance.lastReference)
	}
	var resp boundsDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Date.String() != "2024-03-10" || resp.EndUTC.Sub(resp.StartUTC) != 23*time.Hour-time.Millisecond {
		t.Fatalf("unexpected bounds %+v", resp)
	}

	rec = doRequest(router, http.MethodGet, "/projects/prj-tower/day-bounds?at=yesterday", managerToken(t), "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAttendanceEndpoints(t *testing.T) {
	t.Parallel()

	router, svc := newTestRouter(t)
	started := time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC)
	svc.attendance.session = persistence.WorkSession{
		ID:         "ws-1",
		ProjectID:  "prj-tower",
		EmployeeID: "emp-a",
		WorkDate:   dateonly.MustParse("2024-06-01"),
		StartedAt:  started,
	}

	rec := doRequest(router, http.MethodPost, "/work-sessions", managerToken(t), `{"project_id":"prj-tower","employee_id":"emp-a"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.attendance.lastClockIn.EmployeeID != "emp-a" {
		t.Fatalf("unexpected params %+v", svc.attendance.lastClockIn)
	}

	svc.attendance.err = application.ErrOpenWorkSession
	rec = doRequest(router, http.MethodPost, "/work-sessions", managerToken(t), `{"project_id":"prj-tower"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	svc.attendance.err = nil

	svc.attendance.report = application.DailyAttendance{
		Sessions:  []persistence.WorkSession{svc.attendance.session},
		Employees: []application.EmployeeAttendance{{EmployeeID: "emp-a", Worked: 90 * time.Minute, Open: true}},
	}
	rec = doRequest(router, http.MethodGet, "/projects/prj-tower/attendance?date=2024-06-01", managerToken(t), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.attendance.lastDate != "2024-06-01" {
		t.Fatalf("unexpected date %q", svc.attendance.lastDate)
	}
	var resp attendanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Employees) != 1 || resp.Employees[0].WorkedMinutes != 90 || !resp.Employees[0].Open {
		t.Fatalf("unexpected totals %+v", resp.Employees)
	}
	if len(resp.Sessions) != 1 || resp.Sessions[0].EndedAt != nil {
		t.Fatalf("unexpected sessions %+v", resp.Sessions)
	}

	ended := started.Add(time.Hour)
	svc.attendance.session.EndedAt = &ended
	rec = doRequest(router, http.MethodPost, "/work-sessions/ws-1/end", managerToken(t), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestDirectoryEndpoints(t *testing.T) {
	t.Parallel()

	router, svc := newTestRouter(t)
	svc.directory.projects = []persistence.Project{{ID: "prj-tower", Title: "Tower X"}}
	svc.directory.employees = []persistence.Employee{{ID: "emp-a", Name: "Ana", EmergencyContact: "1-555"}}

	rec := doRequest(router, http.MethodPut, "/company", managerToken(t), `{"name":"Acme Rope","timezone":"America/Vancouver"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.directory.lastUpsert.Timezone != "America/Vancouver" {
		t.Fatalf("unexpected params %+v", svc.directory.lastUpsert)
	}

	rec = doRequest(router, http.MethodPost, "/projects", managerToken(t), `{"title":"Dam Z","timezone":"America/Edmonton"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	rec = doRequest(router, http.MethodGet, "/projects/prj-missing", managerToken(t), "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	rec = doRequest(router, http.MethodGet, "/employees/emp-a", managerToken(t), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var employee employeeDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &employee); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if employee.EmergencyContact != "1-555" {
		t.Fatalf("unexpected employee %+v", employee)
	}

	rec = doRequest(router, http.MethodGet, "/employees", managerToken(t), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
