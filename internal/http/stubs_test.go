package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/example/onrope-scheduler/internal/application"
	"github.com/example/onrope-scheduler/internal/persistence"
	"github.com/example/onrope-scheduler/internal/timezone"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testSecret = []byte("test-secret")

type stubDirectoryService struct {
	company        persistence.Company
	projects       []persistence.Project
	employees      []persistence.Employee
	err            error
	lastPrincipal  application.Principal
	lastUpsert     application.UpsertCompanyParams
	lastEmployeeID string
}

func (s *stubDirectoryService) GetCompany(ctx context.Context, principal application.Principal) (persistence.Company, error) {
	s.lastPrincipal = principal
	return s.company, s.err
}

func (s *stubDirectoryService) UpsertCompany(ctx context.Context, params application.UpsertCompanyParams) (persistence.Company, error) {
	s.lastUpsert = params
	if s.err != nil {
		return persistence.Company{}, s.err
	}
	return persistence.Company{ID: params.Principal.CompanyID, Name: params.Name, Timezone: params.Timezone}, nil
}

func (s *stubDirectoryService) CreateProject(ctx context.Context, params application.CreateProjectParams) (persistence.Project, error) {
	if s.err != nil {
		return persistence.Project{}, s.err
	}
	return persistence.Project{ID: "prj-new", CompanyID: params.Principal.CompanyID, Title: params.Title, Timezone: params.Timezone}, nil
}

func (s *stubDirectoryService) GetProject(ctx context.Context, principal application.Principal, id string) (persistence.Project, error) {
	for _, p := range s.projects {
		if p.ID == id {
			return p, nil
		}
	}
	return persistence.Project{}, application.ErrNotFound
}

func (s *stubDirectoryService) ListProjects(ctx context.Context, principal application.Principal) ([]persistence.Project, error) {
	return s.projects, s.err
}

func (s *stubDirectoryService) CreateEmployee(ctx context.Context, params application.CreateEmployeeParams) (persistence.Employee, error) {
	if s.err != nil {
		return persistence.Employee{}, s.err
	}
	return persistence.Employee{ID: "emp-new", Name: params.Name, EmergencyContact: params.EmergencyContact}, nil
}

func (s *stubDirectoryService) GetEmployee(ctx context.Context, principal application.Principal, id string) (persistence.Employee, error) {
	s.lastEmployeeID = id
	for _, e := range s.employees {
		if e.ID == id {
			return e, nil
		}
	}
	return persistence.Employee{}, application.ErrNotFound
}

func (s *stubDirectoryService) ListEmployees(ctx context.Context, principal application.Principal) ([]persistence.Employee, error) {
	return s.employees, s.err
}

type stubAssignmentService struct {
	warnings   []application.ConflictWarning
	created    []persistence.Assignment
	listed     []persistence.Assignment
	err        error
	lastCheck  application.CheckConflictsParams
	lastAssign application.AssignEmployeesParams
	lastList   application.ListAssignmentsParams
	lastMove   application.RescheduleAssignmentParams
	deletedID  string
}

func (s *stubAssignmentService) CheckConflicts(ctx context.Context, params application.CheckConflictsParams) ([]application.ConflictWarning, error) {
	s.lastCheck = params
	return s.warnings, s.err
}

func (s *stubAssignmentService) AssignEmployees(ctx context.Context, params application.AssignEmployeesParams) (application.AssignResult, error) {
	s.lastAssign = params
	if s.err != nil {
		return application.AssignResult{}, s.err
	}
	return application.AssignResult{Assignments: s.created, Conflicts: s.warnings}, nil
}

func (s *stubAssignmentService) RescheduleAssignment(ctx context.Context, params application.RescheduleAssignmentParams) (persistence.Assignment, []application.ConflictWarning, error) {
	s.lastMove = params
	if s.err != nil {
		return persistence.Assignment{}, nil, s.err
	}
	return persistence.Assignment{ID: params.AssignmentID}, s.warnings, nil
}

func (s *stubAssignmentService) DeleteAssignment(ctx context.Context, principal application.Principal, assignmentID string) error {
	s.deletedID = assignmentID
	return s.err
}

func (s *stubAssignmentService) ListAssignments(ctx context.Context, params application.ListAssignmentsParams) ([]persistence.Assignment, error) {
	s.lastList = params
	return s.listed, s.err
}

type stubAttendanceService struct {
	bounds        timezone.Bounds
	session       persistence.WorkSession
	report        application.DailyAttendance
	err           error
	lastReference time.Time
	lastClockIn   application.ClockInParams
	lastDate      string
}

func (s *stubAttendanceService) DayBounds(ctx context.Context, principal application.Principal, projectID string, reference time.Time) (timezone.Bounds, error) {
	s.lastReference = reference
	return s.bounds, s.err
}

func (s *stubAttendanceService) ClockIn(ctx context.Context, params application.ClockInParams) (persistence.WorkSession, error) {
	s.lastClockIn = params
	return s.session, s.err
}

func (s *stubAttendanceService) ClockOut(ctx context.Context, params application.ClockOutParams) (persistence.WorkSession, error) {
	return s.session, s.err
}

func (s *stubAttendanceService) DailyAttendance(ctx context.Context, principal application.Principal, projectID, date string) (application.DailyAttendance, error) {
	s.lastDate = date
	return s.report, s.err
}

type testServices struct {
	directory   *stubDirectoryService
	assignments *stubAssignmentService
	attendance  *stubAttendanceService
}

func newTestRouter(t *testing.T) (*gin.Engine, testServices) {
	t.Helper()
	svc := testServices{
		directory:   &stubDirectoryService{},
		assignments: &stubAssignmentService{},
		attendance:  &stubAttendanceService{},
	}
	router := NewRouter(RouterConfig{
		Directory:   NewDirectoryHandler(svc.directory, nil),
		Assignments: NewAssignmentHandler(svc.assignments, nil),
		Attendance:  NewAttendanceHandler(svc.attendance, nil),
		JWTSecret:   testSecret,
	})
	return router, svc
}

func signToken(t *testing.T, method jwt.SigningMethod, key any, claims AccessClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func managerClaims() AccessClaims {
	return AccessClaims{
		CompanyID: "co-1",
		Role:      string(application.RoleOperationsManager),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-mgr",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func managerToken(t *testing.T) string {
	return signToken(t, jwt.SigningMethodHS256, testSecret, managerClaims())
}

func doRequest(router http.Handler, method, target, token, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}
