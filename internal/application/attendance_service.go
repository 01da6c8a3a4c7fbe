package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/onrope-scheduler/internal/persistence"
	"github.com/example/onrope-scheduler/internal/timezone"
)

// AttendanceStore captures the persistence interactions needed by AttendanceService.
type AttendanceStore interface {
	persistence.CompanyRepository
	persistence.ProjectRepository
	persistence.EmployeeRepository
	persistence.WorkSessionRepository
}

// AttendanceService records clock-ins and reports attendance per project day.
type AttendanceService struct {
	store       AttendanceStore
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewAttendanceService wires dependencies for attendance operations.
func NewAttendanceService(store AttendanceStore, idGenerator func() string, now func() time.Time, logger *slog.Logger) *AttendanceService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &AttendanceService{
		store:       store,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// DayBounds returns the project day containing reference. A zero reference means now.
func (s *AttendanceService) DayBounds(ctx context.Context, principal Principal, projectID string, reference time.Time) (timezone.Bounds, error) {
	if err := requirePrincipal(principal); err != nil {
		return timezone.Bounds{}, err
	}
	project, tz, err := s.projectZone(ctx, principal, projectID)
	if err != nil {
		return timezone.Bounds{}, err
	}
	if reference.IsZero() {
		reference = s.now()
	}

	bounds, err := timezone.DayBounds(tz, reference)
	if err != nil {
		serviceLogger(ctx, s.logger, "attendance", "day_bounds", "project_id", project.ID, "timezone", tz).
			Error("day bounds failed", "error", err)
		return timezone.Bounds{}, fmt.Errorf("%w: %v", ErrScheduleValidation, err)
	}
	return bounds, nil
}

// ClockIn opens a work session for the employee on the project. WorkDate is the
// start instant's calendar day in the project's zone.
func (s *AttendanceService) ClockIn(ctx context.Context, params ClockInParams) (persistence.WorkSession, error) {
	principal := params.Principal
	if err := requirePrincipal(principal); err != nil {
		return persistence.WorkSession{}, err
	}

	employeeID := strings.TrimSpace(params.EmployeeID)
	if employeeID == "" {
		employeeID = principal.EmployeeID
	}
	if employeeID == "" {
		return persistence.WorkSession{}, newValidationError("employee_id", "employee_id is required")
	}
	if employeeID != principal.EmployeeID && !principal.Role.CanManageSchedule() {
		return persistence.WorkSession{}, ErrForbidden
	}

	logger := serviceLogger(ctx, s.logger, "attendance", "clock_in", "project_id", params.ProjectID, "employee_id", employeeID)

	employee, err := s.store.GetEmployee(ctx, employeeID)
	if err != nil && !isNotFoundError(err) {
		return persistence.WorkSession{}, err
	}
	if err != nil || employee.CompanyID != principal.CompanyID {
		return persistence.WorkSession{}, newValidationError("employee_id", "employee not found")
	}

	project, tz, err := s.projectZone(ctx, principal, params.ProjectID)
	if err != nil {
		return persistence.WorkSession{}, err
	}

	if _, err := s.store.FindOpenWorkSession(ctx, employeeID); err == nil {
		return persistence.WorkSession{}, ErrOpenWorkSession
	} else if !isNotFoundError(err) {
		return persistence.WorkSession{}, err
	}

	now := s.now()
	workDate, err := timezone.DateIn(tz, now)
	if err != nil {
		return persistence.WorkSession{}, fmt.Errorf("%w: %v", ErrScheduleValidation, err)
	}

	session := persistence.WorkSession{
		ID:         s.idGenerator(),
		CompanyID:  principal.CompanyID,
		ProjectID:  project.ID,
		EmployeeID: employeeID,
		WorkDate:   workDate,
		StartedAt:  now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.CreateWorkSession(ctx, session); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			return persistence.WorkSession{}, ErrOpenWorkSession
		}
		logger.Error("clock in failed", "error_kind", ErrorKind(err), "error", err)
		return persistence.WorkSession{}, mapRepoError(err)
	}

	logger.Info("clocked in", "work_date", workDate.String(), "timezone", tz)
	return session, nil
}

// ClockOut ends an open work session.
func (s *AttendanceService) ClockOut(ctx context.Context, params ClockOutParams) (persistence.WorkSession, error) {
	principal := params.Principal
	if err := requirePrincipal(principal); err != nil {
		return persistence.WorkSession{}, err
	}

	session, err := s.store.GetWorkSession(ctx, params.SessionID)
	if err != nil {
		return persistence.WorkSession{}, mapRepoError(err)
	}
	if err := sameCompany(principal, session.CompanyID); err != nil {
		return persistence.WorkSession{}, err
	}
	if session.EmployeeID != principal.EmployeeID && !principal.Role.CanManageSchedule() {
		return persistence.WorkSession{}, ErrForbidden
	}
	if !session.Open() {
		return persistence.WorkSession{}, newValidationError("session_id", "work session already ended")
	}

	now := s.now()
	if now.Before(session.StartedAt) {
		return persistence.WorkSession{}, newValidationError("ended_at", "end must not be before start")
	}
	if err := s.store.EndWorkSession(ctx, session.ID, now); err != nil {
		return persistence.WorkSession{}, mapRepoError(err)
	}

	session.EndedAt = &now
	session.UpdatedAt = now
	serviceLogger(ctx, s.logger, "attendance", "clock_out", "session_id", session.ID).
		Info("clocked out", "worked", now.Sub(session.StartedAt).String())
	return session, nil
}

// DailyAttendance lists sessions started within the project day and totals worked
// time per employee. Open sessions count up to now, clipped to the end of the day.
func (s *AttendanceService) DailyAttendance(ctx context.Context, principal Principal, projectID, date string) (DailyAttendance, error) {
	if err := requirePrincipal(principal); err != nil {
		return DailyAttendance{}, err
	}

	vErr := &ValidationError{}
	day := parseRequiredDate("date", date, vErr)
	if vErr.HasErrors() {
		return DailyAttendance{}, vErr
	}

	project, tz, err := s.projectZone(ctx, principal, projectID)
	if err != nil {
		return DailyAttendance{}, err
	}
	bounds, err := timezone.BoundsForDate(tz, day)
	if err != nil {
		return DailyAttendance{}, fmt.Errorf("%w: %v", ErrScheduleValidation, err)
	}

	filter := persistence.WorkSessionFilter{
		CompanyID:   principal.CompanyID,
		ProjectID:   project.ID,
		StartedFrom: bounds.StartUTC,
		StartedTo:   bounds.EndUTC,
	}
	if !principal.Role.CanManageSchedule() {
		filter.EmployeeID = principal.EmployeeID
	}
	sessions, err := s.store.ListWorkSessions(ctx, filter)
	if err != nil {
		return DailyAttendance{}, mapRepoError(err)
	}

	return DailyAttendance{
		Bounds:    bounds,
		Sessions:  sessions,
		Employees: summarizeAttendance(sessions, bounds, s.now()),
	}, nil
}

func summarizeAttendance(sessions []persistence.WorkSession, bounds timezone.Bounds, now time.Time) []EmployeeAttendance {
	if len(sessions) == 0 {
		return nil
	}
	dayEnd := bounds.EndUTC.Add(time.Millisecond)

	index := make(map[string]int)
	var totals []EmployeeAttendance
	for _, session := range sessions {
		end := now
		if session.EndedAt != nil {
			end = *session.EndedAt
		}
		if end.After(dayEnd) {
			end = dayEnd
		}
		worked := end.Sub(session.StartedAt)
		if worked < 0 {
			worked = 0
		}

		i, ok := index[session.EmployeeID]
		if !ok {
			i = len(totals)
			index[session.EmployeeID] = i
			totals = append(totals, EmployeeAttendance{EmployeeID: session.EmployeeID})
		}
		totals[i].Worked += worked
		totals[i].Open = totals[i].Open || session.Open()
	}
	return totals
}

// projectZone loads the project and resolves its zone through the fallback chain.
func (s *AttendanceService) projectZone(ctx context.Context, principal Principal, projectID string) (persistence.Project, string, error) {
	if strings.TrimSpace(projectID) == "" {
		return persistence.Project{}, "", newValidationError("project_id", "project_id is required")
	}
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return persistence.Project{}, "", mapRepoError(err)
	}
	if err := sameCompany(principal, project.CompanyID); err != nil {
		return persistence.Project{}, "", err
	}

	var companyTZ string
	company, err := s.store.GetCompany(ctx, project.CompanyID)
	switch {
	case err == nil:
		companyTZ = company.Timezone
	case !isNotFoundError(err):
		return persistence.Project{}, "", err
	}
	return project, timezone.Fallback(project.Timezone, companyTZ), nil
}

