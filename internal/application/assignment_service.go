package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/onrope-scheduler/internal/dateonly"
	"github.com/example/onrope-scheduler/internal/persistence"
	"github.com/example/onrope-scheduler/internal/scheduler"
)

// AssignmentStore captures the persistence interactions needed by AssignmentService.
type AssignmentStore interface {
	persistence.AssignmentRepository
	persistence.ProjectRepository
	persistence.EmployeeRepository
}

// AssignmentPolicy tunes how AssignmentService treats conflicts.
type AssignmentPolicy struct {
	// EnforceNoDoubleBooking rejects conflicting writes even when the caller confirmed them.
	EnforceNoDoubleBooking bool
	ConflictCacheTTL       time.Duration
	ConflictCacheSize      int
}

// AssignmentService books employees on projects and reports double bookings.
type AssignmentService struct {
	store       AssignmentStore
	policy      AssignmentPolicy
	cache       *warningCache
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewAssignmentService wires dependencies for assignment operations.
func NewAssignmentService(store AssignmentStore, policy AssignmentPolicy, idGenerator func() string, now func() time.Time, logger *slog.Logger) *AssignmentService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &AssignmentService{
		store:       store,
		policy:      policy,
		cache:       newWarningCache(policy.ConflictCacheTTL, policy.ConflictCacheSize, now),
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// candidate is a validated assignment request ready for conflict detection.
type candidate struct {
	assignmentID string
	project      persistence.Project
	employeeIDs  []string
	dates        dateonly.Range
}

// CheckConflicts runs the conflict detector without writing anything.
func (s *AssignmentService) CheckConflicts(ctx context.Context, params CheckConflictsParams) ([]ConflictWarning, error) {
	principal := params.Principal
	if err := requireManager(principal); err != nil {
		return nil, err
	}

	c, err := s.prepare(ctx, principal, params.AssignmentID, params.Input)
	if err != nil {
		return nil, err
	}

	key := buildWarningCacheKey(principal.CompanyID, c.assignmentID, c.project.ID, c.employeeIDs, c.dates)
	if warnings, ok := s.cache.Get(key); ok {
		return warnings, nil
	}

	warnings, err := s.detect(ctx, principal.CompanyID, c)
	if err != nil {
		return nil, err
	}
	s.cache.Store(key, warnings)
	return warnings, nil
}

// AssignEmployees books each employee on the project for the given dates. Conflicts
// are returned as a *ConflictError unless the caller confirmed them.
func (s *AssignmentService) AssignEmployees(ctx context.Context, params AssignEmployeesParams) (AssignResult, error) {
	principal := params.Principal
	logger := serviceLogger(ctx, s.logger, "assignment", "assign_employees", "project_id", params.Input.ProjectID)

	if err := requireManager(principal); err != nil {
		return AssignResult{}, err
	}

	c, err := s.prepare(ctx, principal, "", params.Input)
	if err != nil {
		return AssignResult{}, err
	}

	warnings, err := s.detect(ctx, principal.CompanyID, c)
	if err != nil {
		logger.Error("conflict check failed", "error_kind", ErrorKind(err), "error", err)
		return AssignResult{}, err
	}
	if err := s.gate(warnings, params.Input.ConfirmConflicts); err != nil {
		logger.Info("assignment blocked by conflicts", "conflicts", len(warnings), "error_kind", ErrorKind(err))
		return AssignResult{}, err
	}

	now := s.now()
	assignments := make([]persistence.Assignment, 0, len(c.employeeIDs))
	for _, employeeID := range c.employeeIDs {
		assignments = append(assignments, persistence.Assignment{
			ID:         s.idGenerator(),
			CompanyID:  principal.CompanyID,
			ProjectID:  c.project.ID,
			EmployeeID: employeeID,
			StartDate:  c.dates.Start,
			EndDate:    c.dates.End,
			CreatedBy:  principal.UserID,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	if err := s.store.CreateAssignments(ctx, assignments); err != nil {
		logger.Error("assignment insert failed", "error_kind", ErrorKind(err), "error", err)
		return AssignResult{}, mapRepoError(err)
	}
	s.cache.Invalidate()

	if len(warnings) > 0 {
		logger.Warn("assignments saved despite conflicts", "conflicts", len(warnings))
	}
	logger.Info("assignments created", "count", len(assignments), "dates", c.dates.String())
	return AssignResult{Assignments: assignments, Conflicts: warnings}, nil
}

// RescheduleAssignment moves an assignment to new dates and optionally another project.
// The assignment never conflicts with its own previous dates.
func (s *AssignmentService) RescheduleAssignment(ctx context.Context, params RescheduleAssignmentParams) (persistence.Assignment, []ConflictWarning, error) {
	principal := params.Principal
	logger := serviceLogger(ctx, s.logger, "assignment", "reschedule", "assignment_id", params.AssignmentID)

	if err := requireManager(principal); err != nil {
		return persistence.Assignment{}, nil, err
	}

	existing, err := s.store.GetAssignment(ctx, params.AssignmentID)
	if err != nil {
		return persistence.Assignment{}, nil, mapRepoError(err)
	}
	if err := sameCompany(principal, existing.CompanyID); err != nil {
		return persistence.Assignment{}, nil, err
	}

	projectID := params.ProjectID
	if projectID == "" {
		projectID = existing.ProjectID
	}
	c, err := s.prepare(ctx, principal, existing.ID, AssignmentInput{
		ProjectID:   projectID,
		EmployeeIDs: []string{existing.EmployeeID},
		StartDate:   params.StartDate,
		EndDate:     params.EndDate,
	})
	if err != nil {
		return persistence.Assignment{}, nil, err
	}

	warnings, err := s.detect(ctx, principal.CompanyID, c)
	if err != nil {
		logger.Error("conflict check failed", "error_kind", ErrorKind(err), "error", err)
		return persistence.Assignment{}, nil, err
	}
	if err := s.gate(warnings, params.ConfirmConflicts); err != nil {
		return persistence.Assignment{}, nil, err
	}

	updated := existing
	updated.ProjectID = c.project.ID
	updated.StartDate = c.dates.Start
	updated.EndDate = c.dates.End
	updated.UpdatedAt = s.now()

	if err := s.store.UpdateAssignment(ctx, updated); err != nil {
		return persistence.Assignment{}, nil, mapRepoError(err)
	}
	s.cache.Invalidate()

	logger.Info("assignment rescheduled", "dates", c.dates.String(), "conflicts", len(warnings))
	return updated, warnings, nil
}

// DeleteAssignment removes an assignment of the caller's company.
func (s *AssignmentService) DeleteAssignment(ctx context.Context, principal Principal, assignmentID string) error {
	if err := requireManager(principal); err != nil {
		return err
	}

	existing, err := s.store.GetAssignment(ctx, assignmentID)
	if err != nil {
		return mapRepoError(err)
	}
	if err := sameCompany(principal, existing.CompanyID); err != nil {
		return err
	}
	if err := s.store.DeleteAssignment(ctx, assignmentID); err != nil {
		return mapRepoError(err)
	}
	s.cache.Invalidate()

	serviceLogger(ctx, s.logger, "assignment", "delete", "assignment_id", assignmentID).Info("assignment deleted")
	return nil
}

// ListAssignments returns assignments overlapping the optional window. Technicians
// only see their own assignments.
func (s *AssignmentService) ListAssignments(ctx context.Context, params ListAssignmentsParams) ([]persistence.Assignment, error) {
	principal := params.Principal
	if err := requirePrincipal(principal); err != nil {
		return nil, err
	}

	vErr := &ValidationError{}
	from := parseOptionalDate("from", params.From, vErr)
	to := parseOptionalDate("to", params.To, vErr)
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		vErr.add("to", "to must not be before from")
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	employeeIDs := uniqueStrings(params.EmployeeIDs)
	if !principal.Role.CanManageSchedule() {
		if principal.EmployeeID == "" {
			return nil, ErrForbidden
		}
		employeeIDs = []string{principal.EmployeeID}
	}

	assignments, err := s.store.ListAssignments(ctx, persistence.AssignmentFilter{
		CompanyID:   principal.CompanyID,
		ProjectID:   params.ProjectID,
		EmployeeIDs: employeeIDs,
		From:        from,
		To:          to,
	})
	if err != nil {
		if isNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}
	return assignments, nil
}

func (s *AssignmentService) gate(warnings []ConflictWarning, confirmed bool) error {
	if len(warnings) == 0 {
		return nil
	}
	if s.policy.EnforceNoDoubleBooking {
		return &ConflictError{Conflicts: warnings, Enforced: true}
	}
	if !confirmed {
		return &ConflictError{Conflicts: warnings}
	}
	return nil
}

// prepare validates the request upstream of the detector so malformed input never
// reaches it.
func (s *AssignmentService) prepare(ctx context.Context, principal Principal, assignmentID string, input AssignmentInput) (candidate, error) {
	vErr := &ValidationError{}

	projectID := strings.TrimSpace(input.ProjectID)
	if projectID == "" {
		vErr.add("project_id", "project_id is required")
	}
	employeeIDs := uniqueStrings(input.EmployeeIDs)
	if len(employeeIDs) == 0 {
		vErr.add("employee_ids", "at least one employee is required")
	}
	start := parseRequiredDate("start_date", input.StartDate, vErr)
	end := parseRequiredDate("end_date", input.EndDate, vErr)
	dates := dateonly.Range{Start: start, End: end}
	if !start.IsZero() && !end.IsZero() {
		if err := dates.Validate(); err != nil {
			vErr.add("end_date", "end_date must not be before start_date")
		}
	}
	if vErr.HasErrors() {
		return candidate{}, vErr
	}

	project, err := s.store.GetProject(ctx, projectID)
	if err != nil && !isNotFoundError(err) {
		return candidate{}, err
	}
	if err != nil || project.CompanyID != principal.CompanyID {
		return candidate{}, newValidationError("project_id", "project not found")
	}

	employees, err := s.store.ListEmployees(ctx, principal.CompanyID)
	if err != nil {
		return candidate{}, err
	}
	known := make(map[string]struct{}, len(employees))
	for _, e := range employees {
		known[e.ID] = struct{}{}
	}
	var missing []string
	for _, id := range employeeIDs {
		if _, ok := known[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return candidate{}, newValidationError("employee_ids", "unknown employee ids: "+strings.Join(missing, ", "))
	}

	return candidate{
		assignmentID: assignmentID,
		project:      project,
		employeeIDs:  employeeIDs,
		dates:        dates,
	}, nil
}

// detect loads the candidate employees' overlapping assignments and runs the detector.
// Any failure here means the schedule could not be validated.
func (s *AssignmentService) detect(ctx context.Context, companyID string, c candidate) ([]ConflictWarning, error) {
	existing, err := s.store.ListAssignments(ctx, persistence.AssignmentFilter{
		CompanyID:   companyID,
		EmployeeIDs: c.employeeIDs,
		From:        c.dates.Start,
		To:          c.dates.End,
	})
	if err != nil && !isNotFoundError(err) {
		return nil, fmt.Errorf("%w: load assignments: %v", ErrScheduleValidation, err)
	}
	if len(existing) == 0 {
		return nil, nil
	}

	employeeNames, projectTitles, err := s.names(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("%w: load directory: %v", ErrScheduleValidation, err)
	}

	views := make([]scheduler.Assignment, 0, len(existing))
	for _, a := range existing {
		views = append(views, scheduler.Assignment{
			ID:           a.ID,
			EmployeeID:   a.EmployeeID,
			EmployeeName: employeeNames[a.EmployeeID],
			JobID:        a.ProjectID,
			JobTitle:     projectTitles[a.ProjectID],
			Dates:        a.Dates(),
		})
	}

	conflicts, err := scheduler.DetectConflicts(views, scheduler.Candidate{
		AssignmentID: c.assignmentID,
		EmployeeIDs:  c.employeeIDs,
		JobID:        c.project.ID,
		Dates:        c.dates,
	})
	if err != nil {
		if errors.Is(err, scheduler.ErrInvalidRange) {
			return nil, fmt.Errorf("%w: %v", ErrScheduleValidation, err)
		}
		return nil, err
	}
	return toConflictWarnings(conflicts), nil
}

func (s *AssignmentService) names(ctx context.Context, companyID string) (map[string]string, map[string]string, error) {
	employees, err := s.store.ListEmployees(ctx, companyID)
	if err != nil {
		return nil, nil, err
	}
	projects, err := s.store.ListProjects(ctx, companyID)
	if err != nil {
		return nil, nil, err
	}

	employeeNames := make(map[string]string, len(employees))
	for _, e := range employees {
		employeeNames[e.ID] = e.Name
	}
	projectTitles := make(map[string]string, len(projects))
	for _, p := range projects {
		projectTitles[p.ID] = p.Title
	}
	return employeeNames, projectTitles, nil
}

func toConflictWarnings(conflicts []scheduler.Conflict) []ConflictWarning {
	if len(conflicts) == 0 {
		return nil
	}
	warnings := make([]ConflictWarning, 0, len(conflicts))
	for _, conflict := range conflicts {
		warnings = append(warnings, ConflictWarning{
			AssignmentID: conflict.WithAssignmentID,
			Type:         string(conflict.Type),
			EmployeeID:   conflict.EmployeeID,
			EmployeeName: conflict.EmployeeName,
			JobID:        conflict.JobID,
			JobTitle:     conflict.JobTitle,
			Overlap:      conflict.Overlap,
		})
	}
	return warnings
}

func parseRequiredDate(field, value string, vErr *ValidationError) dateonly.Date {
	if strings.TrimSpace(value) == "" {
		vErr.add(field, field+" is required")
		return dateonly.Date{}
	}
	return parseOptionalDate(field, value, vErr)
}

func parseOptionalDate(field, value string, vErr *ValidationError) dateonly.Date {
	value = strings.TrimSpace(value)
	if value == "" {
		return dateonly.Date{}
	}
	d, err := dateonly.Parse(value)
	if err != nil {
		vErr.add(field, field+" must be a YYYY-MM-DD date")
		return dateonly.Date{}
	}
	return d
}
