package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/example/onrope-scheduler/internal/application"
	"github.com/example/onrope-scheduler/internal/dateonly"
	"github.com/example/onrope-scheduler/internal/persistence"
)

type assignmentService interface {
	CheckConflicts(ctx context.Context, params application.CheckConflictsParams) ([]application.ConflictWarning, error)
	AssignEmployees(ctx context.Context, params application.AssignEmployeesParams) (application.AssignResult, error)
	RescheduleAssignment(ctx context.Context, params application.RescheduleAssignmentParams) (persistence.Assignment, []application.ConflictWarning, error)
	DeleteAssignment(ctx context.Context, principal application.Principal, assignmentID string) error
	ListAssignments(ctx context.Context, params application.ListAssignmentsParams) ([]persistence.Assignment, error)
}

// AssignmentHandler exposes scheduling endpoints.
type AssignmentHandler struct {
	service   assignmentService
	responder responder
}

func NewAssignmentHandler(service assignmentService, logger *slog.Logger) *AssignmentHandler {
	return &AssignmentHandler{service: service, responder: newResponder(logger)}
}

// List handles GET /assignments?project_id=&employee_id=a,b&from=&to=.
func (h *AssignmentHandler) List(c *gin.Context) {
	principal, _ := PrincipalFromContext(c.Request.Context())
	assignments, err := h.service.ListAssignments(c.Request.Context(), application.ListAssignmentsParams{
		Principal:   principal,
		ProjectID:   c.Query("project_id"),
		EmployeeIDs: splitQueryList(c.QueryArray("employee_id")),
		From:        c.Query("from"),
		To:          c.Query("to"),
	})
	if err != nil {
		h.responder.handleServiceError(c, err)
		return
	}
	h.responder.writeJSON(c, http.StatusOK, gin.H{"assignments": toAssignmentDTOs(assignments)})
}

func (h *AssignmentHandler) Create(c *gin.Context) {
	var req assignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.responder.writeError(c, http.StatusBadRequest, "BAD_REQUEST", msgInvalidBody)
		return
	}

	principal, _ := PrincipalFromContext(c.Request.Context())
	result, err := h.service.AssignEmployees(c.Request.Context(), application.AssignEmployeesParams{
		Principal: principal,
		Input:     req.input(),
	})
	if err != nil {
		h.responder.handleServiceError(c, err)
		return
	}
	h.responder.writeJSON(c, http.StatusCreated, assignResponse{
		Assignments: toAssignmentDTOs(result.Assignments),
		Conflicts:   toConflictDTOs(result.Conflicts),
	})
}

// CheckConflicts previews conflicts for a prospective assignment without saving it.
func (h *AssignmentHandler) CheckConflicts(c *gin.Context) {
	var req conflictCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.responder.writeError(c, http.StatusBadRequest, "BAD_REQUEST", msgInvalidBody)
		return
	}

	principal, _ := PrincipalFromContext(c.Request.Context())
	warnings, err := h.service.CheckConflicts(c.Request.Context(), application.CheckConflictsParams{
		Principal:    principal,
		AssignmentID: req.AssignmentID,
		Input:        req.input(),
	})
	if err != nil {
		h.responder.handleServiceError(c, err)
		return
	}
	h.responder.writeJSON(c, http.StatusOK, conflictCheckResponse{
		Conflicts:    toConflictDTOs(warnings),
		HasConflicts: len(warnings) > 0,
	})
}

func (h *AssignmentHandler) Reschedule(c *gin.Context) {
	var req rescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.responder.writeError(c, http.StatusBadRequest, "BAD_REQUEST", msgInvalidBody)
		return
	}

	principal, _ := PrincipalFromContext(c.Request.Context())
	assignment, warnings, err := h.service.RescheduleAssignment(c.Request.Context(), application.RescheduleAssignmentParams{
		Principal:        principal,
		AssignmentID:     c.Param("id"),
		ProjectID:        req.ProjectID,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		ConfirmConflicts: req.ConfirmConflicts,
	})
	if err != nil {
		h.responder.handleServiceError(c, err)
		return
	}
	h.responder.writeJSON(c, http.StatusOK, rescheduleResponse{
		Assignment: toAssignmentDTO(assignment),
		Conflicts:  toConflictDTOs(warnings),
	})
}

func (h *AssignmentHandler) Delete(c *gin.Context) {
	principal, _ := PrincipalFromContext(c.Request.Context())
	if err := h.service.DeleteAssignment(c.Request.Context(), principal, c.Param("id")); err != nil {
		h.responder.handleServiceError(c, err)
		return
	}
	h.responder.writeJSON(c, http.StatusNoContent, nil)
}

// splitQueryList accepts both repeated parameters and comma separated values.
func splitQueryList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

type assignmentRequest struct {
	ProjectID        string   `json:"project_id"`
	EmployeeIDs      []string `json:"employee_ids"`
	StartDate        string   `json:"start_date"`
	EndDate          string   `json:"end_date"`
	ConfirmConflicts bool     `json:"confirm_conflicts"`
}

func (r assignmentRequest) input() application.AssignmentInput {
	return application.AssignmentInput{
		ProjectID:        r.ProjectID,
		EmployeeIDs:      r.EmployeeIDs,
		StartDate:        r.StartDate,
		EndDate:          r.EndDate,
		ConfirmConflicts: r.ConfirmConflicts,
	}
}

type conflictCheckRequest struct {
	assignmentRequest
	AssignmentID string `json:"assignment_id"`
}

type rescheduleRequest struct {
	ProjectID        string `json:"project_id"`
	StartDate        string `json:"start_date"`
	EndDate          string `json:"end_date"`
	ConfirmConflicts bool   `json:"confirm_conflicts"`
}

type assignmentDTO struct {
	ID         string        `json:"id"`
	ProjectID  string        `json:"project_id"`
	EmployeeID string        `json:"employee_id"`
	StartDate  dateonly.Date `json:"start_date"`
	EndDate    dateonly.Date `json:"end_date"`
	CreatedBy  string        `json:"created_by,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

type assignResponse struct {
	Assignments []assignmentDTO `json:"assignments"`
	Conflicts   []conflictDTO   `json:"conflicts"`
}

type rescheduleResponse struct {
	Assignment assignmentDTO `json:"assignment"`
	Conflicts  []conflictDTO `json:"conflicts"`
}

type conflictCheckResponse struct {
	Conflicts    []conflictDTO `json:"conflicts"`
	HasConflicts bool          `json:"has_conflicts"`
}

func toAssignmentDTO(a persistence.Assignment) assignmentDTO {
	return assignmentDTO{
		ID:         a.ID,
		ProjectID:  a.ProjectID,
		EmployeeID: a.EmployeeID,
		StartDate:  a.StartDate,
		EndDate:    a.EndDate,
		CreatedBy:  a.CreatedBy,
		CreatedAt:  a.CreatedAt.UTC(),
		UpdatedAt:  a.UpdatedAt.UTC(),
	}
}

func toAssignmentDTOs(assignments []persistence.Assignment) []assignmentDTO {
	out := make([]assignmentDTO, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, toAssignmentDTO(a))
	}
	return out
}
