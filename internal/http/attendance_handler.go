package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/example/onrope-scheduler/internal/application"
	"github.com/example/onrope-scheduler/internal/dateonly"
	"github.com/example/onrope-scheduler/internal/persistence"
	"github.com/example/onrope-scheduler/internal/timezone"
)

type attendanceService interface {
	DayBounds(ctx context.Context, principal application.Principal, projectID string, reference time.Time) (timezone.Bounds, error)
	ClockIn(ctx context.Context, params application.ClockInParams) (persistence.WorkSession, error)
	ClockOut(ctx context.Context, params application.ClockOutParams) (persistence.WorkSession, error)
	DailyAttendance(ctx context.Context, principal application.Principal, projectID, date string) (application.DailyAttendance, error)
}

// AttendanceHandler serves project day and work session endpoints.
type AttendanceHandler struct {
	service   attendanceService
	responder responder
}

func NewAttendanceHandler(service attendanceService, logger *slog.Logger) *AttendanceHandler {
	return &AttendanceHandler{service: service, responder: newResponder(logger)}
}

// DayBounds handles GET /projects/:id/day-bounds?at=RFC3339. Without at, the current day is used.
func (h *AttendanceHandler) DayBounds(c *gin.Context) {
	var reference time.Time
	if raw := c.Query("at"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.responder.writeError(c, http.StatusBadRequest, "BAD_REQUEST", msgInvalidTimestamp)
			return
		}
		reference = t
	}

	principal, _ := PrincipalFromContext(c.Request.Context())
	bounds, err := h.service.DayBounds(c.Request.Context(), principal, c.Param("id"), reference)
	if err != nil {
		h.responder.handleServiceError(c, err)
		return
	}
	h.responder.writeJSON(c, http.StatusOK, toBoundsDTO(bounds))
}

func (h *AttendanceHandler) DailyAttendance(c *gin.Context) {
	principal, _ := PrincipalFromContext(c.Request.Context())
	report, err := h.service.DailyAttendance(c.Request.Context(), principal, c.Param("id"), c.Query("date"))
	if err != nil {
		h.responder.handleServiceError(c, err)
		return
	}

	resp := attendanceResponse{
		Day:       toBoundsDTO(report.Bounds),
		Sessions:  make([]workSessionDTO, 0, len(report.Sessions)),
		Employees: make([]employeeAttendanceDTO, 0, len(report.Employees)),
	}
	for _, s := range report.Sessions {
		resp.Sessions = append(resp.Sessions, toWorkSessionDTO(s))
	}
	for _, e := range report.Employees {
		resp.Employees = append(resp.Employees, employeeAttendanceDTO{
			EmployeeID:    e.EmployeeID,
			WorkedMinutes: int64(e.Worked / time.Minute),
			Open:          e.Open,
		})
	}
	h.responder.writeJSON(c, http.StatusOK, resp)
}

func (h *AttendanceHandler) ClockIn(c *gin.Context) {
	var req clockInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.responder.writeError(c, http.StatusBadRequest, "BAD_REQUEST", msgInvalidBody)
		return
	}

	principal, _ := PrincipalFromContext(c.Request.Context())
	session, err := h.service.ClockIn(c.Request.Context(), application.ClockInParams{
		Principal:  principal,
		ProjectID:  req.ProjectID,
		EmployeeID: req.EmployeeID,
	})
	if err != nil {
		h.responder.handleServiceError(c, err)
		return
	}
	h.responder.writeJSON(c, http.StatusCreated, toWorkSessionDTO(session))
}

func (h *AttendanceHandler) ClockOut(c *gin.Context) {
	principal, _ := PrincipalFromContext(c.Request.Context())
	session, err := h.service.ClockOut(c.Request.Context(), application.ClockOutParams{
		Principal: principal,
		SessionID: c.Param("id"),
	})
	if err != nil {
		h.responder.handleServiceError(c, err)
		return
	}
	h.responder.writeJSON(c, http.StatusOK, toWorkSessionDTO(session))
}

type clockInRequest struct {
	ProjectID  string `json:"project_id"`
	EmployeeID string `json:"employee_id"`
}

type boundsDTO struct {
	Timezone string        `json:"timezone"`
	Date     dateonly.Date `json:"date"`
	StartUTC time.Time     `json:"start_utc"`
	EndUTC   time.Time     `json:"end_utc"`
}

type workSessionDTO struct {
	ID         string        `json:"id"`
	ProjectID  string        `json:"project_id"`
	EmployeeID string        `json:"employee_id"`
	WorkDate   dateonly.Date `json:"work_date"`
	StartedAt  time.Time     `json:"started_at"`
	EndedAt    *time.Time    `json:"ended_at"`
}

type employeeAttendanceDTO struct {
	EmployeeID    string `json:"employee_id"`
	WorkedMinutes int64  `json:"worked_minutes"`
	Open          bool   `json:"open"`
}

type attendanceResponse struct {
	Day       boundsDTO               `json:"day"`
	Sessions  []workSessionDTO        `json:"sessions"`
	Employees []employeeAttendanceDTO `json:"employees"`
}

func toBoundsDTO(b timezone.Bounds) boundsDTO {
	return boundsDTO{Timezone: b.Timezone, Date: b.Date, StartUTC: b.StartUTC.UTC(), EndUTC: b.EndUTC.UTC()}
}

func toWorkSessionDTO(s persistence.WorkSession) workSessionDTO {
	dto := workSessionDTO{
		ID:         s.ID,
		ProjectID:  s.ProjectID,
		EmployeeID: s.EmployeeID,
		WorkDate:   s.WorkDate,
		StartedAt:  s.StartedAt.UTC(),
	}
	if s.EndedAt != nil {
		ended := s.EndedAt.UTC()
		dto.EndedAt = &ended
	}
	return dto
}
