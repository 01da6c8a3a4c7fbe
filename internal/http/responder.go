package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/onrope-scheduler/internal/application"
	"github.com/example/onrope-scheduler/internal/dateonly"
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	return responder{logger: defaultLogger(logger)}
}

func (r responder) writeJSON(c *gin.Context, status int, payload any) {
	if status == http.StatusNoContent || payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}

func (r responder) writeError(c *gin.Context, status int, code string, key messageKey) {
	c.AbortWithStatusJSON(status, errorResponse{
		ErrorCode: code,
		Message:   localeFromRequest(c).message(key),
	})
}

func (r responder) handleServiceError(c *gin.Context, err error) {
	ctx := c.Request.Context()
	logger := r.loggerFor(c).With("error_kind", application.ErrorKind(err))
	loc := localeFromRequest(c)

	var (
		cErr *application.ConflictError
		vErr *application.ValidationError
	)
	switch {
	case err == nil:
		logger.ErrorContext(ctx, "handler reported a nil error")
		r.writeError(c, http.StatusInternalServerError, "INTERNAL", msgInternal)
	case errors.As(err, &cErr):
		code, key := "SCHEDULE_CONFLICT", msgScheduleConflict
		if cErr.Enforced {
			code, key = "DOUBLE_BOOKING", msgDoubleBooking
		}
		c.AbortWithStatusJSON(http.StatusConflict, conflictResponse{
			ErrorCode:            code,
			Message:              loc.message(key),
			RequiresConfirmation: !cErr.Enforced,
			Conflicts:            toConflictDTOs(cErr.Conflicts),
		})
	case errors.As(err, &vErr):
		details := make(map[string]string, len(vErr.FieldErrors))
		for field, msg := range vErr.FieldErrors {
			details[field] = loc.validationMessage(msg)
		}
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "VALIDATION_FAILED",
			Message:   loc.message(msgValidationFailed),
			Errors:    details,
		})
	case errors.Is(err, application.ErrUnauthorized):
		r.writeError(c, http.StatusUnauthorized, "AUTH_REQUIRED", msgUnauthorized)
	case errors.Is(err, application.ErrForbidden):
		r.writeError(c, http.StatusForbidden, "AUTH_FORBIDDEN", msgForbidden)
	case errors.Is(err, application.ErrNotFound):
		r.writeError(c, http.StatusNotFound, "NOT_FOUND", msgNotFound)
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeError(c, http.StatusConflict, "ALREADY_EXISTS", msgAlreadyExists)
	case errors.Is(err, application.ErrOpenWorkSession):
		r.writeError(c, http.StatusConflict, "OPEN_WORK_SESSION", msgOpenWorkSession)
	case errors.Is(err, application.ErrScheduleValidation):
		logger.ErrorContext(ctx, "schedule validation failed", "error", err)
		r.writeError(c, http.StatusInternalServerError, "SCHEDULE_VALIDATION_FAILED", msgScheduleValidation)
	default:
		logger.ErrorContext(ctx, "request failed", "error", err)
		r.writeError(c, http.StatusInternalServerError, "INTERNAL", msgInternal)
	}
}

func (r responder) loggerFor(c *gin.Context) *slog.Logger {
	if logger := LoggerFromContext(c.Request.Context()); logger != nil {
		return logger
	}
	return r.logger
}

type errorResponse struct {
	ErrorCode string            `json:"error_code"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}

type conflictResponse struct {
	ErrorCode            string        `json:"error_code"`
	Message              string        `json:"message"`
	RequiresConfirmation bool          `json:"requires_confirmation"`
	Conflicts            []conflictDTO `json:"conflicts"`
}

type conflictDTO struct {
	AssignmentID string        `json:"assignment_id"`
	Type         string        `json:"type"`
	EmployeeID   string        `json:"employee_id"`
	EmployeeName string        `json:"employee_name"`
	JobID        string        `json:"job_id"`
	JobTitle     string        `json:"job_title"`
	OverlapStart dateonly.Date `json:"overlap_start"`
	OverlapEnd   dateonly.Date `json:"overlap_end"`
}

func toConflictDTOs(warnings []application.ConflictWarning) []conflictDTO {
	out := make([]conflictDTO, 0, len(warnings))
	for _, w := range warnings {
		out = append(out, conflictDTO{
			AssignmentID: w.AssignmentID,
			Type:         w.Type,
			EmployeeID:   w.EmployeeID,
			EmployeeName: w.EmployeeName,
			JobID:        w.JobID,
			JobTitle:     w.JobTitle,
			OverlapStart: w.Overlap.Start,
			OverlapEnd:   w.Overlap.End,
		})
	}
	return out
}
