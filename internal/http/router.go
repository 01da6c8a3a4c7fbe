package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	Directory   *DirectoryHandler
	Assignments *AssignmentHandler
	Attendance  *AttendanceHandler
	JWTSecret   []byte
	Logger      *slog.Logger
	// Health reports storage reachability for /healthz. Nil means always healthy.
	Health func(ctx context.Context) error
}

// NewRouter builds the gin engine. Everything except /healthz requires a bearer token.
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := defaultLogger(cfg.Logger)

	engine := gin.New()
	engine.Use(gin.Recovery(), RequestLogger(logger))
	engine.HandleMethodNotAllowed = true

	engine.GET("/healthz", func(c *gin.Context) {
		if cfg.Health != nil {
			if err := cfg.Health(c.Request.Context()); err != nil {
				handlerLogger(c.Request.Context(), logger, "health", "check").Warn("health check failed", "error", err)
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/", RequireJWT(cfg.JWTSecret, logger))

	if h := cfg.Directory; h != nil {
		api.GET("/company", h.GetCompany)
		api.PUT("/company", h.UpsertCompany)
		api.GET("/projects", h.ListProjects)
		api.POST("/projects", h.CreateProject)
		api.GET("/projects/:id", h.GetProject)
		api.GET("/employees", h.ListEmployees)
		api.POST("/employees", h.CreateEmployee)
		api.GET("/employees/:id", h.GetEmployee)
	}

	if h := cfg.Assignments; h != nil {
		api.GET("/assignments", h.List)
		api.POST("/assignments", h.Create)
		api.POST("/assignments/conflicts", h.CheckConflicts)
		api.PUT("/assignments/:id", h.Reschedule)
		api.DELETE("/assignments/:id", h.Delete)
	}

	if h := cfg.Attendance; h != nil {
		api.GET("/projects/:id/day-bounds", h.DayBounds)
		api.GET("/projects/:id/attendance", h.DailyAttendance)
		api.POST("/work-sessions", h.ClockIn)
		api.POST("/work-sessions/:id/end", h.ClockOut)
	}

	return engine
}
