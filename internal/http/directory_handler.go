package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/example/onrope-scheduler/internal/application"
	"github.com/example/onrope-scheduler/internal/persistence"
)

type directoryService interface {
	GetCompany(ctx context.Context, principal application.Principal) (persistence.Company, error)
	UpsertCompany(ctx context.Context, params application.UpsertCompanyParams) (persistence.Company, error)
	CreateProject(ctx context.Context, params application.CreateProjectParams) (persistence.Project, error)
	GetProject(ctx context.Context, principal application.Principal, id string) (persistence.Project, error)
	ListProjects(ctx context.Context, principal application.Principal) ([]persistence.Project, error)
	CreateEmployee(ctx context.Context, params application.CreateEmployeeParams) (persistence.Employee, error)
	GetEmployee(ctx context.Context, principal application.Principal, id string) (persistence.Employee, error)
	ListEmployees(ctx context.Context, principal application.Principal) ([]persistence.Employee, error)
}

// DirectoryHandler serves company, project, and employee endpoints.
type DirectoryHandler struct {
	service   directoryService
	responder responder
}

func NewDirectoryHandler(service directoryService, logger *slog.Logger) *DirectoryHandler {
	return &DirectoryHandler{service: service, responder: newResponder(logger)}
}

func (h *DirectoryHandler) GetCompany(c *gin.Context) {
	principal, _ := PrincipalFromContext(c.Request.Context())
	company, err := h.service.GetCompany(c.Request.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(c, err)
		return
	}
	h.responder.writeJSON(c, http.StatusOK, toCompanyDTO(company))
}

func (h *DirectoryHandler) UpsertCompany(c *gin.Context) {
	var req companyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.responder.writeError(c, http.StatusBadRequest, "BAD_REQUEST", msgInvalidBody)
		return
	}

	principal, _ := PrincipalFromContext(c.Request.Context())
	company, err := h.service.UpsertCompany(c.Request.Context(), application.UpsertCompanyParams{
		Principal: principal,
		Name:      req.Name,
		Timezone:  req.Timezone,
	})
	if err != nil {
		h.responder.handleServiceError(c, err)
		return
	}
	h.responder.writeJSON(c, http.StatusOK, toCompanyDTO(company))
}

func (h *DirectoryHandler) ListProjects(c *gin.Context) {
	principal, _ := PrincipalFromContext(c.Request.Context())
	projects, err := h.service.ListProjects(c.Request.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(c, err)
		return
	}
	out := make([]projectDTO, 0, len(projects))
	for _, p := range projects {
		out = append(out, toProjectDTO(p))
	}
	h.responder.writeJSON(c, http.StatusOK, gin.H{"projects": out})
}

func (h *DirectoryHandler) CreateProject(c *gin.Context) {
	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.responder.writeError(c, http.StatusBadRequest, "BAD_REQUEST", msgInvalidBody)
		return
	}

	principal, _ := PrincipalFromContext(c.Request.Context())
	project, err := h.service.CreateProject(c.Request.Context(), application.CreateProjectParams{
		Principal: principal,
		Title:     req.Title,
		Timezone:  req.Timezone,
	})
	if err != nil {
		h.responder.handleServiceError(c, err)
		return
	}
	h.responder.writeJSON(c, http.StatusCreated, toProjectDTO(project))
}

func (h *DirectoryHandler) GetProject(c *gin.Context) {
	principal, _ := PrincipalFromContext(c.Request.Context())
	project, err := h.service.GetProject(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		h.responder.handleServiceError(c, err)
		return
	}
	h.responder.writeJSON(c, http.StatusOK, toProjectDTO(project))
}

func (h *DirectoryHandler) ListEmployees(c *gin.Context) {
	principal, _ := PrincipalFromContext(c.Request.Context())
	employees, err := h.service.ListEmployees(c.Request.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(c, err)
		return
	}
	out := make([]employeeDTO, 0, len(employees))
	for _, e := range employees {
		out = append(out, toEmployeeDTO(e))
	}
	h.responder.writeJSON(c, http.StatusOK, gin.H{"employees": out})
}

func (h *DirectoryHandler) CreateEmployee(c *gin.Context) {
	var req employeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.responder.writeError(c, http.StatusBadRequest, "BAD_REQUEST", msgInvalidBody)
		return
	}

	principal, _ := PrincipalFromContext(c.Request.Context())
	employee, err := h.service.CreateEmployee(c.Request.Context(), application.CreateEmployeeParams{
		Principal:        principal,
		Name:             req.Name,
		EmergencyContact: req.EmergencyContact,
	})
	if err != nil {
		h.responder.handleServiceError(c, err)
		return
	}
	h.responder.writeJSON(c, http.StatusCreated, toEmployeeDTO(employee))
}

func (h *DirectoryHandler) GetEmployee(c *gin.Context) {
	principal, _ := PrincipalFromContext(c.Request.Context())
	employee, err := h.service.GetEmployee(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		h.responder.handleServiceError(c, err)
		return
	}
	h.responder.writeJSON(c, http.StatusOK, toEmployeeDTO(employee))
}

type companyRequest struct {
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
}

type projectRequest struct {
	Title    string `json:"title"`
	Timezone string `json:"timezone"`
}

type employeeRequest struct {
	Name             string `json:"name"`
	EmergencyContact string `json:"emergency_contact"`
}

type companyDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Timezone  string    `json:"timezone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type projectDTO struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Timezone  string    `json:"timezone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type employeeDTO struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	EmergencyContact string    `json:"emergency_contact,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func toCompanyDTO(c persistence.Company) companyDTO {
	return companyDTO{ID: c.ID, Name: c.Name, Timezone: c.Timezone, CreatedAt: c.CreatedAt.UTC(), UpdatedAt: c.UpdatedAt.UTC()}
}

func toProjectDTO(p persistence.Project) projectDTO {
	return projectDTO{ID: p.ID, Title: p.Title, Timezone: p.Timezone, CreatedAt: p.CreatedAt.UTC(), UpdatedAt: p.UpdatedAt.UTC()}
}

func toEmployeeDTO(e persistence.Employee) employeeDTO {
	return employeeDTO{
		ID:               e.ID,
		Name:             e.Name,
		EmergencyContact: e.EmergencyContact,
		CreatedAt:        e.CreatedAt.UTC(),
		UpdatedAt:        e.UpdatedAt.UTC(),
	}
}
