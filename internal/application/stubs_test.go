package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/onrope-scheduler/internal/persistence"
)

// memoryStore is an in-memory persistence.Store used by service tests.
type memoryStore struct {
	mu          sync.Mutex
	companies   map[string]persistence.Company
	projects    map[string]persistence.Project
	employees   map[string]persistence.Employee
	assignments map[string]persistence.Assignment
	sessions    map[string]persistence.WorkSession

	listAssignmentsErr error
	listAssignments    int
	created            [][]persistence.Assignment
}

var _ persistence.Store = (*memoryStore)(nil)

func newMemoryStore() *memoryStore {
	return &memoryStore{
		companies:   make(map[string]persistence.Company),
		projects:    make(map[string]persistence.Project),
		employees:   make(map[string]persistence.Employee),
		assignments: make(map[string]persistence.Assignment),
		sessions:    make(map[string]persistence.WorkSession),
	}
}

func (m *memoryStore) UpsertCompany(ctx context.Context, company persistence.Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.companies[company.ID] = company
	return nil
}

func (m *memoryStore) GetCompany(ctx context.Context, id string) (persistence.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.companies[id]
	if !ok {
		return persistence.Company{}, persistence.ErrNotFound
	}
	return c, nil
}

func (m *memoryStore) CreateProject(ctx context.Context, project persistence.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[project.ID]; ok {
		return persistence.ErrDuplicate
	}
	m.projects[project.ID] = project
	return nil
}

func (m *memoryStore) GetProject(ctx context.Context, id string) (persistence.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return persistence.Project{}, persistence.ErrNotFound
	}
	return p, nil
}

func (m *memoryStore) ListProjects(ctx context.Context, companyID string) ([]persistence.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []persistence.Project
	for _, p := range m.projects {
		if p.CompanyID == companyID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (m *memoryStore) CreateEmployee(ctx context.Context, employee persistence.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.employees[employee.ID]; ok {
		return persistence.ErrDuplicate
	}
	m.employees[employee.ID] = employee
	return nil
}

func (m *memoryStore) GetEmployee(ctx context.Context, id string) (persistence.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.employees[id]
	if !ok {
		return persistence.Employee{}, persistence.ErrNotFound
	}
	return e, nil
}

func (m *memoryStore) ListEmployees(ctx context.Context, companyID string) ([]persistence.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []persistence.Employee
	for _, e := range m.employees {
		if e.CompanyID == companyID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memoryStore) CreateAssignments(ctx context.Context, assignments []persistence.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range assignments {
		if _, ok := m.assignments[a.ID]; ok {
			return persistence.ErrDuplicate
		}
	}
	for _, a := range assignments {
		m.assignments[a.ID] = a
	}
	m.created = append(m.created, assignments)
	return nil
}

func (m *memoryStore) UpdateAssignment(ctx context.Context, assignment persistence.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assignments[assignment.ID]; !ok {
		return persistence.ErrNotFound
	}
	m.assignments[assignment.ID] = assignment
	return nil
}

func (m *memoryStore) GetAssignment(ctx context.Context, id string) (persistence.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assignments[id]
	if !ok {
		return persistence.Assignment{}, persistence.ErrNotFound
	}
	return a, nil
}

func (m *memoryStore) ListAssignments(ctx context.Context, filter persistence.AssignmentFilter) ([]persistence.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listAssignments++
	if m.listAssignmentsErr != nil {
		return nil, m.listAssignmentsErr
	}

	employees := make(map[string]struct{}, len(filter.EmployeeIDs))
	for _, id := range filter.EmployeeIDs {
		employees[id] = struct{}{}
	}
	var out []persistence.Assignment
	for _, a := range m.assignments {
		if filter.CompanyID != "" && a.CompanyID != filter.CompanyID {
			continue
		}
		if filter.ProjectID != "" && a.ProjectID != filter.ProjectID {
			continue
		}
		if len(employees) > 0 {
			if _, ok := employees[a.EmployeeID]; !ok {
				continue
			}
		}
		if !filter.To.IsZero() && a.StartDate.After(filter.To) {
			continue
		}
		if !filter.From.IsZero() && a.EndDate.Before(filter.From) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].StartDate.Compare(out[j].StartDate); c != 0 {
			return c < 0
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memoryStore) DeleteAssignment(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assignments[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(m.assignments, id)
	return nil
}

func (m *memoryStore) CreateWorkSession(ctx context.Context, session persistence.WorkSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.EmployeeID == session.EmployeeID && s.Open() {
			return persistence.ErrDuplicate
		}
	}
	m.sessions[session.ID] = session
	return nil
}

func (m *memoryStore) GetWorkSession(ctx context.Context, id string) (persistence.WorkSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return persistence.WorkSession{}, persistence.ErrNotFound
	}
	return s, nil
}

func (m *memoryStore) FindOpenWorkSession(ctx context.Context, employeeID string) (persistence.WorkSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.EmployeeID == employeeID && s.Open() {
			return s, nil
		}
	}
	return persistence.WorkSession{}, persistence.ErrNotFound
}

func (m *memoryStore) EndWorkSession(ctx context.Context, id string, endedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return persistence.ErrNotFound
	}
	if !s.Open() {
		return persistence.ErrConstraintViolation
	}
	s.EndedAt = &endedAt
	s.UpdatedAt = endedAt
	m.sessions[id] = s
	return nil
}

func (m *memoryStore) ListWorkSessions(ctx context.Context, filter persistence.WorkSessionFilter) ([]persistence.WorkSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []persistence.WorkSession
	for _, s := range m.sessions {
		if filter.CompanyID != "" && s.CompanyID != filter.CompanyID {
			continue
		}
		if filter.ProjectID != "" && s.ProjectID != filter.ProjectID {
			continue
		}
		if filter.EmployeeID != "" && s.EmployeeID != filter.EmployeeID {
			continue
		}
		if !filter.StartedFrom.IsZero() && s.StartedAt.Before(filter.StartedFrom) {
			continue
		}
		if !filter.StartedTo.IsZero() && s.StartedAt.After(filter.StartedTo) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out, nil
}

func (m *memoryStore) Ping(ctx context.Context) error { return nil }

func (m *memoryStore) Close() error { return nil }

// reverseCipher stands in for field encryption with a visible, reversible transform.
type reverseCipher struct {
	failDecrypt bool
}

func (reverseCipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	return "sealed:" + reverse(plaintext), nil
}

func (c reverseCipher) Decrypt(value string) (string, error) {
	if c.failDecrypt {
		return "", errors.New("decrypt failed")
	}
	if value == "" {
		return "", nil
	}
	if !strings.HasPrefix(value, "sealed:") {
		return "", fmt.Errorf("not sealed: %q", value)
	}
	return reverse(strings.TrimPrefix(value, "sealed:")), nil
}

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

func sequentialIDs(prefix string) func() string {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

var (
	testNow     = time.Date(2024, 6, 1, 16, 0, 0, 0, time.UTC)
	manager     = Principal{UserID: "user-mgr", CompanyID: "co-1", Role: RoleOperationsManager}
	owner       = Principal{UserID: "user-owner", CompanyID: "co-1", Role: RoleCompany}
	technician  = Principal{UserID: "user-tech", CompanyID: "co-1", EmployeeID: "emp-a", Role: RoleRopeAccessTech}
	otherTenant = Principal{UserID: "user-x", CompanyID: "co-2", Role: RoleOperationsManager}
)

// seededStore holds one company with two projects and three employees.
func seededStore() *memoryStore {
	store := newMemoryStore()
	store.companies["co-1"] = persistence.Company{ID: "co-1", Name: "Acme Rope", Timezone: "America/Vancouver"}
	store.companies["co-2"] = persistence.Company{ID: "co-2", Name: "Other"}
	store.projects["prj-tower"] = persistence.Project{ID: "prj-tower", CompanyID: "co-1", Title: "Tower X"}
	store.projects["prj-bridge"] = persistence.Project{ID: "prj-bridge", CompanyID: "co-1", Title: "Bridge Y", Timezone: "America/Toronto"}
	store.projects["prj-foreign"] = persistence.Project{ID: "prj-foreign", CompanyID: "co-2", Title: "Foreign"}
	store.employees["emp-a"] = persistence.Employee{ID: "emp-a", CompanyID: "co-1", Name: "Ana", EmergencyContact: "sealed:1-555"}
	store.employees["emp-b"] = persistence.Employee{ID: "emp-b", CompanyID: "co-1", Name: "Ben"}
	store.employees["emp-c"] = persistence.Employee{ID: "emp-c", CompanyID: "co-1", Name: "Cy"}
	store.employees["emp-x"] = persistence.Employee{ID: "emp-x", CompanyID: "co-2", Name: "Xi"}
	return store
}
