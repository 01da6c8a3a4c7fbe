package testfixtures

import (
	"log/slog"
	"testing"
	"time"

	"github.com/example/onrope-scheduler/internal/application"
	"github.com/example/onrope-scheduler/internal/fieldcrypt"
	"github.com/example/onrope-scheduler/internal/persistence"
)

// FieldSecret is the encryption secret used by factory-built directory services.
const FieldSecret = "fixture-field-secret"

// ServiceFactory builds application services with deterministic ids and a shared clock.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Policy      application.AssignmentPolicy
	Logger      *slog.Logger
}

type ServiceFactoryOption func(*ServiceFactory)

func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) { factory.Clock = clock }
}

func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) { factory.IDGenerator = generator }
}

// WithEnforcedNoDoubleBooking makes confirmed conflicts fail as well.
func WithEnforcedNoDoubleBooking() ServiceFactoryOption {
	return func(factory *ServiceFactory) { factory.Policy.EnforceNoDoubleBooking = true }
}

// Services groups the three application services over one store.
type Services struct {
	Directory   *application.DirectoryService
	Assignments *application.AssignmentService
	Attendance  *application.AttendanceService
}

// Build wires every service to store.
func (f *ServiceFactory) Build(tb testing.TB, store persistence.Store) Services {
	tb.Helper()

	cipher, err := fieldcrypt.New(FieldSecret)
	if err != nil {
		tb.Fatalf("field cipher: %v", err)
	}
	ids := f.IDGenerator.NextFunc()
	now := f.Clock.NowFunc()
	return Services{
		Directory:   application.NewDirectoryService(store, cipher, ids, now, f.Logger),
		Assignments: application.NewAssignmentService(store, f.Policy, ids, now, f.Logger),
		Attendance:  application.NewAttendanceService(store, ids, now, f.Logger),
	}
}
