package sqlite

import (
	"context"
	"embed"
	"fmt"
	"log/slog"

	"github.com/example/onrope-scheduler/internal/persistence"
	"github.com/example/onrope-scheduler/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Storage bundles the SQLite repositories behind one connection pool.
type Storage struct {
	*CompanyRepository
	*ProjectRepository
	*EmployeeRepository
	*AssignmentRepository
	*WorkSessionRepository

	pool *ConnectionPool
}

var _ persistence.Store = (*Storage)(nil)

// Open opens the database file at path with the service defaults.
func Open(path string) (*Storage, error) {
	return OpenWithConfig(migration.DefaultSQLiteConfig(path))
}

// OpenWithConfig opens the database described by config.
func OpenWithConfig(config migration.SQLiteConfig) (*Storage, error) {
	pool, err := NewConnectionPool(config)
	if err != nil {
		return nil, err
	}
	return &Storage{
		CompanyRepository:     NewCompanyRepository(pool),
		ProjectRepository:     NewProjectRepository(pool),
		EmployeeRepository:    NewEmployeeRepository(pool),
		AssignmentRepository:  NewAssignmentRepository(pool),
		WorkSessionRepository: NewWorkSessionRepository(pool),
		pool:                  pool,
	}, nil
}

// Migrate applies the embedded schema migrations.
func (s *Storage) Migrate(ctx context.Context, logger *slog.Logger) error {
	manager := migration.NewManager(
		migration.NewScanner(migrationFiles, "migrations"),
		migration.NewSQLiteExecutor(s.pool.DB()),
		logger,
	)
	if _, err := manager.Run(ctx); err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}
	return nil
}

// Ping checks that the database is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Storage) Close() error {
	return s.pool.Close()
}
