package migration

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Manager orchestrates the migration process.
type Manager struct {
	source   Source
	executor Executor
	logger   *slog.Logger
	now      func() time.Time
}

// NewManager wires a Source and an Executor. A nil logger discards output.
func NewManager(source Source, executor Executor, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(discard{}, nil))
	}
	return &Manager{
		source:   source,
		executor: executor,
		logger:   logger.With(slog.String("component", "migration")),
		now:      time.Now,
	}
}

// Run applies every pending migration in version order and returns how many ran.
func (m *Manager) Run(ctx context.Context) (int, error) {
	started := m.now()

	status, err := m.Status(ctx)
	if err != nil {
		m.logger.ErrorContext(ctx, "migration status failed", slog.Any("error", err))
		return 0, err
	}

	if len(status.Pending) == 0 {
		m.logger.InfoContext(ctx, "database schema up to date", slog.Int("version", status.CurrentVersion))
		return 0, nil
	}

	m.logger.InfoContext(ctx, "applying migrations",
		slog.Int("current_version", status.CurrentVersion),
		slog.Int("pending", len(status.Pending)),
	)

	for i, migration := range status.Pending {
		if err := m.executor.Apply(ctx, migration, m.now()); err != nil {
			m.logger.ErrorContext(ctx, "migration failed",
				slog.Int("version", migration.Version),
				slog.String("file", migration.Name),
				slog.Any("error", err),
			)
			return i, NewMigrationError(migration.Version, migration.Name, "execute migration",
				fmt.Errorf("%w: %v", ErrMigrationFailed, err))
		}
		m.logger.InfoContext(ctx, "migration applied",
			slog.Int("version", migration.Version),
			slog.String("description", migration.Description),
		)
	}

	m.logger.InfoContext(ctx, "migrations complete",
		slog.Int("applied", len(status.Pending)),
		slog.Duration("elapsed", m.now().Sub(started)),
	)
	return len(status.Pending), nil
}

// Status compares the shipped migrations against the schema_migrations table.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	if err := m.executor.EnsureVersionTable(ctx); err != nil {
		return Status{}, fmt.Errorf("failed to initialize version table: %w", err)
	}

	available, err := m.source.Scan()
	if err != nil {
		return Status{}, fmt.Errorf("failed to scan migrations: %w", err)
	}
	applied, err := m.executor.Applied(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("failed to get applied versions: %w", err)
	}
	if err := validateSequence(available, applied); err != nil {
		return Status{}, err
	}

	status := Status{Applied: applied}
	done := make(map[int]bool, len(applied))
	for _, record := range applied {
		done[record.Version] = true
		if record.Version > status.CurrentVersion {
			status.CurrentVersion = record.Version
		}
	}
	for _, migration := range available {
		if !done[migration.Version] {
			status.Pending = append(status.Pending, migration)
		}
	}
	return status, nil
}

// validateSequence rejects gaps, applied versions without a file, and edited files.
func validateSequence(available []Migration, applied []AppliedMigration) error {
	byVersion := make(map[int]Migration, len(available))
	for i, migration := range available {
		if i > 0 && migration.Version != available[i-1].Version+1 {
			return fmt.Errorf("%w: missing migration version %03d", ErrVersionConflict, available[i-1].Version+1)
		}
		byVersion[migration.Version] = migration
	}

	for _, record := range applied {
		migration, ok := byVersion[record.Version]
		if !ok {
			return fmt.Errorf("%w: applied migration %03d has no file", ErrVersionConflict, record.Version)
		}
		if record.Checksum != "" && record.Checksum != migration.Checksum {
			return NewMigrationError(record.Version, migration.Name, "verify checksum", ErrChecksumMismatch)
		}
	}
	return nil
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
