package migration

import (
	"context"
	"time"
)

// Migration is one versioned schema change.
type Migration struct {
	Version     int
	Name        string // file name, e.g. 001_initial_schema.sql
	Description string
	SQL         string
	Checksum    string
}

// AppliedMigration is a row of the schema_migrations table.
type AppliedMigration struct {
	Version       int
	AppliedAt     time.Time
	ExecutionTime time.Duration
	Checksum      string
}

// Status describes the migration state of a database.
type Status struct {
	CurrentVersion int // 0 when nothing is applied
	Applied        []AppliedMigration
	Pending        []Migration
}

// Source lists the migrations that ship with the binary.
type Source interface {
	Scan() ([]Migration, error)
}

// Executor applies migrations to a database and tracks what was applied.
type Executor interface {
	// EnsureVersionTable creates schema_migrations when missing.
	EnsureVersionTable(ctx context.Context) error
	// Applied returns the recorded migrations ordered by version.
	Applied(ctx context.Context) ([]AppliedMigration, error)
	// Apply runs the migration and records it in one transaction.
	Apply(ctx context.Context, migration Migration, appliedAt time.Time) error
}
