package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const appliedAtLayout = time.RFC3339Nano

// SQLiteExecutor implements the Executor interface for SQLite databases
type SQLiteExecutor struct {
	db *sql.DB
}

// NewSQLiteExecutor creates a new SQLite migration executor
func NewSQLiteExecutor(db *sql.DB) *SQLiteExecutor {
	return &SQLiteExecutor{db: db}
}

// EnsureVersionTable creates the schema_migrations table if it doesn't exist
func (e *SQLiteExecutor) EnsureVersionTable(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL,
			checksum TEXT NOT NULL DEFAULT '',
			execution_time_ms INTEGER NOT NULL DEFAULT 0
		)`
	if _, err := e.db.ExecContext(ctx, ddl); err != nil {
		return NewDatabaseError(0, "create schema_migrations table", err)
	}
	return nil
}

// Applied returns all applied migration versions ordered by version
func (e *SQLiteExecutor) Applied(ctx context.Context) ([]AppliedMigration, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT version, applied_at, checksum, execution_time_ms
		FROM schema_migrations
		ORDER BY version ASC`)
	if err != nil {
		return nil, NewDatabaseError(0, "list applied migrations", err)
	}
	defer rows.Close()

	var applied []AppliedMigration
	for rows.Next() {
		var (
			record    AppliedMigration
			appliedAt string
			elapsedMs int64
		)
		if err := rows.Scan(&record.Version, &appliedAt, &record.Checksum, &elapsedMs); err != nil {
			return nil, NewDatabaseError(0, "scan applied migration", err)
		}
		parsed, err := time.Parse(appliedAtLayout, appliedAt)
		if err != nil {
			return nil, NewDatabaseError(record.Version, "parse applied_at", err)
		}
		record.AppliedAt = parsed
		record.ExecutionTime = time.Duration(elapsedMs) * time.Millisecond
		applied = append(applied, record)
	}
	if err := rows.Err(); err != nil {
		return nil, NewDatabaseError(0, "iterate applied migrations", err)
	}
	return applied, nil
}

// Apply runs every statement of the migration and records it within one transaction
func (e *SQLiteExecutor) Apply(ctx context.Context, migration Migration, appliedAt time.Time) (err error) {
	statements := SplitStatements(migration.SQL)
	if len(statements) == 0 {
		return NewMigrationError(migration.Version, migration.Name, "parse SQL",
			fmt.Errorf("%w: no SQL statements", ErrInvalidMigrationFile))
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return NewDatabaseError(migration.Version, "begin transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	started := time.Now()
	for i, stmt := range statements {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return NewDatabaseError(migration.Version, fmt.Sprintf("execute statement %d", i+1), err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, applied_at, checksum, execution_time_ms) VALUES (?, ?, ?, ?)`,
		migration.Version,
		appliedAt.UTC().Format(appliedAtLayout),
		migration.Checksum,
		time.Since(started).Milliseconds(),
	)
	if err != nil {
		return NewDatabaseError(migration.Version, "record migration", err)
	}

	if err = tx.Commit(); err != nil {
		return NewDatabaseError(migration.Version, "commit transaction", err)
	}
	return nil
}
