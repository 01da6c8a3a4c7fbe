package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/onrope-scheduler/internal/persistence"
	"github.com/example/onrope-scheduler/internal/persistence/sqlite"
)

// SQLiteHarness is a migrated SQLite store in a temporary directory.
type SQLiteHarness struct {
	Store persistence.Store

	cleanup func()
}

// Close releases the store. It is also registered with tb.Cleanup.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "scheduler.db")
	storage, err := sqlite.Open(path)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	if err := storage.Migrate(context.Background(), nil); err != nil {
		_ = storage.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Store:   storage,
		cleanup: func() { _ = storage.Close() },
	}
	tb.Cleanup(harness.Close)
	return harness
}

// Seed writes each tenant and fails the test on error.
func (h *SQLiteHarness) Seed(tb testing.TB, tenants ...Tenant) {
	tb.Helper()
	for _, tenant := range tenants {
		if err := tenant.Seed(context.Background(), h.Store); err != nil {
			tb.Fatalf("seed: %v", err)
		}
	}
}
