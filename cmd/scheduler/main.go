package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/onrope-scheduler/internal/application"
	"github.com/example/onrope-scheduler/internal/config"
	"github.com/example/onrope-scheduler/internal/fieldcrypt"
	httptransport "github.com/example/onrope-scheduler/internal/http"
	"github.com/example/onrope-scheduler/internal/logging"
	"github.com/example/onrope-scheduler/internal/persistence"
	"github.com/example/onrope-scheduler/internal/persistence/postgres"
	"github.com/example/onrope-scheduler/internal/persistence/sqlite"
)

func main() {
	bootstrap := logging.New(os.Stdout, slog.LevelInfo)

	if err := config.LoadEnvFile(".env"); err != nil {
		bootstrap.Error("failed to read .env", "error", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		bootstrap.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("scheduler stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	handler, err := buildHandler(cfg, store, logger, time.Now)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("scheduler API listening", "addr", server.Addr, "postgres", cfg.UsesPostgres(), "enforce_no_double_booking", cfg.EnforceNoDoubleBooking)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// openStore connects to Postgres when DATABASE_URL is set and to SQLite otherwise,
// then applies pending migrations.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (persistence.Store, error) {
	if cfg.UsesPostgres() {
		store, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
		logger.Info("postgres storage ready")
		return store, nil
	}

	if dir := filepath.Dir(cfg.SQLiteDSN); isFilePath(cfg.SQLiteDSN) && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}
	store, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx, logger); err != nil {
		_ = store.Close()
		return nil, err
	}
	logger.Info("sqlite storage ready", "path", cfg.SQLiteDSN)
	return store, nil
}

func isFilePath(dsn string) bool {
	return dsn != "" && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:")
}

func buildHandler(cfg config.Config, store persistence.Store, logger *slog.Logger, now func() time.Time) (http.Handler, error) {
	cipher, err := fieldcrypt.New(cfg.FieldEncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("field encryption: %w", err)
	}

	directory := application.NewDirectoryService(store, cipher, uuid.NewString, now, logger)
	assignments := application.NewAssignmentService(store, application.AssignmentPolicy{
		EnforceNoDoubleBooking: cfg.EnforceNoDoubleBooking,
		ConflictCacheTTL:       cfg.ConflictCacheTTL,
	}, uuid.NewString, now, logger)
	attendance := application.NewAttendanceService(store, uuid.NewString, now, logger)

	return httptransport.NewRouter(httptransport.RouterConfig{
		Directory:   httptransport.NewDirectoryHandler(directory, logger),
		Assignments: httptransport.NewAssignmentHandler(assignments, logger),
		Attendance:  httptransport.NewAttendanceHandler(attendance, logger),
		JWTSecret:   []byte(cfg.JWTSecret),
		Logger:      logger,
		Health:      store.Ping,
	}), nil
}
