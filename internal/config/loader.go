package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures environment driven configuration values for the scheduler service.
type Config struct {
	HTTPPort               int
	SQLiteDSN              string
	DatabaseURL            string
	JWTSecret              string
	FieldEncryptionKey     string
	EnforceNoDoubleBooking bool
	ConflictCacheTTL       time.Duration
	LogLevel               slog.Level
}

// UsesPostgres reports whether the Postgres store was selected.
func (c Config) UsesPostgres() bool {
	return c.DatabaseURL != ""
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment.
// Variables that are already set win over the file. A missing file is not an error.
func LoadEnvFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// Load parses configuration values from the current process environment.
//
// Optional fields fall back to defaults. Required values that are absent and values
// that fail to parse are reported together, missing keys first.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:         8080,
		SQLiteDSN:        "data/onrope.db",
		ConflictCacheTTL: 30 * time.Second,
		LogLevel:         slog.LevelInfo,
	}

	missing := make([]string, 0, 2)
	invalid := make([]string, 0, 4)

	if portValue := strings.TrimSpace(os.Getenv("ONROPE_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "ONROPE_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("ONROPE_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("ONROPE_DATABASE_URL"))

	if secret := strings.TrimSpace(os.Getenv("ONROPE_JWT_SECRET")); secret == "" {
		missing = append(missing, "ONROPE_JWT_SECRET")
	} else {
		cfg.JWTSecret = secret
	}

	if key := strings.TrimSpace(os.Getenv("ONROPE_FIELD_ENCRYPTION_KEY")); key == "" {
		missing = append(missing, "ONROPE_FIELD_ENCRYPTION_KEY")
	} else {
		cfg.FieldEncryptionKey = key
	}

	if enforceValue := strings.TrimSpace(os.Getenv("ONROPE_ENFORCE_NO_DOUBLE_BOOKING")); enforceValue != "" {
		enforce, err := strconv.ParseBool(enforceValue)
		if err != nil {
			invalid = append(invalid, "ONROPE_ENFORCE_NO_DOUBLE_BOOKING")
		} else {
			cfg.EnforceNoDoubleBooking = enforce
		}
	}

	if ttlValue := strings.TrimSpace(os.Getenv("ONROPE_CONFLICT_CACHE_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "ONROPE_CONFLICT_CACHE_TTL")
		} else {
			cfg.ConflictCacheTTL = ttl
		}
	}

	if levelValue := strings.TrimSpace(os.Getenv("ONROPE_LOG_LEVEL")); levelValue != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(levelValue)); err != nil {
			invalid = append(invalid, "ONROPE_LOG_LEVEL")
		} else {
			cfg.LogLevel = level
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
