package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverDynamoDB = "dynamodb"
)

type Config struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	StoreDriver string
	DSN         string
	SQLitePath  string
	TableName   string
	AWSRegion   string

	RollbackOnFailure bool

	LogLevel  slog.Level
	LogFormat string
}

// LoadConfig reads the server configuration from the environment. The record
// store defaults to Postgres.
func LoadConfig() (Config, error) {
	return loadConfig(DriverPostgres)
}

// LoadLambdaConfig is LoadConfig with DynamoDB as the default record store.
func LoadLambdaConfig() (Config, error) {
	return loadConfig(DriverDynamoDB)
}

func loadConfig(defaultDriver string) (Config, error) {
	cfg := Config{
		Port:              envOr("PORT", "4040"),
		ReadTimeout:       3 * time.Second,
		WriteTimeout:      30 * time.Second,
		StoreDriver:       strings.ToLower(envOr("STORE_DRIVER", defaultDriver)),
		DSN:               os.Getenv("DB_CONN"),
		SQLitePath:        envOr("SQLITE_PATH", "networks.db"),
		TableName:         envOr("TABLE_NAME", "networks"),
		AWSRegion:         os.Getenv("AWS_REGION"),
		RollbackOnFailure: true,
		LogLevel:          slog.LevelInfo,
		LogFormat:         strings.ToLower(envOr("LOG_FORMAT", "json")),
	}

	var errs []error
	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Errorf("PORT: invalid port %q", cfg.Port))
	}
	if v := os.Getenv("READ_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("READ_TIMEOUT: %w", err))
		}
		cfg.ReadTimeout = d
	}
	if v := os.Getenv("WRITE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("WRITE_TIMEOUT: %w", err))
		}
		cfg.WriteTimeout = d
	}
	if v := os.Getenv("ROLLBACK_ON_FAILURE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("ROLLBACK_ON_FAILURE: invalid boolean %q", v))
		}
		cfg.RollbackOnFailure = b
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
		}
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT: unknown format %q", cfg.LogFormat))
	}

	switch cfg.StoreDriver {
	case DriverPostgres:
		if cfg.DSN == "" {
			errs = append(errs, errors.New("missing required environment variable: DB_CONN"))
		}
	case DriverSQLite, DriverDynamoDB:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER: unknown driver %q", cfg.StoreDriver))
	}

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("load config: %w", errors.Join(errs...))
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
