package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// ErrMissingDSN is returned by Open when no connection string is given.
var ErrMissingDSN = errors.New("DATABASE_URL not set")

// ConnectionConfig holds database connection pool configuration.
type ConnectionConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// DefaultConnectionConfig returns the default connection pool configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: 1 * time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
		PingTimeout:     5 * time.Second,
	}
}

// Open creates a pgx-backed connection pool for dsn and pings it.
func Open(ctx context.Context, dsn string, cfg ConnectionConfig) (*sql.DB, error) {
	if dsn == "" {
		return nil, ErrMissingDSN
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	slog.Info("database connection pool configured",
		slog.Int("max_open_conns", cfg.MaxOpenConns),
		slog.Int("max_idle_conns", cfg.MaxIdleConns),
		slog.Duration("conn_max_lifetime", cfg.ConnMaxLifetime),
		slog.Duration("conn_max_idle_time", cfg.ConnMaxIdleTime))

	pingTimeout := cfg.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.Info("database connection established")
	return db, nil
}

// OpenFromEnv opens DATABASE_URL with pool settings from the DB_* variables.
func OpenFromEnv(ctx context.Context) (*sql.DB, error) {
	return Open(ctx, os.Getenv("DATABASE_URL"), ConnectionConfigFromEnv())
}

// ConnectionConfigFromEnv reads pool settings from the environment.
// Unset or invalid values keep their defaults.
func ConnectionConfigFromEnv() ConnectionConfig {
	cfg := DefaultConnectionConfig()

	if v, ok := positiveInt("DB_MAX_OPEN_CONNS"); ok {
		cfg.MaxOpenConns = v
	}
	if v, ok := positiveInt("DB_MAX_IDLE_CONNS"); ok {
		cfg.MaxIdleConns = v
	}
	if v, ok := positiveDuration("DB_CONN_MAX_LIFETIME"); ok {
		cfg.ConnMaxLifetime = v
	}
	if v, ok := positiveDuration("DB_CONN_MAX_IDLE_TIME"); ok {
		cfg.ConnMaxIdleTime = v
	}
	if v, ok := positiveDuration("DB_PING_TIMEOUT"); ok {
		cfg.PingTimeout = v
	}
	return cfg
}

func positiveInt(key string) (int, bool) {
	val, err := strconv.Atoi(os.Getenv(key))
	if err != nil || val <= 0 {
		return 0, false
	}
	return val, true
}

func positiveDuration(key string) (time.Duration, bool) {
	val, err := time.ParseDuration(os.Getenv(key))
	if err != nil || val <= 0 {
		return 0, false
	}
	return val, true
}
