package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Supported drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds database configuration
type Config struct {
	Driver          string
	Path            string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MigrationsDir   string
}

// DB wraps sql.DB with the driver it was opened with
type DB struct {
	*sql.DB
	Driver string
	logger *zap.Logger
}

// New opens and pings a database connection pool
func New(cfg Config, logger *zap.Logger) (*DB, error) {
	driverName, dsn, err := cfg.source()
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{
		DB:     sqlDB,
		Driver: cfg.driver(),
		logger: logger,
	}

	logger.Info("Database connection established", zap.String("driver", db.Driver))
	return db, nil
}

func (cfg Config) driver() string {
	if cfg.Driver == "" {
		return DriverSQLite
	}
	return cfg.Driver
}

// source returns the database/sql driver name and data source
func (cfg Config) source() (string, string, error) {
	switch cfg.driver() {
	case DriverSQLite:
		if cfg.Path == "" {
			return "", "", fmt.Errorf("sqlite database path is required")
		}
		// WAL for concurrent readers while a case is being written
		return "sqlite3", fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", cfg.Path), nil
	case DriverPostgres:
		if cfg.DSN == "" {
			return "", "", fmt.Errorf("postgres dsn is required")
		}
		return "pgx", cfg.DSN, nil
	default:
		return "", "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Close closes the database connection
func (db *DB) Close() error {
	db.logger.Info("Closing database connection")
	return db.DB.Close()
}
