// Package container wires the casework service together and owns the
// lifecycle of its components.
package container

import (
	"fmt"
	"time"

	"github.com/garyjia/benefit-casework/internal/domain/calculation"
	"github.com/garyjia/benefit-casework/pkg/database"
)

// Config holds all configuration for the Container.
type Config struct {
	Database    DatabaseConfig
	Logger      LoggerConfig
	Server      ServerConfig
	Rates       calculation.Rates
	Simulation  SimulationConfig
	Attestation AttestationConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Driver is "sqlite" or "postgres"
	Driver string

	// Path to the SQLite database file
	Path string

	// DSN of the PostgreSQL database
	DSN string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// MigrationsDir overrides the embedded migrations when set
	MigrationsDir string
}

// LoggerConfig holds the log destinations.
type LoggerConfig struct {
	Level            string
	Format           string
	OutputPath       string
	SecureOutputPath string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	Version         string
}

// SimulationConfig holds the payment simulation client settings.
type SimulationConfig struct {
	// URL of the payment system; ignored when DryRun is set
	URL     string
	Timeout time.Duration

	// DryRun simulates locally instead of calling the payment system
	DryRun bool
}

// AttestationConfig holds case command settings.
type AttestationConfig struct {
	// LockTimeout bounds how long a command waits for another on the same case
	LockTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:          database.DriverSQLite,
			Path:            "data/casework.db",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Logger: LoggerConfig{
			Level:            "info",
			Format:           "json",
			OutputPath:       "stdout",
			SecureOutputPath: "logs/secure.log",
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Version:         "dev",
		},
		Rates: calculation.DefaultRates(),
		Simulation: SimulationConfig{
			Timeout: 10 * time.Second,
			DryRun:  true,
		},
		Attestation: AttestationConfig{
			LockTimeout: 30 * time.Second,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case database.DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite")
		}
	case database.DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}

	if !c.Simulation.DryRun && c.Simulation.URL == "" {
		return fmt.Errorf("simulation.url is required unless simulation.dry_run is set")
	}

	if c.Rates.BaseAmount <= 0 || c.Rates.HighRateFactor <= 0 || c.Rates.OrdinaryRateFactor <= 0 {
		return fmt.Errorf("rates.base_amount and rate factors must be positive")
	}
	if c.Rates.MinimumShare < 0 || c.Rates.MinimumShare >= 1 {
		return fmt.Errorf("rates.minimum_share must be in [0, 1)")
	}

	if c.Logger.SecureOutputPath == "" {
		return fmt.Errorf("logger.secure_output_path is required")
	}

	return nil
}
