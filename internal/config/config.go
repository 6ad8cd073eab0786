package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all application configuration
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Logger      LoggerConfig      `mapstructure:"logger"`
	Rates       RatesConfig       `mapstructure:"rates"`
	Simulation  SimulationConfig  `mapstructure:"simulation"`
	Attestation AttestationConfig `mapstructure:"attestation"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsDir   string        `mapstructure:"migrations_dir"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level            string `mapstructure:"level"`
	OutputPath       string `mapstructure:"output_path"`
	SecureOutputPath string `mapstructure:"secure_output_path"`
	Format           string `mapstructure:"format"`
}

// RatesConfig holds the benefit rates. Amounts are whole kroner per year.
type RatesConfig struct {
	BaseAmount         int64   `mapstructure:"base_amount"`
	HighRateFactor     float64 `mapstructure:"high_rate_factor"`
	OrdinaryRateFactor float64 `mapstructure:"ordinary_rate_factor"`
	MinimumShare       float64 `mapstructure:"minimum_share"`
	SpouseAllowance    int64   `mapstructure:"spouse_allowance"`
}

// SimulationConfig holds payment simulation configuration
type SimulationConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
	DryRun  bool          `mapstructure:"dry_run"`
}

// AttestationConfig holds case command configuration
type AttestationConfig struct {
	LockTimeout time.Duration `mapstructure:"lock_timeout"`
}

// Load loads configuration from an optional .env file, the YAML file at
// configPath and environment variables, in increasing precedence.
func Load(configPath string) (*Config, error) {
	if err := loadDotEnv(".env", filepath.Join(filepath.Dir(configPath), ".env")); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := bindEnvVars(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadDotEnv loads the first .env file found. Variables already set in the
// environment win.
func loadDotEnv(paths ...string) error {
	for _, p := range paths {
		err := gotenv.Load(p)
		if err == nil {
			return nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/casework.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.secure_output_path", "logs/secure.log")
	v.SetDefault("logger.format", "json")

	// G and rate factors in force from May 2024
	v.SetDefault("rates.base_amount", 124028)
	v.SetDefault("rates.high_rate_factor", 2.48)
	v.SetDefault("rates.ordinary_rate_factor", 2.329)
	v.SetDefault("rates.minimum_share", 0.02)
	v.SetDefault("rates.spouse_allowance", 0)

	v.SetDefault("simulation.timeout", 10*time.Second)
	v.SetDefault("simulation.dry_run", false)

	v.SetDefault("attestation.lock_timeout", 30*time.Second)
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) error {
	bindings := map[string]string{
		"database.driver":           "CASEWORK_DB_DRIVER",
		"database.path":             "CASEWORK_DB_PATH",
		"database.dsn":              "CASEWORK_DB_DSN",
		"server.port":               "CASEWORK_PORT",
		"logger.level":              "CASEWORK_LOG_LEVEL",
		"logger.secure_output_path": "CASEWORK_SECURE_LOG",
		"simulation.url":            "SIMULATION_URL",
		"simulation.dry_run":        "SIMULATION_DRY_RUN",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return err
		}
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required")
		}
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required (CASEWORK_DB_DSN)")
		}
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver)
	}

	if !c.Simulation.DryRun && c.Simulation.URL == "" {
		return fmt.Errorf("simulation.url is required (SIMULATION_URL) unless simulation.dry_run is set")
	}

	if c.Rates.BaseAmount <= 0 {
		return fmt.Errorf("rates.base_amount must be positive")
	}
	if c.Rates.OrdinaryRateFactor <= 0 || c.Rates.HighRateFactor < c.Rates.OrdinaryRateFactor {
		return fmt.Errorf("rates.high_rate_factor must be at least rates.ordinary_rate_factor")
	}

	if c.Logger.SecureOutputPath == "" {
		return fmt.Errorf("logger.secure_output_path is required")
	}
	if c.Logger.SecureOutputPath == c.Logger.OutputPath {
		return fmt.Errorf("logger.secure_output_path must differ from logger.output_path")
	}

	return nil
}
