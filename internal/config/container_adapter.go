package config

import (
	"github.com/garyjia/benefit-casework/internal/container"
	"github.com/garyjia/benefit-casework/internal/domain/calculation"
)

// ToContainerConfig converts the file-based config loaded by viper into the
// container's configuration.
func (c *Config) ToContainerConfig(version string) *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Driver:          c.Database.Driver,
			Path:            c.Database.Path,
			DSN:             c.Database.DSN,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
			MigrationsDir:   c.Database.MigrationsDir,
		},
		Logger: container.LoggerConfig{
			Level:            c.Logger.Level,
			Format:           c.Logger.Format,
			OutputPath:       c.Logger.OutputPath,
			SecureOutputPath: c.Logger.SecureOutputPath,
		},
		Server: container.ServerConfig{
			Host:            c.Server.Host,
			Port:            c.Server.Port,
			ReadTimeout:     c.Server.ReadTimeout,
			WriteTimeout:    c.Server.WriteTimeout,
			ShutdownTimeout: c.Server.ShutdownTimeout,
			Version:         version,
		},
		Rates: calculation.Rates{
			BaseAmount:         c.Rates.BaseAmount,
			HighRateFactor:     c.Rates.HighRateFactor,
			OrdinaryRateFactor: c.Rates.OrdinaryRateFactor,
			MinimumShare:       c.Rates.MinimumShare,
			SpouseAllowance:    c.Rates.SpouseAllowance,
		},
		Simulation: container.SimulationConfig{
			URL:     c.Simulation.URL,
			Timeout: c.Simulation.Timeout,
			DryRun:  c.Simulation.DryRun,
		},
		Attestation: container.AttestationConfig{
			LockTimeout: c.Attestation.LockTimeout,
		},
	}
}
