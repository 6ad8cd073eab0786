package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const minimal = `
simulation:
  dry_run: true
`

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimal))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "data/casework.db", cfg.Database.Path)
	assert.Equal(t, int64(124028), cfg.Rates.BaseAmount)
	assert.InDelta(t, 2.48, cfg.Rates.HighRateFactor, 1e-9)
	assert.Equal(t, 30*time.Second, cfg.Attestation.LockTimeout)
	assert.Equal(t, "logs/secure.log", cfg.Logger.SecureOutputPath)
	assert.True(t, cfg.Simulation.DryRun)
}

func TestLoad_FileValues(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
server:
  port: 9090
database:
  driver: postgres
  dsn: postgres://casework@localhost/casework
rates:
  base_amount: 118620
  spouse_allowance: 1000
simulation:
  url: http://payments.local
  timeout: 3s
attestation:
  lock_timeout: 5s
`))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, int64(118620), cfg.Rates.BaseAmount)
	assert.Equal(t, int64(1000), cfg.Rates.SpouseAllowance)
	assert.Equal(t, 3*time.Second, cfg.Simulation.Timeout)
	assert.Equal(t, 5*time.Second, cfg.Attestation.LockTimeout)
	assert.False(t, cfg.Simulation.DryRun)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CASEWORK_DB_DRIVER", "postgres")
	t.Setenv("CASEWORK_DB_DSN", "postgres://env@localhost/casework")
	t.Setenv("SIMULATION_URL", "http://payments.env")
	t.Setenv("SIMULATION_DRY_RUN", "false")

	cfg, err := Load(writeConfig(t, minimal))
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://env@localhost/casework", cfg.Database.DSN)
	assert.Equal(t, "http://payments.env", cfg.Simulation.URL)
	assert.False(t, cfg.Simulation.DryRun)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimal), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CASEWORK_LOG_LEVEL=debug\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("CASEWORK_LOG_LEVEL") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logger.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:     ServerConfig{Port: 8080},
			Database:   DatabaseConfig{Driver: "sqlite", Path: "casework.db"},
			Logger:     LoggerConfig{OutputPath: "stdout", SecureOutputPath: "secure.log"},
			Rates:      RatesConfig{BaseAmount: 124028, HighRateFactor: 2.48, OrdinaryRateFactor: 2.329},
			Simulation: SimulationConfig{DryRun: true},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"sqlite without path", func(c *Config) { c.Database.Path = "" }},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = "postgres" }},
		{"no simulation url", func(c *Config) { c.Simulation.DryRun = false }},
		{"zero base amount", func(c *Config) { c.Rates.BaseAmount = 0 }},
		{"inverted rates", func(c *Config) { c.Rates.HighRateFactor = 1 }},
		{"shared log file", func(c *Config) { c.Logger.SecureOutputPath = "stdout" }},
		{"no secure log", func(c *Config) { c.Logger.SecureOutputPath = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestToContainerConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimal))
	require.NoError(t, err)

	cc := cfg.ToContainerConfig("1.2.3")
	require.NoError(t, cc.Validate())
	assert.Equal(t, "1.2.3", cc.Server.Version)
	assert.Equal(t, cfg.Rates.BaseAmount, cc.Rates.BaseAmount)
	assert.Equal(t, cfg.Attestation.LockTimeout, cc.Attestation.LockTimeout)
	assert.True(t, cc.Simulation.DryRun)
}
