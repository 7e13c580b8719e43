package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, "replays", cfg.Replay.Directory)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "analyzer.db", cfg.Database.DSN)
	assert.Equal(t, ":8080", cfg.Server.HTTPAddress)
	assert.Equal(t, ":9090", cfg.Server.GRPCAddress)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 4, cfg.Analysis.Workers)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: debug
  format: json
replay:
  directory: /var/lib/analyzer/replays
database:
  driver: postgres
  dsn: postgres://localhost/analyzer
analysis:
  workers: 8
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "/var/lib/analyzer/replays", cfg.Replay.Directory)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 8, cfg.Analysis.Workers)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "analysis:\n  workers: 2\n")
	t.Setenv("ANALYZER_ANALYSIS_WORKERS", "16")
	t.Setenv("ANALYZER_DATABASE_DRIVER", "none")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 16, cfg.Analysis.Workers)
	assert.Equal(t, DriverNone, cfg.Database.Driver)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := writeConfig(t, "database:\n  driver: mysql\n")

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Logging:  LoggingConfig{Level: "info", Format: "console"},
			Database: DatabaseConfig{Driver: DriverSQLite, DSN: "x.db"},
			Analysis: AnalysisConfig{Workers: 1},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(*Config) {}, true},
		{"no database", func(c *Config) { c.Database = DatabaseConfig{Driver: DriverNone} }, true},
		{"unknown driver", func(c *Config) { c.Database.Driver = "oracle" }, false},
		{"missing dsn", func(c *Config) { c.Database.DSN = "" }, false},
		{"zero workers", func(c *Config) { c.Analysis.Workers = 0 }, false},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, false},
		{"spellbook needs postgres", func(c *Config) { c.Spellbook.FromDatabase = true }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			}
		})
	}
}
