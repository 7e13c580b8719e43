// Package config loads analyzer configuration from YAML, environment and .env files.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variable overrides, e.g.
// ANALYZER_DATABASE_DRIVER overrides database.driver.
const EnvPrefix = "ANALYZER"

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverNone     = "none"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete analyzer configuration.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Replay    ReplayConfig    `mapstructure:"replay"`
	Spellbook SpellbookConfig `mapstructure:"spellbook"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Server    ServerConfig    `mapstructure:"server"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ReplayConfig locates stored recordings.
type ReplayConfig struct {
	Directory string `mapstructure:"directory"`
}

// SpellbookConfig locates spell display metadata. An empty path uses the
// built-in table; FromDatabase additionally merges the spells table.
type SpellbookConfig struct {
	Path         string `mapstructure:"path"`
	FromDatabase bool   `mapstructure:"from_database"`
}

// DatabaseConfig selects the report store.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxConns        int32         `mapstructure:"max_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// ServerConfig configures the network surfaces of cmd/server.
type ServerConfig struct {
	HTTPAddress     string        `mapstructure:"http_address"`
	GRPCAddress     string        `mapstructure:"grpc_address"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// AnalysisConfig tunes session processing.
type AnalysisConfig struct {
	Workers int `mapstructure:"workers"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("replay.directory", "replays")
	v.SetDefault("spellbook.path", "")
	v.SetDefault("spellbook.from_database", false)
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.dsn", "analyzer.db")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("server.http_address", ":8080")
	v.SetDefault("server.grpc_address", ":9090")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("analysis.workers", 4)
}

// Load reads the configuration. A missing file is not an error: defaults and
// environment overrides still apply. A .env file in the working directory is
// loaded first when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				var notFound viper.ConfigFileNotFoundError
				if !errors.As(err, &notFound) {
					return nil, fmt.Errorf("failed to read config %s: %w", path, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that have no usable default.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres, DriverNone:
	default:
		return fmt.Errorf("%w: unknown database driver %q", ErrInvalidConfig, c.Database.Driver)
	}
	if c.Database.Driver != DriverNone && c.Database.DSN == "" {
		return fmt.Errorf("%w: database.dsn is required for driver %s", ErrInvalidConfig, c.Database.Driver)
	}
	if c.Analysis.Workers <= 0 {
		return fmt.Errorf("%w: analysis.workers must be positive, got %d", ErrInvalidConfig, c.Analysis.Workers)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("%w: unknown logging format %q", ErrInvalidConfig, c.Logging.Format)
	}
	if c.Spellbook.FromDatabase && c.Database.Driver != DriverPostgres {
		return fmt.Errorf("%w: spellbook.from_database requires the postgres driver", ErrInvalidConfig)
	}
	return nil
}
