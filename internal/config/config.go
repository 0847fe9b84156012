// Package config loads the application configuration from a YAML file,
// the environment and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/aoideee/bookshelf/internal/data"
	"github.com/aoideee/bookshelf/internal/validator"
)

// Config is the root application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Store   StoreConfig   `yaml:"store"`
	Log     LogConfig     `yaml:"log"`
	Limiter LimiterConfig `yaml:"limiter"`
	Locale  string        `yaml:"locale" env:"LOCALE" env-default:"en"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"4000"`
	Environment     string        `yaml:"environment"      env:"SERVER_ENV"              env-default:"development"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"5s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"10s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"1m"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"20s"`
}

// StoreConfig selects the database behind the record store.
type StoreConfig struct {
	Driver string `yaml:"driver" env:"STORE_DRIVER" env-default:"sqlite"`
	DSN    string `yaml:"dsn"    env:"STORE_DSN"    env-default:"books.db"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}

// LimiterConfig holds the per-client rate limiter settings.
type LimiterConfig struct {
	Enabled bool    `yaml:"enabled" env:"LIMITER_ENABLED" env-default:"true"`
	RPS     float64 `yaml:"rps"     env:"LIMITER_RPS"     env-default:"2"`
	Burst   int     `yaml:"burst"   env:"LIMITER_BURST"   env-default:"4"`
}

// Load reads configuration from a YAML file and environment variables.
// Priority: ENV > YAML > defaults (via env-default tags).
// A .env file in the working directory, if present, is loaded into the
// environment first. The YAML file path is taken from CONFIG_PATH
// (fallback "./config.yaml"); a missing fallback file is not an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: read .env: %w", err)
	}

	var cfg Config

	path := os.Getenv("CONFIG_PATH")
	explicitPath := path != ""
	if !explicitPath {
		path = "./config.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicitPath {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else {
		// No file, load from ENV + defaults only.
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	return &cfg, nil
}

// Validate checks the loaded values and returns a *data.ValidationError
// describing every bad field.
func (c *Config) Validate() error {
	v := validator.New()

	v.Check(c.Server.Port > 0 && c.Server.Port <= 65535, "server.port", "must be between 1 and 65535")
	v.Check(validator.In(c.Server.Environment, "development", "staging", "production"), "server.environment", "must be development, staging or production")
	v.Check(c.Server.ShutdownTimeout > 0, "server.shutdown_timeout", "must be positive")
	v.Check(validator.In(c.Store.Driver, data.DriverSQLite, data.DriverPostgres), "store.driver", "must be sqlite or postgres")
	v.Check(c.Store.DSN != "", "store.dsn", "must be provided")
	v.Check(validator.In(c.Log.Format, "text", "json"), "log.format", "must be text or json")
	v.Check(!c.Limiter.Enabled || c.Limiter.RPS > 0, "limiter.rps", "must be positive")
	v.Check(!c.Limiter.Enabled || c.Limiter.Burst > 0, "limiter.burst", "must be positive")

	if !v.Valid() {
		return &data.ValidationError{Errors: v.Errors}
	}
	return nil
}
