// Package config loads the lineage engine configuration from a YAML file, an
// optional .env file and LINEAGE_* environment variables, in that order.
package config

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/vsinha/lineage/pkg/application/services/lineage"
	"github.com/vsinha/lineage/pkg/application/services/matching"
	apperrors "github.com/vsinha/lineage/pkg/domain/errors"
)

// Environment variable names
const (
	EnvWindowDays = "LINEAGE_WINDOW_DAYS"
	EnvGraceDays  = "LINEAGE_GRACE_DAYS"
	EnvStrategy   = "LINEAGE_STRATEGY"
	EnvLogLevel   = "LINEAGE_LOG_LEVEL"
	EnvHTTPAddr   = "LINEAGE_HTTP_ADDR"
	EnvWorkers    = "LINEAGE_WORKERS"
)

// Config is the complete application configuration
type Config struct {
	Engine lineage.Config `yaml:",inline"`
	Log    LogConfig      `yaml:"log"`
	HTTP   HTTPConfig     `yaml:"http"`
	Batch  BatchConfig    `yaml:"batch"`
}

// LogConfig selects the logger level and encoding
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// HTTPConfig holds the API server settings
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// BatchConfig bounds concurrent group processing
type BatchConfig struct {
	Workers int `yaml:"workers"`
}

// Default returns the configuration used when no file or environment is given
func Default() *Config {
	return &Config{
		Engine: lineage.DefaultConfig(),
		Log:    LogConfig{Level: "info", Format: "console"},
		HTTP:   HTTPConfig{Addr: ":8080"},
		Batch:  BatchConfig{Workers: 4},
	}
}

// Load builds the configuration. An empty path skips the YAML file; a missing
// .env file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, apperrors.Wrap(err, "failed to load .env")
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, apperrors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return apperrors.Wrapf(err, "failed to read config %s", path)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil {
		return apperrors.WithCode(apperrors.CodeConfigInvalid, apperrors.Wrapf(err, "failed to parse config %s", path))
	}
	return nil
}

func (c *Config) applyEnv() error {
	var err error
	if c.Engine.Matching.WindowDays, err = getEnvIntOrDefault(EnvWindowDays, c.Engine.Matching.WindowDays); err != nil {
		return err
	}
	if c.Engine.Matching.GraceDays, err = getEnvIntOrDefault(EnvGraceDays, c.Engine.Matching.GraceDays); err != nil {
		return err
	}
	if c.Batch.Workers, err = getEnvIntOrDefault(EnvWorkers, c.Batch.Workers); err != nil {
		return err
	}
	c.Engine.Matching.Strategy = matching.Strategy(strings.ToLower(getEnvOrDefault(EnvStrategy, string(c.Engine.Matching.Strategy))))
	c.Log.Level = getEnvOrDefault(EnvLogLevel, c.Log.Level)
	c.HTTP.Addr = getEnvOrDefault(EnvHTTPAddr, c.HTTP.Addr)
	return nil
}

// Validate checks the engine settings and the process settings
func (c *Config) Validate() error {
	if err := c.Engine.Validate(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return apperrors.ConfigInvalid("log: unknown format %q", c.Log.Format)
	}
	if c.Batch.Workers <= 0 {
		return apperrors.ConfigInvalid("batch: workers must be positive, got %d", c.Batch.Workers)
	}
	if c.HTTP.Addr == "" {
		return apperrors.ConfigInvalid("http: addr is required")
	}
	return nil
}

func getEnvOrDefault(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvIntOrDefault(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, apperrors.ConfigInvalid("%s must be an integer, got %q", key, value)
	}
	return n, nil
}
