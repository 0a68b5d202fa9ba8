// Package config loads digitizer settings: built-in defaults, then an
// optional TOML file, then DIGITIZER_* environment variables.
package config

import (
	"os"
	"path/filepath"

	"plot-digitizer/internal/document"
	"plot-digitizer/pkg/errors"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment override, e.g. DIGITIZER_LOG_LEVEL.
const EnvPrefix = "DIGITIZER"

// Report store backends.
const (
	StoreFile  = "file"
	StoreRedis = "redis"
)

// Config holds the settings shared by the CLI and sessions. Fields carry no
// envconfig defaults so values from the TOML file survive Process.
type Config struct {
	LogLevel      string `toml:"log_level" envconfig:"LOG_LEVEL"`
	DisplayDigits int    `toml:"display_digits" envconfig:"DISPLAY_DIGITS"`

	// Axis scales for newly imported images.
	XScale document.AxisScale `toml:"x_scale" envconfig:"X_SCALE"`
	YScale document.AxisScale `toml:"y_scale" envconfig:"Y_SCALE"`

	ReportStore   string `toml:"report_store" envconfig:"REPORT_STORE"`
	ReportDir     string `toml:"report_dir" envconfig:"REPORT_DIR"`
	RedisAddr     string `toml:"redis_addr" envconfig:"REDIS_ADDR"`
	RedisPassword string `toml:"redis_password" envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `toml:"redis_db" envconfig:"REDIS_DB"`
	RedisPrefix   string `toml:"redis_prefix" envconfig:"REDIS_PREFIX"`
}

// Default returns the built-in settings.
func Default() *Config {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return &Config{
		LogLevel:      "info",
		DisplayDigits: 6,
		ReportStore:   StoreFile,
		ReportDir:     filepath.Join(dir, "plot-digitizer", "reports"),
		RedisAddr:     "localhost:6379",
		RedisPrefix:   "digitizer:report:",
	}
}

// DefaultPath returns the per-user config file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "plot-digitizer", "config.toml")
}

// Load reads path over the defaults and applies environment overrides. A
// missing file is not an error when path is the default location.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		_, err := toml.DecodeFile(path, cfg)
		switch {
		case err == nil:
		case os.IsNotExist(err) && path == DefaultPath():
		default:
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "config %s", path)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "environment")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if c.DisplayDigits < 1 || c.DisplayDigits > 17 {
		return errors.New(errors.ErrCodeInvalidInput, "display_digits must be 1..17, got %d", c.DisplayDigits)
	}
	switch c.ReportStore {
	case StoreFile:
		if c.ReportDir == "" {
			return errors.New(errors.ErrCodeInvalidInput, "report_dir is required for the file store")
		}
	case StoreRedis:
		if c.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidInput, "redis_addr is required for the redis store")
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown report_store %q", c.ReportStore)
	}
	return nil
}

// Coords returns the axis scales for a new document.
func (c *Config) Coords() document.CoordSettings {
	return document.CoordSettings{XScale: c.XScale, YScale: c.YScale}
}
