package config

import (
	"os"
	"path/filepath"
	"testing"

	"plot-digitizer/internal/document"
	"plot-digitizer/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadLayers(t *testing.T) {
	path := writeConfig(t, `
log_level = "debug"
display_digits = 4
y_scale = "log"
report_store = "redis"
redis_prefix = "plots:"
`)
	t.Setenv("DIGITIZER_DISPLAY_DIGITS", "9")
	t.Setenv("DIGITIZER_X_SCALE", "log")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	def := Default()
	tests := []struct {
		name string
		got  any
		want any
	}{
		{"file value", cfg.LogLevel, "debug"},
		{"env beats file", cfg.DisplayDigits, 9},
		{"file enum", cfg.YScale, document.ScaleLog},
		{"env enum", cfg.XScale, document.ScaleLog},
		{"file store", cfg.ReportStore, StoreRedis},
		{"file prefix", cfg.RedisPrefix, "plots:"},
		{"default kept", cfg.RedisAddr, def.RedisAddr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}

	if c := cfg.Coords(); c.XScale != document.ScaleLog || c.YScale != document.ScaleLog {
		t.Errorf("Coords() = %+v", c)
	}
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DisplayDigits != 6 || cfg.ReportStore != StoreFile {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
		env  map[string]string
	}{
		{"missing explicit file", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.toml") }, nil},
		{"bad toml", func(t *testing.T) string { return writeConfig(t, "log_level = ") }, nil},
		{"bad scale", func(t *testing.T) string { return writeConfig(t, `x_scale = "cubic"`) }, nil},
		{"digits out of range", func(t *testing.T) string { return writeConfig(t, "display_digits = 40") }, nil},
		{"unknown store", func(t *testing.T) string { return writeConfig(t, `report_store = "s3"`) }, nil},
		{"bad env", func(t *testing.T) string { return "" }, map[string]string{"DIGITIZER_REDIS_DB": "zero"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(tt.path(t)); !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("err = %v, want INVALID_INPUT", err)
			}
		})
	}
}
