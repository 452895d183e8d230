package common

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 4, cfg.Pipeline.Workers)
	assert.Equal(t, "*.pdf", cfg.Pipeline.Pattern)
	assert.Equal(t, 300, cfg.OCR.DPI)
	assert.Equal(t, "eng", cfg.OCR.Language)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[database]
driver = "postgres"
dsn = "postgres://localhost/products"
max_conns = 10

[pipeline]
workers = 8
pattern = "*.PDF"

[log]
level = "debug"
format = "json"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("PIPELINE_WORKERS", "2")
	t.Setenv("OPENAI_MODEL", "gpt-test")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/products", cfg.Database.DSN)
	assert.Equal(t, int32(10), cfg.Database.MaxConns)
	assert.Equal(t, 3*time.Second, cfg.Database.DialTimeout, "default kept")
	assert.Equal(t, "*.PDF", cfg.Pipeline.Pattern)
	assert.Equal(t, 2, cfg.Pipeline.Workers, "env overrides file")
	assert.Equal(t, "gpt-test", cfg.LLM.Model)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfig_BadFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)

	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "CONFIG_ERROR", appErr.Code)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"empty dsn", func(c *Config) { c.Database.DSN = " " }},
		{"zero workers", func(c *Config) { c.Pipeline.Workers = 0 }},
		{"recursive pattern", func(c *Config) { c.Pipeline.Pattern = "sub/*.pdf" }},
		{"malformed pattern", func(c *Config) { c.Pipeline.Pattern = "[" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "warn", Format: "json"}, &buf)

	logger.Info("hidden")
	logger.Warn("shown", "file", "a.pdf")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"file":"a.pdf"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}
