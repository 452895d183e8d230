package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/joseph-ayodele/product-extractor/constants"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig `toml:"database"`
	OCR      OCRConfig      `toml:"ocr"`
	LLM      LLMConfig      `toml:"llm"`
	Log      LogConfig      `toml:"log"`
	Pipeline PipelineConfig `toml:"pipeline"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver           string        `toml:"driver"` // sqlite | postgres
	DSN              string        `toml:"dsn"`
	MaxConns         int32         `toml:"max_conns"`
	MinConns         int32         `toml:"min_conns"`
	MaxConnLifetime  time.Duration `toml:"max_conn_lifetime"`
	MaxConnIdleTime  time.Duration `toml:"max_conn_idle_time"`
	DialTimeout      time.Duration `toml:"dial_timeout"`
	StatementTimeout time.Duration `toml:"statement_timeout"`
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Pdftoppm     string `toml:"pdftoppm"`
	Tesseract    string `toml:"tesseract"`
	Language     string `toml:"language"`
	DPI          int    `toml:"dpi"`
	MaxPages     int    `toml:"max_pages"`
	TessdataDir  string `toml:"tessdata_dir"`
	MinTextChars int    `toml:"min_text_chars"`
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	BaseURL     string        `toml:"base_url"`
	Model       string        `toml:"model"`
	APIKey      string        `toml:"api_key"`
	Temperature float32       `toml:"temperature"`
	Timeout     time.Duration `toml:"timeout"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // json, text
}

// PipelineConfig holds defaults for batch runs.
type PipelineConfig struct {
	Workers int    `toml:"workers"`
	Pattern string `toml:"pattern"`
}

// DefaultConfig returns the configuration used when nothing else is set.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:          "sqlite",
			DSN:             "data/products.db",
			MaxConns:        20,
			MinConns:        5,
			MaxConnLifetime: 30 * time.Minute,
			MaxConnIdleTime: 5 * time.Minute,
			DialTimeout:     3 * time.Second,
		},
		OCR: OCRConfig{
			Pdftoppm:     "pdftoppm",
			Tesseract:    "tesseract",
			Language:     "eng",
			DPI:          300,
			MinTextChars: 20,
		},
		LLM: LLMConfig{
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-4o-mini",
			Temperature: 0.0,
			Timeout:     45 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Pipeline: PipelineConfig{
			Workers: 4,
			Pattern: constants.DefaultPattern,
		},
	}
}

// LoadConfig builds the configuration from defaults, then the optional TOML
// file at path, then environment variables.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, NewAppError("CONFIG_ERROR", "read config file", err)
		}
		if err := toml.Unmarshal(b, cfg); err != nil {
			return nil, NewAppError("CONFIG_ERROR", fmt.Sprintf("parse %s", path), err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Database.Driver = getEnv("DB_DRIVER", c.Database.Driver)
	c.Database.DSN = getEnv("DB_URL", c.Database.DSN)
	c.Database.MaxConns = getEnvAsInt32("DB_MAX_CONNS", c.Database.MaxConns)
	c.Database.MinConns = getEnvAsInt32("DB_MIN_CONNS", c.Database.MinConns)
	c.Database.MaxConnLifetime = getEnvAsDuration("DB_MAX_CONN_LIFETIME", c.Database.MaxConnLifetime)
	c.Database.MaxConnIdleTime = getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", c.Database.MaxConnIdleTime)
	c.Database.DialTimeout = getEnvAsDuration("DB_DIAL_TIMEOUT", c.Database.DialTimeout)
	c.Database.StatementTimeout = getEnvAsDuration("DB_STATEMENT_TIMEOUT", c.Database.StatementTimeout)

	c.OCR.Pdftoppm = getEnv("PDFTOPPM_BIN", c.OCR.Pdftoppm)
	c.OCR.Tesseract = getEnv("TESSERACT_BIN", c.OCR.Tesseract)
	c.OCR.Language = getEnv("TESSERACT_LANG", c.OCR.Language)
	c.OCR.DPI = getEnvAsInt("OCR_DPI", c.OCR.DPI)
	c.OCR.MaxPages = getEnvAsInt("OCR_MAX_PAGES", c.OCR.MaxPages)
	c.OCR.TessdataDir = getEnv("TESSDATA_PREFIX", c.OCR.TessdataDir)
	c.OCR.MinTextChars = getEnvAsInt("OCR_MIN_TEXT_CHARS", c.OCR.MinTextChars)

	c.LLM.BaseURL = getEnv("OPENAI_BASE_URL", c.LLM.BaseURL)
	c.LLM.Model = getEnv("OPENAI_MODEL", c.LLM.Model)
	c.LLM.APIKey = getEnv("OPENAI_API_KEY", c.LLM.APIKey)
	c.LLM.Temperature = getEnvAsFloat32("OPENAI_TEMPERATURE", c.LLM.Temperature)
	c.LLM.Timeout = getEnvAsDuration("OPENAI_TIMEOUT", c.LLM.Timeout)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)

	c.Pipeline.Workers = getEnvAsInt("PIPELINE_WORKERS", c.Pipeline.Workers)
	c.Pipeline.Pattern = getEnv("PIPELINE_PATTERN", c.Pipeline.Pattern)
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate checks the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator().
		Field("database.driver", c.Database.Driver, OneOf("sqlite", "postgres")).
		Field("database.dsn", c.Database.DSN, Required).
		Field("log.level", c.Log.Level, OneOf("debug", "info", "warn", "error")).
		Field("log.format", c.Log.Format, OneOf("json", "text")).
		Field("pipeline.workers", c.Pipeline.Workers, Positive).
		Field("pipeline.pattern", c.Pipeline.Pattern, Required, GlobPattern).
		Field("ocr.dpi", c.OCR.DPI, Positive)
	if v.HasErrors() {
		return NewAppError("CONFIG_ERROR", v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}
