// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/JonMunkholm/settlement/internal/core"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Upload   UploadConfig
	Settle   SettleConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading the request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing the response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// UploadConfig holds settlement upload settings.
type UploadConfig struct {
	// MaxFileSize is the maximum size of one uploaded workbook in bytes (default: 50MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"52428800"`

	// MaxFiles is the maximum number of workbooks in one batch (default: 20)
	MaxFiles int `env:"UPLOAD_MAX_FILES" default:"20"`

	// MaxConcurrent is the maximum number of batches processed at once (default: 2)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"2"`

	// MaxWaitTime is how long to wait for a batch slot (default: 30s)
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`
}

// SettleConfig holds parsing and export settings shared by the CLI and server.
type SettleConfig struct {
	// HeaderMinColumns is the non-empty cell count a located header must exceed (default: 3)
	HeaderMinColumns int `env:"SETTLE_HEADER_MIN_COLUMNS" default:"3"`

	// KyoboHeaderOffsets are the header rows tried for Kyobo files, in order (default: 3,2,0)
	KyoboHeaderOffsets []int `env:"SETTLE_KYOBO_HEADER_OFFSETS" default:"3,2,0"`

	// SynonymsFile is an optional YAML file merged over the built-in column synonyms
	SynonymsFile string `env:"SETTLE_SYNONYMS_FILE"`

	// OutputDir is where the CLI writes the report when -o is not given (default: .)
	OutputDir string `env:"SETTLE_OUTPUT_DIR" default:"."`

	// MetricsTextfile, when set, receives batch metrics in Prometheus text format
	MetricsTextfile string `env:"SETTLE_METRICS_TEXTFILE"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey enables X-API-Key checks on /api routes (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// ProcessorOptions builds processor options from the settle settings,
// loading the synonyms file when one is configured.
func (c *SettleConfig) ProcessorOptions() (core.ProcessorOptions, error) {
	opts := core.ProcessorOptions{
		MinHeaderColumns:   c.HeaderMinColumns,
		KyoboHeaderOffsets: c.KyoboHeaderOffsets,
	}
	if c.SynonymsFile != "" {
		st, err := core.LoadSynonymsFile(c.SynonymsFile)
		if err != nil {
			return opts, fmt.Errorf("load synonyms: %w", err)
		}
		opts.Synonyms = st
	}
	return opts, nil
}
