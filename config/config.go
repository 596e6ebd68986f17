// Package config defines the TOML configuration for the timeline server.
package config

import (
	"fmt"
	"time"
)

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Output string `toml:"output"` // "stdout", "stderr" or a file path
	Format string `toml:"format"` // "console" or "json"
	Level  string `toml:"level"`  // "debug", "info", "warn", "error"
}

// DatabaseConfig holds PostgreSQL connection settings for the email record store.
type DatabaseConfig struct {
	Host         string `toml:"host"`
	Port         string `toml:"port"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	Name         string `toml:"name"`
	TLSMode      bool   `toml:"tls"`
	LogQueries   bool   `toml:"log_queries"`
	MaxConns     int32  `toml:"max_conns"`
	MinConns     int32  `toml:"min_conns"`
	QueryTimeout string `toml:"query_timeout"` // Timeout for individual database queries (e.g., "30s")
}

// GetQueryTimeout parses the query timeout duration
func (d *DatabaseConfig) GetQueryTimeout() (time.Duration, error) {
	if d.QueryTimeout == "" {
		return 30 * time.Second, nil
	}
	return time.ParseDuration(d.QueryTimeout)
}

// S3Config holds settings for the attachment blob store.
type S3Config struct {
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	Bucket    string `toml:"bucket"`
	UseTLS    bool   `toml:"tls"`
	Trace     bool   `toml:"trace"` // Enable detailed request/response tracing
}

// ServerConfig holds HTTP API server settings.
type ServerConfig struct {
	Addr          string `toml:"addr"`
	MaxUploadSize int64  `toml:"max_upload_size"` // Maximum accepted mbox upload in bytes (0 = unlimited)
}

// PDFConfig holds settings for the headless-browser PDF renderer.
type PDFConfig struct {
	Enabled     bool   `toml:"enabled"`
	BrowserPath string `toml:"browser_path"` // Optional path to a Chromium binary; auto-detected when empty
	NoSandbox   bool   `toml:"no_sandbox"`   // Required when running as root inside containers
	Timeout     string `toml:"timeout"`      // Per-render timeout (e.g., "30s")
}

// GetTimeout parses the per-render timeout duration
func (p *PDFConfig) GetTimeout() (time.Duration, error) {
	if p.Timeout == "" {
		return 30 * time.Second, nil
	}
	return time.ParseDuration(p.Timeout)
}

// Config is the top-level configuration structure
type Config struct {
	Logging  LoggingConfig  `toml:"logging"`
	Database DatabaseConfig `toml:"database"`
	S3       S3Config       `toml:"s3"`
	Server   ServerConfig   `toml:"server"`
	PDF      PDFConfig      `toml:"pdf"`
}

// NewDefaultConfig returns a configuration pre-populated with application defaults.
// Values from the TOML file and command-line flags override these.
func NewDefaultConfig() Config {
	return Config{
		Logging: LoggingConfig{
			Output: "stderr",
			Format: "console",
			Level:  "info",
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     "5432",
			User:     "timeline",
			Name:     "timeline",
			MaxConns: 10,
			MinConns: 2,
		},
		S3: S3Config{
			Endpoint: "localhost:9000",
			Bucket:   "timeline-attachments",
		},
		Server: ServerConfig{
			Addr:          ":5000",
			MaxUploadSize: 1 << 30, // 1 GiB
		},
		PDF: PDFConfig{
			Enabled:   true,
			NoSandbox: true,
		},
	}
}

// Validate checks the configuration for missing or inconsistent values.
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.MaxConns > 0 && c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("database min_conns (%d) cannot exceed max_conns (%d)", c.Database.MinConns, c.Database.MaxConns)
	}
	if c.S3.Endpoint == "" {
		return fmt.Errorf("s3 endpoint is required")
	}
	if c.S3.Bucket == "" {
		return fmt.Errorf("s3 bucket is required")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server addr is required")
	}
	if _, err := c.Database.GetQueryTimeout(); err != nil {
		return fmt.Errorf("invalid database query_timeout: %w", err)
	}
	if _, err := c.PDF.GetTimeout(); err != nil {
		return fmt.Errorf("invalid pdf timeout: %w", err)
	}
	return nil
}
