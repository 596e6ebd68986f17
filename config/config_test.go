package config

import (
	"strings"
	"testing"
	"time"
)

func TestNewDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got: %v", err)
	}

	if cfg.Server.Addr != ":5000" {
		t.Errorf("expected default addr :5000, got %q", cfg.Server.Addr)
	}
	if cfg.S3.Bucket != "timeline-attachments" {
		t.Errorf("expected default bucket timeline-attachments, got %q", cfg.S3.Bucket)
	}
	if cfg.Server.MaxUploadSize != 1<<30 {
		t.Errorf("expected default upload limit of 1 GiB, got %d", cfg.Server.MaxUploadSize)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing database host", func(c *Config) { c.Database.Host = "" }, "database host"},
		{"missing database name", func(c *Config) { c.Database.Name = "" }, "database name"},
		{"min conns above max", func(c *Config) { c.Database.MinConns = 20; c.Database.MaxConns = 10 }, "min_conns"},
		{"missing s3 endpoint", func(c *Config) { c.S3.Endpoint = "" }, "s3 endpoint"},
		{"missing s3 bucket", func(c *Config) { c.S3.Bucket = "" }, "s3 bucket"},
		{"missing server addr", func(c *Config) { c.Server.Addr = "" }, "server addr"},
		{"bad query timeout", func(c *Config) { c.Database.QueryTimeout = "banana" }, "query_timeout"},
		{"bad pdf timeout", func(c *Config) { c.PDF.Timeout = "soon" }, "pdf timeout"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestGetQueryTimeout(t *testing.T) {
	d := DatabaseConfig{}
	timeout, err := d.GetQueryTimeout()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if timeout != 30*time.Second {
		t.Errorf("expected 30s default, got %v", timeout)
	}

	d.QueryTimeout = "2m"
	timeout, err = d.GetQueryTimeout()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if timeout != 2*time.Minute {
		t.Errorf("expected 2m, got %v", timeout)
	}
}

func TestGetPDFTimeout(t *testing.T) {
	p := PDFConfig{}
	timeout, err := p.GetTimeout()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if timeout != 30*time.Second {
		t.Errorf("expected 30s default, got %v", timeout)
	}

	p.Timeout = "45s"
	timeout, err = p.GetTimeout()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if timeout != 45*time.Second {
		t.Errorf("expected 45s, got %v", timeout)
	}
}
