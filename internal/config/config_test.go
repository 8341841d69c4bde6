package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.HTTP.Addr != ":8090" {
		t.Fatalf("addr = %s", cfg.HTTP.Addr)
	}
	if cfg.CloudControl.Region != "us-east-1" {
		t.Fatalf("region = %s", cfg.CloudControl.Region)
	}
	if cfg.Schema.Dir != "configs/schemas" || cfg.Rules.Dir != "configs/rules" {
		t.Fatalf("dirs = %s %s", cfg.Schema.Dir, cfg.Rules.Dir)
	}
	if !cfg.Rules.SeedExamples {
		t.Fatalf("seed examples should default on")
	}
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
http:
  addr: ":9000"
cloudcontrol:
  endpoint: "http://localhost:4566"
  region: eu-west-1
mcp:
  allow_origins:
    - https://app.example.com
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Addr != ":9000" {
		t.Fatalf("addr = %s", cfg.HTTP.Addr)
	}
	if cfg.CloudControl.Endpoint != "http://localhost:4566" || cfg.CloudControl.Region != "eu-west-1" {
		t.Fatalf("cloudcontrol = %+v", cfg.CloudControl)
	}
	if len(cfg.MCP.AllowOrigins) != 1 || cfg.MCP.AllowOrigins[0] != "https://app.example.com" {
		t.Fatalf("allow origins = %v", cfg.MCP.AllowOrigins)
	}
	// Untouched keys keep their defaults.
	if cfg.Schema.Dir != "configs/schemas" {
		t.Fatalf("schema dir = %s", cfg.Schema.Dir)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CC_HTTP_ADDR", ":7070")
	t.Setenv("CC_DEV_MODE", "off")
	t.Setenv("CC_ROLE_ARN", "arn:aws:iam::123456789012:role/Deploy")
	t.Setenv("CC_SCHEMA_CACHE_TTL", "30m")
	t.Setenv("CC_MCP_ALLOW_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Addr != ":7070" {
		t.Fatalf("addr = %s", cfg.HTTP.Addr)
	}
	if cfg.Dev.Mode {
		t.Fatalf("dev mode should be off")
	}
	if cfg.CloudControl.RoleARN != "arn:aws:iam::123456789012:role/Deploy" {
		t.Fatalf("role arn = %s", cfg.CloudControl.RoleARN)
	}
	if cfg.Schema.CacheTTL != 30*time.Minute {
		t.Fatalf("cache ttl = %s", cfg.Schema.CacheTTL)
	}
	if len(cfg.MCP.AllowOrigins) != 2 || cfg.MCP.AllowOrigins[1] != "https://b.example.com" {
		t.Fatalf("allow origins = %v", cfg.MCP.AllowOrigins)
	}
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Addr != ":8090" {
		t.Fatalf("addr = %s", cfg.HTTP.Addr)
	}
}
