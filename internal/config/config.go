package config

import (
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Dev struct {
		Mode bool `yaml:"mode"`
	} `yaml:"dev"`
	CloudControl struct {
		Endpoint string `yaml:"endpoint"`
		Region   string `yaml:"region"`
		RoleARN  string `yaml:"role_arn"`
	} `yaml:"cloudcontrol"`
	Schema struct {
		Dir         string        `yaml:"dir"`
		RegistryURL string        `yaml:"registry_url"`
		CacheTTL    time.Duration `yaml:"cache_ttl"`
	} `yaml:"schema"`
	Rules struct {
		Dir          string `yaml:"dir"`
		SeedExamples bool   `yaml:"seed_examples"`
	} `yaml:"rules"`
	Database struct {
		DSN string `yaml:"dsn"`
	} `yaml:"database"`
	Redis struct {
		URL string `yaml:"url"`
	} `yaml:"redis"`
	MCP struct {
		ProtocolVersion string   `yaml:"protocol_version"`
		AllowOrigins    []string `yaml:"allow_origins"`
	} `yaml:"mcp"`
	Security struct {
		APIKey string `yaml:"api_key"`
	} `yaml:"security"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

func Default() Config {
	var cfg Config
	cfg.HTTP.Addr = ":8090"
	cfg.Dev.Mode = true
	cfg.CloudControl.Region = "us-east-1"
	cfg.Schema.Dir = "configs/schemas"
	cfg.Schema.CacheTTL = 12 * time.Hour
	cfg.Rules.Dir = "configs/rules"
	cfg.Rules.SeedExamples = true
	cfg.MCP.ProtocolVersion = "2025-11-25"
	cfg.Log.Level = "info"
	return cfg
}

func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, err
			}
		} else {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, err
			}
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("CC_HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("CC_DEV_MODE"); v != "" {
		cfg.Dev.Mode = parseBool(v, cfg.Dev.Mode)
	}
	if v := os.Getenv("CC_CLOUDCONTROL_ENDPOINT"); v != "" {
		cfg.CloudControl.Endpoint = v
	}
	if v := os.Getenv("CC_REGION"); v != "" {
		cfg.CloudControl.Region = v
	}
	if v := os.Getenv("CC_ROLE_ARN"); v != "" {
		cfg.CloudControl.RoleARN = v
	}
	if v := os.Getenv("CC_SCHEMA_DIR"); v != "" {
		cfg.Schema.Dir = v
	}
	if v := os.Getenv("CC_SCHEMA_REGISTRY_URL"); v != "" {
		cfg.Schema.RegistryURL = v
	}
	if v := os.Getenv("CC_SCHEMA_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Schema.CacheTTL = d
		}
	}
	if v := os.Getenv("CC_RULES_DIR"); v != "" {
		cfg.Rules.Dir = v
	}
	if v := os.Getenv("CC_RULES_SEED_EXAMPLES"); v != "" {
		cfg.Rules.SeedExamples = parseBool(v, cfg.Rules.SeedExamples)
	}
	if v := os.Getenv("CC_DB_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("CC_REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("CC_MCP_PROTOCOL_VERSION"); v != "" {
		cfg.MCP.ProtocolVersion = v
	}
	if v := os.Getenv("CC_MCP_ALLOW_ORIGINS"); v != "" {
		cfg.MCP.AllowOrigins = splitCSV(v)
	}
	if v := os.Getenv("CC_API_KEY"); v != "" {
		cfg.Security.APIKey = v
	}
	if v := os.Getenv("CC_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

func parseBool(input string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func splitCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		val := strings.TrimSpace(part)
		if val == "" {
			continue
		}
		out = append(out, val)
	}
	return out
}
