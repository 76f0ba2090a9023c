// Package config loads onyxd's process configuration from a YAML file,
// with environment variables overriding individual fields — the same
// layering the teacher's example command applies to its flags.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is onyxd's top-level process configuration.
type Config struct {
	LogFormat   string `yaml:"log_format"`
	Debug       bool   `yaml:"debug"`
	DispatchPoolSize int `yaml:"dispatch_pool_size"`

	Mongo MongoConfig `yaml:"mongo"`
	Redis RedisConfig `yaml:"redis"`
	LLM   LLMConfig   `yaml:"llm"`
	Secrets SecretsConfig `yaml:"secrets"`
}

// MongoConfig configures the vector/staging store backend.
type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

// RedisConfig configures the distributed row locker.
type RedisConfig struct {
	Addr string `yaml:"addr"`
	TTLSeconds int `yaml:"ttl_seconds"`
}

// LLMConfig selects and configures the active LLM vendor adapter.
type LLMConfig struct {
	Vendor    string `yaml:"vendor"` // "anthropic", "openai", or "bedrock"
	Model     string `yaml:"model"`
	APIKey    string `yaml:"api_key"`
	MaxTokens int    `yaml:"max_tokens"`
}

// SecretsConfig configures the AES-256-GCM secrets manager.
type SecretsConfig struct {
	KeyBase64 string `yaml:"key_base64"`
}

// Load reads path as YAML, then applies ONYX_-prefixed environment
// variable overrides for the fields operators most often need to flip per
// deployment without editing the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	applyEnvOverrides(&cfg)
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ONYX_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("ONYX_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Debug = b
		}
	}
	if v := os.Getenv("ONYX_MONGO_URI"); v != "" {
		cfg.Mongo.URI = v
	}
	if v := os.Getenv("ONYX_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("ONYX_LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("ONYX_SECRETS_KEY_BASE64"); v != "" {
		cfg.Secrets.KeyBase64 = v
	}
}
