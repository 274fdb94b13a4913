package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration.
type Config struct {
	Port             string `koanf:"port"`
	Env              string `koanf:"env"`
	CORSAllowOrigins string `koanf:"cors_allow_origins"`
	AdminToken       string `koanf:"admin_token"`
	LogLevel         string `koanf:"log_level"`
	LogFormat        string `koanf:"log_format"`

	KnowledgePath  string `koanf:"knowledge_path"`
	KnowledgeWatch bool   `koanf:"knowledge_watch"`

	InferenceAPIKey         string  `koanf:"inference_api_key"`
	InferenceAPIURL         string  `koanf:"inference_api_url"`
	InferenceTimeoutSeconds int     `koanf:"inference_timeout_seconds"`
	InferenceMaxAttempts    int     `koanf:"inference_max_attempts"`
	InferenceRetryDelayMs   int     `koanf:"inference_retry_delay_ms"`
	InferenceMaxTokens      int     `koanf:"inference_max_tokens"`
	InferenceTemperature    float64 `koanf:"inference_temperature"`
	BreakerFailures         int     `koanf:"inference_breaker_failures"`
	BreakerCooldownSeconds  int     `koanf:"inference_breaker_cooldown_seconds"`
	ResponseCacheMaxEntries int     `koanf:"response_cache_max_entries"`
	RateLimitRPS            float64 `koanf:"rate_limit_rps"`
	RateLimitBurst          int     `koanf:"rate_limit_burst"`
}

// ConfigPathEnvVar overrides the optional YAML config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaults() Config {
	return Config{
		Port:                    "8080",
		Env:                     "dev",
		CORSAllowOrigins:        "http://localhost:5173",
		LogLevel:                "info",
		LogFormat:               "json",
		KnowledgePath:           "knowledge/product.md",
		KnowledgeWatch:          true,
		InferenceAPIURL:         "https://api.kiro.ai/v1",
		InferenceTimeoutSeconds: 30,
		InferenceMaxAttempts:    3,
		InferenceRetryDelayMs:   1000,
		InferenceMaxTokens:      1000,
		InferenceTemperature:    0.7,
		BreakerFailures:         5,
		BreakerCooldownSeconds:  30,
		RateLimitRPS:            2,
		RateLimitBurst:          10,
	}
}

// Load reads configuration from defaults, an optional YAML file, local .env
// files and the environment, in increasing order of precedence.
func Load() (Config, error) {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	k := koanf.New(".")
	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path := configFilePath(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Env = normalizeEnv(cfg.Env)
	cfg.normalize()
	return cfg, nil
}

// InferenceTimeout returns the per-attempt HTTP timeout.
func (c Config) InferenceTimeout() time.Duration {
	return time.Duration(c.InferenceTimeoutSeconds) * time.Second
}

// InferenceRetryDelay returns the base retry delay.
func (c Config) InferenceRetryDelay() time.Duration {
	return time.Duration(c.InferenceRetryDelayMs) * time.Millisecond
}

// BreakerCooldown returns how long the inference breaker stays open.
func (c Config) BreakerCooldown() time.Duration {
	return time.Duration(c.BreakerCooldownSeconds) * time.Second
}

// CORSOrigins splits the configured origin list.
func (c Config) CORSOrigins() []string {
	return splitAndTrim(c.CORSAllowOrigins)
}

func (c *Config) normalize() {
	if c.InferenceTimeoutSeconds <= 0 {
		c.InferenceTimeoutSeconds = 30
	}
	if c.InferenceMaxAttempts <= 0 {
		c.InferenceMaxAttempts = 3
	}
	if c.InferenceRetryDelayMs < 0 {
		c.InferenceRetryDelayMs = 0
	}
	if c.ResponseCacheMaxEntries < 0 {
		c.ResponseCacheMaxEntries = 0
	}
	c.InferenceAPIKey = strings.TrimSpace(c.InferenceAPIKey)
	c.InferenceAPIURL = strings.TrimRight(strings.TrimSpace(c.InferenceAPIURL), "/")
}

func configFilePath() string {
	if p := strings.TrimSpace(os.Getenv(ConfigPathEnvVar)); p != "" {
		return p
	}
	for _, candidate := range []string{"config.yaml", "config.yml"} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// envKey maps PORT -> port, INFERENCE_API_KEY -> inference_api_key.
func envKey(s string) string {
	return strings.ToLower(s)
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	default:
		return "dev"
	}
}
