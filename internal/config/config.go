// Package config loads runtime configuration from an optional YAML file and
// the environment. Environment variables always win over file values.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration values.
type Config struct {
	// HTTP server
	ServerAddr string `yaml:"server_addr"`
	// Base URL used by the CLI client
	ServerURL string `yaml:"server_url"`

	// Storage
	DBPath string `yaml:"db_path"`

	// LLM gateway
	LLMModel        string        `yaml:"llm_model"`
	OpenAIAPIKey    string        `yaml:"openai_api_key"`
	OpenAIBaseURL   string        `yaml:"openai_base_url"`
	AnthropicAPIKey string        `yaml:"anthropic_api_key"`
	LLMTimeout      time.Duration `yaml:"-"`
	// Timeout in whole seconds as written in the file, resolved by Load.
	LLMTimeoutSeconds int `yaml:"llm_timeout_seconds"`
	LLMMaxRetries     int `yaml:"llm_max_retries"`
	// Requests per minute across all LLM calls; 0 disables limiting.
	LLMRequestsPerMinute int `yaml:"llm_requests_per_minute"`

	// Logging
	LogFile  string     `yaml:"log_file"`
	LogLevel slog.Level `yaml:"-"`

	// Raw level name from the file, resolved into LogLevel by Load.
	LogLevelName string `yaml:"log_level"`
}

// Load reads configuration, layering defaults, the YAML file named by
// TEXTLENS_CONFIG (if set and readable), and finally the environment.
func Load() Config {
	cfg := Config{
		ServerAddr:    ":8080",
		ServerURL:     "http://localhost:8080",
		DBPath:        "textlens.db",
		LLMModel:      "gpt-4o",
		LLMTimeout:    120 * time.Second,
		LLMMaxRetries: 3,
		LogFile:       "/tmp/textlens.log",
		LogLevel:      slog.LevelInfo,
	}

	if path := os.Getenv("TEXTLENS_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			fmt.Fprintf(os.Stderr, "warning: config file %s: %v\n", path, err)
		}
	}

	cfg.ServerAddr = getEnv("TEXTLENS_ADDR", cfg.ServerAddr)
	cfg.ServerURL = getEnv("TEXTLENS_SERVER_URL", cfg.ServerURL)
	cfg.DBPath = getEnv("TEXTLENS_DB_PATH", cfg.DBPath)
	cfg.LLMModel = getEnv("TEXTLENS_LLM_MODEL", cfg.LLMModel)
	cfg.OpenAIAPIKey = getEnv("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", cfg.OpenAIBaseURL)
	cfg.AnthropicAPIKey = getEnv("ANTHROPIC_API_KEY", cfg.AnthropicAPIKey)
	if cfg.LLMTimeoutSeconds > 0 {
		cfg.LLMTimeout = time.Duration(cfg.LLMTimeoutSeconds) * time.Second
	}
	cfg.LLMTimeout = getEnvSeconds("TEXTLENS_LLM_TIMEOUT", cfg.LLMTimeout)
	cfg.LLMMaxRetries = getEnvInt("TEXTLENS_LLM_MAX_RETRIES", cfg.LLMMaxRetries)
	cfg.LLMRequestsPerMinute = getEnvInt("TEXTLENS_LLM_RPM", cfg.LLMRequestsPerMinute)
	cfg.LogFile = getEnv("TEXTLENS_LOG_FILE", cfg.LogFile)

	if cfg.LogLevelName != "" {
		cfg.LogLevel = ParseLogLevel(cfg.LogLevelName)
	}
	if v := os.Getenv("TEXTLENS_LOG_LEVEL"); v != "" {
		cfg.LogLevel = ParseLogLevel(v)
	}

	return cfg
}

// mergeFile overlays values from a YAML config file onto cfg.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvSeconds(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return defaultVal
}

// ParseLogLevel maps a level name onto a slog.Level, defaulting to INFO.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
