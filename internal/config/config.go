// Package config loads service configuration from defaults, an optional
// YAML file, and DOCSBOT_* environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Knowledge KnowledgeConfig `yaml:"knowledge"`
	Chat      ChatConfig      `yaml:"chat"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Port     int    `yaml:"port"`
	APIToken string `yaml:"api_token"`
}

type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
}

type KnowledgeConfig struct {
	Dir string `yaml:"dir"`
}

type ChatConfig struct {
	// QueryTimeoutSeconds bounds each semantic search.
	QueryTimeoutSeconds int `yaml:"query_timeout_seconds"`
	// SessionCap limits how many conversation histories stay in memory.
	SessionCap int `yaml:"session_cap"`
}

type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	Dimensions int    `yaml:"dimensions"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 8000,
		},
		Storage: StorageConfig{
			DataDir: "data",
		},
		Knowledge: KnowledgeConfig{
			Dir: "knowledge_base",
		},
		Chat: ChatConfig{
			QueryTimeoutSeconds: 5,
			SessionCap:          512,
		},
		Embedding: EmbeddingConfig{
			Provider:   "hash",
			Dimensions: 256,
			BaseURL:    "http://localhost:11434",
			Model:      "nomic-embed-text",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration. An empty path skips the file layer; a
// non-empty path must name a readable YAML file. Environment variables
// override file values on all platforms.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type keyType int

const (
	kString keyType = iota
	kInt
)

type keySpec struct {
	env   string
	typ   keyType
	apply func(cfg *Config, v any)
}

var specs = []keySpec{
	{env: "DOCSBOT_PORT", typ: kInt, apply: func(cfg *Config, v any) { cfg.Server.Port = v.(int) }},
	{env: "DOCSBOT_API_TOKEN", typ: kString, apply: func(cfg *Config, v any) { cfg.Server.APIToken = v.(string) }},
	{env: "DOCSBOT_DATA_DIR", typ: kString, apply: func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) }},
	{env: "DOCSBOT_KNOWLEDGE_DIR", typ: kString, apply: func(cfg *Config, v any) { cfg.Knowledge.Dir = v.(string) }},
	{env: "DOCSBOT_QUERY_TIMEOUT", typ: kInt, apply: func(cfg *Config, v any) { cfg.Chat.QueryTimeoutSeconds = v.(int) }},
	{env: "DOCSBOT_SESSION_CAP", typ: kInt, apply: func(cfg *Config, v any) { cfg.Chat.SessionCap = v.(int) }},
	{env: "DOCSBOT_EMBEDDING_PROVIDER", typ: kString, apply: func(cfg *Config, v any) { cfg.Embedding.Provider = v.(string) }},
	{env: "DOCSBOT_EMBEDDING_DIMENSIONS", typ: kInt, apply: func(cfg *Config, v any) { cfg.Embedding.Dimensions = v.(int) }},
	{env: "DOCSBOT_OLLAMA_URL", typ: kString, apply: func(cfg *Config, v any) { cfg.Embedding.BaseURL = v.(string) }},
	{env: "DOCSBOT_OLLAMA_MODEL", typ: kString, apply: func(cfg *Config, v any) { cfg.Embedding.Model = v.(string) }},
	{env: "DOCSBOT_LOG_LEVEL", typ: kString, apply: func(cfg *Config, v any) { cfg.Log.Level = v.(string) }},
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}

func (c Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	switch c.Embedding.Provider {
	case "hash", "ollama":
	default:
		return fmt.Errorf("unknown embedding provider %q", c.Embedding.Provider)
	}
	if c.Embedding.Dimensions < 1 {
		return fmt.Errorf("embedding dimensions must be positive, got %d", c.Embedding.Dimensions)
	}
	if c.Chat.QueryTimeoutSeconds < 1 {
		return fmt.Errorf("chat query timeout must be positive, got %d", c.Chat.QueryTimeoutSeconds)
	}
	if c.Chat.SessionCap < 1 {
		return fmt.Errorf("chat session cap must be positive, got %d", c.Chat.SessionCap)
	}
	return nil
}
