package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type EmbedderConfig struct {
	Type      string `yaml:"type"`        // semantic | deterministic
	Provider  string `yaml:"provider"`    // openai | gemini, semantic only
	Model     string `yaml:"model"`       // embedding model identifier
	APIKeyEnv string `yaml:"api_key_env"` // env var holding the provider key
	Dimension int    `yaml:"dimension"`
}

type StoreConfig struct {
	Type       string `yaml:"type"` // chroma | memory
	Addr       string `yaml:"addr"`
	Collection string `yaml:"collection"`
}

type LLMConfig struct {
	Type      string `yaml:"type"` // openai | stub
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

type Config struct {
	LogFile       string `yaml:"log"`
	DocRoot       string `yaml:"doc_root"`
	MergeEventsMs int    `yaml:"write_debounce_ms"`
	ChunkSize     int    `yaml:"chunk_size"`
	ChunkOverlap  int    `yaml:"chunk_overlap"`
	Results       int    `yaml:"results"`
	ServerAddr    string `yaml:"server_addr"`

	Embedder EmbedderConfig `yaml:"embedder"`
	Store    StoreConfig    `yaml:"store"`
	LLM      LLMConfig      `yaml:"llm"`
}

func readConfig(cfgPath string) (*Config, error) {
	cfgFile, err := os.Open(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("unable to open config file: %w", err)
	}
	defer cfgFile.Close()

	cfg := &Config{}
	dec := yaml.NewDecoder(cfgFile)
	err = dec.Decode(cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to parse config file: %w", err)
	}

	applyDefaults(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = 700
	}
	if cfg.ChunkOverlap == 0 {
		cfg.ChunkOverlap = 80
	}
	if cfg.Results == 0 {
		cfg.Results = 4
	}
	if cfg.MergeEventsMs == 0 {
		cfg.MergeEventsMs = 500
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "deterministic"
	}
	if cfg.Embedder.Dimension == 0 {
		cfg.Embedder.Dimension = 384
	}
	if cfg.Embedder.Type == "semantic" && cfg.Embedder.APIKeyEnv == "" {
		switch cfg.Embedder.Provider {
		case "gemini":
			cfg.Embedder.APIKeyEnv = "GEMINI_API_KEY"
		default:
			cfg.Embedder.APIKeyEnv = "OPENAI_API_KEY"
		}
	}
	if cfg.Store.Type == "" {
		cfg.Store.Type = "memory"
	}
	if cfg.Store.Collection == "" {
		cfg.Store.Collection = "policy_chunks"
	}
	if cfg.LLM.Type == "" {
		cfg.LLM.Type = "stub"
	}
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = "OPENAI_API_KEY"
	}
}

func (cfg *Config) validate() error {
	if cfg.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", cfg.ChunkSize)
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		return fmt.Errorf("chunk_overlap must be in [0, chunk_size), got %d with chunk_size %d",
			cfg.ChunkOverlap, cfg.ChunkSize)
	}
	if cfg.Embedder.Dimension <= 0 {
		return fmt.Errorf("embedder dimension must be positive, got %d", cfg.Embedder.Dimension)
	}

	switch cfg.Embedder.Type {
	case "semantic", "deterministic":
	default:
		return fmt.Errorf("unknown embedder type: %s", cfg.Embedder.Type)
	}

	if cfg.Embedder.Type == "semantic" {
		switch cfg.Embedder.Provider {
		case "openai", "gemini":
		default:
			return fmt.Errorf("unknown embedding provider: %s", cfg.Embedder.Provider)
		}
	}

	switch cfg.Store.Type {
	case "chroma", "memory":
	default:
		return fmt.Errorf("unknown store type: %s", cfg.Store.Type)
	}
	if cfg.Store.Type == "chroma" && cfg.Store.Addr == "" {
		return fmt.Errorf("store addr is required for the chroma store")
	}

	switch cfg.LLM.Type {
	case "openai", "stub":
	default:
		return fmt.Errorf("unknown llm type: %s", cfg.LLM.Type)
	}

	return nil
}
