package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	LLM      LLMConfig      `yaml:"llm"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type SnapshotConfig struct {
	Path string `yaml:"path"`
	Auto bool   `yaml:"auto"`
}

type LLMConfig struct {
	DefaultProvider string                    `yaml:"default_provider"`
	Temperature     float64                   `yaml:"temperature"`
	MaxTokens       int                       `yaml:"max_tokens"`
	Providers       map[string]ProviderConfig `yaml:"providers"`
}

type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url,omitempty"`
	Enabled bool   `yaml:"enabled"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Addr: ":8000"},
		Database: DatabaseConfig{Path: ".breakdown/breakdown.db"},
		Snapshot: SnapshotConfig{Path: ".breakdown/snapshot.jsonl", Auto: true},
		LLM: LLMConfig{
			DefaultProvider: "openai",
			Temperature:     0.7,
			MaxTokens:       2000,
			Providers: map[string]ProviderConfig{
				"openai":    {Model: "gpt-4o-mini", Enabled: true},
				"anthropic": {Model: "claude-3-haiku-20240307", Enabled: true},
				"gemini":    {Model: "gemini-2.0-flash", Enabled: true},
			},
		},
	}
}

// Load reads the YAML config at path, falling back to defaults when the
// file is missing, then applies environment overrides for API keys and the
// provider selection.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if p := os.Getenv("DEFAULT_LLM_PROVIDER"); p != "" {
		c.LLM.DefaultProvider = p
	}
	c.setProviderKey("openai", os.Getenv("OPENAI_API_KEY"))
	c.setProviderKey("anthropic", os.Getenv("ANTHROPIC_API_KEY"))
	c.setProviderKey("gemini", os.Getenv("GEMINI_API_KEY"))
}

func (c *Config) setProviderKey(name, key string) {
	if key == "" {
		return
	}
	p := c.LLM.Providers[name]
	p.APIKey = key
	if c.LLM.Providers == nil {
		c.LLM.Providers = make(map[string]ProviderConfig)
	}
	c.LLM.Providers[name] = p
}

// ActiveProvider returns the provider to use: the configured default when
// it is enabled and has a key, otherwise the first enabled provider with a
// key (sorted by name for determinism). Returns an empty name when no
// provider is usable.
func (c *Config) ActiveProvider() (string, ProviderConfig) {
	if p, ok := c.LLM.Providers[c.LLM.DefaultProvider]; ok && p.Enabled && p.APIKey != "" {
		return c.LLM.DefaultProvider, p
	}

	names := make([]string, 0, len(c.LLM.Providers))
	for name := range c.LLM.Providers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		p := c.LLM.Providers[name]
		if p.Enabled && p.APIKey != "" {
			return name, p
		}
	}
	return "", ProviderConfig{}
}
