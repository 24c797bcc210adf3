package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"DEFAULT_LLM_PROVIDER", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearProviderEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Addr != ":8000" {
		t.Errorf("Expected default addr :8000, got %s", cfg.Server.Addr)
	}
	if cfg.Database.Path == "" {
		t.Error("Expected default database path")
	}
	if !cfg.Snapshot.Auto {
		t.Error("Expected auto snapshot enabled by default")
	}
	if cfg.LLM.DefaultProvider != "openai" {
		t.Errorf("Expected default provider openai, got %s", cfg.LLM.DefaultProvider)
	}
	if len(cfg.LLM.Providers) != 3 {
		t.Errorf("Expected 3 default providers, got %d", len(cfg.LLM.Providers))
	}
}

func TestLoadYAMLFile(t *testing.T) {
	clearProviderEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  addr: ":9090"
database:
  path: /tmp/custom.db
llm:
  default_provider: anthropic
  temperature: 0.2
  providers:
    anthropic:
      api_key: test-key
      model: claude-3-haiku-20240307
      enabled: true
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Addr != ":9090" {
		t.Errorf("Expected addr :9090, got %s", cfg.Server.Addr)
	}
	if cfg.Database.Path != "/tmp/custom.db" {
		t.Errorf("Expected custom db path, got %s", cfg.Database.Path)
	}
	if cfg.LLM.DefaultProvider != "anthropic" {
		t.Errorf("Expected anthropic, got %s", cfg.LLM.DefaultProvider)
	}
	if cfg.LLM.Temperature != 0.2 {
		t.Errorf("Expected temperature 0.2, got %v", cfg.LLM.Temperature)
	}
	if cfg.LLM.Providers["anthropic"].APIKey != "test-key" {
		t.Error("Expected api key from file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [not a mapping"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Expected error for invalid YAML")
	}
}

func TestEnvOverrides(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("DEFAULT_LLM_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "env-key")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.LLM.DefaultProvider != "gemini" {
		t.Errorf("Expected gemini from env, got %s", cfg.LLM.DefaultProvider)
	}
	if cfg.LLM.Providers["gemini"].APIKey != "env-key" {
		t.Error("Expected gemini key from env")
	}
}

func TestActiveProviderPrefersDefault(t *testing.T) {
	cfg := Default()
	cfg.LLM.Providers["openai"] = ProviderConfig{APIKey: "k1", Model: "gpt-4o-mini", Enabled: true}
	cfg.LLM.Providers["anthropic"] = ProviderConfig{APIKey: "k2", Model: "claude-3-haiku-20240307", Enabled: true}

	name, p := cfg.ActiveProvider()
	if name != "openai" {
		t.Errorf("Expected default provider openai, got %s", name)
	}
	if p.APIKey != "k1" {
		t.Errorf("Expected openai key, got %s", p.APIKey)
	}
}

func TestActiveProviderFallsBack(t *testing.T) {
	cfg := Default()
	// Default provider has no key; only gemini is usable.
	cfg.LLM.Providers["gemini"] = ProviderConfig{APIKey: "k3", Model: "gemini-2.0-flash", Enabled: true}

	name, p := cfg.ActiveProvider()
	if name != "gemini" {
		t.Errorf("Expected fallback to gemini, got %s", name)
	}
	if p.APIKey != "k3" {
		t.Errorf("Expected gemini key, got %s", p.APIKey)
	}
}

func TestActiveProviderNoneUsable(t *testing.T) {
	cfg := Default()

	// No keys anywhere.
	name, _ := cfg.ActiveProvider()
	if name != "" {
		t.Errorf("Expected no usable provider, got %s", name)
	}

	// A key on a disabled provider doesn't count.
	cfg.LLM.Providers["openai"] = ProviderConfig{APIKey: "k", Enabled: false}
	name, _ = cfg.ActiveProvider()
	if name != "" {
		t.Errorf("Expected no usable provider, got %s", name)
	}
}
