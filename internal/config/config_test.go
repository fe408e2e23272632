package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load with missing file: %v", err)
	}
	if cfg.Provider != ProviderOffline {
		t.Errorf("provider = %q, want offline default", cfg.Provider)
	}
	if cfg.DBPath == "" {
		t.Error("db path default is empty")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
db_path: /tmp/claw-test.db
owner:
  name: Kyrill
  aliases: [me, K]
provider: openai
openai:
  base_url: http://localhost:11434/v1
  api_key: sk-file
  model: llama3
accept_threshold: 0.55
embedding_dims: 256
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "/tmp/claw-test.db" {
		t.Errorf("db path = %q", cfg.DBPath)
	}
	if cfg.Provider != ProviderOpenAI || cfg.OpenAIModel != "llama3" {
		t.Errorf("provider = %q model = %q", cfg.Provider, cfg.OpenAIModel)
	}
	if cfg.AcceptThreshold != 0.55 || cfg.EmbeddingDims != 256 {
		t.Errorf("threshold = %v dims = %d", cfg.AcceptThreshold, cfg.EmbeddingDims)
	}
}

func TestLoadOwnerNameJoinsAliases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "owner:\n  name: Kyrill\n  aliases: [me]\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !containsFold(cfg.OwnerAliases, "Kyrill") || !containsFold(cfg.OwnerAliases, "me") {
		t.Errorf("aliases = %v, want owner name included", cfg.OwnerAliases)
	}

	// No duplicate when the name is already an alias.
	body = "owner:\n  name: Kyrill\n  aliases: [kyrill]\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, _ = Load(path)
	if len(cfg.OwnerAliases) != 1 {
		t.Errorf("aliases = %v, want single entry", cfg.OwnerAliases)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("db_path: /from/file.db\nprovider: offline\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CLAWCRM_DB_PATH", "/from/env.db")
	t.Setenv("CLAWCRM_ACCEPT_THRESHOLD", "0.7")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "/from/env.db" {
		t.Errorf("db path = %q, want env value", cfg.DBPath)
	}
	if cfg.AcceptThreshold != 0.7 {
		t.Errorf("threshold = %v, want 0.7 from env", cfg.AcceptThreshold)
	}
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("provider: bedrock\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("unknown provider should fail")
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("owner: [unclosed\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("malformed yaml should fail")
	}
}
