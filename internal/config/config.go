// Package config resolves ClawCRM's runtime configuration. Precedence,
// highest first: command-line flags, CLAWCRM_* environment variables,
// the YAML config file, built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Provider backends.
const (
	ProviderOffline = "offline"
	ProviderOpenAI  = "openai"
)

// Config is the fully resolved runtime configuration.
type Config struct {
	DBPath          string
	OwnerName       string
	OwnerAliases    []string
	Provider        string
	OpenAIBaseURL   string
	OpenAIAPIKey    string
	OpenAIModel     string
	OpenAIEmbed     string
	AcceptThreshold float64
	EmbeddingDims   int
}

// fileConfig mirrors the YAML file layout.
type fileConfig struct {
	DBPath string `yaml:"db_path"`
	Owner  struct {
		Name    string   `yaml:"name"`
		Aliases []string `yaml:"aliases"`
	} `yaml:"owner"`
	Provider string `yaml:"provider"`
	OpenAI   struct {
		BaseURL    string `yaml:"base_url"`
		APIKey     string `yaml:"api_key"`
		Model      string `yaml:"model"`
		EmbedModel string `yaml:"embed_model"`
	} `yaml:"openai"`
	AcceptThreshold float64 `yaml:"accept_threshold"`
	EmbeddingDims   int     `yaml:"embedding_dims"`
}

// DefaultConfigPath returns ~/.clawcrm/config.yaml, or a relative
// fallback when the home directory is unknown.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".clawcrm", "config.yaml")
}

// DefaultDBPath returns ~/.clawcrm/clawcrm.db, or a relative fallback.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "clawcrm.db"
	}
	return filepath.Join(home, ".clawcrm", "clawcrm.db")
}

// Load resolves configuration from the file at path (missing file is
// fine) plus the environment. Flag overrides are the caller's job.
func Load(path string) (*Config, error) {
	cfg := &Config{
		DBPath:          DefaultDBPath(),
		Provider:        ProviderOffline,
		AcceptThreshold: 0, // resolver default applies
	}

	if path == "" {
		path = DefaultConfigPath()
	}
	if err := applyFile(cfg, path); err != nil {
		return nil, err
	}
	applyEnv(cfg)

	if cfg.Provider != ProviderOffline && cfg.Provider != ProviderOpenAI {
		return nil, fmt.Errorf("config: unknown provider %q", cfg.Provider)
	}
	if cfg.OwnerName != "" && !containsFold(cfg.OwnerAliases, cfg.OwnerName) {
		cfg.OwnerAliases = append(cfg.OwnerAliases, cfg.OwnerName)
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setIfNonEmpty(&cfg.DBPath, fc.DBPath)
	setIfNonEmpty(&cfg.OwnerName, fc.Owner.Name)
	if len(fc.Owner.Aliases) > 0 {
		cfg.OwnerAliases = fc.Owner.Aliases
	}
	setIfNonEmpty(&cfg.Provider, fc.Provider)
	setIfNonEmpty(&cfg.OpenAIBaseURL, fc.OpenAI.BaseURL)
	setIfNonEmpty(&cfg.OpenAIAPIKey, fc.OpenAI.APIKey)
	setIfNonEmpty(&cfg.OpenAIModel, fc.OpenAI.Model)
	setIfNonEmpty(&cfg.OpenAIEmbed, fc.OpenAI.EmbedModel)
	if fc.AcceptThreshold > 0 {
		cfg.AcceptThreshold = fc.AcceptThreshold
	}
	if fc.EmbeddingDims > 0 {
		cfg.EmbeddingDims = fc.EmbeddingDims
	}
	return nil
}

func applyEnv(cfg *Config) {
	setIfNonEmpty(&cfg.DBPath, os.Getenv("CLAWCRM_DB_PATH"))
	setIfNonEmpty(&cfg.OwnerName, os.Getenv("CLAWCRM_OWNER_NAME"))
	setIfNonEmpty(&cfg.Provider, os.Getenv("CLAWCRM_PROVIDER"))
	setIfNonEmpty(&cfg.OpenAIBaseURL, os.Getenv("CLAWCRM_OPENAI_BASE_URL"))
	setIfNonEmpty(&cfg.OpenAIAPIKey, os.Getenv("OPENAI_API_KEY"))
	setIfNonEmpty(&cfg.OpenAIModel, os.Getenv("CLAWCRM_OPENAI_MODEL"))
	setIfNonEmpty(&cfg.OpenAIEmbed, os.Getenv("CLAWCRM_OPENAI_EMBED_MODEL"))

	if v := os.Getenv("CLAWCRM_ACCEPT_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.AcceptThreshold = f
		}
	}
	if v := os.Getenv("CLAWCRM_EMBEDDING_DIMS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.EmbeddingDims = n
		}
	}
}

func setIfNonEmpty(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
