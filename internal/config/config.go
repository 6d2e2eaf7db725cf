package config

import (
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Agent    AgentConfig    `toml:"agent"`
	Platform PlatformConfig `toml:"platform"`
	OAuth    OAuthConfig    `toml:"oauth"`
	Storage  StorageConfig  `toml:"storage"`
	Observer ObserverConfig `toml:"observer"`
}

type AgentConfig struct {
	ID     string `toml:"id"`
	Listen string `toml:"listen"`
}

type PlatformConfig struct {
	APIURL string `toml:"api_url"`
	APIKey string `toml:"api_key"`
}

type OAuthConfig struct {
	ClientID     string   `toml:"client_id"`
	ClientSecret string   `toml:"client_secret"`
	AuthURL      string   `toml:"auth_url"`
	TokenURL     string   `toml:"token_url"`
	RedirectURL  string   `toml:"redirect_url"`
	Scopes       []string `toml:"scopes"`
}

type StorageConfig struct {
	// Backend selects user storage: "platform" (hosted), "sqlite" (local
	// file), or "postgres".
	Backend     string `toml:"backend"`
	SQLitePath  string `toml:"sqlite_path"`
	PostgresDSN string `toml:"postgres_dsn"`
}

type ObserverConfig struct {
	Enabled bool `toml:"enabled"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Agent:    AgentConfig{Listen: ":8181"},
		Platform: PlatformConfig{APIURL: "https://api.fixie.ai"},
		Storage:  StorageConfig{Backend: "platform", SQLitePath: "agent.db"},
	}
}

// Load reads config: defaults -> TOML file -> env vars (env wins).
func Load(path string) Config {
	cfg := Default()

	if path == "" {
		path = "agent.toml"
	}

	if data, err := os.ReadFile(path); err == nil {
		_ = toml.Unmarshal(data, &cfg)
	}

	// Env overrides
	if v := os.Getenv("FIXIE_AGENT_ID"); v != "" {
		cfg.Agent.ID = v
	}
	if v := os.Getenv("FIXIE_AGENT_LISTEN"); v != "" {
		cfg.Agent.Listen = v
	}
	if v := os.Getenv("FIXIE_API_URL"); v != "" {
		cfg.Platform.APIURL = v
	}
	if v := os.Getenv("FIXIE_API_KEY"); v != "" {
		cfg.Platform.APIKey = v
	}
	if v := os.Getenv("FIXIE_OAUTH_CLIENT_ID"); v != "" {
		cfg.OAuth.ClientID = v
	}
	if v := os.Getenv("FIXIE_OAUTH_CLIENT_SECRET"); v != "" {
		cfg.OAuth.ClientSecret = v
	}
	if v := os.Getenv("FIXIE_OAUTH_SCOPES"); v != "" {
		cfg.OAuth.Scopes = strings.Split(v, ",")
	}
	if v := os.Getenv("FIXIE_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("FIXIE_POSTGRES_DSN"); v != "" {
		cfg.Storage.PostgresDSN = v
	}
	if v := os.Getenv("FIXIE_OBSERVER_ENABLED"); v == "true" || v == "1" {
		cfg.Observer.Enabled = true
	}

	return cfg
}
