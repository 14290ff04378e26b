package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/evcraddock/devmate/internal/config"
	"github.com/evcraddock/devmate/internal/session"
)

// CLIConfig holds CLI configuration persisted to disk.
type CLIConfig struct {
	BackendURL string           `yaml:"backend_url,omitempty"`
	Token      string           `yaml:"token,omitempty"`
	Identity   session.Identity `yaml:"identity,omitempty"`
	TechStack  []string         `yaml:"tech_stack,omitempty"`
}

// configPath returns the path to the CLI config file.
func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "dm", "config.yaml"), nil
}

// loadConfig reads the CLI config from disk.
// Returns a zero-value config if the file doesn't exist.
func loadConfig() (CLIConfig, error) {
	path, err := configPath()
	if err != nil {
		return CLIConfig{}, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return CLIConfig{}, nil
	}
	if err != nil {
		return CLIConfig{}, fmt.Errorf("reading config: %w", err)
	}

	var cfg CLIConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return CLIConfig{}, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// saveConfig writes the CLI config to disk. The file holds the bearer
// token, so it is readable by the owner only.
func saveConfig(cfg CLIConfig) error {
	path, err := configPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// getBackendURL returns the backend URL from env var, config, or default.
func getBackendURL() string {
	if v := os.Getenv("DM_BACKEND_URL"); v != "" {
		return v
	}
	cfg, err := loadConfig()
	if err == nil && cfg.BackendURL != "" {
		return cfg.BackendURL
	}
	return config.DefaultBackendURL
}

// getToken returns the bearer token from env var or config.
func getToken() string {
	if v := os.Getenv("DM_TOKEN"); v != "" {
		return v
	}
	cfg, err := loadConfig()
	if err == nil {
		return cfg.Token
	}
	return ""
}

// configProfileWriter persists profile commits to the config file.
type configProfileWriter struct{}

func (configProfileWriter) SaveProfile(_ context.Context, username, avatarURL string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Identity.Username = username
	cfg.Identity.AvatarURL = avatarURL
	return saveConfig(cfg)
}

// currentSession builds the session the commands act for.
func currentSession() (*session.Session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return session.New(cfg.Identity, session.StaticToken(getToken()), configProfileWriter{}), nil
}
