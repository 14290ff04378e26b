package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/evcraddock/devmate/internal/session"
)

func TestConfigSaveAndLoad(t *testing.T) {
	// Use a temp dir as home
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	cfg := CLIConfig{
		BackendURL: "http://myhost:9090",
		Token:      "tok123",
		Identity:   session.Identity{UserID: "u1", Username: "ana"},
		TechStack:  []string{"react", "python"},
	}

	if err := saveConfig(cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	path := filepath.Join(tmp, ".config", "dm", "config.yaml")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file not found: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config perm = %o, want 600", perm)
	}

	loaded, err := loadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.BackendURL != cfg.BackendURL {
		t.Errorf("backend_url = %q, want %q", loaded.BackendURL, cfg.BackendURL)
	}
	if loaded.Token != cfg.Token {
		t.Errorf("token = %q, want %q", loaded.Token, cfg.Token)
	}
	if loaded.Identity != cfg.Identity {
		t.Errorf("identity = %+v, want %+v", loaded.Identity, cfg.Identity)
	}
	if len(loaded.TechStack) != 2 || loaded.TechStack[1] != "python" {
		t.Errorf("tech_stack = %v", loaded.TechStack)
	}
}

func TestConfigLoadMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("load missing: %v", err)
	}
	if cfg.BackendURL != "" || cfg.Token != "" {
		t.Error("expected zero-value config for missing file")
	}
}

func TestGetBackendURLFromEnv(t *testing.T) {
	t.Setenv("DM_BACKEND_URL", "http://custom:1234")
	t.Setenv("HOME", t.TempDir())

	if url := getBackendURL(); url != "http://custom:1234" {
		t.Errorf("url = %q, want %q", url, "http://custom:1234")
	}
}

func TestGetBackendURLFromConfig(t *testing.T) {
	t.Setenv("DM_BACKEND_URL", "")
	t.Setenv("HOME", t.TempDir())

	if err := saveConfig(CLIConfig{BackendURL: "http://stored:5000"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if url := getBackendURL(); url != "http://stored:5000" {
		t.Errorf("url = %q, want %q", url, "http://stored:5000")
	}
}

func TestGetBackendURLDefault(t *testing.T) {
	t.Setenv("DM_BACKEND_URL", "")
	t.Setenv("HOME", t.TempDir())

	if url := getBackendURL(); url != "http://localhost:5000" {
		t.Errorf("url = %q, want %q", url, "http://localhost:5000")
	}
}

func TestGetTokenFromEnv(t *testing.T) {
	t.Setenv("DM_TOKEN", "envtoken")
	t.Setenv("HOME", t.TempDir())

	if token := getToken(); token != "envtoken" {
		t.Errorf("token = %q, want %q", token, "envtoken")
	}
}

func TestGetTokenFromConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DM_TOKEN", "")

	if err := saveConfig(CLIConfig{Token: "configtoken"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if token := getToken(); token != "configtoken" {
		t.Errorf("token = %q, want %q", token, "configtoken")
	}
}

func TestConfigProfileWriterKeepsToken(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DM_TOKEN", "")

	if err := saveConfig(CLIConfig{Token: "tok", Identity: session.Identity{UserID: "u1", Username: "old"}}); err != nil {
		t.Fatalf("save: %v", err)
	}

	sess, err := currentSession()
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if err := sess.CommitProfile(context.Background(), "new", "https://img.example/a.png"); err != nil {
		t.Fatalf("commit: %v", err)
	}

	loaded, err := loadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Token != "tok" || loaded.Identity.UserID != "u1" {
		t.Errorf("token/user = %q/%q, want preserved", loaded.Token, loaded.Identity.UserID)
	}
	if loaded.Identity.Username != "new" || loaded.Identity.AvatarURL != "https://img.example/a.png" {
		t.Errorf("identity = %+v", loaded.Identity)
	}
}
