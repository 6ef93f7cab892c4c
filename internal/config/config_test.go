package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PROCEDUREHUB_CONFIG", "")
	t.Setenv("SERVICE_PORT", "")
	t.Setenv("SESSION_TTL_HOURS", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("unexpected default port: %s", cfg.Port)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Fatalf("unexpected default session ttl: %s", cfg.SessionTTL)
	}
	if cfg.MinPassword != 6 {
		t.Fatalf("unexpected default min password length: %d", cfg.MinPassword)
	}
}

func TestLoadFileWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "procedurehub.toml")
	content := "port = \"9090\"\nsession_ttl = \"8h\"\nlog_level = \"debug\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("PROCEDUREHUB_CONFIG", path)
	t.Setenv("SERVICE_PORT", "7070")
	t.Setenv("SESSION_TTL_HOURS", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "7070" {
		t.Fatalf("expected env to override file, got port %s", cfg.Port)
	}
	if cfg.SessionTTL != 8*time.Hour {
		t.Fatalf("unexpected session ttl: %s", cfg.SessionTTL)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("unexpected log level: %s", cfg.LogLevel)
	}
}

func TestLoadBadSessionTTL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "procedurehub.toml")
	if err := os.WriteFile(path, []byte("session_ttl = \"sometime\"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("PROCEDUREHUB_CONFIG", path)

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unparseable session_ttl")
	}
}
