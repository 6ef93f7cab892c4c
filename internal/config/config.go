// Package config resolves service settings from an optional TOML file with
// environment-variable overrides. DATABASE_URL stays with pkg/db; everything
// here has a workable default.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Port        string
	SessionTTL  time.Duration
	BcryptCost  int
	LogLevel    string
	MinPassword int
}

func Default() Config {
	return Config{
		Port:        "8080",
		SessionTTL:  24 * time.Hour,
		BcryptCost:  10,
		LogLevel:    "info",
		MinPassword: 6,
	}
}

type fileConfig struct {
	Port        string `toml:"port"`
	SessionTTL  string `toml:"session_ttl"`
	BcryptCost  int    `toml:"bcrypt_cost"`
	LogLevel    string `toml:"log_level"`
	MinPassword int    `toml:"min_password_length"`
}

// Load reads PROCEDUREHUB_CONFIG when set, then applies env overrides.
func Load() (Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("PROCEDUREHUB_CONFIG")); path != "" {
		var raw fileConfig
		meta, err := toml.DecodeFile(path, &raw)
		if err != nil {
			return Config{}, fmt.Errorf("load config file: %w", err)
		}
		if meta.IsDefined("port") && strings.TrimSpace(raw.Port) != "" {
			cfg.Port = strings.TrimSpace(raw.Port)
		}
		if meta.IsDefined("session_ttl") {
			d, err := time.ParseDuration(strings.TrimSpace(raw.SessionTTL))
			if err != nil {
				return Config{}, fmt.Errorf("parse session_ttl: %w", err)
			}
			cfg.SessionTTL = d
		}
		if meta.IsDefined("bcrypt_cost") && raw.BcryptCost > 0 {
			cfg.BcryptCost = raw.BcryptCost
		}
		if meta.IsDefined("log_level") && strings.TrimSpace(raw.LogLevel) != "" {
			cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
		}
		if meta.IsDefined("min_password_length") && raw.MinPassword > 0 {
			cfg.MinPassword = raw.MinPassword
		}
	}

	if v := strings.TrimSpace(os.Getenv("SERVICE_PORT")); v != "" {
		cfg.Port = v
	}
	if v := strings.TrimSpace(os.Getenv("SESSION_TTL_HOURS")); v != "" {
		cfg.SessionTTL = time.Duration(envIntDefault("SESSION_TTL_HOURS", 24)) * time.Hour
	}
	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		cfg.LogLevel = v
	}
	return cfg, nil
}

func envIntDefault(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return def
	}
	return v
}
