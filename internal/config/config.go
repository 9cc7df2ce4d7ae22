// Package config loads the server configuration from
// ~/.commander/config.yaml with COMMANDER_* environment overrides.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPort = 7777
	DefaultHost = "127.0.0.1"

	envPrefix = "COMMANDER_"
)

// Config is the resolved server configuration. Path fields are always
// absolute after Load.
type Config struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	Token          string   `yaml:"token"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	ScanRoot       string   `yaml:"scan_root"`
	DataDir        string   `yaml:"data_dir"`
	DatabasePath   string   `yaml:"database_path"`
	LogLevel       string   `yaml:"log_level"`

	// ConfigPath is where the config was read from (and where a
	// generated token is persisted). Not part of the file itself.
	ConfigPath string `yaml:"-"`
}

// DefaultPath returns ~/.commander/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".commander", "config.yaml"), nil
}

// Load reads the config file at path (DefaultPath when empty), applies
// COMMANDER_* environment overrides and fills in defaults. A missing
// file is not an error. When no token is configured one is generated
// and written back so restarts keep the same credential.
func Load(path string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	if path == "" {
		path = filepath.Join(home, ".commander", "config.yaml")
	}

	cfg := &Config{
		Host:         DefaultHost,
		Port:         DefaultPort,
		ScanRoot:     filepath.Join(home, "cv"),
		DataDir:      filepath.Join(home, ".claude"),
		DatabasePath: filepath.Join(home, ".commander", "commander.db"),
		LogLevel:     "info",
		ConfigPath:   path,
	}

	payload, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	} else if err := yaml.Unmarshal(payload, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d: must be between 1 and 65535", cfg.Port)
	}

	if cfg.Token == "" {
		token, err := generateToken()
		if err != nil {
			return nil, fmt.Errorf("generate token: %w", err)
		}
		cfg.Token = token
		if err := cfg.save(); err != nil {
			return nil, fmt.Errorf("persist generated token: %w", err)
		}
	}

	return cfg, nil
}

// Addr is the host:port the HTTP server binds to.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *Config) applyEnv() error {
	if value, ok := envValue("HOST"); ok {
		c.Host = value
	}
	if value, ok := envValue("PORT"); ok {
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid %sPORT %q: %w", envPrefix, value, err)
		}
		c.Port = port
	}
	if value, ok := envValue("TOKEN"); ok {
		c.Token = value
	}
	if value, ok := envValue("ALLOWED_ORIGINS"); ok {
		origins := []string{}
		for _, origin := range strings.Split(value, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
		c.AllowedOrigins = origins
	}
	if value, ok := envValue("SCAN_ROOT"); ok {
		c.ScanRoot = value
	}
	if value, ok := envValue("DATA_DIR"); ok {
		c.DataDir = value
	}
	if value, ok := envValue("DB_PATH"); ok {
		c.DatabasePath = value
	}
	if value, ok := envValue("LOG_LEVEL"); ok {
		c.LogLevel = value
	}
	return nil
}

func envValue(suffix string) (string, bool) {
	value, ok := os.LookupEnv(envPrefix + suffix)
	return value, ok && value != ""
}

func (c *Config) save() error {
	payload, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.ConfigPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(c.ConfigPath, payload, 0o600)
}

func generateToken() (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}
