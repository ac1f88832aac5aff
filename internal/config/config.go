// Package config loads CLI settings from defaults, a YAML file and PL_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultServerURL is used when no server is configured.
const DefaultServerURL = "http://localhost:5000"

// Config holds the resolved CLI configuration.
type Config struct {
	ServerURL    string
	StateDB      string
	SuccessDelay time.Duration
	Timeout      time.Duration
	Dev          bool
}

// File is the persisted part of the configuration.
type File struct {
	ServerURL string `yaml:"server_url,omitempty"`
}

// Dir returns ~/.config/pl.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "pl"), nil
}

// Path returns the config file location.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the config file at the default path, if any, and applies
// environment overrides.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile is Load with an explicit config file. A missing file is not an
// error.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server_url", DefaultServerURL)
	v.SetDefault("state_db", "")
	v.SetDefault("success_delay", "1500ms")
	v.SetDefault("timeout", "30s")
	v.SetDefault("dev", false)

	v.SetEnvPrefix("PL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := &Config{
		ServerURL:    strings.TrimRight(strings.TrimSpace(v.GetString("server_url")), "/"),
		StateDB:      v.GetString("state_db"),
		SuccessDelay: v.GetDuration("success_delay"),
		Timeout:      v.GetDuration("timeout"),
		Dev:          v.GetBool("dev"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("server_url is required")
	}
	if !strings.HasPrefix(c.ServerURL, "http://") && !strings.HasPrefix(c.ServerURL, "https://") {
		return fmt.Errorf("server_url must start with http:// or https://, got %q", c.ServerURL)
	}
	if c.SuccessDelay < 0 {
		return fmt.Errorf("success_delay must be non-negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}

// Save writes f to the default config path.
func Save(f File) error {
	path, err := Path()
	if err != nil {
		return err
	}
	return SaveFile(path, f)
}

// SaveFile merges f into the YAML file at path, creating parent
// directories. Keys f does not set are kept as they were.
func SaveFile(path string, f File) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	values := map[string]interface{}{}
	existing, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(existing, &values); err != nil {
			return fmt.Errorf("parsing existing config: %w", err)
		}
		if values == nil {
			values = map[string]interface{}{}
		}
	case !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("reading config: %w", err)
	}

	if f.ServerURL != "" {
		values["server_url"] = f.ServerURL
	}

	data, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
