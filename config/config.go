// Package config provides configuration management for the VPN profile
// generator. It handles loading, validating, and saving deployment settings.
package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yllada/vpn-profile/common"
)

// Config represents the deployment configuration.
// Every field has a default, so a missing config file is not an error.
type Config struct {
	// Organization is written to PayloadOrganization.
	Organization string `yaml:"organization"`
	// DisplayName is the profile name shown in Settings.
	DisplayName string `yaml:"display_name"`
	// ConnectionName names the VPN connection itself.
	ConnectionName string `yaml:"connection_name"`
	// OutputDir is where vpn.mobileconfig is written when --output-dir is not given.
	OutputDir string `yaml:"output_dir"`
	// Resolver configures public address discovery.
	Resolver ResolverConfig `yaml:"resolver"`
	// History configures the build audit database.
	History HistoryConfig `yaml:"history"`
	// Notifications enables a desktop notification after each build.
	Notifications bool `yaml:"notifications"`
	// Log configures application logging.
	Log LogConfig `yaml:"log"`
}

// ResolverConfig configures the IP-echo lookup.
type ResolverConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// HistoryConfig configures the build audit database.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// LogConfig configures application logging.
type LogConfig struct {
	Level string `yaml:"level"`
	File  bool   `yaml:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Organization:   common.DefaultOrganization,
		DisplayName:    common.DefaultDisplayName,
		ConnectionName: common.DefaultConnectionName,
		OutputDir:      common.DefaultOutputDir,
		Resolver: ResolverConfig{
			URL:     common.DefaultResolverURL,
			Timeout: common.ResolveTimeout,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads the configuration from path. An empty path means the default
// location. A missing file yields the default configuration.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := common.DefaultConfigPath()
		if err != nil {
			return DefaultConfig(), nil
		}
		path = p
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, common.NewError(common.ErrConfigLoad, "error opening configuration", err)
	}
	defer file.Close()

	// Unset keys keep their defaults.
	cfg := DefaultConfig()
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true) // Strict validation: reject unknown fields
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, common.NewError(common.ErrConfigLoad, "error parsing configuration", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, common.NewError(common.ErrConfigLoad, "invalid configuration", err)
	}

	return cfg, nil
}

// Validate verifies that configuration values are usable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Organization) == "" {
		return fmt.Errorf("organization must not be empty")
	}
	if strings.TrimSpace(c.DisplayName) == "" {
		return fmt.Errorf("display_name must not be empty")
	}
	if strings.TrimSpace(c.ConnectionName) == "" {
		return fmt.Errorf("connection_name must not be empty")
	}
	if c.OutputDir == "" {
		c.OutputDir = common.DefaultOutputDir
	}

	u, err := url.Parse(c.Resolver.URL)
	if err != nil {
		return fmt.Errorf("resolver.url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("resolver.url must be an http(s) URL, got %q", c.Resolver.URL)
	}
	if c.Resolver.Timeout <= 0 {
		return fmt.Errorf("resolver.timeout must be positive, got %s", c.Resolver.Timeout)
	}

	if _, err := common.ParseLogLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	return nil
}

// HistoryPath returns the configured history database path or the default.
func (c *Config) HistoryPath() (string, error) {
	if c.History.Path != "" {
		return c.History.Path, nil
	}
	return common.DefaultHistoryPath()
}

// Save writes the configuration to path (the default location when empty).
func (c *Config) Save(path string) error {
	if path == "" {
		p, err := common.DefaultConfigPath()
		if err != nil {
			return common.NewError(common.ErrConfigSave, "", err)
		}
		path = p
	}

	if err := common.EnsureDir(filepath.Dir(path)); err != nil {
		return common.NewError(common.ErrConfigSave, "error creating config directory", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return common.NewError(common.ErrConfigSave, "error serializing configuration", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return common.NewError(common.ErrConfigSave, "error saving configuration", err)
	}

	return nil
}
