// Package config provides configuration management.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"plan-picker/internal/logging"
)

// Environment variables that override file configuration
const (
	EnvCatalog  = "PLAN_PICKER_CATALOG"
	EnvEmail    = "PLAN_PICKER_EMAIL"
	EnvAddr     = "PLAN_PICKER_ADDR"
	EnvLogLevel = "PLAN_PICKER_LOG_LEVEL"
	EnvNoColor  = "PLAN_PICKER_NO_COLOR"

	EnvWebhookURL    = "PLAN_PICKER_WEBHOOK_URL"
	EnvWebhookSecret = "PLAN_PICKER_WEBHOOK_SECRET"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version"`

	// Catalog locates the plan catalog
	Catalog CatalogConfig `json:"catalog"`

	// Picker contains picker presentation settings
	Picker PickerConfig `json:"picker"`

	// Server contains HTTP server settings
	Server ServerConfig `json:"server"`

	// Webhook forwards session decisions (server only)
	Webhook WebhookConfig `json:"webhook"`

	// Output contains output configuration
	Output OutputConfig `json:"output"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging"`
}

// CatalogConfig contains catalog-related settings
type CatalogConfig struct {
	// Path is an HCL, YAML or JSON catalog file. Empty uses the built-in offering.
	Path string `json:"path"`

	// Watch reloads the catalog when the file changes (server only)
	Watch bool `json:"watch"`
}

// PickerConfig contains picker settings
type PickerConfig struct {
	// Email of the signed-in account, if any
	Email string `json:"email,omitempty"`

	// TermsURL overrides the terms of service link
	TermsURL string `json:"terms_url,omitempty"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	// Addr is the listen address
	Addr string `json:"addr"`

	// SessionTTL is how long an untouched session lives, e.g. "30m".
	// "0" keeps sessions until they are deleted.
	SessionTTL string `json:"session_ttl"`
}

// SessionIdleTimeout parses SessionTTL
func (s ServerConfig) SessionIdleTimeout() (time.Duration, error) {
	if s.SessionTTL == "" {
		return 0, nil
	}
	return time.ParseDuration(s.SessionTTL)
}

// WebhookConfig contains webhook delivery settings
type WebhookConfig struct {
	// URL receives decisions; empty disables delivery
	URL string `json:"url,omitempty"`

	// Secret signs each delivery
	Secret string `json:"secret,omitempty"`

	// Format is json or slack
	Format string `json:"format,omitempty"`

	// Retries after the first failed attempt
	Retries int `json:"retries"`
}

// OutputConfig contains output-related settings
type OutputConfig struct {
	// DefaultFormat is the default output format (text, json)
	DefaultFormat string `json:"default_format"`

	// NoColor disables ANSI colors
	NoColor bool `json:"no_color"`
}

// Default returns a default configuration
func Default() *Config {
	return &Config{
		Version: "1.0",
		Server: ServerConfig{
			Addr:       ":8080",
			SessionTTL: "30m",
		},
		Webhook: WebhookConfig{
			Format:  "json",
			Retries: 3,
		},
		Output: OutputConfig{
			DefaultFormat: "text",
		},
		Logging: logging.DefaultConfig(),
	}
}

// DefaultPath returns $HOME/.plan-picker.json
func DefaultPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".plan-picker.json"
	}
	return filepath.Join(homeDir, ".plan-picker.json")
}

// Load loads configuration from a file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, err
	}

	return config, nil
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// LoadEnv reads .env files into the process environment. Missing files are
// ignored; variables already set win.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return err
		}
	}
	return nil
}

// ApplyEnv overrides fields from PLAN_PICKER_* environment variables
func (c *Config) ApplyEnv() {
	if v, ok := os.LookupEnv(EnvCatalog); ok {
		c.Catalog.Path = v
	}
	if v, ok := os.LookupEnv(EnvEmail); ok {
		c.Picker.Email = v
	}
	if v, ok := os.LookupEnv(EnvAddr); ok && v != "" {
		c.Server.Addr = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := os.LookupEnv(EnvWebhookURL); ok {
		c.Webhook.URL = v
	}
	if v, ok := os.LookupEnv(EnvWebhookSecret); ok {
		c.Webhook.Secret = v
	}
	if v, ok := os.LookupEnv(EnvNoColor); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Output.NoColor = b
		}
	}
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
