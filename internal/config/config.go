package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all agencydesk configuration.
type Config struct {
	// API endpoint settings
	API APIConfig `yaml:"api"`

	// Local state (credentials, activity journal, logs)
	State StateConfig `yaml:"state"`

	// Listing defaults applied when a command omits them
	Lists ListConfig `yaml:"lists"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// APIConfig configures the upstream insurance-agency API.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

// StateConfig configures where agencydesk keeps local state.
type StateConfig struct {
	// Dir holds credentials.json, profile.json, activity.db and logs/.
	Dir string `yaml:"dir"`
}

// ListConfig configures default list-query parameters.
type ListConfig struct {
	PageSize  int    `yaml:"page_size"`
	SortBy    string `yaml:"sort_by"`
	SortOrder string `yaml:"sort_order"`
}

// LoggingConfig configures categorized logging.
type LoggingConfig struct {
	Enabled    bool            `yaml:"enabled"`
	Level      string          `yaml:"level"` // debug, info, warn, error
	Categories map[string]bool `yaml:"categories"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:5000/api",
			Timeout: "30s",
		},
		State: StateConfig{
			Dir: filepath.Join(home, ".agencydesk"),
		},
		Lists: ListConfig{
			PageSize:  10,
			SortBy:    "createdAt",
			SortOrder: "desc",
		},
		Logging: LoggingConfig{
			Enabled: false,
			Level:   "info",
		},
	}
}

// Load loads configuration from a YAML file, then applies .env and
// environment overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	// .env values become plain env vars before the override pass.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// DefaultPath returns the canonical config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "agencydesk.yaml"
	}
	return filepath.Join(home, ".agencydesk", "config.yaml")
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if url := os.Getenv("AGENCYDESK_API_URL"); url != "" {
		c.API.BaseURL = url
	}
	if t := os.Getenv("AGENCYDESK_API_TIMEOUT"); t != "" {
		c.API.Timeout = t
	}
	if dir := os.Getenv("AGENCYDESK_STATE_DIR"); dir != "" {
		c.State.Dir = dir
	}
	if v := os.Getenv("AGENCYDESK_DEBUG"); v == "1" || v == "true" {
		c.Logging.Enabled = true
		c.Logging.Level = "debug"
	}
	if lvl := os.Getenv("AGENCYDESK_LOG_LEVEL"); lvl != "" {
		c.Logging.Enabled = true
		c.Logging.Level = lvl
	}
}

// APITimeout returns the API timeout as a duration.
func (c *Config) APITimeout() time.Duration {
	d, err := time.ParseDuration(c.API.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// CredentialsPath is the fixed location of the persisted access token.
func (c *Config) CredentialsPath() string {
	return filepath.Join(c.State.Dir, "credentials.json")
}

// ProfilePath is the fixed location of the last-known admin profile.
func (c *Config) ProfilePath() string {
	return filepath.Join(c.State.Dir, "profile.json")
}

// ActivityDBPath is the location of the local mutation journal.
func (c *Config) ActivityDBPath() string {
	return filepath.Join(c.State.Dir, "activity.db")
}

// LogDir is where category log files are written.
func (c *Config) LogDir() string {
	return filepath.Join(c.State.Dir, "logs")
}
