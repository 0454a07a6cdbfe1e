package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete agira-context configuration.
type Config struct {
	Version   int             `yaml:"version" json:"version"`
	Backend   BackendConfig   `yaml:"backend" json:"backend"`
	Retrieval RetrievalConfig `yaml:"retrieval" json:"retrieval"`
	Server    ServerConfig    `yaml:"server" json:"server"`
}

// BackendConfig configures the hybrid search backend connection.
type BackendConfig struct {
	// Endpoint is the base URL of the search backend.
	Endpoint string `yaml:"endpoint" json:"endpoint"`

	// Collection is the collection searched for related objects.
	Collection string `yaml:"collection" json:"collection"`

	// Timeout bounds each backend call, as a duration string (e.g. "5s").
	Timeout string `yaml:"timeout" json:"timeout"`
}

// RetrievalConfig configures result limits and over-fetch bounds.
type RetrievalConfig struct {
	// DefaultLimit applies when a query does not set its own limit.
	DefaultLimit int `yaml:"default_limit" json:"default_limit"`

	// MaxLimit caps the final result count per call.
	MaxLimit int `yaml:"max_limit" json:"max_limit"`

	// CandidateMultiplier over-fetches limit*multiplier candidates so
	// dedup does not starve the final result set.
	CandidateMultiplier int `yaml:"candidate_multiplier" json:"candidate_multiplier"`

	// MaxCandidates is the hard ceiling on candidates per backend call.
	MaxCandidates int `yaml:"max_candidates" json:"max_candidates"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	Transport string `yaml:"transport" json:"transport"`
	LogLevel  string `yaml:"log_level" json:"log_level"`
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Backend: BackendConfig{
			Endpoint:   "http://localhost:8700",
			Collection: "agira_objects",
			Timeout:    "5s",
		},
		Retrieval: RetrievalConfig{
			DefaultLimit:        20,
			MaxLimit:            100,
			CandidateMultiplier: 3,
			MaxCandidates:       100,
		},
		Server: ServerConfig{
			Transport: "stdio",
			LogLevel:  "info",
		},
	}
}

// BackendTimeout parses the configured timeout. Invalid or empty values
// fall back to 5 seconds.
func (c *Config) BackendTimeout() time.Duration {
	d, err := time.ParseDuration(c.Backend.Timeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// GetUserConfigPath returns the path to the user/global configuration file.
// It follows XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/agira-context/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/agira-context/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "agira-context", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "agira-context", "config.yaml")
	}
	return filepath.Join(home, ".config", "agira-context", "config.yaml")
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// loadUserConfig loads the user/global configuration file if it exists.
// Returns nil config and nil error if the file doesn't exist.
func loadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()

	if !fileExists(configPath) {
		return nil, nil
	}

	cfg := NewConfig()
	if err := cfg.loadYAML(configPath); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", configPath, err)
	}

	return cfg, nil
}

// Load loads configuration from the specified directory.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/agira-context/config.yaml)
//  3. Project config (.agira-context.yaml in the working directory)
//  4. Environment variables (AGIRA_CONTEXT_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, err
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromFile attempts to load configuration from .agira-context.yaml or .yml.
func (c *Config) loadFromFile(dir string) error {
	// Try .yaml first (takes precedence)
	yamlPath := filepath.Join(dir, ".agira-context.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return c.loadYAML(yamlPath)
	}

	ymlPath := filepath.Join(dir, ".agira-context.yml")
	if _, err := os.Stat(ymlPath); err == nil {
		return c.loadYAML(ymlPath)
	}

	// No config file is fine - use defaults
	return nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	if other.Backend.Endpoint != "" {
		c.Backend.Endpoint = other.Backend.Endpoint
	}
	if other.Backend.Collection != "" {
		c.Backend.Collection = other.Backend.Collection
	}
	if other.Backend.Timeout != "" {
		c.Backend.Timeout = other.Backend.Timeout
	}

	if other.Retrieval.DefaultLimit != 0 {
		c.Retrieval.DefaultLimit = other.Retrieval.DefaultLimit
	}
	if other.Retrieval.MaxLimit != 0 {
		c.Retrieval.MaxLimit = other.Retrieval.MaxLimit
	}
	if other.Retrieval.CandidateMultiplier != 0 {
		c.Retrieval.CandidateMultiplier = other.Retrieval.CandidateMultiplier
	}
	if other.Retrieval.MaxCandidates != 0 {
		c.Retrieval.MaxCandidates = other.Retrieval.MaxCandidates
	}

	if other.Server.Transport != "" {
		c.Server.Transport = other.Server.Transport
	}
	if other.Server.LogLevel != "" {
		c.Server.LogLevel = other.Server.LogLevel
	}
}

// applyEnvOverrides applies AGIRA_CONTEXT_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("AGIRA_CONTEXT_ENDPOINT"); v != "" {
		c.Backend.Endpoint = v
	}
	if v := os.Getenv("AGIRA_CONTEXT_COLLECTION"); v != "" {
		c.Backend.Collection = v
	}
	if v := os.Getenv("AGIRA_CONTEXT_TIMEOUT"); v != "" {
		c.Backend.Timeout = v
	}
	if v := os.Getenv("AGIRA_CONTEXT_DEFAULT_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Retrieval.DefaultLimit = n
		}
	}
	if v := os.Getenv("AGIRA_CONTEXT_MAX_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Retrieval.MaxLimit = n
		}
	}
	if v := os.Getenv("AGIRA_CONTEXT_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
	if v := os.Getenv("AGIRA_CONTEXT_TRANSPORT"); v != "" {
		c.Server.Transport = v
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Backend.Endpoint == "" {
		return fmt.Errorf("backend.endpoint must not be empty")
	}
	if !strings.HasPrefix(c.Backend.Endpoint, "http://") && !strings.HasPrefix(c.Backend.Endpoint, "https://") {
		return fmt.Errorf("backend.endpoint must be an http(s) URL, got %s", c.Backend.Endpoint)
	}
	if c.Backend.Collection == "" {
		return fmt.Errorf("backend.collection must not be empty")
	}
	if c.Backend.Timeout != "" {
		if _, err := time.ParseDuration(c.Backend.Timeout); err != nil {
			return fmt.Errorf("backend.timeout must be a duration string, got %s", c.Backend.Timeout)
		}
	}

	if c.Retrieval.DefaultLimit < 0 {
		return fmt.Errorf("retrieval.default_limit must be non-negative, got %d", c.Retrieval.DefaultLimit)
	}
	if c.Retrieval.MaxLimit < 0 {
		return fmt.Errorf("retrieval.max_limit must be non-negative, got %d", c.Retrieval.MaxLimit)
	}
	if c.Retrieval.DefaultLimit > 0 && c.Retrieval.MaxLimit > 0 && c.Retrieval.DefaultLimit > c.Retrieval.MaxLimit {
		return fmt.Errorf("retrieval.default_limit %d exceeds retrieval.max_limit %d", c.Retrieval.DefaultLimit, c.Retrieval.MaxLimit)
	}

	validTransports := map[string]bool{"stdio": true}
	if !validTransports[strings.ToLower(c.Server.Transport)] {
		return fmt.Errorf("server.transport must be 'stdio', got %s", c.Server.Transport)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Server.LogLevel)] {
		return fmt.Errorf("server.log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.Server.LogLevel)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
