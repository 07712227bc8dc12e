package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cli/go-gh/pkg/auth"
	"gopkg.in/yaml.v3"

	"github.com/spiffcs/prsync/internal/constants"
)

// Default artifact locations and account, matching the portfolio site layout.
const (
	DefaultUsername     = "MehulKChaudhari"
	DefaultOutputPath   = "public/data/github-prs.json"
	DefaultCachePath    = ".github-cache.json"
	DefaultFeaturedPath = "src/data/featured-prs.json"
	DefaultBaseURL      = "https://api.github.com/"
)

// Config represents the application configuration
type Config struct {
	Username     string `yaml:"username,omitempty" json:"username,omitempty"`
	OutputPath   string `yaml:"output_path,omitempty" json:"output_path,omitempty"`
	CachePath    string `yaml:"cache_path,omitempty" json:"cache_path,omitempty"`
	FeaturedPath string `yaml:"featured_path,omitempty" json:"featured_path,omitempty"`
	History      *bool  `yaml:"history,omitempty" json:"history,omitempty"`

	Requests *RequestOverrides `yaml:"requests,omitempty" json:"requests,omitempty"`
}

// RequestOverrides customizes request pacing and retry behaviour
type RequestOverrides struct {
	DelayMs           *int   `yaml:"delay_ms,omitempty" json:"delay_ms,omitempty"`
	MaxAttempts       *int   `yaml:"max_attempts,omitempty" json:"max_attempts,omitempty"`
	BackoffMs         *int   `yaml:"backoff_ms,omitempty" json:"backoff_ms,omitempty"`
	RateLimitMarginMs *int   `yaml:"rate_limit_margin_ms,omitempty" json:"rate_limit_margin_ms,omitempty"`
	BaseURL           string `yaml:"base_url,omitempty" json:"base_url,omitempty"`
}

// RequestSettings is the resolved set of request parameters
type RequestSettings struct {
	Delay           time.Duration
	MaxAttempts     int
	Backoff         time.Duration
	RateLimitMargin time.Duration
	BaseURL         string
}

// DefaultRequestSettings returns the default request parameters
func DefaultRequestSettings() RequestSettings {
	return RequestSettings{
		Delay:           constants.RequestDelay,
		MaxAttempts:     constants.MaxAttempts,
		Backoff:         constants.RetryBackoff,
		RateLimitMargin: constants.RateLimitMargin,
		BaseURL:         DefaultBaseURL,
	}
}

// GetRequestSettings returns request settings with user overrides merged with defaults
func (c *Config) GetRequestSettings() RequestSettings {
	s := DefaultRequestSettings()
	if c.Requests == nil {
		return s
	}

	r := c.Requests
	if r.DelayMs != nil && *r.DelayMs >= 0 {
		s.Delay = time.Duration(*r.DelayMs) * time.Millisecond
	}
	if r.MaxAttempts != nil && *r.MaxAttempts > 0 {
		s.MaxAttempts = *r.MaxAttempts
	}
	if r.BackoffMs != nil && *r.BackoffMs >= 0 {
		s.Backoff = time.Duration(*r.BackoffMs) * time.Millisecond
	}
	if r.RateLimitMarginMs != nil && *r.RateLimitMarginMs >= 0 {
		s.RateLimitMargin = time.Duration(*r.RateLimitMarginMs) * time.Millisecond
	}
	if r.BaseURL != "" {
		s.BaseURL = r.BaseURL
	}
	return s
}

// HistoryEnabled reports whether run snapshots should be recorded.
// Defaults to true.
func (c *Config) HistoryEnabled() bool {
	return c.History == nil || *c.History
}

// DefaultConfigDir returns the default config directory
func DefaultConfigDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ".prsync"
	}
	return filepath.Join(configDir, "prsync")
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// LocalConfigPath returns the path to the local config file in the current directory
func LocalConfigPath() string {
	return ".prsync.yaml"
}

// Load loads the configuration from disk.
// It first loads the global config from XDG config directory, then merges
// any local .prsync.yaml config on top (local values take precedence).
func Load() (*Config, error) {
	return LoadFrom(ConfigPath(), LocalConfigPath())
}

// LoadFrom loads and merges the config files at the given paths.
// Missing files are skipped.
func LoadFrom(globalPath, localPath string) (*Config, error) {
	cfg := &Config{}

	global, err := readConfigFile(globalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load global config: %w", err)
	}
	if global != nil {
		cfg = global
	}

	local, err := readConfigFile(localPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load local config: %w", err)
	}
	if local != nil {
		cfg = mergeConfig(cfg, local)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func readConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Username == "" {
		c.Username = DefaultUsername
	}
	if c.OutputPath == "" {
		c.OutputPath = DefaultOutputPath
	}
	if c.CachePath == "" {
		c.CachePath = DefaultCachePath
	}
	if c.FeaturedPath == "" {
		c.FeaturedPath = DefaultFeaturedPath
	}
}

// mergeConfig merges local config on top of global config.
// Local values take precedence; unset local values preserve global values.
func mergeConfig(global, local *Config) *Config {
	result := *global

	if local.Username != "" {
		result.Username = local.Username
	}
	if local.OutputPath != "" {
		result.OutputPath = local.OutputPath
	}
	if local.CachePath != "" {
		result.CachePath = local.CachePath
	}
	if local.FeaturedPath != "" {
		result.FeaturedPath = local.FeaturedPath
	}
	if local.History != nil {
		result.History = local.History
	}

	result.Requests = mergeRequestOverrides(global.Requests, local.Requests)
	return &result
}

func mergeRequestOverrides(global, local *RequestOverrides) *RequestOverrides {
	if global == nil && local == nil {
		return nil
	}
	result := &RequestOverrides{}
	if global != nil {
		*result = *global
	}

	if local != nil {
		if local.DelayMs != nil {
			result.DelayMs = local.DelayMs
		}
		if local.MaxAttempts != nil {
			result.MaxAttempts = local.MaxAttempts
		}
		if local.BackoffMs != nil {
			result.BackoffMs = local.BackoffMs
		}
		if local.RateLimitMarginMs != nil {
			result.RateLimitMarginMs = local.RateLimitMarginMs
		}
		if local.BaseURL != "" {
			result.BaseURL = local.BaseURL
		}
	}
	return result
}

// GetGitHubToken returns the GitHub token from the GITHUB_TOKEN environment
// variable, falling back to the token stored by the GitHub CLI. The second
// return value names where the token came from.
func (c *Config) GetGitHubToken() (string, string) {
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		return token, "GITHUB_TOKEN"
	}
	return auth.TokenForHost("github.com")
}

// DefaultConfig returns a fully populated config with all default values.
// This is useful for generating a complete config file template.
func DefaultConfig() *Config {
	s := DefaultRequestSettings()
	delay := int(s.Delay / time.Millisecond)
	backoff := int(s.Backoff / time.Millisecond)
	margin := int(s.RateLimitMargin / time.Millisecond)
	history := true

	return &Config{
		Username:     DefaultUsername,
		OutputPath:   DefaultOutputPath,
		CachePath:    DefaultCachePath,
		FeaturedPath: DefaultFeaturedPath,
		History:      &history,
		Requests: &RequestOverrides{
			DelayMs:           &delay,
			MaxAttempts:       &s.MaxAttempts,
			BackoffMs:         &backoff,
			RateLimitMarginMs: &margin,
			BaseURL:           s.BaseURL,
		},
	}
}

// ToYAML returns the config as a YAML string
func (c *Config) ToYAML() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(data), nil
}

// ConfigPathInfo contains information about config file paths
type ConfigPathInfo struct {
	GlobalPath   string
	GlobalExists bool
	LocalPath    string
	LocalExists  bool
}

// GetConfigPaths returns path info for both global and local configs
func GetConfigPaths() ConfigPathInfo {
	globalPath := ConfigPath()
	localPath := LocalConfigPath()

	absLocalPath, err := filepath.Abs(localPath)
	if err != nil {
		absLocalPath = localPath
	}

	_, globalErr := os.Stat(globalPath)
	_, localErr := os.Stat(localPath)

	return ConfigPathInfo{
		GlobalPath:   globalPath,
		GlobalExists: globalErr == nil,
		LocalPath:    absLocalPath,
		LocalExists:  localErr == nil,
	}
}

// MinimalConfig returns a minimal config template with comments
func MinimalConfig() string {
	return `# prsync configuration file
# See: prsync config defaults  (for all available options)

# GitHub account whose authored pull requests are mirrored
username: ` + DefaultUsername + `

# Artifact locations (relative to the working directory)
# output_path: public/data/github-prs.json
# cache_path: .github-cache.json
# featured_path: src/data/featured-prs.json

# Request pacing (optional)
# requests:
#   delay_ms: 1100
#   max_attempts: 3
`
}

// SaveTo writes content to a specific path, creating directories as needed
func SaveTo(path string, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	return nil
}
