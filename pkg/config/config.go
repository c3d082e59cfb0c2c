package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

const envPrefix = "DANKRANK_"

// Config holds all configuration options for a harvest run
type Config struct {
	// Feed session credentials and endpoint
	Session SessionConfig `yaml:"session" json:"session"`

	// Ranking policy
	Rank RankConfig `yaml:"rank" json:"rank"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Recurring runs
	Schedule ScheduleConfig `yaml:"schedule" json:"schedule"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// SessionConfig holds what the session client needs to talk to the feed API
type SessionConfig struct {
	SessionID string `yaml:"session_id" json:"session_id"`
	CSRFToken string `yaml:"csrf_token" json:"csrf_token"`
	UserAgent string `yaml:"user_agent" json:"user_agent"`
	BaseURL   string `yaml:"base_url" json:"base_url"`
}

// RankConfig holds ranking configuration
type RankConfig struct {
	TopK           int           `yaml:"top_k" json:"top_k"`
	Window         time.Duration `yaml:"window" json:"window"`
	Strategy       string        `yaml:"strategy" json:"strategy"`
	StopOnNonImage bool          `yaml:"stop_on_non_image" json:"stop_on_non_image"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	Workers      int           `yaml:"workers" json:"workers"`
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
	RetryBackoff time.Duration `yaml:"retry_backoff" json:"retry_backoff"`
	Destination  string        `yaml:"destination" json:"destination"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// OutputConfig holds manifest output configuration
type OutputConfig struct {
	ManifestPath string `yaml:"manifest_path" json:"manifest_path"`
}

// ScheduleConfig holds the cron expression for recurring runs
type ScheduleConfig struct {
	Cron     string   `yaml:"cron" json:"cron"`
	Accounts []string `yaml:"accounts" json:"accounts"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Session: SessionConfig{
			UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			BaseURL:   "https://www.instagram.com",
		},
		Rank: RankConfig{
			TopK:           10,
			Window:         24 * time.Hour,
			Strategy:       "front",
			StopOnNonImage: false,
		},
		Download: DownloadConfig{
			Workers:      10,
			Timeout:      30 * time.Second,
			RetryBackoff: 5 * time.Second,
			Destination:  "The Daily Dank",
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
		},
		Output: OutputConfig{
			ManifestPath: "theDanks.json",
		},
		Schedule: ScheduleConfig{
			Cron: "0 9 * * *",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if v := os.Getenv(envPrefix + "SESSION_ID"); v != "" {
		c.Session.SessionID = v
	}
	if v := os.Getenv(envPrefix + "CSRF_TOKEN"); v != "" {
		c.Session.CSRFToken = v
	}
	if v := os.Getenv(envPrefix + "USER_AGENT"); v != "" {
		c.Session.UserAgent = v
	}
	if v := os.Getenv(envPrefix + "BASE_URL"); v != "" {
		c.Session.BaseURL = v
	}

	if v := os.Getenv(envPrefix + "TOP_K"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sTOP_K: %w", envPrefix, err))
		} else {
			c.Rank.TopK = n
		}
	}
	if v := os.Getenv(envPrefix + "WINDOW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sWINDOW: %w", envPrefix, err))
		} else {
			c.Rank.Window = d
		}
	}
	if v := os.Getenv(envPrefix + "RANK_STRATEGY"); v != "" {
		c.Rank.Strategy = v
	}
	if v := os.Getenv(envPrefix + "STOP_ON_NON_IMAGE"); v != "" {
		c.Rank.StopOnNonImage = strings.ToLower(v) == "true"
	}

	if v := os.Getenv(envPrefix + "WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sWORKERS: %w", envPrefix, err))
		} else {
			c.Download.Workers = n
		}
	}
	if v := os.Getenv(envPrefix + "DESTINATION"); v != "" {
		c.Download.Destination = v
	}
	if v := os.Getenv(envPrefix + "REQUESTS_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sREQUESTS_PER_MINUTE: %w", envPrefix, err))
		} else {
			c.RateLimit.RequestsPerMinute = n
		}
	}
	if v := os.Getenv(envPrefix + "MANIFEST_PATH"); v != "" {
		c.Output.ManifestPath = v
	}
	if v := os.Getenv(envPrefix + "LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	expanded, err := homedir.Expand(path)
	if err != nil {
		return fmt.Errorf("failed to expand config path: %w", err)
	}

	data, err := os.ReadFile(expanded)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".dankrank.yaml",
		".dankrank.yml",
		"~/.config/dankrank/config.yaml",
		"~/.config/dankrank/config.yml",
		"~/.dankrank.yaml",
	}

	for _, loc := range locations {
		expanded, err := homedir.Expand(loc)
		if err != nil {
			continue
		}
		if _, err := os.Stat(expanded); err == nil {
			return expanded
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Session.BaseURL == "" {
		errs = append(errs, errors.New("session base URL is required"))
	}

	if c.Rank.TopK <= 0 {
		errs = append(errs, errors.New("top_k must be positive"))
	}
	if c.Rank.Window <= 0 {
		errs = append(errs, errors.New("rank window must be positive"))
	}
	switch strings.ToLower(c.Rank.Strategy) {
	case "front", "heap":
	default:
		errs = append(errs, fmt.Errorf("invalid rank strategy %q (want front or heap)", c.Rank.Strategy))
	}

	if c.Download.Workers <= 0 {
		errs = append(errs, errors.New("download workers must be positive"))
	}
	if c.Download.Timeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}
	if c.Download.RetryBackoff < 0 {
		errs = append(errs, errors.New("retry backoff cannot be negative"))
	}
	if c.Download.Destination == "" {
		errs = append(errs, errors.New("download destination is required"))
	}

	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}

	if c.Output.ManifestPath == "" {
		errs = append(errs, errors.New("manifest path is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	return errors.Join(errs...)
}

// ExpandPaths resolves ~ in every path-valued field
func (c *Config) ExpandPaths() error {
	for _, p := range []*string{&c.Download.Destination, &c.Output.ManifestPath, &c.Logging.File} {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("failed to expand %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Credentials may be in here
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["session-id"].(string); ok && v != "" {
		c.Session.SessionID = v
	}
	if v, ok := flags["csrf-token"].(string); ok && v != "" {
		c.Session.CSRFToken = v
	}
	if v, ok := flags["destination"].(string); ok && v != "" {
		c.Download.Destination = v
	}
	if v, ok := flags["workers"].(int); ok && v > 0 {
		c.Download.Workers = v
	}
	if v, ok := flags["top-k"].(int); ok && v > 0 {
		c.Rank.TopK = v
	}
	if v, ok := flags["window"].(time.Duration); ok && v > 0 {
		c.Rank.Window = v
	}
	if v, ok := flags["strategy"].(string); ok && v != "" {
		c.Rank.Strategy = v
	}
	if v, ok := flags["stop-on-non-image"].(bool); ok {
		c.Rank.StopOnNonImage = v
	}
	if v, ok := flags["manifest"].(string); ok && v != "" {
		c.Output.ManifestPath = v
	}
	if v, ok := flags["requests-per-minute"].(int); ok && v > 0 {
		c.RateLimit.RequestsPerMinute = v
	}
	if v, ok := flags["cron"].(string); ok && v != "" {
		c.Schedule.Cron = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := flags["log-file"].(string); ok && v != "" {
		c.Logging.File = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	if envFile, err := homedir.Expand("~/.dankrank.env"); err == nil {
		_ = godotenv.Load(envFile)
	}

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.ExpandPaths(); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
