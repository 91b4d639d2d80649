package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	errs "steamreviews/pkg/errors"
	"steamreviews/pkg/models"
)

// EnvPrefix prefixes every environment variable the crawler reads.
const EnvPrefix = "STEAMREVIEWS_"

// Config holds all configuration options for the review crawler
type Config struct {
	// Remote endpoint settings
	Steam SteamConfig `yaml:"steam" json:"steam"`

	// Cooldown and politeness settings
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Per-run crawl parameters
	Crawl CrawlConfig `yaml:"crawl" json:"crawl"`

	// Task list and unfinished list locations
	Tasks TasksConfig `yaml:"tasks" json:"tasks"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Release year lookup settings
	Release ReleaseConfig `yaml:"release" json:"release"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Prometheus exposition
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
}

// SteamConfig holds Steam store endpoint configuration
type SteamConfig struct {
	BaseURL   string `yaml:"base_url" json:"base_url"`
	UserAgent string `yaml:"user_agent" json:"user_agent"`
	// Timeout of zero leaves the transport default in place.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// RateLimitConfig holds the cooldown policy
type RateLimitConfig struct {
	MaxQueriesPerWindow int           `yaml:"max_queries_per_window" json:"max_queries_per_window"`
	Cooldown            time.Duration `yaml:"cooldown" json:"cooldown"`
	PolitenessDelay     time.Duration `yaml:"politeness_delay" json:"politeness_delay"`
}

// CrawlConfig holds the parameters shared by every task of a run
type CrawlConfig struct {
	StartDate string `yaml:"start_date" json:"start_date"`
	Threshold int    `yaml:"threshold" json:"threshold"`
}

// TasksConfig holds task list locations
type TasksConfig struct {
	Path           string `yaml:"path" json:"path"`
	UnfinishedFile string `yaml:"unfinished_file" json:"unfinished_file"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
	ReportFile    string `yaml:"report_file" json:"report_file"`
}

// ReleaseConfig holds settings for the release year lookup
type ReleaseConfig struct {
	OutputFile        string        `yaml:"output_file" json:"output_file"`
	RetryDelay        time.Duration `yaml:"retry_delay" json:"retry_delay"`
	NetworkRetryDelay time.Duration `yaml:"network_retry_delay" json:"network_retry_delay"`
	MaxAttempts       int           `yaml:"max_attempts" json:"max_attempts"`
	RequestsPerSecond float64       `yaml:"requests_per_second" json:"requests_per_second"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level" json:"level"`
	File       string `yaml:"file" json:"file"`
	MaxSize    int    `yaml:"max_size" json:"max_size"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAge     int    `yaml:"max_age" json:"max_age"`
	Compress   bool   `yaml:"compress" json:"compress"`
	// DisableConsole keeps records off stdout, e.g. while the dashboard runs
	DisableConsole bool `yaml:"disable_console" json:"disable_console"`
}

// MetricsConfig holds the Prometheus listener address; empty disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Steam: SteamConfig{
			BaseURL:   "https://store.steampowered.com",
			UserAgent: "steamreviews/1.0",
			Timeout:   0,
		},
		RateLimit: RateLimitConfig{
			MaxQueriesPerWindow: 150,
			Cooldown:            2*time.Minute + 8*time.Second,
			PolitenessDelay:     100 * time.Millisecond,
		},
		Crawl: CrawlConfig{
			StartDate: "2022-10-22",
			Threshold: 50,
		},
		Tasks: TasksConfig{
			Path:           "./task/test.txt",
			UnfinishedFile: "unfinished.txt",
		},
		Output: OutputConfig{
			BaseDirectory: "./data",
			ReportFile:    "report.json",
		},
		Release: ReleaseConfig{
			OutputFile:        "release_result.csv",
			RetryDelay:        time.Minute,
			NetworkRetryDelay: time.Second,
			MaxAttempts:       5,
			RequestsPerSecond: 1,
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   false,
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var problems []error

	if v := getenv("BASE_URL"); v != "" {
		c.Steam.BaseURL = v
	}
	if v := getenv("USER_AGENT"); v != "" {
		c.Steam.UserAgent = v
	}
	if err := envDuration("TIMEOUT", &c.Steam.Timeout); err != nil {
		problems = append(problems, err)
	}

	// Cooldown policy
	if err := envInt("MAX_QUERIES", &c.RateLimit.MaxQueriesPerWindow); err != nil {
		problems = append(problems, err)
	}
	if err := envDuration("COOLDOWN", &c.RateLimit.Cooldown); err != nil {
		problems = append(problems, err)
	}
	if err := envDuration("POLITENESS_DELAY", &c.RateLimit.PolitenessDelay); err != nil {
		problems = append(problems, err)
	}

	if v := getenv("START_DATE"); v != "" {
		c.Crawl.StartDate = v
	}
	if err := envInt("THRESHOLD", &c.Crawl.Threshold); err != nil {
		problems = append(problems, err)
	}

	if v := getenv("TASKS"); v != "" {
		c.Tasks.Path = v
	}
	if v := getenv("UNFINISHED_FILE"); v != "" {
		c.Tasks.UnfinishedFile = v
	}
	if v := getenv("OUTPUT_DIR"); v != "" {
		c.Output.BaseDirectory = v
	}

	if v := getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := getenv("LOG_FILE"); v != "" {
		c.Logging.File = v
	}
	if v := getenv("METRICS_ADDR"); v != "" {
		c.Metrics.Addr = v
	}

	return errors.Join(problems...)
}

func getenv(name string) string {
	return strings.TrimSpace(os.Getenv(EnvPrefix + name))
}

func envInt(name string, dst *int) error {
	raw := getenv(name)
	if raw == "" {
		return nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return errs.NewConfigurationError(EnvPrefix+name, "not an integer: %q", raw)
	}
	*dst = val
	return nil
}

func envDuration(name string, dst *time.Duration) error {
	raw := getenv(name)
	if raw == "" {
		return nil
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		return errs.NewConfigurationError(EnvPrefix+name, "not a duration: %q", raw)
	}
	*dst = val
	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
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
		".steamreviews.yaml",
		".steamreviews.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "steamreviews", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "steamreviews", "config.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid. Every problem found is
// reported as a *errors.ConfigurationError, joined together.
func (c *Config) Validate() error {
	var problems []error
	add := func(field, format string, args ...interface{}) {
		problems = append(problems, errs.NewConfigurationError(field, format, args...))
	}

	if c.Steam.BaseURL == "" {
		add("steam.base_url", "is required")
	} else if u, err := url.Parse(c.Steam.BaseURL); err != nil || u.Host == "" {
		add("steam.base_url", "invalid URL %q", c.Steam.BaseURL)
	}
	if c.Steam.Timeout < 0 {
		add("steam.timeout", "cannot be negative")
	}

	if c.RateLimit.MaxQueriesPerWindow <= 0 {
		add("rate_limit.max_queries_per_window", "must be positive")
	}
	if c.RateLimit.Cooldown <= 0 {
		add("rate_limit.cooldown", "must be positive")
	}
	if c.RateLimit.PolitenessDelay < 0 {
		add("rate_limit.politeness_delay", "cannot be negative")
	}

	if _, err := time.Parse(models.DateLayout, c.Crawl.StartDate); err != nil {
		add("crawl.start_date", "expected YYYY-MM-DD, got %q", c.Crawl.StartDate)
	}
	if c.Crawl.Threshold < 0 {
		add("crawl.threshold", "cannot be negative")
	}

	if c.Tasks.Path == "" {
		add("tasks.path", "is required")
	}
	if c.Tasks.UnfinishedFile == "" {
		add("tasks.unfinished_file", "is required")
	}
	if c.Output.BaseDirectory == "" {
		add("output.base_directory", "is required")
	}

	if c.Release.MaxAttempts <= 0 {
		add("release.max_attempts", "must be positive")
	}
	if c.Release.RetryDelay < 0 {
		add("release.retry_delay", "cannot be negative")
	}
	if c.Release.NetworkRetryDelay < 0 {
		add("release.network_retry_delay", "cannot be negative")
	}
	if c.Release.RequestsPerSecond <= 0 {
		add("release.requests_per_second", "must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		add("logging.level", "invalid log level %q", c.Logging.Level)
	}

	return errors.Join(problems...)
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

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only keys present in flags are applied.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["base-url"].(string); ok && v != "" {
		c.Steam.BaseURL = v
	}
	if v, ok := flags["timeout"].(time.Duration); ok {
		c.Steam.Timeout = v
	}
	if v, ok := flags["max-queries"].(int); ok {
		c.RateLimit.MaxQueriesPerWindow = v
	}
	if v, ok := flags["cooldown"].(time.Duration); ok {
		c.RateLimit.Cooldown = v
	}
	if v, ok := flags["politeness"].(time.Duration); ok {
		c.RateLimit.PolitenessDelay = v
	}
	if v, ok := flags["start-date"].(string); ok && v != "" {
		c.Crawl.StartDate = v
	}
	if v, ok := flags["threshold"].(int); ok {
		c.Crawl.Threshold = v
	}
	if v, ok := flags["tasks"].(string); ok && v != "" {
		c.Tasks.Path = v
	}
	if v, ok := flags["unfinished"].(string); ok && v != "" {
		c.Tasks.UnfinishedFile = v
	}
	if v, ok := flags["output"].(string); ok && v != "" {
		c.Output.BaseDirectory = v
	}
	if v, ok := flags["report"].(string); ok && v != "" {
		c.Output.ReportFile = v
	}
	if v, ok := flags["release-output"].(string); ok && v != "" {
		c.Release.OutputFile = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := flags["log-file"].(string); ok && v != "" {
		c.Logging.File = v
	}
	if v, ok := flags["metrics-addr"].(string); ok && v != "" {
		c.Metrics.Addr = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Missing .env files are fine
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".steamreviews.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
