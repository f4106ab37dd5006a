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
	"gopkg.in/yaml.v3"
)

const envPrefix = "CREATORJOY_"

// Config holds all configuration options for the creatorjoy service
type Config struct {
	// HTTP API settings
	Server ServerConfig `yaml:"server" json:"server"`

	// Instagram web API settings
	Instagram InstagramConfig `yaml:"instagram" json:"instagram"`

	// Credential file and refresh policy
	Session SessionConfig `yaml:"session" json:"session"`

	// Browser automation backend
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// yt-dlp extractor settings
	YouTube YouTubeConfig `yaml:"youtube" json:"youtube"`

	// Crawl defaults
	Crawl CrawlConfig `yaml:"crawl" json:"crawl"`

	// Outbound rate limiting
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Retry policy for transient fetch errors
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// ServerConfig holds HTTP listener configuration
type ServerConfig struct {
	Host            string        `yaml:"host" json:"host"`
	Port            int           `yaml:"port" json:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes" json:"max_body_bytes"`
}

// InstagramConfig holds Instagram-specific configuration
type InstagramConfig struct {
	BaseURL        string        `yaml:"base_url" json:"base_url"`
	UserAgent      string        `yaml:"user_agent" json:"user_agent"`
	AppID          string        `yaml:"app_id" json:"app_id"`
	ASBDID         string        `yaml:"asbd_id" json:"asbd_id"`
	ProfileTimeout time.Duration `yaml:"profile_timeout" json:"profile_timeout"`
	FeedTimeout    time.Duration `yaml:"feed_timeout" json:"feed_timeout"`
	PageSize       int           `yaml:"page_size" json:"page_size"`
	MaxPages       int           `yaml:"max_pages" json:"max_pages"`
}

// SessionConfig holds credential persistence and refresh configuration
type SessionConfig struct {
	File           string        `yaml:"file" json:"file"`
	RefreshTimeout time.Duration `yaml:"refresh_timeout" json:"refresh_timeout"`
	ValidityBuffer time.Duration `yaml:"validity_buffer" json:"validity_buffer"`
	Lifetime       time.Duration `yaml:"lifetime" json:"lifetime"`
	KeeperEnabled  bool          `yaml:"keeper_enabled" json:"keeper_enabled"`
	KeeperSchedule string        `yaml:"keeper_schedule" json:"keeper_schedule"`
}

// BrowserConfig holds browser automation configuration
type BrowserConfig struct {
	RemoteURL   string        `yaml:"remote_url" json:"remote_url"`
	LaunchLocal bool          `yaml:"launch_local" json:"launch_local"`
	Headless    bool          `yaml:"headless" json:"headless"`
	LoginURL    string        `yaml:"login_url" json:"login_url"`
	LoginWait   time.Duration `yaml:"login_wait" json:"login_wait"`
}

// Configured reports whether any browser backend is available.
func (b BrowserConfig) Configured() bool {
	return b.RemoteURL != "" || b.LaunchLocal
}

// YouTubeConfig holds yt-dlp configuration
type YouTubeConfig struct {
	YTDLPPath   string        `yaml:"ytdlp_path" json:"ytdlp_path"`
	CookiesFile string        `yaml:"cookies_file" json:"cookies_file"`
	FlatTimeout time.Duration `yaml:"flat_timeout" json:"flat_timeout"`
	ItemTimeout time.Duration `yaml:"item_timeout" json:"item_timeout"`
	MaxWorkers  int           `yaml:"max_workers" json:"max_workers"`
}

// CrawlConfig holds request defaults
type CrawlConfig struct {
	DefaultDays      int    `yaml:"default_days" json:"default_days"`
	DefaultMaxReels  int    `yaml:"default_max_reels" json:"default_max_reels"`
	DefaultMaxVideos int    `yaml:"default_max_videos" json:"default_max_videos"`
	OutputDirectory  string `yaml:"output_directory" json:"output_directory"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int `yaml:"burst_size" json:"burst_size"`
}

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay" json:"max_delay"`
	Multiplier  float64       `yaml:"multiplier" json:"multiplier"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	File   string `yaml:"file" json:"file"`
	Format string `yaml:"format" json:"format"`
}

// DefaultSessionFile returns the credential file location, which moves to
// the persistent disk when running on Render.
func DefaultSessionFile() string {
	if os.Getenv("RENDER") != "" {
		return "/data/session_data.json"
	}
	return "session_data.json"
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            5000,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    10 * time.Minute,
			ShutdownTimeout: 15 * time.Second,
			MaxBodyBytes:    1 << 20,
		},
		Instagram: InstagramConfig{
			BaseURL:        "https://www.instagram.com",
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			AppID:          "936619743392459",
			ASBDID:         "129477",
			ProfileTimeout: 10 * time.Second,
			FeedTimeout:    15 * time.Second,
			PageSize:       12,
			MaxPages:       200,
		},
		Session: SessionConfig{
			File:           DefaultSessionFile(),
			RefreshTimeout: 3 * time.Minute,
			ValidityBuffer: time.Hour,
			Lifetime:       30 * 24 * time.Hour,
			KeeperEnabled:  false,
			KeeperSchedule: "0 */30 * * * *",
		},
		Browser: BrowserConfig{
			Headless:  true,
			LoginURL:  "https://www.instagram.com/accounts/login/",
			LoginWait: 60 * time.Second,
		},
		YouTube: YouTubeConfig{
			YTDLPPath:   "yt-dlp",
			FlatTimeout: 120 * time.Second,
			ItemTimeout: 60 * time.Second,
			MaxWorkers:  5,
		},
		Crawl: CrawlConfig{
			DefaultDays:      90,
			DefaultMaxReels:  50,
			DefaultMaxVideos: 30,
			OutputDirectory:  "./results",
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
			BurstSize:         10,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   time.Second,
			MaxDelay:    30 * time.Second,
			Multiplier:  2.0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadFromEnv loads configuration from environment variables. The
// unprefixed names used by existing deployments are honored first and the
// CREATORJOY_ prefixed names override them.
func (c *Config) LoadFromEnv() error {
	var errs []error

	envString("PORT", func(v string) {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		} else {
			errs = append(errs, fmt.Errorf("PORT: %w", err))
		}
	})
	envString("INSTAGRAM_SESSION_FILE", func(v string) { c.Session.File = v })
	envString("SELENIUM_REMOTE_URL", func(v string) { c.Browser.RemoteURL = v })
	envString("YTDLP_COOKIES_FILE", func(v string) { c.YouTube.CookiesFile = v })

	envString(envPrefix+"HOST", func(v string) { c.Server.Host = v })
	errs = append(errs, envInt(envPrefix+"PORT", &c.Server.Port))

	envString(envPrefix+"INSTAGRAM_BASE_URL", func(v string) { c.Instagram.BaseURL = v })
	envString(envPrefix+"USER_AGENT", func(v string) { c.Instagram.UserAgent = v })
	errs = append(errs, envInt(envPrefix+"MAX_PAGES", &c.Instagram.MaxPages))

	envString(envPrefix+"SESSION_FILE", func(v string) { c.Session.File = v })
	errs = append(errs, envDuration(envPrefix+"REFRESH_TIMEOUT", &c.Session.RefreshTimeout))
	errs = append(errs, envBool(envPrefix+"KEEPER_ENABLED", &c.Session.KeeperEnabled))
	envString(envPrefix+"KEEPER_SCHEDULE", func(v string) { c.Session.KeeperSchedule = v })

	envString(envPrefix+"BROWSER_REMOTE_URL", func(v string) { c.Browser.RemoteURL = v })
	errs = append(errs, envBool(envPrefix+"BROWSER_LAUNCH_LOCAL", &c.Browser.LaunchLocal))
	errs = append(errs, envBool(envPrefix+"BROWSER_HEADLESS", &c.Browser.Headless))
	errs = append(errs, envDuration(envPrefix+"LOGIN_WAIT", &c.Browser.LoginWait))

	envString(envPrefix+"YTDLP_PATH", func(v string) { c.YouTube.YTDLPPath = v })
	envString(envPrefix+"YTDLP_COOKIES_FILE", func(v string) { c.YouTube.CookiesFile = v })
	errs = append(errs, envInt(envPrefix+"MAX_WORKERS", &c.YouTube.MaxWorkers))

	envString(envPrefix+"OUTPUT_DIR", func(v string) { c.Crawl.OutputDirectory = v })

	errs = append(errs, envInt(envPrefix+"REQUESTS_PER_MINUTE", &c.RateLimit.RequestsPerMinute))
	errs = append(errs, envInt(envPrefix+"BURST_SIZE", &c.RateLimit.BurstSize))
	errs = append(errs, envInt(envPrefix+"RETRY_ATTEMPTS", &c.Retry.MaxAttempts))

	envString(envPrefix+"LOG_LEVEL", func(v string) { c.Logging.Level = v })
	envString(envPrefix+"LOG_FILE", func(v string) { c.Logging.File = v })
	envString(envPrefix+"LOG_FORMAT", func(v string) { c.Logging.Format = v })

	return errors.Join(errs...)
}

func envString(key string, set func(string)) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		set(v)
	}
}

func envInt(key string, dst *int) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func envBool(key string, dst *bool) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}

func envDuration(key string, dst *time.Duration) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
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
	home := os.Getenv("HOME")
	locations := []string{
		".creatorjoy.yaml",
		".creatorjoy.yml",
		filepath.Join(home, ".config", "creatorjoy", "config.yaml"),
		filepath.Join(home, ".config", "creatorjoy", "config.yml"),
		filepath.Join(home, ".creatorjoy.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server port %d out of range", c.Server.Port))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("max body bytes must be positive"))
	}

	if c.Instagram.BaseURL == "" {
		errs = append(errs, errors.New("instagram base URL is required"))
	}
	if c.Instagram.PageSize <= 0 {
		errs = append(errs, errors.New("instagram page size must be positive"))
	}
	if c.Instagram.MaxPages <= 0 {
		errs = append(errs, errors.New("instagram max pages must be positive"))
	}
	if c.Instagram.ProfileTimeout <= 0 || c.Instagram.FeedTimeout <= 0 {
		errs = append(errs, errors.New("instagram timeouts must be positive"))
	}

	if c.Session.File == "" {
		errs = append(errs, errors.New("session file is required"))
	}
	if c.Session.RefreshTimeout <= 0 {
		errs = append(errs, errors.New("session refresh timeout must be positive"))
	}
	if c.Session.ValidityBuffer < 0 {
		errs = append(errs, errors.New("session validity buffer cannot be negative"))
	}
	if c.Session.KeeperEnabled && c.Session.KeeperSchedule == "" {
		errs = append(errs, errors.New("keeper schedule is required when the keeper is enabled"))
	}

	if c.YouTube.YTDLPPath == "" {
		errs = append(errs, errors.New("yt-dlp path is required"))
	}
	if c.YouTube.MaxWorkers <= 0 {
		errs = append(errs, errors.New("max workers must be positive"))
	}
	if c.YouTube.MaxWorkers > 32 {
		errs = append(errs, errors.New("max workers should not exceed 32"))
	}

	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.RateLimit.BurstSize <= 0 {
		errs = append(errs, errors.New("burst size must be positive"))
	}
	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, errors.New("retry attempts must be at least 1"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid log format %q", c.Logging.Format))
	}

	return errors.Join(errs...)
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

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if host, ok := flags["host"].(string); ok && host != "" {
		c.Server.Host = host
	}
	if port, ok := flags["port"].(int); ok && port > 0 {
		c.Server.Port = port
	}
	if file, ok := flags["session-file"].(string); ok && file != "" {
		c.Session.File = file
	}
	if url, ok := flags["browser-url"].(string); ok && url != "" {
		c.Browser.RemoteURL = url
	}
	if local, ok := flags["launch-browser"].(bool); ok && local {
		c.Browser.LaunchLocal = true
	}
	if keeper, ok := flags["keeper"].(bool); ok && keeper {
		c.Session.KeeperEnabled = true
	}
	if path, ok := flags["ytdlp"].(string); ok && path != "" {
		c.YouTube.YTDLPPath = path
	}
	if workers, ok := flags["workers"].(int); ok && workers > 0 {
		c.YouTube.MaxWorkers = workers
	}
	if output, ok := flags["output"].(string); ok && output != "" {
		c.Crawl.OutputDirectory = output
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".creatorjoy.env"))

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
