package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Content extraction configuration
	Extractor ExtractorConfig

	// AI assist configuration
	AI AIConfig

	// Web search configuration
	Search SearchConfig

	// AI-collect configuration
	Collect CollectConfig

	// Presentation configuration
	UI UIConfig

	// Logging configuration
	Log LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL            string
	Host           string
	Port           string
	User           string
	Password       string
	Name           string
	SSLMode        string
	MaxOpenConns   int
	MaxIdleConns   int
	MaxLifetime    time.Duration
	QueryTimeout   time.Duration
	MigrationsPath string
}

// ExtractorConfig holds article extraction settings
type ExtractorConfig struct {
	Enabled       bool
	UserAgent     string
	Timeout       time.Duration
	MaxBodyBytes  int64
	SummaryLength int // runes kept from the extracted text; 0 disables
	Language      string
}

// AIConfig holds settings for the text generation backend
type AIConfig struct {
	BaseURL        string
	APIKey         string
	Model          string
	Timeout        time.Duration
	MinInterval    time.Duration
	Burst          int
	SummaryEnabled bool
	SummaryTitles  int
	DigestTimeout  time.Duration
	JustifyMaxRune int
}

// Enabled reports whether an AI backend is configured
func (c AIConfig) Enabled() bool {
	return c.BaseURL != ""
}

// SearchConfig holds web search backend settings
type SearchConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Enabled reports whether a search backend is configured
func (c SearchConfig) Enabled() bool {
	return c.BaseURL != ""
}

// CollectConfig holds AI-collect settings
type CollectConfig struct {
	DefaultCount      int
	MaxCount          int
	PreferenceWindow  int
	DefaultPreference string
	ReasonPlaceholder string
	SkipSaved         bool
}

// UIConfig holds presentation settings
type UIConfig struct {
	DeleteRedirect string // "referer" or a fixed path
	ListLimit      int
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string // "json" or "pretty"
}

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15"

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			Name:           getEnv("DB_NAME", "readlater"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:   getIntEnv("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:   getIntEnv("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:    getDurationEnv("DB_MAX_LIFETIME", 5*time.Minute),
			QueryTimeout:   getDurationEnv("STORE_TIMEOUT", 5*time.Second),
			MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),
		},
		Extractor: ExtractorConfig{
			Enabled:       getBoolEnv("EXTRACTOR_ENABLED", true),
			UserAgent:     getEnv("EXTRACTOR_USER_AGENT", defaultUserAgent),
			Timeout:       getDurationEnv("EXTRACTOR_TIMEOUT", 15*time.Second),
			MaxBodyBytes:  getInt64Env("EXTRACTOR_MAX_BODY_BYTES", 5*1024*1024), // 5MB
			SummaryLength: getIntEnv("EXTRACTOR_SUMMARY_LENGTH", 0),
			Language:      getEnv("EXTRACTOR_LANGUAGE", "ja"),
		},
		AI: AIConfig{
			BaseURL:        strings.TrimRight(getEnv("AI_BASE_URL", ""), "/"),
			APIKey:         getEnv("AI_API_KEY", ""),
			Model:          getEnv("AI_MODEL", "gemma3:4b"),
			Timeout:        getDurationEnv("AI_TIMEOUT", 60*time.Second),
			MinInterval:    getDurationEnv("AI_MIN_INTERVAL", time.Second),
			Burst:          getIntEnv("AI_BURST", 3),
			SummaryEnabled: getBoolEnv("AI_SUMMARY_ENABLED", true),
			SummaryTitles:  getIntEnv("AI_SUMMARY_TITLES", 10),
			DigestTimeout:  getDurationEnv("AI_DIGEST_TIMEOUT", 8*time.Second),
			JustifyMaxRune: getIntEnv("AI_JUSTIFY_MAX_RUNES", 40),
		},
		Search: SearchConfig{
			BaseURL: strings.TrimRight(getEnv("SEARCH_BASE_URL", ""), "/"),
			APIKey:  getEnv("SEARCH_API_KEY", ""),
			Timeout: getDurationEnv("SEARCH_TIMEOUT", 20*time.Second),
		},
		Collect: CollectConfig{
			DefaultCount:      getIntEnv("COLLECT_DEFAULT_COUNT", 5),
			MaxCount:          getIntEnv("COLLECT_MAX_COUNT", 10),
			PreferenceWindow:  getIntEnv("COLLECT_PREFERENCE_WINDOW", 10),
			DefaultPreference: getEnv("COLLECT_DEFAULT_PREFERENCE", "technology and science news"),
			ReasonPlaceholder: getEnv("COLLECT_REASON_PLACEHOLDER", "AI pick"),
			SkipSaved:         getBoolEnv("COLLECT_SKIP_SAVED", true),
		},
		UI: UIConfig{
			DeleteRedirect: getEnv("UI_DELETE_REDIRECT", "referer"),
			ListLimit:      getIntEnv("UI_LIST_LIMIT", 200),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		if c.Database.Host == "" {
			return fmt.Errorf("DB_HOST is required when DATABASE_URL is not set")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("DB_NAME is required when DATABASE_URL is not set")
		}
	}
	if c.Extractor.Timeout < time.Second || c.Extractor.Timeout > time.Minute {
		return fmt.Errorf("EXTRACTOR_TIMEOUT must be between 1s and 60s, got %s", c.Extractor.Timeout)
	}
	if c.Extractor.UserAgent == "" {
		return fmt.Errorf("EXTRACTOR_USER_AGENT must not be empty")
	}
	if c.Extractor.SummaryLength < 0 {
		return fmt.Errorf("EXTRACTOR_SUMMARY_LENGTH must not be negative")
	}
	if c.Collect.MaxCount < 1 {
		return fmt.Errorf("COLLECT_MAX_COUNT must be at least 1")
	}
	if c.Collect.DefaultCount < 1 || c.Collect.DefaultCount > c.Collect.MaxCount {
		return fmt.Errorf("COLLECT_DEFAULT_COUNT must be between 1 and %d", c.Collect.MaxCount)
	}
	if c.Collect.PreferenceWindow < 1 {
		return fmt.Errorf("COLLECT_PREFERENCE_WINDOW must be at least 1")
	}
	if c.AI.DigestTimeout < 0 || (c.Server.WriteTimeout > 0 && c.AI.DigestTimeout >= c.Server.WriteTimeout) {
		return fmt.Errorf("AI_DIGEST_TIMEOUT must be below SERVER_WRITE_TIMEOUT (%s), got %s", c.Server.WriteTimeout, c.AI.DigestTimeout)
	}
	if c.UI.DeleteRedirect != "referer" && !strings.HasPrefix(c.UI.DeleteRedirect, "/") {
		return fmt.Errorf("UI_DELETE_REDIRECT must be \"referer\" or an absolute path, got %q", c.UI.DeleteRedirect)
	}
	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
