package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for the dashboard
type Config struct {
	Environment string          `toml:"environment"`
	Portfolio   PortfolioConfig `toml:"portfolio"`
	Clients     ClientsConfig   `toml:"clients"`
	Logging     LoggingConfig   `toml:"logging"`
}

// PortfolioConfig holds the spreadsheet source configuration
type PortfolioConfig struct {
	FilePath       string `toml:"file_path"`
	ReloadInterval string `toml:"reload_interval"` // duration string, default "15m"
}

// GetReloadInterval parses and returns the reload staleness interval
func (c *PortfolioConfig) GetReloadInterval() time.Duration {
	d, err := time.ParseDuration(c.ReloadInterval)
	if err != nil {
		return FreshnessPortfolio
	}
	return d
}

// ClientsConfig holds the data provider client configurations
type ClientsConfig struct {
	Yahoo  YahooConfig  `toml:"yahoo"`
	Google GoogleConfig `toml:"google"`
}

// YahooConfig holds price quote client configuration
type YahooConfig struct {
	BaseURL      string  `toml:"base_url"`
	CacheTTL     string  `toml:"cache_ttl"` // duration string, default "1m"
	MaxRetries   int     `toml:"max_retries"`
	InitialDelay string  `toml:"initial_delay"` // backoff base, default "500ms"
	Timeout      string  `toml:"timeout"`
	RateLimit    float64 `toml:"rate_limit"` // requests per second
}

// GetCacheTTL parses and returns the quote cache TTL
func (c *YahooConfig) GetCacheTTL() time.Duration {
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil {
		return FreshnessQuote
	}
	return d
}

// GetInitialDelay parses and returns the backoff base delay
func (c *YahooConfig) GetInitialDelay() time.Duration {
	d, err := time.ParseDuration(c.InitialDelay)
	if err != nil {
		return 500 * time.Millisecond
	}
	return d
}

// GetTimeout parses and returns the HTTP timeout
func (c *YahooConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// GoogleConfig holds fundamentals client configuration
type GoogleConfig struct {
	BaseURL       string `toml:"base_url"`
	CacheTTL      string `toml:"cache_ttl"` // fundamentals change slowly, default "6h"
	MaxRetries    int    `toml:"max_retries"`
	InitialDelay  string `toml:"initial_delay"`
	Timeout       string `toml:"timeout"`
	MaxConcurrent int    `toml:"max_concurrent"`
	MinInterval   string `toml:"min_interval"` // spacing between request starts
}

// GetCacheTTL parses and returns the fundamentals cache TTL
func (c *GoogleConfig) GetCacheTTL() time.Duration {
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil {
		return FreshnessFundamentals
	}
	return d
}

// GetInitialDelay parses and returns the backoff base delay
func (c *GoogleConfig) GetInitialDelay() time.Duration {
	d, err := time.ParseDuration(c.InitialDelay)
	if err != nil {
		return 500 * time.Millisecond
	}
	return d
}

// GetTimeout parses and returns the HTTP timeout
func (c *GoogleConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// GetMinInterval parses and returns the minimum start spacing
func (c *GoogleConfig) GetMinInterval() time.Duration {
	d, err := time.ParseDuration(c.MinInterval)
	if err != nil {
		return 250 * time.Millisecond
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Portfolio: PortfolioConfig{
			FilePath:       "data/portfolio.xlsx",
			ReloadInterval: "15m",
		},
		Clients: ClientsConfig{
			Yahoo: YahooConfig{
				BaseURL:      "https://query1.finance.yahoo.com",
				CacheTTL:     "1m",
				MaxRetries:   3,
				InitialDelay: "500ms",
				Timeout:      "10s",
				RateLimit:    5,
			},
			Google: GoogleConfig{
				BaseURL:       "https://www.google.com/finance",
				CacheTTL:      "6h",
				MaxRetries:    3,
				InitialDelay:  "500ms",
				Timeout:       "10s",
				MaxConcurrent: 4,
				MinInterval:   "250ms",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides.
// Later files override earlier ones; missing files are skipped.
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("PORTFOLIO_ENV"); env != "" {
		config.Environment = env
	}

	if level := os.Getenv("PORTFOLIO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("PORTFOLIO_FILE_PATH"); path != "" {
		config.Portfolio.FilePath = path
	}

	if interval := os.Getenv("PORTFOLIO_RELOAD_INTERVAL"); interval != "" {
		config.Portfolio.ReloadInterval = interval
	}

	if url := os.Getenv("PORTFOLIO_YAHOO_BASE_URL"); url != "" {
		config.Clients.Yahoo.BaseURL = url
	}

	if url := os.Getenv("PORTFOLIO_GOOGLE_BASE_URL"); url != "" {
		config.Clients.Google.BaseURL = url
	}

	if retries := os.Getenv("PORTFOLIO_MAX_RETRIES"); retries != "" {
		if n, err := strconv.Atoi(retries); err == nil && n > 0 {
			config.Clients.Yahoo.MaxRetries = n
			config.Clients.Google.MaxRetries = n
		}
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}
