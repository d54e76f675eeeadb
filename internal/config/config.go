package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"pairlens/internal/provider"
)

// Config represents the application configuration
type Config struct {
	API    APIConfig    `yaml:"api"`
	Report ReportConfig `yaml:"report"`
	Web    WebConfig    `yaml:"web"`

	// DefaultPeriod is the lookback window used when none is given
	DefaultPeriod string `yaml:"default_period"`
}

// APIConfig holds market-data provider configurations
type APIConfig struct {
	AlphaVantage ProviderConfig `yaml:"alphavantage"`
	Yahoo        ProviderConfig `yaml:"yahoo"`
}

// ProviderConfig holds individual provider settings
type ProviderConfig struct {
	Key       string `yaml:"key"`
	RateLimit int    `yaml:"rate_limit"` // requests per minute
}

// ReportConfig holds text-generation settings
type ReportConfig struct {
	Key         string        `yaml:"key"`
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	Temperature float32       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

// WebConfig holds web server settings
type WebConfig struct {
	Port int `yaml:"port"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			AlphaVantage: ProviderConfig{
				Key:       os.Getenv("ALPHAVANTAGE_API_KEY"),
				RateLimit: 5,
			},
			Yahoo: ProviderConfig{
				RateLimit: 30,
			},
		},
		Report: ReportConfig{
			Key:         os.Getenv("OPENROUTER_API_KEY"),
			BaseURL:     "https://openrouter.ai/api/v1",
			Model:       "mistralai/mistral-7b-instruct:free",
			Temperature: 0.3,
			MaxTokens:   2000,
			Timeout:     120 * time.Second,
		},
		Web: WebConfig{
			Port: 8080,
		},
		DefaultPeriod: "1y",
	}
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Use defaults if file doesn't exist
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Override with environment variables if set
	if key := os.Getenv("ALPHAVANTAGE_API_KEY"); key != "" {
		cfg.API.AlphaVantage.Key = key
	}
	if key := os.Getenv("OPENROUTER_API_KEY"); key != "" {
		cfg.Report.Key = key
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Web.Port < 1 || c.Web.Port > 65535 {
		return fmt.Errorf("web port %d out of range", c.Web.Port)
	}
	if !provider.ValidPeriod(c.DefaultPeriod) {
		return fmt.Errorf("default_period %q is not a supported period", c.DefaultPeriod)
	}
	if c.Report.MaxTokens < 1 {
		return fmt.Errorf("report max_tokens must be at least 1")
	}
	return nil
}
