package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Config represents the main configuration structure
type Config struct {
	Endpoint    string            `yaml:"endpoint" validate:"required,url"`
	Batch       BatchConfig       `yaml:"batch"`
	Cache       CacheConfig       `yaml:"cache"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	TTL         TTLConfig         `yaml:"ttl"`
	StatsServer StatsServerConfig `yaml:"stats_server"`
}

// BatchConfig controls the batch scheduler
type BatchConfig struct {
	Size    int `yaml:"size" validate:"gte=1"`
	DelayMs int `yaml:"delay_ms" validate:"gte=1"`
}

// Delay returns the debounce delay as a duration
func (b BatchConfig) Delay() time.Duration {
	return time.Duration(b.DelayMs) * time.Millisecond
}

// CacheConfig controls the in-memory cache store
type CacheConfig struct {
	Enabled        bool `yaml:"enabled"`
	SizeMB         int  `yaml:"size_mb" validate:"gte=1"`
	SweepIntervalS int  `yaml:"sweep_interval_s" validate:"gte=0"` // 0 disables the background sweep
}

// SweepInterval returns the sweep interval as a duration, 0 when disabled
func (c CacheConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalS) * time.Second
}

// RateLimitConfig controls the rate limit monitor policy
type RateLimitConfig struct {
	StaleWindowMs        int     `yaml:"stale_window_ms" validate:"gte=1"`
	DefaultThreshold     int     `yaml:"default_threshold" validate:"gte=0"`
	CoreWarnRatio        float64 `yaml:"core_warn_ratio" validate:"gt=0,lte=1"`
	GraphQLWarnRatio     float64 `yaml:"graphql_warn_ratio" validate:"gt=0,lte=1"`
	SearchWarnRatio      float64 `yaml:"search_warn_ratio" validate:"gt=0,lte=1"`
	HitRateWarnThreshold float64 `yaml:"hit_rate_warn_threshold" validate:"gt=0,lte=1"`
}

// StaleWindow returns the snapshot staleness window as a duration
func (r RateLimitConfig) StaleWindow() time.Duration {
	return time.Duration(r.StaleWindowMs) * time.Millisecond
}

// TTLConfig holds fixed TTLs per named operation, chosen for volatility:
// short for lists that change often, longer for point lookups
type TTLConfig struct {
	RepositoryS     int `yaml:"repository_s" validate:"gte=0"`
	RepositoryListS int `yaml:"repository_list_s" validate:"gte=0"`
	SearchS         int `yaml:"search_s" validate:"gte=0"`
	RateLimitS      int `yaml:"rate_limit_s" validate:"gte=0"`
}

// Repository returns the point-lookup TTL
func (t TTLConfig) Repository() time.Duration {
	return time.Duration(t.RepositoryS) * time.Second
}

// RepositoryList returns the list TTL
func (t TTLConfig) RepositoryList() time.Duration {
	return time.Duration(t.RepositoryListS) * time.Second
}

// Search returns the search TTL
func (t TTLConfig) Search() time.Duration {
	return time.Duration(t.SearchS) * time.Second
}

// RateLimit returns the rate limit status TTL
func (t TTLConfig) RateLimit() time.Duration {
	return time.Duration(t.RateLimitS) * time.Second
}

// StatsServerConfig controls the optional stats/metrics HTTP server
type StatsServerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Default returns the configuration with documented defaults applied
func Default() *Config {
	return &Config{
		Endpoint: "https://api.github.com/graphql",
		Batch: BatchConfig{
			Size:    5,
			DelayMs: 100,
		},
		Cache: CacheConfig{
			Enabled:        true,
			SizeMB:         64,
			SweepIntervalS: 0,
		},
		RateLimit: RateLimitConfig{
			StaleWindowMs:        60000,
			DefaultThreshold:     100,
			CoreWarnRatio:        0.2,
			GraphQLWarnRatio:     0.3,
			SearchWarnRatio:      0.5,
			HitRateWarnThreshold: 0.6,
		},
		TTL: TTLConfig{
			RepositoryS:     600,
			RepositoryListS: 60,
			SearchS:         30,
			RateLimitS:      60,
		},
		StatsServer: StatsServerConfig{
			Enabled: false,
			Addr:    ":9090",
		},
	}
}

// LoadConfig loads configuration from file path, starting from defaults.
// An empty path returns the defaults unchanged.
func LoadConfig(configPath string, logger *zap.Logger) (*Config, error) {
	config := Default()

	if configPath == "" {
		logger.Info("No configuration file provided, using defaults")
		return config, nil
	}

	logger.Info("Loading configuration", zap.String("path", configPath))

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer func() { _ = file.Close() }()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode YAML config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the configuration against its constraints
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
