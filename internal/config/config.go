// Package config handles configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	// Server configuration
	Host string `envconfig:"SKILLMATCH_HOST" yaml:"host"`
	Port int    `envconfig:"SKILLMATCH_PORT" yaml:"port"`

	// Database configuration
	Database DatabaseConfig `yaml:"database"`

	// Cache configuration
	Cache CacheConfig `yaml:"cache"`

	// Bus configuration
	Bus BusConfig `yaml:"bus"`

	// Matching configuration
	Matching MatchingConfig `yaml:"matching"`

	// Analytics configuration
	Analytics AnalyticsConfig `yaml:"analytics"`

	// Logging configuration
	Log LogConfig `yaml:"log"`

	// Security configuration
	Security SecurityConfig `yaml:"security"`

	// Observability configuration
	Observability ObservabilityConfig `yaml:"observability"`
}

// DatabaseConfig holds Postgres connection settings.
type DatabaseConfig struct {
	URL          string `envconfig:"SKILLMATCH_DATABASE_URL" yaml:"url"`
	MaxConns     int    `envconfig:"SKILLMATCH_DATABASE_MAX_CONNS" yaml:"max_conns"`
	QueryTimeout int    `envconfig:"SKILLMATCH_DATABASE_QUERY_TIMEOUT" yaml:"query_timeout"` // seconds
}

// CacheConfig holds cache settings.
type CacheConfig struct {
	Type     string `envconfig:"SKILLMATCH_CACHE_TYPE" yaml:"type"`
	Size     int    `envconfig:"SKILLMATCH_CACHE_SIZE" yaml:"size"`
	TTL      int    `envconfig:"SKILLMATCH_CACHE_TTL" yaml:"ttl"` // seconds, 0 = no expiry
	RedisURL string `envconfig:"SKILLMATCH_REDIS_URL" yaml:"redis_url"`
}

// BusConfig holds event bus settings.
type BusConfig struct {
	Type         string `envconfig:"SKILLMATCH_BUS_TYPE" yaml:"type"`
	KafkaBrokers string `envconfig:"SKILLMATCH_KAFKA_BROKERS" yaml:"kafka_brokers"`
}

// MatchingConfig holds scoring and reranking settings.
type MatchingConfig struct {
	TopicWeight          float64 `envconfig:"SKILLMATCH_TOPIC_WEIGHT" yaml:"topic_weight"`
	LanguageWeight       float64 `envconfig:"SKILLMATCH_LANGUAGE_WEIGHT" yaml:"language_weight"`
	DifficultyWeight     float64 `envconfig:"SKILLMATCH_DIFFICULTY_WEIGHT" yaml:"difficulty_weight"`
	InterestWeight       float64 `envconfig:"SKILLMATCH_INTEREST_WEIGHT" yaml:"interest_weight"`
	PopularityWeight     float64 `envconfig:"SKILLMATCH_POPULARITY_WEIGHT" yaml:"popularity_weight"`
	RecencyWeight        float64 `envconfig:"SKILLMATCH_RECENCY_WEIGHT" yaml:"recency_weight"`
	EligibilityThreshold float64 `envconfig:"SKILLMATCH_ELIGIBILITY_THRESHOLD" yaml:"eligibility_threshold"`
	DiversityLambda      float64 `envconfig:"SKILLMATCH_DIVERSITY_LAMBDA" yaml:"diversity_lambda"`
	DefaultLimit         int     `envconfig:"SKILLMATCH_DEFAULT_LIMIT" yaml:"default_limit"`
}

// AnalyticsConfig holds effectiveness analytics settings.
type AnalyticsConfig struct {
	DefaultWindow string `envconfig:"SKILLMATCH_ANALYTICS_WINDOW" yaml:"default_window"`
	MockFallback  bool   `envconfig:"SKILLMATCH_ANALYTICS_MOCK_FALLBACK" yaml:"mock_fallback"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `envconfig:"SKILLMATCH_LOG_LEVEL" yaml:"level"`
	Format string `envconfig:"SKILLMATCH_LOG_FORMAT" yaml:"format"`
}

// SecurityConfig holds security settings.
type SecurityConfig struct {
	APIKey      string `envconfig:"SKILLMATCH_API_KEY" yaml:"api_key"`
	RateLimit   int    `envconfig:"SKILLMATCH_RATE_LIMIT" yaml:"rate_limit"` // 0 = disabled
	CORSOrigins string `envconfig:"SKILLMATCH_CORS_ORIGINS" yaml:"cors_origins"`
}

// ObservabilityConfig holds observability settings.
type ObservabilityConfig struct {
	MetricsEnabled bool   `envconfig:"SKILLMATCH_METRICS_ENABLED" yaml:"metrics_enabled"`
	MetricsPath    string `envconfig:"SKILLMATCH_METRICS_PATH" yaml:"metrics_path"`
}

// Load loads configuration from environment variables and optional config file.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	// Set defaults first
	setDefaults(cfg)

	// Load from YAML file if provided (overrides defaults)
	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	// Override with environment variables (highest priority)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("processing env config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only.
func LoadFromEnv() (*Config, error) {
	return Load("")
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

func setDefaults(cfg *Config) {
	cfg.Host = "0.0.0.0"
	cfg.Port = 8080

	cfg.Database = DatabaseConfig{
		URL:          "postgres://localhost:5432/skillmatch",
		MaxConns:     8,
		QueryTimeout: 5,
	}

	cfg.Cache = CacheConfig{
		Type:     "memory",
		Size:     10000,
		TTL:      300,
		RedisURL: "redis://localhost:6379",
	}

	cfg.Bus = BusConfig{
		Type: "memory",
	}

	cfg.Matching = MatchingConfig{
		TopicWeight:          0.28,
		LanguageWeight:       0.32,
		DifficultyWeight:     0.18,
		InterestWeight:       0.12,
		PopularityWeight:     0.05,
		RecencyWeight:        0.05,
		EligibilityThreshold: 55,
		DiversityLambda:      0.25,
		DefaultLimit:         10,
	}

	cfg.Analytics = AnalyticsConfig{
		DefaultWindow: "30 days",
		MockFallback:  true,
	}

	cfg.Log = LogConfig{
		Level:  "info",
		Format: "text",
	}

	cfg.Security = SecurityConfig{
		RateLimit:   0,
		CORSOrigins: "*",
	}

	cfg.Observability = ObservabilityConfig{
		MetricsEnabled: true,
		MetricsPath:    "/metrics",
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	// Server validation
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, "port must be between 1 and 65535")
	}

	// Database validation
	if c.Database.MaxConns < 1 {
		errs = append(errs, "database max_conns must be positive")
	}

	if c.Database.QueryTimeout < 1 {
		errs = append(errs, "database query_timeout must be positive")
	}

	// Cache validation
	validCacheTypes := map[string]bool{"memory": true, "redis": true}
	if !validCacheTypes[c.Cache.Type] {
		errs = append(errs, fmt.Sprintf("invalid cache type: %s (must be memory or redis)", c.Cache.Type))
	}

	// Bus validation
	validBusTypes := map[string]bool{"memory": true, "kafka": true}
	if !validBusTypes[c.Bus.Type] {
		errs = append(errs, fmt.Sprintf("invalid bus type: %s (must be memory or kafka)", c.Bus.Type))
	}

	// Matching validation
	for name, w := range map[string]float64{
		"topic_weight":      c.Matching.TopicWeight,
		"language_weight":   c.Matching.LanguageWeight,
		"difficulty_weight": c.Matching.DifficultyWeight,
		"interest_weight":   c.Matching.InterestWeight,
		"popularity_weight": c.Matching.PopularityWeight,
		"recency_weight":    c.Matching.RecencyWeight,
	} {
		if w < 0 || w > 1 {
			errs = append(errs, fmt.Sprintf("%s must be between 0 and 1", name))
		}
	}

	if c.Matching.EligibilityThreshold < 0 || c.Matching.EligibilityThreshold > 100 {
		errs = append(errs, "eligibility_threshold must be between 0 and 100")
	}

	if c.Matching.DiversityLambda < 0 || c.Matching.DiversityLambda > 1 {
		errs = append(errs, "diversity_lambda must be between 0 and 1")
	}

	if c.Matching.DefaultLimit < 1 {
		errs = append(errs, "default_limit must be positive")
	}

	// Log validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		errs = append(errs, fmt.Sprintf("invalid log format: %s (must be text or json)", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// Address returns the server address.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Log.Level == "debug"
}
