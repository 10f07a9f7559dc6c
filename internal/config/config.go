package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	AI         AIConfig         `mapstructure:"ai"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Cache      CacheConfig      `mapstructure:"cache"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	I18n       I18nConfig       `mapstructure:"i18n"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type AIConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	Model          string        `mapstructure:"model"`
	FallbackModels []string      `mapstructure:"fallback_models"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
}

type AuthConfig struct {
	TokenSecret string        `mapstructure:"token_secret"`
	TokenTTL    time.Duration `mapstructure:"token_ttl"`
}

type StorageConfig struct {
	Type   string       `mapstructure:"type"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Memory MemoryConfig `mapstructure:"memory"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MemoryConfig struct {
	DefaultExpiration time.Duration `mapstructure:"default_expiration"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
}

type CacheConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	RoadmapTTL   time.Duration `mapstructure:"roadmap_ttl"`
	SimulatorTTL time.Duration `mapstructure:"simulator_ttl"`
}

type RateLimitConfig struct {
	Enabled   bool              `mapstructure:"enabled"`
	Window    time.Duration     `mapstructure:"window"`
	Endpoints map[string]int    `mapstructure:"endpoints"`
	IP        IPRateLimitConfig `mapstructure:"ip"`
}

type IPRateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
	Burst             int  `mapstructure:"burst"`
}

type LoggingConfig struct {
	Level  string     `mapstructure:"level"`
	Format string     `mapstructure:"format"`
	Output string     `mapstructure:"output"`
	File   FileConfig `mapstructure:"file"`
}

type FileConfig struct {
	Path       string `mapstructure:"path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

type MonitoringConfig struct {
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

type I18nConfig struct {
	DefaultLanguage string   `mapstructure:"default_language"`
	Languages       []string `mapstructure:"languages"`
	Directory       string   `mapstructure:"directory"`
}

// Endpoint names used for per-endpoint quotas and cache policy.
const (
	EndpointRoadmap   = "roadmap"
	EndpointSimulator = "simulator"
	EndpointValidator = "validator"
	EndpointReport    = "report"
	EndpointChat      = "chat"
)

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	viper.BindEnv("ai.api_key", "GEMINI_API_KEY")
	viper.BindEnv("auth.token_secret", "AUTH_TOKEN_SECRET")
	viper.BindEnv("storage.redis.addr", "REDIS_ADDR")
	viper.BindEnv("storage.redis.password", "REDIS_PASSWORD")
	viper.BindEnv("storage.redis.db", "REDIS_DB")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 15*time.Second)
	viper.SetDefault("server.write_timeout", 120*time.Second)

	viper.SetDefault("ai.base_url", "https://generativelanguage.googleapis.com/v1")
	viper.SetDefault("ai.model", "gemini-2.5-flash")
	viper.SetDefault("ai.fallback_models", []string{"gemini-2.5-flash", "gemini-2.0-flash", "gemini-1.5-flash"})
	viper.SetDefault("ai.request_timeout", 60*time.Second)
	viper.SetDefault("ai.max_retries", 3)

	viper.SetDefault("auth.token_ttl", 24*time.Hour)

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.default_expiration", 24*time.Hour)
	viper.SetDefault("storage.memory.cleanup_interval", 10*time.Minute)

	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.roadmap_ttl", 7*24*time.Hour)
	viper.SetDefault("cache.simulator_ttl", 24*time.Hour)

	viper.SetDefault("rate_limit.enabled", true)
	viper.SetDefault("rate_limit.window", 24*time.Hour)
	viper.SetDefault("rate_limit.endpoints", map[string]int{
		EndpointRoadmap:   3,
		EndpointSimulator: 10,
		EndpointValidator: 20,
		EndpointReport:    5,
		EndpointChat:      50,
	})
	viper.SetDefault("rate_limit.ip.enabled", true)
	viper.SetDefault("rate_limit.ip.requests_per_minute", 120)
	viper.SetDefault("rate_limit.ip.burst", 30)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")

	viper.SetDefault("monitoring.metrics.enabled", true)
	viper.SetDefault("monitoring.metrics.port", 9090)
	viper.SetDefault("monitoring.metrics.path", "/metrics")

	viper.SetDefault("i18n.default_language", "en")
	viper.SetDefault("i18n.languages", []string{"en", "hi"})
	viper.SetDefault("i18n.directory", "configs/i18n")
}

func validateConfig(cfg *Config) error {
	if cfg.AI.APIKey == "" {
		return fmt.Errorf("ai api key is required")
	}
	if cfg.Auth.TokenSecret == "" {
		return fmt.Errorf("auth token secret is required")
	}
	if cfg.Storage.Type != "redis" && cfg.Storage.Type != "memory" {
		return fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}
	return nil
}

// Limit returns the per-window request quota for an endpoint. Endpoints
// without an explicit quota are unlimited.
func (c *RateLimitConfig) Limit(endpoint string) (int, bool) {
	limit, ok := c.Endpoints[endpoint]
	return limit, ok
}
