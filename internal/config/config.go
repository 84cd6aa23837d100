package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Provider  ProviderConfig    `mapstructure:"provider"`
	Symbols   []string          `mapstructure:"symbols"`
	Mapping   map[string]string `mapstructure:"symbol_mapping"`
	Analytics AnalyticsConfig   `mapstructure:"analytics"`
	Server    ServerConfig      `mapstructure:"server"`
	Store     StoreConfig       `mapstructure:"store"`
	Notify    NotifyConfig      `mapstructure:"notify"`
	Logging   LoggingConfig     `mapstructure:"logging"`
}

type ProviderConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	APIKey        string `mapstructure:"api_key"`
	TimeoutSec    int    `mapstructure:"timeout_sec"`
	RetryCount    int    `mapstructure:"retry_count"`
	RetryDelaySec int    `mapstructure:"retry_delay_sec"`
	RatePerSecond int    `mapstructure:"rate_per_second"`
	Workers       int    `mapstructure:"workers"`
}

type AnalyticsConfig struct {
	RiskFreeRate float64 `mapstructure:"risk_free_rate"`
	WallTopN     int     `mapstructure:"wall_top_n"`
}

type ServerConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	CacheTTLSec    int    `mapstructure:"cache_ttl_sec"`
	StreamInterval string `mapstructure:"stream_interval"`
}

type StoreConfig struct {
	Directory string `mapstructure:"directory"`
	TVExport  bool   `mapstructure:"tv_export"`
}

type NotifyConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	ServerURL string `mapstructure:"server_url"`
	Topic     string `mapstructure:"topic"`
	Priority  string `mapstructure:"priority"`
}

type LoggingConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Directory string `mapstructure:"directory"`
	Level     string `mapstructure:"level"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("provider.base_url", "https://api.sweepdata.io")
	v.SetDefault("provider.timeout_sec", 30)
	v.SetDefault("provider.retry_count", 3)
	v.SetDefault("provider.retry_delay_sec", 2)
	v.SetDefault("provider.rate_per_second", 4)
	v.SetDefault("provider.workers", 3)
	v.SetDefault("symbols", []string{"SPY", "QQQ", "SPX", "NDX"})
	v.SetDefault("symbol_mapping", map[string]string{"SPX": "^SPX", "NDX": "^NDX"})
	v.SetDefault("analytics.risk_free_rate", 0.05)
	v.SetDefault("analytics.wall_top_n", 3)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cache_ttl_sec", 30)
	v.SetDefault("server.stream_interval", "5s")
	v.SetDefault("store.directory", "data")
	v.SetDefault("store.tv_export", true)
	v.SetDefault("notify.enabled", false)
	v.SetDefault("notify.server_url", "https://ntfy.sh")
	v.SetDefault("notify.priority", "default")
	v.SetDefault("logging.enabled", true)
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.level", "info")

	// Environment variable support
	v.SetEnvPrefix("SWEEPD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Explicitly bind nested keys to env vars
	_ = v.BindEnv("provider.api_key", "SWEEPD_API_KEY")
	_ = v.BindEnv("notify.topic", "SWEEPD_NTFY_TOPIC")

	// Load config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("default")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Timeout returns the provider HTTP timeout as a duration.
func (p ProviderConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSec) * time.Second
}

// RetryDelay returns the base retry delay as a duration.
func (p ProviderConfig) RetryDelay() time.Duration {
	return time.Duration(p.RetryDelaySec) * time.Second
}

// CacheTTL returns the snapshot cache TTL as a duration.
func (s ServerConfig) CacheTTL() time.Duration {
	return time.Duration(s.CacheTTLSec) * time.Second
}

// StreamIntervalDuration parses the websocket stream interval, falling back
// to 5s on a malformed value.
func (s ServerConfig) StreamIntervalDuration() time.Duration {
	d, err := time.ParseDuration(s.StreamInterval)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}
