// Package config loads padelmetrics settings from an optional config file
// and PADELMETRICS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// PADELMETRICS_HTTP_RETRIES.
const EnvPrefix = "PADELMETRICS"

// Config is the resolved application configuration.
type Config struct {
	Source   string         `mapstructure:"source"`
	Policy   string         `mapstructure:"policy" validate:"required,policy"`
	Log      LogConfig      `mapstructure:"log"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Cache    CacheConfig    `mapstructure:"cache"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Insights InsightsConfig `mapstructure:"insights"`
	Report   ReportConfig   `mapstructure:"report"`
}

// LogConfig selects the logrus level and formatter.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=trace debug info warn warning error"`
	Format string `mapstructure:"format" validate:"required,oneof=text json"`
}

// HTTPConfig tunes the retrying client used for remote CSV feeds.
type HTTPConfig struct {
	Timeout      time.Duration `mapstructure:"timeout" validate:"gt=0"`
	Retries      int           `mapstructure:"retries" validate:"gte=0,lte=10"`
	RetryWaitMin time.Duration `mapstructure:"retry_wait_min" validate:"gte=0"`
	RetryWaitMax time.Duration `mapstructure:"retry_wait_max" validate:"gtefield=RetryWaitMin"`
}

// CacheConfig bounds how long a loaded snapshot is reused.
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl" validate:"gt=0"`
}

// SQLiteConfig names the table read from sqlite:// sources that omit one.
type SQLiteConfig struct {
	Table string `mapstructure:"table" validate:"required,identifier"`
}

// InsightsConfig tunes the summary insights.
type InsightsConfig struct {
	// MinMatches is exclusive: a best row needs more matches than this.
	MinMatches int `mapstructure:"min_matches" validate:"gte=0"`
}

// ReportConfig sizes the ranked tables of the stats report.
type ReportConfig struct {
	Top int `mapstructure:"top" validate:"gte=1"`
	// RankLimit caps each teammate leaderboard.
	RankLimit int `mapstructure:"rank_limit" validate:"gte=1"`
	// RankMinMatches is the floor of the win probability leaderboard.
	RankMinMatches int `mapstructure:"rank_min_matches" validate:"gte=0"`
}

// DefaultPath returns ~/.padelmetrics/config.yaml, or "" when the home
// directory cannot be resolved.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".padelmetrics", "config.yaml")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source", "")
	v.SetDefault("policy", "B")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("http.timeout", 30*time.Second)
	v.SetDefault("http.retries", 3)
	v.SetDefault("http.retry_wait_min", 500*time.Millisecond)
	v.SetDefault("http.retry_wait_max", 5*time.Second)
	v.SetDefault("cache.ttl", 10*time.Minute)
	v.SetDefault("sqlite.table", "matches")
	v.SetDefault("insights.min_matches", 2)
	v.SetDefault("report.top", 5)
	v.SetDefault("report.rank_limit", 10)
	v.SetDefault("report.rank_min_matches", 5)
}

// Load reads path (YAML, TOML or JSON by extension) on top of the defaults,
// applies environment overrides and validates the result. An empty path
// falls back to DefaultPath; a missing default file is not an error, a
// missing explicit file is.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && (explicit || !notFound(err)) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration without reading any file or
// environment variable.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	// Defaults always decode.
	_ = v.Unmarshal(cfg)
	return cfg
}

func notFound(err error) bool {
	var nf viper.ConfigFileNotFoundError
	return errors.As(err, &nf) || errors.Is(err, os.ErrNotExist)
}
