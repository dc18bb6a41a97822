// Package config loads settings from defaults, an optional budgeteer.yaml
// or .toml file, and the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	// Backend selection: memory, disk or sqlite
	DataBackend string

	SQLiteDBPath string
	DiskBasePath string

	// AMQP is optional; an empty URL disables events
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	UserID string

	LogLevel  string
	LogFormat string

	// Month document cache; size 0 disables it
	CacheSize int
	CacheTTL  time.Duration
}

// ValidBackends lists the accepted DATA_BACKEND values
var ValidBackends = []string{"memory", "disk", "sqlite"}

func defaults(v *viper.Viper) {
	v.SetDefault("DATA_BACKEND", "memory")
	v.SetDefault("SQLITE_DB_PATH", "./data/budget.db")
	v.SetDefault("DISK_BASE_PATH", "./data/budget")
	v.SetDefault("AMQP_URL", "")
	v.SetDefault("AMQP_EXCHANGE", "budgeteer")
	v.SetDefault("AMQP_QUEUE", "month_changed")
	v.SetDefault("BUDGET_USER", "default")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("CACHE_SIZE", 64)
	v.SetDefault("CACHE_TTL", 10*time.Minute)
}

// Load reads the configuration. A missing config file is not an error.
func Load() (*Config, error) {
	v := viper.New()
	defaults(v)
	v.SetConfigName("budgeteer")
	v.AutomaticEnv()

	if override := os.Getenv("BUDGETEER_CONFIG_PATH"); override != "" {
		v.AddConfigPath(override)
	}
	v.AddConfigPath("./")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		DataBackend:  strings.ToLower(v.GetString("DATA_BACKEND")),
		SQLiteDBPath: v.GetString("SQLITE_DB_PATH"),
		DiskBasePath: v.GetString("DISK_BASE_PATH"),
		AMQPURL:      v.GetString("AMQP_URL"),
		AMQPExchange: v.GetString("AMQP_EXCHANGE"),
		AMQPQueue:    v.GetString("AMQP_QUEUE"),
		UserID:       v.GetString("BUDGET_USER"),
		LogLevel:     strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFormat:    strings.ToLower(v.GetString("LOG_FORMAT")),
		CacheSize:    v.GetInt("CACHE_SIZE"),
		CacheTTL:     v.GetDuration("CACHE_TTL"),
	}
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	switch c.DataBackend {
	case "memory":
	case "disk":
		if c.DiskBasePath == "" {
			errs = append(errs, "disk base path cannot be empty when using disk backend")
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errs = append(errs, "SQLite database path cannot be empty when using sqlite backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, ValidBackends))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if strings.TrimSpace(c.UserID) == "" {
		errs = append(errs, "budget user cannot be empty")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	if c.CacheSize < 0 {
		errs = append(errs, fmt.Sprintf("invalid cache size %d: must not be negative", c.CacheSize))
	}
	if c.CacheSize > 0 && c.CacheTTL < time.Second {
		errs = append(errs, fmt.Sprintf("invalid cache TTL %v: must be at least 1 second", c.CacheTTL))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
