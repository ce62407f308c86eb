// Package config loads bookkeeper settings from TOML files with
// BOOKKEEPER_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	toml "github.com/pelletier/go-toml/v2"
)

// EnvPrefix is the prefix of every environment override, for example
// BOOKKEEPER_SERVER_ADDR or BOOKKEEPER_DATABASE_PATH.
const EnvPrefix = "bookkeeper"

type Config struct {
	Server   ServerConfig   `toml:"server" envconfig:"server"`
	Database DatabaseConfig `toml:"database" envconfig:"database"`
	Cache    CacheConfig    `toml:"cache" envconfig:"cache"`
	Log      LogConfig      `toml:"log" envconfig:"log"`
	Client   ClientConfig   `toml:"client" envconfig:"client"`
}

type ServerConfig struct {
	Addr           string `toml:"addr" envconfig:"addr"`
	ReadTimeout    string `toml:"read_timeout" envconfig:"read_timeout"`
	WriteTimeout   string `toml:"write_timeout" envconfig:"write_timeout"`
	RequestTimeout string `toml:"request_timeout" envconfig:"request_timeout"`
	// RateLimit is requests per minute per client IP; 0 disables it.
	RateLimit int  `toml:"rate_limit" envconfig:"rate_limit"`
	Dev       bool `toml:"dev" envconfig:"dev"`
}

type DatabaseConfig struct {
	Path string `toml:"path" envconfig:"path"`
}

type CacheConfig struct {
	// RedisAddr empty disables the report cache.
	RedisAddr string `toml:"redis_addr" envconfig:"redis_addr"`
	TTL       string `toml:"ttl" envconfig:"ttl"`
}

type LogConfig struct {
	Level  string `toml:"level" envconfig:"level"`
	Format string `toml:"format" envconfig:"format"`
}

type ClientConfig struct {
	Server  string `toml:"server" envconfig:"server"`
	OwnerID string `toml:"owner_id" envconfig:"owner_id"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":8888",
			ReadTimeout:    "15s",
			WriteTimeout:   "15s",
			RequestTimeout: "30s",
			RateLimit:      600,
		},
		Database: DatabaseConfig{Path: "bookkeeper.db"},
		Cache:    CacheConfig{TTL: "5m"},
		Log:      LogConfig{Level: "info", Format: "console"},
		Client:   ClientConfig{Server: "http://localhost:8888"},
	}
}

// Load applies, in order, the defaults, each existing file in paths, and the
// environment. Missing files are skipped.
func Load(paths ...string) (*Config, error) {
	cfg := Default()
	for _, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	for name, v := range map[string]string{
		"server.read_timeout":    c.Server.ReadTimeout,
		"server.write_timeout":   c.Server.WriteTimeout,
		"server.request_timeout": c.Server.RequestTimeout,
		"cache.ttl":              c.Cache.TTL,
	} {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if c.Server.RateLimit < 0 {
		return errors.New("server.rate_limit must not be negative")
	}
	if c.Database.Path == "" {
		return errors.New("database.path is required")
	}
	return nil
}

func duration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func (c ServerConfig) ReadTimeoutDuration() time.Duration {
	return duration(c.ReadTimeout, 15*time.Second)
}

func (c ServerConfig) WriteTimeoutDuration() time.Duration {
	return duration(c.WriteTimeout, 15*time.Second)
}

func (c ServerConfig) RequestTimeoutDuration() time.Duration {
	return duration(c.RequestTimeout, 30*time.Second)
}

func (c CacheConfig) TTLDuration() time.Duration {
	return duration(c.TTL, 5*time.Minute)
}
