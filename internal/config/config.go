// Package config loads relay and companion settings from an optional YAML file and
// the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultPath is read when Load is given an empty path.
const DefaultPath = "config.yaml"

const envPrefix = "JUDGE0_"

// Storage backend names.
const (
	StorageMemory  = "memory"
	StorageSQLite  = "sqlite"
	StorageRedis   = "redis"
	StorageKeyring = "keyring"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Upstream  UpstreamConfig  `koanf:"upstream"`
	Relay     RelayConfig     `koanf:"relay"`
	Storage   StorageConfig   `koanf:"storage"`
	Client    ClientConfig    `koanf:"client"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

type ServerConfig struct {
	Port           int           `koanf:"port"`
	StaticDir      string        `koanf:"static_dir"`
	DebugErrors    bool          `koanf:"debug_errors"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

// UpstreamConfig describes the aggregator the relay forwards to.
type UpstreamConfig struct {
	APIKey   string `koanf:"api_key"`
	BaseURL  string `koanf:"base_url"`
	SiteURL  string `koanf:"site_url"`
	SiteName string `koanf:"site_name"`
}

type RelayConfig struct {
	DefaultModel string            `koanf:"default_model"` // upstream model for unmapped ids
	Models       map[string]string `koanf:"models"`        // provider id -> upstream model overrides
}

type StorageConfig struct {
	Type    string        `koanf:"type"` // memory, sqlite, redis, keyring
	SQLite  SQLiteConfig  `koanf:"sqlite"`
	Redis   RedisConfig   `koanf:"redis"`
	Keyring KeyringConfig `koanf:"keyring"`
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

type KeyringConfig struct {
	Service string `koanf:"service"`
}

// ClientConfig is used by the companion command.
type ClientConfig struct {
	RelayURL string `koanf:"relay_url"`
}

type TelemetryConfig struct {
	Enabled bool `koanf:"enabled"`
}

var defaults = map[string]any{
	"server.port":             3000,
	"server.request_timeout":  60 * time.Second,
	"upstream.base_url":       "https://openrouter.ai/api/v1",
	"upstream.site_name":      "Judge0 IDE",
	"relay.default_model":     "openai/gpt-4o-mini",
	"storage.type":            StorageMemory,
	"storage.sqlite.path":     "./data/credentials.db",
	"storage.redis.addr":      "localhost:6379",
	"storage.keyring.service": "judge0-llm",
	"client.relay_url":        "http://localhost:3000/api",
}

// legacyEnv maps the variables the relay has always honoured to config keys. They
// apply only when neither the file nor a JUDGE0_ variable set the key.
var legacyEnv = map[string]string{
	"OPENROUTER_API_KEY": "upstream.api_key",
	"PORT":               "server.port",
	"SITE_URL":           "upstream.site_url",
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads path (DefaultPath when empty), then JUDGE0_-prefixed environment variables
// with "__" separating sections, e.g. JUDGE0_SERVER__PORT. A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	for name, key := range legacyEnv {
		if v, ok := os.LookupEnv(name); ok && v != "" && !k.Exists(key) {
			k.Set(key, v)
		}
	}

	for key, v := range defaults {
		if !k.Exists(key) {
			k.Set(key, v)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.Upstream.APIKey = substituteEnvVars(cfg.Upstream.APIKey)
	cfg.Storage.Redis.Password = substituteEnvVars(cfg.Storage.Redis.Password)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server.request_timeout must be positive")
	}
	switch c.Storage.Type {
	case StorageMemory, StorageSQLite, StorageRedis, StorageKeyring:
	default:
		return fmt.Errorf("unknown storage.type %q", c.Storage.Type)
	}
	if c.Storage.Type == StorageSQLite && c.Storage.SQLite.Path == "" {
		return fmt.Errorf("storage.sqlite.path is required")
	}
	return nil
}

func substituteEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}
