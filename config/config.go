package config

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file settings.
const (
	EnvAPIKey     = "TWELVE_DATA_API_KEY"
	EnvDBPath     = "ARENA_DB_PATH"
	EnvListenAddr = "ARENA_LISTEN_ADDR"
	EnvLogLevel   = "ARENA_LOG_LEVEL"
)

// Config represents the complete service configuration
type Config struct {
	Server   ServerConfig   `json:"server" yaml:"server"`
	Database DatabaseConfig `json:"database" yaml:"database"`
	Pricing  PricingConfig  `json:"pricing" yaml:"pricing"`
	Engine   EngineConfig   `json:"engine" yaml:"engine"`
	Log      LogConfig      `json:"log" yaml:"log"`
}

// ServerConfig controls the HTTP listener
type ServerConfig struct {
	ListenAddr string `json:"listen_addr" yaml:"listen_addr" validate:"required"`
	Metrics    bool   `json:"metrics" yaml:"metrics"`
}

type DatabaseConfig struct {
	Path string `json:"path" yaml:"path" validate:"required"`
}

// PricingConfig configures the upstream quote provider and the price cache
type PricingConfig struct {
	BaseURL       string `json:"base_url" yaml:"base_url" validate:"omitempty,url"`
	APIKey        string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	CacheTTL      string `json:"cache_ttl" yaml:"cache_ttl"` // e.g. "15s"
	Timeout       string `json:"timeout" yaml:"timeout"`
	RatePerMinute int    `json:"rate_per_minute" yaml:"rate_per_minute" validate:"gte=0"`
	MaxRetries    int    `json:"max_retries" yaml:"max_retries" validate:"gte=0,lte=10"`
}

// EngineConfig controls the scheduled mark-to-market loop inside serve.
type EngineConfig struct {
	// Interval between passes; empty or "0" leaves scheduling to an
	// external trigger hitting the HTTP route.
	Interval      string `json:"interval" yaml:"interval"`
	RefreshPrices bool   `json:"refresh_prices" yaml:"refresh_prices"`
}

type LogConfig struct {
	Level string `json:"level" yaml:"level" validate:"oneof=debug info warn error"`
}

// CacheTTLDuration converts the cache TTL string to time.Duration
func (p PricingConfig) CacheTTLDuration() (time.Duration, error) {
	return parseDuration(p.CacheTTL)
}

func (p PricingConfig) TimeoutDuration() (time.Duration, error) {
	return parseDuration(p.Timeout)
}

func (e EngineConfig) IntervalDuration() (time.Duration, error) {
	return parseDuration(e.Interval)
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

// LoadFromFile loads configuration from a file (JSON or YAML)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (YAML for .yaml/.yml, JSON otherwise)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// ApplyEnv loads envFile (if present) into the process environment and
// overlays the recognised variables on c. Variables already set in the
// environment win over the file.
func (c *Config) ApplyEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load env file: %w", err)
		}
	}

	if v := os.Getenv(EnvAPIKey); v != "" {
		c.Pricing.APIKey = v
	}
	if v := os.Getenv(EnvDBPath); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv(EnvListenAddr); v != "" {
		c.Server.ListenAddr = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	return nil
}

var validate = validator.New()

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if stderrors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%s failed %q validation", strings.ToLower(fe.Namespace()), fe.Tag())
		}
		return err
	}

	ttl, err := c.Pricing.CacheTTLDuration()
	if err != nil {
		return fmt.Errorf("pricing.cache_ttl: %w", err)
	}
	if ttl < 0 {
		return fmt.Errorf("pricing.cache_ttl must not be negative")
	}
	if _, err := c.Pricing.TimeoutDuration(); err != nil {
		return fmt.Errorf("pricing.timeout: %w", err)
	}
	interval, err := c.Engine.IntervalDuration()
	if err != nil {
		return fmt.Errorf("engine.interval: %w", err)
	}
	if interval < 0 {
		return fmt.Errorf("engine.interval must not be negative")
	}
	if interval > 0 && interval < time.Second {
		return fmt.Errorf("engine.interval must be at least 1s")
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr: ":8080",
			Metrics:    true,
		},
		Database: DatabaseConfig{
			Path: "./arena.sqlite",
		},
		Pricing: PricingConfig{
			BaseURL:       "https://api.twelvedata.com",
			CacheTTL:      "15s",
			Timeout:       "10s",
			RatePerMinute: 8,
			MaxRetries:    3,
		},
		Engine: EngineConfig{
			Interval: "",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
