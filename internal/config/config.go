// Package config loads repertoire settings from defaults, an optional YAML
// file, .env files and REPERTOIRE_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/repertoire/internal/practice"
)

// Config is the complete application configuration.
type Config struct {
	DB     DBConfig     `yaml:"db"`
	Log    LogConfig    `yaml:"log"`
	HTTP   HTTPConfig   `yaml:"http"`
	Token  TokenConfig  `yaml:"token"`
	Engine EngineConfig `yaml:"engine"`
}

// DBConfig locates the SQLite database.
type DBConfig struct {
	Path string `yaml:"path"` // empty = $XDG_DATA_HOME/repertoire/repertoire.db
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or text
}

// HTTPConfig configures `repertoire serve`.
type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// TokenConfig configures caller tokens.
type TokenConfig struct {
	Secret string        `yaml:"secret"`
	TTL    time.Duration `yaml:"ttl"`
}

// EngineConfig tunes the aggregation engine's storage behavior.
type EngineConfig struct {
	StoreTimeout       time.Duration        `yaml:"store_timeout"`
	MaxConflictRetries int                  `yaml:"max_conflict_retries"`
	Retry              practice.RetryConfig `yaml:"retry"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		HTTP: HTTPConfig{
			Addr:            "127.0.0.1:8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Token: TokenConfig{
			TTL: 24 * time.Hour,
		},
		Engine: EngineConfig{
			StoreTimeout:       practice.DefaultStoreTimeout,
			MaxConflictRetries: practice.DefaultMaxConflictRetries,
			Retry:              practice.DefaultRetryConfig(),
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/repertoire/config.yaml, falling back
// to ~/.config when XDG_CONFIG_HOME is unset.
func DefaultPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "repertoire", "config.yaml")
}

// Load reads the config file at path (DefaultPath when empty), then .env
// from the working directory, then environment overrides. A missing file is
// only an error when path was given explicitly.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			cfg = DefaultConfig()
		} else {
			return nil, err
		}
	}

	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromFile decodes a YAML file over the defaults. Keys absent from the
// file keep their default value.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDotEnv loads each existing file into the process environment.
// Variables already set are not overwritten; missing files are skipped.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnvOverrides applies REPERTOIRE_* environment variables.
func (c *Config) ApplyEnvOverrides() error {
	if v := os.Getenv("REPERTOIRE_DB"); v != "" {
		c.DB.Path = v
	}
	if v := os.Getenv("REPERTOIRE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("REPERTOIRE_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv("REPERTOIRE_HTTP_ADDR"); v != "" {
		c.HTTP.Addr = v
	}
	if v := os.Getenv("REPERTOIRE_TOKEN_SECRET"); v != "" {
		c.Token.Secret = v
	}
	if err := envDuration("REPERTOIRE_TOKEN_TTL", &c.Token.TTL); err != nil {
		return err
	}
	if err := envDuration("REPERTOIRE_STORE_TIMEOUT", &c.Engine.StoreTimeout); err != nil {
		return err
	}
	if v := os.Getenv("REPERTOIRE_MAX_CONFLICT_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REPERTOIRE_MAX_CONFLICT_RETRIES: %w", err)
		}
		c.Engine.MaxConflictRetries = n
	}
	return nil
}

func envDuration(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if !isValidLogLevel(c.Log.Level) {
		return fmt.Errorf("log.level must be debug, info, warn, or error (got: %s)", c.Log.Level)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("log.format must be json or text (got: %s)", c.Log.Format)
	}
	if c.HTTP.Addr == "" {
		return errors.New("http.addr must not be empty")
	}
	if c.Token.TTL <= 0 {
		return errors.New("token.ttl must be > 0")
	}
	if c.Engine.StoreTimeout < 0 {
		return errors.New("engine.store_timeout must be >= 0")
	}
	if c.Engine.MaxConflictRetries < 0 {
		return errors.New("engine.max_conflict_retries must be >= 0")
	}
	r := c.Engine.Retry
	if r.MaxAttempts < 1 {
		return errors.New("engine.retry.max_attempts must be >= 1")
	}
	if r.InitialWait < 0 || r.MaxWait < r.InitialWait {
		return errors.New("engine.retry waits must satisfy 0 <= initial_wait <= max_wait")
	}
	if r.Multiplier < 1 {
		return errors.New("engine.retry.multiplier must be >= 1")
	}
	return nil
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// EngineOptions converts the engine settings into practice options.
func (c *Config) EngineOptions() []practice.Option {
	return []practice.Option{
		practice.WithStoreTimeout(c.Engine.StoreTimeout),
		practice.WithMaxConflictRetries(c.Engine.MaxConflictRetries),
		practice.WithRetry(c.Engine.Retry),
	}
}
