package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Store StoreConfig `yaml:"store"`
	HTTP  HTTPConfig  `yaml:"http"`
	Log   LogConfig   `yaml:"log"`
}

type StoreConfig struct {
	Dir      string `yaml:"dir"`      // Directory holding database files
	Database string `yaml:"database"` // Database name used by the demo app
	Version  uint64 `yaml:"version"`  // Schema version the demo app opens at
}

type HTTPConfig struct {
	Port string `yaml:"port"` // Port to listen on
}

type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// LoadDefault builds the configuration from environment variables, reading an
// optional .env file first.
func LoadDefault() (*Config, error) {
	// Missing .env files are fine; real env vars win either way.
	_ = godotenv.Load()

	cfg := &Config{
		Store: StoreConfig{
			Dir:      getEnv("SHELF_STORE_DIR", "./data"),
			Database: getEnv("SHELF_DATABASE", "shelf"),
			Version:  1,
		},
		HTTP: HTTPConfig{
			Port: getEnv("SHELF_HTTP_PORT", "8080"),
		},
		Log: LogConfig{
			Level: getEnv("SHELF_LOG_LEVEL", "info"),
		},
	}
	if v, ok := os.LookupEnv("SHELF_SCHEMA_VERSION"); ok {
		version, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse SHELF_SCHEMA_VERSION: %w", err)
		}
		cfg.Store.Version = version
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads a YAML configuration file. Environment variables are not
// consulted; the file stands alone.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	if cfg.Store.Version == 0 {
		cfg.Store.Version = 1
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fields every component relies on.
func (c *Config) Validate() error {
	if c.Store.Dir == "" {
		return fmt.Errorf("store dir must not be empty")
	}
	if c.Store.Database == "" {
		return fmt.Errorf("database name must not be empty")
	}
	if c.Store.Version == 0 {
		return fmt.Errorf("schema version must be at least 1")
	}
	if c.HTTP.Port == "" {
		return fmt.Errorf("http port must not be empty")
	}
	if _, err := strconv.Atoi(c.HTTP.Port); err != nil {
		return fmt.Errorf("http port must be numeric: %w", err)
	}
	return nil
}

// getEnv returns the value of the environment variable key if it exists,
// otherwise the fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
