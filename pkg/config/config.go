// Package config loads sqlscope-engine configuration from YAML and
// environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/sqlscope-inc/sqlscope-engine/pkg/adapters/datasource"
)

// Config holds all configuration for sqlscope-engine.
// Configuration can come from a YAML file (config.yaml) or environment
// variables. Environment variables always override YAML values. Secrets
// (passwords) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8090"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Target database engine
	Engine datasource.EngineConfig `yaml:"engine"`

	// Query safety and caching
	Query QueryConfig `yaml:"query"`
}

// QueryConfig tunes the safe-query pipeline.
type QueryConfig struct {
	// CacheTTL is how long identical query results are reused.
	CacheTTL time.Duration `yaml:"cache_ttl" env:"QUERY_CACHE_TTL" env-default:"60s"`

	// CacheSize is the soft bound on cached entries.
	CacheSize int `yaml:"cache_size" env:"QUERY_CACHE_SIZE" env-default:"100"`

	// SlowQueryThreshold triggers optimization suggestions.
	SlowQueryThreshold time.Duration `yaml:"slow_query_threshold" env:"SLOW_QUERY_THRESHOLD" env-default:"1s"`

	// Timeout bounds each adapter execution. Zero disables the deadline.
	Timeout time.Duration `yaml:"timeout" env:"QUERY_TIMEOUT" env-default:"30s"`
}

// Load reads config.yaml if present, then applies environment overrides.
func Load(version string) (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("read environment: %w", err)
		}
	}

	cfg.Version = version
	if err := cfg.Engine.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	return cfg, nil
}
