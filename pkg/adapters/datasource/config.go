package datasource

import "fmt"

// EngineConfig holds the connection parameters for one engine. Immutable
// after adapter construction.
type EngineConfig struct {
	Engine   string `yaml:"engine" env:"DB_ENGINE" env-default:"mysql"`
	Host     string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"DB_PORT" env-default:"0"` // 0 = engine default
	User     string `yaml:"user" env:"DB_USER"`
	Password string `yaml:"-" env:"DB_PASSWORD"` // Secret - not in YAML
	Database string `yaml:"database" env:"DB_DATABASE"`
	PoolSize int    `yaml:"pool_size" env:"DB_POOL_SIZE" env-default:"10"`
}

// Validate checks the fields every engine requires. Engines apply their own
// defaults for Port when it is zero.
func (c *EngineConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.Database == "" {
		return fmt.Errorf("database is required")
	}
	if c.PoolSize <= 0 {
		c.PoolSize = 10
	}
	return nil
}
