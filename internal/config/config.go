// Package config reads the service configuration from the environment.
package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Tracing  TracingConfig
	Store    StoreConfig
	Content  ContentConfig
	Postgres PostgresConfig
}

type ServerConfig struct {
	Addr         string        `env:"CONTENTQL_ADDR" envDefault:":8080"`
	Timeout      time.Duration `env:"CONTENTQL_TIMEOUT" envDefault:"10s"`
	Pretty       bool          `env:"CONTENTQL_PRETTY"`
	MaxBodyBytes int64         `env:"CONTENTQL_MAX_BODY_BYTES" envDefault:"1048576"`
	CORSOrigins  []string      `env:"CONTENTQL_CORS_ORIGINS" envSeparator:","`
	MetricsPath  string        `env:"CONTENTQL_METRICS_PATH" envDefault:"/metrics"`
}

type LogConfig struct {
	Level       string `env:"CONTENTQL_LOG_LEVEL" envDefault:"info"`
	Development bool   `env:"CONTENTQL_LOG_DEV"`
}

type TracingConfig struct {
	Endpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Service  string `env:"OTEL_SERVICE_NAME" envDefault:"contentql"`
}

type StoreConfig struct {
	// Driver is memory or postgres.
	Driver string `env:"CONTENTQL_STORE" envDefault:"memory"`
	// SeedPath replaces the built-in seed of the memory store.
	SeedPath string `env:"CONTENTQL_SEED"`
}

type ContentConfig struct {
	SchemaPath string `env:"CONTENTQL_SCHEMA"`
	ModelPath  string `env:"CONTENTQL_MODEL"`
}

type PostgresConfig struct {
	DSN             string        `env:"CONTENTQL_POSTGRES_DSN"`
	MaxConn         int           `env:"CONTENTQL_POSTGRES_MAX_CONN"`
	MaxIdleConn     int           `env:"CONTENTQL_POSTGRES_MAX_IDLE_CONN"`
	ConnMaxLifetime time.Duration `env:"CONTENTQL_POSTGRES_CONN_MAX_LIFETIME"`
	AutoMigrate     bool          `env:"CONTENTQL_POSTGRES_AUTO_MIGRATE" envDefault:"true"`
}

// Load reads envFiles (default .env) when present and parses the
// environment into a Config.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, errors.Wrapf(err, "load %s", f)
		}
	}
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "parse environment")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "memory":
	case "postgres":
		if c.Postgres.DSN == "" {
			return errors.New("CONTENTQL_POSTGRES_DSN is required for the postgres store")
		}
	default:
		return errors.Errorf("unknown store driver %q", c.Store.Driver)
	}
	return nil
}
