// Package config handles loading and validating application configuration.
//
// Values come from an optional YAML file and from the environment; an
// environment variable always wins over the file. Without a file every
// field falls back to its env-default, which is how the service runs
// inside a container.
package config

import (
	"net"
	"os"
	"strconv"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/juju/errors"
)

// Storage drivers understood by backend.Open.
const (
	DriverSQLite   = "sqlite"
	DriverGorm     = "gorm"
	DriverPostgres = "postgres"
)

// Config is the root configuration structure.
type Config struct {
	// Env selects the log format and verbosity: "dev", "staging" or "prod".
	Env string `yaml:"env" env:"ENV" env-default:"dev"`

	Storage    Storage    `yaml:"storage"`
	HTTPServer HTTPServer `yaml:"http_server"`
}

// Storage selects and locates the backing database.
type Storage struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"gorm"`
	// Path is the sqlite database file, used by the sqlite and gorm drivers.
	Path string `yaml:"path" env:"DB_PATH" env-default:"students.db"`
	// DSN is the postgres connection string.
	DSN string `yaml:"dsn" env:"DATABASE_URL"`
}

// HTTPServer holds settings specific to the HTTP server.
type HTTPServer struct {
	Host            string        `yaml:"host" env:"HOST" env-default:"0.0.0.0"`
	Port            int           `yaml:"port" env:"PORT" env-default:"8000"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"10s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

// Addr is the TCP address the server listens on.
func (h HTTPServer) Addr() string {
	return net.JoinHostPort(h.Host, strconv.Itoa(h.Port))
}

// Load reads the config file at path, if any, applies the environment on
// top and validates the result. An empty path reads the environment only.
func Load(path string) (*Config, error) {
	var cfg Config

	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, errors.Annotate(err, "cannot read environment")
		}
	} else {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, errors.NotFoundf("config file %q", path)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, errors.Annotatef(err, "cannot read config %q", path)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &cfg, nil
}

// Validate checks values cleanenv cannot check by itself.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverSQLite, DriverGorm:
		if c.Storage.Path == "" {
			return errors.NotValidf("empty storage path for driver %q", c.Storage.Driver)
		}
	case DriverPostgres:
		if c.Storage.DSN == "" {
			return errors.NotValidf("empty dsn for driver %q", c.Storage.Driver)
		}
	default:
		return errors.NotSupportedf("storage driver %q", c.Storage.Driver)
	}

	if c.HTTPServer.Port < 1 || c.HTTPServer.Port > 65535 {
		return errors.NotValidf("port %d", c.HTTPServer.Port)
	}
	return nil
}
