// Package config handles loading and parsing application configuration.
// It supports two sources for the config file path (in priority order):
//  1. An environment variable:  CONFIG_PATH=/path/to/config.yaml
//  2. A command-line flag:      --config=/path/to/config.yaml
//
// Every value in the file can be overridden by an environment variable,
// and a .env file in the working directory (if present) is loaded into
// the environment first.
package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Storage backend names accepted in storage.backend.
const (
	BackendMongo  = "mongo"
	BackendSQLite = "sqlite"
)

// Config is the root configuration structure.
// Every field maps to a key in the YAML file AND can be overridden
// by the corresponding environment variable (env:"...").
type Config struct {
	// Env controls log format and verbosity.
	// Valid values: "dev", "staging", "prod"
	Env string `yaml:"env" env:"ENV" env-default:"dev"`

	HTTPServer `yaml:"http_server"`

	Storage Storage `yaml:"storage"`
}

// HTTPServer holds settings specific to the HTTP server.
// Nested under http_server: in the YAML file.
type HTTPServer struct {
	// Addr is the TCP address the server listens on, e.g. "0.0.0.0:10000".
	Addr string `yaml:"address" env:"HTTP_SERVER_ADDR" env-default:"0.0.0.0:10000"`
}

// Storage selects and configures the document store.
type Storage struct {
	// Backend is "mongo" or "sqlite".
	Backend string `yaml:"backend" env:"STORAGE_BACKEND" env-default:"mongo"`

	// MongoURI and Database are used by the mongo backend.
	MongoURI string `yaml:"mongodb_uri" env:"MONGODB_URI"`
	Database string `yaml:"database"    env:"DATABASE_NAME"`

	// Collection is the name of the students collection (or table).
	Collection string `yaml:"collection" env:"STUDENTS_COLLECTION" env-default:"students"`

	// Path is the SQLite database file used by the sqlite backend.
	Path string `yaml:"storage_path" env:"STORAGE_PATH"`

	// Timeout bounds connecting to the backend at startup.
	Timeout time.Duration `yaml:"timeout" env:"STORAGE_TIMEOUT" env-default:"10s"`
}

// Validate reports configuration combinations cleanenv cannot express
// with struct tags alone.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMongo:
		if c.Storage.MongoURI == "" {
			return errors.New("storage.mongodb_uri (MONGODB_URI) is required for the mongo backend")
		}
		if c.Storage.Database == "" {
			return errors.New("storage.database (DATABASE_NAME) is required for the mongo backend")
		}
	case BackendSQLite:
		if c.Storage.Path == "" {
			return errors.New("storage.storage_path (STORAGE_PATH) is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q (supported: %s, %s)",
			c.Storage.Backend, BackendMongo, BackendSQLite)
	}
	return nil
}

// Load reads the config. An empty path means "environment only": every
// value comes from env vars and env-default tags.
func Load(path string) (*Config, error) {
	var cfg Config

	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config.Load: read env: %w", err)
		}
	} else {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config.Load: config file: %w", err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: read config: %w", err)
		}
	}

	// Hosting platforms commonly hand the service a bare PORT.
	if port := os.Getenv("PORT"); port != "" && os.Getenv("HTTP_SERVER_ADDR") == "" {
		cfg.HTTPServer.Addr = net.JoinHostPort("0.0.0.0", port)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return &cfg, nil
}

// MustLoad resolves the config path, reads and validates the config, and
// exits the process if anything is wrong.
//
// Without CONFIG_PATH or --config the service still starts, configured
// purely from the environment (MONGODB_URI, DATABASE_NAME, ...).
func MustLoad() *Config {
	// A missing .env file is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("cannot load .env: %s", err.Error())
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		flags := flag.String("config", "", "Path to the configuration YAML file")
		flag.Parse()
		configPath = *flags
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot load config: %s", err.Error())
	}

	return cfg
}
