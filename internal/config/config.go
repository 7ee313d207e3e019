// Package config handles loading and parsing application configuration.
// It supports two sources for the file path (in priority order):
//  1. An environment variable:  CONFIG_PATH=/path/to/config.yaml
//  2. A command-line flag:      --config=/path/to/config.yaml
//
// When neither is given the configuration is built from environment
// variables and the env-default tags alone, which reproduces the
// historical hard-coded setup (port 8080, MySQL on 127.0.0.1:3306/test).
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
)

// Supported values for Storage.Driver.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Supported values for Response.Format.
const (
	FormatJSON   = "json"
	FormatLegacy = "legacy"
)

// Config is the root configuration structure.
// Every field maps to a key in the YAML file AND can be overridden
// by the corresponding environment variable (env:"...").
type Config struct {
	// Env controls log format and verbosity.
	Env string `yaml:"env" env:"ENV" env-default:"dev" validate:"oneof=dev staging prod"`

	// WebRoot is the directory served for every GET that no other route matches.
	WebRoot string `yaml:"web_root" env:"WEB_ROOT" env-default:"web" validate:"required"`

	HTTPServer HTTPServer `yaml:"http_server"`
	Storage    Storage    `yaml:"storage"`
	Workers    Workers    `yaml:"workers"`
	Response   Response   `yaml:"response"`
	Log        Log        `yaml:"log"`
	Metrics    Metrics    `yaml:"metrics"`
}

// HTTPServer holds settings specific to the HTTP server.
type HTTPServer struct {
	// Addr is the TCP address the server listens on, e.g. ":8080".
	Addr            string        `yaml:"address" env:"HTTP_SERVER_ADDR" env-default:":8080" validate:"required"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"0s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

// Storage describes the database behind the student table.
//
// Host/Port/Schema/User/Password are only read by the mysql driver,
// Path only by the sqlite driver.
type Storage struct {
	Driver   string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"mysql" validate:"oneof=mysql sqlite"`
	Host     string `yaml:"host" env:"DB_HOST" env-default:"127.0.0.1"`
	Port     int    `yaml:"port" env:"DB_PORT" env-default:"3306"`
	Schema   string `yaml:"schema" env:"DB_SCHEMA" env-default:"test"`
	User     string `yaml:"user" env:"DB_USER" env-default:"root"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	Path     string `yaml:"path" env:"STORAGE_PATH" env-default:"storage/student.db"`

	MaxOpenConns   int  `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"10" validate:"gte=1"`
	ConnectRetries uint `yaml:"connect_retries" env:"DB_CONNECT_RETRIES" env-default:"3"`
	// SkipMigrations stops serve from applying pending migrations at start-up.
	SkipMigrations bool `yaml:"skip_migrations" env:"DB_SKIP_MIGRATIONS"`
}

// Workers bounds the background queries issued by GET /mysql.
type Workers struct {
	Size int `yaml:"size" env:"WORKERS_SIZE" env-default:"4" validate:"gte=1"`
}

// Response selects the body shape of student records.
type Response struct {
	Format string `yaml:"format" env:"RESPONSE_FORMAT" env-default:"json" validate:"oneof=json legacy"`
}

// Log configures an optional rotating log file next to stdout.
type Log struct {
	File       string `yaml:"file" env:"LOG_FILE"`
	MaxSizeMB  int    `yaml:"max_size_mb" env:"LOG_MAX_SIZE_MB" env-default:"100"`
	MaxBackups int    `yaml:"max_backups" env:"LOG_MAX_BACKUPS" env-default:"3"`
	MaxAgeDays int    `yaml:"max_age_days" env:"LOG_MAX_AGE_DAYS" env-default:"28"`
}

// Metrics controls the Prometheus endpoint.
type Metrics struct {
	Disabled bool   `yaml:"disabled" env:"METRICS_DISABLED"`
	Path     string `yaml:"path" env:"METRICS_PATH" env-default:"/metrics"`
}

// Load reads the configuration from path (YAML + environment) or, when
// path is empty, from the environment alone. The result is validated.
func Load(path string) (*Config, error) {
	var cfg Config

	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	} else {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: file does not exist: %s", path)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Path resolves the config file location: CONFIG_PATH wins over the flag value.
func Path(flagValue string) string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return flagValue
}

// Validate checks the validate:"..." tags of the whole tree.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: invalid: %w", err)
	}
	return nil
}
