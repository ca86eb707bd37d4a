/*
Package config loads the server and report configuration.

PURPOSE:
  One Config value describes where the five source tables come from, how
  issue dates are written, where the region boundaries live, and how the
  HTTP server and logger behave.

LOAD ORDER (later wins):
  1. Default()
  2. Optional YAML file
  3. Environment variables, prefix LOANS_ (e.g. LOANS_SERVER_PORT,
     LOANS_DATA_KIND, LOANS_DATA_TABLES="loans:loan_2021,reasons:reason_codes")
  4. Command-line flags (Overrides, applied by cmd/server and cmd/report)

  Validate runs once, after the flags: a file may name kind csv and leave
  the path to -data.

EXAMPLE FILE:
  server:
    port: 8080
    allowed_origins: ["http://localhost:3000"]
  data:
    kind: csv
    path: ./data
    date_layout: "2006-01-02"
    geojson: ./data/us-states.geojson
  logging:
    level: debug
    development: true

SEE ALSO:
  - cmd/server/main.go: Flag overrides
  - source/source.go: Table names the Data.Tables overrides apply to
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/warp/loan-insights/loan"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "LOANS"

// Source kinds.
const (
	KindCSV    = "csv"
	KindXLSX   = "xlsx"
	KindSQLite = "sqlite"
	KindSample = "sample"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete application configuration.
// Leaf fields carry no envconfig tag: envconfig also looks a tag up without
// the prefix, and PATH or PORT must not leak in from the process environment.
type Config struct {
	Server  ServerConfig  `yaml:"server" envconfig:"SERVER"`
	Data    DataConfig    `yaml:"data" envconfig:"DATA"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout" split_words:"true"`
	WriteTimeout    time.Duration `yaml:"write_timeout" split_words:"true"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" split_words:"true"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" split_words:"true"`
	AllowedOrigins  []string      `yaml:"allowed_origins" split_words:"true"`
}

// DataConfig describes the data sources.
type DataConfig struct {
	Kind       string            `yaml:"kind"`
	Path       string            `yaml:"path"`
	Tables     map[string]string `yaml:"tables"`
	DateLayout string            `yaml:"date_layout" split_words:"true"`
	GeoJSON    string            `yaml:"geojson"`
	Schema     loan.Schema       `yaml:"schema" ignored:"true"`

	// RefreshInterval rebuilds the fact table periodically; 0 disables it.
	RefreshInterval time.Duration `yaml:"refresh_interval" split_words:"true"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the configuration used when nothing else is given: the
// built-in sample dataset served on :8080.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			AllowedOrigins:  []string{"*"},
		},
		Data: DataConfig{
			Kind:       KindSample,
			DateLayout: loan.DefaultDateLayout,
			Schema:     loan.DefaultSchema(),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load builds a Config from the defaults, the YAML file at path (skipped
// when path is empty) and the environment. The result is not validated;
// apply Overrides first, then call Validate.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("load config from env: %w", err)
	}

	cfg.Data.Schema = cfg.Data.Schema.WithDefaults()
	return cfg, nil
}

// Overrides are the command-line settings that win over file and
// environment. Zero fields leave the loaded value alone.
type Overrides struct {
	Port    int
	Kind    string
	Path    string
	GeoJSON string
}

// With returns c with the non-zero fields of o applied.
func (c Config) With(o Overrides) Config {
	if o.Port != 0 {
		c.Server.Port = o.Port
	}
	if o.Kind != "" {
		c.Data.Kind = o.Kind
	}
	if o.Path != "" {
		c.Data.Path = o.Path
	}
	if o.GeoJSON != "" {
		c.Data.GeoJSON = o.GeoJSON
	}
	return c
}

// Validate rejects configurations the server cannot start with.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	switch c.Data.Kind {
	case KindSample:
	case KindCSV, KindXLSX, KindSQLite:
		if c.Data.Path == "" {
			return fmt.Errorf("%w: data.path is required for kind %q", ErrInvalidConfig, c.Data.Kind)
		}
	default:
		return fmt.Errorf("%w: unknown data.kind %q", ErrInvalidConfig, c.Data.Kind)
	}
	if c.Data.RefreshInterval < 0 {
		return fmt.Errorf("%w: data.refresh_interval is negative", ErrInvalidConfig)
	}
	if c.Data.DateLayout == "" {
		return fmt.Errorf("%w: data.date_layout is empty", ErrInvalidConfig)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown logging.level %q", ErrInvalidConfig, c.Logging.Level)
	}
	return nil
}

// Addr returns the listen address of the HTTP server.
func (c Config) Addr() string { return fmt.Sprintf(":%d", c.Server.Port) }
