package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
		Mode string `yaml:"mode"`
	} `yaml:"server"`

	Store struct {
		Driver string `yaml:"driver"`
		Path   string `yaml:"path"`
		DSN    string `yaml:"dsn"`
	} `yaml:"store"`

	Session struct {
		Secret string `yaml:"secret"`
	} `yaml:"session"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Token   string `yaml:"token"`
	} `yaml:"metrics"`

	Tracing struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"tracing"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// Load reads the optional YAML file at path, then applies environment
// overrides. A .env file in the working directory is honored first.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	setDefaults(cfg)

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnv(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.Server.Port = "8080"
	cfg.Server.Mode = "development"

	cfg.Store.Driver = DriverFile
	cfg.Store.Path = "course_catalog.json"

	cfg.Session.Secret = "secret"

	cfg.Logging.Level = "info"
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Port, "PORT")
	setString(&cfg.Server.Mode, "SERVER_MODE")
	setString(&cfg.Store.Driver, "STORE_DRIVER")
	setString(&cfg.Store.Path, "STORE_PATH")
	setString(&cfg.Store.DSN, "STORE_DSN")
	setString(&cfg.Session.Secret, "SESSION_SECRET")
	setBool(&cfg.Metrics.Enabled, "METRICS_ENABLED")
	setString(&cfg.Metrics.Token, "METRICS_TOKEN")
	setBool(&cfg.Tracing.Enabled, "TRACING_ENABLED")
	setString(&cfg.Logging.Level, "LOG_LEVEL")
}

func validate(cfg *Config) error {
	switch cfg.Store.Driver {
	case DriverFile:
		if cfg.Store.Path == "" {
			return fmt.Errorf("store path is required for the file driver")
		}
	case DriverPostgres:
		if cfg.Store.DSN == "" {
			return fmt.Errorf("store dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	if cfg.Session.Secret == "" {
		return fmt.Errorf("session secret is required")
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	switch os.Getenv(key) {
	case "1", "true", "yes":
		*dst = true
	case "0", "false", "no":
		*dst = false
	}
}
