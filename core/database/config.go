package database

import (
	"fmt"
	"strings"
)

const (
	// DriverPostgres selects the postgres backend.
	DriverPostgres = "postgres"
	// DriverSQLite selects the embedded sqlite backend.
	DriverSQLite = "sqlite"
)

// Config holds database connection settings.
type Config struct {
	Driver string `yaml:"driver" envconfig:"DB_DRIVER"`

	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`

	// Path is the sqlite database file location.
	Path string `yaml:"path" envconfig:"DB_PATH"`
}

// Normalize validates driver selection and the fields it requires.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil database config")
	}
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" {
		driver = DriverPostgres
	}
	switch driver {
	case DriverPostgres:
		if cfg.Host == "" || cfg.Name == "" || cfg.User == "" {
			return fmt.Errorf("database host, name and user are required for postgres")
		}
		if cfg.SSLMode == "" {
			cfg.SSLMode = "disable"
		}
		if cfg.MaxConnections <= 0 {
			cfg.MaxConnections = 4
		}
	case DriverSQLite:
		if strings.TrimSpace(cfg.Path) == "" {
			return fmt.Errorf("database.path is required for sqlite")
		}
	default:
		return fmt.Errorf("invalid database.driver %q; allowed: postgres, sqlite", cfg.Driver)
	}
	cfg.Driver = driver
	return nil
}
