// Package config defines the application configuration and loads it from
// a YAML file with environment overrides.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Configuration holds all configuration for the mission-control server.
type Configuration struct {
	Server   ServerConfig   `yaml:"server,omitempty"`
	Database DatabaseConfig `yaml:"database,omitempty"`
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
	Capacity CapacityConfig `yaml:"capacity,omitempty"`
}

// ServerConfig holds HTTP server options.
type ServerConfig struct {
	Port int `yaml:"port,omitempty"`
}

// DatabaseConfig holds SQLite options.
type DatabaseConfig struct {
	Path string `yaml:"path,omitempty"` // ":memory:" for in-memory
}

// LoggingConfig holds logging configuration options.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`  // debug, info, warn, error
	Format string `yaml:"format,omitempty"` // json, console
}

// CapacityConfig holds the capacity engine's operational settings.
type CapacityConfig struct {
	// ExcludedServices are never counted against delivery capacity.
	ExcludedServices []string `yaml:"excludedServices,omitempty"`

	// ForecastMonths is the default forecast horizon.
	ForecastMonths int `yaml:"forecastMonths,omitempty"`

	// SnapshotSchedule is the cron spec for the forecast snapshot job.
	// Empty disables the scheduler.
	SnapshotSchedule string `yaml:"snapshotSchedule,omitempty"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Configuration {
	return &Configuration{
		Server:   ServerConfig{Port: 8080},
		Database: DatabaseConfig{Path: "mission-control.db"},
		Logging:  LoggingConfig{Level: "info", Format: "json"},
		Capacity: CapacityConfig{
			ExcludedServices: []string{"account-management"},
			ForecastMonths:   6,
		},
	}
}

// Load reads the configuration file at the given path, applying
// environment overrides (MC_SERVER_PORT and friends) and defaults for
// anything unset.
func Load(configPath string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yml")
	v.SetEnvPrefix("mc")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	configuration := Default()
	if err := v.Unmarshal(configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	if err := configuration.Validate(); err != nil {
		return nil, err
	}
	return configuration, nil
}

// Validate checks the loaded configuration for values the server cannot
// start with.
func (c *Configuration) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path must not be empty")
	}
	if c.Capacity.ForecastMonths < 1 {
		return fmt.Errorf("forecast months must be at least 1, got %d", c.Capacity.ForecastMonths)
	}
	return nil
}
