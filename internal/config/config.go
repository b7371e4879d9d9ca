// Package config loads truscanner settings from truscanner.yaml and
// TRUSCANNER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// FileName is the config file base name searched for in the config paths.
const FileName = "truscanner"

// EnvPrefix prefixes environment overrides, e.g. TRUSCANNER_SCAN_WORKERS.
const EnvPrefix = "TRUSCANNER"

// Load loads configuration from file and environment variables.
// A missing config file is not an error; defaults apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v, GetDefaults())

	v.SetConfigName(FileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("$HOME/.truscanner")

	// Environment variable overrides
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Use specific config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// setDefaults registers every key so environment overrides reach Unmarshal.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("catalog.dir", d.Catalog.Dir)
	v.SetDefault("catalog.include", d.Catalog.Include)
	v.SetDefault("catalog.exclude", d.Catalog.Exclude)

	v.SetDefault("scan.extensions", d.Scan.Extensions)
	v.SetDefault("scan.exclude_dirs", d.Scan.ExcludeDirs)
	v.SetDefault("scan.exclude_files", d.Scan.ExcludeFiles)
	v.SetDefault("scan.include_hidden", d.Scan.IncludeHidden)
	v.SetDefault("scan.respect_gitignore", d.Scan.RespectGitignore)
	v.SetDefault("scan.max_file_size", d.Scan.MaxFileSize)
	v.SetDefault("scan.workers", d.Scan.Workers)

	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("database.sample_size", d.Database.SampleSize)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)

	v.SetDefault("output.dir", d.Output.Dir)
	v.SetDefault("output.store", d.Output.Store)
}

// validateConfig validates the loaded configuration
func validateConfig(config *Config) error {
	switch config.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.Logging.Level)
	}

	if config.Logging.Format != "json" && config.Logging.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", config.Logging.Format)
	}

	if config.Scan.Workers < 1 {
		return fmt.Errorf("invalid scan workers: %d (must be at least 1)", config.Scan.Workers)
	}

	if config.Scan.MaxFileSize < 0 {
		return fmt.Errorf("invalid max file size: %d", config.Scan.MaxFileSize)
	}

	switch strings.ToLower(config.Database.Driver) {
	case "postgres", "postgresql", "sqlite", "sqlite3":
	default:
		return fmt.Errorf("invalid database driver: %s (must be postgres or sqlite)", config.Database.Driver)
	}

	if config.Database.SampleSize < 0 {
		return fmt.Errorf("invalid database sample size: %d", config.Database.SampleSize)
	}
	return nil
}
