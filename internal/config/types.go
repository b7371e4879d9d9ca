package config

// Config represents the main configuration structure
type Config struct {
	Catalog  CatalogConfig  `yaml:"catalog" mapstructure:"catalog"`
	Scan     ScanConfig     `yaml:"scan" mapstructure:"scan"`
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	Logging  LoggingConfig  `yaml:"logging" mapstructure:"logging"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
}

// CatalogConfig selects the data element catalog
type CatalogConfig struct {
	Dir     string   `yaml:"dir" mapstructure:"dir"` // empty = builtin catalog
	Include []string `yaml:"include" mapstructure:"include"`
	Exclude []string `yaml:"exclude" mapstructure:"exclude"`
}

// ScanConfig controls the directory walk
type ScanConfig struct {
	Extensions       []string `yaml:"extensions" mapstructure:"extensions"` // empty = walker defaults
	ExcludeDirs      []string `yaml:"exclude_dirs" mapstructure:"exclude_dirs"`
	ExcludeFiles     []string `yaml:"exclude_files" mapstructure:"exclude_files"`
	IncludeHidden    bool     `yaml:"include_hidden" mapstructure:"include_hidden"`
	RespectGitignore bool     `yaml:"respect_gitignore" mapstructure:"respect_gitignore"`
	MaxFileSize      int64    `yaml:"max_file_size" mapstructure:"max_file_size"` // bytes, 0 = no limit
	Workers          int      `yaml:"workers" mapstructure:"workers"`
}

// DatabaseConfig contains the database scan connection
type DatabaseConfig struct {
	Driver     string `yaml:"driver" mapstructure:"driver"` // postgres or sqlite
	DSN        string `yaml:"dsn" mapstructure:"dsn"`
	SampleSize int    `yaml:"sample_size" mapstructure:"sample_size"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json or console
}

// OutputConfig controls where reports and scan history go
type OutputConfig struct {
	Dir   string `yaml:"dir" mapstructure:"dir"`     // base directory for saved reports, empty = stdout only
	Store string `yaml:"store" mapstructure:"store"` // scan history database, empty = none
}

// GetDefaults returns the default configuration
func GetDefaults() *Config {
	return &Config{
		Scan: ScanConfig{
			RespectGitignore: true,
			MaxFileSize:      10 * 1024 * 1024,
			Workers:          4,
		},
		Database: DatabaseConfig{
			Driver:     "postgres",
			SampleSize: 10,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}
