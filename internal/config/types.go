package config

import (
	"path/filepath"
	"time"
)

// LogFormat selects how log lines are rendered.
type LogFormat string

const (
	LogFormatConsole LogFormat = "console"
	LogFormatJSON    LogFormat = "json"
)

// Config is the top-level sitegrep configuration, corresponding to .sitegrep.yml.
// It is built once at startup and handed to every component explicitly.
type Config struct {
	Root           string       `yaml:"root" koanf:"root"`
	BaseURL        string       `yaml:"base_url" koanf:"base_url"`
	ScriptURL      string       `yaml:"script_url" koanf:"script_url"`
	Include        []string     `yaml:"include" koanf:"include"`
	Exclude        []string     `yaml:"exclude" koanf:"exclude"`
	MaxConcurrency int          `yaml:"max_concurrency" koanf:"max_concurrency"`
	DataDir        string       `yaml:"data_dir" koanf:"data_dir"`
	Backup         BackupConfig `yaml:"backup" koanf:"backup"`
	Search         SearchConfig `yaml:"search" koanf:"search"`
	Server         ServerConfig `yaml:"server" koanf:"server"`
	Log            LogConfig    `yaml:"log" koanf:"log"`
}

// BackupConfig is the retention policy for injection backups.
// Zero values mean "keep everything".
type BackupConfig struct {
	Keep   int           `yaml:"keep" koanf:"keep"`
	MaxAge time.Duration `yaml:"max_age" koanf:"max_age"`
}

// SearchConfig bounds a single search request.
type SearchConfig struct {
	Timeout      time.Duration `yaml:"timeout" koanf:"timeout"`
	MaxResults   int           `yaml:"max_results" koanf:"max_results"`
	MaxLineBytes int           `yaml:"max_line_bytes" koanf:"max_line_bytes"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int     `yaml:"port" koanf:"port"`
	SearchRPS       float64 `yaml:"search_rps" koanf:"search_rps"`
	SearchBurst     int     `yaml:"search_burst" koanf:"search_burst"`
	AllowAllOrigins bool    `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string    `yaml:"level" koanf:"level"`
	Format LogFormat `yaml:"format" koanf:"format"`
}

// ScriptTag returns the markup inserted into documents by the injector.
func (c *Config) ScriptTag() string {
	return `<script src="` + c.ScriptURL + `"></script>`
}

// DatabasePath returns the location of the operations journal.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "sitegrep.db")
}
