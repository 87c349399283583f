package config

import "time"

// DefaultInclude matches the HTML family of extensions.
var DefaultInclude = []string{"**/*.html", "**/*.htm"}

// DefaultExcludes are glob patterns excluded from scanning by default.
var DefaultExcludes = []string{
	".git/**",
	"node_modules/**",
	".sitegrep/**",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Root:           ".",
		BaseURL:        "http://127.0.0.1:8080",
		ScriptURL:      "/highlight.js",
		Include:        append([]string(nil), DefaultInclude...),
		Exclude:        append([]string(nil), DefaultExcludes...),
		MaxConcurrency: 4,
		DataDir:        ".sitegrep",
		Search: SearchConfig{
			Timeout:      10 * time.Second,
			MaxLineBytes: 4 << 20,
		},
		Server: ServerConfig{
			Port:        8080,
			SearchRPS:   5,
			SearchBurst: 10,
		},
		Log: LogConfig{
			Level:  "info",
			Format: LogFormatConsole,
		},
	}
}
