package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.ScriptURL != "/highlight.js" {
		t.Errorf("expected default script_url %q, got %q", "/highlight.js", cfg.ScriptURL)
	}
	if cfg.BaseURL != "http://127.0.0.1:8080" {
		t.Errorf("expected default base_url, got %q", cfg.BaseURL)
	}
	if cfg.Search.Timeout != 10*time.Second {
		t.Errorf("expected default search timeout 10s, got %v", cfg.Search.Timeout)
	}
	if cfg.MaxConcurrency != 4 {
		t.Errorf("expected default max_concurrency 4, got %d", cfg.MaxConcurrency)
	}
	if cfg.Backup.Keep != 0 {
		t.Errorf("expected unlimited backups by default, got keep=%d", cfg.Backup.Keep)
	}
}

func TestScriptTag(t *testing.T) {
	cfg := DefaultConfig()
	want := `<script src="/highlight.js"></script>`
	if got := cfg.ScriptTag(); got != want {
		t.Errorf("ScriptTag() = %q, want %q", got, want)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.sitegrep.yml")

	original := DefaultConfig()
	original.Root = "/var/www"
	original.BaseURL = "http://docs.local:9000"
	original.Include = []string{"**/*.html", "**/*.htm", "**/*.xhtml"}
	original.Backup.Keep = 3
	original.Search.Timeout = 2 * time.Second
	original.Server.Port = 9000

	// Save.
	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Load back.
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Verify round-trip.
	if loaded.Root != original.Root {
		t.Errorf("root: got %q, want %q", loaded.Root, original.Root)
	}
	if loaded.BaseURL != original.BaseURL {
		t.Errorf("base_url: got %q, want %q", loaded.BaseURL, original.BaseURL)
	}
	if loaded.Backup.Keep != 3 {
		t.Errorf("backup.keep: got %d, want 3", loaded.Backup.Keep)
	}
	if loaded.Search.Timeout != 2*time.Second {
		t.Errorf("search.timeout: got %v, want 2s", loaded.Search.Timeout)
	}
	if loaded.Server.Port != 9000 {
		t.Errorf("server.port: got %d, want 9000", loaded.Server.Port)
	}
	if len(loaded.Include) != len(original.Include) {
		t.Errorf("include length: got %d, want %d", len(loaded.Include), len(original.Include))
	}
	for i, v := range loaded.Include {
		if v != original.Include[i] {
			t.Errorf("include[%d]: got %q, want %q", i, v, original.Include[i])
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.yml")

	// Loading a missing file should return defaults, not an error.
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.ScriptURL != "/highlight.js" {
		t.Errorf("expected default script_url, got %q", cfg.ScriptURL)
	}
}

func TestLoadTrimsBaseURLSlash(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "c.yml")
	if err := os.WriteFile(path, []byte("base_url: http://example.com/\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.BaseURL != "http://example.com" {
		t.Errorf("base_url = %q, want trailing slash removed", cfg.BaseURL)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yml")

	cfg := DefaultConfig()
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv("SITEGREP_ROOT", "/srv/html")
	t.Setenv("SITEGREP_SEARCH__TIMEOUT", "3s")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Root != "/srv/html" {
		t.Errorf("env override failed: got %q, want %q", loaded.Root, "/srv/html")
	}
	if loaded.Search.Timeout != 3*time.Second {
		t.Errorf("nested env override failed: got %v, want 3s", loaded.Search.Timeout)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"empty root", func(c *Config) { c.Root = "" }, true},
		{"empty base url", func(c *Config) { c.BaseURL = "" }, true},
		{"relative base url", func(c *Config) { c.BaseURL = "/docs" }, true},
		{"empty script url", func(c *Config) { c.ScriptURL = "" }, true},
		{"negative concurrency", func(c *Config) { c.MaxConcurrency = -1 }, true},
		{"negative keep", func(c *Config) { c.Backup.Keep = -2 }, true},
		{"negative max age", func(c *Config) { c.Backup.MaxAge = -time.Hour }, true},
		{"negative timeout", func(c *Config) { c.Search.Timeout = -time.Second }, true},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, true},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, true},
		{"json log format", func(c *Config) { c.Log.Format = LogFormatJSON }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRequireRoot(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Root = t.TempDir()
	if err := cfg.RequireRoot(); err != nil {
		t.Errorf("RequireRoot() on existing dir: %v", err)
	}

	cfg.Root = filepath.Join(cfg.Root, "missing")
	if err := cfg.RequireRoot(); err == nil {
		t.Error("expected error for missing root")
	}

	file := filepath.Join(t.TempDir(), "f.html")
	os.WriteFile(file, []byte("x"), 0o644)
	cfg.Root = file
	if err := cfg.RequireRoot(); err == nil {
		t.Error("expected error for root that is a file")
	}
}

func TestSplitPatterns(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{" a , b , c ", []string{"a", "b", "c"}},
		{"**/*.html", []string{"**/*.html"}},
		{"", nil},
		{"  ,  , ", nil},
	}
	for _, tt := range tests {
		got := SplitPatterns(tt.input)
		if len(got) != len(tt.want) {
			t.Errorf("SplitPatterns(%q) len = %d, want %d", tt.input, len(got), len(tt.want))
			continue
		}
		for i, v := range got {
			if v != tt.want[i] {
				t.Errorf("SplitPatterns(%q)[%d] = %q, want %q", tt.input, i, v, tt.want[i])
			}
		}
	}
}
