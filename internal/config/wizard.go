package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// DefaultConfigPath is where init writes the configuration.
const DefaultConfigPath = ".sitegrep.yml"

// detectRoot guesses a document root by looking for common web roots
// under the current directory.
func detectRoot() string {
	for _, candidate := range []string{"public", "www", "site", "html", "dist"} {
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
	}
	return "."
}

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to sitegrep! Let's configure your document root.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Document root.
	rootPrompt := promptui.Prompt{
		Label:   "Document root (directory of HTML files)",
		Default: detectRoot(),
		Validate: func(s string) error {
			info, err := os.Stat(s)
			if err != nil {
				return err
			}
			if !info.IsDir() {
				return fmt.Errorf("%s is not a directory", s)
			}
			return nil
		},
	}
	root, err := rootPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("document root: %w", err)
	}
	if abs, absErr := filepath.Abs(root); absErr == nil {
		root = abs
	}
	cfg.Root = root

	// 2. Port.
	portPrompt := promptui.Prompt{
		Label:   "Port for sitegrep serve",
		Default: strconv.Itoa(cfg.Server.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 || n > 65535 {
				return fmt.Errorf("invalid port %q", s)
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	// 3. Base URL that result links point at.
	basePrompt := promptui.Prompt{
		Label:   "Base URL the documents are served from",
		Default: fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port),
	}
	baseURL, err := basePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("base url: %w", err)
	}
	cfg.BaseURL = baseURL

	// 4. Backup retention.
	retention := promptui.Select{
		Label: "Backup retention after injection",
		Items: []string{
			"keep all: never delete backups",
			"keep 1: only the newest backup per file",
			"keep 5: the five newest backups per file",
		},
	}
	idx, _, err := retention.Run()
	if err != nil {
		return nil, fmt.Errorf("backup retention: %w", err)
	}
	cfg.Backup.Keep = []int{0, 1, 5}[idx]

	// 5. Extra exclude patterns.
	excludePrompt := promptui.Prompt{
		Label:   "Extra exclude patterns (comma-separated, leave blank for defaults)",
		Default: "",
	}
	excludeStr, err := excludePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("exclude patterns: %w", err)
	}
	if excludeStr != "" {
		cfg.Exclude = append(append([]string{}, DefaultExcludes...), SplitPatterns(excludeStr)...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

// SplitPatterns splits a comma-separated list of globs and trims whitespace.
func SplitPatterns(s string) []string {
	var result []string
	for _, token := range strings.Split(s, ",") {
		if token = strings.TrimSpace(token); token != "" {
			result = append(result, token)
		}
	}
	return result
}
