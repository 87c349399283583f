package walker

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultExcludes are directory names never descended into.
var DefaultExcludes = []string{
	".git",
	".svn",
	".hg",
	"node_modules",
	".sitegrep",
	".DS_Store",
}

// IsExcludedDir checks whether a directory name matches any default
// exclusion pattern. This is used during traversal to skip entire subtrees.
func IsExcludedDir(name string) bool {
	for _, excl := range DefaultExcludes {
		if strings.EqualFold(name, excl) {
			return true
		}
	}
	return false
}

// MatchesInclude returns true if the given relative path matches any of the
// include patterns. If patterns is empty, everything is included.
func MatchesInclude(relPath string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	return matchesAny(relPath, patterns)
}

// MatchesExclude returns true if the given relative path matches any of the
// exclude patterns. If patterns is empty, nothing is excluded.
func MatchesExclude(relPath string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	return matchesAny(relPath, patterns)
}

// matchesAny checks if relPath matches any of the given glob patterns.
// It uses doublestar for ** support and also tries the bare filename.
// The HTML extension is matched case-insensitively, as IsHTML does.
func matchesAny(relPath string, patterns []string) bool {
	candidates := []string{filepath.ToSlash(relPath)}
	if folded := foldHTMLExt(candidates[0]); folded != candidates[0] {
		candidates = append(candidates, folded)
	}

	for _, pattern := range patterns {
		pattern = filepath.ToSlash(pattern)

		for _, normalized := range candidates {
			if matched, err := doublestar.Match(pattern, normalized); err == nil && matched {
				return true
			}

			base := filepath.Base(normalized)
			if matched, err := doublestar.Match(pattern, base); err == nil && matched {
				return true
			}
		}
	}
	return false
}

// foldHTMLExt lowercases an HTML-family extension: INDEX.HTML -> INDEX.html.
func foldHTMLExt(p string) string {
	ext := filepath.Ext(p)
	if !IsHTML(p) {
		return p
	}
	return p[:len(p)-len(ext)] + strings.ToLower(ext)
}

// Filter reports whether relPath passes the same checks Walk applies, for
// paths that arrive from elsewhere (file watchers, explicit arguments).
func Filter(relPath string, config WalkerConfig) bool {
	if !IsHTML(relPath) {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(relPath), "/") {
		if IsExcludedDir(part) {
			return false
		}
	}
	return MatchesInclude(relPath, config.Include) && !MatchesExclude(relPath, config.Exclude)
}
