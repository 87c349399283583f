package search

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// AnchorPrefix is the fragment prefix pointing at a matched line.
const AnchorPrefix = "match_"

// Match is one line of one document that contains the keyword.
type Match struct {
	FilePath   string `json:"file_path"`
	LineNumber int    `json:"line_number"`
	Content    string `json:"content"`
	FileSize   int64  `json:"file_size"`

	// URL opens the document at the line anchor.
	URL string `json:"url"`
	// HighlightURL additionally carries the highlight query read by
	// highlight.js.
	HighlightURL string `json:"highlight_url"`
}

// Result is the outcome of one search.
type Result struct {
	Keyword      string        `json:"keyword"`
	Matches      []Match       `json:"matches"`
	FilesScanned int           `json:"files_scanned"`
	Elapsed      time.Duration `json:"elapsed"`
}

// Count returns the number of matches.
func (r *Result) Count() int { return len(r.Matches) }

// recordKey is the identity used for deduplication: every field that comes
// from the document, not the derived links.
type recordKey struct {
	path    string
	line    int
	content string
	size    int64
}

// Dedupe drops repeated matches, keeping the first occurrence of each.
func Dedupe(matches []Match) []Match {
	seen := make(map[recordKey]struct{}, len(matches))
	out := matches[:0:0]
	for _, m := range matches {
		k := recordKey{m.FilePath, m.LineNumber, m.Content, m.FileSize}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, m)
	}
	return out
}

// SortByPath orders matches by file path; ties keep encounter order.
func SortByPath(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].FilePath < matches[j].FilePath
	})
}

// Anchor returns the fragment identifier for a line.
func Anchor(line int) string {
	return AnchorPrefix + strconv.Itoa(line)
}

// DocumentURL returns baseURL/relPath#match_<line>, with path segments escaped.
func DocumentURL(baseURL, relPath string, line int) string {
	return joinPath(baseURL, relPath) + "#" + Anchor(line)
}

// HighlightURL returns baseURL/relPath?highlight=<kw>&line=<n>#match_<n>.
func HighlightURL(baseURL, relPath, keyword string, line int) string {
	q := url.Values{}
	q.Set("highlight", keyword)
	q.Set("line", strconv.Itoa(line))
	return joinPath(baseURL, relPath) + "?" + q.Encode() + "#" + Anchor(line)
}

func joinPath(baseURL, relPath string) string {
	segments := strings.Split(strings.TrimPrefix(relPath, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.TrimSuffix(baseURL, "/") + "/" + strings.Join(segments, "/")
}
