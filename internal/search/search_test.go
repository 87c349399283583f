package search

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testdataDir(t *testing.T) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("unable to determine test file location")
	}
	abs, err := filepath.Abs(filepath.Join(filepath.Dir(filename), "..", "..", "testdata", "site"))
	if err != nil {
		t.Fatalf("resolve testdata path: %v", err)
	}
	return abs
}

func newSearcher(root string) *Searcher {
	return New(Config{
		Root:        root,
		BaseURL:     "http://127.0.0.1:8080",
		Timeout:     5 * time.Second,
		Concurrency: 4,
	}, zerolog.Nop())
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestSearch_CJKKeyword(t *testing.T) {
	s := newSearcher(testdataDir(t))

	res, err := s.Search(context.Background(), "测试")
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if res.Count() != 1 {
		t.Fatalf("expected exactly 1 match, got %d: %+v", res.Count(), res.Matches)
	}
	m := res.Matches[0]
	if m.FilePath != "docs/zh/intro.html" {
		t.Errorf("FilePath = %q, want docs/zh/intro.html", m.FilePath)
	}
	if m.LineNumber != 5 {
		t.Errorf("LineNumber = %d, want 5", m.LineNumber)
	}
	if m.Content != "<p>这是一个测试页面。</p>" {
		t.Errorf("Content = %q", m.Content)
	}
	if m.FileSize <= 0 {
		t.Errorf("FileSize = %d, want > 0", m.FileSize)
	}
	if m.URL != "http://127.0.0.1:8080/docs/zh/intro.html#match_5" {
		t.Errorf("URL = %q", m.URL)
	}
	if !strings.Contains(m.HighlightURL, "?highlight=%E6%B5%8B%E8%AF%95&line=5#match_5") {
		t.Errorf("HighlightURL = %q", m.HighlightURL)
	}
}

func TestSearch_CaseInsensitiveAndSorted(t *testing.T) {
	s := newSearcher(testdataDir(t))

	res, err := s.Search(context.Background(), "EXAMPLE")
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}

	// index.html has "Example" on lines 5, 9 and 10; node_modules and .js are never scanned.
	var lines []int
	for _, m := range res.Matches {
		if m.FilePath != "index.html" {
			t.Errorf("unexpected file %q", m.FilePath)
		}
		lines = append(lines, m.LineNumber)
	}
	if len(lines) != 3 || lines[0] != 5 || lines[1] != 9 || lines[2] != 10 {
		t.Errorf("lines = %v, want [5 9 10]", lines)
	}
}

func TestSearch_EmptyKeyword(t *testing.T) {
	s := newSearcher(filepath.Join(t.TempDir(), "does-not-exist"))

	for _, kw := range []string{"", "   ", "\t"} {
		res, err := s.Search(context.Background(), kw)
		if err != nil {
			t.Errorf("Search(%q) error: %v", kw, err)
		}
		if res == nil || res.Count() != 0 {
			t.Errorf("Search(%q) should return an empty result", kw)
		}
	}
}

func TestSearch_SortsAcrossDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "z.html"), "hit\n")
	writeFile(t, filepath.Join(root, "a-c.html"), "x\nhit\n")
	writeFile(t, filepath.Join(root, "b.htm"), "hit hit\n")

	res, err := newSearcher(root).Search(context.Background(), "hit")
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	var got []string
	for _, m := range res.Matches {
		got = append(got, m.FilePath)
	}
	want := "a-c.html,a/z.html,b.htm"
	if strings.Join(got, ",") != want {
		t.Errorf("order = %v, want %s", got, want)
	}
	if res.FilesScanned != 3 {
		t.Errorf("FilesScanned = %d, want 3", res.FilesScanned)
	}
}

func TestSearch_LongLineSnippet(t *testing.T) {
	root := t.TempDir()
	line := strings.Repeat("a", 150) + "needle" + strings.Repeat("b", 144)
	writeFile(t, filepath.Join(root, "long.html"), "   "+line+"   \n")

	res, err := newSearcher(root).Search(context.Background(), "needle")
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if res.Count() != 1 {
		t.Fatalf("expected 1 match, got %d", res.Count())
	}
	got := res.Matches[0].Content
	if !strings.HasPrefix(got, Ellipsis) || !strings.HasSuffix(got, Ellipsis) || !strings.Contains(got, "needle") {
		t.Errorf("unexpected snippet %q", got)
	}
}

func TestSearch_MaxResults(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.html"), "k\nk\nk\n")
	writeFile(t, filepath.Join(root, "b.html"), "k\n")

	s := New(Config{Root: root, BaseURL: "http://h", MaxResults: 2}, zerolog.Nop())
	res, err := s.Search(context.Background(), "k")
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if res.Count() != 2 {
		t.Errorf("Count() = %d, want 2", res.Count())
	}
}

func TestSearch_LineTooLongSkipsRest(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.html"), "k first\n"+strings.Repeat("x", 200)+"\nk after\n")
	writeFile(t, filepath.Join(root, "b.html"), "k other\n")

	s := New(Config{Root: root, BaseURL: "http://h", MaxLineBytes: 100}, zerolog.Nop())
	res, err := s.Search(context.Background(), "k")
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if res.Count() != 2 {
		t.Fatalf("Count() = %d, want 2 (a.html:1 and b.html:1): %+v", res.Count(), res.Matches)
	}
	if res.Matches[0].FilePath != "a.html" || res.Matches[0].LineNumber != 1 {
		t.Errorf("first match = %+v", res.Matches[0])
	}
}

func TestSearch_Timeout(t *testing.T) {
	s := newSearcher(testdataDir(t))

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	res, err := s.Search(ctx, "example")
	if err == nil {
		t.Fatal("expected degraded error")
	}
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
	if !IsDegraded(err) {
		t.Errorf("expected *DegradedError, got %T", err)
	}
	if res == nil || res.Count() != 0 {
		t.Error("degraded search must return an empty result")
	}
}

func TestSearch_MissingRootDegrades(t *testing.T) {
	s := newSearcher(filepath.Join(t.TempDir(), "gone"))

	res, err := s.Search(context.Background(), "example")
	if !errors.Is(err, ErrRootUnavailable) {
		t.Fatalf("expected ErrRootUnavailable, got %v", err)
	}
	var de *DegradedError
	if !errors.As(err, &de) || de.Keyword != "example" {
		t.Errorf("expected DegradedError for keyword, got %#v", err)
	}
	if res.Count() != 0 {
		t.Error("degraded search must return an empty result")
	}
}
