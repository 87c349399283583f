package mcp

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"

	"github.com/ziadkadry99/sitegrep/internal/search"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"index.html":         "<html>\n<body>\n<p>Hello sitegrep</p>\n<p>second hello</p>\n</body>\n</html>\n",
		"docs/zh/intro.html": "<p>这是一个测试页面。</p>\n",
		"notes.txt":          "hello from a text file\n",
	}
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	searcher := search.New(search.Config{
		Root:    root,
		BaseURL: "http://127.0.0.1:8080",
		Timeout: 5 * time.Second,
	}, zerolog.Nop())
	return NewServer(searcher, root, zerolog.Nop()), root
}

func call(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// extractText gets the text content from a CallToolResult.
func extractText(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		name     string
		tool     mcp.Tool
		wantName string
	}{
		{"search_documents", searchDocumentsTool, "search_documents"},
		{"read_document", readDocumentTool, "read_document"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.tool.Name != tt.wantName {
				t.Errorf("tool name = %q, want %q", tt.tool.Name, tt.wantName)
			}
			if tt.tool.Description == "" {
				t.Error("tool description should not be empty")
			}
		})
	}
}

func TestNewServer(t *testing.T) {
	srv, root := newTestServer(t)
	if srv.mcp == nil {
		t.Fatal("MCP server not initialized")
	}
	if srv.root != root {
		t.Errorf("root = %q, want %q", srv.root, root)
	}
}

func TestHandleSearchDocuments(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx := context.Background()

	t.Run("matches", func(t *testing.T) {
		result, err := srv.handleSearchDocuments(ctx, call(map[string]any{"keyword": "HELLO"}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}
		text := extractText(result)
		if !strings.Contains(text, "Found 2 match(es)") {
			t.Errorf("unexpected text: %s", text)
		}
		if !strings.Contains(text, "File: index.html:3") || !strings.Contains(text, "File: index.html:4") {
			t.Errorf("expected both index.html lines: %s", text)
		}
		if strings.Contains(text, "notes.txt") {
			t.Error("non-HTML files must not be searched")
		}
		if !strings.Contains(text, "?highlight=HELLO&line=3#match_3") {
			t.Errorf("expected highlight link: %s", text)
		}
	})

	t.Run("limit", func(t *testing.T) {
		result, err := srv.handleSearchDocuments(ctx, call(map[string]any{"keyword": "hello", "limit": 1.0}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		text := extractText(result)
		if !strings.Contains(text, "showing 1") || strings.Contains(text, "Match 2") {
			t.Errorf("limit not applied: %s", text)
		}
	})

	t.Run("cjk", func(t *testing.T) {
		result, err := srv.handleSearchDocuments(ctx, call(map[string]any{"keyword": "测试"}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(extractText(result), "File: docs/zh/intro.html:1") {
			t.Errorf("unexpected text: %s", extractText(result))
		}
	})

	t.Run("no matches", func(t *testing.T) {
		result, err := srv.handleSearchDocuments(ctx, call(map[string]any{"keyword": "absent"}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError || !strings.Contains(extractText(result), "No matches") {
			t.Errorf("unexpected result: %+v", result)
		}
	})

	t.Run("missing keyword", func(t *testing.T) {
		result, err := srv.handleSearchDocuments(ctx, call(map[string]any{}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for missing keyword")
		}
	})

	t.Run("blank keyword", func(t *testing.T) {
		result, err := srv.handleSearchDocuments(ctx, call(map[string]any{"keyword": "   "}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for blank keyword")
		}
	})

	t.Run("degraded", func(t *testing.T) {
		expired, cancel := context.WithDeadline(ctx, time.Now().Add(-time.Second))
		defer cancel()
		result, err := srv.handleSearchDocuments(expired, call(map[string]any{"keyword": "hello"}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError || !strings.Contains(extractText(result), "degraded") {
			t.Errorf("expected degraded error, got %+v", result)
		}
	})
}

func TestHandleReadDocument(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx := context.Background()

	t.Run("window around line", func(t *testing.T) {
		result, err := srv.handleReadDocument(ctx, call(map[string]any{"path": "index.html", "line": 3.0, "context": 1.0}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %s", extractText(result))
		}
		text := extractText(result)
		for _, want := range []string{"(lines 2-4)", "    2  <body>", "    3  <p>Hello sitegrep</p>", "    4  <p>second hello</p>"} {
			if !strings.Contains(text, want) {
				t.Errorf("missing %q in:\n%s", want, text)
			}
		}
		if strings.Contains(text, "    1  <html>") {
			t.Error("line 1 is outside the window")
		}
	})

	t.Run("whole document", func(t *testing.T) {
		result, err := srv.handleReadDocument(ctx, call(map[string]any{"path": "/docs/zh/intro.html"}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(extractText(result), "测试页面") {
			t.Errorf("unexpected text: %s", extractText(result))
		}
	})

	errorCases := []struct {
		name string
		args map[string]any
	}{
		{"missing path", map[string]any{}},
		{"traversal", map[string]any{"path": "../etc/passwd.html"}},
		{"not html", map[string]any{"path": "notes.txt"}},
		{"not found", map[string]any{"path": "missing.html"}},
		{"line past end", map[string]any{"path": "index.html", "line": 100.0, "context": 0.0}},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := srv.handleReadDocument(ctx, call(tc.args))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !result.IsError {
				t.Errorf("expected tool error, got %s", extractText(result))
			}
		})
	}
}
