package mcp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/sitegrep/internal/search"
	"github.com/ziadkadry99/sitegrep/internal/walker"
)

const (
	defaultLimit   = 20
	defaultContext = 5
	// maxReadLines caps read_document output when no line is given.
	maxReadLines = 400
)

// handleSearchDocuments runs a live search over the document root.
func (s *Server) handleSearchDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	keyword, err := request.RequireString("keyword")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: keyword"), nil
	}
	if strings.TrimSpace(keyword) == "" {
		return mcp.NewToolResultError("keyword must not be empty"), nil
	}

	limit := request.GetInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}

	res, err := s.searcher.Search(ctx, keyword)
	if err != nil {
		var de *search.DegradedError
		if errors.As(err, &de) {
			return mcp.NewToolResultError(fmt.Sprintf("search degraded: %v", de.Kind)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	if res.Count() == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No matches for %q.", res.Keyword)), nil
	}

	return mcp.NewToolResultText(formatMatches(res, limit)), nil
}

// handleReadDocument returns numbered lines of one document.
func (s *Server) handleReadDocument(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	relPath, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: path"), nil
	}
	relPath = strings.TrimPrefix(filepath.ToSlash(relPath), "/")
	if !filepath.IsLocal(filepath.FromSlash(relPath)) {
		return mcp.NewToolResultError(fmt.Sprintf("path %q is outside the document root", relPath)), nil
	}
	if !walker.IsHTML(relPath) {
		return mcp.NewToolResultError(fmt.Sprintf("%q is not an HTML document", relPath)), nil
	}

	line := request.GetInt("line", 0)
	span := request.GetInt("context", defaultContext)
	if span < 0 {
		span = defaultContext
	}

	from, to := 1, maxReadLines
	if line > 0 {
		from, to = max(1, line-span), line+span
	}

	text, err := readLines(filepath.Join(s.root, filepath.FromSlash(relPath)), from, to)
	if err != nil {
		if os.IsNotExist(err) {
			return mcp.NewToolResultError(fmt.Sprintf("document %q not found", relPath)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to read document: %v", err)), nil
	}
	if text == "" {
		return mcp.NewToolResultError(fmt.Sprintf("%q has no line %d", relPath, line)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s (lines %d-%d)\n\n%s", relPath, from, to, text)), nil
}

// readLines returns lines [from, to] of path, each prefixed with its number.
func readLines(path string, from, to int) (string, error) {
	fh, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer fh.Close()

	var sb strings.Builder
	scanner := bufio.NewScanner(fh)
	scanner.Buffer(make([]byte, 0, 64*1024), search.DefaultMaxLineBytes)
	n := 0
	for scanner.Scan() {
		n++
		if n < from {
			continue
		}
		if n > to {
			break
		}
		fmt.Fprintf(&sb, "%5d  %s\n", n, scanner.Text())
	}
	return sb.String(), scanner.Err()
}

// formatMatches renders search results for AI agent consumption.
func formatMatches(res *search.Result, limit int) string {
	var sb strings.Builder
	shown := min(limit, res.Count())
	sb.WriteString(fmt.Sprintf("Found %d match(es) for %q", res.Count(), res.Keyword))
	if shown < res.Count() {
		sb.WriteString(fmt.Sprintf(", showing %d", shown))
	}
	sb.WriteString(":\n")

	for i, m := range res.Matches[:shown] {
		sb.WriteString(fmt.Sprintf("\n--- Match %d ---\n", i+1))
		sb.WriteString(fmt.Sprintf("File: %s:%d (%.2f KB)\n", m.FilePath, m.LineNumber, float64(m.FileSize)/1024))
		sb.WriteString(fmt.Sprintf("Link: %s\n", m.HighlightURL))
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}

	return sb.String()
}
