package server

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ziadkadry99/sitegrep/internal/search"
)

//go:embed results.html
var resultsHTML string

var resultsTmpl = template.Must(template.New("results").Parse(resultsHTML))

// resultRow is one match as rendered on the results page.
type resultRow struct {
	FilePath     string
	LineNumber   int
	SizeKB       string
	URL          string
	HighlightURL string
	Anchor       string
	Segments     []search.Segment
}

type pageData struct {
	Keyword  string
	Root     string
	Rows     []resultRow
	Degraded string
	Elapsed  string
}

// handleSearchPage renders the HTML results page. It always answers 200;
// a degraded search shows a notice and no results.
func (s *Server) handleSearchPage(w http.ResponseWriter, r *http.Request) {
	data := pageData{
		Keyword: strings.TrimSpace(r.URL.Query().Get("keyword")),
		Root:    s.cfg.Root,
	}

	if data.Keyword != "" {
		res, err := s.searcher.Search(r.Context(), data.Keyword)
		s.record(r, data.Keyword, res.Count(), err)
		if err != nil {
			data.Degraded = degradedReason(err)
		}
		data.Rows = rows(res)
		if res.Elapsed > 0 {
			data.Elapsed = res.Elapsed.Round(time.Millisecond).String()
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := resultsTmpl.Execute(w, data); err != nil {
		s.log.Error().Err(err).Msg("rendering results page")
	}
}

// apiResponse is the JSON shape of /api/search.
type apiResponse struct {
	Keyword   string         `json:"keyword"`
	Count     int            `json:"count"`
	Total     int            `json:"total"`
	ElapsedMS int64          `json:"elapsed_ms"`
	Degraded  string         `json:"degraded,omitempty"`
	Matches   []search.Match `json:"matches"`
}

func (s *Server) handleAPISearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	keyword := strings.TrimSpace(q.Get("keyword"))
	if keyword == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "keyword is required"})
		return
	}

	res, err := s.searcher.Search(r.Context(), keyword)
	s.record(r, keyword, res.Count(), err)

	resp := apiResponse{
		Keyword:   res.Keyword,
		Total:     res.Count(),
		ElapsedMS: res.Elapsed.Milliseconds(),
		Matches:   res.Matches,
	}
	if err != nil {
		resp.Degraded = degradedReason(err)
	}
	if v := q.Get("limit"); v != "" {
		if n, convErr := strconv.Atoi(v); convErr == nil && n >= 0 && n < len(resp.Matches) {
			resp.Matches = resp.Matches[:n]
		}
	}
	resp.Count = len(resp.Matches)

	writeJSON(w, http.StatusOK, resp)
}

func rows(res *search.Result) []resultRow {
	out := make([]resultRow, 0, res.Count())
	seen := make(map[int]bool)
	for _, m := range res.Matches {
		row := resultRow{
			FilePath:     m.FilePath,
			LineNumber:   m.LineNumber,
			SizeKB:       fmt.Sprintf("%.2f", float64(m.FileSize)/1024),
			URL:          m.URL,
			HighlightURL: m.HighlightURL,
			Segments:     search.Segments(m.Content, res.Keyword),
		}
		// Element ids must be unique; the first result for a line owns the anchor.
		if !seen[m.LineNumber] {
			row.Anchor = search.Anchor(m.LineNumber)
			seen[m.LineNumber] = true
		}
		out = append(out, row)
	}
	return out
}

func degradedReason(err error) string {
	var de *search.DegradedError
	if errors.As(err, &de) {
		return de.Kind.Error()
	}
	return err.Error()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
