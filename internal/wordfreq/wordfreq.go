// Package wordfreq reports the most frequent Chinese terms in the visible
// text of the HTML documents under a root.
package wordfreq

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ziadkadry99/sitegrep/internal/walker"
)

const (
	DefaultMinFreq = 2
	DefaultTopN    = 100
	// TableRows is how many terms WriteTable prints.
	TableRows = 20
)

// Options configures an analysis.
type Options struct {
	Root        string
	Include     []string
	Exclude     []string
	MinFreq     int
	TopN        int
	Concurrency int
}

// Term is a counted word.
type Term struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Report is the result of Analyze.
type Report struct {
	Files         int    `json:"files"`
	DistinctTerms int    `json:"distinct_terms"`
	Terms         []Term `json:"terms"`
}

// ExtractText returns the visible text of an HTML document, without script
// and style contents.
func ExtractText(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", err
	}
	doc.Find("script, style").Remove()
	return doc.Text(), nil
}

// Analyze counts terms across every document under opts.Root.
func Analyze(ctx context.Context, opts Options, logger zerolog.Logger) (*Report, error) {
	if opts.MinFreq <= 0 {
		opts.MinFreq = DefaultMinFreq
	}
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	log := logger.With().Str("component", "wordfreq").Logger()

	files, err := walker.Walk(ctx, walker.WalkerConfig{
		RootDir: opts.Root,
		Include: opts.Include,
		Exclude: opts.Exclude,
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", opts.Root, err)
	}

	perFile := make([][]string, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fh, err := os.Open(f.Path)
			if err != nil {
				log.Debug().Err(err).Str("file", f.RelPath).Msg("skipping unreadable document")
				return nil
			}
			defer fh.Close()
			text, err := ExtractText(fh)
			if err != nil {
				log.Debug().Err(err).Str("file", f.RelPath).Msg("skipping unparsable document")
				return nil
			}
			perFile[i] = Segment(text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	report := &Report{}
	for _, words := range perFile {
		if words == nil {
			continue
		}
		report.Files++
		for _, w := range words {
			counts[w]++
		}
	}
	report.DistinctTerms = len(counts)
	report.Terms = rank(counts, opts.MinFreq, opts.TopN)

	log.Info().
		Int("files", report.Files).
		Int("distinct", report.DistinctTerms).
		Int("reported", len(report.Terms)).
		Msg("word frequency analysis complete")
	return report, nil
}

// rank keeps terms seen at least minFreq times, most frequent first, ties
// broken by word so output is stable.
func rank(counts map[string]int, minFreq, topN int) []Term {
	terms := []Term{}
	for w, c := range counts {
		if c >= minFreq {
			terms = append(terms, Term{Word: w, Count: c})
		}
	}
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].Count != terms[j].Count {
			return terms[i].Count > terms[j].Count
		}
		return terms[i].Word < terms[j].Word
	})
	if len(terms) > topN {
		terms = terms[:topN]
	}
	return terms
}

// WriteJSON writes the report as indented JSON with characters unescaped.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteTable prints the first TableRows terms with their share of the
// reported total.
func (r *Report) WriteTable(w io.Writer) {
	total := 0
	for _, t := range r.Terms {
		total += t.Count
	}
	fmt.Fprintf(w, "Files analysed:  %d\n", r.Files)
	fmt.Fprintf(w, "Distinct terms:  %d\n", r.DistinctTerms)
	fmt.Fprintf(w, "Reported terms:  %d\n\n", len(r.Terms))
	fmt.Fprintf(w, "%-4s  %-12s  %-8s  %s\n", "Rank", "Term", "Count", "Share")
	for i, t := range r.Terms {
		if i == TableRows {
			break
		}
		share := 0.0
		if total > 0 {
			share = float64(t.Count) / float64(total) * 100
		}
		fmt.Fprintf(w, "%-4d  %-12s  %-8d  %.2f%%\n", i+1, t.Word, t.Count, share)
	}
}
