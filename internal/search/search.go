// Package search finds keyword occurrences in a tree of HTML documents.
// Every search re-reads the files; nothing is indexed between requests.
package search

import (
	"bufio"
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ziadkadry99/sitegrep/internal/walker"
)

const (
	// DefaultMaxLineBytes bounds a single line read from a document.
	DefaultMaxLineBytes = 4 << 20
	// ctxCheckInterval is how many lines are scanned between context checks.
	ctxCheckInterval = 1024
)

// Config controls a Searcher.
type Config struct {
	Root         string
	BaseURL      string
	Include      []string
	Exclude      []string
	Timeout      time.Duration // 0 disables the deadline
	MaxResults   int           // 0 = unlimited
	MaxLineBytes int
	Concurrency  int
}

// Searcher scans the document root for a keyword. It holds no state between
// calls and is safe for concurrent use.
type Searcher struct {
	cfg Config
	log zerolog.Logger
}

// New creates a Searcher.
func New(cfg Config, logger zerolog.Logger) *Searcher {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.MaxLineBytes <= 0 {
		cfg.MaxLineBytes = DefaultMaxLineBytes
	}
	return &Searcher{cfg: cfg, log: logger.With().Str("component", "search").Logger()}
}

// candidate is a raw matched line before snippet extraction.
type candidate struct {
	line int
	text string
}

// Search returns every line under the root containing keyword, ignoring case.
// An empty keyword yields an empty result without touching the filesystem.
// On timeout, cancellation or an unreadable root the result is empty and the
// error is a *DegradedError; the result is never nil.
func (s *Searcher) Search(ctx context.Context, keyword string) (*Result, error) {
	keyword = strings.TrimSpace(keyword)
	res := &Result{Keyword: keyword, Matches: []Match{}}
	if keyword == "" {
		return res, nil
	}

	start := time.Now()
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	files, err := walker.Walk(ctx, walker.WalkerConfig{
		RootDir: s.cfg.Root,
		Include: s.cfg.Include,
		Exclude: s.cfg.Exclude,
	})
	if err != nil {
		return res, s.degrade(ctx, keyword, err)
	}

	perFile := make([][]Match, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i, f := range files {
		g.Go(func() error {
			found, err := s.scanFile(gctx, f, keyword)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				s.log.Debug().Err(err).Str("file", f.RelPath).Msg("skipping unreadable document")
				return nil
			}
			perFile[i] = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, s.degrade(ctx, keyword, err)
	}

	var matches []Match
	for _, found := range perFile {
		matches = append(matches, found...)
	}
	matches = Dedupe(matches)
	SortByPath(matches)
	if s.cfg.MaxResults > 0 && len(matches) > s.cfg.MaxResults {
		matches = matches[:s.cfg.MaxResults]
	}
	for i := range matches {
		m := &matches[i]
		m.URL = DocumentURL(s.cfg.BaseURL, m.FilePath, m.LineNumber)
		m.HighlightURL = HighlightURL(s.cfg.BaseURL, m.FilePath, keyword, m.LineNumber)
	}

	if matches != nil {
		res.Matches = matches
	}
	res.FilesScanned = len(files)
	res.Elapsed = time.Since(start)

	s.log.Debug().
		Str("keyword", keyword).
		Int("files", res.FilesScanned).
		Int("matches", res.Count()).
		Dur("elapsed", res.Elapsed).
		Msg("search complete")
	return res, nil
}

// scanFile collects the matching lines of one document. A document that
// disappears or becomes unreadable between scan and record yields an error.
func (s *Searcher) scanFile(ctx context.Context, f walker.FileInfo, keyword string) ([]Match, error) {
	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	var found []candidate
	scanner := bufio.NewScanner(fh)
	scanner.Buffer(make([]byte, 0, min(64*1024, s.cfg.MaxLineBytes)), s.cfg.MaxLineBytes)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		line := scanner.Text()
		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		if ContainsFold(line, keyword) {
			found = append(found, candidate{line: lineNo, text: strings.TrimSpace(line)})
		}
	}
	if err := scanner.Err(); err != nil {
		if !errors.Is(err, bufio.ErrTooLong) {
			return nil, err
		}
		s.log.Warn().Str("file", f.RelPath).Int("line", lineNo+1).Msg("line exceeds max_line_bytes; rest of document skipped")
	}
	if len(found) == 0 {
		return nil, nil
	}

	// The file may have vanished while we were reading it.
	info, err := os.Stat(f.Path)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, len(found))
	for i, c := range found {
		matches[i] = Match{
			FilePath:   f.RelPath,
			LineNumber: c.line,
			Content:    Snippet(c.text, keyword),
			FileSize:   info.Size(),
		}
	}
	return matches, nil
}

// degrade classifies a failed search.
func (s *Searcher) degrade(ctx context.Context, keyword string, err error) error {
	de := &DegradedError{Keyword: keyword, Cause: err}
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		de.Kind = ErrTimeout
	case errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled):
		de.Kind = ErrCanceled
	default:
		de.Kind = ErrRootUnavailable
	}
	s.log.Warn().Err(err).Str("keyword", keyword).Str("kind", de.Kind.Error()).Msg("search degraded")
	return de
}
