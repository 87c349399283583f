// Package injector adds the highlight script reference to every HTML
// document under a root, backing each file up before it is rewritten.
package injector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ziadkadry99/sitegrep/internal/audit"
	"github.com/ziadkadry99/sitegrep/internal/progress"
	"github.com/ziadkadry99/sitegrep/internal/walker"
)

// Status is the outcome of processing one document.
type Status string

const (
	StatusInjected       Status = "injected"
	StatusAlreadyPresent Status = "already-present"
	StatusFailed         Status = "failed"
)

// FileResult reports what happened to one document.
type FileResult struct {
	Path       string
	RelPath    string
	Status     Status
	BackupPath string
	Pruned     []Backup
	Err        error
}

// Summary aggregates a run.
type Summary struct {
	RunID          string
	DryRun         bool
	Injected       int
	AlreadyPresent int
	Failed         int
	Files          []FileResult
}

// Total is the number of documents processed.
func (s *Summary) Total() int {
	return s.Injected + s.AlreadyPresent + s.Failed
}

func (s *Summary) add(r FileResult) {
	switch r.Status {
	case StatusInjected:
		s.Injected++
	case StatusAlreadyPresent:
		s.AlreadyPresent++
	default:
		s.Failed++
	}
	s.Files = append(s.Files, r)
}

// Recorder receives journal entries. *audit.Store implements it.
type Recorder interface {
	Log(ctx context.Context, entry audit.Entry) error
}

// Options configures an Injector.
type Options struct {
	Root        string
	ScriptURL   string
	Include     []string
	Exclude     []string
	Concurrency int
	DryRun      bool
	Retention   Retention
}

// Injector ensures documents reference the highlight script.
type Injector struct {
	opts     Options
	tag      string
	log      zerolog.Logger
	recorder Recorder
	reporter progress.Reporter
	now      func() time.Time
}

// New creates an Injector.
func New(opts Options, logger zerolog.Logger) *Injector {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Injector{
		opts:     opts,
		tag:      ScriptTag(opts.ScriptURL),
		log:      logger.With().Str("component", "injector").Logger(),
		reporter: progress.Nop{},
		now:      time.Now,
	}
}

// WithRecorder journals runs and per-file outcomes to r.
func (inj *Injector) WithRecorder(r Recorder) *Injector {
	inj.recorder = r
	return inj
}

// WithReporter reports per-file progress to r.
func (inj *Injector) WithReporter(r progress.Reporter) *Injector {
	inj.reporter = r
	return inj
}

// Run processes every document under the root. Per-file failures are
// reported in the summary; the returned error is reserved for an unusable
// root or a cancelled context.
func (inj *Injector) Run(ctx context.Context) (*Summary, error) {
	files, err := walker.Walk(ctx, inj.walkerConfig())
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", inj.opts.Root, err)
	}

	summary := &Summary{RunID: uuid.New().String(), DryRun: inj.opts.DryRun}
	results := make([]FileResult, len(files))

	inj.reporter.Start(len(files))
	var (
		mu   sync.Mutex
		done int
	)

	g := new(errgroup.Group)
	g.SetLimit(inj.opts.Concurrency)
	for i, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = FileResult{Path: f.Path, RelPath: f.RelPath, Status: StatusFailed, Err: err}
				return nil
			}
			results[i] = inj.InjectFile(ctx, f)
			inj.record(ctx, summary.RunID, results[i])

			mu.Lock()
			done++
			inj.reporter.Update(done, f.RelPath)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	inj.reporter.Finish()

	for _, r := range results {
		summary.add(r)
	}
	if err := ctx.Err(); err != nil {
		return summary, err
	}

	inj.log.Info().
		Str("run", summary.RunID).
		Bool("dry_run", summary.DryRun).
		Int("injected", summary.Injected).
		Int("already_present", summary.AlreadyPresent).
		Int("failed", summary.Failed).
		Msg("injection finished")

	if !summary.DryRun {
		inj.journal(ctx, audit.Entry{
			ActorType: audit.ActorUser,
			ActorID:   "inject",
			Action:    audit.ActionInjectRun,
			RunID:     summary.RunID,
			Target:    inj.opts.Root,
			Summary: fmt.Sprintf("injected=%d already-present=%d failed=%d",
				summary.Injected, summary.AlreadyPresent, summary.Failed),
			Count: summary.Injected,
		})
	}
	return summary, nil
}

// InjectFile processes a single document: read, check, back up, rewrite.
func (inj *Injector) InjectFile(ctx context.Context, f walker.FileInfo) FileResult {
	res := FileResult{Path: f.Path, RelPath: f.RelPath}
	fail := func(err error) FileResult {
		res.Status = StatusFailed
		res.Err = err
		inj.log.Warn().Err(err).Str("file", f.RelPath).Msg("injection failed")
		return res
	}

	info, err := os.Stat(f.Path)
	if err != nil {
		return fail(err)
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return fail(fmt.Errorf("reading: %w", err))
	}
	content := string(data)
	if HasScript(content, inj.opts.ScriptURL) {
		res.Status = StatusAlreadyPresent
		return res
	}

	if inj.opts.DryRun {
		res.Status = StatusInjected
		return res
	}

	backup := BackupPath(f.Path, inj.now())
	if err := os.WriteFile(backup, data, info.Mode().Perm()); err != nil {
		return fail(fmt.Errorf("writing backup: %w", err))
	}
	res.BackupPath = backup

	if err := writeFileAtomic(f.Path, []byte(Insert(content, inj.tag)), info.Mode().Perm()); err != nil {
		return fail(fmt.Errorf("writing document: %w", err))
	}
	res.Status = StatusInjected

	if inj.opts.Retention.Enabled() {
		pruned, err := PruneFile(f.Path, inj.opts.Retention, inj.now())
		if err != nil {
			inj.log.Warn().Err(err).Str("file", f.RelPath).Msg("pruning backups")
		}
		res.Pruned = pruned
	}
	inj.log.Debug().Str("file", f.RelPath).Str("backup", filepath.Base(backup)).Msg("injected")
	return res
}

func (inj *Injector) walkerConfig() walker.WalkerConfig {
	return walker.WalkerConfig{
		RootDir: inj.opts.Root,
		Include: inj.opts.Include,
		Exclude: inj.opts.Exclude,
	}
}

// record journals the outcome of one document.
func (inj *Injector) record(ctx context.Context, runID string, r FileResult) {
	if inj.opts.DryRun {
		return
	}
	switch r.Status {
	case StatusInjected:
		inj.journal(ctx, audit.Entry{
			ActorID: "inject",
			Action:  audit.ActionFileInjected,
			RunID:   runID,
			Target:  r.RelPath,
			Detail:  r.BackupPath,
			Count:   1,
		})
	case StatusFailed:
		inj.journal(ctx, audit.Entry{
			ActorID: "inject",
			Action:  audit.ActionInjectFailed,
			RunID:   runID,
			Target:  r.RelPath,
			Detail:  errString(r.Err),
		})
	}
	if len(r.Pruned) > 0 {
		inj.journal(ctx, audit.Entry{
			ActorID: "inject",
			Action:  audit.ActionBackupPruned,
			RunID:   runID,
			Target:  r.RelPath,
			Count:   len(r.Pruned),
		})
	}
}

// journal writes an entry if a recorder is configured. Failures are logged.
func (inj *Injector) journal(ctx context.Context, e audit.Entry) {
	if inj.recorder == nil {
		return
	}
	if err := inj.recorder.Log(ctx, e); err != nil {
		inj.log.Warn().Err(err).Str("action", string(e.Action)).Msg("journal write failed")
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// AssetOnDisk reports whether the script URL resolves to a file under root,
// which other web servers need in order to serve it.
func AssetOnDisk(root, scriptURL string) bool {
	info, err := os.Stat(filepath.Join(root, filepath.FromSlash(scriptURL)))
	return err == nil && !info.IsDir()
}
