package injector

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ziadkadry99/sitegrep/internal/walker"
)

const (
	// BackupInfix separates the original file name from the timestamp.
	BackupInfix = ".backup."
	// TimestampLayout is the backup timestamp format, local time.
	TimestampLayout = "2006-01-02-15-04-05"
	// TempPrefix starts the name of a rewrite in progress.
	TempPrefix = ".sitegrep-"
)

// ErrNoBackup is returned by Restore when a document has no backups.
var ErrNoBackup = errors.New("no backup found")

// Backup is a pre-injection copy of a document.
type Backup struct {
	Path     string    `json:"path"`
	Original string    `json:"original"`
	Taken    time.Time `json:"taken"`
	Size     int64     `json:"size"`
}

// Retention controls which backups Prune removes. Zero values disable the
// corresponding limit.
type Retention struct {
	Keep   int
	MaxAge time.Duration
}

// Enabled reports whether any limit is set.
func (r Retention) Enabled() bool {
	return r.Keep > 0 || r.MaxAge > 0
}

// BackupPath returns the backup file name for path taken at t.
func BackupPath(path string, t time.Time) string {
	return path + BackupInfix + t.Format(TimestampLayout)
}

// ParseBackupPath splits a backup path into the document it belongs to and
// the time it was taken.
func ParseBackupPath(path string) (original string, taken time.Time, ok bool) {
	i := strings.LastIndex(path, BackupInfix)
	if i <= 0 {
		return "", time.Time{}, false
	}
	original = path[:i]
	if !walker.IsHTML(original) {
		return "", time.Time{}, false
	}
	taken, err := time.ParseInLocation(TimestampLayout, path[i+len(BackupInfix):], time.Local)
	if err != nil {
		return "", time.Time{}, false
	}
	return original, taken, true
}

// ListFor returns the backups of one document, oldest first.
func ListFor(path string) ([]Backup, error) {
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Dir(path), err)
	}
	prefix := filepath.Base(path) + BackupInfix
	var backups []Backup
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		if b, ok := toBackup(filepath.Join(filepath.Dir(path), e.Name()), e); ok && b.Original == path {
			backups = append(backups, b)
		}
	}
	sortBackups(backups)
	return backups, nil
}

// List returns every backup under root, grouped by document and oldest
// first within each document.
func List(ctx context.Context, root string) ([]Backup, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("document root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("document root %s is not a directory", root)
	}

	var backups []Backup
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if path != root && walker.IsExcludedDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if b, ok := toBackup(path, d); ok {
			backups = append(backups, b)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortBackups(backups)
	return backups, nil
}

func toBackup(path string, d fs.DirEntry) (Backup, bool) {
	original, taken, ok := ParseBackupPath(path)
	if !ok {
		return Backup{}, false
	}
	b := Backup{Path: path, Original: original, Taken: taken}
	if info, err := d.Info(); err == nil {
		b.Size = info.Size()
	}
	return b, true
}

func sortBackups(backups []Backup) {
	sort.SliceStable(backups, func(i, j int) bool {
		if backups[i].Original != backups[j].Original {
			return backups[i].Original < backups[j].Original
		}
		return backups[i].Taken.Before(backups[j].Taken)
	})
}

// Expired returns the backups of a single document that r would remove.
// backups must be oldest first.
func (r Retention) Expired(backups []Backup, now time.Time) []Backup {
	var expired []Backup
	for i, b := range backups {
		newerCount := len(backups) - 1 - i
		tooMany := r.Keep > 0 && newerCount >= r.Keep
		tooOld := r.MaxAge > 0 && now.Sub(b.Taken) > r.MaxAge
		if tooMany || tooOld {
			expired = append(expired, b)
		}
	}
	return expired
}

// PruneFile removes the backups of path that exceed the retention policy.
func PruneFile(path string, r Retention, now time.Time) ([]Backup, error) {
	if !r.Enabled() {
		return nil, nil
	}
	backups, err := ListFor(path)
	if err != nil {
		return nil, err
	}
	return remove(r.Expired(backups, now))
}

// PruneAll applies the retention policy to every document under root.
func PruneAll(ctx context.Context, root string, r Retention, now time.Time) ([]Backup, error) {
	if !r.Enabled() {
		return nil, nil
	}
	backups, err := List(ctx, root)
	if err != nil {
		return nil, err
	}
	var expired []Backup
	for start := 0; start < len(backups); {
		end := start
		for end < len(backups) && backups[end].Original == backups[start].Original {
			end++
		}
		expired = append(expired, r.Expired(backups[start:end], now)...)
		start = end
	}
	return remove(expired)
}

func remove(backups []Backup) ([]Backup, error) {
	var removed []Backup
	var errs []error
	for _, b := range backups {
		if err := os.Remove(b.Path); err != nil {
			errs = append(errs, err)
			continue
		}
		removed = append(removed, b)
	}
	return removed, errors.Join(errs...)
}

// Restore copies the newest backup of path back over the document.
func Restore(path string) (Backup, error) {
	backups, err := ListFor(path)
	if err != nil {
		return Backup{}, err
	}
	if len(backups) == 0 {
		return Backup{}, fmt.Errorf("%s: %w", path, ErrNoBackup)
	}
	newest := backups[len(backups)-1]

	data, err := os.ReadFile(newest.Path)
	if err != nil {
		return Backup{}, fmt.Errorf("reading backup: %w", err)
	}
	mode := fs.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := writeFileAtomic(path, data, mode); err != nil {
		return Backup{}, fmt.Errorf("restoring %s: %w", path, err)
	}
	return newest, nil
}

// writeFileAtomic replaces path with data via a temp file in the same
// directory.
func writeFileAtomic(path string, data []byte, mode fs.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), TempPrefix+"*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
