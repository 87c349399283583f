package injector

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ziadkadry99/sitegrep/internal/walker"
)

// DebounceInterval is how long a path must stay quiet before it is injected.
const DebounceInterval = 300 * time.Millisecond

// Watch injects documents as they are created or modified under the root,
// until ctx is done. New directories are watched as they appear. Our own
// rewrites come back as events and resolve to already-present.
func (inj *Injector) Watch(ctx context.Context, onResult func(FileResult)) error {
	root, err := filepath.Abs(inj.opts.Root)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := addTree(watcher, root); err != nil {
		return err
	}
	inj.log.Info().Str("root", root).Msg("watching for new documents")

	var (
		debounceMu sync.Mutex
		debounce   = make(map[string]*time.Timer)
		wg         sync.WaitGroup
	)
	defer func() {
		debounceMu.Lock()
		for _, timer := range debounce {
			if timer.Stop() {
				wg.Done()
			}
		}
		debounceMu.Unlock()
		wg.Wait()
	}()

	schedule := func(path string) {
		debounceMu.Lock()
		defer debounceMu.Unlock()
		if timer, exists := debounce[path]; exists && timer.Stop() {
			wg.Done()
		}
		wg.Add(1)
		debounce[path] = time.AfterFunc(DebounceInterval, func() {
			defer wg.Done()
			debounceMu.Lock()
			delete(debounce, path)
			debounceMu.Unlock()
			if r, ok := inj.injectPath(ctx, root, path); ok && onResult != nil {
				onResult(r)
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			info, err := os.Stat(event.Name)
			if err != nil {
				continue
			}
			if info.IsDir() {
				if walker.IsExcludedDir(info.Name()) {
					continue
				}
				if err := addTree(watcher, event.Name); err != nil {
					inj.log.Warn().Err(err).Str("dir", event.Name).Msg("watching new directory")
				}
				// Files may have landed before the watch was in place.
				_ = filepath.WalkDir(event.Name, func(p string, d fs.DirEntry, err error) error {
					if err == nil && !d.IsDir() && walker.IsHTML(p) {
						schedule(p)
					}
					return nil
				})
				continue
			}
			if walker.IsHTML(event.Name) {
				schedule(event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			inj.log.Warn().Err(err).Msg("watcher error")
		}
	}
}

// injectPath applies the walker's filters to an event path and injects it.
func (inj *Injector) injectPath(ctx context.Context, root, path string) (FileResult, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return FileResult{}, false
	}
	if !walker.Filter(rel, inj.walkerConfig()) {
		return FileResult{}, false
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return FileResult{}, false
	}
	r := inj.InjectFile(ctx, walker.FileInfo{
		Path:    path,
		RelPath: filepath.ToSlash(rel),
		Size:    info.Size(),
	})
	if r.Status != StatusAlreadyPresent {
		inj.record(ctx, "watch", r)
	}
	return r, true
}

// addTree watches dir and every non-excluded directory below it.
func addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && walker.IsExcludedDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}
