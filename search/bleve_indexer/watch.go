package bleve_indexer

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// DefaultDebounce is how long Watch waits for events to settle before it
// commits.
const DefaultDebounce = 200 * time.Millisecond

// Watch keeps the index in sync with note files under roots until ctx is
// cancelled. Changed notes are re-indexed, removed ones deleted, and each
// burst of events is committed once. New directories are watched as they
// appear.
func (u *Updater) Watch(ctx context.Context, roots []string, debounce time.Duration) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	for _, root := range roots {
		abs, err := resolveRoot(root)
		if err != nil {
			return err
		}
		if err := addDirsRecursive(w, abs); err != nil {
			return err
		}
		u.Log.WithField("root", abs).Info("watching")
	}

	changed := make(map[string]struct{})
	removedDirs := make(map[string]struct{})

	var timer *time.Timer
	var fire <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			fire = timer.C
			return
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(debounce)
	}

	flush := func(ctx context.Context) error {
		err := u.flush(ctx, changed, removedDirs)
		changed = make(map[string]struct{})
		removedDirs = make(map[string]struct{})
		return err
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			u.Log.Info("watcher stopped")
			// ctx is done; pending work is still committed.
			return flush(context.Background())

		case <-fire:
			if err := flush(ctx); err != nil {
				return err
			}

		case ev, ok := <-w.Events:
			if !ok {
				return flush(ctx)
			}
			if isHidden(filepath.Base(ev.Name)) {
				continue
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := addDirsRecursive(w, ev.Name); err != nil {
						u.Log.WithField("path", ev.Name).WithError(err).Warn("watch new dir failed")
					}
					notes, _ := ListNotes(ev.Name, u.Extensions)
					for _, note := range notes {
						changed[note] = struct{}{}
					}
					schedule()
					continue
				}
			}

			switch {
			case isNote(ev.Name, u.Extensions):
				changed[ev.Name] = struct{}{}
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				// Possibly a directory; its notes are pruned on flush.
				removedDirs[ev.Name] = struct{}{}
			default:
				continue
			}
			u.Log.WithFields(logrus.Fields{"path": ev.Name, "op": ev.Op.String()}).Debug("queued")
			schedule()

		case err, ok := <-w.Errors:
			if !ok {
				return flush(ctx)
			}
			u.Log.WithError(err).Error("watcher error")
		}
	}
}

func (u *Updater) flush(ctx context.Context, changed, removedDirs map[string]struct{}) error {
	if len(changed) == 0 && len(removedDirs) == 0 {
		return nil
	}

	var stats Stats
	paths := lo.Keys(changed)
	sort.Strings(paths)
	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			u.Writer.Delete(path)
			stats.Removed++
			continue
		}
		ok, err := u.indexFile(path)
		if err != nil {
			return err
		}
		if ok {
			stats.Indexed++
		} else {
			stats.Failed++
		}
	}

	for dir := range removedDirs {
		keys, err := u.Writer.Keys(ctx, dir)
		if err != nil {
			return err
		}
		for _, key := range keys {
			if _, err := os.Stat(key); errors.Is(err, fs.ErrNotExist) {
				u.Writer.Delete(key)
				stats.Removed++
			}
		}
	}

	if err := u.Writer.Commit(); err != nil {
		return err
	}
	u.Log.WithFields(logrus.Fields{
		"indexed": stats.Indexed,
		"failed":  stats.Failed,
		"removed": stats.Removed,
	}).Info("committed")
	return nil
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && isHidden(d.Name()) {
			return fs.SkipDir
		}
		return w.Add(path)
	})
}
