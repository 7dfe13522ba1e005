package bleve_indexer

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/noelzubin/mdq/document"
	"github.com/noelzubin/mdq/search/analysis"
)

// Updater walks note directories and writes their terms through a Writer.
type Updater struct {
	Writer     *Writer
	Extensions []string
	Verbose    bool      // echo every indexed file to Out
	Out        io.Writer // successes
	Err        io.Writer // per-file failures
	Log        *logrus.Entry
}

// Stats counts what an update did.
type Stats struct {
	Indexed int
	Failed  int
	Removed int
}

func (s *Stats) add(o Stats) {
	s.Indexed += o.Indexed
	s.Failed += o.Failed
	s.Removed += o.Removed
}

// Update re-indexes every note under each root. Work is committed once per
// root. Files that cannot be read or parsed are reported and skipped; a
// failing index handle aborts the whole update.
func (u *Updater) Update(ctx context.Context, roots []string) (Stats, error) {
	var total Stats
	for _, root := range roots {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		stats, err := u.updateRoot(ctx, root)
		total.add(stats)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (u *Updater) updateRoot(ctx context.Context, root string) (Stats, error) {
	var stats Stats

	abs, err := resolveRoot(root)
	if err != nil {
		u.reportFailure(root, err)
		stats.Failed++
		return stats, nil
	}

	paths, walkErrs := ListNotes(abs, u.Extensions)
	for _, err := range walkErrs {
		fmt.Fprintf(u.Err, "❌ %v\n", err)
		u.Log.WithError(err).Warn("walk failed")
		stats.Failed++
	}

	for _, path := range paths {
		ok, err := u.indexFile(path)
		if err != nil {
			return stats, err
		}
		if ok {
			stats.Indexed++
		} else {
			stats.Failed++
		}
	}

	stale, err := u.stale(ctx, abs, paths)
	if err != nil {
		return stats, err
	}
	for _, key := range stale {
		u.Writer.Delete(key)
		u.Log.WithField("path", key).Debug("removed stale note")
	}
	stats.Removed = len(stale)

	if err := u.Writer.Commit(); err != nil {
		return stats, err
	}

	u.Log.WithFields(logrus.Fields{
		"root":    abs,
		"indexed": stats.Indexed,
		"failed":  stats.Failed,
		"removed": stats.Removed,
	}).Info("committed")
	return stats, nil
}

// indexFile parses and indexes one note. It reports false when the note was
// skipped and returns an error only when the index itself failed.
func (u *Updater) indexFile(path string) (bool, error) {
	doc, err := document.ParseFile(path)
	if err != nil {
		u.reportFailure(path, err)
		return false, nil
	}

	stored := Stored{Title: doc.Title, Body: doc.Body, Modified: doc.Modified}
	if stored.Modified.IsZero() {
		stored.Modified = modTime(path)
	}

	if err := u.Writer.Index(doc.Path, analysis.Map(doc), stored); err != nil {
		return false, err
	}

	if u.Verbose {
		fmt.Fprintf(u.Out, "✅ %s\n", doc.Path)
	}
	u.Log.WithField("path", doc.Path).Debug("indexed")
	return true, nil
}

func (u *Updater) reportFailure(path string, err error) {
	fmt.Fprintf(u.Err, "❌ Failed to load file %s: %v\n", path, err)
	u.Log.WithField("path", path).WithError(err).Debug("skipped")
}

// stale returns the keys indexed under root that the walk no longer finds.
func (u *Updater) stale(ctx context.Context, root string, current []string) ([]string, error) {
	indexed, err := u.Writer.Keys(ctx, root)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(current))
	for _, path := range current {
		seen[path] = struct{}{}
	}
	return lo.Filter(indexed, func(key string, _ int) bool {
		_, ok := seen[key]
		return !ok
	}), nil
}

func modTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime().UTC()
}
