package bleve_indexer

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/blevesearch/bleve/v2"

	"github.com/noelzubin/mdq/search"
	"github.com/noelzubin/mdq/search/analysis"
)

const keysPageSize = 500

// Stored carries the display data kept next to a document's terms.
type Stored struct {
	Title    string
	Body     string
	Modified time.Time
}

// Writer is the single writable handle on the index. Index and Delete calls
// are buffered and become visible to readers on Commit.
type Writer struct {
	path  string
	index bleve.Index
	batch *bleve.Batch
}

// OpenWriter opens the index at path, creating it when missing. It fails if
// another process holds the index.
func OpenWriter(path string) (*Writer, error) {
	index, err := GetIndex(path)
	if err != nil {
		return nil, &search.IndexIOError{Op: "open", Path: path, Err: err}
	}
	return &Writer{path: path, index: index, batch: index.NewBatch()}, nil
}

// Index replaces whatever is stored under key with terms.
func (w *Writer) Index(key string, terms analysis.TermSet, stored Stored) error {
	fields := make(map[string]interface{}, len(terms)+len(storedFields))
	for field, list := range terms {
		if storedFields[field] {
			continue
		}
		fields[field] = list
	}
	fields[storedTitle] = stored.Title
	fields[storedBody] = stored.Body
	if !stored.Modified.IsZero() {
		fields[storedMTime] = stored.Modified
	}

	if err := w.batch.Index(key, fields); err != nil {
		return &search.IndexIOError{Op: "index", Path: key, Err: err}
	}
	return nil
}

// Delete removes key from the index.
func (w *Writer) Delete(key string) {
	w.batch.Delete(key)
}

// Pending reports the number of buffered operations.
func (w *Writer) Pending() int {
	return w.batch.Size()
}

// Commit flushes buffered operations in a single batch.
func (w *Writer) Commit() error {
	if w.batch.Size() == 0 {
		return nil
	}
	if err := w.index.Batch(w.batch); err != nil {
		return &search.IndexIOError{Op: "commit", Path: w.path, Err: err}
	}
	w.batch.Reset()
	return nil
}

// Close commits pending work and releases the index.
func (w *Writer) Close() error {
	commitErr := w.Commit()
	if err := w.index.Close(); err != nil && commitErr == nil {
		return &search.IndexIOError{Op: "close", Path: w.path, Err: err}
	}
	return commitErr
}

// Keys returns the committed document keys equal to root or below it.
func (w *Writer) Keys(ctx context.Context, root string) ([]string, error) {
	q := bleve.NewPrefixQuery(root)
	q.SetField(analysis.FieldPath)

	dir := strings.TrimSuffix(root, string(filepath.Separator)) + string(filepath.Separator)

	var keys []string
	for from := 0; ; from += keysPageSize {
		req := bleve.NewSearchRequestOptions(q, keysPageSize, from, false)
		req.SortBy([]string{"_id"})

		res, err := w.index.SearchInContext(ctx, req)
		if err != nil {
			return nil, &search.IndexIOError{Op: "search", Path: w.path, Err: err}
		}
		for _, hit := range res.Hits {
			if hit.ID == root || strings.HasPrefix(hit.ID, dir) {
				keys = append(keys, hit.ID)
			}
		}
		if len(res.Hits) < keysPageSize {
			return keys, nil
		}
	}
}

// Count returns the number of committed documents.
func (w *Writer) Count() (uint64, error) {
	return w.index.DocCount()
}
