package bleve_indexer

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/blevesearch/bleve/v2"
	bleveSearch "github.com/blevesearch/bleve/v2/search"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/samber/lo"

	"github.com/noelzubin/mdq/search"
	"github.com/noelzubin/mdq/search/analysis"
	"github.com/noelzubin/mdq/search/query"
)

// Reader is a read-only handle on the index. It implements search.Searcher.
type Reader struct {
	path  string
	index bleve.Index
}

var _ search.Searcher = (*Reader)(nil)

// OpenReader opens the index at path read-only. A missing index is created
// empty first so a fresh install can start a session.
func OpenReader(path string) (*Reader, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		index, err := GetIndex(path)
		if err != nil {
			return nil, &search.IndexIOError{Op: "create", Path: path, Err: err}
		}
		if err := index.Close(); err != nil {
			return nil, &search.IndexIOError{Op: "create", Path: path, Err: err}
		}
	}

	index, err := bleve.OpenUsing(path, readerConfig())
	if err != nil {
		return nil, &search.IndexIOError{Op: "open", Path: path, Err: err}
	}
	return &Reader{path: path, index: index}, nil
}

func (r *Reader) Close() error {
	return r.index.Close()
}

// Search evaluates expr and returns at most limit hits, best first.
func (r *Reader) Search(ctx context.Context, expr query.Expr, limit int) (search.SearchResult, error) {
	q := withHighlight(Compile(expr), highlightTerms(expr))
	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	req.Fields = []string{storedTitle}
	req.Highlight = newHighlight()

	return r.run(ctx, req)
}

// Recent lists notes by modification time, newest first.
func (r *Reader) Recent(ctx context.Context, limit int) (search.SearchResult, error) {
	req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), limit, 0, false)
	req.Fields = []string{storedTitle}
	req.Highlight = newHighlight()
	req.SortBy([]string{"-" + storedMTime, "_id"})

	return r.run(ctx, req)
}

func (r *Reader) run(ctx context.Context, req *bleve.SearchRequest) (search.SearchResult, error) {
	res, err := r.index.SearchInContext(ctx, req)
	if err != nil {
		err = &search.IndexIOError{Op: "search", Path: r.path, Err: err}
		return search.SearchResult{Err: err}, err
	}

	return search.SearchResult{
		Total: res.Total,
		Hits: lo.Map(res.Hits, func(hit *bleveSearch.DocumentMatch, _ int) search.DocumentMatch {
			title, _ := hit.Fields[storedTitle].(string)
			if title == "" {
				title = filepath.Base(hit.ID)
			}

			return search.DocumentMatch{
				Path:    hit.ID,
				Title:   title,
				Content: fragment(hit),
				Score:   hit.Score,
			}
		}),
	}, nil
}

// Compile translates a parsed query into a bleve query. Values are normalized
// with the rules used at index time; a value that normalizes to nothing
// matches nothing.
func Compile(expr query.Expr) bleveQuery.Query {
	switch e := expr.(type) {
	case query.Term:
		return termsQuery(analysis.FieldText, e.Text)
	case query.FieldFilter:
		return termsQuery(e.Field, e.Value)
	case query.And:
		return bleve.NewConjunctionQuery(Compile(e.Left), Compile(e.Right))
	case query.Or:
		return bleve.NewDisjunctionQuery(Compile(e.Left), Compile(e.Right))
	case query.Not:
		q := bleve.NewBooleanQuery()
		q.AddMust(bleve.NewMatchAllQuery())
		q.AddMustNot(Compile(e.Expr))
		return q
	}
	return bleve.NewMatchNoneQuery()
}

func termsQuery(field, value string) bleveQuery.Query {
	terms := analysis.Normalize(field, value)
	if len(terms) == 0 {
		return bleve.NewMatchNoneQuery()
	}

	queries := lo.Map(terms, func(term string, _ int) bleveQuery.Query {
		q := bleve.NewTermQuery(term)
		q.SetField(field)
		return q
	})
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewConjunctionQuery(queries...)
}
