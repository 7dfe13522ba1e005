package search

import (
	"context"
	"fmt"

	"github.com/noelzubin/mdq/search/query"
)

// DocumentMatch is one ranked hit.
type DocumentMatch struct {
	Path    string  // document key
	Title   string  // display title
	Content string  // body fragment, matched terms marked with ANSI colors
	Score   float64 // relevance, higher is better
}

type SearchResult struct {
	Err   error
	Total uint64
	Hits  []DocumentMatch
}

// Searcher evaluates queries against a read-only index handle.
type Searcher interface {
	Search(ctx context.Context, expr query.Expr, limit int) (SearchResult, error) // Ranked hits for expr.
	Recent(ctx context.Context, limit int) (SearchResult, error)                  // Most recently modified notes.
}

// IndexIOError wraps a failure of the index engine to open, write or commit.
type IndexIOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IndexIOError) Error() string {
	return fmt.Sprintf("index %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IndexIOError) Unwrap() error { return e.Err }
