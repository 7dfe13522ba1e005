package bleve_indexer

import (
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2"
	bleveSearch "github.com/blevesearch/bleve/v2/search"
	"github.com/blevesearch/bleve/v2/search/highlight/highlighter/ansi"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/samber/lo"

	"github.com/noelzubin/mdq/search/analysis"
	"github.com/noelzubin/mdq/search/query"
)

func newHighlight() *bleve.HighlightRequest {
	h := bleve.NewHighlightWithStyle(ansi.Name)
	h.AddField(storedBody)
	return h
}

// highlightTerms collects the stemmed body terms a hit is expected to contain.
func highlightTerms(expr query.Expr) []string {
	terms := make(map[string]bool)
	query.Visit(expr, func(node query.Expr, negated bool) {
		if negated {
			return
		}
		var value string
		switch n := node.(type) {
		case query.Term:
			value = n.Text
		case query.FieldFilter:
			if !analysis.IsStemmed(n.Field) {
				return
			}
			value = n.Value
		default:
			return
		}
		for _, term := range analysis.Stem(value) {
			terms[term] = true
		}
	})

	list := lo.Keys(terms)
	sort.Strings(list)
	return list
}

// withHighlight adds optional clauses on the body so matched body terms carry
// the locations the highlighter cuts fragments around. The clauses raise the
// score of a hit but never decide whether a note matches.
func withHighlight(q bleveQuery.Query, terms []string) bleveQuery.Query {
	if len(terms) == 0 {
		return q
	}
	// bleve answers a boolean query with a match-none must clause from its
	// should clauses alone.
	if _, ok := q.(*bleveQuery.MatchNoneQuery); ok {
		return q
	}

	b := bleve.NewBooleanQuery()
	b.AddMust(q)
	b.AddShould(lo.Map(terms, func(term string, _ int) bleveQuery.Query {
		tq := bleve.NewTermQuery(term)
		tq.SetField(storedBody)
		return tq
	})...)
	return b
}

// fragment returns the best highlighted body fragment of hit. Without a body
// match it is the start of the body.
func fragment(hit *bleveSearch.DocumentMatch) string {
	if fragments := hit.Fragments[storedBody]; len(fragments) > 0 {
		return strings.TrimSpace(fragments[0])
	}
	return ""
}
