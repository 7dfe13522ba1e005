// Package analysis maps parsed notes to the terms stored in the index and
// normalizes query values the same way.
package analysis

import (
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/length"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/token/porter"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/samber/lo"

	"github.com/noelzubin/mdq/document"
)

// Index fields.
const (
	FieldText     = "text" // default field for unqualified terms
	FieldTitle    = "title"
	FieldTag      = "tag"
	FieldPath     = "path"
	FieldCreated  = "created"
	FieldModified = "modified"
)

// MinTokenLength is the shortest token kept by the analyzer, in runes.
const MinTokenLength = 2

const dateLayout = "2006-01-02"

// Frontmatter keys consumed by dedicated fields; everything else becomes a
// field of its own.
var reservedKeys = map[string]bool{
	"title":    true,
	"tags":     true,
	"created":  true,
	"date":     true,
	"modified": true,
	"updated":  true,
	FieldText:  true,
	FieldPath:  true,
	FieldTag:   true,
}

var analyzer analysis.Analyzer = &analysis.DefaultAnalyzer{
	Tokenizer: unicode.NewUnicodeTokenizer(),
	TokenFilters: []analysis.TokenFilter{
		lowercase.NewLowerCaseFilter(),
		length.NewLengthFilter(MinTokenLength, 0),
		porter.NewPorterStemmer(),
	},
}

// AnalyzerName is the index mapping's name for the analyzer behind Tokens.
const AnalyzerName = "mdq_text"

const minLengthFilter = "mdq_min_length"

// Register adds the analyzer to im so fields analyzed by the index itself
// produce the same terms and offsets as Tokens.
func Register(im *mapping.IndexMappingImpl) error {
	err := im.AddCustomTokenFilter(minLengthFilter, map[string]interface{}{
		"type": length.Name,
		"min":  float64(MinTokenLength),
	})
	if err != nil {
		return err
	}
	return im.AddCustomAnalyzer(AnalyzerName, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     unicode.Name,
		"token_filters": []string{lowercase.Name, minLengthFilter, porter.Name},
	})
}

// TermSet maps a field name to its terms. Every slice is sorted and free of
// duplicates so equal documents always produce equal term sets.
type TermSet map[string][]string

// Token is an analyzed term with the byte range it was produced from.
type Token struct {
	Term       string
	Start, End int
}

// Map produces the indexable terms of a document.
func Map(doc *document.Document) TermSet {
	sets := make(map[string]map[string]struct{})
	add := func(field string, terms ...string) {
		if len(terms) == 0 {
			return
		}
		if sets[field] == nil {
			sets[field] = make(map[string]struct{})
		}
		for _, term := range terms {
			sets[field][term] = struct{}{}
		}
	}

	add(FieldPath, doc.Path)

	for _, tag := range doc.Tags {
		add(FieldTag, verbatim(tag)...)
	}

	title := Stem(doc.Title)
	add(FieldTitle, title...)
	add(FieldText, title...)
	add(FieldText, Stem(doc.Body)...)

	if !doc.Created.IsZero() {
		add(FieldCreated, doc.Created.Format(dateLayout))
	}
	if !doc.Modified.IsZero() {
		add(FieldModified, doc.Modified.Format(dateLayout))
	}

	for key, values := range doc.Meta {
		field := strings.ToLower(key)
		if reservedKeys[field] {
			continue
		}
		for _, value := range values {
			add(field, verbatim(value)...)
		}
	}

	terms := make(TermSet, len(sets))
	for field, set := range sets {
		list := lo.Keys(set)
		sort.Strings(list)
		terms[field] = list
	}
	return terms
}

// Stem tokenizes text and returns its stemmed terms in order of appearance.
func Stem(text string) []string {
	return lo.Map(Tokens(text), func(t Token, _ int) string {
		return t.Term
	})
}

// Tokens runs text through the analyzer.
func Tokens(text string) []Token {
	stream := analyzer.Analyze([]byte(text))
	tokens := make([]Token, 0, len(stream))
	for _, tok := range stream {
		tokens = append(tokens, Token{Term: string(tok.Term), Start: tok.Start, End: tok.End})
	}
	return tokens
}

// IsStemmed reports whether field holds analyzed text rather than verbatim values.
func IsStemmed(field string) bool {
	return field == FieldText || field == FieldTitle
}

// Normalize converts a query value for field into the terms it must match,
// using the same rules Map applies at index time.
func Normalize(field, value string) []string {
	if IsStemmed(field) {
		return Stem(value)
	}
	if field == FieldPath {
		value = strings.TrimSpace(value)
		if value == "" {
			return nil
		}
		return []string{value}
	}
	return verbatim(value)
}

func verbatim(value string) []string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return nil
	}
	return []string{value}
}
