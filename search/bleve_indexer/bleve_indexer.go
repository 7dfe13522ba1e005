package bleve_indexer

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/datetime/flexible"
	"github.com/blevesearch/bleve/v2/mapping"

	_ "github.com/blevesearch/bleve/v2/config"

	"github.com/noelzubin/mdq/search/analysis"
)

// Fields used to render and order hits. The "@" prefix keeps them apart from
// frontmatter keys, which the query language can always address.
const (
	storedTitle = "@title"
	storedBody  = "@body"
	storedMTime = "@mtime"
)

var storedFields = map[string]bool{
	storedTitle: true,
	storedBody:  true,
	storedMTime: true,
}

// How long to wait for another process holding the index lock.
const lockTimeout = "1s"

func writerConfig() map[string]interface{} {
	return map[string]interface{}{"bolt_timeout": lockTimeout}
}

func readerConfig() map[string]interface{} {
	return map[string]interface{}{"bolt_timeout": lockTimeout, "read_only": true}
}

// noDates is a datetime parser without layouts. As the default parser it keeps
// dynamic string values that look like dates ("2023-03-07") as plain terms.
const noDates = "no_dates"

// newIndexMapping indexes every query field with the keyword analyzer: terms
// arrive already analyzed by the analysis package and must be stored as they
// are.
func newIndexMapping() (mapping.IndexMapping, error) {
	im := bleve.NewIndexMapping()
	err := im.AddCustomDateTimeParser(noDates, map[string]interface{}{
		"type":    flexible.Name,
		"layouts": []interface{}{},
	})
	if err != nil {
		return nil, err
	}
	if err := analysis.Register(im); err != nil {
		return nil, err
	}
	im.DefaultDateTimeParser = noDates
	im.DefaultAnalyzer = keyword.Name
	im.DefaultField = analysis.FieldText
	im.StoreDynamic = false
	im.DocValuesDynamic = false

	stored := bleve.NewTextFieldMapping()
	stored.Index = false
	stored.Store = true
	stored.IncludeInAll = false
	stored.IncludeTermVectors = false
	stored.DocValues = false

	// The body is analyzed by the index as well so the highlighter can
	// cut fragments around matched terms.
	body := bleve.NewTextFieldMapping()
	body.Analyzer = analysis.AnalyzerName
	body.Store = true
	body.IncludeInAll = false
	body.IncludeTermVectors = true
	body.DocValues = false

	mtime := bleve.NewDateTimeFieldMapping()
	mtime.Store = true
	mtime.IncludeInAll = false

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt(storedTitle, stored)
	doc.AddFieldMappingsAt(storedBody, body)
	doc.AddFieldMappingsAt(storedMTime, mtime)
	im.DefaultMapping = doc

	return im, nil
}

// GetIndex returns the index if it exists or creates a new one if it doesn't.
func GetIndex(path string) (bleve.Index, error) {
	index, err := bleve.OpenUsing(path, writerConfig())
	if !errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		return index, err
	}

	im, err := newIndexMapping()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	return bleve.NewUsing(path, im, bleve.Config.DefaultIndexType, bleve.Config.DefaultKVStore, writerConfig())
}
