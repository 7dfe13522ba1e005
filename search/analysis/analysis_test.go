package analysis

import (
	"testing"
	"time"

	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noelzubin/mdq/document"
)

func parse(t *testing.T, content string) *document.Document {
	t.Helper()
	doc, err := document.Parse("/notes/note.md", []byte(content))
	require.NoError(t, err)
	return doc
}

func TestStemNormalizesInflections(t *testing.T) {
	assert.Equal(t, []string{"run"}, Stem("running"))
	assert.Equal(t, []string{"run"}, Stem("Running"))
	assert.Equal(t, Stem("run"), Stem("running"))
}

func TestStemDropsShortTokensAndSplitsPunctuation(t *testing.T) {
	assert.Equal(t, []string{"foo", "bar"}, Stem("a foo-bar, I"))
	assert.Empty(t, Stem("x y z"))
	assert.Empty(t, Stem("  "))
}

func TestMapTagsAreLowercasedAndUnstemmed(t *testing.T) {
	terms := Map(parse(t, "---\ntags: [Running, Foo]\n---\n"))

	assert.Equal(t, []string{"foo", "running"}, terms[FieldTag])
}

func TestMapTitleIsFoldedIntoDefaultField(t *testing.T) {
	terms := Map(parse(t, "---\ntitle: Gardening Notes\n---\nwatering plants"))

	assert.Equal(t, []string{"garden", "note"}, terms[FieldTitle])
	assert.Equal(t, []string{"garden", "note", "plant", "water"}, terms[FieldText])
}

func TestMapMetadataFields(t *testing.T) {
	terms := Map(parse(t, "---\nStatus: In Progress\nauthors: [Ann, Bob]\ncreated: 2021-03-04\n---\n"))

	assert.Equal(t, []string{"in progress"}, terms["status"])
	assert.Equal(t, []string{"ann", "bob"}, terms["authors"])
	assert.Equal(t, []string{"2021-03-04"}, terms[FieldCreated])
	assert.Equal(t, []string{"/notes/note.md"}, terms[FieldPath])
	assert.NotContains(t, terms, "tags")
}

func TestMapIsDeterministic(t *testing.T) {
	content := "---\ntitle: Same\ntags: [b, a, b]\nx: [3, 1, 2]\nmodified: 2022-02-02\n---\nthe same body, the same words\n"

	first := Map(parse(t, content))
	second := Map(parse(t, content))

	assert.Equal(t, first, second)
	for field, list := range first {
		assert.IsIncreasing(t, list, "field %s must be sorted and unique", field)
	}
}

func TestNormalizeMatchesIndexRules(t *testing.T) {
	assert.Equal(t, []string{"run"}, Normalize(FieldText, "running"))
	assert.Equal(t, []string{"run"}, Normalize(FieldTitle, "Running"))
	assert.Equal(t, []string{"running"}, Normalize(FieldTag, " Running "))
	assert.Equal(t, []string{"/Notes/A.md"}, Normalize(FieldPath, "/Notes/A.md"))
	assert.Nil(t, Normalize("status", "   "))
}

func TestTokensCarryOffsets(t *testing.T) {
	tokens := Tokens("I was running home")
	require.Len(t, tokens, 3)

	assert.Equal(t, Token{Term: "run", Start: 6, End: 13}, tokens[1])
}

func TestMapOmitsZeroTimestamps(t *testing.T) {
	doc := &document.Document{Path: "/n.md", Modified: time.Time{}}
	terms := Map(doc)

	assert.NotContains(t, terms, FieldModified)
	assert.NotContains(t, terms, FieldText)
}

func TestRegisteredAnalyzerMatchesTokens(t *testing.T) {
	im := mapping.NewIndexMapping()
	require.NoError(t, Register(im))

	text := "Running shoes, a Bike and the café's ÉCLAIRS"
	stream, err := im.AnalyzeText(AnalyzerName, []byte(text))
	require.NoError(t, err)

	var got []Token
	for _, tok := range stream {
		got = append(got, Token{Term: string(tok.Term), Start: tok.Start, End: tok.End})
	}
	assert.Equal(t, Tokens(text), got)
}
