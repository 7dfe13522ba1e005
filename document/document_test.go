package document

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrontMatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: Hello\ntags: [foo, bar]\ncreated: 2021-03-04\nstatus: draft\n---\n# Heading\nBody text.\n")

	doc, err := Parse("/notes/hello.md", input)
	require.NoError(t, err)

	assert.Equal(t, "/notes/hello.md", doc.Path)
	assert.Equal(t, "Hello", doc.Title)
	assert.Equal(t, []string{"foo", "bar"}, doc.Tags)
	assert.Equal(t, time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC), doc.Created)
	assert.True(t, doc.Modified.IsZero())
	assert.Equal(t, "# Heading\nBody text.\n", doc.Body)
	assert.Equal(t, []string{"draft"}, doc.Meta["status"])
}

func TestParseBodyIsVerbatim(t *testing.T) {
	body := "\n\n  indented\n\n| a | b |\n<b>html</b>\n---\nafter rule\n"
	doc, err := Parse("n.md", []byte("---\ntitle: x\n---\n"+body))
	require.NoError(t, err)

	assert.Equal(t, body, doc.Body)
}

func TestParseMissingHeader(t *testing.T) {
	_, err := Parse("plain.md", []byte("# Just a heading\nSome text.\n"))

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "plain.md", perr.Path)
	assert.True(t, errors.Is(err, ErrMissingHeader))
}

func TestParseUnterminatedHeader(t *testing.T) {
	_, err := Parse("open.md", []byte("---\ntitle: never closed\nbody\n"))
	assert.ErrorIs(t, err, ErrUnterminatedHeader)
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse("bad.md", []byte("---\ntags: [foo, bar\n---\nBody\n"))

	var perr *ParseError
	assert.ErrorAs(t, err, &perr)
}

func TestParseHeaderNotMapping(t *testing.T) {
	_, err := Parse("list.md", []byte("---\n- a\n- b\n---\nBody\n"))
	assert.ErrorIs(t, err, ErrNotMapping)
}

func TestParseEmptyHeader(t *testing.T) {
	doc, err := Parse("/notes/empty-header.md", []byte("---\n---\nonly body\n"))
	require.NoError(t, err)

	assert.Empty(t, doc.Meta)
	assert.Empty(t, doc.Tags)
	assert.Equal(t, "empty-header", doc.Title)
	assert.Equal(t, "only body\n", doc.Body)
}

func TestParseAcceptsDocumentEndMarkerAndCRLF(t *testing.T) {
	doc, err := Parse("crlf.md", []byte("\xef\xbb\xbf---\r\ntitle: Windows\r\n...\r\nbody\r\n"))
	require.NoError(t, err)

	assert.Equal(t, "Windows", doc.Title)
	assert.Equal(t, "body\r\n", doc.Body)
}

func TestParsePreservesUnknownKeys(t *testing.T) {
	input := []byte("---\nproject:\n  name: mdq\n  owners: [ann, bob]\nrating: 5\nempty:\n---\n")
	doc, err := Parse("meta.md", input)
	require.NoError(t, err)

	assert.Equal(t, []string{"mdq"}, doc.Meta["project.name"])
	assert.Equal(t, []string{"ann", "bob"}, doc.Meta["project.owners"])
	assert.Equal(t, []string{"5"}, doc.Meta["rating"])
	assert.Contains(t, doc.Meta, "empty")
}

func TestParseScalarTags(t *testing.T) {
	doc, err := Parse("tags.md", []byte("---\ntags: \"#go, search  notes\"\n---\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"go", "search", "notes"}, doc.Tags)
}

func TestParseTagsDeduplicated(t *testing.T) {
	doc, err := Parse("dup.md", []byte("---\ntags:\n  - foo\n  - bar\n  - foo\n---\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"foo", "bar"}, doc.Tags)
}

func TestParseTitleFallbacks(t *testing.T) {
	doc, err := Parse("/n/from-file.md", []byte("---\ntags: [a]\n---\nintro\n\n# First *Heading*\n\n# Second\n"))
	require.NoError(t, err)
	assert.Equal(t, "First Heading", doc.Title)

	doc, err = Parse("/n/from-file.md", []byte("---\ntags: [a]\n---\n## Not level one\n"))
	require.NoError(t, err)
	assert.Equal(t, "from-file", doc.Title)
}

func TestParseTimestamps(t *testing.T) {
	input := []byte("---\ndate: 2022-01-02 15:04\nupdated: March 7, 2023\n---\n")
	doc, err := Parse("dates.md", input)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2022, 1, 2, 15, 4, 0, 0, time.UTC), doc.Created)
	assert.Equal(t, time.Date(2023, 3, 7, 0, 0, 0, 0, time.UTC), doc.Modified)

	doc, err = Parse("dates.md", []byte("---\ncreated: someday\n---\n"))
	require.NoError(t, err)
	assert.True(t, doc.Created.IsZero())
	assert.Equal(t, []string{"someday"}, doc.Meta["created"])
}

func TestParseFileUsesAbsoluteKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "note.md")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("---\ntitle: A\n---\nbody"), 0o644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	rel, err := filepath.Rel(wd, path)
	require.NoError(t, err)

	first, err := ParseFile(path)
	require.NoError(t, err)
	second, err := ParseFile(rel)
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(first.Path))
	assert.Equal(t, first.Path, second.Path)
}
