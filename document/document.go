// Package document turns a note file (YAML frontmatter followed by a Markdown
// body) into a structured record.
package document

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/samber/lo"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

const (
	headerMarker = "---"
	headerEnd    = "..."
)

var bom = []byte("\xef\xbb\xbf")

// Document is a parsed note. Path is the unique, stable key of the note.
type Document struct {
	Path     string
	Title    string
	Tags     []string
	Created  time.Time
	Modified time.Time
	// Meta holds every frontmatter key, known or not. Scalars are stored as
	// single element slices and nested mappings are flattened to "parent.child".
	Meta map[string][]string
	Body string
}

// ParseFile reads the note at path and parses it. The document key is the
// absolute, cleaned form of path.
func ParseFile(path string) (*Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(abs)
	if err != nil {
		return nil, err
	}

	return Parse(abs, content)
}

// Parse builds a Document from raw file content. It fails with a *ParseError
// when the frontmatter header is missing or malformed.
func Parse(path string, content []byte) (*Document, error) {
	path = filepath.Clean(path)

	header, body, err := splitFrontMatter(content)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	fm, err := parseFrontMatter(header)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	doc := &Document{
		Path:     path,
		Tags:     fm.tags(),
		Created:  fm.timestamp("created", "date"),
		Modified: fm.timestamp("modified", "updated"),
		Meta:     fm.values,
		Body:     string(body),
	}
	doc.Title = deriveTitle(fm, body, path)

	return doc, nil
}

// splitFrontMatter separates the header between the opening "---" line and
// the next "---" (or "...") line from the body that follows it.
func splitFrontMatter(data []byte) ([]byte, []byte, error) {
	data = bytes.TrimPrefix(data, bom)

	first, rest := cutLine(data)
	if !isMarker(first, headerMarker) {
		return nil, nil, ErrMissingHeader
	}

	headerStart := len(data) - len(rest)
	for len(rest) > 0 {
		lineStart := len(data) - len(rest)
		line, next := cutLine(rest)
		if isMarker(line, headerMarker) || isMarker(line, headerEnd) {
			return data[headerStart:lineStart], next, nil
		}
		rest = next
	}

	return nil, nil, ErrUnterminatedHeader
}

func cutLine(data []byte) ([]byte, []byte) {
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return data[:i], data[i+1:]
	}
	return data, nil
}

func isMarker(line []byte, marker string) bool {
	return strings.TrimRight(string(line), " \t\r") == marker
}

type frontMatter struct {
	values map[string][]string
	// scalar records keys whose value was a plain scalar rather than a list.
	scalar map[string]bool
}

func parseFrontMatter(header []byte) (frontMatter, error) {
	fm := frontMatter{
		values: make(map[string][]string),
		scalar: make(map[string]bool),
	}

	var root yaml.Node
	if err := yaml.Unmarshal(header, &root); err != nil {
		return fm, &invalidHeaderError{err: err}
	}

	// An empty or comment-only header decodes to an empty node.
	if root.Kind == 0 || (root.Kind == yaml.DocumentNode && len(root.Content) == 0) {
		return fm, nil
	}

	mapping := &root
	if root.Kind == yaml.DocumentNode {
		mapping = root.Content[0]
	}
	if mapping.Kind != yaml.MappingNode {
		return fm, ErrNotMapping
	}

	fm.flatten("", mapping)
	return fm, nil
}

func (fm frontMatter) flatten(prefix string, mapping *yaml.Node) {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key := mapping.Content[i].Value
		if prefix != "" {
			key = prefix + "." + key
		}

		value := mapping.Content[i+1]
		if value.Kind == yaml.AliasNode && value.Alias != nil {
			value = value.Alias
		}

		switch value.Kind {
		case yaml.MappingNode:
			fm.flatten(key, value)
		case yaml.SequenceNode:
			fm.values[key] = scalars(value)
		case yaml.ScalarNode:
			if value.Tag == "!!null" {
				fm.values[key] = []string{}
				continue
			}
			fm.values[key] = []string{value.Value}
			fm.scalar[key] = true
		}
	}
}

func scalars(node *yaml.Node) []string {
	out := make([]string, 0, len(node.Content))
	for _, child := range node.Content {
		switch child.Kind {
		case yaml.ScalarNode:
			out = append(out, child.Value)
		case yaml.SequenceNode:
			out = append(out, scalars(child)...)
		}
	}
	return out
}

// tags accepts both `tags: [a, b]` and `tags: a, b` / `tags: a b`.
func (fm frontMatter) tags() []string {
	raw := fm.values["tags"]
	if fm.scalar["tags"] {
		raw = strings.FieldsFunc(raw[0], func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		})
	}

	tags := make([]string, 0, len(raw))
	for _, tag := range raw {
		tag = strings.TrimPrefix(strings.TrimSpace(tag), "#")
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return lo.Uniq(tags)
}

// timestamp returns the first of keys that holds a parsable timestamp.
func (fm frontMatter) timestamp(keys ...string) time.Time {
	for _, key := range keys {
		for _, value := range fm.values[key] {
			t, err := dateparse.ParseIn(strings.TrimSpace(value), time.UTC)
			if err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

func deriveTitle(fm frontMatter, body []byte, path string) string {
	for _, title := range fm.values["title"] {
		if title = strings.TrimSpace(title); title != "" {
			return title
		}
	}

	if heading := firstHeading(body); heading != "" {
		return heading
	}

	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// firstHeading returns the text of the first level one heading in body.
func firstHeading(body []byte) string {
	root := goldmark.DefaultParser().Parse(text.NewReader(body))

	var heading string
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := n.(*ast.Heading); ok && h.Level == 1 {
			heading = strings.TrimSpace(string(h.Text(body)))
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return heading
}
