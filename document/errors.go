package document

import (
	"errors"
	"fmt"
)

var (
	ErrMissingHeader      = errors.New("missing frontmatter header")
	ErrUnterminatedHeader = errors.New("unterminated frontmatter header")
	ErrNotMapping         = errors.New("frontmatter is not a mapping")
)

// ParseError reports a note whose frontmatter header is absent or malformed.
// The note is skipped; it never aborts a batch.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

type invalidHeaderError struct {
	err error
}

func (e *invalidHeaderError) Error() string {
	return fmt.Sprintf("invalid frontmatter: %v", e.err)
}

func (e *invalidHeaderError) Unwrap() error { return e.err }
