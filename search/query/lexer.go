package query

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokLParen
	tokRParen
	tokAnd
	tokOr
	tokNot
	tokTerm
	tokField
)

type token struct {
	kind  tokenKind
	pos   int // byte offset in the input
	text  string
	field string
}

func (t token) describe() string {
	switch t.kind {
	case tokEOF:
		return "end of query"
	case tokLParen:
		return `"("`
	case tokRParen:
		return `")"`
	case tokAnd, tokOr, tokNot:
		return t.text
	default:
		return "term " + quote(t.text)
	}
}

func isOperator(word string) bool {
	return word == "AND" || word == "OR" || word == "NOT"
}

type lexer struct {
	input string
	pos   int
}

func lex(input string) ([]token, error) {
	l := &lexer{input: input}

	var tokens []token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.kind == tokEOF {
			return tokens, nil
		}
	}
}

func (l *lexer) next() (token, error) {
	l.skipSpace()
	if l.pos >= len(l.input) {
		return token{kind: tokEOF, pos: l.pos}, nil
	}

	start := l.pos
	switch l.input[l.pos] {
	case '(':
		l.pos++
		return token{kind: tokLParen, pos: start, text: "("}, nil
	case ')':
		l.pos++
		return token{kind: tokRParen, pos: start, text: ")"}, nil
	case '"':
		value, err := l.quoted()
		if err != nil {
			return token{}, err
		}
		return token{kind: tokTerm, pos: start, text: value}, nil
	}

	word := l.word()
	switch word {
	case "AND":
		return token{kind: tokAnd, pos: start, text: word}, nil
	case "OR":
		return token{kind: tokOr, pos: start, text: word}, nil
	case "NOT":
		return token{kind: tokNot, pos: start, text: word}, nil
	}

	colon := strings.IndexByte(word, ':')
	if colon <= 0 || !isIdent(word[:colon]) {
		return token{kind: tokTerm, pos: start, text: word}, nil
	}

	field, value := strings.ToLower(word[:colon]), word[colon+1:]
	if value == "" {
		if l.pos < len(l.input) && l.input[l.pos] == '"' {
			quoted, err := l.quoted()
			if err != nil {
				return token{}, err
			}
			return token{kind: tokField, pos: start, field: field, text: quoted}, nil
		}
		return token{}, &SyntaxError{Input: l.input, Pos: start, Msg: "missing value for field " + quote(field)}
	}
	return token{kind: tokField, pos: start, field: field, text: value}, nil
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		l.pos += size
	}
}

// word consumes up to the next space, parenthesis or quote.
func (l *lexer) word() string {
	start := l.pos
	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if unicode.IsSpace(r) || r == '(' || r == ')' || r == '"' {
			break
		}
		l.pos += size
	}
	return l.input[start:l.pos]
}

// quoted consumes a double quoted string. A backslash escapes the next byte.
func (l *lexer) quoted() (string, error) {
	start := l.pos
	l.pos++

	var b strings.Builder
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		switch {
		case c == '\\' && l.pos+1 < len(l.input):
			b.WriteByte(l.input[l.pos+1])
			l.pos += 2
		case c == '"':
			l.pos++
			return b.String(), nil
		default:
			b.WriteByte(c)
			l.pos++
		}
	}
	return "", &SyntaxError{Input: l.input, Pos: start, Msg: "unterminated quote"}
}

func isIdent(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '-' && r != '.' {
			return false
		}
	}
	return s != ""
}
