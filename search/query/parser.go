package query

import (
	"fmt"
	"strings"
)

// SyntaxError reports a malformed query string. Pos is the byte offset the
// problem was detected at.
type SyntaxError struct {
	Input string
	Pos   int
	Msg   string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("query syntax error at %d: %s", e.Pos, e.Msg)
}

// Parse turns a query string into an expression tree. Operators bind NOT
// tighter than AND (explicit or implied by juxtaposition), and AND tighter
// than OR. Both binary operators are left associative.
func Parse(input string) (Expr, error) {
	if strings.TrimSpace(input) == "" {
		return nil, &SyntaxError{Input: input, Pos: 0, Msg: "empty query"}
	}

	tokens, err := lex(input)
	if err != nil {
		return nil, err
	}

	p := &parser{input: input, tokens: tokens}
	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	if tok := p.peek(); tok.kind != tokEOF {
		if tok.kind == tokRParen {
			return nil, p.errorf(tok, "unbalanced parentheses: unexpected %s", tok.describe())
		}
		return nil, p.errorf(tok, "unexpected %s", tok.describe())
	}
	return expr, nil
}

type parser struct {
	input  string
	tokens []token
	pos    int
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) advance() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) errorf(tok token, format string, args ...interface{}) *SyntaxError {
	return &SyntaxError{Input: p.input, Pos: tok.pos, Msg: fmt.Sprintf(format, args...)}
}

func startsOperand(tok token) bool {
	switch tok.kind {
	case tokTerm, tokField, tokLParen, tokNot:
		return true
	}
	return false
}

// operand consumes an operator and ensures a right operand follows it.
func (p *parser) operand() error {
	op := p.advance()
	if !startsOperand(p.peek()) {
		return p.errorf(op, "dangling operator %s: missing right operand", op.text)
	}
	return nil
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	for p.peek().kind == tokOr {
		if err := p.operand(); err != nil {
			return nil, err
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = Or{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek()
		switch {
		case tok.kind == tokAnd:
			if err := p.operand(); err != nil {
				return nil, err
			}
		case startsOperand(tok):
			// implicit AND
		default:
			return left, nil
		}

		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = And{Left: left, Right: right}
	}
}

func (p *parser) parseUnary() (Expr, error) {
	if p.peek().kind != tokNot {
		return p.parseAtom()
	}

	if err := p.operand(); err != nil {
		return nil, err
	}
	inner, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return Not{Expr: inner}, nil
}

func (p *parser) parseAtom() (Expr, error) {
	tok := p.peek()
	switch tok.kind {
	case tokTerm:
		p.advance()
		return Term{Text: tok.text}, nil
	case tokField:
		p.advance()
		return FieldFilter{Field: tok.field, Value: tok.text}, nil
	case tokLParen:
		p.advance()
		if p.peek().kind == tokRParen {
			return nil, p.errorf(tok, "empty parentheses")
		}
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.peek().kind != tokRParen {
			return nil, p.errorf(tok, "unbalanced parentheses: missing \")\"")
		}
		p.advance()
		return expr, nil
	case tokAnd, tokOr:
		return nil, p.errorf(tok, "operator %s has no left operand", tok.text)
	case tokRParen:
		return nil, p.errorf(tok, "unbalanced parentheses: unexpected %s", tok.describe())
	default:
		return nil, p.errorf(tok, "unexpected %s", tok.describe())
	}
}
