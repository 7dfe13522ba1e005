// Package query implements the field-aware boolean query language:
//
//	expr         := or_expr
//	or_expr      := and_expr ("OR" and_expr)*
//	and_expr     := unary ("AND" unary)*   // adjacent unaries are AND-ed too
//	unary        := "NOT" unary | atom
//	atom         := field_filter | bare_term | "(" expr ")"
//	field_filter := IDENT ":" VALUE
//	bare_term    := VALUE
//
// Parsed expressions are plain values describing a request; they hold no
// reference to any index.
package query

import (
	"strconv"
	"strings"
)

// Expr is a node of a parsed query.
type Expr interface {
	// String renders the expression fully parenthesized.
	String() string
	node()
}

// Term matches a value in the default field.
type Term struct {
	Text string
}

// FieldFilter matches Value in the named field only.
type FieldFilter struct {
	Field string
	Value string
}

type And struct {
	Left, Right Expr
}

type Or struct {
	Left, Right Expr
}

type Not struct {
	Expr Expr
}

func (Term) node()        {}
func (FieldFilter) node() {}
func (And) node()         {}
func (Or) node()          {}
func (Not) node()         {}

func (t Term) String() string        { return quote(t.Text) }
func (f FieldFilter) String() string { return f.Field + ":" + quote(f.Value) }
func (a And) String() string         { return "(" + a.Left.String() + " AND " + a.Right.String() + ")" }
func (o Or) String() string          { return "(" + o.Left.String() + " OR " + o.Right.String() + ")" }
func (n Not) String() string         { return "(NOT " + n.Expr.String() + ")" }

func quote(value string) string {
	if value == "" || isOperator(value) || strings.ContainsAny(value, " \t\n()\"") {
		return strconv.Quote(value)
	}
	return value
}

// Visit calls fn for every node of expr in depth-first order. negated is true
// for nodes under an odd number of NOT operators.
func Visit(expr Expr, fn func(node Expr, negated bool)) {
	visit(expr, false, fn)
}

func visit(expr Expr, negated bool, fn func(Expr, bool)) {
	fn(expr, negated)
	switch e := expr.(type) {
	case And:
		visit(e.Left, negated, fn)
		visit(e.Right, negated, fn)
	case Or:
		visit(e.Left, negated, fn)
		visit(e.Right, negated, fn)
	case Not:
		visit(e.Expr, !negated, fn)
	}
}
