package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"single term", "foo", "foo"},
		{"field filter", "tag:qux", "tag:qux"},
		{"field name is lowercased", "Tag:Qux", "tag:Qux"},
		{"implicit and", "foo bar baz", "((foo AND bar) AND baz)"},
		{"explicit and", "foo AND bar", "(foo AND bar)"},
		{"or is left associative", "a OR b OR c", "((a OR b) OR c)"},
		{"and binds tighter than or", "A OR B AND C", "(A OR (B AND C))"},
		{"implicit and binds tighter than or", "A OR B C", "(A OR (B AND C))"},
		{"not binds tighter than and", "NOT A AND B", "((NOT A) AND B)"},
		{"double negation", "NOT NOT a", "(NOT (NOT a))"},
		{"parentheses override precedence", "(A OR B) AND C", "((A OR B) AND C)"},
		{"nested parentheses", "((a))", "a"},
		{"mixed", "foo AND bar AND tag:qux", "((foo AND bar) AND tag:qux)"},
		{"lowercase operators are terms", "cats and dogs", "((cats AND and) AND dogs)"},
		{"quoted operator word", `"OR" x`, `("OR" AND x)`},
		{"quoted field value", `project:"big plan"`, `project:"big plan"`},
		{"quoted term with escape", `"say \"hi\""`, `"say \"hi\""`},
		{"value keeps further colons", "url:http://x", "url:http://x"},
		{"leading colon is a term", ":foo", ":foo"},
		{"parenthesis ends a word", "a(b)", "(a AND b)"},
		{"not inside group", "tag:a (NOT tag:b OR c)", "(tag:a AND ((NOT tag:b) OR c))"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, expr.String())
		})
	}
}

func TestParseBuildsTree(t *testing.T) {
	expr, err := Parse("foo AND bar AND tag:qux")
	require.NoError(t, err)

	want := And{
		Left:  And{Left: Term{Text: "foo"}, Right: Term{Text: "bar"}},
		Right: FieldFilter{Field: "tag", Value: "qux"},
	}
	assert.Equal(t, want, expr)
}

func TestParseSyntaxErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		pos   int
		msg   string
	}{
		{"empty", "", 0, "empty query"},
		{"whitespace only", "   \t", 0, "empty query"},
		{"dangling and", "tag:foo AND", 8, "dangling operator AND"},
		{"dangling or", "foo OR", 4, "dangling operator OR"},
		{"dangling not", "foo NOT", 4, "dangling operator NOT"},
		{"operator before close paren", "(a AND)", 3, "dangling operator AND"},
		{"consecutive operators", "a AND OR b", 2, "dangling operator AND"},
		{"leading operator", "AND foo", 0, "no left operand"},
		{"missing close paren", "(foo OR bar", 0, "missing"},
		{"extra close paren", "foo)", 3, "unbalanced parentheses"},
		{"stray close paren", ")", 0, "unbalanced parentheses"},
		{"empty parentheses", "foo ()", 4, "empty parentheses"},
		{"field without value", "tag: foo", 0, "missing value"},
		{"unterminated quote", `say "hello`, 4, "unterminated quote"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := Parse(tt.input)
			assert.Nil(t, expr)

			var serr *SyntaxError
			require.ErrorAs(t, err, &serr)
			assert.Equal(t, tt.pos, serr.Pos)
			assert.Contains(t, serr.Msg, tt.msg)
			assert.Equal(t, tt.input, serr.Input)
		})
	}
}

func TestVisitTracksNegation(t *testing.T) {
	expr, err := Parse("a NOT (b OR NOT c) title:d")
	require.NoError(t, err)

	negated := map[string]bool{}
	Visit(expr, func(node Expr, neg bool) {
		switch n := node.(type) {
		case Term:
			negated[n.Text] = neg
		case FieldFilter:
			negated[n.Value] = neg
		}
	})

	assert.Equal(t, map[string]bool{"a": false, "b": true, "c": false, "d": false}, negated)
}
