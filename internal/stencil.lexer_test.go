package internal

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLexer_Tokenize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Token
	}{
		{
			name:     "empty string",
			input:    "",
			expected: nil,
		},
		{
			name:  "plain text",
			input: "Hello, world!",
			expected: []Token{
				{Type: TokenTypeText, Value: "Hello, world!", Raw: "Hello, world!", Position: Position{Offset: 0, Line: 1, Column: 1}},
			},
		},
		{
			name:  "variable is trimmed",
			input: "Hi {{  name  }}!",
			expected: []Token{
				{Type: TokenTypeText, Value: "Hi ", Raw: "Hi ", Position: Position{Offset: 0, Line: 1, Column: 1}},
				{Type: TokenTypeVariable, Value: "name", Raw: "{{  name  }}", Position: Position{Offset: 3, Line: 1, Column: 4}},
				{Type: TokenTypeText, Value: "!", Raw: "!", Position: Position{Offset: 15, Line: 1, Column: 16}},
			},
		},
		{
			name:  "block and comment",
			input: "{% if x %}{# note #}",
			expected: []Token{
				{Type: TokenTypeBlock, Value: "if x", Raw: "{% if x %}", Position: Position{Offset: 0, Line: 1, Column: 1}},
				{Type: TokenTypeComment, Value: "note", Raw: "{# note #}", Position: Position{Offset: 10, Line: 1, Column: 11}},
			},
		},
		{
			name:  "text whitespace kept verbatim",
			input: "  {{x}}\n ",
			expected: []Token{
				{Type: TokenTypeText, Value: "  ", Raw: "  ", Position: Position{Offset: 0, Line: 1, Column: 1}},
				{Type: TokenTypeVariable, Value: "x", Raw: "{{x}}", Position: Position{Offset: 2, Line: 1, Column: 3}},
				{Type: TokenTypeText, Value: "\n ", Raw: "\n ", Position: Position{Offset: 7, Line: 1, Column: 8}},
			},
		},
		{
			name:  "multiline block content",
			input: "a\n{%\nfor x in y\n%}",
			expected: []Token{
				{Type: TokenTypeText, Value: "a\n", Raw: "a\n", Position: Position{Offset: 0, Line: 1, Column: 1}},
				{Type: TokenTypeBlock, Value: "for x in y", Raw: "{%\nfor x in y\n%}", Position: Position{Offset: 2, Line: 2, Column: 1}},
			},
		},
		{
			name:  "unterminated variable is text",
			input: "Hi {{ name",
			expected: []Token{
				{Type: TokenTypeText, Value: "Hi {{ name", Raw: "Hi {{ name", Position: Position{Offset: 0, Line: 1, Column: 1}},
			},
		},
		{
			name:  "empty delimiter is text",
			input: "{{}}",
			expected: []Token{
				{Type: TokenTypeText, Value: "{{}}", Raw: "{{}}", Position: Position{Offset: 0, Line: 1, Column: 1}},
			},
		},
		{
			name:  "first match wins",
			input: "{% a {{ b }} %}",
			expected: []Token{
				{Type: TokenTypeBlock, Value: "a {{ b }}", Raw: "{% a {{ b }} %}", Position: Position{Offset: 0, Line: 1, Column: 1}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lexer := NewLexer(tt.input, zap.NewNop())
			assert.Equal(t, tt.expected, lexer.Tokenize())
		})
	}
}

func TestLexer_Next_SinglePass(t *testing.T) {
	lexer := NewLexer("a{{ b }}c", nil)

	tok, ok := lexer.Next()
	require.True(t, ok)
	assert.True(t, tok.IsText())

	tok, ok = lexer.Next()
	require.True(t, ok)
	assert.True(t, tok.IsVariable())
	assert.Equal(t, "b", tok.Value)

	rest := lexer.Tokenize()
	require.Len(t, rest, 1)
	assert.Equal(t, "c", rest[0].Value)

	_, ok = lexer.Next()
	assert.False(t, ok)
	assert.Empty(t, lexer.Tokenize())
	assert.Equal(t, Position{Offset: 9, Line: 1, Column: 10}, lexer.Position())
}

func TestLexer_Lossless(t *testing.T) {
	fragments := []string{
		StrBlockOpen, StrBlockClose, StrVarOpen, StrVarClose, StrCommentOpen, StrCommentClose,
		"{% for x in xs %}", "{% endfor %}", "{{ a.b|upper }}", "{# c #}", "{", "}", "%", "#",
		" ", "\n", "\t", "é", "日本",
	}

	f := fuzz.New().RandSource(rand.NewSource(42)).NilChance(0).NumElements(0, 40).
		Funcs(func(s *string, c fuzz.Continue) {
			if c.Intn(4) == 0 {
				*s = c.RandString()
				return
			}
			*s = fragments[c.Intn(len(fragments))]
		})

	for i := 0; i < 200; i++ {
		var parts []string
		f.Fuzz(&parts)
		source := strings.Join(parts, "")

		t.Run(fmt.Sprintf("case %d", i), func(t *testing.T) {
			var sb strings.Builder
			for _, tok := range NewLexer(source, nil).Tokenize() {
				if tok.IsText() {
					assert.Equal(t, tok.Raw, tok.Value)
				}
				assert.Equal(t, source[tok.Position.Offset:tok.Position.Offset+len(tok.Raw)], tok.Raw)
				sb.WriteString(tok.Raw)
			}
			assert.Equal(t, source, sb.String())
		})
	}
}

func TestToken_String(t *testing.T) {
	tok := NewToken(TokenTypeBlock, "if x", "{% if x %}", Position{Line: 2, Column: 3})
	assert.Equal(t, `Token{BLOCK: "if x" @ line 2, column 3}`, tok.String())
	assert.True(t, tok.IsBlock())
	assert.False(t, tok.IsComment())

	empty := NewTextToken("", Position{Line: 1, Column: 1})
	assert.Equal(t, "Token{TEXT @ line 1, column 1}", empty.String())
}
