package internal

import "fmt"

// TokenType represents the type of a lexical token
type TokenType string

// Token type constants
const (
	TokenTypeText     TokenType = "TEXT"
	TokenTypeVariable TokenType = "VARIABLE"
	TokenTypeBlock    TokenType = "BLOCK"
	TokenTypeComment  TokenType = "COMMENT"
)

// Position represents a location in the source template
type Position struct {
	Offset int // Byte offset from start
	Line   int // 1-indexed line number
	Column int // 1-indexed column number
}

// String returns a human-readable position string
func (p Position) String() string {
	return fmt.Sprintf("line %d, column %d", p.Line, p.Column)
}

// Token represents a lexical token produced by the lexer
type Token struct {
	Type     TokenType // The type of token
	Value    string    // Trimmed delimiter content, or verbatim text
	Raw      string    // Exact source slice the token was produced from
	Position Position  // Source position
}

// String returns a human-readable representation of the token
func (t Token) String() string {
	if t.Value == "" {
		return fmt.Sprintf("Token{%s @ %s}", t.Type, t.Position)
	}
	return fmt.Sprintf("Token{%s: %q @ %s}", t.Type, t.Value, t.Position)
}

// IsText returns true if this is a text token
func (t Token) IsText() bool {
	return t.Type == TokenTypeText
}

// IsVariable returns true if this is a variable token
func (t Token) IsVariable() bool {
	return t.Type == TokenTypeVariable
}

// IsBlock returns true if this is a block tag token
func (t Token) IsBlock() bool {
	return t.Type == TokenTypeBlock
}

// IsComment returns true if this is a comment token
func (t Token) IsComment() bool {
	return t.Type == TokenTypeComment
}

// NewToken creates a new token with the given type, value, raw source and position
func NewToken(tokenType TokenType, value, raw string, pos Position) Token {
	return Token{
		Type:     tokenType,
		Value:    value,
		Raw:      raw,
		Position: pos,
	}
}

// NewTextToken creates a text token; text is always stored verbatim
func NewTextToken(content string, pos Position) Token {
	return NewToken(TokenTypeText, content, content, pos)
}
