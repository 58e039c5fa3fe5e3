package stencil

import (
	"regexp"
	"strings"

	"github.com/itsatony/go-stencil/internal"
	"go.uber.org/zap"
)

// tagNamePattern matches the identifier a block starts with.
var tagNamePattern = regexp.MustCompile(`^[\p{L}\p{N}_]+`)

// Token is a lexical token of template source.
type Token = internal.Token

// Tokenize splits source into its text, variable, block and comment tokens.
func Tokenize(source string) []Token {
	return internal.NewLexer(source, nil).Tokenize()
}

// Parser builds a node tree by recursive descent over a single token stream.
// Tag functions for compound tags call back into the same Parser, so nested
// bodies consume tokens from the shared stream without lookahead.
type Parser struct {
	lexer  *internal.Lexer
	tags   *TagRegistry
	loader Loader
	logger *zap.Logger
}

// NewParser creates a parser over source. tags defaults to the process-wide
// registry; loader may be nil for templates that do not include others.
func NewParser(source string, tags *TagRegistry, loader Loader, logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tags == nil {
		tags = DefaultTagRegistry()
	}
	return &Parser{
		lexer:  internal.NewLexer(source, logger),
		tags:   tags,
		loader: loader,
		logger: logger,
	}
}

// Parse consumes the remaining tokens and returns the top-level nodes.
func (p *Parser) Parse() ([]Node, error) {
	var nodes []Node
	for {
		node, ok, err := p.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nodes, nil
		}
		nodes = append(nodes, node)
	}
}

// Next converts the next token into a node. Comments produce no node and are
// skipped. It returns false once the token stream is exhausted.
func (p *Parser) Next() (Node, bool, error) {
	for {
		tok, ok := p.lexer.Next()
		if !ok {
			return nil, false, nil
		}
		switch tok.Type {
		case internal.TokenTypeText:
			return NewTextNode(tok.Value, tok.Position), true, nil
		case internal.TokenTypeVariable:
			return NewVariableNode(tok.Value, tok.Position), true, nil
		case internal.TokenTypeBlock:
			node, err := p.parseBlock(tok)
			if err != nil {
				return nil, false, err
			}
			return node, true, nil
		}
	}
}

// ParseBody collects nodes until the EndNode named endTag and discards that
// marker. Exhausting the stream first fails with ErrUnterminatedBlock.
func (p *Parser) ParseBody(tag Tag, endTag string) ([]Node, error) {
	var body []Node
	for {
		node, ok, err := p.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, NewUnterminatedBlockError(tag.Name, endTag, tag.Pos)
		}
		if end, isEnd := node.(*EndNode); isEnd && end.Name == endTag {
			return body, nil
		}
		body = append(body, node)
	}
}

// Loader returns the loader bound for include tags, or nil.
func (p *Parser) Loader() Loader {
	return p.loader
}

// Tags returns the registry the parser dispatches on.
func (p *Parser) Tags() *TagRegistry {
	return p.tags
}

func (p *Parser) parseBlock(tok Token) (Node, error) {
	name := tagNamePattern.FindString(tok.Value)
	if name == StringValueEmpty {
		return nil, NewMalformedBlockError(tok.Value, tok.Position)
	}
	fn, ok := p.tags.Tag(name)
	if !ok {
		return nil, NewUnknownTagError(name, tok.Value, tok.Position, p.tags.TagNames())
	}
	return fn(p, Tag{
		Name:    name,
		Args:    strings.TrimSpace(tok.Value[len(name):]),
		Content: tok.Value,
		Pos:     tok.Position,
	})
}
