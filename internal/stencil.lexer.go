package internal

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// tagPattern matches the three delimiter forms. The forms cannot overlap, so
// the earliest match in the source always wins.
var tagPattern = regexp.MustCompile(`(?s)` +
	regexp.QuoteMeta(StrBlockOpen) + `\s*(.+?)\s*` + regexp.QuoteMeta(StrBlockClose) + `|` +
	regexp.QuoteMeta(StrVarOpen) + `\s*(.+?)\s*` + regexp.QuoteMeta(StrVarClose) + `|` +
	regexp.QuoteMeta(StrCommentOpen) + `\s*(.+?)\s*` + regexp.QuoteMeta(StrCommentClose))

// submatch group order in tagPattern
var groupTypes = [...]TokenType{TokenTypeBlock, TokenTypeVariable, TokenTypeComment}

// Lexer is a lazy, single-pass token cursor over template source.
// Once a token has been returned by Next it is never produced again.
type Lexer struct {
	source  string
	pos     int    // Current byte offset
	line    int    // Current line (1-indexed)
	column  int    // Current column (1-indexed)
	pending []int  // Absolute submatch indices of a delimiter found after a text run
	count   int    // Tokens emitted so far
	done    bool
	logger  *zap.Logger
}

// NewLexer creates a new lexer over source
func NewLexer(source string, logger *zap.Logger) *Lexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug(LogMsgLexerCreated, zap.Int(LogFieldSource, len(source)))
	return &Lexer{
		source: source,
		line:   1,
		column: 1,
		logger: logger,
	}
}

// Next returns the next token and true, or a zero Token and false once the
// source is exhausted.
func (l *Lexer) Next() (Token, bool) {
	if l.pending != nil {
		loc := l.pending
		l.pending = nil
		return l.emit(l.takeDelimiter(loc)), true
	}
	if l.pos >= len(l.source) {
		if !l.done {
			l.done = true
			l.logger.Debug(LogMsgTokenizerEnd, zap.Int(LogFieldTokens, l.count))
		}
		return Token{}, false
	}

	loc := tagPattern.FindStringSubmatchIndex(l.source[l.pos:])
	if loc == nil {
		// No more delimiters: the rest is text.
		return l.emit(l.takeText(len(l.source))), true
	}
	for i := range loc {
		if loc[i] >= 0 {
			loc[i] += l.pos
		}
	}

	if loc[0] > l.pos {
		l.pending = loc
		return l.emit(l.takeText(loc[0])), true
	}
	return l.emit(l.takeDelimiter(loc)), true
}

// Tokenize drains the lexer and returns every remaining token.
func (l *Lexer) Tokenize() []Token {
	var tokens []Token
	for {
		tok, ok := l.Next()
		if !ok {
			return tokens
		}
		tokens = append(tokens, tok)
	}
}

// Position returns the position of the next unread byte.
func (l *Lexer) Position() Position {
	return Position{Offset: l.pos, Line: l.line, Column: l.column}
}

// Source returns the full source the lexer scans.
func (l *Lexer) Source() string {
	return l.source
}

func (l *Lexer) emit(tok Token) Token {
	l.count++
	return tok
}

// takeText consumes source up to end as a verbatim text token.
func (l *Lexer) takeText(end int) Token {
	pos := l.Position()
	content := l.source[l.pos:end]
	l.advanceTo(end)
	return NewTextToken(content, pos)
}

// takeDelimiter consumes a matched delimiter given absolute submatch indices.
func (l *Lexer) takeDelimiter(loc []int) Token {
	start, end := loc[0], loc[1]
	pos := l.Position()

	tokType := TokenTypeText
	var value string
	for i, typ := range groupTypes {
		gs, ge := loc[2+2*i], loc[3+2*i]
		if gs >= 0 {
			tokType = typ
			value = strings.TrimSpace(l.source[gs:ge])
			break
		}
	}

	raw := l.source[start:end]
	l.advanceTo(end)
	return NewToken(tokType, value, raw, pos)
}

// advanceTo moves the cursor to offset, tracking line and column.
func (l *Lexer) advanceTo(offset int) {
	for ; l.pos < offset; l.pos++ {
		if l.source[l.pos] == CharNewline {
			l.line++
			l.column = 1
		} else {
			l.column++
		}
	}
}
