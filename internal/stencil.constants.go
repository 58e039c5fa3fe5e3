package internal

// Character constants
const (
	CharNewline = '\n'
	CharDot     = '.'
	CharPipe    = '|'
)

// Delimiter constants
const (
	StrBlockOpen    = "{%"
	StrBlockClose   = "%}"
	StrVarOpen      = "{{"
	StrVarClose     = "}}"
	StrCommentOpen  = "{#"
	StrCommentClose = "#}"
)

// Expression syntax constants
const (
	PathSeparator   = "."
	FilterSeparator = "|"
)

// StringValueEmpty is the rendering of a missing value
const StringValueEmpty = ""

// Log message constants
const (
	LogMsgLexerCreated    = "lexer created"
	LogMsgTokenizerEnd    = "tokenization complete"
	LogMsgRegistryCreated = "registry created"
	LogMsgEntryRegistered = "registry entry registered"
	LogMsgEntryReplaced   = "registry entry replaced - last registration wins"
)

// Log field names
const (
	LogFieldSource   = "source_length"
	LogFieldTokens   = "token_count"
	LogFieldName     = "name"
	LogFieldRegistry = "registry"
)
