package main

// Command names
const (
	CmdNameRender   = "render"
	CmdNameValidate = "validate"
	CmdNameTokens   = "tokens"
	CmdNameStore    = "store"
	CmdNamePut      = "put"
	CmdNameGet      = "get"
	CmdNameList     = "list"
	CmdNameDelete   = "delete"
	CmdNameDrivers  = "drivers"
	CmdNameVersion  = "version"
)

// Flag names - long form
const (
	FlagConfig     = "config"
	FlagLogLevel   = "log-level"
	FlagSearchPath = "search-path"
	FlagDriver     = "driver"
	FlagDSN        = "dsn"
	FlagTemplate   = "template"
	FlagName       = "name"
	FlagData       = "data"
	FlagDataFile   = "data-file"
	FlagOutput     = "output"
	FlagFormat     = "format"
	FlagTree       = "tree"
	FlagDefault    = "default"
	FlagMaxDepth   = "max-depth"
	FlagPrefix     = "prefix"
	FlagLimit      = "limit"
	FlagOffset     = "offset"
	FlagMeta       = "meta"
)

// Flag names - short form
const (
	FlagConfigShort     = "c"
	FlagSearchPathShort = "I"
	FlagTemplateShort   = "t"
	FlagNameShort       = "n"
	FlagDataShort       = "d"
	FlagDataFileShort   = "f"
	FlagOutputShort     = "o"
	FlagFormatShort     = "F"
)

// Flag default values
const (
	FlagDefaultOutput   = "-" // stdout
	FlagDefaultFormat   = "text"
	FlagDefaultLogLevel = "warn"
)

// Output formats
const (
	OutputFormatText = "text"
	OutputFormatJSON = "json"
	OutputFormatYAML = "yaml"
)

// Data file extensions
const (
	DataExtJSON = ".json"
	DataExtYAML = ".yaml"
	DataExtYML  = ".yml"
	DataExtTOML = ".toml"
)

// Exit codes
const (
	ExitCodeSuccess         = 0
	ExitCodeError           = 1
	ExitCodeUsageError      = 2
	ExitCodeValidationError = 3
	ExitCodeInputError      = 4
	ExitCodeNotFound        = 5
)

// Input source indicators
const (
	InputSourceStdin = "-"
)

// Error messages
const (
	ErrMsgMissingTemplate     = "template source required"
	ErrMsgMissingName         = "template name required"
	ErrMsgTemplateAndName     = "--template and --name are mutually exclusive"
	ErrMsgInvalidData         = "invalid data"
	ErrMsgDataNotObject       = "data must be an object"
	ErrMsgUnknownDataFormat   = "unknown data file format"
	ErrMsgReadFileFailed      = "failed to read file"
	ErrMsgWriteOutputFailed   = "failed to write output"
	ErrMsgParseTemplateFailed = "template parsing failed"
	ErrMsgExecuteFailed       = "template execution failed"
	ErrMsgInvalidFormat       = "invalid output format"
	ErrMsgInvalidLogLevel     = "invalid log level"
	ErrMsgLoadConfigFailed    = "failed to load config"
	ErrMsgOpenStorageFailed   = "failed to open template storage"
	ErrMsgStorageFailed       = "storage operation failed"
	ErrMsgInvalidMeta         = "metadata must be key=value"
	ErrMsgJSONMarshalFailed   = "failed to marshal JSON"
)

// Command help
const (
	HelpRootShort = "Render and manage stencil templates"
	HelpRootLong  = `stencil renders text templates with {{ variables }}, {% tags %} and {# comments #}.

Templates are read from files or stdin, or by name from template storage:
search paths (--search-path) or a storage driver (--driver, --dsn).`

	HelpRenderShort   = "Render a template with data"
	HelpRenderExample = `  stencil render -t page.html -d '{"name": "Amy"}'
  stencil render -t page.html -f data.yaml -o page.out
  stencil render -I templates -n mail/welcome.txt -f data.toml
  cat page.html | stencil render -t - -d '{"name": "Bob"}'`

	HelpValidateShort   = "Compile a template without rendering it"
	HelpValidateExample = `  stencil validate -t page.html
  stencil validate -t page.html --tree -F json`

	HelpTokensShort = "Print the tokens of a template"

	HelpStoreShort   = "Manage templates in template storage"
	HelpPutShort     = "Compile a template and save it under a name"
	HelpGetShort     = "Print a stored template"
	HelpListShort    = "List stored templates"
	HelpDeleteShort  = "Delete a stored template"
	HelpDriversShort = "List registered storage drivers"
	HelpStoreExample = `  stencil store --driver sqlite --dsn templates.db put mail/welcome.txt -t welcome.txt
  stencil store --driver sqlite --dsn templates.db list --prefix mail/
  stencil store -I templates get partials/header.html`

	HelpVersionShort = "Show version information"
)

// Flag usage
const (
	UsageConfig     = "YAML config file"
	UsageLogLevel   = "log level: debug, info, warn, error"
	UsageSearchPath = "template search path, repeatable; earlier paths win"
	UsageDriver     = "storage driver: " // followed by the registered drivers
	UsageDSN        = "storage connection string"
	UsageTemplate   = `template file (use "-" for stdin)`
	UsageName       = "render a stored template by name"
	UsageData       = "JSON data string"
	UsageDataFile   = "data file: .json, .yaml, .yml or .toml"
	UsageOutput     = "output file (default: stdout)"
	UsageFormat     = "output format: text, json"
	UsageTree       = "print the compiled node tree"
	UsageDefault    = "value rendered for unresolved variables"
	UsageMaxDepth   = "maximum include depth"
	UsagePrefix     = "only names starting with prefix"
	UsageLimit      = "maximum number of results"
	UsageOffset     = "number of results to skip"
	UsageMeta       = "metadata key=value, repeatable"
)

// Version output
const (
	VersionTextTemplate = "go-stencil version %s\nCommit: %s\nBranch: %s\nBuilt: %s\nGo: %s"
	VersionUnknown      = "unknown"
	VersionsFileName    = "versions.yaml"
)

// Validation output
const (
	ValidationTextSuccess = "Template is valid"
	ValidationTextFailure = "Template is invalid:"
	ValidationTextIssue   = "  [%s] %s"
	ValidationTextAt      = " at line %s, column %s"
)

// Error classes for output
const (
	ErrorClassSyntax  = "syntax"
	ErrorClassConfig  = "config"
	ErrorClassRender  = "render"
	ErrorClassStorage = "storage"
	ErrorClassOther   = "error"
)

// Store output
const (
	StoreTextSaved   = "saved %s (version %d)"
	StoreTextDeleted = "deleted %s"
	StoreTextListRow = "%s\tv%d\t%s"
	StoreTimeFormat  = "2006-01-02T15:04:05Z07:00"
)

// CLI metadata
const (
	CLIName = "stencil"
)

// File permission constants
const (
	FilePermissions = 0644
)

// Format string constants
const (
	FmtErrorWithCause = "%s: %v\n"
	FmtNewline        = "\n"
	MetaSeparator     = "="
	JSONIndent        = "  "
)
