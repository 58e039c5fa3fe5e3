package stencil

import "time"

// Built-in tag names
const (
	TagNameFor     = "for"
	TagNameEndFor  = "endfor"
	TagNameIf      = "if"
	TagNameEndIf   = "endif"
	TagNameInclude = "include"
	TagNameLoad    = "load"
)

// Tag argument keywords
const (
	KeywordIn      = "in"
	KeywordNot     = "not"
	KeywordIsolate = "isolate"
)

// LoopCounterName is the variable bound to the zero-based iteration index inside a for loop.
const LoopCounterName = "loopcounter"

// Default configuration values
const (
	// DefaultMaxDepth bounds nested includes. 0 disables the limit.
	DefaultMaxDepth = 16

	DefaultCacheTTL         = 5 * time.Minute
	DefaultCacheMaxEntries  = 1000
	DefaultNegativeCacheTTL = 30 * time.Second
)

// Registry kinds
const (
	RegistryKindTag       = "tag"
	RegistryKindExtension = "extension"
)

// Log message constants
const (
	LogMsgCompileStart       = "compiling template"
	LogMsgCompileDone        = "template compiled"
	LogMsgRenderStart        = "rendering template"
	LogMsgRenderDone         = "template rendered"
	LogMsgIncludeStart       = "including template"
	LogMsgExtensionRun       = "running extension"
	LogMsgUnknownFilter      = "unknown filter in expression"
	LogMsgResolveMiss        = "expression resolved to default"
	LogMsgCacheHit           = "template cache hit"
	LogMsgCacheMiss          = "template cache miss"
	LogMsgCacheEvict         = "template cache eviction"
	LogMsgCacheInvalidate    = "template cache invalidated"
	LogMsgEngineCreated      = "engine created"
	LogMsgStorageOpened      = "storage opened"
	LogMsgStorageSave        = "template saved"
	LogMsgStorageDelete      = "template deleted"
	LogMsgStorageClosed      = "storage closed"
	LogMsgMigrationApplied   = "storage migration applied"
	LogMsgStorageDriverAdded = "storage driver registered"
)

// Log field names
const (
	LogFieldTemplate   = "template"
	LogFieldNodes      = "node_count"
	LogFieldBytes      = "bytes"
	LogFieldDepth      = "depth"
	LogFieldExpression = "expression"
	LogFieldFilter     = "filter"
	LogFieldExtension  = "extension"
	LogFieldDriver     = "driver"
	LogFieldVersion    = "version"
	LogFieldEntries    = "entries"
	LogFieldPath       = "path"
)

// Metadata keys attached to errors
const (
	MetaKeyTag        = "tag"
	MetaKeyEndTag     = "end_tag"
	MetaKeyContent    = "content"
	MetaKeyLine       = "line"
	MetaKeyColumn     = "column"
	MetaKeyOffset     = "offset"
	MetaKeyExpression = "expression"
	MetaKeyFilter     = "filter"
	MetaKeyTemplate   = "template"
	MetaKeyExtension  = "extension"
	MetaKeyDepth      = "depth"
	MetaKeyMaxDepth   = "max_depth"
	MetaKeyValueType  = "value_type"
	MetaKeyDriver     = "driver"
	MetaKeyResource   = "template"
)

// String constants
const (
	StringValueEmpty = ""
	StringSpace      = " "
	StringNewline    = "\n"
	StringQuotes     = `"'`
)
