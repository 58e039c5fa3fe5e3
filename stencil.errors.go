package stencil

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/itsatony/go-cuserr"
	"github.com/itsatony/go-stencil/internal"
)

// Error code constants for categorization
const (
	ErrCodeSyntax  = "STENCIL_SYNTAX"
	ErrCodeConfig  = "STENCIL_CONFIG"
	ErrCodeRender  = "STENCIL_RENDER"
	ErrCodeStorage = "STENCIL_STORAGE"
)

// Error message constants
const (
	// Compile errors
	ErrMsgUnknownTag       = "unknown tag"
	ErrMsgMalformedBlock   = "block has no tag name"
	ErrMsgInvalidArguments = "invalid tag arguments"
	ErrMsgUnterminated     = "unterminated block"
	ErrMsgMissingLoader    = "include requires a template loader"
	ErrMsgUnknownExtension = "unknown extension"

	// Render errors
	ErrMsgUnknownFilter    = "unknown filter"
	ErrMsgFilterFailed     = "filter failed"
	ErrMsgNotIterable      = "value is not iterable"
	ErrMsgMaxDepthExceeded = "maximum include depth exceeded"
	ErrMsgContextInUse     = "context is already rendering"
	ErrMsgExtensionFailed  = "extension failed"
	ErrMsgWriteFailed      = "writing output failed"
	ErrMsgIncludeFailed    = "include failed"

	// Storage errors
	ErrMsgTemplateNotFound      = "template not found"
	ErrMsgStorageClosed         = "storage is closed"
	ErrMsgInvalidTemplateName   = "invalid template name"
	ErrMsgStorageDriverNotFound = "storage driver not found"
	ErrMsgStorageQueryFailed    = "storage query failed"
	ErrMsgStorageOpenFailed     = "storage open failed"
	ErrMsgStorageMigration      = "storage migration failed"
	ErrMsgEmptyConnString       = "connection string cannot be empty"
	ErrMsgNilStorageDriver      = "storage driver is nil"
	ErrMsgNilStorage            = "storage is nil"
)

// Error classes. Every error returned by this package matches exactly one of
// these with errors.Is.
var (
	ErrSyntax  = errors.New("template syntax error")
	ErrConfig  = errors.New("template configuration error")
	ErrRender  = errors.New("template render error")
	ErrStorage = errors.New("template storage error")
)

// Specific error kinds, each belonging to one class.
var (
	ErrUnknownTag        = fmt.Errorf("%w: %s", ErrSyntax, ErrMsgUnknownTag)
	ErrMalformedBlock    = fmt.Errorf("%w: %s", ErrSyntax, ErrMsgMalformedBlock)
	ErrInvalidArguments  = fmt.Errorf("%w: %s", ErrSyntax, ErrMsgInvalidArguments)
	ErrUnterminatedBlock = fmt.Errorf("%w: %s", ErrSyntax, ErrMsgUnterminated)
	ErrUnknownFilter     = fmt.Errorf("%w: %s", ErrSyntax, ErrMsgUnknownFilter)

	ErrMissingLoader    = fmt.Errorf("%w: %s", ErrConfig, ErrMsgMissingLoader)
	ErrUnknownExtension = fmt.Errorf("%w: %s", ErrConfig, ErrMsgUnknownExtension)

	ErrFilterFailed     = fmt.Errorf("%w: %s", ErrRender, ErrMsgFilterFailed)
	ErrNotIterable      = fmt.Errorf("%w: %s", ErrRender, ErrMsgNotIterable)
	ErrMaxDepthExceeded = fmt.Errorf("%w: %s", ErrRender, ErrMsgMaxDepthExceeded)
	ErrContextInUse     = fmt.Errorf("%w: %s", ErrRender, ErrMsgContextInUse)
	ErrExtensionFailed  = fmt.Errorf("%w: %s", ErrRender, ErrMsgExtensionFailed)

	ErrTemplateNotFound      = fmt.Errorf("%w: %s", ErrStorage, ErrMsgTemplateNotFound)
	ErrStorageClosed         = fmt.Errorf("%w: %s", ErrStorage, ErrMsgStorageClosed)
	ErrInvalidTemplateName   = fmt.Errorf("%w: %s", ErrStorage, ErrMsgInvalidTemplateName)
	ErrStorageDriverNotFound = fmt.Errorf("%w: %s", ErrStorage, ErrMsgStorageDriverNotFound)
)

// Position is a location in template source.
type Position = internal.Position

func withPosition(err *cuserr.CustomError, pos Position) *cuserr.CustomError {
	return err.
		WithMetadata(MetaKeyLine, strconv.Itoa(pos.Line)).
		WithMetadata(MetaKeyColumn, strconv.Itoa(pos.Column)).
		WithMetadata(MetaKeyOffset, strconv.Itoa(pos.Offset))
}

// NewUnknownTagError reports a block whose tag name has no registered handler.
func NewUnknownTagError(tagName, content string, pos Position, known []string) error {
	suggestions := internal.FindSimilarStrings(tagName, known, internal.MaxSuggestions)
	msg := fmt.Sprintf("%s '%s' in block '%s' at %s%s",
		ErrMsgUnknownTag, tagName, content, pos, internal.FormatSuggestions(suggestions))
	return withPosition(cuserr.WrapStdError(ErrUnknownTag, ErrCodeSyntax, msg), pos).
		WithMetadata(MetaKeyTag, tagName).
		WithMetadata(MetaKeyContent, content)
}

// NewMalformedBlockError reports a block that does not start with a tag name.
func NewMalformedBlockError(content string, pos Position) error {
	msg := fmt.Sprintf("%s: '%s' at %s", ErrMsgMalformedBlock, content, pos)
	return withPosition(cuserr.WrapStdError(ErrMalformedBlock, ErrCodeSyntax, msg), pos).
		WithMetadata(MetaKeyContent, content)
}

// NewInvalidArgumentsError reports tag arguments that do not match the tag grammar.
func NewInvalidArgumentsError(tagName, args, usage string, pos Position) error {
	msg := fmt.Sprintf("%s for '%s': '%s' at %s, expected '%s'",
		ErrMsgInvalidArguments, tagName, args, pos, usage)
	return withPosition(cuserr.WrapStdError(ErrInvalidArguments, ErrCodeSyntax, msg), pos).
		WithMetadata(MetaKeyTag, tagName).
		WithMetadata(MetaKeyContent, args)
}

// NewUnterminatedBlockError reports a compound tag whose end tag never appeared.
func NewUnterminatedBlockError(tagName, endTag string, pos Position) error {
	msg := fmt.Sprintf("%s: '%s' opened at %s has no '%s'", ErrMsgUnterminated, tagName, pos, endTag)
	return withPosition(cuserr.WrapStdError(ErrUnterminatedBlock, ErrCodeSyntax, msg), pos).
		WithMetadata(MetaKeyTag, tagName).
		WithMetadata(MetaKeyEndTag, endTag)
}

// NewMissingLoaderError reports an include compiled without a loader.
func NewMissingLoaderError(name string, pos Position) error {
	msg := fmt.Sprintf("%s: cannot include '%s' at %s", ErrMsgMissingLoader, name, pos)
	return withPosition(cuserr.WrapStdError(ErrMissingLoader, ErrCodeConfig, msg), pos).
		WithMetadata(MetaKeyTemplate, name)
}

// NewUnknownExtensionError reports a load of an extension that was never registered.
func NewUnknownExtensionError(name string, pos Position, known []string) error {
	suggestions := internal.FindSimilarStrings(name, known, internal.MaxSuggestions)
	msg := fmt.Sprintf("%s '%s' at %s%s", ErrMsgUnknownExtension, name, pos, internal.FormatSuggestions(suggestions))
	return withPosition(cuserr.WrapStdError(ErrUnknownExtension, ErrCodeConfig, msg), pos).
		WithMetadata(MetaKeyExtension, name)
}

// NewUnknownFilterError reports a filter name missing from the context's filter map.
func NewUnknownFilterError(filter, expr string, known []string) error {
	suggestions := internal.FindSimilarStrings(filter, known, internal.MaxSuggestions)
	msg := fmt.Sprintf("%s '%s' in expression '%s'%s", ErrMsgUnknownFilter, filter, expr, internal.FormatSuggestions(suggestions))
	return cuserr.WrapStdError(ErrUnknownFilter, ErrCodeSyntax, msg).
		WithMetadata(MetaKeyFilter, filter).
		WithMetadata(MetaKeyExpression, expr)
}

// NewFilterFailedError reports a filter that returned an error.
func NewFilterFailedError(filter, expr string, cause error) error {
	msg := fmt.Sprintf("%s '%s' in expression '%s': %v", ErrMsgFilterFailed, filter, expr, cause)
	return cuserr.WrapStdError(fmt.Errorf("%w: %w", ErrFilterFailed, cause), ErrCodeRender, msg).
		WithMetadata(MetaKeyFilter, filter).
		WithMetadata(MetaKeyExpression, expr)
}

// NewNotIterableError reports a for loop over a value that cannot be iterated.
func NewNotIterableError(expr string, value any, pos Position) error {
	typeName := fmt.Sprintf("%T", value)
	msg := fmt.Sprintf("%s: '%s' is %s at %s", ErrMsgNotIterable, expr, typeName, pos)
	return withPosition(cuserr.WrapStdError(ErrNotIterable, ErrCodeRender, msg), pos).
		WithMetadata(MetaKeyExpression, expr).
		WithMetadata(MetaKeyValueType, typeName)
}

// NewMaxDepthError reports an include nested beyond the configured depth.
func NewMaxDepthError(name string, depth, maxDepth int) error {
	msg := fmt.Sprintf("%s: including '%s' at depth %d (max %d)", ErrMsgMaxDepthExceeded, name, depth, maxDepth)
	return cuserr.WrapStdError(ErrMaxDepthExceeded, ErrCodeRender, msg).
		WithMetadata(MetaKeyTemplate, name).
		WithMetadata(MetaKeyDepth, strconv.Itoa(depth)).
		WithMetadata(MetaKeyMaxDepth, strconv.Itoa(maxDepth))
}

// NewContextInUseError reports a Context passed to a second concurrent render.
func NewContextInUseError() error {
	return cuserr.WrapStdError(ErrContextInUse, ErrCodeRender, ErrMsgContextInUse)
}

// NewExtensionFailedError reports a load extension that returned an error.
func NewExtensionFailedError(name string, cause error) error {
	msg := fmt.Sprintf("%s '%s': %v", ErrMsgExtensionFailed, name, cause)
	return cuserr.WrapStdError(fmt.Errorf("%w: %w", ErrExtensionFailed, cause), ErrCodeRender, msg).
		WithMetadata(MetaKeyExtension, name)
}

// NewWriteError reports a failure of the output sink.
func NewWriteError(cause error) error {
	return cuserr.WrapStdError(fmt.Errorf("%w: %w", ErrRender, cause), ErrCodeRender, ErrMsgWriteFailed)
}

// NewIncludeFailedError wraps a loader failure for an include at pos. The
// result matches both ErrRender and the loader's own error.
func NewIncludeFailedError(name string, pos Position, cause error) error {
	msg := fmt.Sprintf("%s: '%s' at %s: %v", ErrMsgIncludeFailed, name, pos, cause)
	return withPosition(cuserr.WrapStdError(fmt.Errorf("%w: %w", ErrRender, cause), ErrCodeRender, msg), pos).
		WithMetadata(MetaKeyTemplate, name)
}

// NewTemplateNotFoundError reports a template name unknown to a loader or storage.
func NewTemplateNotFoundError(name string) error {
	msg := fmt.Sprintf("%s: '%s'", ErrMsgTemplateNotFound, name)
	return cuserr.WrapStdError(ErrTemplateNotFound, ErrCodeStorage, msg).
		WithMetadata(MetaKeyTemplate, name)
}

// NewStorageClosedError reports use of a closed storage.
func NewStorageClosedError() error {
	return cuserr.WrapStdError(ErrStorageClosed, ErrCodeStorage, ErrMsgStorageClosed)
}

// NewInvalidTemplateNameError reports a template name a storage cannot hold.
func NewInvalidTemplateNameError(name, reason string) error {
	msg := fmt.Sprintf("%s '%s': %s", ErrMsgInvalidTemplateName, name, reason)
	return cuserr.WrapStdError(ErrInvalidTemplateName, ErrCodeStorage, msg).
		WithMetadata(MetaKeyTemplate, name)
}

// NewStorageDriverNotFoundError reports an unregistered storage driver name.
func NewStorageDriverNotFoundError(name string, known []string) error {
	suggestions := internal.FindSimilarStrings(name, known, internal.MaxSuggestions)
	msg := fmt.Sprintf("%s: '%s'%s", ErrMsgStorageDriverNotFound, name, internal.FormatSuggestions(suggestions))
	return cuserr.WrapStdError(ErrStorageDriverNotFound, ErrCodeStorage, msg).
		WithMetadata(MetaKeyDriver, name)
}

// NewStorageError wraps a backend failure.
func NewStorageError(msg string, cause error) error {
	if cause == nil {
		return cuserr.WrapStdError(ErrStorage, ErrCodeStorage, msg)
	}
	return cuserr.WrapStdError(fmt.Errorf("%w: %w", ErrStorage, cause), ErrCodeStorage, msg+": "+cause.Error())
}

// IsSyntaxError reports whether err is a template syntax error.
func IsSyntaxError(err error) bool {
	return errors.Is(err, ErrSyntax)
}

// IsConfigError reports whether err is a configuration error.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrConfig)
}

// IsRenderError reports whether err happened while rendering.
func IsRenderError(err error) bool {
	return errors.Is(err, ErrRender)
}

// IsStorageError reports whether err came from template storage.
func IsStorageError(err error) bool {
	return errors.Is(err, ErrStorage)
}

// IsNotFound reports whether err means a template does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTemplateNotFound)
}
