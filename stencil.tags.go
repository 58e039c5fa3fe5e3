package stencil

import (
	"github.com/itsatony/go-stencil/internal"
	"go.uber.org/zap"
)

// ErrMsgNilHandler is reported when registering a nil tag or extension function.
const ErrMsgNilHandler = "handler cannot be nil"

// Tag is a parsed block delimiter handed to a TagFunc.
type Tag struct {
	Name    string   // Leading identifier of the block
	Args    string   // Remaining block content, trimmed
	Content string   // Whole trimmed block content
	Pos     Position // Position of the block delimiter
}

// TagFunc turns a block tag into a node. Compound tags collect their body by
// calling p.ParseBody, which consumes tokens from the same shared stream.
type TagFunc func(p *Parser, tag Tag) (Node, error)

// ExtensionFunc is the hook run by {% load name %}. Its result is written to
// the output.
type ExtensionFunc func(c *Context) (string, error)

// TagRegistry maps tag names to TagFuncs and extension names to
// ExtensionFuncs. Later registrations replace earlier ones.
type TagRegistry struct {
	tags       *internal.Registry[TagFunc]
	extensions *internal.Registry[ExtensionFunc]
	logger     *zap.Logger
}

// NewTagRegistry creates an empty registry. Use RegisterBuiltinTags to add
// for, if, include and load.
func NewTagRegistry(logger *zap.Logger) *TagRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TagRegistry{
		tags:       internal.NewRegistry[TagFunc](RegistryKindTag, logger),
		extensions: internal.NewRegistry[ExtensionFunc](RegistryKindExtension, logger),
		logger:     logger,
	}
}

var defaultTags *TagRegistry

func init() {
	defaultTags = NewTagRegistry(nil)
	RegisterBuiltinTags(defaultTags)
}

// DefaultTagRegistry returns the process-wide registry used by Compile
// unless WithTagRegistry is given.
func DefaultTagRegistry() *TagRegistry {
	return defaultTags
}

// RegisterTag adds a tag to the process-wide registry.
func RegisterTag(name string, fn TagFunc) error {
	return defaultTags.Register(name, fn)
}

// RegisterExtension adds a load extension to the process-wide registry.
func RegisterExtension(name string, fn ExtensionFunc) error {
	return defaultTags.RegisterExtension(name, fn)
}

// Register binds a tag name to fn.
func (r *TagRegistry) Register(name string, fn TagFunc) error {
	if fn == nil {
		return internal.NewRegistryError(ErrMsgNilHandler, RegistryKindTag, name)
	}
	_, err := r.tags.Register(name, fn)
	return err
}

// MustRegister binds a tag name to fn and panics on error.
func (r *TagRegistry) MustRegister(name string, fn TagFunc) {
	if err := r.Register(name, fn); err != nil {
		panic(err)
	}
}

// RegisterExtension binds an extension name to fn.
func (r *TagRegistry) RegisterExtension(name string, fn ExtensionFunc) error {
	if fn == nil {
		return internal.NewRegistryError(ErrMsgNilHandler, RegistryKindExtension, name)
	}
	_, err := r.extensions.Register(name, fn)
	return err
}

// Tag returns the TagFunc registered under name.
func (r *TagRegistry) Tag(name string) (TagFunc, bool) {
	return r.tags.Get(name)
}

// Extension returns the ExtensionFunc registered under name.
func (r *TagRegistry) Extension(name string) (ExtensionFunc, bool) {
	return r.extensions.Get(name)
}

// TagNames returns the registered tag names in sorted order.
func (r *TagRegistry) TagNames() []string {
	return r.tags.List()
}

// ExtensionNames returns the registered extension names in sorted order.
func (r *TagRegistry) ExtensionNames() []string {
	return r.extensions.List()
}

// Clone returns an independent copy, e.g. to extend the default registry
// without affecting other users.
func (r *TagRegistry) Clone() *TagRegistry {
	return &TagRegistry{
		tags:       r.tags.Clone(),
		extensions: r.extensions.Clone(),
		logger:     r.logger,
	}
}
