package stencil

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/itsatony/go-cuserr"
	"github.com/itsatony/go-stencil/internal"
	"go.uber.org/zap"
)

// ErrMsgRenderCancelled is reported when the render's context.Context is done.
const ErrMsgRenderCancelled = "render cancelled"

// Context is the mutable state of one render: a stack of variable frames,
// the filter map and the output sink. A Context must not be shared between
// concurrent renders; doing so fails with ErrContextInUse.
type Context struct {
	ctx          context.Context
	scope        *internal.ScopeStack
	filters      FilterMap
	out          io.Writer
	defaultValue any
	depth        int
	maxDepth     int
	logger       *zap.Logger
	rendering    atomic.Bool
}

// NewContext creates a render context whose root frame is a copy of data.
// A nil filters map means no filters are available.
func NewContext(data map[string]any, filters FilterMap) *Context {
	if filters == nil {
		filters = FilterMap{}
	}
	return &Context{
		ctx:      context.Background(),
		scope:    internal.NewScopeStack(data),
		filters:  filters,
		out:      io.Discard,
		maxDepth: DefaultMaxDepth,
		logger:   zap.NewNop(),
	}
}

// WithDefault sets the value unresolvable expressions evaluate to and returns c.
func (c *Context) WithDefault(value any) *Context {
	c.defaultValue = value
	return c
}

// WithMaxDepth sets the include depth limit (0 for none) and returns c.
func (c *Context) WithMaxDepth(depth int) *Context {
	c.maxDepth = depth
	return c
}

// WithLogger sets the logger and returns c.
func (c *Context) WithLogger(logger *zap.Logger) *Context {
	if logger == nil {
		logger = zap.NewNop()
	}
	c.logger = logger
	return c
}

// child creates an isolated context sharing everything but the variables.
func (c *Context) child() *Context {
	return &Context{
		ctx:          c.ctx,
		scope:        internal.NewScopeStack(nil),
		filters:      c.filters,
		out:          c.out,
		defaultValue: c.defaultValue,
		depth:        c.depth,
		maxDepth:     c.maxDepth,
		logger:       c.logger,
	}
}

// Resolve evaluates a variable expression: a dotted path optionally followed
// by |filter segments applied left to right. An unresolvable path yields the
// default value. An unknown filter is an error.
func (c *Context) Resolve(expr string) (any, error) {
	path, filters := internal.SplitExpression(expr)

	value, ok := c.Lookup(path)
	if !ok {
		c.logger.Debug(LogMsgResolveMiss, zap.String(LogFieldExpression, expr))
		value = c.defaultValue
	}

	for _, name := range filters {
		fn, ok := c.filters[name]
		if !ok {
			c.logger.Debug(LogMsgUnknownFilter,
				zap.String(LogFieldFilter, name),
				zap.String(LogFieldExpression, expr))
			return nil, NewUnknownFilterError(name, expr, c.filters.Names())
		}
		next, err := fn(value)
		if err != nil {
			return nil, NewFilterFailedError(name, expr, err)
		}
		value = next
	}
	return value, nil
}

// Lookup resolves a dotted path without filters or defaults. The first step
// is looked up in the variable frames, innermost first; each further step
// tries keyed, member and index access in that order.
func (c *Context) Lookup(path string) (any, bool) {
	steps := internal.SplitPath(path)
	root, ok := c.scope.Lookup(steps[0])
	if !ok {
		return nil, false
	}
	root, ok = internal.Invoke(root)
	if !ok {
		return nil, false
	}
	return internal.Walk(root, steps[1:], nil)
}

// Set binds a variable in the innermost frame.
func (c *Context) Set(key string, value any) {
	c.scope.Set(key, value)
}

// Push adds a variable frame. A nil frame starts empty.
func (c *Context) Push(frame map[string]any) {
	c.scope.Push(frame)
}

// Pop removes the innermost frame; the root frame is never removed.
func (c *Context) Pop() bool {
	return c.scope.Pop()
}

// Keys returns every visible variable name.
func (c *Context) Keys() []string {
	return c.scope.Keys()
}

// Filters returns the context's filter map.
func (c *Context) Filters() FilterMap {
	return c.filters
}

// Depth returns the current include depth.
func (c *Context) Depth() int {
	return c.depth
}

// Context returns the context.Context of the render in progress.
func (c *Context) Context() context.Context {
	return c.ctx
}

// Logger returns the context's logger.
func (c *Context) Logger() *zap.Logger {
	return c.logger
}

// Write appends s to the render output.
func (c *Context) Write(s string) error {
	if s == StringValueEmpty {
		return nil
	}
	if _, err := io.WriteString(c.out, s); err != nil {
		return NewWriteError(err)
	}
	return nil
}

// begin claims the context for a render writing to w.
func (c *Context) begin(ctx context.Context, w io.Writer) error {
	if !c.rendering.CompareAndSwap(false, true) {
		return NewContextInUseError()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	c.ctx = ctx
	c.out = w
	return nil
}

// end releases the context after a render.
func (c *Context) end() {
	c.out = io.Discard
	c.rendering.Store(false)
}

// checkCancelled reports the render's context.Context error, if any.
func (c *Context) checkCancelled() error {
	if err := c.ctx.Err(); err != nil {
		return cuserr.WrapStdError(fmt.Errorf("%w: %w", ErrRender, err), ErrCodeRender, ErrMsgRenderCancelled)
	}
	return nil
}
