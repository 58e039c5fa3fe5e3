package stencil

import (
	"context"
	"io"
	"strings"

	"go.uber.org/zap"
)

// Loader supplies compiled templates by name to include tags.
// Implementations must be safe for concurrent use.
type Loader interface {
	Load(ctx context.Context, name string) (*Template, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, name string) (*Template, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, name string) (*Template, error) {
	return f(ctx, name)
}

// Template is a compiled template. It is immutable and may be rendered
// concurrently, each render using its own Context.
type Template struct {
	name   string
	source string
	nodes  []Node
	config *config
}

// Compile parses source into a Template. Syntax errors, unknown tags and
// includes without a loader are reported here, never at render time.
func Compile(source string, opts ...Option) (*Template, error) {
	cfg := newConfig(opts)
	return compile(cfg.name, source, cfg)
}

// MustCompile is like Compile but panics on error.
func MustCompile(source string, opts ...Option) *Template {
	tmpl, err := Compile(source, opts...)
	if err != nil {
		panic(err)
	}
	return tmpl
}

func compile(name, source string, cfg *config) (*Template, error) {
	cfg.logger.Debug(LogMsgCompileStart,
		zap.String(LogFieldTemplate, name),
		zap.Int(LogFieldBytes, len(source)))

	nodes, err := NewParser(source, cfg.tags, cfg.loader, cfg.logger).Parse()
	if err != nil {
		return nil, err
	}

	cfg.logger.Debug(LogMsgCompileDone,
		zap.String(LogFieldTemplate, name),
		zap.Int(LogFieldNodes, len(nodes)))
	return &Template{name: name, source: source, nodes: nodes, config: cfg}, nil
}

// Name returns the template name, empty for anonymous templates.
func (t *Template) Name() string {
	return t.name
}

// Source returns the source the template was compiled from.
func (t *Template) Source() string {
	return t.source
}

// Nodes returns a copy of the top-level nodes.
func (t *Template) Nodes() []Node {
	out := make([]Node, len(t.nodes))
	copy(out, t.nodes)
	return out
}

// Tree returns a readable dump of the node tree.
func (t *Template) Tree() string {
	return DumpTree(t.nodes)
}

// NewContext creates a Context for data configured like the template:
// its filters, default value, include depth limit and logger.
func (t *Template) NewContext(data map[string]any) *Context {
	return NewContext(data, t.config.filters).
		WithDefault(t.config.defaultValue).
		WithMaxDepth(t.config.maxDepth).
		WithLogger(t.config.logger)
}

// Render renders the template against data and returns the output.
func (t *Template) Render(ctx context.Context, data map[string]any) (string, error) {
	return t.RenderContext(ctx, t.NewContext(data))
}

// RenderContext renders the template against a caller-built Context.
func (t *Template) RenderContext(ctx context.Context, c *Context) (string, error) {
	var sb strings.Builder
	if err := t.ExecuteContext(ctx, &sb, c); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Execute renders the template against data into w.
func (t *Template) Execute(ctx context.Context, w io.Writer, data map[string]any) error {
	return t.ExecuteContext(ctx, w, t.NewContext(data))
}

// ExecuteContext renders the template against c into w. Output already
// written stays in w when rendering fails part way.
func (t *Template) ExecuteContext(ctx context.Context, w io.Writer, c *Context) error {
	if err := c.begin(ctx, w); err != nil {
		return err
	}
	defer c.end()

	if err := c.checkCancelled(); err != nil {
		return err
	}

	c.logger.Debug(LogMsgRenderStart, zap.String(LogFieldTemplate, t.name))
	if err := renderNodes(c, t.nodes); err != nil {
		return err
	}
	c.logger.Debug(LogMsgRenderDone, zap.String(LogFieldTemplate, t.name))
	return nil
}
