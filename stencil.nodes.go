package stencil

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/itsatony/go-stencil/internal"
	"go.uber.org/zap"
)

// Display limits for node String output
const (
	MaxStringDisplayLength = 50
	TruncatedStringLength  = 47
	TruncationSuffix       = "..."
	TreeIndent             = "  "
)

// Node is one compiled, immutable unit of a template. All render state lives
// in the Context, so a node may be rendered concurrently with distinct Contexts.
type Node interface {
	Render(c *Context) error
	Pos() Position
	String() string
}

// Container is implemented by nodes that own a body of child nodes.
type Container interface {
	Node
	Children() []Node
}

// renderNodes renders a node sequence in order, stopping at the first error.
func renderNodes(c *Context, nodes []Node) error {
	for _, node := range nodes {
		if err := node.Render(c); err != nil {
			return err
		}
	}
	return nil
}

// truncate shortens s to a display length counted in runes.
func truncate(s string) string {
	if utf8.RuneCountInString(s) <= MaxStringDisplayLength {
		return s
	}
	runes := []rune(s)
	return string(runes[:TruncatedStringLength]) + TruncationSuffix
}

// TextNode emits literal source text.
type TextNode struct {
	pos  Position
	Text string
}

// NewTextNode creates a text node.
func NewTextNode(text string, pos Position) *TextNode {
	return &TextNode{Text: text, pos: pos}
}

// Render writes the text verbatim.
func (n *TextNode) Render(c *Context) error { return c.Write(n.Text) }

// Pos returns the source position.
func (n *TextNode) Pos() Position { return n.pos }

func (n *TextNode) String() string {
	return fmt.Sprintf("TextNode{%q @ %s}", truncate(n.Text), n.pos)
}

// VariableNode emits the string form of a resolved expression.
type VariableNode struct {
	pos  Position
	Expr string
}

// NewVariableNode creates a variable node. The expression, filters included,
// is kept raw and evaluated at render time.
func NewVariableNode(expr string, pos Position) *VariableNode {
	return &VariableNode{Expr: expr, pos: pos}
}

// Render resolves the expression and writes its string form.
func (n *VariableNode) Render(c *Context) error {
	value, err := c.Resolve(n.Expr)
	if err != nil {
		return err
	}
	return c.Write(internal.Stringify(value))
}

// Pos returns the source position.
func (n *VariableNode) Pos() Position { return n.pos }

func (n *VariableNode) String() string {
	return fmt.Sprintf("VariableNode{%s @ %s}", n.Expr, n.pos)
}

// ForNode renders its body once per element of an iterable.
type ForNode struct {
	pos      Position
	Var      string
	Iterable string
	Body     []Node
}

// Render pushes one frame for the whole loop, binding loopcounter and the
// loop variable per element. The frame is popped even when the body fails,
// so loop variables never leak into the enclosing scope.
func (n *ForNode) Render(c *Context) error {
	value, err := c.Resolve(n.Iterable)
	if err != nil {
		return err
	}
	seq, ok := internal.Iterate(value)
	if !ok {
		return NewNotIterableError(n.Iterable, value, n.pos)
	}

	c.Push(nil)
	defer c.Pop()

	index := 0
	for item := range seq {
		c.Set(LoopCounterName, index)
		c.Set(n.Var, item)
		if err := renderNodes(c, n.Body); err != nil {
			return err
		}
		index++
	}
	return nil
}

// Pos returns the source position.
func (n *ForNode) Pos() Position { return n.pos }

// Children returns the loop body.
func (n *ForNode) Children() []Node { return n.Body }

func (n *ForNode) String() string {
	return fmt.Sprintf("ForNode{%s in %s, children=%d @ %s}", n.Var, n.Iterable, len(n.Body), n.pos)
}

// IfNode renders its body when its condition is truthy, or falsy when negated.
type IfNode struct {
	pos       Position
	Condition string
	Negate    bool
	Body      []Node
}

// Test evaluates the condition against c.
func (n *IfNode) Test(c *Context) (bool, error) {
	value, err := c.Resolve(n.Condition)
	if err != nil {
		return false, err
	}
	return n.Negate != internal.Truthy(value), nil
}

// Render renders the body when Test passes.
func (n *IfNode) Render(c *Context) error {
	ok, err := n.Test(c)
	if err != nil || !ok {
		return err
	}
	return renderNodes(c, n.Body)
}

// Pos returns the source position.
func (n *IfNode) Pos() Position { return n.pos }

// Children returns the conditional body.
func (n *IfNode) Children() []Node { return n.Body }

func (n *IfNode) String() string {
	cond := n.Condition
	if n.Negate {
		cond = KeywordNot + StringSpace + cond
	}
	return fmt.Sprintf("IfNode{%s, children=%d @ %s}", cond, len(n.Body), n.pos)
}

// IncludeNode renders another template, fetched from a loader at render time.
type IncludeNode struct {
	pos     Position
	Name    string
	Isolate bool
	loader  Loader
}

// Render loads the named template and renders it into the same output.
// By default the included template shares the Context inside a fresh frame,
// so it sees every variable visible at the include site. With Isolate it
// renders in a child Context that shares only filters, output and limits.
func (n *IncludeNode) Render(c *Context) error {
	if err := c.checkCancelled(); err != nil {
		return err
	}
	depth := c.depth + 1
	if c.maxDepth > 0 && depth > c.maxDepth {
		return NewMaxDepthError(n.Name, depth, c.maxDepth)
	}

	tmpl, err := n.loader.Load(c.ctx, n.Name)
	if err != nil {
		return NewIncludeFailedError(n.Name, n.pos, err)
	}
	c.logger.Debug(LogMsgIncludeStart,
		zap.String(LogFieldTemplate, n.Name),
		zap.Int(LogFieldDepth, depth))

	target := c
	if n.Isolate {
		target = c.child()
	} else {
		defer func(prev int) { c.depth = prev }(c.depth)
	}
	target.depth = depth

	target.Push(nil)
	defer target.Pop()
	return renderNodes(target, tmpl.nodes)
}

// Pos returns the source position.
func (n *IncludeNode) Pos() Position { return n.pos }

func (n *IncludeNode) String() string {
	if n.Isolate {
		return fmt.Sprintf("IncludeNode{%s, isolate @ %s}", n.Name, n.pos)
	}
	return fmt.Sprintf("IncludeNode{%s @ %s}", n.Name, n.pos)
}

// LoadNode runs a registered extension and writes what it returns.
type LoadNode struct {
	pos       Position
	Name      string
	extension ExtensionFunc
}

// Render runs the extension with the render Context.
func (n *LoadNode) Render(c *Context) error {
	c.logger.Debug(LogMsgExtensionRun, zap.String(LogFieldExtension, n.Name))
	out, err := n.extension(c)
	if err != nil {
		return NewExtensionFailedError(n.Name, err)
	}
	return c.Write(out)
}

// Pos returns the source position.
func (n *LoadNode) Pos() Position { return n.pos }

func (n *LoadNode) String() string {
	return fmt.Sprintf("LoadNode{%s @ %s}", n.Name, n.pos)
}

// EndNode marks the end of a compound tag's body. It renders nothing; one
// that closes no open body is kept in the tree as a no-op.
type EndNode struct {
	pos  Position
	Name string
}

// NewEndNode creates an end marker.
func NewEndNode(name string, pos Position) *EndNode {
	return &EndNode{Name: name, pos: pos}
}

// Render does nothing.
func (n *EndNode) Render(*Context) error { return nil }

// Pos returns the source position.
func (n *EndNode) Pos() Position { return n.pos }

func (n *EndNode) String() string {
	return fmt.Sprintf("EndNode{%s @ %s}", n.Name, n.pos)
}

// DumpTree renders a node tree one node per line, indenting bodies.
func DumpTree(nodes []Node) string {
	var sb strings.Builder
	dumpTree(&sb, nodes, 0)
	return sb.String()
}

func dumpTree(sb *strings.Builder, nodes []Node, level int) {
	for i, node := range nodes {
		sb.WriteString(strings.Repeat(TreeIndent, level))
		sb.WriteString(fmt.Sprintf("[%d] %s\n", i, node.String()))
		if container, ok := node.(Container); ok {
			dumpTree(sb, container.Children(), level+1)
		}
	}
}
