// Package stencil provides a small text templating engine with pluggable tags
// and template storage.
//
// Templates mix literal text with three delimiters:
//
//	{{ user.name|upper }}              variable, with optional filters
//	{% for item in items %}...{% endfor %}   block tag
//	{# a comment #}                    dropped from the output
//
// # Basic Usage
//
// Compile a template once and render it as often as needed:
//
//	tmpl := stencil.MustCompile("Hi {{ name }}!")
//	result, err := tmpl.Render(ctx, map[string]any{"name": "Amy"})
//	// result: "Hi Amy!"
//
// Compiled templates are immutable and safe for concurrent use.
//
// # Variables
//
// A variable is a dotted path: each step is tried as a map key, then a
// struct field or method, then a list index. Unresolved variables render as
// the default value ("" unless WithDefault says otherwise). Filters are
// applied left to right:
//
//	{{ user.roles|sort|join }}
//
// # Built-in Tags
//
//	{% for x in items %}...{% endfor %}      loopcounter holds the index
//	{% if cond %}...{% endif %}              also {% if not cond %}
//	{% include partials/header.html %}       shares the caller's variables
//	{% include footer.html isolate %}        renders with an empty scope
//	{% load name %}                          runs a registered extension
//
// # Custom Tags
//
// Register a TagFunc on a TagRegistry. Compound tags collect their body with
// Parser.ParseBody:
//
//	tags := stencil.DefaultTagRegistry().Clone()
//	tags.MustRegister("hr", func(_ *stencil.Parser, tag stencil.Tag) (stencil.Node, error) {
//	    return stencil.NewTextNode("----", tag.Pos), nil
//	})
//	tmpl, err := stencil.Compile("{% hr %}", stencil.WithTagRegistry(tags))
//
// # Engine and Storage
//
// An Engine compiles templates held in a TemplateStorage and renders them by
// name; include tags load from the same storage:
//
//	engine, _ := stencil.NewFilesystemEngine([]string{"overrides", "templates"})
//	err := engine.Execute(ctx, os.Stdout, "page.html", data)
//
// Storage drivers: memory, filesystem, sqlite and postgres. Use OpenStorage
// to open one by name.
//
// # Error Handling
//
// Every error matches one of ErrSyntax, ErrConfig, ErrRender or ErrStorage
// with errors.Is, and carries line and column metadata where it has a
// source position:
//
//	if stencil.IsSyntaxError(err) {
//	    // fix the template
//	}
//
// # Configuration
//
// Customize compilation and rendering with functional options:
//
//	tmpl, _ := stencil.Compile(source,
//	    stencil.WithLoader(loader),
//	    stencil.WithMaxDepth(8),
//	    stencil.WithLogger(logger),
//	)
package stencil
