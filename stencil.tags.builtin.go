package stencil

import (
	"regexp"
	"strings"
)

// Tag usage strings reported with argument errors
const (
	UsageFor     = "for <name> in <expression>"
	UsageIf      = "if [not] <expression>"
	UsageInclude = "include <template> [isolate]"
	UsageLoad    = "load <extension>"
)

var (
	forArgsPattern = regexp.MustCompile(`(?s)^([\p{L}_][\p{L}\p{N}_]*)\s+` + KeywordIn + `\s+(.+)$`)
	notArgsPattern = regexp.MustCompile(`(?s)^` + KeywordNot + `\s+(.+)$`)
	identPattern   = regexp.MustCompile(`^[\p{L}\p{N}_.\-]+$`)
)

// RegisterBuiltinTags adds for, endfor, if, endif, include and load to r.
func RegisterBuiltinTags(r *TagRegistry) {
	r.MustRegister(TagNameFor, parseFor)
	r.MustRegister(TagNameEndFor, parseEnd)
	r.MustRegister(TagNameIf, parseIf)
	r.MustRegister(TagNameEndIf, parseEnd)
	r.MustRegister(TagNameInclude, parseInclude)
	r.MustRegister(TagNameLoad, parseLoad)
}

// {% for item in items %}...{% endfor %}
func parseFor(p *Parser, tag Tag) (Node, error) {
	m := forArgsPattern.FindStringSubmatch(tag.Args)
	if m == nil {
		return nil, NewInvalidArgumentsError(tag.Name, tag.Args, UsageFor, tag.Pos)
	}
	body, err := p.ParseBody(tag, TagNameEndFor)
	if err != nil {
		return nil, err
	}
	return &ForNode{
		pos:      tag.Pos,
		Var:      m[1],
		Iterable: strings.TrimSpace(m[2]),
		Body:     body,
	}, nil
}

// {% if [not] cond %}...{% endif %}
func parseIf(p *Parser, tag Tag) (Node, error) {
	cond := tag.Args
	negate := false
	if m := notArgsPattern.FindStringSubmatch(cond); m != nil {
		negate = true
		cond = strings.TrimSpace(m[1])
	}
	if cond == StringValueEmpty || cond == KeywordNot {
		return nil, NewInvalidArgumentsError(tag.Name, tag.Args, UsageIf, tag.Pos)
	}
	body, err := p.ParseBody(tag, TagNameEndIf)
	if err != nil {
		return nil, err
	}
	return &IfNode{
		pos:       tag.Pos,
		Condition: cond,
		Negate:    negate,
		Body:      body,
	}, nil
}

// {% include "name" [isolate] %}
func parseInclude(p *Parser, tag Tag) (Node, error) {
	name, rest, ok := splitTemplateName(tag.Args)
	if !ok {
		return nil, NewInvalidArgumentsError(tag.Name, tag.Args, UsageInclude, tag.Pos)
	}
	isolate := false
	switch rest {
	case StringValueEmpty:
	case KeywordIsolate:
		isolate = true
	default:
		return nil, NewInvalidArgumentsError(tag.Name, tag.Args, UsageInclude, tag.Pos)
	}
	if p.Loader() == nil {
		return nil, NewMissingLoaderError(name, tag.Pos)
	}
	return &IncludeNode{
		pos:     tag.Pos,
		Name:    name,
		Isolate: isolate,
		loader:  p.Loader(),
	}, nil
}

// {% load name %}
func parseLoad(p *Parser, tag Tag) (Node, error) {
	name := tag.Args
	if !identPattern.MatchString(name) {
		return nil, NewInvalidArgumentsError(tag.Name, tag.Args, UsageLoad, tag.Pos)
	}
	ext, ok := p.Tags().Extension(name)
	if !ok {
		return nil, NewUnknownExtensionError(name, tag.Pos, p.Tags().ExtensionNames())
	}
	return &LoadNode{pos: tag.Pos, Name: name, extension: ext}, nil
}

// {% endfor %}, {% endif %}
func parseEnd(_ *Parser, tag Tag) (Node, error) {
	return NewEndNode(tag.Name, tag.Pos), nil
}

// splitTemplateName takes a quoted or bare template name off the front of
// args and returns it with the trimmed remainder.
func splitTemplateName(args string) (string, string, bool) {
	if args == StringValueEmpty {
		return StringValueEmpty, StringValueEmpty, false
	}
	if strings.ContainsRune(StringQuotes, rune(args[0])) {
		end := strings.IndexByte(args[1:], args[0])
		if end <= 0 {
			return StringValueEmpty, StringValueEmpty, false
		}
		return args[1 : 1+end], strings.TrimSpace(args[2+end:]), true
	}
	name, rest, _ := strings.Cut(args, StringSpace)
	return name, strings.TrimSpace(rest), true
}
