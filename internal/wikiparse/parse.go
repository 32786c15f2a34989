package wikiparse

import (
	"io"
	"strings"
)

// Delimiters recognised by the tokenizer. Every other run of input is an
// opaque text token.
const (
	tokOpen   = "{{"
	tokClose  = "}}"
	tokPipe   = "|"
	tokEquals = "="
)

// maxWarnContext bounds the input excerpt passed to Options.Warn.
const maxWarnContext = 200

// Options configures a parse.
type Options struct {
	// Warn, if set, is called when the parser recovers from malformed input,
	// e.g. a template that is never closed. context is the unparsed input at
	// the point of recovery, truncated.
	Warn func(msg, context string)
}

// Parse parses wikitext into a document tree. It never fails: malformed
// markup degrades to literal text.
func Parse(text string) *Content {
	return Options{}.Parse(text)
}

// ParseReader reads all of r and parses it. Only read errors are returned.
func ParseReader(r io.Reader) (*Content, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(string(b)), nil
}

// Parse parses wikitext using o.
func (o Options) Parse(text string) *Content {
	p := &parser{toks: tokenize(text), warn: o.Warn, memo: make(map[int]parsed)}
	flat := p.content()
	return structure(flat)
}

// tokenize splits s on the four delimiters, keeping them as tokens. At each
// position "{{" is preferred over "|", "}}" and "=", so "{{{" yields "{{"
// followed by text "{".
func tokenize(s string) []string {
	var toks []string
	start := 0
	for i := 0; i < len(s); {
		var d string
		switch {
		case strings.HasPrefix(s[i:], tokOpen):
			d = tokOpen
		case s[i] == '|':
			d = tokPipe
		case strings.HasPrefix(s[i:], tokClose):
			d = tokClose
		case s[i] == '=':
			d = tokEquals
		default:
			i++
			continue
		}
		if start < i {
			toks = append(toks, s[start:i])
		}
		toks = append(toks, d)
		i += len(d)
		start = i
	}
	if start < len(s) {
		toks = append(toks, s[start:])
	}
	return toks
}

type parser struct {
	toks []string
	pos  int
	warn func(msg, context string)
	// memo holds the template parsed after each "{{" position. The result
	// does not depend on the enclosing context.
	memo map[int]parsed
}

type parsed struct {
	nodes []Node
	end   int
}

func (p *parser) done() bool   { return p.pos >= len(p.toks) }
func (p *parser) peek() string { return p.toks[p.pos] }

// content parses nodes until one of the end tokens (not consumed) or the end
// of input.
func (p *parser) content(end ...string) *Content {
	c := &Content{}
	for !p.done() {
		tok := p.peek()
		if tok == tokOpen {
			p.pos++
			c.Append(p.template()...)
			continue
		}
		if isEnd(tok, end) {
			return c
		}
		c.Append(Text(tok))
		p.pos++
	}
	return c
}

func isEnd(tok string, end []string) bool {
	for _, e := range end {
		if tok == e {
			return true
		}
	}
	return false
}

// template parses a template after its opening "{{". When no closing "}}"
// follows, the parser backtracks to just after the name and the rest of the
// input is read as plain text, with the "{{" kept literally.
func (p *parser) template() []Node {
	start := p.pos
	if m, ok := p.memo[start]; ok {
		p.pos = m.end
		return m.nodes
	}
	nodes := p.parseTemplate()
	p.memo[start] = parsed{nodes: nodes, end: p.pos}
	return nodes
}

func (p *parser) parseTemplate() []Node {
	title := p.content(tokClose, tokPipe)
	saved := p.pos
	args, ok := p.arguments()
	if ok {
		return []Node{&Template{Title: title, Args: args}}
	}

	p.pos = saved
	if p.warn != nil {
		p.warn("unterminated template", p.excerpt())
	}
	lit := &Content{}
	lit.Append(Text(tokOpen))
	lit.Append(title.Nodes...)
	lit.Append(p.content().Nodes...)
	return lit.Nodes
}

// arguments parses "|arg|arg}}". It reports false if the input ends before
// the closing "}}".
func (p *parser) arguments() ([]*Argument, bool) {
	var args []*Argument
	for !p.done() {
		switch p.peek() {
		case tokClose:
			p.pos++
			return args, true
		case tokPipe:
			p.pos++
			args = append(args, p.argument())
		default:
			// The title and argument parsers only stop at "}}", "|" or
			// the end of input.
			return nil, false
		}
	}
	return nil, false
}

// argument parses one argument, splitting name from value on the first "=".
func (p *parser) argument() *Argument {
	first := p.content(tokClose, tokPipe, tokEquals)
	if !p.done() && p.peek() == tokEquals {
		p.pos++
		value := p.content(tokClose, tokPipe)
		return &Argument{Name: first, Value: value}
	}
	return &Argument{Value: first}
}

func (p *parser) excerpt() string {
	s := strings.Join(p.toks[p.pos:], "")
	if len(s) > maxWarnContext {
		s = strings.ToValidUTF8(s[:maxWarnContext], "")
	}
	return s
}
