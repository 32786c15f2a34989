// Package wikiparse parses MediaWiki markup into a navigable document tree.
//
// Only the constructs needed to locate sections and templates are modelled:
// template invocations with their arguments, ATX-style headings and the
// section hierarchy they imply. Everything else is kept as opaque text.
package wikiparse

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Node is an element of a parsed document.
type Node interface {
	// Children lists the nodes visited by tree queries, in document order.
	Children() []Node
	// String re-renders the node as wikitext.
	String() string
}

// Text is an immutable run of literal text.
type Text string

func (t Text) Children() []Node { return nil }
func (t Text) String() string   { return string(t) }

// Content is an ordered sequence of nodes.
type Content struct {
	Nodes []Node
}

// NewContent returns a Content holding nodes.
func NewContent(nodes ...Node) *Content {
	return &Content{Nodes: nodes}
}

func (c *Content) Children() []Node { return c.Nodes }

func (c *Content) String() string {
	var sb strings.Builder
	for _, n := range c.Nodes {
		sb.WriteString(n.String())
	}
	return sb.String()
}

// Append adds nodes to the end of c, merging adjacent text runs.
func (c *Content) Append(nodes ...Node) {
	for _, n := range nodes {
		t, ok := n.(Text)
		if !ok {
			c.Nodes = append(c.Nodes, n)
			continue
		}
		if t == "" {
			continue
		}
		if last := len(c.Nodes) - 1; last >= 0 {
			if prev, ok := c.Nodes[last].(Text); ok {
				c.Nodes[last] = prev + t
				continue
			}
		}
		c.Nodes = append(c.Nodes, t)
	}
}

// Section holds everything between one heading and the next heading of the
// same or a shallower level. The first node of a named section is its Header.
type Section struct {
	Content
}

// Header returns the heading that opens s, or nil for the leading section of
// a document.
func (s *Section) Header() *Header {
	if len(s.Nodes) == 0 {
		return nil
	}
	h, _ := s.Nodes[0].(*Header)
	return h
}

// Title returns the trimmed heading text, or "" for an unnamed section.
func (s *Section) Title() string {
	if h := s.Header(); h != nil {
		return strings.TrimSpace(h.Name.String())
	}
	return ""
}

// Body renders the section without its heading line.
func (s *Section) Body() string {
	nodes := s.Nodes
	if s.Header() != nil {
		nodes = nodes[1:]
	}
	var sb strings.Builder
	for _, n := range nodes {
		sb.WriteString(n.String())
	}
	return sb.String()
}

// Header is a heading marker such as "== Biology ==".
type Header struct {
	Level int
	Name  *Content
}

func (h *Header) Children() []Node { return []Node{h.Name} }

func (h *Header) String() string {
	marks := strings.Repeat("=", h.Level)
	return marks + h.Name.String() + marks
}

// Template is a transclusion such as {{Name|arg|key=value}}.
type Template struct {
	Title *Content
	Args  []*Argument
}

// Name returns the normalised template name used for matching.
func (t *Template) Name() string {
	return MakeWikiName(t.Title.String())
}

// Children lists the arguments; the title is not searched.
func (t *Template) Children() []Node {
	nodes := make([]Node, len(t.Args))
	for i, a := range t.Args {
		nodes[i] = a
	}
	return nodes
}

func (t *Template) String() string {
	var sb strings.Builder
	sb.WriteString("{{")
	sb.WriteString(t.Title.String())
	for _, a := range t.Args {
		sb.WriteByte('|')
		sb.WriteString(a.String())
	}
	sb.WriteString("}}")
	return sb.String()
}

// Param is a template argument with its effective key.
type Param struct {
	Key   string
	Value string
	Arg   *Argument
}

// Params returns the arguments of t in document order, keyed the way
// MediaWiki resolves them: named arguments by their trimmed name, unnamed
// arguments by their 1-based position among unnamed arguments. Values are
// trimmed.
func (t *Template) Params() []Param {
	params := make([]Param, 0, len(t.Args))
	number := 1
	for _, a := range t.Args {
		var key string
		if a.Name != nil {
			key = strings.TrimSpace(a.Name.String())
		} else {
			key = strconv.Itoa(number)
			number++
		}
		params = append(params, Param{
			Key:   key,
			Value: strings.TrimSpace(a.Value.String()),
			Arg:   a,
		})
	}
	return params
}

// ParamMap returns the parameters of t by key. A later duplicate wins, which
// matches how MediaWiki expands the template.
func (t *Template) ParamMap() map[string]string {
	m := make(map[string]string, len(t.Args))
	for _, p := range t.Params() {
		m[p.Key] = p.Value
	}
	return m
}

// Argument is a single template argument. Name is nil for positional
// arguments.
type Argument struct {
	Name  *Content
	Value *Content
}

func (a *Argument) Children() []Node {
	if a.Name != nil {
		return []Node{a.Name, a.Value}
	}
	return []Node{a.Value}
}

func (a *Argument) String() string {
	if a.Name != nil {
		return a.Name.String() + "=" + a.Value.String()
	}
	return a.Value.String()
}

// MakeWikiName normalises a page or template name: surrounding whitespace is
// removed, the text is put in NFC and the first letter is upper-cased.
func MakeWikiName(s string) string {
	s = norm.NFC.String(strings.TrimSpace(s))
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
