package wikiparse

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes an indented outline of the tree rooted at n, one node per
// line. It is meant for debugging parser output.
func Dump(w io.Writer, n Node) error {
	d := dumper{w: w}
	d.node(n, 0)
	return d.err
}

type dumper struct {
	w   io.Writer
	err error
}

func (d *dumper) line(depth int, format string, args ...any) {
	if d.err != nil {
		return
	}
	_, d.err = fmt.Fprintf(d.w, strings.Repeat("  ", depth)+format+"\n", args...)
}

func (d *dumper) node(n Node, depth int) {
	switch n := n.(type) {
	case Text:
		d.line(depth, "%q", string(n))
	case *Section:
		d.line(depth, "~")
		d.children(n.Nodes, depth+1)
	case *Content:
		d.line(depth, ":")
		d.children(n.Nodes, depth+1)
	case *Header:
		d.line(depth, "%s", strings.Repeat("=", n.Level))
		d.node(n.Name, depth+1)
	case *Template:
		d.line(depth, "{{")
		d.node(n.Title, depth+1)
		for _, a := range n.Args {
			d.line(depth, "|")
			d.node(a, depth+1)
		}
		d.line(depth, "}}")
	case *Argument:
		if n.Name != nil {
			d.node(n.Name, depth)
			d.line(depth, "=")
		}
		d.node(n.Value, depth)
	default:
		d.line(depth, "?%T", n)
	}
}

func (d *dumper) children(nodes []Node, depth int) {
	for _, c := range nodes {
		d.node(c, depth)
	}
}
