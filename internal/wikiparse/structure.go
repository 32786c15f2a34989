package wikiparse

import "strings"

// structure converts top-level text into headers and nests everything into
// sections. The returned root wraps exactly one top-level section.
func structure(flat *Content) *Content {
	var nodes []Node
	// Headings are only recognised at the top level, never inside templates.
	for _, n := range flat.Nodes {
		if t, ok := n.(Text); ok {
			nodes = append(nodes, splitHeadings(string(t))...)
			continue
		}
		nodes = append(nodes, n)
	}

	type open struct {
		section *Section
		level   int
	}
	top := &Section{}
	stack := []open{{section: top, level: 0}}
	for _, n := range nodes {
		if h, ok := n.(*Header); ok {
			for len(stack) > 1 && stack[len(stack)-1].level >= h.Level {
				stack = stack[:len(stack)-1]
			}
			s := &Section{}
			stack[len(stack)-1].section.Append(s)
			stack = append(stack, open{section: s, level: h.Level})
		}
		stack[len(stack)-1].section.Append(n)
	}
	return NewContent(top)
}

// splitHeadings splits text into text runs and headers. A heading occupies
// a whole line: N "=" characters, a non-empty name, N "=" characters and
// optional trailing whitespace. The start of the run counts as a line start.
// Trailing whitespace and the newline stay in the following text run.
func splitHeadings(s string) []Node {
	var nodes []Node
	var pending strings.Builder
	flush := func() {
		if pending.Len() > 0 {
			nodes = append(nodes, Text(pending.String()))
			pending.Reset()
		}
	}
	for len(s) > 0 {
		line, rest, nl := strings.Cut(s, "\n")
		if h, trail, ok := parseHeading(line); ok {
			flush()
			nodes = append(nodes, h)
			pending.WriteString(trail)
		} else {
			pending.WriteString(line)
		}
		if nl {
			pending.WriteByte('\n')
		}
		s = rest
	}
	flush()
	return nodes
}

// parseHeading recognises a heading line. When the runs of "=" on each side
// differ in length, the shorter run sets the level and the surplus belongs to
// the name, so "===A==" is a level-2 heading named "=A".
func parseHeading(line string) (h *Header, trail string, ok bool) {
	body := strings.TrimRight(line, " \t\r\f\v")
	trail = line[len(body):]
	lead := len(body) - len(strings.TrimLeft(body, "="))
	if lead == 0 {
		return nil, "", false
	}
	end := len(body) - len(strings.TrimRight(body, "="))
	level := min(lead, end)
	for level > 0 && len(body)-2*level < 1 {
		level--
	}
	if level == 0 {
		return nil, "", false
	}
	name := body[level : len(body)-level]
	return &Header{Level: level, Name: NewContent(Text(name))}, trail, true
}
