package wikiparse

// Find returns the first node of type T satisfying pred in breadth-first
// order. Breadth-first order makes the shallowest match win, so an infobox
// is found before a template of the same name nested inside another one.
// A nil pred matches every node of type T.
func Find[T Node](root Node, pred func(T) bool) (T, bool) {
	var found T
	ok := false
	walk(root, func(n Node) bool {
		if t, is := n.(T); is && (pred == nil || pred(t)) {
			found, ok = t, true
			return false
		}
		return true
	})
	return found, ok
}

// FindAll returns every node of type T satisfying pred, in breadth-first
// order.
func FindAll[T Node](root Node, pred func(T) bool) []T {
	var out []T
	walk(root, func(n Node) bool {
		if t, is := n.(T); is && (pred == nil || pred(t)) {
			out = append(out, t)
		}
		return true
	})
	return out
}

// walk visits nodes breadth-first until visit returns false.
func walk(root Node, visit func(Node) bool) {
	if root == nil {
		return
	}
	queue := []Node{root}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if !visit(n) {
			return
		}
		queue = append(queue, n.Children()...)
	}
}

// FindTemplate returns the shallowest template named name. The name is
// compared after MakeWikiName normalisation.
func FindTemplate(root Node, name string) (*Template, bool) {
	want := MakeWikiName(name)
	return Find(root, func(t *Template) bool { return t.Name() == want })
}

// FindTemplates returns every template named name in breadth-first order.
func FindTemplates(root Node, name string) []*Template {
	want := MakeWikiName(name)
	return FindAll(root, func(t *Template) bool { return t.Name() == want })
}

// FindSection returns the shallowest section whose trimmed title is title.
func FindSection(root Node, title string) (*Section, bool) {
	return Find(root, func(s *Section) bool {
		return s.Header() != nil && s.Title() == title
	})
}

// NamedSections returns the named sections directly inside the document's
// top-level section.
func NamedSections(root *Content) []*Section {
	var parent Node = root
	if len(root.Nodes) == 1 {
		parent = root.Nodes[0]
	}
	var out []*Section
	for _, n := range parent.Children() {
		if s, ok := n.(*Section); ok && s.Header() != nil {
			out = append(out, s)
		}
	}
	return out
}
