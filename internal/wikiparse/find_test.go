package wikiparse

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFindTemplate_ShallowestWins(t *testing.T) {
	// The deeper Infobox appears first in document order.
	root := Parse("{{Wrapper|{{Infobox|name=deep}}}}\n{{infobox|name=shallow}}")
	tpl, ok := FindTemplate(root, "Infobox")
	if !ok {
		t.Fatal("Infobox not found")
	}
	if got := tpl.ParamMap()["name"]; got != "shallow" {
		t.Errorf("found Infobox name=%q, want %q", got, "shallow")
	}
}

func TestFindTemplate_NotFound(t *testing.T) {
	if _, ok := FindTemplate(Parse("no templates here"), "Infobox"); ok {
		t.Error("FindTemplate found a template in plain text")
	}
}

func TestFindTemplate_TitleIsNotSearched(t *testing.T) {
	root := Parse("{{Outer{{Inner}}|x}}")
	if _, ok := FindTemplate(root, "Inner"); ok {
		t.Error("template inside a title should not be found")
	}
}

func TestFindAll_BreadthFirstOrder(t *testing.T) {
	root := Parse("{{A|{{C}}}}{{B}}")
	var got []string
	for _, tpl := range FindAll[*Template](root, nil) {
		got = append(got, tpl.Name())
	}
	want := []string{"A", "B", "C"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FindAll order mismatch (-want +got):\n%s", diff)
	}
}

func TestFind_Predicate(t *testing.T) {
	root := Parse("one {{T|a}} two")
	text, ok := Find(root, func(s Text) bool { return s == " two" })
	if !ok || text != " two" {
		t.Errorf("Find text = %q, %v; want %q, true", text, ok, " two")
	}
}

func TestFindSection(t *testing.T) {
	root := Parse("intro\n==Biology==\nseed\n===Forms===\nx\n==Trivia==\ny\n")
	cases := []struct {
		title string
		found bool
		body  string
	}{
		{"Biology", true, "\nseed\n===Forms===\nx\n"},
		{"Forms", true, "\nx\n"},
		{"Trivia", true, "\ny\n"},
		{"Missing", false, ""},
	}
	for _, c := range cases {
		s, ok := FindSection(root, c.title)
		if ok != c.found {
			t.Errorf("FindSection(%q) found = %v, want %v", c.title, ok, c.found)
			continue
		}
		if ok && s.Body() != c.body {
			t.Errorf("FindSection(%q).Body() = %q, want %q", c.title, s.Body(), c.body)
		}
	}
}

func TestSection_UnnamedTop(t *testing.T) {
	root := Parse("just text")
	top := root.Nodes[0].(*Section)
	if top.Header() != nil {
		t.Error("top-level section should have no header")
	}
	if top.Title() != "" {
		t.Errorf("Title() = %q, want empty", top.Title())
	}
	if top.Body() != "just text" {
		t.Errorf("Body() = %q, want %q", top.Body(), "just text")
	}
}

func TestNamedSections(t *testing.T) {
	root := Parse("lead\n== Game data ==\na\n== Trivia ==\nb\n")
	got := titles(NamedSections(root))
	if diff := cmp.Diff([]string{"Game data", "Trivia"}, got); diff != "" {
		t.Errorf("NamedSections mismatch (-want +got):\n%s", diff)
	}
}
