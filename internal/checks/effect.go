package checks

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dshills/dexcheck/internal/checker"
	"github.com/dshills/dexcheck/internal/dex"
	"github.com/dshills/dexcheck/internal/schema"
	"github.com/dshills/dexcheck/internal/wikiparse"
)

// MoveEffect returns the check comparing a move article's effect section
// with the database effect text.
func (s *Set) MoveEffect(m *dex.Move) checker.Check {
	cfg := s.profile.MoveEffect
	name := m.Name(s.profile.Language)
	return checker.Check{
		Name:     cfg.Check,
		Entity:   m.Identifier,
		Articles: s.profile.MoveTitles(name),
		Run: func(_ string, doc *wikiparse.Content) ([]schema.Discrepancy, error) {
			var section *wikiparse.Section
			for _, sec := range wikiparse.NamedSections(doc) {
				if sec.Title() == cfg.Section {
					section = sec
					break
				}
			}
			if section == nil {
				return []schema.Discrepancy{schema.MissingTemplate("== " + cfg.Section + " ==")}, nil
			}
			want := EffectWikitext(m.Effect)
			got := strings.TrimSpace(section.Body())
			if want == got {
				return nil, nil
			}
			d := schema.WrongValue(cfg.Section, want, got)
			d.Diff = Diff(want, got)
			return []schema.Discrepancy{d}, nil
		},
	}
}

// Diff returns a semantic character diff from want to got.
func Diff(want, got string) []schema.DiffOp {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(want, got, false))
	ops := make([]schema.DiffOp, len(diffs))
	for i, d := range diffs {
		ops[i] = schema.DiffOp{Op: int(d.Type), Text: d.Text}
	}
	return ops
}

// linkPattern matches database links such as [regular damage]{mechanic:regular-damage}.
var linkPattern = regexp.MustCompile(`\[([^\]]*)\]\{[a-z]+:([a-z0-9-]+)\}`)

var effectMarkdown = goldmark.New(goldmark.WithExtensions(extension.Table))

// EffectWikitext converts a Markdown effect description to wikitext the way
// effect sections are written on the wiki: paragraphs after the first are
// bulleted, links become wiki links and tables become wikitables.
// Constructs with no wikitext form are replaced by a red marker naming them.
func EffectWikitext(effect string) string {
	src := []byte(linkPattern.ReplaceAllString(effect, "[$1]($2)"))
	doc := effectMarkdown.Parser().Parse(text.NewReader(src))
	w := &wikiWriter{src: src}
	i := 0
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		w.block(n, i)
		i++
	}
	out := strings.ReplaceAll(w.sb.String(), ".  ", ". ")
	return strings.TrimSpace(out)
}

type wikiWriter struct {
	src []byte
	sb  strings.Builder
}

func (w *wikiWriter) block(n ast.Node, index int) {
	switch n := n.(type) {
	case *ast.Paragraph:
		if index > 0 {
			w.sb.WriteByte('*')
		}
		w.sb.WriteString(w.inline(n))
		w.sb.WriteByte('\n')
	case *east.Table:
		w.sb.WriteString("{| class=\"wikitable\"\n")
		for row := n.FirstChild(); row != nil; row = row.NextSibling() {
			_, header := row.(*east.TableHeader)
			w.sb.WriteString("|-\n")
			for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
				mark := "| "
				if header {
					mark = "! "
				}
				w.sb.WriteString(mark + strings.TrimSpace(w.inline(cell)) + "\n")
			}
		}
		w.sb.WriteString("|}\n")
	default:
		w.sb.WriteString(unsupported(n) + "\n")
	}
}

func (w *wikiWriter) inline(parent ast.Node) string {
	var sb strings.Builder
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		switch n := n.(type) {
		case *ast.Text:
			sb.Write(n.Segment.Value(w.src))
			if n.SoftLineBreak() || n.HardLineBreak() {
				sb.WriteByte('\n')
			}
		case *ast.String:
			sb.Write(n.Value)
		case *ast.Emphasis:
			marks := strings.Repeat("'", n.Level+1)
			sb.WriteString(marks + w.inline(n) + marks)
		case *ast.Link:
			sb.WriteString(wikiLink(string(n.Destination), w.inline(n)))
		default:
			sb.WriteString(unsupported(n))
		}
	}
	return sb.String()
}

// wikiLink renders a link to the article for identifier. The short form is
// used when the label already names the article.
func wikiLink(identifier, label string) string {
	href := articleName(identifier)
	if label == "" {
		label = href
	}
	if articleName(label) == href {
		return "[[" + label + "]]"
	}
	return "[[" + href + "|" + label + "]]"
}

// articleName turns a database identifier or label into an article title.
func articleName(s string) string {
	switch strings.ToLower(s) {
	case "hp", "pp":
		return strings.ToUpper(s)
	}
	s = strings.ReplaceAll(s, "-", " ")
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func unsupported(n ast.Node) string {
	return fmt.Sprintf(`<font color="red">%s</font>`, n.Kind())
}
