package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dshills/dexcheck/internal/schema"
)

var (
	colorClean    = lipgloss.Color("#8BC34A")
	colorMismatch = lipgloss.Color("#FFC107")
	colorMissing  = lipgloss.Color("#e53935")
	colorDatabase = lipgloss.Color("#4db6ac")
	colorArticle  = lipgloss.Color("#ffd54f")
	colorMuted    = lipgloss.Color("#8a94a6")
)

// styles holds the terminal styles bound to one renderer.
type styles struct {
	title    lipgloss.Style
	article  lipgloss.Style
	check    lipgloss.Style
	muted    lipgloss.Style
	kind     map[schema.Kind]lipgloss.Style
	verdict  map[schema.Verdict]lipgloss.Style
	database lipgloss.Style
	wiki     lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	missing := r.NewStyle().Foreground(colorMissing)
	mismatch := r.NewStyle().Foreground(colorMismatch)
	return styles{
		title:   r.NewStyle().Bold(true),
		article: r.NewStyle().Bold(true),
		check:   r.NewStyle().Foreground(colorMuted),
		muted:   r.NewStyle().Foreground(colorMuted),
		kind: map[schema.Kind]lipgloss.Style{
			schema.KindMissingArticle:  missing,
			schema.KindMissingTemplate: missing,
		},
		verdict: map[schema.Verdict]lipgloss.Style{
			schema.VerdictClean:      r.NewStyle().Bold(true).Foreground(colorClean),
			schema.VerdictMismatches: mismatch.Bold(true),
			schema.VerdictIncomplete: missing.Bold(true),
		},
		database: r.NewStyle().Foreground(colorDatabase),
		wiki:     r.NewStyle().Foreground(colorArticle),
	}
}

// RenderTerminal produces a coloured report for r's output. With a renderer
// for a non-terminal writer the result is plain text.
func RenderTerminal(report *schema.Report, r *lipgloss.Renderer) string {
	if report == nil {
		return ""
	}
	st := newStyles(r)
	var sb strings.Builder

	sb.WriteString(st.title.Render("dexcheck "+report.Input.Profile) + " ")
	sb.WriteString(st.muted.Render(wikiBase(report.Input.WikiURL)+" @ "+revision(report)) + "\n\n")

	var articles []string
	byArticle := map[string][]schema.Discrepancy{}
	for _, d := range report.Discrepancies {
		if _, ok := byArticle[d.Article]; !ok {
			articles = append(articles, d.Article)
		}
		byArticle[d.Article] = append(byArticle[d.Article], d)
	}
	for i, article := range articles {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(st.article.Render(article) + "\n")
		for _, d := range byArticle[article] {
			msg := Message(d)
			if s, ok := st.kind[d.Kind]; ok {
				msg = s.Render(msg)
			}
			check := ""
			if d.Check != "" {
				check = st.check.Render(d.Check+":") + " "
			}
			sb.WriteString("  " + check + msg + "\n")
			if len(d.Diff) > 0 {
				for l := range strings.SplitSeq(diffTerminal(d.Diff, st), "\n") {
					sb.WriteString("      " + l + "\n")
				}
			}
		}
	}
	if len(report.Discrepancies) > 0 {
		sb.WriteByte('\n')
	}

	var counts []string
	for _, k := range schema.Kinds {
		if n := report.Summary.Counts[k]; n > 0 {
			counts = append(counts, fmt.Sprintf("%s %d", k, n))
		}
	}
	verdict := string(report.Summary.Verdict)
	if s, ok := st.verdict[report.Summary.Verdict]; ok {
		verdict = s.Render(verdict)
	}
	fmt.Fprintf(&sb, "%s  %d found", verdict, report.Summary.Total)
	if report.Summary.Ignored > 0 {
		fmt.Fprintf(&sb, ", %d ignored", report.Summary.Ignored)
	}
	if len(counts) > 0 {
		sb.WriteString("  " + st.muted.Render(strings.Join(counts, " · ")))
	}
	sb.WriteByte('\n')
	return sb.String()
}

// DiffTerminal renders ops for r's output: text only in the database in
// teal, text only on the wiki in yellow, with whitespace made visible.
func DiffTerminal(ops []schema.DiffOp, r *lipgloss.Renderer) string {
	return diffTerminal(ops, newStyles(r))
}

func diffTerminal(ops []schema.DiffOp, st styles) string {
	var sb strings.Builder
	for _, op := range ops {
		switch {
		case op.Op < 0:
			sb.WriteString(renderLines(st.database, visible(op.Text)))
		case op.Op > 0:
			sb.WriteString(renderLines(st.wiki, visible(op.Text)))
		default:
			sb.WriteString(op.Text)
		}
	}
	return sb.String()
}

// renderLines styles each line separately so escape codes never span a
// newline.
func renderLines(s lipgloss.Style, text string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = s.Render(l)
		}
	}
	return strings.Join(lines, "\n")
}
