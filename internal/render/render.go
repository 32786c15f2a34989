// Package render produces output from a fully assembled schema.Report.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/dshills/dexcheck/internal/schema"
)

// Formats lists the output formats accepted by --format.
var Formats = []string{"text", "terminal", "wiki", "markdown", "html", "json"}

// RenderJSON produces a pretty-printed JSON representation of the report.
// The output round-trips through json.Unmarshal back to an equal Report.
func RenderJSON(report *schema.Report) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("render: nil report")
	}
	b, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render: json marshal: %w", err)
	}
	return b, nil
}

// wikiBase returns the wiki's base URL: the API endpoint without api.php.
func wikiBase(apiURL string) string {
	return strings.TrimSuffix(apiURL, "api.php")
}

func revision(report *schema.Report) string {
	s := fmt.Sprintf("%d", report.Meta.WikiRevision)
	if !report.Meta.WikiUpdated.IsZero() {
		s += " (" + report.Meta.WikiUpdated.UTC().Format(time.DateTime) + ")"
	}
	return s
}

func writeTotals(sb *strings.Builder, report *schema.Report, indent string) {
	fmt.Fprintf(sb, "%s%d mismatches found\n", indent, report.Summary.Total)
	if report.Summary.Ignored > 0 {
		fmt.Fprintf(sb, "%s%d expected mismatches ignored\n", indent, report.Summary.Ignored)
	}
}

// RenderText produces a plain-text report: one line per discrepancy, text
// diffs indented below the line they belong to.
func RenderText(report *schema.Report) string {
	if report == nil {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Checking report for %s (profile %s)\n", wikiBase(report.Input.WikiURL), report.Input.Profile)
	fmt.Fprintf(&sb, "Wiki revision %s\n\n", revision(report))
	for _, d := range report.Discrepancies {
		sb.WriteString(Line(d))
		sb.WriteByte('\n')
		if len(d.Diff) > 0 {
			for l := range strings.SplitSeq(DiffText(d.Diff), "\n") {
				sb.WriteString("    " + l + "\n")
			}
		}
	}
	if len(report.Discrepancies) > 0 {
		sb.WriteByte('\n')
	}
	writeTotals(&sb, report, "")
	fmt.Fprintf(&sb, "Verdict: %s\n", report.Summary.Verdict)
	return sb.String()
}

// RenderWiki produces a report page ready to paste into the wiki.
func RenderWiki(report *schema.Report) string {
	if report == nil {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Checking report for %s\n", wikiBase(report.Input.WikiURL))
	fmt.Fprintf(&sb, "Wiki revision %s\n\n", revision(report))
	sb.WriteString("This report shows:\n")
	sb.WriteString("* Errors and omissions in the checking script\n")
	sb.WriteString("* Errors in the database\n")
	sb.WriteString("* Errors on the wiki\n")
	sb.WriteString("It's up to humans to decide which is which.\n\n")
	for _, d := range report.Discrepancies {
		sb.WriteString("* " + WikiLine(d) + "\n")
		if len(d.Diff) > 0 {
			sb.WriteString(`<div style="font-family:monospace;">` + DiffWiki(d.Diff) + "</div>\n")
		}
	}
	sb.WriteByte('\n')
	writeTotals(&sb, report, "    ")
	return sb.String()
}

// RenderMarkdown produces a GitHub-flavoured Markdown summary of the report,
// suitable for PR comments or issue trackers.
func RenderMarkdown(report *schema.Report) string {
	if report == nil {
		return ""
	}
	var sb strings.Builder

	sb.WriteString("## dexcheck Report\n\n")
	fmt.Fprintf(&sb, "**Verdict:** %s  \n", report.Summary.Verdict)
	fmt.Fprintf(&sb, "**Profile:** %s | **Wiki revision:** %s  \n", report.Input.Profile, revision(report))
	fmt.Fprintf(&sb, "**Total:** %d | **Ignored:** %d\n\n", report.Summary.Total, report.Summary.Ignored)

	if report.Summary.Total > 0 {
		sb.WriteString("| Kind | Count |\n")
		sb.WriteString("|---|---|\n")
		for _, k := range schema.Kinds {
			if n := report.Summary.Counts[k]; n > 0 {
				fmt.Fprintf(&sb, "| %s | %d |\n", k, n)
			}
		}
		sb.WriteString("\n")
	}

	if len(report.Discrepancies) > 0 {
		sb.WriteString("## Discrepancies\n\n")
		sb.WriteString("| Article | Check | Kind | Field | Expected | Actual |\n")
		sb.WriteString("|---|---|---|---|---|---|\n")
		for _, d := range report.Discrepancies {
			field := d.Field
			if d.Instance != "" {
				field = "[" + d.Instance + "] " + field
			}
			expected, actual := d.Expected, d.Actual
			if d.Reason != schema.ReasonMismatch && d.Detail != "" {
				actual = strings.TrimSpace(actual + " (" + d.Detail + ")")
			}
			fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s | %s |\n",
				mdEscape(d.Article), mdEscape(d.Check), d.Kind, mdEscape(field),
				mdCode(expected), mdCode(actual))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// htmlMarkdown renders the Markdown report. Raw HTML in values is escaped.
var htmlMarkdown = goldmark.New(goldmark.WithExtensions(extension.Table))

// RenderHTML produces an HTML fragment of the Markdown report.
func RenderHTML(report *schema.Report) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("render: nil report")
	}
	var buf bytes.Buffer
	if err := htmlMarkdown.Convert([]byte(RenderMarkdown(report)), &buf); err != nil {
		return nil, fmt.Errorf("render: html: %w", err)
	}
	return buf.Bytes(), nil
}

// mdEscape replaces characters that would break Markdown table cells.
func mdEscape(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	return s
}

// mdCode wraps a value in a code span so wikitext is shown literally.
func mdCode(s string) string {
	if s == "" {
		return ""
	}
	s = mdEscape(s)
	if strings.Contains(s, "`") {
		return "`` " + s + " ``"
	}
	return "`" + s + "`"
}
