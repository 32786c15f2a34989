package render

import (
	"fmt"

	"github.com/dshills/dexcheck/internal/schema"
)

// Message describes d in one line, without the article and check name.
func Message(d schema.Discrepancy) string {
	msg := message(d)
	if d.Instance != "" {
		msg = "[" + d.Instance + "] " + msg
	}
	return msg
}

func message(d schema.Discrepancy) string {
	switch d.Kind {
	case schema.KindMissingArticle:
		return "article missing"
	case schema.KindMissingTemplate:
		return fmt.Sprintf("Missing template: %s", d.Field)
	case schema.KindMissingField:
		return fmt.Sprintf("Missing template parameter: %s (should be %s)", d.Field, d.Expected)
	case schema.KindExtraField:
		return fmt.Sprintf("Unknown template parameter: %s=%s", d.Field, d.Actual)
	case schema.KindDuplicateField:
		return fmt.Sprintf("Duplicate template parameter: %s", d.Field)
	}

	switch d.Reason {
	case schema.ReasonUnexpected:
		return fmt.Sprintf("Unexpected template parameter: %s=%s", d.Field, d.Actual)
	case schema.ReasonBadValue:
		return fmt.Sprintf("Bad value for template parameter %s: %s (should be %s)", d.Field, d.Actual, d.Expected)
	case schema.ReasonError:
		return fmt.Sprintf("Cannot check template parameter %s: %s", d.Field, d.Detail)
	case schema.ReasonCustom:
		if d.Expected == "" && d.Actual == "" {
			return fmt.Sprintf("In template parameter %s: %s", d.Field, d.Detail)
		}
		return fmt.Sprintf("In template parameter %s: %s: expected '%s', got '%s'", d.Field, d.Detail, d.Expected, d.Actual)
	}
	if len(d.Diff) > 0 {
		return fmt.Sprintf("Section %s differs from the database", d.Field)
	}
	return fmt.Sprintf("In template parameter %s: Expected '%s', got '%s'", d.Field, d.Expected, d.Actual)
}

// Line is the plain one-line form of d. Baseline files list these lines.
func Line(d schema.Discrepancy) string {
	if d.Kind == schema.KindMissingArticle {
		return fmt.Sprintf("[[%s]]: article missing", d.Article)
	}
	return fmt.Sprintf("[[%s]] %s: %s", d.Article, d.Check, Message(d))
}

// WikiLine is Line marked up for a wiki page: the check name in <tt> and the
// message inside <nowiki> so template syntax in values stays literal.
func WikiLine(d schema.Discrepancy) string {
	if d.Kind == schema.KindMissingArticle {
		return Line(d)
	}
	return fmt.Sprintf("[[%s]] <tt>%s</tt>: <nowiki>%s</nowiki>", d.Article, d.Check, Message(d))
}
