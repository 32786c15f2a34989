package render

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dshills/dexcheck/internal/schema"
)

// Wiki diff colours for text only in the database and only on the wiki.
const (
	wikiDatabaseColor = "#b2884a"
	wikiArticleColor  = "#2795ae"
)

// visible makes whitespace in changed text visible.
func visible(s string) string {
	s = strings.ReplaceAll(s, " ", "·")
	return strings.ReplaceAll(s, "\n", "↵\n")
}

// DiffText renders ops with [-deleted-] and {+inserted+} markers. Deleted
// text is only in the database, inserted text only on the wiki.
func DiffText(ops []schema.DiffOp) string {
	var sb strings.Builder
	for _, op := range ops {
		switch {
		case op.Op < 0:
			sb.WriteString("[-" + visible(op.Text) + "-]")
		case op.Op > 0:
			sb.WriteString("{+" + visible(op.Text) + "+}")
		default:
			sb.WriteString(op.Text)
		}
	}
	return sb.String()
}

var wikiUnsafe = regexp.MustCompile(`[^a-zA-Z0-9 \n]`)

// DiffWiki renders ops as wiki markup: every character that could be read as
// markup is entity-encoded, lines are joined with <br> and changed runs are
// coloured.
func DiffWiki(ops []schema.DiffOp) string {
	var sb strings.Builder
	sb.WriteByte(' ')
	for _, op := range ops {
		text := wikiUnsafe.ReplaceAllStringFunc(op.Text, func(c string) string {
			return fmt.Sprintf("&#%d;", []rune(c)[0])
		})
		text = strings.ReplaceAll(text, "\n", "\n<br>")
		switch {
		case op.Op < 0:
			text = fmt.Sprintf(`<b style="color:%s;">%s</b>`, wikiDatabaseColor, visible(text))
		case op.Op > 0:
			text = fmt.Sprintf(`<b style="color:%s;">%s</b>`, wikiArticleColor, visible(text))
		}
		sb.WriteString(text)
	}
	return sb.String()
}
