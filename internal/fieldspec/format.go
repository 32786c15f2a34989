package fieldspec

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/net/html"

	"github.com/dshills/dexcheck/internal/wikiparse"
)

// Pad3 formats n with at least three digits, as used for dex numbers.
func Pad3(n int) string { return fmt.Sprintf("%03d", n) }

// Pad2 formats n with at least two digits.
func Pad2(n int) string { return fmt.Sprintf("%02d", n) }

// GroupDigits writes n with sep between groups of three digits.
func GroupDigits(n int64, sep string) string {
	s := strconv.FormatInt(n, 10)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	var chunks []string
	for len(s) > 3 {
		chunks = append([]string{s[len(s)-3:]}, chunks...)
		s = s[:len(s)-3]
	}
	chunks = append([]string{s}, chunks...)
	return sign + strings.Join(chunks, sep)
}

// FormatDecimal writes f in its shortest exact form with sep as the decimal
// separator. Whole numbers keep one decimal place, so 2 becomes "2.0".
func FormatDecimal(f float64, sep string) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return strings.Replace(s, ".", sep, 1)
}

// FeetInches converts a height in decimetres to feet and inches, e.g. 7 to
// 2'04".
func FeetInches(decimetres int) string {
	inches := int(math.Round(float64(decimetres) * 3.937))
	return fmt.Sprintf("%d'%02d\"", inches/12, inches%12)
}

// StripHTMLComments removes HTML comments together with the whitespace
// around them.
func StripHTMLComments(s string) (Value, error) {
	var sb strings.Builder
	trimNext := false
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); err != io.EOF {
				return Absent, fmt.Errorf("fieldspec: strip comments: %w", err)
			}
			break
		}
		if tt == html.CommentToken {
			kept := strings.TrimRightFunc(sb.String(), unicode.IsSpace)
			sb.Reset()
			sb.WriteString(kept)
			trimNext = true
			continue
		}
		raw := string(z.Raw())
		if trimNext {
			raw = strings.TrimLeftFunc(raw, unicode.IsSpace)
			trimNext = raw == ""
		}
		sb.WriteString(raw)
	}
	return V(sb.String()), nil
}

// ParseDecimal returns a normalizer that reads a number written with sep as
// the decimal separator and rewrites it the way FormatDecimal does.
func ParseDecimal(sep string) Normalizer {
	return func(s string) (Value, error) {
		f, err := strconv.ParseFloat(strings.Replace(s, sep, ".", 1), 64)
		if err != nil {
			return Absent, fmt.Errorf("fieldspec: not a number: %q", s)
		}
		return V(FormatDecimal(f, sep)), nil
	}
}

// WikiName normalises the value as a page name.
func WikiName(s string) (Value, error) {
	return V(wikiparse.MakeWikiName(s)), nil
}

// PrimeQuotes replaces prime marks with ASCII quotes and drops spaces, so
// 2′ 04″ reads 2'04".
func PrimeQuotes(s string) (Value, error) {
	r := strings.NewReplacer("′", "'", "″", `"`, " ", "")
	return V(r.Replace(s)), nil
}

// DexLimit returns a normalizer that treats numbers above limit as absent.
// Regional dexes the database does not model yet are written on the wiki
// with numbers past the known range.
func DexLimit(limit int) Normalizer {
	return func(s string) (Value, error) {
		n, err := strconv.Atoi(s)
		if err != nil {
			return Absent, fmt.Errorf("fieldspec: not a dex number: %q", s)
		}
		if n > limit {
			return Absent, nil
		}
		return V(s), nil
	}
}
