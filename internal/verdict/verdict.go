// Package verdict summarises a list of discrepancies into counts and an
// overall verdict.
package verdict

import (
	"fmt"
	"strings"

	"github.com/dshills/dexcheck/internal/schema"
)

// Ordinal returns the numeric ordinal for a verdict, used to compare
// severity. CLEAN=0, MISMATCHES=1, INCOMPLETE=2.
// Used by --fail-on: exit 2 if Ordinal(actual) >= Ordinal(threshold).
func Ordinal(v schema.Verdict) int {
	switch v {
	case schema.VerdictClean:
		return 0
	case schema.VerdictMismatches:
		return 1
	case schema.VerdictIncomplete:
		return 2
	default:
		return -1
	}
}

// Parse reads a verdict name as given on the command line. Case is ignored.
func Parse(s string) (schema.Verdict, error) {
	v := schema.Verdict(strings.ToUpper(strings.TrimSpace(s)))
	if Ordinal(v) < 0 {
		return "", fmt.Errorf("verdict: unknown verdict %q (want CLEAN, MISMATCHES or INCOMPLETE)", s)
	}
	return v, nil
}

// Determine applies the verdict rules in order of precedence:
//  1. A missing article or template → INCOMPLETE, some fields went unchecked
//  2. Any other discrepancy → MISMATCHES
//  3. Otherwise → CLEAN
func Determine(ds []schema.Discrepancy) schema.Verdict {
	for _, d := range ds {
		if d.Kind == schema.KindMissingArticle || d.Kind == schema.KindMissingTemplate {
			return schema.VerdictIncomplete
		}
	}
	if len(ds) > 0 {
		return schema.VerdictMismatches
	}
	return schema.VerdictClean
}

// Count tallies discrepancies per kind. Every known kind is present in the
// result, with zero when it does not occur.
func Count(ds []schema.Discrepancy) map[schema.Kind]int {
	counts := make(map[schema.Kind]int, len(schema.Kinds))
	for _, k := range schema.Kinds {
		counts[k] = 0
	}
	for _, d := range ds {
		counts[d.Kind]++
	}
	return counts
}

// Summarize builds the report summary for ds. ignored is the number of
// discrepancies suppressed by a baseline and not part of ds.
func Summarize(ds []schema.Discrepancy, ignored int) schema.Summary {
	return schema.Summary{
		Verdict: Determine(ds),
		Total:   len(ds),
		Ignored: ignored,
		Counts:  Count(ds),
	}
}

// Fails reports whether v reaches threshold.
func Fails(v, threshold schema.Verdict) bool {
	return Ordinal(v) >= Ordinal(threshold)
}
