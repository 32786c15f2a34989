// Package schema defines the discrepancy records produced by a check run and
// the report document that carries them.
package schema

import (
	"cmp"
	"time"
)

// Kind classifies a discrepancy. The declaration order is the report sort
// order and the --fail-on ordinal.
type Kind string

const (
	KindMissingArticle  Kind = "MISSING_ARTICLE"
	KindMissingTemplate Kind = "MISSING_TEMPLATE"
	KindWrongValue      Kind = "WRONG_VALUE"
	KindMissingField    Kind = "MISSING_FIELD"
	KindExtraField      Kind = "EXTRA_FIELD"
	KindDuplicateField  Kind = "DUPLICATE_FIELD"
)

// Kinds lists every kind in sort order.
var Kinds = []Kind{
	KindMissingArticle,
	KindMissingTemplate,
	KindWrongValue,
	KindMissingField,
	KindExtraField,
	KindDuplicateField,
}

// Ordinal returns the position of k in Kinds, or -1 for an unknown kind.
func (k Kind) Ordinal() int {
	for i, known := range Kinds {
		if k == known {
			return i
		}
	}
	return -1
}

// Reason refines a WRONG_VALUE discrepancy.
type Reason string

const (
	// ReasonMismatch is a plain expected-vs-actual mismatch.
	ReasonMismatch Reason = ""
	// ReasonBadValue means the observed value could not be normalised.
	ReasonBadValue Reason = "bad_value"
	// ReasonUnexpected means a value is present where none is expected.
	ReasonUnexpected Reason = "unexpected"
	// ReasonError means computing the expected value failed.
	ReasonError Reason = "error"
	// ReasonCustom carries a free-form message from a custom field check.
	ReasonCustom Reason = "custom"
)

// DiffOp is one run of a text diff. Op is -1 for text only in the expected
// side, 1 for text only in the actual side and 0 for shared text.
type DiffOp struct {
	Op   int    `json:"op"`
	Text string `json:"text"`
}

// Discrepancy is a single mismatch between expected (database) and observed
// (wiki) content. Which fields are set depends on Kind.
type Discrepancy struct {
	Kind     Kind     `json:"kind"`
	Article  string   `json:"article"`
	Check    string   `json:"check,omitempty"`
	Instance string   `json:"instance,omitempty"`
	Entity   string   `json:"entity,omitempty"`
	Field    string   `json:"field,omitempty"`
	Expected string   `json:"expected,omitempty"`
	Actual   string   `json:"actual,omitempty"`
	Reason   Reason   `json:"reason,omitempty"`
	Detail   string   `json:"detail,omitempty"`
	Diff     []DiffOp `json:"diff,omitempty"`
}

// WrongValue reports a parameter whose value differs from the expected one.
func WrongValue(field, expected, actual string) Discrepancy {
	return Discrepancy{Kind: KindWrongValue, Field: field, Expected: expected, Actual: actual}
}

// MissingField reports a parameter that should be present but is not.
func MissingField(field, expected string) Discrepancy {
	return Discrepancy{Kind: KindMissingField, Field: field, Expected: expected}
}

// ExtraField reports a parameter the field specification does not know.
func ExtraField(field, actual string) Discrepancy {
	return Discrepancy{Kind: KindExtraField, Field: field, Actual: actual}
}

// DuplicateField reports a parameter given more than once.
func DuplicateField(field, actual string) Discrepancy {
	return Discrepancy{Kind: KindDuplicateField, Field: field, Actual: actual}
}

// MissingArticle reports an article the wiki does not have.
func MissingArticle(article string) Discrepancy {
	return Discrepancy{Kind: KindMissingArticle, Article: article}
}

// MissingTemplate reports a template or section absent from an article.
func MissingTemplate(name string) Discrepancy {
	return Discrepancy{Kind: KindMissingTemplate, Field: name}
}

// Custom reports a free-form problem found by a custom field check.
func Custom(field, detail string) Discrepancy {
	return Discrepancy{Kind: KindWrongValue, Field: field, Reason: ReasonCustom, Detail: detail}
}

// Compare orders discrepancies by kind, then field, then article and the
// remaining text fields, so sorted output is stable across runs.
func Compare(a, b Discrepancy) int {
	if c := cmp.Compare(a.Kind.Ordinal(), b.Kind.Ordinal()); c != 0 {
		return c
	}
	pairs := [...][2]string{
		{a.Field, b.Field},
		{a.Article, b.Article},
		{a.Check, b.Check},
		{a.Instance, b.Instance},
		{a.Entity, b.Entity},
		{a.Expected, b.Expected},
		{a.Actual, b.Actual},
		{string(a.Reason), string(b.Reason)},
		{a.Detail, b.Detail},
	}
	for _, p := range pairs {
		if c := cmp.Compare(p[0], p[1]); c != 0 {
			return c
		}
	}
	return 0
}

// Report is the top-level output document.
type Report struct {
	Tool          string        `json:"tool"`
	Version       string        `json:"version"`
	Input         Input         `json:"input"`
	Summary       Summary       `json:"summary"`
	Discrepancies []Discrepancy `json:"discrepancies"`
	Meta          Meta          `json:"meta"`
}

// Input records the parameters used for this run.
type Input struct {
	Profile  string   `json:"profile"`
	WikiURL  string   `json:"wiki_url"`
	DexPath  string   `json:"dex_path"`
	Checks   []string `json:"checks,omitempty"`
	Baseline string   `json:"baseline,omitempty"`
}

// Verdict is the overall outcome of a run.
type Verdict string

const (
	VerdictClean      Verdict = "CLEAN"
	VerdictMismatches Verdict = "MISMATCHES"
	VerdictIncomplete Verdict = "INCOMPLETE"
)

// Summary holds the computed verdict and discrepancy counts.
type Summary struct {
	Verdict Verdict      `json:"verdict"`
	Total   int          `json:"total"`
	Ignored int          `json:"ignored"`
	Counts  map[Kind]int `json:"counts"`
}

// Meta records information about the run.
type Meta struct {
	RunID        string    `json:"run_id"`
	WikiRevision int64     `json:"wiki_revision"`
	WikiUpdated  time.Time `json:"wiki_updated,omitzero"`
	Checks       int       `json:"checks"`
	Articles     int       `json:"articles"`
	Fetches      int       `json:"fetches"`
}
