// Package tmplcheck compares a parsed template against a field specification.
package tmplcheck

import (
	"fmt"

	"github.com/dshills/dexcheck/internal/fieldspec"
	"github.com/dshills/dexcheck/internal/schema"
	"github.com/dshills/dexcheck/internal/wikiparse"
)

// Check evaluates every parameter of t against spec for entity e.
//
// Parameters unknown to spec are reported as EXTRA_FIELD, repeats of a key
// already seen as DUPLICATE_FIELD. Declared fields that t does not give are
// evaluated as absent afterwards, in declaration order. A panic inside a
// field accessor is reported against that field and does not stop the check.
func Check[E any](t *wikiparse.Template, spec *fieldspec.Spec[E], e E) []schema.Discrepancy {
	var out []schema.Discrepancy
	seen := make(map[string]bool, spec.Len())
	for _, p := range t.Params() {
		f, ok := spec.Lookup(p.Key)
		if !ok {
			out = append(out, schema.ExtraField(p.Key, p.Value))
			continue
		}
		if seen[p.Key] {
			out = append(out, schema.DuplicateField(p.Key, p.Value))
			continue
		}
		seen[p.Key] = true
		out = append(out, Field(f, e, fieldspec.Observed{Text: p.Value, Present: true})...)
	}
	for _, f := range spec.Fields() {
		if seen[f.Param] {
			continue
		}
		out = append(out, Field(f, e, fieldspec.Observed{})...)
	}
	return out
}

// Field evaluates a single field against an observed value.
func Field[E any](f fieldspec.Field[E], e E, observed fieldspec.Observed) (out []schema.Discrepancy) {
	defer func() {
		if r := recover(); r != nil {
			d := schema.WrongValue(f.Param, "", observed.Text)
			d.Reason = schema.ReasonError
			d.Detail = fmt.Sprint(r)
			out = []schema.Discrepancy{d}
		}
	}()

	switch f.Mode {
	case fieldspec.ModeIgnore:
		return nil
	case fieldspec.ModeCustom:
		return fill(f.Custom(e, observed), f.Param)
	}

	expected, err := f.Expect(e)
	if err == nil && expected.IsZero() {
		err = fmt.Errorf("tmplcheck: no expected value for %s", f.Param)
	}
	if err != nil {
		d := schema.WrongValue(f.Param, "", observed.Text)
		d.Reason = schema.ReasonError
		d.Detail = err.Error()
		return []schema.Discrepancy{d}
	}

	value := observed.Value()
	if observed.Present && f.Normalize != nil {
		value, err = f.Normalize(observed.Text)
		if err != nil {
			d := schema.WrongValue(f.Param, expected.String(), observed.Text)
			d.Reason = schema.ReasonBadValue
			d.Detail = err.Error()
			return []schema.Discrepancy{d}
		}
	}
	if expected.Matches(value) {
		return nil
	}

	switch {
	case expected.IsAbsent():
		d := schema.WrongValue(f.Param, expected.String(), observed.Text)
		d.Reason = schema.ReasonUnexpected
		return []schema.Discrepancy{d}
	case !value.Present():
		// Either not given, or normalized away.
		return []schema.Discrepancy{schema.MissingField(f.Param, expected.String())}
	default:
		return []schema.Discrepancy{schema.WrongValue(f.Param, expected.String(), observed.Text)}
	}
}

// fill sets the field name on custom discrepancies that leave it empty.
func fill(ds []schema.Discrepancy, field string) []schema.Discrepancy {
	for i := range ds {
		if ds[i].Field == "" {
			ds[i].Field = field
		}
	}
	return ds
}
