package fieldspec

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is the canonical text form of a template parameter value, or the
// absence of one.
type Value struct {
	text    string
	present bool
}

// Absent is the value of a parameter that is not given.
var Absent = Value{}

// V converts v to its canonical text form. Integers are written in base 10,
// floats in the shortest exact decimal form, nil becomes Absent.
func V(v any) Value {
	switch v := v.(type) {
	case nil:
		return Absent
	case Value:
		return v
	case string:
		return Value{text: v, present: true}
	case int:
		return Value{text: strconv.Itoa(v), present: true}
	case int64:
		return Value{text: strconv.FormatInt(v, 10), present: true}
	case float64:
		return Value{text: strconv.FormatFloat(v, 'f', -1, 64), present: true}
	case bool:
		return Value{text: strconv.FormatBool(v), present: true}
	case fmt.Stringer:
		return Value{text: v.String(), present: true}
	default:
		return Value{text: fmt.Sprint(v), present: true}
	}
}

// Present reports whether v holds a value.
func (v Value) Present() bool { return v.present }

// String returns the text of v, or "" when absent.
func (v Value) String() string { return v.text }

// Expected is the set of acceptable values for a field. A field matches when
// the observed value equals any alternative; an Absent alternative accepts a
// missing parameter.
//
// The zero Expected has no alternatives and is not a valid expectation. It is
// what accessors return alongside an error; checking a field against it is
// reported as an error.
type Expected struct {
	alts []Value
}

// One expects exactly v. One(nil) expects the parameter to be absent.
func One(v any) Expected {
	return Expected{alts: []Value{V(v)}}
}

// AnyOf accepts any of vs. A nil element accepts absence.
func AnyOf(vs ...any) Expected {
	alts := make([]Value, len(vs))
	for i, v := range vs {
		alts[i] = V(v)
	}
	return Expected{alts: alts}
}

// Missing expects the parameter to be absent.
func Missing() Expected { return One(nil) }

// IsZero reports whether e has no alternatives.
func (e Expected) IsZero() bool { return len(e.alts) == 0 }

// Alternatives returns the accepted values.
func (e Expected) Alternatives() []Value {
	return append([]Value(nil), e.alts...)
}

// IsAbsent reports whether absence is the only accepted outcome.
func (e Expected) IsAbsent() bool {
	return len(e.alts) == 1 && !e.alts[0].present
}

// Matches reports whether observed satisfies e. Comparison is on canonical
// text, so "3" and 3 match.
func (e Expected) Matches(observed Value) bool {
	for _, alt := range e.alts {
		if alt.present != observed.present {
			continue
		}
		if !alt.present || alt.text == observed.text {
			return true
		}
	}
	return false
}

// String renders the accepted values for reports: alternatives are joined
// with " or ", absence reads "missing" and an empty string reads "empty".
func (e Expected) String() string {
	parts := make([]string, len(e.alts))
	for i, alt := range e.alts {
		switch s := strings.TrimSpace(alt.text); {
		case !alt.present:
			parts[i] = "missing"
		case s == "":
			parts[i] = "empty"
		default:
			parts[i] = s
		}
	}
	return strings.Join(parts, " or ")
}

// Observed is a template parameter as found on the wiki.
type Observed struct {
	Text    string
	Present bool
}

// Value returns o as a Value.
func (o Observed) Value() Value {
	if !o.Present {
		return Absent
	}
	return Value{text: o.Text, present: true}
}
