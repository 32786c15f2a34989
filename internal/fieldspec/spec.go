// Package fieldspec declares how template parameters are derived from a
// domain entity. A Spec is built once with a Builder and is immutable
// afterwards; tmplcheck evaluates it against parsed templates.
package fieldspec

import (
	"errors"
	"fmt"

	"github.com/dshills/dexcheck/internal/schema"
)

// ErrDuplicateField is returned by Build when two fields resolve to the same
// template parameter.
var ErrDuplicateField = errors.New("fieldspec: duplicate field")

// Normalizer converts an observed, trimmed parameter value into the form it
// is compared in. It is only called for present values. An error marks the
// value as malformed.
type Normalizer func(string) (Value, error)

// ExpectFunc computes the expected value of a field for entity e.
type ExpectFunc[E any] func(e E) (Expected, error)

// CustomFunc checks a field with bespoke logic and returns its own
// discrepancies. observed is absent when the parameter is not given.
type CustomFunc[E any] func(e E, observed Observed) []schema.Discrepancy

// Mode selects how a field is evaluated.
type Mode int

const (
	ModeExpect Mode = iota
	ModeCustom
	ModeIgnore
)

// Field is one declared template parameter.
type Field[E any] struct {
	// Name is the declared name; Param is the template key, equal to Name
	// unless renamed.
	Name      string
	Param     string
	Mode      Mode
	Expect    ExpectFunc[E]
	Custom    CustomFunc[E]
	Normalize Normalizer
}

// Option adjusts a field declaration.
type Option func(*options)

type options struct {
	param     string
	normalize Normalizer
}

// Param sets the template parameter name when it differs from the field
// name, e.g. "height-m" for height_m.
func Param(name string) Option {
	return func(o *options) { o.param = name }
}

// Normalize sets the normalizer applied to the observed value.
func Normalize(n Normalizer) Option {
	return func(o *options) { o.normalize = n }
}

// Builder collects field declarations.
type Builder[E any] struct {
	fields []Field[E]
}

// New returns an empty builder for entities of type E.
func New[E any]() *Builder[E] {
	return &Builder[E]{}
}

func (b *Builder[E]) add(name string, f Field[E], opts []Option) *Builder[E] {
	o := options{param: name}
	for _, opt := range opts {
		opt(&o)
	}
	f.Name = name
	f.Param = o.param
	f.Normalize = o.normalize
	b.fields = append(b.fields, f)
	return b
}

// Field declares a field whose expected value is computed by fn.
func (b *Builder[E]) Field(name string, fn ExpectFunc[E], opts ...Option) *Builder[E] {
	return b.add(name, Field[E]{Mode: ModeExpect, Expect: fn}, opts)
}

// Value declares a field expecting exactly the value fn returns. A nil
// result expects the parameter to be absent.
func (b *Builder[E]) Value(name string, fn func(E) any, opts ...Option) *Builder[E] {
	return b.Field(name, func(e E) (Expected, error) { return One(fn(e)), nil }, opts...)
}

// Custom declares a field checked by fn.
func (b *Builder[E]) Custom(name string, fn CustomFunc[E], opts ...Option) *Builder[E] {
	return b.add(name, Field[E]{Mode: ModeCustom, Custom: fn}, opts)
}

// Ignore declares fields that accept any value and may be absent.
func (b *Builder[E]) Ignore(names ...string) *Builder[E] {
	for _, name := range names {
		b.add(name, Field[E]{Mode: ModeIgnore}, nil)
	}
	return b
}

// Build validates the declarations and returns the immutable Spec.
func (b *Builder[E]) Build() (*Spec[E], error) {
	s := &Spec[E]{
		fields: make([]Field[E], len(b.fields)),
		index:  make(map[string]int, len(b.fields)),
	}
	copy(s.fields, b.fields)
	for i, f := range s.fields {
		if f.Param == "" {
			return nil, fmt.Errorf("fieldspec: field %d has an empty name", i)
		}
		if (f.Mode == ModeExpect && f.Expect == nil) || (f.Mode == ModeCustom && f.Custom == nil) {
			return nil, fmt.Errorf("fieldspec: field %q has no accessor", f.Name)
		}
		if prev, ok := s.index[f.Param]; ok {
			return nil, fmt.Errorf("%w: %q declared by %q and %q",
				ErrDuplicateField, f.Param, s.fields[prev].Name, f.Name)
		}
		s.index[f.Param] = i
	}
	return s, nil
}

// MustBuild is like Build but panics on error. It is meant for package-level
// spec declarations.
func (b *Builder[E]) MustBuild() *Spec[E] {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}

// Spec is an immutable set of fields keyed by template parameter.
type Spec[E any] struct {
	fields []Field[E]
	index  map[string]int
}

// Lookup returns the field for template parameter key.
func (s *Spec[E]) Lookup(key string) (Field[E], bool) {
	i, ok := s.index[key]
	if !ok {
		return Field[E]{}, false
	}
	return s.fields[i], true
}

// Fields returns the fields in declaration order.
func (s *Spec[E]) Fields() []Field[E] {
	return append([]Field[E](nil), s.fields...)
}

// Len returns the number of declared fields.
func (s *Spec[E]) Len() int { return len(s.fields) }
