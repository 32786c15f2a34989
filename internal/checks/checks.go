// Package checks defines the article checks dexcheck runs for each profile
// and generates them from the entity store.
package checks

import (
	"fmt"
	"iter"

	"github.com/dshills/dexcheck/internal/checker"
	"github.com/dshills/dexcheck/internal/dex"
	"github.com/dshills/dexcheck/internal/fieldspec"
	"github.com/dshills/dexcheck/internal/profile"
	"github.com/dshills/dexcheck/internal/schema"
)

// Set holds the field specifications for one profile. Build it once per run.
type Set struct {
	store      *dex.Store
	profile    profile.Profile
	navigation *fieldspec.Spec[navEntity]
	infobox    *fieldspec.Spec[*dex.Species]
}

// New builds the checks enabled by p. Errors indicate a broken profile.
func New(store *dex.Store, p profile.Profile) (*Set, error) {
	s := &Set{store: store, profile: p}
	var err error
	if p.Enabled(profile.CheckNavigation) {
		if s.navigation, err = navigationSpec(p); err != nil {
			return nil, fmt.Errorf("checks: %s navigation: %w", p.Name, err)
		}
	}
	if p.Enabled(profile.CheckInfobox) {
		if s.infobox, err = infoboxSpec(p); err != nil {
			return nil, fmt.Errorf("checks: %s infobox: %w", p.Name, err)
		}
	}
	return s, nil
}

// All yields every enabled check: species checks in national order, then
// move checks in move order.
func (s *Set) All() iter.Seq[checker.Check] {
	return func(yield func(checker.Check) bool) {
		for _, sp := range s.store.Species() {
			if s.navigation != nil && !yield(s.Navigation(sp)) {
				return
			}
			if s.infobox != nil && !yield(s.Infobox(sp)) {
				return
			}
		}
		if !s.profile.Enabled(profile.CheckMoveEffect) {
			return
		}
		for _, m := range s.store.Moves() {
			if !yield(s.MoveEffect(m)) {
				return
			}
		}
	}
}

// Filter yields only the checks whose entity is in entities. An empty
// filter yields everything.
func Filter(seq iter.Seq[checker.Check], entities []string) iter.Seq[checker.Check] {
	if len(entities) == 0 {
		return seq
	}
	want := make(map[string]bool, len(entities))
	for _, e := range entities {
		want[e] = true
	}
	return func(yield func(checker.Check) bool) {
		for c := range seq {
			if want[c.Entity] && !yield(c) {
				return
			}
		}
	}
}

// table declares fields through a profile's FieldTable: renamed, turned
// into ignored parameters or left out as the wiki requires.
type table[E any] struct {
	b        *fieldspec.Builder[E]
	ft       profile.FieldTable
	declared map[string]bool
}

func newTable[E any](ft profile.FieldTable) *table[E] {
	return &table[E]{b: fieldspec.New[E](), ft: ft, declared: map[string]bool{}}
}

// param resolves field to its parameter name; ok is false when the field
// was handled as omitted or ignored.
func (t *table[E]) param(field string) (string, bool) {
	if t.ft.Omitted(field) {
		return "", false
	}
	p := t.ft.Param(field)
	t.declared[p] = true
	if t.ft.Ignored(p) {
		t.b.Ignore(p)
		return "", false
	}
	return p, true
}

func (t *table[E]) value(field string, fn func(E) any, opts ...fieldspec.Option) {
	if p, ok := t.param(field); ok {
		t.b.Value(field, fn, append(opts, fieldspec.Param(p))...)
	}
}

func (t *table[E]) field(field string, fn fieldspec.ExpectFunc[E], opts ...fieldspec.Option) {
	if p, ok := t.param(field); ok {
		t.b.Field(field, fn, append(opts, fieldspec.Param(p))...)
	}
}

func (t *table[E]) custom(field string, fn func(param string) fieldspec.CustomFunc[E]) {
	if p, ok := t.param(field); ok {
		t.b.Custom(field, fn(p), fieldspec.Param(p))
	}
}

func (t *table[E]) build() (*fieldspec.Spec[E], error) {
	for _, p := range t.ft.Ignore {
		if !t.declared[p] {
			t.declared[p] = true
			t.b.Ignore(p)
		}
	}
	return t.b.Build()
}

// withInstance labels discrepancies found in one of several template
// instances.
func withInstance(ds []schema.Discrepancy, label string) []schema.Discrepancy {
	for i := range ds {
		ds[i].Instance = label
	}
	return ds
}
