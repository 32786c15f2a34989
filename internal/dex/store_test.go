package dex

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func openSample(t *testing.T) *Store {
	t.Helper()
	s, err := Open("../../testdata/dex.yaml")
	require.NoError(t, err)
	return s
}

func TestOpen_Sample(t *testing.T) {
	s := openSample(t)

	species := s.Species()
	require.Len(t, species, 5)
	var ids []int
	for _, sp := range species {
		ids = append(ids, sp.ID)
	}
	require.Equal(t, []int{1, 2, 3, 10, 151}, ids)

	bulba, err := s.SpeciesByIdentifier("bulbasaur")
	require.NoError(t, err)
	if got := bulba.Name("ja"); got != "フシギダネ" {
		t.Errorf("Name(ja) = %q, want %q", got, "フシギダネ")
	}
	if got := bulba.Default().Types[1].Name("it"); got != "Veleno" {
		t.Errorf("second type (it) = %q, want %q", got, "Veleno")
	}
	if got := bulba.GrowthRate.MaxExperience; got != 1059860 {
		t.Errorf("MaxExperience = %d, want 1059860", got)
	}
	if n, ok := bulba.DexNumber("updated-johto"); !ok || n != 231 {
		t.Errorf("DexNumber(updated-johto) = %d, %v; want 231, true", n, ok)
	}
	if _, ok := bulba.DexNumber("hoenn"); ok {
		t.Error("DexNumber(hoenn) should be absent")
	}
	if bulba.Default().HiddenAbility == nil || bulba.Default().HiddenAbility.Identifier != "chlorophyll" {
		t.Errorf("HiddenAbility = %+v, want chlorophyll", bulba.Default().HiddenAbility)
	}

	mew, err := s.SpeciesByID(151)
	require.NoError(t, err)
	if mew.Default().HiddenAbility != nil {
		t.Error("Mew should have no hidden ability")
	}

	tackle, err := s.MoveByIdentifier("tackle")
	require.NoError(t, err)
	if tackle.Type.Identifier != "normal" || len(tackle.Changelog) != 1 || tackle.Changelog[0].Power != 35 {
		t.Errorf("tackle = %+v", tackle)
	}
	require.Len(t, s.Moves(), 3)
}

func TestNames_Fallback(t *testing.T) {
	n := Names{"en": "Seed"}
	if got := n.In("it"); got != "Seed" {
		t.Errorf("In(it) = %q, want fallback %q", got, "Seed")
	}
}

func TestNeighbors_WrapAround(t *testing.T) {
	s := openSample(t)
	cases := []struct {
		ident, prev, next string
	}{
		{"bulbasaur", "mew", "ivysaur"},
		{"caterpie", "venusaur", "mew"},
		{"mew", "caterpie", "bulbasaur"},
	}
	for _, c := range cases {
		sp, err := s.SpeciesByIdentifier(c.ident)
		require.NoError(t, err)
		prev, next := s.Neighbors(sp)
		if prev.Identifier != c.prev || next.Identifier != c.next {
			t.Errorf("Neighbors(%s) = %s, %s; want %s, %s", c.ident, prev.Identifier, next.Identifier, c.prev, c.next)
		}
	}
}

func TestLookup_NotFound(t *testing.T) {
	s := openSample(t)
	if _, err := s.SpeciesByID(999); !errors.Is(err, ErrNotFound) {
		t.Errorf("SpeciesByID(999) error = %v, want ErrNotFound", err)
	}
	if _, err := s.SpeciesByIdentifier("missingno"); !errors.Is(err, ErrNotFound) {
		t.Errorf("SpeciesByIdentifier error = %v, want ErrNotFound", err)
	}
	if _, err := s.MoveByIdentifier("splash"); !errors.Is(err, ErrNotFound) {
		t.Errorf("MoveByIdentifier error = %v, want ErrNotFound", err)
	}
}

func TestLoad_Errors(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown key", "specie: []", "field specie not found"},
		{"dangling type", `
species:
  - id: 1
    identifier: a
    forms:
      - identifier: a
        types: [fire]`, `unknown type "fire"`},
		{"no forms", `
species:
  - id: 1
    identifier: a`, "has no forms"},
		{"duplicate type", `
types:
  - identifier: fire
  - identifier: fire`, `duplicate type "fire"`},
		{"dangling color", `
types:
  - identifier: fire
species:
  - id: 4
    identifier: charmander
    color: red
    forms:
      - identifier: charmander
        types: [fire]`, `unknown color "red"`},
	}
	for _, c := range cases {
		_, err := Load(strings.NewReader(c.yaml))
		if err == nil || !strings.Contains(err.Error(), c.want) {
			t.Errorf("%s: error = %v, want containing %q", c.name, err, c.want)
		}
	}
}

func TestLoad_Empty(t *testing.T) {
	s, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	if len(s.Species()) != 0 {
		t.Errorf("Species() = %v, want empty", s.Species())
	}
}
