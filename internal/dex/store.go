package dex

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned by lookups for entities the dataset lacks.
var ErrNotFound = errors.New("dex: not found")

// Store is the loaded dataset. It is safe for concurrent reads.
type Store struct {
	species      []*Species
	speciesID    map[int]*Species
	speciesIdent map[string]*Species
	moves        []*Move
	moveIdent    map[string]*Move
}

// Open loads the dataset at path.
func Open(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dex: open: %w", err)
	}
	s, err := Load(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w (in %s)", err, path)
	}
	return s, nil
}

// Load reads a dataset from r. Unknown keys and dangling references are
// errors.
func Load(r io.Reader) (*Store, error) {
	var f file
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("dex: decode: %w", err)
	}
	return f.resolve()
}

// Species returns all species ordered by ID.
func (s *Store) Species() []*Species { return slices.Clone(s.species) }

// SpeciesByID returns the species with national number id.
func (s *Store) SpeciesByID(id int) (*Species, error) {
	sp, ok := s.speciesID[id]
	if !ok {
		return nil, fmt.Errorf("%w: species #%d", ErrNotFound, id)
	}
	return sp, nil
}

// SpeciesByIdentifier returns the species with the given identifier.
func (s *Store) SpeciesByIdentifier(ident string) (*Species, error) {
	sp, ok := s.speciesIdent[ident]
	if !ok {
		return nil, fmt.Errorf("%w: species %q", ErrNotFound, ident)
	}
	return sp, nil
}

// Neighbors returns the species before and after sp in national order,
// wrapping around at both ends.
func (s *Store) Neighbors(sp *Species) (prev, next *Species) {
	i := slices.Index(s.species, sp)
	n := len(s.species)
	if i < 0 {
		return nil, nil
	}
	return s.species[(i+n-1)%n], s.species[(i+1)%n]
}

// Moves returns all moves ordered by ID.
func (s *Store) Moves() []*Move { return slices.Clone(s.moves) }

// MoveByIdentifier returns the move with the given identifier.
func (s *Store) MoveByIdentifier(ident string) (*Move, error) {
	m, ok := s.moveIdent[ident]
	if !ok {
		return nil, fmt.Errorf("%w: move %q", ErrNotFound, ident)
	}
	return m, nil
}

// file is the on-disk layout.
type file struct {
	Types       []namedEntry      `yaml:"types"`
	Abilities   []namedEntry      `yaml:"abilities"`
	EggGroups   []namedEntry      `yaml:"egg_groups"`
	Colors      []namedEntry      `yaml:"colors"`
	GrowthRates []growthRateEntry `yaml:"growth_rates"`
	Species     []speciesEntry    `yaml:"species"`
	Moves       []moveEntry       `yaml:"moves"`
}

type namedEntry struct {
	Identifier string `yaml:"identifier"`
	Names      Names  `yaml:"names"`
}

type growthRateEntry struct {
	Identifier    string `yaml:"identifier"`
	MaxExperience int64  `yaml:"max_experience"`
}

type speciesEntry struct {
	ID           int            `yaml:"id"`
	Identifier   string         `yaml:"identifier"`
	Names        Names          `yaml:"names"`
	Genus        Names          `yaml:"genus"`
	Generation   int            `yaml:"generation"`
	GenderRate   int            `yaml:"gender_rate"`
	CaptureRate  int            `yaml:"capture_rate"`
	HatchCounter int            `yaml:"hatch_counter"`
	Shape        int            `yaml:"shape"`
	Color        string         `yaml:"color"`
	GrowthRate   string         `yaml:"growth_rate"`
	EggGroups    []string       `yaml:"egg_groups"`
	DexNumbers   map[string]int `yaml:"dex_numbers"`
	Forms        []pokemonEntry `yaml:"forms"`
}

type pokemonEntry struct {
	Identifier    string         `yaml:"identifier"`
	Height        int            `yaml:"height"`
	Weight        int            `yaml:"weight"`
	Types         []string       `yaml:"types"`
	Abilities     []string       `yaml:"abilities"`
	HiddenAbility string         `yaml:"hidden_ability"`
	Effort        map[string]int `yaml:"effort"`
}

type moveEntry struct {
	ID         int           `yaml:"id"`
	Identifier string        `yaml:"identifier"`
	Names      Names         `yaml:"names"`
	Type       string        `yaml:"type"`
	Power      int           `yaml:"power"`
	Accuracy   int           `yaml:"accuracy"`
	PP         int           `yaml:"pp"`
	Effect     string        `yaml:"effect"`
	Changelog  []changeEntry `yaml:"changelog"`
}

type changeEntry struct {
	VersionGroup string `yaml:"version_group"`
	Type         string `yaml:"type"`
	Power        int    `yaml:"power"`
	Accuracy     int    `yaml:"accuracy"`
	PP           int    `yaml:"pp"`
}

// index builds an identifier lookup, rejecting duplicates.
func index[T any](kind string, entries []namedEntry, mk func(namedEntry) *T) (map[string]*T, error) {
	m := make(map[string]*T, len(entries))
	for _, e := range entries {
		if e.Identifier == "" {
			return nil, fmt.Errorf("dex: %s without identifier", kind)
		}
		if _, dup := m[e.Identifier]; dup {
			return nil, fmt.Errorf("dex: duplicate %s %q", kind, e.Identifier)
		}
		m[e.Identifier] = mk(e)
	}
	return m, nil
}

// refs resolves a list of identifiers.
func refs[T any](m map[string]*T, kind, owner string, idents []string) ([]*T, error) {
	out := make([]*T, 0, len(idents))
	for _, id := range idents {
		v, ok := m[id]
		if !ok {
			return nil, fmt.Errorf("dex: %s: unknown %s %q", owner, kind, id)
		}
		out = append(out, v)
	}
	return out, nil
}

// ref resolves one identifier; empty means none.
func ref[T any](m map[string]*T, kind, owner, ident string) (*T, error) {
	if ident == "" {
		return nil, nil
	}
	v, ok := m[ident]
	if !ok {
		return nil, fmt.Errorf("dex: %s: unknown %s %q", owner, kind, ident)
	}
	return v, nil
}

func (f *file) resolve() (*Store, error) {
	types, err := index("type", f.Types, func(e namedEntry) *Type { return &Type{e.Identifier, e.Names} })
	if err != nil {
		return nil, err
	}
	abilities, err := index("ability", f.Abilities, func(e namedEntry) *Ability { return &Ability{e.Identifier, e.Names} })
	if err != nil {
		return nil, err
	}
	eggGroups, err := index("egg group", f.EggGroups, func(e namedEntry) *EggGroup { return &EggGroup{e.Identifier, e.Names} })
	if err != nil {
		return nil, err
	}
	colors, err := index("color", f.Colors, func(e namedEntry) *Color { return &Color{e.Identifier, e.Names} })
	if err != nil {
		return nil, err
	}
	growth := make(map[string]*GrowthRate, len(f.GrowthRates))
	for _, g := range f.GrowthRates {
		growth[g.Identifier] = &GrowthRate{g.Identifier, g.MaxExperience}
	}

	s := &Store{
		speciesID:    make(map[int]*Species, len(f.Species)),
		speciesIdent: make(map[string]*Species, len(f.Species)),
		moveIdent:    make(map[string]*Move, len(f.Moves)),
	}
	for _, e := range f.Species {
		sp, err := resolveSpecies(e, types, abilities, eggGroups, colors, growth)
		if err != nil {
			return nil, err
		}
		if _, dup := s.speciesID[sp.ID]; dup {
			return nil, fmt.Errorf("dex: duplicate species #%d", sp.ID)
		}
		if _, dup := s.speciesIdent[sp.Identifier]; dup {
			return nil, fmt.Errorf("dex: duplicate species %q", sp.Identifier)
		}
		s.speciesID[sp.ID] = sp
		s.speciesIdent[sp.Identifier] = sp
		s.species = append(s.species, sp)
	}
	slices.SortFunc(s.species, func(a, b *Species) int { return cmp.Compare(a.ID, b.ID) })

	for _, e := range f.Moves {
		owner := "move " + e.Identifier
		t, err := ref(types, "type", owner, e.Type)
		if err != nil {
			return nil, err
		}
		m := &Move{
			ID: e.ID, Identifier: e.Identifier, Names: e.Names, Type: t,
			Power: e.Power, Accuracy: e.Accuracy, PP: e.PP, Effect: e.Effect,
		}
		for _, c := range e.Changelog {
			ct, err := ref(types, "type", owner, c.Type)
			if err != nil {
				return nil, err
			}
			m.Changelog = append(m.Changelog, MoveChange{
				VersionGroup: c.VersionGroup, Type: ct,
				Power: c.Power, Accuracy: c.Accuracy, PP: c.PP,
			})
		}
		if _, dup := s.moveIdent[m.Identifier]; dup {
			return nil, fmt.Errorf("dex: duplicate move %q", m.Identifier)
		}
		s.moveIdent[m.Identifier] = m
		s.moves = append(s.moves, m)
	}
	slices.SortFunc(s.moves, func(a, b *Move) int { return cmp.Compare(a.ID, b.ID) })
	return s, nil
}

func resolveSpecies(
	e speciesEntry,
	types map[string]*Type,
	abilities map[string]*Ability,
	eggGroups map[string]*EggGroup,
	colors map[string]*Color,
	growth map[string]*GrowthRate,
) (*Species, error) {
	owner := "species " + e.Identifier
	if e.ID <= 0 || e.Identifier == "" {
		return nil, fmt.Errorf("dex: species entry needs an id and identifier (got %d %q)", e.ID, e.Identifier)
	}
	if len(e.Forms) == 0 {
		return nil, fmt.Errorf("dex: %s has no forms", owner)
	}
	color, err := ref(colors, "color", owner, e.Color)
	if err != nil {
		return nil, err
	}
	rate, err := ref(growth, "growth rate", owner, e.GrowthRate)
	if err != nil {
		return nil, err
	}
	groups, err := refs(eggGroups, "egg group", owner, e.EggGroups)
	if err != nil {
		return nil, err
	}
	sp := &Species{
		ID: e.ID, Identifier: e.Identifier, Names: e.Names, Genus: e.Genus,
		Generation: e.Generation, GenderRate: e.GenderRate,
		CaptureRate: e.CaptureRate, HatchCounter: e.HatchCounter, Shape: e.Shape,
		Color: color, GrowthRate: rate, EggGroups: groups, DexNumbers: e.DexNumbers,
	}
	for _, pe := range e.Forms {
		owner := "pokemon " + pe.Identifier
		ts, err := refs(types, "type", owner, pe.Types)
		if err != nil {
			return nil, err
		}
		if len(ts) == 0 {
			return nil, fmt.Errorf("dex: %s has no types", owner)
		}
		as, err := refs(abilities, "ability", owner, pe.Abilities)
		if err != nil {
			return nil, err
		}
		hidden, err := ref(abilities, "ability", owner, pe.HiddenAbility)
		if err != nil {
			return nil, err
		}
		sp.Forms = append(sp.Forms, &Pokemon{
			Identifier: pe.Identifier, Height: pe.Height, Weight: pe.Weight,
			Types: ts, Abilities: as, HiddenAbility: hidden, Effort: pe.Effort,
		})
	}
	return sp, nil
}
