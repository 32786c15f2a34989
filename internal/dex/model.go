// Package dex is a read-only, in-memory graph of Pokémon data loaded from a
// YAML dataset. Cross references are resolved at load time.
package dex

// DefaultLanguage is used when a name is missing in the requested language.
const DefaultLanguage = "en"

// Names maps language identifiers to names.
type Names map[string]string

// In returns the name in lang, falling back to DefaultLanguage.
func (n Names) In(lang string) string {
	if s, ok := n[lang]; ok {
		return s
	}
	return n[DefaultLanguage]
}

// Type is an elemental type.
type Type struct {
	Identifier string
	Names      Names
}

// Name returns the type's name in lang.
func (t *Type) Name(lang string) string { return t.Names.In(lang) }

// Ability is a Pokémon ability.
type Ability struct {
	Identifier string
	Names      Names
}

// Name returns the ability's name in lang.
func (a *Ability) Name(lang string) string { return a.Names.In(lang) }

// EggGroup is a breeding group.
type EggGroup struct {
	Identifier string
	Names      Names
}

// Name returns the egg group's name in lang.
func (g *EggGroup) Name(lang string) string { return g.Names.In(lang) }

// Color is a Pokédex colour.
type Color struct {
	Identifier string
	Names      Names
}

// Name returns the colour's name in lang.
func (c *Color) Name(lang string) string { return c.Names.In(lang) }

// GrowthRate is an experience curve.
type GrowthRate struct {
	Identifier    string
	MaxExperience int64
}

// Species is a Pokémon species.
type Species struct {
	ID           int
	Identifier   string
	Names        Names
	Genus        Names
	Generation   int
	GenderRate   int // eighths female, -1 for genderless
	CaptureRate  int
	HatchCounter int
	Shape        int
	Color        *Color
	GrowthRate   *GrowthRate
	EggGroups    []*EggGroup
	// DexNumbers maps pokedex identifiers such as "hoenn" to numbers.
	DexNumbers map[string]int
	// Forms lists the Pokémon of the species, default form first.
	Forms []*Pokemon
}

// Name returns the species name in lang.
func (s *Species) Name(lang string) string { return s.Names.In(lang) }

// Default returns the default form.
func (s *Species) Default() *Pokemon { return s.Forms[0] }

// DexNumber returns the species number in the named pokedex.
func (s *Species) DexNumber(pokedex string) (int, bool) {
	n, ok := s.DexNumbers[pokedex]
	return n, ok
}

// Pokemon is one form of a species.
type Pokemon struct {
	Identifier    string
	Height        int // decimetres
	Weight        int // hectograms
	Types         []*Type
	Abilities     []*Ability
	HiddenAbility *Ability
	// Effort maps stat identifiers to effort values; zero entries are
	// omitted.
	Effort map[string]int
}

// Move is a move.
type Move struct {
	ID         int
	Identifier string
	Names      Names
	Type       *Type
	Power      int // 0 for moves without base power
	Accuracy   int // 0 for moves that never miss
	PP         int
	// Effect is the long effect description in Markdown, with links
	// written [label]{category:identifier}.
	Effect    string
	Changelog []MoveChange
}

// Name returns the move name in lang.
func (m *Move) Name(lang string) string { return m.Names.In(lang) }

// MoveChange records values a move had before the given version group.
// Zero fields were unchanged.
type MoveChange struct {
	VersionGroup string
	Type         *Type
	Power        int
	Accuracy     int
	PP           int
}
