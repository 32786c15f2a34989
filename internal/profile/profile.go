// Package profile describes the wikis dexcheck knows how to check. A profile
// is pure data: which checks run, how articles are named, which template
// parameters map to which database fields and the locale tables used to
// render expected values.
package profile

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

// ErrUnknownProfile is returned by Load for a name with no built-in profile.
var ErrUnknownProfile = errors.New("profile: unknown profile")

// Check kinds a profile can enable.
const (
	CheckNavigation = "navigation"
	CheckInfobox    = "infobox"
	CheckMoveEffect = "move-effect"
)

// DefaultRequestInterval is the minimum delay between wiki API requests.
const DefaultRequestInterval = 5 * time.Second

// Profile describes one wiki.
type Profile struct {
	Name        string
	Description string
	// APIURL is the wiki's api.php endpoint.
	APIURL          string
	Language        string
	RequestInterval time.Duration
	Checks          []string

	// SpeciesArticle and MoveArticles are fmt patterns applied to the
	// entity name. Move articles are tried in order.
	SpeciesArticle string
	MoveArticles   []string

	Navigation Navigation
	Infobox    Infobox
	MoveEffect MoveEffect
}

// Navigation configures the previous/next species navigation check.
type Navigation struct {
	// Check is the name reported for this check.
	Check string
	// Templates are tried in order; the first one present is checked.
	Templates []string
	// AllInstances checks every instance of Templates[0] and prefixes each
	// discrepancy with InstanceLabels[i].
	AllInstances   bool
	InstanceLabels []string
	// HeadTemplate is the variant that also carries the species name.
	HeadTemplate string
	Fields       FieldTable
	// TypeAliases lists extra accepted spellings for a type name.
	TypeAliases map[string][]string
}

// Infobox configures the species infobox check.
type Infobox struct {
	Check    string
	Template string
	Fields   FieldTable
	// DecimalSep and GroupSep are used for heights, weights and large
	// numbers.
	DecimalSep string
	GroupSep   string
	// EggGroupNames maps database egg group names to the wiki's spelling.
	EggGroupNames map[string]string
	// PrimeQuotes accepts ′ and ″ in imperial heights.
	PrimeQuotes bool
	// StripComments removes HTML comments from the genus before comparing.
	StripComments bool
	// RomajiSkipGeneration disables the romaji check for species of that
	// generation. Zero checks all.
	RomajiSkipGeneration int
	// HoennLimit is the last number of the Hoenn dex the database models.
	HoennLimit int
}

// MoveEffect configures the move effect section check.
type MoveEffect struct {
	Check   string
	Section string
}

// FieldTable adapts a template's parameter names to a wiki.
type FieldTable struct {
	// Rename maps field names to the wiki's parameter names.
	Rename map[string]string
	// Ignore lists parameter names accepted with any value.
	Ignore []string
	// Omit lists fields the wiki's template does not have.
	Omit []string
}

// Param returns the parameter name used for field.
func (t FieldTable) Param(field string) string {
	if p, ok := t.Rename[field]; ok {
		return p
	}
	return field
}

// Ignored reports whether param is accepted with any value.
func (t FieldTable) Ignored(param string) bool {
	return slices.Contains(t.Ignore, param)
}

// Omitted reports whether field is not part of the template.
func (t FieldTable) Omitted(field string) bool {
	return slices.Contains(t.Omit, field)
}

// Enabled reports whether the check kind runs for p.
func (p Profile) Enabled(check string) bool {
	return slices.Contains(p.Checks, check)
}

// SpeciesTitle returns the article title for a species name.
func (p Profile) SpeciesTitle(name string) string {
	return fmt.Sprintf(p.SpeciesArticle, name)
}

// MoveTitles returns the candidate article titles for a move name.
func (p Profile) MoveTitles(name string) []string {
	out := make([]string, len(p.MoveArticles))
	for i, pattern := range p.MoveArticles {
		out[i] = fmt.Sprintf(pattern, name)
	}
	return out
}

// genderCodes is the wiki's gender code for each database gender rate.
// Rates 3 and 5 do not occur.
var genderCodes = map[int]int{-1: 255, 0: 0, 1: 31, 2: 63, 4: 127, 6: 191, 7: 223, 8: 254}

// GenderCode converts a gender rate in eighths female to the wiki's code.
func GenderCode(rate int) (int, error) {
	c, ok := genderCodes[rate]
	if !ok {
		return 0, fmt.Errorf("profile: no gender code for rate %d", rate)
	}
	return c, nil
}

// builtins is the registry of built-in profiles keyed by name.
var builtins = map[string]Profile{
	"bulbapedia": {
		Name:            "bulbapedia",
		Description:     "Bulbapedia (English): species navigation and infobox.",
		APIURL:          "https://bulbapedia.bulbagarden.net/w/api.php",
		Language:        "en",
		RequestInterval: DefaultRequestInterval,
		Checks:          []string{CheckNavigation, CheckInfobox},
		SpeciesArticle:  "%s (Pokémon)",
		Navigation: Navigation{
			Check:        "prev/next header",
			Templates:    []string{"PokémonPrevNextHead", "PokémonPrevNext"},
			HeadTemplate: "PokémonPrevNextHead",
			Fields:       FieldTable{Ignore: []string{"1"}},
		},
		Infobox: Infobox{
			Check:    "infobox",
			Template: "PokémonInfobox",
			Fields: FieldTable{
				Ignore: []string{
					"1", "art", "image", "caption", "fbrow", "abrow", "obrow", "opbrow",
					"expyield", "pokefordex", "footnotes", "pron", "size",
					"odex", "fdex", "adex", "opdex",
				},
			},
			DecimalSep: ".",
			GroupSep:   ",",
			EggGroupNames: map[string]string{
				"Ground":        "Field",
				"Plant":         "Grass",
				"No Eggs":       "Undiscovered",
				"Humanshape":    "Human-Like",
				"Indeterminate": "Amorphous",
			},
			PrimeQuotes:          true,
			StripComments:        true,
			RomajiSkipGeneration: 5,
			HoennLimit:           202,
		},
	},
	"pokemoncentral": {
		Name:            "pokemoncentral",
		Description:     "Pokémon Central Wiki (Italian): species navigation and infobox.",
		APIURL:          "https://wiki.pokemoncentral.it/api.php",
		Language:        "it",
		RequestInterval: 15 * time.Second,
		Checks:          []string{CheckNavigation, CheckInfobox},
		SpeciesArticle:  "%s",
		Navigation: Navigation{
			Check:          "prev/next navigation",
			Templates:      []string{"PokémonPrecedenteSuccessivo"},
			AllInstances:   true,
			InstanceLabels: []string{"header", "footer"},
			Fields: FieldTable{
				Rename: map[string]string{
					"prev": "prec", "prevnum": "numprec",
					"next": "succ", "nextnum": "numsucc",
					"type": "tipo", "type2": "tipo2",
				},
				Omit: []string{"species"},
			},
			TypeAliases: map[string][]string{"Coleottero": {"Coleot", "Coleottero"}},
		},
		Infobox: Infobox{
			Check:    "infobox",
			Template: "PokémonInfo",
			Fields: FieldTable{
				Rename: map[string]string{
					"name": "nome", "jname": "nomejap", "tmname": "romaji",
					"typen": "ntipi", "type1": "tipo1", "type2": "tipo2",
					"species": "specie", "weight-lbs": "peso-lbs", "weight-kg": "peso-kg",
					"abilityn": "nabilità", "ability1": "abilità1",
					"ability2": "abilità2", "abilityd": "abilitàd",
					"egggroup1": "gruppouovo1", "egggroup2": "gruppouovo2", "egggroupn": "ngruppiuovo",
					"gendercode": "codsesso", "catchrate": "tassocattura", "color": "colore",
					"generation": "generazione", "eggcycles": "cicliuovo",
				},
				Ignore: []string{
					"1", "size", "image", "didascalia", "fbrow", "abrow", "obrow", "opbrow",
					"specie", "gruppouovo1", "gruppouovo2", "espceduta",
					"pokefordex", "footnotes", "odex", "fdex", "adex", "opdex",
				},
			},
			DecimalSep:           ",",
			GroupSep:             ".",
			RomajiSkipGeneration: 5,
			HoennLimit:           202,
		},
	},
	"powiki": {
		Name:            "powiki",
		Description:     "Pokémon Online wiki (English): move effect sections.",
		APIURL:          "http://wiki.pokemon-online.eu/api.php",
		Language:        "en",
		RequestInterval: DefaultRequestInterval,
		Checks:          []string{CheckMoveEffect},
		MoveArticles:    []string{"%s (move)", "%s"},
		MoveEffect:      MoveEffect{Check: "effect", Section: "Effect"},
	},
}

// Names returns the built-in profile names, sorted.
func Names() []string {
	return slices.Sorted(maps.Keys(builtins))
}

// Load returns the named built-in profile or an error if the name is unknown.
func Load(name string) (Profile, error) {
	p, ok := builtins[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w %q (available: %s)", ErrUnknownProfile, name, strings.Join(Names(), ", "))
	}
	return p, nil
}
