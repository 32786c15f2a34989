package checks

import (
	"errors"
	"math"
	"slices"

	"github.com/dshills/dexcheck/internal/checker"
	"github.com/dshills/dexcheck/internal/dex"
	"github.com/dshills/dexcheck/internal/fieldspec"
	"github.com/dshills/dexcheck/internal/profile"
	"github.com/dshills/dexcheck/internal/schema"
	"github.com/dshills/dexcheck/internal/tmplcheck"
	"github.com/dshills/dexcheck/internal/wikiparse"
)

// effortStats maps infobox fields to stat identifiers.
var effortStats = []struct{ field, stat string }{
	{"evhp", "hp"},
	{"evat", "attack"},
	{"evde", "defense"},
	{"evsa", "special-attack"},
	{"evsd", "special-defense"},
	{"evsp", "speed"},
}

// optionalSlot expects the value of an optional second slot: the name when
// present, otherwise an empty or absent parameter.
func optionalSlot(name string, ok bool) fieldspec.Expected {
	if !ok {
		return fieldspec.AnyOf("", nil)
	}
	return fieldspec.One(name)
}

// dexNumber expects the padded number in pokedex, or absence.
func dexNumber(sp *dex.Species, pokedex string) any {
	n, ok := sp.DexNumber(pokedex)
	if !ok {
		return nil
	}
	return fieldspec.Pad3(n)
}

func infoboxSpec(p profile.Profile) (*fieldspec.Spec[*dex.Species], error) {
	box := p.Infobox
	lang := p.Language
	decimal := fieldspec.Normalize(fieldspec.ParseDecimal(box.DecimalSep))

	t := newTable[*dex.Species](box.Fields)
	t.value("name", func(sp *dex.Species) any { return sp.Name(lang) })
	t.field("jname", func(sp *dex.Species) (fieldspec.Expected, error) {
		name, ok := sp.Names["ja"]
		if !ok {
			return fieldspec.Expected{}, errors.New("no Japanese name in the database")
		}
		return fieldspec.One(name), nil
	})
	t.custom("tmname", func(param string) fieldspec.CustomFunc[*dex.Species] {
		return func(sp *dex.Species, obs fieldspec.Observed) []schema.Discrepancy {
			if box.RomajiSkipGeneration != 0 && sp.Generation == box.RomajiSkipGeneration {
				return nil
			}
			romaji, ok := sp.Names["roomaji"]
			if !ok {
				return nil
			}
			if !obs.Present {
				return []schema.Discrepancy{schema.MissingField(param, romaji)}
			}
			if obs.Text == romaji {
				return nil
			}
			d := schema.WrongValue(param, romaji, obs.Text)
			d.Reason = schema.ReasonCustom
			d.Detail = "Japanese TM name mismatch"
			return []schema.Discrepancy{d}
		}
	})

	t.value("ndex", func(sp *dex.Species) any { return fieldspec.Pad3(sp.ID) })
	t.value("jdex", func(sp *dex.Species) any { return dexNumber(sp, "updated-johto") })
	t.value("oldjdex", func(sp *dex.Species) any {
		orig, ok1 := sp.DexNumber("original-johto")
		upd, ok2 := sp.DexNumber("updated-johto")
		if !ok1 || !ok2 || orig == upd {
			return nil
		}
		return fieldspec.Pad3(orig)
	})
	t.value("hdex", func(sp *dex.Species) any { return dexNumber(sp, "hoenn") },
		fieldspec.Normalize(fieldspec.DexLimit(box.HoennLimit)))
	t.value("sdex", func(sp *dex.Species) any { return dexNumber(sp, "extended-sinnoh") })
	t.value("udex", func(sp *dex.Species) any { return dexNumber(sp, "unova") })

	t.value("typen", func(sp *dex.Species) any { return len(sp.Default().Types) })
	t.value("type1", func(sp *dex.Species) any { return sp.Default().Types[0].Name(lang) })
	t.field("type2", func(sp *dex.Species) (fieldspec.Expected, error) {
		types := sp.Default().Types
		if len(types) < 2 {
			return optionalSlot("", false), nil
		}
		return optionalSlot(types[1].Name(lang), true), nil
	})

	var genusOpts []fieldspec.Option
	if box.StripComments {
		genusOpts = append(genusOpts, fieldspec.Normalize(fieldspec.StripHTMLComments))
	}
	t.value("species", func(sp *dex.Species) any { return sp.Genus.In(lang) }, genusOpts...)

	var ftinOpts []fieldspec.Option
	if box.PrimeQuotes {
		ftinOpts = append(ftinOpts, fieldspec.Normalize(fieldspec.PrimeQuotes))
	}
	t.value("height-ftin", func(sp *dex.Species) any { return fieldspec.FeetInches(sp.Default().Height) }, ftinOpts...)
	t.value("height-m", func(sp *dex.Species) any {
		return fieldspec.FormatDecimal(float64(sp.Default().Height)/10, box.DecimalSep)
	}, decimal)
	t.value("weight-lbs", func(sp *dex.Species) any {
		lbs := math.Round(float64(sp.Default().Weight)*2.20462262) / 10
		return fieldspec.FormatDecimal(lbs, box.DecimalSep)
	}, decimal)
	t.value("weight-kg", func(sp *dex.Species) any {
		return fieldspec.FormatDecimal(float64(sp.Default().Weight)/10, box.DecimalSep)
	}, decimal)

	t.value("abilityn", func(sp *dex.Species) any { return len(sp.Default().Abilities) })
	t.field("ability1", func(sp *dex.Species) (fieldspec.Expected, error) {
		abilities := sp.Default().Abilities
		if len(abilities) == 0 {
			return fieldspec.Expected{}, errors.New("no abilities in the database")
		}
		return fieldspec.One(abilities[0].Name(lang)), nil
	})
	t.field("ability2", func(sp *dex.Species) (fieldspec.Expected, error) {
		abilities := sp.Default().Abilities
		if len(abilities) < 2 {
			return optionalSlot("", false), nil
		}
		return optionalSlot(abilities[1].Name(lang), true), nil
	})
	t.value("abilityd", func(sp *dex.Species) any {
		poke := sp.Default()
		if poke.HiddenAbility == nil || slices.Contains(poke.Abilities, poke.HiddenAbility) {
			return nil
		}
		return poke.HiddenAbility.Name(lang)
	})

	eggGroup := func(i int) fieldspec.ExpectFunc[*dex.Species] {
		return func(sp *dex.Species) (fieldspec.Expected, error) {
			if i >= len(sp.EggGroups) {
				return optionalSlot("", false), nil
			}
			name := sp.EggGroups[i].Name(lang)
			if alias, ok := box.EggGroupNames[name]; ok {
				name = alias
			}
			return fieldspec.One(name), nil
		}
	}
	t.field("egggroup1", eggGroup(0))
	t.field("egggroup2", eggGroup(1))
	t.field("egggroupn", func(sp *dex.Species) (fieldspec.Expected, error) {
		// Species that cannot breed are listed with either 0 or 1 egg
		// groups depending on the article.
		if len(sp.EggGroups) > 0 && sp.EggGroups[0].Identifier == "no-eggs" {
			return fieldspec.AnyOf(0, 1), nil
		}
		return fieldspec.One(len(sp.EggGroups)), nil
	})

	for _, ev := range effortStats {
		t.value(ev.field, func(sp *dex.Species) any {
			if n := sp.Default().Effort[ev.stat]; n != 0 {
				return n
			}
			return nil
		})
	}

	t.value("lv100exp", func(sp *dex.Species) any {
		return fieldspec.GroupDigits(sp.GrowthRate.MaxExperience, box.GroupSep)
	})
	t.field("gendercode", func(sp *dex.Species) (fieldspec.Expected, error) {
		code, err := profile.GenderCode(sp.GenderRate)
		if err != nil {
			return fieldspec.Expected{}, err
		}
		return fieldspec.One(code), nil
	})
	t.value("catchrate", func(sp *dex.Species) any { return sp.CaptureRate })
	t.value("body", func(sp *dex.Species) any { return fieldspec.Pad2(sp.Shape) })
	t.value("color", func(sp *dex.Species) any { return sp.Color.Name(lang) })
	t.value("generation", func(sp *dex.Species) any { return sp.Generation })
	t.value("eggcycles", func(sp *dex.Species) any { return sp.HatchCounter })
	return t.build()
}

// Infobox returns the infobox check for sp.
func (s *Set) Infobox(sp *dex.Species) checker.Check {
	box := s.profile.Infobox
	return checker.Check{
		Name:     box.Check,
		Entity:   sp.Identifier,
		Articles: []string{s.profile.SpeciesTitle(sp.Name(s.profile.Language))},
		Run: func(_ string, doc *wikiparse.Content) ([]schema.Discrepancy, error) {
			tpl, ok := wikiparse.FindTemplate(doc, box.Template)
			if !ok {
				return []schema.Discrepancy{schema.MissingTemplate(box.Template)}, nil
			}
			return tmplcheck.Check(tpl, s.infobox, sp), nil
		},
	}
}
