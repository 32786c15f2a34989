package checks

import (
	"fmt"

	"github.com/dshills/dexcheck/internal/checker"
	"github.com/dshills/dexcheck/internal/dex"
	"github.com/dshills/dexcheck/internal/fieldspec"
	"github.com/dshills/dexcheck/internal/profile"
	"github.com/dshills/dexcheck/internal/schema"
	"github.com/dshills/dexcheck/internal/tmplcheck"
	"github.com/dshills/dexcheck/internal/wikiparse"
)

// navEntity is a species together with its neighbours in national order
// and the name of the navigation template being checked.
type navEntity struct {
	species, prev, next *dex.Species
	template            string
}

func navigationSpec(p profile.Profile) (*fieldspec.Spec[navEntity], error) {
	nav := p.Navigation
	lang := p.Language
	wikiName := fieldspec.Normalize(fieldspec.WikiName)

	typeName := func(t *dex.Type) fieldspec.Expected {
		name := t.Name(lang)
		if alts, ok := nav.TypeAliases[name]; ok {
			vs := make([]any, len(alts))
			for i, a := range alts {
				vs[i] = a
			}
			return fieldspec.AnyOf(vs...)
		}
		return fieldspec.One(name)
	}

	t := newTable[navEntity](nav.Fields)
	t.value("prev", func(e navEntity) any { return e.prev.Name(lang) }, wikiName)
	t.value("prevnum", func(e navEntity) any { return fieldspec.Pad3(e.prev.ID) })
	t.value("next", func(e navEntity) any { return e.next.Name(lang) }, wikiName)
	t.value("nextnum", func(e navEntity) any { return fieldspec.Pad3(e.next.ID) })
	t.field("type", func(e navEntity) (fieldspec.Expected, error) {
		return typeName(e.species.Default().Types[0]), nil
	}, wikiName)
	t.field("type2", func(e navEntity) (fieldspec.Expected, error) {
		types := e.species.Default().Types
		if len(types) < 2 {
			return fieldspec.Missing(), nil
		}
		return typeName(types[1]), nil
	}, wikiName)
	t.value("species", func(e navEntity) any {
		if e.template == wikiparse.MakeWikiName(nav.HeadTemplate) {
			return e.species.Name(lang)
		}
		return nil
	})
	return t.build()
}

// Navigation returns the previous/next navigation check for sp.
func (s *Set) Navigation(sp *dex.Species) checker.Check {
	nav := s.profile.Navigation
	prev, next := s.store.Neighbors(sp)
	return checker.Check{
		Name:     nav.Check,
		Entity:   sp.Identifier,
		Articles: []string{s.profile.SpeciesTitle(sp.Name(s.profile.Language))},
		Run: func(_ string, doc *wikiparse.Content) ([]schema.Discrepancy, error) {
			e := navEntity{species: sp, prev: prev, next: next}
			if nav.AllInstances {
				return s.navigationInstances(doc, e), nil
			}
			for _, name := range nav.Templates {
				if tpl, ok := wikiparse.FindTemplate(doc, name); ok {
					e.template = tpl.Name()
					return tmplcheck.Check(tpl, s.navigation, e), nil
				}
			}
			return []schema.Discrepancy{schema.MissingTemplate(nav.Templates[0])}, nil
		},
	}
}

func (s *Set) navigationInstances(doc *wikiparse.Content, e navEntity) []schema.Discrepancy {
	nav := s.profile.Navigation
	templates := wikiparse.FindTemplates(doc, nav.Templates[0])
	if len(templates) == 0 {
		return []schema.Discrepancy{schema.MissingTemplate(nav.Templates[0])}
	}
	var out []schema.Discrepancy
	for i, tpl := range templates {
		label := fmt.Sprintf("#%d", i+1)
		if i < len(nav.InstanceLabels) {
			label = nav.InstanceLabels[i]
		}
		e.template = tpl.Name()
		out = append(out, withInstance(tmplcheck.Check(tpl, s.navigation, e), label)...)
	}
	return out
}
