package checks

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/dshills/dexcheck/internal/checker"
	"github.com/dshills/dexcheck/internal/dex"
	"github.com/dshills/dexcheck/internal/profile"
	"github.com/dshills/dexcheck/internal/schema"
	"github.com/dshills/dexcheck/internal/wikiparse"
)

func loadStore(t *testing.T) *dex.Store {
	t.Helper()
	store, err := dex.Open(filepath.Join("..", "..", "testdata", "dex.yaml"))
	require.NoError(t, err)
	return store
}

func newSet(t *testing.T, profileName string) (*Set, *dex.Store) {
	t.Helper()
	store := loadStore(t)
	p, err := profile.Load(profileName)
	require.NoError(t, err)
	set, err := New(store, p)
	require.NoError(t, err)
	return set, store
}

func article(t *testing.T, profileName, title string) *wikiparse.Content {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("..", "..", "testdata", "wiki", profileName, title+".wiki"))
	require.NoError(t, err)
	return wikiparse.Parse(string(b))
}

func species(t *testing.T, store *dex.Store, ident string) *dex.Species {
	t.Helper()
	sp, err := store.SpeciesByIdentifier(ident)
	require.NoError(t, err)
	return sp
}

func run(t *testing.T, c checker.Check, doc *wikiparse.Content) []schema.Discrepancy {
	t.Helper()
	ds, err := c.Run(c.Articles[0], doc)
	require.NoError(t, err)
	slices.SortStableFunc(ds, schema.Compare)
	return ds
}

func TestNewAllProfiles(t *testing.T) {
	store := loadStore(t)
	for _, name := range profile.Names() {
		p, err := profile.Load(name)
		require.NoError(t, err)
		if _, err := New(store, p); err != nil {
			t.Errorf("New(%s): %v", name, err)
		}
	}
}

func TestBulbapediaCleanArticle(t *testing.T) {
	set, store := newSet(t, "bulbapedia")
	doc := article(t, "bulbapedia", "Bulbasaur (Pokémon)")
	sp := species(t, store, "bulbasaur")

	for _, c := range []checker.Check{set.Navigation(sp), set.Infobox(sp)} {
		if got := c.Articles; !slices.Equal(got, []string{"Bulbasaur (Pokémon)"}) {
			t.Errorf("%s articles = %q", c.Name, got)
		}
		if ds := run(t, c, doc); len(ds) != 0 {
			t.Errorf("%s: unexpected discrepancies:\n%+v", c.Name, ds)
		}
	}
}

func TestBulbapediaInfoboxDiscrepancies(t *testing.T) {
	set, store := newSet(t, "bulbapedia")
	doc := article(t, "bulbapedia", "Ivysaur (Pokémon)")
	got := run(t, set.Infobox(species(t, store, "ivysaur")), doc)

	want := []schema.Discrepancy{
		{Kind: schema.KindWrongValue, Field: "type1", Expected: "Grass", Actual: "Fire"},
		{
			Kind: schema.KindWrongValue, Field: "weight-kg", Expected: "13.0", Actual: "heavy",
			Reason: schema.ReasonBadValue, Detail: `fieldspec: not a number: "heavy"`,
		},
		{Kind: schema.KindMissingField, Field: "catchrate", Expected: "45"},
		{Kind: schema.KindExtraField, Field: "foo", Actual: "bar"},
		{Kind: schema.KindDuplicateField, Field: "name", Actual: "Ivysaur"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Infobox mismatch (-want +got):\n%s", diff)
	}
}

func TestBulbapediaNavigationFallback(t *testing.T) {
	set, store := newSet(t, "bulbapedia")
	doc := article(t, "bulbapedia", "Ivysaur (Pokémon)")
	got := run(t, set.Navigation(species(t, store, "ivysaur")), doc)

	// Only the head template carries the species name.
	want := []schema.Discrepancy{{
		Kind: schema.KindWrongValue, Field: "species", Expected: "missing", Actual: "Ivysaur",
		Reason: schema.ReasonUnexpected,
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Navigation mismatch (-want +got):\n%s", diff)
	}
}

func TestNavigationWrapsAround(t *testing.T) {
	set, store := newSet(t, "bulbapedia")
	doc := article(t, "bulbapedia", "Mew (Pokémon)")
	mew := species(t, store, "mew")
	if ds := run(t, set.Navigation(mew), doc); len(ds) != 0 {
		t.Errorf("Navigation: unexpected discrepancies:\n%+v", ds)
	}
	// Mew cannot breed: 0 egg groups is accepted, and so is 1.
	if ds := run(t, set.Infobox(mew), doc); len(ds) != 0 {
		t.Errorf("Infobox: unexpected discrepancies:\n%+v", ds)
	}
	one := wikiparse.Parse(`{{PokémonInfobox|egggroupn=1}}`)
	for _, d := range run(t, set.Infobox(mew), one) {
		if d.Field == "egggroupn" {
			t.Errorf("egggroupn=1 reported: %+v", d)
		}
	}
}

func TestMissingTemplate(t *testing.T) {
	set, store := newSet(t, "bulbapedia")
	sp := species(t, store, "bulbasaur")
	doc := wikiparse.Parse("'''Bulbasaur''' has no templates here.")

	tests := []struct {
		check checker.Check
		want  string
	}{
		{set.Navigation(sp), "PokémonPrevNextHead"},
		{set.Infobox(sp), "PokémonInfobox"},
	}
	for _, tt := range tests {
		want := []schema.Discrepancy{schema.MissingTemplate(tt.want)}
		if diff := cmp.Diff(want, run(t, tt.check, doc)); diff != "" {
			t.Errorf("%s (-want +got):\n%s", tt.check.Name, diff)
		}
	}
}

func TestRomajiMismatch(t *testing.T) {
	set, store := newSet(t, "bulbapedia")
	sp := species(t, store, "bulbasaur")

	tests := []struct {
		name string
		text string
		want []schema.Discrepancy
	}{
		{"match", "{{PokémonInfobox|tmname=Fushigidane}}", nil},
		{
			"mismatch", "{{PokémonInfobox|tmname=Fushigidame}}",
			[]schema.Discrepancy{{
				Kind: schema.KindWrongValue, Field: "tmname", Expected: "Fushigidane", Actual: "Fushigidame",
				Reason: schema.ReasonCustom, Detail: "Japanese TM name mismatch",
			}},
		},
		{
			"missing", "{{PokémonInfobox}}",
			[]schema.Discrepancy{{Kind: schema.KindMissingField, Field: "tmname", Expected: "Fushigidane"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []schema.Discrepancy
			for _, d := range run(t, set.Infobox(sp), wikiparse.Parse(tt.text)) {
				if d.Field == "tmname" {
					got = append(got, d)
				}
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("tmname (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPokemonCentral(t *testing.T) {
	set, store := newSet(t, "pokemoncentral")
	doc := article(t, "pokemoncentral", "Caterpie")
	sp := species(t, store, "caterpie")

	if ds := run(t, set.Infobox(sp), doc); len(ds) != 0 {
		t.Errorf("Infobox: unexpected discrepancies:\n%+v", ds)
	}

	nav := set.Navigation(sp)
	if nav.Articles[0] != "Caterpie" {
		t.Errorf("article = %q, want %q", nav.Articles[0], "Caterpie")
	}
	want := []schema.Discrepancy{{
		Kind: schema.KindWrongValue, Field: "tipo", Instance: "footer",
		Expected: "Coleot or Coleottero", Actual: "Erba",
	}}
	if diff := cmp.Diff(want, run(t, nav, doc)); diff != "" {
		t.Errorf("Navigation (-want +got):\n%s", diff)
	}
}

func TestPokemonCentralExtraInstances(t *testing.T) {
	set, store := newSet(t, "pokemoncentral")
	sp := species(t, store, "caterpie")
	nav := "{{PokémonPrecedenteSuccessivo|prec=Venusaur|numprec=003|succ=Mew|numsucc=151|tipo=Coleottero}}\n"
	doc := wikiparse.Parse(nav + nav + "{{PokémonPrecedenteSuccessivo|prec=Venusaur}}")

	var instances []string
	for _, d := range run(t, set.Navigation(sp), doc) {
		instances = append(instances, d.Instance)
	}
	want := []string{"#3", "#3", "#3", "#3"}
	if !slices.Equal(instances, want) {
		t.Errorf("instances = %q, want %q", instances, want)
	}
}

func TestAllAndFilter(t *testing.T) {
	tests := []struct {
		profile  string
		entities []string
		want     []string
	}{
		{
			"bulbapedia", []string{"mew", "bulbasaur"},
			[]string{
				"bulbasaur/prev/next header", "bulbasaur/infobox",
				"mew/prev/next header", "mew/infobox",
			},
		},
		{"powiki", nil, []string{"vine-whip/effect", "tackle/effect", "growl/effect"}},
		{"powiki", []string{"unknown"}, nil},
	}
	for _, tt := range tests {
		set, _ := newSet(t, tt.profile)
		var got []string
		for c := range Filter(set.All(), tt.entities) {
			got = append(got, c.Entity+"/"+c.Name)
		}
		if !slices.Equal(got, tt.want) {
			t.Errorf("%s %q: checks = %q, want %q", tt.profile, tt.entities, got, tt.want)
		}
	}
}

func TestAllStopsEarly(t *testing.T) {
	set, _ := newSet(t, "bulbapedia")
	n := 0
	for range set.All() {
		n++
		if n == 3 {
			break
		}
	}
	if n != 3 {
		t.Errorf("iterated %d checks, want 3", n)
	}
}
