package profile

import (
	"errors"
	"testing"
)

func TestLoad_AllBuiltins(t *testing.T) {
	for _, name := range Names() {
		p, err := Load(name)
		if err != nil {
			t.Errorf("Load(%q) error: %v", name, err)
			continue
		}
		if p.Name != name {
			t.Errorf("Load(%q).Name = %q, want %q", name, p.Name, name)
		}
		if p.Description == "" {
			t.Errorf("Load(%q).Description is empty", name)
		}
		if p.APIURL == "" || p.Language == "" || p.RequestInterval <= 0 {
			t.Errorf("Load(%q) has incomplete wiki settings: %+v", name, p)
		}
		if len(p.Checks) == 0 {
			t.Errorf("Load(%q) enables no checks", name)
		}
	}
}

func TestNames(t *testing.T) {
	got := Names()
	want := []string{"bulbapedia", "pokemoncentral", "powiki"}
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLoad_Unknown(t *testing.T) {
	_, err := Load("nonexistent")
	if !errors.Is(err, ErrUnknownProfile) {
		t.Fatalf("Load(\"nonexistent\") error = %v, want ErrUnknownProfile", err)
	}
}

func TestProfile_Articles(t *testing.T) {
	bp, _ := Load("bulbapedia")
	if got := bp.SpeciesTitle("Bulbasaur"); got != "Bulbasaur (Pokémon)" {
		t.Errorf("SpeciesTitle = %q, want %q", got, "Bulbasaur (Pokémon)")
	}
	pc, _ := Load("pokemoncentral")
	if got := pc.SpeciesTitle("Bulbasaur"); got != "Bulbasaur" {
		t.Errorf("SpeciesTitle = %q, want %q", got, "Bulbasaur")
	}
	po, _ := Load("powiki")
	titles := po.MoveTitles("Tackle")
	if len(titles) != 2 || titles[0] != "Tackle (move)" || titles[1] != "Tackle" {
		t.Errorf("MoveTitles = %v, want [Tackle (move) Tackle]", titles)
	}
	if !po.Enabled(CheckMoveEffect) || po.Enabled(CheckInfobox) {
		t.Errorf("powiki checks = %v, want only %s", po.Checks, CheckMoveEffect)
	}
}

func TestFieldTable(t *testing.T) {
	pc, _ := Load("pokemoncentral")
	ft := pc.Infobox.Fields
	cases := []struct{ field, param string }{
		{"name", "nome"},
		{"abilityd", "abilitàd"},
		{"ndex", "ndex"},
		{"height-m", "height-m"},
	}
	for _, c := range cases {
		if got := ft.Param(c.field); got != c.param {
			t.Errorf("Param(%q) = %q, want %q", c.field, got, c.param)
		}
	}
	if !ft.Ignored("specie") {
		t.Error("specie should be ignored on pokemoncentral")
	}
	if !pc.Navigation.Fields.Omitted("species") {
		t.Error("species should be omitted from pokemoncentral navigation")
	}
}

func TestGenderCode(t *testing.T) {
	cases := []struct{ rate, code int }{
		{-1, 255}, {0, 0}, {1, 31}, {2, 63}, {4, 127}, {6, 191}, {7, 223}, {8, 254},
	}
	for _, c := range cases {
		got, err := GenderCode(c.rate)
		if err != nil || got != c.code {
			t.Errorf("GenderCode(%d) = %d, %v; want %d", c.rate, got, err, c.code)
		}
	}
	if _, err := GenderCode(3); err == nil {
		t.Error("GenderCode(3) should fail")
	}
}
