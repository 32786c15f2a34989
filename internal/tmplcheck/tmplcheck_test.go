package tmplcheck

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/dexcheck/internal/fieldspec"
	"github.com/dshills/dexcheck/internal/schema"
	"github.com/dshills/dexcheck/internal/wikiparse"
)

type entity struct {
	types []string
}

func template(t *testing.T, text string) *wikiparse.Template {
	t.Helper()
	tpl, ok := wikiparse.FindTemplate(wikiparse.Parse(text), "T")
	if !ok {
		t.Fatalf("no template T in %q", text)
	}
	return tpl
}

func TestCheck_MissingExtraDuplicate(t *testing.T) {
	spec := fieldspec.New[entity]().
		Value("a", func(entity) any { return "1" }).
		Ignore("b").
		MustBuild()

	got := Check(template(t, "{{T|a=1|a=1|c=x}}"), spec, entity{})
	want := []schema.Discrepancy{
		schema.DuplicateField("a", "1"),
		schema.ExtraField("c", "x"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Check mismatch (-want +got):\n%s", diff)
	}
}

func TestCheck_TupleExpected(t *testing.T) {
	spec := fieldspec.New[entity]().
		Field("flag", func(entity) (fieldspec.Expected, error) {
			return fieldspec.AnyOf(nil, "no"), nil
		}).
		MustBuild()

	cases := []struct {
		text string
		want []schema.Discrepancy
	}{
		{"{{T}}", nil},
		{"{{T|flag=no}}", nil},
		{"{{T|flag=yes}}", []schema.Discrepancy{schema.WrongValue("flag", "missing or no", "yes")}},
	}
	for _, c := range cases {
		got := Check(template(t, c.text), spec, entity{})
		if diff := cmp.Diff(c.want, got); diff != "" {
			t.Errorf("%s: mismatch (-want +got):\n%s", c.text, diff)
		}
	}
}

func TestCheck_Classification(t *testing.T) {
	spec := fieldspec.New[entity]().
		Value("type1", func(e entity) any { return e.types[0] }).
		Value("type2", func(e entity) any {
			if len(e.types) < 2 {
				return nil
			}
			return e.types[1]
		}).
		Value("typen", func(e entity) any { return len(e.types) }).
		MustBuild()

	unexpected := schema.WrongValue("type2", "missing", "Poison")
	unexpected.Reason = schema.ReasonUnexpected

	cases := []struct {
		name string
		text string
		e    entity
		want []schema.Discrepancy
	}{
		{"all match", "{{T|type1=Grass|type2=Poison|typen=2}}", entity{[]string{"Grass", "Poison"}}, nil},
		{"wrong", "{{T|type1=Fire|type2=Poison|typen=2}}", entity{[]string{"Grass", "Poison"}},
			[]schema.Discrepancy{schema.WrongValue("type1", "Grass", "Fire")}},
		{"missing", "{{T|type1=Grass|typen=2}}", entity{[]string{"Grass", "Poison"}},
			[]schema.Discrepancy{schema.MissingField("type2", "Poison")}},
		{"unexpected", "{{T|type1=Fire|type2=Poison|typen=1}}", entity{[]string{"Fire"}},
			[]schema.Discrepancy{unexpected}},
	}
	for _, c := range cases {
		got := Check(template(t, c.text), spec, c.e)
		if diff := cmp.Diff(c.want, got); diff != "" {
			t.Errorf("%s: mismatch (-want +got):\n%s", c.name, diff)
		}
	}
}

func TestCheck_PositionalKeys(t *testing.T) {
	spec := fieldspec.New[entity]().
		Value("1", func(entity) any { return "x" }).
		Value("2", func(entity) any { return "y" }).
		Ignore("name").
		MustBuild()
	if got := Check(template(t, "{{T|x|name=v|y}}"), spec, entity{}); len(got) != 0 {
		t.Errorf("Check = %+v, want no discrepancies", got)
	}
}

func TestCheck_NormalizerFailure(t *testing.T) {
	spec := fieldspec.New[entity]().
		Value("height_m", func(entity) any { return "0.7" },
			fieldspec.Param("height-m"), fieldspec.Normalize(fieldspec.ParseDecimal("."))).
		Value("name", func(entity) any { return "Bulbasaur" }).
		MustBuild()

	got := Check(template(t, "{{T|height-m=tall|name=Ivysaur}}"), spec, entity{})
	if len(got) != 2 {
		t.Fatalf("got %d discrepancies, want 2: %+v", len(got), got)
	}
	if got[0].Reason != schema.ReasonBadValue || got[0].Field != "height-m" || got[0].Actual != "tall" {
		t.Errorf("first = %+v, want bad_value on height-m", got[0])
	}
	if got[1].Field != "name" || got[1].Expected != "Bulbasaur" {
		t.Errorf("second = %+v, want name mismatch", got[1])
	}
}

func TestCheck_NormalizedAwayIsMissing(t *testing.T) {
	spec := fieldspec.New[entity]().
		Value("hdex", func(entity) any { return "025" }, fieldspec.Normalize(fieldspec.DexLimit(202))).
		MustBuild()

	cases := []struct {
		text string
		want []schema.Discrepancy
	}{
		{"{{T|hdex=025}}", nil},
		{"{{T|hdex=203}}", []schema.Discrepancy{schema.MissingField("hdex", "025")}},
		{"{{T}}", []schema.Discrepancy{schema.MissingField("hdex", "025")}},
	}
	for _, c := range cases {
		got := Check(template(t, c.text), spec, entity{})
		if diff := cmp.Diff(c.want, got); diff != "" {
			t.Errorf("%s: mismatch (-want +got):\n%s", c.text, diff)
		}
	}
}

func TestCheck_ZeroExpectedIsError(t *testing.T) {
	spec := fieldspec.New[entity]().
		Field("color", func(entity) (fieldspec.Expected, error) { return fieldspec.Expected{}, nil }).
		Field("shape", func(entity) (fieldspec.Expected, error) { return fieldspec.AnyOf(), nil }).
		MustBuild()

	got := Check(template(t, "{{T|color=Pink}}"), spec, entity{})
	if len(got) != 2 {
		t.Fatalf("got %d discrepancies, want 2: %+v", len(got), got)
	}
	for _, d := range got {
		if d.Kind != schema.KindWrongValue || d.Reason != schema.ReasonError || d.Detail == "" {
			t.Errorf("discrepancy %+v, want WRONG_VALUE with reason error", d)
		}
	}
	if got[0].Field != "color" || got[0].Actual != "Pink" {
		t.Errorf("first = %+v, want color with actual Pink", got[0])
	}
}

func TestCheck_AccessorFailuresAreLocal(t *testing.T) {
	spec := fieldspec.New[entity]().
		Value("type1", func(e entity) any { return e.types[0] }).
		Field("color", func(entity) (fieldspec.Expected, error) {
			return fieldspec.Expected{}, errors.New("no colour data")
		}).
		Value("name", func(entity) any { return "Mew" }).
		MustBuild()

	got := Check(template(t, "{{T|type1=Psychic|color=Pink|name=Mew}}"), spec, entity{})
	if len(got) != 2 {
		t.Fatalf("got %d discrepancies, want 2: %+v", len(got), got)
	}
	for _, d := range got {
		if d.Kind != schema.KindWrongValue || d.Reason != schema.ReasonError {
			t.Errorf("discrepancy %+v, want WRONG_VALUE with reason error", d)
		}
	}
	if got[1].Detail != "no colour data" {
		t.Errorf("Detail = %q, want %q", got[1].Detail, "no colour data")
	}
}

func TestCheck_Custom(t *testing.T) {
	spec := fieldspec.New[entity]().
		Custom("tmname", func(_ entity, obs fieldspec.Observed) []schema.Discrepancy {
			if obs.Text != "Fushigidane" {
				return []schema.Discrepancy{{Kind: schema.KindWrongValue, Detail: "romaji mismatch"}}
			}
			return nil
		}).
		MustBuild()

	if got := Check(template(t, "{{T|tmname=Fushigidane}}"), spec, entity{}); len(got) != 0 {
		t.Errorf("Check = %+v, want none", got)
	}
	got := Check(template(t, "{{T|tmname=Bulbasaur}}"), spec, entity{})
	if len(got) != 1 || got[0].Field != "tmname" || got[0].Detail != "romaji mismatch" {
		t.Errorf("Check = %+v, want one romaji mismatch on tmname", got)
	}
}

func TestCheck_IgnoredNeverMissing(t *testing.T) {
	spec := fieldspec.New[entity]().Ignore("image", "caption").MustBuild()
	if got := Check(template(t, "{{T|image=x.png}}"), spec, entity{}); len(got) != 0 {
		t.Errorf("Check = %+v, want none", got)
	}
}
