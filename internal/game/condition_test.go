package game

import (
	"errors"
	"testing"
)

func TestParseComparison(t *testing.T) {
	cases := []struct {
		in   string
		want Comparison
	}{
		{"3", Comparison{Op: OpEq, Value: 3}},
		{"==2", Comparison{Op: OpEq, Value: 2}},
		{">5", Comparison{Op: OpGt, Value: 5}},
		{"<1", Comparison{Op: OpLt, Value: 1}},
		{">=4", Comparison{Op: OpGte, Value: 4}},
		{"<= 6", Comparison{Op: OpLte, Value: 6}},
		{"2-4", Comparison{Op: OpRange, Value: 2, Hi: 4}},
		{"-3", Comparison{Op: OpEq, Value: -3}},
		{"-3-2", Comparison{Op: OpRange, Value: -3, Hi: 2}},
	}
	for _, tc := range cases {
		got, err := ParseComparison(tc.in)
		if err != nil {
			t.Errorf("ParseComparison(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseComparison(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}

	for _, bad := range []string{"", ">x", "5-2", "abc"} {
		if _, err := ParseComparison(bad); !errors.Is(err, ErrBadCondition) {
			t.Errorf("ParseComparison(%q) err = %v, want ErrBadCondition", bad, err)
		}
	}
}

func TestComparisonMatch(t *testing.T) {
	r := Comparison{Op: OpRange, Value: 2, Hi: 4}
	for v, want := range map[int]bool{1: false, 2: true, 4: true, 5: false} {
		if r.Match(v) != want {
			t.Errorf("range 2-4 match %d = %v", v, !want)
		}
	}
	if !(Comparison{Op: OpGte, Value: 3}).Match(3) || (Comparison{Op: OpGt, Value: 3}).Match(3) {
		t.Error("gte/gt boundary")
	}
	if got := r.String(); got != "2-4" {
		t.Errorf("String = %q", got)
	}
}

func TestConditionsMet(t *testing.T) {
	conds, err := ParseConditions(map[string]any{
		"housing_type":    []any{"apartment", "mortgage"},
		"character_id":    "worker",
		"documents_level": ">=2",
		"money_range":     "5-15",
		"housing_search":  true,
	})
	if err != nil {
		t.Fatalf("ParseConditions: %v", err)
	}

	p := NewPlayer(0, testProfile("worker"), &Config{})
	p.Housing, p.DocumentLevel, p.HousingSearch = HousingApartment, 2, true
	if !conds.Met(p) {
		t.Fatal("all conditions hold")
	}

	checks := []struct {
		name   string
		change func(*Player)
	}{
		{"housing", func(p *Player) { p.Housing = HousingRoom }},
		{"profile", func(p *Player) { p.ProfileID = "student" }},
		{"documents", func(p *Player) { p.DocumentLevel = 1 }},
		{"money", func(p *Player) { p.Money = 16 }},
		{"search", func(p *Player) { p.HousingSearch = false }},
	}
	for _, c := range checks {
		q := *p
		c.change(&q)
		if conds.Met(&q) {
			t.Errorf("%s: conditions should fail", c.name)
		}
	}
}

func TestEmptyConditionsMatchEveryone(t *testing.T) {
	var c Conditions
	if !c.Empty() || !c.Met(NewPlayer(0, testProfile("student"), &Config{})) {
		t.Error("empty conditions match everyone")
	}
}

func TestParseConditionsKeepsGoodEntries(t *testing.T) {
	conds, err := ParseConditions(map[string]any{
		"housing_type": "castle",
		"money":        ">3",
		"zodiac":       "leo",
	})
	var cerr *ContentError
	if !errors.As(err, &cerr) || !errors.Is(err, ErrBadCondition) {
		t.Fatalf("err = %v, want a ContentError wrapping ErrBadCondition", err)
	}
	if conds.Money == nil || conds.Money.Op != OpGt {
		t.Error("the valid money condition should survive")
	}
	if len(conds.HousingTypes) != 0 {
		t.Error("unknown housing must be dropped")
	}
}
