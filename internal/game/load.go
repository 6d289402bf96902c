package game

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// ContentFile is the top-level YAML (or JSON) structure of a content file.
type ContentFile struct {
	Profiles []ProfileEntry         `yaml:"profiles"`
	Goals    []GoalEntry            `yaml:"goals"`
	Decks    map[string][]CardEntry `yaml:"decks"`
}

// ProfileEntry is a character profile as written in the content file.
type ProfileEntry struct {
	ID               string   `yaml:"id"`
	Name             string   `yaml:"name"`
	StartingMoney    int      `yaml:"starting_money"`
	StartingNerves   int      `yaml:"starting_nerves"`
	StartingLanguage int      `yaml:"starting_language"`
	StartingHousing  string   `yaml:"starting_housing"`
	Salary           int      `yaml:"salary"`
	SalaryType       string   `yaml:"salary_type"`
	SalaryBase       int      `yaml:"salary_base"`
	HousingCost      int      `yaml:"housing_cost"`
	Honesty          *float64 `yaml:"honesty"`
}

// GoalEntry is a win condition as written in the content file.
type GoalEntry struct {
	Key      string         `yaml:"key"`
	Name     string         `yaml:"name"`
	Requires map[string]any `yaml:"requires"`
}

// CardEntry is a card and its count in a deck.
type CardEntry struct {
	ID                  string                    `yaml:"id"`
	Name                string                    `yaml:"name"`
	Count               int                       `yaml:"count"`
	Category            string                    `yaml:"category"`
	Type                string                    `yaml:"type"`
	WhenToPlay          string                    `yaml:"when_to_play"`
	Target              string                    `yaml:"target"`
	Cost                map[string]any            `yaml:"cost"`
	Effects             map[string]any            `yaml:"effects"`
	Conditions          map[string]any            `yaml:"conditions"`
	Challenge           *ChallengeEntry           `yaml:"challenge"`
	SpecialEffect       string                    `yaml:"special_effect"`
	SpecialEffects      []string                  `yaml:"special_effects"`
	ExchangeInstruction string                    `yaml:"exchange_instruction"`
	PenaltyType         string                    `yaml:"penalty_type"`
	TargetGroups        []string                  `yaml:"target_groups"`
	ProfileModifiers    map[string]map[string]any `yaml:"profile_modifiers"`
	Description         string                    `yaml:"description"`
}

// ChallengeEntry is a dice table as written in the content file.
type ChallengeEntry struct {
	Outcomes []OutcomeEntry `yaml:"outcomes"`
	Failure  map[string]any `yaml:"failure"`
}

// OutcomeEntry is one row of a dice table. Roll is "N", "A-B" or ">N".
type OutcomeEntry struct {
	Roll    any            `yaml:"roll"`
	Label   string         `yaml:"label"`
	Effects map[string]any `yaml:"effects"`
}

// LoadContent reads and parses a content file.
func LoadContent(path string) (*Content, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseContent(data)
}

// ParseContent parses content YAML. Structural YAML errors are returned as
// errors; per-card problems are collected in Content.Warnings.
func ParseContent(data []byte) (*Content, error) {
	var cf ContentFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse content YAML: %w", err)
	}

	var warnings []error
	c := &Content{Decks: make(map[DeckName][]*Card)}

	for _, pe := range cf.Profiles {
		if pe.ID == "" {
			warnings = append(warnings, &ContentError{Source: pe.Name, Problem: "profile without id"})
			continue
		}
		c.Profiles = append(c.Profiles, pe.profile())
	}

	for _, ge := range cf.Goals {
		goal, err := ge.goal()
		if err != nil {
			warnings = append(warnings, err)
		}
		c.Goals = append(c.Goals, goal)
	}

	deckNames := make([]string, 0, len(cf.Decks))
	for name := range cf.Decks {
		deckNames = append(deckNames, name)
	}
	sort.Strings(deckNames)

	for _, name := range deckNames {
		deck := DeckName(name)
		if !knownDeck(deck) {
			warnings = append(warnings, &ContentError{Source: name, Problem: "unknown deck"})
			continue
		}
		for _, entry := range cf.Decks[name] {
			card, errs := entry.card(deck)
			warnings = append(warnings, errs...)
			count := entry.Count
			if count <= 0 {
				count = 1
			}
			for i := 0; i < count; i++ {
				c.Decks[deck] = append(c.Decks[deck], card)
			}
		}
	}

	if len(c.Profiles) == 0 {
		return nil, fmt.Errorf("content defines no profiles")
	}
	c.Warnings = errors.Join(warnings...)
	return c, nil
}

func knownDeck(name DeckName) bool {
	for _, d := range AllDecks {
		if d == name {
			return true
		}
	}
	return false
}

func (pe ProfileEntry) profile() Profile {
	p := Profile{
		ID:               pe.ID,
		Name:             pe.Name,
		StartingMoney:    pe.StartingMoney,
		StartingNerves:   pe.StartingNerves,
		StartingLanguage: pe.StartingLanguage,
		StartingHousing:  Housing(pe.StartingHousing),
		Salary:           pe.Salary,
		SalaryType:       pe.SalaryType,
		SalaryBase:       pe.SalaryBase,
		HousingCost:      pe.HousingCost,
		Honesty:          0.5,
	}
	if p.Name == "" {
		p.Name = p.ID
	}
	if pe.Honesty != nil {
		p.Honesty = clampFloat(*pe.Honesty, 0, 1)
	}
	if p.StartingHousing.Level() == 0 {
		p.StartingHousing = HousingRoom
	}
	if p.SalaryType == "" {
		p.SalaryType = "fixed"
	}
	return p
}

func (ge GoalEntry) goal() (Goal, error) {
	g := Goal{Key: ge.Key, Name: ge.Name}
	if g.Name == "" {
		g.Name = g.Key
	}
	keys := make([]string, 0, len(ge.Requires))
	for k := range ge.Requires {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var problems []string
	for _, key := range keys {
		res := Resource(key)
		value := ge.Requires[key]
		if !res.valid() {
			problems = append(problems, "unknown resource "+key)
			continue
		}
		if res == ResourceHousingType {
			h := Housing(cast.ToString(value))
			if h.Level() == 0 {
				problems = append(problems, fmt.Sprintf("housing_type %v is not a housing type", value))
				continue
			}
			g.Requires = append(g.Requires, Requirement{Resource: res, Housing: h})
			continue
		}
		n, err := cast.ToIntE(value)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s %v is not a number", key, value))
			continue
		}
		g.Requires = append(g.Requires, Requirement{Resource: res, Min: n})
	}
	if len(problems) > 0 {
		return g, &ContentError{Source: "goal " + g.Key, Problem: strings.Join(problems, "; "), Err: ErrBadRequirement}
	}
	return g, nil
}

func (ce CardEntry) card(deck DeckName) (*Card, []error) {
	var errs []error
	source := ce.Name
	if source == "" {
		source = ce.ID
	}
	wrap := func(err error) {
		var cerr *ContentError
		if errors.As(err, &cerr) && cerr.Source == "" {
			cerr.Source = string(deck) + "/" + source
			errs = append(errs, cerr)
			return
		}
		errs = append(errs, fmt.Errorf("%s/%s: %w", deck, source, err))
	}

	card := &Card{
		ID:             ce.ID,
		Name:           ce.Name,
		Deck:           deck,
		Category:       ce.Category,
		Type:           ce.Type,
		WhenToPlay:     ce.WhenToPlay,
		Target:         ActionType(ce.Target),
		SpecialEffects: append([]string(nil), ce.SpecialEffects...),
		Exchangeable:   ce.ExchangeInstruction != "",
		PenaltyType:    ce.PenaltyType,
		TargetGroups:   ce.TargetGroups,
		Description:    ce.Description,
	}
	if card.Name == "" {
		card.Name = card.ID
	}
	if ce.SpecialEffect != "" {
		card.SpecialEffects = append(card.SpecialEffects, ce.SpecialEffect)
	}
	if card.Type == "" && deck == DeckAction {
		card.Type = CardTypeUtility
	}

	if len(ce.Cost) > 0 {
		card.Cost = Cost{Money: cast.ToInt(ce.Cost["money"]), Nerves: cast.ToInt(ce.Cost["nerves"])}
		if card.Cost.Money < 0 || card.Cost.Nerves < 0 {
			wrap(&ContentError{Problem: "negative cost"})
			card.Cost = Cost{}
		}
	}

	effects, err := ParseEffects(ce.Effects)
	if err != nil {
		wrap(err)
	}
	if len(card.SpecialEffects) > 0 {
		specials, err := ParseSpecialEffects(card.SpecialEffects)
		if err != nil {
			wrap(err)
		}
		effects = append(effects, specials...)
	}
	card.Effects = effects

	if len(ce.Conditions) > 0 {
		conds, err := ParseConditions(ce.Conditions)
		if err != nil {
			wrap(err)
		}
		card.Conditions = conds
	}

	if ce.Challenge != nil {
		ch := &Challenge{}
		for _, oe := range ce.Challenge.Outcomes {
			roll, err := ParseComparison(cast.ToString(oe.Roll))
			if err != nil {
				wrap(err)
				continue
			}
			oeffects, err := ParseEffects(oe.Effects)
			if err != nil {
				wrap(err)
			}
			ch.Outcomes = append(ch.Outcomes, Outcome{Roll: roll, Label: oe.Label, Effects: oeffects})
		}
		failure, err := ParseEffects(ce.Challenge.Failure)
		if err != nil {
			wrap(err)
		}
		ch.Failure = failure
		card.Challenge = ch
	}

	if len(ce.ProfileModifiers) > 0 {
		card.ProfileModifiers = make(map[string]Effects, len(ce.ProfileModifiers))
		for profile, raw := range ce.ProfileModifiers {
			mods, err := ParseEffects(raw)
			if err != nil {
				wrap(err)
			}
			card.ProfileModifiers[profile] = mods
		}
	}

	return card, errs
}

// LoadConfig reads rules from a YAML file, starting from DefaultConfig.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return ParseConfig(data)
}

// ParseConfig parses rules YAML over DefaultConfig and validates the result.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config YAML: %w", err)
	}
	cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
