package game

import (
	"fmt"
	"sort"
)

// Cost is what a player pays to play a card.
type Cost struct {
	Money  int
	Nerves int
}

// Zero reports whether the card is free.
func (c Cost) Zero() bool {
	return c.Money == 0 && c.Nerves == 0
}

func (c Cost) String() string {
	return fmt.Sprintf("%d money, %d nerves", c.Money, c.Nerves)
}

// Card is an immutable content record. The engine reads it as data only.
type Card struct {
	ID               string
	Name             string
	Deck             DeckName
	Category         string // e.g. health, housing, event for red/white cards
	Type             string // interference, counter, utility, ...
	WhenToPlay       string // anytime, start_of_turn, instant_response
	Target           ActionType
	Cost             Cost
	Effects          Effects
	Conditions       Conditions
	Challenge        *Challenge
	SpecialEffects   []string
	Exchangeable     bool
	PenaltyType      string
	TargetGroups     []string
	ProfileModifiers map[string]Effects
	Description      string
}

// Reactive reports whether the card may only be played in response to another player.
func (c *Card) Reactive() bool {
	return c.Type == CardTypeInterference || c.Type == CardTypeCounter || c.WhenToPlay == "instant_response"
}

// AppliesTo reports whether an interference card may target the given action.
func (c *Card) AppliesTo(action ActionType) bool {
	if c.Type != CardTypeInterference {
		return false
	}
	return c.Target == "" || c.Target == "any" || c.Target == action
}

// IsDefense reports whether the card can answer an interference.
func (c *Card) IsDefense() bool {
	return c.Type == CardTypeCounter || c.Effects.Has(EffectBlockSabotage) || c.Effects.Has(EffectReflectSabotage)
}

// Outcome is one row of a dice challenge table.
type Outcome struct {
	Roll    Comparison
	Label   string
	Effects Effects
}

// Challenge is a dice-outcome table rolled with language dice.
type Challenge struct {
	Outcomes []Outcome
	Failure  Effects
}

// Resolve returns the first outcome whose roll condition matches, or the failure row.
func (c *Challenge) Resolve(roll int) (string, Effects) {
	for _, o := range c.Outcomes {
		if o.Roll.Match(roll) {
			label := o.Label
			if label == "" {
				label = o.Roll.String()
			}
			return label, o.Effects
		}
	}
	return "failure", c.Failure
}

// Profile holds a character's starting resources.
type Profile struct {
	ID               string
	Name             string
	StartingMoney    int
	StartingNerves   int
	StartingLanguage int
	StartingHousing  Housing
	Salary           int
	SalaryType       string // fixed or dice
	SalaryBase       int
	HousingCost      int
	Honesty          float64 // 0..1, higher lies less
}

// Requirement is one entry of a goal. Housing is set for categorical housing goals.
type Requirement struct {
	Resource Resource
	Min      int
	Housing  Housing
}

// Goal is a win condition.
type Goal struct {
	Key      string
	Name     string
	Requires []Requirement
}

func (r Requirement) String() string {
	if r.Resource == ResourceHousingType {
		return fmt.Sprintf("%s = %s", r.Resource, r.Housing)
	}
	return fmt.Sprintf("%s >= %d", r.Resource, r.Min)
}

// MoneyRequirement returns the money threshold of the goal, or 0.
func (g *Goal) MoneyRequirement() int {
	for _, r := range g.Requires {
		if r.Resource == ResourceMoney {
			return r.Min
		}
	}
	return 0
}

// Requirement returns the requirement for the resource, if any.
func (g *Goal) Requirement(res Resource) (Requirement, bool) {
	for _, r := range g.Requires {
		if r.Resource == res {
			return r, true
		}
	}
	return Requirement{}, false
}

// Content is the full set of static tables a game consumes.
type Content struct {
	Profiles []Profile
	Goals    []Goal
	Decks    map[DeckName][]*Card

	// Warnings collects load-time validation problems; content stays usable.
	Warnings error
}

// Profile looks up a profile by ID.
func (c *Content) Profile(id string) (Profile, bool) {
	for _, p := range c.Profiles {
		if p.ID == id {
			return p, true
		}
	}
	return Profile{}, false
}

// MaxGoalMoney returns the highest money requirement among all goals.
func (c *Content) MaxGoalMoney() int {
	highest := 0
	for i := range c.Goals {
		if m := c.Goals[i].MoneyRequirement(); m > highest {
			highest = m
		}
	}
	return highest
}

// CardCount returns the number of cards in each deck.
func (c *Content) CardCount() map[DeckName]int {
	out := make(map[DeckName]int, len(c.Decks))
	for name, cards := range c.Decks {
		out[name] = len(cards)
	}
	return out
}

// AllCards returns every card, grouped by deck in AllDecks order and sorted by name.
func (c *Content) AllCards() []*Card {
	var out []*Card
	for _, name := range AllDecks {
		cards := append([]*Card(nil), c.Decks[name]...)
		sort.SliceStable(cards, func(i, j int) bool { return cards[i].Name < cards[j].Name })
		out = append(out, cards...)
	}
	return out
}
