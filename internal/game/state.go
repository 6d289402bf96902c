package game

import (
	"fmt"
	"math/rand"
	"sort"
)

const (
	// DefaultTrust is the trust a player has in someone they never traded with.
	DefaultTrust = 0.5
)

// Player represents one player's entire state.
type Player struct {
	Seat      int
	ProfileID string
	Name      string
	Honesty   float64

	Money         int
	Nerves        int
	LanguageLevel int
	DocumentLevel int
	DocumentCards int
	Housing       Housing
	HousingLevel  int
	HousingCost   int
	HousingSearch bool

	Salary     int
	SalaryType string
	SalaryBase int

	ActionCards   []*Card
	PersonalItems []*Card

	TemporaryBonuses map[string]int
	Immunities       map[string]bool
	SpecialAbilities map[string]bool

	Trust   map[int]float64 // by seat
	Grudges map[int]int     // by seat

	Goal             *Goal
	GoalChosen       bool
	Eliminated       bool
	EliminatedOnTurn int // 0 = never

	Position int
	Laps     int
}

// NewPlayer creates a player at the given seat with profile defaults.
func NewPlayer(seat int, profile Profile, cfg *Config) *Player {
	p := &Player{
		Seat:             seat,
		ProfileID:        profile.ID,
		Name:             profile.Name,
		Honesty:          profile.Honesty,
		Money:            profile.StartingMoney,
		Nerves:           clamp(profile.StartingNerves, MinNerves, MaxNerves),
		LanguageLevel:    clamp(profile.StartingLanguage, MinLanguageLevel, MaxLanguageLevel),
		DocumentCards:    cfg.StartingDocumentCards,
		Housing:          profile.StartingHousing,
		HousingLevel:     profile.StartingHousing.Level(),
		HousingCost:      profile.HousingCost,
		Salary:           profile.Salary,
		SalaryType:       profile.SalaryType,
		SalaryBase:       profile.SalaryBase,
		TemporaryBonuses: make(map[string]int),
		Immunities:       make(map[string]bool),
		SpecialAbilities: make(map[string]bool),
		Trust:            make(map[int]float64),
		Grudges:          make(map[int]int),
	}
	if p.HousingCost == 0 {
		p.HousingCost = cfg.HousingCost(p.Housing)
	}
	return p
}

// Active reports whether the player is still in the game.
func (p *Player) Active() bool {
	return !p.Eliminated
}

// CanPay reports whether the player can afford a cost. Nerves must stay above
// the nerve cost so paying never drops a player below the minimum.
func (p *Player) CanPay(c Cost) bool {
	return p.Money >= c.Money && (c.Nerves == 0 || p.Nerves > c.Nerves)
}

// Value returns the current value of a numeric resource.
func (p *Player) Value(res Resource) int {
	switch res {
	case ResourceMoney:
		return p.Money
	case ResourceNerves:
		return p.Nerves
	case ResourceLanguageLevel:
		return p.LanguageLevel
	case ResourceDocumentLevel:
		return p.DocumentLevel
	case ResourceDocumentCards:
		return p.DocumentCards
	case ResourceHousingLevel, ResourceHousingType:
		return p.HousingLevel
	default:
		return 0
	}
}

// TrustIn returns how much the player trusts the other seat.
func (p *Player) TrustIn(seat int) float64 {
	if t, ok := p.Trust[seat]; ok {
		return t
	}
	return DefaultTrust
}

// AdjustTrust moves trust toward the other seat, clamped to [0,1].
func (p *Player) AdjustTrust(seat int, delta float64) {
	p.Trust[seat] = clampFloat(p.TrustIn(seat)+delta, 0, 1)
}

// Grudge returns the player's grudge toward the other seat.
func (p *Player) Grudge(seat int) int {
	return p.Grudges[seat]
}

// AddGrudge increases the player's grudge toward the other seat.
func (p *Player) AddGrudge(seat int, n int) {
	p.Grudges[seat] += n
}

// HasAbility reports whether the player holds a special ability.
func (p *Player) HasAbility(name string) bool {
	return p.SpecialAbilities[name]
}

// HasImmunity reports whether the player holds an immunity.
func (p *Player) HasImmunity(name string) bool {
	return p.Immunities[name]
}

// Abilities returns the special abilities sorted by name.
func (p *Player) Abilities() []string {
	return sortedKeys(p.SpecialAbilities)
}

// ImmunityList returns the immunities sorted by name.
func (p *Player) ImmunityList() []string {
	return sortedKeys(p.Immunities)
}

// Hand returns the requested hand.
func (p *Player) Hand(kind HandKind) []*Card {
	if kind == HandPersonal {
		return p.PersonalItems
	}
	return p.ActionCards
}

// RemoveCard removes one copy of card from the given hand.
// Returns false if the card was not held.
func (p *Player) RemoveCard(kind HandKind, card *Card) bool {
	hand := &p.ActionCards
	if kind == HandPersonal {
		hand = &p.PersonalItems
	}
	for i, c := range *hand {
		if c == card {
			*hand = append((*hand)[:i], (*hand)[i+1:]...)
			return true
		}
	}
	return false
}

// Holds reports whether card is in the given hand.
func (p *Player) Holds(kind HandKind, card *Card) bool {
	for _, c := range p.Hand(kind) {
		if c == card {
			return true
		}
	}
	return false
}

// Desperation is 0 at five or more nerves and rises to 0.8 at one nerve.
func (p *Player) Desperation() float64 {
	d := float64(5-p.Nerves) / 5
	if d < 0 {
		return 0
	}
	return d
}

// ExchangeCost is the number of document cards needed to reach the next
// document level. It depends only on the current level and does not stack
// with earlier exchanges.
func (p *Player) ExchangeCost() int {
	cost := p.DocumentLevel + 1
	if cost > MaxExchangeCost {
		cost = MaxExchangeCost
	}
	if p.HasAbility(AbilityDocumentsFastTrack) && cost > 1 {
		cost--
	}
	return cost
}

func (p *Player) String() string {
	return fmt.Sprintf("%s(P%d money=%d nerves=%d lang=%d docs=%d/%d housing=%s)",
		p.Name, p.Seat+1, p.Money, p.Nerves, p.LanguageLevel, p.DocumentLevel, p.DocumentCards, p.Housing)
}

// GameState holds the entire mutable state of one game. It is owned by the
// turn loop and passed by reference to every phase.
type GameState struct {
	Config  *Config
	Content *Content
	Board   *Board
	Decks   map[DeckName]*Deck
	Players []*Player
	Rand    *rand.Rand

	Turn      int    // current round, 1-based
	Current   int    // seat of the acting player
	Phase     string // current phase name
	Status    GameStatus
	Winner    int // seat, -1 for none
	EndReason EndReason
}

// NewGameState builds the board, decks, and players for a new game.
func NewGameState(cfg *Config, content *Content, rng *rand.Rand) (*GameState, error) {
	if len(content.Profiles) == 0 {
		return nil, fmt.Errorf("no profiles to seat players with")
	}
	gs := &GameState{
		Config:  cfg,
		Content: content,
		Board:   NewBoard(cfg.BoardSize, cfg.CellFrequencies, rng),
		Decks:   make(map[DeckName]*Deck, len(AllDecks)),
		Rand:    rng,
		Winner:  -1,
		Status:  StatusSetup,
	}
	for _, name := range AllDecks {
		gs.Decks[name] = NewDeck(name, content.Decks[name], rng)
	}

	ids := cfg.Profiles
	if len(ids) == 0 {
		for _, p := range content.Profiles {
			ids = append(ids, p.ID)
		}
	}
	for seat := 0; seat < cfg.Players; seat++ {
		id := ids[seat%len(ids)]
		profile, ok := content.Profile(id)
		if !ok {
			return nil, fmt.Errorf("unknown profile %q for seat %d", id, seat)
		}
		p := NewPlayer(seat, profile, cfg)
		for i := 0; i < cfg.StartingPersonalItems; i++ {
			if card := gs.Decks[DeckPersonalItems].Draw(); card != nil {
				p.PersonalItems = append(p.PersonalItems, card)
			}
		}
		gs.Players = append(gs.Players, p)
	}
	return gs, nil
}

// Deck returns the named deck.
func (gs *GameState) Deck(name DeckName) *Deck {
	return gs.Decks[name]
}

// ActivePlayers returns the non-eliminated players in seat order.
func (gs *GameState) ActivePlayers() []*Player {
	var out []*Player
	for _, p := range gs.Players {
		if p.Active() {
			out = append(out, p)
		}
	}
	return out
}

// Others returns the active players other than p, in seat order.
func (gs *GameState) Others(p *Player) []*Player {
	var out []*Player
	for _, o := range gs.Players {
		if o != p && o.Active() {
			out = append(out, o)
		}
	}
	return out
}

// CurrentPlayer returns the acting player.
func (gs *GameState) CurrentPlayer() *Player {
	return gs.Players[gs.Current]
}

// DocumentLevelPrice is what p's next document level costs on a green cell.
func (gs *GameState) DocumentLevelPrice(p *Player) int {
	return (p.DocumentLevel + 1) * gs.Config.DocumentLevelPrice
}

// Over reports whether the game has ended.
func (gs *GameState) Over() bool {
	return gs.Status == StatusEnded
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k, ok := range m {
		if ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
