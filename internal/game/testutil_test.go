package game

import (
	"context"
	"testing"

	"github.com/peterkuimelis/paperchase/internal/log"
)

// ScriptedController is a PlayerController that follows a predefined script.
// Used in tests to deterministically drive the game. Unscripted decisions
// default to doing nothing.
type ScriptedController struct {
	t    *testing.T
	name string

	// Card names to play before moving, one per turn ("" skips a turn).
	preTurn    []string
	preTurnPos int

	cellAction CellAction
	greenUse   GreenUse

	// Interference card name per announced action.
	interfere map[ActionType]string
	defense   string

	trades   []*TradeProposal
	tradePos int
	accept   bool

	targetSeat int
	discards   []string

	// Every notification seen, for assertions on what a seat observed.
	Seen []log.GameEvent
}

func NewScriptedController(t *testing.T, name string) *ScriptedController {
	return &ScriptedController{t: t, name: name, interfere: make(map[ActionType]string), targetSeat: -1}
}

func (sc *ScriptedController) AddPreTurn(cardName string) *ScriptedController {
	sc.preTurn = append(sc.preTurn, cardName)
	return sc
}

func (sc *ScriptedController) SetCellAction(a CellAction) *ScriptedController {
	sc.cellAction = a
	return sc
}

func (sc *ScriptedController) SetGreenUse(u GreenUse) *ScriptedController {
	sc.greenUse = u
	return sc
}

func (sc *ScriptedController) InterfereWith(action ActionType, cardName string) *ScriptedController {
	sc.interfere[action] = cardName
	return sc
}

func (sc *ScriptedController) DefendWith(cardName string) *ScriptedController {
	sc.defense = cardName
	return sc
}

func (sc *ScriptedController) AddTrade(requested, offered Resources) *ScriptedController {
	sc.trades = append(sc.trades, &TradeProposal{Requested: requested, Offered: offered})
	return sc
}

func (sc *ScriptedController) AcceptTrades(accept bool) *ScriptedController {
	sc.accept = accept
	return sc
}

func (sc *ScriptedController) Target(seat int) *ScriptedController {
	sc.targetSeat = seat
	return sc
}

func (sc *ScriptedController) AddDiscard(cardName string) *ScriptedController {
	sc.discards = append(sc.discards, cardName)
	return sc
}

func (sc *ScriptedController) ChoosePreTurn(ctx context.Context, gs *GameState, self *Player) (*PlayChoice, error) {
	if sc.preTurnPos >= len(sc.preTurn) {
		return nil, nil
	}
	name := sc.preTurn[sc.preTurnPos]
	sc.preTurnPos++
	if name == "" {
		return nil, nil
	}
	for _, kind := range []HandKind{HandAction, HandPersonal} {
		if c := findCard(self.Hand(kind), name); c != nil {
			return &PlayChoice{Hand: kind, Card: c}, nil
		}
	}
	sc.t.Errorf("[%s] pre-turn: %q not in hand", sc.name, name)
	return nil, nil
}

func (sc *ScriptedController) ChooseCellAction(ctx context.Context, gs *GameState, self *Player) (CellAction, error) {
	return sc.cellAction, nil
}

func (sc *ScriptedController) ChooseGreenUse(ctx context.Context, gs *GameState, self *Player, card *Card) (GreenUse, error) {
	return sc.greenUse, nil
}

func (sc *ScriptedController) ChooseInterference(ctx context.Context, gs *GameState, self *Player, ev *InteractiveEvent) (*Card, error) {
	name, ok := sc.interfere[ev.Action]
	if !ok {
		return nil, nil
	}
	return findCard(self.ActionCards, name), nil
}

func (sc *ScriptedController) ChooseDefense(ctx context.Context, gs *GameState, self *Player, ev *InteractiveEvent) (*Card, error) {
	if sc.defense == "" {
		return nil, nil
	}
	return findCard(self.ActionCards, sc.defense), nil
}

func (sc *ScriptedController) ProposeTrade(ctx context.Context, gs *GameState, self *Player) (*TradeProposal, error) {
	if sc.tradePos >= len(sc.trades) {
		return nil, nil
	}
	p := sc.trades[sc.tradePos]
	sc.tradePos++
	return p, nil
}

func (sc *ScriptedController) EvaluateTrade(ctx context.Context, gs *GameState, self *Player, offer *TradeOffer) (bool, error) {
	return sc.accept, nil
}

func (sc *ScriptedController) ChooseTarget(ctx context.Context, gs *GameState, self *Player, prompt string, candidates []*Player) (*Player, error) {
	for _, c := range candidates {
		if c.Seat == sc.targetSeat {
			return c, nil
		}
	}
	return candidates[0], nil
}

func (sc *ScriptedController) ChooseDiscard(ctx context.Context, gs *GameState, self *Player, kind HandKind) (*Card, error) {
	for len(sc.discards) > 0 {
		name := sc.discards[0]
		sc.discards = sc.discards[1:]
		if c := findCard(self.Hand(kind), name); c != nil {
			return c, nil
		}
	}
	return nil, nil
}

func (sc *ScriptedController) Notify(ctx context.Context, event log.GameEvent) error {
	sc.Seen = append(sc.Seen, event)
	return nil
}

func findCard(hand []*Card, name string) *Card {
	for _, c := range hand {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// --- Test content helpers ---

func mustEffects(t *testing.T, raw map[string]any) Effects {
	t.Helper()
	es, err := ParseEffects(raw)
	if err != nil {
		t.Fatalf("ParseEffects(%v): %v", raw, err)
	}
	return es
}

func actionCard(t *testing.T, name string, cost Cost, raw map[string]any) *Card {
	return &Card{Name: name, Deck: DeckAction, Type: CardTypeUtility, Cost: cost, Effects: mustEffects(t, raw)}
}

func interferenceCard(t *testing.T, name string, target ActionType, cost Cost, raw map[string]any) *Card {
	return &Card{Name: name, Deck: DeckAction, Type: CardTypeInterference, Target: target, Cost: cost, Effects: mustEffects(t, raw)}
}

func counterCard(t *testing.T, name string, raw map[string]any) *Card {
	return &Card{Name: name, Deck: DeckAction, Type: CardTypeCounter, Effects: mustEffects(t, raw)}
}

func eventCard(t *testing.T, name string, deck DeckName, raw map[string]any) *Card {
	return &Card{Name: name, Deck: deck, Category: "event", Effects: mustEffects(t, raw)}
}

// fillerCards returns n harmless cards for a deck.
func fillerCards(deck DeckName, n int) []*Card {
	out := make([]*Card, n)
	for i := range out {
		out[i] = &Card{ID: "filler", Name: "Quiet Day", Deck: deck, Category: "event"}
	}
	return out
}

func testProfile(id string) Profile {
	return Profile{
		ID:               id,
		Name:             id,
		StartingMoney:    10,
		StartingNerves:   7,
		StartingLanguage: 1,
		StartingHousing:  HousingRoom,
		Salary:           3,
		SalaryType:       "fixed",
		Honesty:          0.5,
	}
}

// testContent has two profiles, one goal, and filler decks.
func testContent() *Content {
	c := &Content{
		Profiles: []Profile{testProfile("student"), testProfile("worker")},
		Goals: []Goal{{
			Key:      "citizenship",
			Name:     "Citizenship",
			Requires: []Requirement{{Resource: ResourceMoney, Min: 20}, {Resource: ResourceDocumentLevel, Min: 3}},
		}},
		Decks: make(map[DeckName][]*Card),
	}
	for _, d := range AllDecks {
		c.Decks[d] = fillerCards(d, 6)
	}
	return c
}

// testConfig is a small deterministic rule set with nothing in the starting hands.
func testConfig(players int) Config {
	cfg := DefaultConfig()
	cfg.Seed = 42
	cfg.Players = players
	cfg.StartingPersonalItems = 0
	cfg.StartingDocumentCards = 0
	return cfg
}

// newTestGame builds a game with scripted controllers for every seat.
func newTestGame(t *testing.T, cfg Config, content *Content) (*Game, []*ScriptedController, *log.MemoryLogger) {
	t.Helper()
	logger := log.NewMemoryLogger()
	ctrls := make([]*ScriptedController, cfg.Players)
	pcs := make([]PlayerController, cfg.Players)
	for i := range ctrls {
		ctrls[i] = NewScriptedController(t, playerLabel(i))
		pcs[i] = ctrls[i]
	}
	g, err := NewGame(GameConfig{Config: cfg, Content: content, Logger: logger, Controllers: pcs})
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	return g, ctrls, logger
}

func playerLabel(seat int) string {
	return "P" + string(rune('1'+seat))
}

// give puts a card into a player's action hand.
func give(p *Player, cards ...*Card) {
	p.ActionCards = append(p.ActionCards, cards...)
}

// runToCompletion runs a game and returns its result.
func runToCompletion(t *testing.T, g *Game, logger *log.MemoryLogger) Result {
	t.Helper()
	res, err := g.Run(context.Background())
	if err != nil {
		t.Logf("Event log:\n%s", log.FormatAll(logger.Events()))
		t.Fatalf("Run: %v", err)
	}
	t.Logf("Game result: winner=%d reason=%s turns=%d", res.Winner, res.EndReason, res.Turns)
	return res
}
