package game

import (
	"fmt"

	"github.com/peterkuimelis/paperchase/internal/log"
)

// Phase names recorded on events.
const (
	PhasePreTurn  = "PreTurn"
	PhaseMovement = "Movement"
	PhaseTrade    = "Trade"
	PhaseCell     = "Cell"
	PhaseLap      = "Lap"
	PhaseEndTurn  = "End"
)

// --- Pre-turn ---

func (g *Game) preTurnPhase(p *Player) error {
	gs := g.State
	g.setPhase(PhasePreTurn)

	choice, err := g.controller(p).ChoosePreTurn(g.ctx, gs, p)
	if err != nil || choice == nil || choice.Card == nil {
		return err
	}
	card := choice.Card
	if !g.canPlay(p, choice) {
		return nil
	}

	p.RemoveCard(choice.Hand, card)
	g.pay(p, card.Cost, card.Name)
	g.log(log.NewCardPlayedEvent(gs.Turn, gs.Phase, p.Seat, card.Name, choice.Hand.String()))

	effects := card.Effects.Clone()
	if mods, ok := card.ProfileModifiers[p.ProfileID]; ok {
		effects = append(effects, mods...)
	}
	ev, err := g.Announce(NewInteractiveEvent(ActionPreTurn, p, effects, fmt.Sprintf("%s plays %s", p.Name, card.Name)))
	if err != nil {
		return err
	}
	if !ev.Blocked {
		if err := g.Apply(p, ev.Effects, Source{Card: card, Announced: true}); err != nil {
			return err
		}
	}
	gs.Deck(deckForHand(choice.Hand)).Discard(card)
	return nil
}

// canPlay re-checks a pre-turn choice: the card must be held, affordable,
// playable outside a reaction window, and its conditions met.
func (g *Game) canPlay(p *Player, choice *PlayChoice) bool {
	card := choice.Card
	if !p.Holds(choice.Hand, card) || !p.CanPay(card.Cost) {
		return false
	}
	if choice.Hand == HandAction && card.Reactive() {
		return false
	}
	return card.Conditions.Met(p)
}

// --- Movement and laps ---

func (g *Game) movementPhase(p *Player) error {
	gs := g.State
	g.setPhase(PhaseMovement)

	steps := g.rollDie() + p.TemporaryBonuses[BonusMovement]
	ev, err := g.Announce(NewInteractiveEvent(ActionMovement, p, Effects{{Kind: EffectMovement, Key: "movement", Amount: steps}},
		fmt.Sprintf("%s moves %d", p.Name, steps)))
	if err != nil {
		return err
	}
	if !ev.Blocked {
		g.move(p, ev.Effects.Amount(EffectMovement))
	}

	if gs.Config.LapMode == LapTurns && gs.Turn%gs.Config.LapTurns == 0 {
		g.completeLap(p)
	}
	return nil
}

// move advances p along the track. In wraparound mode every pass over the
// start completes a lap.
func (g *Game) move(p *Player, steps int) {
	gs := g.State
	size := gs.Board.Size()
	if size == 0 || steps == 0 {
		return
	}
	from := p.Position
	to := from + steps
	laps := 0
	if to >= size {
		laps = to / size
	}
	p.Position = ((to % size) + size) % size
	g.log(log.NewMovementEvent(gs.Turn, p.Seat, from, p.Position, steps))

	if gs.Config.LapMode != LapWraparound {
		return
	}
	for i := 0; i < laps && p.Active(); i++ {
		g.completeLap(p)
	}
}

// completeLap charges housing, pays salary and the document stipend, applies
// the money cap, and runs an emergency sale if the player ended up in debt.
func (g *Game) completeLap(p *Player) {
	gs := g.State
	prev := gs.Phase
	g.setPhase(PhaseLap)
	defer g.setPhase(prev)

	p.Laps++

	housing := p.HousingCost
	if p.HasAbility(AbilityImmunityNextHousing) {
		delete(p.SpecialAbilities, AbilityImmunityNextHousing)
		housing = 0
	}
	g.changeMoney(p, -housing, "housing")

	salary := p.Salary
	if p.SalaryType == "dice" {
		salary = g.rollDie() + p.SalaryBase
	}
	salary += p.TemporaryBonuses[BonusWork]
	g.changeMoney(p, salary, "salary")

	g.adjust(p, ResourceDocumentCards, gs.Config.LapDocumentStipend, "lap stipend")
	g.applyMoneyLimit(p)

	if p.Money < 0 {
		g.emergencySale(p)
	}
	g.log(log.NewLapCompletedEvent(gs.Turn, p.Seat, p.Laps, salary, housing))
	g.checkEliminations()
}

// applyMoneyLimit halves money above the cap. A zero multiplier disables it.
func (g *Game) applyMoneyLimit(p *Player) {
	gs := g.State
	if gs.Config.MoneyLimitMultiplier <= 0 {
		return
	}
	base := gs.Content.MaxGoalMoney()
	if base <= 0 {
		base = DefaultMoneyLimitBase
	}
	limit := base * gs.Config.MoneyLimitMultiplier
	if p.Money > limit {
		excess := p.Money - limit
		g.adjust(p, ResourceMoney, -(excess - excess/2), "money limit")
	}
}

// emergencySale sells document cards to the richest other player for 2 each,
// then personal items for 1 each, until the debt is covered or nothing is left.
func (g *Game) emergencySale(p *Player) {
	for p.Money < 0 && p.DocumentCards > 0 {
		buyer := g.richestBuyer(p, 2)
		if buyer == nil {
			break
		}
		g.adjust(buyer, ResourceMoney, -2, "emergency purchase")
		g.adjust(buyer, ResourceDocumentCards, 1, "emergency purchase")
		g.adjust(p, ResourceDocumentCards, -1, "emergency sale")
		g.changeMoney(p, 2, "emergency sale")
	}
	for p.Money < 0 && len(p.PersonalItems) > 0 {
		card := p.PersonalItems[0]
		p.RemoveCard(HandPersonal, card)
		g.State.Deck(DeckPersonalItems).Discard(card)
		g.changeMoney(p, 1, "sold "+card.Name)
	}
}

func (g *Game) richestBuyer(seller *Player, price int) *Player {
	var best *Player
	for _, o := range g.State.Others(seller) {
		if o.Money >= price && (best == nil || o.Money > best.Money) {
			best = o
		}
	}
	return best
}

// --- Cell resolution ---

func (g *Game) cellPhase(p *Player) error {
	gs := g.State
	g.setPhase(PhaseCell)

	cell := gs.Board.CellAt(p.Position)
	g.log(log.NewCellVisitEvent(gs.Turn, p.Seat, p.Position, string(cell), ""))

	if cell == CellGreen {
		return g.greenCell(p)
	}
	card := gs.Deck(DeckForCell(cell)).Draw()
	if card == nil {
		return nil
	}
	return g.resolveEventCard(p, card)
}

func (g *Game) greenCell(p *Player) error {
	gs := g.State
	action, err := g.controller(p).ChooseCellAction(g.ctx, gs, p)
	if err != nil {
		return err
	}

	switch action {
	case CellBuyDocumentLevel:
		bought, err := g.buyDocumentLevel(p)
		if err != nil || bought {
			return err
		}
	case CellTakePersonalItem:
		if gs.Deck(DeckPersonalItems).Len()+gs.Deck(DeckPersonalItems).DiscardLen() > 0 {
			g.drawInto(p, HandPersonal, 1)
			return nil
		}
	}

	card := gs.Deck(DeckGreen).Draw()
	if card == nil {
		return nil
	}
	if card.Exchangeable {
		use, err := g.controller(p).ChooseGreenUse(g.ctx, gs, p, card)
		if err != nil {
			return err
		}
		if use == GreenUseExchange {
			g.log(log.NewCardPlayedEvent(gs.Turn, gs.Phase, p.Seat, card.Name, "exchange"))
			err := g.documentExchange(p)
			gs.Deck(DeckGreen).Discard(card)
			return err
		}
	}
	return g.resolveEventCard(p, card)
}

// buyDocumentLevel reports whether a purchase was attempted. The price is
// only charged when the level actually rose.
func (g *Game) buyDocumentLevel(p *Player) (bool, error) {
	price := g.State.DocumentLevelPrice(p)
	if p.DocumentLevel >= MaxDocumentLevel || p.Money < price {
		return false, nil
	}
	ev, err := g.Announce(NewInteractiveEvent(ActionDocumentLevelUp, p,
		Effects{{Kind: EffectDocumentLevel, Key: "document_level", Amount: 1}},
		fmt.Sprintf("%s buys a document level", p.Name)))
	if err != nil || ev.Blocked {
		return true, err
	}
	before := p.DocumentLevel
	if err := g.Apply(p, ev.Effects, Source{Reason: "bought document level", Announced: true}); err != nil {
		return true, err
	}
	if p.DocumentLevel > before {
		g.adjust(p, ResourceMoney, -price, "bought document level")
	}
	return true, nil
}

// documentExchange trades banked document cards for one document level.
// The attempt is dice-gated unless the player skips the queue; a failed
// attempt keeps the cards and costs a nerve.
func (g *Game) documentExchange(p *Player) error {
	gs := g.State
	cost := p.ExchangeCost()
	if p.DocumentCards < cost || p.DocumentLevel >= MaxDocumentLevel {
		return nil
	}
	ev, err := g.Announce(NewInteractiveEvent(ActionDocumentExchange, p,
		Effects{{Kind: EffectDocumentLevel, Key: "document_level", Amount: 1}},
		fmt.Sprintf("%s exchanges %d document cards", p.Name, cost)))
	if err != nil {
		return err
	}
	// a defense may have restored cards, an interference may have taken some
	if ev.Blocked || p.DocumentCards < cost {
		g.log(log.NewDocumentExchangeEvent(gs.Turn, p.Seat, cost, p.DocumentLevel, false))
		return nil
	}

	success := p.HasAbility(AbilitySkipDocumentQueue) || g.rollDie() >= gs.Config.ExchangeDifficulty
	if success {
		g.adjust(p, ResourceDocumentCards, -cost, "document exchange")
		if err := g.Apply(p, ev.Effects, Source{Reason: "document exchange", Announced: true}); err != nil {
			return err
		}
	} else {
		g.adjust(p, ResourceNerves, -1, "document exchange failed")
	}
	g.log(log.NewDocumentExchangeEvent(gs.Turn, p.Seat, cost, p.DocumentLevel, success))
	return nil
}

// resolveEventCard resolves a drawn red, white, or green event card. Cards
// with target groups hit every active player in those groups. Only challenge
// cards open a reaction window as a whole; plain cards commit directly and
// their significant effects are announced one by one.
func (g *Game) resolveEventCard(p *Player, card *Card) error {
	gs := g.State
	defer gs.Deck(card.Deck).Discard(card)

	if !card.Conditions.Empty() && !card.Conditions.Met(p) {
		g.log(log.NewCardPlayedEvent(gs.Turn, gs.Phase, p.Seat, card.Name, "conditions not met"))
		return nil
	}
	g.log(log.NewCardPlayedEvent(gs.Turn, gs.Phase, p.Seat, card.Name, string(card.Deck)))

	actorEffects := card.Effects
	announced := false
	if card.Challenge != nil {
		ev, err := g.Announce(NewInteractiveEvent(ActionChallengeEvent, p, card.Effects, card.Name))
		if err != nil || ev.Blocked {
			return err
		}
		actorEffects = ev.Effects
		announced = true
	}

	for _, target := range g.eventTargets(p, card) {
		effects := card.Effects
		if target == p {
			effects = actorEffects
		}
		if mods, ok := card.ProfileModifiers[target.ProfileID]; ok {
			effects = append(effects.Clone(), mods...)
		}
		if err := g.Apply(target, effects, Source{Card: card, Announced: announced && target == p}); err != nil {
			return err
		}
		if card.Challenge != nil {
			if err := g.ResolveChallenge(target, card); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *Game) eventTargets(p *Player, card *Card) []*Player {
	if len(card.TargetGroups) == 0 {
		return []*Player{p}
	}
	var out []*Player
	for _, o := range g.State.ActivePlayers() {
		for _, group := range card.TargetGroups {
			if group == o.ProfileID || group == "all" {
				out = append(out, o)
				break
			}
		}
	}
	return out
}

// --- End of turn ---

// enforceHandLimits makes every active player discard down to the limits.
func (g *Game) enforceHandLimits() error {
	gs := g.State
	g.setPhase(PhaseEndTurn)
	limits := map[HandKind]int{
		HandAction:   gs.Config.MaxActionCards,
		HandPersonal: gs.Config.MaxPersonalItems,
	}
	for _, p := range gs.ActivePlayers() {
		for _, kind := range []HandKind{HandAction, HandPersonal} {
			for len(p.Hand(kind)) > limits[kind] {
				card, err := g.controller(p).ChooseDiscard(g.ctx, gs, p, kind)
				if err != nil {
					return err
				}
				if card == nil || !p.Holds(kind, card) {
					card = p.Hand(kind)[0]
				}
				p.RemoveCard(kind, card)
				gs.Deck(deckForHand(kind)).Discard(card)
				g.log(log.NewHandLimitDiscardEvent(gs.Turn, p.Seat, card.Name))
			}
		}
	}
	return nil
}
