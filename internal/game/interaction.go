package game

import (
	"fmt"

	"github.com/peterkuimelis/paperchase/internal/log"
)

// InteractiveEvent is an announced action that other players may react to
// before it commits. At most one interference and one defense happen per event.
type InteractiveEvent struct {
	Action      ActionType
	Actor       *Player
	Effects     Effects
	Description string

	Blocked  bool
	Modified bool

	Interferer       *Player
	InterferenceCard *Card
	DefenseCard      *Card
	Reflected        bool

	original Effects
	snapshot resourceSnapshot
}

// NewInteractiveEvent creates an event for actor announcing effects.
func NewInteractiveEvent(action ActionType, actor *Player, effects Effects, description string) *InteractiveEvent {
	return &InteractiveEvent{
		Action:      action,
		Actor:       actor,
		Effects:     effects.Clone(),
		Description: description,
		original:    effects.Clone(),
	}
}

// Interfered reports whether someone reacted to the event.
func (ev *InteractiveEvent) Interfered() bool {
	return ev.Interferer != nil
}

// PositiveAmount sums the positive numeric effects announced, which is what a
// reduce_effect card would shrink.
func (ev *InteractiveEvent) PositiveAmount() int {
	total := 0
	for _, e := range ev.Effects {
		if e.Positive() {
			total += e.Amount
		}
	}
	return total
}

func (ev *InteractiveEvent) String() string {
	return fmt.Sprintf("%s by %s %s", ev.Action, ev.Actor.Name, ev.Effects)
}

// resourceSnapshot is what a defense restores on the actor.
type resourceSnapshot struct {
	money, nerves, documentCards int
}

func snapshotOf(p *Player) resourceSnapshot {
	return resourceSnapshot{money: p.Money, nerves: p.Nerves, documentCards: p.DocumentCards}
}

// Announce runs the reaction window for ev and returns it with any
// interference and defense applied. Non-interferable actions pass through.
// The caller commits ev.Effects unless ev.Blocked.
func (g *Game) Announce(ev *InteractiveEvent) (*InteractiveEvent, error) {
	gs := g.State
	if !ev.Action.Interferable() || gs.Over() {
		return ev, nil
	}

	for _, other := range gs.Others(ev.Actor) {
		card, err := g.controller(other).ChooseInterference(g.ctx, gs, other, ev)
		if err != nil {
			return ev, err
		}
		if card == nil || !other.Holds(HandAction, card) || !card.AppliesTo(ev.Action) || !other.CanPay(card.Cost) {
			continue
		}
		g.interfere(ev, other, card)
		break
	}

	if ev.Interfered() && !ev.Blocked {
		if err := g.defend(ev); err != nil {
			return ev, err
		}
	}
	return ev, nil
}

func (g *Game) interfere(ev *InteractiveEvent, interferer *Player, card *Card) {
	gs := g.State
	actor := ev.Actor

	interferer.RemoveCard(HandAction, card)
	g.pay(interferer, card.Cost, card.Name)
	gs.Deck(DeckAction).Discard(card)

	ev.Interferer = interferer
	ev.InterferenceCard = card
	ev.snapshot = snapshotOf(actor)

	if card.Effects.Has(EffectBlockAction) {
		ev.Blocked = true
	}
	if e, ok := card.Effects.Find(EffectReduceEffect); ok && !ev.Blocked {
		for i, eff := range ev.Effects {
			if eff.Positive() {
				ev.Effects[i].Amount = int(float64(eff.Amount) * (1 - e.Ratio))
			}
		}
		ev.Modified = true
	}
	g.log(log.NewInterferenceEvent(gs.Turn, gs.Phase, interferer.Seat, actor.Seat, card.Name, string(ev.Action), ev.Blocked))

	g.damage(actor, card.Effects, card.Name)
	actor.AddGrudge(interferer.Seat, 1)
}

func (g *Game) defend(ev *InteractiveEvent) error {
	gs := g.State
	actor := ev.Actor

	card, err := g.controller(actor).ChooseDefense(g.ctx, gs, actor, ev)
	if err != nil {
		return err
	}
	if card == nil || !card.IsDefense() || !actor.Holds(HandAction, card) || !actor.CanPay(card.Cost) {
		return nil
	}

	actor.RemoveCard(HandAction, card)
	g.pay(actor, card.Cost, card.Name)
	gs.Deck(DeckAction).Discard(card)
	ev.DefenseCard = card

	g.restore(ev)
	if card.Effects.Has(EffectReflectSabotage) {
		ev.Reflected = true
		g.damage(ev.Interferer, ev.InterferenceCard.Effects, card.Name)
		ev.Interferer.AddGrudge(actor.Seat, 1)
	} else {
		g.adjust(actor, ResourceMoney, card.Effects.Amount(EffectSelfMoney), card.Name)
		g.adjust(actor, ResourceNerves, card.Effects.Amount(EffectSelfNerves), card.Name)
		g.adjust(actor, ResourceDocumentCards, card.Effects.Amount(EffectSelfDocumentCards), card.Name)
	}
	g.log(log.NewDefenseEvent(gs.Turn, gs.Phase, actor.Seat, ev.Interferer.Seat, card.Name, ev.Reflected))
	return nil
}

// restore undoes the interference: original effects and the actor's resources
// as they were before the damage.
func (g *Game) restore(ev *InteractiveEvent) {
	actor := ev.Actor
	ev.Effects = ev.original.Clone()
	ev.Modified = false
	ev.Blocked = false
	g.adjust(actor, ResourceMoney, ev.snapshot.money-actor.Money, "defense")
	g.adjust(actor, ResourceNerves, ev.snapshot.nerves-actor.Nerves, "defense")
	g.adjust(actor, ResourceDocumentCards, ev.snapshot.documentCards-actor.DocumentCards, "defense")
}

// damage applies the target_* amounts of an interference card as losses.
func (g *Game) damage(p *Player, effects Effects, reason string) {
	g.adjust(p, ResourceNerves, -abs(effects.Amount(EffectTargetNerves)), reason)
	g.adjust(p, ResourceMoney, -abs(effects.Amount(EffectTargetMoney)), reason)
	g.adjust(p, ResourceDocumentCards, -abs(effects.Amount(EffectTargetDocumentCards)), reason)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
