package game

import (
	"fmt"
	"math"

	"github.com/peterkuimelis/paperchase/internal/log"
)

// Source describes where applied effects come from.
type Source struct {
	Card   *Card
	Reason string

	// Announced is set when the caller already routed the whole card through
	// Announce, so significant effects are committed without a second window.
	Announced bool
}

func (s Source) cardName() string {
	if s.Card != nil {
		return s.Card.Name
	}
	return s.Reason
}

func (s Source) reason() string {
	if s.Reason != "" {
		return s.Reason
	}
	if s.Card != nil {
		return s.Card.Name
	}
	return "effect"
}

// Apply commits effects to p. Every known effect kind is handled; unknown
// keys are logged as content errors and skipped.
func (g *Game) Apply(p *Player, effects Effects, src Source) error {
	for _, e := range effects {
		if err := g.applyOne(p, e, src); err != nil {
			return err
		}
	}
	return nil
}

func (g *Game) applyOne(p *Player, e Effect, src Source) error {
	gs := g.State

	if src.Card != nil && src.Card.PenaltyType != "" && p.HasImmunity(src.Card.PenaltyType) && (Effects{e}).Negative() {
		return nil
	}

	if !src.Announced {
		if action, ok := g.significance(e); ok {
			ev, err := g.Announce(NewInteractiveEvent(action, p, Effects{e}, fmt.Sprintf("%s gains %s", p.Name, e)))
			if err != nil {
				return err
			}
			if ev.Blocked {
				return nil
			}
			committed := src
			committed.Announced = true
			return g.Apply(p, ev.Effects, committed)
		}
	}

	reason := src.reason()
	switch e.Kind {
	case EffectMoney:
		g.adjust(p, ResourceMoney, e.Amount, reason)
	case EffectMoneyPercent:
		g.adjust(p, ResourceMoney, p.Money*e.Amount/100, reason)
	case EffectMoneyDivide:
		g.adjust(p, ResourceMoney, p.Money/e.Amount-p.Money, reason)
	case EffectNerves:
		delta := e.Amount
		if delta < 0 && p.HasAbility(AbilityStressImmunity) {
			delta++
		}
		g.adjust(p, ResourceNerves, delta, reason)
	case EffectDocumentCards:
		g.adjust(p, ResourceDocumentCards, e.Amount, reason)
	case EffectDocumentLevel:
		g.adjust(p, ResourceDocumentLevel, e.Amount, reason)
	case EffectInstantDocumentUpgrade:
		g.adjust(p, ResourceDocumentLevel, e.Amount, reason)
	case EffectLanguageLevel:
		g.adjust(p, ResourceLanguageLevel, e.Amount, reason)
	case EffectLanguageLevelUp:
		g.adjust(p, ResourceLanguageLevel, e.Amount, reason)
	case EffectDrawActionCard:
		g.drawInto(p, HandAction, e.Amount)
	case EffectDrawPersonalItem:
		g.drawInto(p, HandPersonal, e.Amount)
	case EffectBonus:
		p.TemporaryBonuses[e.Tag] += e.Amount
	case EffectImmunity:
		p.Immunities[e.Tag] = true
	case EffectSpecialAbility:
		p.SpecialAbilities[e.Tag] = true
	case EffectUpgradeHousing:
		g.setHousingLevel(p, p.HousingLevel+e.Amount, reason)
	case EffectDowngradeHousing:
		g.setHousingLevel(p, p.HousingLevel-e.Amount, reason)
	case EffectStealPermanent:
		return g.stealPermanentEffect(p)
	case EffectMovement:
		g.move(p, e.Amount)
	case EffectSelfMoney:
		g.adjust(p, ResourceMoney, e.Amount, reason)
	case EffectSelfNerves:
		g.adjust(p, ResourceNerves, e.Amount, reason)
	case EffectSelfDocumentCards:
		g.adjust(p, ResourceDocumentCards, e.Amount, reason)
	case EffectBlockAction, EffectReduceEffect, EffectTargetNerves, EffectTargetMoney,
		EffectTargetDocumentCards, EffectBlockSabotage, EffectReflectSabotage:
		// only meaningful inside Announce
	default:
		g.log(log.NewContentErrorEvent(gs.Turn, gs.Phase, p.Seat, src.cardName(),
			fmt.Sprintf("%v %q", ErrUnknownEffect, e.Key)))
	}
	return nil
}

// significance returns the action tag an effect must be announced under, if any.
func (g *Game) significance(e Effect) (ActionType, bool) {
	switch e.Kind {
	case EffectMoney:
		if e.Amount > g.State.Config.SignificantMoneyGain {
			return ActionMoneyGain, true
		}
	case EffectDocumentLevel:
		if e.Amount > 0 {
			return ActionDocumentLevelUp, true
		}
	case EffectInstantDocumentUpgrade:
		return ActionDocumentLevelUp, true
	case EffectLanguageLevel:
		if e.Amount > 0 {
			return ActionPositiveEffect, true
		}
	case EffectLanguageLevelUp:
		return ActionPositiveEffect, true
	case EffectDocumentCards:
		if e.Amount >= 2 {
			return ActionResourceGain, true
		}
	case EffectMoneyPercent:
		return ActionMoneyPercentChange, true
	case EffectMoneyDivide:
		return ActionMoneyDivide, true
	}
	return "", false
}

// adjust changes a resource by delta, clamped to its range, logs the change,
// and returns the delta actually applied. Money is floored at zero unless it
// is already negative.
func (g *Game) adjust(p *Player, res Resource, delta int, reason string) int {
	if delta == 0 {
		return 0
	}
	var (
		field  *int
		lo, hi = 0, math.MaxInt
	)
	switch res {
	case ResourceMoney:
		field = &p.Money
	case ResourceNerves:
		field, lo, hi = &p.Nerves, MinNerves, MaxNerves
	case ResourceLanguageLevel:
		field, lo, hi = &p.LanguageLevel, MinLanguageLevel, MaxLanguageLevel
	case ResourceDocumentLevel:
		field, hi = &p.DocumentLevel, MaxDocumentLevel
	case ResourceDocumentCards:
		field = &p.DocumentCards
	default:
		return 0
	}
	old := *field
	if old < lo {
		lo = old
	}
	*field = clamp(old+delta, lo, hi)
	if *field != old {
		gs := g.State
		g.log(log.NewResourceChangedEvent(gs.Turn, gs.Phase, p.Seat, string(res), old, *field, reason))
	}
	return *field - old
}

// changeMoney moves money without the zero floor; rent can push a player into debt.
func (g *Game) changeMoney(p *Player, delta int, reason string) {
	if delta == 0 {
		return
	}
	gs := g.State
	old := p.Money
	p.Money += delta
	g.log(log.NewResourceChangedEvent(gs.Turn, gs.Phase, p.Seat, string(ResourceMoney), old, p.Money, reason))
}

// pay charges a card cost. Callers check CanPay first.
func (g *Game) pay(p *Player, c Cost, reason string) {
	g.adjust(p, ResourceMoney, -c.Money, reason)
	g.adjust(p, ResourceNerves, -c.Nerves, reason)
}

func (g *Game) setHousingLevel(p *Player, level int, reason string) {
	level = clamp(level, 1, 3)
	if level == p.HousingLevel {
		return
	}
	gs := g.State
	old := p.HousingLevel
	p.HousingLevel = level
	p.Housing = HousingForLevel(level)
	if cost, ok := gs.Config.HousingCosts[p.Housing]; ok {
		p.HousingCost = cost
	}
	g.log(log.NewResourceChangedEvent(gs.Turn, gs.Phase, p.Seat, string(ResourceHousingLevel), old, level, reason))
}

// drawInto draws n cards into a hand. Hand limits are enforced at end of turn.
func (g *Game) drawInto(p *Player, kind HandKind, n int) {
	deck := g.State.Deck(deckForHand(kind))
	for i := 0; i < n; i++ {
		card := deck.Draw()
		if card == nil {
			return
		}
		if kind == HandPersonal {
			p.PersonalItems = append(p.PersonalItems, card)
		} else {
			p.ActionCards = append(p.ActionCards, card)
		}
	}
}

// stealPermanentEffect takes one special ability, or failing that one immunity,
// from a player chosen by the thief's controller.
func (g *Game) stealPermanentEffect(thief *Player) error {
	gs := g.State
	var candidates []*Player
	for _, o := range gs.Others(thief) {
		if len(o.Abilities()) > 0 || len(o.ImmunityList()) > 0 {
			candidates = append(candidates, o)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	victim, err := g.controller(thief).ChooseTarget(g.ctx, gs, thief, "steal_permanent_effect", candidates)
	if err != nil {
		return err
	}
	if !containsPlayer(candidates, victim) {
		victim = candidates[0]
	}

	var stolen string
	if abilities := victim.Abilities(); len(abilities) > 0 {
		stolen = abilities[0]
		delete(victim.SpecialAbilities, stolen)
		thief.SpecialAbilities[stolen] = true
	} else {
		stolen = victim.ImmunityList()[0]
		delete(victim.Immunities, stolen)
		thief.Immunities[stolen] = true
	}
	victim.AddGrudge(thief.Seat, 1)
	g.log(log.NewEffectTheftEvent(gs.Turn, gs.Phase, thief.Seat, victim.Seat, stolen))
	return nil
}

func deckForHand(kind HandKind) DeckName {
	if kind == HandPersonal {
		return DeckPersonalItems
	}
	return DeckAction
}

func containsPlayer(players []*Player, p *Player) bool {
	for _, o := range players {
		if o == p {
			return true
		}
	}
	return false
}
