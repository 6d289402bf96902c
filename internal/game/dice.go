package game

import (
	"fmt"

	"github.com/peterkuimelis/paperchase/internal/log"
)

func (g *Game) rollDie() int {
	return g.State.Rand.Intn(6) + 1
}

// rollLanguageDice rolls for a challenge. Level 1 keeps the worse of two dice,
// level 2 rolls one die, level 3 keeps the better of two.
func (g *Game) rollLanguageDice(p *Player) int {
	level := p.LanguageLevel
	if p.HasAbility(AbilityLanguageDiceAdvantage) && level < MaxLanguageLevel {
		level++
	}

	roll := g.rollLevel(level)
	if roll <= 2 && p.HasAbility(AbilityRerollLanguageDice) {
		roll = g.rollLevel(level)
	}

	roll += p.TemporaryBonuses[BonusLanguage]
	if p.HasAbility(AbilityPermanentLanguage) {
		roll++
	}
	return roll
}

func (g *Game) rollLevel(level int) int {
	switch {
	case level <= 1:
		return min(g.rollDie(), g.rollDie())
	case level == 2:
		return g.rollDie()
	default:
		return max(g.rollDie(), g.rollDie())
	}
}

// ResolveChallenge rolls language dice for card's challenge table and applies
// the matching outcome. Significant outcome effects get their own reaction
// window.
func (g *Game) ResolveChallenge(p *Player, card *Card) error {
	gs := g.State
	roll := g.rollLanguageDice(p)
	label, effects := card.Challenge.Resolve(roll)
	g.log(log.NewChallengeResolvedEvent(gs.Turn, gs.Phase, p.Seat, card.Name, roll, label))
	return g.Apply(p, effects, Source{
		Card:   card,
		Reason: fmt.Sprintf("%s (%s)", card.Name, label),
	})
}
