package game

import (
	"context"
	"math"

	"github.com/peterkuimelis/paperchase/internal/log"
)

// PolicyVersion identifies the rule set implemented by Policy. Bump it when a
// rule or weight changes so batch results stay comparable.
const PolicyVersion = "v3"

// Tuning holds every threshold and weight the AI policy reads.
type Tuning struct {
	NerveThreshold int     `yaml:"nerve_threshold"`
	CloseToWin     float64 `yaml:"close_to_win"`

	InterfereCloseToWin float64 `yaml:"interfere_close_to_win"`
	InterfereLowTrust   float64 `yaml:"interfere_low_trust"`
	InterfereGrudge     float64 `yaml:"interfere_grudge"`
	InterfereDoingWell  float64 `yaml:"interfere_doing_well"`
	InterfereBase       float64 `yaml:"interfere_base"`

	LowTrust           float64 `yaml:"low_trust"`
	GrudgeThreshold    int     `yaml:"grudge_threshold"`
	DoingWellProgress  float64 `yaml:"doing_well_progress"`
	MaxMoneySpendRatio float64 `yaml:"max_money_spend_ratio"`
	NerveReserve       int     `yaml:"nerve_reserve"`

	TradeChance          float64 `yaml:"trade_chance"`
	LieProbability       float64 `yaml:"lie_probability"`
	MoneyMargin          int     `yaml:"money_margin"`
	DocumentMargin       int     `yaml:"document_margin"`
	MaxItemsForMoneyGoal int     `yaml:"max_items_for_money_goal"`

	MoneyValue        float64 `yaml:"money_value"`
	DocumentCardValue float64 `yaml:"document_card_value"`
	NerveValue        float64 `yaml:"nerve_value"`
}

// DefaultTuning returns the weights the balance reports are produced with.
func DefaultTuning() Tuning {
	return Tuning{
		NerveThreshold: 4,
		CloseToWin:     0.75,

		InterfereCloseToWin: 0.7,
		InterfereLowTrust:   0.4,
		InterfereGrudge:     0.5,
		InterfereDoingWell:  0.2,
		InterfereBase:       0.3,

		LowTrust:           0.3,
		GrudgeThreshold:    2,
		DoingWellProgress:  0.5,
		MaxMoneySpendRatio: 0.3,
		NerveReserve:       2,

		TradeChance:          0.5,
		LieProbability:       0.3,
		MoneyMargin:          5,
		DocumentMargin:       2,
		MaxItemsForMoneyGoal: 3,

		MoneyValue:        0.2,
		DocumentCardValue: 1.0,
		NerveValue:        1.0,
	}
}

// Policy is the heuristic AI. Every decision is an ordered rule list where the
// first matching rule wins. All randomness comes from the game RNG so runs
// stay reproducible.
type Policy struct {
	Version string
	Tuning
}

// NewPolicy creates the AI policy with the given weights.
func NewPolicy(t Tuning) *Policy {
	return &Policy{Version: PolicyVersion, Tuning: t}
}

var _ PlayerController = (*Policy)(nil)

// --- Pre-turn ---

func (a *Policy) ChoosePreTurn(_ context.Context, gs *GameState, self *Player) (*PlayChoice, error) {
	// a stressed player plays any nerve card it can afford, ignoring spend limits
	if self.Nerves < a.NerveThreshold {
		affordable := a.playable(self, self.CanPay)
		if c := firstChoice(affordable, func(c *Card) bool { return c.Effects.Amount(EffectNerves) > 0 }); c != nil {
			return c, nil
		}
	}

	playable := a.playable(self, func(c Cost) bool { return a.willingToPay(self, c) })
	if len(playable) == 0 {
		return nil, nil
	}

	if self.GoalChosen {
		for _, r := range UnmetRequirements(self) {
			if c := firstChoice(playable, func(c *Card) bool { return raises(c.Effects, r.Resource) }); c != nil {
				return c, nil
			}
		}
	} else if c := firstChoice(playable, func(c *Card) bool { return c.Effects.Amount(EffectDocumentCards) > 0 }); c != nil {
		return c, nil
	}

	return firstChoice(playable, func(c *Card) bool {
		switch {
		case c.Effects.Amount(EffectMoney) > 0, c.Effects.Amount(EffectDocumentCards) > 0, c.Effects.Has(EffectBonus):
			return true
		case c.Effects.Has(EffectStealPermanent):
			return a.stealTarget(self, stealable(gs, self)) != nil
		}
		return false
	}), nil
}

// playable lists cards the player could play now and pay for under pay,
// action cards first.
func (a *Policy) playable(self *Player, pay func(Cost) bool) []PlayChoice {
	var out []PlayChoice
	for _, kind := range []HandKind{HandAction, HandPersonal} {
		for _, c := range self.Hand(kind) {
			if kind == HandAction && c.Reactive() {
				continue
			}
			if !pay(c.Cost) || !c.Conditions.Met(self) {
				continue
			}
			out = append(out, PlayChoice{Hand: kind, Card: c})
		}
	}
	return out
}

func firstChoice(choices []PlayChoice, match func(*Card) bool) *PlayChoice {
	for i := range choices {
		if match(choices[i].Card) {
			return &choices[i]
		}
	}
	return nil
}

// raises reports whether the effects increase the given goal resource.
func raises(es Effects, res Resource) bool {
	switch res {
	case ResourceMoney:
		return es.Amount(EffectMoney) > 0
	case ResourceNerves:
		return es.Amount(EffectNerves) > 0
	case ResourceDocumentCards:
		return es.Amount(EffectDocumentCards) > 0
	case ResourceDocumentLevel:
		return es.Amount(EffectDocumentLevel) > 0 || es.Has(EffectInstantDocumentUpgrade)
	case ResourceLanguageLevel:
		return es.Amount(EffectLanguageLevel) > 0 || es.Has(EffectLanguageLevelUp)
	case ResourceHousingLevel, ResourceHousingType:
		return es.Has(EffectUpgradeHousing)
	}
	return false
}

// willingToPay keeps the AI from spending more than a share of its money or
// dipping into its nerve reserve.
func (a *Policy) willingToPay(self *Player, c Cost) bool {
	if !self.CanPay(c) {
		return false
	}
	if c.Money > 0 && float64(c.Money) > a.MaxMoneySpendRatio*float64(self.Money) {
		return false
	}
	return c.Nerves == 0 || c.Nerves < self.Nerves-a.NerveReserve
}

// --- Cells ---

func (a *Policy) ChooseCellAction(_ context.Context, gs *GameState, self *Player) (CellAction, error) {
	price := gs.DocumentLevelPrice(self)
	if self.DocumentLevel < MaxDocumentLevel && self.Money-price >= self.HousingCost && a.wantsDocumentLevel(self) {
		return CellBuyDocumentLevel, nil
	}

	items := len(self.PersonalItems)
	switch {
	case items == 0:
		return CellTakePersonalItem, nil
	case items >= gs.Config.MaxPersonalItems:
		return CellDrawGreen, nil
	case self.Goal != nil && self.Goal.MoneyRequirement() > self.Money && items < a.MaxItemsForMoneyGoal:
		return CellTakePersonalItem, nil
	}
	return CellDrawGreen, nil
}

func (a *Policy) wantsDocumentLevel(self *Player) bool {
	if self.Goal == nil {
		return true
	}
	r, ok := self.Goal.Requirement(ResourceDocumentLevel)
	return ok && self.DocumentLevel < r.Min
}

func (a *Policy) ChooseGreenUse(_ context.Context, _ *GameState, self *Player, _ *Card) (GreenUse, error) {
	enough := self.DocumentCards >= self.ExchangeCost() && self.DocumentLevel < MaxDocumentLevel
	if enough && a.wantsDocumentLevel(self) {
		return GreenUseExchange, nil
	}
	return GreenUseEvent, nil
}

// --- Reactions ---

func (a *Policy) ChooseInterference(_ context.Context, gs *GameState, self *Player, ev *InteractiveEvent) (*Card, error) {
	target := ev.Actor
	if len(ev.Effects) > 0 && ev.PositiveAmount() == 0 && ev.Action != ActionCloseToWin {
		return nil, nil
	}

	var best *Card
	bestScore := 0.0
	for _, c := range self.ActionCards {
		if !c.AppliesTo(ev.Action) || !a.willingToPay(self, c.Cost) {
			continue
		}
		if s := impact(c); best == nil || s > bestScore {
			best, bestScore = c, s
		}
	}
	if best == nil {
		return nil, nil
	}

	var chance float64
	switch {
	case WinProgress(target) >= a.CloseToWin:
		chance = a.InterfereCloseToWin
	case self.TrustIn(target.Seat) < a.LowTrust:
		chance = a.InterfereLowTrust
	case self.Grudge(target.Seat) >= a.GrudgeThreshold:
		chance = a.InterfereGrudge
	case WinProgress(self) >= a.DoingWellProgress:
		chance = a.InterfereDoingWell
	default:
		chance = a.InterfereBase
	}
	if gs.Rand.Float64() >= chance {
		return nil, nil
	}
	return best, nil
}

// impact scores how much an interference card hurts its target.
func impact(c *Card) float64 {
	score := 0.0
	if c.Effects.Has(EffectBlockAction) {
		score += 5
	}
	if e, ok := c.Effects.Find(EffectReduceEffect); ok {
		score += e.Ratio * 3
	}
	score += math.Abs(float64(c.Effects.Amount(EffectTargetNerves)))
	score += math.Abs(float64(c.Effects.Amount(EffectTargetMoney))) * 0.5
	score += math.Abs(float64(c.Effects.Amount(EffectTargetDocumentCards)))
	return score
}

func (a *Policy) ChooseDefense(_ context.Context, _ *GameState, self *Player, ev *InteractiveEvent) (*Card, error) {
	desperate := ev.Interferer != nil && WinProgress(ev.Interferer) >= a.CloseToWin
	for _, c := range self.ActionCards {
		if !c.IsDefense() || !self.CanPay(c.Cost) {
			continue
		}
		if desperate || a.willingToPay(self, c.Cost) {
			return c, nil
		}
	}
	return nil, nil
}

// --- Trades ---

func (a *Policy) ProposeTrade(_ context.Context, gs *GameState, self *Player) (*TradeProposal, error) {
	need, amount := a.urgentNeed(self)
	if need == "" {
		return nil, nil
	}
	offered := a.spare(self, need)
	if offered == nil {
		return nil, nil
	}
	if gs.Rand.Float64() >= a.TradeChance {
		return nil, nil
	}
	return &TradeProposal{Requested: Resources{need: amount}, Offered: offered}, nil
}

// urgentNeed returns the resource the player is short of, in priority order.
func (a *Policy) urgentNeed(self *Player) (Resource, int) {
	if self.Nerves <= a.NerveThreshold {
		return ResourceNerves, 1
	}
	if self.Goal != nil {
		if gap := self.Goal.MoneyRequirement() - self.Money; gap > 0 && gap <= a.MoneyMargin {
			return ResourceMoney, gap
		}
	}
	if self.DocumentLevel < MaxDocumentLevel {
		if gap := self.ExchangeCost() - self.DocumentCards; gap > 0 && gap <= a.DocumentMargin {
			return ResourceDocumentCards, gap
		}
	}
	return "", 0
}

// spare picks something worth giving away that is not the resource needed.
func (a *Policy) spare(self *Player, need Resource) Resources {
	switch {
	case need != ResourceDocumentCards && self.DocumentCards > 0 && a.documentsSpare(self):
		return Resources{ResourceDocumentCards: 1}
	case need != ResourceMoney && self.Money-self.HousingCost >= 6 && (self.Goal == nil || self.Goal.MoneyRequirement() < self.Money-3):
		return Resources{ResourceMoney: 3}
	case need != ResourceNerves && self.Nerves > a.NerveThreshold+a.NerveReserve && len(nerveCards(self)) > 0:
		return Resources{ResourceNerves: 1}
	}
	return nil
}

func (a *Policy) documentsSpare(self *Player) bool {
	if self.DocumentLevel >= MaxDocumentLevel {
		return true
	}
	return self.Goal != nil && !a.wantsDocumentLevel(self)
}

func (a *Policy) EvaluateTrade(_ context.Context, _ *GameState, self *Player, offer *TradeOffer) (bool, error) {
	if self.Grudge(offer.Offerer.Seat) >= a.GrudgeThreshold {
		return false, nil
	}
	if !CanSupply(self, offer.Requested) {
		return false, nil
	}
	threshold := 2 - self.TrustIn(offer.Offerer.Seat) - self.Desperation()
	return a.value(offer.Claimed) >= threshold, nil
}

func (a *Policy) value(items Resources) float64 {
	return float64(items[ResourceMoney])*a.MoneyValue +
		float64(items[ResourceDocumentCards])*a.DocumentCardValue +
		float64(items[ResourceNerves])*a.NerveValue
}

// --- Targets and discards ---

func (a *Policy) ChooseTarget(_ context.Context, _ *GameState, self *Player, _ string, candidates []*Player) (*Player, error) {
	return a.stealTarget(self, candidates), nil
}

// stealTarget prefers whoever the player holds the biggest grudge against,
// then the leader by goal progress and money.
func (a *Policy) stealTarget(self *Player, candidates []*Player) *Player {
	var best *Player
	for _, c := range candidates {
		if self.Grudge(c.Seat) > 0 && (best == nil || self.Grudge(c.Seat) > self.Grudge(best.Seat)) {
			best = c
		}
	}
	if best != nil {
		return best
	}
	for _, c := range candidates {
		if best == nil || leads(c, best) {
			best = c
		}
	}
	return best
}

func leads(p, q *Player) bool {
	pp, qp := WinProgress(p), WinProgress(q)
	if pp != qp {
		return pp > qp
	}
	return p.Money > q.Money
}

func stealable(gs *GameState, self *Player) []*Player {
	var out []*Player
	for _, o := range gs.Others(self) {
		if len(o.SpecialAbilities) > 0 || len(o.Immunities) > 0 {
			out = append(out, o)
		}
	}
	return out
}

func (a *Policy) ChooseDiscard(_ context.Context, _ *GameState, self *Player, kind HandKind) (*Card, error) {
	var worst *Card
	worstScore := math.Inf(1)
	for _, c := range self.Hand(kind) {
		if s := a.cardValue(c); s < worstScore {
			worst, worstScore = c, s
		}
	}
	return worst, nil
}

// cardValue is a rough worth used to pick discards. Reactive cards count for
// their impact.
func (a *Policy) cardValue(c *Card) float64 {
	if c.Type == CardTypeInterference {
		return impact(c)
	}
	if c.IsDefense() {
		return 2
	}
	return float64(c.Effects.Amount(EffectMoney))*a.MoneyValue +
		float64(c.Effects.Amount(EffectDocumentCards))*a.DocumentCardValue +
		float64(c.Effects.Amount(EffectNerves))*a.NerveValue -
		float64(c.Cost.Money)*a.MoneyValue - float64(c.Cost.Nerves)*a.NerveValue
}

func (a *Policy) Notify(_ context.Context, _ log.GameEvent) error {
	return nil
}
