package game

import (
	"fmt"
	"sort"
	"strings"

	"github.com/peterkuimelis/paperchase/internal/log"
)

// Trust and nerve consequences of a trade.
const (
	HonestTrustGain    = 0.2
	ScamTrustLoss      = 0.4
	ScamOffererNerves  = 2
	ScamAcceptorNerves = 1
)

// Resources is a bundle of tradeable quantities.
type Resources map[Resource]int

// Clone returns an independent copy.
func (r Resources) Clone() Resources {
	out := make(Resources, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func (r Resources) keys() []Resource {
	keys := make([]Resource, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func (r Resources) String() string {
	parts := make([]string, 0, len(r))
	for _, k := range r.keys() {
		parts = append(parts, fmt.Sprintf("%s:%d", k, r[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (r Resources) valid() bool {
	if len(r) == 0 {
		return false
	}
	for k, v := range r {
		if !k.Tradeable() || v <= 0 {
			return false
		}
	}
	return true
}

// TradeProposal is what a controller wants to trade this turn.
type TradeProposal struct {
	Requested Resources
	Offered   Resources
}

// TradeOffer lives for one negotiation. Claimed is what the offerer promises;
// Actual is what they can really hand over.
type TradeOffer struct {
	Offerer   *Player
	Requested Resources
	Claimed   Resources
	Actual    Resources
	Deceptive bool
}

func (o *TradeOffer) String() string {
	return fmt.Sprintf("%s offers %s for %s", o.Offerer.Name, o.Claimed, o.Requested)
}

// Holdings is how much of a tradeable resource p can hand over. Nerves are
// delivered by spending nerve-restoring action cards, so they count the
// nerve points on those cards.
func Holdings(p *Player, res Resource) int {
	switch res {
	case ResourceMoney:
		return max(p.Money, 0)
	case ResourceDocumentCards:
		return p.DocumentCards
	case ResourceNerves:
		total := 0
		for _, c := range nerveCards(p) {
			total += c.Effects.Amount(EffectNerves)
		}
		return total
	default:
		return 0
	}
}

func nerveCards(p *Player) []*Card {
	var out []*Card
	for _, c := range p.ActionCards {
		if !c.Reactive() && c.Effects.Amount(EffectNerves) > 0 {
			out = append(out, c)
		}
	}
	return out
}

// CanSupply reports whether p holds every item of the bundle.
func CanSupply(p *Player, items Resources) bool {
	for res, n := range items {
		if Holdings(p, res) < n {
			return false
		}
	}
	return true
}

// CreateOffer builds p's offer. The claim is always what p proposed. With a
// probability driven by desperation and the profile's honesty p lies, and the
// actual deliverable is capped at what p holds; any shortfall against the
// claim turns into a scam when the trade executes.
func (g *Game) CreateOffer(p *Player, requested, offered Resources) *TradeOffer {
	tuning := g.State.Config.AI
	lie := tuning.LieProbability + 0.2*p.Desperation() + 0.2*(1-p.Honesty)

	offer := &TradeOffer{
		Offerer:   p,
		Requested: requested.Clone(),
		Claimed:   offered.Clone(),
		Actual:    make(Resources, len(offered)),
		Deceptive: g.State.Rand.Float64() < lie,
	}
	for _, k := range offered.keys() {
		offer.Actual[k] = min(offered[k], Holdings(p, k))
		if offer.Actual[k] < offered[k] {
			offer.Deceptive = true
		}
	}
	return offer
}

// FindPartners returns the active players, other than the offerer, who can
// supply everything requested.
func (g *Game) FindPartners(offer *TradeOffer) []*Player {
	var out []*Player
	for _, o := range g.State.Others(offer.Offerer) {
		if CanSupply(o, offer.Requested) {
			out = append(out, o)
		}
	}
	return out
}

// ExecuteTrade completes an accepted offer. It returns false without any
// change if the acceptor cannot pay, and false with a scam penalty when the
// offerer cannot deliver what was claimed. A lie the offerer can still cover
// goes through as an honest trade. Otherwise both sides transfer
// atomically and trust grows.
func (g *Game) ExecuteTrade(offer *TradeOffer, acceptor *Player) bool {
	gs := g.State
	offerer := offer.Offerer
	if !CanSupply(acceptor, offer.Requested) {
		return false
	}

	scam := !CanSupply(offerer, offer.Actual)
	for k, v := range offer.Claimed {
		if offer.Actual[k] < v {
			scam = true
		}
	}
	if scam {
		g.adjust(offerer, ResourceNerves, -ScamOffererNerves, "trade scam")
		g.adjust(acceptor, ResourceNerves, -ScamAcceptorNerves, "trade scam")
		offerer.AdjustTrust(acceptor.Seat, -ScamTrustLoss)
		acceptor.AdjustTrust(offerer.Seat, -ScamTrustLoss)
		acceptor.AddGrudge(offerer.Seat, 1)
		g.log(log.NewTradeScamEvent(gs.Turn, offerer.Seat, acceptor.Seat, offer.String()))
		return false
	}

	g.transfer(acceptor, offerer, offer.Requested)
	g.transfer(offerer, acceptor, offer.Actual)
	offerer.AdjustTrust(acceptor.Seat, HonestTrustGain)
	acceptor.AdjustTrust(offerer.Seat, HonestTrustGain)
	g.log(log.NewTradeExecutedEvent(gs.Turn, offerer.Seat, acceptor.Seat, offer.String()))
	return true
}

// transfer moves a bundle the giver is known to hold.
func (g *Game) transfer(from, to *Player, items Resources) {
	for _, res := range items.keys() {
		n := items[res]
		switch res {
		case ResourceMoney:
			g.adjust(from, ResourceMoney, -n, "trade")
			g.adjust(to, ResourceMoney, n, "trade")
		case ResourceDocumentCards:
			g.adjust(from, ResourceDocumentCards, -n, "trade")
			g.adjust(to, ResourceDocumentCards, n, "trade")
		case ResourceNerves:
			// cards are spent until they cover n; any excess on the last card is lost
			needed := n
			for _, card := range nerveCards(from) {
				if needed <= 0 {
					break
				}
				from.RemoveCard(HandAction, card)
				g.State.Deck(DeckAction).Discard(card)
				needed -= card.Effects.Amount(EffectNerves)
			}
			g.adjust(to, ResourceNerves, n, "trade")
		}
	}
}

func (g *Game) tradePhase(p *Player) error {
	gs := g.State
	g.setPhase(PhaseTrade)

	proposal, err := g.controller(p).ProposeTrade(g.ctx, gs, p)
	if err != nil || proposal == nil {
		return err
	}
	if !proposal.Requested.valid() || !proposal.Offered.valid() {
		return nil
	}

	offer := g.CreateOffer(p, proposal.Requested, proposal.Offered)
	g.log(log.NewTradeProposedEvent(gs.Turn, p.Seat, offer.String()))

	partners := g.FindPartners(offer)
	gs.Rand.Shuffle(len(partners), func(i, j int) {
		partners[i], partners[j] = partners[j], partners[i]
	})
	for _, partner := range partners {
		accept, err := g.controller(partner).EvaluateTrade(g.ctx, gs, partner, offer)
		if err != nil {
			return err
		}
		if accept {
			g.ExecuteTrade(offer, partner)
			return nil
		}
	}
	return nil
}
