package mcp

import (
	"context"
	"fmt"

	"github.com/peterkuimelis/paperchase/internal/game"
	"github.com/peterkuimelis/paperchase/internal/log"
	"github.com/peterkuimelis/paperchase/internal/view"
)

// AgentController implements game.PlayerController by sending each decision
// to the session's pending channel and blocking on a response. Decisions with
// a single sensible answer are taken without asking.
type AgentController struct {
	seat       int
	session    *GameSession
	policy     *game.Policy // trade proposals
	responseCh chan int
}

// NewAgentController creates the controller for the agent's seat.
func NewAgentController(seat int, session *GameSession, tuning game.Tuning) *AgentController {
	return &AgentController{
		seat:       seat,
		session:    session,
		policy:     game.NewPolicy(tuning),
		responseCh: make(chan int),
	}
}

// ask publishes a decision and waits for the chosen index.
func (c *AgentController) ask(ctx context.Context, gs *game.GameState, typ DecisionType, prompt string, options []string) (int, error) {
	actions := make([]view.ActionView, len(options))
	for i, o := range options {
		actions[i] = view.ActionView{Index: i, Desc: o}
	}
	state := view.State(gs, c.seat)
	select {
	case c.session.pendingCh <- &PendingDecision{Type: typ, Prompt: prompt, Actions: actions, State: &state}:
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	select {
	case idx := <-c.responseCh:
		if idx < 0 || idx >= len(options) {
			return 0, nil
		}
		return idx, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func cardOption(c *game.Card) string {
	s := c.Name
	if !c.Cost.Zero() {
		s += fmt.Sprintf(" (costs %d money, %d nerves)", c.Cost.Money, c.Cost.Nerves)
	}
	if len(c.Effects) > 0 {
		s += ": " + c.Effects.String()
	}
	return s
}

// ChoosePreTurn implements game.PlayerController.
func (c *AgentController) ChoosePreTurn(ctx context.Context, gs *game.GameState, self *game.Player) (*game.PlayChoice, error) {
	var choices []game.PlayChoice
	options := []string{"Play nothing"}
	for _, kind := range []game.HandKind{game.HandAction, game.HandPersonal} {
		for _, card := range self.Hand(kind) {
			if kind == game.HandAction && card.Reactive() {
				continue
			}
			if !self.CanPay(card.Cost) || !card.Conditions.Met(self) {
				continue
			}
			choices = append(choices, game.PlayChoice{Hand: kind, Card: card})
			options = append(options, fmt.Sprintf("Play %s %s", kind, cardOption(card)))
		}
	}
	if len(choices) == 0 {
		return nil, nil
	}
	idx, err := c.ask(ctx, gs, DecisionPreTurn, "Play a card before moving?", options)
	if err != nil || idx == 0 {
		return nil, err
	}
	return &choices[idx-1], nil
}

// ChooseCellAction implements game.PlayerController.
func (c *AgentController) ChooseCellAction(ctx context.Context, gs *game.GameState, self *game.Player) (game.CellAction, error) {
	options := []string{
		"Draw a green card",
		fmt.Sprintf("Buy a document level for %d money", gs.DocumentLevelPrice(self)),
		"Take a personal item",
	}
	idx, err := c.ask(ctx, gs, DecisionCellAction, "You are on a green cell.", options)
	if err != nil {
		return game.CellDrawGreen, err
	}
	return []game.CellAction{game.CellDrawGreen, game.CellBuyDocumentLevel, game.CellTakePersonalItem}[idx], nil
}

// ChooseGreenUse implements game.PlayerController.
func (c *AgentController) ChooseGreenUse(ctx context.Context, gs *game.GameState, self *game.Player, card *game.Card) (game.GreenUse, error) {
	options := []string{
		"Resolve the card: " + cardOption(card),
		fmt.Sprintf("Use it for a document exchange (costs %d document cards)", self.ExchangeCost()),
	}
	idx, err := c.ask(ctx, gs, DecisionGreenUse, "You drew "+card.Name+".", options)
	if err != nil || idx == 0 {
		return game.GreenUseEvent, err
	}
	return game.GreenUseExchange, nil
}

// ChooseInterference implements game.PlayerController.
func (c *AgentController) ChooseInterference(ctx context.Context, gs *game.GameState, self *game.Player, ev *game.InteractiveEvent) (*game.Card, error) {
	var cards []*game.Card
	options := []string{"Let it happen"}
	for _, card := range self.ActionCards {
		if card.AppliesTo(ev.Action) && self.CanPay(card.Cost) {
			cards = append(cards, card)
			options = append(options, "Interfere with "+cardOption(card))
		}
	}
	if len(cards) == 0 {
		return nil, nil
	}
	idx, err := c.ask(ctx, gs, DecisionInterference, ev.Actor.Name+": "+ev.Description, options)
	if err != nil || idx == 0 {
		return nil, err
	}
	return cards[idx-1], nil
}

// ChooseDefense implements game.PlayerController.
func (c *AgentController) ChooseDefense(ctx context.Context, gs *game.GameState, self *game.Player, ev *game.InteractiveEvent) (*game.Card, error) {
	var cards []*game.Card
	options := []string{"Accept the interference"}
	for _, card := range self.ActionCards {
		if card.IsDefense() && self.CanPay(card.Cost) {
			cards = append(cards, card)
			options = append(options, "Defend with "+cardOption(card))
		}
	}
	if len(cards) == 0 {
		return nil, nil
	}
	prompt := "Your action was interfered with"
	if ev.Interferer != nil && ev.InterferenceCard != nil {
		prompt = fmt.Sprintf("%s played %s against you", ev.Interferer.Name, ev.InterferenceCard.Name)
	}
	idx, err := c.ask(ctx, gs, DecisionDefense, prompt, options)
	if err != nil || idx == 0 {
		return nil, err
	}
	return cards[idx-1], nil
}

// ProposeTrade implements game.PlayerController.
func (c *AgentController) ProposeTrade(ctx context.Context, gs *game.GameState, self *game.Player) (*game.TradeProposal, error) {
	return c.policy.ProposeTrade(ctx, gs, self)
}

// EvaluateTrade implements game.PlayerController.
func (c *AgentController) EvaluateTrade(ctx context.Context, gs *game.GameState, self *game.Player, offer *game.TradeOffer) (bool, error) {
	idx, err := c.ask(ctx, gs, DecisionTrade, offer.String(), []string{"Decline", "Accept"})
	return idx == 1, err
}

// ChooseTarget implements game.PlayerController.
func (c *AgentController) ChooseTarget(ctx context.Context, gs *game.GameState, self *game.Player, prompt string, candidates []*game.Player) (*game.Player, error) {
	if len(candidates) == 1 {
		return candidates[0], nil
	}
	options := make([]string, len(candidates))
	for i, p := range candidates {
		options[i] = p.String()
	}
	idx, err := c.ask(ctx, gs, DecisionTarget, prompt, options)
	if err != nil {
		return nil, err
	}
	return candidates[idx], nil
}

// ChooseDiscard implements game.PlayerController.
func (c *AgentController) ChooseDiscard(ctx context.Context, gs *game.GameState, self *game.Player, kind game.HandKind) (*game.Card, error) {
	hand := self.Hand(kind)
	if len(hand) == 0 {
		return nil, nil
	}
	options := make([]string, len(hand))
	for i, card := range hand {
		options[i] = "Discard " + cardOption(card)
	}
	idx, err := c.ask(ctx, gs, DecisionDiscard, fmt.Sprintf("Too many %ss, discard one.", kind), options)
	if err != nil {
		return nil, err
	}
	return hand[idx], nil
}

// Notify implements game.PlayerController.
func (c *AgentController) Notify(ctx context.Context, event log.GameEvent) error {
	c.session.appendEvent(view.Event(event))
	return nil
}
