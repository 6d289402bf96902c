package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/peterkuimelis/paperchase/internal/log"
	"github.com/peterkuimelis/paperchase/internal/random"
)

// PlayerController makes every decision for one seat. The AI policy and any
// external driver implement it; the engine never asks who is behind a seat.
type PlayerController interface {
	// ChoosePreTurn picks a card to play before moving, or nil to skip.
	ChoosePreTurn(ctx context.Context, gs *GameState, self *Player) (*PlayChoice, error)

	// ChooseCellAction decides what to do on a green cell.
	ChooseCellAction(ctx context.Context, gs *GameState, self *Player) (CellAction, error)

	// ChooseGreenUse decides whether an exchangeable green card is exchanged or played.
	ChooseGreenUse(ctx context.Context, gs *GameState, self *Player, card *Card) (GreenUse, error)

	// ChooseInterference picks an action card to interfere with ev, or nil.
	ChooseInterference(ctx context.Context, gs *GameState, self *Player, ev *InteractiveEvent) (*Card, error)

	// ChooseDefense picks a counter card against the interference on ev, or nil.
	ChooseDefense(ctx context.Context, gs *GameState, self *Player, ev *InteractiveEvent) (*Card, error)

	// ProposeTrade returns the trade the player wants this turn, or nil.
	ProposeTrade(ctx context.Context, gs *GameState, self *Player) (*TradeProposal, error)

	// EvaluateTrade decides whether to accept an offer.
	EvaluateTrade(ctx context.Context, gs *GameState, self *Player, offer *TradeOffer) (bool, error)

	// ChooseTarget picks one of the candidates (e.g. whom to steal from).
	ChooseTarget(ctx context.Context, gs *GameState, self *Player, prompt string, candidates []*Player) (*Player, error)

	// ChooseDiscard picks a card to drop when a hand is over its limit.
	ChooseDiscard(ctx context.Context, gs *GameState, self *Player, kind HandKind) (*Card, error)

	// Notify sends a game event notification (no response needed).
	Notify(ctx context.Context, event log.GameEvent) error
}

// PlayChoice names a card in one of the player's hands.
type PlayChoice struct {
	Hand HandKind
	Card *Card
}

// GameConfig holds everything needed to create a game.
type GameConfig struct {
	Config  Config
	Content *Content
	Logger  log.EventLogger

	// Controllers by seat; missing or nil seats get the AI policy.
	Controllers []PlayerController
}

// Result is the outcome of one game.
type Result struct {
	Winner        int // seat, -1 for none
	WinnerName    string
	WinnerProfile string
	Turns         int
	EndReason     EndReason
	Seed          int64
}

// Game orchestrates an entire game.
type Game struct {
	State       *GameState
	Controllers []PlayerController
	Logger      log.EventLogger
	Seed        int64
	ctx         context.Context
	started     int
	maxRounds   int
}

// NewGame creates a new game from the given config. A zero seed draws one
// from crypto/rand so the run can still be replayed from Result.Seed.
func NewGame(cfg GameConfig) (*Game, error) {
	if cfg.Content == nil {
		return nil, fmt.Errorf("game needs content")
	}
	rules := cfg.Config
	rules.withDefaults()
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	seed := rules.Seed
	if seed == 0 {
		var err error
		if seed, err = random.NewSeed(); err != nil {
			return nil, err
		}
	}
	rng := rand.New(rand.NewSource(seed))

	gs, err := NewGameState(&rules, cfg.Content, rng)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewMemoryLogger()
	}

	g := &Game{
		State:     gs,
		Logger:    logger,
		Seed:      seed,
		ctx:       context.Background(),
		started:   len(gs.Players),
		maxRounds: rules.MaxRounds(len(gs.Players)),
	}
	for seat := range gs.Players {
		var ctrl PlayerController
		if seat < len(cfg.Controllers) {
			ctrl = cfg.Controllers[seat]
		}
		if ctrl == nil {
			ctrl = NewPolicy(rules.AI)
		}
		g.Controllers = append(g.Controllers, ctrl)
	}
	for _, d := range gs.Decks {
		d.OnReshuffle = func(name DeckName, n int) {
			g.log(log.NewReshuffleEvent(g.State.Turn, string(name), n))
		}
	}
	return g, nil
}

// Run executes the entire game loop. Content problems never stop a game;
// a broken invariant ends it with an error wrapping ErrInvariant, or panics
// when Config.Strict is set.
func (g *Game) Run(ctx context.Context) (Result, error) {
	g.ctx = ctx
	gs := g.State
	gs.Status = StatusPlaying

	for !gs.Over() {
		if err := ctx.Err(); err != nil {
			g.abort()
			return g.result(), err
		}
		if gs.Turn >= g.maxRounds {
			g.endTimeLimit()
			break
		}
		if err := g.runRound(); err != nil {
			g.abort()
			return g.result(), err
		}
	}

	return g.result(), nil
}

// runRound gives every active player one turn in seat order.
func (g *Game) runRound() error {
	gs := g.State
	gs.Turn++

	if g.checkLastStanding() {
		return nil
	}

	for _, p := range gs.Players {
		if gs.Over() {
			return nil
		}
		if !p.Active() {
			continue
		}
		gs.Current = p.Seat
		if err := g.runTurn(p); err != nil {
			return err
		}
		if err := g.checkInvariants(); err != nil {
			return err
		}
	}
	return nil
}

// runTurn executes a single turn for p.
func (g *Game) runTurn(p *Player) error {
	gs := g.State
	g.log(log.NewTurnStartedEvent(gs.Turn, p.Seat, p.Name))

	steps := []func(*Player) error{
		g.preTurnPhase,
		g.movementPhase,
		g.tradePhase,
		g.cellPhase,
	}
	for _, step := range steps {
		if err := step(p); err != nil {
			return err
		}
		if gs.Over() || !p.Active() {
			return nil
		}
	}

	g.checkGoalSelection(p)
	if err := g.announceCloseToWin(p); err != nil {
		return err
	}
	if g.checkWin(p) {
		return nil
	}
	if g.checkEliminations() {
		return nil
	}
	if err := g.enforceHandLimits(); err != nil {
		return err
	}
	for k := range p.TemporaryBonuses {
		delete(p.TemporaryBonuses, k)
	}
	return nil
}

// checkGoalSelection assigns a random goal once the document threshold is reached.
func (g *Game) checkGoalSelection(p *Player) {
	gs := g.State
	goals := gs.Content.Goals
	if p.GoalChosen || len(goals) == 0 || p.DocumentLevel < gs.Config.GoalSelectionLevel {
		return
	}
	goal := goals[gs.Rand.Intn(len(goals))]
	p.Goal = &goal
	p.GoalChosen = true
	g.log(log.NewGoalChosenEvent(gs.Turn, p.Seat, goal.Name))
}

// announceCloseToWin opens a reaction window while p is near their goal.
func (g *Game) announceCloseToWin(p *Player) error {
	progress := WinProgress(p)
	if progress < g.State.Config.AI.CloseToWin || CheckWin(p) {
		return nil
	}
	g.log(log.NewCloseToWinEvent(g.State.Turn, p.Seat, progress))
	_, err := g.Announce(NewInteractiveEvent(ActionCloseToWin, p, nil, p.Name+" is close to winning"))
	return err
}

func (g *Game) checkWin(p *Player) bool {
	if !p.Active() || !CheckWin(p) {
		return false
	}
	g.log(log.NewWinEvent(g.State.Turn, p.Seat, p.Goal.Name))
	g.end(p.Seat, EndWin)
	return true
}

// checkEliminations flags every player whose nerves or money fell below the
// limits, then ends the game if at most one player remains. Nerves are compared
// after clamping.
func (g *Game) checkEliminations() bool {
	gs := g.State
	for _, p := range gs.Players {
		if !p.Active() {
			continue
		}
		reason := ""
		switch {
		case p.Nerves <= gs.Config.EliminationThreshold:
			reason = fmt.Sprintf("nerves %d", p.Nerves)
		case p.Money < 0:
			reason = fmt.Sprintf("money %d", p.Money)
		}
		if reason == "" {
			continue
		}
		p.Eliminated = true
		p.EliminatedOnTurn = gs.Turn
		g.log(log.NewEliminationEvent(gs.Turn, p.Seat, reason))
	}
	return g.checkLastStanding()
}

// checkLastStanding ends the game when more than one player started and at
// most one is left.
func (g *Game) checkLastStanding() bool {
	gs := g.State
	if g.started <= 1 {
		return false
	}
	active := gs.ActivePlayers()
	if len(active) > 1 {
		return false
	}
	winner := -1
	if len(active) == 1 {
		winner = active[0].Seat
	}
	g.end(winner, EndElimination)
	return true
}

// endTimeLimit ends the game at the turn ceiling.
func (g *Game) endTimeLimit() {
	gs := g.State
	winner := -1
	if gs.Config.TimeLimitMode == TimeLimitProgress {
		best := 0.0
		for _, p := range gs.ActivePlayers() {
			if prog := WinProgress(p); prog > best {
				best = prog
				winner = p.Seat
			}
		}
	}
	g.end(winner, EndTimeLimit)
}

func (g *Game) end(winner int, reason EndReason) {
	gs := g.State
	if gs.Over() {
		return
	}
	gs.Status = StatusEnded
	gs.Winner = winner
	gs.EndReason = reason
	g.log(log.NewGameOverEvent(gs.Turn, winner, reason.String()))
}

func (g *Game) abort() {
	gs := g.State
	if gs.Over() {
		return
	}
	gs.Status = StatusEnded
	gs.Winner = -1
	gs.EndReason = EndAborted
}

func (g *Game) result() Result {
	gs := g.State
	res := Result{
		Winner:    gs.Winner,
		Turns:     gs.Turn,
		EndReason: gs.EndReason,
		Seed:      g.Seed,
	}
	if gs.Winner >= 0 {
		w := gs.Players[gs.Winner]
		res.WinnerName = w.Name
		res.WinnerProfile = w.ProfileID
	}
	return res
}

// checkInvariants verifies resource ranges and hand sizes after a turn.
func (g *Game) checkInvariants() error {
	gs := g.State
	for _, p := range gs.Players {
		var detail string
		switch {
		case p.DocumentLevel < 0 || p.DocumentLevel > MaxDocumentLevel:
			detail = fmt.Sprintf("document level %d outside [0,%d]", p.DocumentLevel, MaxDocumentLevel)
		case p.Nerves < MinNerves || p.Nerves > MaxNerves:
			detail = fmt.Sprintf("nerves %d outside [%d,%d]", p.Nerves, MinNerves, MaxNerves)
		case p.LanguageLevel < MinLanguageLevel || p.LanguageLevel > MaxLanguageLevel:
			detail = fmt.Sprintf("language level %d outside [%d,%d]", p.LanguageLevel, MinLanguageLevel, MaxLanguageLevel)
		case p.DocumentCards < 0:
			detail = fmt.Sprintf("negative document cards %d", p.DocumentCards)
		case p.Active() && len(p.ActionCards) > gs.Config.MaxActionCards:
			detail = fmt.Sprintf("%d action cards over limit %d", len(p.ActionCards), gs.Config.MaxActionCards)
		case p.Active() && len(p.PersonalItems) > gs.Config.MaxPersonalItems:
			detail = fmt.Sprintf("%d personal items over limit %d", len(p.PersonalItems), gs.Config.MaxPersonalItems)
		}
		if detail == "" {
			continue
		}
		err := &InvariantError{Turn: gs.Turn, Player: p.Seat, Detail: detail}
		if gs.Config.Strict {
			panic(err)
		}
		return err
	}
	return nil
}

// IsInvariant reports whether err came from a broken engine invariant.
func IsInvariant(err error) bool {
	return errors.Is(err, ErrInvariant)
}

func (g *Game) controller(p *Player) PlayerController {
	return g.Controllers[p.Seat]
}

func (g *Game) setPhase(phase string) {
	g.State.Phase = phase
}

func (g *Game) log(event log.GameEvent) {
	if event.Phase == "" {
		event.Phase = g.State.Phase
	}
	g.Logger.Log(event)
	// Notify controllers (ignore errors for notifications)
	for _, c := range g.Controllers {
		_ = c.Notify(g.ctx, event)
	}
}
