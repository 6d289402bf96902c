package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/peterkuimelis/paperchase/internal/game"
	"github.com/peterkuimelis/paperchase/internal/log"
	"github.com/peterkuimelis/paperchase/internal/view"
)

// DecisionType identifies what the game engine is waiting for.
type DecisionType string

const (
	DecisionPreTurn      DecisionType = "pre_turn"
	DecisionCellAction   DecisionType = "cell_action"
	DecisionGreenUse     DecisionType = "green_use"
	DecisionInterference DecisionType = "interference"
	DecisionDefense      DecisionType = "defense"
	DecisionTrade        DecisionType = "trade"
	DecisionTarget       DecisionType = "target"
	DecisionDiscard      DecisionType = "discard"
	DecisionGameOver     DecisionType = "game_over"
)

// PendingDecision is a decision the game engine is waiting for.
type PendingDecision struct {
	Type    DecisionType      `json:"type"`
	Prompt  string            `json:"prompt,omitempty"`
	Actions []view.ActionView `json:"actions,omitempty"`
	State   *view.StateView   `json:"-"`
}

// ToolResponse is the JSON envelope returned by the play tools.
type ToolResponse struct {
	Events   []view.EventView `json:"events"`
	State    *view.StateView  `json:"state,omitempty"`
	Pending  *PendingDecision `json:"pending,omitempty"`
	GameOver bool             `json:"game_over"`
	Result   *view.ResultView `json:"result,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// GameSession is one game in which a single seat is played over MCP and the
// others by the AI policy.
type GameSession struct {
	game   *game.Game
	agent  *AgentController
	seat   int
	cancel context.CancelFunc
	done   chan struct{}

	pendingCh      chan *PendingDecision
	currentPending *PendingDecision

	mu       sync.Mutex
	events   []view.EventView
	gameOver bool
	result   *view.ResultView
	runErr   string
}

// NewGameSession seats the agent and starts the game in the background.
func NewGameSession(rules game.Config, content *game.Content, seat int) (*GameSession, error) {
	if seat < 0 || seat >= rules.Players {
		return nil, fmt.Errorf("seat must be 0-%d, got %d", rules.Players-1, seat)
	}
	sess := &GameSession{
		seat:      seat,
		pendingCh: make(chan *PendingDecision, 1),
		done:      make(chan struct{}),
	}
	sess.agent = NewAgentController(seat, sess, rules.AI)

	controllers := make([]game.PlayerController, rules.Players)
	controllers[seat] = sess.agent
	g, err := game.NewGame(game.GameConfig{
		Config:      rules,
		Content:     content,
		Logger:      log.NewMemoryLogger(),
		Controllers: controllers,
	})
	if err != nil {
		return nil, err
	}
	sess.game = g

	ctx, cancel := context.WithCancel(context.Background())
	sess.cancel = cancel
	go sess.run(ctx)
	return sess, nil
}

func (s *GameSession) run(ctx context.Context) {
	defer close(s.done)
	res, err := s.game.Run(ctx)

	rv := view.Result(res)
	state := view.State(s.game.State, s.seat)
	s.mu.Lock()
	s.gameOver = true
	s.result = &rv
	if err != nil {
		s.runErr = err.Error()
	}
	s.mu.Unlock()

	select {
	case s.pendingCh <- &PendingDecision{Type: DecisionGameOver, State: &state}:
	case <-ctx.Done():
	}
}

// Close stops the game if it is still running and waits for it to exit.
func (s *GameSession) Close() {
	s.cancel()
	<-s.done
}

// appendEvent adds an event to the session's event log. Thread-safe.
func (s *GameSession) appendEvent(ev view.EventView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

// drainEvents returns all accumulated events and clears the buffer.
func (s *GameSession) drainEvents() []view.EventView {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := s.events
	s.events = nil
	if events == nil {
		events = []view.EventView{}
	}
	return events
}

// waitForPending blocks until the next decision arrives from the game engine,
// then builds a ToolResponse with accumulated events and the pending decision.
func (s *GameSession) waitForPending(ctx context.Context) (*ToolResponse, error) {
	var pending *PendingDecision
	select {
	case pending = <-s.pendingCh:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	s.currentPending = pending

	resp := &ToolResponse{Events: s.drainEvents(), State: pending.State}
	if pending.Type == DecisionGameOver {
		s.mu.Lock()
		resp.GameOver = true
		resp.Result = s.result
		resp.Error = s.runErr
		s.mu.Unlock()
		return resp, nil
	}
	resp.Pending = pending
	return resp, nil
}

// decide answers the current decision and waits for the next one.
func (s *GameSession) decide(ctx context.Context, index int) (*ToolResponse, error) {
	pending := s.currentPending
	if pending == nil || pending.Type == DecisionGameOver {
		return nil, fmt.Errorf("no pending decision")
	}
	if index < 0 || index >= len(pending.Actions) {
		return nil, fmt.Errorf("invalid index %d, must be 0-%d", index, len(pending.Actions)-1)
	}
	select {
	case s.agent.responseCh <- index:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	s.currentPending = nil
	return s.waitForPending(ctx)
}

// snapshot returns the last known state without consuming a decision.
func (s *GameSession) snapshot() *ToolResponse {
	resp := &ToolResponse{Events: s.drainEvents()}
	if p := s.currentPending; p != nil {
		resp.State = p.State
		if p.Type != DecisionGameOver {
			resp.Pending = p
		}
	}
	s.mu.Lock()
	resp.GameOver = s.gameOver
	resp.Result = s.result
	resp.Error = s.runErr
	s.mu.Unlock()
	return resp
}

// respondJSON marshals a tool response to a JSON string.
func respondJSON(resp any) string {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Sprintf(`{"error": "marshal error: %v"}`, err)
	}
	return string(data)
}
