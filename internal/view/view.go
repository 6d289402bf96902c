// Package view holds the JSON shapes the web and MCP front ends send out.
// A view is a read-only snapshot; nothing in it points back into a live game.
package view

import (
	"github.com/peterkuimelis/paperchase/internal/game"
	"github.com/peterkuimelis/paperchase/internal/log"
	"github.com/peterkuimelis/paperchase/internal/sim"
)

// Message is the envelope for everything streamed to a spectator.
type Message struct {
	Type string `json:"type"` // "event", "state" or "game_over"

	Event  *EventView  `json:"event,omitempty"`
	State  *StateView  `json:"state,omitempty"`
	Result *ResultView `json:"result,omitempty"`
}

// EventView is a game event for a client.
type EventView struct {
	Seq      int    `json:"seq"`
	Turn     int    `json:"turn"`
	Phase    string `json:"phase"`
	Player   int    `json:"player"`
	Type     string `json:"type"`
	Card     string `json:"card,omitempty"`
	Resource string `json:"resource,omitempty"`
	Delta    int    `json:"delta,omitempty"`
	Target   int    `json:"target"`
	Details  string `json:"details"`
}

// ActionView is a numbered choice.
type ActionView struct {
	Index int    `json:"index"`
	Desc  string `json:"desc"`
}

// CardView describes a card in a hand or a deck listing.
type CardView struct {
	Index       int    `json:"index"`
	Name        string `json:"name"`
	Deck        string `json:"deck"`
	Type        string `json:"type,omitempty"`
	CostMoney   int    `json:"cost_money,omitempty"`
	CostNerves  int    `json:"cost_nerves,omitempty"`
	Effects     string `json:"effects,omitempty"`
	Description string `json:"description,omitempty"`
}

// PlayerView is one seat. Hands are only filled for the viewer's own seat.
type PlayerView struct {
	Seat          int        `json:"seat"`
	Name          string     `json:"name"`
	Profile       string     `json:"profile"`
	Money         int        `json:"money"`
	Nerves        int        `json:"nerves"`
	LanguageLevel int        `json:"language_level"`
	DocumentLevel int        `json:"document_level"`
	DocumentCards int        `json:"document_cards"`
	Housing       string     `json:"housing"`
	HousingLevel  int        `json:"housing_level"`
	Position      int        `json:"position"`
	Laps          int        `json:"laps"`
	Goal          string     `json:"goal,omitempty"`
	Progress      float64    `json:"progress"`
	Eliminated    bool       `json:"eliminated,omitempty"`
	ActionCount   int        `json:"action_count"`
	PersonalCount int        `json:"personal_count"`
	ActionCards   []CardView `json:"action_cards,omitempty"`
	PersonalItems []CardView `json:"personal_items,omitempty"`
	Abilities     []string   `json:"abilities,omitempty"`
	Immunities    []string   `json:"immunities,omitempty"`
}

// StateView is the table as seen from one seat, or by a spectator.
type StateView struct {
	Turn      int            `json:"turn"`
	Phase     string         `json:"phase"`
	Status    string         `json:"status"`
	Current   int            `json:"current"`
	Viewer    int            `json:"viewer"` // -1 for spectators
	BoardSize int            `json:"board_size"`
	Players   []PlayerView   `json:"players"`
	Decks     map[string]int `json:"decks"` // draw pile sizes
}

// ResultView is a finished game.
type ResultView struct {
	Winner        int    `json:"winner"`
	WinnerName    string `json:"winner_name,omitempty"`
	WinnerProfile string `json:"winner_profile,omitempty"`
	Turns         int    `json:"turns"`
	EndReason     string `json:"end_reason"`
	Seed          int64  `json:"seed"`
}

// SummaryView is a simulation batch.
type SummaryView struct {
	BatchID       string             `json:"batch_id"`
	Seed          int64              `json:"seed"`
	Games         int                `json:"games"`
	Completed     int                `json:"completed"`
	Failed        int                `json:"failed"`
	PolicyVersion string             `json:"policy_version"`
	AvgTurns      float64            `json:"avg_turns"`
	WinRates      map[string]float64 `json:"win_rates"`
	NoWinner      int                `json:"no_winner"`
	EndReasons    map[string]int     `json:"end_reasons"`
}

// Event converts a logged event.
func Event(e log.GameEvent) EventView {
	return EventView{
		Seq:      e.Seq,
		Turn:     e.Turn,
		Phase:    e.Phase,
		Player:   e.Player,
		Type:     e.Type.String(),
		Card:     e.Card,
		Resource: e.Resource,
		Delta:    e.Delta,
		Target:   e.Target,
		Details:  e.Details,
	}
}

// Events converts a slice of logged events.
func Events(events []log.GameEvent) []EventView {
	out := make([]EventView, len(events))
	for i, e := range events {
		out[i] = Event(e)
	}
	return out
}

// Card describes c at position index.
func Card(index int, c *game.Card) CardView {
	return CardView{
		Index:       index,
		Name:        c.Name,
		Deck:        string(c.Deck),
		Type:        c.Type,
		CostMoney:   c.Cost.Money,
		CostNerves:  c.Cost.Nerves,
		Effects:     c.Effects.String(),
		Description: c.Description,
	}
}

// Cards numbers a hand from zero.
func Cards(hand []*game.Card) []CardView {
	out := make([]CardView, len(hand))
	for i, c := range hand {
		out[i] = Card(i, c)
	}
	return out
}

// Player snapshots p. reveal adds the hands and the player's private state.
func Player(p *game.Player, reveal bool) PlayerView {
	v := PlayerView{
		Seat:          p.Seat,
		Name:          p.Name,
		Profile:       p.ProfileID,
		Money:         p.Money,
		Nerves:        p.Nerves,
		LanguageLevel: p.LanguageLevel,
		DocumentLevel: p.DocumentLevel,
		DocumentCards: p.DocumentCards,
		Housing:       string(p.Housing),
		HousingLevel:  p.HousingLevel,
		Position:      p.Position,
		Laps:          p.Laps,
		Progress:      game.WinProgress(p),
		Eliminated:    p.Eliminated,
		ActionCount:   len(p.ActionCards),
		PersonalCount: len(p.PersonalItems),
		Abilities:     p.Abilities(),
		Immunities:    p.ImmunityList(),
	}
	if p.Goal != nil {
		v.Goal = p.Goal.Name
	}
	if reveal {
		v.ActionCards = Cards(p.ActionCards)
		v.PersonalItems = Cards(p.PersonalItems)
	}
	return v
}

// State snapshots gs for viewer. A viewer outside the seat range sees no hands.
func State(gs *game.GameState, viewer int) StateView {
	if viewer < 0 || viewer >= len(gs.Players) {
		viewer = -1
	}
	v := StateView{
		Turn:      gs.Turn,
		Phase:     gs.Phase,
		Status:    gs.Status.String(),
		Current:   gs.Current,
		Viewer:    viewer,
		BoardSize: gs.Board.Size(),
		Decks:     make(map[string]int, len(gs.Decks)),
	}
	for _, p := range gs.Players {
		v.Players = append(v.Players, Player(p, p.Seat == viewer))
	}
	for name, d := range gs.Decks {
		v.Decks[string(name)] = d.Len()
	}
	return v
}

// Result converts a finished game.
func Result(r game.Result) ResultView {
	return ResultView{
		Winner:        r.Winner,
		WinnerName:    r.WinnerName,
		WinnerProfile: r.WinnerProfile,
		Turns:         r.Turns,
		EndReason:     r.EndReason.String(),
		Seed:          r.Seed,
	}
}

// Summary converts a batch summary, turning win counts into per-seat rates.
func Summary(s sim.Summary) SummaryView {
	v := SummaryView{
		BatchID:       s.BatchID,
		Seed:          s.Seed,
		Games:         s.Games,
		Completed:     s.Completed,
		Failed:        s.Failed,
		PolicyVersion: s.PolicyVersion,
		AvgTurns:      s.AvgTurns,
		WinRates:      make(map[string]float64),
		NoWinner:      s.WinsByProfile[sim.NoWinner],
		EndReasons:    s.EndReasons,
	}
	for _, p := range s.Profiles() {
		v.WinRates[p] = s.WinRate(p)
	}
	return v
}
