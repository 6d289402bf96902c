package view

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/peterkuimelis/paperchase/internal/game"
	"github.com/peterkuimelis/paperchase/internal/log"
	"github.com/peterkuimelis/paperchase/internal/sim"
)

func newGame(t *testing.T) *game.Game {
	t.Helper()
	content := &game.Content{
		Profiles: []game.Profile{
			{ID: "student", Name: "Student", StartingMoney: 10, StartingNerves: 7, StartingHousing: game.HousingRoom},
			{ID: "worker", Name: "Worker", StartingMoney: 15, StartingNerves: 6, StartingHousing: game.HousingRoom},
		},
		Decks: map[game.DeckName][]*game.Card{
			game.DeckAction: {{Name: "Calming Tea", Deck: game.DeckAction, Type: game.CardTypeUtility, Cost: game.Cost{Money: 1}}},
		},
	}
	cfg := game.DefaultConfig()
	cfg.Seed = 5
	cfg.Players = 2
	cfg.StartingPersonalItems = 0
	g, err := game.NewGame(game.GameConfig{Config: cfg, Content: content})
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	return g
}

func TestStateHidesOtherHands(t *testing.T) {
	g := newGame(t)
	gs := g.State
	tea := &game.Card{Name: "Calming Tea", Deck: game.DeckAction, Cost: game.Cost{Money: 1}}
	gs.Players[0].ActionCards = []*game.Card{tea}
	gs.Players[1].ActionCards = []*game.Card{tea, tea}

	v := State(gs, 0)
	if v.Viewer != 0 || len(v.Players) != 2 {
		t.Fatalf("state = %+v", v)
	}
	if len(v.Players[0].ActionCards) != 1 || v.Players[0].ActionCards[0].CostMoney != 1 {
		t.Errorf("own hand = %+v", v.Players[0].ActionCards)
	}
	if v.Players[1].ActionCards != nil || v.Players[1].ActionCount != 2 {
		t.Errorf("opponent = %+v, want a count but no cards", v.Players[1])
	}
	if v.Players[1].Money != 15 || v.Players[1].Profile != "worker" {
		t.Errorf("opponent = %+v", v.Players[1])
	}
	if v.BoardSize != gs.Board.Size() || v.Decks[string(game.DeckAction)] != 1 {
		t.Errorf("board %d, decks %v", v.BoardSize, v.Decks)
	}

	spectator := State(gs, 7)
	if spectator.Viewer != -1 {
		t.Errorf("viewer = %d, want -1", spectator.Viewer)
	}
	for _, p := range spectator.Players {
		if p.ActionCards != nil {
			t.Errorf("spectator sees the hand of seat %d", p.Seat)
		}
	}
}

func TestPlayerGoalAndProgress(t *testing.T) {
	p := newGame(t).State.Players[0]
	p.Goal = &game.Goal{Name: "Citizenship", Requires: []game.Requirement{{Resource: game.ResourceMoney, Min: 20}}}
	p.Money = 10

	v := Player(p, false)
	if v.Goal != "Citizenship" || v.Progress != 0.5 {
		t.Errorf("goal %q progress %v", v.Goal, v.Progress)
	}
}

func TestEventJSON(t *testing.T) {
	e := log.GameEvent{Seq: 3, Turn: 2, Phase: "Cell", Player: 1, Type: log.EventResourceChanged,
		Resource: "money", Delta: -2, Target: -1, Details: "rent"}
	ev := Event(e)
	raw, err := json.Marshal(Message{Type: "event", Event: &ev})
	if err != nil {
		t.Fatal(err)
	}
	s := string(raw)
	for _, want := range []string{`"type":"event"`, `"type":"ResourceChanged"`, `"delta":-2`, `"target":-1`} {
		if !strings.Contains(s, want) {
			t.Errorf("%s missing %s", s, want)
		}
	}
	if strings.Contains(s, `"state"`) || strings.Contains(s, `"card"`) {
		t.Errorf("empty fields should be omitted: %s", s)
	}
}

func TestResultAndSummary(t *testing.T) {
	r := Result(game.Result{Winner: -1, Turns: 12, EndReason: game.EndTimeLimit, Seed: 9})
	if r.EndReason != "time_limit" || r.Winner != -1 {
		t.Errorf("result = %+v", r)
	}

	s := Summary(sim.Summary{
		BatchID:        "b",
		Completed:      4,
		WinsByProfile:  map[string]int{"student": 1, sim.NoWinner: 3},
		SeatsByProfile: map[string]int{"student": 4, "worker": 4},
	})
	if s.NoWinner != 3 || s.WinRates["student"] != 0.25 || s.WinRates["worker"] != 0 {
		t.Errorf("summary = %+v", s)
	}
	if _, ok := s.WinRates[sim.NoWinner]; ok {
		t.Error("no-winner games are not a profile")
	}
}
