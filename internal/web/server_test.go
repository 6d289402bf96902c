package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/peterkuimelis/paperchase/internal/game"
	"github.com/peterkuimelis/paperchase/internal/view"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	pay, err := game.ParseEffects(map[string]any{"money": 3})
	if err != nil {
		t.Fatal(err)
	}
	c := &game.Content{
		Profiles: []game.Profile{
			{ID: "student", Name: "Student", StartingMoney: 10, StartingNerves: 7, StartingHousing: game.HousingRoom, Salary: 2, SalaryType: "fixed"},
			{ID: "worker", Name: "Worker", StartingMoney: 12, StartingNerves: 6, StartingHousing: game.HousingRoom, Salary: 3, SalaryType: "fixed"},
		},
		Goals: []game.Goal{{Key: "citizenship", Name: "Citizenship", Requires: []game.Requirement{
			{Resource: game.ResourceMoney, Min: 30},
			{Resource: game.ResourceHousingType, Housing: game.HousingApartment},
		}}},
		Decks: make(map[game.DeckName][]*game.Card),
	}
	for _, d := range game.AllDecks {
		for i := 0; i < 3; i++ {
			c.Decks[d] = append(c.Decks[d], &game.Card{Name: "Quiet Day", Deck: d})
		}
	}
	c.Decks[game.DeckWhite] = append(c.Decks[game.DeckWhite], &game.Card{Name: "Pay Day", Deck: game.DeckWhite, Effects: pay})

	cfg := game.DefaultConfig()
	cfg.Players = 2
	cfg.TurnsPerPlayer = 3
	srv := httptest.NewServer(NewServer(cfg, c).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, v any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: %s", url, resp.Status)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatal(err)
	}
}

func TestContentEndpoint(t *testing.T) {
	srv := testServer(t)
	var cards []CardInfo
	getJSON(t, srv.URL+"/api/content", &cards)

	if len(cards) != len(game.AllDecks)+1 {
		t.Fatalf("got %d distinct cards: %+v", len(cards), cards)
	}
	for _, c := range cards {
		switch c.Name {
		case "Quiet Day":
			if c.Copies != 3 {
				t.Errorf("%s/%s copies = %d, want 3", c.Deck, c.Name, c.Copies)
			}
		case "Pay Day":
			if c.Copies != 1 || c.Deck != string(game.DeckWhite) || c.Effects == "" {
				t.Errorf("pay day = %+v", c)
			}
		}
	}
	for i := 1; i < len(cards); i++ {
		if cards[i-1].Deck > cards[i].Deck {
			t.Errorf("cards not sorted by deck at %d", i)
		}
	}
}

func TestGoalsAndProfiles(t *testing.T) {
	srv := testServer(t)
	var goals []GoalInfo
	getJSON(t, srv.URL+"/api/goals", &goals)
	if len(goals) != 1 || len(goals[0].Requires) != 2 || goals[0].Requires[1] != "housing_type = apartment" {
		t.Errorf("goals = %+v", goals)
	}

	var profiles []map[string]any
	getJSON(t, srv.URL+"/api/profiles", &profiles)
	if len(profiles) != 2 || profiles[1]["id"] != "worker" {
		t.Errorf("profiles = %v", profiles)
	}
}

func TestIndexAndStatic(t *testing.T) {
	srv := testServer(t)
	for path, want := range map[string]string{
		"/":              "<title>Paperchase</title>",
		"/static/app.js": "new WebSocket",
	} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), want) {
			t.Errorf("GET %s: %s, body lacks %q", path, resp.Status, want)
		}
	}

	resp, err := http.Get(srv.URL + "/nope")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET /nope: %s", resp.Status)
	}
}

func TestWebSocketRejectsBadQuery(t *testing.T) {
	srv := testServer(t)
	for _, q := range []string{"seed=abc", "delay=x", "players=0"} {
		resp, err := http.Get(srv.URL + "/ws?" + q)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: %s, want 400", q, resp.Status)
		}
	}
}

func watch(t *testing.T, srv *httptest.Server, seed string) []view.Message {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?delay=0&seed=" + seed
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()
	conn.SetReadLimit(1 << 20)

	var msgs []view.Message
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				t.Fatalf("read: %v", err)
			}
			return msgs
		}
		var m view.Message
		if err := json.Unmarshal(data, &m); err != nil {
			t.Fatal(err)
		}
		msgs = append(msgs, m)
	}
}

func TestWebSocketStreamsGame(t *testing.T) {
	srv := testServer(t)
	msgs := watch(t, srv, "2024")

	if len(msgs) < 3 {
		t.Fatalf("got %d messages", len(msgs))
	}
	first, last := msgs[0], msgs[len(msgs)-1]
	if first.Type != "state" || first.State == nil || len(first.State.Players) != 2 || first.State.Viewer != -1 {
		t.Fatalf("first message = %+v", first)
	}
	if last.Type != "game_over" || last.Result == nil || last.Result.Seed != 2024 {
		t.Fatalf("last message = %+v", last)
	}
	for i, m := range msgs[1 : len(msgs)-1] {
		if m.Type != "event" || m.Event == nil || m.Event.Seq != i+1 {
			t.Fatalf("message %d = %+v", i+1, m)
		}
	}

	again := watch(t, srv, "2024")
	if len(again) != len(msgs) || *again[len(again)-1].Result != *last.Result {
		t.Error("the same seed should stream the same game")
	}
}
