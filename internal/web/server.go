// Package web serves the paperchase spectator: content browsing endpoints and
// a websocket that streams a simulated game event by event.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"io"
	"io/fs"
	"log"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/coder/websocket"

	"github.com/peterkuimelis/paperchase/internal/game"
	gamelog "github.com/peterkuimelis/paperchase/internal/log"
	"github.com/peterkuimelis/paperchase/internal/view"
)

//go:embed static
var staticFiles embed.FS

const (
	defaultDelay = 150 * time.Millisecond
	maxDelay     = 5 * time.Second
)

// CardInfo is the JSON representation of a card for the /api/content endpoint.
type CardInfo struct {
	Deck        string `json:"deck"`
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	Category    string `json:"category,omitempty"`
	CostMoney   int    `json:"costMoney,omitempty"`
	CostNerves  int    `json:"costNerves,omitempty"`
	Effects     string `json:"effects,omitempty"`
	Description string `json:"description,omitempty"`
	Copies      int    `json:"copies"`
}

// GoalInfo is the JSON representation of a goal for the /api/goals endpoint.
type GoalInfo struct {
	Key      string   `json:"key"`
	Name     string   `json:"name"`
	Requires []string `json:"requires"`
}

// Server is the paperchase web UI server.
type Server struct {
	rules   game.Config
	content *game.Content
	mux     *http.ServeMux
}

// NewServer creates a new web server that plays games with the given rules and content.
func NewServer(rules game.Config, content *game.Content) *Server {
	s := &Server{
		rules:   rules,
		content: content,
		mux:     http.NewServeMux(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	staticFS, _ := fs.Sub(staticFiles, "static")

	s.mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		f, err := staticFS.Open("index.html")
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		defer f.Close()
		io.Copy(w, f)
	})

	s.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	s.mux.HandleFunc("GET /api/content", s.handleContent)
	s.mux.HandleFunc("GET /api/goals", s.handleGoals)
	s.mux.HandleFunc("GET /api/profiles", s.handleProfiles)

	s.mux.HandleFunc("GET /ws", s.handleWebSocket)
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Encode response: %v", err)
	}
}

func (s *Server) handleContent(w http.ResponseWriter, r *http.Request) {
	type key struct{ deck, name string }
	index := make(map[key]int)
	cards := []CardInfo{}
	for _, c := range s.content.AllCards() {
		k := key{string(c.Deck), c.Name}
		if i, ok := index[k]; ok {
			cards[i].Copies++
			continue
		}
		index[k] = len(cards)
		cards = append(cards, CardInfo{
			Deck:        string(c.Deck),
			Name:        c.Name,
			Type:        c.Type,
			Category:    c.Category,
			CostMoney:   c.Cost.Money,
			CostNerves:  c.Cost.Nerves,
			Effects:     c.Effects.String(),
			Description: c.Description,
			Copies:      1,
		})
	}
	sort.SliceStable(cards, func(i, j int) bool {
		if cards[i].Deck != cards[j].Deck {
			return cards[i].Deck < cards[j].Deck
		}
		return cards[i].Name < cards[j].Name
	})
	writeJSON(w, cards)
}

func (s *Server) handleGoals(w http.ResponseWriter, r *http.Request) {
	goals := []GoalInfo{}
	for _, g := range s.content.Goals {
		gi := GoalInfo{Key: g.Key, Name: g.Name}
		for _, req := range g.Requires {
			gi.Requires = append(gi.Requires, req.String())
		}
		goals = append(goals, gi)
	}
	writeJSON(w, goals)
}

func (s *Server) handleProfiles(w http.ResponseWriter, r *http.Request) {
	type profileInfo struct {
		ID            string  `json:"id"`
		Name          string  `json:"name"`
		Money         int     `json:"money"`
		Nerves        int     `json:"nerves"`
		LanguageLevel int     `json:"languageLevel"`
		Housing       string  `json:"housing"`
		Salary        int     `json:"salary"`
		Honesty       float64 `json:"honesty"`
	}
	profiles := []profileInfo{}
	for _, p := range s.content.Profiles {
		profiles = append(profiles, profileInfo{
			ID: p.ID, Name: p.Name, Money: p.StartingMoney, Nerves: p.StartingNerves,
			LanguageLevel: p.StartingLanguage, Housing: string(p.StartingHousing),
			Salary: p.Salary, Honesty: p.Honesty,
		})
	}
	writeJSON(w, profiles)
}

// gameParams reads seed, players and delay from the query string.
func (s *Server) gameParams(r *http.Request) (game.Config, time.Duration, error) {
	cfg := s.rules
	q := r.URL.Query()
	if v := q.Get("seed"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return cfg, 0, err
		}
		cfg.Seed = seed
	}
	if v := q.Get("players"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, 0, err
		}
		cfg.Players = n
	}
	delay := defaultDelay
	if v := q.Get("delay"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return cfg, 0, err
		}
		delay = min(max(time.Duration(ms)*time.Millisecond, 0), maxDelay)
	}
	return cfg, delay, nil
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	cfg, delay, err := s.gameParams(r)
	if err != nil {
		http.Error(w, "bad query: "+err.Error(), http.StatusBadRequest)
		return
	}
	events := make(chan gamelog.GameEvent)
	g, err := game.NewGame(game.GameConfig{Config: cfg, Content: s.content})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // Allow connections from any origin
	})
	if err != nil {
		log.Printf("WebSocket accept error: %v", err)
		return
	}
	defer wsConn.CloseNow()

	// The spectator never sends anything; CloseRead cancels ctx when it leaves.
	ctx, cancel := context.WithCancel(wsConn.CloseRead(r.Context()))
	defer cancel()

	initial := view.State(g.State, -1)
	if err := send(ctx, wsConn, view.Message{Type: "state", State: &initial}); err != nil {
		return
	}

	g.Logger = gamelog.NewFuncLogger(func(e gamelog.GameEvent) {
		select {
		case events <- e:
		case <-ctx.Done():
		}
	})

	type outcome struct {
		res game.Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := g.Run(ctx)
		close(events)
		done <- outcome{res, err}
	}()

	for e := range events {
		ev := view.Event(e)
		if err := send(ctx, wsConn, view.Message{Type: "event", Event: &ev}); err != nil {
			log.Printf("WebSocket write error: %v", err)
			cancel()
			for range events {
			}
			break
		}
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
			}
		}
	}

	out := <-done
	if out.err != nil {
		log.Printf("Game %d stopped: %v", out.res.Seed, out.err)
		wsConn.Close(websocket.StatusGoingAway, "game stopped")
		return
	}
	final := view.State(g.State, -1)
	result := view.Result(out.res)
	if err := send(ctx, wsConn, view.Message{Type: "game_over", State: &final, Result: &result}); err != nil {
		return
	}
	wsConn.Close(websocket.StatusNormalClosure, "game ended")
}

func send(ctx context.Context, c *websocket.Conn, msg view.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return c.Write(ctx, websocket.MessageText, data)
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s.mux)
}
