// Package mcp exposes paperchase over the Model Context Protocol: analysis
// tools that run simulations, and a play mode where the client takes one seat.
package mcp

import (
	"context"
	"sort"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/peterkuimelis/paperchase/internal/game"
	"github.com/peterkuimelis/paperchase/internal/log"
	"github.com/peterkuimelis/paperchase/internal/sim"
	"github.com/peterkuimelis/paperchase/internal/view"
)

const (
	maxBatchGames = 10000
	eventTail     = 50
)

var (
	// rules and content are set by main before serving.
	rules   = game.DefaultConfig()
	content *game.Content

	// activeSession is the singleton play session (one per stdio process).
	mu            sync.Mutex
	activeSession *GameSession
)

// SetContent sets the rules and content every tool plays with.
func SetContent(cfg game.Config, c *game.Content) {
	rules = cfg
	content = c
}

// RegisterTools adds all tools to the MCP server.
func RegisterTools(s *server.MCPServer) {
	s.AddTool(simulateGameTool(), handleSimulateGame)
	s.AddTool(simulateBatchTool(), handleSimulateBatch)
	s.AddTool(describeContentTool(), handleDescribeContent)
	s.AddTool(startGameTool(), handleStartGame)
	s.AddTool(decideTool(), handleDecide)
	s.AddTool(getGameStateTool(), handleGetGameState)
}

// --- Tool definitions ---

func simulateGameTool() mcp.Tool {
	return mcp.NewTool("simulate_game",
		mcp.WithDescription("Play one game with AI players only. Returns the result and the last events of the game."),
		mcp.WithNumber("seed", mcp.Description("Random seed; 0 or omitted picks one. The returned seed replays the game.")),
		mcp.WithNumber("players", mcp.Description("Number of players (2-6); defaults to the configured count")),
	)
}

func simulateBatchTool() mcp.Tool {
	return mcp.NewTool("simulate_batch",
		mcp.WithDescription("Play many AI games in parallel and return win rates per profile, end reasons and average length."),
		mcp.WithNumber("games", mcp.Required(), mcp.Description("Number of games to play (1-10000)")),
		mcp.WithNumber("seed", mcp.Description("Batch seed; every game seed is derived from it")),
		mcp.WithNumber("workers", mcp.Description("Parallel games; defaults to the number of CPUs")),
	)
}

func describeContentTool() mcp.Tool {
	return mcp.NewTool("describe_content",
		mcp.WithDescription("List the loaded profiles, goals and deck sizes, plus any content warnings."),
	)
}

func startGameTool() mcp.Tool {
	return mcp.NewTool("start_game",
		mcp.WithDescription("Start a game where you play one seat against AI players. Returns the first pending decision. "+
			"Answer every decision with decide."),
		mcp.WithNumber("seat", mcp.Description("Your seat, 0-based; 0 moves first")),
		mcp.WithNumber("players", mcp.Description("Number of players (2-6); defaults to the configured count")),
		mcp.WithNumber("seed", mcp.Description("Random seed; 0 or omitted picks one")),
	)
}

func decideTool() mcp.Tool {
	return mcp.NewTool("decide",
		mcp.WithDescription("Answer the pending decision by choosing one of its numbered actions."),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("0-based index into the pending actions list")),
	)
}

func getGameStateTool() mcp.Tool {
	return mcp.NewTool("get_game_state",
		mcp.WithDescription("Get the current game state, accumulated events, and pending decision without answering it. Read-only."),
	)
}

// --- Tool handlers ---

func rulesFor(request mcp.CallToolRequest) game.Config {
	cfg := rules
	if n := request.GetInt("players", 0); n > 0 {
		cfg.Players = n
	}
	cfg.Seed = int64(request.GetInt("seed", 0))
	return cfg
}

type simulateGameResponse struct {
	Result view.ResultView  `json:"result"`
	Final  view.StateView   `json:"final"`
	Events []view.EventView `json:"events"`
	Counts map[string]int   `json:"counts"`
}

func handleSimulateGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if content == nil {
		return mcp.NewToolResultError("No content loaded."), nil
	}
	counter := log.NewCountingLogger()
	logger := log.NewFuncLogger(counter.Log)
	g, err := game.NewGame(game.GameConfig{
		Config:  rulesFor(request),
		Content: content,
		Logger:  logger,
	})
	if err != nil {
		return mcp.NewToolResultErrorf("Invalid game: %v", err), nil
	}
	res, err := g.Run(ctx)
	if err != nil {
		return mcp.NewToolResultErrorf("Game failed: %v", err), nil
	}

	events := logger.Events()
	if len(events) > eventTail {
		events = events[len(events)-eventTail:]
	}
	return mcp.NewToolResultText(respondJSON(simulateGameResponse{
		Result: view.Result(res),
		Final:  view.State(g.State, -1),
		Events: view.Events(events),
		Counts: counter.Counts(),
	})), nil
}

func handleSimulateBatch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if content == nil {
		return mcp.NewToolResultError("No content loaded."), nil
	}
	games := request.GetInt("games", 0)
	if games < 1 || games > maxBatchGames {
		return mcp.NewToolResultErrorf("games must be 1-%d", maxBatchGames), nil
	}
	sum, _, err := sim.RunBatch(ctx, sim.BatchConfig{
		Config:  rules,
		Content: content,
		Games:   games,
		Seed:    int64(request.GetInt("seed", 0)),
		Workers: request.GetInt("workers", 0),
	})
	if err != nil {
		return mcp.NewToolResultErrorf("Batch failed: %v", err), nil
	}
	return mcp.NewToolResultText(respondJSON(view.Summary(sum))), nil
}

type contentDescription struct {
	Profiles []game.Profile `json:"profiles"`
	Goals    []goalView     `json:"goals"`
	Decks    map[string]int `json:"decks"`
	Cards    int            `json:"cards"`
	Warnings []string       `json:"warnings,omitempty"`
}

type goalView struct {
	Key      string   `json:"key"`
	Name     string   `json:"name"`
	Requires []string `json:"requires"`
}

func describe(c *game.Content) contentDescription {
	d := contentDescription{
		Profiles: c.Profiles,
		Decks:    make(map[string]int, len(c.Decks)),
	}
	for _, g := range c.Goals {
		gv := goalView{Key: g.Key, Name: g.Name}
		for _, r := range g.Requires {
			gv.Requires = append(gv.Requires, r.String())
		}
		d.Goals = append(d.Goals, gv)
	}
	for name, n := range c.CardCount() {
		d.Decks[string(name)] = n
		d.Cards += n
	}
	if joined, ok := c.Warnings.(interface{ Unwrap() []error }); ok {
		for _, w := range joined.Unwrap() {
			d.Warnings = append(d.Warnings, w.Error())
		}
	} else if c.Warnings != nil {
		d.Warnings = append(d.Warnings, c.Warnings.Error())
	}
	sort.Strings(d.Warnings)
	return d
}

func handleDescribeContent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if content == nil {
		return mcp.NewToolResultError("No content loaded."), nil
	}
	return mcp.NewToolResultText(respondJSON(describe(content))), nil
}

func handleStartGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mu.Lock()
	defer mu.Unlock()
	if activeSession != nil {
		return mcp.NewToolResultError("A game is already running. Only one game at a time is supported."), nil
	}
	if content == nil {
		return mcp.NewToolResultError("No content loaded."), nil
	}

	sess, err := NewGameSession(rulesFor(request), content, request.GetInt("seat", 0))
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to start game: %v", err), nil
	}
	activeSession = sess

	resp, err := sess.waitForPending(ctx)
	if err != nil {
		return mcp.NewToolResultErrorf("Error waiting for first decision: %v", err), nil
	}
	if resp.GameOver {
		activeSession = nil
	}
	return mcp.NewToolResultText(respondJSON(resp)), nil
}

func handleDecide(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mu.Lock()
	defer mu.Unlock()
	if activeSession == nil {
		return mcp.NewToolResultError("No game is running. Use start_game first."), nil
	}

	resp, err := activeSession.decide(ctx, request.GetInt("index", -1))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if resp.GameOver {
		activeSession = nil
	}
	return mcp.NewToolResultText(respondJSON(resp)), nil
}

func handleGetGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mu.Lock()
	defer mu.Unlock()
	if activeSession == nil {
		return mcp.NewToolResultError("No game is running. Use start_game first."), nil
	}
	return mcp.NewToolResultText(respondJSON(activeSession.snapshot())), nil
}
