package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/peterkuimelis/paperchase/internal/game"
	"github.com/peterkuimelis/paperchase/internal/sim"
)

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(""); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestReopenSkipsAppliedMigrations(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "results.db")
	first, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}
	second, err := Open(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer second.Close()

	var n int
	if err := second.sqlDB.QueryRow("SELECT COUNT(*) FROM " + migrationTable).Scan(&n); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if n != 1 {
		t.Fatalf("applied migrations = %d, want 1", n)
	}
}

func TestSaveGetBatchRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	started := time.Date(2026, time.March, 3, 10, 0, 0, 0, time.UTC)
	input := sim.Summary{
		BatchID:        "batch-1",
		Seed:           42,
		Games:          10,
		Completed:      9,
		Failed:         1,
		Players:        4,
		PolicyVersion:  game.PolicyVersion,
		WinsByProfile:  map[string]int{"student": 5, sim.NoWinner: 4},
		SeatsByProfile: map[string]int{"student": 18, "worker": 18},
		EndReasons:     map[string]int{"win": 5, "time_limit": 4},
		EventCounts:    map[string]int{"TurnStarted": 400},
		AvgTurns:       11.5,
		StartedAt:      started,
		FinishedAt:     started.Add(3 * time.Second),
	}
	if err := store.SaveBatch(context.Background(), input); err != nil {
		t.Fatalf("save batch: %v", err)
	}

	got, err := store.GetBatch(context.Background(), "batch-1")
	if err != nil {
		t.Fatalf("get batch: %v", err)
	}
	if got.Seed != 42 || got.Completed != 9 || got.Failed != 1 || got.AvgTurns != 11.5 {
		t.Fatalf("batch = %+v", got)
	}
	if got.WinsByProfile[sim.NoWinner] != 4 || got.EventCounts["TurnStarted"] != 400 {
		t.Fatalf("counts = %v %v", got.WinsByProfile, got.EventCounts)
	}
	if !got.StartedAt.Equal(input.StartedAt) || !got.FinishedAt.Equal(input.FinishedAt) {
		t.Fatalf("times = %v..%v", got.StartedAt, got.FinishedAt)
	}

	input.Completed = 10
	input.Failed = 0
	if err := store.SaveBatch(context.Background(), input); err != nil {
		t.Fatalf("resave batch: %v", err)
	}
	got, err = store.GetBatch(context.Background(), "batch-1")
	if err != nil {
		t.Fatalf("get batch: %v", err)
	}
	if got.Completed != 10 || got.Failed != 0 {
		t.Fatalf("resaved batch = %+v", got)
	}
}

func TestGetBatchNotFound(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if _, err := store.GetBatch(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListBatchesNewestFirst(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	base := time.Date(2026, time.March, 3, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		sum := sim.Summary{BatchID: id, Games: 1, StartedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := store.SaveBatch(context.Background(), sum); err != nil {
			t.Fatalf("save batch %s: %v", id, err)
		}
	}

	got, err := store.ListBatches(context.Background(), 2)
	if err != nil {
		t.Fatalf("list batches: %v", err)
	}
	if len(got) != 2 || got[0].BatchID != "new" || got[1].BatchID != "mid" {
		t.Fatalf("batches = %+v", got)
	}
}

func TestSaveListGames(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	recs := []sim.GameRecord{
		{
			Index: 1, Seed: 7,
			Result:   game.Result{Winner: -1, Turns: 15, EndReason: game.EndTimeLimit, Seed: 7},
			Profiles: []string{"student", "worker"},
			Events:   map[string]int{"TurnStarted": 30},
			Duration: 12 * time.Millisecond,
		},
		{
			Index: 0, Seed: 3,
			Result:   game.Result{Winner: 1, WinnerName: "Ana", WinnerProfile: "worker", Turns: 9, EndReason: game.EndWin, Seed: 3},
			Profiles: []string{"student", "worker"},
		},
	}
	for _, rec := range recs {
		if err := store.SaveGame(ctx, "batch-1", rec); err != nil {
			t.Fatalf("save game %d: %v", rec.Index, err)
		}
	}
	if err := store.SaveGame(ctx, "batch-2", sim.GameRecord{Index: 0, Err: "boom", Result: game.Result{Winner: -1, EndReason: game.EndAborted}}); err != nil {
		t.Fatalf("save game in other batch: %v", err)
	}

	got, err := store.ListGames(ctx, "batch-1")
	if err != nil {
		t.Fatalf("list games: %v", err)
	}
	if len(got) != 2 || got[0].Index != 0 || got[1].Index != 1 {
		t.Fatalf("games = %+v", got)
	}
	if got[0].Result != recs[1].Result {
		t.Fatalf("result = %+v, want %+v", got[0].Result, recs[1].Result)
	}
	if got[1].Result.EndReason != game.EndTimeLimit || got[1].Events["TurnStarted"] != 30 {
		t.Fatalf("second game = %+v", got[1])
	}
	if got[1].Duration != 12*time.Millisecond || len(got[1].Profiles) != 2 {
		t.Fatalf("second game = %+v", got[1])
	}

	failed, err := store.ListGames(ctx, "batch-2")
	if err != nil {
		t.Fatalf("list games: %v", err)
	}
	if len(failed) != 1 || !failed[0].Failed() || failed[0].Result.EndReason != game.EndAborted {
		t.Fatalf("failed games = %+v", failed)
	}
}

func TestSaveGameReturnsAlreadyExistsOnDuplicate(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	rec := sim.GameRecord{Index: 0, Result: game.Result{Winner: -1}}
	if err := store.SaveGame(context.Background(), "batch-1", rec); err != nil {
		t.Fatalf("save game: %v", err)
	}
	if err := store.SaveGame(context.Background(), "batch-1", rec); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestStoreIsASink(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	content := &game.Content{
		Profiles: []game.Profile{{ID: "student", Name: "Student", StartingMoney: 10, StartingNerves: 7, StartingHousing: game.HousingRoom}},
		Decks:    make(map[game.DeckName][]*game.Card),
	}
	cfg := game.DefaultConfig()
	cfg.Players = 2
	cfg.TurnsPerPlayer = 3
	cfg.StartingPersonalItems = 0

	sum, _, err := sim.RunBatch(context.Background(), sim.BatchConfig{
		Config: cfg, Content: content, Games: 5, Seed: 11, Workers: 2, Sink: store,
	})
	if err != nil {
		t.Fatalf("run batch: %v", err)
	}
	games, err := store.ListGames(context.Background(), sum.BatchID)
	if err != nil {
		t.Fatalf("list games: %v", err)
	}
	if len(games) != 5 {
		t.Fatalf("stored %d games, want 5", len(games))
	}
	if _, err := store.GetBatch(context.Background(), sum.BatchID); err != nil {
		t.Fatalf("get batch: %v", err)
	}
}

func TestCancelledContext(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := store.SaveGame(ctx, "batch-1", sim.GameRecord{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestCloseNilStore(t *testing.T) {
	t.Parallel()

	var store *Store
	if err := store.Close(); err != nil {
		t.Fatalf("close nil store: %v", err)
	}
}

func openTempStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}
