// Package sim runs many seeded games in parallel and aggregates the outcomes
// into balance statistics.
package sim

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/peterkuimelis/paperchase/internal/game"
	"github.com/peterkuimelis/paperchase/internal/log"
	"github.com/peterkuimelis/paperchase/internal/random"
)

const tracerName = "github.com/peterkuimelis/paperchase/internal/sim"

// NoWinner is the profile key used for games without a winner.
const NoWinner = "none"

// BatchConfig describes one batch of games.
type BatchConfig struct {
	Config  game.Config
	Content *game.Content
	Games   int
	Seed    int64 // 0 draws a random batch seed
	Workers int   // <= 0 uses NumCPU

	// Controllers builds the controller for a seat. Nil, or a nil return,
	// seats the AI policy.
	Controllers func(seat int) game.PlayerController

	// Sink receives every finished record. Optional.
	Sink Sink
}

// Sink stores batch results as they are produced.
type Sink interface {
	SaveBatch(ctx context.Context, s Summary) error
	SaveGame(ctx context.Context, batchID string, rec GameRecord) error
}

// GameRecord is the outcome of one game in a batch.
type GameRecord struct {
	Index    int
	Seed     int64
	Result   game.Result
	Profiles []string // by seat
	Events   map[string]int
	Err      string // set when the game failed
	Duration time.Duration
}

// Failed reports whether the game ended with an error or panic.
func (r GameRecord) Failed() bool {
	return r.Err != ""
}

// Summary aggregates a batch.
type Summary struct {
	BatchID       string
	Seed          int64
	Games         int
	Completed     int
	Failed        int
	Players       int
	PolicyVersion string

	WinsByProfile  map[string]int // NoWinner counts games without a winner
	SeatsByProfile map[string]int
	EndReasons     map[string]int
	EventCounts    map[string]int
	AvgTurns       float64

	StartedAt  time.Time
	FinishedAt time.Time
}

// WinRate returns wins per seat played for the profile.
func (s Summary) WinRate(profile string) float64 {
	seats := s.SeatsByProfile[profile]
	if seats == 0 {
		return 0
	}
	return float64(s.WinsByProfile[profile]) / float64(seats)
}

// Profiles returns the profile IDs seen in the batch, sorted.
func (s Summary) Profiles() []string {
	out := make([]string, 0, len(s.SeatsByProfile))
	for p := range s.SeatsByProfile {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// RunBatch plays cfg.Games independent games on a bounded worker pool. Every
// game gets its own seed derived from the batch seed, so a batch replays
// exactly. A game that fails or panics is counted and does not stop the
// batch; a cancelled context or a failing sink does.
func RunBatch(ctx context.Context, cfg BatchConfig) (Summary, []GameRecord, error) {
	if cfg.Content == nil {
		return Summary{}, nil, fmt.Errorf("batch needs content")
	}
	if cfg.Games <= 0 {
		return Summary{}, nil, fmt.Errorf("games must be positive, got %d", cfg.Games)
	}
	seed := cfg.Seed
	if seed == 0 {
		var err error
		if seed, err = random.NewSeed(); err != nil {
			return Summary{}, nil, err
		}
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	sum := Summary{
		BatchID:       uuid.NewString(),
		Seed:          seed,
		Games:         cfg.Games,
		Players:       cfg.Config.Players,
		PolicyVersion: game.PolicyVersion,
		StartedAt:     time.Now().UTC(),
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "sim.batch", trace.WithAttributes(
		attribute.String("batch.id", sum.BatchID),
		attribute.Int64("batch.seed", seed),
		attribute.Int("batch.games", cfg.Games),
		attribute.Int("batch.workers", workers),
	))
	defer span.End()

	records := make([]GameRecord, cfg.Games)
	var sinkMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < cfg.Games; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec := playOne(gctx, cfg, i, random.Derive(seed, i))
			records[i] = rec
			if cfg.Sink == nil {
				return nil
			}
			sinkMu.Lock()
			defer sinkMu.Unlock()
			if err := cfg.Sink.SaveGame(gctx, sum.BatchID, rec); err != nil {
				return fmt.Errorf("save game %d: %w", i, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return sum, nil, err
	}
	if err := ctx.Err(); err != nil {
		return sum, nil, err
	}

	sum.FinishedAt = time.Now().UTC()
	aggregate(&sum, records)
	span.SetAttributes(
		attribute.Int("batch.completed", sum.Completed),
		attribute.Int("batch.failed", sum.Failed),
	)

	if cfg.Sink != nil {
		if err := cfg.Sink.SaveBatch(ctx, sum); err != nil {
			return sum, records, fmt.Errorf("save batch: %w", err)
		}
	}
	return sum, records, nil
}

// playOne runs a single game and turns errors and panics into a failed record.
func playOne(ctx context.Context, cfg BatchConfig, index int, seed int64) (rec GameRecord) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "sim.game", trace.WithAttributes(
		attribute.Int("game.index", index),
		attribute.Int64("game.seed", seed),
	))
	defer span.End()

	start := time.Now()
	rec = GameRecord{Index: index, Seed: seed, Result: game.Result{Winner: -1, Seed: seed}}
	defer func() {
		rec.Duration = time.Since(start)
		if r := recover(); r != nil {
			rec.Err = fmt.Sprintf("panic: %v", r)
			rec.Result.EndReason = game.EndAborted
		}
		if rec.Failed() {
			span.SetStatus(codes.Error, rec.Err)
		}
		span.SetAttributes(
			attribute.String("game.end_reason", rec.Result.EndReason.String()),
			attribute.Int("game.turns", rec.Result.Turns),
			attribute.Int("game.winner", rec.Result.Winner),
		)
	}()

	rules := cfg.Config
	rules.Seed = seed
	counter := log.NewCountingLogger()
	gc := game.GameConfig{Config: rules, Content: cfg.Content, Logger: counter}
	if cfg.Controllers != nil {
		for seat := 0; seat < rules.Players; seat++ {
			gc.Controllers = append(gc.Controllers, cfg.Controllers(seat))
		}
	}

	g, err := game.NewGame(gc)
	if err != nil {
		rec.Err = err.Error()
		return rec
	}
	for _, p := range g.State.Players {
		rec.Profiles = append(rec.Profiles, p.ProfileID)
	}

	res, err := g.Run(ctx)
	rec.Result = res
	rec.Events = counter.Counts()
	if err != nil {
		rec.Err = err.Error()
		span.RecordError(err)
	}
	return rec
}

func aggregate(sum *Summary, records []GameRecord) {
	sum.WinsByProfile = make(map[string]int)
	sum.SeatsByProfile = make(map[string]int)
	sum.EndReasons = make(map[string]int)
	sum.EventCounts = make(map[string]int)

	turns := 0
	for _, rec := range records {
		if rec.Failed() {
			sum.Failed++
			continue
		}
		sum.Completed++
		turns += rec.Result.Turns
		sum.EndReasons[rec.Result.EndReason.String()]++
		for _, p := range rec.Profiles {
			sum.SeatsByProfile[p]++
		}
		winner := rec.Result.WinnerProfile
		if rec.Result.Winner < 0 {
			winner = NoWinner
		}
		sum.WinsByProfile[winner]++
		for k, n := range rec.Events {
			sum.EventCounts[k] += n
		}
	}
	if sum.Completed > 0 {
		sum.AvgTurns = float64(turns) / float64(sum.Completed)
	}
}
