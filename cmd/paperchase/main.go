package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/peterkuimelis/paperchase/internal/config"
	"github.com/peterkuimelis/paperchase/internal/game"
	gamelog "github.com/peterkuimelis/paperchase/internal/log"
	"github.com/peterkuimelis/paperchase/internal/otel"
	"github.com/peterkuimelis/paperchase/internal/sim"
	"github.com/peterkuimelis/paperchase/internal/store/sqlite"
	"github.com/peterkuimelis/paperchase/internal/view"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	settings, err := config.Load()
	if err != nil {
		fail(err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch os.Args[1] {
	case "run":
		err = runGame(ctx, settings, os.Args[2:])
	case "batch":
		err = runBatch(ctx, settings, os.Args[2:])
	case "validate":
		err = runValidate(settings, os.Args[2:])
	case "history":
		err = runHistory(ctx, settings, os.Args[2:])
	default:
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  paperchase run      [--seed N] [--players N] [--quiet]")
	fmt.Println("  paperchase batch    [--games N] [--seed N] [--workers N] [--db FILE] [--json]")
	fmt.Println("  paperchase validate [--strict]")
	fmt.Println("  paperchase history  [--db FILE] [--limit N] [--batch ID]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  run       Play one AI game and print its event log")
	fmt.Println("  batch     Play many AI games in parallel and print balance statistics")
	fmt.Println("  validate  Load the rules and content and report problems")
	fmt.Println("  history   List stored batches, or the games of one batch")
	fmt.Println()
	fmt.Println("Every command accepts --config FILE and --content FILE.")
	fmt.Println("Defaults come from PAPERCHASE_* environment variables or a .env file.")
}

// dataFlags registers the flags every command shares.
func dataFlags(fs *flag.FlagSet, s *config.Settings) {
	fs.StringVar(&s.ConfigPath, "config", s.ConfigPath, "path to the rules YAML file")
	fs.StringVar(&s.ContentPath, "content", s.ContentPath, "path to the content YAML file")
}

func loadData(s config.Settings) (game.Config, *game.Content, error) {
	rules, err := game.LoadConfig(s.ConfigPath)
	if err != nil {
		return game.Config{}, nil, fmt.Errorf("load rules: %w", err)
	}
	content, err := game.LoadContent(s.ContentPath)
	if err != nil {
		return game.Config{}, nil, fmt.Errorf("load content: %w", err)
	}
	return rules, content, nil
}

func runGame(ctx context.Context, s config.Settings, args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	dataFlags(fs, &s)
	seed := fs.Int64("seed", s.Seed, "random seed (0 picks one)")
	players := fs.Int("players", 0, "number of players (default from the rules file)")
	quiet := fs.Bool("quiet", false, "print only the result")
	fs.Parse(args)

	rules, content, err := loadData(s)
	if err != nil {
		return err
	}
	rules.Seed = *seed
	if *players > 0 {
		rules.Players = *players
	}

	var logger gamelog.EventLogger = gamelog.NewTextLogger(os.Stdout)
	if *quiet {
		logger = gamelog.NewCountingLogger()
	}
	g, err := game.NewGame(game.GameConfig{Config: rules, Content: content, Logger: logger})
	if err != nil {
		return err
	}
	res, err := g.Run(ctx)
	if err != nil {
		return fmt.Errorf("game %d: %w", g.Seed, err)
	}

	fmt.Println()
	if res.Winner >= 0 {
		fmt.Printf("%s (%s) wins after %d turns by %s. Seed %d.\n", res.WinnerName, res.WinnerProfile, res.Turns, res.EndReason, res.Seed)
	} else {
		fmt.Printf("No winner after %d turns (%s). Seed %d.\n", res.Turns, res.EndReason, res.Seed)
	}
	for _, p := range g.State.Players {
		fmt.Printf("  %s progress %.0f%%\n", p, game.WinProgress(p)*100)
	}
	return nil
}

func runBatch(ctx context.Context, s config.Settings, args []string) error {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	dataFlags(fs, &s)
	fs.IntVar(&s.Games, "games", s.Games, "number of games")
	fs.Int64Var(&s.Seed, "seed", s.Seed, "batch seed (0 picks one)")
	fs.IntVar(&s.Workers, "workers", s.Workers, "games played in parallel")
	fs.StringVar(&s.DBPath, "db", s.DBPath, "SQLite file to store results in (optional)")
	asJSON := fs.Bool("json", false, "print the summary as JSON")
	fs.Parse(args)

	rules, content, err := loadData(s)
	if err != nil {
		return err
	}

	shutdown, err := otel.Setup(ctx, "paperchase", s.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: flush traces: %v\n", err)
		}
	}()

	cfg := sim.BatchConfig{
		Config:  rules,
		Content: content,
		Games:   s.Games,
		Seed:    s.Seed,
		Workers: s.Workers,
	}
	if s.DBPath != "" {
		store, err := sqlite.Open(s.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()
		cfg.Sink = store
	}

	sum, records, err := sim.RunBatch(ctx, cfg)
	if err != nil {
		return err
	}
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(view.Summary(sum))
	}
	printSummary(sum)
	if s.Verbose {
		for _, rec := range records {
			if rec.Failed() {
				fmt.Printf("  game %d (seed %d) failed: %s\n", rec.Index, rec.Seed, rec.Err)
			}
		}
	}
	return nil
}

func printSummary(sum sim.Summary) {
	fmt.Printf("Batch %s: %d games, seed %d, policy %s\n", sum.BatchID, sum.Games, sum.Seed, sum.PolicyVersion)
	fmt.Printf("Completed %d, failed %d, average %.1f turns, took %s\n\n",
		sum.Completed, sum.Failed, sum.AvgTurns, sum.FinishedAt.Sub(sum.StartedAt).Round(time.Millisecond))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PROFILE\tSEATS\tWINS\tWIN RATE")
	for _, p := range sum.Profiles() {
		fmt.Fprintf(w, "%s\t%d\t%d\t%.1f%%\n", p, sum.SeatsByProfile[p], sum.WinsByProfile[p], sum.WinRate(p)*100)
	}
	fmt.Fprintf(w, "%s\t\t%d\t\n", sim.NoWinner, sum.WinsByProfile[sim.NoWinner])
	w.Flush()

	fmt.Println()
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "END REASON\tGAMES")
	for _, r := range []game.EndReason{game.EndWin, game.EndElimination, game.EndTimeLimit, game.EndAborted} {
		fmt.Fprintf(w, "%s\t%d\n", r, sum.EndReasons[r.String()])
	}
	w.Flush()
}

func runValidate(s config.Settings, args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	dataFlags(fs, &s)
	strict := fs.Bool("strict", false, "treat content warnings as errors")
	fs.Parse(args)

	rules, content, err := loadData(s)
	if err != nil {
		return err
	}
	counts := content.CardCount()
	fmt.Printf("Rules: %d players, %d-cell board, %d turns per player\n", rules.Players, rules.BoardSize, rules.TurnsPerPlayer)
	fmt.Printf("Content: %d profiles, %d goals\n", len(content.Profiles), len(content.Goals))
	for _, d := range game.AllDecks {
		fmt.Printf("  %-15s %3d cards\n", d, counts[d])
	}
	if content.Warnings == nil {
		fmt.Println("No problems found.")
		return nil
	}
	fmt.Println("Warnings:")
	for _, line := range strings.Split(content.Warnings.Error(), "\n") {
		fmt.Println("  " + line)
	}
	if *strict {
		return errors.New("content has warnings")
	}
	return nil
}

func runHistory(ctx context.Context, s config.Settings, args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	fs.StringVar(&s.DBPath, "db", s.DBPath, "SQLite results file")
	limit := fs.Int("limit", 20, "number of batches to list")
	batch := fs.String("batch", "", "list the games of this batch")
	fs.Parse(args)

	if s.DBPath == "" {
		return errors.New("no results database: pass --db or set PAPERCHASE_DB")
	}
	store, err := sqlite.Open(s.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	if *batch != "" {
		games, err := store.ListGames(ctx, *batch)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "GAME\tSEED\tWINNER\tTURNS\tEND\tERROR")
		for _, g := range games {
			winner := sim.NoWinner
			if g.Result.Winner >= 0 {
				winner = fmt.Sprintf("P%d %s", g.Result.Winner+1, g.Result.WinnerProfile)
			}
			fmt.Fprintf(w, "%d\t%d\t%s\t%d\t%s\t%s\n", g.Index, g.Seed, winner, g.Result.Turns, g.Result.EndReason, g.Err)
		}
		return nil
	}

	batches, err := store.ListBatches(ctx, *limit)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "BATCH\tSTARTED\tGAMES\tFAILED\tAVG TURNS\tSEED")
	for _, b := range batches {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.1f\t%d\n", b.BatchID, b.StartedAt.Format("2006-01-02 15:04"), b.Games, b.Failed, b.AvgTurns, b.Seed)
	}
	return nil
}
