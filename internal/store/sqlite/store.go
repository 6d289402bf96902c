// Package sqlite persists simulation batches and their games in SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/peterkuimelis/paperchase/internal/game"
	"github.com/peterkuimelis/paperchase/internal/sim"
	"github.com/peterkuimelis/paperchase/internal/store/sqlite/migrations"
)

var (
	// ErrNotFound is returned when a batch does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a game record is written twice.
	ErrAlreadyExists = errors.New("already exists")
)

// Store implements sim.Sink on a SQLite database.
type Store struct {
	sqlDB *sql.DB
}

var _ sim.Sink = (*Store)(nil)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(context.Background(), sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SaveBatch inserts or replaces the summary row for a batch.
func (s *Store) SaveBatch(ctx context.Context, sum sim.Summary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(sum.BatchID) == "" {
		return fmt.Errorf("batch id is required")
	}
	maps := make([]string, 0, 4)
	for _, m := range []map[string]int{sum.WinsByProfile, sum.SeatsByProfile, sum.EndReasons, sum.EventCounts} {
		raw, err := encode(m)
		if err != nil {
			return fmt.Errorf("save batch: %w", err)
		}
		maps = append(maps, raw)
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO batches (
		   id, seed, games, completed, failed, players, policy_version,
		   wins_by_profile, seats_by_profile, end_reasons, event_counts,
		   avg_turns, started_at, finished_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   completed = excluded.completed,
		   failed = excluded.failed,
		   wins_by_profile = excluded.wins_by_profile,
		   seats_by_profile = excluded.seats_by_profile,
		   end_reasons = excluded.end_reasons,
		   event_counts = excluded.event_counts,
		   avg_turns = excluded.avg_turns,
		   finished_at = excluded.finished_at`,
		sum.BatchID,
		sum.Seed,
		sum.Games,
		sum.Completed,
		sum.Failed,
		sum.Players,
		sum.PolicyVersion,
		maps[0], maps[1], maps[2], maps[3],
		sum.AvgTurns,
		toMillis(sum.StartedAt),
		toMillis(sum.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("save batch: %w", err)
	}
	return nil
}

// SaveGame inserts one game record.
func (s *Store) SaveGame(ctx context.Context, batchID string, rec sim.GameRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(batchID) == "" {
		return fmt.Errorf("batch id is required")
	}
	profiles, err := encode(rec.Profiles)
	if err != nil {
		return fmt.Errorf("save game: %w", err)
	}
	events, err := encode(rec.Events)
	if err != nil {
		return fmt.Errorf("save game: %w", err)
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO games (
		   batch_id, game_index, seed, winner, winner_name, winner_profile,
		   turns, end_reason, profiles, events, error, duration_ms
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		batchID,
		rec.Index,
		rec.Seed,
		rec.Result.Winner,
		rec.Result.WinnerName,
		rec.Result.WinnerProfile,
		rec.Result.Turns,
		rec.Result.EndReason.String(),
		profiles,
		events,
		rec.Err,
		rec.Duration.Milliseconds(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("save game: %w", err)
	}
	return nil
}

const batchColumns = `id, seed, games, completed, failed, players, policy_version,
	wins_by_profile, seats_by_profile, end_reasons, event_counts,
	avg_turns, started_at, finished_at`

// GetBatch returns one batch summary.
func (s *Store) GetBatch(ctx context.Context, id string) (sim.Summary, error) {
	if err := ctx.Err(); err != nil {
		return sim.Summary{}, err
	}
	if s == nil || s.sqlDB == nil {
		return sim.Summary{}, fmt.Errorf("storage is not configured")
	}
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+batchColumns+` FROM batches WHERE id = ?`, id)
	sum, err := scanBatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return sim.Summary{}, ErrNotFound
	}
	if err != nil {
		return sim.Summary{}, fmt.Errorf("get batch: %w", err)
	}
	return sum, nil
}

// ListBatches returns the most recent batches first. A limit <= 0 means 20.
func (s *Store) ListBatches(ctx context.Context, limit int) ([]sim.Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+batchColumns+` FROM batches ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	var out []sim.Summary
	for rows.Next() {
		sum, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return out, nil
}

// ListGames returns every game of a batch in index order.
func (s *Store) ListGames(ctx context.Context, batchID string) ([]sim.GameRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT game_index, seed, winner, winner_name, winner_profile, turns,
		        end_reason, profiles, events, error, duration_ms
		   FROM games WHERE batch_id = ? ORDER BY game_index`, batchID)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var out []sim.GameRecord
	for rows.Next() {
		var (
			rec              sim.GameRecord
			endReason        string
			profiles, events string
			durationMS       int64
		)
		if err := rows.Scan(
			&rec.Index, &rec.Seed, &rec.Result.Winner, &rec.Result.WinnerName, &rec.Result.WinnerProfile,
			&rec.Result.Turns, &endReason, &profiles, &events, &rec.Err, &durationMS,
		); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		rec.Result.Seed = rec.Seed
		rec.Result.EndReason = game.ParseEndReason(endReason)
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		if err := json.Unmarshal([]byte(profiles), &rec.Profiles); err != nil {
			return nil, fmt.Errorf("decode profiles: %w", err)
		}
		if err := json.Unmarshal([]byte(events), &rec.Events); err != nil {
			return nil, fmt.Errorf("decode events: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBatch(row scanner) (sim.Summary, error) {
	var (
		sum                                  sim.Summary
		wins, seats, endReasons, eventCounts string
		startedAt, finishedAt                int64
	)
	if err := row.Scan(
		&sum.BatchID, &sum.Seed, &sum.Games, &sum.Completed, &sum.Failed, &sum.Players, &sum.PolicyVersion,
		&wins, &seats, &endReasons, &eventCounts,
		&sum.AvgTurns, &startedAt, &finishedAt,
	); err != nil {
		return sim.Summary{}, err
	}
	sum.StartedAt = fromMillis(startedAt)
	sum.FinishedAt = fromMillis(finishedAt)
	for _, f := range []struct {
		raw string
		dst *map[string]int
	}{
		{wins, &sum.WinsByProfile},
		{seats, &sum.SeatsByProfile},
		{endReasons, &sum.EndReasons},
		{eventCounts, &sum.EventCounts},
	} {
		if err := json.Unmarshal([]byte(f.raw), f.dst); err != nil {
			return sim.Summary{}, fmt.Errorf("decode counts: %w", err)
		}
	}
	return sum, nil
}

func encode(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
