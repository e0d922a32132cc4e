// Package store persists saved games and simulation results in SQLite.
package store

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/yourusername/tabula/pkg/match"
	"github.com/yourusername/tabula/pkg/store/migrations"
)

var (
	// ErrNotFound is returned when no row has the requested id.
	ErrNotFound = errors.New("not found")
	// ErrInvalidID is returned for ids that are not UUIDs.
	ErrInvalidID = errors.New("invalid id")
)

// Store is a SQLite-backed game store. It is safe for concurrent use.
type Store struct {
	db *sql.DB
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// Open opens or creates the database at path and applies the embedded
// migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// GameRecord is a stored game: summary columns plus the full saved game text.
type GameRecord struct {
	ID         string
	Name       string
	PositionID string
	Current    string
	Winner     string
	Turns      int
	Data       string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewGameRecord renders a game record for storage.
func NewGameRecord(rec *match.Record) (GameRecord, error) {
	var buf bytes.Buffer
	if err := match.Write(&buf, rec); err != nil {
		return GameRecord{}, err
	}
	gr := GameRecord{
		Name:       rec.Name,
		PositionID: rec.Board.PositionID(),
		Current:    rec.Current.String(),
		Turns:      rec.Turns,
		Data:       buf.String(),
	}
	if rec.Winner.Valid() {
		gr.Winner = rec.Winner.String()
	}
	return gr, nil
}

// Match parses the stored saved game.
func (r GameRecord) Match() (*match.Record, error) {
	return match.Parse(strings.NewReader(r.Data))
}

func parseID(id string) (string, error) {
	u, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return u.String(), nil
}

// SaveGame inserts the game, or updates it when the id already exists. A
// new id is assigned when g.ID is empty. The stored record is returned.
func (s *Store) SaveGame(ctx context.Context, g GameRecord) (GameRecord, error) {
	if err := ctx.Err(); err != nil {
		return GameRecord{}, err
	}
	if g.ID == "" {
		g.ID = uuid.NewString()
	} else {
		id, err := parseID(g.ID)
		if err != nil {
			return GameRecord{}, err
		}
		g.ID = id
	}
	if strings.TrimSpace(g.Data) == "" {
		return GameRecord{}, fmt.Errorf("save data is required")
	}

	now := time.Now().UTC()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = now
	}
	g.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO games (id, name, position_id, current_colour, winner, turns, save_data, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   position_id = excluded.position_id,
		   current_colour = excluded.current_colour,
		   winner = excluded.winner,
		   turns = excluded.turns,
		   save_data = excluded.save_data,
		   updated_at = excluded.updated_at`,
		g.ID, g.Name, g.PositionID, g.Current, g.Winner, g.Turns, g.Data,
		toMillis(g.CreatedAt), toMillis(g.UpdatedAt),
	)
	if err != nil {
		return GameRecord{}, fmt.Errorf("save game: %w", err)
	}
	return s.GetGame(ctx, g.ID)
}

const gameColumns = `id, name, position_id, current_colour, winner, turns, save_data, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanGame(row scanner) (GameRecord, error) {
	var g GameRecord
	var createdAt, updatedAt int64
	if err := row.Scan(&g.ID, &g.Name, &g.PositionID, &g.Current, &g.Winner, &g.Turns, &g.Data, &createdAt, &updatedAt); err != nil {
		return GameRecord{}, err
	}
	g.CreatedAt = fromMillis(createdAt)
	g.UpdatedAt = fromMillis(updatedAt)
	return g, nil
}

// GetGame returns one game by id.
func (s *Store) GetGame(ctx context.Context, id string) (GameRecord, error) {
	if err := ctx.Err(); err != nil {
		return GameRecord{}, err
	}
	id, err := parseID(id)
	if err != nil {
		return GameRecord{}, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+gameColumns+` FROM games WHERE id = ?`, id)
	g, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return GameRecord{}, ErrNotFound
	}
	if err != nil {
		return GameRecord{}, fmt.Errorf("get game: %w", err)
	}
	return g, nil
}

// ListGames returns up to limit games, most recently updated first.
func (s *Store) ListGames(ctx context.Context, limit int) ([]GameRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+gameColumns+` FROM games ORDER BY updated_at DESC, id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var games []GameRecord
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate games: %w", err)
	}
	return games, nil
}

// DeleteGame removes a game.
func (s *Store) DeleteGame(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id, err := parseID(id)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM games WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete game: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete game: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SimulationRecord is the stored summary of a batch of self-play games.
type SimulationRecord struct {
	ID        string
	PlayerA   string
	PlayerB   string
	Games     int
	WinsA     int
	WinsB     int
	Errors    int
	Turns     int
	Seed      uint64
	Duration  time.Duration
	CreatedAt time.Time
}

// RecordSimulation stores a simulation summary under a new id.
func (s *Store) RecordSimulation(ctx context.Context, r SimulationRecord) (SimulationRecord, error) {
	if err := ctx.Err(); err != nil {
		return SimulationRecord{}, err
	}
	if r.Games <= 0 {
		return SimulationRecord{}, fmt.Errorf("games must be greater than zero")
	}
	r.ID = uuid.NewString()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO simulations (id, player_a, player_b, games, wins_a, wins_b, errors, turns, seed, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.PlayerA, r.PlayerB, r.Games, r.WinsA, r.WinsB, r.Errors, r.Turns,
		int64(r.Seed), r.Duration.Milliseconds(), toMillis(r.CreatedAt),
	)
	if err != nil {
		return SimulationRecord{}, fmt.Errorf("record simulation: %w", err)
	}
	r.CreatedAt = fromMillis(toMillis(r.CreatedAt))
	r.Duration = r.Duration.Truncate(time.Millisecond)
	return r, nil
}

// ListSimulations returns up to limit simulations, newest first.
func (s *Store) ListSimulations(ctx context.Context, limit int) ([]SimulationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, player_a, player_b, games, wins_a, wins_b, errors, turns, seed, duration_ms, created_at
		   FROM simulations
		  ORDER BY created_at DESC, id ASC
		  LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list simulations: %w", err)
	}
	defer rows.Close()

	var out []SimulationRecord
	for rows.Next() {
		var r SimulationRecord
		var seed, durationMs, createdAt int64
		if err := rows.Scan(&r.ID, &r.PlayerA, &r.PlayerB, &r.Games, &r.WinsA, &r.WinsB,
			&r.Errors, &r.Turns, &seed, &durationMs, &createdAt); err != nil {
			return nil, fmt.Errorf("scan simulation: %w", err)
		}
		r.Seed = uint64(seed)
		r.Duration = time.Duration(durationMs) * time.Millisecond
		r.CreatedAt = fromMillis(createdAt)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate simulations: %w", err)
	}
	return out, nil
}
