// Package sqlite provides the embedded, file-backed score store.
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

	"github.com/mcoot/cardtally/internal/model"
	"github.com/mcoot/cardtally/internal/storage"
	"github.com/mcoot/cardtally/internal/storage/sqlite/migrations"
)

// Store persists players, scores and round history in SQLite.
type Store struct {
	sqlDB *sql.DB
}

// Ensure Store implements the interface
var _ storage.Storage = (*Store)(nil)

func formatTime(value time.Time) string {
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, value)
}

// Open opens a SQLite store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := "file:" + cleanPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer; keeps AUTOINCREMENT ordering and transactions on a single connection
	sqlDB.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
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

// Player operations

// AddPlayer inserts one player keyed by name.
func (s *Store) AddPlayer(ctx context.Context, player *model.Player) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO players (name, created_at) VALUES (?, ?)`,
		player.Name,
		formatTime(player.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrPlayerExists
		}
		return fmt.Errorf("add player: %w", err)
	}
	return nil
}

// ListPlayers returns players in registration order.
func (s *Store) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT name, created_at FROM players ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	players := []*model.Player{}
	for rows.Next() {
		var (
			p         model.Player
			createdAt string
		)
		if err := rows.Scan(&p.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		if p.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse player created_at: %w", err)
		}
		players = append(players, &p)
	}
	return players, rows.Err()
}

// Score operations

// AppendScores inserts the batch in one transaction.
func (s *Store) AppendScores(ctx context.Context, entries []*model.ScoreEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append scores: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	ids := make([]model.EntryID, len(entries))
	for i, entry := range entries {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO scores (player, score, round_id, date) VALUES (?, ?, ?, ?)`,
			entry.Player,
			entry.Score,
			string(entry.RoundID),
			formatTime(entry.Timestamp),
		)
		if err != nil {
			return fmt.Errorf("insert score for %q: %w", entry.Player, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("score id: %w", err)
		}
		ids[i] = model.EntryID(id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append scores: %w", err)
	}
	for i, entry := range entries {
		entry.ID = ids[i]
	}
	return nil
}

// ListScores returns every entry ordered by ID.
func (s *Store) ListScores(ctx context.Context) ([]*model.ScoreEntry, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT id, player, score, round_id, date FROM scores ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	defer rows.Close()

	entries := []*model.ScoreEntry{}
	for rows.Next() {
		var (
			e       model.ScoreEntry
			roundID string
			date    string
		)
		if err := rows.Scan(&e.ID, &e.Player, &e.Score, &roundID, &date); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		e.RoundID = model.RoundID(roundID)
		if e.Timestamp, err = parseTime(date); err != nil {
			return nil, fmt.Errorf("parse score date: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// DeleteScores removes entries by ID in one transaction.
func (s *Store) DeleteScores(ctx context.Context, ids []model.EntryID) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete scores: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `DELETE FROM scores WHERE id = ?`, int64(id)); err != nil {
			return fmt.Errorf("delete score %d: %w", id, err)
		}
	}
	return tx.Commit()
}

// ClearScores deletes all entries; the AUTOINCREMENT sequence is kept.
func (s *Store) ClearScores(ctx context.Context) error {
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM scores`); err != nil {
		return fmt.Errorf("clear scores: %w", err)
	}
	return nil
}

// Round history operations

// SaveRound writes one history record.
func (s *Store) SaveRound(ctx context.Context, round *model.Round) error {
	entries, err := json.Marshal(round.Entries)
	if err != nil {
		return err
	}
	res, err := s.sqlDB.ExecContext(ctx,
		`INSERT OR REPLACE INTO history (round_id, round, date) VALUES (?, ?, ?)`,
		string(round.ID),
		string(entries),
		formatTime(round.Date),
	)
	if err != nil {
		return fmt.Errorf("save round: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("round seq: %w", err)
	}
	round.Seq = seq
	return nil
}

// ListRounds returns history records ordered by Seq.
func (s *Store) ListRounds(ctx context.Context) ([]*model.Round, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT seq, round_id, round, date FROM history ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list rounds: %w", err)
	}
	defer rows.Close()

	rounds := []*model.Round{}
	for rows.Next() {
		var (
			r       model.Round
			roundID string
			entries string
			date    string
		)
		if err := rows.Scan(&r.Seq, &roundID, &entries, &date); err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}
		r.ID = model.RoundID(roundID)
		if err := json.Unmarshal([]byte(entries), &r.Entries); err != nil {
			return nil, fmt.Errorf("decode round %s: %w", roundID, err)
		}
		if r.Date, err = parseTime(date); err != nil {
			return nil, fmt.Errorf("parse round date: %w", err)
		}
		rounds = append(rounds, &r)
	}
	return rounds, rows.Err()
}

// DeleteRound removes one history record.
func (s *Store) DeleteRound(ctx context.Context, id model.RoundID) error {
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM history WHERE round_id = ?`, string(id)); err != nil {
		return fmt.Errorf("delete round: %w", err)
	}
	return nil
}

// ClearRounds deletes all history records.
func (s *Store) ClearRounds(ctx context.Context) error {
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM history`); err != nil {
		return fmt.Errorf("clear rounds: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
