package storage

import (
	"context"

	"github.com/mcoot/cardtally/internal/model"
)

// Storage defines the interface for data persistence
type Storage interface {
	// Player operations
	// AddPlayer inserts a player keyed by name, failing with model.ErrPlayerExists on duplicates
	AddPlayer(ctx context.Context, player *model.Player) error
	// ListPlayers returns all players in insertion order
	ListPlayers(ctx context.Context) ([]*model.Player, error)

	// Score operations
	// AppendScores assigns increasing IDs to entries in order and stores them atomically
	AppendScores(ctx context.Context, entries []*model.ScoreEntry) error
	// ListScores returns all entries in insertion order
	ListScores(ctx context.Context) ([]*model.ScoreEntry, error)
	// DeleteScores removes the entries with the given IDs; unknown IDs are ignored
	DeleteScores(ctx context.Context, ids []model.EntryID) error
	ClearScores(ctx context.Context) error

	// Round history operations
	// SaveRound assigns the round's Seq and stores it
	SaveRound(ctx context.Context, round *model.Round) error
	ListRounds(ctx context.Context) ([]*model.Round, error)
	DeleteRound(ctx context.Context, id model.RoundID) error
	ClearRounds(ctx context.Context) error
}
