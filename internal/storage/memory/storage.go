package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/mcoot/cardtally/internal/model"
	"github.com/mcoot/cardtally/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	players     map[string]*model.Player
	playerOrder []string

	scores     map[model.EntryID]*model.ScoreEntry
	scoreOrder []model.EntryID
	nextScore  model.EntryID

	rounds     map[model.RoundID]*model.Round
	roundOrder []model.RoundID
	nextRound  int64
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		players: make(map[string]*model.Player),
		scores:  make(map[model.EntryID]*model.ScoreEntry),
		rounds:  make(map[model.RoundID]*model.Round),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) AddPlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.players[player.Name]; ok {
		return model.ErrPlayerExists
	}
	p := *player
	s.players[player.Name] = &p
	s.playerOrder = append(s.playerOrder, player.Name)
	return nil
}

func (s *Storage) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	players := make([]*model.Player, 0, len(s.playerOrder))
	for _, name := range s.playerOrder {
		p := *s.players[name]
		players = append(players, &p)
	}
	return players, nil
}

// Score operations

func (s *Storage) AppendScores(ctx context.Context, entries []*model.ScoreEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range entries {
		s.nextScore++
		entry.ID = s.nextScore
		e := *entry
		s.scores[e.ID] = &e
		s.scoreOrder = append(s.scoreOrder, e.ID)
	}
	return nil
}

func (s *Storage) ListScores(ctx context.Context) ([]*model.ScoreEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]*model.ScoreEntry, 0, len(s.scoreOrder))
	for _, id := range s.scoreOrder {
		e := *s.scores[id]
		entries = append(entries, &e)
	}
	return entries, nil
}

func (s *Storage) DeleteScores(ctx context.Context, ids []model.EntryID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		delete(s.scores, id)
	}
	s.scoreOrder = slices.DeleteFunc(s.scoreOrder, func(id model.EntryID) bool {
		_, ok := s.scores[id]
		return !ok
	})
	return nil
}

func (s *Storage) ClearScores(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The ID sequence keeps counting, like an auto-increment key
	s.scores = make(map[model.EntryID]*model.ScoreEntry)
	s.scoreOrder = nil
	return nil
}

// Round history operations

func (s *Storage) SaveRound(ctx context.Context, round *model.Round) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rounds[round.ID]; !ok {
		s.roundOrder = append(s.roundOrder, round.ID)
	}
	s.nextRound++
	round.Seq = s.nextRound
	s.rounds[round.ID] = copyRound(round)
	return nil
}

func (s *Storage) ListRounds(ctx context.Context) ([]*model.Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rounds := make([]*model.Round, 0, len(s.roundOrder))
	for _, id := range s.roundOrder {
		rounds = append(rounds, copyRound(s.rounds[id]))
	}
	return rounds, nil
}

func (s *Storage) DeleteRound(ctx context.Context, id model.RoundID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.rounds, id)
	s.roundOrder = slices.DeleteFunc(s.roundOrder, func(r model.RoundID) bool {
		return r == id
	})
	return nil
}

func (s *Storage) ClearRounds(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rounds = make(map[model.RoundID]*model.Round)
	s.roundOrder = nil
	return nil
}

func copyRound(r *model.Round) *model.Round {
	c := *r
	c.Entries = slices.Clone(r.Entries)
	return &c
}
