package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mcoot/cardtally/internal/dependencies/clock"
	"github.com/mcoot/cardtally/internal/dependencies/idgen"
	"github.com/mcoot/cardtally/internal/model"
	"github.com/mcoot/cardtally/internal/storage"
)

// Players supplies the names of registered players
type Players interface {
	Names(ctx context.Context) ([]string, error)
}

// ScoreInput is one raw (player, score) pair as entered by the user
type ScoreInput struct {
	Player string
	Score  string
}

// SubmitResult describes a submitted round
type SubmitResult struct {
	// Round is the persisted history record, nil when nothing was recorded
	Round    *model.Round
	Entries  []*model.ScoreEntry
	Sum      int
	Balanced bool
}

// Service records rounds of scores and owns the session's undo state.
// One Service is one interactive session: LastAction is never persisted.
type Service struct {
	storage storage.Storage
	players Players
	clock   clock.Clock
	ids     idgen.Generator
	logger  *slog.Logger

	lastAction model.LastAction
}

// New creates a new ledger Service
func New(
	storage storage.Storage,
	players Players,
	clock clock.Clock,
	ids idgen.Generator,
	logger *slog.Logger,
) *Service {
	return &Service{
		storage: storage,
		players: players,
		clock:   clock,
		ids:     ids,
		logger:  logger.With(slog.String("component", "ledger")),
	}
}

// MaxScore bounds the magnitude of one score. Sums over millions of entries
// stay exact within int64, so the zero-sum check cannot wrap around.
const MaxScore int64 = 1_000_000_000_000

// ParseScore parses a raw score as a base-10 integer within ±MaxScore
func ParseScore(raw string) (int, error) {
	score, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if v := int64(score); v > MaxScore || v < -MaxScore {
		return 0, model.ErrScoreOutOfRange
	}
	return score, nil
}

// SubmitRound appends one round of scores.
// Inputs with an unknown player or a score that is not an integer are skipped.
// A player gets at most one entry per round; a repeated player keeps the last
// valid score given.
// The valid entries share one RoundID and timestamp and are stored in a single
// batch before the method returns.
func (s *Service) SubmitRound(ctx context.Context, inputs []ScoreInput) (*SubmitResult, error) {
	names, err := s.players.Names(ctx)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(names))
	for _, n := range names {
		known[n] = true
	}

	now := s.clock.Now()
	roundID := s.ids.RoundID()

	var entries []*model.ScoreEntry
	seen := make(map[string]*model.ScoreEntry, len(inputs))
	for _, in := range inputs {
		player := strings.TrimSpace(in.Player)
		if !known[player] {
			s.logger.Debug("skipping score for unknown player", slog.String("player", player))
			continue
		}
		score, err := ParseScore(in.Score)
		if err != nil {
			s.logger.Debug("skipping unparseable score",
				slog.String("player", player),
				slog.String("score", in.Score),
			)
			continue
		}
		if prev, ok := seen[player]; ok {
			s.logger.Debug("replacing repeated score in round",
				slog.String("player", player),
				slog.Int("previous", prev.Score),
				slog.Int("score", score),
			)
			prev.Score = score
			continue
		}
		entry := &model.ScoreEntry{
			Player:    player,
			Score:     score,
			Timestamp: now,
			RoundID:   roundID,
		}
		seen[player] = entry
		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		return &SubmitResult{Balanced: true}, nil
	}

	if err := s.storage.AppendScores(ctx, entries); err != nil {
		s.logger.Error("failed to append round",
			slog.String("round_id", string(roundID)),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("append round: %w", err)
	}

	ids := make([]model.EntryID, len(entries))
	round := &model.Round{
		ID:      roundID,
		Entries: make([]model.RoundEntry, len(entries)),
		Date:    now,
	}
	for i, e := range entries {
		ids[i] = e.ID
		round.Entries[i] = model.RoundEntry{Player: e.Player, Score: e.Score}
	}

	if err := s.storage.SaveRound(ctx, round); err != nil {
		// Keep scores and history consistent: the round did not happen
		if delErr := s.storage.DeleteScores(ctx, ids); delErr != nil {
			s.logger.Error("failed to roll back round entries",
				slog.String("round_id", string(roundID)),
				slog.String("error", delErr.Error()),
			)
		}
		return nil, fmt.Errorf("save round: %w", err)
	}

	s.lastAction = model.LastAction{
		Kind:     model.ActionSubmit,
		RoundID:  roundID,
		EntryIDs: ids,
	}

	result := &SubmitResult{
		Round:    round,
		Entries:  entries,
		Sum:      round.Sum(),
		Balanced: round.IsBalanced(),
	}

	if result.Balanced {
		s.logger.Info("round submitted",
			slog.String("round_id", string(roundID)),
			slog.Int("entries", len(entries)),
		)
	} else {
		s.logger.Warn("round does not balance",
			slog.String("round_id", string(roundID)),
			slog.Int("entries", len(entries)),
			slog.Int("sum", result.Sum),
		)
	}

	return result, nil
}

// UndoLastAction reverses the most recent SubmitRound of this session by
// deleting exactly the entries it appended. It reports whether anything was
// undone; without an undoable action it does nothing.
func (s *Service) UndoLastAction(ctx context.Context) (bool, error) {
	if !s.lastAction.CanUndo() {
		return false, nil
	}
	action := s.lastAction

	if err := s.storage.DeleteScores(ctx, action.EntryIDs); err != nil {
		return false, fmt.Errorf("undo round %s: %w", action.RoundID, err)
	}
	if err := s.storage.DeleteRound(ctx, action.RoundID); err != nil {
		return false, fmt.Errorf("undo round %s: %w", action.RoundID, err)
	}

	s.lastAction = model.LastAction{}

	s.logger.Info("round undone",
		slog.String("round_id", string(action.RoundID)),
		slog.Int("entries", len(action.EntryIDs)),
	)
	return true, nil
}

// ResetGame deletes every score entry and round record. It cannot be undone.
func (s *Service) ResetGame(ctx context.Context) error {
	if err := s.storage.ClearScores(ctx); err != nil {
		return fmt.Errorf("reset scores: %w", err)
	}
	if err := s.storage.ClearRounds(ctx); err != nil {
		return fmt.Errorf("reset history: %w", err)
	}

	s.lastAction = model.LastAction{Kind: model.ActionReset}

	s.logger.Info("game reset")
	return nil
}

// LastAction returns the most recent ledger mutation of this session
func (s *Service) LastAction() model.LastAction {
	return s.lastAction
}

// ListAll returns every score entry in insertion order
func (s *Service) ListAll(ctx context.Context) ([]*model.ScoreEntry, error) {
	return s.storage.ListScores(ctx)
}

// ListByRound returns the entries of one round in insertion order
func (s *Service) ListByRound(ctx context.Context, roundID model.RoundID) ([]*model.ScoreEntry, error) {
	all, err := s.storage.ListScores(ctx)
	if err != nil {
		return nil, err
	}

	var entries []*model.ScoreEntry
	for _, e := range all {
		if e.RoundID == roundID {
			entries = append(entries, e)
		}
	}
	if len(entries) == 0 {
		return nil, model.ErrRoundNotFound
	}
	return entries, nil
}

// ListRounds returns the round history records in submission order
func (s *Service) ListRounds(ctx context.Context) ([]*model.Round, error) {
	return s.storage.ListRounds(ctx)
}
