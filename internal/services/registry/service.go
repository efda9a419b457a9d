package registry

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/mcoot/cardtally/internal/dependencies/clock"
	"github.com/mcoot/cardtally/internal/model"
	"github.com/mcoot/cardtally/internal/storage"
)

// Service maintains the set of registered players
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger
}

// New creates a new registry Service
func New(storage storage.Storage, clock clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		clock:   clock,
		logger:  logger.With(slog.String("component", "registry")),
	}
}

// Register adds a player by name. It reports whether the player was added.
// Blank names and names already registered are ignored without an error.
func (s *Service) Register(ctx context.Context, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, nil
	}

	err := s.storage.AddPlayer(ctx, &model.Player{
		Name:      name,
		CreatedAt: s.clock.Now(),
	})
	if errors.Is(err, model.ErrPlayerExists) {
		s.logger.Debug("player already registered", slog.String("player", name))
		return false, nil
	}
	if err != nil {
		return false, err
	}

	s.logger.Info("player registered", slog.String("player", name))
	return true, nil
}

// ListAll returns every registered player in registration order
func (s *Service) ListAll(ctx context.Context) ([]*model.Player, error) {
	return s.storage.ListPlayers(ctx)
}

// Names returns the registered player names in registration order
func (s *Service) Names(ctx context.Context) ([]string, error) {
	players, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(players))
	for i, p := range players {
		names[i] = p.Name
	}
	return names, nil
}

// Exists reports whether a player with this exact name is registered
func (s *Service) Exists(ctx context.Context, name string) (bool, error) {
	names, err := s.Names(ctx)
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}
