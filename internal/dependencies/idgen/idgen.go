package idgen

import (
	"github.com/google/uuid"

	"github.com/mcoot/cardtally/internal/model"
)

// Generator produces identifiers that can be mocked for testing
type Generator interface {
	// RoundID returns a fresh identifier for a submitted round
	RoundID() model.RoundID
}

// UUIDGenerator implements Generator with random UUIDs
type UUIDGenerator struct{}

// New creates a new UUIDGenerator
func New() *UUIDGenerator {
	return &UUIDGenerator{}
}

// RoundID returns a random (version 4) UUID
func (g *UUIDGenerator) RoundID() model.RoundID {
	return model.RoundID(uuid.NewString())
}
