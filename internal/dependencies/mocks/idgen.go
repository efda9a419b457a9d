package mocks

import (
	"fmt"

	"github.com/mcoot/cardtally/internal/dependencies/idgen"
	"github.com/mcoot/cardtally/internal/model"
)

// MockIDGenerator is a mock implementation of Generator for testing
type MockIDGenerator struct {
	// RoundIDs is a queue of results to return from RoundID
	RoundIDs []model.RoundID
	index    int
	counter  int
}

// Ensure MockIDGenerator implements Generator
var _ idgen.Generator = (*MockIDGenerator)(nil)

// NewMockIDGenerator creates a new MockIDGenerator
func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

// RoundID returns the next queued ID, or "round-N" once the queue is exhausted
func (g *MockIDGenerator) RoundID() model.RoundID {
	if g.index < len(g.RoundIDs) {
		id := g.RoundIDs[g.index]
		g.index++
		return id
	}
	g.counter++
	return model.RoundID(fmt.Sprintf("round-%d", g.counter))
}

// QueueRoundID adds IDs to the queue
func (g *MockIDGenerator) QueueRoundID(ids ...model.RoundID) {
	g.RoundIDs = append(g.RoundIDs, ids...)
}
