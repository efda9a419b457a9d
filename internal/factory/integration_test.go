package factory

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/cardtally/internal/model"
	"github.com/mcoot/cardtally/internal/services/ledger"
	"github.com/mcoot/cardtally/internal/services/report"
)

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
}

func (s *IntegrationSuite) register(names ...string) {
	for _, name := range names {
		_, err := s.app.Registry.Register(s.ctx, name)
		s.Require().NoError(err)
	}
}

// Test: a full evening from registration through undo and reset
func (s *IntegrationSuite) TestCompleteSessionFlow() {
	s.app.MockIDs.QueueRoundID("R1", "R2", "R3")

	// Step 1: Register players, with a blank and a duplicate on the way
	s.register("Alice", "Bob", "  ", "Carol", "Bob")
	players, err := s.app.Registry.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Len(players, 3)

	// Step 2: A balanced round
	result, err := s.app.Ledger.SubmitRound(s.ctx, []ledger.ScoreInput{
		{Player: "Alice", Score: "10"},
		{Player: "Bob", Score: "-5"},
		{Player: "Carol", Score: "-5"},
	})
	s.Require().NoError(err)
	s.True(result.Balanced)

	summary, err := s.app.Report.Summary(s.ctx, report.Filter{})
	s.Require().NoError(err)
	s.True(summary.Balanced)
	s.Equal(map[string]int{"Alice": 10, "Bob": -5, "Carol": -5}, summary.Overall.ByPlayer)

	// Step 3: A mistyped round flags the imbalance
	s.app.MockClock.Advance(5 * time.Minute)
	result, err = s.app.Ledger.SubmitRound(s.ctx, []ledger.ScoreInput{
		{Player: "Alice", Score: "10"},
		{Player: "Bob", Score: "-5"},
		{Player: "Carol", Score: "-3"},
	})
	s.Require().NoError(err)
	s.Equal(2, result.Sum)

	summary, _ = s.app.Report.Summary(s.ctx, report.Filter{})
	s.False(summary.Balanced)
	s.Equal(2, summary.Overall.Total)

	// Step 4: Undo it and enter it correctly
	undone, err := s.app.Ledger.UndoLastAction(s.ctx)
	s.Require().NoError(err)
	s.True(undone)

	_, err = s.app.Ledger.SubmitRound(s.ctx, []ledger.ScoreInput{
		{Player: "Alice", Score: "10"},
		{Player: "Bob", Score: "-5"},
		{Player: "Carol", Score: "-5"},
	})
	s.Require().NoError(err)

	summary, _ = s.app.Report.Summary(s.ctx, report.Filter{})
	s.True(summary.Balanced)
	s.Equal(map[string]int{"Alice": 20, "Bob": -10, "Carol": -10}, summary.Overall.ByPlayer)

	// Step 5: History shows the two surviving rounds
	groups, err := s.app.Report.History(s.ctx, report.Filter{})
	s.Require().NoError(err)
	s.Require().Len(groups, 2)
	s.Equal(model.RoundID("R1"), groups[0].RoundID)
	s.Equal(model.RoundID("R3"), groups[1].RoundID)

	rounds, err := s.app.Report.PastRounds(s.ctx)
	s.Require().NoError(err)
	s.Len(rounds, 2)

	// Step 6: Reset is final
	s.Require().NoError(s.app.Ledger.ResetGame(s.ctx))
	undone, err = s.app.Ledger.UndoLastAction(s.ctx)
	s.Require().NoError(err)
	s.False(undone)

	summary, _ = s.app.Report.Summary(s.ctx, report.Filter{})
	s.True(summary.Balanced)
	s.Empty(summary.Overall.Entries)
}

func (s *IntegrationSuite) TestDealerRotationFollowsRegistry() {
	s.register("Alice", "Bob")
	names, err := s.app.Registry.Names(s.ctx)
	s.Require().NoError(err)

	next, err := s.app.Dealer.Next(names)
	s.Require().NoError(err)
	s.Equal("Bob", next)
}

func TestNewRejectsUnknownStorage(t *testing.T) {
	_, err := New(Config{StorageType: "postgres"})
	require.Error(t, err)
}

func TestNewRequiresRedisConfig(t *testing.T) {
	_, err := New(Config{StorageType: StorageTypeRedis})
	require.Error(t, err)
}

func TestNewSQLiteSessionPersistsAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tally.db")
	ctx := context.Background()

	app, err := New(Config{DBPath: path, Location: time.UTC})
	require.NoError(t, err)
	_, err = app.Registry.Register(ctx, "Alice")
	require.NoError(t, err)
	_, err = app.Registry.Register(ctx, "Bob")
	require.NoError(t, err)
	_, err = app.Ledger.SubmitRound(ctx, []ledger.ScoreInput{
		{Player: "Alice", Score: "3"},
		{Player: "Bob", Score: "-3"},
	})
	require.NoError(t, err)
	require.NoError(t, app.Close())

	// A new session sees the ledger but has nothing to undo
	restarted, err := New(Config{DBPath: path, Location: time.UTC})
	require.NoError(t, err)
	defer restarted.Close()

	entries, err := restarted.Ledger.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	undone, err := restarted.Ledger.UndoLastAction(ctx)
	require.NoError(t, err)
	require.False(t, undone)
}
