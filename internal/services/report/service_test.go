package report

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/cardtally/internal/dependencies/mocks"
	"github.com/mcoot/cardtally/internal/model"
	"github.com/mcoot/cardtally/internal/services/ledger"
	"github.com/mcoot/cardtally/internal/services/registry"
	"github.com/mcoot/cardtally/internal/storage/memory"
	"github.com/mcoot/cardtally/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	clock   *mocks.MockClock
	ledger  *ledger.Service
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	store := memory.New()
	logger := testutil.NopLogger()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	players := registry.New(store, s.clock, logger)
	s.ledger = ledger.New(store, players, s.clock, mocks.NewMockIDGenerator(), logger)
	s.service = New(s.ledger, time.UTC)
	s.ctx = context.Background()

	for _, name := range []string{"Alice", "Bob", "Carol"} {
		_, err := players.Register(s.ctx, name)
		s.Require().NoError(err)
	}
}

func (s *ServiceSuite) submit(alice, bob, carol string) {
	_, err := s.ledger.SubmitRound(s.ctx, []ledger.ScoreInput{
		{Player: "Alice", Score: alice},
		{Player: "Bob", Score: bob},
		{Player: "Carol", Score: carol},
	})
	s.Require().NoError(err)
}

func (s *ServiceSuite) summary(filter Filter) *Summary {
	summary, err := s.service.Summary(s.ctx, filter)
	s.Require().NoError(err)
	return summary
}

// Scenario tests

func (s *ServiceSuite) TestBalancedRound() {
	s.submit("10", "-5", "-5")

	summary := s.summary(Filter{})

	s.Equal(map[string]int{"Alice": 10, "Bob": -5, "Carol": -5}, summary.Overall.ByPlayer)
	s.Equal(0, summary.Overall.Total)
	s.True(summary.Balanced)
}

func (s *ServiceSuite) TestUnbalancedRound() {
	s.submit("10", "-5", "-3")

	summary := s.summary(Filter{})

	s.Equal(2, summary.Overall.Total)
	s.False(summary.Balanced)
}

func (s *ServiceSuite) TestFilterByPlayerAndDate() {
	s.submit("10", "-5", "-5")
	s.submit("-2", "4", "-2")
	s.clock.Advance(24 * time.Hour)
	s.submit("1", "-1", "0")

	summary := s.summary(Filter{Player: "Bob", Date: "2024-01-01"})

	s.Require().Len(summary.Filtered.Entries, 2)
	for _, e := range summary.Filtered.Entries {
		s.Equal("Bob", e.Player)
		s.Equal("2024-01-01", s.service.DayOf(e.Timestamp))
	}
	s.Equal(map[string]int{"Bob": -1}, summary.Filtered.ByPlayer)
	s.Equal(-1, summary.Filtered.Total)
	// Balance always covers the whole ledger
	s.True(summary.Balanced)
	s.Len(summary.Overall.Entries, 9)
}

func (s *ServiceSuite) TestFilterByDateOnly() {
	s.submit("1", "-1", "0")
	s.clock.Advance(24 * time.Hour)
	s.submit("3", "-1", "-2")

	summary := s.summary(Filter{Date: "2024-01-02"})

	s.Len(summary.Filtered.Entries, 3)
	s.Equal(map[string]int{"Alice": 3, "Bob": -1, "Carol": -2}, summary.Filtered.ByPlayer)
}

// Balance property tests

func (s *ServiceSuite) TestZeroSumRoundsStayBalanced() {
	rounds := [][3]string{
		{"10", "-5", "-5"},
		{"-7", "7", "0"},
		{"3", "3", "-6"},
		{"0", "0", "0"},
	}
	for _, r := range rounds {
		s.submit(r[0], r[1], r[2])
		s.True(s.summary(Filter{}).Balanced)
	}
}

func (s *ServiceSuite) TestImbalanceUntilCorrectiveRound() {
	s.submit("10", "-5", "-3")
	s.False(s.summary(Filter{}).Balanced)

	s.submit("0", "0", "0")
	s.False(s.summary(Filter{}).Balanced)

	s.submit("-1", "0", "-1")
	s.True(s.summary(Filter{}).Balanced)
}

func (s *ServiceSuite) TestImbalanceUntilReset() {
	s.submit("10", "-5", "-3")
	s.False(s.summary(Filter{}).Balanced)

	s.Require().NoError(s.ledger.ResetGame(s.ctx))

	summary := s.summary(Filter{})
	s.True(summary.Balanced)
	s.Empty(summary.Overall.Entries)
	s.Equal(0, summary.Overall.Total)
}

func (s *ServiceSuite) TestUndoRestoresBalance() {
	s.submit("10", "-5", "-5")
	s.submit("10", "-5", "-3")
	s.False(s.summary(Filter{}).Balanced)

	_, err := s.ledger.UndoLastAction(s.ctx)
	s.Require().NoError(err)

	s.True(s.summary(Filter{}).Balanced)
}

// History tests

func (s *ServiceSuite) TestHistoryGroupsByRound() {
	s.submit("10", "-5", "-5")
	s.clock.Advance(time.Minute)
	s.submit("1", "1", "-1")

	groups, err := s.service.History(s.ctx, Filter{})
	s.Require().NoError(err)

	s.Require().Len(groups, 2)
	s.Len(groups[0].Entries, 3)
	s.True(groups[0].Balanced)
	s.Equal(1, groups[1].Sum)
	s.False(groups[1].Balanced)
	s.True(groups[1].Timestamp.After(groups[0].Timestamp))
}

func (s *ServiceSuite) TestHistoryWithPlayerFilter() {
	s.submit("10", "-5", "-5")
	s.submit("1", "1", "-2")

	groups, err := s.service.History(s.ctx, Filter{Player: "Carol"})
	s.Require().NoError(err)

	s.Require().Len(groups, 2)
	s.Equal([]model.RoundEntry{{Player: "Carol", Score: -5}}, groups[0].Entries)
	s.Equal([]model.RoundEntry{{Player: "Carol", Score: -2}}, groups[1].Entries)
}

func (s *ServiceSuite) TestRenderHistoryGroupsEntriesWithoutRoundID() {
	t1 := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Second)
	entries := []*model.ScoreEntry{
		{ID: 1, Player: "Alice", Score: 2, Timestamp: t1},
		{ID: 2, Player: "Bob", Score: -2, Timestamp: t1},
		{ID: 3, Player: "Alice", Score: 1, Timestamp: t2},
	}

	groups := s.service.RenderHistory(entries)

	s.Require().Len(groups, 2)
	s.Len(groups[0].Entries, 2)
	s.True(groups[0].Balanced)
	s.Len(groups[1].Entries, 1)
}

func (s *ServiceSuite) TestPastRounds() {
	s.submit("10", "-5", "-5")

	rounds, err := s.service.PastRounds(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(rounds, 1)
	s.Len(rounds[0].Entries, 3)
}

// Pure helpers

func TestDayOfUsesLocation(t *testing.T) {
	east := time.FixedZone("UTC+2", 2*60*60)
	svc := New(nil, east)

	late := time.Date(2024, 1, 1, 23, 30, 0, 0, time.UTC)

	if got := svc.DayOf(late); got != "2024-01-02" {
		t.Fatalf("DayOf = %q, want 2024-01-02", got)
	}
	totals := svc.ComputeTotals([]*model.ScoreEntry{{Player: "Alice", Score: 1, Timestamp: late}}, Filter{Date: "2024-01-01"})
	if len(totals.Entries) != 0 {
		t.Fatalf("expected no entries on 2024-01-01 in UTC+2, got %d", len(totals.Entries))
	}
}

func TestIsBalancedEmpty(t *testing.T) {
	if !IsBalanced(Totals{}) {
		t.Fatal("empty totals should be balanced")
	}
}

func TestFilterValidate(t *testing.T) {
	if err := (Filter{Date: "2024-02-30"}).Validate(); err == nil {
		t.Fatal("expected invalid date error")
	}
	if err := (Filter{Date: "01/02/2024"}).Validate(); err == nil {
		t.Fatal("expected invalid format error")
	}
	if err := (Filter{Player: "Bob", Date: "2024-02-28"}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
