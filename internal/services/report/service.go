package report

import (
	"context"
	"time"

	"github.com/mcoot/cardtally/internal/model"
)

// Source is the read side of the ledger
type Source interface {
	ListAll(ctx context.Context) ([]*model.ScoreEntry, error)
	ListRounds(ctx context.Context) ([]*model.Round, error)
}

// Filter narrows history and totals. Empty fields match everything.
type Filter struct {
	Player string `json:"player,omitempty"`
	// Date is a calendar day, YYYY-MM-DD, in the reporter's location
	Date string `json:"date,omitempty"`
}

// Validate checks the date format
func (f Filter) Validate() error {
	if f.Date == "" {
		return nil
	}
	if _, err := time.Parse(time.DateOnly, f.Date); err != nil {
		return model.ErrInvalidDateFilter
	}
	return nil
}

// IsZero reports whether the filter matches everything
func (f Filter) IsZero() bool {
	return f.Player == "" && f.Date == ""
}

// Totals are the aggregates of a set of entries
type Totals struct {
	Entries  []*model.ScoreEntry `json:"entries"`
	Total    int                 `json:"total"`
	ByPlayer map[string]int      `json:"by_player"`
}

// RoundGroup is one round in the history view
type RoundGroup struct {
	RoundID   model.RoundID      `json:"round_id,omitempty"`
	Timestamp time.Time          `json:"date"`
	Entries   []model.RoundEntry `json:"entries"`
	Sum       int                `json:"sum"`
	Balanced  bool               `json:"balanced"`
}

// Summary is everything a view needs after a ledger change
type Summary struct {
	Filter   Filter `json:"filter"`
	Filtered Totals `json:"filtered"`
	Overall  Totals `json:"overall"`
	// Balanced is the zero-sum check over the whole, unfiltered ledger
	Balanced bool `json:"balanced"`
}

// Service derives totals, balance and history from the ledger.
// It keeps no state of its own; every call recomputes from the source.
type Service struct {
	source   Source
	location *time.Location
}

// New creates a new report Service. A nil location means time.Local.
func New(source Source, location *time.Location) *Service {
	if location == nil {
		location = time.Local
	}
	return &Service{
		source:   source,
		location: location,
	}
}

// Location returns the location used for calendar-day matching and display
func (s *Service) Location() *time.Location {
	return s.location
}

// DayOf returns the calendar day of t in the reporter's location
func (s *Service) DayOf(t time.Time) string {
	return t.In(s.location).Format(time.DateOnly)
}

// ComputeTotals filters entries and sums them overall and per player
func (s *Service) ComputeTotals(entries []*model.ScoreEntry, filter Filter) Totals {
	totals := Totals{
		Entries:  []*model.ScoreEntry{},
		ByPlayer: make(map[string]int),
	}

	for _, e := range entries {
		if filter.Player != "" && e.Player != filter.Player {
			continue
		}
		if filter.Date != "" && s.DayOf(e.Timestamp) != filter.Date {
			continue
		}
		totals.Entries = append(totals.Entries, e)
		totals.Total += e.Score
		totals.ByPlayer[e.Player] += e.Score
	}

	return totals
}

// IsBalanced reports whether the per-player totals net to zero
func IsBalanced(totals Totals) bool {
	sum := 0
	for _, v := range totals.ByPlayer {
		sum += v
	}
	return sum == 0
}

// Summary reads the full ledger and computes filtered and overall totals
func (s *Service) Summary(ctx context.Context, filter Filter) (*Summary, error) {
	entries, err := s.source.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	overall := s.ComputeTotals(entries, Filter{})
	filtered := overall
	if !filter.IsZero() {
		filtered = s.ComputeTotals(entries, filter)
	}

	return &Summary{
		Filter:   filter,
		Filtered: filtered,
		Overall:  overall,
		Balanced: IsBalanced(overall),
	}, nil
}

// RenderHistory groups entries into rounds, in the order the rounds were
// recorded. Entries without a RoundID are grouped by identical timestamp.
func (s *Service) RenderHistory(entries []*model.ScoreEntry) []RoundGroup {
	var groups []RoundGroup
	index := make(map[model.RoundID]int)

	for _, e := range entries {
		pair := model.RoundEntry{Player: e.Player, Score: e.Score}

		if e.RoundID != "" {
			if i, ok := index[e.RoundID]; ok {
				groups[i].Entries = append(groups[i].Entries, pair)
				continue
			}
			index[e.RoundID] = len(groups)
		} else if n := len(groups); n > 0 && groups[n-1].RoundID == "" && groups[n-1].Timestamp.Equal(e.Timestamp) {
			groups[n-1].Entries = append(groups[n-1].Entries, pair)
			continue
		}

		groups = append(groups, RoundGroup{
			RoundID:   e.RoundID,
			Timestamp: e.Timestamp.In(s.location),
			Entries:   []model.RoundEntry{pair},
		})
	}

	for i := range groups {
		for _, pair := range groups[i].Entries {
			groups[i].Sum += pair.Score
		}
		groups[i].Balanced = groups[i].Sum == 0
	}
	return groups
}

// History reads the ledger, filters it and groups the result into rounds
func (s *Service) History(ctx context.Context, filter Filter) ([]RoundGroup, error) {
	entries, err := s.source.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.RenderHistory(s.ComputeTotals(entries, filter).Entries), nil
}

// PastRounds returns the materialised round records, oldest first
func (s *Service) PastRounds(ctx context.Context) ([]*model.Round, error) {
	return s.source.ListRounds(ctx)
}
