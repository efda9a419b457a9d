package model

import "time"

// EntryID is the auto-assigned, monotonically increasing key of a ScoreEntry
type EntryID int64

// RoundID groups the score entries submitted together
type RoundID string

// ScoreEntry is one player's score for one round.
// Positive scores are received, negative scores are paid.
type ScoreEntry struct {
	ID        EntryID   `json:"id"`
	Player    string    `json:"player"`
	Score     int       `json:"score"`
	Timestamp time.Time `json:"date"`
	RoundID   RoundID   `json:"round_id,omitempty"`
}

// RoundEntry is a (player, score) pair inside a materialised Round
type RoundEntry struct {
	Player string `json:"player"`
	Score  int    `json:"score"`
}

// Round is the history record written for every submitted round
type Round struct {
	Seq     int64        `json:"seq"`
	ID      RoundID      `json:"id"`
	Entries []RoundEntry `json:"round"`
	Date    time.Time    `json:"date"`
}

// Sum returns the total of all scores in the round
func (r *Round) Sum() int {
	total := 0
	for _, e := range r.Entries {
		total += e.Score
	}
	return total
}

// IsBalanced reports whether the round nets to zero
func (r *Round) IsBalanced() bool {
	return r.Sum() == 0
}

// ActionKind identifies the most recent ledger mutation
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionSubmit
	ActionReset
)

// String returns the display name of the action kind
func (k ActionKind) String() string {
	switch k {
	case ActionSubmit:
		return "submit"
	case ActionReset:
		return "reset"
	default:
		return "none"
	}
}

// LastAction is the session-local record of the latest ledger mutation.
// It is never persisted.
type LastAction struct {
	Kind     ActionKind
	RoundID  RoundID
	EntryIDs []EntryID
}

// CanUndo reports whether the action can be reversed
func (a LastAction) CanUndo() bool {
	return a.Kind == ActionSubmit && len(a.EntryIDs) > 0
}
