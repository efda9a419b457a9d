package dealer

import "github.com/mcoot/cardtally/internal/model"

// Rotation tracks whose turn it is to deal. The index lives only in memory.
type Rotation struct {
	index int
}

// NewRotation creates a rotation starting at the first player
func NewRotation() *Rotation {
	return &Rotation{}
}

// Next advances to the following player and returns their name
func (r *Rotation) Next(players []string) (string, error) {
	if len(players) == 0 {
		return "", model.ErrNoPlayers
	}
	r.index = (r.index + 1) % len(players)
	return players[r.index], nil
}

// Previous steps back to the preceding player and returns their name
func (r *Rotation) Previous(players []string) (string, error) {
	if len(players) == 0 {
		return "", model.ErrNoPlayers
	}
	n := len(players)
	r.index = (r.index%n + n - 1) % n
	return players[r.index], nil
}

// Current returns the dealer without advancing
func (r *Rotation) Current(players []string) (string, error) {
	if len(players) == 0 {
		return "", model.ErrNoPlayers
	}
	return players[r.index%len(players)], nil
}
