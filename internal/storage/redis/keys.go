package redis

import (
	"fmt"

	"github.com/mcoot/cardtally/internal/model"
)

// keys builds the Redis keys for one key prefix
type keys struct {
	prefix string
}

// playerKey returns the key holding a Player, keyed by name
func (k keys) playerKey(name string) string {
	return fmt.Sprintf("%s:player:%s", k.prefix, name)
}

// playerIndexKey returns the ZSET of player names ordered by registration
func (k keys) playerIndexKey() string {
	return fmt.Sprintf("%s:idx:players", k.prefix)
}

// playerSeqKey returns the counter used to order players
func (k keys) playerSeqKey() string {
	return fmt.Sprintf("%s:seq:players", k.prefix)
}

// scoreKey returns the key holding a ScoreEntry
func (k keys) scoreKey(id model.EntryID) string {
	return fmt.Sprintf("%s:score:%d", k.prefix, id)
}

// scoreIndexKey returns the ZSET of score keys, scored by entry ID
func (k keys) scoreIndexKey() string {
	return fmt.Sprintf("%s:idx:scores", k.prefix)
}

// scoreSeqKey returns the auto-increment counter for entry IDs
func (k keys) scoreSeqKey() string {
	return fmt.Sprintf("%s:seq:scores", k.prefix)
}

// roundKey returns the key holding a Round record
func (k keys) roundKey(id model.RoundID) string {
	return fmt.Sprintf("%s:round:%s", k.prefix, id)
}

// roundIndexKey returns the ZSET of round keys, scored by Seq
func (k keys) roundIndexKey() string {
	return fmt.Sprintf("%s:idx:rounds", k.prefix)
}

// roundSeqKey returns the auto-increment counter for round records
func (k keys) roundSeqKey() string {
	return fmt.Sprintf("%s:seq:rounds", k.prefix)
}
