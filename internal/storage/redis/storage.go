package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/cardtally/internal/model"
	"github.com/mcoot/cardtally/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	keys   keys
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = DefaultConfig().KeyPrefix
	}
	return &Storage{
		client: client,
		keys:   keys{prefix: prefix},
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) AddPlayer(ctx context.Context, player *model.Player) error {
	data, err := json.Marshal(player)
	if err != nil {
		return err
	}

	// Reserve the registration order first; a gap left by a duplicate is harmless
	seq, err := s.client.Incr(ctx, s.keys.playerSeqKey()).Result()
	if err != nil {
		return err
	}

	// SETNX gives the duplicate-key failure of a unique primary key
	key := s.keys.playerKey(player.Name)
	added, err := s.client.SetNX(ctx, key, data, 0).Result()
	if err != nil {
		return err
	}
	if !added {
		return model.ErrPlayerExists
	}

	err = s.client.ZAdd(ctx, s.keys.playerIndexKey(), redis.Z{
		Score:  float64(seq),
		Member: player.Name,
	}).Err()
	if err != nil {
		// Release the name so a player missing from the index can register again
		_ = s.client.Del(context.WithoutCancel(ctx), key).Err()
		return fmt.Errorf("index player %q: %w", player.Name, err)
	}
	return nil
}

func (s *Storage) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	names, err := s.client.ZRange(ctx, s.keys.playerIndexKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return []*model.Player{}, nil
	}

	playerKeys := make([]string, len(names))
	for i, name := range names {
		playerKeys[i] = s.keys.playerKey(name)
	}

	players := make([]*model.Player, 0, len(names))
	err = s.mgetJSON(ctx, playerKeys, func(data []byte) error {
		var p model.Player
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		players = append(players, &p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return players, nil
}

// Score operations

func (s *Storage) AppendScores(ctx context.Context, entries []*model.ScoreEntry) error {
	if len(entries) == 0 {
		return nil
	}

	// Reserve a contiguous block of IDs, then write the batch in one MULTI/EXEC
	last, err := s.client.IncrBy(ctx, s.keys.scoreSeqKey(), int64(len(entries))).Result()
	if err != nil {
		return err
	}
	first := last - int64(len(entries)) + 1

	payloads := make([][]byte, len(entries))
	for i, entry := range entries {
		entry.ID = model.EntryID(first + int64(i))
		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		payloads[i] = data
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, entry := range entries {
			key := s.keys.scoreKey(entry.ID)
			pipe.Set(ctx, key, payloads[i], 0)
			pipe.ZAdd(ctx, s.keys.scoreIndexKey(), redis.Z{Score: float64(entry.ID), Member: key})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("append scores: %w", err)
	}
	return nil
}

func (s *Storage) ListScores(ctx context.Context) ([]*model.ScoreEntry, error) {
	scoreKeys, err := s.client.ZRange(ctx, s.keys.scoreIndexKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]*model.ScoreEntry, 0, len(scoreKeys))
	err = s.mgetJSON(ctx, scoreKeys, func(data []byte) error {
		var e model.ScoreEntry
		if err := json.Unmarshal(data, &e); err != nil {
			return err
		}
		entries = append(entries, &e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Storage) DeleteScores(ctx context.Context, ids []model.EntryID) error {
	if len(ids) == 0 {
		return nil
	}

	scoreKeys := make([]string, len(ids))
	members := make([]interface{}, len(ids))
	for i, id := range ids {
		scoreKeys[i] = s.keys.scoreKey(id)
		members[i] = scoreKeys[i]
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, scoreKeys...)
		pipe.ZRem(ctx, s.keys.scoreIndexKey(), members...)
		return nil
	})
	return err
}

func (s *Storage) ClearScores(ctx context.Context) error {
	return s.clearIndexed(ctx, s.keys.scoreIndexKey())
}

// Round history operations

func (s *Storage) SaveRound(ctx context.Context, round *model.Round) error {
	seq, err := s.client.Incr(ctx, s.keys.roundSeqKey()).Result()
	if err != nil {
		return err
	}
	round.Seq = seq

	data, err := json.Marshal(round)
	if err != nil {
		return err
	}

	key := s.keys.roundKey(round.ID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, data, 0)
		pipe.ZAdd(ctx, s.keys.roundIndexKey(), redis.Z{Score: float64(seq), Member: key})
		return nil
	})
	return err
}

func (s *Storage) ListRounds(ctx context.Context) ([]*model.Round, error) {
	roundKeys, err := s.client.ZRange(ctx, s.keys.roundIndexKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	rounds := make([]*model.Round, 0, len(roundKeys))
	err = s.mgetJSON(ctx, roundKeys, func(data []byte) error {
		var r model.Round
		if err := json.Unmarshal(data, &r); err != nil {
			return err
		}
		rounds = append(rounds, &r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rounds, nil
}

func (s *Storage) DeleteRound(ctx context.Context, id model.RoundID) error {
	key := s.keys.roundKey(id)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.ZRem(ctx, s.keys.roundIndexKey(), key)
		return nil
	})
	return err
}

func (s *Storage) ClearRounds(ctx context.Context) error {
	return s.clearIndexed(ctx, s.keys.roundIndexKey())
}

// mgetJSON fetches keys in one MGET and hands each present value to fn, in key order
func (s *Storage) mgetJSON(ctx context.Context, keys []string, fn func([]byte) error) error {
	if len(keys) == 0 {
		return nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return err
	}

	for _, val := range values {
		str, ok := val.(string)
		if !ok {
			continue // Index entry without a value
		}
		if err := fn([]byte(str)); err != nil {
			return err
		}
	}
	return nil
}

// clearIndexed deletes every key listed in the index ZSET and the index itself
func (s *Storage) clearIndexed(ctx context.Context, indexKey string) error {
	members, err := s.client.ZRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(members) > 0 {
			pipe.Del(ctx, members...)
		}
		pipe.Del(ctx, indexKey)
		return nil
	})
	return err
}
