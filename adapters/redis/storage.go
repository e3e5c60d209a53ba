package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"progresskit/core"
	"progresskit/engine"
)

// Config holds Redis connection configuration
type Config struct {
	Addr         string        `json:"addr" yaml:"addr" env:"PROGRESSKIT_STORAGE_REDIS_ADDR"`
	Password     string        `json:"password,omitempty" yaml:"password" env:"PROGRESSKIT_STORAGE_REDIS_PASSWORD"`
	DB           int           `json:"db" yaml:"db" env:"PROGRESSKIT_STORAGE_REDIS_DB"`
	PoolSize     int           `json:"pool_size" yaml:"pool_size"`
	MinIdleConns int           `json:"min_idle_conns" yaml:"min_idle_conns"`
	DialTimeout  time.Duration `json:"dial_timeout" yaml:"dial_timeout"`
	ReadTimeout  time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// maxRetries bounds optimistic-lock retries on contended users.
const maxRetries = 16

// Store implements engine.Storage on Redis.
// Data structure:
// - user:{user_id}:state -> JSON blob of the full UserGameState aggregate
// - leaderboard:xp       -> sorted set, member user id, score total XP
// - leaderboard:streak   -> sorted set, member user id, score current streak
type Store struct {
	client *redis.Client
}

// New creates a Redis-backed storage with the provided configuration.
func New(config Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &Store{client: client}, nil
}

// NewWithClient creates a Store using an existing Redis client (useful for testing)
func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

func userStateKey(userID core.UserID) string {
	return fmt.Sprintf("user:%s:state", userID)
}

const (
	boardXPKey     = "leaderboard:xp"
	boardStreakKey = "leaderboard:streak"
)

func (s *Store) GetUser(ctx context.Context, user core.UserID) (core.UserGameState, error) {
	data, err := s.client.Get(ctx, userStateKey(user)).Bytes()
	if errors.Is(err, redis.Nil) {
		return core.NewUserGameState(user), nil
	}
	if err != nil {
		return core.UserGameState{}, fmt.Errorf("failed to load user state: %w", err)
	}
	var st core.UserGameState
	if err := json.Unmarshal(data, &st); err != nil {
		return core.UserGameState{}, fmt.Errorf("corrupt user state for %s: %w", user, err)
	}
	return st, nil
}

// UpdateUser applies fn under optimistic locking: the state key is WATCHed,
// fn runs against the decoded aggregate, and the write goes through a MULTI
// block that fails if another writer touched the key first. Leaderboard
// sorted sets are updated in the same transaction.
func (s *Store) UpdateUser(ctx context.Context, user core.UserID, fn func(*core.UserGameState) error) (core.UserGameState, error) {
	key := userStateKey(user)
	var result core.UserGameState

	txn := func(tx *redis.Tx) error {
		st := core.NewUserGameState(user)
		data, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			// first activity for this user
		case err != nil:
			return err
		default:
			if err := json.Unmarshal(data, &st); err != nil {
				return fmt.Errorf("corrupt user state for %s: %w", user, err)
			}
		}

		if err := fn(&st); err != nil {
			return err
		}
		if st.Updated.IsZero() {
			st.Updated = time.Now().UTC()
		}

		encoded, err := json.Marshal(st)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, 0)
			pipe.ZAdd(ctx, boardXPKey, redis.Z{Score: float64(st.XP.TotalXP), Member: string(user)})
			pipe.ZAdd(ctx, boardStreakKey, redis.Z{Score: float64(st.Streak.Current), Member: string(user)})
			return nil
		})
		if err != nil {
			return err
		}
		result = st
		return nil
	}

	for i := 0; i < maxRetries; i++ {
		err := s.client.Watch(ctx, txn, key)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue // another writer won; reload and retry
		}
		return core.UserGameState{}, err
	}
	return core.UserGameState{}, fmt.Errorf("failed to update user %s: too much contention", user)
}

func (s *Store) TopByXP(ctx context.Context, n int) ([]core.LeaderboardEntry, error) {
	return s.top(ctx, boardXPKey, n)
}

func (s *Store) TopByStreak(ctx context.Context, n int) ([]core.LeaderboardEntry, error) {
	return s.top(ctx, boardStreakKey, n)
}

func (s *Store) top(ctx context.Context, key string, n int) ([]core.LeaderboardEntry, error) {
	if n <= 0 {
		return nil, nil
	}
	zs, err := s.client.ZRevRangeWithScores(ctx, key, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}
	entries := make([]core.LeaderboardEntry, 0, len(zs))
	for _, z := range zs {
		id, _ := z.Member.(string)
		entries = append(entries, core.LeaderboardEntry{
			UserID: core.UserID(id),
			Score:  int64(z.Score),
		})
	}
	return entries, nil
}

var _ engine.Storage = (*Store)(nil)
