package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"progresskit/core"
	"progresskit/engine"
)

// Store persists every user aggregate to a single JSON file.
// Suitable for demos and small deployments.
type Store struct {
	path string
	mu   sync.Mutex
	// in-memory cache for speed
	data map[core.UserID]core.UserGameState
}

func New(path string) (*Store, error) {
	s := &Store{path: path, data: map[core.UserID]core.UserGameState{}}
	if err := s.load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) load() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	var raw map[string]core.UserGameState
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for k, v := range raw {
		s.data[core.UserID(k)] = v
	}
	return nil
}

func (s *Store) persist() error {
	tmp := s.path + ".tmp"
	raw := make(map[string]core.UserGameState, len(s.data))
	for k, v := range s.data {
		raw[string(k)] = v
	}
	b, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *Store) get(user core.UserID) core.UserGameState {
	if st, ok := s.data[user]; ok {
		return st
	}
	return core.NewUserGameState(user)
}

func (s *Store) GetUser(_ context.Context, user core.UserID) (core.UserGameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(user).Clone(), nil
}

// UpdateUser runs fn against a copy of the aggregate; the file and cache are
// only replaced when both fn and the write succeed.
func (s *Store) UpdateUser(_ context.Context, user core.UserID, fn func(*core.UserGameState) error) (core.UserGameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.get(user).Clone()
	if err := fn(&next); err != nil {
		return core.UserGameState{}, err
	}
	if next.Updated.IsZero() {
		next.Updated = time.Now().UTC()
	}

	prev, had := s.data[user]
	s.data[user] = next
	if err := s.persist(); err != nil {
		if had {
			s.data[user] = prev
		} else {
			delete(s.data, user)
		}
		return core.UserGameState{}, err
	}
	return next.Clone(), nil
}

func (s *Store) TopByXP(_ context.Context, n int) ([]core.LeaderboardEntry, error) {
	return s.top(n, func(st core.UserGameState) int64 { return st.XP.TotalXP }), nil
}

func (s *Store) TopByStreak(_ context.Context, n int) ([]core.LeaderboardEntry, error) {
	return s.top(n, func(st core.UserGameState) int64 { return int64(st.Streak.Current) }), nil
}

// top scans the cache. Fine at this adapter's intended scale.
func (s *Store) top(n int, score func(core.UserGameState) int64) []core.LeaderboardEntry {
	s.mu.Lock()
	entries := make([]core.LeaderboardEntry, 0, len(s.data))
	for id, st := range s.data {
		entries = append(entries, core.LeaderboardEntry{UserID: id, Score: score(st)})
	}
	s.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].UserID < entries[j].UserID
	})
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

var _ engine.Storage = (*Store)(nil)
