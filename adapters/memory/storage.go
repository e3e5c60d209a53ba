package memory

import (
	"context"
	"sync"
	"time"

	"progresskit/core"
	"progresskit/leaderboard"
)

// Store is a concurrent in-memory Storage implementation. Each user has
// their own mutex, so updates for one user are serialized while different
// users proceed fully in parallel. Two skip lists keep the leaderboards
// ordered without scanning on read.
type Store struct {
	users       sync.Map // map[core.UserID]*userRecord
	boardXP     *leaderboard.SkipList
	boardStreak *leaderboard.SkipList
}

type userRecord struct {
	mu    sync.Mutex
	state core.UserGameState
}

func New() *Store {
	return &Store{
		boardXP:     leaderboard.NewSkipList(),
		boardStreak: leaderboard.NewSkipList(),
	}
}

func (s *Store) getOrCreate(user core.UserID) *userRecord {
	if v, ok := s.users.Load(user); ok {
		return v.(*userRecord)
	}
	rec := &userRecord{state: core.NewUserGameState(user)}
	actual, _ := s.users.LoadOrStore(user, rec)
	return actual.(*userRecord)
}

func (s *Store) GetUser(_ context.Context, user core.UserID) (core.UserGameState, error) {
	rec := s.getOrCreate(user)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.state.Clone(), nil
}

// UpdateUser runs fn against a deep copy of the aggregate under the user's
// lock. The copy replaces the live state only when fn succeeds, so a failed
// update leaves everything untouched.
func (s *Store) UpdateUser(_ context.Context, user core.UserID, fn func(*core.UserGameState) error) (core.UserGameState, error) {
	rec := s.getOrCreate(user)
	rec.mu.Lock()
	defer rec.mu.Unlock()

	next := rec.state.Clone()
	if err := fn(&next); err != nil {
		return core.UserGameState{}, err
	}
	if next.Updated.IsZero() {
		next.Updated = time.Now().UTC()
	}
	rec.state = next

	s.boardXP.Update(user, next.XP.TotalXP)
	s.boardStreak.Update(user, int64(next.Streak.Current))
	return next.Clone(), nil
}

func (s *Store) TopByXP(_ context.Context, n int) ([]core.LeaderboardEntry, error) {
	return s.boardXP.TopN(n), nil
}

func (s *Store) TopByStreak(_ context.Context, n int) ([]core.LeaderboardEntry, error) {
	return s.boardStreak.TopN(n), nil
}
