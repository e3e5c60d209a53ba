package leaderboard

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"progresskit/core"
)

func TestSkipList_OrderAndUpdate(t *testing.T) {
	s := NewSkipList()
	s.Update("alice", 300)
	s.Update("bob", 100)
	s.Update("carol", 200)

	top := s.TopN(3)
	require.Len(t, top, 3)
	assert.Equal(t, core.UserID("alice"), top[0].UserID)
	assert.Equal(t, core.UserID("carol"), top[1].UserID)
	assert.Equal(t, core.UserID("bob"), top[2].UserID)

	// Moving a user reorders instead of duplicating.
	s.Update("bob", 500)
	top = s.TopN(3)
	require.Len(t, top, 3)
	assert.Equal(t, core.UserID("bob"), top[0].UserID)
	assert.Equal(t, int64(500), top[0].Score)
}

func TestSkipList_TiesBreakByUser(t *testing.T) {
	s := NewSkipList()
	s.Update("zed", 100)
	s.Update("amy", 100)
	top := s.TopN(2)
	require.Len(t, top, 2)
	assert.Equal(t, core.UserID("amy"), top[0].UserID)
}

func TestSkipList_RemoveAndGet(t *testing.T) {
	s := NewSkipList()
	s.Update("alice", 10)
	e, ok := s.Get("alice")
	require.True(t, ok)
	assert.Equal(t, int64(10), e.Score)

	s.Remove("alice")
	_, ok = s.Get("alice")
	assert.False(t, ok)
	assert.Empty(t, s.TopN(5))
}

func TestSkipList_ManyEntries(t *testing.T) {
	s := NewSkipList()
	for i := 0; i < 500; i++ {
		s.Update(core.UserID(fmt.Sprintf("user-%03d", i)), int64(i))
	}
	top := s.TopN(10)
	require.Len(t, top, 10)
	for i := 1; i < len(top); i++ {
		require.GreaterOrEqual(t, top[i-1].Score, top[i].Score)
	}
	assert.Equal(t, int64(499), top[0].Score)
}
