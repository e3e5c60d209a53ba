package jsonfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"progresskit/core"
)

func TestStorePersistAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	store, err := New(path)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	_, err = store.UpdateUser(context.Background(), "alice", func(st *core.UserGameState) error {
		st.XP = st.XP.Apply(120)
		st.Streak.Current = 3
		st.Progress["l1"] = core.ProgressRecord{CourseID: "c1", LessonID: "l1", Percentage: 100, Completed: true}
		return nil
	})
	if err != nil {
		t.Fatalf("update user: %v", err)
	}

	// ensure file written
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file at %s", path)
	}

	// reload
	reloaded, err := New(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}

	st, err := reloaded.GetUser(context.Background(), "alice")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if st.XP.TotalXP != 120 {
		t.Fatalf("expected 120 XP, got %d", st.XP.TotalXP)
	}
	if st.XP.Level != 2 {
		t.Fatalf("expected level 2, got %d", st.XP.Level)
	}
	if st.Streak.Current != 3 {
		t.Fatalf("expected streak 3, got %d", st.Streak.Current)
	}
	if !st.Progress["l1"].Completed {
		t.Fatalf("expected l1 completed after reload")
	}
}

func TestStoreFailedUpdateIsDiscarded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store, err := New(path)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	boom := errors.New("boom")
	_, err = store.UpdateUser(context.Background(), "alice", func(st *core.UserGameState) error {
		st.XP = st.XP.Apply(999)
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	st, _ := store.GetUser(context.Background(), "alice")
	if st.XP.TotalXP != 0 {
		t.Fatalf("aborted update leaked: %d XP", st.XP.TotalXP)
	}
	if _, err := os.Stat(path); err == nil {
		t.Fatalf("no file should exist after a failed first update")
	}
}

func TestStoreLeaderboards(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "state.json"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	seed := map[core.UserID]int64{"alice": 300, "bob": 100, "carol": 200}
	for id, xp := range seed {
		xp := xp
		if _, err := store.UpdateUser(ctx, id, func(st *core.UserGameState) error {
			st.XP = st.XP.Apply(xp)
			return nil
		}); err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
	}

	top, err := store.TopByXP(ctx, 2)
	if err != nil {
		t.Fatalf("top by xp: %v", err)
	}
	if len(top) != 2 || top[0].UserID != "alice" || top[1].UserID != "carol" {
		t.Fatalf("unexpected ranking: %+v", top)
	}
}
