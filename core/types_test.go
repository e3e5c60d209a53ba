package core

import (
	"testing"
	"time"
)

func TestApplyActivity_CompletionStampedOnce(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	rec := ProgressRecord{CourseID: "go-101", LessonID: "l1"}

	rec, done := rec.ApplyActivity(ActivityEvent{CourseID: "go-101", LessonID: "l1", Percentage: 100}, now)
	if !done || rec.CompletedAt == nil || !rec.CompletedAt.Equal(now) {
		t.Fatalf("expected first completion at %v, got %+v", now, rec)
	}

	later := now.Add(time.Hour)
	rec, done = rec.ApplyActivity(ActivityEvent{CourseID: "go-101", LessonID: "l1", Percentage: 100}, later)
	if done {
		t.Fatal("second completion should not re-fire")
	}
	if !rec.CompletedAt.Equal(now) {
		t.Fatal("completedAt must never move")
	}
}

func TestApplyActivity_ClampsAndAccumulates(t *testing.T) {
	now := time.Now().UTC()
	score := 150
	rec := ProgressRecord{}
	rec, _ = rec.ApplyActivity(ActivityEvent{Percentage: 250, TimeSpent: 60, Score: &score}, now)
	if rec.Percentage != 100 {
		t.Fatalf("percentage not clamped: %d", rec.Percentage)
	}
	if *rec.Score != 100 {
		t.Fatalf("score not clamped: %d", *rec.Score)
	}
	rec, _ = rec.ApplyActivity(ActivityEvent{Percentage: 10, TimeSpent: 30}, now)
	if rec.TimeSpent != 90 {
		t.Fatalf("time spent should accumulate, got %d", rec.TimeSpent)
	}
	if rec.Percentage != 100 {
		t.Fatal("percentage must not regress")
	}
}

func TestUserGameStateCloneIsDeep(t *testing.T) {
	st := NewUserGameState("u1")
	st.Progress["l1"] = ProgressRecord{CourseID: "c1", LessonID: "l1", Percentage: 40}
	st.Transactions = append(st.Transactions, XPTransaction{ID: "t1", Amount: 25})

	cp := st.Clone()
	cp.Progress["l1"] = ProgressRecord{CourseID: "c1", LessonID: "l1", Percentage: 99}
	cp.Transactions[0].Amount = 999

	if st.Progress["l1"].Percentage != 40 || st.Transactions[0].Amount != 25 {
		t.Fatal("clone is not deep")
	}
}

func TestCourseProgress(t *testing.T) {
	st := NewUserGameState("u1")
	done := time.Now().UTC()
	st.Progress["a"] = ProgressRecord{CourseID: "c1", LessonID: "a", Percentage: 100, Completed: true, CompletedAt: &done}
	st.Progress["b"] = ProgressRecord{CourseID: "c1", LessonID: "b", Percentage: 50}
	st.Progress["x"] = ProgressRecord{CourseID: "c2", LessonID: "x", Percentage: 100, Completed: true, CompletedAt: &done}

	completed, total, pct := st.CourseProgress("c1")
	if completed != 1 || total != 2 || pct != 50 {
		t.Fatalf("got %d/%d %d%%", completed, total, pct)
	}
	if st.CompletedLessons() != 2 {
		t.Fatalf("completed lessons: %d", st.CompletedLessons())
	}
}

func TestNormalizeUserID(t *testing.T) {
	id, err := NormalizeUserID("  Alice ")
	if err != nil || id != "alice" {
		t.Fatalf("got %q %v", id, err)
	}
	if _, err := NormalizeUserID("   "); err == nil {
		t.Fatal("expected error for blank id")
	}
}
