package progress

import (
	"context"
	"testing"
	"time"

	mem "progresskit/adapters/memory"
	"progresskit/core"
	"progresskit/engine"
	"progresskit/realtime"
)

func TestNewDefaultsAndOptions(t *testing.T) {
	hub := realtime.NewHub()
	noon := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	svc := New(
		WithRealtime(hub),
		WithStorage(mem.New()),
		WithResolver(mem.NewOpenDirectory()),
		WithDispatchMode(engine.DispatchSync),
		WithClock(func() time.Time { return noon }),
	)
	defer svc.Close()

	_, ch := hub.Subscribe("alice", 64)

	rec, err := svc.RecordActivity(context.Background(), engine.ActivityInput{
		UserID:     "alice",
		CourseID:   "go-basics",
		LessonID:   "go-basics/01",
		Percentage: 100,
		Completed:  true,
	})
	if err != nil {
		t.Fatalf("record activity: %v", err)
	}
	if !rec.Completed {
		t.Fatalf("expected completed record, got %+v", rec)
	}

	// The realtime bridge should have forwarded the engine events.
	seen := map[core.EventType]int{}
	for len(ch) > 0 {
		ev := <-ch
		if ev.UserID != "alice" {
			t.Fatalf("event for wrong user: %+v", ev)
		}
		seen[ev.Type]++
	}
	for _, typ := range []core.EventType{
		core.EventActivityRecorded,
		core.EventLessonCompleted,
		core.EventCourseCompleted,
		core.EventXPAwarded,
	} {
		if seen[typ] == 0 {
			t.Fatalf("expected at least one %s event, saw %v", typ, seen)
		}
	}

	stats, err := svc.GetUserStats(context.Background(), "alice")
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	if stats.XP.TotalXP != 375 {
		t.Fatalf("expected 375 XP after a one-lesson course, got %d", stats.XP.TotalXP)
	}
}

func TestNewWithoutOptions(t *testing.T) {
	svc := New()
	defer svc.Close()

	if _, err := svc.RecordActivity(context.Background(), engine.ActivityInput{
		UserID:     "bob",
		CourseID:   "go-basics",
		LessonID:   "go-basics/01",
		Percentage: 40,
	}); err != nil {
		t.Fatalf("record activity with defaults: %v", err)
	}
	stats, err := svc.GetUserStats(context.Background(), "bob")
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	if stats.Streak.Current != 1 {
		t.Fatalf("expected streak 1, got %d", stats.Streak.Current)
	}
	if stats.XP.TotalXP != 0 {
		t.Fatalf("partial progress must not award XP, got %d", stats.XP.TotalXP)
	}
}

func TestNewWithNotifier(t *testing.T) {
	var delivered []core.Notification
	sink := sinkFunc(func(_ context.Context, _ engine.User, n core.Notification) error {
		delivered = append(delivered, n)
		return nil
	})
	noon := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	svc := New(
		WithNotifier(sink),
		WithDispatchMode(engine.DispatchSync),
		WithClock(func() time.Time { return noon }),
	)
	defer svc.Close()

	if _, err := svc.RecordActivity(context.Background(), engine.ActivityInput{
		UserID:     "carol",
		CourseID:   "go-basics",
		LessonID:   "go-basics/01",
		Percentage: 100,
		Completed:  true,
	}); err != nil {
		t.Fatalf("record activity: %v", err)
	}
	// First Steps and Course Conqueror both unlock on a one-lesson course.
	if len(delivered) != 2 {
		t.Fatalf("expected 2 unlock notifications, got %d", len(delivered))
	}
}

type sinkFunc func(context.Context, engine.User, core.Notification) error

func (f sinkFunc) Deliver(ctx context.Context, u engine.User, n core.Notification) error {
	return f(ctx, u, n)
}
