package sdk

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	mem "progresskit/adapters/memory"
	"progresskit/api/httpapi"
	"progresskit/core"
	"progresskit/engine"
	"progresskit/realtime"
)

var noon = time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

// newTestServer runs the real HTTP API on an in-memory service.
func newTestServer(t *testing.T) (*httptest.Server, *engine.Service) {
	t.Helper()
	bus := engine.NewEventBus(engine.DispatchSync)
	svc := engine.NewService(mem.New(), mem.NewOpenDirectory(), bus,
		engine.WithClock(func() time.Time { return noon }))
	hub := realtime.NewHub()
	realtime.Bridge(bus, hub)
	srv := httptest.NewServer(httpapi.NewMux(svc, hub, httpapi.Options{PathPrefix: "/api"}))
	t.Cleanup(srv.Close)
	t.Cleanup(svc.Close)
	return srv, svc
}

func TestClient_RecordActivityAndReads(t *testing.T) {
	srv, _ := newTestServer(t)

	client, err := NewClient(srv.URL + "/api")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	ctx := context.Background()

	rec, err := client.RecordActivity(ctx, "alice", ActivityRequest{
		CourseID:   "go-basics",
		LessonID:   "go-basics/01",
		Percentage: 100,
		Completed:  true,
	})
	if err != nil {
		t.Fatalf("record activity: %v", err)
	}
	if !rec.Completed || rec.LessonID != "go-basics/01" {
		t.Fatalf("unexpected record: %+v", rec)
	}

	stats, err := client.GetUserStats(ctx, "alice")
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	if stats.UserID != "alice" {
		t.Fatalf("unexpected user: %q", stats.UserID)
	}
	// One-lesson course: completion plus course rewards and two unlocks.
	if stats.XP.TotalXP != 375 || stats.XP.Level != 3 {
		t.Fatalf("unexpected xp: %+v", stats.XP)
	}
	if stats.Streak.Current != 1 {
		t.Fatalf("unexpected streak: %+v", stats.Streak)
	}
	// Two unlocks plus two progress trackers started by the lesson.
	unlocked := 0
	for _, a := range stats.Achievements {
		if a.UnlockedAt != nil {
			unlocked++
		}
	}
	if len(stats.Achievements) != 4 || unlocked != 2 {
		t.Fatalf("expected 4 achievements with 2 unlocked, got %d/%d", len(stats.Achievements), unlocked)
	}

	lb, err := client.GetLeaderboard(ctx, 5)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(lb.XP) != 1 || lb.XP[0].UserID != "alice" || lb.XP[0].Score != 375 {
		t.Fatalf("unexpected leaderboard: %+v", lb)
	}

	health, err := client.Health(ctx)
	if err != nil || health.Status != "healthy" {
		t.Fatalf("health: %+v err=%v", health, err)
	}
}

func TestClient_AchievementProgress(t *testing.T) {
	srv, _ := newTestServer(t)

	client, err := NewClient(srv.URL + "/api")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	ctx := context.Background()

	if _, err := client.RecordActivity(ctx, "bob", ActivityRequest{
		CourseID:   "go-basics",
		LessonID:   "go-basics/01",
		Percentage: 100,
		Completed:  true,
	}); err != nil {
		t.Fatalf("record activity: %v", err)
	}

	list, err := client.GetAchievementProgress(ctx, "bob")
	if err != nil {
		t.Fatalf("achievement progress: %v", err)
	}
	// Dedicated and Marathon start tracking on the first completed lesson.
	if len(list) != 2 {
		t.Fatalf("expected 2 in-flight achievements, got %+v", list)
	}
	for _, a := range list {
		if a.Progress != 1 || a.MaxProgress == 0 {
			t.Fatalf("unexpected progress entry: %+v", a)
		}
	}
}

func TestClient_ErrorMapping(t *testing.T) {
	bus := engine.NewEventBus(engine.DispatchSync)
	dir := mem.NewDirectory() // strict: no auto-create
	svc := engine.NewService(mem.New(), dir, bus)
	srv := httptest.NewServer(httpapi.NewMux(svc, nil, httpapi.Options{PathPrefix: "/api"}))
	defer srv.Close()
	defer svc.Close()

	client, err := NewClient(srv.URL + "/api")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.GetUserStats(context.Background(), "nobody")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != 404 || apiErr.Code != "user_not_found" {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}

	if _, err := client.GetUserStats(context.Background(), ""); !errors.Is(err, ErrEmptyUserID) {
		t.Fatalf("expected ErrEmptyUserID, got %v", err)
	}
}

func TestClient_SubscribeEvents(t *testing.T) {
	srv, svc := newTestServer(t)

	client, err := NewClient(srv.URL + "/api")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	events, err := client.SubscribeEvents(ctx, "alice")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	// give the server handler a beat to register with the hub
	time.Sleep(50 * time.Millisecond)

	if _, err := svc.RecordActivity(ctx, engine.ActivityInput{
		UserID:     "alice",
		CourseID:   "go-basics",
		LessonID:   "go-basics/01",
		Percentage: 100,
		Completed:  true,
	}); err != nil {
		t.Fatalf("record activity: %v", err)
	}

	select {
	case evt := <-events:
		if evt.UserID != "alice" || evt.Type != core.EventActivityRecorded {
			t.Fatalf("unexpected event: %+v", evt)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}
}
