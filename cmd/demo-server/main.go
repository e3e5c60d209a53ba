package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	mem "progresskit/adapters/memory"
	"progresskit/api/httpapi"
	"progresskit/core"
	"progresskit/engine"
	"progresskit/progress"
	"progresskit/realtime"
)

// A zero-config playground: in-memory storage, every user id accepted, and
// a console subscriber that prints each event as it happens.
func main() {
	// Use readable text logging for development/demo
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(textHandler))

	hub := realtime.NewHub()
	svc := progress.New(
		progress.WithStorage(mem.New()),
		progress.WithResolver(mem.NewOpenDirectory()),
		progress.WithRealtime(hub),
		progress.WithDispatchMode(engine.DispatchAsync),
	)
	defer svc.Close()

	svc.Bus().SubscribeAll(func(_ context.Context, ev core.Event) {
		slog.Info("event", "type", ev.Type, "user", ev.UserID,
			"course", ev.CourseID, "lesson", ev.LessonID,
			"amount", ev.Amount, "level", ev.Level, "streak", ev.Streak)
	})

	handler := httpapi.NewMux(svc, hub, httpapi.Options{AllowCORSOrigin: "*"})

	slog.Info("starting demo server on :8080",
		"try", `curl -X POST localhost:8080/users/alice/activity -d '{"course_id":"go-basics","lesson_id":"go-basics/01","percentage":100,"completed":true}'`)

	if err := http.ListenAndServe(":8080", handler); err != nil {
		slog.Error("demo server crashed", "error", err)
		os.Exit(1)
	}
}
