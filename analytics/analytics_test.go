package analytics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"progresskit/core"
	"progresskit/engine"
)

var day1 = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func TestDAU(t *testing.T) {
	dau := NewDAU()
	dau.OnEvent(core.NewXPAwarded("alice", 25, 25, day1))
	dau.OnEvent(core.NewXPAwarded("alice", 25, 50, day1.Add(time.Hour)))
	dau.OnEvent(core.NewXPAwarded("bob", 25, 25, day1))
	dau.OnEvent(core.NewXPAwarded("carol", 25, 25, day1.AddDate(0, 0, 1)))

	assert.Equal(t, 2, dau.Count("2025-06-01"))
	assert.Equal(t, 1, dau.Count("2025-06-02"))
	assert.Equal(t, 0, dau.Count("2025-05-31"))
}

func TestEngagementMetrics(t *testing.T) {
	m := NewEngagementMetrics()

	m.OnEvent(core.NewXPAwarded("alice", 25, 25, day1))
	m.OnEvent(core.NewLessonCompleted("alice", "go-101", "l1", day1))
	m.OnEvent(core.NewLessonCompleted("bob", "go-101", "l1", day1))
	m.OnEvent(core.NewCourseCompleted("alice", "go-101", day1))
	m.OnEvent(core.NewLevelUp("alice", 2, 120, day1))
	m.OnEvent(core.NewStreakAdvanced("bob", 12, day1))

	a := core.NewAchievement(
		core.AchievementKey{Type: core.AchievementFirstLesson},
		mustDef(t, core.AchievementKey{Type: core.AchievementFirstLesson}), day1)
	m.OnEvent(core.NewAchievementUnlocked("alice", a, day1))

	assert.Equal(t, 2, m.DailyActiveUsers("2025-06-01"))
	assert.Equal(t, 2, m.WeeklyActiveUsers(weekKey(day1)))
	assert.Equal(t, 2, m.MonthlyActiveUsers("2025-06"))
	assert.Equal(t, int64(25), m.XPAwardedOn("2025-06-01"))
	assert.Equal(t, int64(2), m.LessonsCompletedOn("2025-06-01"))
	assert.Equal(t, int64(2), m.LessonsCompletedIn("go-101"))
	assert.Equal(t, int64(1), m.CoursesCompleted("go-101"))
	assert.Equal(t, int64(1), m.AchievementsUnlocked(core.AchievementFirstLesson))
	assert.Equal(t, 1, m.UsersAtLevel(2))
	assert.Equal(t, 12, m.LongestStreakSeen())

	sum := m.SummaryFor("2025-06-01")
	assert.Equal(t, 2, sum.ActiveUsers)
	assert.Equal(t, int64(25), sum.XPAwarded)
	assert.Equal(t, 12, sum.LongestStreakSeen)
}

func TestBridgeFansOut(t *testing.T) {
	dau := NewDAU()
	m := NewEngagementMetrics()
	bridge := NewBridge(dau, m)

	bridge.OnEvent(core.NewXPAwarded("alice", 25, 25, day1))

	assert.Equal(t, 1, dau.Count("2025-06-01"))
	assert.Equal(t, int64(25), m.XPAwardedOn("2025-06-01"))
}

func TestBindSubscribesToBus(t *testing.T) {
	bus := engine.NewEventBus(engine.DispatchSync)
	defer bus.Close()

	dau := NewDAU()
	unsub := Bind(bus, dau)

	bus.Publish(context.Background(), core.NewXPAwarded("alice", 25, 25, day1))
	assert.Equal(t, 1, dau.Count("2025-06-01"))

	unsub()
	bus.Publish(context.Background(), core.NewXPAwarded("bob", 25, 25, day1))
	assert.Equal(t, 1, dau.Count("2025-06-01"))
}

func TestPromHookCounters(t *testing.T) {
	p := NewPromHook()

	p.OnEvent(core.NewActivityRecorded("alice", "go-101", "l1", day1))
	p.OnEvent(core.NewLessonCompleted("alice", "go-101", "l1", day1))
	p.OnEvent(core.NewXPAwarded("alice", 25, 25, day1))
	p.OnEvent(core.NewXPAwarded("alice", 50, 75, day1))
	p.OnEvent(core.NewLevelUp("alice", 2, 120, day1))

	assert.Equal(t, float64(1), testutil.ToFloat64(p.activities))
	assert.Equal(t, float64(1), testutil.ToFloat64(p.lessons.WithLabelValues("go-101")))
	assert.Equal(t, float64(75), testutil.ToFloat64(p.xpAwarded))
	assert.Equal(t, float64(1), testutil.ToFloat64(p.levelUps))
}

func TestPromHookHandlerServesScrape(t *testing.T) {
	p := NewPromHook()
	p.OnEvent(core.NewXPAwarded("alice", 25, 25, day1))

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "progresskit_xp_awarded_total 25")
}

func mustDef(t *testing.T, key core.AchievementKey) core.Definition {
	t.Helper()
	def, ok := core.DefinitionFor(key)
	require.True(t, ok)
	return def
}
