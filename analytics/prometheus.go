package analytics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"progresskit/core"
)

// PromHook exports domain events as Prometheus metrics. Register it on the
// bus with Bind and serve Handler() next to the API.
type PromHook struct {
	registry *prometheus.Registry

	activities   prometheus.Counter
	lessons      *prometheus.CounterVec
	courses      *prometheus.CounterVec
	xpAwarded    prometheus.Counter
	levelUps     prometheus.Counter
	streakDays   prometheus.Counter
	achievements *prometheus.CounterVec
}

func NewPromHook() *PromHook {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &PromHook{
		registry: reg,
		activities: factory.NewCounter(prometheus.CounterOpts{
			Name: "progresskit_activities_total",
			Help: "Activity events recorded.",
		}),
		lessons: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "progresskit_lessons_completed_total",
			Help: "Lessons completed, labeled by course.",
		}, []string{"course"}),
		courses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "progresskit_courses_completed_total",
			Help: "Courses completed, labeled by course.",
		}, []string{"course"}),
		xpAwarded: factory.NewCounter(prometheus.CounterOpts{
			Name: "progresskit_xp_awarded_total",
			Help: "Total XP credited across all users.",
		}),
		levelUps: factory.NewCounter(prometheus.CounterOpts{
			Name: "progresskit_level_ups_total",
			Help: "Level-up events.",
		}),
		streakDays: factory.NewCounter(prometheus.CounterOpts{
			Name: "progresskit_streak_advances_total",
			Help: "Streak advance events (one per user per active day).",
		}),
		achievements: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "progresskit_achievements_unlocked_total",
			Help: "Achievements unlocked, labeled by type.",
		}, []string{"type"}),
	}
}

func (p *PromHook) OnEvent(e core.Event) {
	switch e.Type {
	case core.EventActivityRecorded:
		p.activities.Inc()
	case core.EventLessonCompleted:
		p.lessons.WithLabelValues(string(e.CourseID)).Inc()
	case core.EventCourseCompleted:
		p.courses.WithLabelValues(string(e.CourseID)).Inc()
	case core.EventXPAwarded:
		p.xpAwarded.Add(float64(e.Amount))
	case core.EventLevelUp:
		p.levelUps.Inc()
	case core.EventStreakAdvanced:
		p.streakDays.Inc()
	case core.EventAchievementUnlocked:
		p.achievements.WithLabelValues(string(e.Achievement.Type)).Inc()
	}
}

// Handler serves the scrape endpoint for this hook's registry.
func (p *PromHook) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for extra collectors.
func (p *PromHook) Registry() *prometheus.Registry { return p.registry }

var _ Hook = (*PromHook)(nil)
