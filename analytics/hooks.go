package analytics

import (
	"fmt"
	"sync"
	"time"

	"progresskit/core"
)

// Hook receives domain events for KPI aggregation.
type Hook interface {
	OnEvent(e core.Event)
}

// DAU tracks daily active users.
type DAU struct {
	mu   sync.Mutex
	days map[string]map[core.UserID]struct{}
}

func NewDAU() *DAU { return &DAU{days: map[string]map[core.UserID]struct{}{}} }

func (d *DAU) OnEvent(e core.Event) {
	day := e.Time.UTC().Format("2006-01-02")
	d.mu.Lock()
	defer d.mu.Unlock()
	m := d.days[day]
	if m == nil {
		m = map[core.UserID]struct{}{}
		d.days[day] = m
	}
	m[e.UserID] = struct{}{}
}

func (d *DAU) Count(day string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.days[day])
}

// EngagementMetrics aggregates learning KPIs in memory: active users per
// day/week/month, XP and completions per day, achievement and level
// distributions.
type EngagementMetrics struct {
	mu sync.RWMutex

	dailyActiveUsers   map[string]map[core.UserID]struct{}
	weeklyActiveUsers  map[string]map[core.UserID]struct{}
	monthlyActiveUsers map[string]map[core.UserID]struct{}

	xpAwardedByDay     map[string]int64
	lessonsByDay       map[string]int64
	lessonsByCourse    map[core.CourseID]int64
	coursesCompleted   map[core.CourseID]int64
	achievementsByType map[core.AchievementType]int64
	levelDistribution  map[int]int
	longestStreakSeen  int
}

func NewEngagementMetrics() *EngagementMetrics {
	return &EngagementMetrics{
		dailyActiveUsers:   make(map[string]map[core.UserID]struct{}),
		weeklyActiveUsers:  make(map[string]map[core.UserID]struct{}),
		monthlyActiveUsers: make(map[string]map[core.UserID]struct{}),
		xpAwardedByDay:     make(map[string]int64),
		lessonsByDay:       make(map[string]int64),
		lessonsByCourse:    make(map[core.CourseID]int64),
		coursesCompleted:   make(map[core.CourseID]int64),
		achievementsByType: make(map[core.AchievementType]int64),
		levelDistribution:  make(map[int]int),
	}
}

func (m *EngagementMetrics) OnEvent(e core.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	day := e.Time.UTC().Format("2006-01-02")
	m.trackUserEngagement(e.UserID, day, weekKey(e.Time), monthKey(e.Time))

	switch e.Type {
	case core.EventXPAwarded:
		if e.Amount > 0 {
			m.xpAwardedByDay[day] += e.Amount
		}
	case core.EventLessonCompleted:
		m.lessonsByDay[day]++
		m.lessonsByCourse[e.CourseID]++
	case core.EventCourseCompleted:
		m.coursesCompleted[e.CourseID]++
	case core.EventLevelUp:
		m.levelDistribution[e.Level]++
	case core.EventAchievementUnlocked:
		m.achievementsByType[e.Achievement.Type]++
	case core.EventStreakAdvanced:
		if e.Streak > m.longestStreakSeen {
			m.longestStreakSeen = e.Streak
		}
	}
}

func (m *EngagementMetrics) trackUserEngagement(userID core.UserID, day, week, month string) {
	if m.dailyActiveUsers[day] == nil {
		m.dailyActiveUsers[day] = make(map[core.UserID]struct{})
	}
	m.dailyActiveUsers[day][userID] = struct{}{}

	if m.weeklyActiveUsers[week] == nil {
		m.weeklyActiveUsers[week] = make(map[core.UserID]struct{})
	}
	m.weeklyActiveUsers[week][userID] = struct{}{}

	if m.monthlyActiveUsers[month] == nil {
		m.monthlyActiveUsers[month] = make(map[core.UserID]struct{})
	}
	m.monthlyActiveUsers[month][userID] = struct{}{}
}

func (m *EngagementMetrics) DailyActiveUsers(day string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.dailyActiveUsers[day])
}

func (m *EngagementMetrics) WeeklyActiveUsers(week string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.weeklyActiveUsers[week])
}

func (m *EngagementMetrics) MonthlyActiveUsers(month string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.monthlyActiveUsers[month])
}

func (m *EngagementMetrics) XPAwardedOn(day string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.xpAwardedByDay[day]
}

func (m *EngagementMetrics) LessonsCompletedOn(day string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lessonsByDay[day]
}

func (m *EngagementMetrics) LessonsCompletedIn(course core.CourseID) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lessonsByCourse[course]
}

func (m *EngagementMetrics) CoursesCompleted(course core.CourseID) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.coursesCompleted[course]
}

func (m *EngagementMetrics) AchievementsUnlocked(typ core.AchievementType) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.achievementsByType[typ]
}

func (m *EngagementMetrics) UsersAtLevel(level int) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.levelDistribution[level]
}

func (m *EngagementMetrics) LongestStreakSeen() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.longestStreakSeen
}

// Summary is a point-in-time report for dashboards.
type Summary struct {
	Day               string                         `json:"day"`
	ActiveUsers       int                            `json:"active_users"`
	XPAwarded         int64                          `json:"xp_awarded"`
	LessonsCompleted  int64                          `json:"lessons_completed"`
	Achievements      map[core.AchievementType]int64 `json:"achievements"`
	LongestStreakSeen int                            `json:"longest_streak_seen"`
}

func (m *EngagementMetrics) SummaryFor(day string) Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ach := make(map[core.AchievementType]int64, len(m.achievementsByType))
	for k, v := range m.achievementsByType {
		ach[k] = v
	}
	return Summary{
		Day:               day,
		ActiveUsers:       len(m.dailyActiveUsers[day]),
		XPAwarded:         m.xpAwardedByDay[day],
		LessonsCompleted:  m.lessonsByDay[day],
		Achievements:      ach,
		LongestStreakSeen: m.longestStreakSeen,
	}
}

func weekKey(t time.Time) string {
	tt := t.UTC()
	year, week := tt.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

func monthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}
