package core

import "time"

// EventType enumerates domain events.
type EventType string

const (
	EventActivityRecorded    EventType = "activity_recorded"
	EventLessonCompleted     EventType = "lesson_completed"
	EventCourseCompleted     EventType = "course_completed"
	EventXPAwarded           EventType = "xp_awarded"
	EventLevelUp             EventType = "level_up"
	EventStreakAdvanced      EventType = "streak_advanced"
	EventAchievementUnlocked EventType = "achievement_unlocked"
	EventAchievementProgress EventType = "achievement_progress"
)

// Event represents an immutable domain event. Fields are populated
// per-type; unused ones stay zero and are omitted from JSON.
type Event struct {
	Type        EventType      `json:"type"`
	Time        time.Time      `json:"time"`
	UserID      UserID         `json:"user_id"`
	CourseID    CourseID       `json:"course_id,omitempty"`
	LessonID    LessonID       `json:"lesson_id,omitempty"`
	Amount      int64          `json:"amount,omitempty"`
	TotalXP     int64          `json:"total_xp,omitempty"`
	Level       int            `json:"level,omitempty"`
	Streak      int            `json:"streak,omitempty"`
	Achievement AchievementKey `json:"achievement"`
	Title       string         `json:"title,omitempty"`
	Progress    int            `json:"progress,omitempty"`
	MaxProgress int            `json:"max_progress,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

func NewActivityRecorded(user UserID, course CourseID, lesson LessonID, t time.Time) Event {
	return Event{Type: EventActivityRecorded, Time: t, UserID: user, CourseID: course, LessonID: lesson}
}

func NewLessonCompleted(user UserID, course CourseID, lesson LessonID, t time.Time) Event {
	return Event{Type: EventLessonCompleted, Time: t, UserID: user, CourseID: course, LessonID: lesson}
}

func NewCourseCompleted(user UserID, course CourseID, t time.Time) Event {
	return Event{Type: EventCourseCompleted, Time: t, UserID: user, CourseID: course}
}

func NewXPAwarded(user UserID, amount, total int64, t time.Time) Event {
	return Event{Type: EventXPAwarded, Time: t, UserID: user, Amount: amount, TotalXP: total}
}

func NewLevelUp(user UserID, level int, total int64, t time.Time) Event {
	return Event{Type: EventLevelUp, Time: t, UserID: user, Level: level, TotalXP: total}
}

func NewStreakAdvanced(user UserID, streak int, t time.Time) Event {
	return Event{Type: EventStreakAdvanced, Time: t, UserID: user, Streak: streak}
}

func NewAchievementUnlocked(user UserID, a Achievement, t time.Time) Event {
	return Event{
		Type: EventAchievementUnlocked, Time: t, UserID: user,
		Achievement: a.Key, Title: a.Title, Amount: a.XPReward,
		Metadata: map[string]any{"rarity": string(a.Rarity)},
	}
}

func NewAchievementProgress(user UserID, a Achievement, t time.Time) Event {
	return Event{
		Type: EventAchievementProgress, Time: t, UserID: user,
		Achievement: a.Key, Title: a.Title,
		Progress: a.Progress, MaxProgress: a.MaxProgress,
	}
}
