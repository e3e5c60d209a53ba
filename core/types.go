package core

import (
	"errors"
	"strings"
	"time"
)

// UserID uniquely identifies a learner in the gamification domain.
type UserID string

// CourseID identifies a course.
type CourseID string

// LessonID identifies a lesson within a course.
type LessonID string

// ActivityEvent is one lesson-activity submission: "user reached X% of
// lesson Y". It is the only input that mutates engine-owned state.
type ActivityEvent struct {
	CourseID   CourseID `json:"course_id"`
	LessonID   LessonID `json:"lesson_id"`
	JourneyID  string   `json:"journey_id,omitempty"`
	ChapterID  string   `json:"chapter_id,omitempty"`
	Percentage int      `json:"percentage"`
	TimeSpent  int64    `json:"time_spent,omitempty"` // seconds
	Score      *int     `json:"score,omitempty"`
	Completed  bool     `json:"completed,omitempty"`
}

// ProgressRecord tracks one (user, lesson) pair. CompletedAt is stamped the
// first time percentage reaches 100 and is never cleared afterwards.
type ProgressRecord struct {
	CourseID    CourseID   `json:"course_id"`
	LessonID    LessonID   `json:"lesson_id"`
	JourneyID   string     `json:"journey_id,omitempty"`
	ChapterID   string     `json:"chapter_id,omitempty"`
	Percentage  int        `json:"percentage"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	TimeSpent   int64      `json:"time_spent"`
	Score       *int       `json:"score,omitempty"`
	LastAccess  time.Time  `json:"last_access"`
}

// ApplyActivity folds an activity event into the record and reports whether
// this event completed the lesson for the first time. Percentage never goes
// backwards and time spent only accumulates.
func (p ProgressRecord) ApplyActivity(ev ActivityEvent, now time.Time) (ProgressRecord, bool) {
	pct := ClampPercent(ev.Percentage)
	if ev.Completed {
		pct = 100
	}
	if pct > p.Percentage {
		p.Percentage = pct
	}
	if ev.TimeSpent > 0 {
		p.TimeSpent += ev.TimeSpent
	}
	if ev.Score != nil {
		score := ClampPercent(*ev.Score)
		p.Score = &score
	}
	if ev.JourneyID != "" {
		p.JourneyID = ev.JourneyID
	}
	if ev.ChapterID != "" {
		p.ChapterID = ev.ChapterID
	}
	p.LastAccess = now

	completedNow := false
	if p.Percentage >= 100 && !p.Completed {
		p.Completed = true
		ts := now
		p.CompletedAt = &ts
		completedNow = true
	}
	return p, completedNow
}

// UserGameState is the full per-user aggregate owned by the engine: lesson
// progress, the XP ledger, the daily streak, and achievement records.
// Storage adapters hand out deep copies; all transitions are expressed as
// (state, event) -> state so the rules are testable without a database.
type UserGameState struct {
	UserID       UserID                         `json:"user_id"`
	Progress     map[LessonID]ProgressRecord    `json:"progress"`
	XP           XPRecord                       `json:"xp"`
	Transactions []XPTransaction                `json:"transactions"`
	Streak       StreakRecord                   `json:"streak"`
	Achievements map[AchievementKey]Achievement `json:"achievements"`
	Updated      time.Time                      `json:"updated"`
}

// NewUserGameState returns an empty aggregate for a user at level 1.
func NewUserGameState(id UserID) UserGameState {
	return UserGameState{
		UserID:       id,
		Progress:     map[LessonID]ProgressRecord{},
		XP:           NewXPRecord(),
		Achievements: map[AchievementKey]Achievement{},
	}
}

// Clone returns a deep copy of the state to uphold immutability.
func (s UserGameState) Clone() UserGameState {
	cp := s
	cp.Progress = make(map[LessonID]ProgressRecord, len(s.Progress))
	for k, v := range s.Progress {
		if v.CompletedAt != nil {
			ts := *v.CompletedAt
			v.CompletedAt = &ts
		}
		if v.Score != nil {
			sc := *v.Score
			v.Score = &sc
		}
		cp.Progress[k] = v
	}
	cp.Transactions = append([]XPTransaction(nil), s.Transactions...)
	cp.Achievements = make(map[AchievementKey]Achievement, len(s.Achievements))
	for k, v := range s.Achievements {
		if v.UnlockedAt != nil {
			ts := *v.UnlockedAt
			v.UnlockedAt = &ts
		}
		cp.Achievements[k] = v
	}
	return cp
}

// CourseProgress reports completed lessons, lessons touched, and the whole
// percentage for one course, computed over lessons the user has records for.
func (s UserGameState) CourseProgress(course CourseID) (completed, total, percent int) {
	for _, rec := range s.Progress {
		if rec.CourseID != course {
			continue
		}
		total++
		if rec.Completed {
			completed++
		}
	}
	if total == 0 {
		return 0, 0, 0
	}
	return completed, total, completed * 100 / total
}

// CompletedLessons counts fully completed lessons across all courses.
func (s UserGameState) CompletedLessons() int {
	n := 0
	for _, rec := range s.Progress {
		if rec.Completed {
			n++
		}
	}
	return n
}

// LeaderboardEntry is one row in a ranked listing.
type LeaderboardEntry struct {
	UserID UserID `json:"user_id"`
	Score  int64  `json:"score"`
}

// ClampPercent constrains a percentage to [0, 100].
func ClampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// NormalizeUserID trims and lowercases user identifiers.
func NormalizeUserID(id UserID) (UserID, error) {
	s := strings.TrimSpace(string(id))
	if s == "" {
		return "", errors.New("empty user id")
	}
	return UserID(strings.ToLower(s)), nil
}
