package sdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ActivityRequest is the POST body for activity submissions.
type ActivityRequest struct {
	CourseID   string `json:"course_id"`
	LessonID   string `json:"lesson_id"`
	JourneyID  string `json:"journey_id,omitempty"`
	ChapterID  string `json:"chapter_id,omitempty"`
	Percentage int    `json:"percentage"`
	TimeSpent  int64  `json:"time_spent"`
	Score      *int   `json:"score,omitempty"`
	Completed  bool   `json:"completed"`
}

// ProgressRecord mirrors the per-lesson progress JSON returned by the API.
type ProgressRecord struct {
	CourseID    string     `json:"course_id"`
	LessonID    string     `json:"lesson_id"`
	JourneyID   string     `json:"journey_id,omitempty"`
	ChapterID   string     `json:"chapter_id,omitempty"`
	Percentage  int        `json:"percentage"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	TimeSpent   int64      `json:"time_spent"`
	Score       *int       `json:"score,omitempty"`
	LastAccess  time.Time  `json:"last_access"`
}

// XPRecord mirrors the XP summary JSON.
type XPRecord struct {
	TotalXP        int64 `json:"total_xp"`
	Level          int   `json:"level"`
	CurrentLevelXP int64 `json:"current_level_xp"`
	NextLevelXP    int64 `json:"next_level_xp"`
}

// StreakRecord mirrors the streak JSON.
type StreakRecord struct {
	Current         int       `json:"current"`
	Longest         int       `json:"longest"`
	LastActivity    time.Time `json:"last_activity"`
	TotalActiveDays int       `json:"total_active_days"`
}

// Achievement mirrors an unlocked or in-flight achievement.
type Achievement struct {
	Key           string     `json:"key"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Icon          string     `json:"icon"`
	XPReward      int64      `json:"xp_reward"`
	Rarity        string     `json:"rarity"`
	ProgressBased bool       `json:"progress_based"`
	Progress      int        `json:"progress"`
	MaxProgress   int        `json:"max_progress"`
	UnlockedAt    *time.Time `json:"unlocked_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// XPTransaction is one ledger entry.
type XPTransaction struct {
	ID          string    `json:"id"`
	Amount      int64     `json:"amount"`
	Source      string    `json:"source"`
	SourceRef   string    `json:"source_ref,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// UserStats is the full gamification snapshot for one user.
type UserStats struct {
	UserID             string           `json:"user_id"`
	Progress           []ProgressRecord `json:"progress"`
	Achievements       []Achievement    `json:"achievements"`
	XP                 XPRecord         `json:"xp"`
	LevelTitle         string           `json:"level_title"`
	Streak             StreakRecord     `json:"streak"`
	StreakActive       bool             `json:"streak_active"`
	RecentTransactions []XPTransaction  `json:"recent_transactions"`
}

// LeaderboardEntry is one ranked row.
type LeaderboardEntry struct {
	UserID string `json:"user_id"`
	Score  int64  `json:"score"`
}

// Leaderboard holds the two descending rankings.
type Leaderboard struct {
	XP     []LeaderboardEntry `json:"xp"`
	Streak []LeaderboardEntry `json:"streak"`
}

// AchievementProgress is one in-flight progress-based achievement.
type AchievementProgress struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Progress    int    `json:"progress"`
	MaxProgress int    `json:"max_progress"`
	Percentage  int    `json:"percentage"`
}

// HealthStatus describes the /healthz response.
type HealthStatus struct {
	Status string         `json:"status"`
	Checks map[string]any `json:"checks"`
}

// APIError is a structured error response from the server.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d", e.StatusCode)
}

func decodeJSON(resp *http.Response, target any) error {
	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}
	if target == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(target)
}

// ErrEmptyUserID is returned when user id is empty.
var ErrEmptyUserID = errors.New("user id is required")
