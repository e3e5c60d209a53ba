package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NotificationPriority orders delivery urgency.
type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityMedium NotificationPriority = "medium"
	PriorityHigh   NotificationPriority = "high"
)

// Notification is a fire-and-forget message handed to the notification
// sink. Delivery failures never roll back the state change that produced
// the notification.
type Notification struct {
	ID        string               `json:"id"`
	UserID    UserID               `json:"user_id"`
	Type      string               `json:"type"`
	Title     string               `json:"title"`
	Message   string               `json:"message"`
	Priority  NotificationPriority `json:"priority"`
	Metadata  map[string]any       `json:"metadata,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
	ExpiresAt *time.Time           `json:"expires_at,omitempty"`
}

// NewAchievementUnlockedNotification builds the unlock message with its
// rarity-derived glyph and priority.
func NewAchievementUnlockedNotification(user UserID, a Achievement, now time.Time) Notification {
	return Notification{
		ID:       uuid.NewString(),
		UserID:   user,
		Type:     "achievement_unlocked",
		Title:    fmt.Sprintf("%s Achievement Unlocked!", a.Rarity.Glyph()),
		Message:  fmt.Sprintf("%s %s: +%d XP", a.Icon, a.Title, a.XPReward),
		Priority: a.Rarity.NotificationPriority(),
		Metadata: map[string]any{
			"achievement": a.Key,
			"rarity":      string(a.Rarity),
			"xp_reward":   a.XPReward,
		},
		CreatedAt: now,
	}
}

// NewAchievementProgressNotification announces a 25/50/75% milestone on a
// progress-based achievement.
func NewAchievementProgressNotification(user UserID, a Achievement, percent int, now time.Time) Notification {
	expires := now.Add(7 * 24 * time.Hour)
	return Notification{
		ID:       uuid.NewString(),
		UserID:   user,
		Type:     "achievement_progress",
		Title:    fmt.Sprintf("%s: %d%% there", a.Title, percent),
		Message:  fmt.Sprintf("%d of %d done. Keep going!", a.Progress, a.MaxProgress),
		Priority: PriorityLow,
		Metadata: map[string]any{
			"achievement": a.Key,
			"progress":    a.Progress,
			"max":         a.MaxProgress,
		},
		CreatedAt: now,
		ExpiresAt: &expires,
	}
}

// NewLevelUpNotification announces a new level.
func NewLevelUpNotification(user UserID, level int, now time.Time) Notification {
	return Notification{
		ID:        uuid.NewString(),
		UserID:    user,
		Type:      "level_up",
		Title:     fmt.Sprintf("Level %d reached!", level),
		Message:   fmt.Sprintf("You are now a %s.", LevelTitle(level)),
		Priority:  PriorityMedium,
		Metadata:  map[string]any{"level": level, "title": LevelTitle(level)},
		CreatedAt: now,
	}
}
