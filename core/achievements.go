package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Rarity tiers control notification treatment only; they have no effect on
// unlock logic.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// NotificationPriority maps rarity to delivery priority.
func (r Rarity) NotificationPriority() NotificationPriority {
	switch r {
	case RarityRare, RarityEpic, RarityLegendary:
		return PriorityHigh
	default:
		return PriorityMedium
	}
}

// Glyph returns the display glyph shown alongside an unlock of this rarity.
func (r Rarity) Glyph() string {
	switch r {
	case RarityUncommon:
		return "🔸"
	case RarityRare:
		return "⭐"
	case RarityEpic:
		return "💎"
	case RarityLegendary:
		return "👑"
	default:
		return "🔹"
	}
}

// AchievementType names a rule family in the catalog.
type AchievementType string

const (
	AchievementFirstLesson     AchievementType = "first_lesson"
	AchievementCourseComplete  AchievementType = "course_complete"
	AchievementNightOwl        AchievementType = "night_owl"
	AchievementEarlyBird       AchievementType = "early_bird"
	AchievementDedicated       AchievementType = "dedicated_learner"
	AchievementMarathon        AchievementType = "marathon_learner"
	AchievementStreakMilestone AchievementType = "streak_milestone"
	AchievementXPMilestone     AchievementType = "xp_milestone"
	AchievementLevelMilestone  AchievementType = "level_milestone"
)

// AchievementKey disambiguates repeatable achievement types: course
// completion recurs per course, milestone families recur per milestone
// value. The zero fields are simply unused for one-shot types, which makes
// the key a comparable map key with no serialized-blob equality tricks.
type AchievementKey struct {
	Type      AchievementType
	CourseID  CourseID
	Milestone int
}

// String renders the key as "type", "type:course" or "type:milestone".
func (k AchievementKey) String() string {
	switch {
	case k.CourseID != "":
		return fmt.Sprintf("%s:%s", k.Type, k.CourseID)
	case k.Milestone != 0:
		return fmt.Sprintf("%s:%d", k.Type, k.Milestone)
	default:
		return string(k.Type)
	}
}

// MarshalText lets the key serve as a JSON map key, so the whole aggregate
// round-trips through the blob-based storage adapters.
func (k AchievementKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *AchievementKey) UnmarshalText(b []byte) error {
	parts := strings.SplitN(string(b), ":", 2)
	k.Type = AchievementType(parts[0])
	k.CourseID = ""
	k.Milestone = 0
	if len(parts) == 2 {
		switch k.Type {
		case AchievementStreakMilestone, AchievementXPMilestone, AchievementLevelMilestone:
			n, err := strconv.Atoi(parts[1])
			if err != nil {
				return fmt.Errorf("invalid milestone in achievement key %q: %w", b, err)
			}
			k.Milestone = n
		default:
			k.CourseID = CourseID(parts[1])
		}
	}
	return nil
}

// Achievement is one per-user record keyed by AchievementKey. Once
// UnlockedAt is set it is never cleared; Progress never exceeds MaxProgress.
// For one-shot achievements the progress fields are not meaningful.
type Achievement struct {
	Key           AchievementKey `json:"key"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Icon          string         `json:"icon"`
	XPReward      int64          `json:"xp_reward"`
	Rarity        Rarity         `json:"rarity"`
	ProgressBased bool           `json:"progress_based"`
	Progress      int            `json:"progress"`
	MaxProgress   int            `json:"max_progress"`
	UnlockedAt    *time.Time     `json:"unlocked_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// NewAchievement materializes a record for a key from its definition.
func NewAchievement(key AchievementKey, def Definition, now time.Time) Achievement {
	return Achievement{
		Key:           key,
		Title:         def.Title,
		Description:   def.Description,
		Icon:          def.Icon,
		XPReward:      def.XPReward,
		Rarity:        def.Rarity,
		ProgressBased: def.ProgressBased,
		MaxProgress:   def.MaxProgress,
		CreatedAt:     now,
	}
}

// Unlocked reports whether the achievement has been earned.
func (a Achievement) Unlocked() bool { return a.UnlockedAt != nil }

// ProgressPercent is the whole-number completion percentage for
// progress-based achievements.
func (a Achievement) ProgressPercent() int {
	if !a.ProgressBased || a.MaxProgress <= 0 {
		return 0
	}
	return a.Progress * 100 / a.MaxProgress
}

// ProgressOutcome describes what one ApplyProgress transition did.
// MilestonePercent is 25, 50, or 75 when the new progress lands exactly on
// one of those percentages (the signal to send a progress notification
// without spamming every increment), and 0 otherwise.
type ProgressOutcome struct {
	Changed          bool
	Unlocked         bool
	MilestonePercent int
}

// ApplyProgress advances a progress-based achievement by inc qualifying
// events, clamped to MaxProgress, unlocking exactly once when the clamp
// boundary is first reached. Already-unlocked records are no-ops, never
// errors: re-checking is a routine, speculative operation.
func (a Achievement) ApplyProgress(inc int, now time.Time) (Achievement, ProgressOutcome) {
	if a.Unlocked() || inc <= 0 {
		return a, ProgressOutcome{}
	}
	if !a.ProgressBased {
		ts := now
		a.UnlockedAt = &ts
		return a, ProgressOutcome{Changed: true, Unlocked: true}
	}
	a.Progress += inc
	if a.Progress >= a.MaxProgress {
		a.Progress = a.MaxProgress
		ts := now
		a.UnlockedAt = &ts
		return a, ProgressOutcome{Changed: true, Unlocked: true}
	}
	out := ProgressOutcome{Changed: true}
	switch a.ProgressPercent() {
	case 25, 50, 75:
		out.MilestonePercent = a.ProgressPercent()
	}
	return a, out
}
