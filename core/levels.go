package core

import "time"

// The leveling curve is linear: advancing from level L to L+1 costs
// 100 + (L-1)*50 XP. Level 1 -> 2 costs 100, level 2 -> 3 costs 150, etc.
const (
	baseLevelXP = 100
	levelXPStep = 50
)

// XPForLevel returns the XP required to advance from the given level to the
// next one.
func XPForLevel(level int) int64 {
	if level < 1 {
		level = 1
	}
	return int64(baseLevelXP + (level-1)*levelXPStep)
}

// XPRecord is a user's running XP total and level position. TotalXP only
// ever grows; CurrentLevelXP is always strictly below NextLevelXP after a
// transition has been applied.
type XPRecord struct {
	TotalXP        int64 `json:"total_xp"`
	Level          int   `json:"level"`
	CurrentLevelXP int64 `json:"current_level_xp"`
	NextLevelXP    int64 `json:"next_level_xp"`
}

// NewXPRecord returns a fresh record at level 1 with nothing earned.
func NewXPRecord() XPRecord {
	return XPRecord{Level: 1, NextLevelXP: XPForLevel(1)}
}

// Apply credits amount XP and unrolls as many level-ups as the award covers.
// A single large award can cross several thresholds, so this loops rather
// than checking once. Callers reject non-positive amounts; Apply itself is a
// pure transform and treats them as no-ops.
func (r XPRecord) Apply(amount int64) XPRecord {
	if amount <= 0 {
		return r
	}
	if r.Level < 1 {
		r = NewXPRecord()
	}
	r.TotalXP += amount
	r.CurrentLevelXP += amount
	for r.CurrentLevelXP >= r.NextLevelXP {
		r.CurrentLevelXP -= r.NextLevelXP
		r.Level++
		r.NextLevelXP = XPForLevel(r.Level)
	}
	return r
}

// XPSource categorizes ledger transactions.
type XPSource string

const (
	SourceLessonCompletion XPSource = "lesson_completion"
	SourceCourseCompletion XPSource = "course_completion"
	SourceAchievement      XPSource = "achievement_unlock"
)

// XPTransaction is one immutable row in the append-only XP ledger.
type XPTransaction struct {
	ID          string    `json:"id"`
	Amount      int64     `json:"amount"`
	Source      XPSource  `json:"source"`
	SourceRef   string    `json:"source_ref,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// LevelTitle maps a level to its display title. Carried from the product's
// level table; purely cosmetic and has no effect on unlock logic.
func LevelTitle(level int) string {
	switch {
	case level >= 15:
		return "Master"
	case level >= 10:
		return "Architect"
	case level >= 7:
		return "Engineer"
	case level >= 5:
		return "Practitioner"
	case level >= 3:
		return "Explorer"
	case level >= 2:
		return "Learner"
	default:
		return "Novice"
	}
}
