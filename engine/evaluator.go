package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"progresskit/core"
)

// effects collects the events and notifications produced while mutating one
// user aggregate. They are buffered until the storage update commits, so an
// aborted transaction publishes nothing and a flaky notification sink can
// never roll back an unlock.
type effects struct {
	events []core.Event
	notes  []core.Notification
}

func (fx *effects) event(ev core.Event)      { fx.events = append(fx.events, ev) }
func (fx *effects) note(n core.Notification) { fx.notes = append(fx.notes, n) }

// creditXP appends exactly one ledger transaction, applies the level curve,
// and returns the level before and after so callers can detect level-ups.
// Level-ups cascade into the XP and level milestone families.
func creditXP(st *core.UserGameState, amount int64, source core.XPSource, ref, desc string, now time.Time, fx *effects) (before, after int) {
	if amount <= 0 {
		return st.XP.Level, st.XP.Level
	}
	before = st.XP.Level
	st.XP = st.XP.Apply(amount)
	after = st.XP.Level

	st.Transactions = append(st.Transactions, core.XPTransaction{
		ID:          uuid.NewString(),
		Amount:      amount,
		Source:      source,
		SourceRef:   ref,
		Description: desc,
		CreatedAt:   now,
	})
	fx.event(core.NewXPAwarded(st.UserID, amount, st.XP.TotalXP, now))

	if after > before {
		fx.event(core.NewLevelUp(st.UserID, after, st.XP.TotalXP, now))
		fx.note(core.NewLevelUpNotification(st.UserID, after, now))
		evaluateLevelMilestones(st, now, fx)
		evaluateXPMilestones(st, now, fx)
	}
	return before, after
}

// checkAndUnlock is the single primitive every achievement rule family is
// built on. It is idempotent per key: already-unlocked records, and repeat
// checks of one-shot achievements, are quiet no-ops.
func checkAndUnlock(st *core.UserGameState, key core.AchievementKey, inc int, now time.Time, fx *effects) bool {
	def, ok := core.DefinitionFor(key)
	if !ok {
		return false
	}
	a, exists := st.Achievements[key]
	if !exists {
		a = core.NewAchievement(key, def, now)
	}
	a, out := a.ApplyProgress(inc, now)
	if !out.Changed {
		return false
	}
	st.Achievements[key] = a

	if out.Unlocked {
		fx.event(core.NewAchievementUnlocked(st.UserID, a, now))
		fx.note(core.NewAchievementUnlockedNotification(st.UserID, a, now))
		if def.XPReward > 0 {
			creditXP(st, def.XPReward, core.SourceAchievement, key.String(),
				fmt.Sprintf("Achievement: %s", def.Title), now, fx)
		}
		return true
	}

	fx.event(core.NewAchievementProgress(st.UserID, a, now))
	if out.MilestonePercent != 0 {
		fx.note(core.NewAchievementProgressNotification(st.UserID, a, out.MilestonePercent, now))
	}
	return false
}

// evaluateLessonCompletion runs every rule family triggered by a lesson
// reaching 100% for the first time.
func evaluateLessonCompletion(st *core.UserGameState, rec core.ProgressRecord, now time.Time, fx *effects) {
	fx.event(core.NewLessonCompleted(st.UserID, rec.CourseID, rec.LessonID, now))

	creditXP(st, core.LessonCompletionXP, core.SourceLessonCompletion, string(rec.LessonID),
		fmt.Sprintf("Completed lesson %s", rec.LessonID), now, fx)

	checkAndUnlock(st, core.AchievementKey{Type: core.AchievementFirstLesson}, 1, now, fx)
	checkAndUnlock(st, core.AchievementKey{Type: core.AchievementDedicated}, 1, now, fx)
	checkAndUnlock(st, core.AchievementKey{Type: core.AchievementMarathon}, 1, now, fx)

	hour := now.UTC().Hour()
	if core.InNightOwlWindow(hour) {
		checkAndUnlock(st, core.AchievementKey{Type: core.AchievementNightOwl}, 1, now, fx)
	}
	if core.InEarlyBirdWindow(hour) {
		checkAndUnlock(st, core.AchievementKey{Type: core.AchievementEarlyBird}, 1, now, fx)
	}
}

// evaluateCourseCompletion awards the per-course achievement plus the flat
// course XP when aggregate course progress first reaches exactly 100%.
func evaluateCourseCompletion(st *core.UserGameState, course core.CourseID, now time.Time, fx *effects) {
	_, total, percent := st.CourseProgress(course)
	if total == 0 || percent != 100 {
		return
	}
	key := core.AchievementKey{Type: core.AchievementCourseComplete, CourseID: course}
	if checkAndUnlock(st, key, 1, now, fx) {
		fx.event(core.NewCourseCompleted(st.UserID, course, now))
		creditXP(st, core.CourseCompletionXP, core.SourceCourseCompletion, string(course),
			fmt.Sprintf("Completed course %s", course), now, fx)
	}
}

func evaluateStreakMilestones(st *core.UserGameState, now time.Time, fx *effects) {
	for _, m := range core.StreakMilestones {
		if st.Streak.Current >= m {
			checkAndUnlock(st, core.AchievementKey{Type: core.AchievementStreakMilestone, Milestone: m}, 1, now, fx)
		}
	}
}

func evaluateXPMilestones(st *core.UserGameState, now time.Time, fx *effects) {
	for _, m := range core.XPMilestones {
		if st.XP.TotalXP >= int64(m) {
			checkAndUnlock(st, core.AchievementKey{Type: core.AchievementXPMilestone, Milestone: m}, 1, now, fx)
		}
	}
}

func evaluateLevelMilestones(st *core.UserGameState, now time.Time, fx *effects) {
	for _, m := range core.LevelMilestones {
		if st.XP.Level >= m {
			checkAndUnlock(st, core.AchievementKey{Type: core.AchievementLevelMilestone, Milestone: m}, 1, now, fx)
		}
	}
}
