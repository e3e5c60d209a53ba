package core

import "fmt"

// Flat XP awards for lesson and course completion.
const (
	LessonCompletionXP int64 = 25
	CourseCompletionXP int64 = 100
)

// Time-of-day windows (UTC hours) for the night-owl and early-bird rules.
const (
	nightOwlStartHour  = 23
	nightOwlEndHour    = 4 // exclusive
	earlyBirdStartHour = 5
	earlyBirdEndHour   = 7 // exclusive
)

// InNightOwlWindow reports whether an hour-of-day falls in the late-night window.
func InNightOwlWindow(hour int) bool {
	return hour >= nightOwlStartHour || hour < nightOwlEndHour
}

// InEarlyBirdWindow reports whether an hour-of-day falls in the early-morning window.
func InEarlyBirdWindow(hour int) bool {
	return hour >= earlyBirdStartHour && hour < earlyBirdEndHour
}

// Milestone lists checked by the derived rule families. Streak milestones
// are evaluated whenever the streak grows; XP and level milestones whenever
// a level-up occurs.
var (
	StreakMilestones = []int{7, 30, 100, 365}
	XPMilestones     = []int{1000, 5000, 10000, 25000, 50000}
	LevelMilestones  = []int{10, 25, 50, 100}
)

// Definition is static catalog data for one achievement type (or one
// milestone within a milestone family). Configuration, not logic.
type Definition struct {
	Type          AchievementType
	Title         string
	Description   string
	Icon          string
	XPReward      int64
	Rarity        Rarity
	ProgressBased bool
	MaxProgress   int
}

var catalog = map[AchievementType]Definition{
	AchievementFirstLesson: {
		Type:        AchievementFirstLesson,
		Title:       "First Steps",
		Description: "Complete your first lesson",
		Icon:        "🎯",
		XPReward:    50,
		Rarity:      RarityCommon,
	},
	AchievementCourseComplete: {
		Type:        AchievementCourseComplete,
		Title:       "Course Conqueror",
		Description: "Complete every lesson in a course",
		Icon:        "🏆",
		XPReward:    200,
		Rarity:      RarityRare,
	},
	AchievementNightOwl: {
		Type:        AchievementNightOwl,
		Title:       "Night Owl",
		Description: "Complete a lesson in the dead of night",
		Icon:        "🦉",
		XPReward:    75,
		Rarity:      RarityUncommon,
	},
	AchievementEarlyBird: {
		Type:        AchievementEarlyBird,
		Title:       "Early Bird",
		Description: "Complete a lesson before the day begins",
		Icon:        "🐦",
		XPReward:    75,
		Rarity:      RarityUncommon,
	},
	AchievementDedicated: {
		Type:          AchievementDedicated,
		Title:         "Dedicated Learner",
		Description:   "Complete 10 lessons",
		Icon:          "📚",
		XPReward:      150,
		Rarity:        RarityUncommon,
		ProgressBased: true,
		MaxProgress:   10,
	},
	AchievementMarathon: {
		Type:          AchievementMarathon,
		Title:         "Marathon Learner",
		Description:   "Complete 50 lessons",
		Icon:          "🏃",
		XPReward:      500,
		Rarity:        RarityEpic,
		ProgressBased: true,
		MaxProgress:   50,
	},
}

var streakMilestoneDefs = map[int]Definition{
	7: {
		Type: AchievementStreakMilestone, Title: "Week Warrior",
		Description: "Learn 7 days in a row", Icon: "🔥",
		XPReward: 100, Rarity: RarityUncommon,
	},
	30: {
		Type: AchievementStreakMilestone, Title: "Monthly Master",
		Description: "Learn 30 days in a row", Icon: "🔥",
		XPReward: 300, Rarity: RarityRare,
	},
	100: {
		Type: AchievementStreakMilestone, Title: "Century Club",
		Description: "Learn 100 days in a row", Icon: "💯",
		XPReward: 1000, Rarity: RarityEpic,
	},
	365: {
		Type: AchievementStreakMilestone, Title: "Year of Learning",
		Description: "Learn every day for a full year", Icon: "🎇",
		XPReward: 3650, Rarity: RarityLegendary,
	},
}

var xpMilestoneDefs = map[int]Definition{
	1000:  {Type: AchievementXPMilestone, Title: "XP Collector", Icon: "✨", XPReward: 50, Rarity: RarityCommon},
	5000:  {Type: AchievementXPMilestone, Title: "XP Hoarder", Icon: "✨", XPReward: 100, Rarity: RarityUncommon},
	10000: {Type: AchievementXPMilestone, Title: "XP Baron", Icon: "✨", XPReward: 200, Rarity: RarityRare},
	25000: {Type: AchievementXPMilestone, Title: "XP Magnate", Icon: "✨", XPReward: 400, Rarity: RarityEpic},
	50000: {Type: AchievementXPMilestone, Title: "XP Legend", Icon: "✨", XPReward: 1000, Rarity: RarityLegendary},
}

var levelMilestoneDefs = map[int]Definition{
	10:  {Type: AchievementLevelMilestone, Title: "Double Digits", Icon: "🎖️", XPReward: 100, Rarity: RarityUncommon},
	25:  {Type: AchievementLevelMilestone, Title: "Quarter Century", Icon: "🎖️", XPReward: 250, Rarity: RarityRare},
	50:  {Type: AchievementLevelMilestone, Title: "Half Hundred", Icon: "🎖️", XPReward: 500, Rarity: RarityEpic},
	100: {Type: AchievementLevelMilestone, Title: "Centurion", Icon: "🎖️", XPReward: 1000, Rarity: RarityLegendary},
}

// DefinitionFor resolves a key against the static catalog. The milestone
// families carry per-milestone titles and rewards; everything else is keyed
// by type alone.
func DefinitionFor(key AchievementKey) (Definition, bool) {
	switch key.Type {
	case AchievementStreakMilestone:
		def, ok := streakMilestoneDefs[key.Milestone]
		if ok && def.Description == "" {
			def.Description = fmt.Sprintf("Maintain a %d-day streak", key.Milestone)
		}
		return def, ok
	case AchievementXPMilestone:
		def, ok := xpMilestoneDefs[key.Milestone]
		if ok {
			def.Description = fmt.Sprintf("Earn %d total XP", key.Milestone)
		}
		return def, ok
	case AchievementLevelMilestone:
		def, ok := levelMilestoneDefs[key.Milestone]
		if ok {
			def.Description = fmt.Sprintf("Reach level %d", key.Milestone)
		}
		return def, ok
	default:
		def, ok := catalog[key.Type]
		return def, ok
	}
}
