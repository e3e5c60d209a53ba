package leaderboard

import "progresskit/core"

// Board abstracts a ranked score listing (total XP or current streak).
type Board interface {
	Update(user core.UserID, score int64)
	Remove(user core.UserID)
	TopN(n int) []core.LeaderboardEntry
	Get(user core.UserID) (core.LeaderboardEntry, bool)
}
