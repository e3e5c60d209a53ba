package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"progresskit/core"
)

// recentTransactionCount caps the transaction slice returned in stats
// snapshots.
const recentTransactionCount = 10

// Service composes the streak tracker, achievement evaluation, and the XP
// ledger into one atomic business transaction per activity event.
type Service struct {
	storage  Storage
	resolver UserResolver
	bus      *EventBus
	notifier NotificationSink
	clock    func() time.Time
	logger   *slog.Logger
}

// ServiceOption configures optional collaborators.
type ServiceOption func(*Service)

// WithNotifier sets the notification sink (defaults to NopSink).
func WithNotifier(n NotificationSink) ServiceOption {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithClock overrides the time source. Streak transitions and time-of-day
// achievements depend on it, so tests pin it down.
func WithClock(clock func() time.Time) ServiceOption {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets the structured logger (defaults to slog.Default).
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewService(storage Storage, resolver UserResolver, bus *EventBus, opts ...ServiceOption) *Service {
	if storage == nil || resolver == nil || bus == nil {
		panic("NewService requires non-nil storage, resolver, and bus")
	}
	s := &Service{
		storage:  storage,
		resolver: resolver,
		bus:      bus,
		notifier: NopSink{},
		clock:    time.Now,
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Subscribe convenience method.
func (s *Service) Subscribe(typ core.EventType, handler func(context.Context, core.Event)) func() {
	return s.bus.Subscribe(typ, handler)
}

// Bus exposes the event bus for bridging (realtime, analytics).
func (s *Service) Bus() *EventBus { return s.bus }

func (s *Service) Close() { s.bus.Close() }

// ActivityInput is one "user worked on a lesson" submission.
type ActivityInput struct {
	UserID     string
	CourseID   string
	LessonID   string
	Percentage int
	TimeSpent  int64
	JourneyID  string
	ChapterID  string
	Score      *int
	Completed  bool
}

func (in ActivityInput) validate() error {
	if in.UserID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if in.CourseID == "" {
		return fmt.Errorf("%w: course id is required", ErrInvalidInput)
	}
	if in.LessonID == "" {
		return fmt.Errorf("%w: lesson id is required", ErrInvalidInput)
	}
	if in.TimeSpent < 0 {
		return fmt.Errorf("%w: time spent cannot be negative", ErrInvalidInput)
	}
	return nil
}

// RecordActivity is the single entry point for activity events. In order,
// under one per-user unit of work: update the progress record, advance the
// streak, run lesson-completion rules, then course-completion rules. Events
// and notifications go out only after the state commits.
func (s *Service) RecordActivity(ctx context.Context, in ActivityInput) (core.ProgressRecord, error) {
	if err := in.validate(); err != nil {
		return core.ProgressRecord{}, err
	}
	user, err := ResolveUser(ctx, s.resolver, in.UserID)
	if err != nil {
		return core.ProgressRecord{}, err
	}

	var (
		fx  effects
		rec core.ProgressRecord
	)
	_, err = s.storage.UpdateUser(ctx, user.ID, func(st *core.UserGameState) error {
		now := s.clock().UTC()
		fx = effects{}

		ev := core.ActivityEvent{
			CourseID:   core.CourseID(in.CourseID),
			LessonID:   core.LessonID(in.LessonID),
			JourneyID:  in.JourneyID,
			ChapterID:  in.ChapterID,
			Percentage: in.Percentage,
			TimeSpent:  in.TimeSpent,
			Score:      in.Score,
			Completed:  in.Completed,
		}

		prev := st.Progress[ev.LessonID]
		if prev.LessonID == "" {
			prev = core.ProgressRecord{CourseID: ev.CourseID, LessonID: ev.LessonID}
		}
		updated, completedNow := prev.ApplyActivity(ev, now)
		st.Progress[ev.LessonID] = updated
		fx.event(core.NewActivityRecorded(st.UserID, ev.CourseID, ev.LessonID, now))

		streak, grew := st.Streak.Advance(now)
		st.Streak = streak
		if grew {
			fx.event(core.NewStreakAdvanced(st.UserID, streak.Current, now))
			evaluateStreakMilestones(st, now, &fx)
		}

		if completedNow {
			evaluateLessonCompletion(st, updated, now, &fx)
			evaluateCourseCompletion(st, ev.CourseID, now, &fx)
		}

		st.Updated = now
		rec = st.Progress[ev.LessonID]
		return nil
	})
	if err != nil {
		return core.ProgressRecord{}, err
	}

	s.flush(ctx, user, fx)
	return rec, nil
}

// flush publishes buffered events and delivers notifications. Runs strictly
// after the storage commit.
func (s *Service) flush(ctx context.Context, user User, fx effects) {
	for _, ev := range fx.events {
		s.bus.Publish(ctx, ev)
	}
	for _, n := range fx.notes {
		if err := s.notifier.Deliver(ctx, user, n); err != nil {
			s.logger.Warn("notification delivery failed",
				"user", user.ID, "notification", n.Type, "error", err)
		}
	}
}

// UserStats is the read-only snapshot handed to callers.
type UserStats struct {
	UserID             core.UserID           `json:"user_id"`
	Progress           []core.ProgressRecord `json:"progress"`
	Achievements       []core.Achievement    `json:"achievements"`
	XP                 core.XPRecord         `json:"xp"`
	LevelTitle         string                `json:"level_title"`
	Streak             core.StreakRecord     `json:"streak"`
	StreakActive       bool                  `json:"streak_active"`
	RecentTransactions []core.XPTransaction  `json:"recent_transactions"`
}

// GetUserStats returns the user's full gamification snapshot.
func (s *Service) GetUserStats(ctx context.Context, userID string) (UserStats, error) {
	user, err := ResolveUser(ctx, s.resolver, userID)
	if err != nil {
		return UserStats{}, err
	}
	st, err := s.storage.GetUser(ctx, user.ID)
	if err != nil {
		return UserStats{}, err
	}
	now := s.clock().UTC()

	stats := UserStats{
		UserID:       st.UserID,
		XP:           st.XP,
		LevelTitle:   core.LevelTitle(st.XP.Level),
		Streak:       st.Streak,
		StreakActive: st.Streak.Active(now),
	}
	for _, rec := range st.Progress {
		stats.Progress = append(stats.Progress, rec)
	}
	sort.Slice(stats.Progress, func(i, j int) bool {
		return stats.Progress[i].LessonID < stats.Progress[j].LessonID
	})
	for _, a := range st.Achievements {
		stats.Achievements = append(stats.Achievements, a)
	}
	sort.Slice(stats.Achievements, func(i, j int) bool {
		return stats.Achievements[i].CreatedAt.Before(stats.Achievements[j].CreatedAt)
	})
	txs := st.Transactions
	if len(txs) > recentTransactionCount {
		txs = txs[len(txs)-recentTransactionCount:]
	}
	// newest first
	for i := len(txs) - 1; i >= 0; i-- {
		stats.RecentTransactions = append(stats.RecentTransactions, txs[i])
	}
	return stats, nil
}

// Leaderboard holds the two descending rankings.
type Leaderboard struct {
	XP     []core.LeaderboardEntry `json:"xp"`
	Streak []core.LeaderboardEntry `json:"streak"`
}

// GetLeaderboard returns the top users by total XP and by current streak.
func (s *Service) GetLeaderboard(ctx context.Context, limit int) (Leaderboard, error) {
	if limit <= 0 {
		limit = 10
	}
	xp, err := s.storage.TopByXP(ctx, limit)
	if err != nil {
		return Leaderboard{}, err
	}
	streak, err := s.storage.TopByStreak(ctx, limit)
	if err != nil {
		return Leaderboard{}, err
	}
	return Leaderboard{XP: xp, Streak: streak}, nil
}

// AchievementProgress is one in-flight progress-based achievement.
type AchievementProgress struct {
	Key         core.AchievementKey `json:"key"`
	Title       string              `json:"title"`
	Progress    int                 `json:"progress"`
	MaxProgress int                 `json:"max_progress"`
	Percentage  int                 `json:"percentage"`
}

// GetAchievementProgress lists progress-based achievements that are started
// but not yet unlocked.
func (s *Service) GetAchievementProgress(ctx context.Context, userID string) ([]AchievementProgress, error) {
	user, err := ResolveUser(ctx, s.resolver, userID)
	if err != nil {
		return nil, err
	}
	st, err := s.storage.GetUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	var out []AchievementProgress
	for _, a := range st.Achievements {
		if !a.ProgressBased || a.Unlocked() {
			continue
		}
		out = append(out, AchievementProgress{
			Key:         a.Key,
			Title:       a.Title,
			Progress:    a.Progress,
			MaxProgress: a.MaxProgress,
			Percentage:  a.ProgressPercent(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}
