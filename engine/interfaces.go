package engine

import (
	"context"
	"errors"

	"progresskit/core"
)

// ErrUserNotFound is reported when neither the primary nor the external
// identifier resolves to a known user.
var ErrUserNotFound = errors.New("user not found")

// ErrInvalidInput marks validation failures rejected before any state
// mutation.
var ErrInvalidInput = errors.New("invalid input")

// Storage abstracts persistence for per-user gamification state.
//
// UpdateUser runs fn against the user's aggregate as one atomic unit of
// work: concurrent updates for the same user are serialized, and when fn
// returns an error nothing is persisted. The engine performs every
// read-modify-write through UpdateUser so a failed activity event leaves a
// consistent "nothing happened" outcome.
type Storage interface {
	GetUser(ctx context.Context, user core.UserID) (core.UserGameState, error)
	UpdateUser(ctx context.Context, user core.UserID, fn func(*core.UserGameState) error) (core.UserGameState, error)
	TopByXP(ctx context.Context, n int) ([]core.LeaderboardEntry, error)
	TopByStreak(ctx context.Context, n int) ([]core.LeaderboardEntry, error)
}

// User is the resolved identity handed through the call chain. The engine
// never stores users; identity lives elsewhere.
type User struct {
	ID          core.UserID
	ExternalID  string
	DisplayName string
}

// UserResolver resolves users by primary or external identifier.
// Implementations return ErrUserNotFound when the identifier is unknown.
type UserResolver interface {
	FindByID(ctx context.Context, id core.UserID) (User, error)
	FindByExternalID(ctx context.Context, externalID string) (User, error)
}

// NotificationSink delivers user-facing messages. Sinks may be slow or
// flaky; the engine calls them only after state has committed and treats
// failures as log-and-continue.
type NotificationSink interface {
	Deliver(ctx context.Context, user User, n core.Notification) error
}

// NopSink drops every notification. Used when no sink is configured.
type NopSink struct{}

func (NopSink) Deliver(context.Context, User, core.Notification) error { return nil }

// ResolveUser tries the primary identifier first and falls back to the
// external one. Every entry point resolves exactly once and passes the
// result by value from there on.
func ResolveUser(ctx context.Context, r UserResolver, id string) (User, error) {
	normalized, err := core.NormalizeUserID(core.UserID(id))
	if err != nil {
		return User{}, err
	}
	if u, err := r.FindByID(ctx, normalized); err == nil {
		return u, nil
	} else if !errors.Is(err, ErrUserNotFound) {
		return User{}, err
	}
	u, err := r.FindByExternalID(ctx, id)
	if err != nil {
		return User{}, err
	}
	return u, nil
}
