package sqlx

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"progresskit/core"
	"progresskit/engine"
)

// Driver selects the SQL dialect for placeholder rebinding and upserts.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
)

// Config holds SQL connection configuration.
type Config struct {
	Driver Driver `json:"driver" yaml:"driver" env:"PROGRESSKIT_STORAGE_SQL_DRIVER"`
	DSN    string `json:"dsn,omitempty" yaml:"dsn" env:"PROGRESSKIT_STORAGE_SQL_DSN"`
}

// DefaultConfig returns an empty-DSN config for the given driver.
func DefaultConfig(driver Driver) Config {
	return Config{Driver: driver}
}

// SchemaPostgres is the reference DDL. MySQL deployments adjust types
// (JSONB -> JSON, TIMESTAMPTZ -> DATETIME).
const SchemaPostgres = `
CREATE TABLE IF NOT EXISTS user_states (
	user_id        TEXT PRIMARY KEY,
	state          JSONB NOT NULL,
	total_xp       BIGINT NOT NULL DEFAULT 0,
	current_streak INT NOT NULL DEFAULT 0,
	updated_at     TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_user_states_total_xp ON user_states (total_xp DESC);
CREATE INDEX IF NOT EXISTS idx_user_states_streak ON user_states (current_streak DESC);

CREATE TABLE IF NOT EXISTS xp_transactions (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	amount      BIGINT NOT NULL,
	source      TEXT NOT NULL,
	source_ref  TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_xp_transactions_user ON xp_transactions (user_id, created_at);
`

// Store implements engine.Storage on a relational database. The whole
// aggregate lives as a JSON document in user_states; total_xp and
// current_streak are denormalized alongside it so the leaderboards are a
// plain ORDER BY. Ledger rows are additionally mirrored into
// xp_transactions for reporting queries outside this package.
type Store struct {
	db     *sqlx.DB
	driver Driver
}

// New opens a connection and verifies it. The driver name doubles as the
// database/sql driver to register ("postgres" via lib/pq, "mysql" via
// go-sql-driver).
func New(driver Driver, dsn string) (*Store, error) {
	db, err := sqlx.Connect(string(driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)
	return &Store{db: db, driver: driver}, nil
}

// NewWithDB wraps an existing connection (useful for testing).
func NewWithDB(db *sqlx.DB, driver Driver) *Store {
	return &Store{db: db, driver: driver}
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) GetUser(ctx context.Context, user core.UserID) (core.UserGameState, error) {
	var blob []byte
	q := s.db.Rebind(`SELECT state FROM user_states WHERE user_id = ?`)
	err := s.db.QueryRowxContext(ctx, q, user).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return core.NewUserGameState(user), nil
	}
	if err != nil {
		return core.UserGameState{}, fmt.Errorf("failed to load user state: %w", err)
	}
	return decodeState(user, blob)
}

// UpdateUser wraps fn in one transaction: the state row is locked with
// FOR UPDATE, fn mutates the decoded aggregate, and the row plus any newly
// appended ledger entries are written back before commit. A failing fn
// rolls everything back.
//
// FOR UPDATE cannot lock a row that does not exist yet, so a fresh user's
// row is seeded first; the insert is a no-op once the row is there. Without
// it, two concurrent first activities would both read an empty aggregate
// and the later commit would overwrite the earlier one.
func (s *Store) UpdateUser(ctx context.Context, user core.UserID, fn func(*core.UserGameState) error) (core.UserGameState, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return core.UserGameState{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	seed, err := json.Marshal(core.NewUserGameState(user))
	if err != nil {
		return core.UserGameState{}, err
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(s.seedStateSQL()),
		user, seed, int64(0), 0, time.Now().UTC()); err != nil {
		return core.UserGameState{}, fmt.Errorf("failed to seed user state: %w", err)
	}

	var blob []byte
	q := tx.Rebind(`SELECT state FROM user_states WHERE user_id = ? FOR UPDATE`)
	if err := tx.QueryRowxContext(ctx, q, user).Scan(&blob); err != nil {
		return core.UserGameState{}, fmt.Errorf("failed to lock user state: %w", err)
	}
	st, err := decodeState(user, blob)
	if err != nil {
		return core.UserGameState{}, err
	}

	ledgerBefore := len(st.Transactions)
	if err := fn(&st); err != nil {
		return core.UserGameState{}, err
	}
	if st.Updated.IsZero() {
		st.Updated = time.Now().UTC()
	}

	encoded, err := json.Marshal(st)
	if err != nil {
		return core.UserGameState{}, err
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(s.upsertStateSQL()),
		user, encoded, st.XP.TotalXP, st.Streak.Current, st.Updated); err != nil {
		return core.UserGameState{}, fmt.Errorf("failed to save user state: %w", err)
	}

	insertTx := tx.Rebind(`INSERT INTO xp_transactions
		(id, user_id, amount, source, source_ref, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	for _, entry := range st.Transactions[ledgerBefore:] {
		if _, err := tx.ExecContext(ctx, insertTx,
			entry.ID, user, entry.Amount, entry.Source, entry.SourceRef,
			entry.Description, entry.CreatedAt); err != nil {
			return core.UserGameState{}, fmt.Errorf("failed to record transaction: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return core.UserGameState{}, fmt.Errorf("failed to commit: %w", err)
	}
	return st, nil
}

func (s *Store) seedStateSQL() string {
	if s.driver == DriverMySQL {
		return `INSERT IGNORE INTO user_states (user_id, state, total_xp, current_streak, updated_at)
			VALUES (?, ?, ?, ?, ?)`
	}
	return `INSERT INTO user_states (user_id, state, total_xp, current_streak, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO NOTHING`
}

func (s *Store) upsertStateSQL() string {
	if s.driver == DriverMySQL {
		return `INSERT INTO user_states (user_id, state, total_xp, current_streak, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE state = VALUES(state), total_xp = VALUES(total_xp),
				current_streak = VALUES(current_streak), updated_at = VALUES(updated_at)`
	}
	return `INSERT INTO user_states (user_id, state, total_xp, current_streak, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET state = EXCLUDED.state, total_xp = EXCLUDED.total_xp,
			current_streak = EXCLUDED.current_streak, updated_at = EXCLUDED.updated_at`
}

func (s *Store) TopByXP(ctx context.Context, n int) ([]core.LeaderboardEntry, error) {
	return s.top(ctx, "total_xp", n)
}

func (s *Store) TopByStreak(ctx context.Context, n int) ([]core.LeaderboardEntry, error) {
	return s.top(ctx, "current_streak", n)
}

func (s *Store) top(ctx context.Context, column string, n int) ([]core.LeaderboardEntry, error) {
	if n <= 0 {
		return nil, nil
	}
	// column is one of two compile-time constants, never user input
	q := s.db.Rebind(fmt.Sprintf(
		`SELECT user_id, %s FROM user_states ORDER BY %s DESC, user_id ASC LIMIT ?`,
		column, column))
	rows, err := s.db.QueryxContext(ctx, q, n)
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []core.LeaderboardEntry
	for rows.Next() {
		var (
			id    string
			score int64
		)
		if err := rows.Scan(&id, &score); err != nil {
			return nil, err
		}
		entries = append(entries, core.LeaderboardEntry{UserID: core.UserID(id), Score: score})
	}
	return entries, rows.Err()
}

func decodeState(user core.UserID, blob []byte) (core.UserGameState, error) {
	var st core.UserGameState
	if err := json.Unmarshal(blob, &st); err != nil {
		return core.UserGameState{}, fmt.Errorf("corrupt user state for %s: %w", user, err)
	}
	return st, nil
}

var _ engine.Storage = (*Store)(nil)
