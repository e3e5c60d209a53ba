package sqlx_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	libsqlx "github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	storage "progresskit/adapters/sqlx"
	"progresskit/core"
)

func newMockStore(t *testing.T) (*storage.Store, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	xdb := storage.NewWithDB(libsqlx.NewDb(db, "postgres"), storage.DriverPostgres)
	cleanup := func() {
		_ = db.Close()
	}
	return xdb, mock, cleanup
}

func encodedState(t *testing.T, st core.UserGameState) []byte {
	t.Helper()
	b, err := json.Marshal(st)
	require.NoError(t, err)
	return b
}

// Expectations are order-sensitive: the empty row must be inserted before
// SELECT ... FOR UPDATE runs, otherwise a fresh user's first two concurrent
// writes have nothing to lock and the later commit clobbers the earlier one.
func TestSQLMock_UpdateUser_FirstActivitySeedsRowBeforeLock(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	ctx := context.Background()
	user := core.UserID("u1")

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO user_states`).
		WithArgs(user, sqlmock.AnyArg(), int64(0), 0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(`SELECT state FROM user_states`).
		WithArgs(user).
		WillReturnRows(sqlmock.NewRows([]string{"state"}).
			AddRow(encodedState(t, core.NewUserGameState(user))))
	mock.ExpectExec(`INSERT INTO user_states`).
		WithArgs(user, sqlmock.AnyArg(), int64(25), 0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO xp_transactions`).
		WithArgs("tx-1", user, int64(25), "lesson_completion", "l1", "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	st, err := store.UpdateUser(ctx, user, func(st *core.UserGameState) error {
		st.XP = st.XP.Apply(25)
		st.Transactions = append(st.Transactions, core.XPTransaction{
			ID: "tx-1", Amount: 25, Source: core.SourceLessonCompletion, SourceRef: "l1",
		})
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, int64(25), st.XP.TotalXP)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_UpdateUser_LoadsExistingRow(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	ctx := context.Background()
	user := core.UserID("u1")

	prev := core.NewUserGameState(user)
	prev.XP = prev.XP.Apply(100)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO user_states`).
		WithArgs(user, sqlmock.AnyArg(), int64(0), 0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 0))
	mock.ExpectQuery(`SELECT state FROM user_states`).
		WithArgs(user).
		WillReturnRows(sqlmock.NewRows([]string{"state"}).AddRow(encodedState(t, prev)))
	mock.ExpectExec(`INSERT INTO user_states`).
		WithArgs(user, sqlmock.AnyArg(), int64(150), 0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	st, err := store.UpdateUser(ctx, user, func(st *core.UserGameState) error {
		st.XP = st.XP.Apply(50)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, int64(150), st.XP.TotalXP)
	require.Equal(t, 2, st.XP.Level)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_UpdateUser_FnErrorRollsBack(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO user_states`).
		WithArgs(core.UserID("u1"), sqlmock.AnyArg(), int64(0), 0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(`SELECT state FROM user_states`).
		WithArgs(core.UserID("u1")).
		WillReturnRows(sqlmock.NewRows([]string{"state"}).
			AddRow(encodedState(t, core.NewUserGameState("u1"))))
	mock.ExpectRollback()

	_, err := store.UpdateUser(context.Background(), "u1", func(st *core.UserGameState) error {
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_GetUser(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	user := core.UserID("u1")
	prev := core.NewUserGameState(user)
	prev.Streak.Current = 6

	mock.ExpectQuery(`SELECT state FROM user_states`).
		WithArgs(user).
		WillReturnRows(sqlmock.NewRows([]string{"state"}).AddRow(encodedState(t, prev)))

	st, err := store.GetUser(context.Background(), user)
	require.NoError(t, err)
	require.Equal(t, 6, st.Streak.Current)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_GetUser_NoRow(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT state FROM user_states`).
		WithArgs(core.UserID("missing")).
		WillReturnError(sql.ErrNoRows)

	st, err := store.GetUser(context.Background(), "missing")
	require.NoError(t, err)
	require.Equal(t, core.UserID("missing"), st.UserID)
	require.Equal(t, 1, st.XP.Level)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_TopByXP(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT user_id, total_xp FROM user_states ORDER BY total_xp DESC`).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "total_xp"}).
			AddRow("alice", 500).
			AddRow("carol", 300))

	top, err := store.TopByXP(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	require.Equal(t, core.UserID("alice"), top[0].UserID)
	require.Equal(t, int64(500), top[0].Score)
	require.NoError(t, mock.ExpectationsWereMet())
}
