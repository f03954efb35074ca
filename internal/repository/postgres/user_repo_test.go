package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/and161185/deck-keeper/internal/errs"
	"github.com/and161185/deck-keeper/internal/model"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

func TestUserRepo_Create_OK_and_UniqueViolation(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()
	u := &model.User{
		Username: "alice",
		PwdHash:  []byte("h"),
		SaltAuth: []byte("s"),
	}

	// OK
	mock.ExpectQuery(`INSERT INTO users \(username, pwd_hash, salt_auth\) VALUES \(\$1, \$2, \$3\) RETURNING id, created_at`).
		WithArgs(u.Username, u.PwdHash, u.SaltAuth).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), time.Now()))
	require.NoError(t, r.Create(ctx, u))
	require.Equal(t, int64(7), u.ID)

	// Unique violation
	mock.ExpectQuery(`INSERT INTO users \(username, pwd_hash, salt_auth\) VALUES \(\$1, \$2, \$3\) RETURNING id, created_at`).
		WithArgs(u.Username, u.PwdHash, u.SaltAuth).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	err := r.Create(ctx, u)
	require.ErrorIs(t, err, errs.ErrAlreadyExists)
}

func TestUserRepo_GetByUsername(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()
	name := "bob"

	mock.ExpectQuery(`SELECT id, username, pwd_hash, salt_auth, created_at FROM users WHERE username=\$1`).
		WithArgs(name).
		WillReturnRows(pgxmock.NewRows([]string{"id", "username", "pwd_hash", "salt_auth", "created_at"}).
			AddRow(int64(3), name, []byte("h"), []byte("s"), time.Now()))
	u, err := r.GetByUsername(ctx, name)
	require.NoError(t, err)
	require.Equal(t, name, u.Username)
	require.Equal(t, int64(3), u.ID)

	mock.ExpectQuery(`SELECT id, username, pwd_hash, salt_auth, created_at FROM users WHERE username=\$1`).
		WithArgs(name).
		WillReturnError(pgx.ErrNoRows)
	_, err = r.GetByUsername(ctx, name)
	require.ErrorIs(t, err, errs.ErrNotFound)
}
