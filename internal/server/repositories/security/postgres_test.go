package security

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sendly-app/sendly/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestGetOrCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	q := `(?s)INSERT\s+INTO\s+security_settings\s*\(user_id\).*ON\s+CONFLICT\s*\(user_id\)\s+DO\s+UPDATE.*RETURNING`
	now := time.Now()
	mock.ExpectQuery(q).WithArgs("u1").WillReturnRows(
		sqlmock.NewRows([]string{"user_id", "two_factor_enabled", "two_factor_secret", "created_at", "updated_at"}).
			AddRow("u1", false, "JBSWY3DPEHPK3PXP", now, now))

	s, err := repo.GetOrCreate(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", s.UserID)
	assert.True(t, s.Pending())
}

func TestGetOrCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`INSERT\s+INTO\s+security_settings`).WillReturnError(errors.New("db down"))

	_, err := repo.GetOrCreate(context.Background(), "u1")
	assert.ErrorContains(t, err, "db error: db down")
}

func TestSetPendingSecret(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectExec(`(?s)SET\s+two_factor_secret\s*=\s*\$2,\s*two_factor_enabled\s*=\s*FALSE`).
		WithArgs("u1", "SECRET").WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.SetPendingSecret(context.Background(), "u1", "SECRET"))
}

func TestEnable(t *testing.T) {
	q := `(?s)SET\s+two_factor_enabled\s*=\s*TRUE.*WHERE\s+user_id\s*=\s*\$1\s+AND\s+two_factor_secret\s*<>\s*''`

	t.Run("with secret", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 1))
		assert.NoError(t, repo.Enable(context.Background(), "u1"))
	})

	t.Run("without secret", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 0))
		assert.ErrorIs(t, repo.Enable(context.Background(), "u1"), common.ErrorNotFound)
	})
}

func TestDisable(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectExec(`(?s)SET\s+two_factor_enabled\s*=\s*FALSE,\s*two_factor_secret\s*=\s*''`).
		WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.Disable(context.Background(), "u1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
