package contacts

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sendly-app/sendly/internal/common"
	"github.com/sendly-app/sendly/internal/server/models"
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

var columns = []string{"id", "user_id", "email", "name", "company", "tags", "notes", "created_at", "updated_at"}

func TestCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+contacts.*RETURNING`).
		WithArgs("u1", "ann@example.com", "Ann", "", `["vip"]`, "").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("c1", now, now))

	c := &models.Contact{UserID: "u1", Email: "ann@example.com", Name: "Ann", Tags: []string{"vip"}}
	require.NoError(t, repo.Create(context.Background(), c))
	assert.Equal(t, "c1", c.ID)
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`INSERT\s+INTO\s+contacts`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "contacts_user_id_email_key"})

	err := repo.Create(context.Background(), &models.Contact{UserID: "u1", Email: "ann@example.com"})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestGet_ScopedToUser(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`FROM\s+contacts\s+WHERE\s+id\s*=\s*\$1\s+AND\s+user_id\s*=\s*\$2`).
		WithArgs("c1", "u2").WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "u2", "c1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestList(t *testing.T) {
	now := time.Now()

	t.Run("no search", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`WHERE\s+user_id\s*=\s*\$1\s+ORDER\s+BY\s+name,\s*email$`).WithArgs("u1").
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow("c1", "u1", "a@x.io", "A", "", []byte(`[]`), "", now, now))

		list, err := repo.List(context.Background(), "u1", "")
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("search escapes wildcards", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`ILIKE\s+\$2`).WithArgs("u1", `%50\%%`).
			WillReturnRows(sqlmock.NewRows(columns))

		list, err := repo.List(context.Background(), "u1", " 50% ")
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`FROM\s+contacts`).WillReturnError(errors.New("down"))

		_, err := repo.List(context.Background(), "u1", "")
		assert.ErrorContains(t, err, "failed to select contacts")
	})
}

func TestUpdate(t *testing.T) {
	q := `(?s)UPDATE\s+contacts.*WHERE\s+id\s*=\s*\$1\s+AND\s+user_id\s*=\s*\$2`

	t.Run("duplicate", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WillReturnError(&pgconn.PgError{Code: "23505"})
		err := repo.Update(context.Background(), &models.Contact{ID: "c1", UserID: "u1", Email: "b@x.io"})
		assert.ErrorIs(t, err, common.ErrorAlreadyExists)
	})

	t.Run("missing", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WillReturnError(sql.ErrNoRows)
		err := repo.Update(context.Background(), &models.Contact{ID: "c1", UserID: "u1"})
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})
}

func TestDelete(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectExec(`DELETE\s+FROM\s+contacts`).WithArgs("c1", "u1").WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.Delete(context.Background(), "u1", "c1"))
}
