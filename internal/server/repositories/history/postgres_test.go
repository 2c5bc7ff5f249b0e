package history

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
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

var columns = []string{"id", "user_id", "template_id", "template_name", "subject", "recipients", "status", "error", "sent_at"}

func TestCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()
	tid := "t1"

	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+email_history.*RETURNING\s+id,\s*sent_at`).
		WithArgs("u1", &tid, "Welcome", "Hi", `["a@x.io","b@x.io"]`, models.EmailStatusSent, "").
		WillReturnRows(sqlmock.NewRows([]string{"id", "sent_at"}).AddRow("h1", now))

	h := &models.EmailHistory{UserID: "u1", TemplateID: &tid, TemplateName: "Welcome", Subject: "Hi",
		Recipients: []string{"a@x.io", "b@x.io"}, Status: models.EmailStatusSent}
	require.NoError(t, repo.Create(context.Background(), h))
	assert.Equal(t, "h1", h.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList_Paginates(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT\s+count\(\*\)\s+FROM\s+email_history`).WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))
	mock.ExpectQuery(`(?s)ORDER\s+BY\s+sent_at\s+DESC\s+LIMIT\s+\$2\s+OFFSET\s+\$3`).WithArgs("u1", 20, 20).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("h1", "u1", nil, "predefined:welcome", "Hi", []byte(`["a@x.io"]`), "sent", "", now))

	list, total, err := repo.List(context.Background(), "u1", 20, 20)
	require.NoError(t, err)
	assert.Equal(t, 42, total)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].TemplateID)
	assert.Equal(t, []string{"a@x.io"}, list[0].Recipients)
}

func TestGet_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`FROM\s+email_history\s+WHERE\s+id\s*=\s*\$1\s+AND\s+user_id\s*=\s*\$2`).
		WithArgs("h1", "u1").WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "u1", "h1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestLogs(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()
	hid := "h1"

	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+email_logs.*RETURNING\s+id,\s*created_at`).
		WithArgs("u1", &hid, "a@x.io", "delivered", "").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("l1", now))
	mock.ExpectQuery(`(?s)FROM\s+email_logs\s+WHERE\s+user_id\s*=\s*\$1\s+AND\s+history_id\s*=\s*\$2`).
		WithArgs("u1", "h1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "history_id", "recipient", "event", "message", "created_at"}).
			AddRow("l1", "u1", "h1", "a@x.io", "delivered", "", now))

	l := &models.EmailLog{UserID: "u1", HistoryID: &hid, Recipient: "a@x.io", Event: "delivered"}
	require.NoError(t, repo.CreateLog(context.Background(), l))

	logs, err := repo.ListLogs(context.Background(), "u1", "h1")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "h1", *logs[0].HistoryID)
}
