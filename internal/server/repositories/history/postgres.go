// Package history records sent emails and their per-recipient delivery logs.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sendly-app/sendly/internal/common"
	"github.com/sendly-app/sendly/internal/dbx"
	"github.com/sendly-app/sendly/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const historyColumns = `id, user_id, template_id, template_name, subject, recipients, status, error, sent_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanHistory(row scanner) (*models.EmailHistory, error) {
	h := &models.EmailHistory{}
	var (
		templateID sql.NullString
		recipients []byte
	)
	if err := row.Scan(&h.ID, &h.UserID, &templateID, &h.TemplateName, &h.Subject, &recipients,
		&h.Status, &h.Error, &h.SentAt); err != nil {
		return nil, err
	}
	if templateID.Valid {
		h.TemplateID = &templateID.String
	}
	if err := dbx.ScanJSON(recipients, &h.Recipients); err != nil {
		return nil, err
	}
	return h, nil
}

func (r *PostgresRepository) Create(ctx context.Context, h *models.EmailHistory) error {
	recipients := h.Recipients
	if recipients == nil {
		recipients = []string{}
	}
	rcpt, err := dbx.JSONArg(recipients)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO email_history (user_id, template_id, template_name, subject, recipients, status, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, sent_at
	`
	err = r.db.QueryRowContext(ctx, query,
		h.UserID, h.TemplateID, h.TemplateName, h.Subject, rcpt, h.Status, h.Error,
	).Scan(&h.ID, &h.SentAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, userID string, limit, offset int) ([]*models.EmailHistory, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM email_history WHERE user_id = $1`, userID).
		Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	query := `
		SELECT ` + historyColumns + `
		FROM email_history
		WHERE user_id = $1
		ORDER BY sent_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to select history: %w", err)
	}
	defer rows.Close()

	var result []*models.EmailHistory
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, h)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, id string) (*models.EmailHistory, error) {
	query := `SELECT ` + historyColumns + ` FROM email_history WHERE id = $1 AND user_id = $2`
	h, err := scanHistory(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return h, nil
}

func (r *PostgresRepository) CreateLog(ctx context.Context, l *models.EmailLog) error {
	query := `
		INSERT INTO email_logs (user_id, history_id, recipient, event, message)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, l.UserID, l.HistoryID, l.Recipient, l.Event, l.Message).
		Scan(&l.ID, &l.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListLogs(ctx context.Context, userID, historyID string) ([]*models.EmailLog, error) {
	query := `
		SELECT id, user_id, history_id, recipient, event, message, created_at
		FROM email_logs
		WHERE user_id = $1 AND history_id = $2
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, userID, historyID)
	if err != nil {
		return nil, fmt.Errorf("failed to select logs: %w", err)
	}
	defer rows.Close()

	var result []*models.EmailLog
	for rows.Next() {
		l := &models.EmailLog{}
		var hid sql.NullString
		if err := rows.Scan(&l.ID, &l.UserID, &hid, &l.Recipient, &l.Event, &l.Message, &l.CreatedAt); err != nil {
			return nil, err
		}
		if hid.Valid {
			l.HistoryID = &hid.String
		}
		result = append(result, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
