// Package scheduled stores deferred sends and hands due ones to the dispatcher.
package scheduled

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sendly-app/sendly/internal/common"
	"github.com/sendly-app/sendly/internal/dbx"
	"github.com/sendly-app/sendly/internal/server/models"
)

// ProcessingLease is how long a claimed row may stay in processing before
// another pass reclaims it.
const ProcessingLease = 10 * time.Minute

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const scheduledColumns = `id, user_id, template_ref, subject, recipients, variables, scheduled_at, status, error,
		sent_at, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanScheduled(row scanner) (*models.ScheduledEmail, error) {
	e := &models.ScheduledEmail{}
	var (
		recipients, variables []byte
		sentAt                sql.NullTime
	)
	if err := row.Scan(&e.ID, &e.UserID, &e.TemplateRef, &e.Subject, &recipients, &variables,
		&e.ScheduledAt, &e.Status, &e.Error, &sentAt, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	if sentAt.Valid {
		e.SentAt = &sentAt.Time
	}
	if err := dbx.ScanJSON(recipients, &e.Recipients); err != nil {
		return nil, err
	}
	if err := dbx.ScanJSON(variables, &e.Variables); err != nil {
		return nil, err
	}
	return e, nil
}

func scanAll(rows *sql.Rows) ([]*models.ScheduledEmail, error) {
	defer rows.Close()
	var result []*models.ScheduledEmail
	for rows.Next() {
		e, err := scanScheduled(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Create(ctx context.Context, e *models.ScheduledEmail) error {
	recipients := e.Recipients
	if recipients == nil {
		recipients = []string{}
	}
	vars := e.Variables
	if vars == nil {
		vars = map[string]string{}
	}
	rcptArg, err := dbx.JSONArg(recipients)
	if err != nil {
		return err
	}
	varsArg, err := dbx.JSONArg(vars)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO scheduled_emails (user_id, template_ref, subject, recipients, variables, scheduled_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, status, created_at, updated_at
	`
	err = r.db.QueryRowContext(ctx, query, e.UserID, e.TemplateRef, e.Subject, rcptArg, varsArg, e.ScheduledAt).
		Scan(&e.ID, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, id string) (*models.ScheduledEmail, error) {
	query := `SELECT ` + scheduledColumns + ` FROM scheduled_emails WHERE id = $1 AND user_id = $2`
	e, err := scanScheduled(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

func (r *PostgresRepository) List(ctx context.Context, userID string) ([]*models.ScheduledEmail, error) {
	query := `SELECT ` + scheduledColumns + ` FROM scheduled_emails WHERE user_id = $1 ORDER BY scheduled_at`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select scheduled emails: %w", err)
	}
	return scanAll(rows)
}

func (r *PostgresRepository) Cancel(ctx context.Context, userID, id string) error {
	query := `
		UPDATE scheduled_emails
		SET status = 'cancelled', updated_at = now()
		WHERE id = $1 AND user_id = $2 AND status = 'pending'
	`
	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if err := dbx.ExpectAffected(res); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrNotScheduled
		}
		return err
	}
	return nil
}

func (r *PostgresRepository) ClaimDue(ctx context.Context, limit int) ([]*models.ScheduledEmail, error) {
	query := `
		UPDATE scheduled_emails
		SET status = 'processing', updated_at = now()
		WHERE id IN (
			SELECT id FROM scheduled_emails
			WHERE (status = 'pending' AND scheduled_at <= now())
			   OR (status = 'processing' AND updated_at < now() - make_interval(secs => $2))
			ORDER BY scheduled_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + scheduledColumns
	rows, err := r.db.QueryContext(ctx, query, limit, ProcessingLease.Seconds())
	if err != nil {
		return nil, fmt.Errorf("failed to claim scheduled emails: %w", err)
	}
	return scanAll(rows)
}

func (r *PostgresRepository) Finish(ctx context.Context, id, status, errMsg string) error {
	query := `
		UPDATE scheduled_emails
		SET status = $2, error = $3, sent_at = CASE WHEN $2 = 'sent' THEN now() ELSE sent_at END, updated_at = now()
		WHERE id = $1 AND status = 'processing'
	`
	res, err := r.db.ExecContext(ctx, query, id, status, errMsg)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.ExpectAffected(res)
}
