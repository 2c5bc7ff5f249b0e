package security

import (
	"context"
	"fmt"

	"github.com/sendly-app/sendly/internal/dbx"
	"github.com/sendly-app/sendly/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetOrCreate(ctx context.Context, userID string) (*models.SecuritySettings, error) {
	query := `
		INSERT INTO security_settings (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING user_id, two_factor_enabled, two_factor_secret, created_at, updated_at
	`
	s := &models.SecuritySettings{}
	err := r.db.QueryRowContext(ctx, query, userID).
		Scan(&s.UserID, &s.TwoFactorEnabled, &s.TwoFactorSecret, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) SetPendingSecret(ctx context.Context, userID, secret string) error {
	query := `
		UPDATE security_settings
		SET two_factor_secret = $2, two_factor_enabled = FALSE, updated_at = now()
		WHERE user_id = $1
	`
	res, err := r.db.ExecContext(ctx, query, userID, secret)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.ExpectAffected(res)
}

func (r *PostgresRepository) Enable(ctx context.Context, userID string) error {
	query := `
		UPDATE security_settings
		SET two_factor_enabled = TRUE, updated_at = now()
		WHERE user_id = $1 AND two_factor_secret <> ''
	`
	res, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.ExpectAffected(res)
}

func (r *PostgresRepository) Disable(ctx context.Context, userID string) error {
	query := `
		UPDATE security_settings
		SET two_factor_enabled = FALSE, two_factor_secret = '', updated_at = now()
		WHERE user_id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
