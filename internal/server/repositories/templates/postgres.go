// Package templates provides PostgreSQL persistence for user email templates.
package templates

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sendly-app/sendly/internal/common"
	"github.com/sendly-app/sendly/internal/dbx"
	"github.com/sendly-app/sendly/internal/server/models"
)

// PostgresRepository implements template storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const templateColumns = `id, user_id, name, subject, html, variables, category, is_public, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row scanner) (*models.EmailTemplate, error) {
	t := &models.EmailTemplate{}
	var vars []byte
	if err := row.Scan(&t.ID, &t.UserID, &t.Name, &t.Subject, &t.HTML, &vars, &t.Category, &t.IsPublic,
		&t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if err := dbx.ScanJSON(vars, &t.Variables); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *PostgresRepository) Create(ctx context.Context, t *models.EmailTemplate) error {
	vars, err := dbx.JSONArg(nonNil(t.Variables))
	if err != nil {
		return err
	}
	query := `
		INSERT INTO email_templates (user_id, name, subject, html, variables, category, is_public)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	err = r.db.QueryRowContext(ctx, query, t.UserID, t.Name, t.Subject, t.HTML, vars, t.Category, t.IsPublic).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.EmailTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM email_templates WHERE id = $1`
	t, err := scanTemplate(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) ListVisible(ctx context.Context, userID string) ([]*models.EmailTemplate, error) {
	query := `
		SELECT ` + templateColumns + `
		FROM email_templates
		WHERE user_id = $1 OR is_public
		ORDER BY (user_id = $1) DESC, updated_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select templates: %w", err)
	}
	defer rows.Close()

	var result []*models.EmailTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, t *models.EmailTemplate) error {
	vars, err := dbx.JSONArg(nonNil(t.Variables))
	if err != nil {
		return err
	}
	query := `
		UPDATE email_templates
		SET name = $3, subject = $4, html = $5, variables = $6, category = $7, is_public = $8, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING created_at, updated_at
	`
	err = r.db.QueryRowContext(ctx, query, t.ID, t.UserID, t.Name, t.Subject, t.HTML, vars, t.Category, t.IsPublic).
		Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM email_templates WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.ExpectAffected(res)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
