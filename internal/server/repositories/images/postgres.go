// Package images stores uploaded inline images as bytea rows.
package images

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sendly-app/sendly/internal/common"
	"github.com/sendly-app/sendly/internal/dbx"
	"github.com/sendly-app/sendly/internal/server/models"
)

// PostgresRepository implements image storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, img *models.Image) error {
	query := `
		INSERT INTO images (user_id, filename, content_type, size, data)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	img.Size = int64(len(img.Data))
	err := r.db.QueryRowContext(ctx, query, img.UserID, img.Filename, img.ContentType, img.Size, img.Data).
		Scan(&img.ID, &img.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Image, error) {
	query := `SELECT id, user_id, filename, content_type, size, data, created_at FROM images WHERE id = $1`
	img := &models.Image{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&img.ID, &img.UserID, &img.Filename, &img.ContentType, &img.Size, &img.Data, &img.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return img, nil
}

func (r *PostgresRepository) List(ctx context.Context, userID string) ([]*models.Image, error) {
	query := `
		SELECT id, user_id, filename, content_type, size, created_at
		FROM images
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select images: %w", err)
	}
	defer rows.Close()

	var result []*models.Image
	for rows.Next() {
		var item models.Image
		if err := rows.Scan(&item.ID, &item.UserID, &item.Filename, &item.ContentType, &item.Size, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM images WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.ExpectAffected(res)
}
