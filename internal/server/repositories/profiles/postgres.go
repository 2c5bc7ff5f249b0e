// Package profiles stores the optional user profile details.
package profiles

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

func (r *PostgresRepository) GetOrCreate(ctx context.Context, userID string) (*models.UserProfile, error) {
	query := `
		INSERT INTO user_profiles (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING user_id, bio, company, job_title, phone, location, website, avatar_url, created_at, updated_at
	`
	p := &models.UserProfile{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID, &p.Bio, &p.Company, &p.JobTitle, &p.Phone, &p.Location, &p.Website, &p.AvatarURL,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

// Update upserts every editable field except the avatar.
func (r *PostgresRepository) Update(ctx context.Context, p *models.UserProfile) error {
	query := `
		INSERT INTO user_profiles (user_id, bio, company, job_title, phone, location, website)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			bio = EXCLUDED.bio,
			company = EXCLUDED.company,
			job_title = EXCLUDED.job_title,
			phone = EXCLUDED.phone,
			location = EXCLUDED.location,
			website = EXCLUDED.website,
			updated_at = now()
		RETURNING avatar_url, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		p.UserID, p.Bio, p.Company, p.JobTitle, p.Phone, p.Location, p.Website,
	).Scan(&p.AvatarURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SetAvatar(ctx context.Context, userID, url string) error {
	query := `
		INSERT INTO user_profiles (user_id, avatar_url)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET avatar_url = EXCLUDED.avatar_url, updated_at = now()
	`
	if _, err := r.db.ExecContext(ctx, query, userID, url); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
