package profiles

import (
	"context"

	"github.com/sendly-app/sendly/internal/server/models"
)

type Repository interface {
	// GetOrCreate returns the profile, inserting an empty one on first access.
	GetOrCreate(ctx context.Context, userID string) (*models.UserProfile, error)
	Update(ctx context.Context, p *models.UserProfile) error
	SetAvatar(ctx context.Context, userID, url string) error
}
