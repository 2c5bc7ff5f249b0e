package templates

import (
	"context"

	"github.com/sendly-app/sendly/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, t *models.EmailTemplate) error
	GetByID(ctx context.Context, id string) (*models.EmailTemplate, error)
	// ListVisible returns the user's own templates followed by public ones
	// owned by others, most recently updated first.
	ListVisible(ctx context.Context, userID string) ([]*models.EmailTemplate, error)
	// Update and Delete only touch rows owned by t.UserID / userID.
	Update(ctx context.Context, t *models.EmailTemplate) error
	Delete(ctx context.Context, userID, id string) error
}
