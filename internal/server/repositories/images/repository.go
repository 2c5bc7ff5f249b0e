package images

import (
	"context"

	"github.com/sendly-app/sendly/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, img *models.Image) error
	// Get returns the image including its bytes. Images are addressable by id
	// alone so they can be embedded in outgoing emails.
	Get(ctx context.Context, id string) (*models.Image, error)
	// List returns metadata only; Data is left empty.
	List(ctx context.Context, userID string) ([]*models.Image, error)
	Delete(ctx context.Context, userID, id string) error
}
