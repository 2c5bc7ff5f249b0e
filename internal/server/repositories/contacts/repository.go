package contacts

import (
	"context"

	"github.com/sendly-app/sendly/internal/server/models"
)

type Repository interface {
	// Create returns common.ErrorAlreadyExists when the user already has a
	// contact with the same email.
	Create(ctx context.Context, c *models.Contact) error
	Get(ctx context.Context, userID, id string) (*models.Contact, error)
	// List filters by a case-insensitive substring of name, email or company
	// when search is non-empty.
	List(ctx context.Context, userID, search string) ([]*models.Contact, error)
	Update(ctx context.Context, c *models.Contact) error
	Delete(ctx context.Context, userID, id string) error
}
