// Package users declares and implements persistence for user accounts.
package users

import (
	"context"

	"github.com/sendly-app/sendly/internal/server/models"
)

type Repository interface {
	// Create inserts user and fills its ID and timestamps. A taken email
	// yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	// UpdateAccount changes name and email.
	UpdateAccount(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
}
