// Package security persists per-user two-factor settings.
package security

import (
	"context"

	"github.com/sendly-app/sendly/internal/server/models"
)

type Repository interface {
	// GetOrCreate returns the user's settings, inserting defaults on first access.
	GetOrCreate(ctx context.Context, userID string) (*models.SecuritySettings, error)
	// SetPendingSecret stores a fresh secret and leaves two-factor disabled.
	SetPendingSecret(ctx context.Context, userID, secret string) error
	Enable(ctx context.Context, userID string) error
	// Disable clears the secret and the enabled flag.
	Disable(ctx context.Context, userID string) error
}
