// Package sessions declares the contract for the session registry: persisted,
// individually revocable device logins.
package sessions

import (
	"context"

	"github.com/sendly-app/sendly/internal/server/models"
)

// Repository stores sessions. "Active" always means not revoked and not past
// expires_at at the time of the query.
type Repository interface {
	// Create inserts session and fills its ID and CreatedAt.
	Create(ctx context.Context, session *models.Session) error

	// FindActiveByToken returns the live session holding token, or
	// common.ErrorNotFound when it is unknown, revoked or expired.
	FindActiveByToken(ctx context.Context, token string) (*models.Session, error)

	// Touch bumps last_active_at.
	Touch(ctx context.Context, id string) error

	// ListActive returns the user's live sessions, most recently active first.
	ListActive(ctx context.Context, userID string) ([]*models.Session, error)

	// GetForUser returns the session with id if it belongs to userID.
	GetForUser(ctx context.Context, userID, id string) (*models.Session, error)

	// Revoke marks one of the user's sessions revoked.
	Revoke(ctx context.Context, userID, id string) error

	// RevokeByToken marks the session holding token revoked. Unknown tokens
	// are not an error.
	RevokeByToken(ctx context.Context, token string) error

	// RevokeAllExcept revokes every other non-revoked session of the user and
	// reports how many were affected.
	RevokeAllExcept(ctx context.Context, userID, keepToken string) (int64, error)

	// DeleteExpired purges sessions past expires_at.
	DeleteExpired(ctx context.Context) (int64, error)
}
