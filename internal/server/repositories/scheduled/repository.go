package scheduled

import (
	"context"

	"github.com/sendly-app/sendly/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, e *models.ScheduledEmail) error
	Get(ctx context.Context, userID, id string) (*models.ScheduledEmail, error)
	List(ctx context.Context, userID string) ([]*models.ScheduledEmail, error)
	// Cancel moves a pending row to cancelled. Rows in any other state yield
	// common.ErrNotScheduled.
	Cancel(ctx context.Context, userID, id string) error
	// ClaimDue atomically moves up to limit due pending rows to processing and
	// returns them. Rows claimed by a concurrent worker are skipped; rows left
	// in processing longer than ProcessingLease are claimed again.
	ClaimDue(ctx context.Context, limit int) ([]*models.ScheduledEmail, error)
	// Finish records the outcome of a claimed row.
	Finish(ctx context.Context, id, status, errMsg string) error
}
