package history

import (
	"context"

	"github.com/sendly-app/sendly/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, h *models.EmailHistory) error
	// List returns one page of the user's history, newest first, and the total count.
	List(ctx context.Context, userID string, limit, offset int) ([]*models.EmailHistory, int, error)
	Get(ctx context.Context, userID, id string) (*models.EmailHistory, error)
	CreateLog(ctx context.Context, l *models.EmailLog) error
	ListLogs(ctx context.Context, userID, historyID string) ([]*models.EmailLog, error)
}
