package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/sendly-app/sendly/internal/common"
	"github.com/sendly-app/sendly/internal/dbx"
	"github.com/sendly-app/sendly/internal/logging"
	"github.com/sendly-app/sendly/internal/server/models"
	"github.com/sendly-app/sendly/internal/server/notify"
	"github.com/sendly-app/sendly/internal/server/repositories/repomanager"
)

const defaultNotificationLimit = 50

// NotificationService records in-app notifications and pushes them to open
// browser tabs.
type NotificationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	publisher   notify.Publisher
	log         logging.Logger
}

func NewNotificationService(db *sql.DB, m repomanager.RepositoryManager, p notify.Publisher, log logging.Logger) *NotificationService {
	return &NotificationService{db: db, repomanager: m, publisher: p, log: log.With("module", "notifications")}
}

// Notify stores n unless the user turned in-app notifications off, then
// pushes it. Failures are logged and swallowed; a notification never fails
// the operation that triggered it.
func (s *NotificationService) Notify(ctx context.Context, n *models.Notification) {
	settings, err := s.repomanager.Notifications(s.db).GetSettings(ctx, n.UserID)
	if err != nil {
		s.log.Warn(ctx, "load notification settings failed", "user_id", n.UserID, "error", err)
		return
	}
	if !settings.InAppEnabled {
		return
	}
	if err := s.Record(ctx, s.db, n); err != nil {
		s.log.Warn(ctx, "store notification failed", "user_id", n.UserID, "type", n.Type, "error", err)
		return
	}
	s.Push(n)
}

// Record stores n through db, which may be a transaction. Callers push it
// after commit.
func (s *NotificationService) Record(ctx context.Context, db dbx.DBTX, n *models.Notification) error {
	if err := s.repomanager.Notifications(db).Create(ctx, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func (s *NotificationService) Push(n *models.Notification) {
	if s.publisher != nil {
		s.publisher.Publish(n.UserID, notify.Event{Type: "notification", Payload: n})
	}
}

// NotificationList is one page of notifications plus the unread total.
type NotificationList struct {
	Items       []*models.Notification `json:"notifications"`
	UnreadCount int                    `json:"unreadCount"`
}

func (s *NotificationService) List(ctx context.Context, userID string, unreadOnly bool) (*NotificationList, error) {
	repo := s.repomanager.Notifications(s.db)
	items, err := repo.List(ctx, userID, unreadOnly, defaultNotificationLimit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	unread, err := repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count notifications: %w", err)
	}
	if items == nil {
		items = []*models.Notification{}
	}
	return &NotificationList{Items: items, UnreadCount: unread}, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	if uuid.Validate(id) != nil {
		return common.ErrorNotFound
	}
	return s.repomanager.Notifications(s.db).MarkRead(ctx, userID, id)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.repomanager.Notifications(s.db).MarkAllRead(ctx, userID)
}

func (s *NotificationService) Delete(ctx context.Context, userID, id string) error {
	if uuid.Validate(id) != nil {
		return common.ErrorNotFound
	}
	return s.repomanager.Notifications(s.db).Delete(ctx, userID, id)
}

func (s *NotificationService) Settings(ctx context.Context, userID string) (*models.NotificationSettings, error) {
	return s.repomanager.Notifications(s.db).GetSettings(ctx, userID)
}

// SettingsInput carries a partial settings update; nil fields keep their value.
type SettingsInput struct {
	EmailOnSend    *bool `json:"emailOnSend"`
	EmailOnFailure *bool `json:"emailOnFailure"`
	InAppEnabled   *bool `json:"inAppEnabled"`
	WeeklyDigest   *bool `json:"weeklyDigest"`
}

func (s *NotificationService) UpdateSettings(ctx context.Context, userID string, in SettingsInput) (*models.NotificationSettings, error) {
	repo := s.repomanager.Notifications(s.db)
	current, err := repo.GetSettings(ctx, userID)
	if err != nil {
		return nil, err
	}
	apply := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	apply(&current.EmailOnSend, in.EmailOnSend)
	apply(&current.EmailOnFailure, in.EmailOnFailure)
	apply(&current.InAppEnabled, in.InAppEnabled)
	apply(&current.WeeklyDigest, in.WeeklyDigest)
	if err := repo.UpdateSettings(ctx, current); err != nil {
		return nil, err
	}
	return current, nil
}
