package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sendly-app/sendly/internal/common"
	"github.com/sendly-app/sendly/internal/dbx"
	"github.com/sendly-app/sendly/internal/logging"
	"github.com/sendly-app/sendly/internal/server/models"
	"github.com/sendly-app/sendly/internal/server/repositories/repomanager"
	"github.com/sendly-app/sendly/internal/server/templating"
)

const dispatchBatchSize = 20

type ScheduleInput struct {
	TemplateRef string
	Subject     string
	Recipients  []string
	Variables   map[string]string
	ScheduledAt time.Time
}

// ScheduleService stores deferred sends and dispatches them when due.
type ScheduleService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	templates     *TemplateService
	delivery      *Delivery
	notifications *NotificationService
	now           func() time.Time
	log           logging.Logger
}

func NewScheduleService(db *sql.DB, m repomanager.RepositoryManager, t *TemplateService, d *Delivery,
	n *NotificationService, log logging.Logger) *ScheduleService {
	return &ScheduleService{
		db:            db,
		repomanager:   m,
		templates:     t,
		delivery:      d,
		notifications: n,
		now:           time.Now,
		log:           log.With("module", "scheduler"),
	}
}

// Create validates that the template renders with the given variables and
// stores the schedule together with its notification in one transaction.
func (s *ScheduleService) Create(ctx context.Context, userID string, in ScheduleInput) (*models.ScheduledEmail, error) {
	if !in.ScheduledAt.After(s.now()) {
		return nil, common.ErrScheduleInThePast
	}
	tpl, err := s.templates.Get(ctx, userID, in.TemplateRef)
	if err != nil {
		return nil, err
	}
	if _, _, err := Render(tpl, in.Subject, in.Variables, templating.ModeSend); err != nil {
		return nil, err
	}

	e := &models.ScheduledEmail{
		UserID:      userID,
		TemplateRef: tpl.Ref(),
		Subject:     in.Subject,
		Recipients:  in.Recipients,
		Variables:   in.Variables,
		ScheduledAt: in.ScheduledAt.UTC(),
	}
	var note *models.Notification
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Scheduled(tx).Create(ctx, e); err != nil {
			return err
		}
		note = &models.Notification{
			UserID:  userID,
			Type:    models.NotificationScheduled,
			Title:   "Email scheduled",
			Message: fmt.Sprintf("%q will be sent to %d recipient(s) at %s.", tpl.Name(), len(e.Recipients), e.ScheduledAt.Format(time.RFC1123)),
			Link:    "/scheduled/" + e.ID,
		}
		return s.notifications.Record(ctx, tx, note)
	})
	if err != nil {
		return nil, fmt.Errorf("schedule email: %w", err)
	}
	s.notifications.Push(note)
	return e, nil
}

func (s *ScheduleService) List(ctx context.Context, userID string) ([]*models.ScheduledEmail, error) {
	list, err := s.repomanager.Scheduled(s.db).List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list scheduled emails: %w", err)
	}
	if list == nil {
		list = []*models.ScheduledEmail{}
	}
	return list, nil
}

func (s *ScheduleService) Get(ctx context.Context, userID, id string) (*models.ScheduledEmail, error) {
	if uuid.Validate(id) != nil {
		return nil, common.ErrorNotFound
	}
	return s.repomanager.Scheduled(s.db).Get(ctx, userID, id)
}

// Cancel stops a pending send. Sent, failed and already cancelled rows yield
// common.ErrNotScheduled.
func (s *ScheduleService) Cancel(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	return s.repomanager.Scheduled(s.db).Cancel(ctx, userID, id)
}

// DispatchDue claims due rows and delivers them. It returns how many rows
// were processed; delivery failures are recorded on the row, not returned.
// Once ctx is cancelled no further row is started; claimed rows left behind
// stay in processing until the lease expires and a later pass reclaims them.
// A started row is always finished, even if ctx is cancelled mid-send.
func (s *ScheduleService) DispatchDue(ctx context.Context) (int, error) {
	repo := s.repomanager.Scheduled(s.db)
	due, err := repo.ClaimDue(ctx, dispatchBatchSize)
	if err != nil {
		return 0, err
	}
	done := 0
	for _, e := range due {
		if ctx.Err() != nil {
			s.log.Warn(ctx, "dispatch interrupted", "left", len(due)-done)
			break
		}
		status, msg := s.dispatch(ctx, e)
		if err := repo.Finish(context.WithoutCancel(ctx), e.ID, status, msg); err != nil {
			s.log.Error(ctx, "finish scheduled email failed", "id", e.ID, "error", err)
		}
		done++
	}
	return done, nil
}

func (s *ScheduleService) dispatch(ctx context.Context, e *models.ScheduledEmail) (status, msg string) {
	tpl, err := s.templates.Get(ctx, e.UserID, e.TemplateRef)
	if err == nil {
		var report *DeliveryReport
		report, err = s.delivery.Send(ctx, e.UserID, tpl, e.Subject, e.Variables, e.Recipients)
		if err == nil {
			if report.Status == models.EmailStatusFailed {
				return models.ScheduleStatusFailed, "all recipients failed"
			}
			return models.ScheduleStatusSent, ""
		}
	}

	s.log.Warn(ctx, "scheduled email failed", "id", e.ID, "user_id", e.UserID, "error", err)
	var missing *templating.MissingVariablesError
	switch {
	case errors.Is(err, common.ErrorNotFound), errors.Is(err, common.ErrorForbidden):
		msg = "template is no longer available"
	case errors.As(err, &missing):
		msg = missing.Error()
	default:
		msg = "delivery error"
	}
	s.notifications.Notify(ctx, &models.Notification{
		UserID:  e.UserID,
		Type:    models.NotificationFailed,
		Title:   "Scheduled email failed",
		Message: msg,
		Link:    "/scheduled/" + e.ID,
	})
	return models.ScheduleStatusFailed, msg
}
