package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sendly-app/sendly/internal/logging"
	"github.com/sendly-app/sendly/internal/server/mailer"
	"github.com/sendly-app/sendly/internal/server/models"
	"github.com/sendly-app/sendly/internal/server/repositories/repomanager"
	"github.com/sendly-app/sendly/internal/server/templating"
)

// DeliveryReport summarises one send of a template.
type DeliveryReport struct {
	HistoryID string   `json:"historyId"`
	Status    string   `json:"status"`
	Sent      []string `json:"sent"`
	Failed    []string `json:"failed"`
}

// Delivery renders a template in send mode, mails it to each recipient and
// records the outcome in the email history.
type Delivery struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	sender        mailer.Sender
	notifications *NotificationService
	log           logging.Logger
}

func NewDelivery(db *sql.DB, m repomanager.RepositoryManager, sender mailer.Sender, n *NotificationService, log logging.Logger) *Delivery {
	return &Delivery{db: db, repomanager: m, sender: sender, notifications: n, log: log.With("module", "delivery")}
}

// Render produces subject and body, failing with *templating.MissingVariablesError
// when a variable is absent. subject overrides the template's own when set.
func Render(tpl templating.Template, subject string, vars map[string]string, mode templating.Mode) (string, string, error) {
	if strings.TrimSpace(subject) == "" {
		subject = tpl.Subject()
	}
	html, err := templating.Render(tpl.HTML(), vars, mode)
	if err != nil {
		return "", "", err
	}
	subj, err := templating.Render(subject, vars, mode)
	if err != nil {
		return "", "", err
	}
	return subj, html, nil
}

// Send delivers tpl to recipients. Rendering errors abort before anything is
// sent; per-recipient SMTP failures are recorded and reported, not returned.
func (d *Delivery) Send(ctx context.Context, userID string, tpl templating.Template, subject string,
	vars map[string]string, recipients []string) (*DeliveryReport, error) {
	subj, html, err := Render(tpl, subject, vars, templating.ModeSend)
	if err != nil {
		return nil, err
	}

	report := &DeliveryReport{Sent: []string{}, Failed: []string{}}
	failures := make(map[string]string)
	for _, to := range recipients {
		if err := d.sender.Send(ctx, mailer.Message{To: to, Subject: subj, HTML: html}); err != nil {
			d.log.Warn(ctx, "send failed", "user_id", userID, "to", to, "error", err)
			report.Failed = append(report.Failed, to)
			failures[to] = err.Error()
			continue
		}
		report.Sent = append(report.Sent, to)
	}

	switch {
	case len(report.Failed) == 0:
		report.Status = models.EmailStatusSent
	case len(report.Sent) == 0:
		report.Status = models.EmailStatusFailed
	default:
		report.Status = models.EmailStatusPartial
	}

	entry := &models.EmailHistory{
		UserID:       userID,
		TemplateName: tpl.Name(),
		Subject:      subj,
		Recipients:   recipients,
		Status:       report.Status,
	}
	if _, predefined := templating.ParseRef(tpl.Ref()); !predefined {
		ref := tpl.Ref()
		entry.TemplateID = &ref
	}
	if len(report.Failed) > 0 {
		entry.Error = fmt.Sprintf("%d of %d recipients failed", len(report.Failed), len(recipients))
	}

	// Mail has gone out; the record must survive a cancelled caller.
	ctx = context.WithoutCancel(ctx)
	repo := d.repomanager.History(d.db)
	if err := repo.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("record history: %w", err)
	}
	report.HistoryID = entry.ID

	for _, to := range recipients {
		l := &models.EmailLog{UserID: userID, HistoryID: &entry.ID, Recipient: to, Event: models.EmailEventSent}
		if msg, failed := failures[to]; failed {
			l.Event = models.EmailEventFailed
			l.Message = msg
		}
		if err := repo.CreateLog(ctx, l); err != nil {
			d.log.Warn(ctx, "record email log failed", "history_id", entry.ID, "error", err)
		}
	}

	d.notifyOutcome(ctx, userID, tpl.Name(), report)
	return report, nil
}

func (d *Delivery) notifyOutcome(ctx context.Context, userID, name string, r *DeliveryReport) {
	if d.notifications == nil {
		return
	}
	n := &models.Notification{UserID: userID, Link: "/history/" + r.HistoryID}
	switch r.Status {
	case models.EmailStatusSent:
		n.Type = models.NotificationSent
		n.Title = "Email sent"
		n.Message = fmt.Sprintf("%q was delivered to %d recipient(s).", name, len(r.Sent))
	default:
		n.Type = models.NotificationFailed
		n.Title = "Email delivery failed"
		n.Message = fmt.Sprintf("%q could not be delivered to %d recipient(s).", name, len(r.Failed))
	}
	d.notifications.Notify(ctx, n)
}
