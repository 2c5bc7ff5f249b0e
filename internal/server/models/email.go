package models

import "time"

const (
	EmailStatusSent    = "sent"
	EmailStatusPartial = "partial"
	EmailStatusFailed  = "failed"

	EmailEventSent   = "sent"
	EmailEventFailed = "failed"
)

// EmailHistory records one send of a template to a list of recipients.
type EmailHistory struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	TemplateID   *string   `json:"templateId"`
	TemplateName string    `json:"templateName"`
	Subject      string    `json:"subject"`
	Recipients   []string  `json:"recipients"`
	Status       string    `json:"status"`
	Error        string    `json:"error,omitempty"`
	SentAt       time.Time `json:"sentAt"`
}

// EmailLog is a per-recipient delivery event attached to a history entry.
type EmailLog struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	HistoryID *string   `json:"historyId"`
	Recipient string    `json:"recipient"`
	Event     string    `json:"event"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

const (
	ScheduleStatusPending    = "pending"
	ScheduleStatusProcessing = "processing"
	ScheduleStatusSent       = "sent"
	ScheduleStatusFailed     = "failed"
	ScheduleStatusCancelled  = "cancelled"
)

// ScheduledEmail is a send request deferred until ScheduledAt. TemplateRef is
// either a stored template id or a predefined template reference.
type ScheduledEmail struct {
	ID          string            `json:"id"`
	UserID      string            `json:"userId"`
	TemplateRef string            `json:"templateRef"`
	Subject     string            `json:"subject"`
	Recipients  []string          `json:"recipients"`
	Variables   map[string]string `json:"variables"`
	ScheduledAt time.Time         `json:"scheduledAt"`
	Status      string            `json:"status"`
	Error       string            `json:"error,omitempty"`
	SentAt      *time.Time        `json:"sentAt"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}
