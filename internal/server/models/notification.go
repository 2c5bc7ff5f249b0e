package models

import "time"

const (
	NotificationScheduled = "email_scheduled"
	NotificationSent      = "email_sent"
	NotificationFailed    = "email_failed"
	NotificationSecurity  = "security"
)

type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Link      string    `json:"link,omitempty"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

// NotificationSettings is one per user and created with defaults on first read.
type NotificationSettings struct {
	UserID         string    `json:"userId"`
	EmailOnSend    bool      `json:"emailOnSend"`
	EmailOnFailure bool      `json:"emailOnFailure"`
	InAppEnabled   bool      `json:"inAppEnabled"`
	WeeklyDigest   bool      `json:"weeklyDigest"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
