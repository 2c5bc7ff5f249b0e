package models

import "time"

type EmailTemplate struct {
	ID        string
	UserID    string
	Name      string
	Subject   string
	HTML      string
	Variables []string
	Category  string
	IsPublic  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
