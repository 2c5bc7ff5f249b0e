// Package models defines the server-side records persisted in PostgreSQL.
package models

import "time"

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserProfile holds optional, user-editable profile details. One per user.
type UserProfile struct {
	UserID    string    `json:"userId"`
	Bio       string    `json:"bio"`
	Company   string    `json:"company"`
	JobTitle  string    `json:"jobTitle"`
	Phone     string    `json:"phone"`
	Location  string    `json:"location"`
	Website   string    `json:"website"`
	AvatarURL string    `json:"avatarUrl"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
