package models

import "time"

// Session is one authenticated device login. Token is the opaque value
// embedded in the bearer token; it is unique across all sessions.
type Session struct {
	ID           string
	UserID       string
	Token        string
	Browser      string
	OS           string
	DeviceType   string
	IPAddress    string
	UserAgent    string
	LastActiveAt time.Time
	IsRevoked    bool
	ExpiresAt    time.Time
	CreatedAt    time.Time
}

// Live reports whether the session is neither revoked nor expired at now.
func (s *Session) Live(now time.Time) bool {
	return !s.IsRevoked && s.ExpiresAt.After(now)
}

// SecuritySettings holds per-user two-factor state. A non-empty secret with
// TwoFactorEnabled=false means setup was started but not yet verified.
type SecuritySettings struct {
	UserID           string
	TwoFactorEnabled bool
	TwoFactorSecret  string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Pending reports whether a setup is awaiting code verification.
func (s *SecuritySettings) Pending() bool {
	return !s.TwoFactorEnabled && s.TwoFactorSecret != ""
}
