package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sendly-app/sendly/internal/common"
	"github.com/sendly-app/sendly/internal/cryptox"
	"github.com/sendly-app/sendly/internal/server/auth"
	"github.com/sendly-app/sendly/internal/server/models"
	"github.com/sendly-app/sendly/internal/server/repositories/repomanager"
)

// TwoFactorStatus reports where the user is in the setup state machine:
// unconfigured (both false), pending verification, or enabled.
type TwoFactorStatus struct {
	Enabled bool `json:"enabled"`
	Pending bool `json:"pending"`
}

// SecurityService drives two-factor enrollment. Secrets are stored sealed.
type SecurityService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	totp          auth.TOTP
	sealer        *cryptox.Sealer
	notifications *NotificationService
	now           func() time.Time
}

func NewSecurityService(db *sql.DB, m repomanager.RepositoryManager, totp auth.TOTP, sealer *cryptox.Sealer,
	n *NotificationService) *SecurityService {
	return &SecurityService{db: db, repomanager: m, totp: totp, sealer: sealer, notifications: n, now: time.Now}
}

func (s *SecurityService) Status(ctx context.Context, userID string) (*TwoFactorStatus, error) {
	settings, err := s.repomanager.Security(s.db).GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load security settings: %w", err)
	}
	return &TwoFactorStatus{Enabled: settings.TwoFactorEnabled, Pending: settings.Pending()}, nil
}

// Setup issues a fresh secret, replacing any unverified one. It is refused
// while two-factor is enabled so that an active secret is never overwritten.
func (s *SecurityService) Setup(ctx context.Context, userID, account string) (*auth.Enrollment, error) {
	repo := s.repomanager.Security(s.db)
	settings, err := repo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load security settings: %w", err)
	}
	if settings.TwoFactorEnabled {
		return nil, common.ErrTwoFactorAlreadyEnabled
	}
	enrollment, err := s.totp.Enroll(account)
	if err != nil {
		return nil, err
	}
	if err := repo.SetPendingSecret(ctx, userID, s.sealer.Seal(enrollment.Secret)); err != nil {
		return nil, fmt.Errorf("store secret: %w", err)
	}
	return enrollment, nil
}

// Verify completes setup when code matches the pending secret.
func (s *SecurityService) Verify(ctx context.Context, userID, code string) error {
	repo := s.repomanager.Security(s.db)
	settings, err := repo.GetOrCreate(ctx, userID)
	if err != nil {
		return fmt.Errorf("load security settings: %w", err)
	}
	switch {
	case settings.TwoFactorEnabled:
		return common.ErrTwoFactorAlreadyEnabled
	case !settings.Pending():
		return common.ErrTwoFactorNotPending
	}
	if err := s.validate(code, settings.TwoFactorSecret); err != nil {
		return err
	}
	if err := repo.Enable(ctx, userID); err != nil {
		return fmt.Errorf("enable two-factor: %w", err)
	}
	s.notify(ctx, userID, "Two-factor authentication enabled",
		"Your account now requires a code from your authenticator app to sign in.")
	return nil
}

func (s *SecurityService) Disable(ctx context.Context, userID string) error {
	if err := s.repomanager.Security(s.db).Disable(ctx, userID); err != nil {
		return fmt.Errorf("disable two-factor: %w", err)
	}
	s.notify(ctx, userID, "Two-factor authentication disabled",
		"Sign-ins to your account no longer require an authenticator code.")
	return nil
}

// checkLoginCode validates a login-time code against the enabled secret.
func (s *SecurityService) checkLoginCode(ctx context.Context, userID, code string) error {
	settings, err := s.repomanager.Security(s.db).GetOrCreate(ctx, userID)
	if err != nil {
		return fmt.Errorf("load security settings: %w", err)
	}
	if !settings.TwoFactorEnabled {
		return common.ErrTwoFactorNotEnabled
	}
	if err := s.validate(code, settings.TwoFactorSecret); err != nil {
		return err
	}
	return nil
}

func (s *SecurityService) validate(code, sealed string) error {
	secret, err := s.sealer.Open(sealed)
	if err != nil {
		return fmt.Errorf("open two-factor secret: %w", err)
	}
	if !s.totp.Validate(code, secret, s.now()) {
		return common.ErrInvalidTwoFactorCode
	}
	return nil
}

func (s *SecurityService) enabled(ctx context.Context, userID string) (bool, error) {
	settings, err := s.repomanager.Security(s.db).GetOrCreate(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("load security settings: %w", err)
	}
	return settings.TwoFactorEnabled, nil
}

func (s *SecurityService) notify(ctx context.Context, userID, title, msg string) {
	if s.notifications == nil {
		return
	}
	s.notifications.Notify(ctx, &models.Notification{
		UserID:  userID,
		Type:    models.NotificationSecurity,
		Title:   title,
		Message: msg,
		Link:    "/settings/security",
	})
}
