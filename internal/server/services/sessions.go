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
)

// SessionView is a session as listed to its owner.
type SessionView struct {
	ID           string    `json:"id"`
	Browser      string    `json:"browser"`
	OS           string    `json:"os"`
	DeviceType   string    `json:"deviceType"`
	IPAddress    string    `json:"ipAddress"`
	LastActiveAt time.Time `json:"lastActiveAt"`
	CreatedAt    time.Time `json:"createdAt"`
	ExpiresAt    time.Time `json:"expiresAt"`
	IsCurrent    bool      `json:"isCurrent"`
}

// SessionService is the session registry: one revocable record per device login.
type SessionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	validity    time.Duration
	now         func() time.Time
	log         logging.Logger
}

func NewSessionService(db *sql.DB, m repomanager.RepositoryManager, validity time.Duration, log logging.Logger) *SessionService {
	if validity <= 0 {
		validity = common.SessionValidity
	}
	return &SessionService{db: db, repomanager: m, validity: validity, now: time.Now, log: log.With("module", "sessions")}
}

// Create stores a new live session for userID through db, which may be a
// transaction, and returns it with its opaque token.
func (s *SessionService) Create(ctx context.Context, db dbx.DBTX, userID string, dev DeviceInfo) (*models.Session, error) {
	token, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}
	browser, os, deviceType := parseDevice(dev.UserAgent)
	now := s.now()
	session := &models.Session{
		UserID:       userID,
		Token:        token,
		Browser:      browser,
		OS:           os,
		DeviceType:   deviceType,
		IPAddress:    dev.IP,
		UserAgent:    dev.UserAgent,
		LastActiveAt: now,
		ExpiresAt:    now.Add(s.validity),
	}
	if err := s.repomanager.Sessions(db).Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// Authenticate returns the live session holding token and records activity.
// Unknown, revoked and expired tokens yield common.ErrorUnauthorized.
func (s *SessionService) Authenticate(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, common.ErrorUnauthorized
	}
	repo := s.repomanager.Sessions(s.db)
	session, err := repo.FindActiveByToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	if err := repo.Touch(ctx, session.ID); err != nil {
		s.log.Warn(ctx, "touch session failed", "session_id", session.ID, "error", err)
	}
	return session, nil
}

// List returns the user's live sessions, most recently active first, marking
// the one holding currentToken.
func (s *SessionService) List(ctx context.Context, userID, currentToken string) ([]SessionView, error) {
	list, err := s.repomanager.Sessions(s.db).ListActive(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	now := s.now()
	out := make([]SessionView, 0, len(list))
	for _, ss := range list {
		if !ss.Live(now) {
			continue
		}
		out = append(out, SessionView{
			ID:           ss.ID,
			Browser:      ss.Browser,
			OS:           ss.OS,
			DeviceType:   ss.DeviceType,
			IPAddress:    ss.IPAddress,
			LastActiveAt: ss.LastActiveAt,
			CreatedAt:    ss.CreatedAt,
			ExpiresAt:    ss.ExpiresAt,
			IsCurrent:    ss.Token == currentToken,
		})
	}
	return out, nil
}

// Revoke revokes one of the user's other sessions. The session authenticating
// the request cannot be revoked this way; logout is used for that.
func (s *SessionService) Revoke(ctx context.Context, userID, sessionID, currentToken string) error {
	if uuid.Validate(sessionID) != nil {
		return common.ErrorNotFound
	}
	repo := s.repomanager.Sessions(s.db)
	target, err := repo.GetForUser(ctx, userID, sessionID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("get session: %w", err)
	}
	if target.Token == currentToken {
		return common.ErrCannotRevokeCurrentSession
	}
	if err := repo.Revoke(ctx, userID, sessionID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("revoke session: %w", err)
	}
	s.log.Info(ctx, "session revoked", "user_id", userID, "session_id", sessionID)
	return nil
}

// RevokeOthers revokes all of the user's sessions except the current one.
func (s *SessionService) RevokeOthers(ctx context.Context, userID, currentToken string) (int64, error) {
	return s.revokeOthers(ctx, s.db, userID, currentToken)
}

func (s *SessionService) revokeOthers(ctx context.Context, db dbx.DBTX, userID, currentToken string) (int64, error) {
	n, err := s.repomanager.Sessions(db).RevokeAllExcept(ctx, userID, currentToken)
	if err != nil {
		return 0, fmt.Errorf("revoke sessions: %w", err)
	}
	return n, nil
}

// Logout revokes the session holding token.
func (s *SessionService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.repomanager.Sessions(s.db).RevokeByToken(ctx, token); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// PurgeExpired deletes sessions past their expiry.
func (s *SessionService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.repomanager.Sessions(s.db).DeleteExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return n, nil
}
