// Package services contains server-side business logic. This file implements
// UserService: registration, password and two-factor login, logout and
// account maintenance. Every successful login creates a session record and
// a bearer token bound to it.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sendly-app/sendly/internal/common"
	"github.com/sendly-app/sendly/internal/dbx"
	"github.com/sendly-app/sendly/internal/logging"
	"github.com/sendly-app/sendly/internal/server/auth"
	"github.com/sendly-app/sendly/internal/server/models"
	"github.com/sendly-app/sendly/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

const MinPasswordLength = 8

// AuthResult is the outcome of a login step. Either Token is set, or
// RequiresTwoFactor is true and Ticket must be exchanged with a code.
type AuthResult struct {
	User              *models.User
	Session           *models.Session
	Token             string
	RequiresTwoFactor bool
	Ticket            string
}

type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	issuer      *auth.Issuer
	sessions    *SessionService
	security    *SecurityService
	bcryptCost  int
	dummyHash   []byte
	log         logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, issuer *auth.Issuer,
	sessions *SessionService, security *SecurityService, log logging.Logger) *UserService {
	s := &UserService{
		db:          db,
		repomanager: m,
		issuer:      issuer,
		sessions:    sessions,
		security:    security,
		bcryptCost:  bcrypt.DefaultCost,
		log:         log.With("module", "users"),
	}
	s.dummyHash, _ = bcrypt.GenerateFromPassword(common.GenerateRandByteArray(16), s.bcryptCost)
	return s
}

// NormalizeEmail trims and lower-cases an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates the account and its first session in one transaction.
func (s *UserService) Register(ctx context.Context, name, email, password string, dev DeviceInfo) (*AuthResult, error) {
	user, err := s.newUser(name, email, password)
	if err != nil {
		return nil, err
	}

	var session *models.Session
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		created, err := s.repomanager.Users(tx).Create(ctx, user)
		if err != nil {
			return err
		}
		user = created
		session, err = s.sessions.Create(ctx, tx, user.ID, dev)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("register: %w", err)
	}
	s.log.Info(ctx, "user registered", "user_id", user.ID)
	return s.issue(user, session)
}

// Provision creates an account without opening a session. It backs the
// admin tool.
func (s *UserService) Provision(ctx context.Context, name, email, password string) (*models.User, error) {
	user, err := s.newUser(name, email, password)
	if err != nil {
		return nil, err
	}
	created, err := s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("provision: %w", err)
	}
	s.log.Info(ctx, "user provisioned", "user_id", created.ID)
	return created, nil
}

func (s *UserService) newUser(name, email, password string) (*models.User, error) {
	if len(password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", common.ErrorValidation, MinPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return &models.User{Name: strings.TrimSpace(name), Email: NormalizeEmail(email), PasswordHash: string(hash)}, nil
}

// Login checks the password. Users with two-factor enabled receive a
// pending-login ticket instead of a session.
func (s *UserService) Login(ctx context.Context, email, password string, dev DeviceInfo) (*AuthResult, error) {
	user, err := s.checkPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}

	enabled, err := s.security.enabled(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if enabled {
		ticket, err := s.issuer.IssuePendingLogin(user.ID)
		if err != nil {
			return nil, fmt.Errorf("issue login ticket: %w", err)
		}
		return &AuthResult{User: user, RequiresTwoFactor: true, Ticket: ticket}, nil
	}
	return s.startSession(ctx, user, dev)
}

// LoginTwoFactor exchanges a pending-login ticket and a TOTP code for a session.
func (s *UserService) LoginTwoFactor(ctx context.Context, ticket, code string, dev DeviceInfo) (*AuthResult, error) {
	userID, err := s.issuer.VerifyPendingLogin(ticket)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if err := s.security.checkLoginCode(ctx, user.ID, code); err != nil {
		if errors.Is(err, common.ErrTwoFactorNotEnabled) {
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}
	return s.startSession(ctx, user, dev)
}

func (s *UserService) Logout(ctx context.Context, sessionToken string) error {
	return s.sessions.Logout(ctx, sessionToken)
}

func (s *UserService) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

// UpdateAccount changes name and email. A token reissued with the new claims
// is returned alongside the user.
func (s *UserService) UpdateAccount(ctx context.Context, userID, sessionToken, name, email string) (*AuthResult, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if n := strings.TrimSpace(name); n != "" {
		user.Name = n
	}
	if e := NormalizeEmail(email); e != "" {
		user.Email = e
	}
	if err := repo.UpdateAccount(ctx, user); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) || errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update account: %w", err)
	}
	token, err := s.issuer.Issue(user.ID, user.Email, user.Name, sessionToken)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

// ChangePassword replaces the password and revokes every other session. It
// returns how many sessions were revoked.
func (s *UserService) ChangePassword(ctx context.Context, userID, sessionToken, current, next string) (int64, error) {
	if len(next) < MinPasswordLength {
		return 0, fmt.Errorf("%w: password must be at least %d characters", common.ErrorValidation, MinPasswordLength)
	}
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)) != nil {
		return 0, fmt.Errorf("%w: current password is incorrect", common.ErrorValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.bcryptCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	var revoked int64
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).UpdatePassword(ctx, userID, string(hash)); err != nil {
			return err
		}
		revoked, err = s.sessions.revokeOthers(ctx, tx, userID, sessionToken)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("change password: %w", err)
	}
	s.log.Info(ctx, "password changed", "user_id", userID, "revoked_sessions", revoked)
	return revoked, nil
}

// checkPassword returns common.ErrorUnauthorized for both unknown emails and
// wrong passwords. Unknown emails still pay for a bcrypt comparison.
func (s *UserService) checkPassword(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, common.ErrorUnauthorized
	}
	return user, nil
}

func (s *UserService) startSession(ctx context.Context, user *models.User, dev DeviceInfo) (*AuthResult, error) {
	session, err := s.sessions.Create(ctx, s.db, user.ID, dev)
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "user logged in", "user_id", user.ID, "session_id", session.ID)
	return s.issue(user, session)
}

func (s *UserService) issue(user *models.User, session *models.Session) (*AuthResult, error) {
	token, err := s.issuer.Issue(user.ID, user.Email, user.Name, session.Token)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResult{User: user, Session: session, Token: token}, nil
}
