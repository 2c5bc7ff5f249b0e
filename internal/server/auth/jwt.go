// Package auth issues and verifies the signed bearer tokens carried in the
// session cookie, the short-lived pending-login tickets used between the
// password and two-factor steps, and TOTP enrollment.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sendly-app/sendly/internal/common"
)

const purposePendingLogin = "2fa_login"

// Claims is the payload of a session bearer token.
type Claims struct {
	jwt.RegisteredClaims
	UserID       string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	SessionToken string `json:"sessionToken,omitempty"`
}

type pendingClaims struct {
	jwt.RegisteredClaims
	Purpose string `json:"purpose"`
}

// Issuer signs tokens with HS256 using a single shared secret.
type Issuer struct {
	secret          []byte
	validity        time.Duration
	pendingValidity time.Duration
	now             func() time.Time
}

func NewIssuer(secret []byte, validity, pendingValidity time.Duration) *Issuer {
	return &Issuer{secret: secret, validity: validity, pendingValidity: pendingValidity, now: time.Now}
}

// Issue returns a bearer token for the user. sessionToken may be empty for
// tokens that are not tied to a stored session.
func (i *Issuer) Issue(userID, email, name, sessionToken string) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.validity)),
		},
		UserID:       userID,
		Email:        email,
		Name:         name,
		SessionToken: sessionToken,
	})
	return token.SignedString(i.secret)
}

// Verify never fails loudly: any malformed, tampered, expired or foreign
// token yields ok=false.
func (i *Issuer) Verify(tokenString string) (claims *Claims, ok bool) {
	if tokenString == "" {
		return nil, false
	}
	claims = &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, i.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !token.Valid || claims.UserID == "" {
		return nil, false
	}
	return claims, true
}

// IssuePendingLogin returns a ticket proving the password step succeeded for userID.
func (i *Issuer) IssuePendingLogin(userID string) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, pendingClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.pendingValidity)),
		},
		Purpose: purposePendingLogin,
	})
	return token.SignedString(i.secret)
}

// VerifyPendingLogin returns the user id carried by a pending-login ticket.
func (i *Issuer) VerifyPendingLogin(ticket string) (string, error) {
	claims := &pendingClaims{}
	token, err := jwt.ParseWithClaims(ticket, claims, i.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}
	if !token.Valid || claims.Purpose != purposePendingLogin || claims.Subject == "" {
		return "", common.ErrInvalidToken
	}
	return claims.Subject, nil
}

func (i *Issuer) keyFunc(*jwt.Token) (any, error) {
	return i.secret, nil
}
