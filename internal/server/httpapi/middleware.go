package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sendly-app/sendly/internal/common"
	"github.com/sendly-app/sendly/internal/logging"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "requestID"
	currentUserKey  = "currentUser"
)

// CurrentUser is the authenticated caller attached by RequireAuth.
type CurrentUser struct {
	ID           string
	Email        string
	Name         string
	SessionID    string
	SessionToken string
}

// RequestLogger assigns a request id and writes one access-log line per request.
func RequestLogger(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(logging.ContextWithRequestID(c.Request.Context(), id))

		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"ip", c.ClientIP(),
		}
		if u, ok := currentUser(c); ok {
			args = append(args, "user_id", u.ID)
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			log.Error(c.Request.Context(), "http request", args...)
		case c.Writer.Status() >= http.StatusBadRequest:
			log.Warn(c.Request.Context(), "http request", args...)
		default:
			log.Info(c.Request.Context(), "http request", args...)
		}
	}
}

// RequireAuth accepts the token cookie, or an Authorization bearer header
// for non-browser clients. The token must verify and its session must still
// be live.
func (h *Handler) RequireAuth(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		abortUnauthorized(c, "authentication required")
		return
	}
	claims, ok := h.Issuer.Verify(token)
	if !ok || claims.SessionToken == "" {
		abortUnauthorized(c, "invalid or expired token")
		return
	}
	session, err := h.Sessions.Authenticate(c.Request.Context(), claims.SessionToken)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			abortUnauthorized(c, "session expired or revoked")
			return
		}
		h.respondError(c, err)
		c.Abort()
		return
	}
	if session.UserID != claims.UserID {
		abortUnauthorized(c, "invalid or expired token")
		return
	}
	c.Set(currentUserKey, CurrentUser{
		ID:           claims.UserID,
		Email:        claims.Email,
		Name:         claims.Name,
		SessionID:    session.ID,
		SessionToken: claims.SessionToken,
	})
	c.Next()
}

func bearerToken(c *gin.Context) string {
	if v, err := c.Cookie(common.TokenCookieName); err == nil && v != "" {
		return v
	}
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}

func currentUser(c *gin.Context) (CurrentUser, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return CurrentUser{}, false
	}
	u, ok := v.(CurrentUser)
	return u, ok
}

// mustUser is only called behind RequireAuth.
func mustUser(c *gin.Context) CurrentUser {
	u, _ := currentUser(c)
	return u
}
