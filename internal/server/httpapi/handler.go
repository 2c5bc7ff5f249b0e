// Package httpapi exposes the Sendly services as a JSON API over gin. The
// bearer token travels in an HTTP-only cookie and is bound to a session row,
// so revoking the session invalidates the token immediately.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sendly-app/sendly/internal/common"
	"github.com/sendly-app/sendly/internal/logging"
	"github.com/sendly-app/sendly/internal/server/auth"
	"github.com/sendly-app/sendly/internal/server/services"
)

// Options carries the transport settings taken from config.
type Options struct {
	Production     bool
	AllowedOrigins []string
	CookieDomain   string
	CookieSecure   bool
	CookieMaxAge   time.Duration
}

// Handler holds every route's dependencies.
type Handler struct {
	Issuer        *auth.Issuer
	Users         Users
	Sessions      Sessions
	Security      Security
	Templates     Templates
	Contacts      Contacts
	History       History
	Schedules     Schedules
	Notifications Notifications
	Profiles      Profiles
	Images        Images
	Live          Live

	opts Options
	log  logging.Logger
}

func NewHandler(h Handler, opts Options, log logging.Logger) *Handler {
	if opts.CookieMaxAge <= 0 {
		opts.CookieMaxAge = common.SessionValidity
	}
	h.opts = opts
	h.log = log.With("module", "http")
	return &h
}

func device(c *gin.Context) services.DeviceInfo {
	return services.DeviceInfo{UserAgent: c.Request.UserAgent(), IP: c.ClientIP()}
}

func (h *Handler) setTokenCookie(c *gin.Context, token string) {
	http.SetCookie(c.Writer, h.cookie(token, int(h.opts.CookieMaxAge.Seconds())))
}

func (h *Handler) clearTokenCookie(c *gin.Context) {
	http.SetCookie(c.Writer, h.cookie("", -1))
}

func (h *Handler) cookie(value string, maxAge int) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if h.opts.CookieSecure {
		sameSite = http.SameSiteNoneMode
	}
	return &http.Cookie{
		Name:     common.TokenCookieName,
		Value:    value,
		Path:     "/",
		Domain:   h.opts.CookieDomain,
		MaxAge:   maxAge,
		Secure:   h.opts.CookieSecure,
		HttpOnly: true,
		SameSite: sameSite,
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
