package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sendly-app/sendly/internal/server/models"
	"github.com/sendly-app/sendly/internal/server/services"
)

type registerRequest struct {
	Name     string `json:"name" binding:"required,max=200"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type twoFactorLoginRequest struct {
	Ticket string `json:"ticket" binding:"required"`
	Code   string `json:"code" binding:"required,len=6,numeric"`
}

type updateAccountRequest struct {
	Name  string `json:"name" binding:"max=200"`
	Email string `json:"email" binding:"omitempty,email"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8,max=72"`
}

type codeRequest struct {
	Code string `json:"code" binding:"required,len=6,numeric"`
}

func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, err)
		return
	}
	res, err := h.Users.Register(c.Request.Context(), req.Name, req.Email, req.Password, device(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.setTokenCookie(c, res.Token)
	c.JSON(http.StatusCreated, gin.H{"user": userView(res.User)})
}

// Login answers {"requiresTwoFactor": true, "ticket": ...} without a cookie
// when the account has two-factor enabled.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, err)
		return
	}
	res, err := h.Users.Login(c.Request.Context(), req.Email, req.Password, device(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if res.RequiresTwoFactor {
		c.JSON(http.StatusOK, gin.H{"requiresTwoFactor": true, "ticket": res.Ticket})
		return
	}
	h.setTokenCookie(c, res.Token)
	c.JSON(http.StatusOK, gin.H{"user": userView(res.User)})
}

func (h *Handler) LoginTwoFactor(c *gin.Context) {
	var req twoFactorLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, err)
		return
	}
	res, err := h.Users.LoginTwoFactor(c.Request.Context(), req.Ticket, req.Code, device(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.setTokenCookie(c, res.Token)
	c.JSON(http.StatusOK, gin.H{"user": userView(res.User)})
}

// Logout is public: a stale or missing cookie still gets cleared.
func (h *Handler) Logout(c *gin.Context) {
	if token := bearerToken(c); token != "" {
		if claims, ok := h.Issuer.Verify(token); ok && claims.SessionToken != "" {
			if err := h.Users.Logout(c.Request.Context(), claims.SessionToken); err != nil {
				h.respondError(c, err)
				return
			}
		}
	}
	h.clearTokenCookie(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) Me(c *gin.Context) {
	u := mustUser(c)
	user, err := h.Users.Me(c.Request.Context(), u.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userView(user)})
}

func (h *Handler) UpdateAccount(c *gin.Context) {
	var req updateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, err)
		return
	}
	u := mustUser(c)
	res, err := h.Users.UpdateAccount(c.Request.Context(), u.ID, u.SessionToken, req.Name, req.Email)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.setTokenCookie(c, res.Token)
	c.JSON(http.StatusOK, gin.H{"user": userView(res.User)})
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, err)
		return
	}
	u := mustUser(c)
	n, err := h.Users.ChangePassword(c.Request.Context(), u.ID, u.SessionToken, req.CurrentPassword, req.NewPassword)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "revokedSessions": n})
}

func (h *Handler) ListSessions(c *gin.Context) {
	u := mustUser(c)
	list, err := h.Sessions.List(c.Request.Context(), u.ID, u.SessionToken)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": list})
}

func (h *Handler) RevokeSession(c *gin.Context) {
	u := mustUser(c)
	if err := h.Sessions.Revoke(c.Request.Context(), u.ID, c.Param("id"), u.SessionToken); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) RevokeOtherSessions(c *gin.Context) {
	u := mustUser(c)
	n, err := h.Sessions.RevokeOthers(c.Request.Context(), u.ID, u.SessionToken)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "revoked": n})
}

func (h *Handler) TwoFactorStatus(c *gin.Context) {
	st, err := h.Security.Status(c.Request.Context(), mustUser(c).ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) TwoFactorSetup(c *gin.Context) {
	u := mustUser(c)
	enrollment, err := h.Security.Setup(c.Request.Context(), u.ID, u.Email)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, enrollment)
}

func (h *Handler) TwoFactorVerify(c *gin.Context) {
	var req codeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.Security.Verify(c.Request.Context(), mustUser(c).ID, req.Code); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, services.TwoFactorStatus{Enabled: true})
}

func (h *Handler) TwoFactorDisable(c *gin.Context) {
	if err := h.Security.Disable(c.Request.Context(), mustUser(c).ID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, services.TwoFactorStatus{})
}

// userView is the only shape in which a user leaves the API.
func userView(u *models.User) gin.H {
	return gin.H{"id": u.ID, "name": u.Name, "email": u.Email, "createdAt": u.CreatedAt}
}
