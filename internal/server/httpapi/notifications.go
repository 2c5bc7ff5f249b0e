package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sendly-app/sendly/internal/server/services"
)

func (h *Handler) ListNotifications(c *gin.Context) {
	res, err := h.Notifications.List(c.Request.Context(), mustUser(c).ID, c.Query("unread") == "true")
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) MarkNotificationRead(c *gin.Context) {
	if err := h.Notifications.MarkRead(c.Request.Context(), mustUser(c).ID, c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) MarkAllNotificationsRead(c *gin.Context) {
	n, err := h.Notifications.MarkAllRead(c.Request.Context(), mustUser(c).ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "updated": n})
}

func (h *Handler) DeleteNotification(c *gin.Context) {
	if err := h.Notifications.Delete(c.Request.Context(), mustUser(c).ID, c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) NotificationSettings(c *gin.Context) {
	st, err := h.Notifications.Settings(c.Request.Context(), mustUser(c).ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": st})
}

func (h *Handler) UpdateNotificationSettings(c *gin.Context) {
	var req services.SettingsInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, err)
		return
	}
	st, err := h.Notifications.UpdateSettings(c.Request.Context(), mustUser(c).ID, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": st})
}

// NotificationSocket hands the connection to the hub; it returns when the
// client disconnects.
func (h *Handler) NotificationSocket(c *gin.Context) {
	h.Live.Serve(c.Writer, c.Request, mustUser(c).ID)
}
