package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sendly-app/sendly/internal/server/services"
)

type scheduleRequest struct {
	TemplateID  string            `json:"templateId" binding:"required"`
	Subject     string            `json:"subject" binding:"max=500"`
	Recipients  []string          `json:"recipients" binding:"required,min=1,max=100,dive,email"`
	Variables   map[string]string `json:"variables"`
	ScheduledAt time.Time         `json:"scheduledAt" binding:"required"`
}

func (h *Handler) ListScheduled(c *gin.Context) {
	list, err := h.Schedules.List(c.Request.Context(), mustUser(c).ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"scheduled": list})
}

func (h *Handler) CreateScheduled(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, err)
		return
	}
	e, err := h.Schedules.Create(c.Request.Context(), mustUser(c).ID, services.ScheduleInput{
		TemplateRef: req.TemplateID,
		Subject:     req.Subject,
		Recipients:  req.Recipients,
		Variables:   req.Variables,
		ScheduledAt: req.ScheduledAt,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"scheduled": e})
}

func (h *Handler) GetScheduled(c *gin.Context) {
	e, err := h.Schedules.Get(c.Request.Context(), mustUser(c).ID, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"scheduled": e})
}

func (h *Handler) CancelScheduled(c *gin.Context) {
	if err := h.Schedules.Cancel(c.Request.Context(), mustUser(c).ID, c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
