package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sendly-app/sendly/internal/server/services"
	"github.com/sendly-app/sendly/internal/server/templating"
)

type templateRequest struct {
	Name     string `json:"name" binding:"required,max=200"`
	Subject  string `json:"subject" binding:"max=500"`
	HTML     string `json:"html" binding:"required"`
	Category string `json:"category" binding:"max=100"`
	IsPublic bool   `json:"isPublic"`
}

func (r templateRequest) input() services.TemplateInput {
	return services.TemplateInput{Name: r.Name, Subject: r.Subject, HTML: r.HTML, Category: r.Category, IsPublic: r.IsPublic}
}

type previewRequest struct {
	Variables map[string]string `json:"variables"`
}

type sendRequest struct {
	Subject    string            `json:"subject" binding:"max=500"`
	Variables  map[string]string `json:"variables"`
	Recipients []string          `json:"recipients" binding:"required,min=1,max=100,dive,email"`
}

func (h *Handler) ListTemplates(c *gin.Context) {
	u := mustUser(c)
	list, err := h.Templates.List(c.Request.Context(), u.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	views := make([]templating.View, 0, len(list))
	for _, t := range list {
		views = append(views, templating.ToView(t, u.ID))
	}
	c.JSON(http.StatusOK, gin.H{"templates": views})
}

func (h *Handler) GetTemplate(c *gin.Context) {
	u := mustUser(c)
	t, err := h.Templates.Get(c.Request.Context(), u.ID, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"template": templating.ToView(t, u.ID)})
}

func (h *Handler) CreateTemplate(c *gin.Context) {
	var req templateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, err)
		return
	}
	u := mustUser(c)
	t, err := h.Templates.Create(c.Request.Context(), u.ID, req.input())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"template": templating.ToView(t, u.ID)})
}

func (h *Handler) UpdateTemplate(c *gin.Context) {
	var req templateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, err)
		return
	}
	u := mustUser(c)
	t, err := h.Templates.Update(c.Request.Context(), u.ID, c.Param("id"), req.input())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"template": templating.ToView(t, u.ID)})
}

func (h *Handler) DeleteTemplate(c *gin.Context) {
	if err := h.Templates.Delete(c.Request.Context(), mustUser(c).ID, c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) DuplicateTemplate(c *gin.Context) {
	u := mustUser(c)
	t, err := h.Templates.Duplicate(c.Request.Context(), u.ID, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"template": templating.ToView(t, u.ID)})
}

func (h *Handler) PreviewTemplate(c *gin.Context) {
	var req previewRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.respondError(c, err)
			return
		}
	}
	subject, html, err := h.Templates.Preview(c.Request.Context(), mustUser(c).ID, c.Param("id"), req.Variables)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subject": subject, "html": html})
}

func (h *Handler) SendTemplate(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, err)
		return
	}
	report, err := h.Templates.Send(c.Request.Context(), mustUser(c).ID, c.Param("id"), req.Subject, req.Variables, req.Recipients)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
