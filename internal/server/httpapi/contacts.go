package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sendly-app/sendly/internal/server/services"
)

func (h *Handler) ListContacts(c *gin.Context) {
	list, err := h.Contacts.List(c.Request.Context(), mustUser(c).ID, c.Query("search"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contacts": list})
}

func (h *Handler) GetContact(c *gin.Context) {
	contact, err := h.Contacts.Get(c.Request.Context(), mustUser(c).ID, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contact": contact})
}

func (h *Handler) CreateContact(c *gin.Context) {
	var req services.ContactInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, err)
		return
	}
	contact, err := h.Contacts.Create(c.Request.Context(), mustUser(c).ID, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"contact": contact})
}

func (h *Handler) UpdateContact(c *gin.Context) {
	var req services.ContactInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, err)
		return
	}
	contact, err := h.Contacts.Update(c.Request.Context(), mustUser(c).ID, c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contact": contact})
}

func (h *Handler) DeleteContact(c *gin.Context) {
	if err := h.Contacts.Delete(c.Request.Context(), mustUser(c).ID, c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

const maxImport = 1000

// ImportContacts validates rows itself; a bad row is counted, not rejected.
func (h *Handler) ImportContacts(c *gin.Context) {
	var req struct {
		Contacts []services.ContactInput `json:"contacts"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, err)
		return
	}
	if len(req.Contacts) > maxImport {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at most " + strconv.Itoa(maxImport) + " contacts per import"})
		return
	}
	res, err := h.Contacts.Import(c.Request.Context(), mustUser(c).ID, req.Contacts)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
