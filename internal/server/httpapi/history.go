package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sendly-app/sendly/internal/common"
)

// queryInt reads an optional integer query parameter; absent means 0.
func queryInt(c *gin.Context, name string) (int, error) {
	v := c.Query(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", common.ErrorValidation, name)
	}
	return n, nil
}

func (h *Handler) ListHistory(c *gin.Context) {
	page, err := queryInt(c, "page")
	if err != nil {
		h.respondError(c, err)
		return
	}
	size, err := queryInt(c, "pageSize")
	if err != nil {
		h.respondError(c, err)
		return
	}
	res, err := h.History.List(c.Request.Context(), mustUser(c).ID, page, size)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetHistory(c *gin.Context) {
	entry, err := h.History.Get(c.Request.Context(), mustUser(c).ID, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": entry})
}

func (h *Handler) ListHistoryLogs(c *gin.Context) {
	logs, err := h.History.Logs(c.Request.Context(), mustUser(c).ID, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}
