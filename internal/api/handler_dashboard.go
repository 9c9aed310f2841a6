package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Dashboard handles GET /admin/dashboard.
func (h *Handler) Dashboard(c *gin.Context) {
	stats, err := h.store.Dashboard(c.Request.Context(), h.now().UTC())
	if err != nil {
		h.serverError(c, "Failed to load dashboard", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
