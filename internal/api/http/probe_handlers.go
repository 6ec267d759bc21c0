package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Probe checks that a form URL can be embedded
func (h *Handlers) Probe(c *gin.Context) {
	target := c.Query("url")
	if target == "" {
		badRequest(c, "url is required")
		return
	}

	report, err := h.prober.Probe(c.Request.Context(), target)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
