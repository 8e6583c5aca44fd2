package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Wikid82/sentinel/internal/patterns"
	"github.com/Wikid82/sentinel/internal/services"
)

// PatternsHandler lists the rule catalog and how often each rule matched.
type PatternsHandler struct {
	audit *services.AuditService
}

func NewPatternsHandler(audit *services.AuditService) *PatternsHandler {
	return &PatternsHandler{audit: audit}
}

// List returns the catalog, optionally narrowed with ?module=.
func (h *PatternsHandler) List(c *gin.Context) {
	module := c.Query("module")
	out := make([]patterns.Entry, 0)
	for _, e := range patterns.All() {
		if module == "" || e.Module == module {
			out = append(out, e)
		}
	}
	c.JSON(http.StatusOK, out)
}

func (h *PatternsHandler) Stats(c *gin.Context) {
	limit, ok := queryLimit(c)
	if !ok {
		return
	}
	rows, err := h.audit.ListAttackPatterns(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err, "Failed to list pattern statistics")
		return
	}
	c.JSON(http.StatusOK, rows)
}
