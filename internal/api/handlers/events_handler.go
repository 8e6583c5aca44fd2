package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Wikid82/sentinel/internal/api/middleware"
	"github.com/Wikid82/sentinel/internal/services"
)

const (
	defaultListLimit   = 50
	maxListLimit       = 1000
	defaultStatsWindow = 24 * time.Hour
)

// EventsHandler serves the audit trail and its aggregates.
type EventsHandler struct {
	audit *services.AuditService
}

func NewEventsHandler(audit *services.AuditService) *EventsHandler {
	return &EventsHandler{audit: audit}
}

func (h *EventsHandler) List(c *gin.Context) {
	limit, ok := queryLimit(c)
	if !ok {
		return
	}
	f := services.EventFilter{
		UserID:   c.Query("user_id"),
		Severity: c.Query("severity"),
		Limit:    limit,
	}
	if raw := c.Query("since"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be a positive duration such as 24h"})
			return
		}
		f.Since = time.Now().Add(-d)
	}

	events, err := h.audit.ListEvents(c.Request.Context(), f)
	if err != nil {
		respondError(c, err, "Failed to list events")
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *EventsHandler) Get(c *gin.Context) {
	ev, err := h.audit.GetEvent(c.Request.Context(), c.Param("uuid"))
	if err != nil {
		respondError(c, err, "Failed to load event")
		return
	}
	c.JSON(http.StatusOK, ev)
}

func (h *EventsHandler) Notifications(c *gin.Context) {
	logs, err := h.audit.ListNotifications(c.Request.Context(), c.Param("uuid"))
	if err != nil {
		respondError(c, err, "Failed to list notifications")
		return
	}
	c.JSON(http.StatusOK, logs)
}

func (h *EventsHandler) Stats(c *gin.Context) {
	window := defaultStatsWindow
	if raw := c.Query("since"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be a positive duration such as 24h"})
			return
		}
		window = d
	}
	st, err := h.audit.Stats(c.Request.Context(), time.Now().Add(-window))
	if err != nil {
		respondError(c, err, "Failed to compute stats")
		return
	}
	c.JSON(http.StatusOK, st)
}

// Purge removes events older than ?days=N. Without days it is rejected
// rather than defaulting.
func (h *EventsHandler) Purge(c *gin.Context) {
	days, err := strconv.Atoi(c.Query("days"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be an integer"})
		return
	}
	purged, err := h.audit.PurgeOlderThan(c.Request.Context(), days)
	if err != nil {
		respondError(c, err, "Failed to purge events")
		return
	}
	middleware.GetRequestLogger(c).WithField("purged", purged).Info("purged security events")
	c.JSON(http.StatusOK, gin.H{"purged": purged, "days": days})
}

// queryLimit reads ?limit, writing a 400 itself when it is malformed.
func queryLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return defaultListLimit, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > maxListLimit {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and " + strconv.Itoa(maxListLimit)})
		return 0, false
	}
	return n, true
}
