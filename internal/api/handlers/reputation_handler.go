package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Wikid82/sentinel/internal/api/middleware"
	"github.com/Wikid82/sentinel/internal/reputation"
)

// ReputationHandler reads and edits identity trust records through the
// engine's cache so edits take effect on the next validation.
type ReputationHandler struct {
	store *reputation.Store
}

func NewReputationHandler(store *reputation.Store) *ReputationHandler {
	return &ReputationHandler{store: store}
}

// Get returns the identity's record; unknown identities report the neutral
// default.
func (h *ReputationHandler) Get(c *gin.Context) {
	rep, err := h.store.Get(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		respondError(c, err, "Failed to load reputation")
		return
	}
	c.JSON(http.StatusOK, rep)
}

type reputationUpdate struct {
	Allowlisted *bool   `json:"allowlisted"`
	Blocklisted *bool   `json:"blocklisted"`
	Notes       *string `json:"notes"`
	TrustScore  *int    `json:"trust_score"`
}

func (h *ReputationHandler) Update(c *gin.Context) {
	var req reputationUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	userID := c.Param("user_id")
	rep, err := h.store.SetFlags(c.Request.Context(), userID, reputation.Flags{
		Allowlisted: req.Allowlisted,
		Blocklisted: req.Blocklisted,
		Notes:       req.Notes,
		TrustScore:  req.TrustScore,
	})
	if err != nil {
		respondError(c, err, "Failed to update reputation")
		return
	}
	middleware.GetRequestLogger(c).WithFields(logrus.Fields{
		"user_id":     userID,
		"allowlisted": rep.Allowlisted,
		"blocklisted": rep.Blocklisted,
		"operator":    c.GetString(middleware.SubjectKey),
	}).Info("reputation updated")
	c.JSON(http.StatusOK, rep)
}
