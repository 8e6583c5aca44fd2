package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Wikid82/sentinel/internal/engine"
)

// ValidateHandler screens text through the validation engine.
type ValidateHandler struct {
	engine *engine.Engine
}

func NewValidateHandler(e *engine.Engine) *ValidateHandler {
	return &ValidateHandler{engine: e}
}

type validateRequest struct {
	Text      string         `json:"text"`
	UserID    string         `json:"user_id"`
	SessionID string         `json:"session_id"`
	Context   map[string]any `json:"context"`
}

// Validate returns the full ValidationResult. A blocking action is still a
// 200; the caller acts on result.action.
func (h *ValidateHandler) Validate(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	res, err := h.engine.Validate(c.Request.Context(), req.Text, engine.Metadata{
		UserID:    req.UserID,
		SessionID: req.SessionID,
		Context:   req.Context,
	})
	if err != nil {
		respondError(c, err, "validation failed")
		return
	}
	c.JSON(http.StatusOK, res)
}
