package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rental-assistant/internal/model"
	"rental-assistant/internal/service"
	"rental-assistant/internal/session"
)

// ExplainHandler handles match explanation requests
type ExplainHandler struct {
	explainer *service.Explainer
	sessions  *session.Store
}

// NewExplainHandler creates a new explain handler
func NewExplainHandler(explainer *service.Explainer, sessions *session.Store) *ExplainHandler {
	return &ExplainHandler{
		explainer: explainer,
		sessions:  sessions,
	}
}

// Explain handles POST /api/v1/explain
func (h *ExplainHandler) Explain(c *gin.Context) {
	var req model.ExplainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	switch req.Mode {
	case "", service.ExplainModeLLM, service.ExplainModeFast:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid mode. Must be one of: llm, fast"})
		return
	}

	query := req.Query
	if query == "" {
		sessionID, state := h.sessions.Resolve(c.GetHeader(SessionHeader))
		c.Header(SessionHeader, sessionID)
		query = service.ExplainQuery(state.Filters)
	}

	explanation := h.explainer.Explain(c.Request.Context(), query, req.Metadata, req.Language, req.Mode)
	c.JSON(http.StatusOK, model.ExplainResponse{Explanation: explanation})
}
