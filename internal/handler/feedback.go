package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rental-assistant/internal/model"
)

var validActions = map[string]bool{
	"click":        true,
	"contact":      true,
	"view_details": true,
}

// FeedbackHandler handles feedback-related HTTP requests
type FeedbackHandler struct {
	searchLog SearchLogger
}

// NewFeedbackHandler creates a new feedback handler. searchLog may be nil.
func NewFeedbackHandler(searchLog SearchLogger) *FeedbackHandler {
	return &FeedbackHandler{
		searchLog: searchLog,
	}
}

// Submit handles POST /api/v1/feedback
func (h *FeedbackHandler) Submit(c *gin.Context) {
	var req model.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if !validActions[req.Action] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid action. Must be one of: click, contact, view_details"})
		return
	}

	if h.searchLog == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Search logging is not configured"})
		return
	}

	err := h.searchLog.LogFeedback(c.Request.Context(), req.SearchID, req.ListingID, req.Action)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log feedback: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, model.FeedbackResponse{
		Success: true,
		Message: "Feedback logged successfully",
	})
}
