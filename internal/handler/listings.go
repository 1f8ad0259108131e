package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"rental-assistant/internal/logger"
	"rental-assistant/internal/model"
	"rental-assistant/internal/service"
)

// ListingsHandler handles listing writes with precomputed embeddings
type ListingsHandler struct {
	index      service.VectorIndex
	dimensions int
}

// NewListingsHandler creates a new listings handler
func NewListingsHandler(index service.VectorIndex, dimensions int) *ListingsHandler {
	return &ListingsHandler{
		index:      index,
		dimensions: dimensions,
	}
}

// BatchUpsert handles POST /api/v1/listings/batch
func (h *ListingsHandler) BatchUpsert(c *gin.Context) {
	var req model.ListingBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if len(req.Listings) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No listings provided"})
		return
	}

	for i, item := range req.Listings {
		if item.Listing.ID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Missing listing id at index %d", i)})
			return
		}
		if len(item.Embedding) != h.dimensions {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("Invalid embedding dimension at index %d, expected %d", i, h.dimensions),
			})
			return
		}
	}

	success, err := h.index.Upsert(c.Request.Context(), req.Listings)

	response := model.ListingBatchResponse{
		Success: success,
		Failed:  len(req.Listings) - success,
	}
	if err != nil {
		response.Errors = []string{err.Error()}
		logger.FromContext(c.Request.Context()).Error("Batch upsert failed",
			zap.Int("listings", len(req.Listings)),
			zap.Int("success", success),
			zap.Error(err),
		)
	}

	if len(response.Errors) > 0 {
		c.JSON(http.StatusPartialContent, response)
	} else {
		c.JSON(http.StatusOK, response)
	}
}
