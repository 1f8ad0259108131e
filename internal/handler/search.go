package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"rental-assistant/internal/model"
	"rental-assistant/internal/service"
	"rental-assistant/internal/session"
)

// SearchHandler handles search-related HTTP requests
type SearchHandler struct {
	searchService *service.SearchService
	sessions      *session.Store
	listings      ListingStore
	searchLog     SearchLogger
	logger        *zap.Logger
}

// NewSearchHandler creates a new search handler. searchLog may be nil.
func NewSearchHandler(
	searchService *service.SearchService,
	sessions *session.Store,
	listings ListingStore,
	searchLog SearchLogger,
	logger *zap.Logger,
) *SearchHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchHandler{
		searchService: searchService,
		sessions:      sessions,
		listings:      listings,
		searchLog:     searchLog,
		logger:        logger,
	}
}

// Search handles POST /api/v1/search
func (h *SearchHandler) Search(c *gin.Context) {
	var req model.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	sessionID, state := h.sessions.Resolve(c.GetHeader(SessionHeader))
	c.Header(SessionHeader, sessionID)

	outcome, err := h.searchService.Search(c.Request.Context(), req.Filters, req.TopK)
	response := h.finish(sessionID, state, req.Filters, outcome, err)

	c.JSON(http.StatusOK, response)
}

// SearchStream handles POST /api/v1/search/stream - SSE streaming search
func (h *SearchHandler) SearchStream(c *gin.Context) {
	var req model.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	sessionID, state := h.sessions.Resolve(c.GetHeader(SessionHeader))
	c.Header(SessionHeader, sessionID)

	// Set SSE headers
	c.Header("Content-Type", "text/event-stream; charset=utf-8")
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Streaming not supported"})
		return
	}

	sendSSE(c, "start", map[string]any{"session_id": sessionID, "filters": req.Filters})
	flusher.Flush()

	outcome, err := h.searchService.SearchStream(c.Request.Context(), req.Filters, req.TopK, func(event string, data any) error {
		if err := c.Request.Context().Err(); err != nil {
			return err
		}
		sendSSE(c, event, data)
		flusher.Flush()
		return nil
	})
	response := h.finish(sessionID, state, req.Filters, outcome, err)

	if err != nil {
		sendSSE(c, "error", response)
	} else {
		sendSSE(c, "results", response)
	}
	flusher.Flush()

	sendSSE(c, "done", nil)
	flusher.Flush()
}

// finish builds the response, caches it in the session and records the search
func (h *SearchHandler) finish(
	sessionID string,
	state session.State,
	filters model.SearchFilters,
	outcome *model.SearchOutcome,
	err error,
) model.SearchResponse {
	if outcome == nil {
		outcome = &model.SearchOutcome{}
	}
	results := outcome.Results
	if results == nil || err != nil {
		results = []model.SearchResult{}
	}

	status, message := searchStatus(err)
	response := model.SearchResponse{
		SearchID:   uuid.NewString(),
		SessionID:  sessionID,
		Query:      outcome.Query,
		Filter:     outcome.Filter,
		Results:    results,
		Total:      len(results),
		Candidates: outcome.Candidates,
		Status:     status,
		Error:      message,
		Took:       outcome.Took,
	}

	if err != nil {
		h.logger.Warn("Search returned no results because of an error",
			zap.String("search_id", response.SearchID),
			zap.String("session_id", sessionID),
			zap.String("status", status),
			zap.Error(err),
		)
	}

	filters.Pets = model.NormalizeChoice(filters.Pets)
	filters.Furnished = model.NormalizeChoice(filters.Furnished)
	state.Filters = filters
	state.Results = results
	state.Searched = true
	h.sessions.Save(sessionID, state)

	h.logSearch(response)
	return response
}

// logSearch writes the search log without blocking the response
func (h *SearchHandler) logSearch(response model.SearchResponse) {
	if h.searchLog == nil {
		return
	}

	ids := make([]string, 0, len(response.Results))
	for _, r := range response.Results {
		ids = append(ids, r.Metadata.String(model.FieldID))
	}
	entry := model.SearchLog{
		SearchID:       response.SearchID,
		SessionID:      response.SessionID,
		Query:          response.Query,
		Filter:         response.Filter,
		Status:         response.Status,
		Error:          response.Error,
		ResultCount:    response.Total,
		CandidateCount: response.Candidates,
		ListingIDs:     ids,
		ResponseTimeMs: response.Took,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.searchLog.LogSearch(ctx, entry); err != nil {
			h.logger.Warn("Failed to log search", zap.String("search_id", entry.SearchID), zap.Error(err))
		}
	}()
}

// sendSSE sends a Server-Sent Event
func sendSSE(c *gin.Context, event string, data any) {
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			fmt.Fprintf(c.Writer, "event: error\ndata: {\"error\": \"JSON marshal failed\"}\n\n")
			return
		}
		fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, string(jsonData))
	} else {
		fmt.Fprintf(c.Writer, "event: %s\ndata: {}\n\n", event)
	}
}

// GetListing handles GET /api/v1/listings/:id
func (h *SearchHandler) GetListing(c *gin.Context) {
	listingID := c.Param("id")
	if listingID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing ID"})
		return
	}

	listing, err := h.listings.GetListingByID(c.Request.Context(), listingID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get listing: " + err.Error()})
		return
	}

	if listing == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		return
	}

	c.JSON(http.StatusOK, listing)
}
