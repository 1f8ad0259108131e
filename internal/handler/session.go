package handler

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"rental-assistant/internal/model"
)

// exportColumns are written first, in this order; other metadata keys follow sorted
var exportColumns = []string{
	model.FieldID,
	model.FieldURL,
	model.FieldTitle,
	model.FieldDistrict,
	model.FieldPrice,
	model.FieldFurnished,
	model.FieldPetsAllowed,
	model.FieldSummary,
	model.FieldDescription,
}

// Session handles GET /api/v1/session
func (h *SearchHandler) Session(c *gin.Context) {
	sessionID, state := h.sessions.Resolve(c.GetHeader(SessionHeader))
	c.Header(SessionHeader, sessionID)

	c.JSON(http.StatusOK, model.SessionResponse{
		SessionID: sessionID,
		Filters:   state.Filters,
		Results:   state.Results,
		Searched:  state.Searched,
	})
}

// Reset handles POST /api/v1/session/reset
func (h *SearchHandler) Reset(c *gin.Context) {
	sessionID, _ := h.sessions.Resolve(c.GetHeader(SessionHeader))
	c.Header(SessionHeader, sessionID)

	state := h.sessions.Reset(sessionID)
	c.JSON(http.StatusOK, model.SessionResponse{
		SessionID: sessionID,
		Filters:   state.Filters,
		Results:   state.Results,
		Searched:  state.Searched,
	})
}

// Export handles GET /api/v1/session/export - CSV of the session's last results
func (h *SearchHandler) Export(c *gin.Context) {
	sessionID, state := h.sessions.Resolve(c.GetHeader(SessionHeader))
	c.Header(SessionHeader, sessionID)

	if len(state.Results) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No results to export"})
		return
	}

	filename := fmt.Sprintf("listings-%s.csv", time.Now().Format("20060102-150405"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)

	if err := WriteResultsCSV(c.Writer, state.Results); err != nil {
		h.logger.Warn("Failed to write CSV export", zap.String("session_id", sessionID), zap.Error(err))
	}
}

// WriteResultsCSV writes one row per result metadata mapping
func WriteResultsCSV(w io.Writer, results []model.SearchResult) error {
	columns := csvColumns(results)

	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}
	for _, r := range results {
		row := make([]string, len(columns))
		for i, col := range columns {
			row[i] = r.Metadata.String(col)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvColumns(results []model.SearchResult) []string {
	known := make(map[string]bool, len(exportColumns))
	for _, col := range exportColumns {
		known[col] = true
	}

	var extra []string
	seen := make(map[string]bool)
	for _, r := range results {
		for k := range r.Metadata {
			if !known[k] && !seen[k] {
				seen[k] = true
				extra = append(extra, k)
			}
		}
	}
	sort.Strings(extra)

	columns := make([]string, 0, len(exportColumns)+len(extra))
	columns = append(columns, exportColumns...)
	return append(columns, extra...)
}
