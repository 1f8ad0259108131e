package handler

import (
	"context"
	"errors"

	"rental-assistant/internal/model"
	"rental-assistant/internal/service"
)

// SessionHeader carries the session ID in requests and responses
const SessionHeader = "X-Session-ID"

// ListingStore looks up a single listing by ID
type ListingStore interface {
	GetListingByID(ctx context.Context, id string) (*model.Listing, error)
}

// SearchLogger records searches and user feedback
type SearchLogger interface {
	LogSearch(ctx context.Context, entry model.SearchLog) error
	LogFeedback(ctx context.Context, searchID, listingID, action string) error
}

// searchStatus maps a pipeline error to the status reported to clients
func searchStatus(err error) (status, message string) {
	switch {
	case err == nil:
		return model.StatusOK, ""
	case errors.Is(err, service.ErrEmptyQuery):
		return model.StatusNoQuery, err.Error()
	default:
		return model.StatusFailed, err.Error()
	}
}
