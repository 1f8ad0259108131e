package model

// SearchFilters represents the structured + free-text preferences of a user
type SearchFilters struct {
	District   string `json:"district"`
	Pets       Choice `json:"pets"`
	Furnished  Choice `json:"furnished"`
	Price      string `json:"price"`      // e.g. "1000-1400", "max 1300", "1000", "flexible"
	Additional string `json:"additional"` // free-text wish, e.g. "balcony"
}

// DefaultFilters returns the filters of a fresh session
func DefaultFilters() SearchFilters {
	return SearchFilters{Pets: ChoiceAny, Furnished: ChoiceAny}
}

// SearchResult is one ranked candidate returned by the vector index
type SearchResult struct {
	Score    float64  `json:"score"`
	Metadata Metadata `json:"metadata"`
	// RawMetadata holds metadata that arrived serialized; the refiner decodes it.
	RawMetadata string `json:"-"`
}

// Search statuses reported to clients
const (
	StatusOK      = "ok"
	StatusNoQuery = "no_query"
	StatusFailed  = "failed"
)

// SearchRequest represents a search query request
type SearchRequest struct {
	Filters SearchFilters `json:"filters"`
	TopK    int           `json:"top_k"`
}

// SearchOutcome is the result of one pipeline run
type SearchOutcome struct {
	Query      string         `json:"query"`
	Filter     map[string]any `json:"filter"`
	Results    []SearchResult `json:"results"`
	Candidates int            `json:"candidates"` // before refinement
	Took       int64          `json:"took_ms"`
}

// SearchResponse represents a search result response
type SearchResponse struct {
	SearchID   string         `json:"search_id"`
	SessionID  string         `json:"session_id"`
	Query      string         `json:"query"`
	Filter     map[string]any `json:"filter,omitempty"`
	Results    []SearchResult `json:"results"`
	Total      int            `json:"total"`
	Candidates int            `json:"candidates"`
	Status     string         `json:"status"`
	Error      string         `json:"error,omitempty"`
	Took       int64          `json:"took_ms"`
}

// SessionResponse describes the state cached for a session
type SessionResponse struct {
	SessionID string         `json:"session_id"`
	Filters   SearchFilters  `json:"filters"`
	Results   []SearchResult `json:"results"`
	Searched  bool           `json:"searched"`
}

// ExplainRequest asks why a listing matches the current query
type ExplainRequest struct {
	Query    string   `json:"query"`
	Metadata Metadata `json:"metadata" binding:"required"`
	Language string   `json:"language"`
	Mode     string   `json:"mode"` // llm or fast
}

// ExplainResponse carries the explanation text
type ExplainResponse struct {
	Explanation string `json:"explanation"`
}

// ListingBatchRequest represents a batch upsert of precomputed embeddings
type ListingBatchRequest struct {
	Listings []IndexedListing `json:"listings" binding:"required"`
}

// ListingBatchResponse represents the response for batch upsert
type ListingBatchResponse struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// FeedbackRequest represents user feedback/action
type FeedbackRequest struct {
	SearchID  string `json:"search_id" binding:"required"`
	ListingID string `json:"listing_id" binding:"required"`
	Action    string `json:"action" binding:"required"` // click, contact, view_details
}

// FeedbackResponse represents feedback response
type FeedbackResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// SearchLog is the record kept for every search, including failed ones
type SearchLog struct {
	SearchID       string
	SessionID      string
	Query          string
	Filter         map[string]any
	Status         string
	Error          string
	ResultCount    int
	CandidateCount int
	ListingIDs     []string
	ResponseTimeMs int64
}
