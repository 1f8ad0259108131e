package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"rental-assistant/internal/model"
)

// State is the per-user search state: the last filters and the results they produced
type State struct {
	Filters   model.SearchFilters
	Results   []model.SearchResult
	Searched  bool
	UpdatedAt time.Time
}

// NewState returns the state of a fresh session
func NewState() State {
	return State{Filters: model.DefaultFilters(), Results: []model.SearchResult{}}
}

// Store keeps session states in memory. Entries idle longer than ttl are dropped.
type Store struct {
	mu       sync.Mutex
	sessions map[string]State
	ttl      time.Duration
	now      func() time.Time
}

// NewStore creates a session store. A non-positive ttl keeps sessions forever.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]State),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Resolve returns the session for id. A blank, unknown or expired id gets a
// new session ID and a fresh state.
func (s *Store) Resolve(id string) (string, State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		if st, ok := s.sessions[id]; ok && !s.expired(st) {
			return id, st
		}
	}

	id = uuid.NewString()
	st := NewState()
	st.UpdatedAt = s.now()
	s.sessions[id] = st
	return id, st
}

// Save stores the state for id
func (s *Store) Save(id string, st State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st.Results == nil {
		st.Results = []model.SearchResult{}
	}
	st.UpdatedAt = s.now()
	s.sessions[id] = st
}

// Reset restores default filters and clears results for id
func (s *Store) Reset(id string) State {
	st := NewState()
	s.Save(id, st)
	return st
}

// Len returns the number of stored sessions
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep removes expired sessions and returns how many were dropped
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, st := range s.sessions {
		if s.expired(st) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps expired sessions every interval until ctx is done
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

func (s *Store) expired(st State) bool {
	return s.ttl > 0 && s.now().Sub(st.UpdatedAt) > s.ttl
}
