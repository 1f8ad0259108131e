package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rental-assistant/internal/model"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestStore(ttl time.Duration) (*Store, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	s := NewStore(ttl)
	s.now = clock.now
	return s, clock
}

func TestResolve_NewSession(t *testing.T) {
	s, _ := newTestStore(time.Hour)

	id, st := s.Resolve("")
	require.NotEmpty(t, id)
	assert.Equal(t, model.DefaultFilters(), st.Filters)
	assert.NotNil(t, st.Results)
	assert.False(t, st.Searched)
	assert.Equal(t, 1, s.Len())

	again, _ := s.Resolve(id)
	assert.Equal(t, id, again)
	assert.Equal(t, 1, s.Len())
}

func TestResolve_UnknownID(t *testing.T) {
	s, _ := newTestStore(time.Hour)
	id, _ := s.Resolve("does-not-exist")
	assert.NotEqual(t, "does-not-exist", id)
}

func TestSaveAndReset(t *testing.T) {
	s, _ := newTestStore(time.Hour)
	id, st := s.Resolve("")

	st.Filters.District = "Brera"
	st.Filters.Pets = model.ChoiceYes
	st.Results = []model.SearchResult{{Score: 0.9, Metadata: model.Metadata{"id": "a"}}}
	st.Searched = true
	s.Save(id, st)

	_, got := s.Resolve(id)
	assert.Equal(t, "Brera", got.Filters.District)
	assert.Len(t, got.Results, 1)
	assert.True(t, got.Searched)

	reset := s.Reset(id)
	assert.Equal(t, model.DefaultFilters(), reset.Filters)
	assert.Empty(t, reset.Results)

	_, got = s.Resolve(id)
	assert.False(t, got.Searched)
	assert.Empty(t, got.Filters.District)
}

func TestExpiry(t *testing.T) {
	s, clock := newTestStore(time.Hour)
	id, _ := s.Resolve("")

	clock.t = clock.t.Add(30 * time.Minute)
	same, _ := s.Resolve(id)
	assert.Equal(t, id, same)

	clock.t = clock.t.Add(2 * time.Hour)
	assert.Equal(t, 1, s.Sweep())
	assert.Zero(t, s.Len())

	fresh, _ := s.Resolve(id)
	assert.NotEqual(t, id, fresh)
}

func TestNoTTL(t *testing.T) {
	s, clock := newTestStore(0)
	id, _ := s.Resolve("")
	clock.t = clock.t.Add(1000 * time.Hour)
	assert.Zero(t, s.Sweep())
	same, _ := s.Resolve(id)
	assert.Equal(t, id, same)
}
