package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Listing represents a rental listing as stored in the vector index metadata
type Listing struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	Title       string `json:"title"`
	District    string `json:"district"`
	Price       string `json:"price"` // free-form, e.g. "€1,450/mo"
	Furnished   *bool  `json:"furnished,omitempty"`
	PetsAllowed *bool  `json:"pets_allowed,omitempty"`
	Description string `json:"description"`
	Summary     string `json:"summary,omitempty"`
}

// Metadata keys shared by the index backends and the refiner
const (
	FieldID          = "id"
	FieldURL         = "url"
	FieldTitle       = "title"
	FieldDistrict    = "district"
	FieldPrice       = "price"
	FieldFurnished   = "furnished"
	FieldPetsAllowed = "pets_allowed"
	FieldDescription = "description"
	FieldSummary     = "summary"
)

// IndexedListing is a listing with its embedding, ready to upsert
type IndexedListing struct {
	Listing   Listing   `json:"listing"`
	Embedding []float32 `json:"embedding"`
}

// Metadata is the attribute mapping attached to a vector index record
type Metadata map[string]any

// String returns the attribute rendered as a string, or "" when missing.
func (m Metadata) String(key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}

// TriState reads a boolean attribute; nil means unknown.
func (m Metadata) TriState(key string) *bool {
	switch val := m[key].(type) {
	case bool:
		return &val
	case *bool:
		return val
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true":
			t := true
			return &t
		case "false":
			f := false
			return &f
		}
	}
	return nil
}

// Listing converts the mapping into a Listing
func (m Metadata) Listing() Listing {
	return Listing{
		ID:          m.String(FieldID),
		URL:         m.String(FieldURL),
		Title:       m.String(FieldTitle),
		District:    m.String(FieldDistrict),
		Price:       m.String(FieldPrice),
		Furnished:   m.TriState(FieldFurnished),
		PetsAllowed: m.TriState(FieldPetsAllowed),
		Description: m.String(FieldDescription),
		Summary:     m.String(FieldSummary),
	}
}

// Metadata flattens a listing into index metadata. Unknown tri-states are
// stored as "" since vector stores reject null payload values.
func (l Listing) Metadata() Metadata {
	m := Metadata{
		FieldID:          l.ID,
		FieldURL:         l.URL,
		FieldTitle:       l.Title,
		FieldDistrict:    l.District,
		FieldPrice:       l.Price,
		FieldDescription: l.Description,
		FieldSummary:     l.Summary,
		FieldFurnished:   "",
		FieldPetsAllowed: "",
	}
	if l.Furnished != nil {
		m[FieldFurnished] = *l.Furnished
	}
	if l.PetsAllowed != nil {
		m[FieldPetsAllowed] = *l.PetsAllowed
	}
	return m
}

// Value implements driver.Valuer interface
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner interface
func (m *Metadata) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("unsupported metadata type %T", value)
		}
		bytes = []byte(s)
	}
	return json.Unmarshal(bytes, m)
}
