package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ExtractedFields holds listing attributes recovered from a free-text description.
// Decoding is per field: a value of the wrong type leaves that field nil.
type ExtractedFields struct {
	Title       *string `json:"title,omitempty"`
	District    *string `json:"district,omitempty"`
	Price       any     `json:"price,omitempty"` // models return either a number or a string
	PetsAllowed *bool   `json:"pets_allowed,omitempty"`
	Furnished   *bool   `json:"furnished,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler
func (f *ExtractedFields) UnmarshalJSON(data []byte) error {
	var raw struct {
		Title       any `json:"title"`
		District    any `json:"district"`
		Price       any `json:"price"`
		PetsAllowed any `json:"pets_allowed"`
		Furnished   any `json:"furnished"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*f = ExtractedFields{
		Title:       optionalString(raw.Title),
		District:    optionalString(raw.District),
		Price:       raw.Price,
		PetsAllowed: TriStateValue(raw.PetsAllowed),
		Furnished:   TriStateValue(raw.Furnished),
	}
	return nil
}

// SourceListing is one record of the listing source file
type SourceListing struct {
	ID          string `json:"id,omitempty"`
	URL         string `json:"url"`
	Title       string `json:"title"`
	Price       any    `json:"price"`
	District    string `json:"district"`
	Description string `json:"description"`
	Furnished   *bool  `json:"furnished,omitempty"`
	PetsAllowed *bool  `json:"pets_allowed,omitempty"`
}

// UnmarshalJSON accepts any label NormalizeChoice understands for the
// tri-state fields; unrecognized values are unknown.
func (s *SourceListing) UnmarshalJSON(data []byte) error {
	type alias SourceListing
	aux := struct {
		*alias
		Furnished   any `json:"furnished,omitempty"`
		PetsAllowed any `json:"pets_allowed,omitempty"`
	}{alias: (*alias)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	s.Furnished = TriStateValue(aux.Furnished)
	s.PetsAllowed = TriStateValue(aux.PetsAllowed)
	return nil
}

func optionalString(v any) *string {
	var s string
	switch val := v.(type) {
	case string:
		s = strings.TrimSpace(val)
	case float64:
		s = strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(val)
	default:
		return nil
	}
	if s == "" {
		return nil
	}
	return &s
}
