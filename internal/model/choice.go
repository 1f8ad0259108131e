package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Choice is a tri-state filter dimension: no constraint, require true, require false.
type Choice int

const (
	ChoiceAny Choice = iota
	ChoiceYes
	ChoiceNo
)

// choiceSynonyms is the single table of accepted spellings, including the
// localized labels shown by the UI. Keys are lowercase and trimmed.
var choiceSynonyms = map[string]Choice{
	"any":            ChoiceAny,
	"doesn't matter": ChoiceAny,
	"doesnt matter":  ChoiceAny,
	"non importa":    ChoiceAny,
	"no importa":     ChoiceAny,
	"yes":            ChoiceYes,
	"sì":             ChoiceYes,
	"si":             ChoiceYes,
	"true":           ChoiceYes,
	"1":              ChoiceYes,
	"no":             ChoiceNo,
	"false":          ChoiceNo,
	"0":              ChoiceNo,
}

// String returns the canonical label (any, yes, no).
func (c Choice) String() string {
	switch c {
	case ChoiceYes:
		return "yes"
	case ChoiceNo:
		return "no"
	default:
		return "any"
	}
}

// Bool returns the required attribute value and false when the choice is any.
func (c Choice) Bool() (value bool, constrained bool) {
	switch c {
	case ChoiceYes:
		return true, true
	case ChoiceNo:
		return false, true
	default:
		return false, false
	}
}

// ChoiceInvalid is what JSON decoding yields for a value outside the synonym
// table. It behaves as ChoiceAny and lets callers report the bad input.
const ChoiceInvalid Choice = -1

// NormalizeChoice collapses any raw input (bool, number, label, nil) to a Choice.
// It is total: unrecognized input yields ChoiceAny.
func NormalizeChoice(v any) Choice {
	c, _ := ParseChoice(v)
	return c
}

// ParseChoice is NormalizeChoice that also reports whether v was recognized.
// nil is recognized as ChoiceAny.
func ParseChoice(v any) (Choice, bool) {
	switch val := v.(type) {
	case nil:
		return ChoiceAny, true
	case Choice:
		switch val {
		case ChoiceAny, ChoiceYes, ChoiceNo:
			return val, true
		}
		return ChoiceAny, false
	case bool:
		if val {
			return ChoiceYes, true
		}
		return ChoiceNo, true
	case *bool:
		if val == nil {
			return ChoiceAny, true
		}
		return ParseChoice(*val)
	case int:
		return parseChoiceString(fmt.Sprint(val))
	case int64:
		return parseChoiceString(fmt.Sprint(val))
	case float64:
		return parseChoiceString(fmt.Sprint(val))
	case string:
		return parseChoiceString(val)
	case fmt.Stringer:
		return parseChoiceString(val.String())
	default:
		return ChoiceAny, false
	}
}

func parseChoiceString(s string) (Choice, bool) {
	c, ok := choiceSynonyms[strings.ToLower(strings.TrimSpace(s))]
	return c, ok
}

// TriStateValue maps a raw attribute to true, false or nil (unknown).
func TriStateValue(v any) *bool {
	b, ok := NormalizeChoice(v).Bool()
	if !ok {
		return nil
	}
	return &b
}

// MarshalJSON encodes the canonical label.
func (c Choice) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON accepts any JSON scalar. Unrecognized values decode to
// ChoiceInvalid instead of failing the request.
func (c *Choice) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		*c = ChoiceInvalid
		return nil
	}
	parsed, ok := ParseChoice(raw)
	if !ok {
		parsed = ChoiceInvalid
	}
	*c = parsed
	return nil
}
