package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeChoice(t *testing.T) {
	yes, no := true, false
	tests := []struct {
		name string
		in   any
		want Choice
	}{
		{"nil", nil, ChoiceAny},
		{"empty", "", ChoiceAny},
		{"bool true", true, ChoiceYes},
		{"bool false", false, ChoiceNo},
		{"ptr true", &yes, ChoiceYes},
		{"ptr false", &no, ChoiceNo},
		{"nil ptr", (*bool)(nil), ChoiceAny},
		{"string true", "true", ChoiceYes},
		{"string false", "FALSE", ChoiceNo},
		{"string 1", "1", ChoiceYes},
		{"string 0", " 0 ", ChoiceNo},
		{"int 1", 1, ChoiceYes},
		{"float 0", float64(0), ChoiceNo},
		{"italian yes", "Sì", ChoiceYes},
		{"italian yes ascii", "si", ChoiceYes},
		{"italian any", "Non importa", ChoiceAny},
		{"spanish-style any", "no importa", ChoiceAny},
		{"english any", "Doesn't matter", ChoiceAny},
		{"canonical no", "no", ChoiceNo},
		{"unknown", "maybe", ChoiceAny},
		{"other number", 7, ChoiceAny},
		{"struct", struct{}{}, ChoiceAny},
		{"choice passthrough", ChoiceNo, ChoiceNo},
		{"invalid choice", Choice(42), ChoiceAny},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeChoice(tt.in))
		})
	}
}

func TestNormalizeChoice_IdempotentAndTotal(t *testing.T) {
	inputs := []string{"", "yes", "no", "any", "sì", "si", "true", "false", "1", "0",
		"Non importa", "doesnt matter", "flexible", "YES ", "2", "nope", "🏠"}

	for _, in := range inputs {
		once := NormalizeChoice(in)
		assert.Contains(t, []Choice{ChoiceAny, ChoiceYes, ChoiceNo}, once, "input %q", in)
		assert.Equal(t, once, NormalizeChoice(once), "input %q", in)
		assert.Equal(t, once, NormalizeChoice(once.String()), "input %q", in)
	}
}

func TestChoice_Bool(t *testing.T) {
	v, ok := ChoiceYes.Bool()
	assert.True(t, ok)
	assert.True(t, v)

	v, ok = ChoiceNo.Bool()
	assert.True(t, ok)
	assert.False(t, v)

	_, ok = ChoiceAny.Bool()
	assert.False(t, ok)
}

func TestChoice_JSON(t *testing.T) {
	var f SearchFilters
	err := json.Unmarshal([]byte(`{"district":"Trastevere","pets":true,"furnished":"Non importa"}`), &f)
	require.NoError(t, err)
	assert.Equal(t, ChoiceYes, f.Pets)
	assert.Equal(t, ChoiceAny, f.Furnished)

	err = json.Unmarshal([]byte(`{"pets":null,"furnished":0}`), &f)
	require.NoError(t, err)
	assert.Equal(t, ChoiceAny, f.Pets)
	assert.Equal(t, ChoiceNo, f.Furnished)

	out, err := json.Marshal(SearchFilters{Pets: ChoiceNo})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"pets":"no"`)
	assert.Contains(t, string(out), `"furnished":"any"`)
}

func TestParseChoice_ReportsUnrecognized(t *testing.T) {
	c, ok := ParseChoice("maybe")
	assert.False(t, ok)
	assert.Equal(t, ChoiceAny, c)

	c, ok = ParseChoice(nil)
	assert.True(t, ok)
	assert.Equal(t, ChoiceAny, c)

	c, ok = ParseChoice(" Sì ")
	assert.True(t, ok)
	assert.Equal(t, ChoiceYes, c)

	_, ok = ParseChoice(Choice(7))
	assert.False(t, ok)
}

func TestChoice_JSONUnrecognizedLabel(t *testing.T) {
	var f SearchFilters
	require.NoError(t, json.Unmarshal([]byte(`{"pets":"maybe","furnished":[1]}`), &f))
	assert.Equal(t, ChoiceInvalid, f.Pets)
	assert.Equal(t, ChoiceInvalid, f.Furnished)
	assert.Equal(t, ChoiceAny, NormalizeChoice(f.Pets))
	assert.Equal(t, "any", f.Pets.String())
}

func TestTriStateValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want *bool
	}{
		{"bool true", true, boolPtr(true)},
		{"label no", "No", boolPtr(false)},
		{"italian yes", "sì", boolPtr(true)},
		{"unknown label", "unknown", nil},
		{"null", nil, nil},
		{"any", "doesn't matter", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TriStateValue(tt.in))
		})
	}
}

func boolPtr(b bool) *bool { return &b }
