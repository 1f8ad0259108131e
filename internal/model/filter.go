package model

// Equality is a single attribute = value constraint
type Equality struct {
	Field string
	Value any
}

// CompiledFilter is an AND of equality constraints. It is built once per
// search and never mutated afterwards.
type CompiledFilter struct {
	conditions []Equality
}

// NewCompiledFilter creates a filter from the given constraints.
func NewCompiledFilter(conditions ...Equality) CompiledFilter {
	if len(conditions) == 0 {
		return CompiledFilter{}
	}
	cp := make([]Equality, len(conditions))
	copy(cp, conditions)
	return CompiledFilter{conditions: cp}
}

// Conditions returns a copy of the constraints in insertion order.
func (f CompiledFilter) Conditions() []Equality {
	if len(f.conditions) == 0 {
		return nil
	}
	cp := make([]Equality, len(f.conditions))
	copy(cp, f.conditions)
	return cp
}

// Get returns the required value for a field.
func (f CompiledFilter) Get(field string) (any, bool) {
	for _, c := range f.conditions {
		if c.Field == field {
			return c.Value, true
		}
	}
	return nil, false
}

// IsEmpty reports whether the filter has no constraints.
func (f CompiledFilter) IsEmpty() bool { return len(f.conditions) == 0 }

// Len returns the number of constraints.
func (f CompiledFilter) Len() int { return len(f.conditions) }

// Map renders the filter as {field: value}, for logging and API responses.
func (f CompiledFilter) Map() map[string]any {
	m := make(map[string]any, len(f.conditions))
	for _, c := range f.conditions {
		m[c.Field] = c.Value
	}
	return m
}

// Matches reports whether metadata satisfies every constraint.
func (f CompiledFilter) Matches(m Metadata) bool {
	for _, c := range f.conditions {
		switch want := c.Value.(type) {
		case bool:
			got := m.TriState(c.Field)
			if got == nil || *got != want {
				return false
			}
		default:
			if m.String(c.Field) != want {
				return false
			}
		}
	}
	return true
}
