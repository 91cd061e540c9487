package fields

import (
	"fmt"
)

// Definition is the part of a field definition the typed layer needs.
type Definition struct {
	Name      string
	Kind      Kind
	Required  bool
	KeyPerson bool
}

// Value is one typed field value. Raw keeps the JSON-decoded value exactly
// as stored; the typed accessors interpret it per kind.
type Value struct {
	Name string
	Kind Kind
	Raw  any
}

// IsPresent reports whether the value counts as provided. Presence is a
// nil/empty-string test, not truthiness: 0 and false are present.
func (v Value) IsPresent() bool {
	if v.Raw == nil {
		return false
	}
	if s, ok := v.Raw.(string); ok {
		return s != ""
	}
	return true
}

// RefID returns the referenced entity id for reference kinds.
func (v Value) RefID() (string, bool) {
	if !v.Kind.IsReference() {
		return "", false
	}
	s, ok := v.Raw.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Text returns the value as a string for string-backed kinds.
func (v Value) Text() (string, bool) {
	s, ok := v.Raw.(string)
	return s, ok
}

// Number returns the value as a float64. JSON numbers decode as float64;
// ints are accepted for values set programmatically.
func (v Value) Number() (float64, bool) {
	switch n := v.Raw.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// Bool returns the value as a bool for yes_no fields.
func (v Value) Bool() (bool, bool) {
	b, ok := v.Raw.(bool)
	return b, ok
}

// Decode converts the raw storage map into typed values keyed by field name.
// Every returned value corresponds to a declared definition; keys in raw
// that match no definition are reported as errors so callers can reject
// writes that drifted from the live schema. Declared fields absent from raw
// are returned with a nil Raw so presence checks stay uniform.
func Decode(defs []Definition, raw map[string]any) (map[string]Value, []error) {
	var errs []error

	byName := make(map[string]Definition, len(defs))
	for _, def := range defs {
		byName[def.Name] = def
	}

	for key := range raw {
		if _, ok := byName[key]; !ok {
			errs = append(errs, fmt.Errorf("field %q is not declared on this record type", key))
		}
	}

	values := make(map[string]Value, len(defs))
	for _, def := range defs {
		values[def.Name] = Value{
			Name: def.Name,
			Kind: def.Kind,
			Raw:  raw[def.Name],
		}
	}

	return values, errs
}
