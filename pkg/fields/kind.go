// Package fields defines the closed set of field kinds a record type can
// declare, and the typed view of a record's raw field-value map.
package fields

import "fmt"

// Kind identifies the type of a field definition. The set is closed: adding
// a kind means adding a constant here plus a resolver registration for
// reference kinds, never editing a switch scattered across callers.
type Kind string

const (
	// Scalar kinds. The raw value is the value.
	KindText     Kind = "text"
	KindRichText Kind = "rich_text"
	KindNumber   Kind = "number"
	KindDate     Kind = "date"     // YYYY-MM-DD
	KindTime     Kind = "time"     // HH:MM:SS
	KindDateTime Kind = "datetime" // ISO 8601
	KindYesNo    Kind = "yes_no"

	// Reference kinds. The raw value is the id of an entity in another store.
	KindPerson     Kind = "person"
	KindGroup      Kind = "group"
	KindLocation   Kind = "location"
	KindRecordLink Kind = "record_link"
	KindListItem   Kind = "list_item"
	KindDocument   Kind = "document"
)

var kinds = map[Kind]struct {
	reference bool
}{
	KindText:       {reference: false},
	KindRichText:   {reference: false},
	KindNumber:     {reference: false},
	KindDate:       {reference: false},
	KindTime:       {reference: false},
	KindDateTime:   {reference: false},
	KindYesNo:      {reference: false},
	KindPerson:     {reference: true},
	KindGroup:      {reference: true},
	KindLocation:   {reference: true},
	KindRecordLink: {reference: true},
	KindListItem:   {reference: true},
	KindDocument:   {reference: true},
}

// IsValid reports whether k is a declared kind.
func (k Kind) IsValid() bool {
	_, ok := kinds[k]
	return ok
}

// IsReference reports whether values of this kind hold the id of an entity
// in another store.
func (k Kind) IsReference() bool {
	return kinds[k].reference
}

// Parse converts a raw string into a Kind, rejecting unknown values.
func Parse(s string) (Kind, error) {
	k := Kind(s)
	if !k.IsValid() {
		return "", fmt.Errorf("unknown field kind %q", s)
	}
	return k, nil
}

// All returns every declared kind. Order is unspecified.
func All() []Kind {
	out := make([]Kind, 0, len(kinds))
	for k := range kinds {
		out = append(out, k)
	}
	return out
}
