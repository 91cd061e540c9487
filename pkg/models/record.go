package models

import (
	"encoding/json"
	"time"

	"github.com/Ramsey-B/laurel/pkg/fields"
)

// Record is one instance of a record type. FieldValues is the raw map from
// field name to scalar-or-reference-id exactly as stored; it is decoded into
// typed values at the storage boundary and all logic past that point works
// on the typed form.
type Record struct {
	ID           string          `json:"id" db:"id"`
	TenantID     string          `json:"tenant_id" db:"tenant_id"`
	RecordTypeID string          `json:"record_type_id" db:"record_type_id"`
	FieldValues  json.RawMessage `json:"field_values" db:"field_values"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
	DeletedAt    *time.Time      `json:"deleted_at,omitempty" db:"deleted_at"`
}

// RawFieldValues decodes the stored field-value map.
func (r *Record) RawFieldValues() (map[string]any, error) {
	if len(r.FieldValues) == 0 {
		return map[string]any{}, nil
	}
	var raw map[string]any
	if err := json.Unmarshal(r.FieldValues, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// ResolvedFieldValue is the ephemeral read-model row for one field: the raw
// stored value plus, for reference kinds, the resolved target entity.
// ResolvedValue is nil when the target is missing or soft-deleted so callers
// can render a placeholder. Never persisted.
type ResolvedFieldValue struct {
	FieldName     string      `json:"field_name"`
	FieldKind     fields.Kind `json:"field_kind"`
	RawValue      any         `json:"raw_value"`
	ResolvedValue any         `json:"resolved_value,omitempty"`
}

// RecordWithRelations is the full read model for one record: the record, its
// type with ordered field definitions, its occasions ordered by (date,
// created_at), and every field resolved.
type RecordWithRelations struct {
	Record         Record                        `json:"record"`
	RecordType     RecordType                    `json:"record_type"`
	Occasions      []Occasion                    `json:"occasions"`
	ResolvedFields map[string]ResolvedFieldValue `json:"resolved_fields"`
}

// CreateRecordRequest is the request body for creating a record together
// with its first batch of occasions.
type CreateRecordRequest struct {
	FieldValues map[string]any  `json:"field_values"`
	Occasions   []OccasionInput `json:"occasions"`
}

// UpdateRecordRequest replaces the field-value map wholesale when provided.
type UpdateRecordRequest struct {
	FieldValues map[string]any `json:"field_values,omitempty"`
}

// RecordListItem is one row of a record listing: the record plus its type
// and primary occasion for display and sorting.
type RecordListItem struct {
	Record          Record      `json:"record"`
	RecordType      *RecordType `json:"record_type,omitempty"`
	PrimaryOccasion *Occasion   `json:"primary_occasion,omitempty"`
}

// RecordListResponse is the API response for listing records. Pagination is
// approximate: filters are applied after the page is fetched, so a page may
// be shorter than the requested limit while later pages still hold matches.
// Callers page until an empty page.
type RecordListResponse struct {
	Items  []RecordListItem `json:"items"`
	Offset int              `json:"offset"`
	Limit  int              `json:"limit"`
}
