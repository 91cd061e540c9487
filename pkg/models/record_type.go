package models

import (
	"time"

	"github.com/Ramsey-B/laurel/pkg/fields"
)

// RecordType is an administrator-defined schema for one category of record
// (e.g. Wedding, Funeral, Parish Meeting).
type RecordType struct {
	ID          string     `json:"id" db:"id"`
	TenantID    string     `json:"tenant_id" db:"tenant_id"`
	Name        string     `json:"name" db:"name" validate:"required"`
	Slug        string     `json:"slug,omitempty" db:"slug"`
	Description string     `json:"description,omitempty" db:"description"`
	Icon        string     `json:"icon,omitempty" db:"icon"`
	Order       int        `json:"order" db:"display_order"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`

	// Fields is the ordered set of field definitions, loaded alongside the
	// type. Not a column.
	Fields []FieldDefinition `json:"fields,omitempty" db:"-"`
}

// FieldDefinition declares one typed, named slot on a record type.
// Definitions are effectively immutable once live records reference them;
// renaming is add-new + soft-delete-old, never an in-place rename.
type FieldDefinition struct {
	ID           string      `json:"id" db:"id"`
	RecordTypeID string      `json:"record_type_id" db:"record_type_id"`
	Name         string      `json:"name" db:"name" validate:"required"`
	Label        string      `json:"label" db:"label" validate:"required"`
	Kind         fields.Kind `json:"kind" db:"kind" validate:"required"`
	Required     bool        `json:"required" db:"required"`
	// IsKeyPerson marks a person field for inclusion in cross-record text
	// search. Only valid on person kind fields.
	IsKeyPerson        bool       `json:"is_key_person" db:"is_key_person"`
	ListID             *string    `json:"list_id,omitempty" db:"list_id"`
	RecordTypeFilterID *string    `json:"record_type_filter_id,omitempty" db:"record_type_filter_id"`
	Order              int        `json:"order" db:"display_order"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt          *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// Field returns the typed-layer view of the definition.
func (d FieldDefinition) Field() fields.Definition {
	return fields.Definition{
		Name:      d.Name,
		Kind:      d.Kind,
		Required:  d.Required,
		KeyPerson: d.IsKeyPerson,
	}
}

// FieldSet returns the typed-layer view of a record type's live definitions.
func (rt *RecordType) FieldSet() []fields.Definition {
	defs := make([]fields.Definition, 0, len(rt.Fields))
	for _, f := range rt.Fields {
		defs = append(defs, f.Field())
	}
	return defs
}

// CreateRecordTypeRequest is the request body for creating a record type.
type CreateRecordTypeRequest struct {
	Name        string `json:"name" validate:"required"`
	Slug        string `json:"slug,omitempty"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

// UpdateRecordTypeRequest is the request body for updating a record type.
// Field definitions are managed through their own endpoints.
type UpdateRecordTypeRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Icon        *string `json:"icon,omitempty"`
	Order       *int    `json:"order,omitempty"`
}

// CreateFieldDefinitionRequest is the request body for adding a field to a
// record type. Display order is assigned, not supplied.
type CreateFieldDefinitionRequest struct {
	Name               string  `json:"name" validate:"required"`
	Label              string  `json:"label" validate:"required"`
	Kind               string  `json:"kind" validate:"required"`
	Required           bool    `json:"required"`
	IsKeyPerson        bool    `json:"is_key_person"`
	ListID             *string `json:"list_id,omitempty"`
	RecordTypeFilterID *string `json:"record_type_filter_id,omitempty"`
}

// RecordTypeListResponse is the API response for listing record types.
type RecordTypeListResponse struct {
	Items      []RecordType `json:"items"`
	TotalCount int          `json:"total_count"`
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
}
