package models

import (
	"encoding/json"
	"time"
)

// Audit operations.
const (
	AuditOperationInsert = "INSERT"
	AuditOperationUpdate = "UPDATE"
	AuditOperationDelete = "DELETE"
)

// AuditLog records one mutation of a record for the change-history view.
type AuditLog struct {
	ID           string          `json:"id" db:"id"`
	TenantID     string          `json:"tenant_id" db:"tenant_id"`
	RecordID     string          `json:"record_id" db:"record_id"`
	RecordTypeID string          `json:"record_type_id" db:"record_type_id"`
	Operation    string          `json:"operation" db:"operation"`
	OldValues    json.RawMessage `json:"old_values,omitempty" db:"old_values"`
	NewValues    json.RawMessage `json:"new_values,omitempty" db:"new_values"`
	UserID       string          `json:"user_id,omitempty" db:"user_id"`
	RequestID    string          `json:"request_id,omitempty" db:"request_id"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

// AuditLogListResponse is the API response for a record's change history.
type AuditLogListResponse struct {
	Items  []AuditLog `json:"items"`
	Offset int        `json:"offset"`
	Limit  int        `json:"limit"`
}
