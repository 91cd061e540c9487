package models

import "time"

// Target entities referenced by record fields. These stores are owned by
// other parts of the system; laurel reads them tenant-scoped and
// soft-delete-aware to resolve references.

// Person is a directory entry referenced by person fields.
type Person struct {
	ID        string     `json:"id" db:"id"`
	TenantID  string     `json:"tenant_id" db:"tenant_id"`
	FullName  string     `json:"full_name" db:"full_name"`
	Email     string     `json:"email,omitempty" db:"email"`
	Phone     string     `json:"phone,omitempty" db:"phone"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// Group is a ministry or committee referenced by group fields.
type Group struct {
	ID          string     `json:"id" db:"id"`
	TenantID    string     `json:"tenant_id" db:"tenant_id"`
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// Location is a venue referenced by location fields and occasions.
type Location struct {
	ID        string     `json:"id" db:"id"`
	TenantID  string     `json:"tenant_id" db:"tenant_id"`
	Name      string     `json:"name" db:"name"`
	Address   string     `json:"address,omitempty" db:"address"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// Document is an uploaded file referenced by document fields.
type Document struct {
	ID        string     `json:"id" db:"id"`
	TenantID  string     `json:"tenant_id" db:"tenant_id"`
	Name      string     `json:"name" db:"name"`
	Path      string     `json:"path" db:"path"`
	MimeType  string     `json:"mime_type,omitempty" db:"mime_type"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// ListItem is one option in an administrator-defined list, referenced by
// list_item fields.
type ListItem struct {
	ID        string     `json:"id" db:"id"`
	TenantID  string     `json:"tenant_id" db:"tenant_id"`
	ListID    string     `json:"list_id" db:"list_id"`
	Value     string     `json:"value" db:"value"`
	Order     int        `json:"order" db:"display_order"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}
