package models

import "time"

// Occasion is one scheduled date/time/location instance belonging to a
// record. A record always has at least one, and exactly one is primary; the
// primary occasion's date is the canonical date for filtering and sorting.
type Occasion struct {
	ID         string    `json:"id" db:"id"`
	RecordID   string    `json:"record_id" db:"record_id"`
	Label      string    `json:"label" db:"label"`
	Date       string    `json:"date,omitempty" db:"date"` // YYYY-MM-DD, empty when unscheduled
	Time       string    `json:"time,omitempty" db:"time"` // HH:MM:SS
	LocationID *string   `json:"location_id,omitempty" db:"location_id"`
	IsPrimary  bool      `json:"is_primary" db:"is_primary"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// OccasionInput is the write shape for one occasion in a batch.
type OccasionInput struct {
	Label      string  `json:"label"`
	Date       string  `json:"date,omitempty"`
	Time       string  `json:"time,omitempty"`
	LocationID *string `json:"location_id,omitempty"`
	IsPrimary  bool    `json:"is_primary"`
}

// ReplaceOccasionsRequest replaces a record's occasions as a full batch.
type ReplaceOccasionsRequest struct {
	Occasions []OccasionInput `json:"occasions" validate:"required"`
}

// CalendarOccasion is one occasion row for the calendar feed, joined with
// the owning record so the feed can link back to it. Unscheduled occasions
// never appear on the calendar.
type CalendarOccasion struct {
	Occasion
	TenantID     string `json:"tenant_id" db:"tenant_id"`
	RecordTypeID string `json:"record_type_id" db:"record_type_id"`
}

// CalendarResponse is the API response for the calendar feed.
type CalendarResponse struct {
	Items []CalendarOccasion `json:"items"`
	From  string             `json:"from"`
	To    string             `json:"to"`
}
