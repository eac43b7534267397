package models

import "time"

// Comment is a free-text annotation attached to one enquiry by a staff user.
// Append-only; keyed by the owning record's application number (or id).
type Comment struct {
	ID        string    `db:"id" json:"id"`
	RecordKey string    `db:"record_key" json:"recordKey"`
	Text      string    `db:"text" json:"text"`
	Author    string    `db:"author" json:"author"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
