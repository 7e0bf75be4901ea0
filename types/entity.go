// Package types provides common value types used across RentHouse.
package types

import "time"

// Entity is the base type for all RentHouse records with timestamps.
// Embed it in domain types to get automatic timestamp handling.
type Entity struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEntity creates a new Entity with current timestamps.
func NewEntity() Entity {
	now := time.Now().UTC()
	return Entity{
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch updates the UpdatedAt timestamp to now.
func (e *Entity) Touch() {
	e.UpdatedAt = time.Now().UTC()
}

// Age returns how long ago the record was created.
func (e Entity) Age() time.Duration {
	return time.Since(e.CreatedAt)
}
