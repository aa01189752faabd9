package models

import "time"

// Timestamps contains the bookkeeping columns shared by the mutable tables.
type Timestamps struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
