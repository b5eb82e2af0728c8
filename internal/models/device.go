package models

import "time"

// GateDevice is a registered checkpoint scanner. Devices authenticate
// with an API key; only its hash is stored.
type GateDevice struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Location   string    `db:"location" json:"location"`
	APIKeyHash string    `db:"api_key_hash" json:"-"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
