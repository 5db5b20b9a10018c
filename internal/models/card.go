package models

import (
	"time"
)

// Card is a customer's point balance record for one loyalty program.
// Exactly one active card may exist per (customer, program) pair.
// Cards are deactivated on program exit, never deleted.
type Card struct {
	ID         int64
	CustomerID int64
	ProgramID  int64
	Points     int64
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
