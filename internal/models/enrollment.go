package models

import (
	"time"
)

const (
	EnrollmentPending  = "pending"
	EnrollmentApproved = "approved"
	EnrollmentDeclined = "declined"
	EnrollmentExited   = "exited"
)

// Enrollment is a customer's request (and its resolution) to join a program.
// Every approved enrollment must have exactly one corresponding active card;
// the reconciler restores the invariant after partial failures.
type Enrollment struct {
	ID         int64
	CustomerID int64
	ProgramID  int64
	Status     string
	ApprovedAt *time.Time // nil until the enrollment is approved
}
