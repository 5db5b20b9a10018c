package models

import (
	"time"
)

const (
	ActivitySourceManual     = "manual"
	ActivitySourcePurchase   = "purchase"
	ActivitySourcePromotion  = "promotion"
	ActivitySourceCorrection = "correction"
	ActivitySourceTest       = "test"
)

// Activity is one immutable row of the card audit trail.
// The (CardID, TransactionRef) pair is unique and serves as the idempotency key.
type Activity struct {
	ID             int64
	CardID         int64
	ActivityType   string
	Points         int64
	Description    string
	TransactionRef string
	CreatedAt      time.Time
}

// KnownActivitySource reports whether source is one of the allowed tags
func KnownActivitySource(source string) bool {
	switch source {
	case ActivitySourceManual, ActivitySourcePurchase, ActivitySourcePromotion,
		ActivitySourceCorrection, ActivitySourceTest:
		return true
	}
	return false
}
