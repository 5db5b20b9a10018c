package models

import (
	"github.com/shopspring/decimal"
)

// ProgramStats is a per program rollup computed over the activity log.
// Nothing here is stored: derived figures are views over card_activities,
// never independently written columns.
type ProgramStats struct {
	ProgramID      int64
	CardCount      int64
	ActiveCards    int64
	PointsIssued   int64 // sum of positive deltas
	PointsRedeemed int64 // -sum of negative deltas
	Outstanding    int64 // issued - redeemed, equals the sum of card balances
	AverageBalance decimal.Decimal
	RedemptionRate decimal.Decimal // redeemed / issued, zero when nothing issued
}
