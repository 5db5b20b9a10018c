package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/models"
)

type AnalyticsRepo struct {
	DB DBTX
}

// Per program figures derived from the activity log only.
// Issued/redeemed are never stored anywhere, they are computed views
// over card_activities
const programStats = `-- name: ProgramStats
SELECT c.program_id,
	COUNT(DISTINCT c.id) AS card_count,
	COUNT(DISTINCT c.id) FILTER (WHERE c.is_active) AS active_cards,
	COALESCE(SUM(a.points) FILTER (WHERE a.points > 0), 0) AS points_issued,
	COALESCE(-SUM(a.points) FILTER (WHERE a.points < 0), 0) AS points_redeemed
FROM cards c
LEFT JOIN card_activities a ON a.card_id = c.id
GROUP BY c.program_id
ORDER BY c.program_id
`

func (r *AnalyticsRepo) ProgramStats(ctx context.Context) ([]models.ProgramStats, error) {
	rows, _ := r.DB.Query(ctx, programStats)
	stats, err := pgx.CollectRows(rows, rowToProgramStats)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return stats, nil
}

func rowToProgramStats(row pgx.CollectableRow) (models.ProgramStats, error) {
	var s models.ProgramStats
	err := row.Scan(&s.ProgramID, &s.CardCount, &s.ActiveCards, &s.PointsIssued, &s.PointsRedeemed)
	if err != nil {
		return s, err
	}

	s.Outstanding = s.PointsIssued - s.PointsRedeemed
	if s.CardCount > 0 {
		s.AverageBalance = decimal.NewFromInt(s.Outstanding).
			DivRound(decimal.NewFromInt(s.CardCount), 2)
	}
	if s.PointsIssued > 0 {
		s.RedemptionRate = decimal.NewFromInt(s.PointsRedeemed).
			DivRound(decimal.NewFromInt(s.PointsIssued), 4)
	}

	return s, nil
}
