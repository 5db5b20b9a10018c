package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/models"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/repository"
)

type LedgerRepo struct {
	DB DBTX
}

// Append audit row for the (card, transaction_reference) pair
// If the pair exists already return the existing row as is: the insert and
// the existence check are one atomic statement, there is no read-then-write
// race window between them
const recordActivity = `-- name: RecordActivity
WITH new_activity AS (
	INSERT INTO card_activities (card_id, activity_type, points, description, transaction_reference)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT ON CONSTRAINT card_activities_card_ref_key DO NOTHING
	RETURNING id, card_id, activity_type, points, description, transaction_reference, created_at
)
SELECT id, card_id, activity_type, points, description, transaction_reference, created_at, TRUE AS applied
FROM new_activity
UNION ALL
SELECT a.id, a.card_id, a.activity_type, a.points, a.description, a.transaction_reference, a.created_at, FALSE
FROM card_activities a
WHERE a.card_id = $1
  AND a.transaction_reference = $5
  AND NOT EXISTS (SELECT 1 FROM new_activity)
`

func (r *LedgerRepo) RecordActivity(ctx context.Context, arg repository.RecordActivityParams) (models.Activity, bool, error) {
	type activityRow struct {
		activity models.Activity
		applied  bool
	}

	rows, _ := r.DB.Query(ctx, recordActivity,
		arg.CardID, arg.ActivityType, arg.Points, arg.Description, arg.TransactionRef)
	row, err := pgx.CollectOneRow(rows, func(row pgx.CollectableRow) (activityRow, error) {
		var ar activityRow
		a := &ar.activity
		err := row.Scan(&a.ID, &a.CardID, &a.ActivityType, &a.Points, &a.Description, &a.TransactionRef, &a.CreatedAt, &ar.applied)
		return ar, err
	})

	if err != nil {
		return row.activity, false, fmt.Errorf("db error: %w", err)
	}

	return row.activity, row.applied, nil
}

const listActivities = `-- name: ListActivities
SELECT id, card_id, activity_type, points, description, transaction_reference, created_at
FROM card_activities
WHERE card_id = $1
ORDER BY created_at DESC, id DESC
`

func (r *LedgerRepo) ListActivities(ctx context.Context, cardID int64) ([]models.Activity, error) {
	rows, _ := r.DB.Query(ctx, listActivities, cardID)
	activities, err := pgx.CollectRows(rows, rowToActivity)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return activities, nil
}

func rowToActivity(row pgx.CollectableRow) (models.Activity, error) {
	var a models.Activity
	err := row.Scan(&a.ID, &a.CardID, &a.ActivityType, &a.Points, &a.Description, &a.TransactionRef, &a.CreatedAt)
	return a, err
}
