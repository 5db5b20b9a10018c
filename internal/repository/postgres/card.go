package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/apperrors"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/models"
)

type CardRepo struct {
	DB DBTX
}

// Create card for the pair or reactivate the existing one
// The unique (customer_id, program_id) constraint makes concurrent calls
// converge on the same row, so at most one active card per pair can exist
const createOrReactivateCard = `-- name: CreateOrReactivateCard
INSERT INTO cards (customer_id, program_id)
VALUES ($1, $2)
ON CONFLICT ON CONSTRAINT cards_customer_program_key
DO UPDATE SET is_active = TRUE, updated_at = now()
RETURNING id, customer_id, program_id, points, is_active, created_at, updated_at
`

func (r *CardRepo) CreateOrReactivate(ctx context.Context, customerID int64, programID int64) (models.Card, error) {
	rows, _ := r.DB.Query(ctx, createOrReactivateCard, customerID, programID)
	card, err := pgx.CollectOneRow(rows, rowToCard)

	if err != nil {
		return card, fmt.Errorf("db error: %w", err)
	}

	return card, nil
}

const getCard = `-- name: GetCard
SELECT id, customer_id, program_id, points, is_active, created_at, updated_at
FROM cards
WHERE id = $1
`

func (r *CardRepo) GetCard(ctx context.Context, cardID int64) (models.Card, error) {
	rows, _ := r.DB.Query(ctx, getCard, cardID)
	card, err := pgx.CollectOneRow(rows, rowToCard)

	switch {
	case err == nil:
		return card, nil
	case errors.Is(err, pgx.ErrNoRows):
		return card, apperrors.ErrCardNotFound
	default:
		return card, fmt.Errorf("db error: %w", err)
	}
}

const getCardForUpdate = `-- name: GetCardForUpdate
SELECT id, customer_id, program_id, points, is_active, created_at, updated_at
FROM cards
WHERE id = $1
FOR UPDATE
`

func (r *CardRepo) GetCardForUpdate(ctx context.Context, cardID int64) (models.Card, error) {
	rows, _ := r.DB.Query(ctx, getCardForUpdate, cardID)
	card, err := pgx.CollectOneRow(rows, rowToCard)

	switch {
	case err == nil:
		return card, nil
	case errors.Is(err, pgx.ErrNoRows):
		return card, apperrors.ErrCardNotFound
	default:
		return card, fmt.Errorf("db error: %w", err)
	}
}

const listCustomerCards = `-- name: ListCustomerCards
SELECT id, customer_id, program_id, points, is_active, created_at, updated_at
FROM cards
WHERE customer_id = $1
ORDER BY id
`

func (r *CardRepo) ListCustomerCards(ctx context.Context, customerID int64) ([]models.Card, error) {
	rows, _ := r.DB.Query(ctx, listCustomerCards, customerID)
	cards, err := pgx.CollectRows(rows, rowToCard)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return cards, nil
}

const addPoints = `-- name: AddPoints
UPDATE cards
SET points = points + $2, updated_at = now()
WHERE id = $1
RETURNING id, customer_id, program_id, points, is_active, created_at, updated_at
`

func (r *CardRepo) AddPoints(ctx context.Context, cardID int64, delta int64) (models.Card, error) {
	rows, _ := r.DB.Query(ctx, addPoints, cardID, delta)
	card, err := pgx.CollectOneRow(rows, rowToCard)

	switch {
	case err == nil:
		return card, nil
	case errors.Is(err, pgx.ErrNoRows):
		return card, apperrors.ErrCardNotFound
	default:
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.CheckViolation {
			// points >= 0 constraint: the store rejects over-debits on its own
			return card, apperrors.ErrBalanceNegative
		}

		return card, fmt.Errorf("db error: %w", err)
	}
}

const deactivateCard = `-- name: DeactivateCard
UPDATE cards
SET is_active = FALSE, updated_at = now()
WHERE customer_id = $1 AND program_id = $2
RETURNING id, customer_id, program_id, points, is_active, created_at, updated_at
`

func (r *CardRepo) Deactivate(ctx context.Context, customerID int64, programID int64) (models.Card, error) {
	rows, _ := r.DB.Query(ctx, deactivateCard, customerID, programID)
	card, err := pgx.CollectOneRow(rows, rowToCard)

	switch {
	case err == nil:
		return card, nil
	case errors.Is(err, pgx.ErrNoRows):
		return card, apperrors.ErrCardNotFound
	default:
		return card, fmt.Errorf("db error: %w", err)
	}
}

func rowToCard(row pgx.CollectableRow) (models.Card, error) {
	var c models.Card
	err := row.Scan(&c.ID, &c.CustomerID, &c.ProgramID, &c.Points, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}
