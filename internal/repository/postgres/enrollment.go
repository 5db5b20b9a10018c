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

type EnrollmentRepo struct {
	DB DBTX
}

const createEnrollment = `-- name: CreateEnrollment
INSERT INTO program_enrollments (customer_id, program_id)
VALUES ($1, $2)
RETURNING id, customer_id, program_id, status, approved_at
`

func (r *EnrollmentRepo) Create(ctx context.Context, customerID int64, programID int64) (models.Enrollment, error) {
	rows, _ := r.DB.Query(ctx, createEnrollment, customerID, programID)
	enrollment, err := pgx.CollectOneRow(rows, rowToEnrollment)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return enrollment, apperrors.ErrAlreadyEnrolled
		}

		return enrollment, fmt.Errorf("db error: %w", err)
	}

	return enrollment, nil
}

const getEnrollment = `-- name: GetEnrollment
SELECT id, customer_id, program_id, status, approved_at
FROM program_enrollments
WHERE id = $1
`

func (r *EnrollmentRepo) Get(ctx context.Context, enrollmentID int64) (models.Enrollment, error) {
	rows, _ := r.DB.Query(ctx, getEnrollment, enrollmentID)
	enrollment, err := pgx.CollectOneRow(rows, rowToEnrollment)

	switch {
	case err == nil:
		return enrollment, nil
	case errors.Is(err, pgx.ErrNoRows):
		return enrollment, apperrors.ErrEnrollmentNotFound
	default:
		return enrollment, fmt.Errorf("db error: %w", err)
	}
}

// Approve keeps the original approval time when called again,
// so repeated approvals are observable no-ops.
// Exited enrollments are approvable too: that is how a customer rejoins
const approveEnrollment = `-- name: ApproveEnrollment
UPDATE program_enrollments
SET status = 'approved', approved_at = COALESCE(approved_at, now())
WHERE id = $1 AND status IN ('pending', 'approved', 'exited')
RETURNING id, customer_id, program_id, status, approved_at
`

func (r *EnrollmentRepo) Approve(ctx context.Context, enrollmentID int64) (models.Enrollment, error) {
	rows, _ := r.DB.Query(ctx, approveEnrollment, enrollmentID)
	enrollment, err := pgx.CollectOneRow(rows, rowToEnrollment)

	switch {
	case err == nil:
		return enrollment, nil
	case errors.Is(err, pgx.ErrNoRows):
		// Either absent or declined, one more read tells which
		if _, getErr := r.Get(ctx, enrollmentID); getErr != nil {
			return enrollment, getErr
		}
		return enrollment, apperrors.ErrEnrollmentDeclined
	default:
		return enrollment, fmt.Errorf("db error: %w", err)
	}
}

const declineEnrollment = `-- name: DeclineEnrollment
UPDATE program_enrollments
SET status = 'declined'
WHERE id = $1 AND status = 'pending'
RETURNING id, customer_id, program_id, status, approved_at
`

func (r *EnrollmentRepo) Decline(ctx context.Context, enrollmentID int64) (models.Enrollment, error) {
	rows, _ := r.DB.Query(ctx, declineEnrollment, enrollmentID)
	enrollment, err := pgx.CollectOneRow(rows, rowToEnrollment)

	switch {
	case err == nil:
		return enrollment, nil
	case errors.Is(err, pgx.ErrNoRows):
		existing, getErr := r.Get(ctx, enrollmentID)
		if getErr != nil {
			return enrollment, getErr
		}
		if existing.Status == models.EnrollmentDeclined {
			return existing, nil
		}
		return enrollment, apperrors.ErrEnrollmentApproved
	default:
		return enrollment, fmt.Errorf("db error: %w", err)
	}
}

const markExitedEnrollment = `-- name: MarkExitedEnrollment
UPDATE program_enrollments
SET status = 'exited'
WHERE customer_id = $1 AND program_id = $2 AND status = 'approved'
`

func (r *EnrollmentRepo) MarkExited(ctx context.Context, customerID int64, programID int64) error {
	if _, err := r.DB.Exec(ctx, markExitedEnrollment, customerID, programID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

// Approved enrollments that lack an active card.
// The invariant may be transiently violated (crash between approval and card
// creation), this query feeds the repair loop that restores it
const listOrphanedEnrollments = `-- name: ListOrphanedEnrollments
SELECT e.id, e.customer_id, e.program_id, e.status, e.approved_at
FROM program_enrollments e
LEFT JOIN cards c
	ON c.customer_id = e.customer_id
	AND c.program_id = e.program_id
	AND c.is_active
WHERE e.status = 'approved'
  AND c.id IS NULL
  AND e.id > $1
ORDER BY e.id
LIMIT $2
`

func (r *EnrollmentRepo) ListOrphaned(ctx context.Context, afterID int64, limit int) ([]models.Enrollment, error) {
	rows, _ := r.DB.Query(ctx, listOrphanedEnrollments, afterID, limit)
	enrollments, err := pgx.CollectRows(rows, rowToEnrollment)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return enrollments, nil
}

func rowToEnrollment(row pgx.CollectableRow) (models.Enrollment, error) {
	var e models.Enrollment
	err := row.Scan(&e.ID, &e.CustomerID, &e.ProgramID, &e.Status, &e.ApprovedAt)
	return e, err
}
