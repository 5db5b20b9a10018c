package repository

import (
	"context"

	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/models"
)

// User repository interface
type UserRepo interface {
	// Create user with role
	// If user with username exists already has to return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, username string, hashedPassword string, role string) (models.User, error)

	// Get user by it's id or username
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID int64) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
}

// RefreshToken repository interface
type RefreshTokenRepo interface {
	// Save token in repository
	Save(ctx context.Context, token models.RefreshToken) (models.RefreshToken, error)

	// Return the token and mark it used in one statement
	// If the token is unknown must return apperrors.ErrRefreshTokenNotFound
	// If the token is already used must return apperrors.ErrRefreshTokenIsUsed
	GetAndMarkUsed(ctx context.Context, tokenString string) (models.RefreshToken, error)
}

// Card repository interface
type CardRepo interface {
	// Create card for (customer, program) pair with zero balance
	// If a card exists for the pair (active or not) reactivate it instead of
	// duplicating: exactly one active card per pair is enforced here
	CreateOrReactivate(ctx context.Context, customerID int64, programID int64) (models.Card, error)

	// Get card by id
	// If card not found must return apperrors.ErrCardNotFound
	GetCard(ctx context.Context, cardID int64) (models.Card, error)

	// Same as GetCard but locks the card row for the rest of the transaction.
	// Concurrent awards on one card serialize on this lock
	GetCardForUpdate(ctx context.Context, cardID int64) (models.Card, error)

	// List all cards that belong to the customer
	ListCustomerCards(ctx context.Context, customerID int64) ([]models.Card, error)

	// Apply a signed delta to the authoritative balance field.
	// This is the only write path into cards.points.
	// If the balance would go negative must return apperrors.ErrBalanceNegative
	AddPoints(ctx context.Context, cardID int64, delta int64) (models.Card, error)

	// Deactivate the customer's card in the program, never delete
	Deactivate(ctx context.Context, customerID int64, programID int64) (models.Card, error)
}

// RecordActivityParams describe one audit row to append
type RecordActivityParams struct {
	CardID         int64
	ActivityType   string
	Points         int64
	Description    string
	TransactionRef string
}

// Ledger repository interface: append-only audit trail for cards
type LedgerRepo interface {
	// RecordActivity is the idempotency guard: an atomic check-and-insert
	// against the (card_id, transaction_reference) uniqueness constraint.
	// Returns applied=false and the existing row when the reference was
	// already used on the card. Never a read-then-write sequence.
	RecordActivity(ctx context.Context, arg RecordActivityParams) (activity models.Activity, applied bool, err error)

	// List card activities, newest first
	ListActivities(ctx context.Context, cardID int64) ([]models.Activity, error)
}

// Enrollment repository interface
type EnrollmentRepo interface {
	// Create pending enrollment
	// If the pair is already enrolled must return apperrors.ErrAlreadyEnrolled
	Create(ctx context.Context, customerID int64, programID int64) (models.Enrollment, error)

	// Get enrollment by id
	// If not found must return apperrors.ErrEnrollmentNotFound
	Get(ctx context.Context, enrollmentID int64) (models.Enrollment, error)

	// Approve transitions pending to approved, keeps the original approval
	// time on repeat calls. Declined enrollments must return
	// apperrors.ErrEnrollmentDeclined
	Approve(ctx context.Context, enrollmentID int64) (models.Enrollment, error)

	// Decline a pending enrollment
	Decline(ctx context.Context, enrollmentID int64) (models.Enrollment, error)

	// MarkExited transitions the pair's approved enrollment to exited, so a
	// deliberate program exit stays distinguishable from crash drift in the
	// orphan scan. No-op when the pair has no approved enrollment
	MarkExited(ctx context.Context, customerID int64, programID int64) error

	// ListOrphaned returns approved enrollments without an active card,
	// keyset paginated: enrollments with id > afterID, at most limit rows
	ListOrphaned(ctx context.Context, afterID int64, limit int) ([]models.Enrollment, error)
}

// Analytics repository interface: read-only aggregates over the activity log
type AnalyticsRepo interface {
	ProgramStats(ctx context.Context) ([]models.ProgramStats, error)
}

// Storage bundles the repositories and transaction control
type Storage interface {
	Users() UserRepo
	Refresh() RefreshTokenRepo
	Cards() CardRepo
	Ledger() LedgerRepo
	Enrollments() EnrollmentRepo
	Analytics() AnalyticsRepo

	// InTx runs fn with storage bound to one database transaction.
	// Commit on nil error, rollback otherwise.
	InTx(ctx context.Context, fn func(Storage) error) error
}
