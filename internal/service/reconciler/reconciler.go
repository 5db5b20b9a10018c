package reconciler

import (
	"context"
	"fmt"
	"iter"

	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/apperrors"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/models"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/repository"
)

// Batch size for the orphan scan keyset pagination
const orphanBatchSize = 100

// Service keeps the enrollment/card invariant: every approved enrollment has
// exactly one active card. The invariant may be transiently violated (crash
// between approval and card creation) and is restored by Repair. The service
// never assumes it is the only writer: concurrent approvals or repairs of the
// same enrollment converge on one card through the store's unique constraint.
type Service struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *Service {
	return &Service{storage: storage}
}

// Enroll creates a pending enrollment for the (customer, program) pair
func (s *Service) Enroll(ctx context.Context, customerID int64, programID int64) (models.Enrollment, error) {
	return s.storage.Enrollments().Create(ctx, customerID, programID)
}

// OnApprove transitions the enrollment to approved and creates (or
// reactivates) exactly one card for the pair, in one transaction
func (s *Service) OnApprove(ctx context.Context, enrollmentID int64) (models.Enrollment, models.Card, error) {
	var (
		enrollment models.Enrollment
		card       models.Card
	)

	err := s.storage.InTx(ctx, func(storage repository.Storage) error {
		var err error

		enrollment, err = storage.Enrollments().Approve(ctx, enrollmentID)
		if err != nil {
			return err
		}

		card, err = storage.Cards().CreateOrReactivate(ctx, enrollment.CustomerID, enrollment.ProgramID)
		return err
	})
	if err != nil {
		return enrollment, card, fmt.Errorf("approve enrollment %d: %w", enrollmentID, err)
	}

	return enrollment, card, nil
}

// Decline a pending enrollment
func (s *Service) Decline(ctx context.Context, enrollmentID int64) (models.Enrollment, error) {
	return s.storage.Enrollments().Decline(ctx, enrollmentID)
}

// Exit deactivates the customer's card in the program and takes the
// enrollment out of the approved state, in one transaction. The card and its
// audit trail survive, only the active flag drops.
// Leaving the enrollment approved would make the pair look like crash drift
// and the next repair sweep would reactivate the card
func (s *Service) Exit(ctx context.Context, customerID int64, programID int64) (models.Card, error) {
	var card models.Card

	err := s.storage.InTx(ctx, func(storage repository.Storage) error {
		var err error

		card, err = storage.Cards().Deactivate(ctx, customerID, programID)
		if err != nil {
			return err
		}

		return storage.Enrollments().MarkExited(ctx, customerID, programID)
	})
	if err != nil {
		return card, fmt.Errorf("exit program %d for customer %d: %w", programID, customerID, err)
	}

	return card, nil
}

// Repair creates the card an approved enrollment is missing.
// Idempotent: an enrollment that already has a card gets the existing one
// back, no duplicate is created. Safe to call concurrently
func (s *Service) Repair(ctx context.Context, enrollmentID int64) (models.Card, error) {
	var card models.Card

	enrollment, err := s.storage.Enrollments().Get(ctx, enrollmentID)
	if err != nil {
		return card, err
	}
	if enrollment.Status != models.EnrollmentApproved {
		return card, fmt.Errorf("enrollment %d: %w", enrollmentID, apperrors.ErrEnrollmentNotApproved)
	}

	card, err = s.storage.Cards().CreateOrReactivate(ctx, enrollment.CustomerID, enrollment.ProgramID)
	if err != nil {
		return card, fmt.Errorf("repair enrollment %d: %w", enrollmentID, err)
	}

	return card, nil
}

// FindOrphanedEnrollments yields approved enrollments that lack an active
// card. The sequence is lazy (batches fetched as the caller advances),
// finite and restartable: ranging again starts a fresh scan
func (s *Service) FindOrphanedEnrollments(ctx context.Context) iter.Seq2[models.Enrollment, error] {
	return func(yield func(models.Enrollment, error) bool) {
		var afterID int64

		for {
			batch, err := s.storage.Enrollments().ListOrphaned(ctx, afterID, orphanBatchSize)
			if err != nil {
				yield(models.Enrollment{}, err)
				return
			}
			if len(batch) == 0 {
				return
			}

			for _, enrollment := range batch {
				if !yield(enrollment, nil) {
					return
				}
				afterID = enrollment.ID
			}
		}
	}
}

// RepairAll sweeps the orphan set once and repairs every entry.
// Returns the number of repaired enrollments
func (s *Service) RepairAll(ctx context.Context) (int, error) {
	repaired := 0

	for enrollment, err := range s.FindOrphanedEnrollments(ctx) {
		if err != nil {
			return repaired, fmt.Errorf("orphan scan: %w", err)
		}

		if _, err := s.Repair(ctx, enrollment.ID); err != nil {
			// Surfaced, never silently patched past one repair attempt
			return repaired, fmt.Errorf("%w: repair of enrollment %d failed: %v",
				apperrors.ErrInconsistent, enrollment.ID, err)
		}
		repaired++
	}

	return repaired, nil
}
