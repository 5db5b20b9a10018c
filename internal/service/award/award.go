package award

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/apperrors"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/models"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/repository"
)

const (
	// Bounded retries for transient store failures before surfacing
	maxAttempts  = 3
	retryBackoff = 100 * time.Millisecond
)

// Service is the points award engine: the only write path into card balances.
// The balance update and the audit insert happen in one transaction, so a
// caller timeout never leaves a partially applied award and retrying with the
// same transaction reference is always safe.
type Service struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *Service {
	return &Service{storage: storage}
}

type AwardParams struct {
	CardID      int64
	Delta       int64
	Source      string
	Description string

	// Optional idempotency key, unique per card.
	// When empty a reference is generated from the call itself, so an
	// accidental resubmission stays observable in the audit trail instead of
	// being silently deduplicated. Callers that need idempotent retries must
	// supply their own reference.
	TransactionRef string
}

type AwardResult struct {
	// Card with the resulting balance
	Card models.Card

	// The audit row bearing the transaction reference
	Activity models.Activity

	// False when the reference was seen before and nothing was applied
	Applied bool
}

func (s *Service) Award(ctx context.Context, arg AwardParams) (AwardResult, error) {
	var result AwardResult

	if arg.Delta == 0 {
		return result, apperrors.ErrInvalidDelta
	}
	if !models.KnownActivitySource(arg.Source) {
		return result, fmt.Errorf("%w: %q", apperrors.ErrInvalidSource, arg.Source)
	}
	if arg.TransactionRef == "" {
		arg.TransactionRef = fmt.Sprintf("auto-%d-%d", arg.CardID, time.Now().UnixNano())
	}

	var err error
	for attempt := 1; ; attempt++ {
		result, err = s.awardOnce(ctx, arg)

		if err == nil || !errors.Is(err, apperrors.ErrStoreUnavailable) || attempt == maxAttempts {
			return result, err
		}

		select {
		case <-time.After(time.Duration(attempt) * retryBackoff):
		case <-ctx.Done():
			return result, ctx.Err()
		}
	}
}

func (s *Service) awardOnce(ctx context.Context, arg AwardParams) (AwardResult, error) {
	var result AwardResult

	err := s.storage.InTx(ctx, func(storage repository.Storage) error {
		// Lock the card row: concurrent awards on the same card serialize here
		card, err := storage.Cards().GetCardForUpdate(ctx, arg.CardID)
		if err != nil {
			return err
		}
		if !card.IsActive {
			return apperrors.ErrCardInactive
		}

		activity, applied, err := storage.Ledger().RecordActivity(ctx, repository.RecordActivityParams{
			CardID:         arg.CardID,
			ActivityType:   arg.Source,
			Points:         arg.Delta,
			Description:    arg.Description,
			TransactionRef: arg.TransactionRef,
		})
		if err != nil {
			return err
		}

		if !applied {
			// Duplicate reference: no-op, report the existing outcome
			result = AwardResult{Card: card, Activity: activity, Applied: false}
			return nil
		}

		card, err = storage.Cards().AddPoints(ctx, arg.CardID, arg.Delta)
		if err != nil {
			// Rolls the audit insert back too, both persist or neither does
			return err
		}

		result = AwardResult{Card: card, Activity: activity, Applied: true}
		return nil
	})
	if err != nil {
		return AwardResult{}, fmt.Errorf("award on card %d: %w", arg.CardID, err)
	}

	return result, nil
}
