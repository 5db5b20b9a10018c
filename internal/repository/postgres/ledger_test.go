package postgres

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/models"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/repository"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/testutil"
)

func TestLedgerRepo(t *testing.T) {
	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	withTx := func(t *testing.T, tx DBTX, fn func(pgx.Tx, repository.Storage)) {
		testutil.WithTx(tx, t, func(ttx pgx.Tx) {
			fn(ttx, NewStorage(ttx))
		})
	}

	newCard := func(t *testing.T, s repository.Storage) models.Card {
		t.Helper()
		card, err := s.Cards().CreateOrReactivate(t.Context(), 1, 10)
		require.NoError(t, err)
		return card
	}

	t.Run("RecordActivity", func(t *testing.T) {
		t.Run("first record applied", func(t *testing.T) {
			withTx(t, pg.Pool, func(_ pgx.Tx, s repository.Storage) {
				card := newCard(t, s)

				activity, applied, err := s.Ledger().RecordActivity(t.Context(), repository.RecordActivityParams{
					CardID:         card.ID,
					ActivityType:   models.ActivitySourcePurchase,
					Points:         25,
					Description:    "coffee",
					TransactionRef: "txn-1",
				})

				require.NoError(t, err)
				require.True(t, applied)
				require.NotZero(t, activity.ID)
				require.Equal(t, card.ID, activity.CardID)
				require.Equal(t, int64(25), activity.Points)
				require.Equal(t, "txn-1", activity.TransactionRef)
			})
		})

		t.Run("same reference on same card not applied", func(t *testing.T) {
			withTx(t, pg.Pool, func(_ pgx.Tx, s repository.Storage) {
				card := newCard(t, s)
				params := repository.RecordActivityParams{
					CardID:         card.ID,
					ActivityType:   models.ActivitySourcePurchase,
					Points:         25,
					TransactionRef: "txn-1",
				}

				first, applied, err := s.Ledger().RecordActivity(t.Context(), params)
				require.NoError(t, err)
				require.True(t, applied)

				// Retry with a different delta must surface the original row
				params.Points = 999
				second, applied, err := s.Ledger().RecordActivity(t.Context(), params)

				require.NoError(t, err)
				require.False(t, applied, "duplicate reference must not be applied")
				require.Equal(t, first.ID, second.ID)
				require.Equal(t, int64(25), second.Points, "existing row wins over the retried payload")
			})
		})

		t.Run("same reference on another card is applied", func(t *testing.T) {
			withTx(t, pg.Pool, func(_ pgx.Tx, s repository.Storage) {
				card := newCard(t, s)
				other, err := s.Cards().CreateOrReactivate(t.Context(), 2, 10)
				require.NoError(t, err)

				_, applied, err := s.Ledger().RecordActivity(t.Context(), repository.RecordActivityParams{
					CardID: card.ID, ActivityType: models.ActivitySourceManual, Points: 5, TransactionRef: "txn-1",
				})
				require.NoError(t, err)
				require.True(t, applied)

				_, applied, err = s.Ledger().RecordActivity(t.Context(), repository.RecordActivityParams{
					CardID: other.ID, ActivityType: models.ActivitySourceManual, Points: 5, TransactionRef: "txn-1",
				})

				require.NoError(t, err)
				require.True(t, applied, "reference scope is per card")
			})
		})

		t.Run("zero delta rejected by the store", func(t *testing.T) {
			withTx(t, pg.Pool, func(_ pgx.Tx, s repository.Storage) {
				card := newCard(t, s)

				_, _, err := s.Ledger().RecordActivity(t.Context(), repository.RecordActivityParams{
					CardID: card.ID, ActivityType: models.ActivitySourceManual, Points: 0, TransactionRef: "txn-zero",
				})

				require.Error(t, err)
			})
		})
	})

	t.Run("ListActivities", func(t *testing.T) {
		withTx(t, pg.Pool, func(_ pgx.Tx, s repository.Storage) {
			card := newCard(t, s)
			for i := range 3 {
				_, _, err := s.Ledger().RecordActivity(t.Context(), repository.RecordActivityParams{
					CardID:         card.ID,
					ActivityType:   models.ActivitySourcePurchase,
					Points:         int64(i + 1),
					TransactionRef: fmt.Sprintf("txn-%d", i),
				})
				require.NoError(t, err)
			}

			activities, err := s.Ledger().ListActivities(t.Context(), card.ID)

			require.NoError(t, err)
			require.Len(t, activities, 3)
			require.Equal(t, int64(3), activities[0].Points, "newest activity first")
			require.Equal(t, int64(1), activities[2].Points)
		})
	})
}
