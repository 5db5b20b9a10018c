package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/apperrors"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/repository"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/testutil"
)

func TestStorageInTx(t *testing.T) {
	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	withTx := func(t *testing.T, tx DBTX, fn func(pgx.Tx, repository.Storage)) {
		testutil.WithTx(tx, t, func(ttx pgx.Tx) {
			fn(ttx, NewStorage(ttx))
		})
	}

	t.Run("commits on nil error", func(t *testing.T) {
		withTx(t, pg.Pool, func(_ pgx.Tx, s repository.Storage) {
			var cardID int64

			err := s.InTx(t.Context(), func(txStorage repository.Storage) error {
				card, err := txStorage.Cards().CreateOrReactivate(t.Context(), 1, 10)
				cardID = card.ID
				return err
			})

			require.NoError(t, err)
			_, err = s.Cards().GetCard(t.Context(), cardID)
			require.NoError(t, err)
		})
	})

	t.Run("rolls back on error", func(t *testing.T) {
		withTx(t, pg.Pool, func(_ pgx.Tx, s repository.Storage) {
			boom := errors.New("boom")
			var cardID int64

			err := s.InTx(t.Context(), func(txStorage repository.Storage) error {
				card, err := txStorage.Cards().CreateOrReactivate(t.Context(), 1, 10)
				require.NoError(t, err)
				cardID = card.ID
				return boom
			})

			require.ErrorIs(t, err, boom)
			_, err = s.Cards().GetCard(t.Context(), cardID)
			require.ErrorIs(t, err, apperrors.ErrCardNotFound)
		})
	})

	t.Run("rolls back on panic", func(t *testing.T) {
		withTx(t, pg.Pool, func(_ pgx.Tx, s repository.Storage) {
			var cardID int64

			require.PanicsWithValue(t, "boom", func() {
				_ = s.InTx(t.Context(), func(txStorage repository.Storage) error {
					card, err := txStorage.Cards().CreateOrReactivate(t.Context(), 1, 10)
					require.NoError(t, err)
					cardID = card.ID
					panic("boom")
				})
			})

			_, err := s.Cards().GetCard(t.Context(), cardID)
			require.ErrorIs(t, err, apperrors.ErrCardNotFound, "panic must never commit the transaction")
		})
	})
}
