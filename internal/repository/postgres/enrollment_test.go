package postgres

import (
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/apperrors"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/models"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/repository"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/testutil"
)

func TestEnrollmentRepo(t *testing.T) {
	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	withTx := func(t *testing.T, tx DBTX, fn func(pgx.Tx, repository.Storage)) {
		testutil.WithTx(tx, t, func(ttx pgx.Tx) {
			fn(ttx, NewStorage(ttx))
		})
	}

	t.Run("Create", func(t *testing.T) {
		t.Run("create ok", func(t *testing.T) {
			withTx(t, pg.Pool, func(_ pgx.Tx, s repository.Storage) {
				enrollment, err := s.Enrollments().Create(t.Context(), 1, 10)

				require.NoError(t, err)
				require.NotZero(t, enrollment.ID)
				require.Equal(t, models.EnrollmentPending, enrollment.Status)
				require.Nil(t, enrollment.ApprovedAt)
			})
		})

		t.Run("create twice", func(t *testing.T) {
			withTx(t, pg.Pool, func(_ pgx.Tx, s repository.Storage) {
				_, err := s.Enrollments().Create(t.Context(), 1, 10)
				require.NoError(t, err)

				_, err = s.Enrollments().Create(t.Context(), 1, 10)

				require.ErrorIs(t, err, apperrors.ErrAlreadyEnrolled)
			})
		})
	})

	t.Run("Approve", func(t *testing.T) {
		t.Run("approve pending", func(t *testing.T) {
			withTx(t, pg.Pool, func(_ pgx.Tx, s repository.Storage) {
				created, err := s.Enrollments().Create(t.Context(), 2, 10)
				require.NoError(t, err)

				enrollment, err := s.Enrollments().Approve(t.Context(), created.ID)

				require.NoError(t, err)
				require.Equal(t, models.EnrollmentApproved, enrollment.Status)
				require.NotNil(t, enrollment.ApprovedAt)
			})
		})

		t.Run("approve twice keeps the first approval time", func(t *testing.T) {
			withTx(t, pg.Pool, func(_ pgx.Tx, s repository.Storage) {
				created, err := s.Enrollments().Create(t.Context(), 2, 10)
				require.NoError(t, err)

				first, err := s.Enrollments().Approve(t.Context(), created.ID)
				require.NoError(t, err)

				second, err := s.Enrollments().Approve(t.Context(), created.ID)

				require.NoError(t, err)
				require.Equal(t, first.ApprovedAt, second.ApprovedAt)
			})
		})

		t.Run("approve declined", func(t *testing.T) {
			withTx(t, pg.Pool, func(_ pgx.Tx, s repository.Storage) {
				created, err := s.Enrollments().Create(t.Context(), 2, 10)
				require.NoError(t, err)
				_, err = s.Enrollments().Decline(t.Context(), created.ID)
				require.NoError(t, err)

				_, err = s.Enrollments().Approve(t.Context(), created.ID)

				require.ErrorIs(t, err, apperrors.ErrEnrollmentDeclined)
			})
		})

		t.Run("approve unknown", func(t *testing.T) {
			withTx(t, pg.Pool, func(_ pgx.Tx, s repository.Storage) {
				_, err := s.Enrollments().Approve(t.Context(), 404404)

				require.ErrorIs(t, err, apperrors.ErrEnrollmentNotFound)
			})
		})
	})

	t.Run("Decline", func(t *testing.T) {
		t.Run("decline pending", func(t *testing.T) {
			withTx(t, pg.Pool, func(_ pgx.Tx, s repository.Storage) {
				created, err := s.Enrollments().Create(t.Context(), 3, 10)
				require.NoError(t, err)

				enrollment, err := s.Enrollments().Decline(t.Context(), created.ID)

				require.NoError(t, err)
				require.Equal(t, models.EnrollmentDeclined, enrollment.Status)
			})
		})

		t.Run("decline approved", func(t *testing.T) {
			withTx(t, pg.Pool, func(_ pgx.Tx, s repository.Storage) {
				created, err := s.Enrollments().Create(t.Context(), 3, 10)
				require.NoError(t, err)
				_, err = s.Enrollments().Approve(t.Context(), created.ID)
				require.NoError(t, err)

				_, err = s.Enrollments().Decline(t.Context(), created.ID)

				require.ErrorIs(t, err, apperrors.ErrEnrollmentApproved)
			})
		})
	})

	t.Run("MarkExited", func(t *testing.T) {
		t.Run("exit approved", func(t *testing.T) {
			withTx(t, pg.Pool, func(_ pgx.Tx, s repository.Storage) {
				created, err := s.Enrollments().Create(t.Context(), 3, 10)
				require.NoError(t, err)
				_, err = s.Enrollments().Approve(t.Context(), created.ID)
				require.NoError(t, err)

				require.NoError(t, s.Enrollments().MarkExited(t.Context(), 3, 10))

				enrollment, err := s.Enrollments().Get(t.Context(), created.ID)
				require.NoError(t, err)
				require.Equal(t, models.EnrollmentExited, enrollment.Status)
			})
		})

		t.Run("pending stays pending", func(t *testing.T) {
			withTx(t, pg.Pool, func(_ pgx.Tx, s repository.Storage) {
				created, err := s.Enrollments().Create(t.Context(), 3, 10)
				require.NoError(t, err)

				require.NoError(t, s.Enrollments().MarkExited(t.Context(), 3, 10))

				enrollment, err := s.Enrollments().Get(t.Context(), created.ID)
				require.NoError(t, err)
				require.Equal(t, models.EnrollmentPending, enrollment.Status)
			})
		})

		t.Run("unknown pair is a no-op", func(t *testing.T) {
			withTx(t, pg.Pool, func(_ pgx.Tx, s repository.Storage) {
				require.NoError(t, s.Enrollments().MarkExited(t.Context(), 404, 404))
			})
		})

		t.Run("exited is approvable again", func(t *testing.T) {
			withTx(t, pg.Pool, func(_ pgx.Tx, s repository.Storage) {
				created, err := s.Enrollments().Create(t.Context(), 3, 10)
				require.NoError(t, err)
				first, err := s.Enrollments().Approve(t.Context(), created.ID)
				require.NoError(t, err)
				require.NoError(t, s.Enrollments().MarkExited(t.Context(), 3, 10))

				rejoined, err := s.Enrollments().Approve(t.Context(), created.ID)

				require.NoError(t, err)
				require.Equal(t, models.EnrollmentApproved, rejoined.Status)
				require.Equal(t, first.ApprovedAt, rejoined.ApprovedAt)
			})
		})
	})

	t.Run("ListOrphaned", func(t *testing.T) {
		withTx(t, pg.Pool, func(_ pgx.Tx, s repository.Storage) {
			// Approved with an active card: not an orphan
			healthy, err := s.Enrollments().Create(t.Context(), 1, 10)
			require.NoError(t, err)
			_, err = s.Enrollments().Approve(t.Context(), healthy.ID)
			require.NoError(t, err)
			_, err = s.Cards().CreateOrReactivate(t.Context(), 1, 10)
			require.NoError(t, err)

			// Approved without any card: orphan
			orphan, err := s.Enrollments().Create(t.Context(), 2, 10)
			require.NoError(t, err)
			_, err = s.Enrollments().Approve(t.Context(), orphan.ID)
			require.NoError(t, err)

			// Approved with a deactivated card and no exit on record: drift,
			// counts as an orphan
			drifted, err := s.Enrollments().Create(t.Context(), 3, 10)
			require.NoError(t, err)
			_, err = s.Enrollments().Approve(t.Context(), drifted.ID)
			require.NoError(t, err)
			_, err = s.Cards().CreateOrReactivate(t.Context(), 3, 10)
			require.NoError(t, err)
			_, err = s.Cards().Deactivate(t.Context(), 3, 10)
			require.NoError(t, err)

			// Pending enrollments never count
			_, err = s.Enrollments().Create(t.Context(), 4, 10)
			require.NoError(t, err)

			// Exited pair with a deactivated card: a deliberate leave, not an
			// orphan
			exited, err := s.Enrollments().Create(t.Context(), 5, 10)
			require.NoError(t, err)
			_, err = s.Enrollments().Approve(t.Context(), exited.ID)
			require.NoError(t, err)
			_, err = s.Cards().CreateOrReactivate(t.Context(), 5, 10)
			require.NoError(t, err)
			_, err = s.Cards().Deactivate(t.Context(), 5, 10)
			require.NoError(t, err)
			require.NoError(t, s.Enrollments().MarkExited(t.Context(), 5, 10))

			orphans, err := s.Enrollments().ListOrphaned(t.Context(), 0, 100)

			require.NoError(t, err)
			require.Len(t, orphans, 2)
			require.Equal(t, orphan.ID, orphans[0].ID)
			require.Equal(t, drifted.ID, orphans[1].ID)

			t.Run("keyset pagination", func(t *testing.T) {
				page, err := s.Enrollments().ListOrphaned(t.Context(), orphan.ID, 100)

				require.NoError(t, err)
				require.Len(t, page, 1)
				require.Equal(t, drifted.ID, page[0].ID)
			})
		})
	})
}
