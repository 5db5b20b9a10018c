package e2e

import (
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/gateway"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/handlers"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/logger"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/repository"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/repository/postgres"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/service/analytics"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/service/auth"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/service/auth/tokenmanager"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/service/award"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/service/reconciler"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/testutil"
)

type Services struct {
	Storage    repository.Storage
	Auth       *auth.AuthService
	Award      *award.Service
	Reconciler *reconciler.Service
	Analytics  *analytics.Service
}

// ServeWithTx runs the full gateway stack over one database transaction and
// hands the test a running server URL. The transaction is rolled back by
// testutil.WithTx, so tests never see each other's data
func ServeWithTx(dbpool *pgxpool.Pool, t *testing.T, fn func(tx pgx.Tx, srvURL string, s Services)) {
	testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
		noop := logger.NewNoOp()
		storage := postgres.NewStorage(tx)

		tokenManager, err := tokenmanager.New(tokenmanager.Config{SecretKey: "test-secret"}, storage.Refresh())
		require.NoError(t, err, "token manager should be created without errors")

		authService, err := auth.NewService(auth.Config{}, tokenManager, storage.Users())
		require.NoError(t, err, "auth service starting error")

		awardService := award.NewService(storage)
		reconcilerService := reconciler.NewService(storage)
		analyticsService := analytics.NewService(storage)

		table, err := gateway.NewTable(handlers.Routes(
			authService,
			awardService,
			reconcilerService,
			analyticsService,
			storage,
			noop,
		))
		require.NoError(t, err, "route table should compile")

		// Generous limits so tests never trip the limiter by accident
		limiter := gateway.NewRateLimiter(nil, gateway.RateClassConfig{PerSecond: 1000, Burst: 1000})

		dispatcher := gateway.NewDispatcher(table, authService, limiter, gateway.NewCORS(nil), noop)

		srv := httptest.NewServer(handlers.NewRouter(dispatcher, noop))
		defer srv.Close()

		fn(tx, srv.URL, Services{
			Storage:    storage,
			Auth:       authService,
			Award:      awardService,
			Reconciler: reconcilerService,
			Analytics:  analyticsService,
		})
	})
}
