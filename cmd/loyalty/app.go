package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/db"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/gateway"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/handlers"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/logger"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/repository/postgres"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/service/analytics"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/service/auth"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/service/auth/tokenmanager"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/service/award"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/service/reconciler"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler
	Sweeper    *reconciler.Sweeper
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize services
	tokenManager, err := tokenmanager.New(tokenmanager.Config{SecretKey: c.SecretKey}, storage.Refresh())
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}
	authService, err := auth.NewService(auth.Config{}, tokenManager, storage.Users())
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}
	awardService := award.NewService(storage)
	reconcilerService := reconciler.NewService(storage)
	analyticsService := analytics.NewService(storage)

	// Build the route table from the declarative route list
	table, err := gateway.NewTable(handlers.Routes(
		authService,
		awardService,
		reconcilerService,
		analyticsService,
		storage,
		logger,
	))
	if err != nil {
		return nil, fmt.Errorf("error while building route table. Err: %w", err)
	}

	limiter := gateway.NewRateLimiter(
		map[string]gateway.RateClassConfig{
			handlers.RateClassAuth:  {PerSecond: 5, Burst: 10},
			handlers.RateClassAward: {PerSecond: 50, Burst: 100},
		},
		gateway.RateClassConfig{PerSecond: rate.Limit(c.RatePerSecond), Burst: c.RateBurst},
	)

	dispatcher := gateway.NewDispatcher(
		table,
		authService,
		limiter,
		gateway.NewCORS(c.AllowedOrigins),
		logger,
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    handlers.NewRouter(dispatcher, logger),
		Sweeper:    reconciler.NewSweeper(reconcilerService, logger),
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	// Background repair of approved enrollments without cards
	sweeperStopped := s.Sweeper.Run(srvCtx)

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			slog.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		slog.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	slog.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed
	<-sweeperStopped

	return err
}
