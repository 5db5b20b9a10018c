package handlers

import (
	"context"
	"iter"
	"net/http"

	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/gateway"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/logger"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/models"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/repository"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/service/award"
)

// Rate limit classes routes are assigned to
const (
	RateClassAuth   = "auth"
	RateClassAward  = "award"
	RateClassRead   = "read"
	RateClassEnroll = "enroll"
	RateClassAdmin  = "admin"
)

type authService interface {
	// Register user with username, password and role
	// Has to return apperrors.ErrUserAlreadyExists if user already exists
	Register(ctx context.Context, username string, password string, role string) (models.TokenPair, error)

	// Login user with username and password
	// Has to return apperrors.ErrUserNotFound if user not found or password mismatch
	Login(ctx context.Context, username string, password string) (models.TokenPair, error)

	// Refresh tokens using refresh token
	// If token expired: has to return apperrors.ErrRefreshTokenExpired
	// If token not found: has to return apperrors.ErrRefreshTokenNotFound
	Refresh(ctx context.Context, refresh string) (models.TokenPair, error)

	// Set refresh token cookie on response
	SetTokens(w http.ResponseWriter, pair models.TokenPair)

	// Get refresh token from request
	GetRefresh(r *http.Request) (string, error)
}

type awardService interface {
	Award(ctx context.Context, arg award.AwardParams) (award.AwardResult, error)
}

type reconcilerService interface {
	Enroll(ctx context.Context, customerID int64, programID int64) (models.Enrollment, error)
	OnApprove(ctx context.Context, enrollmentID int64) (models.Enrollment, models.Card, error)
	Decline(ctx context.Context, enrollmentID int64) (models.Enrollment, error)
	Exit(ctx context.Context, customerID int64, programID int64) (models.Card, error)
	Repair(ctx context.Context, enrollmentID int64) (models.Card, error)
	FindOrphanedEnrollments(ctx context.Context) iter.Seq2[models.Enrollment, error]
	RepairAll(ctx context.Context) (int, error)
}

type analyticsService interface {
	ProgramStats(ctx context.Context) ([]models.ProgramStats, error)
}

// Routes declares the whole logical API surface as one ordered list.
// The order matters: the first matching entry wins, so specific patterns go
// before wildcard ones. Adding a logical operation means adding a line here,
// never a new physical entry point
func Routes(
	authService authService,
	awardService awardService,
	reconciler reconcilerService,
	analytics analyticsService,
	storage repository.Storage,
	logger logger.Logger,
) []gateway.Route {
	return []gateway.Route{
		// Token issuance
		{Method: "POST", Pattern: "/auth/register", Auth: gateway.AuthNone, RateClass: RateClassAuth,
			Handler: handleRegister(authService, logger)},
		{Method: "POST", Pattern: "/auth/login", Auth: gateway.AuthNone, RateClass: RateClassAuth,
			Handler: handleLogin(authService, logger)},
		{Method: "POST", Pattern: "/auth/refresh", Auth: gateway.AuthNone, RateClass: RateClassAuth,
			Handler: handleTokenRefresh(authService, logger)},

		// Award operations: the public one and the internal direct variant
		{Method: "POST", Pattern: "/businesses/award-points", Auth: gateway.AuthBusiness, RateClass: RateClassAward,
			Handler: handleAwardPoints("award-points", awardService, logger)},
		{Method: "POST", Pattern: "/internal/direct-award", Auth: gateway.AuthStaff, RateClass: RateClassAward,
			Handler: handleAwardPoints("direct-award", awardService, logger)},

		// Card reads
		{Method: "GET", Pattern: "/cards/{cardID}", Auth: gateway.AuthCustomer, RateClass: RateClassRead,
			Handler: handleGetCard(storage, logger)},
		{Method: "GET", Pattern: "/cards/{cardID}/activities", Auth: gateway.AuthCustomer, RateClass: RateClassRead,
			Handler: handleListCardActivities(storage, logger)},
		{Method: "GET", Pattern: "/customers/{customerID}/cards", Auth: gateway.AuthCustomer, RateClass: RateClassRead,
			Handler: handleListCustomerCards(storage, logger)},

		// Business scoped enrollment lifecycle
		{Method: "POST", Pattern: "/business/{businessID}/enrollments", Auth: gateway.AuthBusiness, RateClass: RateClassEnroll,
			Handler: handleEnroll(reconciler, logger)},
		{Method: "POST", Pattern: "/business/{businessID}/enrollments/{enrollmentID}/approve", Auth: gateway.AuthBusiness, RateClass: RateClassEnroll,
			Handler: handleApproveEnrollment(reconciler, logger)},
		{Method: "POST", Pattern: "/business/{businessID}/enrollments/{enrollmentID}/decline", Auth: gateway.AuthBusiness, RateClass: RateClassEnroll,
			Handler: handleDeclineEnrollment(reconciler, logger)},
		{Method: "POST", Pattern: "/business/{businessID}/enrollments/exit", Auth: gateway.AuthBusiness, RateClass: RateClassEnroll,
			Handler: handleExitProgram(reconciler, logger)},

		// Admin surface: reconciliation and analytics aggregates
		{Method: "GET", Pattern: "/admin/reconciliation/orphans", Auth: gateway.AuthStaff, RateClass: RateClassAdmin,
			Handler: handleListOrphans(reconciler, logger)},
		{Method: "POST", Pattern: "/admin/reconciliation/repair", Auth: gateway.AuthStaff, RateClass: RateClassAdmin,
			Handler: handleRepair(reconciler, logger)},
		{Method: "GET", Pattern: "/admin/analytics/programs", Auth: gateway.AuthStaff, RateClass: RateClassAdmin,
			Handler: handleProgramStats(analytics, logger)},
	}
}
