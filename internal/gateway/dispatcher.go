package gateway

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"

	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/apperrors"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/handlers/render"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/handlers/userctx"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/logger"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/models"
)

type authService interface {
	// Authenticate request, return the user or apperrors.ErrUnauthorized
	Auth(ctx context.Context, r *http.Request) (models.User, error)
}

// Dispatcher is the one runtime behind every physical entry point.
// It consults the route table, applies cross-cutting policy in a fixed
// order (CORS preflight, auth, rate limit) and invokes the matched logical
// handler. Entry points carry no bespoke logic of their own: mounting any
// number of path prefixes on the same dispatcher keeps the logical surface
// open-ended while the deployment surface stays bounded
type Dispatcher struct {
	table   *Table
	auth    authService
	limiter *RateLimiter
	cors    *CORS
	logger  logger.Logger
}

func NewDispatcher(table *Table, auth authService, limiter *RateLimiter, cors *CORS, logger logger.Logger) *Dispatcher {
	return &Dispatcher{
		table:   table,
		auth:    auth,
		limiter: limiter,
		cors:    cors,
		logger:  logger,
	}
}

func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "dispatch"

	if d.cors.Apply(w, r) {
		return
	}

	match, err := d.table.Match(r.Method, r.URL.Path)
	if err != nil {
		var notAllowed *MethodNotAllowedError

		switch {
		case errors.As(err, &notAllowed):
			render.MethodNotAllowed(w, op, notAllowed.Allowed)
		case errors.Is(err, apperrors.ErrRouteNotFound):
			render.OpError(w, op, "No route for path", err, http.StatusNotFound)
		default:
			d.logger.Error("Route match failed", "error", err, "path", r.URL.Path)
			render.OpError(w, op, "Internal server error", err, http.StatusInternalServerError)
		}
		return
	}

	ctx := r.Context()
	caller := clientAddr(r)

	if match.Auth > AuthNone {
		user, err := d.auth.Auth(ctx, r)
		if err != nil {
			render.OpError(w, op, "Authentication required", apperrors.ErrUnauthorized, http.StatusUnauthorized)
			return
		}
		if roleLevel(user.Role) < match.Auth {
			render.OpError(w, op, "Insufficient privileges", apperrors.ErrForbidden, http.StatusForbidden)
			return
		}

		ctx = userctx.New(ctx, user)
		caller = "user:" + strconv.FormatInt(user.ID, 10)
	}

	if !d.limiter.Allow(match.RateClass, caller) {
		d.logger.Warn("Rate limit exceeded",
			"caller", caller,
			"class", match.RateClass,
			"pattern", match.Pattern,
		)
		render.OpError(w, op, "Too many requests", apperrors.ErrRateLimited, http.StatusTooManyRequests)
		return
	}

	if match.Params != nil {
		ctx = NewContextWithParams(ctx, match.Params)
	}

	match.Handler.ServeHTTP(w, r.WithContext(ctx))
}

func roleLevel(role string) AuthLevel {
	switch role {
	case models.RoleStaff:
		return AuthStaff
	case models.RoleBusiness:
		return AuthBusiness
	case models.RoleCustomer:
		return AuthCustomer
	default:
		return AuthNone
	}
}

// Rate limit key for anonymous callers: the peer address without port
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
