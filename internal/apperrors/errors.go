package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")

	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenIsUsed   = errors.New("refresh token is used")
	ErrRefreshTokenExpired  = errors.New("refresh token is expired")

	ErrCardNotFound    = errors.New("card not found")
	ErrCardInactive    = errors.New("card is not active")
	ErrInvalidID       = errors.New("identifier must be a positive integer")
	ErrInvalidDelta    = errors.New("points delta must be a non-zero integer")
	ErrInvalidSource   = errors.New("unknown activity source")
	ErrBalanceNegative = errors.New("balance would go negative")

	ErrEnrollmentNotFound    = errors.New("enrollment not found")
	ErrEnrollmentNotApproved = errors.New("enrollment is not approved")
	ErrEnrollmentApproved    = errors.New("enrollment is already approved")
	ErrEnrollmentDeclined    = errors.New("enrollment is declined")
	ErrAlreadyEnrolled       = errors.New("customer already enrolled in program")

	ErrRouteNotFound    = errors.New("route not found")
	ErrMethodNotAllowed = errors.New("method not allowed")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrRateLimited      = errors.New("rate limited")

	ErrStoreUnavailable = errors.New("store unavailable")
	ErrInconsistent     = errors.New("state invariant violated")
)

// Code maps well known errors to stable machine readable codes
// Error responses must carry these codes, never raw store error text
func Code(err error) string {
	switch {
	case errors.Is(err, ErrCardNotFound),
		errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrEnrollmentNotFound),
		errors.Is(err, ErrRouteNotFound):
		return "not_found"
	case errors.Is(err, ErrUserAlreadyExists),
		errors.Is(err, ErrAlreadyEnrolled),
		errors.Is(err, ErrEnrollmentApproved):
		return "conflict"
	case errors.Is(err, ErrInvalidID),
		errors.Is(err, ErrInvalidDelta),
		errors.Is(err, ErrInvalidSource),
		errors.Is(err, ErrBalanceNegative),
		errors.Is(err, ErrCardInactive),
		errors.Is(err, ErrEnrollmentNotApproved),
		errors.Is(err, ErrEnrollmentDeclined):
		return "invalid_input"
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrRefreshTokenNotFound),
		errors.Is(err, ErrRefreshTokenIsUsed),
		errors.Is(err, ErrRefreshTokenExpired):
		return "unauthorized"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrMethodNotAllowed):
		return "method_not_allowed"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrStoreUnavailable):
		return "transient"
	case errors.Is(err, ErrInconsistent):
		return "inconsistent"
	default:
		return "internal"
	}
}
