package handlers

import (
	"errors"
	"net/http"

	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/apperrors"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/handlers/render"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/logger"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/models"
)

func handleRegister(authService authService, l logger.Logger) http.Handler {
	type request struct {
		Username string `json:"username" validate:"required,min=2,max=50"`
		Password string `json:"password" validate:"required,min=8"`
		Role     string `json:"role" validate:"omitempty,oneof=customer business"`
	}
	type response struct {
		AccessToken string `json:"access_token"`
	}

	const op = "register"

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		role := data.Role
		if role == "" {
			role = models.RoleCustomer
		}

		pair, err := authService.Register(r.Context(), data.Username, data.Password, role)

		switch {
		case err == nil:
			authService.SetTokens(w, pair)
			render.JSON(w, response{AccessToken: pair.Access.Value})
		case errors.Is(err, apperrors.ErrUserAlreadyExists):
			render.OpError(w, op, "User already exists", err, http.StatusConflict)
		default:
			l.Error("Failed to register user", "error", err)
			render.OpError(w, op, "Internal server error", err, http.StatusInternalServerError)
		}
	})
}

func handleLogin(authService authService, l logger.Logger) http.Handler {
	type request struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	type response struct {
		AccessToken string `json:"access_token"`
	}

	const op = "login"

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		pair, err := authService.Login(r.Context(), data.Username, data.Password)

		switch {
		case err == nil:
			authService.SetTokens(w, pair)
			render.JSON(w, response{AccessToken: pair.Access.Value})
		case errors.Is(err, apperrors.ErrUserNotFound):
			render.OpError(w, op, "Invalid username or password", apperrors.ErrUnauthorized, http.StatusUnauthorized)
		default:
			l.Error("Failed to login user", "error", err)
			render.OpError(w, op, "Internal server error", err, http.StatusInternalServerError)
		}
	})
}

func handleTokenRefresh(authService authService, l logger.Logger) http.Handler {
	type response struct {
		AccessToken string `json:"access_token"`
	}

	const op = "refresh"

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refresh, err := authService.GetRefresh(r)
		if err != nil {
			render.OpError(w, op, "Refresh token not found", err, http.StatusUnauthorized)
			return
		}

		pair, err := authService.Refresh(r.Context(), refresh)

		switch {
		case err == nil:
			authService.SetTokens(w, pair)
			render.JSON(w, response{AccessToken: pair.Access.Value})
		case errors.Is(err, apperrors.ErrRefreshTokenExpired):
			render.OpError(w, op, "Refresh token expired", err, http.StatusUnauthorized)
		case errors.Is(err, apperrors.ErrRefreshTokenIsUsed),
			errors.Is(err, apperrors.ErrRefreshTokenNotFound):
			render.OpError(w, op, "Refresh token not found", apperrors.ErrRefreshTokenNotFound, http.StatusUnauthorized)
		default:
			l.Error("Failed to refresh tokens", "error", err)
			render.OpError(w, op, "Internal server error", err, http.StatusInternalServerError)
		}
	})
}
