package handlers

import (
	"errors"
	"net/http"

	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/apperrors"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/handlers/render"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/logger"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/service/award"
)

// One handler serves both the public award operation and the internal direct
// variant: same engine, same single write path, only the operation name in
// error payloads differs
func handleAwardPoints(op string, awardService awardService, l logger.Logger) http.Handler {
	type request struct {
		CardID      int64  `json:"card_id" validate:"required"`
		Points      int64  `json:"points" validate:"required"`
		Source      string `json:"source" validate:"required,oneof=manual purchase promotion correction test"`
		Description string `json:"description" validate:"max=500"`

		// Optional idempotency key, callers that retry must set it
		TransactionRef string `json:"transaction_ref" validate:"omitempty,max=128"`
	}
	type response struct {
		CardID         int64  `json:"card_id"`
		Balance        int64  `json:"balance"`
		TransactionRef string `json:"transaction_ref"`
		Applied        bool   `json:"applied"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		result, err := awardService.Award(r.Context(), award.AwardParams{
			CardID:         data.CardID,
			Delta:          data.Points,
			Source:         data.Source,
			Description:    data.Description,
			TransactionRef: data.TransactionRef,
		})

		switch {
		case err == nil:
			render.JSON(w, response{
				CardID:         result.Card.ID,
				Balance:        result.Card.Points,
				TransactionRef: result.Activity.TransactionRef,
				Applied:        result.Applied,
			})
		case errors.Is(err, apperrors.ErrCardNotFound):
			render.OpError(w, op, "Card not found", err, http.StatusNotFound)
		case errors.Is(err, apperrors.ErrCardInactive):
			render.OpError(w, op, "Card is not active", err, http.StatusUnprocessableEntity)
		case errors.Is(err, apperrors.ErrInvalidDelta),
			errors.Is(err, apperrors.ErrInvalidSource):
			render.OpError(w, op, "Invalid award request", err, http.StatusUnprocessableEntity)
		case errors.Is(err, apperrors.ErrBalanceNegative):
			render.OpError(w, op, "Insufficient balance", err, http.StatusPaymentRequired)
		case errors.Is(err, apperrors.ErrStoreUnavailable):
			l.Error("Store unavailable during award", "error", err, "card_id", data.CardID)
			render.OpError(w, op, "Temporary failure, retry with the same transaction_ref", err, http.StatusServiceUnavailable)
		default:
			l.Error("Failed to award points", "error", err, "card_id", data.CardID)
			render.OpError(w, op, "Internal server error", err, http.StatusInternalServerError)
		}
	})
}
