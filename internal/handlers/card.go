package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/apperrors"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/gateway"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/handlers/render"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/logger"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/models"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/repository"
)

type cardResponse struct {
	ID         int64     `json:"id"`
	CustomerID int64     `json:"customer_id"`
	ProgramID  int64     `json:"program_id"`
	Points     int64     `json:"points"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

func toCardResponse(c models.Card) cardResponse {
	return cardResponse{
		ID:         c.ID,
		CustomerID: c.CustomerID,
		ProgramID:  c.ProgramID,
		Points:     c.Points,
		IsActive:   c.IsActive,
		CreatedAt:  c.CreatedAt,
	}
}

// idParam reads a path capture as int64
func idParam(r *http.Request, name string) (int64, error) {
	raw, ok := gateway.Param(r.Context(), name)
	if !ok {
		return 0, errors.New("missing path parameter: " + name)
	}

	return strconv.ParseInt(raw, 10, 64)
}

func handleGetCard(storage repository.Storage, l logger.Logger) http.Handler {
	const op = "get-card"

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cardID, err := idParam(r, "cardID")
		if err != nil {
			render.OpError(w, op, "Card id must be an integer", apperrors.ErrCardNotFound, http.StatusNotFound)
			return
		}

		card, err := storage.Cards().GetCard(r.Context(), cardID)

		switch {
		case err == nil:
			render.JSON(w, toCardResponse(card))
		case errors.Is(err, apperrors.ErrCardNotFound):
			render.OpError(w, op, "Card not found", err, http.StatusNotFound)
		default:
			l.Error("Failed to get card", "error", err, "card_id", cardID)
			render.OpError(w, op, "Internal server error", err, http.StatusInternalServerError)
		}
	})
}

func handleListCardActivities(storage repository.Storage, l logger.Logger) http.Handler {
	type activity struct {
		ID             int64     `json:"id"`
		ActivityType   string    `json:"activity_type"`
		Points         int64     `json:"points"`
		Description    string    `json:"description"`
		TransactionRef string    `json:"transaction_ref"`
		CreatedAt      time.Time `json:"created_at"`
	}

	const op = "list-card-activities"

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cardID, err := idParam(r, "cardID")
		if err != nil {
			render.OpError(w, op, "Card id must be an integer", apperrors.ErrCardNotFound, http.StatusNotFound)
			return
		}

		// Card existence checked first so an unknown card is a 404,
		// not an empty list
		if _, err := storage.Cards().GetCard(r.Context(), cardID); err != nil {
			if errors.Is(err, apperrors.ErrCardNotFound) {
				render.OpError(w, op, "Card not found", err, http.StatusNotFound)
				return
			}
			l.Error("Failed to get card", "error", err, "card_id", cardID)
			render.OpError(w, op, "Internal server error", err, http.StatusInternalServerError)
			return
		}

		activities, err := storage.Ledger().ListActivities(r.Context(), cardID)
		if err != nil {
			l.Error("Failed to list card activities", "error", err, "card_id", cardID)
			render.OpError(w, op, "Internal server error", err, http.StatusInternalServerError)
			return
		}

		response := make([]activity, 0, len(activities))
		for _, a := range activities {
			response = append(response, activity{
				ID:             a.ID,
				ActivityType:   a.ActivityType,
				Points:         a.Points,
				Description:    a.Description,
				TransactionRef: a.TransactionRef,
				CreatedAt:      a.CreatedAt,
			})
		}
		render.JSON(w, response)
	})
}

func handleListCustomerCards(storage repository.Storage, l logger.Logger) http.Handler {
	const op = "list-customer-cards"

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		customerID, err := idParam(r, "customerID")
		if err != nil {
			render.OpError(w, op, "Customer id must be an integer", apperrors.ErrUserNotFound, http.StatusNotFound)
			return
		}

		cards, err := storage.Cards().ListCustomerCards(r.Context(), customerID)
		if err != nil {
			l.Error("Failed to list customer cards", "error", err, "customer_id", customerID)
			render.OpError(w, op, "Internal server error", err, http.StatusInternalServerError)
			return
		}

		response := make([]cardResponse, 0, len(cards))
		for _, card := range cards {
			response = append(response, toCardResponse(card))
		}
		render.JSON(w, response)
	})
}
