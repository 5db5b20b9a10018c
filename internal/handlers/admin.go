package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/apperrors"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/handlers/render"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/logger"
)

func handleListOrphans(reconciler reconcilerService, l logger.Logger) http.Handler {
	const op = "list-orphans"

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		orphans := make([]enrollmentResponse, 0)

		for enrollment, err := range reconciler.FindOrphanedEnrollments(r.Context()) {
			if err != nil {
				l.Error("Failed to scan orphaned enrollments", "error", err)
				render.OpError(w, op, "Internal server error", err, http.StatusInternalServerError)
				return
			}

			orphans = append(orphans, toEnrollmentResponse(enrollment))
		}

		render.JSON(w, orphans)
	})
}

func handleRepair(reconciler reconcilerService, l logger.Logger) http.Handler {
	type request struct {
		// Repair one enrollment, or sweep the whole orphan set when omitted.
		// A pointer keeps an explicit zero distinguishable from an absent field
		EnrollmentID *int64 `json:"enrollment_id"`
	}
	type response struct {
		Repaired int           `json:"repaired"`
		Card     *cardResponse `json:"card,omitempty"`
	}

	const op = "repair"

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Empty body is fine here and means a full sweep
		var data request
		if err := json.NewDecoder(r.Body).Decode(&data); err != nil && !errors.Is(err, io.EOF) {
			render.DecodeError(w, err)
			return
		}

		if data.EnrollmentID == nil {
			repaired, err := reconciler.RepairAll(r.Context())
			if err != nil {
				l.Error("Failed to repair orphaned enrollments", "error", err, "repaired", repaired)
				render.OpError(w, op, "Repair sweep failed", apperrors.ErrInconsistent, http.StatusInternalServerError)
				return
			}

			render.JSON(w, response{Repaired: repaired})
			return
		}

		if *data.EnrollmentID <= 0 {
			render.OpError(w, op, "enrollment_id must be a positive integer", apperrors.ErrInvalidID, http.StatusBadRequest)
			return
		}

		card, err := reconciler.Repair(r.Context(), *data.EnrollmentID)

		switch {
		case err == nil:
			cr := toCardResponse(card)
			render.JSON(w, response{Repaired: 1, Card: &cr})
		case errors.Is(err, apperrors.ErrEnrollmentNotFound):
			render.OpError(w, op, "Enrollment not found", err, http.StatusNotFound)
		case errors.Is(err, apperrors.ErrEnrollmentNotApproved):
			render.OpError(w, op, "Only approved enrollments can be repaired", err, http.StatusUnprocessableEntity)
		default:
			l.Error("Failed to repair enrollment", "error", err, "enrollment_id", *data.EnrollmentID)
			render.OpError(w, op, "Internal server error", err, http.StatusInternalServerError)
		}
	})
}

func handleProgramStats(analytics analyticsService, l logger.Logger) http.Handler {
	type programStats struct {
		ProgramID      int64           `json:"program_id"`
		CardCount      int64           `json:"card_count"`
		ActiveCards    int64           `json:"active_cards"`
		PointsIssued   int64           `json:"points_issued"`
		PointsRedeemed int64           `json:"points_redeemed"`
		Outstanding    int64           `json:"outstanding"`
		AverageBalance decimal.Decimal `json:"average_balance"`
		RedemptionRate decimal.Decimal `json:"redemption_rate"`
	}

	const op = "program-stats"

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stats, err := analytics.ProgramStats(r.Context())
		if err != nil {
			l.Error("Failed to compute program stats", "error", err)
			render.OpError(w, op, "Internal server error", err, http.StatusInternalServerError)
			return
		}

		response := make([]programStats, 0, len(stats))
		for _, s := range stats {
			response = append(response, programStats{
				ProgramID:      s.ProgramID,
				CardCount:      s.CardCount,
				ActiveCards:    s.ActiveCards,
				PointsIssued:   s.PointsIssued,
				PointsRedeemed: s.PointsRedeemed,
				Outstanding:    s.Outstanding,
				AverageBalance: s.AverageBalance,
				RedemptionRate: s.RedemptionRate,
			})
		}
		render.JSON(w, response)
	})
}
