package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/apperrors"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/handlers/render"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/logger"
	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/models"
)

type enrollmentResponse struct {
	ID         int64      `json:"id"`
	CustomerID int64      `json:"customer_id"`
	ProgramID  int64      `json:"program_id"`
	Status     string     `json:"status"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`
}

func toEnrollmentResponse(e models.Enrollment) enrollmentResponse {
	return enrollmentResponse{
		ID:         e.ID,
		CustomerID: e.CustomerID,
		ProgramID:  e.ProgramID,
		Status:     e.Status,
		ApprovedAt: e.ApprovedAt,
	}
}

func handleEnroll(reconciler reconcilerService, l logger.Logger) http.Handler {
	type request struct {
		CustomerID int64 `json:"customer_id" validate:"required"`
		ProgramID  int64 `json:"program_id" validate:"required"`
	}

	const op = "enroll"

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		enrollment, err := reconciler.Enroll(r.Context(), data.CustomerID, data.ProgramID)

		switch {
		case err == nil:
			render.JSONWithStatus(w, toEnrollmentResponse(enrollment), http.StatusCreated)
		case errors.Is(err, apperrors.ErrAlreadyEnrolled):
			render.OpError(w, op, "Customer already enrolled in this program", err, http.StatusConflict)
		default:
			l.Error("Failed to create enrollment", "error", err)
			render.OpError(w, op, "Internal server error", err, http.StatusInternalServerError)
		}
	})
}

func handleApproveEnrollment(reconciler reconcilerService, l logger.Logger) http.Handler {
	type response struct {
		Enrollment enrollmentResponse `json:"enrollment"`
		Card       cardResponse       `json:"card"`
	}

	const op = "approve-enrollment"

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		enrollmentID, err := idParam(r, "enrollmentID")
		if err != nil {
			render.OpError(w, op, "Enrollment id must be an integer", apperrors.ErrEnrollmentNotFound, http.StatusNotFound)
			return
		}

		enrollment, card, err := reconciler.OnApprove(r.Context(), enrollmentID)

		switch {
		case err == nil:
			render.JSON(w, response{
				Enrollment: toEnrollmentResponse(enrollment),
				Card:       toCardResponse(card),
			})
		case errors.Is(err, apperrors.ErrEnrollmentNotFound):
			render.OpError(w, op, "Enrollment not found", err, http.StatusNotFound)
		case errors.Is(err, apperrors.ErrEnrollmentDeclined):
			render.OpError(w, op, "Enrollment was declined", err, http.StatusUnprocessableEntity)
		default:
			l.Error("Failed to approve enrollment", "error", err, "enrollment_id", enrollmentID)
			render.OpError(w, op, "Internal server error", err, http.StatusInternalServerError)
		}
	})
}

func handleDeclineEnrollment(reconciler reconcilerService, l logger.Logger) http.Handler {
	const op = "decline-enrollment"

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		enrollmentID, err := idParam(r, "enrollmentID")
		if err != nil {
			render.OpError(w, op, "Enrollment id must be an integer", apperrors.ErrEnrollmentNotFound, http.StatusNotFound)
			return
		}

		enrollment, err := reconciler.Decline(r.Context(), enrollmentID)

		switch {
		case err == nil:
			render.JSON(w, toEnrollmentResponse(enrollment))
		case errors.Is(err, apperrors.ErrEnrollmentNotFound):
			render.OpError(w, op, "Enrollment not found", err, http.StatusNotFound)
		case errors.Is(err, apperrors.ErrEnrollmentApproved):
			render.OpError(w, op, "Approved enrollment can not be declined", err, http.StatusConflict)
		default:
			l.Error("Failed to decline enrollment", "error", err, "enrollment_id", enrollmentID)
			render.OpError(w, op, "Internal server error", err, http.StatusInternalServerError)
		}
	})
}

func handleExitProgram(reconciler reconcilerService, l logger.Logger) http.Handler {
	type request struct {
		CustomerID int64 `json:"customer_id" validate:"required"`
		ProgramID  int64 `json:"program_id" validate:"required"`
	}

	const op = "exit-program"

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		card, err := reconciler.Exit(r.Context(), data.CustomerID, data.ProgramID)

		switch {
		case err == nil:
			render.JSON(w, toCardResponse(card))
		case errors.Is(err, apperrors.ErrCardNotFound):
			render.OpError(w, op, "No card for this customer and program", err, http.StatusNotFound)
		default:
			l.Error("Failed to exit program", "error", err)
			render.OpError(w, op, "Internal server error", err, http.StatusInternalServerError)
		}
	})
}
