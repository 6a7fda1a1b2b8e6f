package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/hackgods/clinic-booking/internal/appointment"
)

// requestValidator checks the shape of decoded request bodies.
var requestValidator = appointment.NewValidator()

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

func writeValidation(w http.ResponseWriter, errs appointment.ValidationErrors) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:   "validation_failed",
		Details: errs.Error(),
		Fields:  errs,
	})
}

// handleServiceError maps booking errors onto HTTP statuses.
func handleServiceError(w http.ResponseWriter, err error) {
	var verrs appointment.ValidationErrors
	if errors.As(err, &verrs) {
		writeValidation(w, verrs)
		return
	}

	var rerr *appointment.RescheduleError
	if errors.As(err, &rerr) {
		status, _ := classify(rerr.Err)
		writeError(w, status, "reschedule_incomplete",
			fmt.Sprintf("appointment %s was canceled but the new booking failed: %v", rerr.Canceled.ID, rerr.Err))
		return
	}

	status, code := classify(err)
	writeError(w, status, code, err.Error())
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, appointment.ErrNotFound):
		return http.StatusNotFound, "appointment_not_found"
	case errors.Is(err, appointment.ErrSlotBeingBooked):
		return http.StatusConflict, "slot_being_booked"
	case errors.Is(err, appointment.ErrSlotAlreadyBooked):
		return http.StatusConflict, "slot_already_booked"
	case errors.Is(err, appointment.ErrInvalidTransition):
		return http.StatusConflict, "invalid_status_transition"
	case errors.Is(err, appointment.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "store_unavailable"
	default:
		var verrs appointment.ValidationErrors
		if errors.As(err, &verrs) {
			return http.StatusBadRequest, "validation_failed"
		}
		return http.StatusInternalServerError, "internal_error"
	}
}
