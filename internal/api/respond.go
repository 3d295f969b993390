package api

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"

	"github.com/carebridge/telehealth-scheduling/internal/schedule"
	redisclient "github.com/carebridge/telehealth-scheduling/internal/redis"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

// decode parses a JSON body into dst, rejecting unknown fields, then runs
// struct validation.
func decode(r *http.Request, validate *validator.Validate, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return validate.Struct(dst)
}

// handleDomainError maps core sentinel errors onto HTTP responses. Every
// error kind is request-scoped; nothing here is fatal to the process.
func handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, schedule.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, schedule.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, schedule.ErrScheduleNotFound):
		writeError(w, http.StatusNotFound, "schedule_not_found", err.Error())
	case errors.Is(err, schedule.ErrSlotNotFound):
		writeError(w, http.StatusNotFound, "slot_not_found", err.Error())
	case errors.Is(err, schedule.ErrRequestNotFound):
		writeError(w, http.StatusNotFound, "slot_request_not_found", err.Error())
	case errors.Is(err, schedule.ErrHolidayNotFound):
		writeError(w, http.StatusNotFound, "holiday_not_found", err.Error())
	case errors.Is(err, schedule.ErrSlotUnavailable):
		writeError(w, http.StatusConflict, "slot_unavailable", err.Error())
	case errors.Is(err, schedule.ErrSlotBeingBooked), errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")
	case errors.Is(err, schedule.ErrDuplicateSchedule):
		writeError(w, http.StatusConflict, "duplicate_active_schedule", err.Error())
	case errors.Is(err, schedule.ErrScheduleHasBookings):
		writeError(w, http.StatusConflict, "schedule_has_bookings", err.Error())
	case errors.Is(err, schedule.ErrDailyLimitReached):
		writeError(w, http.StatusConflict, "daily_limit_reached", err.Error())
	case errors.Is(err, schedule.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	case errors.Is(err, schedule.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, schedule.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
