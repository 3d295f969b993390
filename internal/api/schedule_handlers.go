package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/carebridge/telehealth-scheduling/internal/schedule"
)

// POST /schedules

func (h *Handlers) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_principal", "authenticated principal required")
		return
	}

	var req CreateScheduleRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", err.Error())
		return
	}

	in := schedule.CreateScheduleInput{
		Type:                  schedule.ScheduleType(req.ScheduleType),
		Weekly:                req.WeeklySchedule,
		SpecificDay:           req.SpecificDaySchedule,
		ConsultationDuration:  req.ConsultationDuration,
		BufferTime:            req.BufferTime,
		ConsultationFee:       req.ConsultationFee,
		MaxAppointmentsPerDay: req.MaxAppointmentsPerDay,
		AvailabilityMode:      schedule.AvailabilityMode(req.AvailabilityMode),
		EmergencyAvailable:    req.EmergencyAvailable,
		EmergencyContact:      req.EmergencyContact,
	}
	if req.SpecificDate != "" {
		date, err := parseDate(req.SpecificDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "specific_date must be YYYY-MM-DD")
			return
		}
		in.SpecificDate = &date
	}

	created, err := h.schedules.CreateSchedule(r.Context(), principal, in)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toScheduleResponse(created))
}

// GET /schedules/{id}

func (h *Handlers) GetSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_schedule_id", "id must be a valid UUID")
		return
	}

	sched, err := h.schedules.GetSchedule(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toScheduleResponse(sched))
}

// PATCH /schedules/{id}

func (h *Handlers) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_principal", "authenticated principal required")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_schedule_id", "id must be a valid UUID")
		return
	}

	var req UpdateScheduleRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", err.Error())
		return
	}

	in := schedule.UpdateScheduleInput{
		Weekly:                req.WeeklySchedule,
		SpecificDay:           req.SpecificDaySchedule,
		ConsultationDuration:  req.ConsultationDuration,
		BufferTime:            req.BufferTime,
		ConsultationFee:       req.ConsultationFee,
		MaxAppointmentsPerDay: req.MaxAppointmentsPerDay,
		EmergencyAvailable:    req.EmergencyAvailable,
		EmergencyContact:      req.EmergencyContact,
	}
	if req.AvailabilityMode != nil {
		mode := schedule.AvailabilityMode(*req.AvailabilityMode)
		in.AvailabilityMode = &mode
	}

	updated, err := h.schedules.UpdateSchedule(r.Context(), principal, id, in)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toScheduleResponse(updated))
}

// DELETE /schedules/{id} performs a soft delete.

func (h *Handlers) DeactivateSchedule(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_principal", "authenticated principal required")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_schedule_id", "id must be a valid UUID")
		return
	}

	if err := h.schedules.DeactivateSchedule(r.Context(), principal, id); err != nil {
		handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /schedules/{id}/holidays

func (h *Handlers) AddHoliday(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_principal", "authenticated principal required")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_schedule_id", "id must be a valid UUID")
		return
	}

	var req AddHolidayRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", err.Error())
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
		return
	}

	holiday, err := h.schedules.AddHoliday(r.Context(), principal, id, date, req.Reason, req.IsRecurring)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, HolidayResponse{
		ID:          holiday.ID,
		ScheduleID:  holiday.ScheduleID,
		Date:        holiday.Date.Format("2006-01-02"),
		Reason:      holiday.Reason,
		IsRecurring: holiday.IsRecurring,
	})
}

// DELETE /schedules/{id}/holidays/{holidayID}

func (h *Handlers) RemoveHoliday(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_principal", "authenticated principal required")
		return
	}

	scheduleID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_schedule_id", "id must be a valid UUID")
		return
	}
	holidayID, err := uuid.Parse(chi.URLParam(r, "holidayID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_holiday_id", "holidayID must be a valid UUID")
		return
	}

	if err := h.schedules.RemoveHoliday(r.Context(), principal, scheduleID, holidayID); err != nil {
		handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /schedules/{id}/temporary-changes

func (h *Handlers) AddTemporaryChange(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_principal", "authenticated principal required")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_schedule_id", "id must be a valid UUID")
		return
	}

	var req AddTemporaryChangeRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", err.Error())
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
		return
	}

	change, err := h.schedules.AddTemporaryChange(r.Context(), principal, id, schedule.TemporaryChangeInput{
		Date:        date,
		ChangeType:  schedule.ChangeType(req.ChangeType),
		ModifiedDay: req.ModifiedDay,
		ExpiresAt:   req.ExpiresAt,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, TemporaryChangeResponse{
		ID:         change.ID,
		ScheduleID: change.ScheduleID,
		Date:       change.Date.Format("2006-01-02"),
		ChangeType: string(change.ChangeType),
		ExpiresAt:  change.ExpiresAt,
	})
}
