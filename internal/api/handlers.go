package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/carebridge/telehealth-scheduling/internal/schedule"
)

type Handlers struct {
	schedules *schedule.Service
	booking   *schedule.Booking
	resolver  *schedule.Resolver
	validate  *validator.Validate
	log       *zap.Logger
}

func NewHandlers(schedules *schedule.Service, booking *schedule.Booking, resolver *schedule.Resolver, log *zap.Logger) *Handlers {
	return &Handlers{
		schedules: schedules,
		booking:   booking,
		resolver:  resolver,
		validate:  validator.New(),
		log:       log,
	}
}

// GET /doctors/{doctorID}/availability?date=YYYY-MM-DD

func (h *Handlers) GetAvailability(w http.ResponseWriter, r *http.Request) {
	doctorID, err := uuid.Parse(chi.URLParam(r, "doctorID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctorID must be a valid UUID")
		return
	}

	date, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
		return
	}

	slots, err := h.resolver.GetAvailableSlots(r.Context(), doctorID, date)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AvailabilityResponse{
		DoctorID: doctorID,
		Date:     date.Format("2006-01-02"),
		Slots:    slots,
	})
}

// POST /slot-requests

func (h *Handlers) CreateSlotRequest(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_principal", "authenticated principal required")
		return
	}

	var req CreateSlotRequestRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", err.Error())
		return
	}

	scheduleID, _ := uuid.Parse(req.ScheduleID)
	slotID, _ := uuid.Parse(req.SlotID)

	created, err := h.booking.RequestSlot(r.Context(), principal, scheduleID, slotID)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toSlotRequestResponse(created))
}

// GET /slot-requests/{id}

func (h *Handlers) GetSlotRequest(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_id", "id must be a valid UUID")
		return
	}

	req, err := h.booking.GetRequest(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSlotRequestResponse(req))
}

// PATCH /slot-requests/{id}

func (h *Handlers) DecideSlotRequest(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_principal", "authenticated principal required")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_id", "id must be a valid UUID")
		return
	}

	var req DecideSlotRequestRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", err.Error())
		return
	}

	updated, err := h.booking.DecideRequest(r.Context(), principal, id, schedule.RequestStatus(req.Decision))
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSlotRequestResponse(updated))
}

// POST /slot-requests/{id}/payment, called back by the payment gateway.

func (h *Handlers) MarkSlotRequestPaid(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_id", "id must be a valid UUID")
		return
	}

	req, err := h.booking.MarkRequestPaid(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSlotRequestResponse(req))
}

// POST /slot-requests/{id}/cancel

func (h *Handlers) CancelBooking(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_principal", "authenticated principal required")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_id", "id must be a valid UUID")
		return
	}

	req, err := h.booking.CancelBooking(r.Context(), principal, id)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSlotRequestResponse(req))
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}
