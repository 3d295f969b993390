package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/carebridge/telehealth-scheduling/internal/schedule"
)

type CreateScheduleRequest struct {
	ScheduleType          string                   `json:"schedule_type" validate:"required,oneof=weekly specific_date"`
	WeeklySchedule        *schedule.WeeklySchedule `json:"weekly_schedule,omitempty"`
	SpecificDate          string                   `json:"specific_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	SpecificDaySchedule   *schedule.DaySchedule    `json:"specific_day_schedule,omitempty"`
	ConsultationDuration  int                      `json:"consultation_duration,omitempty" validate:"omitempty,min=15,max=120"`
	BufferTime            *int                     `json:"buffer_time,omitempty" validate:"omitempty,min=0,max=30"`
	ConsultationFee       float64                  `json:"consultation_fee,omitempty" validate:"omitempty,gte=0"`
	MaxAppointmentsPerDay int                      `json:"max_appointments_per_day,omitempty" validate:"omitempty,min=1,max=100"`
	AvailabilityMode      string                   `json:"availability_mode,omitempty" validate:"omitempty,oneof=online offline both"`
	EmergencyAvailable    bool                     `json:"emergency_available,omitempty"`
	EmergencyContact      string                   `json:"emergency_contact,omitempty"`
}

type UpdateScheduleRequest struct {
	WeeklySchedule        *schedule.WeeklySchedule `json:"weekly_schedule,omitempty"`
	SpecificDaySchedule   *schedule.DaySchedule    `json:"specific_day_schedule,omitempty"`
	ConsultationDuration  *int                     `json:"consultation_duration,omitempty" validate:"omitempty,min=15,max=120"`
	BufferTime            *int                     `json:"buffer_time,omitempty" validate:"omitempty,min=0,max=30"`
	ConsultationFee       *float64                 `json:"consultation_fee,omitempty" validate:"omitempty,gte=0"`
	MaxAppointmentsPerDay *int                     `json:"max_appointments_per_day,omitempty" validate:"omitempty,min=1,max=100"`
	AvailabilityMode      *string                  `json:"availability_mode,omitempty" validate:"omitempty,oneof=online offline both"`
	EmergencyAvailable    *bool                    `json:"emergency_available,omitempty"`
	EmergencyContact      *string                  `json:"emergency_contact,omitempty"`
}

type AddHolidayRequest struct {
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	Reason      string `json:"reason,omitempty"`
	IsRecurring bool   `json:"is_recurring,omitempty"`
}

type AddTemporaryChangeRequest struct {
	Date        string                `json:"date" validate:"required,datetime=2006-01-02"`
	ChangeType  string                `json:"change_type" validate:"required,oneof=unavailable modified_hours emergency_only"`
	ModifiedDay *schedule.DaySchedule `json:"modified_day,omitempty"`
	ExpiresAt   time.Time             `json:"expires_at" validate:"required"`
}

type CreateSlotRequestRequest struct {
	ScheduleID string `json:"schedule_id" validate:"required,uuid4"`
	SlotID     string `json:"slot_id" validate:"required,uuid4"`
}

type DecideSlotRequestRequest struct {
	Decision string `json:"decision" validate:"required,oneof=accepted rejected"`
}

type ScheduleResponse struct {
	ID                    uuid.UUID                `json:"id"`
	DoctorID              uuid.UUID                `json:"doctor_id"`
	ScheduleType          string                   `json:"schedule_type"`
	WeeklySchedule        *schedule.WeeklySchedule `json:"weekly_schedule,omitempty"`
	SpecificDate          string                   `json:"specific_date,omitempty"`
	SpecificDaySchedule   *schedule.DaySchedule    `json:"specific_day_schedule,omitempty"`
	ConsultationDuration  int                      `json:"consultation_duration"`
	BufferTime            int                      `json:"buffer_time"`
	ConsultationFee       float64                  `json:"consultation_fee"`
	MaxAppointmentsPerDay int                      `json:"max_appointments_per_day"`
	AvailabilityMode      string                   `json:"availability_mode"`
	EmergencyAvailable    bool                     `json:"emergency_available"`
	EmergencyContact      string                   `json:"emergency_contact,omitempty"`
	IsActive              bool                     `json:"is_active"`
	Stats                 schedule.ScheduleStats   `json:"stats"`
}

func toScheduleResponse(s *schedule.Schedule) ScheduleResponse {
	resp := ScheduleResponse{
		ID:                    s.ID,
		DoctorID:              s.DoctorID,
		ScheduleType:          string(s.Type),
		WeeklySchedule:        s.Weekly,
		SpecificDaySchedule:   s.SpecificDay,
		ConsultationDuration:  s.ConsultationDuration,
		BufferTime:            s.BufferTime,
		ConsultationFee:       s.ConsultationFee,
		MaxAppointmentsPerDay: s.MaxAppointmentsPerDay,
		AvailabilityMode:      string(s.AvailabilityMode),
		EmergencyAvailable:    s.EmergencyAvailable,
		EmergencyContact:      s.EmergencyContact,
		IsActive:              s.IsActive,
		Stats:                 s.Stats,
	}
	if s.SpecificDate != nil {
		resp.SpecificDate = s.SpecificDate.Format("2006-01-02")
	}
	return resp
}

type HolidayResponse struct {
	ID          uuid.UUID `json:"id"`
	ScheduleID  uuid.UUID `json:"schedule_id"`
	Date        string    `json:"date"`
	Reason      string    `json:"reason,omitempty"`
	IsRecurring bool      `json:"is_recurring"`
}

type TemporaryChangeResponse struct {
	ID         uuid.UUID `json:"id"`
	ScheduleID uuid.UUID `json:"schedule_id"`
	Date       string    `json:"date"`
	ChangeType string    `json:"change_type"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type SlotRequestResponse struct {
	ID            uuid.UUID `json:"id"`
	DoctorID      uuid.UUID `json:"doctor_id"`
	PatientID     uuid.UUID `json:"patient_id"`
	ScheduleID    uuid.UUID `json:"schedule_id"`
	SlotID        uuid.UUID `json:"slot_id"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	Fee           float64   `json:"fee"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
}

func toSlotRequestResponse(r *schedule.SlotRequest) SlotRequestResponse {
	return SlotRequestResponse{
		ID:            r.ID,
		DoctorID:      r.DoctorID,
		PatientID:     r.PatientID,
		ScheduleID:    r.ScheduleID,
		SlotID:        r.SlotID,
		Date:          r.Date.Format("2006-01-02"),
		Time:          r.Time,
		Fee:           r.Fee,
		Status:        string(r.Status),
		PaymentStatus: string(r.PaymentStatus),
	}
}

type AvailabilityResponse struct {
	DoctorID uuid.UUID                `json:"doctor_id"`
	Date     string                   `json:"date"`
	Slots    []schedule.AvailableSlot `json:"slots"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
