package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrDoctorNotFound    = errors.New("doctor not found")
	ErrPatientNotFound   = errors.New("patient not found")
	ErrScheduleNotFound  = errors.New("schedule not found")
	ErrSlotNotFound      = errors.New("slot not found")
	ErrRequestNotFound   = errors.New("slot request not found")
	ErrHolidayNotFound   = errors.New("holiday not found")
	ErrDuplicateSchedule = errors.New("doctor already has an active schedule of this type")
)

// StatCounter names a schedule stats column for monotonic increments.
type StatCounter string

const (
	StatTotal     StatCounter = "total_appointments"
	StatCompleted StatCounter = "completed_appointments"
	StatCancelled StatCounter = "cancelled_appointments"
	StatNoShow    StatCounter = "no_show_appointments"
)

// Repository contains all DB interactions needed by the scheduling core.
//
// The slot transition methods (ReserveSlot, ConfirmSlot, ReleaseSlot,
// FreeSlot) and the request CAS methods must each be a single conditional
// write: they succeed only when the row still matches the expected
// pre-state, so exactly one concurrent caller can win any given transition.
type Repository interface {
	GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)

	// Schedules. CreateSchedule persists the definition together with its
	// materialized slots and fails with ErrDuplicateSchedule if an active
	// schedule of the same type already exists for the doctor.
	CreateSchedule(ctx context.Context, s *Schedule, slots []Slot) error
	GetScheduleByID(ctx context.Context, id uuid.UUID) (*Schedule, error)
	ListActiveSchedulesByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Schedule, error)
	ReplaceScheduleDefinition(ctx context.Context, s *Schedule, slots []Slot) error
	UpdateScheduleSettings(ctx context.Context, s *Schedule) error
	DeactivateSchedule(ctx context.Context, id uuid.UUID) error
	HasBookedSlots(ctx context.Context, scheduleID uuid.UUID) (bool, error)
	IncrementStat(ctx context.Context, scheduleID uuid.UUID, stat StatCounter) error

	// Holidays and temporary changes.
	AddHoliday(ctx context.Context, h *Holiday) error
	RemoveHoliday(ctx context.Context, scheduleID, holidayID uuid.UUID) error
	ListHolidays(ctx context.Context, scheduleID uuid.UUID) ([]Holiday, error)
	AddTemporaryChange(ctx context.Context, tc *TemporaryChange, slots []Slot) error
	ListTemporaryChanges(ctx context.Context, scheduleID uuid.UUID) ([]TemporaryChange, error)

	// Slots.
	GetSlotByID(ctx context.Context, id uuid.UUID) (*Slot, error)
	ListWeeklySlots(ctx context.Context, scheduleID uuid.UUID, day time.Weekday) ([]Slot, error)
	ListDatedSlots(ctx context.Context, scheduleID uuid.UUID, origin SlotOrigin, date time.Time) ([]Slot, error)

	// Slot transitions (conditional writes).
	ReserveSlot(ctx context.Context, slotID, requestID uuid.UUID) error
	ConfirmSlot(ctx context.Context, slotID, requestID, appointmentID, patientID uuid.UUID) error
	ReleaseSlot(ctx context.Context, slotID, requestID uuid.UUID) error
	FreeSlot(ctx context.Context, slotID, requestID uuid.UUID) error

	// Slot requests.
	CreateSlotRequest(ctx context.Context, r *SlotRequest) error
	GetSlotRequestByID(ctx context.Context, id uuid.UUID) (*SlotRequest, error)
	UpdateRequestStatus(ctx context.Context, id uuid.UUID, from, to RequestStatus) (*SlotRequest, error)
	MarkRequestPaid(ctx context.Context, id uuid.UUID) (*SlotRequest, error)
	CountActiveRequestsForDate(ctx context.Context, scheduleID uuid.UUID, date time.Time) (int, error)
	FindStalePending(ctx context.Context, olderThan time.Time) ([]SlotRequest, error)

	// Event logging.
	InsertEvent(ctx context.Context, ev EventLog) error
}
