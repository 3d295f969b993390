package schedule

import (
	"time"

	"github.com/google/uuid"
)

type ScheduleType string

const (
	TypeWeekly       ScheduleType = "weekly"
	TypeSpecificDate ScheduleType = "specific_date"
)

type AvailabilityMode string

const (
	ModeOnline  AvailabilityMode = "online"
	ModeOffline AvailabilityMode = "offline"
	ModeBoth    AvailabilityMode = "both"
)

type ChangeType string

const (
	ChangeUnavailable   ChangeType = "unavailable"
	ChangeModifiedHours ChangeType = "modified_hours"
	ChangeEmergencyOnly ChangeType = "emergency_only"
)

// SlotOrigin records which availability layer a slot belongs to.
type SlotOrigin string

const (
	OriginWeekly       SlotOrigin = "weekly"
	OriginSpecificDate SlotOrigin = "specific_date"
	OriginTemporary    SlotOrigin = "temporary"
)

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestRejected RequestStatus = "rejected"
)

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

type Role string

const (
	RoleDoctor Role = "doctor"
	RoleClient Role = "client"
)

// Principal is the authenticated caller as supplied by the upstream
// identity service. The core trusts it and does not re-verify credentials.
type Principal struct {
	ID   uuid.UUID
	Role Role
}

// HolidayRecurrence selects how `isRecurring` holidays repeat.
type HolidayRecurrence string

const (
	RecurrenceAnnual HolidayRecurrence = "annual" // same month/day every year
	RecurrenceWeekly HolidayRecurrence = "weekly" // same weekday every week
)

// TimeWindow is a wall-clock interval, both ends formatted "HH:MM" (24h).
type TimeWindow struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// DaySchedule is the availability definition for a single day: one working
// window plus optional break windows that suppress slots inside them.
type DaySchedule struct {
	IsAvailable bool         `json:"is_available"`
	StartTime   string       `json:"start_time,omitempty"`
	EndTime     string       `json:"end_time,omitempty"`
	Breaks      []TimeWindow `json:"breaks,omitempty"`
}

// WeeklySchedule holds one DaySchedule per weekday, indexed by time.Weekday
// (Sunday = 0).
type WeeklySchedule [7]DaySchedule

type ScheduleStats struct {
	TotalAppointments     int `json:"total_appointments"`
	CompletedAppointments int `json:"completed_appointments"`
	CancelledAppointments int `json:"cancelled_appointments"`
	NoShowAppointments    int `json:"no_show_appointments"`
}

type Doctor struct {
	ID        uuid.UUID
	Name      string
	Specialty *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Patient struct {
	ID        uuid.UUID
	Name      string
	Email     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Schedule struct {
	ID                    uuid.UUID
	DoctorID              uuid.UUID
	Type                  ScheduleType
	Weekly                *WeeklySchedule
	SpecificDate          *time.Time
	SpecificDay           *DaySchedule
	ConsultationDuration  int // minutes, 15-120
	BufferTime            int // minutes, 0-30
	ConsultationFee       float64
	MaxAppointmentsPerDay int
	AvailabilityMode      AvailabilityMode
	EmergencyAvailable    bool
	EmergencyContact      string
	IsActive              bool
	Stats                 ScheduleStats
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Slot is a discrete bookable window owned by a schedule. It has a stable
// identity so in-flight requests survive structural edits elsewhere in the
// schedule. Invariant: IsBooked is true exactly when AppointmentID is set,
// and AppointmentID/PatientID are always set and cleared together.
type Slot struct {
	ID            uuid.UUID
	ScheduleID    uuid.UUID
	Origin        SlotOrigin
	DayOfWeek     *time.Weekday // set for weekly slots
	SlotDate      *time.Time    // set for specific-date and temporary slots
	StartTime     string
	EndTime       string
	IsBooked      bool
	RequestID     *uuid.UUID // pending request pointer
	AppointmentID *uuid.UUID
	PatientID     *uuid.UUID
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Holiday struct {
	ID          uuid.UUID
	ScheduleID  uuid.UUID
	Date        time.Time
	Reason      string
	IsRecurring bool
	CreatedAt   time.Time
}

// Matches reports whether the holiday blacks out the given date under the
// configured recurrence policy.
func (h Holiday) Matches(date time.Time, policy HolidayRecurrence) bool {
	if sameDate(h.Date, date) {
		return true
	}
	if !h.IsRecurring {
		return false
	}
	switch policy {
	case RecurrenceWeekly:
		return h.Date.Weekday() == date.Weekday()
	default:
		return h.Date.Month() == date.Month() && h.Date.Day() == date.Day()
	}
}

type TemporaryChange struct {
	ID          uuid.UUID
	ScheduleID  uuid.UUID
	Date        time.Time
	ChangeType  ChangeType
	ModifiedDay *DaySchedule
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

// ActiveOn reports whether the change applies to date and has not expired.
func (tc TemporaryChange) ActiveOn(date, now time.Time) bool {
	return sameDate(tc.Date, date) && now.Before(tc.ExpiresAt)
}

// SlotRequest is a client's in-flight claim on a slot. Date, Time and Fee
// are snapshots taken at request time so later schedule edits do not alter
// the request.
type SlotRequest struct {
	ID            uuid.UUID
	DoctorID      uuid.UUID
	PatientID     uuid.UUID
	ScheduleID    uuid.UUID
	SlotID        uuid.UUID
	Date          time.Time
	Time          string
	Fee           float64
	Status        RequestStatus
	PaymentStatus PaymentStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type EventLog struct {
	ID        int64
	EventType string
	RequestID *uuid.UUID
	Payload   []byte
	CreatedAt time.Time
}

// AvailableSlot is a resolver result: a free slot with its provenance.
type AvailableSlot struct {
	SlotID       uuid.UUID    `json:"slot_id"`
	StartTime    string       `json:"start_time"`
	EndTime      string       `json:"end_time"`
	ScheduleType ScheduleType `json:"schedule_type"`
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
