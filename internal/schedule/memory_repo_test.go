package schedule

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carebridge/telehealth-scheduling/internal/events"
)

// memRepo is an in-memory Repository with the same conditional-write
// semantics as the Postgres implementation: every slot and request
// transition checks the expected pre-state under one mutex, so concurrent
// callers contend exactly as they would on a conditional UPDATE.
type memRepo struct {
	mu        sync.Mutex
	doctors   map[uuid.UUID]Doctor
	patients  map[uuid.UUID]Patient
	schedules map[uuid.UUID]*Schedule
	slots     map[uuid.UUID]*Slot
	holidays  map[uuid.UUID][]Holiday
	changes   map[uuid.UUID][]TemporaryChange
	requests  map[uuid.UUID]*SlotRequest
	events    []EventLog
}

func newMemRepo() *memRepo {
	return &memRepo{
		doctors:   make(map[uuid.UUID]Doctor),
		patients:  make(map[uuid.UUID]Patient),
		schedules: make(map[uuid.UUID]*Schedule),
		slots:     make(map[uuid.UUID]*Slot),
		holidays:  make(map[uuid.UUID][]Holiday),
		changes:   make(map[uuid.UUID][]TemporaryChange),
		requests:  make(map[uuid.UUID]*SlotRequest),
	}
}

func (m *memRepo) addDoctor(d Doctor) { m.doctors[d.ID] = d }

func (m *memRepo) addPatient(p Patient) { m.patients[p.ID] = p }

func (m *memRepo) GetDoctorByID(_ context.Context, id uuid.UUID) (*Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.doctors[id]; ok {
		return &d, nil
	}
	return nil, ErrDoctorNotFound
}

func (m *memRepo) GetPatientByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.patients[id]; ok {
		return &p, nil
	}
	return nil, ErrPatientNotFound
}

func (m *memRepo) CreateSchedule(_ context.Context, s *Schedule, slots []Slot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.schedules {
		if existing.DoctorID == s.DoctorID && existing.Type == s.Type && existing.IsActive {
			return ErrDuplicateSchedule
		}
	}
	cp := *s
	m.schedules[s.ID] = &cp
	for i := range slots {
		sl := slots[i]
		m.slots[sl.ID] = &sl
	}
	return nil
}

func (m *memRepo) GetScheduleByID(_ context.Context, id uuid.UUID) (*Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.schedules[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, ErrScheduleNotFound
}

func (m *memRepo) ListActiveSchedulesByDoctor(_ context.Context, doctorID uuid.UUID) ([]Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Schedule
	for _, s := range m.schedules {
		if s.DoctorID == doctorID && s.IsActive {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memRepo) ReplaceScheduleDefinition(_ context.Context, s *Schedule, slots []Slot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schedules[s.ID]; !ok {
		return ErrScheduleNotFound
	}
	cp := *s
	m.schedules[s.ID] = &cp
	for id, sl := range m.slots {
		if sl.ScheduleID == s.ID && sl.Origin != OriginTemporary {
			delete(m.slots, id)
		}
	}
	for i := range slots {
		sl := slots[i]
		m.slots[sl.ID] = &sl
	}
	return nil
}

func (m *memRepo) UpdateScheduleSettings(_ context.Context, s *Schedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.schedules[s.ID]
	if !ok {
		return ErrScheduleNotFound
	}
	existing.ConsultationDuration = s.ConsultationDuration
	existing.BufferTime = s.BufferTime
	existing.ConsultationFee = s.ConsultationFee
	existing.MaxAppointmentsPerDay = s.MaxAppointmentsPerDay
	existing.AvailabilityMode = s.AvailabilityMode
	existing.EmergencyAvailable = s.EmergencyAvailable
	existing.EmergencyContact = s.EmergencyContact
	return nil
}

func (m *memRepo) DeactivateSchedule(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schedules[id]
	if !ok || !s.IsActive {
		return ErrScheduleNotFound
	}
	s.IsActive = false
	return nil
}

func (m *memRepo) HasBookedSlots(_ context.Context, scheduleID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sl := range m.slots {
		if sl.ScheduleID == scheduleID && sl.IsBooked {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) IncrementStat(_ context.Context, scheduleID uuid.UUID, stat StatCounter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schedules[scheduleID]
	if !ok {
		return ErrScheduleNotFound
	}
	switch stat {
	case StatTotal:
		s.Stats.TotalAppointments++
	case StatCompleted:
		s.Stats.CompletedAppointments++
	case StatCancelled:
		s.Stats.CancelledAppointments++
	case StatNoShow:
		s.Stats.NoShowAppointments++
	}
	return nil
}

func (m *memRepo) AddHoliday(_ context.Context, h *Holiday) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.holidays[h.ScheduleID] = append(m.holidays[h.ScheduleID], *h)
	return nil
}

func (m *memRepo) RemoveHoliday(_ context.Context, scheduleID, holidayID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.holidays[scheduleID]
	for i, h := range list {
		if h.ID == holidayID {
			m.holidays[scheduleID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return ErrHolidayNotFound
}

func (m *memRepo) ListHolidays(_ context.Context, scheduleID uuid.UUID) ([]Holiday, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Holiday(nil), m.holidays[scheduleID]...), nil
}

func (m *memRepo) AddTemporaryChange(_ context.Context, tc *TemporaryChange, slots []Slot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changes[tc.ScheduleID] = append(m.changes[tc.ScheduleID], *tc)
	for i := range slots {
		sl := slots[i]
		m.slots[sl.ID] = &sl
	}
	return nil
}

func (m *memRepo) ListTemporaryChanges(_ context.Context, scheduleID uuid.UUID) ([]TemporaryChange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]TemporaryChange(nil), m.changes[scheduleID]...), nil
}

func (m *memRepo) GetSlotByID(_ context.Context, id uuid.UUID) (*Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sl, ok := m.slots[id]; ok {
		cp := *sl
		return &cp, nil
	}
	return nil, ErrSlotNotFound
}

func (m *memRepo) ListWeeklySlots(_ context.Context, scheduleID uuid.UUID, day time.Weekday) ([]Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Slot
	for _, sl := range m.slots {
		if sl.ScheduleID == scheduleID && sl.Origin == OriginWeekly && sl.DayOfWeek != nil && *sl.DayOfWeek == day {
			out = append(out, *sl)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out, nil
}

func (m *memRepo) ListDatedSlots(_ context.Context, scheduleID uuid.UUID, origin SlotOrigin, date time.Time) ([]Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Slot
	for _, sl := range m.slots {
		if sl.ScheduleID == scheduleID && sl.Origin == origin && sl.SlotDate != nil && sameDate(*sl.SlotDate, date) {
			out = append(out, *sl)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out, nil
}

func (m *memRepo) ReserveSlot(_ context.Context, slotID, requestID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sl, ok := m.slots[slotID]
	if !ok {
		return ErrSlotNotFound
	}
	if sl.IsBooked || sl.RequestID != nil {
		return ErrSlotUnavailable
	}
	rid := requestID
	sl.RequestID = &rid
	return nil
}

func (m *memRepo) ConfirmSlot(_ context.Context, slotID, requestID, appointmentID, patientID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sl, ok := m.slots[slotID]
	if !ok {
		return ErrSlotNotFound
	}
	if sl.IsBooked || sl.RequestID == nil || *sl.RequestID != requestID {
		return ErrSlotUnavailable
	}
	aid, pid := appointmentID, patientID
	sl.IsBooked = true
	sl.AppointmentID = &aid
	sl.PatientID = &pid
	return nil
}

func (m *memRepo) ReleaseSlot(_ context.Context, slotID, requestID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sl, ok := m.slots[slotID]
	if !ok {
		return nil
	}
	if !sl.IsBooked && sl.RequestID != nil && *sl.RequestID == requestID {
		sl.RequestID = nil
	}
	return nil
}

func (m *memRepo) FreeSlot(_ context.Context, slotID, requestID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sl, ok := m.slots[slotID]
	if !ok {
		return ErrSlotNotFound
	}
	if !sl.IsBooked || sl.RequestID == nil || *sl.RequestID != requestID {
		return ErrSlotUnavailable
	}
	sl.IsBooked = false
	sl.AppointmentID = nil
	sl.PatientID = nil
	sl.RequestID = nil
	return nil
}

func (m *memRepo) CreateSlotRequest(_ context.Context, r *SlotRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	m.requests[r.ID] = &cp
	return nil
}

func (m *memRepo) GetSlotRequestByID(_ context.Context, id uuid.UUID) (*SlotRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.requests[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, ErrRequestNotFound
}

func (m *memRepo) UpdateRequestStatus(_ context.Context, id uuid.UUID, from, to RequestStatus) (*SlotRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, ErrRequestNotFound
	}
	if r.Status != from {
		return nil, ErrInvalidTransition
	}
	r.Status = to
	cp := *r
	return &cp, nil
}

func (m *memRepo) MarkRequestPaid(_ context.Context, id uuid.UUID) (*SlotRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, ErrRequestNotFound
	}
	if r.Status != RequestAccepted || r.PaymentStatus != PaymentUnpaid {
		return nil, ErrInvalidTransition
	}
	r.PaymentStatus = PaymentPaid
	cp := *r
	return &cp, nil
}

func (m *memRepo) CountActiveRequestsForDate(_ context.Context, scheduleID uuid.UUID, date time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.requests {
		if r.ScheduleID == scheduleID && sameDate(r.Date, date) &&
			(r.Status == RequestPending || r.Status == RequestAccepted) {
			n++
		}
	}
	return n, nil
}

func (m *memRepo) FindStalePending(_ context.Context, olderThan time.Time) ([]SlotRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []SlotRequest
	for _, r := range m.requests {
		if r.Status == RequestPending && r.CreatedAt.Before(olderThan) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memRepo) InsertEvent(_ context.Context, ev EventLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

// nopLocker runs the critical section without any distributed lock; the
// conditional writes alone must uphold at-most-one-booking.
type nopLocker struct{}

func (nopLocker) WithSlotLock(ctx context.Context, _ uuid.UUID, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// capturePublisher records published events for assertions.
type capturePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *capturePublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func (p *capturePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}
