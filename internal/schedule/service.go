package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrUnauthorized        = errors.New("principal is not allowed to perform this operation")
	ErrScheduleHasBookings = errors.New("schedule has booked slots")
)

// Defaults carries the documented fallbacks applied to schedule creation.
type Defaults struct {
	ConsultationDuration  int
	BufferTime            int
	MaxAppointmentsPerDay int
	HolidayRecurrence     HolidayRecurrence
}

// Service owns schedule definitions: creation, structural updates,
// deactivation, holidays and temporary changes. Slot booking lives in
// Booking; read-side resolution lives in Resolver.
type Service struct {
	repo     Repository
	defaults Defaults
	log      *zap.Logger
}

func NewService(repo Repository, defaults Defaults, log *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		defaults: defaults,
		log:      log,
	}
}

type CreateScheduleInput struct {
	Type                  ScheduleType
	Weekly                *WeeklySchedule
	SpecificDate          *time.Time
	SpecificDay           *DaySchedule
	ConsultationDuration  int  // 0 means default
	BufferTime            *int // nil means default
	ConsultationFee       float64
	MaxAppointmentsPerDay int // 0 means default
	AvailabilityMode      AvailabilityMode
	EmergencyAvailable    bool
	EmergencyContact      string
}

func (s *Service) CreateSchedule(ctx context.Context, principal Principal, in CreateScheduleInput) (*Schedule, error) {
	if principal.Role != RoleDoctor {
		return nil, ErrUnauthorized
	}
	if _, err := s.repo.GetDoctorByID(ctx, principal.ID); err != nil {
		return nil, err
	}

	sched := &Schedule{
		ID:                    uuid.New(),
		DoctorID:              principal.ID,
		Type:                  in.Type,
		Weekly:                in.Weekly,
		SpecificDate:          in.SpecificDate,
		SpecificDay:           in.SpecificDay,
		ConsultationDuration:  in.ConsultationDuration,
		ConsultationFee:       in.ConsultationFee,
		MaxAppointmentsPerDay: in.MaxAppointmentsPerDay,
		AvailabilityMode:      in.AvailabilityMode,
		EmergencyAvailable:    in.EmergencyAvailable,
		EmergencyContact:      in.EmergencyContact,
		IsActive:              true,
	}
	if sched.ConsultationDuration == 0 {
		sched.ConsultationDuration = s.defaults.ConsultationDuration
	}
	if in.BufferTime != nil {
		sched.BufferTime = *in.BufferTime
	} else {
		sched.BufferTime = s.defaults.BufferTime
	}
	if sched.MaxAppointmentsPerDay == 0 {
		sched.MaxAppointmentsPerDay = s.defaults.MaxAppointmentsPerDay
	}
	if sched.AvailabilityMode == "" {
		sched.AvailabilityMode = ModeBoth
	}

	if err := validateScheduleShape(sched); err != nil {
		return nil, err
	}

	slots, err := materializeSchedule(sched)
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreateSchedule(ctx, sched, slots); err != nil {
		return nil, err
	}

	s.log.Info("schedule created",
		zap.String("schedule_id", sched.ID.String()),
		zap.String("doctor_id", sched.DoctorID.String()),
		zap.String("type", string(sched.Type)),
		zap.Int("slots", len(slots)),
	)
	return sched, nil
}

func (s *Service) GetSchedule(ctx context.Context, id uuid.UUID) (*Schedule, error) {
	return s.repo.GetScheduleByID(ctx, id)
}

type UpdateScheduleInput struct {
	Weekly                *WeeklySchedule
	SpecificDay           *DaySchedule
	ConsultationDuration  *int
	BufferTime            *int
	ConsultationFee       *float64
	MaxAppointmentsPerDay *int
	AvailabilityMode      *AvailabilityMode
	EmergencyAvailable    *bool
	EmergencyContact      *string
}

func (in UpdateScheduleInput) structural() bool {
	return in.Weekly != nil || in.SpecificDay != nil
}

// UpdateSchedule patches a schedule. Structural fields (the weekly template
// or the specific-date day) are rejected with ErrScheduleHasBookings while
// any owned slot is booked, since applying them re-materializes the slot
// set. Everything else is always patchable.
func (s *Service) UpdateSchedule(ctx context.Context, principal Principal, scheduleID uuid.UUID, in UpdateScheduleInput) (*Schedule, error) {
	sched, err := s.ownedActiveSchedule(ctx, principal, scheduleID)
	if err != nil {
		return nil, err
	}

	if in.ConsultationDuration != nil {
		if *in.ConsultationDuration < MinConsultationDuration || *in.ConsultationDuration > MaxConsultationDuration {
			return nil, fmt.Errorf("%w: consultation duration %d outside %d-%d", ErrValidation, *in.ConsultationDuration, MinConsultationDuration, MaxConsultationDuration)
		}
		sched.ConsultationDuration = *in.ConsultationDuration
	}
	if in.BufferTime != nil {
		if *in.BufferTime < MinBufferTime || *in.BufferTime > MaxBufferTime {
			return nil, fmt.Errorf("%w: buffer %d outside %d-%d", ErrValidation, *in.BufferTime, MinBufferTime, MaxBufferTime)
		}
		sched.BufferTime = *in.BufferTime
	}
	if in.ConsultationFee != nil {
		sched.ConsultationFee = *in.ConsultationFee
	}
	if in.MaxAppointmentsPerDay != nil {
		if *in.MaxAppointmentsPerDay < 1 {
			return nil, fmt.Errorf("%w: max appointments per day must be positive", ErrValidation)
		}
		sched.MaxAppointmentsPerDay = *in.MaxAppointmentsPerDay
	}
	if in.AvailabilityMode != nil {
		sched.AvailabilityMode = *in.AvailabilityMode
	}
	if in.EmergencyAvailable != nil {
		sched.EmergencyAvailable = *in.EmergencyAvailable
	}
	if in.EmergencyContact != nil {
		sched.EmergencyContact = *in.EmergencyContact
	}

	// Validate and stage the structural part before persisting anything,
	// so a rejected patch leaves the schedule untouched.
	var newSlots []Slot
	if in.structural() {
		booked, err := s.repo.HasBookedSlots(ctx, scheduleID)
		if err != nil {
			return nil, err
		}
		if booked {
			return nil, ErrScheduleHasBookings
		}

		if in.Weekly != nil {
			if sched.Type != TypeWeekly {
				return nil, fmt.Errorf("%w: weekly template patch on a %s schedule", ErrValidation, sched.Type)
			}
			sched.Weekly = in.Weekly
		}
		if in.SpecificDay != nil {
			if sched.Type != TypeSpecificDate {
				return nil, fmt.Errorf("%w: specific-date patch on a %s schedule", ErrValidation, sched.Type)
			}
			sched.SpecificDay = in.SpecificDay
		}

		if err := validateScheduleShape(sched); err != nil {
			return nil, err
		}
		newSlots, err = materializeSchedule(sched)
		if err != nil {
			return nil, err
		}
	}

	if err := s.repo.UpdateScheduleSettings(ctx, sched); err != nil {
		return nil, err
	}

	if in.structural() {
		if err := s.repo.ReplaceScheduleDefinition(ctx, sched, newSlots); err != nil {
			return nil, err
		}
		s.log.Info("schedule definition replaced",
			zap.String("schedule_id", sched.ID.String()),
			zap.Int("slots", len(newSlots)),
		)
	}

	return sched, nil
}

// DeactivateSchedule soft-deletes a schedule. Refused while any owned slot
// is booked.
func (s *Service) DeactivateSchedule(ctx context.Context, principal Principal, scheduleID uuid.UUID) error {
	if _, err := s.ownedActiveSchedule(ctx, principal, scheduleID); err != nil {
		return err
	}

	booked, err := s.repo.HasBookedSlots(ctx, scheduleID)
	if err != nil {
		return err
	}
	if booked {
		return ErrScheduleHasBookings
	}

	if err := s.repo.DeactivateSchedule(ctx, scheduleID); err != nil {
		return err
	}
	s.log.Info("schedule deactivated", zap.String("schedule_id", scheduleID.String()))
	return nil
}

func (s *Service) AddHoliday(ctx context.Context, principal Principal, scheduleID uuid.UUID, date time.Time, reason string, recurring bool) (*Holiday, error) {
	if _, err := s.ownedActiveSchedule(ctx, principal, scheduleID); err != nil {
		return nil, err
	}

	h := &Holiday{
		ID:          uuid.New(),
		ScheduleID:  scheduleID,
		Date:        date,
		Reason:      reason,
		IsRecurring: recurring,
	}
	if err := s.repo.AddHoliday(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}

func (s *Service) RemoveHoliday(ctx context.Context, principal Principal, scheduleID, holidayID uuid.UUID) error {
	if _, err := s.ownedActiveSchedule(ctx, principal, scheduleID); err != nil {
		return err
	}
	return s.repo.RemoveHoliday(ctx, scheduleID, holidayID)
}

type TemporaryChangeInput struct {
	Date        time.Time
	ChangeType  ChangeType
	ModifiedDay *DaySchedule
	ExpiresAt   time.Time
}

func (s *Service) AddTemporaryChange(ctx context.Context, principal Principal, scheduleID uuid.UUID, in TemporaryChangeInput) (*TemporaryChange, error) {
	sched, err := s.ownedActiveSchedule(ctx, principal, scheduleID)
	if err != nil {
		return nil, err
	}

	if !in.ExpiresAt.After(time.Now()) {
		return nil, fmt.Errorf("%w: temporary change must expire in the future", ErrValidation)
	}
	switch in.ChangeType {
	case ChangeUnavailable, ChangeEmergencyOnly:
	case ChangeModifiedHours:
		if in.ModifiedDay == nil {
			return nil, fmt.Errorf("%w: modified_hours change requires a modified day definition", ErrValidation)
		}
	default:
		return nil, fmt.Errorf("%w: unknown change type %q", ErrValidation, in.ChangeType)
	}

	tc := &TemporaryChange{
		ID:          uuid.New(),
		ScheduleID:  scheduleID,
		Date:        in.Date,
		ChangeType:  in.ChangeType,
		ModifiedDay: in.ModifiedDay,
		ExpiresAt:   in.ExpiresAt,
	}

	var slots []Slot
	if in.ChangeType == ChangeModifiedHours {
		windows, err := materializeDay(*in.ModifiedDay, sched.ConsultationDuration, sched.BufferTime)
		if err != nil {
			return nil, err
		}
		date := in.Date
		for _, w := range windows {
			slots = append(slots, Slot{
				ID:         uuid.New(),
				ScheduleID: scheduleID,
				Origin:     OriginTemporary,
				SlotDate:   &date,
				StartTime:  w.StartTime,
				EndTime:    w.EndTime,
			})
		}
	}

	if err := s.repo.AddTemporaryChange(ctx, tc, slots); err != nil {
		return nil, err
	}
	s.log.Info("temporary change added",
		zap.String("schedule_id", scheduleID.String()),
		zap.String("change_type", string(in.ChangeType)),
		zap.Time("date", in.Date),
	)
	return tc, nil
}

func (s *Service) ownedActiveSchedule(ctx context.Context, principal Principal, scheduleID uuid.UUID) (*Schedule, error) {
	sched, err := s.repo.GetScheduleByID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if !sched.IsActive {
		return nil, ErrScheduleNotFound
	}
	if principal.Role != RoleDoctor || principal.ID != sched.DoctorID {
		return nil, ErrUnauthorized
	}
	return sched, nil
}

func validateScheduleShape(s *Schedule) error {
	switch s.Type {
	case TypeWeekly:
		if s.Weekly == nil {
			return fmt.Errorf("%w: weekly schedule requires a weekly template", ErrValidation)
		}
		if s.SpecificDate != nil || s.SpecificDay != nil {
			return fmt.Errorf("%w: weekly schedule cannot carry a specific date", ErrValidation)
		}
	case TypeSpecificDate:
		if s.SpecificDate == nil || s.SpecificDay == nil {
			return fmt.Errorf("%w: specific_date schedule requires a date and a day definition", ErrValidation)
		}
		if s.Weekly != nil {
			return fmt.Errorf("%w: specific_date schedule cannot carry a weekly template", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown schedule type %q", ErrValidation, s.Type)
	}
	return nil
}

// materializeSchedule generates the base slot rows for a schedule
// definition, each with a stable identity.
func materializeSchedule(s *Schedule) ([]Slot, error) {
	var slots []Slot

	switch s.Type {
	case TypeWeekly:
		for i := range s.Weekly {
			day := s.Weekly[i]
			windows, err := materializeDay(day, s.ConsultationDuration, s.BufferTime)
			if err != nil {
				return nil, fmt.Errorf("weekday %s: %w", time.Weekday(i), err)
			}
			wd := time.Weekday(i)
			for _, w := range windows {
				slots = append(slots, Slot{
					ID:         uuid.New(),
					ScheduleID: s.ID,
					Origin:     OriginWeekly,
					DayOfWeek:  &wd,
					StartTime:  w.StartTime,
					EndTime:    w.EndTime,
				})
			}
		}
	case TypeSpecificDate:
		windows, err := materializeDay(*s.SpecificDay, s.ConsultationDuration, s.BufferTime)
		if err != nil {
			return nil, err
		}
		for _, w := range windows {
			slots = append(slots, Slot{
				ID:         uuid.New(),
				ScheduleID: s.ID,
				Origin:     OriginSpecificDate,
				SlotDate:   s.SpecificDate,
				StartTime:  w.StartTime,
				EndTime:    w.EndTime,
			})
		}
	}

	return slots, nil
}
