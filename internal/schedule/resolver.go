package schedule

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Resolver answers "which slots can a client request from this doctor on
// this date". It layers holidays, temporary changes, the specific-date
// override and the weekly template in strict precedence order.
type Resolver struct {
	repo       Repository
	recurrence HolidayRecurrence
	now        func() time.Time
}

func NewResolver(repo Repository, recurrence HolidayRecurrence) *Resolver {
	return &Resolver{
		repo:       repo,
		recurrence: recurrence,
		now:        time.Now,
	}
}

// GetAvailableSlots resolves the bookable slots for (doctor, date).
// An empty result is a valid outcome, not an error: the doctor simply is
// not available that day.
//
// Precedence, highest first:
//  1. a matching holiday blanks the whole date
//  2. an unexpired `unavailable` or `emergency_only` temporary change
//     blanks the date (regular booking only; emergency contact handling is
//     the caller's concern)
//  3. an unexpired `modified_hours` change substitutes its own slot set
//  4. a specific_date schedule for the date, when its day is available,
//     replaces the weekly template
//  5. the weekly template's day, when available
func (r *Resolver) GetAvailableSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]AvailableSlot, error) {
	if _, err := r.repo.GetDoctorByID(ctx, doctorID); err != nil {
		return nil, err
	}

	schedules, err := r.repo.ListActiveSchedulesByDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if len(schedules) == 0 {
		return nil, nil
	}

	now := r.now()

	for i := range schedules {
		holidays, err := r.repo.ListHolidays(ctx, schedules[i].ID)
		if err != nil {
			return nil, err
		}
		for _, h := range holidays {
			if h.Matches(date, r.recurrence) {
				return nil, nil
			}
		}
	}

	var modifiedSchedule *Schedule
	for i := range schedules {
		changes, err := r.repo.ListTemporaryChanges(ctx, schedules[i].ID)
		if err != nil {
			return nil, err
		}
		for _, tc := range changes {
			if !tc.ActiveOn(date, now) {
				continue
			}
			switch tc.ChangeType {
			case ChangeUnavailable, ChangeEmergencyOnly:
				return nil, nil
			case ChangeModifiedHours:
				if modifiedSchedule == nil {
					modifiedSchedule = &schedules[i]
				}
			}
		}
	}

	if modifiedSchedule != nil {
		slots, err := r.repo.ListDatedSlots(ctx, modifiedSchedule.ID, OriginTemporary, date)
		if err != nil {
			return nil, err
		}
		return freeSlots(slots, modifiedSchedule.Type), nil
	}

	for i := range schedules {
		s := &schedules[i]
		if s.Type != TypeSpecificDate || s.SpecificDate == nil || !sameDate(*s.SpecificDate, date) {
			continue
		}
		if s.SpecificDay == nil || !s.SpecificDay.IsAvailable {
			// An unavailable override does not black out the date; the
			// weekly template below still applies.
			continue
		}
		slots, err := r.repo.ListDatedSlots(ctx, s.ID, OriginSpecificDate, date)
		if err != nil {
			return nil, err
		}
		return freeSlots(slots, s.Type), nil
	}

	for i := range schedules {
		s := &schedules[i]
		if s.Type != TypeWeekly || s.Weekly == nil {
			continue
		}
		if !s.Weekly[date.Weekday()].IsAvailable {
			return nil, nil
		}
		slots, err := r.repo.ListWeeklySlots(ctx, s.ID, date.Weekday())
		if err != nil {
			return nil, err
		}
		return freeSlots(slots, s.Type), nil
	}

	return nil, nil
}

// freeSlots drops booked slots and slots with a live pending request;
// neither is requestable.
func freeSlots(slots []Slot, provenance ScheduleType) []AvailableSlot {
	var out []AvailableSlot
	for _, s := range slots {
		if s.IsBooked || s.RequestID != nil {
			continue
		}
		out = append(out, AvailableSlot{
			SlotID:       s.ID,
			StartTime:    s.StartTime,
			EndTime:      s.EndTime,
			ScheduleType: provenance,
		})
	}
	return out
}
