package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEnv struct {
	repo     *memRepo
	svc      *Service
	booking  *Booking
	resolver *Resolver
	pub      *capturePublisher
	doctor   Doctor
	patient  Patient
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo := newMemRepo()
	doctor := Doctor{ID: uuid.New(), Name: "Dr. Okafor"}
	patient := Patient{ID: uuid.New(), Name: "Sam Alvarez"}
	repo.addDoctor(doctor)
	repo.addPatient(patient)

	pub := &capturePublisher{}
	log := zap.NewNop()
	defaults := Defaults{
		ConsultationDuration:  30,
		BufferTime:            5,
		MaxAppointmentsPerDay: 20,
		HolidayRecurrence:     RecurrenceAnnual,
	}

	return &testEnv{
		repo:     repo,
		svc:      NewService(repo, defaults, log),
		booking:  NewBooking(repo, nopLocker{}, pub, 15*time.Minute, log),
		resolver: NewResolver(repo, RecurrenceAnnual),
		pub:      pub,
		doctor:   doctor,
		patient:  patient,
	}
}

func (e *testEnv) asDoctor() Principal  { return Principal{ID: e.doctor.ID, Role: RoleDoctor} }
func (e *testEnv) asPatient() Principal { return Principal{ID: e.patient.ID, Role: RoleClient} }

// mondayTemplate is available Monday 09:00-10:00 only; with duration 30 and
// buffer 0 it materializes exactly two slots.
func mondayTemplate() *WeeklySchedule {
	var w WeeklySchedule
	w[time.Monday] = DaySchedule{IsAvailable: true, StartTime: "09:00", EndTime: "10:00"}
	return &w
}

func (e *testEnv) createWeekly(t *testing.T) *Schedule {
	t.Helper()
	zero := 0
	sched, err := e.svc.CreateSchedule(context.Background(), e.asDoctor(), CreateScheduleInput{
		Type:            TypeWeekly,
		Weekly:          mondayTemplate(),
		BufferTime:      &zero,
		ConsultationFee: 50,
	})
	require.NoError(t, err)
	return sched
}

func (e *testEnv) createDated(t *testing.T, date time.Time) *Schedule {
	t.Helper()
	zero := 0
	sched, err := e.svc.CreateSchedule(context.Background(), e.asDoctor(), CreateScheduleInput{
		Type:         TypeSpecificDate,
		SpecificDate: &date,
		SpecificDay:  &DaySchedule{IsAvailable: true, StartTime: "09:00", EndTime: "11:00"},
		BufferTime:   &zero,
	})
	require.NoError(t, err)
	return sched
}

func (e *testEnv) weeklySlots(t *testing.T, scheduleID uuid.UUID, day time.Weekday) []Slot {
	t.Helper()
	slots, err := e.repo.ListWeeklySlots(context.Background(), scheduleID, day)
	require.NoError(t, err)
	return slots
}

// bookSlot drives a slot all the way to accepted.
func (e *testEnv) bookSlot(t *testing.T, scheduleID, slotID uuid.UUID) *SlotRequest {
	t.Helper()
	ctx := context.Background()
	req, err := e.booking.RequestSlot(ctx, e.asPatient(), scheduleID, slotID)
	require.NoError(t, err)
	accepted, err := e.booking.DecideRequest(ctx, e.asDoctor(), req.ID, RequestAccepted)
	require.NoError(t, err)
	return accepted
}

func TestCreateSchedule(t *testing.T) {
	ctx := context.Background()

	t.Run("applies defaults and materializes slots", func(t *testing.T) {
		env := newTestEnv(t)
		sched, err := env.svc.CreateSchedule(ctx, env.asDoctor(), CreateScheduleInput{
			Type:   TypeWeekly,
			Weekly: mondayTemplate(),
		})
		require.NoError(t, err)
		assert.Equal(t, 30, sched.ConsultationDuration)
		assert.Equal(t, 5, sched.BufferTime)
		assert.Equal(t, 20, sched.MaxAppointmentsPerDay)
		assert.Equal(t, ModeBoth, sched.AvailabilityMode)
		assert.True(t, sched.IsActive)

		// 09:00-10:00 with 30+5 minute steps fits one slot.
		slots := env.weeklySlots(t, sched.ID, time.Monday)
		require.Len(t, slots, 1)
		assert.Equal(t, "09:00", slots[0].StartTime)
		assert.Equal(t, "09:30", slots[0].EndTime)
	})

	t.Run("explicit zero buffer is honored", func(t *testing.T) {
		env := newTestEnv(t)
		sched := env.createWeekly(t)
		assert.Equal(t, 0, sched.BufferTime)
		assert.Len(t, env.weeklySlots(t, sched.ID, time.Monday), 2)
	})

	t.Run("requires doctor role", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.svc.CreateSchedule(ctx, env.asPatient(), CreateScheduleInput{
			Type:   TypeWeekly,
			Weekly: mondayTemplate(),
		})
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("unknown doctor", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.svc.CreateSchedule(ctx, Principal{ID: uuid.New(), Role: RoleDoctor}, CreateScheduleInput{
			Type:   TypeWeekly,
			Weekly: mondayTemplate(),
		})
		assert.ErrorIs(t, err, ErrDoctorNotFound)
	})

	t.Run("second active schedule of same type conflicts", func(t *testing.T) {
		env := newTestEnv(t)
		env.createWeekly(t)
		_, err := env.svc.CreateSchedule(ctx, env.asDoctor(), CreateScheduleInput{
			Type:   TypeWeekly,
			Weekly: mondayTemplate(),
		})
		assert.ErrorIs(t, err, ErrDuplicateSchedule)
	})

	t.Run("deactivating frees the type for a new schedule", func(t *testing.T) {
		env := newTestEnv(t)
		first := env.createWeekly(t)
		require.NoError(t, env.svc.DeactivateSchedule(ctx, env.asDoctor(), first.ID))

		second, err := env.svc.CreateSchedule(ctx, env.asDoctor(), CreateScheduleInput{
			Type:   TypeWeekly,
			Weekly: mondayTemplate(),
		})
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, second.ID)
	})

	t.Run("weekly and specific_date can coexist", func(t *testing.T) {
		env := newTestEnv(t)
		env.createWeekly(t)
		date := time.Date(2026, time.September, 7, 0, 0, 0, 0, time.UTC)
		env.createDated(t, date)
	})

	t.Run("shape validation", func(t *testing.T) {
		env := newTestEnv(t)
		date := time.Now().AddDate(0, 0, 1)

		_, err := env.svc.CreateSchedule(ctx, env.asDoctor(), CreateScheduleInput{Type: TypeWeekly})
		assert.ErrorIs(t, err, ErrValidation)

		_, err = env.svc.CreateSchedule(ctx, env.asDoctor(), CreateScheduleInput{
			Type:         TypeWeekly,
			Weekly:       mondayTemplate(),
			SpecificDate: &date,
			SpecificDay:  &DaySchedule{IsAvailable: true, StartTime: "09:00", EndTime: "10:00"},
		})
		assert.ErrorIs(t, err, ErrValidation)

		_, err = env.svc.CreateSchedule(ctx, env.asDoctor(), CreateScheduleInput{Type: TypeSpecificDate})
		assert.ErrorIs(t, err, ErrValidation)

		_, err = env.svc.CreateSchedule(ctx, env.asDoctor(), CreateScheduleInput{Type: "fortnightly"})
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestUpdateSchedule(t *testing.T) {
	ctx := context.Background()

	t.Run("settings are always patchable", func(t *testing.T) {
		env := newTestEnv(t)
		sched := env.createWeekly(t)

		fee := 75.0
		maxPerDay := 5
		updated, err := env.svc.UpdateSchedule(ctx, env.asDoctor(), sched.ID, UpdateScheduleInput{
			ConsultationFee:       &fee,
			MaxAppointmentsPerDay: &maxPerDay,
		})
		require.NoError(t, err)
		assert.Equal(t, 75.0, updated.ConsultationFee)
		assert.Equal(t, 5, updated.MaxAppointmentsPerDay)

		stored, err := env.repo.GetScheduleByID(ctx, sched.ID)
		require.NoError(t, err)
		assert.Equal(t, 75.0, stored.ConsultationFee)
	})

	t.Run("duration and buffer bounds", func(t *testing.T) {
		env := newTestEnv(t)
		sched := env.createWeekly(t)

		bad := 10
		_, err := env.svc.UpdateSchedule(ctx, env.asDoctor(), sched.ID, UpdateScheduleInput{ConsultationDuration: &bad})
		assert.ErrorIs(t, err, ErrValidation)

		badBuf := 31
		_, err = env.svc.UpdateSchedule(ctx, env.asDoctor(), sched.ID, UpdateScheduleInput{BufferTime: &badBuf})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("structural patch re-materializes slots", func(t *testing.T) {
		env := newTestEnv(t)
		sched := env.createWeekly(t)
		require.Len(t, env.weeklySlots(t, sched.ID, time.Monday), 2)

		var wider WeeklySchedule
		wider[time.Monday] = DaySchedule{IsAvailable: true, StartTime: "09:00", EndTime: "12:00"}
		_, err := env.svc.UpdateSchedule(ctx, env.asDoctor(), sched.ID, UpdateScheduleInput{Weekly: &wider})
		require.NoError(t, err)

		assert.Len(t, env.weeklySlots(t, sched.ID, time.Monday), 6)
	})

	t.Run("structural patch refused while a slot is booked", func(t *testing.T) {
		env := newTestEnv(t)
		sched := env.createWeekly(t)
		slots := env.weeklySlots(t, sched.ID, time.Monday)
		env.bookSlot(t, sched.ID, slots[0].ID)

		var wider WeeklySchedule
		wider[time.Monday] = DaySchedule{IsAvailable: true, StartTime: "08:00", EndTime: "18:00"}
		_, err := env.svc.UpdateSchedule(ctx, env.asDoctor(), sched.ID, UpdateScheduleInput{Weekly: &wider})
		assert.ErrorIs(t, err, ErrScheduleHasBookings)

		// Stored template and slot set are untouched.
		stored, err := env.repo.GetScheduleByID(ctx, sched.ID)
		require.NoError(t, err)
		assert.Equal(t, mondayTemplate(), stored.Weekly)
		assert.Len(t, env.weeklySlots(t, sched.ID, time.Monday), 2)
	})

	t.Run("rejected combined patch persists nothing", func(t *testing.T) {
		env := newTestEnv(t)
		sched := env.createWeekly(t)
		slots := env.weeklySlots(t, sched.ID, time.Monday)
		env.bookSlot(t, sched.ID, slots[0].ID)

		var wider WeeklySchedule
		wider[time.Monday] = DaySchedule{IsAvailable: true, StartTime: "08:00", EndTime: "18:00"}
		fee := 200.0
		_, err := env.svc.UpdateSchedule(ctx, env.asDoctor(), sched.ID, UpdateScheduleInput{
			Weekly:          &wider,
			ConsultationFee: &fee,
		})
		assert.ErrorIs(t, err, ErrScheduleHasBookings)

		// The settings half of the patch was not applied either.
		stored, err := env.repo.GetScheduleByID(ctx, sched.ID)
		require.NoError(t, err)
		assert.Equal(t, 50.0, stored.ConsultationFee)
		assert.Equal(t, mondayTemplate(), stored.Weekly)
	})

	t.Run("template patch must match schedule type", func(t *testing.T) {
		env := newTestEnv(t)
		date := time.Date(2026, time.September, 7, 0, 0, 0, 0, time.UTC)
		sched := env.createDated(t, date)

		_, err := env.svc.UpdateSchedule(ctx, env.asDoctor(), sched.ID, UpdateScheduleInput{Weekly: mondayTemplate()})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("only the owning doctor may update", func(t *testing.T) {
		env := newTestEnv(t)
		sched := env.createWeekly(t)

		other := Doctor{ID: uuid.New(), Name: "Dr. Imposter"}
		env.repo.addDoctor(other)
		fee := 10.0
		_, err := env.svc.UpdateSchedule(ctx, Principal{ID: other.ID, Role: RoleDoctor}, sched.ID, UpdateScheduleInput{ConsultationFee: &fee})
		assert.ErrorIs(t, err, ErrUnauthorized)

		_, err = env.svc.UpdateSchedule(ctx, env.asPatient(), sched.ID, UpdateScheduleInput{ConsultationFee: &fee})
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("inactive schedule reads as not found", func(t *testing.T) {
		env := newTestEnv(t)
		sched := env.createWeekly(t)
		require.NoError(t, env.svc.DeactivateSchedule(ctx, env.asDoctor(), sched.ID))

		fee := 10.0
		_, err := env.svc.UpdateSchedule(ctx, env.asDoctor(), sched.ID, UpdateScheduleInput{ConsultationFee: &fee})
		assert.ErrorIs(t, err, ErrScheduleNotFound)
	})
}

func TestDeactivateSchedule(t *testing.T) {
	ctx := context.Background()

	t.Run("refused while a slot is booked", func(t *testing.T) {
		env := newTestEnv(t)
		sched := env.createWeekly(t)
		slots := env.weeklySlots(t, sched.ID, time.Monday)
		env.bookSlot(t, sched.ID, slots[0].ID)

		err := env.svc.DeactivateSchedule(ctx, env.asDoctor(), sched.ID)
		assert.ErrorIs(t, err, ErrScheduleHasBookings)

		stored, err := env.repo.GetScheduleByID(ctx, sched.ID)
		require.NoError(t, err)
		assert.True(t, stored.IsActive)
	})

	t.Run("allowed after the booking is cancelled", func(t *testing.T) {
		env := newTestEnv(t)
		sched := env.createWeekly(t)
		slots := env.weeklySlots(t, sched.ID, time.Monday)
		req := env.bookSlot(t, sched.ID, slots[0].ID)

		_, err := env.booking.CancelBooking(ctx, env.asPatient(), req.ID)
		require.NoError(t, err)

		require.NoError(t, env.svc.DeactivateSchedule(ctx, env.asDoctor(), sched.ID))
		stored, err := env.repo.GetScheduleByID(ctx, sched.ID)
		require.NoError(t, err)
		assert.False(t, stored.IsActive)
	})
}

func TestHolidays(t *testing.T) {
	ctx := context.Background()

	t.Run("add and remove", func(t *testing.T) {
		env := newTestEnv(t)
		sched := env.createWeekly(t)

		h, err := env.svc.AddHoliday(ctx, env.asDoctor(), sched.ID, time.Date(2026, time.December, 25, 0, 0, 0, 0, time.UTC), "clinic closed", true)
		require.NoError(t, err)

		list, err := env.repo.ListHolidays(ctx, sched.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)

		require.NoError(t, env.svc.RemoveHoliday(ctx, env.asDoctor(), sched.ID, h.ID))
		list, err = env.repo.ListHolidays(ctx, sched.ID)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("removing an unknown holiday", func(t *testing.T) {
		env := newTestEnv(t)
		sched := env.createWeekly(t)
		err := env.svc.RemoveHoliday(ctx, env.asDoctor(), sched.ID, uuid.New())
		assert.ErrorIs(t, err, ErrHolidayNotFound)
	})

	t.Run("allowed even while slots are booked", func(t *testing.T) {
		env := newTestEnv(t)
		sched := env.createWeekly(t)
		slots := env.weeklySlots(t, sched.ID, time.Monday)
		env.bookSlot(t, sched.ID, slots[0].ID)

		_, err := env.svc.AddHoliday(ctx, env.asDoctor(), sched.ID, time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC), "", false)
		assert.NoError(t, err)
	})
}

func TestAddTemporaryChange(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, time.September, 7, 0, 0, 0, 0, time.UTC)

	t.Run("must expire in the future", func(t *testing.T) {
		env := newTestEnv(t)
		sched := env.createWeekly(t)
		_, err := env.svc.AddTemporaryChange(ctx, env.asDoctor(), sched.ID, TemporaryChangeInput{
			Date:       date,
			ChangeType: ChangeUnavailable,
			ExpiresAt:  time.Now().Add(-time.Hour),
		})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("modified_hours requires a day definition", func(t *testing.T) {
		env := newTestEnv(t)
		sched := env.createWeekly(t)
		_, err := env.svc.AddTemporaryChange(ctx, env.asDoctor(), sched.ID, TemporaryChangeInput{
			Date:       date,
			ChangeType: ChangeModifiedHours,
			ExpiresAt:  time.Now().Add(time.Hour),
		})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("unknown change type", func(t *testing.T) {
		env := newTestEnv(t)
		sched := env.createWeekly(t)
		_, err := env.svc.AddTemporaryChange(ctx, env.asDoctor(), sched.ID, TemporaryChangeInput{
			Date:       date,
			ChangeType: "vacation",
			ExpiresAt:  time.Now().Add(time.Hour),
		})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("modified_hours materializes temporary slots", func(t *testing.T) {
		env := newTestEnv(t)
		sched := env.createWeekly(t)
		_, err := env.svc.AddTemporaryChange(ctx, env.asDoctor(), sched.ID, TemporaryChangeInput{
			Date:        date,
			ChangeType:  ChangeModifiedHours,
			ModifiedDay: &DaySchedule{IsAvailable: true, StartTime: "14:00", EndTime: "16:00"},
			ExpiresAt:   time.Now().Add(30 * 24 * time.Hour),
		})
		require.NoError(t, err)

		slots, err := env.repo.ListDatedSlots(ctx, sched.ID, OriginTemporary, date)
		require.NoError(t, err)
		require.Len(t, slots, 4)
		assert.Equal(t, "14:00", slots[0].StartTime)
		assert.Equal(t, "15:30", slots[3].StartTime)
	})
}
