package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// withRetry re-issues fn once when the driver reports the failure happened
// before any data reached the server. Every write in this repository is a
// conditional update, so a duplicate attempt either still matches the
// expected pre-state or fails cleanly.
func withRetry(fn func() error) error {
	err := fn()
	if err != nil && pgconn.SafeToRetry(err) {
		return fn()
	}
	return err
}

// Scan helpers

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.Name, &d.Specialty, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}
	return &d, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.Name, &p.Email, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	return &p, nil
}

const scheduleColumns = `
	id, doctor_id, schedule_type, weekly_schedule, specific_date, specific_day,
	consultation_duration, buffer_time, consultation_fee, max_appointments_per_day,
	availability_mode, emergency_available, emergency_contact, is_active,
	total_appointments, completed_appointments, cancelled_appointments, no_show_appointments,
	created_at, updated_at`

func scanSchedule(row pgx.Row) (*Schedule, error) {
	var s Schedule
	var weekly, specificDay []byte

	err := row.Scan(
		&s.ID,
		&s.DoctorID,
		&s.Type,
		&weekly,
		&s.SpecificDate,
		&specificDay,
		&s.ConsultationDuration,
		&s.BufferTime,
		&s.ConsultationFee,
		&s.MaxAppointmentsPerDay,
		&s.AvailabilityMode,
		&s.EmergencyAvailable,
		&s.EmergencyContact,
		&s.IsActive,
		&s.Stats.TotalAppointments,
		&s.Stats.CompletedAppointments,
		&s.Stats.CancelledAppointments,
		&s.Stats.NoShowAppointments,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}

	if len(weekly) > 0 {
		var w WeeklySchedule
		if err := json.Unmarshal(weekly, &w); err != nil {
			return nil, fmt.Errorf("decode weekly schedule: %w", err)
		}
		s.Weekly = &w
	}
	if len(specificDay) > 0 {
		var d DaySchedule
		if err := json.Unmarshal(specificDay, &d); err != nil {
			return nil, fmt.Errorf("decode specific day: %w", err)
		}
		s.SpecificDay = &d
	}
	return &s, nil
}

const slotColumns = `
	id, schedule_id, origin, day_of_week, slot_date, start_time, end_time,
	is_booked, request_id, appointment_id, patient_id, created_at, updated_at`

func scanSlot(row pgx.Row) (*Slot, error) {
	var s Slot
	var dow *int

	err := row.Scan(
		&s.ID,
		&s.ScheduleID,
		&s.Origin,
		&dow,
		&s.SlotDate,
		&s.StartTime,
		&s.EndTime,
		&s.IsBooked,
		&s.RequestID,
		&s.AppointmentID,
		&s.PatientID,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	if dow != nil {
		wd := time.Weekday(*dow)
		s.DayOfWeek = &wd
	}
	return &s, nil
}

const requestColumns = `
	id, doctor_id, patient_id, schedule_id, slot_id, requested_date, requested_time,
	fee, status, payment_status, created_at, updated_at`

func scanRequest(row pgx.Row) (*SlotRequest, error) {
	var r SlotRequest
	err := row.Scan(
		&r.ID,
		&r.DoctorID,
		&r.PatientID,
		&r.ScheduleID,
		&r.SlotID,
		&r.Date,
		&r.Time,
		&r.Fee,
		&r.Status,
		&r.PaymentStatus,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return &r, nil
}

// Doctors and patients

func (r *PgRepository) GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, specialty, created_at, updated_at
		FROM doctors
		WHERE id = $1
	`, id)
	return scanDoctor(row)
}

func (r *PgRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, email, created_at, updated_at
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

// Schedules

func (r *PgRepository) CreateSchedule(ctx context.Context, s *Schedule, slots []Slot) error {
	weekly, specificDay, err := encodeDefinition(s)
	if err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO schedules (
			id, doctor_id, schedule_type, weekly_schedule, specific_date, specific_day,
			consultation_duration, buffer_time, consultation_fee, max_appointments_per_day,
			availability_mode, emergency_available, emergency_contact, is_active,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, true, now(), now())
	`,
		s.ID, s.DoctorID, s.Type, weekly, s.SpecificDate, specificDay,
		s.ConsultationDuration, s.BufferTime, s.ConsultationFee, s.MaxAppointmentsPerDay,
		s.AvailabilityMode, s.EmergencyAvailable, s.EmergencyContact,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateSchedule
		}
		return fmt.Errorf("insert schedule: %w", err)
	}

	if err := insertSlots(ctx, tx, slots); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PgRepository) GetScheduleByID(ctx context.Context, id uuid.UUID) (*Schedule, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE id = $1`, id)
	return scanSchedule(row)
}

func (r *PgRepository) ListActiveSchedulesByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Schedule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+scheduleColumns+`
		FROM schedules
		WHERE doctor_id = $1 AND is_active = true
		ORDER BY created_at
	`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}

// ReplaceScheduleDefinition swaps the structural definition and its base
// slots. Temporary-change slots are left alone; they belong to their change
// records. The caller guards against live bookings first.
func (r *PgRepository) ReplaceScheduleDefinition(ctx context.Context, s *Schedule, slots []Slot) error {
	weekly, specificDay, err := encodeDefinition(s)
	if err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE schedules
		SET weekly_schedule = $2,
		    specific_date = $3,
		    specific_day = $4,
		    consultation_duration = $5,
		    buffer_time = $6,
		    updated_at = now()
		WHERE id = $1
	`, s.ID, weekly, s.SpecificDate, specificDay, s.ConsultationDuration, s.BufferTime)
	if err != nil {
		return fmt.Errorf("update schedule definition: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrScheduleNotFound
	}

	_, err = tx.Exec(ctx, `
		DELETE FROM schedule_slots
		WHERE schedule_id = $1 AND origin != 'temporary'
	`, s.ID)
	if err != nil {
		return fmt.Errorf("delete base slots: %w", err)
	}

	if err := insertSlots(ctx, tx, slots); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PgRepository) UpdateScheduleSettings(ctx context.Context, s *Schedule) error {
	return withRetry(func() error {
		tag, err := r.pool.Exec(ctx, `
			UPDATE schedules
			SET consultation_duration = $2,
			    buffer_time = $3,
			    consultation_fee = $4,
			    max_appointments_per_day = $5,
			    availability_mode = $6,
			    emergency_available = $7,
			    emergency_contact = $8,
			    updated_at = now()
			WHERE id = $1
		`, s.ID, s.ConsultationDuration, s.BufferTime, s.ConsultationFee, s.MaxAppointmentsPerDay, s.AvailabilityMode, s.EmergencyAvailable, s.EmergencyContact)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrScheduleNotFound
		}
		return nil
	})
}

func (r *PgRepository) DeactivateSchedule(ctx context.Context, id uuid.UUID) error {
	return withRetry(func() error {
		tag, err := r.pool.Exec(ctx, `
			UPDATE schedules
			SET is_active = false, updated_at = now()
			WHERE id = $1 AND is_active = true
		`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrScheduleNotFound
		}
		return nil
	})
}

func (r *PgRepository) HasBookedSlots(ctx context.Context, scheduleID uuid.UUID) (bool, error) {
	var booked bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM schedule_slots
			WHERE schedule_id = $1 AND is_booked = true
		)
	`, scheduleID).Scan(&booked)
	return booked, err
}

func (r *PgRepository) IncrementStat(ctx context.Context, scheduleID uuid.UUID, stat StatCounter) error {
	switch stat {
	case StatTotal, StatCompleted, StatCancelled, StatNoShow:
	default:
		return fmt.Errorf("unknown stat counter %q", stat)
	}
	return withRetry(func() error {
		query := fmt.Sprintf(`UPDATE schedules SET %s = %s + 1, updated_at = now() WHERE id = $1`, stat, stat)
		tag, err := r.pool.Exec(ctx, query, scheduleID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrScheduleNotFound
		}
		return nil
	})
}

// Holidays and temporary changes

func (r *PgRepository) AddHoliday(ctx context.Context, h *Holiday) error {
	return withRetry(func() error {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO holidays (id, schedule_id, holiday_date, reason, is_recurring, created_at)
			VALUES ($1, $2, $3, $4, $5, now())
		`, h.ID, h.ScheduleID, h.Date, h.Reason, h.IsRecurring)
		return err
	})
}

func (r *PgRepository) RemoveHoliday(ctx context.Context, scheduleID, holidayID uuid.UUID) error {
	return withRetry(func() error {
		tag, err := r.pool.Exec(ctx, `
			DELETE FROM holidays WHERE id = $1 AND schedule_id = $2
		`, holidayID, scheduleID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrHolidayNotFound
		}
		return nil
	})
}

func (r *PgRepository) ListHolidays(ctx context.Context, scheduleID uuid.UUID) ([]Holiday, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, schedule_id, holiday_date, reason, is_recurring, created_at
		FROM holidays
		WHERE schedule_id = $1
	`, scheduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Holiday
	for rows.Next() {
		var h Holiday
		if err := rows.Scan(&h.ID, &h.ScheduleID, &h.Date, &h.Reason, &h.IsRecurring, &h.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, h)
	}
	return result, rows.Err()
}

func (r *PgRepository) AddTemporaryChange(ctx context.Context, tc *TemporaryChange, slots []Slot) error {
	var modified []byte
	if tc.ModifiedDay != nil {
		var err error
		modified, err = json.Marshal(tc.ModifiedDay)
		if err != nil {
			return fmt.Errorf("encode modified day: %w", err)
		}
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO temporary_changes (id, schedule_id, change_date, change_type, modified_day, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
	`, tc.ID, tc.ScheduleID, tc.Date, tc.ChangeType, modified, tc.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert temporary change: %w", err)
	}

	if err := insertSlots(ctx, tx, slots); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PgRepository) ListTemporaryChanges(ctx context.Context, scheduleID uuid.UUID) ([]TemporaryChange, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, schedule_id, change_date, change_type, modified_day, expires_at, created_at
		FROM temporary_changes
		WHERE schedule_id = $1
	`, scheduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []TemporaryChange
	for rows.Next() {
		var tc TemporaryChange
		var modified []byte
		if err := rows.Scan(&tc.ID, &tc.ScheduleID, &tc.Date, &tc.ChangeType, &modified, &tc.ExpiresAt, &tc.CreatedAt); err != nil {
			return nil, err
		}
		if len(modified) > 0 {
			var d DaySchedule
			if err := json.Unmarshal(modified, &d); err != nil {
				return nil, fmt.Errorf("decode modified day: %w", err)
			}
			tc.ModifiedDay = &d
		}
		result = append(result, tc)
	}
	return result, rows.Err()
}

// Slots

func (r *PgRepository) GetSlotByID(ctx context.Context, id uuid.UUID) (*Slot, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+slotColumns+` FROM schedule_slots WHERE id = $1`, id)
	return scanSlot(row)
}

func (r *PgRepository) ListWeeklySlots(ctx context.Context, scheduleID uuid.UUID, day time.Weekday) ([]Slot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+slotColumns+`
		FROM schedule_slots
		WHERE schedule_id = $1 AND origin = 'weekly' AND day_of_week = $2
		ORDER BY start_time
	`, scheduleID, int(day))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSlots(rows)
}

func (r *PgRepository) ListDatedSlots(ctx context.Context, scheduleID uuid.UUID, origin SlotOrigin, date time.Time) ([]Slot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+slotColumns+`
		FROM schedule_slots
		WHERE schedule_id = $1 AND origin = $2 AND slot_date = $3
		ORDER BY start_time
	`, scheduleID, origin, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSlots(rows)
}

func collectSlots(rows pgx.Rows) ([]Slot, error) {
	var result []Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}

// Slot transitions. Each is a single conditional update: the WHERE clause
// names the exact pre-state, so of any number of concurrent callers at most
// one sees RowsAffected == 1.

func (r *PgRepository) ReserveSlot(ctx context.Context, slotID, requestID uuid.UUID) error {
	return withRetry(func() error {
		tag, err := r.pool.Exec(ctx, `
			UPDATE schedule_slots
			SET request_id = $2, updated_at = now()
			WHERE id = $1 AND is_booked = false AND request_id IS NULL
		`, slotID, requestID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return r.slotMissOrUnavailable(ctx, slotID)
		}
		return nil
	})
}

func (r *PgRepository) ConfirmSlot(ctx context.Context, slotID, requestID, appointmentID, patientID uuid.UUID) error {
	return withRetry(func() error {
		tag, err := r.pool.Exec(ctx, `
			UPDATE schedule_slots
			SET is_booked = true, appointment_id = $3, patient_id = $4, updated_at = now()
			WHERE id = $1 AND request_id = $2 AND is_booked = false
		`, slotID, requestID, appointmentID, patientID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return r.slotMissOrUnavailable(ctx, slotID)
		}
		return nil
	})
}

func (r *PgRepository) ReleaseSlot(ctx context.Context, slotID, requestID uuid.UUID) error {
	return withRetry(func() error {
		// Releasing an already-released slot is a no-op: the pointer guard
		// makes a duplicate release match zero rows.
		_, err := r.pool.Exec(ctx, `
			UPDATE schedule_slots
			SET request_id = NULL, updated_at = now()
			WHERE id = $1 AND request_id = $2 AND is_booked = false
		`, slotID, requestID)
		return err
	})
}

func (r *PgRepository) FreeSlot(ctx context.Context, slotID, requestID uuid.UUID) error {
	return withRetry(func() error {
		tag, err := r.pool.Exec(ctx, `
			UPDATE schedule_slots
			SET is_booked = false, appointment_id = NULL, patient_id = NULL, request_id = NULL, updated_at = now()
			WHERE id = $1 AND request_id = $2 AND is_booked = true
		`, slotID, requestID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return r.slotMissOrUnavailable(ctx, slotID)
		}
		return nil
	})
}

func (r *PgRepository) slotMissOrUnavailable(ctx context.Context, slotID uuid.UUID) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM schedule_slots WHERE id = $1)
	`, slotID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrSlotNotFound
	}
	return ErrSlotUnavailable
}

// Slot requests

func (r *PgRepository) CreateSlotRequest(ctx context.Context, req *SlotRequest) error {
	return withRetry(func() error {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO slot_requests (
				id, doctor_id, patient_id, schedule_id, slot_id,
				requested_date, requested_time, fee, status, payment_status,
				created_at, updated_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'pending', 'unpaid', now(), now())
		`, req.ID, req.DoctorID, req.PatientID, req.ScheduleID, req.SlotID,
			req.Date, req.Time, req.Fee)
		return err
	})
}

func (r *PgRepository) GetSlotRequestByID(ctx context.Context, id uuid.UUID) (*SlotRequest, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+requestColumns+` FROM slot_requests WHERE id = $1`, id)
	return scanRequest(row)
}

func (r *PgRepository) UpdateRequestStatus(ctx context.Context, id uuid.UUID, from, to RequestStatus) (*SlotRequest, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE slot_requests
		SET status = $2, updated_at = now()
		WHERE id = $1 AND status = $3
		RETURNING `+requestColumns, id, to, from)

	req, err := scanRequest(row)
	if errors.Is(err, ErrRequestNotFound) {
		// Distinguish a missing request from a lost CAS.
		if _, getErr := r.GetSlotRequestByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, ErrInvalidTransition
	}
	return req, err
}

func (r *PgRepository) MarkRequestPaid(ctx context.Context, id uuid.UUID) (*SlotRequest, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE slot_requests
		SET payment_status = 'paid', updated_at = now()
		WHERE id = $1 AND status = 'accepted' AND payment_status = 'unpaid'
		RETURNING `+requestColumns, id)

	req, err := scanRequest(row)
	if errors.Is(err, ErrRequestNotFound) {
		if _, getErr := r.GetSlotRequestByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, ErrInvalidTransition
	}
	return req, err
}

func (r *PgRepository) CountActiveRequestsForDate(ctx context.Context, scheduleID uuid.UUID, date time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM slot_requests
		WHERE schedule_id = $1 AND requested_date = $2 AND status IN ('pending', 'accepted')
	`, scheduleID, date).Scan(&n)
	return n, err
}

func (r *PgRepository) FindStalePending(ctx context.Context, olderThan time.Time) ([]SlotRequest, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+requestColumns+`
		FROM slot_requests
		WHERE status = 'pending' AND created_at < $1
	`, olderThan)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []SlotRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *req)
	}
	return result, rows.Err()
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	return withRetry(func() error {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO event_logs (event_type, request_id, payload, created_at)
			VALUES ($1, $2, $3, COALESCE($4, now()))
		`, ev.EventType, ev.RequestID, ev.Payload, nullableTime(ev.CreatedAt))
		if err != nil {
			return fmt.Errorf("insert event log: %w", err)
		}
		return nil
	})
}

// Shared helpers

func encodeDefinition(s *Schedule) (weekly, specificDay []byte, err error) {
	if s.Weekly != nil {
		weekly, err = json.Marshal(s.Weekly)
		if err != nil {
			return nil, nil, fmt.Errorf("encode weekly schedule: %w", err)
		}
	}
	if s.SpecificDay != nil {
		specificDay, err = json.Marshal(s.SpecificDay)
		if err != nil {
			return nil, nil, fmt.Errorf("encode specific day: %w", err)
		}
	}
	return weekly, specificDay, nil
}

func insertSlots(ctx context.Context, tx pgx.Tx, slots []Slot) error {
	for _, sl := range slots {
		var dow *int
		if sl.DayOfWeek != nil {
			d := int(*sl.DayOfWeek)
			dow = &d
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO schedule_slots (
				id, schedule_id, origin, day_of_week, slot_date,
				start_time, end_time, is_booked, created_at, updated_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, false, now(), now())
		`, sl.ID, sl.ScheduleID, sl.Origin, dow, sl.SlotDate, sl.StartTime, sl.EndTime)
		if err != nil {
			return fmt.Errorf("insert slot: %w", err)
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
