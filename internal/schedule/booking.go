package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/carebridge/telehealth-scheduling/internal/events"
	redisclient "github.com/carebridge/telehealth-scheduling/internal/redis"
)

const (
	EventSlotRequested = "slot.requested"
	EventSlotAccepted  = "slot.accepted"
	EventSlotRejected  = "slot.rejected"
	EventSlotPaid      = "slot.paid"
	EventSlotCancelled = "slot.cancelled"
)

var (
	ErrSlotUnavailable   = errors.New("slot is already booked or has a pending request")
	ErrSlotBeingBooked   = errors.New("slot is currently being booked, please retry")
	ErrInvalidTransition = errors.New("invalid slot request status transition")
	ErrDailyLimitReached = errors.New("daily appointment limit reached for this schedule")
)

// Booking is the concurrency-critical coordinator: it guarantees at most
// one successful reservation per slot and drives each request through
// pending -> accepted/rejected.
type Booking struct {
	repo       Repository
	locker     redisclient.Locker
	publisher  events.Publisher
	pendingTTL time.Duration
	log        *zap.Logger
}

func NewBooking(repo Repository, locker redisclient.Locker, publisher events.Publisher, pendingTTL time.Duration, log *zap.Logger) *Booking {
	return &Booking{
		repo:       repo,
		locker:     locker,
		publisher:  publisher,
		pendingTTL: pendingTTL,
		log:        log,
	}
}

// RequestSlot reserves a slot for a client. The commit point is a single
// conditional update stamping the slot's request pointer; of any number of
// concurrent callers exactly one wins, the rest get ErrSlotUnavailable.
// The per-slot Redis lock narrows the race window but correctness does not
// depend on it.
func (b *Booking) RequestSlot(ctx context.Context, principal Principal, scheduleID, slotID uuid.UUID) (*SlotRequest, error) {
	if principal.Role != RoleClient {
		return nil, ErrUnauthorized
	}
	if _, err := b.repo.GetPatientByID(ctx, principal.ID); err != nil {
		return nil, err
	}

	sched, err := b.repo.GetScheduleByID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if !sched.IsActive {
		return nil, ErrScheduleNotFound
	}

	slot, err := b.repo.GetSlotByID(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if slot.ScheduleID != scheduleID {
		return nil, ErrSlotNotFound
	}
	if slot.IsBooked || slot.RequestID != nil {
		return nil, ErrSlotUnavailable
	}

	date := nextOccurrence(slot, time.Now())

	// Advisory cap: the count runs outside the reservation CAS, so
	// concurrent requests for different slots on the same date can
	// briefly overshoot it.
	active, err := b.repo.CountActiveRequestsForDate(ctx, scheduleID, date)
	if err != nil {
		return nil, err
	}
	if active >= sched.MaxAppointmentsPerDay {
		return nil, ErrDailyLimitReached
	}

	req := &SlotRequest{
		ID:            uuid.New(),
		DoctorID:      sched.DoctorID,
		PatientID:     principal.ID,
		ScheduleID:    scheduleID,
		SlotID:        slotID,
		Date:          date,
		Time:          slot.StartTime,
		Fee:           sched.ConsultationFee,
		Status:        RequestPending,
		PaymentStatus: PaymentUnpaid,
	}

	err = b.locker.WithSlotLock(ctx, slotID, func(lockCtx context.Context) error {
		if err := b.repo.ReserveSlot(lockCtx, slotID, req.ID); err != nil {
			return err
		}
		if err := b.repo.CreateSlotRequest(lockCtx, req); err != nil {
			// Compensate: the reservation pointer must not outlive a
			// request row that never existed.
			if relErr := b.repo.ReleaseSlot(lockCtx, slotID, req.ID); relErr != nil {
				b.log.Error("release after failed request insert",
					zap.String("slot_id", slotID.String()),
					zap.Error(relErr),
				)
			}
			return fmt.Errorf("create slot request: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	b.emit(ctx, EventSlotRequested, req)
	return req, nil
}

// DecideRequest applies the doctor's accept/reject decision. Both outcomes
// are terminal; a second call fails with ErrInvalidTransition and leaves
// slot state untouched.
func (b *Booking) DecideRequest(ctx context.Context, principal Principal, requestID uuid.UUID, decision RequestStatus) (*SlotRequest, error) {
	if decision != RequestAccepted && decision != RequestRejected {
		return nil, fmt.Errorf("%w: decision must be accepted or rejected", ErrValidation)
	}

	req, err := b.repo.GetSlotRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if principal.Role != RoleDoctor || principal.ID != req.DoctorID {
		return nil, ErrUnauthorized
	}

	return b.decide(ctx, req, decision)
}

func (b *Booking) decide(ctx context.Context, req *SlotRequest, decision RequestStatus) (*SlotRequest, error) {
	updated, err := b.repo.UpdateRequestStatus(ctx, req.ID, RequestPending, decision)
	if err != nil {
		return nil, err
	}

	switch decision {
	case RequestAccepted:
		appointmentID := uuid.New()
		if err := b.repo.ConfirmSlot(ctx, updated.SlotID, updated.ID, appointmentID, updated.PatientID); err != nil {
			return nil, fmt.Errorf("confirm slot: %w", err)
		}
		if err := b.repo.IncrementStat(ctx, updated.ScheduleID, StatTotal); err != nil {
			b.log.Error("increment total appointments",
				zap.String("schedule_id", updated.ScheduleID.String()),
				zap.Error(err),
			)
		}
		b.emit(ctx, EventSlotAccepted, updated)
	case RequestRejected:
		if err := b.repo.ReleaseSlot(ctx, updated.SlotID, updated.ID); err != nil {
			return nil, fmt.Errorf("release slot: %w", err)
		}
		b.emit(ctx, EventSlotRejected, updated)
	}

	return updated, nil
}

// GetRequest loads a slot request by ID.
func (b *Booking) GetRequest(ctx context.Context, requestID uuid.UUID) (*SlotRequest, error) {
	return b.repo.GetSlotRequestByID(ctx, requestID)
}

// MarkRequestPaid is called by the payment gateway collaborator after a
// successful capture. It requires an accepted, unpaid request.
func (b *Booking) MarkRequestPaid(ctx context.Context, requestID uuid.UUID) (*SlotRequest, error) {
	req, err := b.repo.MarkRequestPaid(ctx, requestID)
	if err != nil {
		return nil, err
	}
	b.emit(ctx, EventSlotPaid, req)
	return req, nil
}

// CancelBooking frees the slot behind an accepted request. The doctor who
// owns the request or the patient who made it may cancel.
func (b *Booking) CancelBooking(ctx context.Context, principal Principal, requestID uuid.UUID) (*SlotRequest, error) {
	req, err := b.repo.GetSlotRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	allowed := (principal.Role == RoleDoctor && principal.ID == req.DoctorID) ||
		(principal.Role == RoleClient && principal.ID == req.PatientID)
	if !allowed {
		return nil, ErrUnauthorized
	}
	if req.Status != RequestAccepted {
		return nil, ErrInvalidTransition
	}

	if err := b.repo.FreeSlot(ctx, req.SlotID, req.ID); err != nil {
		return nil, err
	}
	if err := b.repo.IncrementStat(ctx, req.ScheduleID, StatCancelled); err != nil {
		b.log.Error("increment cancelled appointments",
			zap.String("schedule_id", req.ScheduleID.String()),
			zap.Error(err),
		)
	}

	b.emit(ctx, EventSlotCancelled, req)
	return req, nil
}

// ExpireStalePending rejects pending requests older than the pending TTL.
// Intended to be called periodically by the expiry worker; it reuses the
// exact rejection transition, so a racing doctor decision simply wins or
// loses the CAS.
func (b *Booking) ExpireStalePending(ctx context.Context) error {
	cutoff := time.Now().Add(-b.pendingTTL)
	stale, err := b.repo.FindStalePending(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("find stale pending requests: %w", err)
	}

	for i := range stale {
		req := &stale[i]
		if _, err := b.decide(ctx, req, RequestRejected); err != nil {
			if errors.Is(err, ErrInvalidTransition) {
				continue // decided while we were scanning
			}
			b.log.Error("expire pending request",
				zap.String("request_id", req.ID.String()),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (b *Booking) emit(ctx context.Context, eventType string, req *SlotRequest) {
	payload, err := json.Marshal(map[string]any{
		"request_id":  req.ID.String(),
		"doctor_id":   req.DoctorID.String(),
		"patient_id":  req.PatientID.String(),
		"schedule_id": req.ScheduleID.String(),
		"slot_id":     req.SlotID.String(),
	})
	if err != nil {
		b.log.Error("marshal event payload", zap.String("type", eventType), zap.Error(err))
		payload = nil
	}

	reqID := req.ID
	ev := EventLog{
		EventType: eventType,
		RequestID: &reqID,
		Payload:   payload,
		CreatedAt: time.Now(),
	}
	if err := b.repo.InsertEvent(ctx, ev); err != nil {
		b.log.Error("insert event log", zap.String("type", eventType), zap.Error(err))
	}

	err = b.publisher.Publish(ctx, events.Event{
		Type:       eventType,
		RequestID:  req.ID,
		DoctorID:   req.DoctorID,
		PatientID:  req.PatientID,
		ScheduleID: req.ScheduleID,
		SlotID:     req.SlotID,
	})
	if err != nil {
		b.log.Error("publish event", zap.String("type", eventType), zap.Error(err))
	}
}

// nextOccurrence resolves the concrete calendar date a slot refers to:
// dated slots carry their own date, weekly slots map to the next matching
// weekday (today included).
func nextOccurrence(slot *Slot, now time.Time) time.Time {
	if slot.SlotDate != nil {
		return *slot.SlotDate
	}
	date := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if slot.DayOfWeek == nil {
		return date
	}
	offset := (int(*slot.DayOfWeek) - int(date.Weekday()) + 7) % 7
	return date.AddDate(0, 0, offset)
}
