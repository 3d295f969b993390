package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const ExchangeName = "scheduling.events"

// Event is a scheduling domain event. Type doubles as the routing key.
type Event struct {
	Type       string    `json:"type"`
	RequestID  uuid.UUID `json:"request_id"`
	DoctorID   uuid.UUID `json:"doctor_id"`
	PatientID  uuid.UUID `json:"patient_id"`
	ScheduleID uuid.UUID `json:"schedule_id"`
	SlotID     uuid.UUID `json:"slot_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher hands scheduling events to the notification transport.
// Delivery mechanics past the broker are the transport's responsibility.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// NopPublisher is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }

// AMQPPublisher publishes events to a durable topic exchange.
type AMQPPublisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	log  *zap.Logger
}

func NewAMQPPublisher(url string, log *zap.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		ExchangeName,
		"topic",
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &AMQPPublisher{conn: conn, ch: ch, log: log}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, ev Event) error {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now()
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	err = p.ch.PublishWithContext(ctx,
		ExchangeName,
		ev.Type, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    ev.OccurredAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}

	p.log.Debug("event published",
		zap.String("type", ev.Type),
		zap.String("request_id", ev.RequestID.String()),
	)
	return nil
}

func (p *AMQPPublisher) Close() error {
	if err := p.ch.Close(); err != nil {
		_ = p.conn.Close()
		return err
	}
	return p.conn.Close()
}
