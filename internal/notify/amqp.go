package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/caresched/hospital-appointments/internal/appointment"
)

// ExchangeName is the topic exchange carrying appointment events. The
// email/SMS senders consume from it; delivery is their problem, not ours.
const ExchangeName = "hospital.appointments"

// AMQPNotifier publishes booked/cancelled events to RabbitMQ. It
// implements appointment.Notifier.
type AMQPNotifier struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	mu      sync.Mutex
}

func NewAMQPNotifier(url string) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		ExchangeName, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	log.Printf("amqp notifier connected exchange=%s", ExchangeName)

	return &AMQPNotifier{
		conn:    conn,
		channel: ch,
	}, nil
}

func (n *AMQPNotifier) NotifyBooked(ctx context.Context, appt *appointment.Appointment) error {
	ev := BookedEvent{
		AppointmentID: appt.ID,
		PatientID:     appt.PatientID,
		DoctorID:      appt.DoctorID,
		Date:          appt.Date,
		Time:          appt.Time,
		Reason:        appt.Reason,
		BookedAt:      appt.CreatedAt,
	}
	return n.publish(ctx, RoutingKeyBooked, ev)
}

func (n *AMQPNotifier) NotifyCancelled(ctx context.Context, appt *appointment.Appointment, reason string) error {
	ev := CancelledEvent{
		AppointmentID: appt.ID,
		PatientID:     appt.PatientID,
		DoctorID:      appt.DoctorID,
		Date:          appt.Date,
		Time:          appt.Time,
		CancelReason:  reason,
		CancelledAt:   appt.UpdatedAt,
	}
	return n.publish(ctx, RoutingKeyCancelled, ev)
}

func (n *AMQPNotifier) publish(ctx context.Context, routingKey string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", routingKey, err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	err = n.channel.PublishWithContext(ctx,
		ExchangeName, // exchange
		routingKey,   // routing key
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         payload,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}

	return nil
}

func (n *AMQPNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.channel != nil {
		if err := n.channel.Close(); err != nil {
			log.Printf("error closing amqp channel: %v", err)
		}
	}

	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}

// NoopNotifier is used when no AMQP_URL is configured (dev, tests).
type NoopNotifier struct{}

func (NoopNotifier) NotifyBooked(ctx context.Context, appt *appointment.Appointment) error {
	return nil
}

func (NoopNotifier) NotifyCancelled(ctx context.Context, appt *appointment.Appointment, reason string) error {
	return nil
}
