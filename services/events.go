package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// JobEvent is emitted after every committed change to a job
type JobEvent struct {
	Action     string    `json:"action"`
	JobID      uint      `json:"job_id"`
	TailorID   uint      `json:"tailor_id"`
	UserID     *uint     `json:"user_id,omitempty"`
	FromStatus string    `json:"from_status,omitempty"`
	Status     string    `json:"status"`
	ActorID    uint      `json:"actor_id"`
	ActorRole  string    `json:"actor_role"`
	OccurredAt time.Time `json:"occurred_at"`
}

// RoutingKey is the topic the event is published under
func (e JobEvent) RoutingKey() string {
	return "job." + e.Action
}

// EventPublisher delivers job events to interested consumers
type EventPublisher interface {
	PublishJobEvent(ctx context.Context, event JobEvent) error
}

var publisherInstance EventPublisher = LogPublisher{}

// GetEventPublisher returns the configured publisher
func GetEventPublisher() EventPublisher {
	return publisherInstance
}

// SetEventPublisher replaces the publisher (primarily for testing)
func SetEventPublisher(p EventPublisher) {
	publisherInstance = p
}

// LogPublisher writes events to the application log
type LogPublisher struct{}

// PublishJobEvent logs the event
func (LogPublisher) PublishJobEvent(ctx context.Context, event JobEvent) error {
	log.Info().
		Str("action", event.Action).
		Uint("job_id", event.JobID).
		Uint("tailor_id", event.TailorID).
		Str("from", event.FromStatus).
		Str("status", event.Status).
		Uint("actor_id", event.ActorID).
		Msg("job event")
	return nil
}

// RabbitMQPublisher publishes events to a durable topic exchange
type RabbitMQPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	mu       sync.Mutex
}

// NewRabbitMQPublisher dials the broker and declares the exchange
func NewRabbitMQPublisher(url, exchange string) (*RabbitMQPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	log.Info().Str("exchange", exchange).Msg("RabbitMQ event publisher ready")
	return &RabbitMQPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

// PublishJobEvent sends the event as a persistent JSON message
func (p *RabbitMQPublisher) PublishJobEvent(ctx context.Context, event JobEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	// channels are not safe for concurrent publishing
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.ch.PublishWithContext(ctx, p.exchange, event.RoutingKey(), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.OccurredAt,
		Body:         body,
	})
}

// Close shuts down the channel and connection
func (p *RabbitMQPublisher) Close() error {
	if err := p.ch.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close RabbitMQ channel")
	}
	return p.conn.Close()
}

// eventPublishTimeout bounds a publish once it is detached from the request
const eventPublishTimeout = 5 * time.Second

// publishJobEvent never fails the caller: the job change is already committed.
// The publish outlives the request context, so a client hanging up after the
// commit does not drop the event.
func publishJobEvent(ctx context.Context, p EventPublisher, event JobEvent) {
	if p == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), eventPublishTimeout)
	defer cancel()
	if err := p.PublishJobEvent(ctx, event); err != nil {
		log.Error().Err(err).Str("action", event.Action).Uint("job_id", event.JobID).Msg("failed to publish job event")
	}
}
