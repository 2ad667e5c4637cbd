package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const analysisQueueName = "analysis.completed"

// Publisher sends analysis events to RabbitMQ. Errors are logged and
// returned so callers can ignore failures without interrupting the main
// request flow; a broken broker must never block a classification response.
type Publisher struct {
	url string
	log *zap.SugaredLogger
}

// NewPublisher returns a Publisher for the given broker URL, or nil when the
// URL is empty (events disabled).
func NewPublisher(url string, log *zap.SugaredLogger) *Publisher {
	if url == "" {
		return nil
	}
	return &Publisher{url: url, log: log}
}

// PublishAnalysisCompleted publishes an AnalysisCompletedEvent to the
// analysis.completed queue. The function dials per call, never panics, and
// marks messages as persistent.
func (p *Publisher) PublishAnalysisCompleted(ctx context.Context, event AnalysisCompletedEvent) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Warnw("rabbitmq: dial failed", "err", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warnw("rabbitmq: channel open failed", "err", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive
	// broker restarts.
	if _, err := ch.QueueDeclare(analysisQueueName, true, false, false, false, nil); err != nil {
		p.log.Warnw("rabbitmq: queue declare failed", "err", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.log.Warnw("rabbitmq: marshal event failed", "err", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx, "", analysisQueueName, false, false, pub); err != nil {
		p.log.Warnw("rabbitmq: publish failed", "err", err)
		return err
	}
	return nil
}
