package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher sends events to RabbitMQ. A nil *Publisher is a valid no-op, so
// callers never need to branch on whether the broker is configured.
type Publisher struct {
	url    string
	logger *zap.Logger
}

// NewPublisher creates a publisher for the given broker URL.
func NewPublisher(url string, logger *zap.Logger) *Publisher {
	return &Publisher{url: url, logger: logger}
}

// Publish marshals the payload and delivers it to the named durable queue.
// Connections are short-lived; publish volume here is a handful of events per
// user action, not a throughput concern.
func (p *Publisher) Publish(ctx context.Context, queue string, payload interface{}) error {
	if p == nil {
		return nil
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.logger.Warn("amqp dial failed", zap.String("queue", queue), zap.Error(err))
		return fmt.Errorf("amqp dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.logger.Warn("amqp channel open failed", zap.String("queue", queue), zap.Error(err))
		return fmt.Errorf("amqp channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		p.logger.Warn("amqp queue declare failed", zap.String("queue", queue), zap.Error(err))
		return fmt.Errorf("amqp queue declare: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx, "", queue, false, false, pub); err != nil {
		p.logger.Warn("amqp publish failed", zap.String("queue", queue), zap.Error(err))
		return fmt.Errorf("amqp publish: %w", err)
	}

	return nil
}
