package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DatasetPublisher publishes dataset mutation events to RabbitMQ.
// Counters are atomic: handlers publish from concurrent request
// goroutines.
type DatasetPublisher struct {
	conn              *RabbitMQConnection
	messagesPublished atomic.Int64
	messagesFailed    atomic.Int64
	lastPublishNano   atomic.Int64
}

// PublisherStats is a point-in-time snapshot of the publisher counters,
// reported on the health endpoint.
type PublisherStats struct {
	MessagesPublished int64     `json:"messages_published"`
	MessagesFailed    int64     `json:"messages_failed"`
	LastPublishTime   time.Time `json:"last_publish_time"`
}

// NewDatasetPublisher creates a new dataset event publisher
func NewDatasetPublisher(conn *RabbitMQConnection) *DatasetPublisher {
	return &DatasetPublisher{conn: conn}
}

// Stats returns the current counter values. LastPublishTime is the zero
// epoch until the first successful publish.
func (p *DatasetPublisher) Stats() PublisherStats {
	return PublisherStats{
		MessagesPublished: p.messagesPublished.Load(),
		MessagesFailed:    p.messagesFailed.Load(),
		LastPublishTime:   time.Unix(0, p.lastPublishNano.Load()),
	}
}

func (p *DatasetPublisher) recordSuccess() {
	p.messagesPublished.Add(1)
	p.lastPublishNano.Store(time.Now().UnixNano())
}

func (p *DatasetPublisher) recordFailure() {
	p.messagesFailed.Add(1)
}

// PublishDatasetEvent publishes one mutation event to the dataset_events
// queue. Callers treat failures as best-effort: a lost signal never rolls
// back the persisted mutation.
func (p *DatasetPublisher) PublishDatasetEvent(ctx context.Context, event DatasetEventMessage) error {
	// Ensure the queue exists
	_, err := p.conn.Channel.QueueDeclare(
		DatasetEventsQueue, // queue name
		true,               // durable
		false,              // delete when unused
		false,              // exclusive
		false,              // no-wait
		nil,                // arguments
	)
	if err != nil {
		p.recordFailure()
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.recordFailure()
		return fmt.Errorf("failed to marshal dataset event: %w", err)
	}

	err = p.conn.Channel.PublishWithContext(
		ctx,
		"",                 // exchange
		DatasetEventsQueue, // routing key (queue name)
		false,              // mandatory
		false,              // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		p.recordFailure()
		return fmt.Errorf("failed to publish dataset event: %w", err)
	}

	p.recordSuccess()

	slog.Info("Dataset event published",
		"queue", DatasetEventsQueue,
		"event_type", event.EventType,
		"dataset_id", event.DatasetID,
		"address", event.Address,
	)

	return nil
}
