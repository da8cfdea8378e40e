// Package rabbitmq implements the queue boundary on a durable
// RabbitMQ queue with manual acknowledgment.
package rabbitmq

import (
	"context"
	"fmt"

	"github.com/streadway/amqp"
	nuts "github.com/vaudience/go-nuts"

	"github.com/itsatony/trackhub/internal/config"
	"github.com/itsatony/trackhub/internal/queue"
)

const consumerTag = "trackhub-ingest"

// Queue is a RabbitMQ-backed publisher/consumer pair sharing one
// connection.
type Queue struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	name     string
	prefetch int
}

// New dials the broker, declares the durable queue and applies the
// prefetch window. Prefetch 1 keeps at most one unacknowledged event
// in flight per consumer.
func New(cfg config.QueueConfig) (*Queue, error) {
	conn, err := amqp.Dial(cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ at %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = 1
	}
	if err := channel.Qos(prefetch, 0, false); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set prefetch: %w", err)
	}

	if _, err := channel.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %q: %w", cfg.Queue, err)
	}

	nuts.L.Infof("[RabbitMQ] Connected to %s:%d, queue %q (prefetch %d)", cfg.Host, cfg.Port, cfg.Queue, prefetch)
	return &Queue{conn: conn, channel: channel, name: cfg.Queue, prefetch: prefetch}, nil
}

// Publish places a persistent message on the queue.
func (q *Queue) Publish(ctx context.Context, body []byte) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", queue.ErrPublishFailed, err)
	}
	err := q.channel.Publish("", q.name, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", queue.ErrPublishFailed, err)
	}
	return nil
}

// Consume starts delivering queued events. The returned channel closes
// when the context is cancelled or the broker channel shuts down;
// deliveries left unacknowledged at that point are redelivered to the
// next consumer.
func (q *Queue) Consume(ctx context.Context) (<-chan queue.Delivery, error) {
	msgs, err := q.channel.Consume(q.name, consumerTag, false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", queue.ErrConsumeUnavailable, err)
	}

	out := make(chan queue.Delivery)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				if err := q.channel.Cancel(consumerTag, false); err != nil {
					nuts.L.Warnf("[RabbitMQ] Failed to cancel consumer: %v", err)
				}
				return
			case msg, ok := <-msgs:
				if !ok {
					nuts.L.Warnf("[RabbitMQ] Delivery channel closed by broker")
					return
				}
				select {
				case out <- &delivery{msg: msg}:
				case <-ctx.Done():
					// Unacked, the broker will redeliver.
					return
				}
			}
		}
	}()

	return out, nil
}

// Close shuts down the channel and connection.
func (q *Queue) Close() error {
	if err := q.channel.Close(); err != nil {
		q.conn.Close()
		return err
	}
	return q.conn.Close()
}

type delivery struct {
	msg amqp.Delivery
}

func (d *delivery) Body() []byte {
	return d.msg.Body
}

func (d *delivery) Ack() error {
	return d.msg.Ack(false)
}

func (d *delivery) Reject(requeue bool) error {
	return d.msg.Reject(requeue)
}
