// Package queue defines the event queue boundary between producers
// (the simulator, real devices) and the ingest writer. Delivery is
// at-least-once: consumers must treat a redelivered event as an
// idempotent overwrite.
package queue

import (
	"context"
	"errors"
)

var (
	// ErrPublishFailed indicates that an event could not be handed to the broker
	ErrPublishFailed = errors.New("queue publish failed")
	// ErrConsumeUnavailable indicates that the delivery stream cannot be (or is no longer) served
	ErrConsumeUnavailable = errors.New("queue consume unavailable")
)

// Publisher hands serialized events to the broker.
type Publisher interface {
	Publish(ctx context.Context, body []byte) error
	Close() error
}

// Consumer produces a stream of deliveries for one consumer group.
// The returned channel is closed when the broker connection drops or
// the context is cancelled; a restarted consumer replays every
// delivery that was never acknowledged.
type Consumer interface {
	Consume(ctx context.Context) (<-chan Delivery, error)
	Close() error
}

// Delivery is a single in-flight event. Ack must only be called after
// the event has been durably applied; Reject with requeue returns the
// event to the queue for redelivery.
type Delivery interface {
	Body() []byte
	Ack() error
	Reject(requeue bool) error
}
