// Package ingest consumes queued location events and applies them
// durably to the time-series store.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	nuts "github.com/vaudience/go-nuts"

	"github.com/itsatony/trackhub/internal/models"
	"github.com/itsatony/trackhub/internal/queue"
	"github.com/itsatony/trackhub/internal/repository"
)

var (
	// ErrInvalidEvent marks a malformed event; the delivery is acked
	// and dropped so it cannot poison the queue.
	ErrInvalidEvent = errors.New("invalid event")
	// ErrStorageUnavailable marks a failed durable write; the
	// delivery stays unacknowledged and is redelivered.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Broadcaster pushes an accepted sample to live observers.
type Broadcaster interface {
	Broadcast(update models.LocationUpdate)
}

// Writer is the queue consumer. It processes one delivery at a time
// and acknowledges only after the sample is durably stored, so a
// crash mid-write is recovered by redelivery.
type Writer struct {
	locations    repository.LocationRepository
	registry     repository.DeviceRegistry
	hub          Broadcaster
	consumer     queue.Consumer
	storeTimeout time.Duration
	retryBackoff time.Duration
}

// New creates a writer. registry and hub are optional; both are
// best-effort side channels that never fail an ingest.
func New(locations repository.LocationRepository, registry repository.DeviceRegistry, hub Broadcaster, consumer queue.Consumer, storeTimeout, retryBackoff time.Duration) *Writer {
	if storeTimeout <= 0 {
		storeTimeout = 5 * time.Second
	}
	if retryBackoff <= 0 {
		retryBackoff = time.Second
	}
	return &Writer{
		locations:    locations,
		registry:     registry,
		hub:          hub,
		consumer:     consumer,
		storeTimeout: storeTimeout,
		retryBackoff: retryBackoff,
	}
}

// Run consumes deliveries until the context is cancelled or the
// delivery stream closes.
func (w *Writer) Run(ctx context.Context) error {
	deliveries, err := w.consumer.Consume(ctx)
	if err != nil {
		return err
	}

	nuts.L.Infof("[Ingest] Waiting for location events")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return queue.ErrConsumeUnavailable
			}
			w.handle(ctx, d)
		}
	}
}

// handle applies one delivery and settles it according to the
// outcome: durable write => ack, malformed event => ack and drop,
// store failure => requeue for redelivery.
func (w *Writer) handle(ctx context.Context, d queue.Delivery) {
	err := w.Apply(ctx, d.Body())
	switch {
	case err == nil:
		if ackErr := d.Ack(); ackErr != nil {
			nuts.L.Errorf("[Ingest] Failed to ack delivery: %v", ackErr)
		}
	case errors.Is(err, ErrInvalidEvent):
		nuts.L.Warnf("[Ingest] Dropping malformed event: %v", err)
		if ackErr := d.Ack(); ackErr != nil {
			nuts.L.Errorf("[Ingest] Failed to ack dropped event: %v", ackErr)
		}
	default:
		nuts.L.Errorf("[Ingest] Apply failed, requeueing: %v", err)
		if rejErr := d.Reject(true); rejErr != nil {
			nuts.L.Errorf("[Ingest] Failed to requeue delivery: %v", rejErr)
		}
		// Keep a down store from spinning the redelivery loop.
		select {
		case <-ctx.Done():
		case <-time.After(w.retryBackoff):
		}
	}
}

// Apply decodes, validates and persists one event. Re-applying the
// same event upserts the same (date, device_id, ts) row, so
// redelivery leaves the store unchanged.
func (w *Writer) Apply(ctx context.Context, body []byte) error {
	var event models.QueuedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if err := event.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	sample := event.ToSample()

	storeCtx, cancel := context.WithTimeout(ctx, w.storeTimeout)
	defer cancel()
	if err := w.locations.Upsert(storeCtx, &sample); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	if w.registry != nil {
		if err := w.registry.RegisterDevice(ctx, sample.DeviceID); err != nil {
			nuts.L.Warnf("[Ingest] Failed to register device %s: %v", sample.DeviceID, err)
		}
	}
	if w.hub != nil {
		w.hub.Broadcast(models.NewLocationUpdate(sample))
	}

	nuts.L.Debugf("[Ingest] Stored %s @ %s (%f, %f)", sample.DeviceID, sample.Timestamp, sample.Latitude, sample.Longitude)
	return nil
}
