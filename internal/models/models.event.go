// FilePath: internal/models/models.event.go
package models

import (
	"fmt"
	"time"
)

// QueuedEvent is the wire representation of a location sample in
// transit through the event queue. Its (device_id, timestamp) pair is
// the upsert key, so a redelivered event overwrites the row it already
// wrote.
type QueuedEvent struct {
	DeviceID  string  `json:"device_id"`
	Timestamp int64   `json:"timestamp"` // unix seconds, UTC
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate reports the first invalid or missing field.
func (e QueuedEvent) Validate() error {
	if e.DeviceID == "" {
		return fmt.Errorf("missing field device_id")
	}
	if e.Timestamp <= 0 {
		return fmt.Errorf("invalid field timestamp: %d", e.Timestamp)
	}
	if e.Latitude < -90 || e.Latitude > 90 {
		return fmt.Errorf("invalid field latitude: %f", e.Latitude)
	}
	if e.Longitude < -180 || e.Longitude > 180 {
		return fmt.Errorf("invalid field longitude: %f", e.Longitude)
	}
	return nil
}

// ToSample normalizes the event into a storable sample, deriving the
// partition date from the timestamp in UTC.
func (e QueuedEvent) ToSample() LocationSample {
	ts := time.Unix(e.Timestamp, 0).UTC()
	return LocationSample{
		DeviceID:  e.DeviceID,
		Date:      ts.Format("2006-01-02"),
		Timestamp: ts,
		Latitude:  e.Latitude,
		Longitude: e.Longitude,
	}
}
